package main

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"snipmerge/internal/extract"
	"snipmerge/internal/logging"
	"snipmerge/internal/syntax"
)

var extractLangPath string

// extractCmd prints the code found in an LLM response
var extractCmd = &cobra.Command{
	Use:   "extract [response]",
	Short: "Extract the code from a chat response",
	Long: `Drops Markdown fences and the prose around the code of an LLM reply.
Reads stdin when no file is given.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExtract,
}

func runExtract(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()
	return extractTo(ctx, cmd, args)
}

func extractTo(ctx context.Context, cmd *cobra.Command, args []string) error {
	src := "-"
	if len(args) == 1 {
		src = args[0]
	}
	text, err := readInput(cmd, src)
	if err != nil {
		return err
	}
	code, err := extract.Code(ctx, text, syntax.ForPath(extractLangPath),
		logging.For(logger, cfg.Logging, logging.CategoryExtract))
	if err != nil {
		return err
	}
	_, err = io.WriteString(cmd.OutOrStdout(), ensureNewline(code))
	return err
}
