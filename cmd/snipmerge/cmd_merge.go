package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"snipmerge/internal/diff"
	"snipmerge/internal/extract"
	"snipmerge/internal/logging"
	"snipmerge/internal/syntax"
	"snipmerge/pkg/snipmerge"
)

var (
	mergeExisting string
	mergeSnippet  string
	mergeOut      string
	mergeShowDiff bool
	mergeExtract  bool
)

// mergeCmd merges one snippet into one file
var mergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "Merge a snippet into an existing file",
	Long: `Reads the existing file and a snippet, splices the existing code back
in place of the snippet's placeholders and prints the result.

A snippet without placeholders that is much shorter than the file is applied
as a fragment: each top-level declaration it defines replaces its namesake.

Example:
  snipmerge merge --existing src/App.jsx --snippet reply.jsx -o src/App.jsx`,
	Args: cobra.NoArgs,
	RunE: runMerge,
}

func runMerge(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	log := logging.For(logger, cfg.Logging, logging.CategoryCLI)

	existing, err := readExisting(mergeExisting)
	if err != nil {
		return err
	}
	snippet, err := readInput(cmd, mergeSnippet)
	if err != nil {
		return err
	}
	if mergeExtract {
		snippet, err = extract.Code(ctx, snippet, syntax.ForPath(mergeExisting),
			logging.For(logger, cfg.Logging, logging.CategoryExtract))
		if err != nil {
			return err
		}
	}

	engine, err := snipmerge.EngineFromConfig(cfg, logger)
	if err != nil {
		return err
	}
	out, err := apply(ctx, engine, existing, snippet, mergeExisting, log)
	if err != nil {
		return fmt.Errorf("merge %s: %w", mergeExisting, err)
	}
	for _, d := range out.Diagnostics {
		fmt.Fprintln(cmd.ErrOrStderr(), "warning:", d)
	}

	if mergeOut != "" {
		if err := writeFile(mergeOut, out.Content); err != nil {
			return err
		}
		log.Info("wrote merged file", zap.String("path", mergeOut), zap.Stringer("mode", out.Mode))
	}
	switch {
	case mergeShowDiff:
		return printDiff(cmd.OutOrStdout(), mergeExisting, existing, out.Content, diff.RenderOptions{})
	case mergeOut == "":
		_, err := io.WriteString(cmd.OutOrStdout(), ensureNewline(out.Content))
		return err
	}
	return nil
}

func printDiff(w io.Writer, path, before, after string, opts diff.RenderOptions) error {
	fd := diff.ComputeDiff(path, path, before, after)
	if fd.Empty() {
		_, err := fmt.Fprintln(w, "no changes")
		return err
	}
	added, removed := fd.Stats()
	logging.For(logger, cfg.Logging, logging.CategoryDiff).Debug("diff computed",
		zap.String("path", path), zap.Int("added", added), zap.Int("removed", removed))
	_, err := io.WriteString(w, diff.Render(fd, opts))
	return err
}
