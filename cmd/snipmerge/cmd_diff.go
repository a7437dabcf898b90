package main

import (
	"github.com/spf13/cobra"

	"snipmerge/internal/diff"
)

var (
	diffColor       bool
	diffIgnoreSpace bool
)

// diffCmd shows the line diff between two files
var diffCmd = &cobra.Command{
	Use:   "diff [old] [new]",
	Short: "Show a unified diff of two files",
	Args:  cobra.ExactArgs(2),
	RunE:  runDiff,
}

func runDiff(cmd *cobra.Command, args []string) error {
	before, err := readExisting(args[0])
	if err != nil {
		return err
	}
	after, err := readInput(cmd, args[1])
	if err != nil {
		return err
	}
	return printDiff(cmd.OutOrStdout(), args[0], before, after, diff.RenderOptions{
		Color:            diffColor,
		IgnoreWhitespace: diffIgnoreSpace,
	})
}
