package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"snipmerge/internal/placeholder"
)

// classifyCmd marks the placeholder lines of a snippet
var classifyCmd = &cobra.Command{
	Use:   "classify [snippet]",
	Short: "Show which snippet lines are placeholders",
	Long: `Prints every line of the snippet, prefixed with "P" when it is a
placeholder and a space otherwise, followed by a count.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runClassify,
}

func runClassify(cmd *cobra.Command, args []string) error {
	src := "-"
	if len(args) == 1 {
		src = args[0]
	}
	text, err := readInput(cmd, src)
	if err != nil {
		return err
	}

	lines := strings.Split(strings.TrimRight(strings.ReplaceAll(text, "\r\n", "\n"), "\n"), "\n")
	w := cmd.OutOrStdout()
	for i, l := range lines {
		mark := " "
		if placeholder.IsPlaceholder(l) {
			mark = "P"
		}
		fmt.Fprintf(w, "%s %4d  %s\n", mark, i+1, l)
	}
	fmt.Fprintf(w, "%d placeholder(s) in %d line(s)\n", placeholder.Count(lines), len(lines))
	if placeholder.EndsWithPlaceholder(text) {
		fmt.Fprintln(w, "ends with a placeholder: a closing line will be added before merging")
	}
	return nil
}
