package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"snipmerge/internal/config"
	"snipmerge/internal/logging"
)

var (
	// Global flags
	verbose    bool
	configPath string
	timeout    time.Duration

	cfg    *config.Config
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "snipmerge",
	Short: "Merge LLM code snippets with placeholders into existing files",
	Long: `snipmerge reconciles a code snippet that elides unchanged code behind
placeholder comments ("// ... rest of code", "{/* ... */}") with the file it
edits, splicing the existing lines back in where each placeholder sits.

Configuration is read from --config (YAML) and SNIPMERGE_* environment
variables.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if verbose {
			cfg.Logging.DebugMode = true
			cfg.Logging.Level = "debug"
		}
		logger, err = logging.New(cfg.Logging)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		logging.For(logger, cfg.Logging, logging.CategoryBoot).Debug("config loaded",
			zap.String("path", configPath),
			zap.Float64("anchor_threshold", cfg.Merge.AnchorThreshold),
			zap.String("similarity", cfg.Merge.Similarity))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "snipmerge.yaml", "Config file (missing file uses defaults)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", time.Minute, "Operation timeout")

	// Merge flags
	mergeCmd.Flags().StringVar(&mergeExisting, "existing", "", "Existing file (missing file is treated as empty)")
	mergeCmd.Flags().StringVar(&mergeSnippet, "snippet", "-", "Snippet file, - for stdin")
	mergeCmd.Flags().StringVarP(&mergeOut, "out", "o", "", "Write the result here instead of stdout")
	mergeCmd.Flags().BoolVar(&mergeShowDiff, "diff", false, "Print a diff of the change instead of the merged file")
	mergeCmd.Flags().BoolVar(&mergeExtract, "extract", false, "Extract code from a chat response before merging")
	mergeCmd.MarkFlagRequired("existing")

	// Batch flags
	batchCmd.Flags().IntVarP(&batchJobs, "jobs", "j", 4, "Merges to run concurrently")
	batchCmd.Flags().BoolVar(&batchDryRun, "dry-run", false, "Report changes without writing files")

	// Extract flags
	extractCmd.Flags().StringVar(&extractLangPath, "path", "snippet.jsx", "File name whose extension picks the grammar")

	// Diff flags
	diffCmd.Flags().BoolVar(&diffColor, "color", false, "Colour the output")
	diffCmd.Flags().BoolVarP(&diffIgnoreSpace, "ignore-whitespace", "w", false, "Hide whitespace-only changes")

	// Add commands to root
	rootCmd.AddCommand(mergeCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(classifyCmd)
	rootCmd.AddCommand(diffCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
