package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"snipmerge/internal/diff"
	"snipmerge/internal/logging"
	"snipmerge/internal/merge"
	"snipmerge/pkg/snipmerge"
)

var (
	batchJobs   int
	batchDryRun bool
)

// batchCmd applies every job of a manifest
var batchCmd = &cobra.Command{
	Use:   "batch [manifest]",
	Short: "Apply many snippets listed in a YAML manifest",
	Long: `Runs one merge per manifest entry, several at a time. Paths are
relative to the manifest's directory.

Manifest:
  jobs:
    - file: src/App.jsx
      snippet: replies/App.jsx
    - file: src/api.js
      snippet: replies/api.js
      out: build/api.js   # defaults to file`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

// Manifest lists batch jobs.
type Manifest struct {
	Jobs []Job `yaml:"jobs"`
}

// Job is one snippet to apply.
type Job struct {
	File    string `yaml:"file"`
	Snippet string `yaml:"snippet"`
	Out     string `yaml:"out,omitempty"`
}

// JobResult reports one applied job.
type JobResult struct {
	Job         Job
	Mode        merge.Mode
	Added       int
	Removed     int
	Diagnostics []merge.Diagnostic
}

func loadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	base := filepath.Dir(path)
	for i := range m.Jobs {
		j := &m.Jobs[i]
		if j.File == "" || j.Snippet == "" {
			return nil, fmt.Errorf("manifest job %d: file and snippet are required", i+1)
		}
		if j.Out == "" {
			j.Out = j.File
		}
		j.File = resolve(base, j.File)
		j.Snippet = resolve(base, j.Snippet)
		j.Out = resolve(base, j.Out)
	}
	return &m, nil
}

func resolve(base, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}

func runBatch(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	m, err := loadManifest(args[0])
	if err != nil {
		return err
	}
	engine, err := snipmerge.EngineFromConfig(cfg, logger)
	if err != nil {
		return err
	}

	results, err := runJobs(ctx, engine, m.Jobs, batchJobs, batchDryRun,
		logging.For(logger, cfg.Logging, logging.CategoryCLI))
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	for _, r := range results {
		fmt.Fprintf(w, "%s\t%s\t+%d -%d\n", r.Job.Out, r.Mode, r.Added, r.Removed)
		for _, d := range r.Diagnostics {
			fmt.Fprintf(w, "  warning: %s\n", d)
		}
	}
	return nil
}

// runJobs applies jobs with at most limit in flight. Results keep manifest
// order. The first failing job cancels the rest.
func runJobs(ctx context.Context, engine *merge.Engine, jobs []Job, limit int, dryRun bool, log *zap.Logger) ([]JobResult, error) {
	if err := checkDistinctOutputs(jobs); err != nil {
		return nil, err
	}
	results := make([]JobResult, len(jobs))

	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, job := range jobs {
		i, job := i, job
		g.Go(func() error {
			r, err := runJob(ctx, engine, job, dryRun, log)
			if err != nil {
				return fmt.Errorf("%s: %w", job.File, err)
			}
			results[i] = *r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func runJob(ctx context.Context, engine *merge.Engine, job Job, dryRun bool, log *zap.Logger) (*JobResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	existing, err := readExisting(job.File)
	if err != nil {
		return nil, err
	}
	snippet, err := os.ReadFile(job.Snippet)
	if err != nil {
		return nil, fmt.Errorf("read snippet: %w", err)
	}

	out, err := apply(ctx, engine, existing, string(snippet), job.File, log)
	if err != nil {
		return nil, err
	}
	added, removed := diff.ComputeDiff(job.File, job.Out, existing, out.Content).Stats()
	if !dryRun {
		if err := writeFile(job.Out, out.Content); err != nil {
			return nil, err
		}
	}
	log.Debug("job done", zap.String("file", job.File), zap.Stringer("mode", out.Mode), zap.Bool("dry_run", dryRun))
	return &JobResult{Job: job, Mode: out.Mode, Added: added, Removed: removed, Diagnostics: out.Diagnostics}, nil
}

// checkDistinctOutputs rejects manifests where two jobs write one file.
func checkDistinctOutputs(jobs []Job) error {
	seen := make(map[string]int, len(jobs))
	for i, j := range jobs {
		key := filepath.Clean(j.Out)
		if prev, ok := seen[key]; ok {
			return fmt.Errorf("jobs %d and %d both write %s", prev+1, i+1, strings.TrimSpace(j.Out))
		}
		seen[key] = i
	}
	return nil
}
