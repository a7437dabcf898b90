// Package snipmerge merges LLM-written code snippets, which elide unchanged
// code behind placeholder comments such as "// ... rest of code", into the
// JavaScript or TypeScript files they edit.
//
//	merged, err := snipmerge.MergeSnippetIntoFile(ctx, existing, snippet, "src/App.jsx")
//
// Callers that need the diagnostics use Merge, and callers driven by a config
// file build an engine with EngineFromConfig.
package snipmerge

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"snipmerge/internal/config"
	"snipmerge/internal/diff"
	"snipmerge/internal/imports"
	"snipmerge/internal/logging"
	"snipmerge/internal/merge"
	"snipmerge/internal/similarity"
)

type (
	Engine         = merge.Engine
	Option         = merge.Option
	Result         = merge.Result
	Diagnostic     = merge.Diagnostic
	DiagnosticKind = merge.DiagnosticKind
)

var (
	WithThreshold   = merge.WithThreshold
	WithScorer      = merge.WithScorer
	WithSyntaxAware = merge.WithSyntaxAware
	WithRestOfFile  = merge.WithRestOfFile
	WithDiffOracle  = merge.WithDiffOracle
	WithImports     = merge.WithImports
	WithLogger      = merge.WithLogger
)

// MergeSnippetIntoFile returns snippet with every resolvable placeholder
// replaced by the existing lines it stands for. filePath selects the grammar;
// the file is not read.
func MergeSnippetIntoFile(ctx context.Context, existing, snippet, filePath string, opts ...Option) (string, error) {
	res, err := Merge(ctx, existing, snippet, filePath, opts...)
	if err != nil {
		return "", err
	}
	return res.Content, nil
}

// Merge is MergeSnippetIntoFile with the full result.
func Merge(ctx context.Context, existing, snippet, filePath string, opts ...Option) (*Result, error) {
	return merge.New(opts...).Merge(ctx, existing, snippet, filePath)
}

// EngineFromConfig builds an engine from a validated configuration. The
// threshold, scorer, diff oracle and import reconciler all come from cfg.
func EngineFromConfig(cfg *config.Config, logger *zap.Logger) (*Engine, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	score, err := similarity.ByName(cfg.Merge.Similarity)
	if err != nil {
		return nil, err
	}
	opts := []Option{
		merge.WithThreshold(cfg.Merge.AnchorThreshold),
		merge.WithScorer(score),
		merge.WithSyntaxAware(cfg.Merge.SyntaxAware),
		merge.WithRestOfFile(cfg.Merge.RestOfFile),
		merge.WithLogger(logging.For(logger, cfg.Logging, logging.CategoryMerge)),
	}

	if mp := cfg.MissingPlaceholders; mp.Enabled {
		oracle, err := diff.NewOracle(mp.Oracle, mp.BaseURL, cfg.GetOracleTimeout())
		if err != nil {
			return nil, fmt.Errorf("diff oracle: %w", err)
		}
		if oracle != nil {
			log := logging.For(logger, cfg.Logging, logging.CategoryOracle)
			opts = append(opts, merge.WithDiffOracle(timedOracle{oracle: oracle, log: log}, mp.MinOmittedLines))
		}
	}

	if cfg.Imports.Preserve {
		opts = append(opts, merge.WithImports(imports.New(imports.Options{
			CorrectPaths: cfg.Imports.CorrectPaths,
			ProjectRoot:  cfg.Imports.ProjectRoot,
			Logger:       logging.For(logger, cfg.Logging, logging.CategoryImports),
		})))
	}

	return merge.New(opts...), nil
}

// timedOracle logs slow or failing oracle calls.
type timedOracle struct {
	oracle diff.Oracle
	log    *zap.Logger
}

const slowOracle = 2 * time.Second

func (o timedOracle) EqualSpans(ctx context.Context, a, b string) ([]diff.MatchSpan, error) {
	timer := logging.StartTimer(o.log, "diff oracle")
	spans, err := o.oracle.EqualSpans(ctx, a, b)
	timer.StopWithThreshold(slowOracle)
	if err != nil {
		o.log.Warn("diff oracle failed", zap.Error(err))
		return nil, err
	}
	o.log.Debug("diff oracle spans", zap.Int("spans", len(spans)))
	return spans, nil
}
