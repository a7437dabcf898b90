package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"snipmerge/internal/merge"
)

// applied is the outcome of applying one snippet to one file.
type applied struct {
	Content     string
	Mode        merge.Mode
	Diagnostics []merge.Diagnostic
}

// apply picks how snippet edits existing and does it. Fragments without a
// named declaration fall through to the merge engine.
func apply(ctx context.Context, engine *merge.Engine, existing, snippet, filePath string, log *zap.Logger) (*applied, error) {
	mode := merge.DecideMode(existing, snippet)
	if strings.TrimSpace(existing) == "" {
		mode = merge.ModeReplace
	}

	switch mode {
	case merge.ModeReplace:
		log.Debug("snippet replaces file", zap.String("file", filePath))
		return &applied{Content: strings.TrimSpace(snippet), Mode: mode}, nil
	case merge.ModeFragment:
		fr, err := merge.ReplaceDeclarations(ctx, existing, snippet, filePath)
		if err == nil && len(fr.Replaced)+len(fr.Appended) > 0 {
			log.Info("applied fragment",
				zap.String("file", filePath),
				zap.Strings("replaced", fr.Replaced),
				zap.Strings("appended", fr.Appended))
			return &applied{Content: fr.Content, Mode: mode}, nil
		}
		log.Warn("fragment has no named declarations; merging instead", zap.String("file", filePath), zap.Error(err))
	}

	res, err := engine.Merge(ctx, existing, snippet, filePath)
	if err != nil {
		return nil, err
	}
	return &applied{Content: res.Content, Mode: merge.ModeMerge, Diagnostics: res.Diagnostics}, nil
}

// commandContext bounds a command by --timeout and interrupts.
func commandContext() (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	ctx, cancel := context.WithTimeout(ctx, timeout)
	return ctx, func() {
		cancel()
		stop()
	}
}
