package merge

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"snipmerge/internal/diff"
	"snipmerge/internal/placeholder"
	"snipmerge/internal/similarity"
	"snipmerge/internal/syntax"
)

const (
	// DefaultThreshold is the minimum similarity for a line to anchor a splice.
	DefaultThreshold = 0.66
	// DefaultMinOmittedLines is the smallest silent omission that gets a
	// placeholder inserted.
	DefaultMinOmittedLines = 8
)

// ImportHeader is the result of splitting both texts into a reconciled
// header and the bodies left to merge.
type ImportHeader struct {
	Prefix       string
	ExistingBody string
	SnippetBody  string
}

// ImportReconciler merges the directive and import blocks of the two texts.
type ImportReconciler interface {
	Reconcile(ctx context.Context, existing, snippet, filePath string) (ImportHeader, error)
}

// Engine merges snippets into files. It holds configuration only and is safe
// for concurrent use.
type Engine struct {
	threshold   float64
	score       similarity.Func
	syntaxAware bool
	restOfFile  bool
	oracle      diff.Oracle
	minOmitted  int
	imports     ImportReconciler
	logger      *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithThreshold sets the anchor confidence threshold.
func WithThreshold(t float64) Option {
	return func(e *Engine) { e.threshold = t }
}

// WithScorer sets the line similarity used for alignment.
func WithScorer(f similarity.Func) Option {
	return func(e *Engine) {
		if f != nil {
			e.score = f
		}
	}
}

// WithSyntaxAware toggles declaration-scoped alignment of closing braces.
func WithSyntaxAware(on bool) Option {
	return func(e *Engine) { e.syntaxAware = on }
}

// WithRestOfFile controls whether a trailing placeholder pulls in the
// existing file's tail after the declaration it closes.
func WithRestOfFile(on bool) Option {
	return func(e *Engine) { e.restOfFile = on }
}

// WithDiffOracle enables insertion of placeholders where the snippet silently
// omits at least minOmitted existing lines.
func WithDiffOracle(o diff.Oracle, minOmitted int) Option {
	return func(e *Engine) {
		e.oracle = o
		if minOmitted > 0 {
			e.minOmitted = minOmitted
		}
	}
}

// WithImports installs an import reconciler.
func WithImports(r ImportReconciler) Option {
	return func(e *Engine) { e.imports = r }
}

// WithLogger sets the engine logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// New returns an engine with the given options applied over the defaults.
func New(opts ...Option) *Engine {
	e := &Engine{
		threshold:   DefaultThreshold,
		score:       similarity.Compare,
		syntaxAware: true,
		restOfFile:  true,
		minOmitted:  DefaultMinOmittedLines,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Threshold is the configured anchor threshold.
func (e *Engine) Threshold() float64 { return e.threshold }

// run is the state of a single merge. Nothing in it outlives the call.
type run struct {
	ctx   context.Context
	e     *Engine
	log   *zap.Logger
	reqID string

	existing []string
	snippet  []string
	lines    []*AnnotatedLine
	aligner  *Aligner
	oracle   *anchorOracle

	synthetic     int
	syntheticUsed bool
	inserted      int
	diags         []Diagnostic
}

func (r *run) diag(kind DiagnosticKind, line int, msg string) {
	r.diags = append(r.diags, Diagnostic{Kind: kind, Line: line, Message: msg, RequestID: r.reqID})
	fields := []zap.Field{zap.String("kind", string(kind)), zap.Int("line", line)}
	switch kind {
	case DiagNoReferences, DiagSyntaxFallback, DiagOracleUnavailable, DiagImportsSkipped:
		r.log.Warn(msg, fields...)
	default:
		r.log.Debug(msg, fields...)
	}
}

// Merge reconciles snippet with existing. filePath selects the grammar and is
// passed to the import reconciler; it is never read.
func (e *Engine) Merge(ctx context.Context, existing, snippet, filePath string) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	reqID := uuid.NewString()
	r := &run{
		ctx:       ctx,
		e:         e,
		log:       e.logger.With(zap.String("request_id", reqID), zap.String("file", filePath)),
		reqID:     reqID,
		synthetic: -1,
	}

	existing = normalizeNewlines(existing)
	snippet = normalizeNewlines(snippet)

	var prefix string
	if e.imports != nil {
		h, err := e.imports.Reconcile(ctx, existing, snippet, filePath)
		if err != nil {
			r.diag(DiagImportsSkipped, -1, fmt.Sprintf("import reconciliation failed: %v", err))
		} else {
			prefix, existing, snippet = h.Prefix, h.ExistingBody, h.SnippetBody
		}
	}

	snippet, closed := placeholder.CloseWhenPlaceholder(snippet)
	r.existing = strings.Split(existing, "\n")
	r.snippet = strings.Split(snippet, "\n")
	if closed {
		r.synthetic = len(r.snippet) - 1
		r.log.Debug("closed trailing placeholder")
	}

	var body string
	if !placeholder.Contains(r.snippet) {
		body = strings.TrimSpace(snippet)
	} else {
		if err := r.insertMissingPlaceholders(); err != nil {
			return nil, err
		}
		if err := r.annotate(filePath); err != nil {
			return nil, err
		}
		r.resolve()
		if r.aligner.parsed && r.aligner.parseErr != nil {
			r.diag(DiagSyntaxFallback, -1, fmt.Sprintf("syntax-aware alignment disabled: %v", r.aligner.parseErr))
		}
		body = r.normalize(r.splice())
	}

	res := &Result{
		Content:      joinHeader(prefix, body),
		RequestID:    reqID,
		Diagnostics:  r.diags,
		Placeholders: placeholder.Count(r.snippet),
		Inserted:     r.inserted,
	}
	r.log.Info("merge complete",
		zap.Int("existing_lines", len(r.existing)),
		zap.Int("snippet_lines", len(r.snippet)),
		zap.Int("placeholders", res.Placeholders),
		zap.Int("diagnostics", len(res.Diagnostics)))
	return res, nil
}

// annotate aligns every non-placeholder snippet line.
func (r *run) annotate(filePath string) error {
	r.aligner = NewAligner(r.ctx, r.existing, r.snippet, syntax.ForPath(filePath), r.e.score, r.e.syntaxAware)
	r.lines = make([]*AnnotatedLine, len(r.snippet))
	for i, text := range r.snippet {
		l := &AnnotatedLine{Text: text, Match: -1, Above: -1, Below: -1, index: i}
		r.lines[i] = l
		if placeholder.IsPlaceholder(text) {
			l.IsPlaceholder = true
			continue
		}
		m, err := r.aligner.Align(i)
		if err != nil {
			return fmt.Errorf("align: %w", err)
		}
		if m < 0 {
			continue
		}
		score, err := r.aligner.Score(i, m)
		if err != nil {
			return fmt.Errorf("score: %w", err)
		}
		l.Match, l.Score = m, score
	}
	r.oracle = newAnchorOracle(r.existing, r.snippet, r.aligner, r.e.threshold)
	return nil
}

// normalize strips placeholders that survived splicing and trims the result.
func (r *run) normalize(out *spliced) string {
	kept := make([]string, 0, len(out.lines))
	for i, l := range out.lines {
		if !out.fromExisting[i] && placeholder.IsPlaceholder(l) {
			r.diag(DiagPlaceholderStripped, -1, fmt.Sprintf("removed unresolved placeholder %q", strings.TrimSpace(l)))
			continue
		}
		kept = append(kept, l)
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}

func joinHeader(prefix, body string) string {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return body
	}
	if body == "" {
		return prefix
	}
	return prefix + "\n\n" + body
}

func normalizeNewlines(s string) string {
	return strings.ReplaceAll(s, "\r\n", "\n")
}
