package diff

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// MatchSpan is a run of whole lines two texts share. Ends are exclusive line
// indices; Order is the span's position in the oracle's output.
type MatchSpan struct {
	StartA int
	EndA   int
	StartB int
	EndB   int
	Length int
	Order  int
}

// Oracle reports the line spans a and b have in common.
type Oracle interface {
	EqualSpans(ctx context.Context, a, b string) ([]MatchSpan, error)
}

// normalizeSpaces replaces non-breaking spaces, which LLM output sometimes
// carries, so they do not break otherwise equal lines.
func normalizeSpaces(s string) string {
	return strings.ReplaceAll(s, "\u00a0", " ")
}

// LocalOracle computes spans in-process with go-diff.
type LocalOracle struct {
	engine *Engine
}

// NewLocalOracle returns an in-process oracle.
func NewLocalOracle() *LocalOracle {
	return &LocalOracle{engine: NewEngine(0)}
}

// EqualSpans implements Oracle.
func (o *LocalOracle) EqualSpans(ctx context.Context, a, b string) ([]MatchSpan, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var spans []MatchSpan
	lineA, lineB := 0, 0
	for _, d := range o.engine.lineDiffs(ensureNewline(normalizeSpaces(a)), ensureNewline(normalizeSpaces(b))) {
		n := countLines(d.Text)
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			spans = append(spans, MatchSpan{
				StartA: lineA, EndA: lineA + n,
				StartB: lineB, EndB: lineB + n,
				Length: n, Order: len(spans),
			})
			lineA += n
			lineB += n
		case diffmatchpatch.DiffDelete:
			lineA += n
		case diffmatchpatch.DiffInsert:
			lineB += n
		}
	}
	return spans, nil
}

// HTTPOracle asks a remote diff service. The service accepts
// {"text1", "text2"} at POST /get-diffs and answers with opcodes whose
// ranges are line indices.
type HTTPOracle struct {
	baseURL string
	client  *http.Client
}

// NewHTTPOracle returns a client for the service at baseURL.
func NewHTTPOracle(baseURL string, timeout time.Duration) *HTTPOracle {
	return &HTTPOracle{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

type diffRequest struct {
	Text1 string `json:"text1"`
	Text2 string `json:"text2"`
}

type diffOpcode struct {
	Type       string `json:"type"`
	Text1Range [2]int `json:"text1_range"`
	Text2Range [2]int `json:"text2_range"`
}

type diffResponse struct {
	Diffs []diffOpcode `json:"diffs"`
}

// EqualSpans implements Oracle.
func (o *HTTPOracle) EqualSpans(ctx context.Context, a, b string) ([]MatchSpan, error) {
	body, err := json.Marshal(diffRequest{Text1: normalizeSpaces(a), Text2: normalizeSpaces(b)})
	if err != nil {
		return nil, fmt.Errorf("encode diff request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/get-diffs", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build diff request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("diff service: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("diff service: %s: %s", resp.Status, strings.TrimSpace(string(msg)))
	}

	var out diffResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode diff response: %w", err)
	}
	var spans []MatchSpan
	for _, op := range out.Diffs {
		if op.Type != "equal" {
			continue
		}
		spans = append(spans, MatchSpan{
			StartA: op.Text1Range[0], EndA: op.Text1Range[1],
			StartB: op.Text2Range[0], EndB: op.Text2Range[1],
			Length: op.Text1Range[1] - op.Text1Range[0],
			Order:  len(spans),
		})
	}
	return spans, nil
}

// NewOracle builds the oracle named by kind: "local", "http" or "off". It
// returns nil for "off".
func NewOracle(kind, baseURL string, timeout time.Duration) (Oracle, error) {
	switch strings.ToLower(kind) {
	case "", "local":
		return NewLocalOracle(), nil
	case "http":
		if baseURL == "" {
			return nil, fmt.Errorf("http diff oracle needs a base url")
		}
		return NewHTTPOracle(baseURL, timeout), nil
	case "off", "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown diff oracle %q", kind)
	}
}
