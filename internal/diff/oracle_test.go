package diff

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestLocalOracle_EqualSpans(t *testing.T) {
	a := "a\nb\nc\nd\ne\nf"
	b := "a\nb\nf"

	spans, err := NewLocalOracle().EqualSpans(context.Background(), a, b)
	require.NoError(t, err)
	require.Len(t, spans, 2)

	assert.Equal(t, MatchSpan{StartA: 0, EndA: 2, StartB: 0, EndB: 2, Length: 2, Order: 0}, spans[0])
	assert.Equal(t, MatchSpan{StartA: 5, EndA: 6, StartB: 2, EndB: 3, Length: 1, Order: 1}, spans[1])
}

// longPair returns two 14-line texts sharing lines 2-8 and 10-13.
func longPair() (string, string) {
	var a, b []string
	for i := 0; i < 14; i++ {
		a = append(a, fmt.Sprintf("line%d", i))
	}
	b = append(b, "changed0")
	b = append(b, a[2:9]...)
	b = append(b, "inserted")
	b = append(b, a[10:]...)
	return strings.Join(a, "\n"), strings.Join(b, "\n")
}

func TestLocalOracle_SpansAreLineAligned(t *testing.T) {
	a, b := longPair()
	linesA, linesB := strings.Split(a, "\n"), strings.Split(b, "\n")

	spans, err := NewLocalOracle().EqualSpans(context.Background(), a, b)
	require.NoError(t, err)

	total := 0
	for _, s := range spans {
		require.LessOrEqual(t, s.EndA, len(linesA))
		require.LessOrEqual(t, s.EndB, len(linesB))
		require.Equal(t, s.EndA-s.StartA, s.Length)
		require.Equal(t, s.EndB-s.StartB, s.Length)
		for k := 0; k < s.Length; k++ {
			assert.Equal(t, linesA[s.StartA+k], linesB[s.StartB+k], "span %d offset %d", s.Order, k)
		}
		total += s.Length
	}
	assert.Equal(t, 11, total)
	require.Len(t, spans, 2)
	assert.Equal(t, MatchSpan{StartA: 2, EndA: 9, StartB: 1, EndB: 8, Length: 7, Order: 0}, spans[0])
	assert.Equal(t, MatchSpan{StartA: 10, EndA: 14, StartB: 9, EndB: 13, Length: 4, Order: 1}, spans[1])
}

func TestLocalOracle_NonBreakingSpace(t *testing.T) {
	spans, err := NewLocalOracle().EqualSpans(context.Background(), "x\u00a0= 1\ny", "x = 1\ny")
	require.NoError(t, err)
	require.Len(t, spans, 1)
	assert.Equal(t, 2, spans[0].Length)
}

func TestLocalOracle_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewLocalOracle().EqualSpans(ctx, "a", "a")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestHTTPOracle_EqualSpans(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/get-diffs", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)

		var req diffRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "a\nb", req.Text1)

		_ = json.NewEncoder(w).Encode(diffResponse{Diffs: []diffOpcode{
			{Type: "equal", Text1Range: [2]int{0, 1}, Text2Range: [2]int{0, 1}},
			{Type: "delete", Text1Range: [2]int{1, 2}, Text2Range: [2]int{1, 1}},
		}})
	}))
	defer srv.Close()

	o := NewHTTPOracle(srv.URL+"/", time.Second)
	spans, err := o.EqualSpans(context.Background(), "a\nb", "a")
	require.NoError(t, err)
	require.Len(t, spans, 1)
	assert.Equal(t, MatchSpan{StartA: 0, EndA: 1, StartB: 0, EndB: 1, Length: 1}, spans[0])
	srv.Client().CloseIdleConnections()
	o.client.CloseIdleConnections()
}

func TestHTTPOracle_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	o := NewHTTPOracle(srv.URL, time.Second)
	_, err := o.EqualSpans(context.Background(), "a", "b")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
	o.client.CloseIdleConnections()
}

func TestNewOracle(t *testing.T) {
	o, err := NewOracle("local", "", 0)
	require.NoError(t, err)
	assert.IsType(t, &LocalOracle{}, o)

	o, err = NewOracle("off", "", 0)
	require.NoError(t, err)
	assert.Nil(t, o)

	_, err = NewOracle("http", "", 0)
	assert.Error(t, err)

	_, err = NewOracle("carrier-pigeon", "", 0)
	assert.Error(t, err)
}
