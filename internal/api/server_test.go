package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/labstack/echo/v5"
	"github.com/stretchr/testify/require"

	"github.com/retrolm/retrolm/internal/layers"
	"github.com/retrolm/retrolm/internal/logger"
	"github.com/retrolm/retrolm/internal/model"
	"github.com/retrolm/retrolm/internal/tensor"
)

const (
	testEmbed  = 8
	testFF     = 16
	testVocab  = 128
	testMaxSeq = 32
)

func zeroLinear(t *testing.T, out, in int) layers.Linear {
	t.Helper()
	w, err := tensor.New(out, in)
	require.NoError(t, err)
	b, err := tensor.New(1, out)
	require.NoError(t, err)
	lin, err := layers.NewLinear(w, b)
	require.NoError(t, err)
	return lin
}

// testParams is a model whose logits always favour 'A'.
func testParams(t *testing.T) *model.Parameters {
	t.Helper()
	tokenEmbed, err := tensor.New(testVocab, testEmbed)
	require.NoError(t, err)
	posEmbed, err := tensor.New(testMaxSeq, testEmbed)
	require.NoError(t, err)
	headBias, err := tensor.New(1, testVocab)
	require.NoError(t, err)
	headBias.Data['A'] = 100

	params, err := model.New(tokenEmbed, posEmbed, model.Attention{
		Wq: zeroLinear(t, testEmbed, testEmbed),
		Wk: zeroLinear(t, testEmbed, testEmbed),
		Wv: zeroLinear(t, testEmbed, testEmbed),
		Wo: zeroLinear(t, testEmbed, testEmbed),
	}, zeroLinear(t, testFF, testEmbed), zeroLinear(t, testEmbed, testFF), headBias)
	require.NoError(t, err)
	return params
}

func newTestEcho(t *testing.T) *echo.Echo {
	t.Helper()
	server := NewServer(testParams(t), Defaults{
		Temperature: 0,
		MaxTokens:   4,
	}, logger.Discard())
	e := echo.New()
	server.Register(e)
	return e
}

func doJSON(t *testing.T, e *echo.Echo, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/v1/completions", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestCompletion(t *testing.T) {
	e := newTestEcho(t)
	rec := doJSON(t, e, `{"prompt":"hi"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp CompletionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.True(t, strings.HasPrefix(resp.ID, "cmpl-"))
	require.Equal(t, "completion", resp.Object)
	require.Equal(t, "AAAA", resp.Text)
	require.Equal(t, 2, resp.PromptTokens)
	require.Equal(t, 4, resp.TokensGenerated)
}

func TestCompletionMaxTokensOverride(t *testing.T) {
	e := newTestEcho(t)
	rec := doJSON(t, e, `{"prompt":"hi","max_tokens":2}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp CompletionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "AA", resp.Text)
}

func TestCompletionRejectsBadRequests(t *testing.T) {
	e := newTestEcho(t)

	rec := doJSON(t, e, `{"prompt":""}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, e, `{not json`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCompletionStream(t *testing.T) {
	e := newTestEcho(t)
	rec := doJSON(t, e, `{"prompt":"hi","max_tokens":3,"stream":true}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "text/event-stream", rec.Header().Get(echo.HeaderContentType))

	var text strings.Builder
	var done bool
	for _, line := range strings.Split(rec.Body.String(), "\n") {
		payload, ok := strings.CutPrefix(line, "data: ")
		if !ok {
			continue
		}
		var chunk streamChunk
		require.NoError(t, json.Unmarshal([]byte(payload), &chunk))
		text.WriteString(chunk.Text)
		done = done || chunk.Done
	}
	require.Equal(t, "AAA", text.String())
	require.True(t, done, "missing terminal event")
}

func TestHealth(t *testing.T) {
	e := newTestEcho(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestMetricsExposed(t *testing.T) {
	e := newTestEcho(t)
	doJSON(t, e, `{"prompt":"hi"}`)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "retrolm_tokens_generated_total")
}
