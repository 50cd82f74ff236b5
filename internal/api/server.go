// Package api exposes the engine over HTTP: a completion endpoint with
// optional server-sent-event streaming, a health probe, and Prometheus
// metrics.
package api

import (
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/labstack/echo/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/retrolm/retrolm/internal/fault"
	"github.com/retrolm/retrolm/internal/inference"
	"github.com/retrolm/retrolm/internal/logger"
	"github.com/retrolm/retrolm/internal/logits"
	"github.com/retrolm/retrolm/internal/model"
)

// Defaults are applied to request fields left at their zero value.
type Defaults struct {
	Temperature        float32
	MaxTokens          int
	StopOnNonPrintable bool
}

// Server serves completions from one loaded model. The engine core is
// single-threaded, so requests generate under a mutex; concurrent calls
// queue rather than interleave cache state.
type Server struct {
	params   *model.Parameters
	defaults Defaults
	log      logger.Logger

	mu sync.Mutex
}

// NewServer wraps a loaded parameter set.
func NewServer(params *model.Parameters, defaults Defaults, log logger.Logger) *Server {
	return &Server{params: params, defaults: defaults, log: log}
}

// Register installs the routes on e.
func (s *Server) Register(e *echo.Echo) {
	e.POST("/v1/completions", s.handleCompletion)
	e.GET("/healthz", s.handleHealth)
	e.GET("/metrics", func(c *echo.Context) error {
		promhttp.Handler().ServeHTTP(c.Response(), c.Request())
		return nil
	})
}

// CompletionRequest is the body of POST /v1/completions.
type CompletionRequest struct {
	Prompt      string   `json:"prompt"`
	MaxTokens   int      `json:"max_tokens"`
	Temperature *float32 `json:"temperature"`
	Seed        *int64   `json:"seed"`
	Stream      bool     `json:"stream"`
}

// CompletionResponse is the non-streaming reply.
type CompletionResponse struct {
	ID              string `json:"id"`
	Object          string `json:"object"`
	Created         int64  `json:"created"`
	Text            string `json:"text"`
	PromptTokens    int    `json:"prompt_tokens"`
	TokensGenerated int    `json:"tokens_generated"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type streamChunk struct {
	ID   string `json:"id"`
	Text string `json:"text"`
	Done bool   `json:"done"`
}

func (s *Server) handleHealth(c *echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCompletion(c *echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		requestsTotal.WithLabelValues("error").Inc()
		return jsonError(c, http.StatusBadRequest, "read request body")
	}
	var req CompletionRequest
	if err := json.Unmarshal(body, &req); err != nil {
		requestsTotal.WithLabelValues("error").Inc()
		return jsonError(c, http.StatusBadRequest, "malformed request body")
	}
	if req.Prompt == "" {
		requestsTotal.WithLabelValues("error").Inc()
		return jsonError(c, http.StatusBadRequest, "prompt is required")
	}

	temp := s.defaults.Temperature
	if req.Temperature != nil {
		temp = *req.Temperature
	}
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = s.defaults.MaxTokens
	}
	seed := time.Now().UnixNano()
	if req.Seed != nil {
		seed = *req.Seed
	}

	// The model encodes at most MaxSeqLen absolute positions; keep the
	// tail of an over-long prompt, matching the chat history window.
	prompt := []byte(req.Prompt)
	if budget := s.params.MaxSeqLen() - maxTokens; budget > 0 && len(prompt) > budget {
		prompt = prompt[len(prompt)-budget:]
	}

	gen := &inference.Generator{
		Model: s.params,
		Sampler: logits.NewSampler(logits.SamplerConfig{
			Seed:        seed,
			Temperature: temp,
			Greedy:      temp == 0,
		}),
		StopOnNonPrintable: s.defaults.StopOnNonPrintable,
	}

	id := "cmpl-" + uuid.NewString()
	log := s.log.With("id", id)
	log.Info("completion request", "prompt_bytes", len(prompt), "max_tokens", maxTokens, "stream", req.Stream)

	if req.Stream {
		return s.streamCompletion(c, gen, id, prompt, maxTokens, log)
	}

	s.mu.Lock()
	text, stats, err := gen.Run(prompt, maxTokens, nil)
	s.mu.Unlock()
	if err != nil {
		requestsTotal.WithLabelValues("error").Inc()
		log.Error("generation failed", "kind", fault.KindOf(err), "err", err)
		return jsonError(c, http.StatusInternalServerError, "generation failed")
	}
	observe(stats)

	return c.JSON(http.StatusOK, CompletionResponse{
		ID:              id,
		Object:          "completion",
		Created:         time.Now().Unix(),
		Text:            text,
		PromptTokens:    stats.PromptTokens,
		TokensGenerated: stats.TokensGenerated,
	})
}

func (s *Server) streamCompletion(c *echo.Context, gen *inference.Generator, id string, prompt []byte, maxTokens int, log logger.Logger) error {
	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set("Cache-Control", "no-cache")
	res.WriteHeader(http.StatusOK)

	flusher, _ := res.(interface{ Flush() })
	send := func(chunk streamChunk) {
		payload, err := json.Marshal(chunk)
		if err != nil {
			return
		}
		fmt.Fprintf(res, "data: %s\n\n", payload)
		if flusher != nil {
			flusher.Flush()
		}
	}

	s.mu.Lock()
	_, stats, err := gen.Run(prompt, maxTokens, func(b byte) {
		send(streamChunk{ID: id, Text: string(b)})
	})
	s.mu.Unlock()
	if err != nil {
		requestsTotal.WithLabelValues("error").Inc()
		log.Error("generation failed", "kind", fault.KindOf(err), "err", err)
		send(streamChunk{ID: id, Done: true})
		return nil
	}
	observe(stats)
	send(streamChunk{ID: id, Done: true})
	return nil
}

func observe(stats inference.Stats) {
	requestsTotal.WithLabelValues("ok").Inc()
	tokensGenerated.Add(float64(stats.TokensGenerated))
	generateSeconds.Observe(stats.Duration.Seconds())
}

func jsonError(c *echo.Context, code int, msg string) error {
	return c.JSON(code, errorResponse{Error: msg})
}
