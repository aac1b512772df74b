// Package proxy serves the monthly-performance route, keeping the upstream
// credentials on the server side.
package proxy

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/haledesignstudio/Pollen/internal/config"
	"github.com/haledesignstudio/Pollen/internal/model"
	"github.com/haledesignstudio/Pollen/internal/pipeline"
	"github.com/haledesignstudio/Pollen/internal/upstream"
)

// Routes served by the proxy.
const (
	PerformancePath = "/api/dashboard/monthly-performance"
	ChartPath       = PerformancePath + "/chart"
	HealthPath      = "/healthz"
	StatusPath      = "/v1/status"
)

// Config controls the proxy runtime behavior.
type Config struct {
	Addr           string
	UpstreamURL    string
	UpstreamToken  string
	Timeout        time.Duration
	RequestsPerSec float64
	Burst          int
	AllowOrigins   []string
	Logger         *zap.Logger

	// HTTPClient overrides the client used for upstream calls.
	HTTPClient *http.Client
}

// Status is served at /v1/status.
type Status struct {
	StartedAt          time.Time `json:"started_at"`
	Requests           int64     `json:"requests"`
	UpstreamFailures   int64     `json:"upstream_failures"`
	LastUpstreamStatus int       `json:"last_upstream_status,omitempty"`
	LastError          string    `json:"last_error,omitempty"`
	LastSuccessAt      time.Time `json:"last_success_at,omitempty"`
	UpstreamConfigured bool      `json:"upstream_configured"`
}

// ChartResponse is the body of the chart route.
type ChartResponse struct {
	Points  []model.ChartPoint `json:"points"`
	Meta    model.SeriesMeta   `json:"meta"`
	Summary model.Summary      `json:"summary"`
	Cards   model.SummaryCards `json:"cards"`
}

// Server provides the proxy HTTP API.
type Server struct {
	cfg    Config
	log    *zap.Logger
	client *upstream.Client
	engine *gin.Engine

	mu                 sync.RWMutex
	startedAt          time.Time
	requests           int64
	upstreamFailures   int64
	lastUpstreamStatus int
	lastError          string
	lastSuccessAt      time.Time
}

// New returns a proxy server with the provided config. A missing upstream
// URL or token does not fail construction; the data routes answer 500
// until it is configured.
func New(cfg Config) *Server {
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8787"
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	s := &Server{
		cfg:       cfg,
		log:       cfg.Logger,
		startedAt: time.Now(),
	}

	opts := []upstream.Option{
		upstream.WithTimeout(cfg.Timeout),
		upstream.WithRateLimit(cfg.RequestsPerSec, cfg.Burst),
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, upstream.WithHTTPClient(cfg.HTTPClient))
	}
	s.client = upstream.NewClient(cfg.UpstreamURL, cfg.UpstreamToken, opts...)

	s.engine = s.routes()
	return s
}

// Handler returns the HTTP handler for the proxy routes.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Engine returns the underlying gin engine.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(CorrelationID())
	r.Use(RequestLogger(s.log))
	r.Use(NoStore())
	r.Use(CORS(s.cfg.AllowOrigins))

	r.GET(HealthPath, s.handleHealth)
	r.GET(StatusPath, s.handleStatus)
	r.GET(PerformancePath, s.handlePerformance)
	r.GET(ChartPath, s.handleChart)
	return r
}

// Run serves HTTP until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	s.log.Info("proxy listening",
		zap.String("addr", s.cfg.Addr),
		zap.Bool("upstream_configured", s.client != nil),
	)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errCh:
		return fmt.Errorf("proxy http server: %w", err)
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.String(http.StatusOK, "ok\n")
}

func (s *Server) handleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, s.snapshotStatus())
}

func (s *Server) handlePerformance(c *gin.Context) {
	resp, ok := s.fetch(c)
	if !ok {
		return
	}

	body := bytes.TrimSpace(resp.Body)
	switch {
	case len(body) == 0:
		c.Data(http.StatusOK, "application/json", []byte("[]"))
	case json.Valid(body):
		c.Data(http.StatusOK, "application/json", resp.Body)
	default:
		c.Data(http.StatusOK, "text/plain; charset=utf-8", resp.Body)
	}
}

func (s *Server) handleChart(c *gin.Context) {
	resp, ok := s.fetch(c)
	if !ok {
		return
	}

	rows, err := pipeline.DecodeRows(resp.Body)
	if err != nil {
		s.log.Warn("upstream payload is not a row array",
			zap.String("correlation_id", GetCorrelationID(c)),
			zap.String("body", upstream.Snippet(resp.Body, upstream.SnippetSize)),
			zap.Error(err),
		)
		c.JSON(http.StatusBadGateway, gin.H{"error": "upstream returned malformed payload"})
		return
	}

	ds := pipeline.Normalize(rows)
	summary := pipeline.Summarize(ds)
	c.JSON(http.StatusOK, ChartResponse{
		Points:  ds.Points,
		Meta:    ds.Meta,
		Summary: summary,
		Cards:   pipeline.Cards(summary),
	})
}

// fetch calls the upstream and writes the error response itself when the
// call cannot be served. It returns false in that case.
func (s *Server) fetch(c *gin.Context) (*upstream.Response, bool) {
	s.countRequest()

	if s.client == nil {
		err := config.ErrMissingUpstreamURL
		if s.cfg.UpstreamURL != "" {
			err = config.ErrMissingUpstreamToken
		}
		s.log.Error("upstream not configured", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return nil, false
	}

	resp, err := s.client.Fetch(c.Request.Context())
	if err != nil {
		s.recordFailure(0, err.Error())
		s.log.Warn("upstream call failed",
			zap.String("correlation_id", GetCorrelationID(c)),
			zap.Error(err),
		)
		switch {
		case errors.Is(err, upstream.ErrTimeout):
			c.JSON(http.StatusGatewayTimeout, gin.H{"error": "upstream timed out"})
		case errors.Is(err, upstream.ErrBodyTooLarge):
			c.JSON(http.StatusBadGateway, gin.H{"error": "upstream response too large"})
		default:
			c.JSON(http.StatusBadGateway, gin.H{"error": "upstream unreachable"})
		}
		return nil, false
	}

	if !resp.OK() {
		s.recordFailure(resp.StatusCode, fmt.Sprintf("upstream status %d", resp.StatusCode))
		s.log.Warn("upstream returned non-2xx",
			zap.String("correlation_id", GetCorrelationID(c)),
			zap.Int("status", resp.StatusCode),
			zap.String("body", upstream.Snippet(resp.Body, upstream.SnippetSize)),
		)
		c.JSON(http.StatusBadGateway, gin.H{
			"error":  "upstream request failed",
			"status": resp.StatusCode,
		})
		return nil, false
	}

	s.recordSuccess(resp.StatusCode)
	return resp, true
}

func (s *Server) countRequest() {
	s.mu.Lock()
	s.requests++
	s.mu.Unlock()
}

func (s *Server) recordFailure(status int, msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upstreamFailures++
	s.lastUpstreamStatus = status
	s.lastError = msg
}

func (s *Server) recordSuccess(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastUpstreamStatus = status
	s.lastError = ""
	s.lastSuccessAt = time.Now()
}

func (s *Server) snapshotStatus() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Status{
		StartedAt:          s.startedAt,
		Requests:           s.requests,
		UpstreamFailures:   s.upstreamFailures,
		LastUpstreamStatus: s.lastUpstreamStatus,
		LastError:          s.lastError,
		LastSuccessAt:      s.lastSuccessAt,
		UpstreamConfigured: s.client != nil,
	}
}
