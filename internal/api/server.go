// Package api exposes the complaint pipeline over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"complaint-router/internal/common/logger"
	"complaint-router/internal/dataset"
	"complaint-router/internal/models"
)

// Processor runs a complaint through the full pipeline.
type Processor interface {
	Process(ctx context.Context, requestID, text, language string) *models.ComplaintResult
}

// FallbackAnalyzer produces the analysis returned alongside a 500 on the
// analyze endpoint.
type FallbackAnalyzer interface {
	Classify(text string) *models.ComplaintAnalysis
}

// ProviderStatus reports which remote providers have credentials.
type ProviderStatus struct {
	Watsonx    bool `json:"watsonx"`
	OpenRouter bool `json:"openrouter"`
}

type Config struct {
	ServiceName    string
	Version        string
	AllowedOrigins []string
	MaxBodyBytes   int64
	Providers      ProviderStatus
}

type Server struct {
	cfg       Config
	processor Processor
	fallback  FallbackAnalyzer
	ds        *dataset.Dataset
	logger    logger.Logger
	now       func() time.Time
}

var endpoints = []string{"/health", "/api/ai/chat", "/api/ai/analyze", "/api/up/data", "/metrics"}

func NewServer(cfg Config, processor Processor, fallback FallbackAnalyzer, ds *dataset.Dataset, log logger.Logger) *Server {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 64 << 10
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"*"}
	}
	return &Server{
		cfg:       cfg,
		processor: processor,
		fallback:  fallback,
		ds:        ds,
		logger:    logger.ForComponent(log, "api"),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// RegisterRoutes mounts every endpoint on mux. Unmatched paths get a JSON 404.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.Handle("GET /{$}", s.instrument("root", http.HandlerFunc(s.handleRoot)))
	mux.Handle("GET /health", s.instrument("health", http.HandlerFunc(s.handleHealth)))
	mux.Handle("POST /api/ai/chat", s.instrument("chat", http.HandlerFunc(s.handleChat)))
	mux.Handle("POST /api/ai/analyze", s.instrument("analyze", http.HandlerFunc(s.handleAnalyze)))
	mux.Handle("GET /api/up/data", s.instrument("data", http.HandlerFunc(s.handleData)))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.Handle("/", s.instrument("not_found", http.HandlerFunc(s.handleNotFound)))
}

// Handler returns the routed handler wrapped in CORS and panic recovery.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return s.recoverer(s.cors(mux))
}
