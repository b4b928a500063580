package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	contractx "github.com/tanpawarit/cargo-dispatch/agent/contract"
	shipmentx "github.com/tanpawarit/cargo-dispatch/agent/shipment"
	logx "github.com/tanpawarit/cargo-dispatch/pkg/logger"
)

type Config struct {
	Addr            string        `default:":3001"`
	ReadTimeout     time.Duration `split_words:"true" default:"15s"`
	WriteTimeout    time.Duration `split_words:"true" default:"60s"`
	ShutdownTimeout time.Duration `split_words:"true" default:"10s"`
	MaxBodyBytes    int64         `split_words:"true" default:"1048576"`
}

// ChatHandler runs one chat turn. *dispatcher.Dispatcher satisfies it.
type ChatHandler interface {
	HandleChat(ctx context.Context, req contractx.ChatRequest) (contractx.ChatResponse, error)
}

type Server struct {
	chat    ChatHandler
	store   shipmentx.Store
	metrics http.Handler

	maxBodyBytes int64
}

type Option func(*Server)

func WithMetrics(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

func WithMaxBodyBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxBodyBytes = n
		}
	}
}

func NewServer(chat ChatHandler, store shipmentx.Store, opts ...Option) (*Server, error) {
	if chat == nil {
		return nil, errors.New("chat handler is required")
	}
	if store == nil {
		return nil, errors.New("shipment store is required")
	}
	s := &Server{
		chat:         chat,
		store:        store,
		maxBodyBytes: 1 << 20,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Handler returns the routed HTTP handler with logging, recovery and CORS applied.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(logx.RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)

	r.Post("/chat", s.Chat)
	r.Get("/shipments", s.ListShipments)
	r.Patch("/shipments/{id}/status", s.UpdateShipmentStatus)
	r.Get("/healthz", s.Health)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	return r
}

// HTTPServer wraps Handler with the configured timeouts.
func (s *Server) HTTPServer(cfg Config) *http.Server {
	return &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
