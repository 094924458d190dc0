package api

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/logtap/logtap/internal/constants"
)

// Server is the HTTP API server
type Server struct {
	httpServer *http.Server
	router     chi.Router
	handlers   *Handlers
	token      string
	log        *zap.Logger
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host        string
	Port        int
	AuthEnabled bool
}

// NewServer creates a new API server
func NewServer(cfg ServerConfig, handlers *Handlers, log *zap.Logger) (*Server, error) {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{handlers: handlers, log: log}

	if cfg.AuthEnabled {
		token, err := generateToken()
		if err != nil {
			return nil, fmt.Errorf("generating auth token: %w", err)
		}
		s.token = token
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(corsMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		if s.token != "" {
			r.Use(s.authMiddleware)
		}

		r.Get("/status", handlers.GetStatus)

		r.Route("/subscriptions", func(r chi.Router) {
			r.Get("/", handlers.GetSubscriptions)
			r.Get("/{id}", handlers.GetSubscription)
			r.Post("/{id}/start", handlers.StartSubscription)
			r.Post("/{id}/stop", handlers.StopSubscription)
		})

		r.Post("/stream/pause", handlers.PauseStream)
		r.Post("/stream/resume", handlers.ResumeStream)

		r.Get("/filter", handlers.GetFilter)
		r.Put("/filter", handlers.SetFilter)

		r.Route("/logs", func(r chi.Router) {
			r.Get("/", handlers.GetLogs)
			r.Delete("/", handlers.ClearLogs)
			r.Get("/stream", handlers.StreamLogs)
		})

		r.Route("/alerts", func(r chi.Router) {
			r.Get("/", handlers.GetAlerts)
			r.Post("/read_all", handlers.MarkAllAlertsRead)
			r.Post("/{id}/read", handlers.MarkAlertRead)
			r.Delete("/{id}", handlers.DismissAlert)
		})

		r.Get("/stats", handlers.GetStats)

		r.Get("/export/logs", handlers.ExportLogs)
		r.Get("/export/alerts", handlers.ExportAlerts)

		r.Post("/shutdown", handlers.Shutdown)
	})

	s.router = r
	s.httpServer = &http.Server{
		Addr:              net.JoinHostPort(cfg.Host, fmt.Sprintf("%d", cfg.Port)),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

// Token returns the generated auth token, empty when auth is disabled
func (s *Server) Token() string {
	return s.token
}

// Addr returns the configured listen address
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Start starts the server, blocking until shutdown or listen failure
func (s *Server) Start() error {
	s.log.Info("api server listening", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("api server: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, constants.DefaultShutdownTimeout)
	defer cancel()
	return s.httpServer.Shutdown(shutdownCtx)
}

// authMiddleware enforces bearer token authentication
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(auth, "Bearer ")
		if !ok && r.URL.Query().Get("token") != "" {
			// SSE clients (EventSource) cannot set headers
			token, ok = r.URL.Query().Get("token"), true
		}
		if !ok || subtle.ConstantTimeCompare([]byte(token), []byte(s.token)) != 1 {
			writeJSON(w, http.StatusUnauthorized, ErrorResponse{
				Error: "invalid or missing authentication token",
				Code:  "UNAUTHORIZED",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// logRequests logs completed requests through zap
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)))
	})
}

// corsMiddleware allows cross-origin requests from localhost origins
// only. The API binds to loopback by default so this covers local
// tooling without opening the API to arbitrary origins.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && isLocalhostOrigin(origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func isLocalhostOrigin(origin string) bool {
	u := strings.TrimPrefix(strings.TrimPrefix(origin, "http://"), "https://")
	host := u
	if h, _, err := net.SplitHostPort(u); err == nil {
		host = h
	}
	return host == "localhost" || host == "127.0.0.1" || host == "::1"
}

// generateToken creates a random hex token for API authentication
func generateToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
