// Package server provides the fittrack HTTP API: accounts, profiles and routines.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/fittrack/internal/config"
	"github.com/jonathan/fittrack/internal/server/middleware"
	"github.com/jonathan/fittrack/internal/server/ratelimit"
	"github.com/jonathan/fittrack/internal/types"
)

// shutdownTimeout bounds graceful shutdown once the serve context ends.
const shutdownTimeout = 30 * time.Second

// Server represents the HTTP server
type Server struct {
	httpServer    *http.Server
	handler       http.Handler
	store         Store
	logger        *zap.Logger
	rateLimiter   *ratelimit.Limiter
	jwtService    *JWTService
	userService   *UserService
	authHandler   *AuthHandler
	freeTierLimit int
}

// Config holds server configuration
type Config struct {
	Port                 int
	FreeTierRoutineLimit int
	Auth                 *config.AuthConfig
	// RateLimit nil disables rate limiting.
	RateLimit *ratelimit.Config
}

// New creates a server over store. The caller owns the store.
func New(cfg Config, store Store, logger *zap.Logger) (*Server, error) {
	if store == nil {
		return nil, errors.New("server: store is required")
	}
	if cfg.Auth == nil || cfg.Auth.JWT == nil || cfg.Auth.Password == nil {
		return nil, errors.New("server: auth config is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	rl := cfg.RateLimit
	if rl == nil {
		rl = &ratelimit.Config{Enabled: false}
	}

	s := &Server{
		store:         store,
		logger:        logger,
		rateLimiter:   ratelimit.NewLimiter(rl),
		jwtService:    NewJWTService(cfg.Auth.JWT),
		userService:   NewUserService(store, cfg.Auth.Password),
		freeTierLimit: cfg.FreeTierRoutineLimit,
	}
	s.authHandler = NewAuthHandler(s.userService, s.jwtService, logger)

	requireToken := middleware.RequireToken(s.jwtService.AsTokenValidator())
	protected := func(h http.HandlerFunc) http.Handler {
		return requireToken(h)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /status", s.handleStatus)

	// Accounts
	mux.HandleFunc("POST /api/v1/register/email", s.authHandler.Register)
	mux.HandleFunc("POST /api/v1/login/email", s.authHandler.Login)
	mux.Handle("PUT /api/v1/user/displayname/{uid}/{idToken}", protected(s.authHandler.UpdateDisplayName))

	// Profile
	mux.Handle("GET /api/v1/user/{uid}/{idToken}", protected(s.handleGetProfile))
	mux.Handle("PUT /api/v1/user/{uid}/{idToken}", protected(s.handlePatchProfile))

	// Routines
	mux.HandleFunc("POST /api/v1/user/routine/create", s.handleCreateRoutine)
	mux.Handle("GET /api/v1/user/routine/{uid}/{idToken}", protected(s.handleListRoutines))
	mux.Handle("GET /api/v1/user/routine/single/{refId}/{idToken}", protected(s.handleGetRoutine))
	mux.Handle("PUT /api/v1/user/routine/single/{refId}/{idToken}", protected(s.handleReplaceRoutine))
	mux.Handle("DELETE /api/v1/user/routine/single/{refId}/{idToken}", protected(s.handleDeleteRoutine))

	s.handler = s.withRateLimit(s.withLogging(s.withCORS(mux)))
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s, nil
}

// Handler returns the fully wrapped router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("server starting", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		s.logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return nil
	})

	err := g.Wait()
	s.rateLimiter.Stop()
	s.logger.Info("server stopped")
	return err
}

// Close releases background resources without serving.
func (s *Server) Close() {
	s.rateLimiter.Stop()
}

// handleStatus is the health check.
func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, types.StatusResponse{Message: "status ok", Code: http.StatusOK})
}

func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	jsonResponse(w, s.logger, status, data)
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	failResponse(w, r, s.logger, err)
}

// withCORS adds CORS headers
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// withLogging logs each request. Path tokens are logged as the route pattern, not
// the raw URL.
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		path := r.Pattern
		if path == "" {
			path = r.URL.Path
		}
		s.logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", path),
			zap.String("remote", r.RemoteAddr),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)))
	})
}

// withRateLimit rejects clients over their route group's limit with 429.
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, info := s.rateLimiter.Allow(clientID(r), r.URL.Path, r.Method)
		setRateLimitHeaders(w, info)
		if !allowed {
			s.rateLimitResponse(w, r, info)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientID identifies the caller by remote IP.
func clientID(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

func setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	if info.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(info.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(info.ResetTime.Unix(), 10))
	}
}

// rateLimitResponse writes 429 with the standard error envelope.
func (s *Server) rateLimitResponse(w http.ResponseWriter, r *http.Request, info ratelimit.Info) {
	if info.RetryAfter > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(int(info.RetryAfter.Seconds())+1))
	}
	s.logger.Warn("rate limit exceeded",
		zap.String("client", clientID(r)),
		zap.String("method", r.Method),
		zap.Int("limit", info.Limit))
	errorResponse(w, s.logger, http.StatusTooManyRequests, "rate limit exceeded, try again later")
}
