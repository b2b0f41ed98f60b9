// internal/infra/web/server.go
package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

const (
	readTimeout     = 10 * time.Second
	writeTimeout    = 15 * time.Second
	idleTimeout     = 60 * time.Second
	shutdownTimeout = 10 * time.Second
)

// Pinger is implemented by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// RouterDeps are the handlers and settings mounted by NewRouter.
type RouterDeps struct {
	Exec           http.Handler
	Metrics        http.Handler // optional
	DB             Pinger
	RateLimitRPS   float64
	RateLimitBurst int
	Log            *logrus.Entry
}

// NewRouter wires the public routes. Status and history requests on /exec are
// rate limited per IP; pixel hits never are. The limiter cleanup stops with ctx.
func NewRouter(ctx context.Context, d RouterDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(d.Log))
	r.Use(middleware.Recoverer)

	r.Get("/health", healthHandler(d.DB))
	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics)
	}

	limiter := NewRateLimiter(d.RateLimitRPS, d.RateLimitBurst)
	go limiter.RunCleanup(ctx, cleanupInterval)

	limited := limiter.Middleware(d.Exec)
	r.Get("/exec", func(w http.ResponseWriter, req *http.Request) {
		if req.URL.Query().Get("action") == "open" {
			d.Exec.ServeHTTP(w, req)
			return
		}
		limited.ServeHTTP(w, req)
	})
	return r
}

type healthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Database  string `json:"database"`
}

func healthHandler(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := healthResponse{Status: "healthy", Timestamp: time.Now().UTC().Format(time.RFC3339), Database: "ok"}
		status := http.StatusOK

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if db != nil {
			if err := db.PingContext(ctx); err != nil {
				resp.Status, resp.Database = "unhealthy", err.Error()
				status = http.StatusServiceUnavailable
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(resp)
	}
}

// Serve runs the HTTP server until ctx is cancelled, then shuts it down gracefully.
func Serve(ctx context.Context, addr string, handler http.Handler, log *logrus.Entry) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", addr).Info("HTTP server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	log.Info("HTTP server shutting down")
	return srv.Shutdown(shutdownCtx)
}
