package web

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/synaptica-ai/hospital/pkg/common/logger"
	"github.com/synaptica-ai/hospital/pkg/web/middleware"
)

// Pinger reports store reachability for the readiness probe.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type RouterConfig struct {
	Handler        *Handler
	Ready          Pinger
	Metrics        http.Handler
	Observer       middleware.RequestObserver
	MaxRequestBody int64
}

func NewRouter(cfg RouterConfig) *mux.Router {
	router := mux.NewRouter()
	logging := middleware.Logging(cfg.Observer)
	// Use only wraps matched routes.
	router.NotFoundHandler = logging(http.NotFoundHandler())
	router.MethodNotAllowedHandler = logging(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	}))
	router.Use(logging)
	router.Use(middleware.Recovery)
	router.Use(middleware.BodyLimit(cfg.MaxRequestBody))
	router.Use(middleware.Actor)

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, `{"status":"healthy"}`)
	}).Methods(http.MethodGet)
	router.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		if cfg.Ready != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := cfg.Ready.PingContext(ctx); err != nil {
				logger.Log.WithError(err).Warn("readiness check failed")
				writeStatus(w, http.StatusServiceUnavailable, `{"status":"unavailable"}`)
				return
			}
		}
		writeStatus(w, http.StatusOK, `{"status":"ready"}`)
	}).Methods(http.MethodGet)
	if cfg.Metrics != nil {
		router.Handle("/metrics", cfg.Metrics).Methods(http.MethodGet)
	}

	cfg.Handler.Register(router)
	return router
}

func writeStatus(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}
