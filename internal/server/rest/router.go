package rest

import (
	"net/http"
	"time"

	"github.com/dmitrijs2005/filevault/internal/logging"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter mounts the API under /v1 plus /healthz and /metrics.
func NewRouter(h *Handler, gatherer prometheus.Gatherer, l logging.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(l))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/v1", func(r chi.Router) {
		r.Post("/files", h.CreateFile)
		r.Get("/files", h.FindFiles)

		r.Route("/files/{id}", func(r chi.Router) {
			r.Get("/", h.GetFile)
			r.Delete("/", h.DeleteFile)
			r.Put("/directory", h.MoveFile)
			r.Put("/name", h.RenameFile)
			r.Get("/versions", h.GetFileVersions)
			r.Post("/versions", h.CreateFileVersion)
		})

		r.Get("/versions", h.ListAllFileVersions)
		r.Get("/versions/{id}", h.GetFileVersion)
		r.Post("/versions/{id}/upload-url", h.RequestFileUpload)

		r.Get("/downloads", h.RequestFileDownload)
	})

	return r
}

// requestLogger logs one line per request through the shared logger.
func requestLogger(l logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			l.Info(r.Context(), "http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}
