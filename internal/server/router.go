package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Handler returns the routed http.Handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	setupCommonMiddleware(r, s.log)
	s.setupRoutes(r)

	return r
}

func setupCommonMiddleware(r *chi.Mux, log *zap.Logger) {
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(log))
	r.Use(middleware.Recoverer)
	r.Use(middleware.CleanPath)
}

func (s *Server) setupRoutes(r chi.Router) {
	r.Get("/health", s.handleHealth)
	r.Get("/templates", s.handleTemplates)
	r.Get("/persons", s.handlePersons)
	r.Get("/picture/{person}", s.handlePicture)

	r.Post("/generate", s.handleGenerate)
	r.Post("/create", s.handleCreate)
	r.Post("/delete-person", s.handleDeletePerson)
	r.Post("/upload-picture", s.handleUploadPicture)

	r.Route("/files", func(r chi.Router) {
		r.Get("/tree", s.handleFileTree)
		r.Get("/content", s.handleFileContent)
		r.Post("/save", s.handleFileSave)
	})

	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
}

// requestLogger logs one line per request with the chi request ID.
func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			defer func() {
				log.Info("request",
					zap.String("request_id", middleware.GetReqID(r.Context())),
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.String("remote", r.RemoteAddr),
					zap.Int("status", ww.Status()),
					zap.Int("bytes", ww.BytesWritten()),
					zap.Duration("elapsed", time.Since(start)))
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
