// Package web exposes the recipe generator over a JSON HTTP API.
package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"fridgechef/internal/capture"
	"fridgechef/internal/domain"
	"fridgechef/internal/session"
)

type Server struct {
	reconciler *session.Reconciler
	camera     capture.DeviceProvider
	mux        *http.ServeMux
	logger     *slog.Logger

	// One capture session slot. Opening a new session tears down the
	// previous one so its tracks are never leaked.
	captureMu      sync.Mutex
	captureSession *capture.Session
	capturePreview []byte
}

func NewServer(rec *session.Reconciler, camera capture.DeviceProvider, logger *slog.Logger) *Server {
	s := &Server{
		reconciler: rec,
		camera:     camera,
		mux:        http.NewServeMux(),
		logger:     logger,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /api/state", s.handleState)
	s.mux.HandleFunc("GET /api/dietary-options", s.handleDietaryOptions)

	s.mux.HandleFunc("POST /api/generate", s.handleGenerate)
	s.mux.HandleFunc("POST /api/generate/cancel", s.handleCancelGenerate)

	s.mux.HandleFunc("GET /api/recipes", s.handleListRecipes)
	s.mux.HandleFunc("POST /api/recipes", s.handleSaveRecipe)
	s.mux.HandleFunc("DELETE /api/recipes/{name}", s.handleDeleteRecipe)
	s.mux.HandleFunc("POST /api/recipes/{name}/load", s.handleLoadRecipe)
	s.mux.HandleFunc("PUT /api/recipes/{name}/rating", s.handleRateRecipe)
	s.mux.HandleFunc("GET /api/recipes/{name}/share", s.handleShareRecipe)

	s.mux.HandleFunc("POST /api/capture", s.handleOpenCapture)
	s.mux.HandleFunc("POST /api/capture/facing", s.handleSwitchFacing)
	s.mux.HandleFunc("POST /api/capture/photo", s.handleCapturePhoto)
	s.mux.HandleFunc("POST /api/capture/recording/start", s.handleStartRecording)
	s.mux.HandleFunc("POST /api/capture/recording/stop", s.handleStopRecording)
	s.mux.HandleFunc("DELETE /api/capture", s.handleCloseCapture)
	s.mux.HandleFunc("GET /api/capture/preview", s.handleCapturePreview)
	s.mux.HandleFunc("DELETE /api/capture/media", s.handleDiscardMedia)
}

// securityHeaders adds defensive HTTP response headers to every response.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

// statusRecorder wraps http.ResponseWriter to capture the written status code.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func requestLogger(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestLogger(s.logger, securityHeaders(s.mux)).ServeHTTP(w, r)
}

func (s *Server) ListenAndServe(addr string) error {
	s.logger.Info("starting server", "addr", addr)
	srv := &http.Server{
		Addr:         addr,
		Handler:      s,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return srv.ListenAndServe()
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

// writeError maps domain errors onto HTTP statuses and emits a JSON body
// with the user-facing message.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError

	var valErr *domain.ValidationError
	var capErr *domain.CaptureError
	var genErr *domain.GenerationError
	switch {
	case errors.As(err, &valErr):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrGenerationInFlight):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrRecipeNotFound):
		status = http.StatusNotFound
	case errors.As(err, &capErr):
		if capErr.Code == domain.PermissionDenied {
			status = http.StatusForbidden
		} else {
			status = http.StatusServiceUnavailable
		}
	case errors.As(err, &genErr):
		status = http.StatusBadGateway
	}

	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}
