package web

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"fridgechef/internal/compose"
	"fridgechef/internal/domain"
)

var errUnsupportedMedia = errors.New("unsupported media format")

const maxMediaSize = 50 * 1024 * 1024 // 50 MB

// allowedImageTypes is the set of image MIME types accepted as uploaded
// media. net/http.DetectContentType handles JPEG, PNG, and GIF via
// magic-byte sniffing; WebP, WebM, and MP4 are detected separately because
// the WHATWG sniff spec (and therefore the stdlib) does not cover them.
var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
}

// isWebP reports whether data is a WebP image (RIFF container with "WEBP"
// at offset 8).
func isWebP(data []byte) bool {
	return len(data) >= 12 &&
		string(data[0:4]) == "RIFF" &&
		string(data[8:12]) == "WEBP"
}

// isWebM reports whether data starts with the EBML magic shared by WebM and
// Matroska containers.
func isWebM(data []byte) bool {
	return len(data) >= 4 &&
		data[0] == 0x1A && data[1] == 0x45 && data[2] == 0xDF && data[3] == 0xA3
}

// isMP4 reports whether data is an ISO base media file ("ftyp" box at
// offset 4).
func isMP4(data []byte) bool {
	return len(data) >= 8 && string(data[4:8]) == "ftyp"
}

// allowedMediaMIME returns the detected MIME type and true if the data is an
// accepted image or video format, or ("", false) otherwise.
func allowedMediaMIME(data []byte) (string, bool) {
	switch {
	case isWebP(data):
		return "image/webp", true
	case isWebM(data):
		return "video/webm", true
	case isMP4(data):
		return "video/mp4", true
	}
	mime := http.DetectContentType(data)
	if allowedImageTypes[mime] {
		return mime, true
	}
	return "", false
}

type stateResponse struct {
	State        string              `json:"state"`
	Recipe       *domain.SavedRecipe `json:"recipe,omitempty"`
	Error        string              `json:"error,omitempty"`
	PendingMedia bool                `json:"pendingMedia"`
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	state, recipe, errMsg := s.reconciler.State()
	s.writeJSON(w, http.StatusOK, stateResponse{
		State:        state.String(),
		Recipe:       recipe,
		Error:        errMsg,
		PendingMedia: s.reconciler.PendingMedia() != nil,
	})
}

func (s *Server) handleDietaryOptions(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, domain.DietaryOptions())
}

// handleGenerate accepts a multipart form with fields mode, ingredients,
// dietary, and dish_type, plus an optional media file. When no file is
// uploaded, media captured through the camera session is used.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxMediaSize); err != nil {
		http.Error(w, "failed to parse form", http.StatusBadRequest)
		return
	}

	mode, ok := domain.ParseInputMode(r.FormValue("mode"))
	if !ok {
		http.Error(w, "invalid mode", http.StatusBadRequest)
		return
	}
	dietary, ok := domain.ParseDietaryOption(r.FormValue("dietary"))
	if !ok {
		http.Error(w, "invalid dietary option", http.StatusBadRequest)
		return
	}

	media, err := s.requestMedia(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if media == nil {
		media = s.reconciler.PendingMedia()
	}

	req, err := compose.Build(compose.Input{
		Mode:            mode,
		IngredientsText: r.FormValue("ingredients"),
		Dietary:         dietary,
		DishTypeHint:    r.FormValue("dish_type"),
		Media:           media,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	recipe, err := s.reconciler.Generate(r.Context(), req)
	if err != nil {
		s.writeError(w, err)
		s.logger.Error("generation failed", "mode", mode, "error", err)
		return
	}

	s.writeJSON(w, http.StatusOK, recipe)
}

// requestMedia extracts and sniffs an uploaded media file, if present.
func (s *Server) requestMedia(r *http.Request) (*domain.MediaBlob, error) {
	file, _, err := r.FormFile("media")
	if err != nil {
		if err == http.ErrMissingFile {
			return nil, nil
		}
		return nil, err
	}
	defer closeWithLog(file, "media upload", s.logger)

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}

	mimeType, ok := allowedMediaMIME(data)
	if !ok {
		return nil, errUnsupportedMedia
	}
	return &domain.MediaBlob{Data: data, MIMEType: mimeType}, nil
}

func (s *Server) handleCancelGenerate(w http.ResponseWriter, r *http.Request) {
	s.reconciler.Cancel()
	w.WriteHeader(http.StatusNoContent)
}

// closeWithLog closes c and logs any error, using label to identify the resource.
func closeWithLog(c io.Closer, label string, logger *slog.Logger) {
	if err := c.Close(); err != nil {
		logger.Error("failed to close resource", "label", label, "error", err)
	}
}
