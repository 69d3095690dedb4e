package web

import (
	"context"
	"encoding/json"
	"net/http"

	"fridgechef/internal/capture"
	"fridgechef/internal/domain"
)

type openCaptureRequest struct {
	Mode   string `json:"mode"`
	Facing string `json:"facing"`
}

type captureStateResponse struct {
	State  string `json:"state"`
	Facing string `json:"facing"`
}

// handleOpenCapture opens a camera session for the requested mode, tearing
// down any previous session first. The request does not return until the
// stream is live or acquisition has failed.
func (s *Server) handleOpenCapture(w http.ResponseWriter, r *http.Request) {
	var body openCaptureRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	mode, ok := domain.ParseInputMode(body.Mode)
	if !ok || mode == domain.ModeText {
		http.Error(w, "mode must be image or video", http.StatusBadRequest)
		return
	}
	facing := domain.FacingEnvironment
	if body.Facing == string(domain.FacingUser) {
		facing = domain.FacingUser
	}

	// The acquire goroutine outlives this request; tie the stream to the
	// session, not to the HTTP round trip.
	sess, err := capture.Open(context.WithoutCancel(r.Context()), s.camera, mode, facing, s.logger)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.captureMu.Lock()
	if s.captureSession != nil {
		s.captureSession.Close()
	}
	s.captureSession = sess
	s.captureMu.Unlock()

	if err := sess.WaitReady(r.Context()); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, captureStateResponse{
		State:  sess.State().String(),
		Facing: string(sess.Facing()),
	})
}

// currentCapture returns the active session or nil.
func (s *Server) currentCapture() *capture.Session {
	s.captureMu.Lock()
	defer s.captureMu.Unlock()
	return s.captureSession
}

func (s *Server) handleSwitchFacing(w http.ResponseWriter, r *http.Request) {
	sess := s.currentCapture()
	if sess == nil {
		http.Error(w, "no capture session", http.StatusConflict)
		return
	}

	if err := sess.SwitchFacing(context.WithoutCancel(r.Context())); err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	if err := sess.WaitReady(r.Context()); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, captureStateResponse{
		State:  sess.State().String(),
		Facing: string(sess.Facing()),
	})
}

// handleCapturePhoto snaps a frame, stashes it as the pending media for the
// next generation request, and reports the blob's MIME type.
func (s *Server) handleCapturePhoto(w http.ResponseWriter, r *http.Request) {
	sess := s.currentCapture()
	if sess == nil {
		http.Error(w, "no capture session", http.StatusConflict)
		return
	}

	result, err := sess.CaptureImage()
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.finishCapture(sess, result)
	s.writeJSON(w, http.StatusOK, map[string]string{"mimeType": result.Media.MIMEType})
}

func (s *Server) handleStartRecording(w http.ResponseWriter, r *http.Request) {
	sess := s.currentCapture()
	if sess == nil {
		http.Error(w, "no capture session", http.StatusConflict)
		return
	}

	if err := sess.StartRecording(); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStopRecording(w http.ResponseWriter, r *http.Request) {
	sess := s.currentCapture()
	if sess == nil {
		http.Error(w, "no capture session", http.StatusConflict)
		return
	}

	result, err := sess.StopRecording()
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.finishCapture(sess, result)
	s.writeJSON(w, http.StatusOK, map[string]string{"mimeType": result.Media.MIMEType})
}

// finishCapture stores the captured media for the next generation request
// and clears the session slot.
func (s *Server) finishCapture(sess *capture.Session, result *capture.Result) {
	s.reconciler.SetPendingMedia(&result.Media)

	s.captureMu.Lock()
	if s.captureSession == sess {
		s.captureSession = nil
	}
	s.capturePreview = result.Preview
	s.captureMu.Unlock()
}

func (s *Server) handleCloseCapture(w http.ResponseWriter, r *http.Request) {
	s.captureMu.Lock()
	if s.captureSession != nil {
		s.captureSession.Close()
		s.captureSession = nil
	}
	s.captureMu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

// handleCapturePreview serves the thumbnail of the most recent capture.
func (s *Server) handleCapturePreview(w http.ResponseWriter, r *http.Request) {
	s.captureMu.Lock()
	preview := s.capturePreview
	s.captureMu.Unlock()

	if len(preview) == 0 {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "image/jpeg")
	if _, err := w.Write(preview); err != nil {
		s.logger.Error("write preview failed", "error", err)
	}
}

// handleDiscardMedia drops captured media that was never submitted and
// dismisses any displayed failure, for example when the user switches input
// modes.
func (s *Server) handleDiscardMedia(w http.ResponseWriter, r *http.Request) {
	s.reconciler.ClearPendingMedia()
	s.reconciler.ClearError()
	s.captureMu.Lock()
	s.capturePreview = nil
	s.captureMu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}
