package capture

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"fridgechef/internal/domain"
)

// State is the lifecycle state of a capture session.
type State int

const (
	// StateAcquiring means a stream request is in flight.
	StateAcquiring State = iota
	// StateReady means the stream is live; capture controls may be enabled.
	StateReady
	// StateRecording means a video recording is in progress.
	StateRecording
	// StateFailed means the device or permission request failed. Terminal: the
	// user must open a new session.
	StateFailed
	// StateClosed means the session is torn down and its tracks released.
	StateClosed
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateAcquiring:
		return "acquiring"
	case StateReady:
		return "ready"
	case StateRecording:
		return "recording"
	case StateFailed:
		return "failed"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Result is the finished output of a session: the media blob to feed into
// generation plus a small JPEG preview for display.
type Result struct {
	Media   domain.MediaBlob
	Preview []byte
}

// Session owns one camera interaction from open to teardown. The stream's
// lifetime has a single owner: whatever path exits the session, whether
// capture, close, or failure, releases the tracks.
type Session struct {
	provider DeviceProvider
	log      *slog.Logger
	mode     domain.InputMode

	mu       sync.Mutex
	facing   domain.Facing
	state    State
	stream   Stream
	recorder Recorder
	err      error
	epoch    int           // current acquisition; late arrivals from older epochs are discarded
	ready    chan struct{} // closed when the current acquisition settles
}

// Open creates a session and starts acquiring a stream for the given mode
// and facing direction. Acquisition is asynchronous; use WaitReady to block
// until the stream is live or the session has failed.
func Open(ctx context.Context, provider DeviceProvider, mode domain.InputMode, facing domain.Facing, log *slog.Logger) (*Session, error) {
	if mode != domain.ModeImage && mode != domain.ModeVideo {
		return nil, fmt.Errorf("capture mode must be image or video, got %q", mode)
	}

	s := &Session{
		provider: provider,
		log:      log,
		mode:     mode,
		facing:   facing,
		state:    StateAcquiring,
	}

	s.mu.Lock()
	s.beginAcquire(ctx)
	s.mu.Unlock()
	return s, nil
}

func (s *Session) constraints() Constraints {
	return Constraints{
		Facing:      s.facing,
		IdealWidth:  1280,
		IdealHeight: 720,
		Audio:       s.mode == domain.ModeVideo,
	}
}

// beginAcquire starts a stream request for the current facing. Caller holds
// the lock.
func (s *Session) beginAcquire(ctx context.Context) {
	s.epoch++
	epoch := s.epoch
	done := make(chan struct{})
	s.ready = done
	constraints := s.constraints()

	go func() {
		defer close(done)
		stream, err := s.provider.Acquire(ctx, constraints)

		s.mu.Lock()
		defer s.mu.Unlock()

		// The session was closed, or the facing changed, while this request
		// was in flight. The stream cannot be kept: release its tracks the
		// instant it arrives.
		if s.state == StateClosed || s.state == StateFailed || epoch != s.epoch {
			if err == nil {
				s.log.Debug("discarding late-arriving stream", "epoch", epoch)
				stream.Close()
			}
			return
		}

		if err != nil {
			s.state = StateFailed
			if errors.Is(err, domain.ErrPermissionDenied) {
				s.err = &domain.CaptureError{Code: domain.PermissionDenied, Err: err}
			} else {
				s.err = &domain.CaptureError{Code: domain.DeviceUnavailable, Err: err}
			}
			s.log.Warn("stream acquisition failed", "mode", s.mode, "facing", s.facing, "error", err)
			return
		}

		s.stream = stream
		s.state = StateReady
		s.log.Debug("stream ready", "mode", s.mode, "facing", s.facing)
	}()
}

// WaitReady blocks until the in-flight acquisition settles. It returns nil
// once the stream is live, the session's capture error if acquisition
// failed, or ctx's error if the wait is abandoned.
func (s *Session) WaitReady(ctx context.Context) error {
	s.mu.Lock()
	done := s.ready
	s.mu.Unlock()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateFailed {
		return s.err
	}
	if s.state == StateClosed {
		return fmt.Errorf("capture session is closed")
	}
	return nil
}

// State returns the current session state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Facing returns the current facing direction.
func (s *Session) Facing() domain.Facing {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.facing
}

// SwitchFacing toggles between the user and environment cameras and
// re-acquires the stream. It is rejected while a recording is in progress.
func (s *Session) SwitchFacing(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateRecording:
		return fmt.Errorf("cannot switch camera while recording")
	case StateClosed, StateFailed:
		return fmt.Errorf("capture session is not active")
	}

	s.facing = s.facing.Toggle()
	if s.stream != nil {
		s.stream.Close()
		s.stream = nil
	}
	s.state = StateAcquiring
	s.beginAcquire(ctx)
	return nil
}

// CaptureImage snaps the current frame, mirrors it when the user-facing
// camera is active (so the saved image matches the mirrored live preview the
// user saw), encodes it as lossless PNG, and closes the session.
func (s *Session) CaptureImage() (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.mode != domain.ModeImage {
		return nil, fmt.Errorf("capture image is only available in image mode")
	}
	if s.state != StateReady || s.stream == nil {
		return nil, fmt.Errorf("no active stream")
	}

	frame, err := s.stream.Frame()
	if err != nil {
		return nil, fmt.Errorf("failed to grab frame: %w", err)
	}

	if s.facing == domain.FacingUser {
		frame = mirrorHorizontal(frame)
	}

	data, err := encodePNG(frame)
	if err != nil {
		return nil, fmt.Errorf("failed to encode frame: %w", err)
	}
	preview, err := thumbnailJPEG(frame)
	if err != nil {
		return nil, fmt.Errorf("failed to encode preview: %w", err)
	}

	s.closeLocked()
	return &Result{
		Media:   domain.MediaBlob{Data: data, MIMEType: "image/png"},
		Preview: preview,
	}, nil
}

// StartRecording begins accumulating media chunks using the best-supported
// codec from the preference list.
func (s *Session) StartRecording() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.mode != domain.ModeVideo {
		return fmt.Errorf("recording is only available in video mode")
	}
	if s.state != StateReady || s.stream == nil {
		return fmt.Errorf("no active stream")
	}

	var recorder Recorder
	for _, codec := range codecPreference {
		r, err := s.stream.NewRecorder(codec)
		if err == nil {
			recorder = r
			s.log.Debug("recorder created", "codec", codec)
			break
		}
	}
	if recorder == nil {
		return &domain.CaptureError{Code: domain.RecordingStartFailed}
	}

	if err := recorder.Start(); err != nil {
		return &domain.CaptureError{Code: domain.RecordingStartFailed, Err: err}
	}

	s.recorder = recorder
	s.state = StateRecording
	return nil
}

// StopRecording concatenates the accumulated chunks into a single webm blob,
// grabs a poster frame for the preview, and closes the session.
func (s *Session) StopRecording() (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateRecording || s.recorder == nil {
		return nil, fmt.Errorf("no recording in progress")
	}

	data, err := s.recorder.Stop()
	s.recorder = nil
	if err != nil {
		s.closeLocked()
		return nil, fmt.Errorf("failed to stop recording: %w", err)
	}

	// Poster frame is best-effort; the recording itself is the payload.
	var preview []byte
	if frame, ferr := s.stream.Frame(); ferr == nil {
		if thumb, terr := thumbnailJPEG(frame); terr == nil {
			preview = thumb
		}
	}

	s.closeLocked()
	return &Result{
		Media:   domain.MediaBlob{Data: data, MIMEType: "video/webm"},
		Preview: preview,
	}, nil
}

// Close releases the stream's tracks unconditionally. It is idempotent and
// safe to call in any state, including while an acquisition is in flight;
// the late-arriving stream will be released the moment it resolves.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeLocked()
}

func (s *Session) closeLocked() {
	if s.state == StateClosed {
		return
	}
	if s.recorder != nil {
		// Discard a recording interrupted by teardown.
		_, _ = s.recorder.Stop()
		s.recorder = nil
	}
	if s.stream != nil {
		s.stream.Close()
		s.stream = nil
	}
	s.state = StateClosed
}

// Err returns the terminal capture error, if the session has failed.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}
