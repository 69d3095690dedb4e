// Package capture acquires a live camera/microphone stream through an
// injected device provider, lets the user snap a still frame or record a
// bounded clip, and yields exactly one finished media blob per session.
package capture

import (
	"context"
	"image"

	"fridgechef/internal/domain"
)

// Constraints describe the stream being requested from the device.
type Constraints struct {
	Facing      domain.Facing
	IdealWidth  int
	IdealHeight int
	Audio       bool
}

// DeviceProvider grants live streams. Implementations wrap whatever the host
// exposes (a V4L2 camera, a test fake, nothing at all). Acquire blocks until
// the device grants a stream or refuses; providers signal a user/OS refusal
// with domain.ErrPermissionDenied and any other failure with a plain error.
type DeviceProvider interface {
	Acquire(ctx context.Context, c Constraints) (Stream, error)
}

// Stream is a live media stream. Close releases every track and must be
// idempotent.
type Stream interface {
	// Frame returns the current video frame at the stream's native resolution.
	Frame() (image.Image, error)
	// NewRecorder returns a recorder for the given codec hint (empty string
	// means no hint), or an error if the codec is unsupported.
	NewRecorder(mimeType string) (Recorder, error)
	Close()
}

// Recorder accumulates media chunks from a live stream. Stop concatenates
// them into a single blob.
type Recorder interface {
	Start() error
	Stop() ([]byte, error)
}

// codecPreference is the ordered codec list for recording: first choice,
// fallback, plain container, then no hint at all.
var codecPreference = []string{
	"video/webm; codecs=vp9",
	"video/webm; codecs=vp8",
	"video/webm",
	"",
}
