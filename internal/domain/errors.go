package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors used across layers.
var (
	// ErrPermissionDenied is returned by device providers when the user (or
	// the OS) refused camera/microphone access.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrRecipeNotFound is returned when a named recipe is not in the saved
	// collection.
	ErrRecipeNotFound = errors.New("recipe not found")
	// ErrGenerationInFlight is returned when a submit arrives while a
	// generation call is already outstanding.
	ErrGenerationInFlight = errors.New("a generation is already in progress")
)

// ValidationCode identifies which pre-network check a request failed.
type ValidationCode string

const (
	InvalidCharacters  ValidationCode = "invalid_characters"
	MissingIngredients ValidationCode = "missing_ingredients"
	MissingMedia       ValidationCode = "missing_media"
)

// ValidationError rejects a generation request before any network activity.
// The user can recover by editing their input; it is never retried.
type ValidationError struct {
	Code ValidationCode
	Mode InputMode // set for MissingMedia, for message wording
}

func (e *ValidationError) Error() string {
	switch e.Code {
	case InvalidCharacters:
		return "Your ingredients list contains invalid characters. Please use only letters, commas, apostrophes, and hyphens."
	case MissingIngredients:
		return "Please enter some ingredients."
	case MissingMedia:
		return fmt.Sprintf("Please capture an %s of your ingredients.", e.Mode)
	}
	return string(e.Code)
}

// CaptureCode identifies why a capture session failed.
type CaptureCode string

const (
	PermissionDenied     CaptureCode = "permission_denied"
	DeviceUnavailable    CaptureCode = "device_unavailable"
	RecordingStartFailed CaptureCode = "recording_start_failed"
)

// CaptureError is terminal for the current capture session; the user must
// reopen capture to try again.
type CaptureError struct {
	Code CaptureCode
	Err  error
}

func (e *CaptureError) Error() string {
	switch e.Code {
	case PermissionDenied:
		return "Camera access was denied. Please allow camera access in your device settings."
	case DeviceUnavailable:
		if e.Err != nil {
			return fmt.Sprintf("Could not access the camera: %v", e.Err)
		}
		return "Could not access the camera."
	case RecordingStartFailed:
		return "Could not start video recording."
	}
	return string(e.Code)
}

func (e *CaptureError) Unwrap() error { return e.Err }

// GenerationError wraps any transport failure, schema violation, or parse
// failure from the generation call. The user-facing message depends only on
// whether media was involved; the wrapped error carries the detail.
type GenerationError struct {
	FromMedia bool
	Err       error
}

func (e *GenerationError) Error() string {
	if e.FromMedia {
		return "Failed to generate recipe from media. The model may have been unable to identify ingredients. Please try again with a clearer picture or video."
	}
	return "Failed to generate recipe. The model may be unable to create a recipe with the provided ingredients. Please try again."
}

func (e *GenerationError) Unwrap() error { return e.Err }
