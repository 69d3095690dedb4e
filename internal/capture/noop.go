package capture

import (
	"context"
	"fmt"
)

// NoopProvider is used when no camera backend is configured. Every
// acquisition fails, which the session surfaces as a device-unavailable
// capture error.
type NoopProvider struct{}

// Acquire always fails.
func (NoopProvider) Acquire(context.Context, Constraints) (Stream, error) {
	return nil, fmt.Errorf("no camera device configured")
}
