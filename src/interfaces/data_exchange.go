package interfaces

import "context"

// -----------------------------------------------------------------------------
// IServer is a long-lived listener owned by a binary's main loop.
// -----------------------------------------------------------------------------

type IServer interface {
	// -----------------------------------------------------------------------------
	// Start blocks serving until the listener fails or Stop is called
	Start() error

	// -----------------------------------------------------------------------------
	// Stop the server gracefully
	Stop(ctx context.Context) error
}
