package interfaces

import (
	"context"
	"time"

	"options-observer/src/models"
)

// -----------------------------------------------------------------------------
// IOptionsProvider is the external market-data collaborator.
// -----------------------------------------------------------------------------

type IOptionsProvider interface {

	// Name returns the unique identifier of the provider
	Name() string

	// -----------------------------------------------------------------------------

	// Expiries returns the listed expiry dates for ticker, earliest first.
	Expiries(ctx context.Context, ticker string) ([]time.Time, error)

	// -----------------------------------------------------------------------------

	// Chain downloads the calls and puts of one (ticker, expiry).
	// Returned contracts carry Ticker, Expiry and Type but no AsOfDate.
	Chain(ctx context.Context, ticker string, expiry time.Time) (calls, puts []models.MOptionContract, err error)
}
