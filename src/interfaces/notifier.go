package interfaces

import "context"

// INotifier delivers short run reports to an operator channel.
type INotifier interface {
	Notify(ctx context.Context, text string) error
}
