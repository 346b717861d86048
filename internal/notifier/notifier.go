package notifier

import "context"

// Notifier delivers a text message to a destination channel. The pipeline
// never retries a send; delivery retry, if wanted, lives behind this
// interface.
type Notifier interface {
	Send(ctx context.Context, destination, text string) error
}
