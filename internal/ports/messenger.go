package ports

import "context"

// Messenger sends one message to one chat identity over the messaging
// platform's HTTP API. Implementations retry internally; an error means
// the retry budget is exhausted.
type Messenger interface {
	// Send delivers plain text, used for bot command replies.
	Send(ctx context.Context, chatID, text string) error

	// SendFormatted delivers text with the platform's bold/italic markup
	// mode enabled, used for order notifications.
	SendFormatted(ctx context.Context, chatID, text string) error
}
