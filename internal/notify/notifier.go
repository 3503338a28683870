// Package notify sends short direct messages to artists.
package notify

import "context"

// Notifier delivers a text message to an artist's chat.
type Notifier interface {
	Notify(ctx context.Context, chatID int64, text string) error
}

// Noop discards messages.
type Noop struct{}

func (Noop) Notify(context.Context, int64, string) error { return nil }
