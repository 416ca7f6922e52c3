package domain

import "context"

// Channel is the interface for user-facing transports (Telegram).
type Channel interface {
	Name() string
	Start(ctx context.Context, bus CommandBus) error
	Stop() error
}

// Notifier sends outbound messages back to a conversation.
type Notifier interface {
	SendText(ctx context.Context, chatID string, text string) error
	SendAudio(ctx context.Context, chatID string, filePath string, caption string) error
}
