package ports

import (
	"context"

	"github.com/bnema/claude-voice/internal/domain"
)

// StagingSlot hands a request to the daemon by overwriting the single slot.
type StagingSlot interface {
	Stage(ctx context.Context, request domain.NotificationRequest) error
}

// StagingReader is the daemon side of the slot.
type StagingReader interface {
	Peek(ctx context.Context) (domain.NotificationRequest, error)
	Take(ctx context.Context) (domain.NotificationRequest, error)
}

// Notifier delivers a notification in-process.
type Notifier interface {
	Notify(ctx context.Context, message string, emotion domain.Emotion) error
}
