package bus

import (
	"log/slog"
	"sync"
	"time"

	"tunebot/internal/domain"
)

const publishTimeout = 10 * time.Second

// InMemoryBus is a Go-channel based command bus for in-process communication
// between the gateway and the pipeline.
type InMemoryBus struct {
	commands chan domain.Command
	mu       sync.RWMutex
	closed   bool
	logger   *slog.Logger
}

// New creates a new InMemoryBus with the given buffer size.
func New(bufferSize int, logger *slog.Logger) *InMemoryBus {
	if bufferSize <= 0 {
		bufferSize = 100
	}
	return &InMemoryBus{
		commands: make(chan domain.Command, bufferSize),
		logger:   logger,
	}
}

// Blocks up to 10 seconds if the bus is full instead of dropping.
func (b *InMemoryBus) Publish(cmd domain.Command) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		b.logger.Warn("attempted to publish to closed bus")
		return
	}

	select {
	case b.commands <- cmd:
	default:
		// Bus full — wait with timeout instead of dropping
		b.logger.Warn("command bus full, waiting...", "channel", cmd.Channel, "sender", cmd.SenderID)
		timer := time.NewTimer(publishTimeout)
		defer timer.Stop()
		select {
		case b.commands <- cmd:
			b.logger.Info("command delivered after wait", "channel", cmd.Channel)
		case <-timer.C:
			b.logger.Error("command dropped: bus full for 10s",
				"channel", cmd.Channel,
				"sender", cmd.SenderID,
			)
		}
	}
}

func (b *InMemoryBus) Subscribe() <-chan domain.Command {
	return b.commands
}

func (b *InMemoryBus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.closed {
		b.closed = true
		close(b.commands)
	}
}
