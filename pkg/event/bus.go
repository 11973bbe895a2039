// Package event implements the in-process publish/subscribe bus: named
// topics, handlers invoked sequentially in registration order, with an
// individual handler's failure logged and never preventing the others from
// running. Subscription itself lives on
// plugin.Tables (append-only, installed at load time); this package only
// adds the dispatch side — Emit — so pkg/runtime doesn't need to duplicate
// the publish loop at every call site.
package event

import (
	"context"
	"log/slog"

	"github.com/relaywire/agentcore/pkg/content"
	"github.com/relaywire/agentcore/pkg/plugin"
)

// Standard topic names used across the runtime's message-handling cycle.
const (
	TopicMessageReceived = "MESSAGE_RECEIVED"
	TopicMessageSent     = "MESSAGE_SENT"
	TopicWorldJoined     = "WORLD_JOINED"
	TopicEntityJoined    = "ENTITY_JOINED"
	TopicActionStarted   = "ACTION_STARTED"
	TopicActionCompleted = "ACTION_COMPLETED"
)

// Source supplies the handlers subscribed to a topic, in registration
// order — the shape plugin.Tables.Subscribers already provides.
type Source interface {
	Subscribers(topic string) []plugin.EventHandlerFunc
}

// Bus dispatches Emit calls to every handler subscribed to a topic.
type Bus struct {
	source Source
	logger *slog.Logger
}

// NewBus builds a Bus reading subscriptions from source.
func NewBus(source Source, logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{source: source, logger: logger}
}

// Emit runs every handler subscribed to topic, in registration order,
// recovering and logging a panic — an individual handler never prevents the others in the
// same publish from running, and publishes across different topics are not
// serialized against each other.
func (b *Bus) Emit(ctx context.Context, rt content.Runtime, topic string, payload any) {
	for _, h := range b.source.Subscribers(topic) {
		b.runOne(ctx, rt, topic, h, payload)
	}
}

func (b *Bus) runOne(ctx context.Context, rt content.Runtime, topic string, h plugin.EventHandlerFunc, payload any) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event handler panicked", "topic", topic, "recovered", r)
		}
	}()
	h(ctx, rt, payload)
}
