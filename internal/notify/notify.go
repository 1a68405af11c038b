// Package notify delivers inventory notifications to logs and to the message bus.
package notify

import (
	"context"
	"log/slog"
	"time"

	"github.com/abgdnv/procurehub/internal/inventory"
	"github.com/abgdnv/procurehub/pkg/messaging"
	"github.com/abgdnv/procurehub/pkg/messaging/events"
)

// Multi fans a notification out to every notifier in order.
type Multi []inventory.Notifier

func (m Multi) Notify(ctx context.Context, n inventory.Notification) {
	for _, notifier := range m {
		notifier.Notify(ctx, n)
	}
}

// LogNotifier writes notifications as structured log records. Warnings are logged at warn level.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.With("component", "notify")}
}

func (l *LogNotifier) Notify(ctx context.Context, n inventory.Notification) {
	level := slog.LevelInfo
	if n.Kind == inventory.KindWarning {
		level = slog.LevelWarn
	}
	l.logger.Log(ctx, level, n.Title,
		"description", n.Description,
		"action", n.Action,
		"tier", n.Tier,
		"ID", n.ProductID,
	)
}

// EventNotifier publishes every notification as an events.ProductChanged.
// Publish failures are logged and otherwise ignored.
type EventNotifier struct {
	publisher messaging.Publisher
	timeout   time.Duration
	logger    *slog.Logger
}

func NewEventNotifier(publisher messaging.Publisher, timeout time.Duration, logger *slog.Logger) *EventNotifier {
	return &EventNotifier{
		publisher: publisher,
		timeout:   timeout,
		logger:    logger.With("component", "notify"),
	}
}

func (e *EventNotifier) Notify(ctx context.Context, n inventory.Notification) {
	// the caller's request may already be finished; the event still goes out
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.timeout)
	defer cancel()

	event := ToEvent(n)
	if err := e.publisher.Publish(pubCtx, event); err != nil {
		e.logger.ErrorContext(ctx, "Failed to publish inventory event", "subject", event.Subject(), "error", err)
		return
	}
	e.logger.DebugContext(ctx, "Inventory event published", "subject", event.Subject())
}

// ToEvent converts a notification to its bus representation.
func ToEvent(n inventory.Notification) events.ProductChanged {
	return events.ProductChanged{
		Action:      string(n.Action),
		Tier:        string(n.Tier),
		Kind:        string(n.Kind),
		ProductID:   n.ProductID,
		Title:       n.Title,
		Description: n.Description,
		OccurredAt:  n.At,
	}
}
