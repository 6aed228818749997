package eventhandler

import (
	"log/slog"

	"github.com/alem-hub/curriculum-hub/internal/domain/shared"
)

// ═══════════════════════════════════════════════════════════════════════════
// AUDIT LOG HANDLER
// Пишет каждое доменное событие в структурированный лог.
// Административные операции (загрузка карьеры, сдвиг семестра, сброс)
// должны оставлять след.
// ═══════════════════════════════════════════════════════════════════════════

// AuditLogHandler логирует все события.
type AuditLogHandler struct {
	logger *slog.Logger
}

// NewAuditLogHandler создаёт обработчик.
func NewAuditLogHandler(logger *slog.Logger) *AuditLogHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditLogHandler{logger: logger.With("handler", "audit")}
}

// Handle реализует shared.EventHandler.
func (h *AuditLogHandler) Handle(event shared.Event) error {
	attrs := []any{
		"event_type", event.EventType(),
		"aggregate_id", event.AggregateID(),
		"occurred_at", event.OccurredAt(),
	}
	for k, v := range event.Payload() {
		attrs = append(attrs, k, v)
	}

	h.logger.Info("domain event", attrs...)
	return nil
}

// ═══════════════════════════════════════════════════════════════════════════
// REGISTRATION
// ═══════════════════════════════════════════════════════════════════════════

// Register подписывает обработчики на шину.
func Register(bus shared.EventSubscriber, cache *OnCareerImportedHandler, audit *AuditLogHandler) error {
	if cache != nil {
		if err := bus.Subscribe(shared.EventCareerImported, cache.Handle); err != nil {
			return err
		}
	}
	if audit != nil {
		if err := bus.SubscribeAll(audit.Handle); err != nil {
			return err
		}
	}
	return nil
}
