// Package eventhandler содержит обработчики доменных событий.
package eventhandler

import (
	"context"
	"log/slog"
	"time"

	"github.com/alem-hub/curriculum-hub/internal/domain/curriculum"
	"github.com/alem-hub/curriculum-hub/internal/domain/shared"
)

// ═══════════════════════════════════════════════════════════════════════════
// ON CAREER IMPORTED HANDLER
// После загрузки карьеры удаляет её снимок из кеша каталога, чтобы
// следующее чтение увидело новые курсы и пререквизиты.
// ═══════════════════════════════════════════════════════════════════════════

// OnCareerImportedHandler инвалидирует кеш каталога.
type OnCareerImportedHandler struct {
	cache   curriculum.CatalogCache
	logger  *slog.Logger
	timeout time.Duration
}

// NewOnCareerImportedHandler создаёт обработчик. cache может быть nil,
// тогда обработчик ничего не делает.
func NewOnCareerImportedHandler(cache curriculum.CatalogCache, logger *slog.Logger) *OnCareerImportedHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &OnCareerImportedHandler{
		cache:   cache,
		logger:  logger.With("handler", "on_career_imported"),
		timeout: 5 * time.Second,
	}
}

// Handle реализует shared.EventHandler.
func (h *OnCareerImportedHandler) Handle(event shared.Event) error {
	imported, ok := event.(shared.CareerImportedEvent)
	if !ok {
		h.logger.Warn("received non-CareerImportedEvent", "event_type", event.EventType())
		return nil
	}
	if h.cache == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	if err := h.cache.Invalidate(ctx, imported.AggregateID()); err != nil {
		// Устаревший снимок истечёт по TTL.
		h.logger.Warn("failed to invalidate catalog cache",
			"career_id", imported.AggregateID(),
			"error", err,
		)
		return err
	}

	h.logger.Debug("catalog cache invalidated", "career_id", imported.AggregateID())
	return nil
}
