package command

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alem-hub/curriculum-hub/internal/domain/progress"
	"github.com/alem-hub/curriculum-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// SET GLOBAL TERM COMMAND
// Overwrites the global term. Student counters are not touched.
// ══════════════════════════════════════════════════════════════════════════════

// SetGlobalTermCommand contains the new term value.
type SetGlobalTermCommand struct {
	Value int
}

// Validate validates the command.
func (c SetGlobalTermCommand) Validate() error {
	if c.Value < 0 {
		return shared.NewDomainError("term", "Set", shared.ErrNegativeValue, "global term cannot be negative")
	}
	return nil
}

// SetGlobalTermResult contains the stored value.
type SetGlobalTermResult struct {
	GlobalSemester int `json:"global_semester"`
}

// SetGlobalTermHandler handles the SetGlobalTermCommand.
type SetGlobalTermHandler struct {
	locker         progress.Locker
	terms          progress.TermRepository
	eventPublisher shared.EventPublisher
	logger         *slog.Logger
	lockTTL        time.Duration
}

// NewSetGlobalTermHandler creates a new SetGlobalTermHandler.
func NewSetGlobalTermHandler(
	locker progress.Locker,
	terms progress.TermRepository,
	eventPublisher shared.EventPublisher,
	logger *slog.Logger,
) *SetGlobalTermHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if eventPublisher == nil {
		eventPublisher = shared.NopPublisher{}
	}
	return &SetGlobalTermHandler{
		locker:         locker,
		terms:          terms,
		eventPublisher: eventPublisher,
		logger:         logger,
		lockTTL:        time.Minute,
	}
}

// Handle executes the command. It waits for no running progression:
// if advancement or recomputation holds the lock, ErrAdvancementInProgress is returned.
func (h *SetGlobalTermHandler) Handle(ctx context.Context, cmd SetGlobalTermCommand) (*SetGlobalTermResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("set_global_term: %w", err)
	}

	release, err := h.locker.Acquire(ctx, progress.ProgressionLockKey, h.lockTTL)
	if err != nil {
		return nil, fmt.Errorf("set_global_term: %w", err)
	}
	defer release()

	if err := h.terms.Set(ctx, cmd.Value); err != nil {
		return nil, fmt.Errorf("set_global_term: %w", err)
	}

	h.logger.Info("global term set", "term", cmd.Value)
	if err := h.eventPublisher.Publish(shared.NewGlobalTermSetEvent(cmd.Value)); err != nil {
		h.logger.Warn("failed to publish global term set event", "error", err)
	}

	return &SetGlobalTermResult{GlobalSemester: cmd.Value}, nil
}
