package command

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alem-hub/curriculum-hub/internal/domain/curriculum"
	"github.com/alem-hub/curriculum-hub/internal/domain/shared"
	"github.com/alem-hub/curriculum-hub/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// IMPORT CAREER COMMAND
// Loads a career catalog (courses, curricula links, prerequisites) into storage.
// ══════════════════════════════════════════════════════════════════════════════

// ImportCareerCommand contains one career to import.
type ImportCareerCommand struct {
	Data curriculum.CareerImport
}

// Validate validates the command.
func (c ImportCareerCommand) Validate() error {
	return c.Data.Validate()
}

// ImportCareerResult reports the stored career.
type ImportCareerResult struct {
	CareerID    string        `json:"career_id"`
	CareerName  string        `json:"career_name"`
	CourseCount int           `json:"courses"`
	Prereqs     int           `json:"prerequisites"`
	Duration    time.Duration `json:"duration_ns"`
}

// CatalogValidator checks store-side integrity of an import (e.g. prerequisite cycles).
type CatalogValidator interface {
	ValidateImport(data curriculum.CareerImport) error
}

// ImportCareerHandler handles the ImportCareerCommand.
type ImportCareerHandler struct {
	repo           curriculum.Repository
	validator      CatalogValidator
	eventPublisher shared.EventPublisher
	retrier        *retry.Retrier
	logger         *slog.Logger
}

// NewImportCareerHandler creates a new ImportCareerHandler.
// validator may be nil to skip graph checks.
func NewImportCareerHandler(
	repo curriculum.Repository,
	validator CatalogValidator,
	eventPublisher shared.EventPublisher,
	logger *slog.Logger,
) *ImportCareerHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if eventPublisher == nil {
		eventPublisher = shared.NopPublisher{}
	}
	return &ImportCareerHandler{
		repo:           repo,
		validator:      validator,
		eventPublisher: eventPublisher,
		retrier:        retry.DatabaseRetrier(shared.IsRetryable),
		logger:         logger,
	}
}

// Handle executes the command. Nothing is written when validation fails.
func (h *ImportCareerHandler) Handle(ctx context.Context, cmd ImportCareerCommand) (*ImportCareerResult, error) {
	started := time.Now()

	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("import_career: validation failed: %w", err)
	}
	if h.validator != nil {
		if err := h.validator.ValidateImport(cmd.Data); err != nil {
			return nil, fmt.Errorf("import_career: %w", err)
		}
	}

	var careerID string
	err := h.retrier.Do(ctx, func(ctx context.Context) error {
		id, err := h.repo.ImportCareer(ctx, cmd.Data)
		careerID = id
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("import_career: %w", err)
	}

	prereqs := 0
	for _, c := range cmd.Data.Courses {
		prereqs += len(c.Prerequisites)
	}

	result := &ImportCareerResult{
		CareerID:    careerID,
		CareerName:  cmd.Data.CareerName,
		CourseCount: len(cmd.Data.Courses),
		Prereqs:     prereqs,
		Duration:    time.Since(started),
	}

	h.logger.Info("career imported",
		"career_id", careerID,
		"career_name", result.CareerName,
		"courses", result.CourseCount,
		"prerequisites", result.Prereqs,
		"source", cmd.Data.SourceFile,
	)

	// Cached catalog snapshots are dropped by the CareerImported subscriber.
	event := shared.NewCareerImportedEvent(careerID, result.CareerName, result.CourseCount)
	if err := h.eventPublisher.Publish(event); err != nil {
		h.logger.Warn("failed to publish career imported event", "career_id", careerID, "error", err)
	}

	return result, nil
}
