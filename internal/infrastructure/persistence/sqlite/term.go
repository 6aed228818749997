package sqlite

import (
	"context"
	"fmt"

	"github.com/alem-hub/curriculum-hub/internal/domain/shared"
)

const controlSlug = "U"

// Current returns the global term.
func (s *Store) Current(ctx context.Context) (int, error) {
	var value int
	if err := s.db.GetContext(ctx, &value, `SELECT current_value FROM semester_control WHERE slug = ?`, controlSlug); err != nil {
		if isNoRows(err) {
			return 0, shared.ErrTermNotInitialized
		}
		return 0, fmt.Errorf("sqlite: read global term: %w", mapError(err))
	}
	return value, nil
}

// Advance increments the global term in one statement and returns the new value.
func (s *Store) Advance(ctx context.Context) (int, error) {
	var value int
	err := s.db.GetContext(ctx, &value, `
		UPDATE semester_control
		SET current_value = current_value + 1, updated_at = CURRENT_TIMESTAMP
		WHERE slug = ?
		RETURNING current_value
	`, controlSlug)
	if err != nil {
		if isNoRows(err) {
			return 0, shared.ErrTermNotInitialized
		}
		return 0, fmt.Errorf("sqlite: advance global term: %w", mapError(err))
	}
	return value, nil
}

// Set overwrites the global term, creating the control row if missing.
func (s *Store) Set(ctx context.Context, term int) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO semester_control (slug, current_value) VALUES (?, ?)
		ON CONFLICT (slug) DO UPDATE SET current_value = excluded.current_value, updated_at = CURRENT_TIMESTAMP
	`, controlSlug, term)
	if err != nil {
		return fmt.Errorf("sqlite: set global term: %w", mapError(err))
	}
	return nil
}
