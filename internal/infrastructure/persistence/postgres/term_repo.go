package postgres

import (
	"context"
	"fmt"

	"github.com/alem-hub/curriculum-hub/internal/domain/shared"
)

// controlSlug identifies the single row of the semester_control table.
const controlSlug = "U"

// TermRepository implements progress.TermRepository on the semester_control row.
type TermRepository struct {
	conn *Connection
}

// NewTermRepository creates a new TermRepository.
func NewTermRepository(conn *Connection) *TermRepository {
	return &TermRepository{conn: conn}
}

// Current returns the global term.
func (r *TermRepository) Current(ctx context.Context) (int, error) {
	var value int
	err := r.conn.QueryRow(ctx,
		`SELECT current_value FROM semester_control WHERE slug = $1`, controlSlug,
	).Scan(&value)
	if err != nil {
		if IsNoRows(err) {
			return 0, shared.ErrTermNotInitialized
		}
		return 0, fmt.Errorf("failed to read global term: %w", mapError(err))
	}
	return value, nil
}

// Advance increments the global term in a single statement and returns the new value.
func (r *TermRepository) Advance(ctx context.Context) (int, error) {
	var value int
	err := r.conn.QueryRow(ctx, `
		UPDATE semester_control
		SET current_value = current_value + 1, updated_at = NOW()
		WHERE slug = $1
		RETURNING current_value
	`, controlSlug).Scan(&value)
	if err != nil {
		if IsNoRows(err) {
			return 0, shared.ErrTermNotInitialized
		}
		return 0, fmt.Errorf("failed to advance global term: %w", mapError(err))
	}
	return value, nil
}

// Set overwrites the global term, creating the control row if missing.
func (r *TermRepository) Set(ctx context.Context, term int) error {
	_, err := r.conn.Exec(ctx, `
		INSERT INTO semester_control (slug, current_value) VALUES ($1, $2)
		ON CONFLICT (slug) DO UPDATE SET current_value = EXCLUDED.current_value, updated_at = NOW()
	`, controlSlug, term)
	if err != nil {
		return fmt.Errorf("failed to set global term: %w", mapError(err))
	}
	return nil
}
