package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/alem-hub/curriculum-hub/internal/domain/curriculum"
	"github.com/alem-hub/curriculum-hub/internal/domain/progress"
	"github.com/alem-hub/curriculum-hub/internal/domain/shared"
)

// studentRow is the DAO for the students table.
type studentRow struct {
	ID              string         `db:"id"`
	Email           string         `db:"email"`
	Name            string         `db:"name"`
	CareerID        sql.NullString `db:"career_id"`
	CurrentSemester int            `db:"current_semester"`
}

func (r studentRow) toStudent() progress.Student {
	return progress.Student{
		ID:              shared.StudentID(r.ID),
		Email:           r.Email,
		Name:            r.Name,
		CareerID:        r.CareerID.String,
		CurrentSemester: r.CurrentSemester,
	}
}

// courseProgressRow is the DAO for the student_courses table.
type courseProgressRow struct {
	CourseID  string        `db:"course_id"`
	Status    string        `db:"status"`
	TermTaken sql.NullInt64 `db:"term_taken"`
}

const studentColumns = `id, email, name, career_id, current_semester`

// GetByID returns a student by ID.
func (s *Store) GetByID(ctx context.Context, id shared.StudentID) (*progress.Student, error) {
	var row studentRow
	err := s.db.GetContext(ctx, &row, `SELECT `+studentColumns+` FROM students WHERE id = ?`, id.String())
	if err != nil {
		if isNoRows(err) {
			return nil, shared.ErrStudentNotFound
		}
		return nil, fmt.Errorf("sqlite: get student: %w", mapError(err))
	}
	st := row.toStudent()
	return &st, nil
}

// List returns a page of students ordered by email.
func (s *Store) List(ctx context.Context, page shared.Pagination) ([]progress.Student, error) {
	var rows []studentRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT `+studentColumns+` FROM students ORDER BY email LIMIT ? OFFSET ?`,
		page.Limit(), page.Offset(),
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list students: %w", mapError(err))
	}
	return toStudents(rows), nil
}

// All returns every student ordered by email.
func (s *Store) All(ctx context.Context) ([]progress.Student, error) {
	var rows []studentRow
	if err := s.db.SelectContext(ctx, &rows, `SELECT `+studentColumns+` FROM students ORDER BY email`); err != nil {
		return nil, fmt.Errorf("sqlite: load students: %w", mapError(err))
	}
	return toStudents(rows), nil
}

// Upsert creates or updates a student. The counter of an existing student is kept.
func (s *Store) Upsert(ctx context.Context, st progress.Student) error {
	if err := st.Validate(); err != nil {
		return err
	}
	email, _ := shared.NewEmail(st.Email)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO students (id, email, name, career_id, current_semester)
		VALUES (?, ?, ?, NULLIF(?, ''), ?)
		ON CONFLICT (id) DO UPDATE SET
			email = excluded.email,
			name = excluded.name,
			career_id = excluded.career_id,
			updated_at = CURRENT_TIMESTAMP
	`, st.ID.String(), email.String(), st.Name, st.CareerID, st.CurrentSemester)
	if err != nil {
		if isUniqueViolation(err) {
			return shared.WrapError("progress", "Upsert", shared.ErrAlreadyExists, "email already registered", err)
		}
		return fmt.Errorf("sqlite: upsert student: %w", mapError(err))
	}
	return nil
}

// SetCurrentSemester overwrites the semester counter.
func (s *Store) SetCurrentSemester(ctx context.Context, id shared.StudentID, semester int) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE students SET current_semester = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		semester, id.String(),
	)
	if err != nil {
		return fmt.Errorf("sqlite: set current semester: %w", mapError(err))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return shared.ErrStudentNotFound
	}
	return nil
}

// GetProgress returns every course row of a student with normalized statuses.
func (s *Store) GetProgress(ctx context.Context, id shared.StudentID) ([]progress.CourseProgress, error) {
	var rows []courseProgressRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT course_id, status, term_taken FROM student_courses WHERE student_id = ? ORDER BY course_id`,
		id.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: get progress: %w", mapError(err))
	}

	result := make([]progress.CourseProgress, 0, len(rows))
	for _, r := range rows {
		status, err := progress.ParseStatus(r.Status)
		if err != nil {
			return nil, fmt.Errorf("course %s: %w", r.CourseID, err)
		}
		cp := progress.CourseProgress{
			StudentID: id,
			CourseID:  curriculum.CourseID(r.CourseID),
			Status:    status,
		}
		if r.TermTaken.Valid {
			term := int(r.TermTaken.Int64)
			cp.TermTaken = &term
		}
		result = append(result, cp)
	}
	return result, nil
}

// SetStatus creates or updates a course row.
func (s *Store) SetStatus(ctx context.Context, row progress.CourseProgress) error {
	var term sql.NullInt64
	if row.TermTaken != nil {
		term = sql.NullInt64{Int64: int64(*row.TermTaken), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO student_courses (student_id, course_id, status, term_taken)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (student_id, course_id) DO UPDATE SET
			status = excluded.status,
			term_taken = excluded.term_taken,
			updated_at = CURRENT_TIMESTAMP
	`, row.StudentID.String(), row.CourseID.String(), row.Status.String(), term)
	if err != nil {
		return fmt.Errorf("sqlite: set course status: %w", mapError(err))
	}
	return nil
}

// ResetProgress deletes every course row and zeroes the counter in one transaction.
func (s *Store) ResetProgress(ctx context.Context, id shared.StudentID) (int64, error) {
	var removed int64

	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE students SET current_semester = 0, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
			id.String(),
		)
		if err != nil {
			return mapError(err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return shared.ErrStudentNotFound
		}

		res, err = tx.ExecContext(ctx, `DELETE FROM student_courses WHERE student_id = ?`, id.String())
		if err != nil {
			return mapError(err)
		}
		removed, _ = res.RowsAffected()
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("sqlite: reset progress: %w", err)
	}
	return removed, nil
}

// ApplyAdvancement bumps the counter and promotes the selected pending rows
// in one transaction.
func (s *Store) ApplyAdvancement(ctx context.Context, adv progress.Advancement) (int, int, error) {
	var (
		newSemester int
		promoted    int
	)

	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		err := tx.GetContext(ctx, &newSemester, `
			UPDATE students
			SET current_semester = current_semester + 1, updated_at = CURRENT_TIMESTAMP
			WHERE id = ?
			RETURNING current_semester
		`, adv.StudentID.String())
		if err != nil {
			if isNoRows(err) {
				return shared.ErrStudentNotFound
			}
			return mapError(err)
		}

		if len(adv.CourseIDs) == 0 {
			return nil
		}

		query, args, err := sqlx.In(`
			UPDATE student_courses
			SET status = 'passed', term_taken = ?, updated_at = CURRENT_TIMESTAMP
			WHERE student_id = ?
			  AND course_id IN (?)
			  AND lower(trim(status)) IN ('planned', 'enrolled')
		`, adv.Term, adv.StudentID.String(), courseIDStrings(adv.CourseIDs))
		if err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx, tx.Rebind(query), args...)
		if err != nil {
			return mapError(err)
		}
		n, _ := res.RowsAffected()
		promoted = int(n)
		return nil
	})
	if err != nil {
		return 0, 0, fmt.Errorf("sqlite: apply advancement: %w", err)
	}
	return newSemester, promoted, nil
}

func toStudents(rows []studentRow) []progress.Student {
	students := make([]progress.Student, len(rows))
	for i, r := range rows {
		students[i] = r.toStudent()
	}
	return students
}
