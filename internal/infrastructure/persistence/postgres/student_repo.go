package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/alem-hub/curriculum-hub/internal/domain/curriculum"
	"github.com/alem-hub/curriculum-hub/internal/domain/progress"
	"github.com/alem-hub/curriculum-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// STUDENT REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// StudentRepository implements progress.StudentRepository and
// progress.ProgressRepository for PostgreSQL.
type StudentRepository struct {
	conn *Connection
}

// NewStudentRepository creates a new StudentRepository.
func NewStudentRepository(conn *Connection) *StudentRepository {
	return &StudentRepository{conn: conn}
}

const studentColumns = `id::text, email, name, COALESCE(career_id::text, ''), current_semester`

// ─────────────────────────────────────────────────────────────────────────────
// Students
// ─────────────────────────────────────────────────────────────────────────────

// GetByID returns a student by ID.
func (r *StudentRepository) GetByID(ctx context.Context, id shared.StudentID) (*progress.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students WHERE id = $1`

	s, err := scanStudent(r.conn.QueryRow(ctx, query, id.String()))
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrStudentNotFound
		}
		return nil, fmt.Errorf("failed to get student: %w", mapError(err))
	}
	return s, nil
}

// List returns a page of students ordered by email.
func (r *StudentRepository) List(ctx context.Context, page shared.Pagination) ([]progress.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students ORDER BY email LIMIT $1 OFFSET $2`

	rows, err := r.conn.Query(ctx, query, page.Limit(), page.Offset())
	if err != nil {
		return nil, fmt.Errorf("failed to list students: %w", mapError(err))
	}
	return scanStudents(rows)
}

// All returns every student ordered by email.
func (r *StudentRepository) All(ctx context.Context) ([]progress.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students ORDER BY email`

	rows, err := r.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to load students: %w", mapError(err))
	}
	return scanStudents(rows)
}

// Upsert creates or updates a student by ID. The semester counter of an
// existing student is left unchanged.
func (r *StudentRepository) Upsert(ctx context.Context, s progress.Student) error {
	if err := s.Validate(); err != nil {
		return err
	}
	email, _ := shared.NewEmail(s.Email)

	query := `
		INSERT INTO students (id, email, name, career_id, current_semester)
		VALUES ($1, $2, $3, NULLIF($4, '')::uuid, $5)
		ON CONFLICT (id) DO UPDATE SET
			email = EXCLUDED.email,
			name = EXCLUDED.name,
			career_id = EXCLUDED.career_id,
			updated_at = NOW()
	`

	_, err := r.conn.Exec(ctx, query, s.ID.String(), email.String(), s.Name, s.CareerID, s.CurrentSemester)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.WrapError("progress", "Upsert", shared.ErrAlreadyExists, "email already registered", err)
		}
		return fmt.Errorf("failed to upsert student: %w", mapError(err))
	}
	return nil
}

// SetCurrentSemester overwrites the semester counter.
func (r *StudentRepository) SetCurrentSemester(ctx context.Context, id shared.StudentID, semester int) error {
	tag, err := r.conn.Exec(ctx,
		`UPDATE students SET current_semester = $2, updated_at = NOW() WHERE id = $1`,
		id.String(), semester,
	)
	if err != nil {
		return fmt.Errorf("failed to set current semester: %w", mapError(err))
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrStudentNotFound
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Course progress
// ─────────────────────────────────────────────────────────────────────────────

// GetProgress returns every course row of a student with normalized statuses.
// A row with an unrecognized status fails the whole read.
func (r *StudentRepository) GetProgress(ctx context.Context, id shared.StudentID) ([]progress.CourseProgress, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT course_id, status, term_taken
		FROM student_courses
		WHERE student_id = $1
		ORDER BY course_id
	`, id.String())
	if err != nil {
		return nil, fmt.Errorf("failed to get progress: %w", mapError(err))
	}
	defer rows.Close()

	result := make([]progress.CourseProgress, 0)
	for rows.Next() {
		var (
			courseID  string
			rawStatus string
			termTaken *int
		)
		if err := rows.Scan(&courseID, &rawStatus, &termTaken); err != nil {
			return nil, fmt.Errorf("failed to scan progress row: %w", err)
		}

		status, err := progress.ParseStatus(rawStatus)
		if err != nil {
			return nil, fmt.Errorf("course %s: %w", courseID, err)
		}

		result = append(result, progress.CourseProgress{
			StudentID: id,
			CourseID:  curriculum.CourseID(courseID),
			Status:    status,
			TermTaken: termTaken,
		})
	}

	return result, rows.Err()
}

// SetStatus creates or updates a course row.
func (r *StudentRepository) SetStatus(ctx context.Context, row progress.CourseProgress) error {
	_, err := r.conn.Exec(ctx, `
		INSERT INTO student_courses (student_id, course_id, status, term_taken)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (student_id, course_id) DO UPDATE SET
			status = EXCLUDED.status,
			term_taken = EXCLUDED.term_taken,
			updated_at = NOW()
	`, row.StudentID.String(), row.CourseID.String(), row.Status.String(), row.TermTaken)
	if err != nil {
		if IsForeignKeyViolation(err) {
			return shared.ErrStudentNotFound
		}
		return fmt.Errorf("failed to set course status: %w", mapError(err))
	}
	return nil
}

// ResetProgress deletes every course row and zeroes the counter in one transaction.
func (r *StudentRepository) ResetProgress(ctx context.Context, id shared.StudentID) (int64, error) {
	var removed int64

	err := r.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`UPDATE students SET current_semester = 0, updated_at = NOW() WHERE id = $1`,
			id.String(),
		)
		if err != nil {
			return mapError(err)
		}
		if tag.RowsAffected() == 0 {
			return shared.ErrStudentNotFound
		}

		tag, err = tx.Exec(ctx, `DELETE FROM student_courses WHERE student_id = $1`, id.String())
		if err != nil {
			return mapError(err)
		}
		removed = tag.RowsAffected()
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to reset progress: %w", err)
	}

	return removed, nil
}

// ApplyAdvancement bumps the counter and promotes the selected pending rows
// in one transaction. Rows that are no longer planned or enrolled are left alone.
func (r *StudentRepository) ApplyAdvancement(ctx context.Context, adv progress.Advancement) (int, int, error) {
	var (
		newSemester int
		promoted    int
	)

	err := r.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			UPDATE students
			SET current_semester = current_semester + 1, updated_at = NOW()
			WHERE id = $1
			RETURNING current_semester
		`, adv.StudentID.String()).Scan(&newSemester)
		if err != nil {
			if IsNoRows(err) {
				return shared.ErrStudentNotFound
			}
			return mapError(err)
		}

		if len(adv.CourseIDs) == 0 {
			return nil
		}

		tag, err := tx.Exec(ctx, `
			UPDATE student_courses
			SET status = 'passed', term_taken = $3, updated_at = NOW()
			WHERE student_id = $1
			  AND course_id = ANY($2)
			  AND lower(trim(status)) IN ('planned', 'enrolled')
		`, adv.StudentID.String(), courseIDStrings(adv.CourseIDs), adv.Term)
		if err != nil {
			return mapError(err)
		}
		promoted = int(tag.RowsAffected())
		return nil
	})
	if err != nil {
		return 0, 0, fmt.Errorf("failed to apply advancement: %w", err)
	}

	return newSemester, promoted, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Scanning
// ─────────────────────────────────────────────────────────────────────────────

func scanStudent(row pgx.Row) (*progress.Student, error) {
	var (
		s  progress.Student
		id string
	)
	if err := row.Scan(&id, &s.Email, &s.Name, &s.CareerID, &s.CurrentSemester); err != nil {
		return nil, err
	}
	s.ID = shared.StudentID(id)
	return &s, nil
}

func scanStudents(rows pgx.Rows) ([]progress.Student, error) {
	defer rows.Close()

	students := make([]progress.Student, 0)
	for rows.Next() {
		s, err := scanStudent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan student: %w", err)
		}
		students = append(students, *s)
	}

	return students, rows.Err()
}

func courseIDStrings(ids []curriculum.CourseID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
