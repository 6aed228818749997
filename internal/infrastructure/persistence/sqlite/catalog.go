package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/alem-hub/curriculum-hub/internal/domain/curriculum"
	"github.com/alem-hub/curriculum-hub/internal/domain/shared"
)

// ImportChunkSize is the number of course rows written per statement group.
const ImportChunkSize = 500

// courseRow is the DAO for the courses table.
type courseRow struct {
	ID       string         `db:"id"`
	Code     string         `db:"code"`
	Title    string         `db:"title"`
	Credits  int            `db:"credits"`
	Semester sql.NullInt64  `db:"semester"`
	Block    sql.NullString `db:"block"`
	Area     sql.NullString `db:"area"`
	Type     sql.NullString `db:"type"`
}

func (r courseRow) toCourse() curriculum.Course {
	return curriculum.Course{
		ID:       curriculum.CourseID(r.ID),
		Code:     r.Code,
		Title:    r.Title,
		Credits:  r.Credits,
		Semester: int(r.Semester.Int64),
		Block:    r.Block.String,
		Area:     r.Area.String,
		Type:     r.Type.String,
	}
}

func newCourseRow(c curriculum.Course) courseRow {
	return courseRow{
		ID:       c.ID.String(),
		Code:     c.Code,
		Title:    c.Title,
		Credits:  c.Credits,
		Semester: sql.NullInt64{Int64: int64(c.Semester), Valid: c.Semester > 0},
		Block:    sql.NullString{String: c.Block, Valid: c.Block != ""},
		Area:     sql.NullString{String: c.Area, Valid: c.Area != ""},
		Type:     sql.NullString{String: c.Type, Valid: c.Type != ""},
	}
}

type prerequisiteRow struct {
	CourseID       string `db:"course_id"`
	PrerequisiteID string `db:"prerequisite_id"`
}

// GetCatalog loads every course linked to the career together with prerequisites.
func (s *Store) GetCatalog(ctx context.Context, careerID string) (*curriculum.Catalog, error) {
	var name string
	if err := s.db.GetContext(ctx, &name, `SELECT name FROM careers WHERE id = ?`, careerID); err != nil {
		if isNoRows(err) {
			return nil, shared.ErrCareerNotFound
		}
		return nil, fmt.Errorf("sqlite: get career: %w", mapError(err))
	}

	var rows []courseRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT c.id, c.code, c.title, c.credits, c.semester, c.block, c.area, c.type
		FROM courses c
		JOIN curricula cu ON cu.course_id = c.id
		WHERE cu.career_id = ?
	`, careerID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: load catalog: %w", mapError(err))
	}

	courses, err := s.withPrerequisites(ctx, rows)
	if err != nil {
		return nil, err
	}
	return curriculum.NewCatalog(careerID, name, courses), nil
}

// GetCourses returns the course records for ids regardless of career.
func (s *Store) GetCourses(ctx context.Context, ids []curriculum.CourseID) ([]curriculum.Course, error) {
	if len(ids) == 0 {
		return []curriculum.Course{}, nil
	}

	query, args, err := sqlx.In(`
		SELECT id, code, title, credits, semester, block, area, type
		FROM courses WHERE id IN (?)
	`, courseIDStrings(ids))
	if err != nil {
		return nil, fmt.Errorf("sqlite: build course query: %w", err)
	}

	var rows []courseRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("sqlite: get courses: %w", mapError(err))
	}
	return s.withPrerequisites(ctx, rows)
}

// GetPrerequisites returns the prerequisites of one course ordered by id.
func (s *Store) GetPrerequisites(ctx context.Context, courseID curriculum.CourseID) ([]curriculum.CourseID, error) {
	var ids []string
	err := s.db.SelectContext(ctx, &ids,
		`SELECT prerequisite_id FROM prerequisites WHERE course_id = ? ORDER BY prerequisite_id`,
		courseID.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: get prerequisites: %w", mapError(err))
	}

	prereqs := make([]curriculum.CourseID, len(ids))
	for i, id := range ids {
		prereqs[i] = curriculum.CourseID(id)
	}
	return prereqs, nil
}

func (s *Store) withPrerequisites(ctx context.Context, rows []courseRow) ([]curriculum.Course, error) {
	courses := make([]curriculum.Course, len(rows))
	if len(rows) == 0 {
		return courses, nil
	}

	index := make(map[string]int, len(rows))
	ids := make([]string, len(rows))
	for i, r := range rows {
		courses[i] = r.toCourse()
		index[r.ID] = i
		ids[i] = r.ID
	}

	query, args, err := sqlx.In(`
		SELECT course_id, prerequisite_id FROM prerequisites
		WHERE course_id IN (?)
		ORDER BY course_id, prerequisite_id
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("sqlite: build prerequisite query: %w", err)
	}

	var prereqs []prerequisiteRow
	if err := s.db.SelectContext(ctx, &prereqs, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("sqlite: load prerequisites: %w", mapError(err))
	}
	for _, p := range prereqs {
		i := index[p.CourseID]
		courses[i].Prerequisites = append(courses[i].Prerequisites, curriculum.CourseID(p.PrerequisiteID))
	}
	return courses, nil
}

// ImportCareer upserts the career, its courses, curricula links and prerequisite
// relations in one transaction. Prerequisites of imported courses are replaced.
func (s *Store) ImportCareer(ctx context.Context, data curriculum.CareerImport) (string, error) {
	var careerID string

	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		err := tx.GetContext(ctx, &careerID, `SELECT id FROM careers WHERE name = ?`, data.CareerName)
		switch {
		case isNoRows(err):
			careerID = uuid.NewString()
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO careers (id, name, source_file) VALUES (?, ?, NULLIF(?, ''))`,
				careerID, data.CareerName, data.SourceFile,
			); err != nil {
				return mapError(err)
			}
		case err != nil:
			return mapError(err)
		default:
			if _, err := tx.ExecContext(ctx,
				`UPDATE careers SET source_file = COALESCE(NULLIF(?, ''), source_file), updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
				data.SourceFile, careerID,
			); err != nil {
				return mapError(err)
			}
		}

		for start := 0; start < len(data.Courses); start += ImportChunkSize {
			end := start + ImportChunkSize
			if end > len(data.Courses) {
				end = len(data.Courses)
			}
			if err := importChunk(ctx, tx, careerID, data.Courses[start:end]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("sqlite: import career %q: %w", data.CareerName, err)
	}
	return careerID, nil
}

// importChunk writes one chunk of courses with prepared statements.
func importChunk(ctx context.Context, tx *sqlx.Tx, careerID string, courses []curriculum.Course) error {
	upsert, err := tx.PrepareNamedContext(ctx, `
		INSERT INTO courses (id, code, title, credits, semester, block, area, type)
		VALUES (:id, :code, :title, :credits, :semester, :block, :area, :type)
		ON CONFLICT (id) DO UPDATE SET
			code = excluded.code,
			title = excluded.title,
			credits = excluded.credits,
			semester = excluded.semester,
			block = excluded.block,
			area = excluded.area,
			type = excluded.type
	`)
	if err != nil {
		return mapError(err)
	}
	defer upsert.Close()

	for _, c := range courses {
		if _, err := upsert.ExecContext(ctx, newCourseRow(c)); err != nil {
			return mapError(err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO curricula (career_id, course_id) VALUES (?, ?)`,
			careerID, c.ID.String(),
		); err != nil {
			return mapError(err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM prerequisites WHERE course_id = ?`, c.ID.String()); err != nil {
			return mapError(err)
		}
		for _, pre := range c.Prerequisites {
			if _, err := tx.ExecContext(ctx,
				`INSERT OR IGNORE INTO prerequisites (course_id, prerequisite_id) VALUES (?, ?)`,
				c.ID.String(), pre.String(),
			); err != nil {
				return mapError(err)
			}
		}
	}
	return nil
}

func courseIDStrings(ids []curriculum.CourseID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
