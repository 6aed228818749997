package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/alem-hub/curriculum-hub/internal/domain/curriculum"
	"github.com/alem-hub/curriculum-hub/internal/domain/shared"
)

// ImportChunkSize is the number of rows sent per batch during career import.
const ImportChunkSize = 500

// ══════════════════════════════════════════════════════════════════════════════
// CATALOG REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// CatalogRepository implements curriculum.Repository for PostgreSQL.
type CatalogRepository struct {
	conn *Connection
}

// NewCatalogRepository creates a new CatalogRepository.
func NewCatalogRepository(conn *Connection) *CatalogRepository {
	return &CatalogRepository{conn: conn}
}

const courseColumns = `c.id, c.code, c.title, c.credits, COALESCE(c.semester, 0),
	COALESCE(c.block, ''), COALESCE(c.area, ''), COALESCE(c.type, '')`

// ─────────────────────────────────────────────────────────────────────────────
// Reads
// ─────────────────────────────────────────────────────────────────────────────

// GetCatalog loads every course linked to the career together with prerequisites.
func (r *CatalogRepository) GetCatalog(ctx context.Context, careerID string) (*curriculum.Catalog, error) {
	var name string
	err := r.conn.QueryRow(ctx,
		`SELECT name FROM careers WHERE id::text = $1`, careerID,
	).Scan(&name)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrCareerNotFound
		}
		return nil, fmt.Errorf("failed to get career: %w", mapError(err))
	}

	rows, err := r.conn.Query(ctx, `
		SELECT `+courseColumns+`
		FROM courses c
		JOIN curricula cu ON cu.course_id = c.id
		WHERE cu.career_id::text = $1
	`, careerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", mapError(err))
	}

	courses, err := scanCourses(rows)
	if err != nil {
		return nil, err
	}
	if err := r.attachPrerequisites(ctx, courses); err != nil {
		return nil, err
	}

	return curriculum.NewCatalog(careerID, name, courses), nil
}

// GetCourses returns the course records for ids regardless of career.
func (r *CatalogRepository) GetCourses(ctx context.Context, ids []curriculum.CourseID) ([]curriculum.Course, error) {
	if len(ids) == 0 {
		return []curriculum.Course{}, nil
	}

	rows, err := r.conn.Query(ctx,
		`SELECT `+courseColumns+` FROM courses c WHERE c.id = ANY($1)`,
		courseIDStrings(ids),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get courses: %w", mapError(err))
	}

	courses, err := scanCourses(rows)
	if err != nil {
		return nil, err
	}
	if err := r.attachPrerequisites(ctx, courses); err != nil {
		return nil, err
	}
	return courses, nil
}

// GetPrerequisites returns the prerequisites of one course ordered by id.
// An unknown course has no prerequisites.
func (r *CatalogRepository) GetPrerequisites(ctx context.Context, courseID curriculum.CourseID) ([]curriculum.CourseID, error) {
	rows, err := r.conn.Query(ctx,
		`SELECT prerequisite_id FROM prerequisites WHERE course_id = $1 ORDER BY prerequisite_id`,
		courseID.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get prerequisites: %w", mapError(err))
	}
	defer rows.Close()

	prereqs := make([]curriculum.CourseID, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan prerequisite: %w", err)
		}
		prereqs = append(prereqs, curriculum.CourseID(id))
	}
	return prereqs, rows.Err()
}

func (r *CatalogRepository) attachPrerequisites(ctx context.Context, courses []curriculum.Course) error {
	if len(courses) == 0 {
		return nil
	}
	ids := make([]string, len(courses))
	index := make(map[string]int, len(courses))
	for i, c := range courses {
		ids[i] = c.ID.String()
		index[ids[i]] = i
	}

	rows, err := r.conn.Query(ctx, `
		SELECT course_id, prerequisite_id
		FROM prerequisites
		WHERE course_id = ANY($1)
		ORDER BY course_id, prerequisite_id
	`, ids)
	if err != nil {
		return fmt.Errorf("failed to load prerequisites: %w", mapError(err))
	}
	defer rows.Close()

	for rows.Next() {
		var courseID, prereqID string
		if err := rows.Scan(&courseID, &prereqID); err != nil {
			return fmt.Errorf("failed to scan prerequisite: %w", err)
		}
		if i, ok := index[courseID]; ok {
			courses[i].Prerequisites = append(courses[i].Prerequisites, curriculum.CourseID(prereqID))
		}
	}
	return rows.Err()
}

// ─────────────────────────────────────────────────────────────────────────────
// Import
// ─────────────────────────────────────────────────────────────────────────────

// ImportCareer upserts the career, its courses, curricula links and prerequisite
// relations in one transaction, sending rows in batches of ImportChunkSize.
// Prerequisites of imported courses are replaced, not merged.
func (r *CatalogRepository) ImportCareer(ctx context.Context, data curriculum.CareerImport) (string, error) {
	var careerID string

	err := r.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO careers (name, source_file) VALUES ($1, NULLIF($2, ''))
			ON CONFLICT (name) DO UPDATE SET
				source_file = COALESCE(EXCLUDED.source_file, careers.source_file),
				updated_at = NOW()
			RETURNING id::text
		`, data.CareerName, data.SourceFile).Scan(&careerID)
		if err != nil {
			return mapError(err)
		}

		for _, chunk := range chunkCourses(data.Courses, ImportChunkSize) {
			batch := &pgx.Batch{}
			for _, c := range chunk {
				batch.Queue(`
					INSERT INTO courses (id, code, title, credits, semester, block, area, type)
					VALUES ($1, $2, $3, $4, NULLIF($5, 0), NULLIF($6, ''), NULLIF($7, ''), NULLIF($8, ''))
					ON CONFLICT (id) DO UPDATE SET
						code = EXCLUDED.code,
						title = EXCLUDED.title,
						credits = EXCLUDED.credits,
						semester = EXCLUDED.semester,
						block = EXCLUDED.block,
						area = EXCLUDED.area,
						type = EXCLUDED.type
				`, c.ID.String(), c.Code, c.Title, c.Credits, c.Semester, c.Block, c.Area, c.Type)
				batch.Queue(`
					INSERT INTO curricula (career_id, course_id) VALUES ($1::uuid, $2)
					ON CONFLICT (career_id, course_id) DO NOTHING
				`, careerID, c.ID.String())
				batch.Queue(`DELETE FROM prerequisites WHERE course_id = $1`, c.ID.String())
				for _, pre := range c.Prerequisites {
					batch.Queue(`
						INSERT INTO prerequisites (course_id, prerequisite_id) VALUES ($1, $2)
						ON CONFLICT (course_id, prerequisite_id) DO NOTHING
					`, c.ID.String(), pre.String())
				}
			}
			if err := tx.SendBatch(ctx, batch).Close(); err != nil {
				return mapError(err)
			}
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to import career %q: %w", data.CareerName, err)
	}

	return careerID, nil
}

// chunkCourses splits courses into consecutive slices of at most size elements.
func chunkCourses(courses []curriculum.Course, size int) [][]curriculum.Course {
	if size <= 0 {
		size = ImportChunkSize
	}
	chunks := make([][]curriculum.Course, 0, (len(courses)+size-1)/size)
	for start := 0; start < len(courses); start += size {
		end := start + size
		if end > len(courses) {
			end = len(courses)
		}
		chunks = append(chunks, courses[start:end])
	}
	return chunks
}

func scanCourses(rows pgx.Rows) ([]curriculum.Course, error) {
	defer rows.Close()

	courses := make([]curriculum.Course, 0)
	for rows.Next() {
		var (
			c  curriculum.Course
			id string
		)
		if err := rows.Scan(&id, &c.Code, &c.Title, &c.Credits, &c.Semester, &c.Block, &c.Area, &c.Type); err != nil {
			return nil, fmt.Errorf("failed to scan course: %w", err)
		}
		c.ID = curriculum.CourseID(id)
		courses = append(courses, c)
	}
	return courses, rows.Err()
}
