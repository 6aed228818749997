package postgres

// GetMigrations returns all embedded migrations.
func GetMigrations() []Migration {
	return []Migration{
		{
			Version: 1,
			Name:    "create_catalog",
			UpSQL:   migration001Up,
			DownSQL: migration001Down,
		},
		{
			Version: 2,
			Name:    "create_progress",
			UpSQL:   migration002Up,
			DownSQL: migration002Down,
		},
		{
			Version: 3,
			Name:    "create_semester_control",
			UpSQL:   migration003Up,
			DownSQL: migration003Down,
		},
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: CATALOG
// ══════════════════════════════════════════════════════════════════════════════

const migration001Up = `
CREATE TABLE IF NOT EXISTS careers (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    name TEXT NOT NULL UNIQUE,
    source_file TEXT,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS courses (
    id TEXT PRIMARY KEY,
    code TEXT NOT NULL,
    title TEXT NOT NULL DEFAULT '',
    credits INTEGER NOT NULL DEFAULT 0,
    semester INTEGER,
    block TEXT,
    area TEXT,
    type TEXT,

    CONSTRAINT valid_credits CHECK (credits >= 0)
);

CREATE INDEX IF NOT EXISTS idx_courses_semester_code ON courses(semester, code);

-- Links a career to the courses of its plan.
CREATE TABLE IF NOT EXISTS curricula (
    career_id UUID NOT NULL REFERENCES careers(id) ON DELETE CASCADE,
    course_id TEXT NOT NULL REFERENCES courses(id) ON DELETE CASCADE,
    PRIMARY KEY (career_id, course_id)
);

-- prerequisite_id is not a foreign key: a prerequisite may live outside the catalog.
CREATE TABLE IF NOT EXISTS prerequisites (
    course_id TEXT NOT NULL REFERENCES courses(id) ON DELETE CASCADE,
    prerequisite_id TEXT NOT NULL,
    PRIMARY KEY (course_id, prerequisite_id)
);
`

const migration001Down = `
DROP TABLE IF EXISTS prerequisites;
DROP TABLE IF EXISTS curricula;
DROP TABLE IF EXISTS courses;
DROP TABLE IF EXISTS careers;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 002: STUDENTS AND PROGRESS
// ══════════════════════════════════════════════════════════════════════════════

const migration002Up = `
CREATE TABLE IF NOT EXISTS students (
    id UUID PRIMARY KEY,
    email TEXT NOT NULL UNIQUE,
    name TEXT NOT NULL DEFAULT '',
    career_id UUID REFERENCES careers(id) ON DELETE SET NULL,
    current_semester INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_current_semester CHECK (current_semester >= 0)
);

-- status is free text: legacy rows carry locale variants and are
-- normalized when read.
CREATE TABLE IF NOT EXISTS student_courses (
    student_id UUID NOT NULL REFERENCES students(id) ON DELETE CASCADE,
    course_id TEXT NOT NULL,
    status TEXT NOT NULL,
    term_taken INTEGER,
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    PRIMARY KEY (student_id, course_id)
);

CREATE INDEX IF NOT EXISTS idx_student_courses_status ON student_courses(status);
`

const migration002Down = `
DROP TABLE IF EXISTS student_courses;
DROP TABLE IF EXISTS students;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 003: GLOBAL SEMESTER CONTROL
// ══════════════════════════════════════════════════════════════════════════════

const migration003Up = `
CREATE TABLE IF NOT EXISTS semester_control (
    slug TEXT PRIMARY KEY,
    current_value INTEGER NOT NULL DEFAULT 0,
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

INSERT INTO semester_control (slug, current_value) VALUES ('U', 0)
ON CONFLICT (slug) DO NOTHING;
`

const migration003Down = `
DROP TABLE IF EXISTS semester_control;
`
