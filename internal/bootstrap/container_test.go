package bootstrap

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alem-hub/curriculum-hub/config"
	"github.com/alem-hub/curriculum-hub/internal/application/command"
	"github.com/alem-hub/curriculum-hub/internal/application/query"
	"github.com/alem-hub/curriculum-hub/internal/domain/curriculum"
	"github.com/alem-hub/curriculum-hub/internal/infrastructure/locking"
)

func sqliteConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		App: config.AppConfig{Name: "curriculum-hub", Environment: config.EnvDevelopment, Version: "test"},
		Database: config.DatabaseConfig{
			Driver:     config.DriverSQLite,
			SQLitePath: filepath.Join(t.TempDir(), "app.db"),
		},
		Redis: config.RedisConfig{Disabled: true},
		HTTP:  config.HTTPConfig{Host: "127.0.0.1", Port: 0},
		Progression: config.ProgressionConfig{
			DefaultCreditCap: 16,
			AdvanceWorkers:   2,
			LockTTL:          time.Minute,
		},
		Observability: config.ObservabilityConfig{LogLevel: "debug", LogFormat: "text"},
	}
}

func TestNew_SQLiteWiring(t *testing.T) {
	var logs bytes.Buffer
	ctx := context.Background()

	c, err := New(ctx, sqliteConfig(t), Options{LogOutput: &logs})
	require.NoError(t, err)
	t.Cleanup(c.Close)

	assert.IsType(t, &locking.LocalLocker{}, c.Locker)
	assert.True(t, c.Health.Check(ctx).Healthy)

	applied, err := c.Migrate(ctx)
	require.NoError(t, err)
	assert.Zero(t, applied)

	imported, err := c.Commands.ImportCareer.Handle(ctx, command.ImportCareerCommand{Data: curriculum.CareerImport{
		CareerName: "Informatics",
		Courses: []curriculum.Course{
			{ID: "A", Code: "A-1", Credits: 4, Semester: 1},
			{ID: "B", Code: "B-1", Credits: 4, Semester: 2, Prerequisites: []curriculum.CourseID{"A"}},
		},
	}})
	require.NoError(t, err)

	st, err := c.Commands.RegisterStudent.Handle(ctx, command.RegisterStudentCommand{
		Email:    "dev@example.com",
		CareerID: imported.CareerID,
	})
	require.NoError(t, err)

	available, err := c.Queries.GetAvailableCourses.Handle(ctx, query.GetAvailableCoursesQuery{StudentID: st.ID.String()})
	require.NoError(t, err)
	assert.Equal(t, 1, available.Count)

	// The audit handler is subscribed to every event.
	assert.True(t, strings.Contains(logs.String(), "domain event"))

	assert.NotNil(t, c.HTTPServer())
}

func TestNew_UnknownDriver(t *testing.T) {
	cfg := sqliteConfig(t)
	cfg.Database.Driver = "oracle"

	_, err := New(context.Background(), cfg, Options{LogOutput: &bytes.Buffer{}})
	assert.Error(t, err)
}

func TestNewLogger_Formats(t *testing.T) {
	var buf bytes.Buffer
	cfg := sqliteConfig(t)
	cfg.Observability.LogFormat = "json"
	cfg.Observability.LogLevel = "warn"

	log := NewLogger(cfg, &buf)
	log.Info("hidden")
	log.Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)
}

func TestContainer_Scheduler(t *testing.T) {
	cfg := sqliteConfig(t)
	cfg.Scheduler = config.SchedulerConfig{Enabled: true, RecomputeCron: "0 3 * * *", MaxConcurrentJobs: 1, JobTimeout: time.Minute}

	c, err := New(context.Background(), cfg, Options{LogOutput: &bytes.Buffer{}})
	require.NoError(t, err)
	t.Cleanup(c.Close)

	s, err := c.Scheduler()
	require.NoError(t, err)
	jobs := s.ListJobs()
	require.Len(t, jobs, 1)
	assert.Equal(t, "recompute_semesters", jobs[0].Name)

	result, err := s.RunNow(context.Background(), "recompute_semesters")
	require.NoError(t, err)
	assert.True(t, result.Success)

	c.Config.Scheduler.RecomputeCron = "not a cron"
	_, err = c.Scheduler()
	assert.Error(t, err)
}
