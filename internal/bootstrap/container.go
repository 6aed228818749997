// Package bootstrap wires configuration, storage, caching, locking, the event
// bus and the application handlers into one container shared by the binaries.
package bootstrap

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/alem-hub/curriculum-hub/config"
	"github.com/alem-hub/curriculum-hub/internal/application/command"
	"github.com/alem-hub/curriculum-hub/internal/application/eventhandler"
	"github.com/alem-hub/curriculum-hub/internal/application/query"
	"github.com/alem-hub/curriculum-hub/internal/domain/curriculum"
	"github.com/alem-hub/curriculum-hub/internal/domain/progress"
	"github.com/alem-hub/curriculum-hub/internal/infrastructure/catalogimport"
	"github.com/alem-hub/curriculum-hub/internal/infrastructure/locking"
	"github.com/alem-hub/curriculum-hub/internal/infrastructure/messaging"
	"github.com/alem-hub/curriculum-hub/internal/infrastructure/persistence/postgres"
	"github.com/alem-hub/curriculum-hub/internal/infrastructure/persistence/redis"
	"github.com/alem-hub/curriculum-hub/internal/infrastructure/persistence/sqlite"
	"github.com/alem-hub/curriculum-hub/internal/infrastructure/scheduler"
	"github.com/alem-hub/curriculum-hub/internal/infrastructure/scheduler/jobs"
	apihttp "github.com/alem-hub/curriculum-hub/internal/interface/http"
	"github.com/alem-hub/curriculum-hub/internal/interface/http/handlers"
	"github.com/alem-hub/curriculum-hub/pkg/circuitbreaker"
	"github.com/alem-hub/curriculum-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONTAINER
// ══════════════════════════════════════════════════════════════════════════════

// Commands groups the write-side handlers.
type Commands struct {
	AdvanceSemester   *command.AdvanceSemesterHandler
	RecomputeSemester *command.RecomputeSemesterHandler
	SetGlobalTerm     *command.SetGlobalTermHandler
	ResetProgress     *command.ResetProgressHandler
	SetCourseStatus   *command.SetCourseStatusHandler
	ImportCareer      *command.ImportCareerHandler
	RegisterStudent   *command.RegisterStudentHandler
}

// Queries groups the read-side handlers.
type Queries struct {
	GetAvailableCourses   *query.GetAvailableCoursesHandler
	SuggestNextSemester   *query.SuggestNextSemesterHandler
	ValidatePrerequisites *query.ValidatePrerequisitesHandler
	GetGlobalTerm         *query.GetGlobalTermHandler
	ListStudents          *query.ListStudentsHandler
}

// Container holds every long-lived dependency of a process.
type Container struct {
	Config *config.Config
	Logger *slog.Logger

	// AccessLog is the structured logger used by the HTTP layer.
	AccessLog *logger.Logger

	Catalog  curriculum.Repository
	Students progress.StudentRepository
	Progress progress.ProgressRepository
	Terms    progress.TermRepository
	Locker   progress.Locker
	Bus      *messaging.InMemoryEventBus
	Health   *handlers.CompositeHealthChecker

	Commands Commands
	Queries  Queries

	postgres *postgres.Connection
	closers  []func()
}

// Options override parts of the configuration for one process.
type Options struct {
	// LogOutput defaults to os.Stderr.
	LogOutput io.Writer

	// DisableRedis forces the in-process lock and no catalog cache.
	DisableRedis bool
}

// New builds a container from configuration. The caller must Close it.
func New(ctx context.Context, cfg *config.Config, opts Options) (*Container, error) {
	if opts.LogOutput == nil {
		opts.LogOutput = os.Stderr
	}

	c := &Container{Config: cfg}
	c.Logger = NewLogger(cfg, opts.LogOutput)
	c.AccessLog = logger.New(logger.Options{
		Output: opts.LogOutput,
		Level:  logger.ParseLevel(cfg.Observability.LogLevel),
	}).With(logger.Component("http"))
	c.Health = handlers.NewCompositeHealthChecker(cfg.App.Version)

	if err := c.openStorage(ctx); err != nil {
		c.Close()
		return nil, err
	}

	var catalogCache curriculum.CatalogCache
	if cfg.Redis.Disabled || opts.DisableRedis {
		c.Locker = locking.NewLocalLocker()
	} else {
		cache, err := redis.NewCache(redisConfig(cfg.Redis))
		if err != nil {
			c.Logger.Warn("redis unavailable, using in-process lock and no catalog cache", "error", err)
			c.Locker = locking.NewLocalLocker()
		} else {
			c.closers = append(c.closers, func() { _ = cache.Close() })
			c.Health.AddCheck("cache", handlers.NewPingCheck(cache))
			c.Locker = redis.NewLocker(cache, c.Logger)
			catalogCache = redis.NewCatalogCache(cache, cfg.Redis.CatalogTTL)
			breaker := circuitbreaker.CacheBreaker(redis.IsCacheFailure, func(name string, from, to circuitbreaker.State) {
				c.Logger.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
			})
			c.Catalog = redis.NewCachedRepository(c.Catalog, catalogCache, c.Logger, redis.WithBreaker(breaker))
		}
	}

	busCfg := messaging.DefaultInMemoryEventBusConfig()
	busCfg.Logger = c.Logger
	c.Bus = messaging.NewInMemoryEventBus(busCfg)
	c.closers = append(c.closers, func() { _ = c.Bus.Close() })

	var onImported *eventhandler.OnCareerImportedHandler
	if catalogCache != nil {
		onImported = eventhandler.NewOnCareerImportedHandler(catalogCache, c.Logger)
	}
	if err := eventhandler.Register(c.Bus, onImported, eventhandler.NewAuditLogHandler(c.Logger)); err != nil {
		c.Close()
		return nil, fmt.Errorf("bootstrap: register event handlers: %w", err)
	}

	c.buildHandlers()
	return c, nil
}

func (c *Container) openStorage(ctx context.Context) error {
	db := c.Config.Database

	switch db.Driver {
	case config.DriverPostgres:
		pgCfg := postgres.DefaultConfig()
		pgCfg.URL = db.URL
		if db.MaxOpenConns > 0 {
			pgCfg.MaxConns = int32(db.MaxOpenConns)
		}
		if db.MaxIdleConns > 0 {
			pgCfg.MinConns = int32(db.MaxIdleConns)
		}
		if db.ConnMaxLifetime > 0 {
			pgCfg.MaxConnLifetime = db.ConnMaxLifetime
		}
		if db.ConnMaxIdleTime > 0 {
			pgCfg.MaxConnIdleTime = db.ConnMaxIdleTime
		}

		conn, err := postgres.NewConnection(ctx, pgCfg)
		if err != nil {
			return fmt.Errorf("bootstrap: %w", err)
		}
		c.postgres = conn
		c.closers = append(c.closers, conn.Close)
		c.Health.AddCheck("database", handlers.NewPingCheck(conn))

		if db.AutoMigrate {
			applied, err := postgres.NewMigrator(conn).Migrate(ctx)
			if err != nil {
				return fmt.Errorf("bootstrap: %w", err)
			}
			c.Logger.Info("database schema is up to date", "applied", applied)
		}

		students := postgres.NewStudentRepository(conn)
		c.Catalog = postgres.NewCatalogRepository(conn)
		c.Students = students
		c.Progress = students
		c.Terms = postgres.NewTermRepository(conn)

	case config.DriverSQLite:
		store, err := sqlite.Open(db.SQLitePath)
		if err != nil {
			return fmt.Errorf("bootstrap: %w", err)
		}
		c.closers = append(c.closers, func() { _ = store.Close() })
		c.Health.AddCheck("database", handlers.NewPingCheck(store))

		c.Catalog = store
		c.Students = store
		c.Progress = store
		c.Terms = store

	default:
		return fmt.Errorf("bootstrap: unknown database driver %q", db.Driver)
	}

	return nil
}

func (c *Container) buildHandlers() {
	p := c.Config.Progression

	c.Commands = Commands{
		AdvanceSemester: command.NewAdvanceSemesterHandler(
			c.Locker, c.Terms, c.Students, c.Progress, c.Catalog, c.Bus, c.Logger,
			command.AdvanceSemesterHandlerConfig{Workers: p.AdvanceWorkers, LockTTL: p.LockTTL},
		),
		RecomputeSemester: command.NewRecomputeSemesterHandler(
			c.Locker, c.Students, c.Progress, c.Catalog, c.Bus, c.Logger,
			command.RecomputeSemesterHandlerConfig{Workers: p.AdvanceWorkers, LockTTL: p.LockTTL},
		),
		SetGlobalTerm:   command.NewSetGlobalTermHandler(c.Locker, c.Terms, c.Bus, c.Logger),
		ResetProgress:   command.NewResetProgressHandler(c.Students, c.Progress, c.Bus, c.Logger),
		SetCourseStatus: command.NewSetCourseStatusHandler(c.Students, c.Progress, c.Catalog, c.Bus, c.Logger),
		ImportCareer:    command.NewImportCareerHandler(c.Catalog, catalogimport.NewGraphValidator(), c.Bus, c.Logger),
		RegisterStudent: command.NewRegisterStudentHandler(c.Students, c.Catalog, c.Bus, c.Logger),
	}

	c.Queries = Queries{
		GetAvailableCourses:   query.NewGetAvailableCoursesHandler(c.Catalog, c.Students, c.Progress),
		SuggestNextSemester:   query.NewSuggestNextSemesterHandler(c.Catalog, c.Students, c.Progress, p.DefaultCreditCap),
		ValidatePrerequisites: query.NewValidatePrerequisitesHandler(c.Catalog, c.Progress),
		GetGlobalTerm:         query.NewGetGlobalTermHandler(c.Terms),
		ListStudents:          query.NewListStudentsHandler(c.Students),
	}
}

// Migrate applies pending PostgreSQL migrations. The sqlite schema is
// created when the file is opened, so it reports zero.
func (c *Container) Migrate(ctx context.Context) (int, error) {
	if c.postgres == nil {
		return 0, nil
	}
	return postgres.NewMigrator(c.postgres).Migrate(ctx)
}

// HTTPServer builds the API server over the container's handlers.
func (c *Container) HTTPServer() *apihttp.Server {
	h := c.Config.HTTP

	cfg := apihttp.DefaultConfig()
	cfg.Host = h.Host
	cfg.Port = h.Port
	cfg.ReadTimeout = h.ReadTimeout
	cfg.WriteTimeout = h.WriteTimeout
	cfg.IdleTimeout = h.IdleTimeout
	cfg.AllowedOrigins = h.AllowedOrigins
	cfg.AdminKeyHashes = h.AdminKeyHashes
	cfg.Version = c.Config.App.Version

	return apihttp.NewServer(cfg, apihttp.Dependencies{
		GetAvailableCourses:   c.Queries.GetAvailableCourses,
		SuggestNextSemester:   c.Queries.SuggestNextSemester,
		ValidatePrerequisites: c.Queries.ValidatePrerequisites,
		GetGlobalTerm:         c.Queries.GetGlobalTerm,
		ListStudents:          c.Queries.ListStudents,
		SetCourseStatus:       c.Commands.SetCourseStatus,
		RecomputeSemester:     c.Commands.RecomputeSemester,
		AdvanceSemester:       c.Commands.AdvanceSemester,
		SetGlobalTerm:         c.Commands.SetGlobalTerm,
		ResetProgress:         c.Commands.ResetProgress,
		RegisterStudent:       c.Commands.RegisterStudent,
		ImportCareer:          c.Commands.ImportCareer,
		Logger:                c.AccessLog,
		HealthChecker:         c.Health,
	})
}

// Scheduler builds the background scheduler with the recompute job on the
// configured cron spec. The caller starts and stops it.
func (c *Container) Scheduler() (*scheduler.Scheduler, error) {
	sc := c.Config.Scheduler

	schedule, err := scheduler.ParseCron(sc.RecomputeCron)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: %w", err)
	}

	s := scheduler.NewScheduler(scheduler.SchedulerConfig{
		Logger:            c.Logger,
		Timezone:          c.Config.App.Location,
		MaxConcurrentJobs: sc.MaxConcurrentJobs,
		JobTimeout:        sc.JobTimeout,
		EnableMetrics:     true,
	})
	if err := s.Register(jobs.NewRecomputeSemestersJob(c.Commands.RecomputeSemester, c.Logger), schedule); err != nil {
		return nil, fmt.Errorf("bootstrap: %w", err)
	}
	return s, nil
}

// Close releases resources in reverse order of acquisition.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// NewLogger builds the slog logger used by the application layer.
func NewLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slogLevel(cfg.Observability.LogLevel)}
	if cfg.App.Debug {
		opts.Level = slog.LevelDebug
	}

	var handler slog.Handler
	if strings.EqualFold(cfg.Observability.LogFormat, "text") {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}
	return slog.New(handler).With("app", cfg.App.Name)
}

func slogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func redisConfig(r config.RedisConfig) redis.Config {
	cfg := redis.DefaultConfig()
	cfg.URL = r.URL
	cfg.Host = r.Host
	cfg.Port = r.Port
	cfg.Password = r.Password
	cfg.DB = r.DB
	if r.PoolSize > 0 {
		cfg.PoolSize = r.PoolSize
	}
	if r.MinIdleConns > 0 {
		cfg.MinIdleConns = r.MinIdleConns
	}
	if r.DialTimeout > 0 {
		cfg.DialTimeout = r.DialTimeout
	}
	if r.ReadTimeout > 0 {
		cfg.ReadTimeout = r.ReadTimeout
	}
	if r.WriteTimeout > 0 {
		cfg.WriteTimeout = r.WriteTimeout
	}
	return cfg
}
