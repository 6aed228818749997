// Package cli implements curriculumctl, the operator command line for the
// progression engine. Every command runs in-process against the configured
// store.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/alem-hub/curriculum-hub/config"
	"github.com/alem-hub/curriculum-hub/internal/bootstrap"
)

// Options configure the root command.
type Options struct {
	Out io.Writer
	Err io.Writer

	// LoadConfig defaults to config.Load.
	LoadConfig func() (*config.Config, error)
}

type app struct {
	opts Options

	jsonOut    bool
	sqlitePath string
	noRedis    bool

	container *bootstrap.Container
}

// NewRootCommand builds the curriculumctl command tree.
func NewRootCommand(opts Options) *cobra.Command {
	root, _ := newRoot(opts)
	return root
}

func newRoot(opts Options) (*cobra.Command, *app) {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Err == nil {
		opts.Err = os.Stderr
	}
	if opts.LoadConfig == nil {
		opts.LoadConfig = config.Load
	}
	a := &app{opts: opts}

	root := &cobra.Command{
		Use:   "curriculumctl",
		Short: "Curriculum progression engine",
		Long: `curriculumctl manages career catalogs, student progress and the global term.

Examples:
  # Load a career from a YAML or JSON file
  curriculumctl import careers/informatics.yaml

  # Show what a student can take next
  curriculumctl suggest 6f1c... --max-credits 18

  # Move the whole cohort one term forward
  curriculumctl advance`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.close()
		},
	}
	root.SetOut(opts.Out)
	root.SetErr(opts.Err)

	root.PersistentFlags().BoolVarP(&a.jsonOut, "json", "j", false, "print results as JSON")
	root.PersistentFlags().StringVar(&a.sqlitePath, "sqlite", "", "use the sqlite store at this path instead of the configured database")
	root.PersistentFlags().BoolVar(&a.noRedis, "no-redis", false, "skip Redis and use an in-process lock")

	root.AddCommand(
		a.serveCmd(),
		a.migrateCmd(),
		a.importCmd(),
		a.advanceCmd(),
		a.recomputeCmd(),
		a.termCmd(),
		a.availableCmd(),
		a.suggestCmd(),
		a.validateCmd(),
		a.setStatusCmd(),
		a.resetCmd(),
		a.studentCmd(),
		a.hashKeyCmd(),
	)
	return root, a
}

// Execute runs the command tree and returns the process exit code.
func Execute(ctx context.Context, args []string, opts Options) int {
	root, a := newRoot(opts)
	defer a.close()
	root.SetArgs(args)

	if err := root.ExecuteContext(ctx); err != nil {
		errOut := opts.Err
		if errOut == nil {
			errOut = os.Stderr
		}
		fmt.Fprintf(errOut, "error: %v\n", err)
		return 1
	}
	return 0
}

func (a *app) printer() printer {
	return printer{out: a.opts.Out, json: a.jsonOut}
}

// open loads configuration, applies flag overrides and builds the container once.
func (a *app) open(ctx context.Context) (*bootstrap.Container, error) {
	if a.container != nil {
		return a.container, nil
	}

	cfg, err := a.opts.LoadConfig()
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, errors.New("no configuration loaded")
	}
	if a.sqlitePath != "" {
		cfg.Database.Driver = config.DriverSQLite
		cfg.Database.SQLitePath = a.sqlitePath
	}

	c, err := bootstrap.New(ctx, cfg, bootstrap.Options{LogOutput: a.opts.Err, DisableRedis: a.noRedis})
	if err != nil {
		return nil, err
	}
	a.container = c
	return c, nil
}

func (a *app) close() {
	if a.container != nil {
		a.container.Close()
		a.container = nil
	}
}
