package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alem-hub/curriculum-hub/internal/application/command"
	"github.com/alem-hub/curriculum-hub/internal/application/query"
	"github.com/alem-hub/curriculum-hub/internal/domain/curriculum"
	"github.com/alem-hub/curriculum-hub/internal/infrastructure/catalogimport"
	"github.com/alem-hub/curriculum-hub/internal/interface/http/handlers"
)

// ══════════════════════════════════════════════════════════════════════════════
// SERVER & SCHEMA
// ══════════════════════════════════════════════════════════════════════════════

func (a *app) serveCmd() *cobra.Command {
	var withScheduler bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := a.open(ctx)
			if err != nil {
				return err
			}

			if withScheduler && c.Config.Scheduler.Enabled {
				s, err := c.Scheduler()
				if err != nil {
					return err
				}
				if err := s.Start(ctx); err != nil {
					return err
				}
				defer func() { _ = s.Stop() }()
			}

			srv := c.HTTPServer()
			errCh := srv.StartAsync()
			a.printer().Info("listening on %s", c.Config.HTTPAddr())

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), c.Config.App.ShutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().BoolVar(&withScheduler, "scheduler", false, "also run the scheduled recompute job")
	return cmd
}

func (a *app) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			applied, err := c.Migrate(cmd.Context())
			if err != nil {
				return err
			}
			a.printer().Success("schema up to date (%d applied)", applied)
			return nil
		},
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// CATALOG
// ══════════════════════════════════════════════════════════════════════════════

func (a *app) importCmd() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "import <file>...",
		Short: "Import career catalogs from JSON or YAML files",
		Long: `Each file holds one career. The career name defaults to the name in
the document, then to the file name without extension.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if name != "" && len(args) > 1 {
				return errors.New("--name applies to a single file")
			}
			c, err := a.open(cmd.Context())
			if err != nil {
				return err
			}

			p := a.printer()
			results := make([]*command.ImportCareerResult, 0, len(args))
			for _, path := range args {
				data, err := catalogimport.DecodeFile(path, name)
				if err != nil {
					return err
				}
				res, err := c.Commands.ImportCareer.Handle(cmd.Context(), command.ImportCareerCommand{Data: data})
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				results = append(results, res)
			}

			return p.result(results, func() {
				for _, res := range results {
					p.Success("imported %s (%s): %d courses, %d prerequisites",
						res.CareerName, res.CareerID, res.CourseCount, res.Prereqs)
				}
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "career name override")
	return cmd
}

// ══════════════════════════════════════════════════════════════════════════════
// TERM CONTROL
// ══════════════════════════════════════════════════════════════════════════════

func (a *app) advanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "advance",
		Short: "Advance the global term and promote every student's pending courses",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			res, err := c.Commands.AdvanceSemester.Handle(cmd.Context(), command.AdvanceSemesterCommand{RequestedBy: "cli"})
			if err != nil {
				return err
			}

			p := a.printer()
			return p.result(res, func() {
				p.Success("global term is now %d", res.NewGlobalTerm)
				p.Info("%d students: %d updated, %d failed, %d skipped; %d courses promoted",
					res.StudentsTotal, res.StudentsProcessed, res.StudentsFailed, res.StudentsSkipped, res.CoursesPromoted)
				for _, o := range res.Outcomes {
					if o.Status == command.OutcomeFailed {
						p.Warning("%s: %s", o.StudentID, o.Error)
					}
				}
			})
		},
	}
}

func (a *app) recomputeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "recompute [student-id]",
		Short: "Rebuild semester counters from passed courses (all students when no id is given)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			p := a.printer()

			if len(args) == 1 {
				res, err := c.Commands.RecomputeSemester.Handle(cmd.Context(), command.RecomputeSemesterCommand{StudentID: args[0]})
				if err != nil {
					return err
				}
				return p.result(res, func() {
					p.Success("%s: semester %d -> %d (%d passed)", res.StudentID, res.OldSemester, res.CurrentSemester, res.PassedCourses)
				})
			}

			res, err := c.Commands.RecomputeSemester.HandleAll(cmd.Context())
			if err != nil {
				return err
			}
			return p.result(res, func() {
				p.Success("%d students: %d changed, %d failed, %d skipped",
					res.StudentsTotal, res.StudentsChanged, res.StudentsFailed, res.StudentsSkipped)
				for id, msg := range res.Errors {
					p.Warning("%s: %s", id, msg)
				}
			})
		},
	}
}

func (a *app) termCmd() *cobra.Command {
	term := &cobra.Command{
		Use:   "term",
		Short: "Read or overwrite the global term",
	}

	term.AddCommand(&cobra.Command{
		Use:   "get",
		Short: "Print the global term",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			res, err := c.Queries.GetGlobalTerm.Handle(cmd.Context())
			if err != nil {
				return err
			}
			p := a.printer()
			return p.result(res, func() { p.Info("global term: %d", res.GlobalSemester) })
		},
	})

	term.AddCommand(&cobra.Command{
		Use:   "set <value>",
		Short: "Overwrite the global term; student counters are unchanged",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("term value must be an integer: %q", args[0])
			}
			c, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			res, err := c.Commands.SetGlobalTerm.Handle(cmd.Context(), command.SetGlobalTermCommand{Value: value})
			if err != nil {
				return err
			}
			p := a.printer()
			return p.result(res, func() { p.Success("global term set to %d", res.GlobalSemester) })
		},
	})

	return term
}

// ══════════════════════════════════════════════════════════════════════════════
// STUDENT PLANNING
// ══════════════════════════════════════════════════════════════════════════════

func (a *app) availableCmd() *cobra.Command {
	var careerID string

	cmd := &cobra.Command{
		Use:   "available <student-id>",
		Short: "List courses the student can take now",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			res, err := c.Queries.GetAvailableCourses.Handle(cmd.Context(), query.GetAvailableCoursesQuery{
				StudentID: args[0],
				CareerID:  careerID,
			})
			if err != nil {
				return err
			}
			p := a.printer()
			return p.result(res, func() {
				if res.Count == 0 {
					p.Info("no courses available")
					return
				}
				renderCourses(p, res.Items)
			})
		},
	}
	cmd.Flags().StringVar(&careerID, "career", "", "career id (defaults to the student's career)")
	return cmd
}

func (a *app) suggestCmd() *cobra.Command {
	var (
		careerID   string
		maxCredits int
	)

	cmd := &cobra.Command{
		Use:   "suggest <student-id>",
		Short: "Suggest next semester's courses under a credit cap",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			q := query.SuggestNextSemesterQuery{StudentID: args[0], CareerID: careerID}
			if cmd.Flags().Changed("max-credits") {
				q.MaxCredits = &maxCredits
			}

			res, err := c.Queries.SuggestNextSemester.Handle(cmd.Context(), q)
			if err != nil {
				return err
			}
			p := a.printer()
			return p.result(res, func() {
				renderCourses(p, res.Courses)
				p.Info("%d of %d credits", res.TotalCredits, res.CreditCap)
			})
		},
	}
	cmd.Flags().StringVar(&careerID, "career", "", "career id (defaults to the student's career)")
	cmd.Flags().IntVar(&maxCredits, "max-credits", 0, "credit cap (defaults to the configured cap)")
	return cmd
}

func (a *app) validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <student-id> <course-id>",
		Short: "Check whether the student has passed every prerequisite of a course",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			res, err := c.Queries.ValidatePrerequisites.Handle(cmd.Context(), query.ValidatePrerequisitesQuery{
				StudentID: args[0],
				CourseID:  args[1],
			})
			if err != nil {
				return err
			}
			p := a.printer()
			return p.result(res, func() {
				if res.OK {
					p.Success("%s: prerequisites met", res.CourseID)
					return
				}
				missing := make([]string, len(res.Missing))
				for i, id := range res.Missing {
					missing[i] = id.String()
				}
				p.Warning("%s: missing %s", res.CourseID, strings.Join(missing, ", "))
			})
		},
	}
}

func (a *app) setStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-status <student-id> <course-id> <planned|enrolled|passed>",
		Short: "Record a course status for a student",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			res, err := c.Commands.SetCourseStatus.Handle(cmd.Context(), command.SetCourseStatusCommand{
				StudentID: args[0],
				CourseID:  args[1],
				Status:    args[2],
			})
			if err != nil {
				return err
			}
			p := a.printer()
			return p.result(res, func() { p.Success("%s is %s", res.CourseID, res.Status) })
		},
	}
}

func (a *app) resetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset <student-id>",
		Short: "Delete a student's course history and zero their semester",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			res, err := c.Commands.ResetProgress.Handle(cmd.Context(), command.ResetProgressCommand{StudentID: args[0]})
			if err != nil {
				return err
			}
			p := a.printer()
			return p.result(res, func() { p.Success("removed %d course records", res.RemovedCourses) })
		},
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// ROSTER & ADMIN
// ══════════════════════════════════════════════════════════════════════════════

func (a *app) studentCmd() *cobra.Command {
	student := &cobra.Command{
		Use:   "student",
		Short: "Manage the student roster",
	}

	var reg command.RegisterStudentCommand
	add := &cobra.Command{
		Use:   "add",
		Short: "Register a student or update their profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			st, err := c.Commands.RegisterStudent.Handle(cmd.Context(), reg)
			if err != nil {
				return err
			}
			p := a.printer()
			return p.result(st, func() { p.Success("registered %s (%s)", st.Email, st.ID) })
		},
	}
	add.Flags().StringVar(&reg.StudentID, "id", "", "student id (generated when empty)")
	add.Flags().StringVar(&reg.Email, "email", "", "student email")
	add.Flags().StringVar(&reg.Name, "name", "", "display name")
	add.Flags().StringVar(&reg.CareerID, "career", "", "career id")
	_ = add.MarkFlagRequired("email")

	var page, pageSize int
	list := &cobra.Command{
		Use:   "list",
		Short: "List students ordered by email",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			res, err := c.Queries.ListStudents.Handle(cmd.Context(), query.ListStudentsQuery{Page: page, PageSize: pageSize})
			if err != nil {
				return err
			}
			p := a.printer()
			return p.result(res, func() {
				t := newTable("ID", "EMAIL", "CAREER", "SEMESTER")
				for _, st := range res.Items {
					t.add(st.ID.String(), st.Email, st.CareerID, strconv.Itoa(st.CurrentSemester))
				}
				t.render(p.out)
			})
		},
	}
	list.Flags().IntVar(&page, "page", 1, "page number")
	list.Flags().IntVar(&pageSize, "page-size", 50, "students per page")

	student.AddCommand(add, list)
	return student
}

func (a *app) hashKeyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-key <api-key>",
		Short: "Print the bcrypt hash to put in HTTP_ADMIN_KEY_HASHES",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := handlers.HashKey(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(a.opts.Out, hash)
			return nil
		},
	}
}

func renderCourses(p printer, courses []curriculum.Course) {
	t := newTable("ID", "CODE", "SEMESTER", "CREDITS", "TITLE")
	for _, c := range courses {
		sem := "-"
		if c.Semester > 0 {
			sem = strconv.Itoa(c.Semester)
		}
		t.add(c.ID.String(), c.Code, sem, strconv.Itoa(c.Credits), c.Title)
	}
	t.render(p.out)
}
