package scheduler

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// CronSchedule adapts a standard 5-field cron expression
// (minute hour day-of-month month day-of-week) or a descriptor such as
// "@daily" to the Schedule interface.
type CronSchedule struct {
	expr     string
	schedule cron.Schedule
}

// ParseCron parses a standard cron expression.
func ParseCron(expr string) (*CronSchedule, error) {
	schedule, err := cron.ParseStandard(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid cron expression %q: %w", expr, err)
	}
	return &CronSchedule{expr: expr, schedule: schedule}, nil
}

// MustParseCron is like ParseCron but panics on error.
func MustParseCron(expr string) *CronSchedule {
	s, err := ParseCron(expr)
	if err != nil {
		panic(err)
	}
	return s
}

// Next returns the next activation time after t.
func (s *CronSchedule) Next(t time.Time) time.Time {
	return s.schedule.Next(t)
}

// String returns the original expression.
func (s *CronSchedule) String() string {
	return s.expr
}
