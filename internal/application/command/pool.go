// Package command contains write operations (CQRS - Commands).
// Commands are responsible for changing the state of the system:
// semester advancement, recomputation, term control, course status
// and catalog imports.
package command

import (
	"context"
	"sync"

	"github.com/alem-hub/curriculum-hub/internal/domain/progress"
)

// ══════════════════════════════════════════════════════════════════════════════
// STUDENT WORKER POOL
// Bounded fan-out over the roster shared by advancement and recomputation.
// ══════════════════════════════════════════════════════════════════════════════

// studentUnit processes one student. It must be safe to call concurrently
// for different students.
type studentUnit func(ctx context.Context, index int, st progress.Student)

// forEachStudent runs unit for every student with at most workers in flight.
//
// Cancellation is soft: once ctx is done no new unit is launched and the
// indexes of the students that never started are returned. Units that already
// started run on a context detached from cancellation, so a per-student
// transaction is never abandoned half way.
func forEachStudent(ctx context.Context, students []progress.Student, workers int, unit studentUnit) (skipped []int) {
	if workers <= 0 {
		workers = 1
	}

	var (
		wg        sync.WaitGroup
		semaphore = make(chan struct{}, workers)
		detached  = context.WithoutCancel(ctx)
	)

	for i, st := range students {
		select {
		case <-ctx.Done():
			return skipRest(&wg, i, len(students))
		default:
		}

		select {
		case semaphore <- struct{}{}: // Acquire
		case <-ctx.Done():
			return skipRest(&wg, i, len(students))
		}
		if ctx.Err() != nil {
			<-semaphore
			return skipRest(&wg, i, len(students))
		}

		wg.Add(1)
		go func(index int, s progress.Student) {
			defer wg.Done()
			defer func() { <-semaphore }() // Release

			unit(detached, index, s)
		}(i, st)
	}

	wg.Wait()
	return nil
}

// skipRest waits for in-flight units and reports indexes [from, total) as skipped.
func skipRest(wg *sync.WaitGroup, from, total int) []int {
	wg.Wait()
	skipped := make([]int, 0, total-from)
	for i := from; i < total; i++ {
		skipped = append(skipped, i)
	}
	return skipped
}
