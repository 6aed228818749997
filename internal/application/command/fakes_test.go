package command

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/alem-hub/curriculum-hub/internal/domain/curriculum"
	"github.com/alem-hub/curriculum-hub/internal/domain/progress"
	"github.com/alem-hub/curriculum-hub/internal/domain/shared"
)

// memStore is an in-memory implementation of every repository the commands use.
type memStore struct {
	mu       sync.Mutex
	term     *int
	students map[shared.StudentID]progress.Student
	rows     map[shared.StudentID]map[curriculum.CourseID]progress.CourseProgress
	courses  map[curriculum.CourseID]curriculum.Course
	imports  []curriculum.CareerImport

	advanceErr  error
	listErr     error
	failApplyOn map[shared.StudentID]error
	onApply     func(id shared.StudentID)
	applyCalls  int
}

func newMemStore(term int) *memStore {
	return &memStore{
		term:        &term,
		students:    make(map[shared.StudentID]progress.Student),
		rows:        make(map[shared.StudentID]map[curriculum.CourseID]progress.CourseProgress),
		courses:     make(map[curriculum.CourseID]curriculum.Course),
		failApplyOn: make(map[shared.StudentID]error),
	}
}

func (m *memStore) addCourse(c curriculum.Course) {
	m.courses[c.ID] = c
}

func (m *memStore) addStudent(s progress.Student, rows ...progress.CourseProgress) {
	m.students[s.ID] = s
	m.rows[s.ID] = make(map[curriculum.CourseID]progress.CourseProgress)
	for _, r := range rows {
		r.StudentID = s.ID
		m.rows[s.ID][r.CourseID] = r
	}
}

func (m *memStore) row(id shared.StudentID, course curriculum.CourseID) progress.CourseProgress {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rows[id][course]
}

func (m *memStore) semester(id shared.StudentID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.students[id].CurrentSemester
}

// TermRepository

func (m *memStore) Current(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.term == nil {
		return 0, shared.ErrTermNotInitialized
	}
	return *m.term, nil
}

func (m *memStore) Advance(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.advanceErr != nil {
		return 0, m.advanceErr
	}
	if m.term == nil {
		return 0, shared.ErrTermNotInitialized
	}
	*m.term++
	return *m.term, nil
}

func (m *memStore) Set(ctx context.Context, term int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.term = &term
	return nil
}

// StudentRepository

func (m *memStore) GetByID(ctx context.Context, id shared.StudentID) (*progress.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.students[id]
	if !ok {
		return nil, shared.ErrStudentNotFound
	}
	return &s, nil
}

func (m *memStore) All(ctx context.Context) ([]progress.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := make([]progress.Student, 0, len(m.students))
	for _, s := range m.students {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

func (m *memStore) List(ctx context.Context, page shared.Pagination) ([]progress.Student, error) {
	all, err := m.All(ctx)
	if err != nil {
		return nil, err
	}
	from := page.Offset()
	if from > len(all) {
		return []progress.Student{}, nil
	}
	to := from + page.Limit()
	if to > len(all) {
		to = len(all)
	}
	return all[from:to], nil
}

func (m *memStore) Upsert(ctx context.Context, s progress.Student) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.students[s.ID] = s
	return nil
}

func (m *memStore) SetCurrentSemester(ctx context.Context, id shared.StudentID, semester int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.students[id]
	if !ok {
		return shared.ErrStudentNotFound
	}
	s.CurrentSemester = semester
	m.students[id] = s
	return nil
}

// ProgressRepository

func (m *memStore) GetProgress(ctx context.Context, id shared.StudentID) ([]progress.CourseProgress, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]progress.CourseProgress, 0, len(m.rows[id]))
	for _, r := range m.rows[id] {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CourseID < out[j].CourseID })
	return out, nil
}

func (m *memStore) SetStatus(ctx context.Context, row progress.CourseProgress) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.rows[row.StudentID] == nil {
		m.rows[row.StudentID] = make(map[curriculum.CourseID]progress.CourseProgress)
	}
	m.rows[row.StudentID][row.CourseID] = row
	return nil
}

func (m *memStore) ResetProgress(ctx context.Context, id shared.StudentID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := int64(len(m.rows[id]))
	m.rows[id] = make(map[curriculum.CourseID]progress.CourseProgress)
	s := m.students[id]
	s.CurrentSemester = 0
	m.students[id] = s
	return removed, nil
}

func (m *memStore) ApplyAdvancement(ctx context.Context, adv progress.Advancement) (int, int, error) {
	if m.onApply != nil {
		m.onApply(adv.StudentID)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.applyCalls++
	if err := m.failApplyOn[adv.StudentID]; err != nil {
		return 0, 0, err
	}

	promoted := 0
	for _, id := range adv.CourseIDs {
		r, ok := m.rows[adv.StudentID][id]
		if !ok || !r.Status.IsPending() {
			continue
		}
		term := adv.Term
		r.Status = progress.StatusPassed
		r.TermTaken = &term
		m.rows[adv.StudentID][id] = r
		promoted++
	}

	s := m.students[adv.StudentID]
	s.CurrentSemester++
	m.students[adv.StudentID] = s
	return s.CurrentSemester, promoted, nil
}

// CourseSource / curriculum.Repository

func (m *memStore) GetCourses(ctx context.Context, ids []curriculum.CourseID) ([]curriculum.Course, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]curriculum.Course, 0, len(ids))
	for _, id := range ids {
		if c, ok := m.courses[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memStore) GetCatalog(ctx context.Context, careerID string) (*curriculum.Catalog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	courses := make([]curriculum.Course, 0, len(m.courses))
	for _, c := range m.courses {
		courses = append(courses, c)
	}
	return curriculum.NewCatalog(careerID, careerID, courses), nil
}

func (m *memStore) GetPrerequisites(ctx context.Context, courseID curriculum.CourseID) ([]curriculum.CourseID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.courses[courseID]
	if !ok {
		return nil, shared.ErrCourseNotFound
	}
	return c.Prerequisites, nil
}

func (m *memStore) ImportCareer(ctx context.Context, data curriculum.CareerImport) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.imports = append(m.imports, data)
	for _, c := range data.Courses {
		m.courses[c.ID] = c
	}
	return "career-" + data.CareerName, nil
}

// memLocker is a non-blocking in-memory Locker.
type memLocker struct {
	mu   sync.Mutex
	held map[string]bool
}

func newMemLocker() *memLocker {
	return &memLocker{held: make(map[string]bool)}
}

func (l *memLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] {
		return nil, shared.ErrAdvancementInProgress
	}
	l.held[key] = true
	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.held, key)
	}, nil
}

// recordingPublisher captures published events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []shared.Event
}

func (p *recordingPublisher) Publish(event shared.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) types() []shared.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]shared.EventType, len(p.events))
	for i, e := range p.events {
		out[i] = e.EventType()
	}
	return out
}

var errBoom = errors.New("boom")

const (
	studentA = shared.StudentID("00000000-0000-4000-8000-00000000000a")
	studentB = shared.StudentID("00000000-0000-4000-8000-00000000000b")
	studentC = shared.StudentID("00000000-0000-4000-8000-00000000000c")
)
