package shared

import "time"

// EventType represents the type of domain event.
type EventType string

// Domain event types. Each event records a completed state change.
const (
	// Curriculum events
	EventCareerImported EventType = "curriculum.career_imported"

	// Progress events
	EventStudentRegistered   EventType = "progress.student_registered"
	EventCourseStatusChanged EventType = "progress.course_status_changed"
	EventProgressReset       EventType = "progress.reset"
	EventSemesterRecomputed  EventType = "progress.semester_recomputed"

	// Term events
	EventGlobalTermSet    EventType = "term.set"
	EventSemesterAdvanced EventType = "term.advanced"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the aggregate that produced this event.
	AggregateID() string

	// Payload returns the event data as a map for serialization.
	Payload() map[string]interface{}
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type          EventType `json:"type"`
	Timestamp     time.Time `json:"timestamp"`
	AggregateId   string    `json:"aggregate_id"`
	CorrelationID string    `json:"correlation_id,omitempty"`
}

// EventType implements Event interface.
func (e BaseEvent) EventType() EventType {
	return e.Type
}

// OccurredAt implements Event interface.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID implements Event interface.
func (e BaseEvent) AggregateID() string {
	return e.AggregateId
}

// NewBaseEvent creates a new base event.
func NewBaseEvent(eventType EventType, aggregateID string) BaseEvent {
	return BaseEvent{
		Type:        eventType,
		Timestamp:   time.Now(),
		AggregateId: aggregateID,
	}
}

// WithCorrelationID sets the correlation ID for tracing.
func (e BaseEvent) WithCorrelationID(id string) BaseEvent {
	e.CorrelationID = id
	return e
}

// ═══════════════════════════════════════════════════════════════════════════
// Curriculum Events
// ═══════════════════════════════════════════════════════════════════════════

// CareerImportedEvent is emitted after a career and its courses were upserted.
type CareerImportedEvent struct {
	BaseEvent
	CareerName  string `json:"career_name"`
	CourseCount int    `json:"course_count"`
}

// Payload implements Event interface.
func (e CareerImportedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"career_name":  e.CareerName,
		"course_count": e.CourseCount,
	}
}

// NewCareerImportedEvent creates a new CareerImportedEvent.
func NewCareerImportedEvent(careerID, careerName string, courseCount int) CareerImportedEvent {
	return CareerImportedEvent{
		BaseEvent:   NewBaseEvent(EventCareerImported, careerID),
		CareerName:  careerName,
		CourseCount: courseCount,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Progress Events
// ═══════════════════════════════════════════════════════════════════════════

// StudentRegisteredEvent is emitted when a student record is created or updated.
type StudentRegisteredEvent struct {
	BaseEvent
	Email    string `json:"email"`
	CareerID string `json:"career_id,omitempty"`
}

// Payload implements Event interface.
func (e StudentRegisteredEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"email":     e.Email,
		"career_id": e.CareerID,
	}
}

// NewStudentRegisteredEvent creates a new StudentRegisteredEvent.
func NewStudentRegisteredEvent(studentID, email, careerID string) StudentRegisteredEvent {
	return StudentRegisteredEvent{
		BaseEvent: NewBaseEvent(EventStudentRegistered, studentID),
		Email:     email,
		CareerID:  careerID,
	}
}

// CourseStatusChangedEvent is emitted when a student's course status is written.
type CourseStatusChangedEvent struct {
	BaseEvent
	CourseID string `json:"course_id"`
	Status   string `json:"status"`
}

// Payload implements Event interface.
func (e CourseStatusChangedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"course_id": e.CourseID,
		"status":    e.Status,
	}
}

// NewCourseStatusChangedEvent creates a new CourseStatusChangedEvent.
func NewCourseStatusChangedEvent(studentID, courseID, status string) CourseStatusChangedEvent {
	return CourseStatusChangedEvent{
		BaseEvent: NewBaseEvent(EventCourseStatusChanged, studentID),
		CourseID:  courseID,
		Status:    status,
	}
}

// ProgressResetEvent is emitted when a student's history is wiped.
type ProgressResetEvent struct {
	BaseEvent
	RemovedRows int64 `json:"removed_rows"`
}

// Payload implements Event interface.
func (e ProgressResetEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"removed_rows": e.RemovedRows,
	}
}

// NewProgressResetEvent creates a new ProgressResetEvent.
func NewProgressResetEvent(studentID string, removed int64) ProgressResetEvent {
	return ProgressResetEvent{
		BaseEvent:   NewBaseEvent(EventProgressReset, studentID),
		RemovedRows: removed,
	}
}

// SemesterRecomputedEvent is emitted when a semester counter is rebuilt from history.
type SemesterRecomputedEvent struct {
	BaseEvent
	OldSemester int `json:"old_semester"`
	NewSemester int `json:"new_semester"`
}

// Payload implements Event interface.
func (e SemesterRecomputedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"old_semester": e.OldSemester,
		"new_semester": e.NewSemester,
	}
}

// NewSemesterRecomputedEvent creates a new SemesterRecomputedEvent.
func NewSemesterRecomputedEvent(studentID string, oldSemester, newSemester int) SemesterRecomputedEvent {
	return SemesterRecomputedEvent{
		BaseEvent:   NewBaseEvent(EventSemesterRecomputed, studentID),
		OldSemester: oldSemester,
		NewSemester: newSemester,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Term Events
// ═══════════════════════════════════════════════════════════════════════════

// GlobalTermSetEvent is emitted when an administrator overwrites the term.
type GlobalTermSetEvent struct {
	BaseEvent
	Term int `json:"term"`
}

// Payload implements Event interface.
func (e GlobalTermSetEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"term": e.Term,
	}
}

// NewGlobalTermSetEvent creates a new GlobalTermSetEvent.
func NewGlobalTermSetEvent(term int) GlobalTermSetEvent {
	return GlobalTermSetEvent{
		BaseEvent: NewBaseEvent(EventGlobalTermSet, "term"),
		Term:      term,
	}
}

// SemesterAdvancedEvent summarizes one semester advancement run.
type SemesterAdvancedEvent struct {
	BaseEvent
	NewTerm         int `json:"new_term"`
	StudentsUpdated int `json:"students_updated"`
	StudentsFailed  int `json:"students_failed"`
	StudentsSkipped int `json:"students_skipped"`
	CoursesPromoted int `json:"courses_promoted"`
}

// Payload implements Event interface.
func (e SemesterAdvancedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"new_term":         e.NewTerm,
		"students_updated": e.StudentsUpdated,
		"students_failed":  e.StudentsFailed,
		"students_skipped": e.StudentsSkipped,
		"courses_promoted": e.CoursesPromoted,
	}
}

// NewSemesterAdvancedEvent creates a new SemesterAdvancedEvent keyed by run id.
func NewSemesterAdvancedEvent(runID string, newTerm, updated, failed, skipped, promoted int) SemesterAdvancedEvent {
	return SemesterAdvancedEvent{
		BaseEvent:       NewBaseEvent(EventSemesterAdvanced, runID),
		NewTerm:         newTerm,
		StudentsUpdated: updated,
		StudentsFailed:  failed,
		StudentsSkipped: skipped,
		CoursesPromoted: promoted,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Event Bus Contracts
// ═══════════════════════════════════════════════════════════════════════════

// EventHandler is a function that handles an event.
type EventHandler func(event Event) error

// EventPublisher defines the interface for publishing events.
type EventPublisher interface {
	// Publish sends an event to subscribers.
	Publish(event Event) error
}

// EventSubscriber defines the interface for subscribing to events.
type EventSubscriber interface {
	// Subscribe registers a handler for an event type.
	Subscribe(eventType EventType, handler EventHandler) error

	// SubscribeAll registers a handler for all events.
	SubscribeAll(handler EventHandler) error
}

// EventBus combines publishing and subscribing.
type EventBus interface {
	EventPublisher
	EventSubscriber
}

// NopPublisher discards events. Used when no bus is wired.
type NopPublisher struct{}

// Publish implements EventPublisher.
func (NopPublisher) Publish(Event) error { return nil }
