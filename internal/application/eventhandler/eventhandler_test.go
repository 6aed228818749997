package eventhandler

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alem-hub/curriculum-hub/internal/domain/curriculum"
	"github.com/alem-hub/curriculum-hub/internal/domain/shared"
)

type fakeCache struct {
	invalidated []string
	err         error
}

func (c *fakeCache) Get(ctx context.Context, careerID string) (*curriculum.Catalog, error) {
	return nil, errors.New("miss")
}

func (c *fakeCache) Set(ctx context.Context, catalog *curriculum.Catalog) error { return nil }

func (c *fakeCache) Invalidate(ctx context.Context, careerID string) error {
	c.invalidated = append(c.invalidated, careerID)
	return c.err
}

type fakeSubscriber struct {
	typed map[shared.EventType][]shared.EventHandler
	all   []shared.EventHandler
}

func (s *fakeSubscriber) Subscribe(t shared.EventType, h shared.EventHandler) error {
	if s.typed == nil {
		s.typed = make(map[shared.EventType][]shared.EventHandler)
	}
	s.typed[t] = append(s.typed[t], h)
	return nil
}

func (s *fakeSubscriber) SubscribeAll(h shared.EventHandler) error {
	s.all = append(s.all, h)
	return nil
}

func TestOnCareerImported_InvalidatesCache(t *testing.T) {
	cache := &fakeCache{}
	handler := NewOnCareerImportedHandler(cache, nil)

	require.NoError(t, handler.Handle(shared.NewCareerImportedEvent("career-7", "Física", 10)))
	assert.Equal(t, []string{"career-7"}, cache.invalidated)

	// Other events are ignored.
	require.NoError(t, handler.Handle(shared.NewGlobalTermSetEvent(2)))
	assert.Len(t, cache.invalidated, 1)

	cache.err = errors.New("redis down")
	assert.Error(t, handler.Handle(shared.NewCareerImportedEvent("career-7", "Física", 10)))
}

func TestOnCareerImported_NilCache(t *testing.T) {
	handler := NewOnCareerImportedHandler(nil, nil)
	assert.NoError(t, handler.Handle(shared.NewCareerImportedEvent("career-1", "X", 1)))
}

func TestAuditLog_WritesPayload(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	require.NoError(t, NewAuditLogHandler(logger).Handle(shared.NewSemesterAdvancedEvent("run-1", 4, 10, 1, 0, 22)))

	out := buf.String()
	assert.Contains(t, out, `"event_type":"`+string(shared.EventSemesterAdvanced)+`"`)
	assert.Contains(t, out, `"aggregate_id":"run-1"`)
	assert.Contains(t, out, `"courses_promoted":22`)
}

func TestRegister(t *testing.T) {
	sub := &fakeSubscriber{}
	require.NoError(t, Register(sub, NewOnCareerImportedHandler(&fakeCache{}, nil), NewAuditLogHandler(nil)))

	assert.Len(t, sub.typed[shared.EventCareerImported], 1)
	assert.Len(t, sub.all, 1)
}
