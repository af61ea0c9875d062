package messagebus

import (
	"errors"
	"github.com/burenotti/go_bmi_backend/internal/domain"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"
)

type testEvent struct{ kind string }

func (e testEvent) Type() string           { return e.kind }
func (e testEvent) PublishedAt() time.Time { return time.Time{} }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPublishEvents_DispatchesByType(t *testing.T) {
	bus := New(discardLogger())

	var mu sync.Mutex
	got := map[string]int{}
	record := func(event domain.Event) error {
		mu.Lock()
		got[event.Type()]++
		mu.Unlock()
		return nil
	}

	bus.Register("a", record)
	bus.Register("a", record)
	bus.Register("b", record)

	if err := bus.PublishEvents(testEvent{"a"}, testEvent{"b"}, testEvent{"c"}); err != nil {
		t.Fatalf("PublishEvents: %v", err)
	}
	bus.Close()

	if got["a"] != 2 {
		t.Errorf("a: got %d calls, want 2", got["a"])
	}
	if got["b"] != 1 {
		t.Errorf("b: got %d calls, want 1", got["b"])
	}
	if got["c"] != 0 {
		t.Errorf("c: got %d calls, want 0", got["c"])
	}
}

func TestPublishEvents_HandlerErrorIsNotReturned(t *testing.T) {
	bus := New(discardLogger())
	bus.Register("a", func(domain.Event) error { return errors.New("boom") })

	if err := bus.PublishEvents(testEvent{"a"}); err != nil {
		t.Fatalf("PublishEvents: %v", err)
	}
	bus.Close()
}
