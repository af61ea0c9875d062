package recordservice

import (
	"context"
	"errors"
	"github.com/burenotti/go_bmi_backend/internal/adapter/storage"
	"github.com/burenotti/go_bmi_backend/internal/app/messagebus"
	"github.com/burenotti/go_bmi_backend/internal/app/unitofwork"
	"github.com/burenotti/go_bmi_backend/internal/domain"
	"github.com/burenotti/go_bmi_backend/internal/domain/bmi"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
)

type fixture struct {
	service *Service
	uow     *unitofwork.UnitOfWork[*AtomicContext]
	bus     *messagebus.MessageBus
	db      *storage.DB
	logger  *slog.Logger

	mu     sync.Mutex
	events []domain.Event
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	db, err := storage.Open(storage.DriverSQLite, filepath.Join(t.TempDir(), "bmi.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := storage.Migrate(context.Background(), db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	f := &fixture{
		service: New(logger),
		bus:     messagebus.New(logger),
		db:      db,
		logger:  logger,
	}
	f.bus.Register(bmi.EventRecorded, func(event domain.Event) error {
		f.mu.Lock()
		f.events = append(f.events, event)
		f.mu.Unlock()
		return nil
	})
	f.uow = unitofwork.New[*AtomicContext](
		db,
		NewAtomicContextFactory(storage.DriverSQLite, logger),
		f.bus,
		logger,
	)
	return f
}

func (f *fixture) published() []domain.Event {
	f.bus.Close()
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.events
}

func TestCreate_StoresAndPublishes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	record := bmi.Compute(bmi.Measurement{Age: 30, Height: 170, Weight: 65})

	entry, created, err := f.service.Create(ctx, f.uow, "", "Chrome/Windows", record)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !created {
		t.Error("expected a new entry")
	}
	if entry.EntryID == "" {
		t.Error("expected a generated id")
	}

	list, err := f.service.List(ctx, f.uow, 0, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 1 || list[0].Record != record {
		t.Fatalf("List: got %+v", list)
	}

	events := f.published()
	if len(events) != 1 {
		t.Fatalf("events: got %d, want 1", len(events))
	}
	ev, ok := events[0].(bmi.RecordedEvent)
	if !ok {
		t.Fatalf("event type %T", events[0])
	}
	if ev.EntryID != entry.EntryID || ev.Record != record {
		t.Errorf("event: got %+v", ev)
	}
}

func TestCreate_ReplayIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	record := bmi.Compute(bmi.Measurement{Age: 25, Height: 160, Weight: 45})

	first, _, err := f.service.Create(ctx, f.uow, "same-id", "", record)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	second, created, err := f.service.Create(ctx, f.uow, "same-id", "", record)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if created {
		t.Error("replay must not create a second entry")
	}
	if second.EntryID != first.EntryID || !second.CreatedAt.Equal(first.CreatedAt) {
		t.Errorf("replay returned %+v, want %+v", second, first)
	}

	list, err := f.service.List(ctx, f.uow, 0, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 1 {
		t.Errorf("entries: got %d, want 1", len(list))
	}
	if n := len(f.published()); n != 1 {
		t.Errorf("events: got %d, want 1", n)
	}
}

func TestCreate_ConflictingReplay(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := bmi.Compute(bmi.Measurement{Age: 25, Height: 160, Weight: 45})
	b := bmi.Compute(bmi.Measurement{Age: 25, Height: 160, Weight: 46})

	if _, _, err := f.service.Create(ctx, f.uow, "same-id", "", a); err != nil {
		t.Fatalf("Create: %v", err)
	}
	_, _, err := f.service.Create(ctx, f.uow, "same-id", "", b)
	if !errors.Is(err, bmi.ErrEntryConflict) {
		t.Fatalf("got %v, want %v", err, bmi.ErrEntryConflict)
	}
	if !errors.Is(err, unitofwork.ErrRollback) {
		t.Errorf("expected the unit of work to roll back, got %v", err)
	}
}

// staleStorage misses the first lookups, as if another request inserted the
// same id right after this one looked it up.
type staleStorage struct {
	RecordStorage
	misses *int
}

func (s *staleStorage) GetByID(ctx context.Context, id bmi.EntryID) (*bmi.Entry, error) {
	if *s.misses > 0 {
		*s.misses--
		return nil, bmi.ErrEntryNotFound
	}
	return s.RecordStorage.GetByID(ctx, id)
}

func (f *fixture) staleUoW(misses *int) *unitofwork.UnitOfWork[*AtomicContext] {
	base := NewAtomicContextFactory(storage.DriverSQLite, f.logger)
	return unitofwork.New[*AtomicContext](
		f.db,
		func(ctx context.Context, db storage.DBContext) (*AtomicContext, error) {
			a, err := base(ctx, db)
			if err != nil {
				return nil, err
			}
			a.RecordStorage = &staleStorage{RecordStorage: a.RecordStorage, misses: misses}
			return a, nil
		},
		f.bus,
		f.logger,
	)
}

func TestCreate_ConcurrentInsertOfSameRecord(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	record := bmi.Compute(bmi.Measurement{Age: 30, Height: 170, Weight: 65})

	first, _, err := f.service.Create(ctx, f.uow, "same-id", "", record)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	misses := 1
	second, created, err := f.service.Create(ctx, f.staleUoW(&misses), "same-id", "", record)
	if err != nil {
		t.Fatalf("racing replay: %v", err)
	}
	if created {
		t.Error("racing replay must not report a new entry")
	}
	if second == nil || second.EntryID != first.EntryID || !second.CreatedAt.Equal(first.CreatedAt) {
		t.Errorf("racing replay returned %+v, want %+v", second, first)
	}
	if misses != 0 {
		t.Errorf("stale lookup was not exercised")
	}
	if n := len(f.published()); n != 1 {
		t.Errorf("events: got %d, want 1", n)
	}
}

func TestCreate_ConcurrentInsertOfDifferentRecord(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := bmi.Compute(bmi.Measurement{Age: 30, Height: 170, Weight: 65})
	b := bmi.Compute(bmi.Measurement{Age: 30, Height: 170, Weight: 66})

	if _, _, err := f.service.Create(ctx, f.uow, "same-id", "", a); err != nil {
		t.Fatalf("Create: %v", err)
	}

	misses := 1
	entry, created, err := f.service.Create(ctx, f.staleUoW(&misses), "same-id", "", b)
	if !errors.Is(err, bmi.ErrEntryConflict) {
		t.Fatalf("got %v, want %v", err, bmi.ErrEntryConflict)
	}
	if created || entry != nil {
		t.Errorf("got entry=%+v created=%v, want none", entry, created)
	}
}
