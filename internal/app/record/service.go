package recordservice

import (
	"context"
	"errors"
	"fmt"
	"github.com/burenotti/go_bmi_backend/internal/app/unitofwork"
	"github.com/burenotti/go_bmi_backend/internal/domain/bmi"
	"github.com/google/uuid"
	"github.com/r3labs/diff"
	"log/slog"
)

type Service struct {
	logger *slog.Logger
}

func New(logger *slog.Logger) *Service {
	return &Service{logger: logger}
}

// Create stores record under id, generating one when id is empty.
// Re-submitting an existing id with an identical record returns the stored
// entry and created == false; a different record under that id fails with
// bmi.ErrEntryConflict.
func (s *Service) Create(
	ctx context.Context,
	uow *unitofwork.UnitOfWork[*AtomicContext],
	id bmi.EntryID,
	source string,
	record bmi.Record,
) (entry *bmi.Entry, created bool, err error) {
	if id == "" {
		id = bmi.EntryID(uuid.New().String())
	}

	err = uow.Atomic(ctx, func(ctx *AtomicContext) error {
		existing, err := ctx.RecordStorage.GetByID(ctx.Context(), id)
		switch {
		case err == nil:
			entry, err = replay(existing, record)
			return err
		case !errors.Is(err, bmi.ErrEntryNotFound):
			return err
		}

		entry = bmi.NewEntry(id, record, source)
		if err := ctx.RecordStorage.Add(ctx.Context(), entry); err != nil {
			return err
		}
		created = true

		return ctx.Commit()
	})

	if errors.Is(err, bmi.ErrEntryExists) {
		// another request stored id between the lookup and the insert
		entry, created = nil, false
		err = uow.Atomic(ctx, func(ctx *AtomicContext) error {
			existing, err := ctx.RecordStorage.GetByID(ctx.Context(), id)
			if err != nil {
				return err
			}
			entry, err = replay(existing, record)
			return err
		})
	}

	if err == nil && created {
		s.logger.Info("bmi recorded",
			"entry_id", entry.EntryID,
			"bmi", entry.Record.BMI,
			"category", entry.Record.Category,
		)
	}
	return
}

func (s *Service) List(
	ctx context.Context,
	uow *unitofwork.UnitOfWork[*AtomicContext],
	limit int,
	offset int,
) (entries []*bmi.Entry, err error) {
	err = uow.Atomic(ctx, func(ctx *AtomicContext) error {
		var err error
		entries, err = ctx.RecordStorage.List(ctx.Context(), limit, offset)
		return err
	})
	return
}

// replay returns existing when it holds the same record, bmi.ErrEntryConflict
// otherwise.
func replay(existing *bmi.Entry, record bmi.Record) (*bmi.Entry, error) {
	changes, err := diff.Diff(existing.Record, record)
	if err != nil {
		return nil, err
	}
	if len(changes) != 0 {
		return nil, fmt.Errorf("%w: %s", bmi.ErrEntryConflict, existing.EntryID)
	}
	return existing, nil
}
