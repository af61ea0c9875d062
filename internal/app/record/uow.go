package recordservice

import (
	"context"
	"errors"
	"fmt"
	"github.com/burenotti/go_bmi_backend/internal/adapter/storage"
	recordstorage "github.com/burenotti/go_bmi_backend/internal/adapter/storage/records"
	"github.com/burenotti/go_bmi_backend/internal/domain"
	"github.com/burenotti/go_bmi_backend/internal/domain/bmi"
	"log/slog"
)

type RecordStorage interface {
	Add(ctx context.Context, e *bmi.Entry) error
	GetByID(ctx context.Context, id bmi.EntryID) (*bmi.Entry, error)
	List(ctx context.Context, limit, offset int) ([]*bmi.Entry, error)
	CollectEvents() []domain.Event
	Close() error
}

type AtomicContext struct {
	ctx           context.Context
	db            storage.DBContext
	RecordStorage RecordStorage
}

func (a *AtomicContext) Context() context.Context {
	return a.ctx
}

func (a *AtomicContext) Commit() error {
	return a.db.Commit()
}

func (a *AtomicContext) Close() (err error) {
	if closeErr := a.RecordStorage.Close(); closeErr != nil {
		err = errors.Join(err, closeErr)
	}

	if err != nil {
		err = errors.Join(fmt.Errorf("failed to close storage"), err)
	}

	return err
}

func (a *AtomicContext) CollectEvents() []domain.Event {
	return a.RecordStorage.CollectEvents()
}

// NewAtomicContextFactory binds the storage driver and logger so the result
// can be handed to unitofwork.New.
func NewAtomicContextFactory(
	driver string,
	logger *slog.Logger,
) func(context.Context, storage.DBContext) (*AtomicContext, error) {
	return func(ctx context.Context, dbContext storage.DBContext) (*AtomicContext, error) {
		return &AtomicContext{
			ctx:           ctx,
			db:            dbContext,
			RecordStorage: recordstorage.NewSQLStorage(dbContext, driver, logger),
		}, nil
	}
}
