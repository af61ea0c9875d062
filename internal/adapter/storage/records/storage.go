package recordstorage

import (
	"context"
	"database/sql"
	"errors"
	"github.com/burenotti/go_bmi_backend/internal/adapter/storage"
	"github.com/burenotti/go_bmi_backend/internal/adapter/storage/sqlutil"
	"github.com/burenotti/go_bmi_backend/internal/domain"
	"github.com/burenotti/go_bmi_backend/internal/domain/bmi"
	"github.com/leporo/sqlf"
	"log/slog"
	"sync"
	"time"
)

const pkeyConstraint = "bmi_records_pkey"

type SQLStorage struct {
	db      storage.DBContext
	dialect *sqlf.Dialect
	logger  *slog.Logger
	seenMu  sync.Mutex
	seen    []*bmi.Entry
}

func NewSQLStorage(db storage.DBContext, driver string, logger *slog.Logger) *SQLStorage {
	if logger == nil {
		logger = slog.Default()
	}
	return &SQLStorage{
		db:      db,
		dialect: sqlutil.Dialect(driver),
		logger:  logger,
	}
}

func (s *SQLStorage) Add(ctx context.Context, e *bmi.Entry) error {
	q := s.dialect.InsertInto("bmi_records").
		Set("record_id", string(e.EntryID)).
		Set("age", e.Record.Age).
		Set("height", e.Record.Height).
		Set("weight", e.Record.Weight).
		Set("bmi", e.Record.BMI).
		Set("category", string(e.Record.Category)).
		Set("source", e.Source).
		Set("created_at", e.CreatedAt)

	if _, err := q.ExecAndClose(ctx, s.db); err != nil {
		if sqlutil.ViolatesConstraint(err, pkeyConstraint) {
			return bmi.ErrEntryExists
		}
		return storage.InternalError(err)
	}

	s.markSeen(e)
	s.logger.Debug("bmi entry stored", "entry_id", e.EntryID, "category", e.Record.Category)
	return nil
}

func (s *SQLStorage) get(
	ctx context.Context,
	modify func(stmt *sqlf.Stmt),
) ([]*bmi.Entry, error) {
	var tmp struct {
		EntryID   string
		Age       float64
		Height    float64
		Weight    float64
		BMI       float64
		Category  string
		Source    string
		CreatedAt time.Time
	}

	q := s.dialect.From("bmi_records r").
		Select("r.record_id").To(&tmp.EntryID).
		Select("r.age").To(&tmp.Age).
		Select("r.height").To(&tmp.Height).
		Select("r.weight").To(&tmp.Weight).
		Select("r.bmi").To(&tmp.BMI).
		Select("r.category").To(&tmp.Category).
		Select("r.source").To(&tmp.Source).
		Select("r.created_at").To(&tmp.CreatedAt)

	modify(q)

	result := make([]*bmi.Entry, 0)

	err := q.QueryAndClose(ctx, s.db, func(rows *sql.Rows) {
		result = append(result, &bmi.Entry{
			EntryID: bmi.EntryID(tmp.EntryID),
			Record: bmi.Record{
				Age:      tmp.Age,
				Height:   tmp.Height,
				Weight:   tmp.Weight,
				BMI:      tmp.BMI,
				Category: bmi.Category(tmp.Category),
			},
			Source:    tmp.Source,
			CreatedAt: tmp.CreatedAt.UTC(),
		})
	})

	if err == nil || errors.Is(err, sql.ErrNoRows) {
		return result, nil
	}

	return nil, storage.InternalError(err)
}

func (s *SQLStorage) GetByID(ctx context.Context, id bmi.EntryID) (*bmi.Entry, error) {
	result, err := s.get(ctx, func(stmt *sqlf.Stmt) {
		stmt.Where("r.record_id = ?", string(id))
	})
	return sqlutil.FirstOrErr(result, err, bmi.ErrEntryNotFound)
}

// List returns entries oldest first. A non-positive limit returns everything
// after offset.
func (s *SQLStorage) List(ctx context.Context, limit, offset int) ([]*bmi.Entry, error) {
	return s.get(ctx, func(stmt *sqlf.Stmt) {
		stmt.OrderBy("r.created_at ASC", "r.record_id ASC")
		if limit > 0 {
			stmt.Limit(limit)
		}
		if offset > 0 {
			if limit <= 0 && s.dialect == sqlf.NoDialect {
				// sqlite does not accept OFFSET without LIMIT
				stmt.Limit(-1)
			}
			stmt.Offset(offset)
		}
	})
}

func (s *SQLStorage) CollectEvents() []domain.Event {
	s.seenMu.Lock()
	seen := s.seen
	s.seen = nil
	s.seenMu.Unlock()

	var events []domain.Event
	for _, e := range seen {
		events = append(events, e.PopEvents()...)
	}
	return events
}

func (s *SQLStorage) Close() error {
	s.seenMu.Lock()
	s.seen = nil
	s.seenMu.Unlock()
	return nil
}

func (s *SQLStorage) markSeen(e *bmi.Entry) {
	s.seenMu.Lock()
	s.seen = append(s.seen, e)
	s.seenMu.Unlock()
}
