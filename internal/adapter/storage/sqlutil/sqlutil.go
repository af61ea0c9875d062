package sqlutil

import (
	"errors"
	"github.com/burenotti/go_bmi_backend/internal/adapter/storage"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/leporo/sqlf"
	"github.com/mattn/go-sqlite3"
)

// Dialect returns the placeholder dialect matching a database/sql driver name.
func Dialect(driver string) *sqlf.Dialect {
	if driver == storage.DriverPostgres {
		return sqlf.PostgreSQL
	}
	return sqlf.NoDialect
}

// ViolatesConstraint reports whether err is an integrity violation of the named
// constraint. SQLite does not report constraint names, so any primary key or
// unique violation matches there.
func ViolatesConstraint(err error, constraintName string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgerrcode.IsIntegrityConstraintViolation(pgErr.Code) &&
			pgErr.ConstraintName == constraintName
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey ||
			liteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}

	return false
}

func FirstOrErr[V any](items []V, err, notFoundErr error) (V, error) {
	if err != nil {
		return *new(V), err
	}

	if len(items) == 0 {
		return *new(V), notFoundErr
	}

	return items[0], nil
}
