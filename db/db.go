package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"complyform/internal/compliance"
	"complyform/internal/sentinel"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"

	// Пространство ключей advisory lock для прогонов валидации
	validationLockSpace = 7301
)

// Storage работает через *sqlx.DB или, внутри транзакции, через *sqlx.Tx
type Storage struct {
	db *sqlx.DB
	q  sqlx.ExtContext
}

func NewStorage(db *sqlx.DB) *Storage {
	return &Storage{db: db, q: db}
}

// Ping проверяет соединение с базой (для /health)
func (s *Storage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// RunInTx выполняет fn в одной транзакции, предварительно взяв advisory lock
// по заявке: параллельные прогоны одной заявки выполняются по очереди.
func (s *Storage) RunInTx(ctx context.Context, bidID int, fn func(compliance.Store) error) (err error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1, $2)`, validationLockSpace, bidID); err != nil {
		return fmt.Errorf("lock bid %d: %w", bidID, err)
	}

	if err = fn(&Storage{db: s.db, q: tx}); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// mapError переводит ошибки драйвера в sentinel-ошибки
func mapError(err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, sentinel.ErrNotFound)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pgUniqueViolation:
			return fmt.Errorf("%s: %w", what, sentinel.ErrConflict)
		case pgForeignKeyViolation:
			return fmt.Errorf("%s: referenced record: %w", what, sentinel.ErrNotFound)
		}
	}
	return fmt.Errorf("%s: %w", what, err)
}

// expectRows возвращает ErrNotFound, если UPDATE/DELETE ничего не затронул
func expectRows(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", what, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, sentinel.ErrNotFound)
	}
	return nil
}

// textArray пишет пустой массив вместо NULL в колонки TEXT[] NOT NULL
func textArray(a pq.StringArray) pq.StringArray {
	if a == nil {
		return pq.StringArray{}
	}
	return a
}
