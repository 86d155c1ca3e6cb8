package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"apar/lib/models"
)

// Querier is satisfied by both *sql.DB and *sql.Tx
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// TxScope is one open transaction plus the cleanups owed if it never commits
type TxScope struct {
	Tx         *sql.Tx
	onRollback []func(ctx context.Context)
}

// OnRollback registers a cleanup that runs only if the transaction does not commit
func (s *TxScope) OnRollback(fn func(ctx context.Context)) {
	s.onRollback = append(s.onRollback, fn)
}

func (s *TxScope) runRollbackHooks(ctx context.Context) {
	for i := len(s.onRollback) - 1; i >= 0; i-- {
		s.onRollback[i](ctx)
	}
}

// Transactor runs a unit of work inside a scoped transaction
type Transactor interface {
	RunInTx(ctx context.Context, fn func(scope *TxScope) error) error
}

// TxRunner implements Transactor using PostgreSQL
type TxRunner struct {
	DB     *sql.DB
	Logger *logrus.Logger
}

// RunInTx commits only when fn returns nil. On error, failed commit or panic
// the transaction is rolled back and the rollback hooks run newest first.
func (r *TxRunner) RunInTx(ctx context.Context, fn func(scope *TxScope) error) (err error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		r.Logger.WithError(err).Error("Failed to start transaction")
		return fmt.Errorf("%w: failed to start transaction: %v", models.ErrPersistence, err)
	}

	scope := &TxScope{Tx: tx}
	committed := false

	defer func() {
		if committed {
			return
		}
		p := recover()
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			r.Logger.WithError(rbErr).Warn("Failed to roll back transaction")
		}
		scope.runRollbackHooks(context.WithoutCancel(ctx))
		if p != nil {
			panic(p)
		}
	}()

	if err = fn(scope); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		r.Logger.WithError(err).Error("Failed to commit transaction")
		return fmt.Errorf("%w: failed to commit transaction: %v", models.ErrPersistence, err)
	}
	committed = true
	return nil
}
