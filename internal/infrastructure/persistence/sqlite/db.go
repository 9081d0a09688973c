// Package sqlite carries a database transaction on the request context so
// the workflow engine can span several repositories with one commit.
package sqlite

import (
	"context"
	"database/sql"

	"go.uber.org/zap"

	"github.com/garyjia/travel-approval/internal/application/port"
	"github.com/garyjia/travel-approval/pkg/database"
)

type txKey struct{}

// Executor covers both *sql.DB and *sql.Tx
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// DB implements port.TransactionManager over a database connection
type DB struct {
	conn   *database.DB
	logger *zap.Logger
}

// NewDB creates a transaction manager for conn
func NewDB(conn *database.DB, logger *zap.Logger) *DB {
	return &DB{conn: conn, logger: logger}
}

var _ port.TransactionManager = (*DB)(nil)

// SQL returns the underlying pool for repositories
func (db *DB) SQL() *sql.DB {
	return db.conn.DB
}

// WithTransaction runs fn with a transaction on its context. A call made
// while a transaction is already on ctx joins it instead of nesting.
func (db *DB) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if TxFromContext(ctx) != nil {
		return fn(ctx)
	}
	return db.conn.WithTx(ctx, func(tx *sql.Tx) error {
		return fn(ContextWithTx(ctx, tx))
	})
}

// ContextWithTx attaches tx to ctx
func ContextWithTx(ctx context.Context, tx *sql.Tx) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

// TxFromContext returns the transaction on ctx, or nil
func TxFromContext(ctx context.Context) *sql.Tx {
	tx, _ := ctx.Value(txKey{}).(*sql.Tx)
	return tx
}

// ExecutorFor returns the transaction on ctx, falling back to pool
func ExecutorFor(ctx context.Context, pool *sql.DB) Executor {
	if tx := TxFromContext(ctx); tx != nil {
		return tx
	}
	return pool
}
