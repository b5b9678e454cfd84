package transaction

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/plugin/dbresolver"

	"jan-server/services/conversation-api/internal/domain/query"
)

type TransactionContextKey struct{}

func WithTx(ctx context.Context, tx *gorm.DB) context.Context {
	return context.WithValue(ctx, TransactionContextKey{}, tx)
}

type Database struct {
	db *gorm.DB
}

// GetTx returns the transaction bound to ctx, or the root handle scoped to ctx.
// Outside a transaction, a ctx marked with query.WithPrimary pins reads to the
// primary when read replicas are registered.
func (t *Database) GetTx(ctx context.Context) *gorm.DB {
	if tx, ok := ctx.Value(TransactionContextKey{}).(*gorm.DB); ok {
		return tx.WithContext(ctx)
	}
	db := t.db.WithContext(ctx)
	if query.ReadsPrimary(ctx) {
		db = db.Clauses(dbresolver.Write)
	}
	return db
}

// Transaction runs fn inside a database transaction. Repositories called with
// the ctx passed to fn join that transaction.
func (t *Database) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return t.GetTx(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(WithTx(ctx, tx))
	})
}

func NewDatabase(db *gorm.DB) *Database {
	return &Database{db}
}
