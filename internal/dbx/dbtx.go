// Package dbx lets repositories share one transaction through a context.
//
// WithTx binds the transaction it opens to the context handed to fn. Code
// reached from fn calls Conn with the same *sql.DB and gets that transaction
// back, so a ledger write and an entity write issued by different components
// land in one commit. A nested WithTx on the same *sql.DB joins the outer
// transaction instead of opening a second one.
package dbx

import (
	"context"
	"database/sql"
)

// DBTX is the subset of database/sql used by the repositories.
// Both *sql.DB and *sql.Tx satisfy it.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type txKey struct{}

type boundTx struct {
	db *sql.DB
	tx *sql.Tx
}

func bound(ctx context.Context, db *sql.DB) (*sql.Tx, bool) {
	b, ok := ctx.Value(txKey{}).(boundTx)
	if !ok || b.db != db {
		return nil, false
	}
	return b.tx, true
}

// Conn returns the transaction of db carried by ctx, or db itself.
func Conn(ctx context.Context, db *sql.DB) DBTX {
	if tx, ok := bound(ctx, db); ok {
		return tx
	}
	return db
}

// InTx reports whether ctx carries a transaction of db.
func InTx(ctx context.Context, db *sql.DB) bool {
	_, ok := bound(ctx, db)
	return ok
}

// WithTx runs fn inside a transaction of db and commits when fn succeeds.
// An error or panic from fn rolls back; the panic is rethrown.
//
// When ctx already carries a transaction of db, fn joins it and the
// outermost WithTx decides the outcome. opts only apply to a new transaction.
//
//	err := dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
//	    if err := ledger.Append(ctx, change); err != nil { // uses dbx.Conn(ctx, db)
//	        return err
//	    }
//	    _, err := tx.ExecContext(ctx, "UPDATE ...")
//	    return err
//	})
func WithTx(ctx context.Context, db *sql.DB, opts *sql.TxOptions, fn func(ctx context.Context, tx DBTX) error) (err error) {
	if tx, ok := bound(ctx, db); ok {
		return fn(ctx, tx)
	}

	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()

	return fn(context.WithValue(ctx, txKey{}, boundTx{db: db, tx: tx}), tx)
}
