package database

import (
	"database/sql"
)

// Tx is a transaction that rewrites placeholders for its dialect
type Tx struct {
	*sql.Tx
	dialect Dialect
}

// WithTx runs fn inside a transaction. The transaction is rolled back when fn
// returns an error and committed otherwise.
func (db *DB) WithTx(fn func(tx *Tx) error) error {
	sqlTx, err := db.DB.Begin()
	if err != nil {
		return err
	}
	tx := &Tx{Tx: sqlTx, dialect: db.Dialect}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// Exec runs a statement inside the transaction
func (tx *Tx) Exec(query string, args ...interface{}) (sql.Result, error) {
	return tx.Tx.Exec(tx.dialect.RewriteQuery(query), args...)
}

// ExecReturningID runs an INSERT inside the transaction and returns the new row's ID
func (tx *Tx) ExecReturningID(query string, args ...interface{}) (int64, error) {
	return execReturningID(tx.Tx, tx.dialect, query, args...)
}
