package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// TxRunner runs a function with a transaction-scoped context: every
// repository call inside fn that honors ConnFromContext joins the same
// transaction.
type TxRunner struct {
	Pool *pgxpool.Pool
}

func (t TxRunner) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	tx, err := t.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(WithConn(ctx, tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
