package repositories

import "context"

// UnitOfWork runs ledger writes atomically. Repository calls made with the
// context passed to fn join the transaction, and a nested Do joins the outer one.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(txCtx context.Context) error) error
}
