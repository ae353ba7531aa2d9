package order

import (
	"context"
	"time"

	"clonedirect/internal/domain"
)

// Ledger is the durable record of submitted orders.
type Ledger interface {
	// Insert stores a new pending order and returns its id. When a pending
	// order for the same buyer reference already exists inside the
	// duplicate window, it returns domain.ErrDuplicateOrder and writes
	// nothing. The duplicate check and the insert are one atomic unit.
	Insert(ctx context.Context, o *domain.Order) (int64, error)

	// SetStatus transitions an order's status. Unknown ids return
	// domain.ErrNotFound.
	SetStatus(ctx context.Context, id int64, status domain.OrderStatus) error

	// Delete physically removes an order. Only the operator's explicit
	// delete command reaches this.
	Delete(ctx context.Context, id int64) error

	// List returns orders newest first, optionally filtered by status.
	List(ctx context.Context, statuses ...domain.OrderStatus) ([]domain.Order, error)

	// ListPendingOlderThan returns pending orders created before cutoff,
	// oldest first.
	ListPendingOlderThan(ctx context.Context, cutoff time.Time) ([]domain.Order, error)

	// ExpirePendingOlderThan flips pending orders created before cutoff to
	// expired and reports how many changed.
	ExpirePendingOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
