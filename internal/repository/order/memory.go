package order

import (
	"context"
	"sort"
	"sync"
	"time"

	"clonedirect/internal/domain"
)

type memoryLedger struct {
	mu        sync.Mutex
	orders    []domain.Order
	nextID    int64
	dupWindow time.Duration

	now func() time.Time
}

// NewMemory returns an in-memory Ledger with the given duplicate window.
// Used by tests.
func NewMemory(dupWindow time.Duration) Ledger {
	return &memoryLedger{nextID: 1, dupWindow: dupWindow, now: time.Now}
}

func (l *memoryLedger) Insert(_ context.Context, o *domain.Order) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for _, existing := range l.orders {
		if existing.BuyerRef == o.BuyerRef &&
			existing.Status == domain.OrderPending &&
			existing.CreatedAt.After(now.Add(-l.dupWindow)) {
			return 0, domain.ErrDuplicateOrder
		}
	}

	o.ID = l.nextID
	l.nextID++
	o.CreatedAt = now
	o.Status = domain.OrderPending

	cp := *o
	cp.Lines = append([]domain.OrderLine(nil), o.Lines...)
	l.orders = append(l.orders, cp)
	return o.ID, nil
}

func (l *memoryLedger) SetStatus(_ context.Context, id int64, status domain.OrderStatus) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i := range l.orders {
		if l.orders[i].ID == id {
			l.orders[i].Status = status
			return nil
		}
	}
	return domain.ErrNotFound
}

func (l *memoryLedger) Delete(_ context.Context, id int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i := range l.orders {
		if l.orders[i].ID == id {
			l.orders = append(l.orders[:i], l.orders[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (l *memoryLedger) List(_ context.Context, statuses ...domain.OrderStatus) ([]domain.Order, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var result []domain.Order
	for _, o := range l.orders {
		if len(statuses) > 0 && !statusIn(o.Status, statuses) {
			continue
		}
		result = append(result, o)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (l *memoryLedger) ListPendingOlderThan(_ context.Context, cutoff time.Time) ([]domain.Order, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var result []domain.Order
	for _, o := range l.orders {
		if o.Status == domain.OrderPending && o.CreatedAt.Before(cutoff) {
			result = append(result, o)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func (l *memoryLedger) ExpirePendingOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var changed int64
	for i := range l.orders {
		if l.orders[i].Status == domain.OrderPending && l.orders[i].CreatedAt.Before(cutoff) {
			l.orders[i].Status = domain.OrderExpired
			changed++
		}
	}
	return changed, nil
}

func statusIn(status domain.OrderStatus, statuses []domain.OrderStatus) bool {
	for _, st := range statuses {
		if st == status {
			return true
		}
	}
	return false
}
