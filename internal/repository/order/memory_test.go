package order

import (
	"context"
	"errors"
	"testing"
	"time"

	"clonedirect/internal/domain"
	"github.com/shopspring/decimal"
)

func testOrder(buyerRef string) *domain.Order {
	return &domain.Order{
		BuyerRef:       buyerRef,
		ContactHandle:  "@" + buyerRef,
		PaymentMethod:  domain.PaymentCrypto,
		ShippingRegion: domain.RegionDomestic,
		Total:          decimal.NewFromInt(200),
		Lines:          []domain.OrderLine{{ItemID: "apple-fritter", Name: "Apple Fritter", Quantity: 2}},
	}
}

func TestInsertAssignsIDAndPendingStatus(t *testing.T) {
	ledger := NewMemory(24 * time.Hour)
	ctx := context.Background()

	o := testOrder("buyer1")
	id, err := ledger.Insert(ctx, o)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if id == 0 || o.ID != id {
		t.Fatalf("expected assigned id, got id=%d order.ID=%d", id, o.ID)
	}
	if o.Status != domain.OrderPending {
		t.Fatalf("expected pending status, got %q", o.Status)
	}
	if o.CreatedAt.IsZero() {
		t.Fatalf("expected created timestamp to be set")
	}
}

func TestInsertRejectsDuplicateInsideWindow(t *testing.T) {
	ledger := NewMemory(24 * time.Hour)
	ctx := context.Background()

	if _, err := ledger.Insert(ctx, testOrder("buyer1")); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	if _, err := ledger.Insert(ctx, testOrder("buyer1")); !errors.Is(err, domain.ErrDuplicateOrder) {
		t.Fatalf("expected ErrDuplicateOrder, got %v", err)
	}
	// A different buyer is unaffected.
	if _, err := ledger.Insert(ctx, testOrder("buyer2")); err != nil {
		t.Fatalf("different buyer insert: %v", err)
	}
}

func TestInsertAllowsDuplicateAfterWindow(t *testing.T) {
	ledger := NewMemory(24 * time.Hour).(*memoryLedger)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ledger.now = func() time.Time { return base }
	if _, err := ledger.Insert(ctx, testOrder("buyer1")); err != nil {
		t.Fatalf("first insert: %v", err)
	}

	ledger.now = func() time.Time { return base.Add(25 * time.Hour) }
	if _, err := ledger.Insert(ctx, testOrder("buyer1")); err != nil {
		t.Fatalf("expected insert after window to succeed, got %v", err)
	}
}

func TestInsertIgnoresNonPendingDuplicates(t *testing.T) {
	ledger := NewMemory(24 * time.Hour)
	ctx := context.Background()

	id, err := ledger.Insert(ctx, testOrder("buyer1"))
	if err != nil {
		t.Fatalf("first insert: %v", err)
	}
	if err := ledger.SetStatus(ctx, id, domain.OrderCompleted); err != nil {
		t.Fatalf("set status: %v", err)
	}

	// Once the earlier order is completed, the same buyer may order again.
	if _, err := ledger.Insert(ctx, testOrder("buyer1")); err != nil {
		t.Fatalf("expected insert to succeed after completion, got %v", err)
	}
}

func TestSetStatusAndDeleteUnknownOrder(t *testing.T) {
	ledger := NewMemory(24 * time.Hour)
	ctx := context.Background()

	if err := ledger.SetStatus(ctx, 42, domain.OrderCompleted); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound from SetStatus, got %v", err)
	}
	if err := ledger.Delete(ctx, 42); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound from Delete, got %v", err)
	}
}

func TestListFiltersByStatus(t *testing.T) {
	ledger := NewMemory(24 * time.Hour)
	ctx := context.Background()

	id1, _ := ledger.Insert(ctx, testOrder("buyer1"))
	id2, _ := ledger.Insert(ctx, testOrder("buyer2"))
	if err := ledger.SetStatus(ctx, id1, domain.OrderCompleted); err != nil {
		t.Fatalf("set status: %v", err)
	}

	pending, err := ledger.List(ctx, domain.OrderPending)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != id2 {
		t.Fatalf("expected only order %d pending, got %+v", id2, pending)
	}

	all, err := ledger.List(ctx)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 orders, got %d", len(all))
	}
}

func TestExpirePendingOlderThan(t *testing.T) {
	ledger := NewMemory(24 * time.Hour).(*memoryLedger)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	ledger.now = func() time.Time { return base.Add(-15 * 24 * time.Hour) }
	oldID, _ := ledger.Insert(ctx, testOrder("buyer1"))

	ledger.now = func() time.Time { return base }
	freshID, _ := ledger.Insert(ctx, testOrder("buyer2"))

	changed, err := ledger.ExpirePendingOlderThan(ctx, base.Add(-14*24*time.Hour))
	if err != nil {
		t.Fatalf("expire: %v", err)
	}
	if changed != 1 {
		t.Fatalf("expected 1 order expired, got %d", changed)
	}

	expired, _ := ledger.List(ctx, domain.OrderExpired)
	if len(expired) != 1 || expired[0].ID != oldID {
		t.Fatalf("expected order %d expired, got %+v", oldID, expired)
	}
	pending, _ := ledger.List(ctx, domain.OrderPending)
	if len(pending) != 1 || pending[0].ID != freshID {
		t.Fatalf("expected order %d still pending, got %+v", freshID, pending)
	}
}

func TestListStaleOrdersOldestFirst(t *testing.T) {
	ledger := NewMemory(24 * time.Hour).(*memoryLedger)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	ledger.now = func() time.Time { return base.Add(-72 * time.Hour) }
	oldest, _ := ledger.Insert(ctx, testOrder("buyer1"))

	ledger.now = func() time.Time { return base.Add(-50 * time.Hour) }
	middle, _ := ledger.Insert(ctx, testOrder("buyer2"))

	ledger.now = func() time.Time { return base }
	if _, err := ledger.Insert(ctx, testOrder("buyer3")); err != nil {
		t.Fatalf("insert: %v", err)
	}

	stale, err := ledger.ListPendingOlderThan(ctx, base.Add(-48*time.Hour))
	if err != nil {
		t.Fatalf("list stale: %v", err)
	}
	if len(stale) != 2 || stale[0].ID != oldest || stale[1].ID != middle {
		t.Fatalf("expected [%d %d] oldest first, got %+v", oldest, middle, stale)
	}
}
