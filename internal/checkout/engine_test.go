package checkout

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"clonedirect/internal/catalog"
	"clonedirect/internal/domain"
	orderrepo "clonedirect/internal/repository/order"
	"github.com/shopspring/decimal"
)

func testCatalog() *catalog.Provider {
	return catalog.New([]domain.CatalogItem{
		{Name: "Sour Tropicookies", Lineage: "Tropicana Cookies x Sour Dubb", ImageURL: "https://img.example/sour.jpg"},
		{Name: "Apple Fritter", Lineage: "Sour Apple x Animal Cookies", Breeder: "Lumpy's"},
	})
}

func newTestEngine(ledger orderrepo.Ledger) *Engine {
	return New(testCatalog(), ledger, nil, Options{OperatorID: "operator"})
}

func confirmedSession(userID string) *domain.Session {
	s := domain.NewSession(userID)
	s.AgeConfirmed = true
	s.Stage = domain.StageBrowsing
	return s
}

func handle(t *testing.T, e *Engine, s *domain.Session, kind domain.EventKind, arg string) []domain.Effect {
	t.Helper()
	effects, err := e.Handle(context.Background(), s, domain.Event{UserID: s.UserID, Kind: kind, Arg: arg})
	if err != nil {
		t.Fatalf("handle %s: unexpected error: %v", kind, err)
	}
	return effects
}

func TestAgeGateBlocksEverything(t *testing.T) {
	e := newTestEngine(orderrepo.NewMemory(24 * time.Hour))
	s := domain.NewSession("u1")

	for _, kind := range []domain.EventKind{domain.EventStart, domain.EventBrowse, domain.EventViewCart, domain.EventFinalize} {
		effects := handle(t, e, s, kind, "")
		if len(effects) != 1 {
			t.Fatalf("expected a single re-prompt for %s, got %d effects", kind, len(effects))
		}
		if _, ok := effects[0].(domain.SendChoices); !ok {
			t.Fatalf("expected age prompt choices for %s, got %T", kind, effects[0])
		}
		if s.AgeConfirmed || s.Stage != domain.StageUnconfirmedAge {
			t.Fatalf("expected no state change before confirmation")
		}
	}

	handle(t, e, s, domain.EventConfirmAge, "")
	if !s.AgeConfirmed || s.Stage != domain.StageBrowsing {
		t.Fatalf("expected confirmed browsing session, got %+v", s)
	}
}

func TestSelectUnknownItem(t *testing.T) {
	e := newTestEngine(orderrepo.NewMemory(24 * time.Hour))
	s := confirmedSession("u1")

	effects := handle(t, e, s, domain.EventSelectItem, "no-such-cut")
	if s.PendingItemID != "" {
		t.Fatalf("expected no pending selection for unknown item")
	}
	if _, ok := effects[0].(domain.SendText); !ok {
		t.Fatalf("expected corrective text, got %T", effects[0])
	}
}

func TestQuantityValidation(t *testing.T) {
	e := newTestEngine(orderrepo.NewMemory(24 * time.Hour))
	s := confirmedSession("u1")

	handle(t, e, s, domain.EventSelectItem, "sour-tropicookies")
	handle(t, e, s, domain.EventRequestAdd, "")
	if s.Stage != domain.StageAwaitingQuantity {
		t.Fatalf("expected awaiting_quantity, got %s", s.Stage)
	}

	// Repeated invalid input is rejected and leaves the cart untouched.
	for _, bad := range []string{"zero", "-3", "0", "1.5", ""} {
		handle(t, e, s, domain.EventText, bad)
		if len(s.Cart) != 0 {
			t.Fatalf("expected cart unchanged after %q", bad)
		}
		if s.Stage != domain.StageAwaitingQuantity {
			t.Fatalf("expected stage unchanged after %q, got %s", bad, s.Stage)
		}
	}

	handle(t, e, s, domain.EventText, " 2 ")
	if s.Stage != domain.StageBrowsing || s.PendingItemID != "" {
		t.Fatalf("expected return to browsing with cleared selection, got %+v", s)
	}
	if len(s.Cart) != 1 || s.Cart[0].Quantity != 2 {
		t.Fatalf("expected one line x2, got %+v", s.Cart)
	}
}

func TestQuantityMergesExistingLine(t *testing.T) {
	e := newTestEngine(orderrepo.NewMemory(24 * time.Hour))
	s := confirmedSession("u1")

	addItem(t, e, s, "sour-tropicookies", "2")
	addItem(t, e, s, "apple-fritter", "1")
	addItem(t, e, s, "sour-tropicookies", "3")

	if len(s.Cart) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(s.Cart))
	}
	if s.Cart[0].ItemID != "sour-tropicookies" || s.Cart[0].Quantity != 5 {
		t.Fatalf("expected merged line x5, got %+v", s.Cart[0])
	}
	if s.TotalQuantity() != 6 {
		t.Fatalf("expected total quantity 6, got %d", s.TotalQuantity())
	}
}

func TestCartTotalsAfterRemovals(t *testing.T) {
	e := newTestEngine(orderrepo.NewMemory(24 * time.Hour))
	s := confirmedSession("u1")

	addItem(t, e, s, "sour-tropicookies", "2")
	addItem(t, e, s, "apple-fritter", "4")

	// Out-of-range removal is a notice, not a mutation.
	handle(t, e, s, domain.EventRemoveLine, "9")
	if s.TotalQuantity() != 6 {
		t.Fatalf("expected cart unchanged by out-of-range removal")
	}

	handle(t, e, s, domain.EventRemoveLine, "1")
	if len(s.Cart) != 1 || s.Cart[0].ItemID != "apple-fritter" {
		t.Fatalf("expected only apple-fritter left, got %+v", s.Cart)
	}
	if s.TotalQuantity() != 4 {
		t.Fatalf("expected total quantity 4 after removal, got %d", s.TotalQuantity())
	}
}

func TestFinalizeEmptyCart(t *testing.T) {
	e := newTestEngine(orderrepo.NewMemory(24 * time.Hour))
	s := confirmedSession("u1")

	effects := handle(t, e, s, domain.EventFinalize, "")
	if s.Stage != domain.StageBrowsing {
		t.Fatalf("expected stage to stay browsing, got %s", s.Stage)
	}
	txt, ok := effects[0].(domain.SendText)
	if !ok || txt.Text == "" {
		t.Fatalf("expected corrective text, got %+v", effects[0])
	}
}

func TestFullCheckoutScenario(t *testing.T) {
	ledger := orderrepo.NewMemory(24 * time.Hour)
	e := newTestEngine(ledger)
	s := confirmedSession("u1")

	addItem(t, e, s, "sour-tropicookies", "2")
	handle(t, e, s, domain.EventFinalize, "")
	handle(t, e, s, domain.EventPayment, "paypal")
	if s.Stage != domain.StageSelectingRegion {
		t.Fatalf("expected selecting_region after paypal, got %s", s.Stage)
	}
	handle(t, e, s, domain.EventRegion, "domestic")
	handle(t, e, s, domain.EventText, "@buyer1")
	if s.Stage != domain.StageConfirming {
		t.Fatalf("expected confirming, got %s", s.Stage)
	}

	effects := handle(t, e, s, domain.EventConfirm, "")

	orders, err := ledger.List(context.Background())
	if err != nil {
		t.Fatalf("list orders: %v", err)
	}
	if len(orders) != 1 {
		t.Fatalf("expected one order, got %d", len(orders))
	}
	o := orders[0]
	if o.Status != domain.OrderPending {
		t.Fatalf("expected pending status, got %s", o.Status)
	}
	if len(o.Lines) != 1 || o.Lines[0].Quantity != 2 || o.Lines[0].Name != "Sour Tropicookies" {
		t.Fatalf("unexpected order lines %+v", o.Lines)
	}
	if !o.Total.Equal(decimal.NewFromInt(210)) {
		t.Fatalf("expected total 210, got %s", o.Total)
	}
	if o.BuyerRef != "@buyer1" || o.ContactHandle != "@buyer1" {
		t.Fatalf("unexpected buyer fields %+v", o)
	}

	// Session is reset to a fresh unconfirmed one.
	if len(s.Cart) != 0 || s.AgeConfirmed || s.Stage != domain.StageUnconfirmedAge {
		t.Fatalf("expected fresh session after submission, got %+v", s)
	}

	var notified bool
	for _, eff := range effects {
		if _, ok := eff.(domain.NotifyOperator); ok {
			notified = true
		}
	}
	if !notified {
		t.Fatalf("expected operator notification effect")
	}
}

func TestCryptoVariantFlow(t *testing.T) {
	ledger := orderrepo.NewMemory(24 * time.Hour)
	e := newTestEngine(ledger)
	s := confirmedSession("u1")

	addItem(t, e, s, "apple-fritter", "3")
	handle(t, e, s, domain.EventFinalize, "")
	handle(t, e, s, domain.EventPayment, "crypto")
	if s.Stage != domain.StageSelectingCrypto {
		t.Fatalf("expected selecting_crypto, got %s", s.Stage)
	}

	handle(t, e, s, domain.EventCrypto, "other")
	if s.Stage != domain.StageAwaitingCryptoName {
		t.Fatalf("expected awaiting_crypto_name, got %s", s.Stage)
	}

	handle(t, e, s, domain.EventText, "LTC")
	if s.PaymentMethod != domain.PaymentCrypto || s.CryptoCoin != "LTC" {
		t.Fatalf("expected crypto LTC, got %+v", s)
	}
	if s.Stage != domain.StageSelectingRegion {
		t.Fatalf("expected selecting_region, got %s", s.Stage)
	}
}

func TestDuplicateOrderRejected(t *testing.T) {
	ledger := orderrepo.NewMemory(24 * time.Hour)
	e := newTestEngine(ledger)

	submit := func() *domain.Session {
		s := confirmedSession("u1")
		addItem(t, e, s, "sour-tropicookies", "1")
		handle(t, e, s, domain.EventFinalize, "")
		handle(t, e, s, domain.EventPayment, "mail-in")
		handle(t, e, s, domain.EventRegion, "domestic")
		handle(t, e, s, domain.EventText, "Buyer1")
		handle(t, e, s, domain.EventConfirm, "")
		return s
	}

	submit()

	// Same buyer handle, different case: still suppressed.
	s := confirmedSession("u2")
	addItem(t, e, s, "apple-fritter", "1")
	handle(t, e, s, domain.EventFinalize, "")
	handle(t, e, s, domain.EventPayment, "mail-in")
	handle(t, e, s, domain.EventRegion, "domestic")
	handle(t, e, s, domain.EventText, "buyer1")
	handle(t, e, s, domain.EventConfirm, "")

	orders, err := ledger.List(context.Background())
	if err != nil {
		t.Fatalf("list orders: %v", err)
	}
	if len(orders) != 1 {
		t.Fatalf("expected duplicate to be suppressed, got %d orders", len(orders))
	}
	if s.Stage != domain.StageConfirming {
		t.Fatalf("expected rejected session to stay in confirming, got %s", s.Stage)
	}
}

func TestCancelDiscardsCart(t *testing.T) {
	e := newTestEngine(orderrepo.NewMemory(24 * time.Hour))
	s := confirmedSession("u1")

	addItem(t, e, s, "sour-tropicookies", "2")
	handle(t, e, s, domain.EventFinalize, "")
	handle(t, e, s, domain.EventCancel, "")

	if s.Stage != domain.StageBrowsing || len(s.Cart) != 0 || s.PaymentMethod != "" {
		t.Fatalf("expected cleared browsing session, got %+v", s)
	}
	if !s.AgeConfirmed {
		t.Fatalf("cancel must not reopen the age gate")
	}
}

func TestInvalidEventForStageReprompts(t *testing.T) {
	e := newTestEngine(orderrepo.NewMemory(24 * time.Hour))
	s := confirmedSession("u1")

	effects := handle(t, e, s, domain.EventConfirm, "")
	if s.Stage != domain.StageBrowsing {
		t.Fatalf("expected stage unchanged, got %s", s.Stage)
	}
	if len(effects) != 2 {
		t.Fatalf("expected notice plus menu, got %d effects", len(effects))
	}
}

func TestConfirmInsertFailureKeepsSessionRetryable(t *testing.T) {
	ledger := &stubLedger{insertErr: errors.New("db down")}
	e := New(testCatalog(), ledger, nil, Options{OperatorID: "operator"})
	s := confirmedSession("u1")

	addItem(t, e, s, "sour-tropicookies", "2")
	handle(t, e, s, domain.EventFinalize, "")
	handle(t, e, s, domain.EventPayment, "mail-in")
	handle(t, e, s, domain.EventRegion, "domestic")
	handle(t, e, s, domain.EventText, "@buyer1")

	effects, err := e.Handle(context.Background(), s, domain.Event{UserID: "u1", Kind: domain.EventConfirm})
	if err == nil {
		t.Fatalf("expected insert failure to propagate")
	}

	// The user is told, the session stays in confirming with the cart intact,
	// and no operator notification goes out for an unrecorded order.
	if len(effects) != 1 {
		t.Fatalf("expected a single failure notice, got %d effects", len(effects))
	}
	txt, ok := effects[0].(domain.SendText)
	if !ok || !strings.Contains(txt.Text, "went wrong recording your order") {
		t.Fatalf("expected user-visible failure text, got %+v", effects[0])
	}
	if s.Stage != domain.StageConfirming {
		t.Fatalf("expected session to stay confirming for a retry, got %s", s.Stage)
	}
	if len(s.Cart) != 1 || s.ContactHandle != "@buyer1" {
		t.Fatalf("expected checkout state preserved, got %+v", s)
	}
	for _, eff := range effects {
		if _, ok := eff.(domain.NotifyOperator); ok {
			t.Fatalf("operator must not be notified about an unrecorded order")
		}
	}
}

func TestContactInputIsSanitized(t *testing.T) {
	ledger := orderrepo.NewMemory(24 * time.Hour)
	e := newTestEngine(ledger)
	s := confirmedSession("u1")

	addItem(t, e, s, "sour-tropicookies", "2")
	handle(t, e, s, domain.EventFinalize, "")
	handle(t, e, s, domain.EventPayment, "mail-in")
	handle(t, e, s, domain.EventRegion, "domestic")

	// Input stripped to nothing is rejected and re-prompted.
	handle(t, e, s, domain.EventText, "<<<***>>>")
	if s.Stage != domain.StageAwaitingContact || s.ContactHandle != "" {
		t.Fatalf("expected empty-after-strip contact rejected, got %+v", s)
	}

	handle(t, e, s, domain.EventText, "<b>@Evil</b>\n*drop*")
	const cleaned = "b@Evilbdrop"
	if s.ContactHandle != cleaned {
		t.Fatalf("expected sanitized handle %q, got %q", cleaned, s.ContactHandle)
	}

	effects := handle(t, e, s, domain.EventConfirm, "")

	orders, err := ledger.List(context.Background())
	if err != nil {
		t.Fatalf("list orders: %v", err)
	}
	if len(orders) != 1 {
		t.Fatalf("expected one order, got %d", len(orders))
	}
	if orders[0].ContactHandle != cleaned || orders[0].BuyerRef != strings.ToLower(cleaned) {
		t.Fatalf("expected sanitized buyer fields, got %+v", orders[0])
	}

	for _, eff := range effects {
		if n, ok := eff.(domain.NotifyOperator); ok {
			if !strings.Contains(n.Text, cleaned) || strings.ContainsAny(n.Text, "<>*") {
				t.Fatalf("expected sanitized operator notification, got %q", n.Text)
			}
		}
	}
}

func addItem(t *testing.T, e *Engine, s *domain.Session, itemID, qty string) {
	t.Helper()
	handle(t, e, s, domain.EventSelectItem, itemID)
	handle(t, e, s, domain.EventRequestAdd, "")
	handle(t, e, s, domain.EventText, qty)
}
