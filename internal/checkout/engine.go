package checkout

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"clonedirect/internal/catalog"
	"clonedirect/internal/domain"
	orderrepo "clonedirect/internal/repository/order"
	"go.uber.org/zap"
)

// Engine is the checkout state machine. Given a session and an event it
// mutates the session in place and returns the effects to deliver. It holds
// no per-user state of its own; callers own session serialization.
type Engine struct {
	catalog *catalog.Provider
	ledger  orderrepo.Ledger
	logger  *zap.Logger
	opts    Options
	now     func() time.Time
}

// Options tunes operator identity and ledger maintenance policy.
type Options struct {
	OperatorID       string
	ExportDir        string
	OrderExpireAfter time.Duration
	ReminderAge      time.Duration
}

func New(cat *catalog.Provider, ledger orderrepo.Ledger, logger *zap.Logger, opts Options) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.OrderExpireAfter == 0 {
		opts.OrderExpireAfter = 14 * 24 * time.Hour
	}
	if opts.ReminderAge == 0 {
		opts.ReminderAge = 48 * time.Hour
	}
	if opts.ExportDir == "" {
		opts.ExportDir = "."
	}
	return &Engine{catalog: cat, ledger: ledger, logger: logger, opts: opts, now: time.Now}
}

type handler func(e *Engine, ctx context.Context, s *domain.Session, ev domain.Event) ([]domain.Effect, error)

// transitions is the stage x event dispatch table. A missing entry means the
// event is invalid for that stage and the user is re-prompted.
var transitions = map[domain.Stage]map[domain.EventKind]handler{
	domain.StageBrowsing: {
		domain.EventStart:      (*Engine).handleStart,
		domain.EventBrowse:     (*Engine).handleBrowse,
		domain.EventFAQ:        (*Engine).handleFAQ,
		domain.EventPricing:    (*Engine).handlePricing,
		domain.EventSelectItem: (*Engine).handleSelectItem,
		domain.EventRequestAdd: (*Engine).handleRequestAdd,
		domain.EventViewCart:   (*Engine).handleViewCart,
		domain.EventRemoveLine: (*Engine).handleRemoveLine,
		domain.EventFinalize:   (*Engine).handleFinalize,
		domain.EventCancel:     (*Engine).handleCancel,
	},
	domain.StageAwaitingQuantity: {
		domain.EventText:   (*Engine).handleQuantity,
		domain.EventCancel: (*Engine).handleCancel,
	},
	domain.StageSelectingPayment: {
		domain.EventPayment:  (*Engine).handleChoosePayment,
		domain.EventViewCart: (*Engine).handleViewCart,
		domain.EventCancel:   (*Engine).handleCancel,
	},
	domain.StageSelectingCrypto: {
		domain.EventCrypto: (*Engine).handleChooseCrypto,
		domain.EventCancel: (*Engine).handleCancel,
	},
	domain.StageAwaitingCryptoName: {
		domain.EventText:   (*Engine).handleCryptoName,
		domain.EventCancel: (*Engine).handleCancel,
	},
	domain.StageSelectingRegion: {
		domain.EventRegion: (*Engine).handleChooseRegion,
		domain.EventCancel: (*Engine).handleCancel,
	},
	domain.StageAwaitingContact: {
		domain.EventText:   (*Engine).handleContact,
		domain.EventCancel: (*Engine).handleCancel,
	},
	domain.StageConfirming: {
		domain.EventConfirm: (*Engine).handleConfirm,
		domain.EventCancel:  (*Engine).handleCancel,
	},
}

// Handle applies one event to the session. Validation failures surface as
// effects, never as errors; a non-nil error means a persistence failure the
// caller must log (the returned effects are still deliverable).
func (e *Engine) Handle(ctx context.Context, s *domain.Session, ev domain.Event) ([]domain.Effect, error) {
	if isAdminEvent(ev.Kind) {
		return e.handleAdmin(ctx, ev)
	}

	// Age gate: nothing but the confirmation event gets past it.
	if !s.AgeConfirmed {
		if ev.Kind == domain.EventConfirmAge {
			s.AgeConfirmed = true
			s.Stage = domain.StageBrowsing
			return []domain.Effect{mainMenu(s.UserID)}, nil
		}
		return []domain.Effect{agePrompt(s.UserID)}, nil
	}

	h := transitions[s.Stage][ev.Kind]
	if h == nil {
		// Likely a delivery-adapter bug: a choice was offered that is no
		// longer valid for the stage.
		e.logger.Warn("event not valid for stage",
			zap.String("user_id", s.UserID),
			zap.String("stage", string(s.Stage)),
			zap.String("kind", string(ev.Kind)))
		return []domain.Effect{
			domain.SendText{UserID: s.UserID, Text: "That option isn't available right now."},
			e.menuForStage(s.UserID, s),
		}, nil
	}
	return h(e, ctx, s, ev)
}

func (e *Engine) handleStart(_ context.Context, s *domain.Session, _ domain.Event) ([]domain.Effect, error) {
	return []domain.Effect{mainMenu(s.UserID)}, nil
}

func (e *Engine) handleBrowse(_ context.Context, s *domain.Session, _ domain.Event) ([]domain.Effect, error) {
	s.PendingItemID = ""
	return []domain.Effect{catalogMenu(s.UserID, e.catalog.List())}, nil
}

func (e *Engine) handleFAQ(_ context.Context, s *domain.Session, _ domain.Event) ([]domain.Effect, error) {
	return []domain.Effect{domain.SendText{UserID: s.UserID, Text: faqText}}, nil
}

func (e *Engine) handlePricing(_ context.Context, s *domain.Session, _ domain.Event) ([]domain.Effect, error) {
	return []domain.Effect{domain.SendText{UserID: s.UserID, Text: pricingText}}, nil
}

func (e *Engine) handleSelectItem(_ context.Context, s *domain.Session, ev domain.Event) ([]domain.Effect, error) {
	it, err := e.catalog.Get(ev.Arg)
	if errors.Is(err, domain.ErrNotFound) {
		return []domain.Effect{
			domain.SendText{UserID: s.UserID, Text: "That cut isn't in the catalog."},
			catalogMenu(s.UserID, e.catalog.List()),
		}, nil
	}
	// The detail view is not a stage of its own; only the pending selection
	// moves forward.
	s.PendingItemID = it.ID
	return []domain.Effect{itemDetail(s.UserID, it)}, nil
}

func (e *Engine) handleRequestAdd(_ context.Context, s *domain.Session, _ domain.Event) ([]domain.Effect, error) {
	if s.PendingItemID == "" {
		return []domain.Effect{
			domain.SendText{UserID: s.UserID, Text: "Pick a cut first."},
			catalogMenu(s.UserID, e.catalog.List()),
		}, nil
	}
	s.Stage = domain.StageAwaitingQuantity
	return []domain.Effect{quantityPrompt(s.UserID)}, nil
}

func (e *Engine) handleQuantity(_ context.Context, s *domain.Session, ev domain.Event) ([]domain.Effect, error) {
	qty, err := strconv.Atoi(strings.TrimSpace(ev.Arg))
	if err != nil || qty <= 0 {
		// Reject and re-prompt; never clamp, and the cart stays untouched.
		return []domain.Effect{
			domain.SendText{UserID: s.UserID, Text: "Please enter a whole number greater than zero."},
		}, nil
	}

	itemID := s.PendingItemID
	s.AddLine(itemID, qty)
	s.PendingItemID = ""
	s.Stage = domain.StageBrowsing
	return []domain.Effect{addedToCart(s.UserID, e.itemName(itemID), qty)}, nil
}

func (e *Engine) handleViewCart(_ context.Context, s *domain.Session, _ domain.Event) ([]domain.Effect, error) {
	return []domain.Effect{cartView(s.UserID, s, e.itemName)}, nil
}

func (e *Engine) handleRemoveLine(_ context.Context, s *domain.Session, ev domain.Event) ([]domain.Effect, error) {
	idx, err := strconv.Atoi(strings.TrimSpace(ev.Arg))
	if err != nil || !s.RemoveLine(idx-1) {
		return []domain.Effect{
			domain.SendText{UserID: s.UserID, Text: "That cart line doesn't exist."},
			cartView(s.UserID, s, e.itemName),
		}, nil
	}
	return []domain.Effect{cartView(s.UserID, s, e.itemName)}, nil
}

func (e *Engine) handleFinalize(_ context.Context, s *domain.Session, _ domain.Event) ([]domain.Effect, error) {
	if len(s.Cart) == 0 {
		return []domain.Effect{
			domain.SendText{UserID: s.UserID, Text: "Your cart is empty, add something first."},
			mainMenu(s.UserID),
		}, nil
	}
	s.Stage = domain.StageSelectingPayment
	return []domain.Effect{paymentMenu(s.UserID)}, nil
}

func (e *Engine) handleChoosePayment(_ context.Context, s *domain.Session, ev domain.Event) ([]domain.Effect, error) {
	switch domain.PaymentMethod(ev.Arg) {
	case domain.PaymentCrypto:
		s.Stage = domain.StageSelectingCrypto
		return []domain.Effect{cryptoMenu(s.UserID)}, nil
	case domain.PaymentPayPal, domain.PaymentMailIn:
		s.PaymentMethod = domain.PaymentMethod(ev.Arg)
		s.Stage = domain.StageSelectingRegion
		return []domain.Effect{regionMenu(s.UserID)}, nil
	default:
		return []domain.Effect{
			domain.SendText{UserID: s.UserID, Text: "Pick one of the listed payment methods."},
			paymentMenu(s.UserID),
		}, nil
	}
}

func (e *Engine) handleChooseCrypto(_ context.Context, s *domain.Session, ev domain.Event) ([]domain.Effect, error) {
	coin := strings.TrimSpace(ev.Arg)
	if strings.EqualFold(coin, "other") {
		s.Stage = domain.StageAwaitingCryptoName
		return []domain.Effect{
			domain.SendText{UserID: s.UserID, Text: "Type the name of the coin you'd like to pay with."},
		}, nil
	}
	s.PaymentMethod = domain.PaymentCrypto
	s.CryptoCoin = coin
	s.Stage = domain.StageSelectingRegion
	return []domain.Effect{regionMenu(s.UserID)}, nil
}

func (e *Engine) handleCryptoName(_ context.Context, s *domain.Session, ev domain.Event) ([]domain.Effect, error) {
	coin := sanitizeText(ev.Arg)
	if coin == "" {
		return []domain.Effect{
			domain.SendText{UserID: s.UserID, Text: "Please type a coin name."},
		}, nil
	}
	s.PaymentMethod = domain.PaymentCrypto
	s.CryptoCoin = coin
	s.Stage = domain.StageSelectingRegion
	return []domain.Effect{regionMenu(s.UserID)}, nil
}

func (e *Engine) handleChooseRegion(_ context.Context, s *domain.Session, ev domain.Event) ([]domain.Effect, error) {
	region := domain.Region(ev.Arg)
	if region != domain.RegionDomestic && region != domain.RegionInternational {
		return []domain.Effect{
			domain.SendText{UserID: s.UserID, Text: "Pick one of the listed regions."},
			regionMenu(s.UserID),
		}, nil
	}
	s.ShippingRegion = region
	s.Stage = domain.StageAwaitingContact
	return []domain.Effect{contactPrompt(s.UserID)}, nil
}

func (e *Engine) handleContact(_ context.Context, s *domain.Session, ev domain.Event) ([]domain.Effect, error) {
	contact := sanitizeText(ev.Arg)
	if contact == "" {
		return []domain.Effect{
			domain.SendText{UserID: s.UserID, Text: "Please send a contact handle we can reach you at."},
		}, nil
	}
	s.ContactHandle = contact
	s.Stage = domain.StageConfirming
	quote := Price(s.TotalQuantity(), s.ShippingRegion, s.PaymentMethod)
	return []domain.Effect{orderSummary(s.UserID, s, quote, e.itemName)}, nil
}

func (e *Engine) handleConfirm(ctx context.Context, s *domain.Session, _ domain.Event) ([]domain.Effect, error) {
	quote := Price(s.TotalQuantity(), s.ShippingRegion, s.PaymentMethod)

	lines := make([]domain.OrderLine, 0, len(s.Cart))
	for _, cl := range s.Cart {
		lines = append(lines, domain.OrderLine{
			ItemID:   cl.ItemID,
			Name:     e.itemName(cl.ItemID),
			Quantity: cl.Quantity,
		})
	}

	o := &domain.Order{
		BuyerRef:       strings.ToLower(s.ContactHandle),
		ContactHandle:  s.ContactHandle,
		PaymentMethod:  s.PaymentMethod,
		ShippingRegion: s.ShippingRegion,
		Total:          quote.Total,
		Lines:          lines,
	}

	coin := s.CryptoCoin
	_, err := e.ledger.Insert(ctx, o)
	if errors.Is(err, domain.ErrDuplicateOrder) {
		return []domain.Effect{
			domain.SendText{UserID: s.UserID, Text: "You already have a pending order from the last 24 hours. We'll reach out about that one first."},
			e.menuForStage(s.UserID, s),
		}, nil
	}
	if err != nil {
		// Silent loss of a placed order is unacceptable; tell the user and
		// surface the error to the caller.
		return []domain.Effect{
			domain.SendText{UserID: s.UserID, Text: "Something went wrong recording your order. Nothing was charged, please try confirming again."},
		}, fmt.Errorf("confirm order for %s: %w", s.UserID, err)
	}

	s.Reset()
	return []domain.Effect{
		domain.SendText{UserID: s.UserID, Text: "Thanks! Your order has been sent for processing. We'll reach out shortly."},
		operatorNewOrder(o, coin),
	}, nil
}

func (e *Engine) handleCancel(_ context.Context, s *domain.Session, _ domain.Event) ([]domain.Effect, error) {
	s.ClearCheckout()
	return []domain.Effect{
		domain.SendText{UserID: s.UserID, Text: "Order cancelled, your cart has been cleared."},
		mainMenu(s.UserID),
	}, nil
}

func (e *Engine) itemName(id string) string {
	if it, err := e.catalog.Get(id); err == nil {
		return it.Name
	}
	return id
}

// sanitizeText strips free text down to a restricted character class so it
// can't inject markup or control characters into notification text.
func sanitizeText(text string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(text) {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '@' || r == '.' || r == '_' || r == '-' || r == ' ':
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}
