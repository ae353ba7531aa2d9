package domain

import "time"

// Stage is the position of a session in the checkout flow.
type Stage string

const (
	StageUnconfirmedAge     Stage = "unconfirmed_age"
	StageBrowsing           Stage = "browsing"
	StageAwaitingQuantity   Stage = "awaiting_quantity"
	StageSelectingPayment   Stage = "selecting_payment"
	StageSelectingCrypto    Stage = "selecting_crypto"
	StageAwaitingCryptoName Stage = "awaiting_crypto_name"
	StageSelectingRegion    Stage = "selecting_region"
	StageAwaitingContact    Stage = "awaiting_contact"
	StageConfirming         Stage = "confirming"
)

// PaymentMethod is how the buyer intends to pay.
type PaymentMethod string

const (
	PaymentCrypto PaymentMethod = "crypto"
	PaymentPayPal PaymentMethod = "paypal"
	PaymentMailIn PaymentMethod = "mail-in"
)

// Region is the shipping destination class.
type Region string

const (
	RegionDomestic      Region = "domestic"
	RegionInternational Region = "international"
)

// CartLine is one item/quantity pair in a session cart. Insertion order is
// preserved for display only.
type CartLine struct {
	ItemID   string `json:"itemId"`
	Quantity int    `json:"quantity"`
}

// Session is the per-user in-progress conversation and checkout state.
// PendingItemID is set only while Stage == StageAwaitingQuantity.
type Session struct {
	UserID         string        `json:"userId"`
	Cart           []CartLine    `json:"cart,omitempty"`
	Stage          Stage         `json:"stage"`
	PendingItemID  string        `json:"pendingItemId,omitempty"`
	PaymentMethod  PaymentMethod `json:"paymentMethod,omitempty"`
	CryptoCoin     string        `json:"cryptoCoin,omitempty"`
	ShippingRegion Region        `json:"shippingRegion,omitempty"`
	ContactHandle  string        `json:"contactHandle,omitempty"`
	AgeConfirmed   bool          `json:"ageConfirmed"`
	LastActivityAt time.Time     `json:"-"`
}

// NewSession returns a fresh session for userID with the age gate closed.
func NewSession(userID string) *Session {
	return &Session{UserID: userID, Stage: StageUnconfirmedAge}
}

// Reset returns the session to its fresh post-submission state.
func (s *Session) Reset() {
	*s = Session{UserID: s.UserID, Stage: StageUnconfirmedAge, LastActivityAt: s.LastActivityAt}
}

// ClearCheckout discards the cart and all checkout progress, keeping the
// age confirmation so the user lands back in browsing.
func (s *Session) ClearCheckout() {
	s.Cart = nil
	s.Stage = StageBrowsing
	s.PendingItemID = ""
	s.PaymentMethod = ""
	s.CryptoCoin = ""
	s.ShippingRegion = ""
	s.ContactHandle = ""
}

// AddLine merges quantity into an existing line for itemID or appends a new
// line. Quantities for the same item add up rather than duplicate the line.
func (s *Session) AddLine(itemID string, quantity int) {
	for i := range s.Cart {
		if s.Cart[i].ItemID == itemID {
			s.Cart[i].Quantity += quantity
			return
		}
	}
	s.Cart = append(s.Cart, CartLine{ItemID: itemID, Quantity: quantity})
}

// RemoveLine removes the line at the zero-based index. Out-of-range indexes
// are a no-op and return false.
func (s *Session) RemoveLine(index int) bool {
	if index < 0 || index >= len(s.Cart) {
		return false
	}
	s.Cart = append(s.Cart[:index], s.Cart[index+1:]...)
	return true
}

// TotalQuantity is the sum of all line quantities.
func (s *Session) TotalQuantity() int {
	total := 0
	for _, line := range s.Cart {
		total += line.Quantity
	}
	return total
}
