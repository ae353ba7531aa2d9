package domain

// EventKind identifies an inbound user action. Text-triggered and
// choice-triggered transport inputs map onto the same kinds before reaching
// the core.
type EventKind string

const (
	EventStart      EventKind = "start"
	EventConfirmAge EventKind = "confirm_age"
	EventBrowse     EventKind = "browse"
	EventFAQ        EventKind = "faq"
	EventPricing    EventKind = "pricing"
	EventSelectItem EventKind = "select_item"
	EventRequestAdd EventKind = "request_add"
	EventViewCart   EventKind = "view_cart"
	EventRemoveLine EventKind = "remove_line"
	EventFinalize   EventKind = "finalize"
	EventPayment    EventKind = "choose_payment"
	EventCrypto     EventKind = "choose_crypto"
	EventRegion     EventKind = "choose_region"
	EventConfirm    EventKind = "confirm"
	EventCancel     EventKind = "cancel"

	// EventText carries free text whose meaning depends on the current
	// stage (quantity, contact handle, coin name).
	EventText EventKind = "text"

	// Operator-only commands.
	EventAdminOrders   EventKind = "admin_orders"
	EventAdminComplete EventKind = "admin_complete"
	EventAdminDelete   EventKind = "admin_delete"
	EventAdminExport   EventKind = "admin_export"
	EventAdminRemind   EventKind = "admin_remind"
)

// Event is a normalized inbound action consumed by the core.
type Event struct {
	UserID string    `json:"user_id"`
	Kind   EventKind `json:"kind"`
	Arg    string    `json:"arg,omitempty"`
}
