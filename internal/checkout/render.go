package checkout

import (
	"fmt"
	"strconv"
	"strings"

	"clonedirect/internal/domain"
)

const welcomeText = "Welcome to Clone Direct! Browse elite cuts and build your order below."

const ageGateText = "You must be of legal age in your jurisdiction to order. Please confirm to continue."

const faqText = `Frequently Asked Questions

- Orders ship within 14 days of payment unless otherwise stated.
- Worldwide shipping.
- Cuts sourced from breeders, seed hunts, or trusted nurseries.
- 7-day satisfaction guarantee.
- 1 free reship allowed (then customer covers shipping).`

const pricingText = `Pricing:
- 1-2 cuts: 80 each
- 3+ cuts: 60 each

Shipping:
- Domestic: 40 (1-2 days)
- International: 100 (3-5 days)

PayPal fee: +5% (applies to total including shipping)`

func agePrompt(userID string) domain.Effect {
	return domain.SendChoices{
		UserID: userID,
		Prompt: ageGateText,
		Options: []domain.Choice{
			{Label: "I am of legal age", Kind: domain.EventConfirmAge},
		},
	}
}

func mainMenu(userID string) domain.Effect {
	return domain.SendChoices{
		UserID: userID,
		Prompt: welcomeText,
		Options: []domain.Choice{
			{Label: "View catalog", Kind: domain.EventBrowse},
			{Label: "View cart", Kind: domain.EventViewCart},
			{Label: "FAQ", Kind: domain.EventFAQ},
			{Label: "Pricing", Kind: domain.EventPricing},
		},
	}
}

func catalogMenu(userID string, items []domain.CatalogItem) domain.Effect {
	if len(items) == 0 {
		return domain.SendText{UserID: userID, Text: "The catalog is empty right now, check back soon."}
	}
	options := make([]domain.Choice, 0, len(items))
	for _, it := range items {
		options = append(options, domain.Choice{Label: it.Name, Kind: domain.EventSelectItem, Arg: it.ID})
	}
	return domain.SendChoices{UserID: userID, Prompt: "Select a cut to view details:", Options: options}
}

func itemDetail(userID string, it *domain.CatalogItem) domain.Effect {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\nGenetics: %s\n", it.Name, it.Lineage)
	if it.Breeder != "" {
		fmt.Fprintf(&b, "Breeder: %s\n", it.Breeder)
	}
	if it.Notes != "" {
		fmt.Fprintf(&b, "\n%s\n", it.Notes)
	}
	if it.BreederURL != "" {
		fmt.Fprintf(&b, "\nBreeder info: %s", it.BreederURL)
	}

	choices := []domain.Choice{
		{Label: "Add to cart", Kind: domain.EventRequestAdd},
		{Label: "Back to menu", Kind: domain.EventBrowse},
	}
	if it.ImageURL != "" {
		return domain.SendMedia{UserID: userID, MediaRef: it.ImageURL, Caption: b.String(), Choices: choices}
	}
	return domain.SendChoices{UserID: userID, Prompt: b.String(), Options: choices}
}

func quantityPrompt(userID string) domain.Effect {
	return domain.SendText{UserID: userID, Text: "How many would you like to add?\n\n" + pricingText}
}

func addedToCart(userID, itemName string, quantity int) domain.Effect {
	return domain.SendChoices{
		UserID: userID,
		Prompt: fmt.Sprintf("Added %s x%d to your cart.", itemName, quantity),
		Options: []domain.Choice{
			{Label: "View cart", Kind: domain.EventViewCart},
			{Label: "Back to menu", Kind: domain.EventBrowse},
		},
	}
}

func cartView(userID string, s *domain.Session, itemName func(string) string) domain.Effect {
	if len(s.Cart) == 0 {
		return domain.SendChoices{
			UserID: userID,
			Prompt: "Your cart is empty.",
			Options: []domain.Choice{
				{Label: "View catalog", Kind: domain.EventBrowse},
			},
		}
	}

	var b strings.Builder
	b.WriteString("Your cart:\n")
	for i, line := range s.Cart {
		fmt.Fprintf(&b, "%d. %s x%d\n", i+1, itemName(line.ItemID), line.Quantity)
	}

	options := []domain.Choice{
		{Label: "Finalize order", Kind: domain.EventFinalize},
	}
	for i, line := range s.Cart {
		options = append(options, domain.Choice{
			Label: "Remove " + itemName(line.ItemID),
			Kind:  domain.EventRemoveLine,
			Arg:   strconv.Itoa(i + 1),
		})
	}
	options = append(options, domain.Choice{Label: "Back to menu", Kind: domain.EventBrowse})

	return domain.SendChoices{UserID: userID, Prompt: b.String(), Options: options}
}

func paymentMenu(userID string) domain.Effect {
	return domain.SendChoices{
		UserID: userID,
		Prompt: "Choose a payment method:",
		Options: []domain.Choice{
			{Label: "Crypto", Kind: domain.EventPayment, Arg: string(domain.PaymentCrypto)},
			{Label: "PayPal", Kind: domain.EventPayment, Arg: string(domain.PaymentPayPal)},
			{Label: "Mail-in", Kind: domain.EventPayment, Arg: string(domain.PaymentMailIn)},
		},
	}
}

func cryptoMenu(userID string) domain.Effect {
	return domain.SendChoices{
		UserID: userID,
		Prompt: "Which coin?",
		Options: []domain.Choice{
			{Label: "BTC", Kind: domain.EventCrypto, Arg: "BTC"},
			{Label: "ETH", Kind: domain.EventCrypto, Arg: "ETH"},
			{Label: "XMR", Kind: domain.EventCrypto, Arg: "XMR"},
			{Label: "Other", Kind: domain.EventCrypto, Arg: "other"},
		},
	}
}

func regionMenu(userID string) domain.Effect {
	return domain.SendChoices{
		UserID: userID,
		Prompt: "Where are we shipping?",
		Options: []domain.Choice{
			{Label: "USA", Kind: domain.EventRegion, Arg: string(domain.RegionDomestic)},
			{Label: "International", Kind: domain.EventRegion, Arg: string(domain.RegionInternational)},
		},
	}
}

func contactPrompt(userID string) domain.Effect {
	return domain.SendText{UserID: userID, Text: "Almost done. What's your contact handle (e.g. your IG)?"}
}

func orderSummary(userID string, s *domain.Session, q Quote, itemName func(string) string) domain.Effect {
	var b strings.Builder
	b.WriteString("Order summary:\n")
	for _, line := range s.Cart {
		fmt.Fprintf(&b, "- %s x%d\n", itemName(line.ItemID), line.Quantity)
	}
	fmt.Fprintf(&b, "\nSubtotal: %s (%d x %s)\n", q.Subtotal.StringFixed(2), q.Quantity, q.UnitPrice.StringFixed(2))
	fmt.Fprintf(&b, "Shipping: %s\n", q.Shipping.StringFixed(2))
	if q.Surcharge.IsPositive() {
		fmt.Fprintf(&b, "PayPal fee: %s\n", q.Surcharge.StringFixed(2))
	}
	fmt.Fprintf(&b, "Total: %s\n", q.Total.StringFixed(2))
	fmt.Fprintf(&b, "\nPayment: %s", paymentLabel(s))
	fmt.Fprintf(&b, "\nShipping region: %s", s.ShippingRegion)
	fmt.Fprintf(&b, "\nContact: %s", s.ContactHandle)

	return domain.SendChoices{
		UserID: userID,
		Prompt: b.String(),
		Options: []domain.Choice{
			{Label: "Confirm order", Kind: domain.EventConfirm},
			{Label: "Cancel", Kind: domain.EventCancel},
		},
	}
}

func paymentLabel(s *domain.Session) string {
	if s.PaymentMethod == domain.PaymentCrypto && s.CryptoCoin != "" {
		return fmt.Sprintf("%s (%s)", s.PaymentMethod, s.CryptoCoin)
	}
	return string(s.PaymentMethod)
}

func operatorNewOrder(o *domain.Order, coin string) domain.Effect {
	var b strings.Builder
	fmt.Fprintf(&b, "New order #%d from %s\n", o.ID, o.ContactHandle)
	fmt.Fprintf(&b, "Payment: %s", o.PaymentMethod)
	if coin != "" {
		fmt.Fprintf(&b, " (%s)", coin)
	}
	fmt.Fprintf(&b, "\nRegion: %s\nTotal: %s\nItems:\n", o.ShippingRegion, o.Total.StringFixed(2))
	for _, line := range o.Lines {
		fmt.Fprintf(&b, "- %s x%d\n", line.Name, line.Quantity)
	}
	return domain.NotifyOperator{Text: b.String()}
}

// menuForStage re-displays the prompt that was valid before an error so the
// user always lands back on a usable menu.
func (e *Engine) menuForStage(userID string, s *domain.Session) domain.Effect {
	switch s.Stage {
	case domain.StageBrowsing:
		return mainMenu(userID)
	case domain.StageAwaitingQuantity:
		return quantityPrompt(userID)
	case domain.StageSelectingPayment:
		return paymentMenu(userID)
	case domain.StageSelectingCrypto:
		return cryptoMenu(userID)
	case domain.StageAwaitingCryptoName:
		return domain.SendText{UserID: userID, Text: "Type the name of the coin you'd like to pay with."}
	case domain.StageSelectingRegion:
		return regionMenu(userID)
	case domain.StageAwaitingContact:
		return contactPrompt(userID)
	case domain.StageConfirming:
		return orderSummary(userID, s, Price(s.TotalQuantity(), s.ShippingRegion, s.PaymentMethod), e.itemName)
	default:
		return agePrompt(userID)
	}
}
