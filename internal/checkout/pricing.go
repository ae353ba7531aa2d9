package checkout

import (
	"clonedirect/internal/domain"
	"github.com/shopspring/decimal"
)

// Price tiers and flat rates. Amounts are currency-less decimals.
var (
	unitPriceStandard = decimal.NewFromInt(80)
	unitPriceBulk     = decimal.NewFromInt(60)
	shippingDomestic  = decimal.NewFromInt(40)
	shippingIntl      = decimal.NewFromInt(100)

	// 5% of (subtotal + shipping), applied to PayPal only.
	paypalFeeRate = decimal.New(5, -2)
)

// bulkThreshold is the total cart quantity at which the lower unit price
// kicks in.
const bulkThreshold = 3

// Quote is the price breakdown for a cart at submission time.
type Quote struct {
	Quantity  int
	UnitPrice decimal.Decimal
	Subtotal  decimal.Decimal
	Shipping  decimal.Decimal
	Surcharge decimal.Decimal
	Total     decimal.Decimal
}

// Price computes the deterministic quote for a total cart quantity, shipping
// region, and payment method.
func Price(totalQuantity int, region domain.Region, method domain.PaymentMethod) Quote {
	unit := unitPriceStandard
	if totalQuantity >= bulkThreshold {
		unit = unitPriceBulk
	}

	subtotal := unit.Mul(decimal.NewFromInt(int64(totalQuantity)))

	shipping := shippingDomestic
	if region == domain.RegionInternational {
		shipping = shippingIntl
	}

	surcharge := decimal.Zero
	if method == domain.PaymentPayPal {
		surcharge = subtotal.Add(shipping).Mul(paypalFeeRate)
	}

	return Quote{
		Quantity:  totalQuantity,
		UnitPrice: unit,
		Subtotal:  subtotal,
		Shipping:  shipping,
		Surcharge: surcharge,
		Total:     subtotal.Add(shipping).Add(surcharge),
	}
}
