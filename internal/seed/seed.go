package seed

import (
	"context"
	"encoding/json"
	"fmt"

	"clonedirect/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type orderSeed struct {
	BuyerRef       string
	ContactHandle  string
	PaymentMethod  domain.PaymentMethod
	ShippingRegion domain.Region
	Total          decimal.Decimal
	Lines          []domain.OrderLine
}

// Apply inserts demo pending orders for manual testing of the operator
// commands. It is idempotent: a buyer with a pending order is not seeded
// again.
func Apply(ctx context.Context, pool *pgxpool.Pool) error {
	orders := []orderSeed{
		{
			BuyerRef:       "@demo_buyer_one",
			ContactHandle:  "@demo_buyer_one",
			PaymentMethod:  domain.PaymentCrypto,
			ShippingRegion: domain.RegionDomestic,
			Total:          decimal.NewFromInt(200),
			Lines: []domain.OrderLine{
				{ItemID: "apple-fritter", Name: "Apple Fritter", Quantity: 2},
			},
		},
		{
			BuyerRef:       "@demo_buyer_two",
			ContactHandle:  "@demo_buyer_two",
			PaymentMethod:  domain.PaymentPayPal,
			ShippingRegion: domain.RegionInternational,
			Total:          decimal.RequireFromString("283.50"),
			Lines: []domain.OrderLine{
				{ItemID: "sour-tropicookies", Name: "Sour Tropicookies", Quantity: 1},
				{ItemID: "apple-fritter", Name: "Apple Fritter", Quantity: 1},
			},
		},
	}

	for _, o := range orders {
		if err := insertOrder(ctx, pool, o); err != nil {
			return fmt.Errorf("seed order for %s: %w", o.BuyerRef, err)
		}
	}
	return nil
}

func insertOrder(ctx context.Context, pool *pgxpool.Pool, o orderSeed) error {
	lines, err := json.Marshal(o.Lines)
	if err != nil {
		return err
	}

	const q = `
INSERT INTO orders (buyer_ref, contact_handle, payment_method, shipping_region, total, line_items, status)
SELECT $1, $2, $3, $4, $5::numeric, $6, 'pending'
WHERE NOT EXISTS (
    SELECT 1 FROM orders WHERE buyer_ref = $1 AND status = 'pending'
)
`
	_, err = pool.Exec(ctx, q,
		o.BuyerRef, o.ContactHandle, string(o.PaymentMethod), string(o.ShippingRegion),
		o.Total.StringFixed(2), lines)
	return err
}
