package domain

import "github.com/shopspring/decimal"

// ShippingPolicy computes the shipping line of a summary. Orders whose
// subtotal reaches FreeThreshold ship for free, everything below pays Fee.
type ShippingPolicy struct {
	FreeThreshold decimal.Decimal
	Fee           decimal.Decimal
}

// DefaultShippingPolicy mirrors the storefront defaults.
func DefaultShippingPolicy() ShippingPolicy {
	return ShippingPolicy{
		FreeThreshold: decimal.NewFromInt(999),
		Fee:           decimal.NewFromInt(49),
	}
}

// Summary is derived from a collection's items, never stored. Count always
// equals the number of entries.
type Summary struct {
	Count    int             `json:"count"`
	Units    int             `json:"units"`
	Subtotal decimal.Decimal `json:"subtotal"`
	Shipping decimal.Decimal `json:"shipping"`
	Total    decimal.Decimal `json:"total"`
}

// Summarize recomputes the summary for items under the given policy.
func Summarize(items []Item, policy ShippingPolicy) Summary {
	s := Summary{
		Count:    len(items),
		Subtotal: decimal.Zero,
		Shipping: decimal.Zero,
	}
	for i := range items {
		qty := items[i].Quantity
		if qty < MinQuantity {
			qty = MinQuantity
		}
		s.Units += qty
		s.Subtotal = s.Subtotal.Add(items[i].LineTotal())
	}
	if s.Count > 0 && s.Subtotal.LessThan(policy.FreeThreshold) {
		s.Shipping = policy.Fee
	}
	s.Total = s.Subtotal.Add(s.Shipping)
	return s
}
