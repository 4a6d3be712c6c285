package domain

import (
	"errors"

	"github.com/shopspring/decimal"
)

var (
	ErrItemIDRequired     = errors.New("item id is required")
	ErrItemNameRequired   = errors.New("item name is required")
	ErrItemPriceNegative  = errors.New("item price must not be negative")
	ErrQuantityOutOfRange = errors.New("quantity must be between 1 and 10")
)

// Quantity bounds for a single cart line
const (
	MinQuantity = 1
	MaxQuantity = 10
)

// Item is a product snapshot held in a cart or wishlist. Display fields are
// denormalized at add time so the collection renders without a product lookup.
type Item struct {
	ID            string           `json:"id"`
	Name          string           `json:"name"`
	Price         decimal.Decimal  `json:"price"`
	OriginalPrice *decimal.Decimal `json:"originalPrice,omitempty"`
	Image         string           `json:"image,omitempty"`
	Size          string           `json:"size,omitempty"`
	Color         string           `json:"color,omitempty"`
	Quantity      int              `json:"quantity,omitempty"`
}

// Validate checks the snapshot fields. Cart lines additionally require an
// in-range quantity; wishlist entries carry no quantity.
func (i *Item) Validate(kind Kind) error {
	if i.ID == "" {
		return ErrItemIDRequired
	}
	if i.Name == "" {
		return ErrItemNameRequired
	}
	if i.Price.IsNegative() {
		return ErrItemPriceNegative
	}
	if kind == KindCart {
		if i.Quantity < MinQuantity || i.Quantity > MaxQuantity {
			return ErrQuantityOutOfRange
		}
	}
	return nil
}

// LineTotal returns price times quantity. Entries without a quantity
// (wishlist) count as a single unit.
func (i *Item) LineTotal() decimal.Decimal {
	qty := i.Quantity
	if qty < MinQuantity {
		qty = MinQuantity
	}
	return i.Price.Mul(decimal.NewFromInt(int64(qty)))
}
