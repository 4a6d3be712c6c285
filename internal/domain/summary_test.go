package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil, DefaultShippingPolicy())
	if s.Count != 0 || s.Units != 0 {
		t.Errorf("expected zero counts, got count=%d units=%d", s.Count, s.Units)
	}
	if !s.Total.IsZero() {
		t.Errorf("empty collection must total zero, got %s", s.Total)
	}
	if !s.Shipping.IsZero() {
		t.Errorf("empty collection must not charge shipping, got %s", s.Shipping)
	}
}

func TestSummarize_BelowFreeShippingThreshold(t *testing.T) {
	items := []Item{cartItem("p1", 300, 2)}
	s := Summarize(items, DefaultShippingPolicy())

	if s.Count != 1 {
		t.Errorf("count = %d, want 1", s.Count)
	}
	if s.Units != 2 {
		t.Errorf("units = %d, want 2", s.Units)
	}
	if !s.Subtotal.Equal(decimal.NewFromInt(600)) {
		t.Errorf("subtotal = %s, want 600", s.Subtotal)
	}
	if !s.Shipping.Equal(decimal.NewFromInt(49)) {
		t.Errorf("shipping = %s, want 49", s.Shipping)
	}
	if !s.Total.Equal(decimal.NewFromInt(649)) {
		t.Errorf("total = %s, want 649", s.Total)
	}
}

func TestSummarize_FreeShippingAtThreshold(t *testing.T) {
	items := []Item{cartItem("p1", 999, 1)}
	s := Summarize(items, DefaultShippingPolicy())
	if !s.Shipping.IsZero() {
		t.Errorf("subtotal at threshold must ship free, got %s", s.Shipping)
	}
	if !s.Total.Equal(decimal.NewFromInt(999)) {
		t.Errorf("total = %s, want 999", s.Total)
	}
}

func TestSummarize_WishlistCountsSingleUnits(t *testing.T) {
	items := []Item{testItem("p1", 499), testItem("p2", 199)}
	s := Summarize(items, DefaultShippingPolicy())
	if s.Units != 2 {
		t.Errorf("units = %d, want 2", s.Units)
	}
	if !s.Subtotal.Equal(decimal.NewFromInt(698)) {
		t.Errorf("subtotal = %s, want 698", s.Subtotal)
	}
}
