package localstore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/renmeer/cartsync/internal/domain"
	"github.com/shopspring/decimal"
)

func TestReadWrite_RoundTrip(t *testing.T) {
	store := New(t.TempDir())

	orig := decimal.NewFromInt(799)
	items := []domain.Item{
		{ID: "p1", Name: "Sneakers", Price: decimal.NewFromInt(499), OriginalPrice: &orig, Size: "42"},
		{ID: "p2", Name: "Hoodie", Price: decimal.NewFromInt(299), Quantity: 2},
	}
	store.Write(domain.KindCart, items)

	got := store.Read(domain.KindCart)
	if len(got) != 2 {
		t.Fatalf("expected 2 items, got %d", len(got))
	}
	byID := map[string]domain.Item{}
	for _, it := range got {
		byID[it.ID] = it
	}
	p1, ok := byID["p1"]
	if !ok {
		t.Fatal("p1 missing after round trip")
	}
	if !p1.Price.Equal(decimal.NewFromInt(499)) {
		t.Errorf("p1 price = %s, want 499", p1.Price)
	}
	if p1.OriginalPrice == nil || !p1.OriginalPrice.Equal(orig) {
		t.Errorf("p1 original price lost: %v", p1.OriginalPrice)
	}
	if byID["p2"].Quantity != 2 {
		t.Errorf("p2 quantity = %d, want 2", byID["p2"].Quantity)
	}
}

func TestRead_MissingSnapshot(t *testing.T) {
	store := New(t.TempDir())

	got := store.Read(domain.KindWishlist)
	if got == nil {
		t.Fatal("Read must return a non-nil empty slice")
	}
	if len(got) != 0 {
		t.Errorf("expected empty collection, got %d items", len(got))
	}
}

func TestRead_MalformedSnapshot(t *testing.T) {
	dir := t.TempDir()
	store := New(dir)

	path := filepath.Join(dir, domain.KindWishlist.StorageKey()+".json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("failed to plant malformed snapshot: %v", err)
	}

	got := store.Read(domain.KindWishlist)
	if len(got) != 0 {
		t.Errorf("malformed snapshot must read as empty, got %d items", len(got))
	}
}

func TestRead_ForeignValue(t *testing.T) {
	dir := t.TempDir()
	store := New(dir)

	// Valid JSON, wrong shape.
	path := filepath.Join(dir, domain.KindCart.StorageKey()+".json")
	if err := os.WriteFile(path, []byte(`{"hello":"world"}`), 0o644); err != nil {
		t.Fatalf("failed to plant foreign value: %v", err)
	}

	if got := store.Read(domain.KindCart); len(got) != 0 {
		t.Errorf("foreign value must read as empty, got %d items", len(got))
	}
}

func TestWrite_Overwrites(t *testing.T) {
	store := New(t.TempDir())

	store.Write(domain.KindCart, []domain.Item{{ID: "p1", Name: "A", Price: decimal.NewFromInt(1), Quantity: 1}})
	store.Write(domain.KindCart, []domain.Item{{ID: "p2", Name: "B", Price: decimal.NewFromInt(2), Quantity: 1}})

	got := store.Read(domain.KindCart)
	if len(got) != 1 || got[0].ID != "p2" {
		t.Errorf("expected snapshot replaced with [p2], got %v", got)
	}
}

func TestWrite_FailureDoesNotPanic(t *testing.T) {
	// Point the store at a path that cannot be a directory.
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatalf("setup failed: %v", err)
	}
	store := New(filepath.Join(blocker, "nested"))

	store.Write(domain.KindCart, []domain.Item{{ID: "p1", Name: "A", Price: decimal.NewFromInt(1), Quantity: 1}})

	if got := store.Read(domain.KindCart); len(got) != 0 {
		t.Errorf("expected empty read after failed write, got %v", got)
	}
}

func TestClear(t *testing.T) {
	store := New(t.TempDir())
	store.Write(domain.KindWishlist, []domain.Item{{ID: "p1", Name: "A", Price: decimal.NewFromInt(1)}})
	store.Clear(domain.KindWishlist)

	if got := store.Read(domain.KindWishlist); len(got) != 0 {
		t.Errorf("expected empty after clear, got %d items", len(got))
	}
	// Clearing an absent snapshot is a no-op.
	store.Clear(domain.KindWishlist)
}
