package cart

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/imrishuroy/go-pos-orderflow/internal/pos"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

var (
	burger = pos.Item{ID: 1, Name: "Chicken Burger", Price: dec("250.00")}
	fries  = pos.Item{ID: 2, Name: "French Fries", Price: dec("120.50")}
	cola   = pos.Item{ID: 3, Name: "Cola", Price: dec("60")}
)

func TestAddItem_SameIDMergesIntoOneLine(t *testing.T) {
	for _, n := range []int{1, 2, 7} {
		c := New()
		for i := 0; i < n; i++ {
			c = c.AddItem(burger)
		}
		if c.Len() != 1 {
			t.Fatalf("n=%d: expected 1 line, got %d", n, c.Len())
		}
		l, ok := c.Line(burger.ID)
		if !ok {
			t.Fatalf("n=%d: line missing", n)
		}
		if l.Quantity != n {
			t.Fatalf("n=%d: expected quantity %d, got %d", n, n, l.Quantity)
		}
	}
}

func TestAddItem_PreservesInsertionOrder(t *testing.T) {
	c := New().AddItem(fries).AddItem(burger).AddItem(fries).AddItem(cola)
	lines := c.Lines()
	want := []int64{fries.ID, burger.ID, cola.ID}
	if len(lines) != len(want) {
		t.Fatalf("expected %d lines, got %d", len(want), len(lines))
	}
	for i, id := range want {
		if lines[i].Item.ID != id {
			t.Fatalf("position %d: expected id %d, got %d", i, id, lines[i].Item.ID)
		}
	}
	if c.Units() != 4 {
		t.Fatalf("expected 4 units, got %d", c.Units())
	}
}

func TestMutatorsDoNotChangeReceiver(t *testing.T) {
	before := New().AddItem(burger)
	_ = before.AddItem(burger)
	_ = before.IncrementQuantity(burger.ID)
	_ = before.RemoveItem(burger.ID)
	_ = before.SetDiscount(dec("10"))

	l, _ := before.Line(burger.ID)
	if l.Quantity != 1 || before.Len() != 1 || !before.DiscountPercent.IsZero() {
		t.Fatalf("receiver mutated: %+v discount=%s", before.Lines(), before.DiscountPercent)
	}

	lines := before.Lines()
	lines[0].Quantity = 99
	if l, _ := before.Line(burger.ID); l.Quantity != 1 {
		t.Fatal("Lines() leaked internal slice")
	}
}

func TestIncrementQuantity(t *testing.T) {
	c := New().AddItem(burger).IncrementQuantity(burger.ID).IncrementQuantity(burger.ID)
	if l, _ := c.Line(burger.ID); l.Quantity != 3 {
		t.Fatalf("expected quantity 3, got %d", l.Quantity)
	}

	same := c.IncrementQuantity(404)
	if same.Len() != 1 || same.Units() != 3 {
		t.Fatalf("unknown id should be a no-op, got %+v", same.Lines())
	}
}

func TestDecrementQuantity_RemovesAtZero(t *testing.T) {
	c := New().AddItem(burger).AddItem(burger).AddItem(fries)

	c = c.DecrementQuantity(burger.ID)
	if l, _ := c.Line(burger.ID); l.Quantity != 1 {
		t.Fatalf("expected quantity 1, got %d", l.Quantity)
	}

	c = c.DecrementQuantity(burger.ID)
	if _, ok := c.Line(burger.ID); ok {
		t.Fatal("line with quantity 0 must be removed")
	}
	if c.Len() != 1 {
		t.Fatalf("expected 1 remaining line, got %d", c.Len())
	}

	for _, l := range c.Lines() {
		if l.Quantity <= 0 {
			t.Fatalf("observed non-positive quantity: %+v", l)
		}
	}

	if c.DecrementQuantity(404).Len() != 1 {
		t.Fatal("unknown id should be a no-op")
	}
}

func TestRemoveItem_Unconditional(t *testing.T) {
	c := New().AddItem(burger).AddItem(burger).AddItem(burger).AddItem(cola)
	c = c.RemoveItem(burger.ID)
	if _, ok := c.Line(burger.ID); ok {
		t.Fatal("expected burger removed")
	}
	if c.Len() != 1 {
		t.Fatalf("expected 1 line, got %d", c.Len())
	}
	if c.RemoveItem(404).Len() != 1 {
		t.Fatal("unknown id should be a no-op")
	}
}

func TestComputeTotals(t *testing.T) {
	c := New().AddItem(burger).AddItem(burger).AddItem(fries).SetDiscount(dec("10"))
	got := c.ComputeTotals(decimal.Zero)

	// 2*250 + 120.50 = 620.50; 10% = 62.05
	if !got.Subtotal.Equal(dec("620.50")) {
		t.Fatalf("subtotal: expected 620.50, got %s", got.Subtotal)
	}
	if !got.DiscountAmount.Equal(dec("62.05")) {
		t.Fatalf("discount: expected 62.05, got %s", got.DiscountAmount)
	}
	if !got.Total.Equal(dec("558.45")) {
		t.Fatalf("total: expected 558.45, got %s", got.Total)
	}
}

func TestComputeTotals_DeliveryCharge(t *testing.T) {
	c := New().AddItem(cola)
	got := c.ComputeTotals(dec("30"))
	if !got.Total.Equal(dec("90")) {
		t.Fatalf("expected 90, got %s", got.Total)
	}
	if !got.DeliveryCharge.Equal(dec("30")) {
		t.Fatalf("expected delivery 30, got %s", got.DeliveryCharge)
	}
}

func TestComputeTotals_NoMidComputationRounding(t *testing.T) {
	c := New().AddItem(pos.Item{ID: 9, Name: "Tea", Price: dec("0.333")}).IncrementQuantity(9).IncrementQuantity(9)
	c = c.SetDiscount(dec("12.5"))
	got := c.ComputeTotals(decimal.Zero)
	// 0.999 * 12.5 / 100 = 0.124875
	if !got.DiscountAmount.Equal(dec("0.124875")) {
		t.Fatalf("expected unrounded discount 0.124875, got %s", got.DiscountAmount)
	}
	if pos.FormatMoney(got.Total) != "0.87" {
		t.Fatalf("expected display total 0.87, got %s", pos.FormatMoney(got.Total))
	}
}

func TestComputeTotals_UnboundedDiscountPassesThrough(t *testing.T) {
	c := New().AddItem(cola)

	neg := c.SetDiscount(dec("-10")).ComputeTotals(decimal.Zero)
	if !neg.Total.Equal(dec("66")) {
		t.Fatalf("negative discount: expected 66, got %s", neg.Total)
	}

	over := c.SetDiscount(dec("150")).ComputeTotals(decimal.Zero)
	if !over.Total.Equal(dec("-30")) {
		t.Fatalf("discount over 100: expected -30, got %s", over.Total)
	}
}

func TestComputeTotals_OrderIndependent(t *testing.T) {
	a := New().AddItem(burger).AddItem(fries).AddItem(fries).AddItem(cola).RemoveItem(cola.ID)
	b := New().AddItem(fries).AddItem(cola).AddItem(burger).IncrementQuantity(fries.ID).DecrementQuantity(cola.ID)

	ta := a.SetDiscount(dec("5")).ComputeTotals(decimal.Zero)
	tb := b.SetDiscount(dec("5")).ComputeTotals(decimal.Zero)
	if !ta.Subtotal.Equal(tb.Subtotal) || !ta.DiscountAmount.Equal(tb.DiscountAmount) || !ta.Total.Equal(tb.Total) {
		t.Fatalf("totals differ: %+v vs %+v", ta, tb)
	}
}

func TestClear_ResetsDiscount(t *testing.T) {
	c := New().AddItem(burger).SetDiscount(dec("20")).Clear()
	if !c.IsEmpty() {
		t.Fatal("expected empty cart")
	}
	if !c.DiscountPercent.IsZero() {
		t.Fatalf("expected discount reset, got %s", c.DiscountPercent)
	}
	got := c.ComputeTotals(dec("15"))
	if !got.Subtotal.IsZero() || !got.Total.Equal(dec("15")) {
		t.Fatalf("unexpected totals after clear: %+v", got)
	}
}

func TestEqual(t *testing.T) {
	a := New().AddItem(burger).AddItem(cola).SetDiscount(dec("10"))
	if !a.Equal(New().AddItem(burger).AddItem(cola).SetDiscount(dec("10.0"))) {
		t.Fatal("same lines and discount must be equal")
	}
	if a.Equal(a.AddItem(cola)) {
		t.Fatal("different quantity must not be equal")
	}
	if a.Equal(New().AddItem(cola).AddItem(burger).SetDiscount(dec("10"))) {
		t.Fatal("different order must not be equal")
	}
	if a.Equal(a.SetDiscount(dec("5"))) {
		t.Fatal("different discount must not be equal")
	}
	if !New().Equal(a.Clear()) {
		t.Fatal("cleared cart must equal an empty one")
	}
}
