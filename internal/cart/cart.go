// Package cart holds the working set of order lines for one counter session.
//
// A Cart is a value: every mutator returns a new Cart and leaves the receiver untouched,
// so the owner of a session can keep, compare or discard previous states freely.
// Totals are never stored; ComputeTotals derives them from the lines on every call.
package cart

import (
	"slices"

	"github.com/shopspring/decimal"

	"github.com/imrishuroy/go-pos-orderflow/internal/pos"
)

var hundred = decimal.NewFromInt(100)

// Line is one catalog item and its quantity. Quantity is always >= 1.
type Line struct {
	Item     pos.Item
	Quantity int
}

// Amount is price x quantity, unrounded.
func (l Line) Amount() decimal.Decimal {
	return l.Item.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart is an ordered set of lines keyed by item id plus a discount percentage.
// The discount is not clamped; values outside [0, 100] flow into the totals as-is.
type Cart struct {
	lines           []Line
	DiscountPercent decimal.Decimal
}

// Totals are the derived amounts of a cart.
type Totals struct {
	Subtotal       decimal.Decimal
	DiscountAmount decimal.Decimal
	DeliveryCharge decimal.Decimal
	Total          decimal.Decimal
}

// New returns an empty cart.
func New() Cart {
	return Cart{}
}

// Lines returns a copy of the lines in insertion order.
func (c Cart) Lines() []Line {
	return slices.Clone(c.lines)
}

// Len is the number of distinct items.
func (c Cart) Len() int { return len(c.lines) }

// IsEmpty reports whether the cart has no lines.
func (c Cart) IsEmpty() bool { return len(c.lines) == 0 }

// Units is the sum of all quantities.
func (c Cart) Units() int {
	n := 0
	for _, l := range c.lines {
		n += l.Quantity
	}
	return n
}

// Line returns the line for id.
func (c Cart) Line(id int64) (Line, bool) {
	if i := c.index(id); i >= 0 {
		return c.lines[i], true
	}
	return Line{}, false
}

func (c Cart) index(id int64) int {
	return slices.IndexFunc(c.lines, func(l Line) bool { return l.Item.ID == id })
}

// AddItem merges item into the cart: an existing line gains one unit, otherwise a new
// line with quantity 1 is appended.
func (c Cart) AddItem(item pos.Item) Cart {
	out := c.clone()
	if i := out.index(item.ID); i >= 0 {
		out.lines[i].Quantity++
		return out
	}
	out.lines = append(out.lines, Line{Item: item, Quantity: 1})
	return out
}

// IncrementQuantity adds one unit to the line for id. Unknown ids are ignored.
func (c Cart) IncrementQuantity(id int64) Cart {
	i := c.index(id)
	if i < 0 {
		return c
	}
	out := c.clone()
	out.lines[i].Quantity++
	return out
}

// DecrementQuantity removes one unit from the line for id and drops the line when it
// reaches zero. Unknown ids are ignored.
func (c Cart) DecrementQuantity(id int64) Cart {
	i := c.index(id)
	if i < 0 {
		return c
	}
	if c.lines[i].Quantity <= 1 {
		return c.RemoveItem(id)
	}
	out := c.clone()
	out.lines[i].Quantity--
	return out
}

// RemoveItem drops the line for id regardless of its quantity.
func (c Cart) RemoveItem(id int64) Cart {
	i := c.index(id)
	if i < 0 {
		return c
	}
	out := c.clone()
	out.lines = slices.Delete(out.lines, i, i+1)
	return out
}

// SetDiscount replaces the discount percentage.
func (c Cart) SetDiscount(percent decimal.Decimal) Cart {
	out := c.clone()
	out.DiscountPercent = percent
	return out
}

// Clear returns an empty cart with no discount.
func (c Cart) Clear() Cart {
	return New()
}

// ComputeTotals derives subtotal, discount and total. deliveryCharge is supplied by the
// caller because it is not part of cart state.
func (c Cart) ComputeTotals(deliveryCharge decimal.Decimal) Totals {
	subtotal := decimal.Zero
	for _, l := range c.lines {
		subtotal = subtotal.Add(l.Amount())
	}
	discount := subtotal.Mul(c.DiscountPercent).Div(hundred)
	return Totals{
		Subtotal:       subtotal,
		DiscountAmount: discount,
		DeliveryCharge: deliveryCharge,
		Total:          subtotal.Sub(discount).Add(deliveryCharge),
	}
}

// Equal reports whether c and o hold the same items, quantities and prices in the same
// order with the same discount.
func (c Cart) Equal(o Cart) bool {
	if len(c.lines) != len(o.lines) || !c.DiscountPercent.Equal(o.DiscountPercent) {
		return false
	}
	for i, l := range c.lines {
		m := o.lines[i]
		if l.Item.ID != m.Item.ID || l.Quantity != m.Quantity || !l.Item.Price.Equal(m.Item.Price) {
			return false
		}
	}
	return true
}

func (c Cart) clone() Cart {
	return Cart{lines: slices.Clone(c.lines), DiscountPercent: c.DiscountPercent}
}
