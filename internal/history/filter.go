package history

import (
	"cmp"
	"slices"
	"strings"

	"github.com/imrishuroy/go-pos-orderflow/internal/pos"
)

// Criteria narrows the order history. Empty fields impose no constraint.
//
// SearchText matches the order number or table number, case-insensitively.
// DateText is a literal prefix of the order date string, not a calendar comparison:
// "2025-06-24" matches any timestamp that starts with those characters.
// OrderType must equal the order type exactly.
type Criteria struct {
	SearchText string
	DateText   string
	OrderType  string
}

// IsZero reports whether the criteria match everything.
func (c Criteria) IsZero() bool {
	return c == Criteria{}
}

// Matches applies all three predicates to o.
func (c Criteria) Matches(o pos.HistoricalOrder) bool {
	search := strings.ToLower(c.SearchText)
	textMatch := strings.Contains(strings.ToLower(o.OrderNumber), search) ||
		strings.Contains(strings.ToLower(o.Table()), search)
	dateMatch := c.DateText == "" || strings.HasPrefix(o.OrderDate, c.DateText)
	typeMatch := c.OrderType == "" || o.OrderType == c.OrderType
	return textMatch && dateMatch && typeMatch
}

// Filter returns the orders matching c in their original order. The input is not modified.
func Filter(orders []pos.HistoricalOrder, c Criteria) []pos.HistoricalOrder {
	out := make([]pos.HistoricalOrder, 0, len(orders))
	for _, o := range orders {
		if c.Matches(o) {
			out = append(out, o)
		}
	}
	return out
}

// NewestFirst returns a copy of orders sorted by order date, newest first. Ties keep
// their original order.
func NewestFirst(orders []pos.HistoricalOrder) []pos.HistoricalOrder {
	out := slices.Clone(orders)
	slices.SortStableFunc(out, func(a, b pos.HistoricalOrder) int {
		return cmp.Compare(b.OrderDate, a.OrderDate)
	})
	return out
}
