package history

import (
	"slices"

	"github.com/imrishuroy/go-pos-orderflow/internal/pagination"
	"github.com/imrishuroy/go-pos-orderflow/internal/pos"
)

// View is the state of one order-history screen: the loaded orders, the active criteria
// and the page position. Like cart.Cart it is a value; setters return a new View.
type View struct {
	orders   []pos.HistoricalOrder
	criteria Criteria
	page     int
	perPage  int
}

// Result is what a View renders.
type Result struct {
	Criteria Criteria
	Page     pagination.Page[pos.HistoricalOrder]
	Window   []pagination.Entry
}

// NewView returns a view over orders on page 1 with the default page size.
func NewView(orders []pos.HistoricalOrder) View {
	return View{
		orders:  slices.Clone(orders),
		page:    1,
		perPage: pagination.DefaultPageSize,
	}
}

// Loaded reports whether orders have been loaded into the view.
func (v View) Loaded() bool { return v.orders != nil }

// Criteria returns the active criteria.
func (v View) Criteria() Criteria { return v.criteria }

// CurrentPage returns the 1-based page number.
func (v View) CurrentPage() int { return max(v.page, 1) }

// PerPage returns the page size.
func (v View) PerPage() int {
	if v.perPage <= 0 {
		return pagination.DefaultPageSize
	}
	return v.perPage
}

// WithOrders replaces the loaded orders and returns to page 1.
func (v View) WithOrders(orders []pos.HistoricalOrder) View {
	v.orders = slices.Clone(orders)
	v.page = 1
	return v
}

// SetCriteria replaces the criteria. Any change returns the view to page 1, even when the
// old page would still exist in the new result set.
func (v View) SetCriteria(c Criteria) View {
	if c != v.criteria {
		v.page = 1
	}
	v.criteria = c
	return v
}

// SetPage moves to page p. Pages below 1 are treated as 1.
func (v View) SetPage(p int) View {
	v.page = max(p, 1)
	return v
}

// SetPerPage changes the page size and returns to page 1.
func (v View) SetPerPage(n int) View {
	if n != v.perPage {
		v.page = 1
	}
	v.perPage = n
	return v
}

// Render filters, slices and builds the page control for the current state.
func (v View) Render() Result {
	filtered := Filter(v.orders, v.criteria)
	page := pagination.Slice(filtered, v.CurrentPage(), v.PerPage())
	return Result{
		Criteria: v.criteria,
		Page:     page,
		Window:   pagination.Window(page.Page, page.TotalPages, pagination.DefaultMaxVisible),
	}
}
