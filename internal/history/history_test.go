package history

import (
	"fmt"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/imrishuroy/go-pos-orderflow/internal/pagination"
	"github.com/imrishuroy/go-pos-orderflow/internal/pos"
)

func strp(s string) *string { return &s }

func sampleOrders() []pos.HistoricalOrder {
	return []pos.HistoricalOrder{
		{ID: 1, OrderNumber: "INV-1001", TableNo: strp("5"), OrderDate: "2025-06-24T10:00", OrderType: pos.OrderTypeDineIn, TotalAmount: decimal.NewFromInt(500)},
		{ID: 2, OrderNumber: "INV-1002", OrderDate: "2025-06-24T13:45", OrderType: pos.OrderTypeTakeaway, TotalAmount: decimal.NewFromInt(150)},
		{ID: 3, OrderNumber: "INV-1003", TableNo: strp("T12"), OrderDate: "2025-06-23T19:10", OrderType: pos.OrderTypeDineIn, TotalAmount: decimal.NewFromInt(320)},
		{ID: 4, OrderNumber: "INV-2001", OrderDate: "2025-06-22T09:00", OrderType: pos.OrderTypeDelivery, TotalAmount: decimal.NewFromInt(80)},
	}
}

func ids(orders []pos.HistoricalOrder) []int64 {
	out := make([]int64, len(orders))
	for i, o := range orders {
		out[i] = o.ID
	}
	return out
}

func TestFilter_CaseInsensitiveOrderNumber(t *testing.T) {
	orders := []pos.HistoricalOrder{{OrderNumber: "INV-1001", TableNo: strp("5"), OrderDate: "2025-06-24T10:00", OrderType: "Dine In"}}
	got := Filter(orders, Criteria{SearchText: "inv-1001"})
	if len(got) != 1 {
		t.Fatalf("expected 1 order, got %d", len(got))
	}
}

func TestFilter(t *testing.T) {
	cases := []struct {
		name     string
		criteria Criteria
		want     []int64
	}{
		{"empty criteria", Criteria{}, []int64{1, 2, 3, 4}},
		{"order number substring", Criteria{SearchText: "100"}, []int64{1, 2, 3}},
		{"table number", Criteria{SearchText: "t12"}, []int64{3}},
		{"table number digit", Criteria{SearchText: "5"}, []int64{1}},
		{"date prefix", Criteria{DateText: "2025-06-24"}, []int64{1, 2}},
		{"date prefix is literal", Criteria{DateText: "2025-06-2"}, []int64{1, 2, 3, 4}},
		{"date prefix hour", Criteria{DateText: "2025-06-24T13"}, []int64{2}},
		{"type exact", Criteria{OrderType: pos.OrderTypeDineIn}, []int64{1, 3}},
		{"type is case-sensitive", Criteria{OrderType: "dine in"}, []int64{}},
		{"all predicates anded", Criteria{SearchText: "inv", DateText: "2025-06-24", OrderType: pos.OrderTypeTakeaway}, []int64{2}},
		{"no match", Criteria{SearchText: "zzz"}, []int64{}},
	}
	for _, tc := range cases {
		got := ids(Filter(sampleOrders(), tc.criteria))
		if fmt.Sprint(got) != fmt.Sprint(tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
	}
}

func TestFilter_DoesNotMutateInput(t *testing.T) {
	orders := sampleOrders()
	_ = Filter(orders, Criteria{OrderType: pos.OrderTypeDelivery})
	if len(orders) != 4 || orders[0].ID != 1 || orders[3].ID != 4 {
		t.Fatalf("input mutated: %v", ids(orders))
	}
}

func TestNewestFirst(t *testing.T) {
	orders := sampleOrders()
	orders[0], orders[3] = orders[3], orders[0]
	got := ids(NewestFirst(orders))
	if fmt.Sprint(got) != fmt.Sprint([]int64{2, 1, 3, 4}) {
		t.Fatalf("unexpected order %v", got)
	}
	if orders[0].ID != 4 {
		t.Fatal("NewestFirst sorted the input in place")
	}
}

func manyOrders(n int) []pos.HistoricalOrder {
	out := make([]pos.HistoricalOrder, n)
	for i := range out {
		typ := pos.OrderTypeDineIn
		if i%2 == 1 {
			typ = pos.OrderTypeTakeaway
		}
		out[i] = pos.HistoricalOrder{
			ID:          int64(i + 1),
			OrderNumber: fmt.Sprintf("INV-%04d", i+1),
			OrderDate:   "2025-06-24T10:00",
			OrderType:   typ,
		}
	}
	return out
}

func TestView_CriteriaChangeResetsPage(t *testing.T) {
	v := NewView(manyOrders(100)).SetPage(3)
	if v.CurrentPage() != 3 {
		t.Fatalf("expected page 3, got %d", v.CurrentPage())
	}

	// 50 takeaway orders still span 5 pages, page 3 would be valid; it must reset anyway
	v = v.SetCriteria(Criteria{OrderType: pos.OrderTypeTakeaway})
	if v.CurrentPage() != 1 {
		t.Fatalf("expected reset to page 1, got %d", v.CurrentPage())
	}

	v = v.SetPage(2).SetCriteria(Criteria{OrderType: pos.OrderTypeTakeaway})
	if v.CurrentPage() != 2 {
		t.Fatalf("unchanged criteria should keep page, got %d", v.CurrentPage())
	}
}

func TestView_Render(t *testing.T) {
	v := NewView(manyOrders(200)).SetPage(7)
	r := v.Render()
	if r.Page.TotalPages != 20 {
		t.Fatalf("expected 20 pages, got %d", r.Page.TotalPages)
	}
	if r.Page.Items[0].ID != 61 || len(r.Page.Items) != 10 {
		t.Fatalf("unexpected page items: first=%d len=%d", r.Page.Items[0].ID, len(r.Page.Items))
	}
	want := fmt.Sprint([]pagination.Entry{1, pagination.Ellipsis, 5, 6, 7, 8, 9, pagination.Ellipsis, 20})
	if fmt.Sprint(r.Window) != want {
		t.Fatalf("expected window %s, got %v", want, r.Window)
	}
}

func TestView_PerPageAndReload(t *testing.T) {
	v := NewView(nil)
	if v.Loaded() {
		t.Fatal("expected view without orders to be unloaded")
	}
	v = v.WithOrders(manyOrders(30)).SetPage(2).SetPerPage(25)
	if v.CurrentPage() != 1 || v.PerPage() != 25 {
		t.Fatalf("expected page 1 of size 25, got page %d size %d", v.CurrentPage(), v.PerPage())
	}
	r := v.SetPage(2).Render()
	if len(r.Page.Items) != 5 {
		t.Fatalf("expected 5 items on last page, got %d", len(r.Page.Items))
	}
	if v.SetPage(2).WithOrders(manyOrders(3)).CurrentPage() != 1 {
		t.Fatal("reloading orders should return to page 1")
	}
}
