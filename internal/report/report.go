// Package report summarises the order history into sales figures. All sums are exact;
// Format rounds for display only.
package report

import (
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/imrishuroy/go-pos-orderflow/internal/pos"
)

// Summary is the headline figure set over a group of orders.
type Summary struct {
	TotalSales   decimal.Decimal `json:"total_sales"`
	Orders       int             `json:"orders"`
	AverageOrder decimal.Decimal `json:"average_order"`
}

// DailyReport is the summary of one calendar day plus the orders behind it.
type DailyReport struct {
	Day    string                `json:"day"`
	Totals Summary               `json:"totals"`
	Orders []pos.HistoricalOrder `json:"orders"`
}

// DayRow is one line of a monthly report.
type DayRow struct {
	Date       string          `json:"date"`
	Orders     int             `json:"orders"`
	TotalSales decimal.Decimal `json:"total_sales"`
}

// TypeRow is the share of one order type.
type TypeRow struct {
	OrderType  string          `json:"order_type"`
	Orders     int             `json:"orders"`
	TotalSales decimal.Decimal `json:"total_sales"`
}

// Overview sums every order. AverageOrder is zero when there are no orders.
func Overview(orders []pos.HistoricalOrder) Summary {
	var s Summary
	for _, o := range orders {
		s.TotalSales = s.TotalSales.Add(o.TotalAmount)
		s.Orders++
	}
	if s.Orders > 0 {
		s.AverageOrder = s.TotalSales.Div(decimal.NewFromInt(int64(s.Orders)))
	}
	return s
}

// Daily keeps the orders placed on day (YYYY-MM-DD) and summarises them.
func Daily(orders []pos.HistoricalOrder, day string) DailyReport {
	matched := make([]pos.HistoricalOrder, 0)
	for _, o := range orders {
		if o.Day() == day {
			matched = append(matched, o)
		}
	}
	return DailyReport{Day: day, Totals: Overview(matched), Orders: matched}
}

// Monthly groups the orders of month (YYYY-MM) by day, newest day first. Days without
// orders are omitted.
func Monthly(orders []pos.HistoricalOrder, month string) []DayRow {
	byDay := map[string]*DayRow{}
	for _, o := range orders {
		day := o.Day()
		if !strings.HasPrefix(day, month+"-") {
			continue
		}
		row, ok := byDay[day]
		if !ok {
			row = &DayRow{Date: day}
			byDay[day] = row
		}
		row.Orders++
		row.TotalSales = row.TotalSales.Add(o.TotalAmount)
	}

	rows := make([]DayRow, 0, len(byDay))
	for _, r := range byDay {
		rows = append(rows, *r)
	}
	slices.SortFunc(rows, func(a, b DayRow) int { return strings.Compare(b.Date, a.Date) })
	return rows
}

// ByType totals the orders per order type. Known types come first in display order, with
// zero rows included; unknown types follow alphabetically.
func ByType(orders []pos.HistoricalOrder) []TypeRow {
	idx := map[string]int{}
	rows := make([]TypeRow, 0, len(pos.OrderTypes))
	for _, t := range pos.OrderTypes {
		idx[t] = len(rows)
		rows = append(rows, TypeRow{OrderType: t})
	}

	var extra []TypeRow
	extraIdx := map[string]int{}
	for _, o := range orders {
		if i, ok := idx[o.OrderType]; ok {
			rows[i].Orders++
			rows[i].TotalSales = rows[i].TotalSales.Add(o.TotalAmount)
			continue
		}
		i, ok := extraIdx[o.OrderType]
		if !ok {
			i = len(extra)
			extraIdx[o.OrderType] = i
			extra = append(extra, TypeRow{OrderType: o.OrderType})
		}
		extra[i].Orders++
		extra[i].TotalSales = extra[i].TotalSales.Add(o.TotalAmount)
	}
	slices.SortFunc(extra, func(a, b TypeRow) int { return strings.Compare(a.OrderType, b.OrderType) })
	return append(rows, extra...)
}

// Format renders an amount with two decimals.
func Format(d decimal.Decimal) string {
	return pos.FormatMoney(d)
}
