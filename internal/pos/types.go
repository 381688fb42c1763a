package pos

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Order types offered by the counter. Matching against them is case-sensitive.
const (
	OrderTypeDineIn   = "Dine In"
	OrderTypeTakeaway = "Takeaway"
	OrderTypeDelivery = "Delivery"
)

// Payment methods accepted at checkout.
const (
	PaymentCash   = "Cash"
	PaymentCard   = "Card"
	PaymentMobile = "Mobile"
)

// OrderTypes lists the order types in display order.
var OrderTypes = []string{OrderTypeDineIn, OrderTypeTakeaway, OrderTypeDelivery}

// PaymentMethods lists the accepted payment methods.
var PaymentMethods = []string{PaymentCash, PaymentCard, PaymentMobile}

// Category is a menu category as served by the POS backend.
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Item is a sellable catalog entry. ID is stable for the lifetime of a session.
type Item struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description,omitempty"`
	Image       string          `json:"image,omitempty"`
	Category    *Category       `json:"menu_category,omitempty"`
}

// MenuItemInput is a new or edited menu item. Image is optional; an update without one
// keeps the current picture.
type MenuItemInput struct {
	Name        string
	Price       decimal.Decimal
	CategoryID  int64
	Description string
	Image       *Upload
}

// Upload is a file sent as part of a form.
type Upload struct {
	Filename string
	Data     []byte
}

// CategoryName returns the nested category name or "" when the item is uncategorised.
func (i Item) CategoryName() string {
	if i.Category == nil {
		return ""
	}
	return i.Category.Name
}

// HistoricalOrder is a persisted order as listed by the backend. It is read-only here.
type HistoricalOrder struct {
	ID          int64           `json:"id"`
	OrderNumber string          `json:"order_number"`
	OrderDate   string          `json:"order_date"`
	OrderType   string          `json:"order_type"`
	TableNo     *string         `json:"table_no,omitempty"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// Table returns the table number, or "" when the order has none.
func (o HistoricalOrder) Table() string {
	if o.TableNo == nil {
		return ""
	}
	return *o.TableNo
}

// Day returns the YYYY-MM-DD part of the order date.
func (o HistoricalOrder) Day() string {
	if i := strings.IndexByte(o.OrderDate, 'T'); i >= 0 {
		return o.OrderDate[:i]
	}
	if len(o.OrderDate) >= 10 {
		return o.OrderDate[:10]
	}
	return o.OrderDate
}

// Time parses the order date. The backend sends RFC3339 timestamps, occasionally without zone.
func (o HistoricalOrder) Time() (time.Time, error) {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02T15:04", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, o.OrderDate); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("parse order date %q", o.OrderDate)
}

// ImageURL returns the public URL of an item image stored by the backend.
func ImageURL(baseURL, imagePath string) string {
	if imagePath == "" {
		return ""
	}
	return strings.TrimRight(baseURL, "/") + "/storage/" + strings.TrimLeft(imagePath, "/")
}

// FormatMoney renders an amount with two decimals. Rounding happens only here.
func FormatMoney(d decimal.Decimal) string {
	return d.StringFixed(2)
}
