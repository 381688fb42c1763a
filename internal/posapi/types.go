package posapi

import (
	"github.com/shopspring/decimal"

	"github.com/imrishuroy/go-pos-orderflow/internal/checkout"
)

// User is the signed-in staff member.
type User struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// LoginResult is the response of POST /api/login.
type LoginResult struct {
	AccessToken string `json:"access_token"`
	User        User   `json:"user"`
}

// InvoiceItem is one printed invoice line.
type InvoiceItem struct {
	Name     string          `json:"name"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

// Amount is quantity x price.
func (i InvoiceItem) Amount() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Invoice is the printable view of a persisted order.
type Invoice struct {
	ID              checkout.OrderID `json:"id"`
	OrderNumber     string           `json:"order_number"`
	OrderDate       string           `json:"order_date"`
	OrderType       string           `json:"order_type"`
	CustomerName    string           `json:"customer_name"`
	CustomerPhone   string           `json:"customer_phone"`
	Subtotal        decimal.Decimal  `json:"subtotal"`
	DiscountPercent decimal.Decimal  `json:"discount_percent"`
	DeliveryCharge  decimal.Decimal  `json:"delivery_charge"`
	TotalAmount     decimal.Decimal  `json:"total_amount"`
	PaymentMethod   string           `json:"payment_method"`
	Items           []InvoiceItem    `json:"orderitems"`
}

type dataEnvelope[T any] struct {
	Data T `json:"data"`
}
