package checkout

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Customer is who the order is for. Both fields are free text.
type Customer struct {
	Name  string
	Phone string
}

// Meta is the order metadata picked at the counter. Empty values take the defaults
// DefaultPaymentMethod and DefaultOrderType.
type Meta struct {
	PaymentMethod string
	OrderType     string
	Notes         string
}

// PayloadItem is one line as sent to the backend. The catalog id is deliberately absent:
// the backend assigns its own line identifiers.
type PayloadItem struct {
	Name     string          `json:"name" validate:"required"`
	Quantity int             `json:"quantity" validate:"min=1"`
	Price    decimal.Decimal `json:"price"`
}

// Payload is the body of the create-order call.
type Payload struct {
	CustomerName    string          `json:"customer_name" validate:"max=100"`
	CustomerPhone   string          `json:"customer_phone" validate:"max=32"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	DiscountAmount  decimal.Decimal `json:"discount_amount"`
	DeliveryCharge  decimal.Decimal `json:"delivery_charge"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	PaymentMethod   string          `json:"payment_method" validate:"required,payment_method"`
	OrderType       string          `json:"order_type" validate:"required,order_type"`
	Notes           string          `json:"notes" validate:"max=500"`
	Items           []PayloadItem   `json:"orderitems" validate:"required,min=1,dive"`
}

// OrderID identifies an order created by the backend. The backend sends it as a number
// or a string; both decode.
type OrderID string

func (id *OrderID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = OrderID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("order id: %w", err)
	}
	*id = OrderID(n.String())
	return nil
}

// FieldErrors maps a field name to its messages.
type FieldErrors map[string][]string

// Add appends msg to field.
func (f FieldErrors) Add(field, msg string) {
	f[field] = append(f[field], msg)
}

// Envelope is the backend response to create-order: data on success, errors on a
// field-level rejection.
type Envelope struct {
	Data    *CreatedOrder `json:"data,omitempty"`
	Message string        `json:"message,omitempty"`
	Errors  FieldErrors   `json:"errors,omitempty"`
}

// CreatedOrder is the data part of a successful create-order response.
type CreatedOrder struct {
	ID          OrderID         `json:"id"`
	OrderNumber string          `json:"order_number,omitempty"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// InvoicePath is the shell route that renders the invoice of id.
func InvoicePath(id OrderID) string {
	return "/dashboard/invoice/" + string(id)
}
