package checkout

import (
	"fmt"
	"strings"

	validatorv10 "github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/imrishuroy/go-pos-orderflow/internal/cart"
	"github.com/imrishuroy/go-pos-orderflow/internal/pos"
	"github.com/imrishuroy/go-pos-orderflow/internal/validation"
)

const (
	DefaultPaymentMethod = pos.PaymentCash
	DefaultOrderType     = pos.OrderTypeTakeaway
)

// Builder turns a cart into a create-order payload.
type Builder struct {
	validate        *validatorv10.Validate
	deliveryCharge  decimal.Decimal
	requireCustomer bool
}

// Option configures a Builder.
type Option func(*Builder)

// WithDeliveryCharge sets the delivery charge added to every total.
func WithDeliveryCharge(d decimal.Decimal) Option {
	return func(b *Builder) { b.deliveryCharge = d }
}

// WithRequiredCustomer makes customer name and phone mandatory.
func WithRequiredCustomer() Option {
	return func(b *Builder) { b.requireCustomer = true }
}

// NewBuilder returns a Builder validating with v. A nil v gets validation.New().
func NewBuilder(v *validatorv10.Validate, opts ...Option) *Builder {
	if v == nil {
		v = validation.New()
	}
	v.RegisterStructValidation(payloadStructValidation, Payload{})

	b := &Builder{validate: v}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// DeliveryCharge is the charge the builder adds to totals.
func (b *Builder) DeliveryCharge() decimal.Decimal { return b.deliveryCharge }

// BuildPayload maps c, customer and meta into a Payload. It fails with a *ValidationError
// when the cart is empty or the result does not validate. It performs no I/O.
func (b *Builder) BuildPayload(c cart.Cart, customer Customer, meta Meta) (Payload, error) {
	if c.IsEmpty() {
		fields := FieldErrors{}
		fields.Add("orderitems", ErrEmptyCart.Error())
		return Payload{}, &ValidationError{Fields: fields, Err: ErrEmptyCart}
	}

	totals := c.ComputeTotals(b.deliveryCharge)
	p := Payload{
		CustomerName:    strings.TrimSpace(customer.Name),
		CustomerPhone:   strings.TrimSpace(customer.Phone),
		Subtotal:        totals.Subtotal,
		DiscountPercent: c.DiscountPercent,
		DiscountAmount:  totals.DiscountAmount,
		DeliveryCharge:  totals.DeliveryCharge,
		TotalAmount:     totals.Total,
		PaymentMethod:   orDefault(meta.PaymentMethod, DefaultPaymentMethod),
		OrderType:       orDefault(meta.OrderType, DefaultOrderType),
		Notes:           meta.Notes,
	}
	for _, l := range c.Lines() {
		p.Items = append(p.Items, PayloadItem{
			Name:     l.Item.Name,
			Quantity: l.Quantity,
			Price:    l.Item.Price,
		})
	}

	fields := FieldErrors{}
	if b.requireCustomer {
		if p.CustomerName == "" {
			fields.Add("customer_name", "is required")
		}
		if p.CustomerPhone == "" {
			fields.Add("customer_phone", "is required")
		}
	}
	if err := b.validate.Struct(p); err != nil {
		for k, msgs := range validation.FieldErrors(err) {
			for _, m := range msgs {
				fields.Add(k, m)
			}
		}
	}
	if len(fields) > 0 {
		return Payload{}, &ValidationError{Fields: fields}
	}
	return p, nil
}

// payloadStructValidation rejects negative prices and totals that do not add up.
func payloadStructValidation(sl validatorv10.StructLevel) {
	p := sl.Current().Interface().(Payload)

	sum := decimal.Zero
	for i, it := range p.Items {
		if it.Price.IsNegative() {
			sl.ReportError(it.Price, fmt.Sprintf("orderitems[%d].price", i), "Price", "gte", "0")
		}
		sum = sum.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	if !sum.Equal(p.Subtotal) {
		sl.ReportError(p.Subtotal, "subtotal", "Subtotal", "subtotal_match_items",
			fmt.Sprintf("items sum %s != subtotal %s", sum, p.Subtotal))
	}
	want := p.Subtotal.Sub(p.DiscountAmount).Add(p.DeliveryCharge)
	if !want.Equal(p.TotalAmount) {
		sl.ReportError(p.TotalAmount, "total_amount", "TotalAmount", "total_match_parts",
			fmt.Sprintf("subtotal - discount + delivery %s != total %s", want, p.TotalAmount))
	}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
