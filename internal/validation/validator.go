package validation

import (
	"fmt"
	"reflect"
	"slices"
	"strings"

	validatorv10 "github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/imrishuroy/go-pos-orderflow/internal/pagination"
	"github.com/imrishuroy/go-pos-orderflow/internal/pos"
)

// New returns a validator that reports JSON field names and knows the POS tags:
// order_type, payment_method, decimal and page_size.
func New() *validatorv10.Validate {
	v := validatorv10.New()
	v.RegisterTagNameFunc(jsonName)

	mustRegister(v, "order_type", oneOf(pos.OrderTypes))
	mustRegister(v, "payment_method", oneOf(pos.PaymentMethods))
	mustRegister(v, "decimal", isDecimal)
	mustRegister(v, "page_size", isPageSize)

	return v
}

func mustRegister(v *validatorv10.Validate, tag string, fn validatorv10.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register %s validation: %v", tag, err))
	}
}

func jsonName(f reflect.StructField) string {
	for _, tag := range []string{"json", "form"} {
		name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return f.Name
}

func oneOf(allowed []string) validatorv10.Func {
	return func(fl validatorv10.FieldLevel) bool {
		return slices.Contains(allowed, fl.Field().String())
	}
}

func isDecimal(fl validatorv10.FieldLevel) bool {
	_, err := decimal.NewFromString(fl.Field().String())
	return err == nil
}

func isPageSize(fl validatorv10.FieldLevel) bool {
	return slices.Contains(pagination.PageSizes, int(fl.Field().Int()))
}

// FieldErrors flattens a validation error into field -> messages. Field keys drop the
// top-level struct name, so "CheckoutRequest.customer_name" becomes "customer_name".
func FieldErrors(err error) map[string][]string {
	out := map[string][]string{}
	ve, ok := err.(validatorv10.ValidationErrors)
	if !ok {
		out["error"] = []string{err.Error()}
		return out
	}
	for _, fe := range ve {
		key := fe.Namespace()
		if i := strings.IndexByte(key, '.'); i >= 0 {
			key = key[i+1:]
		}
		out[key] = append(out[key], message(fe))
	}
	return out
}

func message(fe validatorv10.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min", "gte":
		return "must be at least " + fe.Param()
	case "max", "lte":
		return "must be at most " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "email":
		return "must be a valid email address"
	case "decimal":
		return "must be a decimal number"
	case "order_type":
		return "must be one of " + strings.Join(pos.OrderTypes, ", ")
	case "payment_method":
		return "must be one of " + strings.Join(pos.PaymentMethods, ", ")
	case "page_size":
		return fmt.Sprintf("must be one of %v", pagination.PageSizes)
	case "datetime":
		return "must match " + fe.Param()
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}
