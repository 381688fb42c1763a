package validation

import (
	"testing"
)

func TestCheckoutRequest_Valid(t *testing.T) {
	v := New()

	req := CheckoutRequest{
		CustomerName:  "Rahim",
		CustomerPhone: "01711000000",
		PaymentMethod: "Cash",
		OrderType:     "Dine In",
	}
	if err := v.Struct(req); err != nil {
		t.Fatalf("expected valid, got error: %v", err)
	}

	// everything is optional
	if err := v.Struct(CheckoutRequest{}); err != nil {
		t.Fatalf("expected empty request to be valid, got %v", err)
	}
}

func TestCheckoutRequest_UnknownOrderType(t *testing.T) {
	v := New()

	// order types are case-sensitive
	err := v.Struct(CheckoutRequest{OrderType: "dine in", PaymentMethod: "Bitcoin"})
	if err == nil {
		t.Fatal("expected validation error, got nil")
	}
	fields := FieldErrors(err)
	if len(fields["order_type"]) != 1 {
		t.Fatalf("expected order_type error, got %v", fields)
	}
	if len(fields["payment_method"]) != 1 {
		t.Fatalf("expected payment_method error, got %v", fields)
	}
}

func TestDiscountRequest(t *testing.T) {
	v := New()

	for _, p := range []string{"0", "12.5", "-5", "150"} {
		if err := v.Struct(DiscountRequest{Percent: p}); err != nil {
			t.Fatalf("percent %q: expected valid, got %v", p, err)
		}
	}
	err := v.Struct(DiscountRequest{Percent: "ten"})
	if err == nil {
		t.Fatal("expected error for non-decimal percent")
	}
	if got := FieldErrors(err)["percent"]; len(got) != 1 || got[0] != "must be a decimal number" {
		t.Fatalf("unexpected field errors: %v", got)
	}
}

func TestHistoryQuery_PageSize(t *testing.T) {
	v := New()

	if err := v.Struct(HistoryQuery{PerPage: 10, Page: 2}); err != nil {
		t.Fatalf("expected valid, got %v", err)
	}
	if err := v.Struct(HistoryQuery{}); err != nil {
		t.Fatalf("expected zero query to be valid, got %v", err)
	}
	err := v.Struct(HistoryQuery{PerPage: 7})
	if err == nil {
		t.Fatal("expected per_page error")
	}
	if _, ok := FieldErrors(err)["per_page"]; !ok {
		t.Fatalf("expected per_page key, got %v", FieldErrors(err))
	}
}

func TestLoginRequest_MissingFields(t *testing.T) {
	v := New()

	err := v.Struct(LoginRequest{Email: "not-an-email"})
	if err == nil {
		t.Fatal("expected validation errors for missing required fields, got nil")
	}
	fields := FieldErrors(err)
	if fields["email"][0] != "must be a valid email address" {
		t.Fatalf("unexpected email error: %v", fields["email"])
	}
	if fields["password"][0] != "is required" {
		t.Fatalf("unexpected password error: %v", fields["password"])
	}
}

func TestReportQuery_Dates(t *testing.T) {
	v := New()

	if err := v.Struct(ReportQuery{Day: "2025-06-24", Month: "2025-06"}); err != nil {
		t.Fatalf("expected valid, got %v", err)
	}
	if err := v.Struct(ReportQuery{Day: "24/06/2025"}); err == nil {
		t.Fatal("expected day format error")
	}
}

func TestMenuItemForm(t *testing.T) {
	v := New()

	if err := v.Struct(MenuItemForm{Name: "Cola", Price: "60.50", CategoryID: 2}); err != nil {
		t.Fatalf("expected valid, got %v", err)
	}

	err := v.Struct(MenuItemForm{Price: "sixty"})
	if err == nil {
		t.Fatal("expected validation error, got nil")
	}
	fields := FieldErrors(err)
	for _, name := range []string{"name", "price", "menu_category_id"} {
		if len(fields[name]) != 1 {
			t.Fatalf("expected %s error, got %v", name, fields)
		}
	}
}
