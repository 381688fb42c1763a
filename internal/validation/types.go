package validation

// LoginRequest is the payload for POST /sessions.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AddItemRequest adds one unit of a catalog item to the session cart.
type AddItemRequest struct {
	ItemID int64 `json:"item_id" validate:"required,gt=0"`
}

// DiscountRequest replaces the cart discount. Percent is a decimal string; it is not
// bounded to [0, 100].
type DiscountRequest struct {
	Percent string `json:"percent" validate:"required,decimal"`
}

// CheckoutRequest carries the customer and order metadata entered at the counter.
type CheckoutRequest struct {
	CustomerName  string `json:"customer_name" validate:"max=100"`
	CustomerPhone string `json:"customer_phone" validate:"max=32"`
	Notes         string `json:"notes" validate:"max=500"`
	PaymentMethod string `json:"payment_method" validate:"omitempty,payment_method"`
	OrderType     string `json:"order_type" validate:"omitempty,order_type"`
}

// HistoryQuery is the query string of GET /sessions/:sid/history.
type HistoryQuery struct {
	Search  string `form:"search" validate:"max=64"`
	Date    string `form:"date" validate:"max=32"`
	Type    string `form:"type" validate:"omitempty,order_type"`
	Page    int    `form:"page" validate:"omitempty,min=1"`
	PerPage int    `form:"per_page" validate:"omitempty,page_size"`
}

// ReportQuery selects the day and month of GET /reports/sales.
type ReportQuery struct {
	Day   string `form:"day" validate:"omitempty,datetime=2006-01-02"`
	Month string `form:"month" validate:"omitempty,datetime=2006-01"`
}

// MenuItemForm is the multipart form of POST /catalog/items and PUT /catalog/items/:id.
// The optional "image" file part is read by the handler.
type MenuItemForm struct {
	Name        string `form:"name" validate:"required,max=255"`
	Price       string `form:"price" validate:"required,decimal"`
	CategoryID  int64  `form:"menu_category_id" validate:"required,gt=0"`
	Description string `form:"description" validate:"max=1000"`
}
