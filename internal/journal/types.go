package journal

import "time"

// Entry statuses
const (
	StatusPending   = "PENDING"
	StatusSubmitted = "SUBMITTED"
	StatusInvoiced  = "INVOICED"
	StatusFailed    = "FAILED"
)

// KeyAttribute is the partition key of the journal table.
const KeyAttribute = "entry_id"

// EventCheckoutSubmitted is published once the backend accepted a checkout.
const EventCheckoutSubmitted = "checkout.submitted"

// Entry records one checkout attempt. Money is stored as decimal strings.
type Entry struct {
	EntryID        string    `dynamodbav:"entry_id"` // PK
	SessionID      string    `dynamodbav:"session_id"`
	IdempotencyKey string    `dynamodbav:"idempotency_key"`
	Status         string    `dynamodbav:"status"` // PENDING | SUBMITTED | INVOICED | FAILED
	OrderID        string    `dynamodbav:"order_id,omitempty"`
	CustomerName   string    `dynamodbav:"customer_name,omitempty"`
	OrderType      string    `dynamodbav:"order_type"`
	PaymentMethod  string    `dynamodbav:"payment_method"`
	ItemCount      int       `dynamodbav:"item_count"`
	TotalAmount    string    `dynamodbav:"total_amount"`
	InvoiceNumber  string    `dynamodbav:"invoice_number,omitempty"`
	InvoiceTotal   string    `dynamodbav:"invoice_total,omitempty"`
	Note           string    `dynamodbav:"note,omitempty"`
	Attempts       int       `dynamodbav:"attempts,omitempty"`
	CreatedAt      time.Time `dynamodbav:"created_at"`
	UpdatedAt      time.Time `dynamodbav:"updated_at"`
}

// SubmittedMessage is the queue payload announcing a submitted checkout.
type SubmittedMessage struct {
	EntryID       string `json:"entry_id"`
	OrderID       string `json:"order_id"`
	SessionID     string `json:"session_id"`
	CorrelationID string `json:"correlation_id,omitempty"`
}
