package idempotency

import "time"

// Status values for guard records
const (
	StatusInProgress = "IN_PROGRESS"
	StatusDone       = "DONE"
	StatusFailed     = "FAILED"
)

// KeyAttribute is the partition key of the guard table.
const KeyAttribute = "idempotency_key"

// Record guards one checkout submission. It points at the journal entry of the current
// attempt and, once DONE, at the order the backend created.
type Record struct {
	IdempotencyKey string    `dynamodbav:"idempotency_key"` // PK
	Status         string    `dynamodbav:"status"`
	SessionID      string    `dynamodbav:"session_id,omitempty"`
	EntryID        string    `dynamodbav:"entry_id,omitempty"`
	OrderID        string    `dynamodbav:"order_id,omitempty"`
	Attempts       int       `dynamodbav:"attempts"`
	CreatedAt      time.Time `dynamodbav:"created_at"`
	UpdatedAt      time.Time `dynamodbav:"updated_at"`
	ExpiresAt      int64     `dynamodbav:"expires_at"` // TTL epoch seconds
	Note           string    `dynamodbav:"note,omitempty"`
}
