// Package journal persists one entry per checkout attempt and its progress from PENDING to
// SUBMITTED and INVOICED, or FAILED.
package journal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/imrishuroy/go-pos-orderflow/internal/aws"
)

var (
	// ErrStatusMismatch is returned when an entry is not in the expected status.
	ErrStatusMismatch = errors.New("status mismatch/conditional failed")
	// ErrGuardExists is returned when the guard record of a transaction already exists.
	ErrGuardExists = errors.New("idempotency guard already exists")
)

// Store encapsulates operations on the journal table.
type Store struct {
	client    aws.DynamoDBAPI
	tableName string
	nowFunc   func() time.Time
}

func NewStore(client aws.DynamoDBAPI, tableName string) *Store {
	return &Store{
		client:    client,
		tableName: tableName,
		nowFunc:   time.Now,
	}
}

// CreateWithGuard atomically writes guard into guardTable, conditioned on its
// idempotency_key not existing, and entry into the journal. guard must marshal with an
// idempotency_key attribute.
func (s *Store) CreateWithGuard(ctx context.Context, guardTable string, guard any, entry Entry) error {
	guardMap, err := attributevalue.MarshalMap(guard)
	if err != nil {
		return fmt.Errorf("marshal guard: %w", err)
	}
	entryMap, err := s.marshalNew(entry)
	if err != nil {
		return err
	}

	_, err = s.client.TransactWriteItems(ctx, &dyn.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{
				Put: &types.Put{
					TableName:           &guardTable,
					Item:                guardMap,
					ConditionExpression: awsString("attribute_not_exists(idempotency_key)"),
				},
			},
			{
				Put: &types.Put{
					TableName:           &s.tableName,
					Item:                entryMap,
					ConditionExpression: awsString("attribute_not_exists(entry_id)"),
				},
			},
		},
	})
	if err != nil {
		var tce *types.TransactionCanceledException
		if errors.As(err, &tce) {
			return fmt.Errorf("create entry %s: %w", entry.EntryID, ErrGuardExists)
		}
		return fmt.Errorf("transact write: %w", err)
	}
	return nil
}

// Create writes a new entry on its own.
func (s *Store) Create(ctx context.Context, entry Entry) error {
	item, err := s.marshalNew(entry)
	if err != nil {
		return err
	}
	_, err = s.client.PutItem(ctx, &dyn.PutItemInput{
		TableName:           &s.tableName,
		Item:                item,
		ConditionExpression: awsString("attribute_not_exists(entry_id)"),
	})
	if err != nil {
		return fmt.Errorf("put entry %s: %w", entry.EntryID, err)
	}
	return nil
}

// Get fetches an entry. Returns (nil, nil) if not found.
func (s *Store) Get(ctx context.Context, entryID string) (*Entry, error) {
	out, err := s.client.GetItem(ctx, &dyn.GetItemInput{
		TableName:      &s.tableName,
		Key:            keyOf(entryID),
		ConsistentRead: awsBool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	var e Entry
	if err := attributevalue.UnmarshalMap(out.Item, &e); err != nil {
		return nil, fmt.Errorf("unmarshal entry: %w", err)
	}
	return &e, nil
}

// UpdateStatus conditionally moves an entry from expected to newStatus.
// Returns ErrStatusMismatch if the entry is missing or in another status.
func (s *Store) UpdateStatus(ctx context.Context, entryID, expected, newStatus string) error {
	return s.transition(ctx, entryID, expected, newStatus, nil)
}

// MarkSubmitted records the backend order id: PENDING -> SUBMITTED.
func (s *Store) MarkSubmitted(ctx context.Context, entryID, orderID string) error {
	return s.transition(ctx, entryID, StatusPending, StatusSubmitted, map[string]string{"order_id": orderID})
}

// MarkFailed records why the attempt failed: PENDING -> FAILED.
func (s *Store) MarkFailed(ctx context.Context, entryID, note string) error {
	return s.transition(ctx, entryID, StatusPending, StatusFailed, map[string]string{"note": note})
}

// MarkInvoiced records the invoice: SUBMITTED -> INVOICED.
func (s *Store) MarkInvoiced(ctx context.Context, entryID, invoiceNumber, invoiceTotal string) error {
	return s.transition(ctx, entryID, StatusSubmitted, StatusInvoiced, map[string]string{
		"invoice_number": invoiceNumber,
		"invoice_total":  invoiceTotal,
	})
}

// IncrementAttempts increases the attempts counter by 1.
func (s *Store) IncrementAttempts(ctx context.Context, entryID string) error {
	_, err := s.client.UpdateItem(ctx, &dyn.UpdateItemInput{
		TableName:           &s.tableName,
		Key:                 keyOf(entryID),
		UpdateExpression:    awsString("SET attempts = if_not_exists(attempts, :zero) + :inc, updated_at = :ua"),
		ConditionExpression: awsString("attribute_exists(entry_id)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":zero": &types.AttributeValueMemberN{Value: "0"},
			":inc":  &types.AttributeValueMemberN{Value: "1"},
			":ua":   s.timestamp(),
		},
		ReturnValues: types.ReturnValueUpdatedNew,
	})
	if err != nil {
		return fmt.Errorf("increment attempts: %w", err)
	}
	return nil
}

func (s *Store) transition(ctx context.Context, entryID, expected, newStatus string, set map[string]string) error {
	expr := "SET #s = :new, updated_at = :ua"
	values := map[string]types.AttributeValue{
		":new":      &types.AttributeValueMemberS{Value: newStatus},
		":expected": &types.AttributeValueMemberS{Value: expected},
		":ua":       s.timestamp(),
	}
	for attr, v := range set {
		placeholder := ":" + attr
		expr += ", " + attr + " = " + placeholder
		values[placeholder] = &types.AttributeValueMemberS{Value: v}
	}

	_, err := s.client.UpdateItem(ctx, &dyn.UpdateItemInput{
		TableName:                 &s.tableName,
		Key:                       keyOf(entryID),
		UpdateExpression:          &expr,
		ConditionExpression:       awsString("#s = :expected"),
		ExpressionAttributeNames:  map[string]string{"#s": "status"},
		ExpressionAttributeValues: values,
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return fmt.Errorf("entry %s %s -> %s: %w", entryID, expected, newStatus, ErrStatusMismatch)
		}
		return fmt.Errorf("update item: %w", err)
	}
	return nil
}

func (s *Store) marshalNew(entry Entry) (map[string]types.AttributeValue, error) {
	now := s.nowFunc().UTC()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}
	entry.UpdatedAt = now
	if entry.Status == "" {
		entry.Status = StatusPending
	}
	item, err := attributevalue.MarshalMap(entry)
	if err != nil {
		return nil, fmt.Errorf("marshal entry: %w", err)
	}
	return item, nil
}

func (s *Store) timestamp() types.AttributeValue {
	return &types.AttributeValueMemberS{Value: s.nowFunc().UTC().Format(time.RFC3339)}
}

func keyOf(entryID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		KeyAttribute: &types.AttributeValueMemberS{Value: entryID},
	}
}

func awsString(s string) *string { return &s }

func awsBool(b bool) *bool { return &b }
