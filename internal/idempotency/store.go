package idempotency

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"

	"github.com/imrishuroy/go-pos-orderflow/internal/aws"
)

// ErrConditionFailed indicates a conditional write failed: the key already exists or the
// record is not in the expected status.
var ErrConditionFailed = errors.New("conditional check failed")

// Store encapsulates guard operations against DynamoDB.
type Store struct {
	client    aws.DynamoDBAPI
	tableName string
	ttlWindow time.Duration
	nowFunc   func() time.Time
}

// NewStore returns a Store over tableName. Records expire ttlWindow after creation.
func NewStore(client aws.DynamoDBAPI, tableName string, ttlWindow time.Duration) *Store {
	return &Store{
		client:    client,
		tableName: tableName,
		ttlWindow: ttlWindow,
		nowFunc:   time.Now,
	}
}

// TableName is the guard table, needed by callers that write the guard in a transaction.
func (s *Store) TableName() string { return s.tableName }

// NewRecord returns an IN_PROGRESS record for key with its TTL set.
func (s *Store) NewRecord(key, sessionID, entryID string) Record {
	now := s.nowFunc().UTC()
	return Record{
		IdempotencyKey: key,
		Status:         StatusInProgress,
		SessionID:      sessionID,
		EntryID:        entryID,
		Attempts:       1,
		CreatedAt:      now,
		UpdatedAt:      now,
		ExpiresAt:      now.Add(s.ttlWindow).Unix(),
	}
}

// CreateIfNotExists writes rec unless its key exists.
// Returns (true, nil) when created and (false, nil) when the key already exists.
func (s *Store) CreateIfNotExists(ctx context.Context, rec Record) (bool, error) {
	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return false, fmt.Errorf("marshal record: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dyn.PutItemInput{
		TableName:           &s.tableName,
		Item:                item,
		ConditionExpression: awsString("attribute_not_exists(idempotency_key)"),
	})
	if err != nil {
		if IsConditionalCheckFailed(err) {
			return false, nil
		}
		return false, fmt.Errorf("put item: %w", err)
	}
	return true, nil
}

// Get retrieves a record by key. If not found, returns (nil, nil).
func (s *Store) Get(ctx context.Context, key string) (*Record, error) {
	out, err := s.client.GetItem(ctx, &dyn.GetItemInput{
		TableName:      &s.tableName,
		Key:            keyOf(key),
		ConsistentRead: awsBool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	var rec Record
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal item: %w", err)
	}
	return &rec, nil
}

// MarkDone moves an IN_PROGRESS record to DONE and stores the created order id.
func (s *Store) MarkDone(ctx context.Context, key, orderID string) error {
	return s.transition(ctx, key, StatusInProgress, StatusDone,
		"order_id = :oid", map[string]types.AttributeValue{
			":oid": &types.AttributeValueMemberS{Value: orderID},
		})
}

// MarkFailed moves an IN_PROGRESS record to FAILED with a note.
func (s *Store) MarkFailed(ctx context.Context, key, note string) error {
	return s.transition(ctx, key, StatusInProgress, StatusFailed,
		"note = :n", map[string]types.AttributeValue{
			":n": &types.AttributeValueMemberS{Value: note},
		})
}

// Reopen moves a FAILED record back to IN_PROGRESS for a new attempt recorded in entryID.
func (s *Store) Reopen(ctx context.Context, key, entryID string) error {
	return s.transition(ctx, key, StatusFailed, StatusInProgress,
		"entry_id = :eid, attempts = if_not_exists(attempts, :zero) + :inc, note = :n",
		map[string]types.AttributeValue{
			":eid":  &types.AttributeValueMemberS{Value: entryID},
			":zero": &types.AttributeValueMemberN{Value: "0"},
			":inc":  &types.AttributeValueMemberN{Value: "1"},
			":n":    &types.AttributeValueMemberS{Value: ""},
		})
}

func (s *Store) transition(ctx context.Context, key, from, to, extraSet string, extraValues map[string]types.AttributeValue) error {
	values := map[string]types.AttributeValue{
		":from": &types.AttributeValueMemberS{Value: from},
		":to":   &types.AttributeValueMemberS{Value: to},
		":ua":   &types.AttributeValueMemberS{Value: s.nowFunc().UTC().Format(time.RFC3339)},
	}
	for k, v := range extraValues {
		values[k] = v
	}

	_, err := s.client.UpdateItem(ctx, &dyn.UpdateItemInput{
		TableName:                 &s.tableName,
		Key:                       keyOf(key),
		UpdateExpression:          awsString("SET #s = :to, updated_at = :ua, " + extraSet),
		ConditionExpression:       awsString("#s = :from"),
		ExpressionAttributeNames:  map[string]string{"#s": "status"},
		ExpressionAttributeValues: values,
		ReturnValues:              types.ReturnValueUpdatedNew,
	})
	if err != nil {
		if IsConditionalCheckFailed(err) {
			return fmt.Errorf("%s -> %s for %s: %w", from, to, key, ErrConditionFailed)
		}
		return fmt.Errorf("update item (%s -> %s): %w", from, to, err)
	}
	return nil
}

// IsConditionalCheckFailed reports whether err is DynamoDB's conditional check failure.
func IsConditionalCheckFailed(err error) bool {
	var ae smithy.APIError
	return errors.As(err, &ae) && ae.ErrorCode() == "ConditionalCheckFailedException"
}

func keyOf(key string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		KeyAttribute: &types.AttributeValueMemberS{Value: key},
	}
}

func awsString(s string) *string { return &s }

func awsBool(b bool) *bool { return &b }
