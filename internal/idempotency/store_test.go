package idempotency

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/imrishuroy/go-pos-orderflow/internal/aws/awstest"
)

const table = "idempotency-table"

func newTestStore() (*Store, *awstest.Dynamo) {
	mock := awstest.NewDynamo(map[string]string{table: KeyAttribute})
	s := NewStore(mock, table, 48*time.Hour)
	s.nowFunc = func() time.Time { return time.Date(2025, 6, 24, 10, 0, 0, 0, time.UTC) }
	return s, mock
}

func TestCreateIfNotExists_Get_MarkDone(t *testing.T) {
	s, mock := newTestStore()
	ctx := context.Background()

	rec := s.NewRecord("sess-1:abc", "sess-1", "entry-1")
	if rec.ExpiresAt != time.Date(2025, 6, 26, 10, 0, 0, 0, time.UTC).Unix() {
		t.Fatalf("unexpected ttl %d", rec.ExpiresAt)
	}

	created, err := s.CreateIfNotExists(ctx, rec)
	if err != nil {
		t.Fatalf("CreateIfNotExists error: %v", err)
	}
	if !created {
		t.Fatalf("expected created=true")
	}

	// second create should return created=false (exists)
	created2, err := s.CreateIfNotExists(ctx, rec)
	if err != nil {
		t.Fatalf("second CreateIfNotExists error: %v", err)
	}
	if created2 {
		t.Fatalf("expected created=false on duplicate create")
	}

	got, err := s.Get(ctx, rec.IdempotencyKey)
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if got == nil || got.Status != StatusInProgress || got.EntryID != "entry-1" {
		t.Fatalf("unexpected record %+v", got)
	}

	if err := s.MarkDone(ctx, rec.IdempotencyKey, "42"); err != nil {
		t.Fatalf("MarkDone error: %v", err)
	}
	if st := mock.StringAttr(table, rec.IdempotencyKey, "status"); st != StatusDone {
		t.Fatalf("status not updated to DONE, got %s", st)
	}
	if oid := mock.StringAttr(table, rec.IdempotencyKey, "order_id"); oid != "42" {
		t.Fatalf("order_id not stored, got %q", oid)
	}

	// DONE is terminal
	if err := s.MarkFailed(ctx, rec.IdempotencyKey, "late failure"); !errors.Is(err, ErrConditionFailed) {
		t.Fatalf("expected ErrConditionFailed, got %v", err)
	}
}

func TestGet_Missing(t *testing.T) {
	s, _ := newTestStore()
	rec, err := s.Get(context.Background(), "nope")
	if err != nil || rec != nil {
		t.Fatalf("expected (nil, nil), got (%+v, %v)", rec, err)
	}
}

func TestMarkFailed_ThenReopen(t *testing.T) {
	s, mock := newTestStore()
	ctx := context.Background()
	rec := s.NewRecord("k", "sess-1", "entry-1")
	if _, err := s.CreateIfNotExists(ctx, rec); err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := s.MarkFailed(ctx, "k", "backend down"); err != nil {
		t.Fatalf("MarkFailed error: %v", err)
	}
	if n := mock.StringAttr(table, "k", "note"); n != "backend down" {
		t.Fatalf("note not set, got %q", n)
	}

	// only FAILED can be reopened
	if err := s.Reopen(ctx, "k", "entry-2"); err != nil {
		t.Fatalf("Reopen error: %v", err)
	}
	if err := s.Reopen(ctx, "k", "entry-3"); !errors.Is(err, ErrConditionFailed) {
		t.Fatalf("expected ErrConditionFailed on reopening IN_PROGRESS, got %v", err)
	}

	got, err := s.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if got.Status != StatusInProgress || got.EntryID != "entry-2" || got.Attempts != 2 || got.Note != "" {
		t.Fatalf("unexpected reopened record %+v", got)
	}
}

func TestTransition_MissingKey(t *testing.T) {
	s, _ := newTestStore()
	if err := s.MarkDone(context.Background(), "absent", "1"); !errors.Is(err, ErrConditionFailed) {
		t.Fatalf("expected ErrConditionFailed, got %v", err)
	}
}

func TestIsConditionalCheckFailed(t *testing.T) {
	if !IsConditionalCheckFailed(&types.ConditionalCheckFailedException{}) {
		t.Fatal("expected true for ConditionalCheckFailedException")
	}
	if IsConditionalCheckFailed(errors.New("boom")) {
		t.Fatal("expected false for plain error")
	}
}

func TestRecordMarshalRoundTrip(t *testing.T) {
	s, _ := newTestStore()
	rec := s.NewRecord("k1", "s1", "e1")
	m, err := attributevalue.MarshalMap(rec)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if _, ok := m[KeyAttribute]; !ok {
		t.Fatalf("key attribute missing from %v", m)
	}
	var out Record
	if err := attributevalue.UnmarshalMap(m, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.IdempotencyKey != rec.IdempotencyKey || out.EntryID != rec.EntryID || out.ExpiresAt != rec.ExpiresAt || !out.CreatedAt.Equal(rec.CreatedAt) {
		t.Fatalf("round trip mismatch: %+v vs %+v", out, rec)
	}
}
