// Package submission guards checkout submission: at most one create-order call per session
// in flight, and a repeated payload is answered from the guard record instead of creating a
// second order.
package submission

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/imrishuroy/go-pos-orderflow/internal/checkout"
	"github.com/imrishuroy/go-pos-orderflow/internal/idempotency"
	"github.com/imrishuroy/go-pos-orderflow/internal/journal"
)

// ErrInFlight is returned while another submission of the same checkout is running.
var ErrInFlight = errors.New("checkout submission already in progress")

// Metric names
const (
	MetricSubmitted = "CheckoutSubmitted"
	MetricAmount    = "CheckoutAmount"
	MetricFailed    = "CheckoutFailed"
	MetricReplayed  = "CheckoutReplayed"
)

// EventPublisher announces submitted checkouts.
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, event any, attributes map[string]string) error
}

// MetricsRecorder records checkout metrics.
type MetricsRecorder interface {
	Count(ctx context.Context, name string, value float64, dims map[string]string) error
	Amount(ctx context.Context, name string, value float64, dims map[string]string) error
}

// Result is the outcome of a submission.
type Result struct {
	OrderID checkout.OrderID
	EntryID string
	// Replayed is set when the order was created by an earlier identical submission.
	Replayed bool

	key string
}

// Gate serialises and deduplicates checkout submissions.
type Gate struct {
	guard     *idempotency.Store
	journal   *journal.Store
	publisher EventPublisher
	metrics   MetricsRecorder
	log       *zap.Logger
	group     singleflight.Group
	newID     func() string
}

// Option configures a Gate.
type Option func(*Gate)

func WithPublisher(p EventPublisher) Option { return func(g *Gate) { g.publisher = p } }

func WithMetrics(m MetricsRecorder) Option { return func(g *Gate) { g.metrics = m } }

func WithLogger(l *zap.Logger) Option { return func(g *Gate) { g.log = l } }

func NewGate(guard *idempotency.Store, j *journal.Store, opts ...Option) *Gate {
	g := &Gate{
		guard:   guard,
		journal: j,
		log:     zap.NewNop(),
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// IdempotencyKey identifies one checkout: the session, the checkout id of its current cart
// and a digest of the payload. A cart resubmitted unchanged maps to the same key; a new
// cart gets a new checkout id and so a new key, even with the same contents.
func IdempotencyKey(sessionID, checkoutID string, p checkout.Payload) (string, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("encode payload: %w", err)
	}
	sum := sha256.Sum256(b)
	return sessionID + ":" + checkoutID + ":" + hex.EncodeToString(sum[:]), nil
}

// Submit sends p, the checkout checkoutID of sessionID, through svc at most once.
//
// Concurrent calls for one session share a single attempt; a concurrent call for a
// different checkout gets ErrInFlight. The shared attempt is not cancelled with any one
// caller's ctx, but each caller stops waiting when its own ctx is done. Errors from
// checkout.Submit are returned unchanged.
func (g *Gate) Submit(ctx context.Context, sessionID, checkoutID string, p checkout.Payload, svc checkout.OrderCreator) (Result, error) {
	key, err := IdempotencyKey(sessionID, checkoutID, p)
	if err != nil {
		return Result{}, err
	}

	attemptCtx := context.WithoutCancel(ctx)
	ch := g.group.DoChan(sessionID, func() (interface{}, error) {
		res, err := g.submit(attemptCtx, sessionID, key, p, svc)
		res.key = key
		return res, err
	})
	select {
	case <-ctx.Done():
		return Result{}, ctx.Err()
	case r := <-ch:
		return joined(r, key)
	}
}

// joined unpacks a singleflight result for the caller that asked for key.
func joined(r singleflight.Result, key string) (Result, error) {
	res, _ := r.Val.(Result)
	if r.Shared && res.key != key {
		return Result{}, ErrInFlight
	}
	return res, r.Err
}

// submit runs one attempt. ctx carries no cancellation, so the bookkeeping after the
// backend answered always runs.
func (g *Gate) submit(ctx context.Context, sessionID, key string, p checkout.Payload, svc checkout.OrderCreator) (Result, error) {
	correlationID := g.newID()
	entry := journal.Entry{
		EntryID:        g.newID(),
		SessionID:      sessionID,
		IdempotencyKey: key,
		Status:         journal.StatusPending,
		CustomerName:   p.CustomerName,
		OrderType:      p.OrderType,
		PaymentMethod:  p.PaymentMethod,
		ItemCount:      len(p.Items),
		TotalAmount:    p.TotalAmount.String(),
	}
	log := g.log.With(
		zap.String("session_id", sessionID),
		zap.String("entry_id", entry.EntryID),
		zap.String("correlation_id", correlationID),
	)

	if res, done, err := g.open(ctx, key, entry, log); done || err != nil {
		return res, err
	}

	orderID, err := checkout.Submit(ctx, p, svc)
	if err != nil {
		g.recordFailure(ctx, key, entry.EntryID, err, log)
		return Result{}, err
	}

	log = log.With(zap.String("order_id", string(orderID)))
	if err := g.guard.MarkDone(ctx, key, string(orderID)); err != nil {
		log.Error("mark guard done", zap.Error(err))
	}
	if err := g.journal.MarkSubmitted(ctx, entry.EntryID, string(orderID)); err != nil {
		log.Error("mark journal submitted", zap.Error(err))
	}
	g.announce(ctx, entry, orderID, correlationID, p, log)
	log.Info("checkout submitted", zap.String("total", p.TotalAmount.String()))

	return Result{OrderID: orderID, EntryID: entry.EntryID}, nil
}

// open writes the guard and journal entry. done reports that res already answers the
// submission.
func (g *Gate) open(ctx context.Context, key string, entry journal.Entry, log *zap.Logger) (res Result, done bool, err error) {
	rec := g.guard.NewRecord(key, entry.SessionID, entry.EntryID)
	err = g.journal.CreateWithGuard(ctx, g.guard.TableName(), rec, entry)
	if err == nil {
		return Result{}, false, nil
	}
	if !errors.Is(err, journal.ErrGuardExists) {
		return Result{}, true, fmt.Errorf("open checkout: %w", err)
	}

	existing, err := g.guard.Get(ctx, key)
	if err != nil {
		return Result{}, true, fmt.Errorf("read guard: %w", err)
	}
	if existing == nil {
		return Result{}, true, fmt.Errorf("read guard %s: %w", key, idempotency.ErrConditionFailed)
	}

	switch existing.Status {
	case idempotency.StatusDone:
		log.Info("checkout replayed", zap.String("order_id", existing.OrderID))
		g.count(ctx, MetricReplayed, nil, log)
		return Result{OrderID: checkout.OrderID(existing.OrderID), EntryID: existing.EntryID, Replayed: true}, true, nil
	case idempotency.StatusInProgress:
		return Result{}, true, ErrInFlight
	case idempotency.StatusFailed:
		if err := g.guard.Reopen(ctx, key, entry.EntryID); err != nil {
			if errors.Is(err, idempotency.ErrConditionFailed) {
				return Result{}, true, ErrInFlight
			}
			return Result{}, true, fmt.Errorf("reopen guard: %w", err)
		}
		if err := g.journal.Create(ctx, entry); err != nil {
			if ferr := g.guard.MarkFailed(ctx, key, "journal: "+err.Error()); ferr != nil {
				log.Error("mark guard failed", zap.Error(ferr))
			}
			return Result{}, true, fmt.Errorf("open checkout: %w", err)
		}
		log.Info("retrying failed checkout", zap.Int("previous_attempts", existing.Attempts))
		return Result{}, false, nil
	default:
		return Result{}, true, fmt.Errorf("guard %s has unknown status %q", key, existing.Status)
	}
}

func (g *Gate) recordFailure(ctx context.Context, key, entryID string, cause error, log *zap.Logger) {
	reason := "transport"
	var se *checkout.SubmissionError
	if errors.As(cause, &se) {
		reason = "rejected"
		log.Warn("checkout rejected", zap.Any("fields", se.Fields))
	} else {
		log.Error("checkout failed", zap.Error(cause))
	}

	if err := g.guard.MarkFailed(ctx, key, cause.Error()); err != nil {
		log.Error("mark guard failed", zap.Error(err))
	}
	if err := g.journal.MarkFailed(ctx, entryID, cause.Error()); err != nil {
		log.Error("mark journal failed", zap.Error(err))
	}
	g.count(ctx, MetricFailed, map[string]string{"Reason": reason}, log)
}

func (g *Gate) announce(ctx context.Context, entry journal.Entry, orderID checkout.OrderID, correlationID string, p checkout.Payload, log *zap.Logger) {
	if g.publisher != nil {
		msg := journal.SubmittedMessage{
			EntryID:       entry.EntryID,
			OrderID:       string(orderID),
			SessionID:     entry.SessionID,
			CorrelationID: correlationID,
		}
		attrs := map[string]string{
			"entry_id":       entry.EntryID,
			"order_id":       string(orderID),
			"correlation_id": correlationID,
		}
		if err := g.publisher.Publish(ctx, journal.EventCheckoutSubmitted, msg, attrs); err != nil {
			log.Error("publish checkout event", zap.Error(err))
		}
	}

	dims := map[string]string{"OrderType": p.OrderType}
	g.count(ctx, MetricSubmitted, dims, log)
	if g.metrics != nil {
		if err := g.metrics.Amount(ctx, MetricAmount, p.TotalAmount.InexactFloat64(), dims); err != nil {
			log.Warn("put metric", zap.String("metric", MetricAmount), zap.Error(err))
		}
	}
}

func (g *Gate) count(ctx context.Context, name string, dims map[string]string, log *zap.Logger) {
	if g.metrics == nil {
		return
	}
	if err := g.metrics.Count(ctx, name, 1, dims); err != nil {
		log.Warn("put metric", zap.String("metric", name), zap.Error(err))
	}
}
