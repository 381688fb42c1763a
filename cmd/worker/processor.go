package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-lambda-go/events"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/imrishuroy/go-pos-orderflow/internal/checkout"
	"github.com/imrishuroy/go-pos-orderflow/internal/journal"
	"github.com/imrishuroy/go-pos-orderflow/internal/posapi"
)

// errPermanent marks messages that no retry can fix.
var errPermanent = errors.New("permanent failure")

// InvoiceFetcher loads the invoice of a created order.
type InvoiceFetcher interface {
	GetInvoice(ctx context.Context, id checkout.OrderID) (*posapi.Invoice, error)
}

// Processor consumes checkout.submitted messages and records the invoice of each order.
type Processor struct {
	journal  *journal.Store
	invoices InvoiceFetcher
	log      *zap.Logger
}

func NewProcessor(j *journal.Store, invoices InvoiceFetcher, log *zap.Logger) *Processor {
	return &Processor{journal: j, invoices: invoices, log: log}
}

// Handle processes a batch and reports the messages that failed so only those are retried.
func (p *Processor) Handle(ctx context.Context, ev events.SQSEvent) (events.SQSEventResponse, error) {
	var resp events.SQSEventResponse
	for _, rec := range ev.Records {
		if err := p.processMessage(ctx, rec); err != nil {
			p.log.Error("worker error",
				zap.String("message_id", rec.MessageId),
				zap.Bool("permanent", errors.Is(err, errPermanent)),
				zap.Error(err))
			resp.BatchItemFailures = append(resp.BatchItemFailures, events.SQSBatchItemFailure{ItemIdentifier: rec.MessageId})
		}
	}
	return resp, nil
}

func (p *Processor) processMessage(ctx context.Context, rec events.SQSMessage) error {
	var msg journal.SubmittedMessage
	if err := json.Unmarshal([]byte(rec.Body), &msg); err != nil {
		return fmt.Errorf("invalid message body: %w: %w", errPermanent, err)
	}
	if msg.EntryID == "" {
		return fmt.Errorf("message without entry_id: %w", errPermanent)
	}
	log := p.log.With(
		zap.String("entry_id", msg.EntryID),
		zap.String("order_id", msg.OrderID),
		zap.String("correlation_id", msg.CorrelationID),
	)

	entry, err := p.journal.Get(ctx, msg.EntryID)
	if err != nil {
		return fmt.Errorf("failed to fetch entry: %w", err)
	}
	if entry == nil {
		return fmt.Errorf("entry not found: %s: %w", msg.EntryID, errPermanent)
	}

	switch entry.Status {
	case journal.StatusInvoiced:
		log.Info("duplicate delivery, already invoiced")
		return nil
	case journal.StatusFailed:
		return fmt.Errorf("entry %s is FAILED: %w", entry.EntryID, errPermanent)
	case journal.StatusPending:
		// the gate has not recorded the order id yet
		return fmt.Errorf("entry %s still PENDING", entry.EntryID)
	case journal.StatusSubmitted:
	default:
		return fmt.Errorf("entry %s has unexpected status %s: %w", entry.EntryID, entry.Status, errPermanent)
	}

	orderID := entry.OrderID
	if orderID == "" {
		orderID = msg.OrderID
	}
	inv, err := p.invoices.GetInvoice(ctx, checkout.OrderID(orderID))
	if err != nil {
		if aerr := p.journal.IncrementAttempts(ctx, entry.EntryID); aerr != nil {
			log.Warn("increment attempts", zap.Error(aerr))
		}
		return fmt.Errorf("fetch invoice %s: %w", orderID, err)
	}

	err = p.journal.MarkInvoiced(ctx, entry.EntryID, inv.OrderNumber, inv.TotalAmount.String())
	if errors.Is(err, journal.ErrStatusMismatch) {
		// a competing delivery may have finished first
		again, gerr := p.journal.Get(ctx, entry.EntryID)
		if gerr == nil && again != nil && again.Status == journal.StatusInvoiced {
			log.Info("invoiced by a concurrent delivery")
			return nil
		}
		return err
	}
	if err != nil {
		return fmt.Errorf("failed to mark invoiced: %w", err)
	}

	if want, derr := decimal.NewFromString(entry.TotalAmount); derr == nil && !inv.TotalAmount.Equal(want) {
		log.Warn("invoice total differs from checkout total",
			zap.String("checkout_total", entry.TotalAmount),
			zap.String("invoice_total", inv.TotalAmount.String()))
	}
	log.Info("invoiced", zap.String("invoice_number", inv.OrderNumber))
	return nil
}
