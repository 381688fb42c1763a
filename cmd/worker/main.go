package main

import (
	"context"
	"log"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"

	"github.com/imrishuroy/go-pos-orderflow/internal/aws"
	"github.com/imrishuroy/go-pos-orderflow/internal/config"
	"github.com/imrishuroy/go-pos-orderflow/internal/journal"
	"github.com/imrishuroy/go-pos-orderflow/internal/logging"
	"github.com/imrishuroy/go-pos-orderflow/internal/posapi"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger, err := logging.New("pos-invoice-worker", cfg.RunLocal)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if cfg.JournalTable == "" {
		logger.Fatal("JOURNAL_TABLE is required")
	}

	clients, err := aws.NewClients(context.Background())
	if err != nil {
		logger.Fatal("failed to init aws clients", zap.Error(err))
	}

	backend := posapi.New(cfg.POSBaseURL, cfg.POSTimeout).WithToken(cfg.POSServiceToken)
	p := NewProcessor(journal.NewStore(clients.DynamoDB, cfg.JournalTable), backend, logger)

	// RUN_LOCAL processes one message from LOCAL_SQS_BODY and exits.
	if cfg.RunLocal {
		body := os.Getenv("LOCAL_SQS_BODY")
		if body == "" {
			body = `{"entry_id":"local-entry-1","order_id":"1"}`
		}
		resp, err := p.Handle(context.Background(), events.SQSEvent{
			Records: []events.SQSMessage{{MessageId: "local-1", Body: body}},
		})
		if err != nil || len(resp.BatchItemFailures) > 0 {
			logger.Fatal("local handler failed", zap.Error(err), zap.Int("failures", len(resp.BatchItemFailures)))
		}
		return
	}

	lambda.Start(p.Handle)
}
