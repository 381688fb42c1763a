package main

import (
	"context"
	"log"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/imrishuroy/go-pos-orderflow/internal/aws"
	"github.com/imrishuroy/go-pos-orderflow/internal/cache"
	"github.com/imrishuroy/go-pos-orderflow/internal/catalog"
	"github.com/imrishuroy/go-pos-orderflow/internal/checkout"
	"github.com/imrishuroy/go-pos-orderflow/internal/config"
	"github.com/imrishuroy/go-pos-orderflow/internal/handlers"
	"github.com/imrishuroy/go-pos-orderflow/internal/idempotency"
	"github.com/imrishuroy/go-pos-orderflow/internal/journal"
	"github.com/imrishuroy/go-pos-orderflow/internal/logging"
	"github.com/imrishuroy/go-pos-orderflow/internal/posapi"
	"github.com/imrishuroy/go-pos-orderflow/internal/session"
	"github.com/imrishuroy/go-pos-orderflow/internal/submission"
	"github.com/imrishuroy/go-pos-orderflow/internal/validation"
)

func setupRouter(cfg handlers.HandlerConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), handlers.RequestLogger(cfg.Logger))
	handlers.RegisterRoutes(r, cfg)
	return r
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	logger, err := logging.New("pos-api", cfg.RunLocal)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	clients, err := aws.NewClients(context.Background())
	if err != nil {
		logger.Fatal("failed to init aws clients", zap.Error(err))
	}

	gateOpts := []submission.Option{
		submission.WithLogger(logger.Named("submission")),
		submission.WithMetrics(clients.CheckoutMetrics(cfg.MetricsNamespace)),
	}
	if cfg.CheckoutQueueURL != "" {
		gateOpts = append(gateOpts, submission.WithPublisher(clients.CheckoutEvents(cfg.CheckoutQueueURL)))
	} else {
		logger.Warn("CHECKOUT_QUEUE_URL not set, checkout events are not published")
	}
	gate := submission.NewGate(
		idempotency.NewStore(clients.DynamoDB, cfg.IdempotencyTable, cfg.GuardTTL),
		journal.NewStore(clients.DynamoDB, cfg.JournalTable),
		gateOpts...,
	)

	var menuCache cache.Cache
	if cfg.RedisAddr != "" {
		menuCache = cache.NewRedisCache(cfg.RedisAddr, "pos:catalog")
	}

	builderOpts := []checkout.Option{checkout.WithDeliveryCharge(cfg.DeliveryCharge)}
	if cfg.RequireCustomer {
		builderOpts = append(builderOpts, checkout.WithRequiredCustomer())
	}

	v := validation.New()
	client := posapi.New(cfg.POSBaseURL, cfg.POSTimeout)
	r := setupRouter(handlers.HandlerConfig{
		Auth:      client,
		Connect:   func(token string) handlers.Backend { return client.WithToken(token) },
		Sessions:  session.NewRegistry(),
		Catalog:   catalog.NewService(nil, menuCache, cfg.CatalogCacheTTL, logger.Named("catalog")),
		Builder:   checkout.NewBuilder(v, builderOpts...),
		Gate:      gate,
		Validate:  v,
		Logger:    logger,
		ImageBase: client.BaseURL(),
	})

	if cfg.RunLocal {
		logger.Info("running local server", zap.String("addr", cfg.HTTPAddr))
		if err := r.Run(cfg.HTTPAddr); err != nil {
			logger.Fatal("failed to run local server", zap.Error(err))
		}
		return
	}

	adapter := ginadapter.New(r)
	lambda.Start(func(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		return adapter.ProxyWithContext(ctx, req)
	})
}
