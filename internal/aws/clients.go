package aws

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

// Clients is what checkout needs from AWS: DynamoDB for the submission guard and the
// journal, SQS for checkout.submitted events and CloudWatch for checkout metrics.
type Clients struct {
	Region     string
	DynamoDB   DynamoDBAPI
	SQS        SQSAPI
	CloudWatch CloudWatchAPI
}

// NewClients loads the AWS config once and builds every client from it.
func NewClients(ctx context.Context) (*Clients, error) {
	cfg, err := LoadAWSConfig(ctx)
	if err != nil {
		return nil, err
	}

	return &Clients{
		Region:     cfg.Region,
		DynamoDB:   dynamodb.NewFromConfig(cfg),
		SQS:        sqs.NewFromConfig(cfg),
		CloudWatch: cloudwatch.NewFromConfig(cfg),
	}, nil
}

// CheckoutEvents publishes checkout events to queueURL.
func (c *Clients) CheckoutEvents(queueURL string) *Publisher {
	return NewPublisher(c.SQS, queueURL)
}

// CheckoutMetrics records checkout metrics under namespace.
func (c *Clients) CheckoutMetrics(namespace string) *Metrics {
	return NewMetrics(c.CloudWatch, namespace)
}
