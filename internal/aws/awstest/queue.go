package awstest

import (
	"context"
	"sync"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

// Queue records sent SQS messages.
type Queue struct {
	mu   sync.Mutex
	Sent []*sqs.SendMessageInput
	Err  error
}

func (q *Queue) SendMessage(ctx context.Context, in *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.Err != nil {
		return nil, q.Err
	}
	q.Sent = append(q.Sent, in)
	return &sqs.SendMessageOutput{}, nil
}

// Bodies returns the bodies of all sent messages.
func (q *Queue) Bodies() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]string, 0, len(q.Sent))
	for _, in := range q.Sent {
		out = append(out, *in.MessageBody)
	}
	return out
}

// Metrics records CloudWatch datums.
type Metrics struct {
	mu   sync.Mutex
	Data []cwtypes.MetricDatum
	Err  error
}

func (m *Metrics) PutMetricData(ctx context.Context, in *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	m.Data = append(m.Data, in.MetricData...)
	return &cloudwatch.PutMetricDataOutput{}, nil
}

// Names returns the metric names recorded so far.
func (m *Metrics) Names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.Data))
	for _, d := range m.Data {
		out = append(out, *d.MetricName)
	}
	return out
}
