package aws

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

type mockSQS struct {
	inputs []*sqs.SendMessageInput
	err    error
}

func (m *mockSQS) SendMessage(ctx context.Context, in *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	m.inputs = append(m.inputs, in)
	if m.err != nil {
		return nil, m.err
	}
	return &sqs.SendMessageOutput{}, nil
}

type mockCW struct {
	inputs []*cloudwatch.PutMetricDataInput
}

func (m *mockCW) PutMetricData(ctx context.Context, in *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error) {
	m.inputs = append(m.inputs, in)
	return &cloudwatch.PutMetricDataOutput{}, nil
}

func TestPublisher_Publish(t *testing.T) {
	m := &mockSQS{}
	p := NewPublisher(m, "https://sqs.local/checkouts")

	evt := map[string]string{"order_id": "42"}
	err := p.Publish(context.Background(), "checkout.submitted", evt, map[string]string{
		"session_id":     "s1",
		"correlation_id": "",
	})
	if err != nil {
		t.Fatalf("Publish error: %v", err)
	}
	if len(m.inputs) != 1 {
		t.Fatalf("expected 1 send, got %d", len(m.inputs))
	}
	in := m.inputs[0]
	if *in.QueueUrl != "https://sqs.local/checkouts" {
		t.Fatalf("queue url mismatch: %s", *in.QueueUrl)
	}
	var body map[string]string
	if err := json.Unmarshal([]byte(*in.MessageBody), &body); err != nil || body["order_id"] != "42" {
		t.Fatalf("unexpected body %s", *in.MessageBody)
	}
	if v := in.MessageAttributes[EventTypeAttribute].StringValue; v == nil || *v != "checkout.submitted" {
		t.Fatalf("missing event type attribute")
	}
	if _, ok := in.MessageAttributes["correlation_id"]; ok {
		t.Fatal("empty attributes must be skipped")
	}
	if _, ok := in.MessageAttributes["session_id"]; !ok {
		t.Fatal("session_id attribute missing")
	}

	m.err = errors.New("throttled")
	if err := p.Publish(context.Background(), "checkout.submitted", evt, nil); err == nil {
		t.Fatal("expected send error")
	}
}

func TestMetrics_Count(t *testing.T) {
	m := &mockCW{}
	metrics := NewMetrics(m, "POS/Checkout")
	if err := metrics.Count(context.Background(), "CheckoutSubmitted", 1, map[string]string{"OrderType": "Takeaway"}); err != nil {
		t.Fatalf("Count error: %v", err)
	}
	if len(m.inputs) != 1 {
		t.Fatalf("expected 1 put, got %d", len(m.inputs))
	}
	in := m.inputs[0]
	if *in.Namespace != "POS/Checkout" {
		t.Fatalf("namespace mismatch: %s", *in.Namespace)
	}
	d := in.MetricData[0]
	if *d.MetricName != "CheckoutSubmitted" || *d.Value != 1 || len(d.Dimensions) != 1 {
		t.Fatalf("unexpected datum %+v", d)
	}
}
