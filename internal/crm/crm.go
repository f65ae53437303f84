// Package crm optionally mirrors each lead into a CRM.
package crm

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/wolfman30/smp-leadform/pkg/logging"
)

// Forwarder hands a lead payload to a CRM.
type Forwarder interface {
	Forward(ctx context.Context, payload []byte) error
}

// Nop drops every payload. It backs the "none" provider.
type Nop struct{}

func (Nop) Forward(context.Context, []byte) error { return nil }

// WebhookForwarder posts the payload to a CRM endpoint with a bearer key.
type WebhookForwarder struct {
	url    string
	apiKey string
	client *http.Client
}

func NewWebhookForwarder(url, apiKey string, client *http.Client) *WebhookForwarder {
	if client == nil {
		client = http.DefaultClient
	}
	return &WebhookForwarder{url: url, apiKey: apiKey, client: client}
}

func (w *WebhookForwarder) Forward(ctx context.Context, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("crm: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if w.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+w.apiKey)
	}
	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("crm: post lead: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("crm: endpoint returned status %d", resp.StatusCode)
	}
	return nil
}

// SQSAPI is the part of the SQS client the forwarder uses.
type SQSAPI interface {
	SendMessage(ctx context.Context, in *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// SQSForwarder enqueues the payload for a downstream CRM consumer.
type SQSForwarder struct {
	client   SQSAPI
	queueURL string
}

func NewSQSForwarder(client SQSAPI, queueURL string) *SQSForwarder {
	if client == nil {
		panic("crm: SQS client cannot be nil")
	}
	if queueURL == "" {
		panic("crm: SQS queueURL cannot be empty")
	}
	return &SQSForwarder{client: client, queueURL: queueURL}
}

func (q *SQSForwarder) Forward(ctx context.Context, payload []byte) error {
	_, err := q.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(q.queueURL),
		MessageBody: aws.String(string(payload)),
	})
	if err != nil {
		return fmt.Errorf("crm: send SQS message: %w", err)
	}
	return nil
}

// BestEffort logs forwarding failures instead of returning them.
type BestEffort struct {
	next     Forwarder
	provider string
	logger   *logging.Logger
}

func NewBestEffort(next Forwarder, provider string, logger *logging.Logger) *BestEffort {
	if logger == nil {
		logger = logging.Default()
	}
	return &BestEffort{next: next, provider: provider, logger: logger}
}

func (b *BestEffort) Forward(ctx context.Context, payload []byte) error {
	if b == nil || b.next == nil {
		return nil
	}
	if err := b.next.Forward(ctx, payload); err != nil {
		b.logger.Warn("crm forward failed", "provider", b.provider, "error", err)
		return nil
	}
	b.logger.Debug("crm forward complete", "provider", b.provider)
	return nil
}

var (
	_ Forwarder = Nop{}
	_ Forwarder = (*WebhookForwarder)(nil)
	_ Forwarder = (*SQSForwarder)(nil)
	_ Forwarder = (*BestEffort)(nil)
)
