package publishers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

// SQSConfig targets a queue. Queue URLs ending in .fifo are FIFO queues.
type SQSConfig struct {
	QueueURL string `json:"uri" yaml:"uri"`
	Region   string `json:"region" yaml:"region"`
}

func (c *SQSConfig) normalized() (SQSConfig, error) {
	if c == nil {
		return SQSConfig{}, errors.New("sqs block is missing")
	}
	out := SQSConfig{QueueURL: strings.TrimSpace(c.QueueURL), Region: strings.TrimSpace(c.Region)}
	switch {
	case out.QueueURL == "":
		return SQSConfig{}, errors.New("sqs.uri is required")
	case out.Region == "":
		return SQSConfig{}, errors.New("sqs.region is required")
	}
	return out, nil
}

type sqsClient interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

type sqsPublisher struct {
	id       string
	queueURL string
	fifo     bool
	client   sqsClient
}

func newSQSPublisher(ctx context.Context, cfg Config) (Publisher, error) {
	qc, err := cfg.SQS.normalized()
	if err != nil {
		return nil, err
	}
	awsCfg, err := awscfg.LoadDefaultConfig(ctx, awscfg.WithRegion(qc.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &sqsPublisher{
		id:       cfg.ID,
		queueURL: qc.QueueURL,
		fifo:     strings.HasSuffix(qc.QueueURL, ".fifo"),
		client:   sqs.NewFromConfig(awsCfg),
	}, nil
}

func (s *sqsPublisher) ID() string   { return s.id }
func (s *sqsPublisher) Type() string { return TypeSQS }

// Publish sends the event. On FIFO queues messages are grouped by collection
// and deduplicated by the event's idempotency key.
func (s *sqsPublisher) Publish(ctx context.Context, evt Event) error {
	payload, err := marshalEvent(evt)
	if err != nil {
		return err
	}

	attrs := make(map[string]types.MessageAttributeValue)
	for k, v := range evt.Attributes() {
		attrs[k] = types.MessageAttributeValue{DataType: aws.String("String"), StringValue: aws.String(v)}
	}
	input := &sqs.SendMessageInput{
		QueueUrl:          aws.String(s.queueURL),
		MessageBody:       aws.String(string(payload)),
		MessageAttributes: attrs,
	}
	if s.fifo {
		input.MessageGroupId = aws.String(evt.GroupKey())
		input.MessageDeduplicationId = aws.String(evt.IdempotencyKey())
	}

	if _, err := s.client.SendMessage(ctx, input); err != nil {
		return fmt.Errorf("send to sqs %s: %w", s.queueURL, err)
	}
	return nil
}
