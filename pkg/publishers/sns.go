package publishers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"
)

// SNS subjects must be printable ASCII shorter than 100 characters.
const snsSubjectMax = 99

// SNSConfig targets a topic. Topic ARNs ending in .fifo are FIFO topics.
type SNSConfig struct {
	TopicARN string `json:"topic_arn" yaml:"topic_arn"`
	Region   string `json:"region" yaml:"region"`
}

func (c *SNSConfig) normalized() (SNSConfig, error) {
	if c == nil {
		return SNSConfig{}, errors.New("sns block is missing")
	}
	out := SNSConfig{TopicARN: strings.TrimSpace(c.TopicARN), Region: strings.TrimSpace(c.Region)}
	switch {
	case out.TopicARN == "":
		return SNSConfig{}, errors.New("sns.topic_arn is required")
	case out.Region == "":
		return SNSConfig{}, errors.New("sns.region is required")
	}
	return out, nil
}

type snsClient interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type snsPublisher struct {
	id       string
	topicARN string
	fifo     bool
	client   snsClient
}

func newSNSPublisher(ctx context.Context, cfg Config) (Publisher, error) {
	tc, err := cfg.SNS.normalized()
	if err != nil {
		return nil, err
	}
	awsCfg, err := awscfg.LoadDefaultConfig(ctx, awscfg.WithRegion(tc.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &snsPublisher{
		id:       cfg.ID,
		topicARN: tc.TopicARN,
		fifo:     strings.HasSuffix(tc.TopicARN, ".fifo"),
		client:   sns.NewFromConfig(awsCfg),
	}, nil
}

func (s *snsPublisher) ID() string   { return s.id }
func (s *snsPublisher) Type() string { return TypeSNS }

// Publish sends the event with the record title as subject for email
// subscriptions.
func (s *snsPublisher) Publish(ctx context.Context, evt Event) error {
	payload, err := marshalEvent(evt)
	if err != nil {
		return err
	}

	attrs := make(map[string]snstypes.MessageAttributeValue)
	for k, v := range evt.Attributes() {
		attrs[k] = snstypes.MessageAttributeValue{DataType: aws.String("String"), StringValue: aws.String(v)}
	}
	input := &sns.PublishInput{
		TopicArn:          aws.String(s.topicARN),
		Message:           aws.String(string(payload)),
		MessageAttributes: attrs,
	}
	if subject := snsSubject(evt); subject != "" {
		input.Subject = aws.String(subject)
	}
	if s.fifo {
		input.MessageGroupId = aws.String(evt.GroupKey())
		input.MessageDeduplicationId = aws.String(evt.IdempotencyKey())
	}

	if _, err := s.client.Publish(ctx, input); err != nil {
		return fmt.Errorf("publish to sns %s: %w", s.topicARN, err)
	}
	return nil
}

// snsSubject keeps the printable ASCII of the record title, falling back to
// the record id.
func snsSubject(evt Event) string {
	for _, candidate := range []string{evt.Record.Title, evt.Record.ID} {
		var b strings.Builder
		for _, r := range strings.Join(strings.Fields(candidate), " ") {
			if r >= 0x20 && r < 0x7f {
				b.WriteRune(r)
			}
		}
		subject := strings.TrimSpace(b.String())
		if len(subject) > snsSubjectMax {
			subject = strings.TrimSpace(subject[:snsSubjectMax])
		}
		if subject != "" {
			return subject
		}
	}
	return ""
}
