package publishers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/pubsub"
	"google.golang.org/api/option"
)

// PubSubConfig targets a Google Cloud Pub/Sub topic. Endpoint is mostly useful
// for emulators. Ordered publishes each collection's events in order.
type PubSubConfig struct {
	ProjectID       string `json:"project_id" yaml:"project_id"`
	Topic           string `json:"topic" yaml:"topic"`
	CredentialsFile string `json:"credentials_file" yaml:"credentials_file"`
	Endpoint        string `json:"endpoint" yaml:"endpoint"`
	Ordered         bool   `json:"ordered" yaml:"ordered"`
}

func (c *PubSubConfig) normalized() (PubSubConfig, error) {
	if c == nil {
		return PubSubConfig{}, errors.New("pubsub block is missing")
	}
	out := PubSubConfig{
		ProjectID:       strings.TrimSpace(c.ProjectID),
		Topic:           strings.TrimSpace(c.Topic),
		CredentialsFile: strings.TrimSpace(c.CredentialsFile),
		Endpoint:        strings.TrimSpace(c.Endpoint),
		Ordered:         c.Ordered,
	}
	if out.ProjectID == "" || out.Topic == "" {
		return PubSubConfig{}, errors.New("pubsub.project_id and pubsub.topic are required")
	}
	return out, nil
}

type pubsubPublisher struct {
	id      string
	client  *pubsub.Client
	topic   *pubsub.Topic
	ordered bool
}

func newPubSubPublisher(ctx context.Context, cfg Config) (Publisher, error) {
	pc, err := cfg.PubSub.normalized()
	if err != nil {
		return nil, err
	}

	var opts []option.ClientOption
	if pc.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(pc.CredentialsFile))
	}
	if pc.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(pc.Endpoint))
	}
	client, err := pubsub.NewClient(ctx, pc.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("create pubsub client: %w", err)
	}

	topic := client.Topic(pc.Topic)
	topic.EnableMessageOrdering = pc.Ordered
	return &pubsubPublisher{id: cfg.ID, client: client, topic: topic, ordered: pc.Ordered}, nil
}

func (p *pubsubPublisher) ID() string   { return p.id }
func (p *pubsubPublisher) Type() string { return TypePubSub }

// Publish waits for the server acknowledgement. A failed ordered publish
// pauses its collection's key, so the key is resumed for the next attempt.
func (p *pubsubPublisher) Publish(ctx context.Context, evt Event) error {
	payload, err := marshalEvent(evt)
	if err != nil {
		return err
	}

	msg := &pubsub.Message{Data: payload, Attributes: evt.Attributes()}
	if p.ordered {
		msg.OrderingKey = evt.GroupKey()
	}
	if _, err := p.topic.Publish(ctx, msg).Get(ctx); err != nil {
		if p.ordered {
			p.topic.ResumePublish(msg.OrderingKey)
		}
		return fmt.Errorf("publish to pubsub topic %s: %w", p.topic.ID(), err)
	}
	return nil
}

// Close flushes pending messages and releases the client.
func (p *pubsubPublisher) Close() error {
	p.topic.Stop()
	return p.client.Close()
}
