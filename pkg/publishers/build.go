package publishers

import (
	"context"
	"errors"
	"fmt"
)

// Publisher delivers events to one sink.
type Publisher interface {
	ID() string
	Type() string
	Publish(ctx context.Context, evt Event) error
}

// closer is implemented by sinks holding client connections.
type closer interface {
	Close() error
}

type builder func(ctx context.Context, cfg Config) (Publisher, error)

var builders = map[string]builder{
	TypeHTTP:   newHTTPPublisher,
	TypeSQS:    newSQSPublisher,
	TypeSNS:    newSNSPublisher,
	TypePubSub: newPubSubPublisher,
}

// Build creates a publisher per config. When one fails, the publishers
// already created are closed before returning.
func Build(ctx context.Context, cfgs Configs) ([]Publisher, error) {
	pubs := make([]Publisher, 0, len(cfgs))
	for _, cfg := range cfgs {
		pub, err := build(ctx, cfg)
		if err != nil {
			return nil, errors.Join(err, closeAll(pubs))
		}
		pubs = append(pubs, pub)
	}
	return pubs, nil
}

func build(ctx context.Context, cfg Config) (Publisher, error) {
	b := builders[cfg.Type]
	if b == nil {
		return nil, fmt.Errorf("publisher %q: unknown type %q", cfg.ID, cfg.Type)
	}
	pub, err := b(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("publisher %q: %w", cfg.ID, err)
	}
	return pub, nil
}

func closeAll(pubs []Publisher) error {
	var errs []error
	for _, p := range pubs {
		if c, ok := p.(closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close %s publisher[%s]: %w", p.Type(), p.ID(), err))
			}
		}
	}
	return errors.Join(errs...)
}
