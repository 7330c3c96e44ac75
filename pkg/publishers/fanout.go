package publishers

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Fanout delivers each event to every sink concurrently.
type Fanout struct {
	publishers []Publisher
	log        Logger
}

// NewFanout drops nil publishers.
func NewFanout(pubs []Publisher, log Logger) *Fanout {
	cp := make([]Publisher, 0, len(pubs))
	for _, p := range pubs {
		if p != nil {
			cp = append(cp, p)
		}
	}
	return &Fanout{publishers: cp, log: ensureLogger(log)}
}

// Publish returns how many sinks accepted the event, with the failures
// joined into the error.
func (f *Fanout) Publish(ctx context.Context, evt Event) (int, error) {
	if f == nil || len(f.publishers) == 0 {
		return 0, nil
	}

	errs := make([]error, len(f.publishers))
	var wg sync.WaitGroup
	for i, p := range f.publishers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = f.deliver(ctx, p, evt)
		}()
	}
	wg.Wait()

	delivered := 0
	for _, err := range errs {
		if err == nil {
			delivered++
		}
	}
	return delivered, errors.Join(errs...)
}

func (f *Fanout) deliver(ctx context.Context, p Publisher, evt Event) error {
	fields := map[string]any{
		"publisher_id":   p.ID(),
		"publisher_type": p.Type(),
		"collection":     evt.Collection,
		"record_id":      evt.Record.ID,
	}
	if err := p.Publish(ctx, evt); err != nil {
		fields["error"] = err.Error()
		f.log.ErrorObj("record delivery failed", "publisher_error", fields)
		return fmt.Errorf("%s publisher[%s]: %w", p.Type(), p.ID(), err)
	}
	f.log.DebugObj("record delivered", "publisher_delivery", fields)
	return nil
}

// Close releases sinks that hold connections.
func (f *Fanout) Close() error {
	if f == nil {
		return nil
	}
	return closeAll(f.publishers)
}

// Size returns the number of sinks.
func (f *Fanout) Size() int {
	if f == nil {
		return 0
	}
	return len(f.publishers)
}
