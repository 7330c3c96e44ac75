package publishers

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Adda-Baaj/ec-catalog/internal/domain"
)

type stubPublisher struct {
	id    string
	typ   string
	err   error
	delay time.Duration
	calls int
}

func (s *stubPublisher) ID() string   { return s.id }
func (s *stubPublisher) Type() string { return s.typ }
func (s *stubPublisher) Publish(context.Context, Event) error {
	time.Sleep(s.delay)
	s.calls++
	return s.err
}

type recordingLogger struct {
	mu     sync.Mutex
	errors []map[string]any
	debugs int
}

func (l *recordingLogger) DebugObj(string, string, interface{}) {
	l.mu.Lock()
	l.debugs++
	l.mu.Unlock()
}

func (l *recordingLogger) ErrorObj(_, _ string, obj interface{}) {
	l.mu.Lock()
	l.errors = append(l.errors, obj.(map[string]any))
	l.mu.Unlock()
}

func TestFanoutPublishAggregatesErrors(t *testing.T) {
	log := &recordingLogger{}
	fanout := NewFanout([]Publisher{
		&stubPublisher{id: "ok", typ: TypeHTTP},
		&stubPublisher{id: "bad", typ: TypeSQS, err: errors.New("failed")},
	}, log)

	count, err := fanout.Publish(context.Background(), Event{Collection: "ec_catalog", Record: domain.RecordSummary{ID: "r1"}})
	if count != 1 {
		t.Fatalf("expected 1 success, got %d", count)
	}
	if err == nil || !strings.Contains(err.Error(), "sqs publisher[bad]") {
		t.Fatalf("expected error naming the failed sink, got %v", err)
	}
	if len(log.errors) != 1 || log.errors[0]["record_id"] != "r1" || log.errors[0]["publisher_id"] != "bad" {
		t.Fatalf("unexpected error logs %#v", log.errors)
	}
	if log.debugs != 1 {
		t.Fatalf("expected 1 delivery log, got %d", log.debugs)
	}
}

func TestFanoutPublishesConcurrently(t *testing.T) {
	slow := []Publisher{
		&stubPublisher{id: "a", typ: TypeHTTP, delay: 100 * time.Millisecond},
		&stubPublisher{id: "b", typ: TypeHTTP, delay: 100 * time.Millisecond},
		&stubPublisher{id: "c", typ: TypeHTTP, delay: 100 * time.Millisecond},
	}
	start := time.Now()
	count, err := NewFanout(slow, nil).Publish(context.Background(), Event{})
	if err != nil || count != 3 {
		t.Fatalf("Publish = %d, %v", count, err)
	}
	if elapsed := time.Since(start); elapsed >= 250*time.Millisecond {
		t.Fatalf("sinks were called one after another (%s)", elapsed)
	}
	for _, p := range slow {
		if p.(*stubPublisher).calls != 1 {
			t.Fatalf("sink %s called %d times", p.ID(), p.(*stubPublisher).calls)
		}
	}
}

func TestEmptyFanoutPublishesNothing(t *testing.T) {
	var nilFanout *Fanout
	if n, err := nilFanout.Publish(context.Background(), Event{}); n != 0 || err != nil {
		t.Fatalf("nil fanout Publish = %d, %v", n, err)
	}
	if nilFanout.Size() != 0 || nilFanout.Close() != nil {
		t.Fatalf("nil fanout should be inert")
	}
}

type closingPublisher struct {
	stubPublisher
	closed bool
	err    error
}

func (c *closingPublisher) Close() error {
	c.closed = true
	return c.err
}

func TestFanoutCloseReleasesClosers(t *testing.T) {
	closing := &closingPublisher{stubPublisher: stubPublisher{id: "gcp", typ: TypePubSub}}
	broken := &closingPublisher{stubPublisher: stubPublisher{id: "gcp2", typ: TypePubSub}, err: errors.New("stuck")}
	fanout := NewFanout([]Publisher{&stubPublisher{id: "http", typ: TypeHTTP}, closing, nil, broken}, nil)

	if fanout.Size() != 3 {
		t.Fatalf("expected nil publishers to be dropped, size=%d", fanout.Size())
	}
	err := fanout.Close()
	if err == nil || !strings.Contains(err.Error(), "gcp2") {
		t.Fatalf("expected close error for gcp2, got %v", err)
	}
	if !closing.closed || !broken.closed {
		t.Fatalf("expected every closer to be closed")
	}
}

func TestBuildCreatesHTTPPublisher(t *testing.T) {
	pubs, err := Build(context.Background(), Configs{
		{ID: "hook", Type: TypeHTTP, HTTP: &HTTPConfig{URL: "https://example.com"}},
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(pubs) != 1 || pubs[0].ID() != "hook" || pubs[0].Type() != TypeHTTP {
		t.Fatalf("unexpected publishers %#v", pubs)
	}
}

func TestBuildReportsInvalidSinkBlocks(t *testing.T) {
	cases := []Config{
		{ID: "h", Type: TypeHTTP},
		{ID: "s", Type: TypeSNS, SNS: &SNSConfig{Region: "eu-west-1"}},
		{ID: "q", Type: TypeSQS, SQS: &SQSConfig{QueueURL: "https://q"}},
		{ID: "p", Type: TypePubSub, PubSub: &PubSubConfig{ProjectID: "proj"}},
		{ID: "k", Type: "kafka"},
	}
	for _, cfg := range cases {
		_, err := Build(context.Background(), Configs{
			{ID: "hook", Type: TypeHTTP, HTTP: &HTTPConfig{URL: "https://example.com"}},
			cfg,
		})
		if err == nil || !strings.Contains(err.Error(), `publisher "`+cfg.ID+`"`) {
			t.Errorf("%s: expected error naming the publisher, got %v", cfg.ID, err)
		}
	}
}
