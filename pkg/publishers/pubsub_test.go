package publishers

import (
	"context"
	"testing"

	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/pubsub/pstest"

	"github.com/Adda-Baaj/ec-catalog/internal/domain"
)

func newPubSubServer(t *testing.T) *pstest.Server {
	t.Helper()
	server := pstest.NewServer()
	t.Cleanup(func() { _ = server.Close() })
	t.Setenv("PUBSUB_EMULATOR_HOST", server.Addr)

	ctx := context.Background()
	admin, err := pubsub.NewClient(ctx, "test-project")
	if err != nil {
		t.Fatalf("create client: %v", err)
	}
	defer admin.Close()
	if _, err := admin.CreateTopic(ctx, "records"); err != nil {
		t.Fatalf("create topic: %v", err)
	}
	return server
}

func publishOne(t *testing.T, cfg PubSubConfig, evt Event) {
	t.Helper()
	ctx := context.Background()
	pub, err := newPubSubPublisher(ctx, Config{ID: "gcp", Type: TypePubSub, PubSub: &cfg})
	if err != nil {
		t.Fatalf("newPubSubPublisher: %v", err)
	}
	if err := pub.Publish(ctx, evt); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if err := pub.(closer).Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestPubSubPublisherPublishes(t *testing.T) {
	server := newPubSubServer(t)
	publishOne(t, PubSubConfig{ProjectID: "test-project", Topic: "records"}, Event{
		SourceID:    "ec",
		Collection:  "ec_catalog",
		Fingerprint: "v1",
		Record:      domain.RecordSummary{ID: "r1"},
	})

	msgs := server.Messages()
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(msgs))
	}
	attrs := msgs[0].Attributes
	if attrs[AttrSourceID] != "ec" || attrs[AttrRecordID] != "r1" || attrs[AttrFingerprint] != "v1" {
		t.Fatalf("unexpected attributes %#v", attrs)
	}
	if msgs[0].OrderingKey != "" {
		t.Fatalf("unordered topic got ordering key %q", msgs[0].OrderingKey)
	}
}

func TestPubSubPublisherOrdersByCollection(t *testing.T) {
	server := newPubSubServer(t)
	publishOne(t, PubSubConfig{ProjectID: "test-project", Topic: "records", Ordered: true}, Event{
		Collection: "ec_catalog",
		Record:     domain.RecordSummary{ID: "r1"},
	})

	msgs := server.Messages()
	if len(msgs) != 1 || msgs[0].OrderingKey != "ec_catalog" {
		t.Fatalf("expected one message keyed by collection, got %#v", msgs)
	}
}
