package harvest

import (
	"context"

	"github.com/Adda-Baaj/ec-catalog/pkg/catalog"
	"github.com/Adda-Baaj/ec-catalog/pkg/publishers"
	"github.com/Adda-Baaj/ec-catalog/pkg/sources"
)

// ItemsFetcher is the slice of catalog.Client the walker needs.
type ItemsFetcher interface {
	FetchCollectionItems(ctx context.Context, collectionID string, opts catalog.ItemsOptions) (*catalog.Page, error)
	IsFromCatalog(rawURL string) bool
}

// ClientFactory returns the fetcher used for a source (per-source headers).
type ClientFactory func(src sources.Source) (ItemsFetcher, error)

// Deduper remembers which record versions were already published.
type Deduper interface {
	SeenRecord(key, fingerprint string) (bool, error)
	MarkRecord(key, fingerprint string) error
}

// EventPublisher publishes record events downstream and reports how many
// sinks accepted the event.
type EventPublisher interface {
	Publish(ctx context.Context, evt publishers.Event) (int, error)
}
