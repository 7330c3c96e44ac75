package app

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/Adda-Baaj/ec-catalog/internal/domain"
	"github.com/Adda-Baaj/ec-catalog/pkg/catalog"
)

var (
	// ErrNotLoaded is returned by navigation before Load succeeded.
	ErrNotLoaded = errors.New("browser has no page loaded")
	// ErrNoNextPage is returned when the current page is the last one.
	ErrNoNextPage = errors.New("no next page")
	// ErrNoPrevPage is returned when the current page is the first one.
	ErrNoPrevPage = errors.New("no previous page")
)

// Catalog is the part of catalog.Client a Browser drives.
type Catalog interface {
	FetchCollection(ctx context.Context) (domain.Document, error)
	FetchItems(ctx context.Context, opts catalog.ItemsOptions) (*catalog.Page, error)
	IsFromCatalog(rawURL string) bool
}

// Browser holds an interactive browsing session over the catalog collection:
// its metadata and the page currently shown.
type Browser struct {
	client Catalog
	limit  int

	mu         sync.RWMutex
	collection domain.Document
	page       *catalog.Page
}

// NewBrowser creates a session showing limit items per page (0 uses the client default).
func NewBrowser(client Catalog, limit int) *Browser {
	if limit < 0 {
		limit = 0
	}
	return &Browser{client: client, limit: limit}
}

// Load fetches collection metadata and the first items page concurrently.
// On failure the previous state is kept.
func (b *Browser) Load(ctx context.Context) error {
	var (
		collection domain.Document
		page       *catalog.Page
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		doc, err := b.client.FetchCollection(gctx)
		collection = doc
		return err
	})
	g.Go(func() error {
		p, err := b.client.FetchItems(gctx, catalog.ItemsOptions{Limit: b.limit})
		page = p
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	b.mu.Lock()
	b.collection = collection
	b.page = page
	b.mu.Unlock()
	return nil
}

// Next moves to the following page. The server's rel=next link is preferred;
// without one the offset is advanced by the page limit while items remain.
func (b *Browser) Next(ctx context.Context) (*catalog.Page, error) {
	cur := b.currentPage()
	if cur == nil {
		return nil, ErrNotLoaded
	}

	var opts catalog.ItemsOptions
	switch link := cur.NextURL(); {
	case link != "" && b.client.IsFromCatalog(link):
		opts.URL = link
	case cur.HasNext():
		opts = catalog.ItemsOptions{Limit: cur.Limit, Offset: cur.Offset + cur.Limit}
	default:
		return nil, ErrNoNextPage
	}
	return b.move(ctx, opts)
}

// Prev moves to the preceding page, following rel=prev when present.
func (b *Browser) Prev(ctx context.Context) (*catalog.Page, error) {
	cur := b.currentPage()
	if cur == nil {
		return nil, ErrNotLoaded
	}

	var opts catalog.ItemsOptions
	switch link := cur.PrevURL(); {
	case link != "" && b.client.IsFromCatalog(link):
		opts.URL = link
	case cur.Offset > 0:
		offset := cur.Offset - cur.Limit
		if offset < 0 {
			offset = 0
		}
		opts = catalog.ItemsOptions{Limit: cur.Limit, Offset: offset}
	default:
		return nil, ErrNoPrevPage
	}
	return b.move(ctx, opts)
}

// Current returns the loaded collection metadata and page (nil before Load).
func (b *Browser) Current() (domain.Document, *catalog.Page) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.collection, b.page
}

func (b *Browser) currentPage() *catalog.Page {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.page
}

func (b *Browser) move(ctx context.Context, opts catalog.ItemsOptions) (*catalog.Page, error) {
	page, err := b.client.FetchItems(ctx, opts)
	if err != nil {
		return nil, err
	}
	b.mu.Lock()
	b.page = page
	b.mu.Unlock()
	return page, nil
}
