package harvest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Adda-Baaj/ec-catalog/internal/domain"
	"github.com/Adda-Baaj/ec-catalog/internal/logger"
	"github.com/Adda-Baaj/ec-catalog/pkg/catalog"
	"github.com/Adda-Baaj/ec-catalog/pkg/publishers"
	"github.com/Adda-Baaj/ec-catalog/pkg/sources"
)

// maxPages bounds a single source walk in case a server keeps advertising
// next links forever.
const maxPages = 10000

// Service walks catalog sources page by page and publishes unseen records.
type Service struct {
	clientFor ClientFactory
	publisher EventPublisher
	store     Deduper
	log       logger.Logger
}

// Stats summarizes one source walk.
type Stats struct {
	Pages     int `json:"pages"`
	Records   int `json:"records"`
	Published int `json:"published"`
	Skipped   int `json:"skipped"`
}

// NewService wires a harvester. A nil store publishes every record on every pass.
func NewService(clientFor ClientFactory, pub EventPublisher, log logger.Logger, store Deduper) *Service {
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Service{
		clientFor: clientFor,
		publisher: pub,
		store:     store,
		log:       log,
	}
}

// Run executes a harvest pass for all configured sources.
func (s *Service) Run(ctx context.Context, srcs []sources.Source) error {
	if s == nil || s.clientFor == nil {
		return fmt.Errorf("harvest service is not initialized")
	}
	if len(srcs) == 0 {
		return fmt.Errorf("no sources configured for harvesting")
	}

	errs := s.runAll(ctx, srcs)
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

func (s *Service) runAll(ctx context.Context, srcs []sources.Source) []error {
	errs := make([]error, 0, len(srcs))

	for _, src := range srcs {
		if ctx.Err() != nil {
			break
		}
		stats, err := s.RunSource(ctx, src)
		if err != nil {
			errs = append(errs, err)
			s.log.ErrorObj("source harvest failed", "source_error", map[string]any{
				"source_id": src.ID,
				"error":     err.Error(),
			})
			continue
		}
		s.log.InfoObj("source harvest completed", "source_result", map[string]any{
			"source_id":  src.ID,
			"collection": src.Collection,
			"pages":      stats.Pages,
			"records":    stats.Records,
			"published":  stats.Published,
			"skipped":    stats.Skipped,
		})
	}

	return errs
}

// RunSource walks every page of one source. Pagination follows the server's
// rel=next link while it stays inside the catalog, and falls back to offset
// arithmetic when the link is missing but the page reports more items.
func (s *Service) RunSource(ctx context.Context, src sources.Source) (Stats, error) {
	var stats Stats

	client, err := s.clientFor(src)
	if err != nil {
		return stats, fmt.Errorf("build client for source %s: %w", src.ID, err)
	}

	opts := catalog.ItemsOptions{Limit: src.PageLimit}
	visited := make(map[string]struct{})
	delay := src.RequestDelay()

	for stats.Pages < maxPages {
		page, err := client.FetchCollectionItems(ctx, src.Collection, opts)
		if err != nil {
			return stats, fmt.Errorf("fetch source %s page %d: %w", src.ID, stats.Pages+1, err)
		}
		stats.Pages++
		stats.Records += len(page.Features)

		published, skipped, err := s.processPage(ctx, src, page.Features)
		stats.Published += published
		stats.Skipped += skipped
		if err != nil {
			return stats, err
		}

		next, ok := s.nextOptions(client, src, page, visited)
		if !ok || len(page.Features) == 0 {
			return stats, nil
		}
		opts = next

		if delay > 0 {
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return stats, ctx.Err()
			case <-timer.C:
			}
		}
	}

	s.log.WarnObj("source harvest stopped at page limit", "source_meta", map[string]any{
		"source_id": src.ID,
		"max_pages": maxPages,
	})
	return stats, nil
}

func (s *Service) nextOptions(client ItemsFetcher, src sources.Source, page *catalog.Page, visited map[string]struct{}) (catalog.ItemsOptions, bool) {
	if link := page.NextURL(); link != "" {
		if _, seen := visited[link]; seen {
			return catalog.ItemsOptions{}, false
		}
		if client.IsFromCatalog(link) {
			visited[link] = struct{}{}
			return catalog.ItemsOptions{URL: link}, true
		}
		s.log.WarnObj("ignoring next link outside the catalog", "source_meta", map[string]any{
			"source_id": src.ID,
			"href":      link,
		})
	}
	if page.HasNext() {
		return catalog.ItemsOptions{Limit: page.Limit, Offset: page.Offset + page.Limit}, true
	}
	return catalog.ItemsOptions{}, false
}

// processPage publishes unseen records. Publish failures are aggregated so
// one bad record does not hide the others.
func (s *Service) processPage(ctx context.Context, src sources.Source, records []domain.Record) (int, int, error) {
	var (
		errs      []error
		published int
	)

	fresh := s.filterNewRecords(src, records)
	skipped := len(records) - len(fresh)

	for _, rec := range fresh {
		if ctx.Err() != nil {
			return published, skipped, ctx.Err()
		}
		if s.publisher == nil {
			skipped++
			continue
		}

		evt := publishers.NewEvent(src, fingerprint(rec), Summarize(rec), rec)
		count, err := s.publisher.Publish(ctx, evt)
		if err != nil {
			errs = append(errs, fmt.Errorf("publish record %s: %w", rec.ID(), err))
		}
		if count == 0 {
			continue
		}
		published++
		if s.store != nil {
			if err := s.store.MarkRecord(recordKey(src, rec), evt.Fingerprint); err != nil {
				s.log.WarnObj("record store mark failed", "store_error", map[string]any{
					"source_id": src.ID,
					"record_id": rec.ID(),
					"error":     err.Error(),
				})
			}
		}
	}

	return published, skipped, errors.Join(errs...)
}

// filterNewRecords drops records without an id and records whose current
// version was already published. Store lookup failures keep the record.
func (s *Service) filterNewRecords(src sources.Source, records []domain.Record) []domain.Record {
	out := make([]domain.Record, 0, len(records))
	for _, rec := range records {
		if rec.ID() == "" {
			s.log.DebugObj("skipping record without id", "source_id", src.ID)
			continue
		}
		if s.store == nil {
			out = append(out, rec)
			continue
		}
		seen, err := s.store.SeenRecord(recordKey(src, rec), fingerprint(rec))
		if err != nil {
			s.log.WarnObj("record store lookup failed", "store_error", map[string]any{
				"source_id": src.ID,
				"record_id": rec.ID(),
				"error":     err.Error(),
			})
			out = append(out, rec)
			continue
		}
		if !seen {
			out = append(out, rec)
		}
	}
	return out
}

func recordKey(src sources.Source, rec domain.Record) string {
	return src.ID + "/" + rec.ID()
}
