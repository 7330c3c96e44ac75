package app

import (
	"context"
	"fmt"
	"time"

	"github.com/Adda-Baaj/ec-catalog/internal/config"
	"github.com/Adda-Baaj/ec-catalog/internal/harvest"
	"github.com/Adda-Baaj/ec-catalog/internal/logger"
	"github.com/Adda-Baaj/ec-catalog/internal/storage"
	"github.com/Adda-Baaj/ec-catalog/pkg/catalog"
	"github.com/Adda-Baaj/ec-catalog/pkg/httpclient"
	"github.com/Adda-Baaj/ec-catalog/pkg/publishers"
	"github.com/Adda-Baaj/ec-catalog/pkg/sources"
)

// Harvester is the catalog harvester runtime. It owns the harvest loop, the
// publisher fan-out and the record store.
type Harvester struct {
	cfg             *config.Config
	sourceReg       *sources.Registry
	fanout          *publishers.Fanout
	service         *harvest.Service
	harvestInterval time.Duration
	log             logger.Logger
	store           storage.Store
}

// NewHarvester builds a harvester runtime from config files.
func NewHarvester(ctx context.Context, cfg *config.Config, log logger.Logger) (*Harvester, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	sourceReg, err := sources.LoadRegistry(cfg.SourcesFile)
	if err != nil {
		return nil, fmt.Errorf("load sources registry: %w", err)
	}
	sourceList := sourceReg.All()
	sourceIDs := make([]string, 0, len(sourceList))
	for _, s := range sourceList {
		sourceIDs = append(sourceIDs, s.ID)
	}
	log.InfoObj("sources registry loaded", "sources_meta", map[string]any{
		"count": len(sourceIDs),
		"ids":   sourceIDs,
	})

	publisherCfgs, err := publishers.LoadConfigs(cfg.PublishersFile)
	if err != nil {
		return nil, fmt.Errorf("load publishers: %w", err)
	}
	enabledPublishers := publisherCfgs.Enabled()
	if len(enabledPublishers) == 0 {
		return nil, fmt.Errorf("no publishers enabled in %s", cfg.PublishersFile)
	}

	pubClients, err := publishers.Build(ctx, enabledPublishers)
	if err != nil {
		return nil, fmt.Errorf("build publishers: %w", err)
	}
	fanout := publishers.NewFanout(pubClients, log)
	publisherSummaries := make([]map[string]string, 0, len(enabledPublishers))
	for _, pubCfg := range enabledPublishers {
		publisherSummaries = append(publisherSummaries, map[string]string{
			"id":   pubCfg.ID,
			"type": pubCfg.Type,
		})
	}
	log.InfoObj("publishers registry loaded", "publishers_meta", map[string]any{
		"count":      len(publisherSummaries),
		"publishers": publisherSummaries,
	})

	storeOpts := storage.Options{
		RecordTTL:       cfg.StorageTTL,
		CleanupInterval: cfg.StorageCleanupInterval,
	}
	store, err := storage.NewStore(cfg.StorageType, cfg.BBoltPath, storeOpts)
	if err != nil {
		_ = fanout.Close()
		return nil, fmt.Errorf("init storage: %w", err)
	}
	log.InfoObj("storage initialized", "storage_config", map[string]any{
		"type":                     cfg.StorageType,
		"path":                     cfg.BBoltPath,
		"record_ttl_seconds":       int(cfg.StorageTTL.Seconds()),
		"cleanup_interval_seconds": int(cfg.StorageCleanupInterval.Seconds()),
	})

	service := harvest.NewService(catalogClients(cfg, log), fanout, log, store)

	return &Harvester{
		cfg:             cfg,
		sourceReg:       sourceReg,
		fanout:          fanout,
		service:         service,
		harvestInterval: cfg.HarvestInterval,
		log:             log,
		store:           store,
	}, nil
}

// catalogClients returns a factory building one catalog client per source.
// All clients share a single resty transport.
func catalogClients(cfg *config.Config, log logger.Logger) harvest.ClientFactory {
	transport := httpclient.NewRestyClient(httpclient.Options{
		Timeout:   cfg.HTTPTimeout,
		UserAgent: cfg.UserAgent,
	})
	return func(src sources.Source) (harvest.ItemsFetcher, error) {
		client, err := catalog.New(cfg.CatalogEndpoint,
			catalog.WithHTTPClient(transport),
			catalog.WithLogger(log),
			catalog.WithCollection(src.Collection),
			catalog.WithDefaultLimit(cfg.PageLimit),
			catalog.WithHeaders(sources.Headers(src)),
		)
		if err != nil {
			return nil, err
		}
		return client, nil
	}
}

// Run starts the harvest loop until the context is cancelled.
func (h *Harvester) Run(ctx context.Context) error {
	if h == nil || h.service == nil {
		return fmt.Errorf("harvester is not initialized")
	}
	defer h.close()

	srcs := h.sourceReg.All()
	h.log.InfoObj("harvester loop starting", "harvester_state", map[string]any{
		"sources_count":    len(srcs),
		"publishers_count": h.fanout.Size(),
		"harvest_interval": h.harvestInterval.String(),
		"endpoint":         h.cfg.CatalogEndpoint,
	})

	if err := h.RunOnce(ctx); err != nil {
		h.log.ErrorObj("initial harvest failed", "error", err.Error())
	}

	ticker := time.NewTicker(h.harvestInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.log.InfoObj("harvester loop exiting", "reason", ctx.Err().Error())
			return nil
		case <-ticker.C:
			if err := h.RunOnce(ctx); err != nil {
				h.log.ErrorObj("scheduled harvest failed", "error", err.Error())
			}
		}
	}
}

// RunOnce performs a single harvest pass across all sources.
func (h *Harvester) RunOnce(ctx context.Context) error {
	if h == nil || h.service == nil {
		return fmt.Errorf("harvester is not initialized")
	}
	srcs := h.sourceReg.All()
	start := time.Now()
	h.log.InfoObj("harvest started", "harvest_meta", map[string]any{
		"sources_count": len(srcs),
		"started_at":    start.UTC(),
	})
	if err := h.service.Run(ctx, srcs); err != nil {
		return err
	}
	h.log.InfoObj("harvest completed", "harvest_meta", map[string]any{
		"sources_count": len(srcs),
		"elapsed_ms":    time.Since(start).Milliseconds(),
	})
	return nil
}

// Close releases the record store and publisher connections. Run calls it on exit.
func (h *Harvester) Close() { h.close() }

func (h *Harvester) close() {
	if h == nil {
		return
	}
	if h.store != nil {
		if err := h.store.Close(); err != nil {
			h.log.ErrorObj("storage close failed", "error", err.Error())
		}
		h.store = nil
	}
	if h.fanout != nil {
		if err := h.fanout.Close(); err != nil {
			h.log.ErrorObj("publisher close failed", "error", err.Error())
		}
		h.fanout = nil
	}
}
