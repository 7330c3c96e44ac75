package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/Adda-Baaj/ec-catalog/internal/app"
	"github.com/Adda-Baaj/ec-catalog/internal/config"
	"github.com/Adda-Baaj/ec-catalog/internal/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "harvester start failed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	once := pflag.Bool("once", false, "run a single harvest pass and exit")
	pflag.Parse()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.Init(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Close()

	logger.InfoObj("harvester starting", "config", map[string]any{
		"endpoint":         cfg.CatalogEndpoint,
		"sources_file":     cfg.SourcesFile,
		"publishers_file":  cfg.PublishersFile,
		"storage_type":     cfg.StorageType,
		"harvest_interval": cfg.HarvestInterval.String(),
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	harvester, err := app.NewHarvester(ctx, cfg, log)
	if err != nil {
		logger.ErrorObj("failed to initialize harvester", "error", err.Error())
		return err
	}

	if *once {
		defer harvester.Close()
		return harvester.RunOnce(ctx)
	}

	if err := harvester.Run(ctx); err != nil {
		return fmt.Errorf("harvester run: %w", err)
	}

	return nil
}
