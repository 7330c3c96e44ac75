// Package cli implements the catalog command line browser.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Adda-Baaj/ec-catalog/internal/config"
	"github.com/Adda-Baaj/ec-catalog/internal/logger"
	"github.com/Adda-Baaj/ec-catalog/pkg/catalog"
	"github.com/Adda-Baaj/ec-catalog/pkg/httpclient"
)

// App holds the state shared by all catalog commands.
type App struct {
	cfg    *config.Config
	out    io.Writer
	log    logger.Logger
	http   httpclient.Client
	client *catalog.Client
	format Format

	endpoint   string
	collection string
	formatFlag string
	logLevel   string
}

// Option customizes an App.
type Option func(*App)

// WithOutput redirects command output (default stdout).
func WithOutput(w io.Writer) Option {
	return func(a *App) {
		if w != nil {
			a.out = w
		}
	}
}

// WithLogger injects a logger instead of initializing one from config.
func WithLogger(log logger.Logger) Option {
	return func(a *App) { a.log = log }
}

// WithHTTPClient replaces the resty transport.
func WithHTTPClient(hc httpclient.Client) Option {
	return func(a *App) { a.http = hc }
}

// New creates the CLI application for cfg.
func New(cfg *config.Config, opts ...Option) *App {
	a := &App{cfg: cfg, out: os.Stdout}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Execute runs the command line with args.
func (a *App) Execute(ctx context.Context, args []string) error {
	root := a.newRootCommand()
	root.SetArgs(args)
	root.SetOut(a.out)
	return root.ExecuteContext(ctx)
}

func (a *App) newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "catalog",
		Short: "Browse an OGC API Records catalog",
		Long: `catalog browses an OGC API Records metadata catalog: collection
metadata, paginated record listings, single records, and the features and
tiles of the collections records point at.`,
		PersistentPreRunE: a.setup,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.endpoint, "endpoint", "", "catalog endpoint (overrides CATALOG_ENDPOINT)")
	flags.StringVar(&a.collection, "collection", "", "catalog collection id (overrides CATALOG_COLLECTION)")
	flags.StringVarP(&a.formatFlag, "format", "o", "", "output format: json, yaml, table (default auto)")
	flags.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error")

	root.AddCommand(
		a.newCollectionCommand(),
		a.newItemsCommand(),
		a.newRecordCommand(),
		a.newFeaturesCommand(),
		a.newTilesCommand(),
		a.newOverviewCommand(),
		a.newCheckURLCommand(),
	)
	return root
}

// setup applies flag overrides and builds the catalog client.
func (a *App) setup(_ *cobra.Command, _ []string) error {
	if a.cfg == nil {
		return fmt.Errorf("config must not be nil")
	}
	if v := strings.TrimSpace(a.endpoint); v != "" {
		a.cfg.CatalogEndpoint = v
	}
	if v := strings.TrimSpace(a.collection); v != "" {
		a.cfg.CatalogCollection = v
	}
	if v := strings.TrimSpace(a.logLevel); v != "" {
		a.cfg.LogLevel = v
	}

	raw := a.formatFlag
	if strings.TrimSpace(raw) == "" {
		raw = a.cfg.OutputFormat
	}
	format, err := ParseFormat(raw)
	if err != nil {
		return err
	}
	a.format = format

	if a.log == nil {
		log, err := logger.Init(a.cfg)
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		a.log = log
	}
	if a.http == nil {
		a.http = httpclient.NewRestyClient(httpclient.Options{
			Timeout:   a.cfg.HTTPTimeout,
			UserAgent: a.cfg.UserAgent,
		})
	}

	client, err := catalog.New(a.cfg.CatalogEndpoint,
		catalog.WithHTTPClient(a.http),
		catalog.WithLogger(a.log),
		catalog.WithCollection(a.cfg.CatalogCollection),
		catalog.WithDefaultLimit(a.cfg.PageLimit),
	)
	if err != nil {
		return fmt.Errorf("catalog endpoint: %w", err)
	}
	a.client = client
	return nil
}

func (a *App) render(data any, table func() tableData) error {
	return render(a.out, a.format, data, table)
}
