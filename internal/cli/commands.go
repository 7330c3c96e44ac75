package cli

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Adda-Baaj/ec-catalog/internal/app"
	"github.com/Adda-Baaj/ec-catalog/internal/domain"
	"github.com/Adda-Baaj/ec-catalog/internal/harvest"
	"github.com/Adda-Baaj/ec-catalog/pkg/catalog"
)

const (
	titleWidth       = 60
	descriptionWidth = 200
	maxAllPages      = 1000
)

func (a *App) newCollectionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "collection",
		Short: "Show the catalog collection metadata",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			doc, err := a.client.FetchCollection(cmd.Context())
			if err != nil {
				return err
			}
			return a.render(doc, func() tableData { return documentTable(doc) })
		},
	}
}

func (a *App) newItemsCommand() *cobra.Command {
	var (
		link   string
		limit  int
		offset int
		all    bool
	)
	cmd := &cobra.Command{
		Use:   "items",
		Short: "List catalog records one page at a time",
		Long: `items lists records of the catalog collection. Use --url to request a
pagination link from a previous page verbatim, or --all to follow next
links until the last page.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts := catalog.ItemsOptions{URL: link, Limit: limit, Offset: offset}
			if !all {
				page, err := a.client.FetchItems(cmd.Context(), opts)
				if err != nil {
					return err
				}
				return a.render(page, func() tableData { return pageTable(page) })
			}

			records, err := a.allRecords(cmd, opts)
			if err != nil {
				return err
			}
			return a.render(records, func() tableData {
				t := recordsTable(records)
				t.Footer = fmt.Sprintf("%d records", len(records))
				return t
			})
		},
	}
	cmd.Flags().StringVar(&link, "url", "", "pagination link to fetch verbatim")
	cmd.Flags().IntVar(&limit, "limit", 0, "page size (default from page_limit)")
	cmd.Flags().IntVar(&offset, "offset", 0, "index of the first record")
	cmd.Flags().BoolVar(&all, "all", false, "follow next links through every page")
	return cmd
}

// allRecords walks pages from opts, preferring rel=next links that stay in
// the catalog and falling back to offset arithmetic.
func (a *App) allRecords(cmd *cobra.Command, opts catalog.ItemsOptions) ([]domain.Record, error) {
	records := []domain.Record{}
	seen := map[string]struct{}{}
	for i := 0; i < maxAllPages; i++ {
		page, err := a.client.FetchItems(cmd.Context(), opts)
		if err != nil {
			return nil, err
		}
		records = append(records, page.Features...)
		if len(page.Features) == 0 {
			break
		}

		next := page.NextURL()
		if _, dup := seen[next]; next != "" && !dup && a.client.IsFromCatalog(next) {
			seen[next] = struct{}{}
			opts = catalog.ItemsOptions{URL: next}
			continue
		}
		if !page.HasNext() {
			break
		}
		opts = catalog.ItemsOptions{Limit: page.Limit, Offset: page.Offset + page.Limit}
	}
	return records, nil
}

func (a *App) newRecordCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "record <id>",
		Short: "Show a single catalog record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := a.client.FetchRecord(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.render(rec, func() tableData { return recordTable(rec) })
		},
	}
}

func (a *App) newFeaturesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "features <collection>",
		Short: "Show the features of a data collection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := a.client.FetchFeatures(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.render(doc, func() tableData { return featuresTable(doc) })
		},
	}
}

func (a *App) newTilesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tiles <collection>",
		Short: "Show the tile descriptor of a data collection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := a.client.FetchTiles(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.render(doc, func() tableData { return linksTable(doc) })
		},
	}
}

type overview struct {
	Collection domain.Document `json:"collection" yaml:"collection"`
	Page       *catalog.Page   `json:"page" yaml:"page"`
}

func (a *App) newOverviewCommand() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "overview",
		Short: "Show collection metadata together with the first page of records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			b := app.NewBrowser(a.client, limit)
			if err := b.Load(cmd.Context()); err != nil {
				return err
			}
			coll, page := b.Current()
			return a.render(overview{Collection: coll, Page: page}, func() tableData {
				t := pageTable(page)
				title, _ := coll["title"].(string)
				if title == "" {
					title = a.client.Collection()
				}
				t.Footer = title + ": " + t.Footer
				return t
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "page size (default from page_limit)")
	return cmd
}

type urlCheck struct {
	URL         string `json:"url" yaml:"url"`
	JSONURL     string `json:"json_url" yaml:"json_url"`
	FromCatalog bool   `json:"from_catalog" yaml:"from_catalog"`
}

func (a *App) newCheckURLCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check-url <url>",
		Short: "Print the JSON form of a URL and whether it belongs to the catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			jsonURL, err := catalog.EnsureJSONFormat(args[0])
			if err != nil {
				return err
			}
			res := urlCheck{URL: args[0], JSONURL: jsonURL, FromCatalog: a.client.IsFromCatalog(args[0])}
			return a.render(res, func() tableData {
				return tableData{
					Headers: []string{"field", "value"},
					Rows: [][]string{
						{"url", res.URL},
						{"json_url", res.JSONURL},
						{"from_catalog", strconv.FormatBool(res.FromCatalog)},
					},
				}
			})
		},
	}
}

func pageTable(page *catalog.Page) tableData {
	t := recordsTable(page.Features)
	matched := "?"
	if page.NumberMatched != nil {
		matched = strconv.Itoa(*page.NumberMatched)
	}
	t.Footer = fmt.Sprintf("offset %d, limit %d, matched %s, has next %t", page.Offset, page.Limit, matched, page.HasNext())
	if next := page.NextURL(); next != "" {
		t.Footer += "\nnext: " + next
	}
	return t
}

func recordsTable(records []domain.Record) tableData {
	t := tableData{Headers: []string{"id", "title", "updated"}}
	for _, rec := range records {
		t.Rows = append(t.Rows, []string{rec.ID(), shorten(rec.Title(), titleWidth), rec.Updated()})
	}
	return t
}

func recordTable(rec domain.Record) tableData {
	s := harvest.Summarize(rec)
	return tableData{
		Headers: []string{"field", "value"},
		Rows: [][]string{
			{"id", s.ID},
			{"title", s.Title},
			{"description", shorten(s.Description, descriptionWidth)},
			{"keywords", strings.Join(s.Keywords, ", ")},
			{"updated", s.Updated},
			{"url", s.URL},
		},
	}
}

// documentTable lists the scalar top-level fields of doc.
func documentTable(doc domain.Document) tableData {
	keys := make([]string, 0, len(doc))
	for k := range doc {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	t := tableData{Headers: []string{"field", "value"}}
	for _, k := range keys {
		switch v := doc[k].(type) {
		case string:
			t.Rows = append(t.Rows, []string{k, shorten(v, descriptionWidth)})
		case float64, bool:
			t.Rows = append(t.Rows, []string{k, fmt.Sprint(v)})
		}
	}
	if links, ok := doc["links"].([]any); ok {
		t.Footer = fmt.Sprintf("%d links", len(links))
	}
	return t
}

func featuresTable(doc domain.Document) tableData {
	t := tableData{Headers: []string{"id", "geometry", "properties"}}
	features, _ := doc["features"].([]any)
	for _, f := range features {
		feat, ok := f.(map[string]any)
		if !ok {
			continue
		}
		geom := ""
		if g, ok := feat["geometry"].(map[string]any); ok {
			geom, _ = g["type"].(string)
		}
		props, _ := feat["properties"].(map[string]any)
		t.Rows = append(t.Rows, []string{fmt.Sprint(feat["id"]), geom, strconv.Itoa(len(props))})
	}
	t.Footer = fmt.Sprintf("%d features", len(t.Rows))
	return t
}

func linksTable(doc domain.Document) tableData {
	t := tableData{Headers: []string{"rel", "type", "href"}}
	links, _ := doc["links"].([]any)
	for _, l := range links {
		link, ok := l.(map[string]any)
		if !ok {
			continue
		}
		rel, _ := link["rel"].(string)
		typ, _ := link["type"].(string)
		href, _ := link["href"].(string)
		t.Rows = append(t.Rows, []string{rel, typ, href})
	}
	return t
}
