// Package catalog is a client for OGC API Records catalogs. It forces JSON
// responses on every request and reshapes item listings into pages.
package catalog

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/Adda-Baaj/ec-catalog/internal/domain"
	"github.com/Adda-Baaj/ec-catalog/pkg/httpclient"
)

const (
	// DefaultCollection is the primary catalog collection.
	DefaultCollection = "ec_catalog"
	// DefaultLimit is the page size used when a call does not set one.
	DefaultLimit = 12

	opFetchJSON       = "fetch_json"
	opFetchCollection = "fetch_collection"
	opFetchItems      = "fetch_items"
	opFetchRecord     = "fetch_record"
	opFetchFeatures   = "fetch_features"
	opFetchTiles      = "fetch_tiles"

	maxSnippetBytes = 512
)

// Client issues GET requests against a fixed catalog endpoint. It holds no
// mutable state and is safe for concurrent use.
type Client struct {
	endpoint     string
	collection   string
	defaultLimit int
	http         httpclient.Client
	headers      map[string]string
	log          Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the GET capability. Defaults to a resty client.
func WithHTTPClient(hc httpclient.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithLogger sets the logger used for failure diagnostics.
func WithLogger(log Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// WithCollection overrides the catalog collection (default ec_catalog).
func WithCollection(id string) Option {
	return func(c *Client) {
		if id = strings.TrimSpace(id); id != "" {
			c.collection = id
		}
	}
}

// WithDefaultLimit overrides the page size used when ItemsOptions.Limit is unset.
func WithDefaultLimit(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.defaultLimit = n
		}
	}
}

// WithHeaders adds headers sent on every request.
func WithHeaders(headers map[string]string) Option {
	return func(c *Client) {
		for k, v := range headers {
			if strings.TrimSpace(k) == "" || strings.TrimSpace(v) == "" {
				continue
			}
			c.headers[k] = v
		}
	}
}

// New builds a client for endpoint, which must be an absolute URL. A trailing
// slash is ignored.
func New(endpoint string, opts ...Option) (*Client, error) {
	u, err := parseAbsolute(endpoint)
	if err != nil {
		return nil, err
	}

	c := &Client{
		endpoint:     strings.TrimRight(u.String(), "/"),
		collection:   DefaultCollection,
		defaultLimit: DefaultLimit,
		headers:      map[string]string{"Accept": "application/json"},
		log:          noopLogger{},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = httpclient.NewRestyClient(httpclient.Options{})
	}
	return c, nil
}

// Endpoint returns the configured base endpoint.
func (c *Client) Endpoint() string { return c.endpoint }

// Collection returns the catalog collection id.
func (c *Client) Collection() string { return c.collection }

// FetchJSON forces JSON format on rawURL, GETs it and returns the decoded body.
func (c *Client) FetchJSON(ctx context.Context, rawURL string) (any, error) {
	return observe(c, opFetchJSON, rawURL, func() (any, error) {
		var out any
		if err := c.getJSON(ctx, opFetchJSON, rawURL, &out); err != nil {
			return nil, err
		}
		return out, nil
	})
}

// FetchCollection returns the catalog collection metadata.
func (c *Client) FetchCollection(ctx context.Context) (domain.Document, error) {
	return c.fetchDocument(ctx, opFetchCollection, c.collectionURL(c.collection))
}

// ItemsOptions selects a page of items. When URL is set (typically a
// pagination link from a previous page) it is requested verbatim apart from
// the JSON format parameter, and Limit/Offset are not added to it.
type ItemsOptions struct {
	URL string
	// Limit <= 0 falls back to the client's default page size.
	Limit int
	// Offset < 0 is sent as 0.
	Offset int
}

// FetchItems returns a page of the catalog collection's items.
func (c *Client) FetchItems(ctx context.Context, opts ItemsOptions) (*Page, error) {
	return c.FetchCollectionItems(ctx, c.collection, opts)
}

// FetchCollectionItems returns a page of items from any collection.
func (c *Client) FetchCollectionItems(ctx context.Context, collectionID string, opts ItemsOptions) (*Page, error) {
	target, limit, offset := c.itemsRequest(collectionID, opts)
	return observe(c, opFetchItems, target, func() (*Page, error) {
		var body itemsResponse
		if err := c.getJSON(ctx, opFetchItems, target, &body); err != nil {
			return nil, err
		}
		return newPage(body, limit, offset), nil
	})
}

// FetchRecord returns a single catalog record.
func (c *Client) FetchRecord(ctx context.Context, recordID string) (domain.Record, error) {
	target := c.recordURL(c.collection, recordID)
	return observe(c, opFetchRecord, target, func() (domain.Record, error) {
		var rec domain.Record
		if err := c.getJSON(ctx, opFetchRecord, target, &rec); err != nil {
			return nil, err
		}
		return rec, nil
	})
}

// FetchFeatures returns the items document of collectionID as served.
func (c *Client) FetchFeatures(ctx context.Context, collectionID string) (domain.Document, error) {
	return c.fetchDocument(ctx, opFetchFeatures, c.itemsURL(collectionID))
}

// FetchTiles returns the tile descriptor of collectionID.
func (c *Client) FetchTiles(ctx context.Context, collectionID string) (domain.Document, error) {
	return c.fetchDocument(ctx, opFetchTiles, c.tilesURL(collectionID))
}

func (c *Client) fetchDocument(ctx context.Context, op, target string) (domain.Document, error) {
	return observe(c, op, target, func() (domain.Document, error) {
		var doc domain.Document
		if err := c.getJSON(ctx, op, target, &doc); err != nil {
			return nil, err
		}
		return doc, nil
	})
}

// itemsRequest resolves the request URL and the effective limit/offset.
func (c *Client) itemsRequest(collectionID string, opts ItemsOptions) (string, int, int) {
	limit := opts.Limit
	if limit <= 0 {
		limit = c.defaultLimit
	}
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}

	if link := strings.TrimSpace(opts.URL); link != "" {
		// The link carries its own pagination state; report it when readable.
		if u, err := url.Parse(link); err == nil {
			q := u.Query()
			if n, err := strconv.Atoi(q.Get("limit")); err == nil && n > 0 {
				limit = n
			}
			if n, err := strconv.Atoi(q.Get("offset")); err == nil && n >= 0 {
				offset = n
			}
		}
		return link, limit, offset
	}

	u, _ := url.Parse(c.itemsURL(collectionID))
	q := u.Query()
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))
	u.RawQuery = q.Encode()
	return u.String(), limit, offset
}

// getJSON performs the GET without logging; callers wrap it with observe.
func (c *Client) getJSON(ctx context.Context, op, rawURL string, out any) error {
	jsonURL, err := EnsureJSONFormat(rawURL)
	if err != nil {
		return err
	}

	resp, err := c.http.Get(ctx, jsonURL, c.headers)
	if err != nil {
		return &FetchError{Op: op, URL: jsonURL, Err: err}
	}

	body := resp.Body()
	if code := resp.StatusCode(); code < http.StatusOK || code >= http.StatusMultipleChoices {
		return &FetchError{
			Op:         op,
			URL:        jsonURL,
			StatusCode: code,
			Err:        fmt.Errorf("%w: %s", ErrUnexpectedStatus, bodySnippet(body)),
		}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return &FetchError{Op: op, URL: jsonURL, StatusCode: resp.StatusCode(), Err: err}
	}
	return nil
}

func bodySnippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > maxSnippetBytes {
		return s[:maxSnippetBytes] + "..."
	}
	if s == "" {
		return "<empty>"
	}
	return s
}
