package publishers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/Adda-Baaj/ec-catalog/pkg/httpclient"
)

// Headers set on every webhook delivery.
const (
	HeaderIdempotencyKey = "Idempotency-Key"
	HeaderCollection     = "X-Catalog-Collection"
	HeaderRecordID       = "X-Catalog-Record"

	httpDefaultTimeoutSeconds = 5
)

// HTTPConfig posts each event as JSON to a webhook.
type HTTPConfig struct {
	URL            string            `json:"url" yaml:"url"`
	Method         string            `json:"method" yaml:"method"`
	Headers        map[string]string `json:"headers" yaml:"headers"`
	TimeoutSeconds int               `json:"timeout_seconds" yaml:"timeout_seconds"`
}

// normalized trims the block and applies POST and a 5s timeout by default.
func (c *HTTPConfig) normalized() (HTTPConfig, error) {
	if c == nil {
		return HTTPConfig{}, errors.New("http block is missing")
	}
	out := HTTPConfig{
		URL:            strings.TrimSpace(c.URL),
		Method:         strings.ToUpper(strings.TrimSpace(c.Method)),
		TimeoutSeconds: c.TimeoutSeconds,
	}
	if out.URL == "" {
		return HTTPConfig{}, errors.New("http.url is required")
	}
	if out.Method == "" {
		out.Method = http.MethodPost
	}
	if out.TimeoutSeconds <= 0 {
		out.TimeoutSeconds = httpDefaultTimeoutSeconds
	}
	for k, v := range c.Headers {
		k, v = strings.TrimSpace(k), strings.TrimSpace(v)
		if k == "" || v == "" {
			continue
		}
		if out.Headers == nil {
			out.Headers = make(map[string]string, len(c.Headers))
		}
		out.Headers[k] = v
	}
	return out, nil
}

type httpPublisher struct {
	id     string
	method string
	url    string
	client *resty.Client
}

func newHTTPPublisher(_ context.Context, cfg Config) (Publisher, error) {
	hc, err := cfg.HTTP.normalized()
	if err != nil {
		return nil, err
	}
	return &httpPublisher{
		id:     cfg.ID,
		method: hc.Method,
		url:    hc.URL,
		client: httpclient.NewRestyHTTPClient(httpclient.Options{
			Timeout: time.Duration(hc.TimeoutSeconds) * time.Second,
			Headers: hc.Headers,
		}),
	}, nil
}

func (h *httpPublisher) ID() string   { return h.id }
func (h *httpPublisher) Type() string { return TypeHTTP }

// Publish sends the event with an Idempotency-Key header so receivers can
// drop redeliveries of the same record version.
func (h *httpPublisher) Publish(ctx context.Context, evt Event) error {
	payload, err := marshalEvent(evt)
	if err != nil {
		return err
	}

	req := h.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader(HeaderIdempotencyKey, evt.IdempotencyKey()).
		SetBody(payload)
	if evt.Collection != "" {
		req.SetHeader(HeaderCollection, evt.Collection)
	}
	if evt.Record.ID != "" {
		req.SetHeader(HeaderRecordID, evt.Record.ID)
	}

	resp, err := req.Execute(h.method, h.url)
	if err != nil {
		return fmt.Errorf("%s %s: %w", h.method, h.url, err)
	}
	if resp.IsError() {
		return fmt.Errorf("%s %s: status %d: %s", h.method, h.url, resp.StatusCode(), bodySnippet(resp.Body()))
	}
	return nil
}

func bodySnippet(body []byte) string {
	if len(body) > 512 {
		body = body[:512]
	}
	return strings.TrimSpace(string(body))
}
