package httpclient

import "context"

// Response is a minimal HTTP response contract.
type Response interface {
	Body() []byte
	StatusCode() int
	ContentType() string
}

// Client abstracts HTTP GET calls so the catalog client can be pointed at
// mocks, httptest servers or a different transport.
type Client interface {
	Get(ctx context.Context, url string, headers map[string]string) (Response, error)
}
