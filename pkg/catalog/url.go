package catalog

import (
	"net/url"
	"strings"
)

const (
	formatParam = "f"
	formatJSON  = "json"
)

// EnsureJSONFormat returns rawURL with its f query parameter set to json,
// replacing any existing values. Every other query pair is kept byte for
// byte, including pairs url.ParseQuery would reject. The transform is
// idempotent.
func EnsureJSONFormat(rawURL string) (string, error) {
	u, err := parseAbsolute(rawURL)
	if err != nil {
		return "", err
	}
	u.RawQuery = withJSONFormat(u.RawQuery)
	return u.String(), nil
}

// withJSONFormat drops every f pair from rawQuery and appends f=json.
func withJSONFormat(rawQuery string) string {
	pairs := strings.Split(rawQuery, "&")
	kept := make([]string, 0, len(pairs)+1)
	for _, pair := range pairs {
		if pair == "" {
			continue
		}
		key, _, _ := strings.Cut(pair, "=")
		if k, err := url.QueryUnescape(key); err == nil && k == formatParam {
			continue
		}
		kept = append(kept, pair)
	}
	kept = append(kept, formatParam+"="+formatJSON)
	return strings.Join(kept, "&")
}

func parseAbsolute(rawURL string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return nil, &MalformedURLError{URL: rawURL, Err: err}
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, &MalformedURLError{URL: rawURL, Err: ErrNotAbsoluteURL}
	}
	return u, nil
}

// IsFromCatalog reports whether rawURL points below the client's
// <endpoint>/collections path.
func (c *Client) IsFromCatalog(rawURL string) bool {
	return strings.HasPrefix(rawURL, c.endpoint+"/collections")
}

func (c *Client) collectionURL(collectionID string) string {
	return c.endpoint + "/collections/" + url.PathEscape(collectionID)
}

func (c *Client) itemsURL(collectionID string) string {
	return c.collectionURL(collectionID) + "/items"
}

func (c *Client) recordURL(collectionID, recordID string) string {
	return c.itemsURL(collectionID) + "/" + url.PathEscape(recordID)
}

func (c *Client) tilesURL(collectionID string) string {
	return c.collectionURL(collectionID) + "/tiles"
}
