package catalog

import (
	"strings"

	"github.com/goccy/go-json"

	"github.com/Adda-Baaj/ec-catalog/internal/domain"
)

// itemsResponse is the OGC API Records item listing shape.
type itemsResponse struct {
	Features       []domain.Record `json:"features"`
	Links          []domain.Link   `json:"links"`
	NumberMatched  *int            `json:"numberMatched"`
	NumberReturned *int            `json:"numberReturned"`
}

// Page is one fetched batch of catalog items plus pagination bookkeeping.
// NumberMatched and NumberReturned are nil when the server omits them.
type Page struct {
	Features       []domain.Record
	Links          []domain.Link
	NumberMatched  *int
	NumberReturned *int
	Offset         int
	Limit          int
}

func newPage(body itemsResponse, limit, offset int) *Page {
	p := &Page{
		Features:       body.Features,
		Links:          body.Links,
		NumberMatched:  body.NumberMatched,
		NumberReturned: body.NumberReturned,
		Offset:         offset,
		Limit:          limit,
	}
	if p.Features == nil {
		p.Features = []domain.Record{}
	}
	if p.Links == nil {
		p.Links = []domain.Link{}
	}
	return p
}

// HasNext reports whether items remain past this page. It is false when the
// server did not report numberMatched.
func (p Page) HasNext() bool {
	if p.NumberMatched == nil {
		return false
	}
	matched, offset := *p.NumberMatched, max(p.Offset, 0)
	if offset >= matched {
		return false
	}
	// matched-offset cannot overflow here, unlike offset+limit.
	return matched-offset > p.Limit
}

// NextURL returns the href of the rel=next link, or "".
func (p Page) NextURL() string { return p.linkHref("next") }

// PrevURL returns the href of the rel=prev (or rel=previous) link, or "".
func (p Page) PrevURL() string {
	if href := p.linkHref("prev"); href != "" {
		return href
	}
	return p.linkHref("previous")
}

func (p Page) linkHref(rel string) string {
	for _, l := range p.Links {
		if strings.EqualFold(strings.TrimSpace(l.Rel), rel) && strings.TrimSpace(l.Href) != "" {
			return strings.TrimSpace(l.Href)
		}
	}
	return ""
}

type pageView struct {
	Features       []domain.Record `json:"features" yaml:"features"`
	Links          []domain.Link   `json:"links" yaml:"links"`
	NumberMatched  *int            `json:"numberMatched,omitempty" yaml:"numberMatched,omitempty"`
	NumberReturned *int            `json:"numberReturned,omitempty" yaml:"numberReturned,omitempty"`
	Offset         int             `json:"offset" yaml:"offset"`
	Limit          int             `json:"limit" yaml:"limit"`
	HasNext        bool            `json:"hasNext" yaml:"hasNext"`
}

func (p Page) view() pageView {
	return pageView{
		Features:       p.Features,
		Links:          p.Links,
		NumberMatched:  p.NumberMatched,
		NumberReturned: p.NumberReturned,
		Offset:         p.Offset,
		Limit:          p.Limit,
		HasNext:        p.HasNext(),
	}
}

// MarshalJSON includes the derived hasNext flag.
func (p Page) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.view())
}

// MarshalYAML includes the derived hasNext flag.
func (p Page) MarshalYAML() (interface{}, error) {
	return p.view(), nil
}
