package catalog

import (
	"math"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/Adda-Baaj/ec-catalog/internal/domain"
)

func intPtr(n int) *int { return &n }

func TestPageHasNext(t *testing.T) {
	cases := []struct {
		name    string
		matched *int
		offset  int
		limit   int
		want    bool
	}{
		{name: "more remain", matched: intPtr(30), offset: 0, limit: 12, want: true},
		{name: "single page", matched: intPtr(3), offset: 0, limit: 12, want: false},
		{name: "exact boundary", matched: intPtr(24), offset: 12, limit: 12, want: false},
		{name: "last partial", matched: intPtr(30), offset: 24, limit: 12, want: false},
		{name: "missing matched", matched: nil, offset: 0, limit: 12, want: false},
		{name: "offset at max int", matched: intPtr(30), offset: math.MaxInt, limit: 12, want: false},
		{name: "limit at max int", matched: intPtr(30), offset: 12, limit: math.MaxInt, want: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := Page{NumberMatched: tc.matched, Offset: tc.offset, Limit: tc.limit}
			assert.Equal(t, tc.want, p.HasNext())
		})
	}
}

func TestNewPageDefaultsMissingSlices(t *testing.T) {
	p := newPage(itemsResponse{}, 12, 0)
	assert.NotNil(t, p.Features)
	assert.NotNil(t, p.Links)
	assert.Empty(t, p.Features)
	assert.Empty(t, p.Links)
	assert.Nil(t, p.NumberMatched)
	assert.Nil(t, p.NumberReturned)
}

func TestPageLinks(t *testing.T) {
	p := Page{Links: []domain.Link{
		{Href: "https://x/items?offset=0", Rel: "self"},
		{Href: "https://x/items?offset=12", Rel: "next"},
		{Href: "https://x/items?offset=0", Rel: "Previous"},
	}}
	assert.Equal(t, "https://x/items?offset=12", p.NextURL())
	assert.Equal(t, "https://x/items?offset=0", p.PrevURL())
	assert.Equal(t, "", Page{}.NextURL())
}

func TestPageMarshalIncludesHasNext(t *testing.T) {
	p := newPage(itemsResponse{NumberMatched: intPtr(30), NumberReturned: intPtr(12)}, 12, 0)

	raw, err := json.Marshal(p)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, true, decoded["hasNext"])
	assert.Equal(t, []any{}, decoded["features"])
	assert.EqualValues(t, 30, decoded["numberMatched"])

	out, err := yaml.Marshal(p)
	require.NoError(t, err)
	assert.Contains(t, string(out), "hasNext: true")
}
