package catalog

import (
	"errors"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const emotionalEndpoint = "https://emotional.byteroad.net"

func TestEnsureJSONFormatAddsParameter(t *testing.T) {
	got, err := EnsureJSONFormat(emotionalEndpoint + "/collections/ec_catalog")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(got, "?f=json"), "got %s", got)
}

func TestEnsureJSONFormatKeepsOtherParameters(t *testing.T) {
	got, err := EnsureJSONFormat(emotionalEndpoint + "/collections/ec_catalog?x=1")
	require.NoError(t, err)

	u, err := url.Parse(got)
	require.NoError(t, err)
	q := u.Query()
	assert.Equal(t, []string{"1"}, q["x"])
	assert.Equal(t, []string{"json"}, q["f"])
}

func TestEnsureJSONFormatOverwritesExistingFormat(t *testing.T) {
	got, err := EnsureJSONFormat(emotionalEndpoint + "/collections?f=html&f=xml&limit=5")
	require.NoError(t, err)

	u, err := url.Parse(got)
	require.NoError(t, err)
	assert.Equal(t, []string{"json"}, u.Query()["f"])
	assert.Equal(t, "5", u.Query().Get("limit"))
}

func TestEnsureJSONFormatKeepsUnparseablePairsVerbatim(t *testing.T) {
	got, err := EnsureJSONFormat(emotionalEndpoint + "/collections/ec_catalog/items?filter=a;b&offset=12&bad=%zz&F=x&%66=html")
	require.NoError(t, err)

	u, err := url.Parse(got)
	require.NoError(t, err)
	assert.Equal(t, "filter=a;b&offset=12&bad=%zz&F=x&f=json", u.RawQuery)
}

func TestEnsureJSONFormatAppendsAfterExistingPairs(t *testing.T) {
	got, err := EnsureJSONFormat(emotionalEndpoint + "/collections/ec_catalog/items?q=lisbon+parks&f=html&limit=5#map")
	require.NoError(t, err)
	assert.Equal(t, emotionalEndpoint+"/collections/ec_catalog/items?q=lisbon+parks&limit=5&f=json#map", got)
}

func TestEnsureJSONFormatIsIdempotent(t *testing.T) {
	inputs := []string{
		emotionalEndpoint + "/collections/ec_catalog",
		emotionalEndpoint + "/collections/ec_catalog/items?offset=12&limit=12",
		emotionalEndpoint + "/collections/ec_catalog/items?f=html#map",
		"http://localhost:5000/collections/a%20b/items?q=lisbon+parks",
		emotionalEndpoint + "/collections/ec_catalog/items?filter=a;b&&bad=%zz",
	}
	for _, in := range inputs {
		once, err := EnsureJSONFormat(in)
		require.NoError(t, err, in)
		twice, err := EnsureJSONFormat(once)
		require.NoError(t, err, in)
		assert.Equal(t, once, twice, in)
	}
}

func TestEnsureJSONFormatRejectsMalformed(t *testing.T) {
	for _, in := range []string{"", "/collections/ec_catalog", "not a url", "http://[::1"} {
		_, err := EnsureJSONFormat(in)
		var malformed *MalformedURLError
		require.Error(t, err, in)
		assert.True(t, errors.As(err, &malformed), "expected MalformedURLError for %q, got %T", in, err)
	}
}

func TestIsFromCatalog(t *testing.T) {
	c, err := New(emotionalEndpoint)
	require.NoError(t, err)

	assert.True(t, c.IsFromCatalog(emotionalEndpoint+"/collections/ec_catalog"))
	assert.True(t, c.IsFromCatalog(emotionalEndpoint+"/collections/ec_catalog/items?offset=12"))
	assert.False(t, c.IsFromCatalog("https://example.com/other"))
	assert.False(t, c.IsFromCatalog(emotionalEndpoint+"/processes"))
}

func TestNewTrimsTrailingSlashAndRejectsRelative(t *testing.T) {
	c, err := New(emotionalEndpoint + "/")
	require.NoError(t, err)
	assert.Equal(t, emotionalEndpoint, c.Endpoint())

	_, err = New("emotional.byteroad.net")
	assert.ErrorIs(t, err, ErrNotAbsoluteURL)
}

func TestPathSegmentsAreEscaped(t *testing.T) {
	c, err := New(emotionalEndpoint)
	require.NoError(t, err)

	assert.Equal(t, emotionalEndpoint+"/collections/ec_catalog/items/a%2Fb%20c", c.recordURL("ec_catalog", "a/b c"))
	assert.Equal(t, emotionalEndpoint+"/collections/lisbon%3Fparks/tiles", c.tilesURL("lisbon?parks"))
}
