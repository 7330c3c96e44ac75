package cli

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gopkg.in/yaml.v3"

	"github.com/Adda-Baaj/ec-catalog/internal/config"
	"github.com/Adda-Baaj/ec-catalog/internal/logger"
	"github.com/Adda-Baaj/ec-catalog/pkg/catalog"
)

func testCatalog(t *testing.T) *httptest.Server {
	t.Helper()
	var srv *httptest.Server
	mux := http.NewServeMux()
	mux.HandleFunc("/collections/ec_catalog", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id":"ec_catalog","title":"eMOTIONAL Cities","itemType":"record","links":[{"rel":"self","href":"x"}]}`)
	})
	mux.HandleFunc("/collections/ec_catalog/items", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("offset") == "2" {
			fmt.Fprint(w, `{"features":[{"id":"r3","properties":{"title":"Helsinki air"}}],"numberMatched":3,"numberReturned":1}`)
			return
		}
		fmt.Fprintf(w, `{"features":[
			{"id":"r1","properties":{"title":"Lisbon noise","updated":"2024-03-01"}},
			{"id":"r2","properties":{"title":"London parks"}}],
			"links":[{"rel":"next","href":"%s/collections/ec_catalog/items?limit=2&offset=2"}],
			"numberMatched":3,"numberReturned":2}`, srv.URL)
	})
	mux.HandleFunc("/collections/ec_catalog/items/r1", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id":"r1","properties":{"title":"Lisbon noise","description":"<p>Night <b>noise</b> map</p>","keywords":["noise"]}}`)
	})
	mux.HandleFunc("/collections/lisbon_noise/items", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"type":"FeatureCollection","features":[{"id":1,"geometry":{"type":"Point","coordinates":[0,0]},"properties":{"db":55}}]}`)
	})
	mux.HandleFunc("/collections/lisbon_noise/tiles", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"links":[{"rel":"item","type":"application/vnd.mapbox-vector-tile","href":"https://tiles.test/{z}/{x}/{y}"}]}`)
	})
	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(endpoint string) *config.Config {
	return &config.Config{
		CatalogEndpoint:   endpoint,
		CatalogCollection: "ec_catalog",
		PageLimit:         2,
		HTTPTimeout:       2 * time.Second,
		OutputFormat:      "json",
	}
}

func run(t *testing.T, cfg *config.Config, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := New(cfg, WithOutput(&out), WithLogger(logger.NopLogger{})).Execute(context.Background(), args)
	return out.String(), err
}

func TestItemsCommandPrintsPageWithHasNext(t *testing.T) {
	srv := testCatalog(t)

	out, err := run(t, testConfig(srv.URL), "items")
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, true, got["hasNext"])
	assert.EqualValues(t, 2, got["limit"])
	assert.EqualValues(t, 0, got["offset"])
	assert.Len(t, got["features"], 2)
}

func TestItemsCommandAllFollowsNextLinks(t *testing.T) {
	srv := testCatalog(t)

	out, err := run(t, testConfig(srv.URL), "items", "--all")
	require.NoError(t, err)

	var got []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, 3)
	assert.Equal(t, "r3", got[2]["id"])
}

func TestItemsCommandUsesURLVerbatim(t *testing.T) {
	srv := testCatalog(t)

	out, err := run(t, testConfig(srv.URL), "items", "--url", srv.URL+"/collections/ec_catalog/items?limit=2&offset=2", "-o", "yaml")
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &got))
	assert.Equal(t, false, got["hasNext"])
	assert.Equal(t, 2, got["offset"])
}

func TestRecordCommandTable(t *testing.T) {
	srv := testCatalog(t)

	out, err := run(t, testConfig(srv.URL), "record", "r1", "--format", "table")
	require.NoError(t, err)
	assert.Contains(t, out, "Lisbon noise")
	assert.Contains(t, out, "Night noise map")
}

func TestCollectionFeaturesAndTilesCommands(t *testing.T) {
	srv := testCatalog(t)
	cfg := testConfig(srv.URL)

	out, err := run(t, cfg, "collection")
	require.NoError(t, err)
	assert.Contains(t, out, `"eMOTIONAL Cities"`)

	out, err = run(t, cfg, "features", "lisbon_noise", "-o", "table")
	require.NoError(t, err)
	assert.Contains(t, out, "Point")
	assert.Contains(t, out, "1 features")

	out, err = run(t, cfg, "tiles", "lisbon_noise", "-o", "table")
	require.NoError(t, err)
	assert.Contains(t, out, "https://tiles.test/{z}/{x}/{y}")
}

func TestOverviewCommand(t *testing.T) {
	srv := testCatalog(t)

	out, err := run(t, testConfig(srv.URL), "overview")
	require.NoError(t, err)

	var got struct {
		Collection map[string]any `json:"collection"`
		Page       struct {
			Features []map[string]any `json:"features"`
			HasNext  bool             `json:"hasNext"`
		} `json:"page"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "eMOTIONAL Cities", got.Collection["title"])
	assert.Len(t, got.Page.Features, 2)
	assert.True(t, got.Page.HasNext)
}

func TestCheckURLCommand(t *testing.T) {
	cfg := testConfig("https://emotional.byteroad.net")

	out, err := run(t, cfg, "check-url", "https://emotional.byteroad.net/collections/ec_catalog/items?f=html&limit=5")
	require.NoError(t, err)

	var got urlCheck
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.True(t, got.FromCatalog)
	assert.Contains(t, got.JSONURL, "f=json")
	assert.NotContains(t, got.JSONURL, "f=html")

	_, err = run(t, cfg, "check-url", "not a url")
	var malformed *catalog.MalformedURLError
	assert.ErrorAs(t, err, &malformed)
}

func TestEndpointFlagOverridesConfig(t *testing.T) {
	srv := testCatalog(t)

	out, err := run(t, testConfig("https://unreachable.invalid"), "--endpoint", srv.URL, "collection")
	require.NoError(t, err)
	assert.Contains(t, out, "ec_catalog")
}

func TestFetchFailureIsLoggedOnceAndReturned(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	core, logs := observer.New(zapcore.DebugLevel)
	var out bytes.Buffer
	err := New(testConfig(srv.URL), WithOutput(&out), WithLogger(logger.New(zap.New(core)))).
		Execute(context.Background(), []string{"overview"})

	var fetchErr *catalog.FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, http.StatusInternalServerError, fetchErr.StatusCode)
	assert.Empty(t, out.String())
	assert.LessOrEqual(t, logs.FilterMessage("catalog request failed").Len(), 2)
	assert.GreaterOrEqual(t, logs.FilterMessage("catalog request failed").Len(), 1)
}

func TestInvalidFormatRejected(t *testing.T) {
	_, err := run(t, testConfig("https://emotional.byteroad.net"), "collection", "-o", "xml")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "unsupported output format"))
}

func TestParseFormat(t *testing.T) {
	for raw, want := range map[string]Format{"": FormatAuto, "JSON": FormatJSON, " yaml ": FormatYAML, "table": FormatTable} {
		got, err := ParseFormat(raw)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	var buf bytes.Buffer
	assert.Equal(t, FormatJSON, FormatAuto.resolve(&buf))
}
