package imdb

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"moviedash-backend/lib/moviedata"
	"moviedash-backend/lib/telemetry"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

const listingFixture = `
<html><body>
<ul>
  <li class="ipc-metadata-list-summary-item">
    <h3 class="ipc-title__text">1. Dune: Part Two</h3>
    <span class="dli-title-metadata-item">2024</span>
    <span class="dli-title-metadata-item">2h 46m</span>
    <span class="dli-title-metadata-item">PG-13</span>
    <span class="ipc-rating-star--rating">8.5</span>
    <span class="ipc-rating-star--voteCount">(512K)</span>
  </li>
  <li class="ipc-metadata-list-summary-item">
    <h3 class="ipc-title__text">2. The
 Substance</h3>
    <span class="dli-title-metadata-item">2024</span>
    <span class="dli-title-metadata-item">2h 21m</span>
  </li>
</ul>
</body></html>`

func TestParseListing(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(listingFixture))
	require.NoError(t, err)

	records := ParseListing(doc)
	require.Len(t, records, 2)

	require.Equal(t, moviedata.RawRecord{
		Title:    "1. Dune: Part Two",
		Rating:   "8.5",
		Votes:    "(512K)",
		Duration: "2h 46m",
	}, records[0])

	// missing rating/votes nodes come back empty, the cleaning pass
	// will drop the row later
	require.Equal(t, "2. The Substance", records[1].Title)
	require.Equal(t, "", records[1].Rating)
	require.Equal(t, "", records[1].Votes)
	require.Equal(t, "2h 21m", records[1].Duration)
}

func TestScrape(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:scrapers/imdb")
	defer cleanup()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/search/title/", r.URL.Path)
		require.Equal(t, "feature", r.URL.Query().Get("title_type"))
		require.Equal(t, "action", r.URL.Query().Get("genres"))

		// a single page of results, pages past it are empty
		if r.URL.Query().Get("start") == "" {
			w.Write([]byte(listingFixture))
			return
		}
		w.Write([]byte("<html><body><ul></ul></body></html>"))
	}))
	defer server.Close()

	client, err := NewClient(ClientOptions{BaseUrl: server.URL})
	require.NoError(t, err)

	records, err := client.Scrape(context.Background(), ScrapeOptions{
		Year:   2024,
		Genres: []string{"action"},
	})
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, "action", records[0].Genre)
	require.Equal(t, "action", records[1].Genre)
}
