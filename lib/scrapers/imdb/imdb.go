package imdb

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http/cookiejar"
	"net/url"
	"regexp"
	"strconv"
	"time"

	"moviedash-backend/lib/htmlutil"
	"moviedash-backend/lib/moviedata"
	"moviedash-backend/lib/restyutil"
	"moviedash-backend/lib/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("scrapers/imdb")

var instrumentOutput restyutil.InstrumentOutput

// SetRestyInstrumentOutput enables request/response dumps for every
// client created after the call.
func SetRestyInstrumentOutput(output restyutil.InstrumentOutput) {
	instrumentOutput = output
}

const pageSize = 50

type Client struct {
	baseUrl *url.URL
	http    *resty.Client
}

type ClientOptions struct {
	// defaults to https://www.imdb.com
	BaseUrl string
}

func NewClient(opts ClientOptions) (*Client, error) {
	if opts.BaseUrl == "" {
		opts.BaseUrl = "https://www.imdb.com"
	}
	baseUrl, err := url.Parse(opts.BaseUrl)
	if err != nil {
		return nil, err
	}

	client := resty.New()
	client.SetBaseURL(opts.BaseUrl)
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	client.SetCookieJar(jar)
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)

	client.SetHeader("user-agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36")
	client.SetHeader("accept-language", "en-US,en;q=0.9")
	client.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(baseUrl.Hostname()))
	client.SetTimeout(time.Second * 30)
	client.SetRetryCount(2)
	client.SetRetryWaitTime(time.Second * 2)

	telemetry.InstrumentResty(client, "scrapers/imdb/http")
	restyutil.InstrumentClient(client, instrumentOutput)

	return &Client{
		baseUrl: baseUrl,
		http:    client,
	}, nil
}

type ListingQuery struct {
	Year  int
	Genre string
	// 1-based result offset, the listing serves pageSize rows per request
	Start int
}

func (c *Client) FetchListing(ctx context.Context, query ListingQuery) (*goquery.Document, error) {
	ctx, span := tracer.Start(ctx, "FetchListing")
	defer span.End()

	params := url.Values{}
	params.Set("title_type", "feature")
	params.Set("release_date", fmt.Sprintf("%04d-01-01,%04d-12-31", query.Year, query.Year))
	if query.Genre != "" {
		params.Set("genres", query.Genre)
	}
	params.Set("count", strconv.Itoa(pageSize))
	if query.Start > 1 {
		params.Set("start", strconv.Itoa(query.Start))
	}

	res, err := c.http.R().
		SetContext(ctx).
		SetQueryParamsFromValues(params).
		Get("/search/title/")
	if err != nil {
		return nil, err
	}
	if res.StatusCode() != 200 {
		return nil, fmt.Errorf("listing page returned status %d", res.StatusCode())
	}

	return goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
}

var runtimePattern = regexp.MustCompile(`\d+h|\d+m`)

// ParseListing pulls the raw movie rows out of a listing page. Cells
// whose DOM nodes are missing come back as empty strings, the cleaning
// pass downstream absorbs those. Genre is not part of a listing row,
// the caller fills it in from the query it made.
func ParseListing(doc *goquery.Document) []moviedata.RawRecord {
	var records []moviedata.RawRecord

	doc.Find("li.ipc-metadata-list-summary-item").Each(func(_ int, item *goquery.Selection) {
		title := htmlutil.CleanText(item.Find(".ipc-title__text").First().Text())
		rating := htmlutil.CleanText(item.Find("span.ipc-rating-star--rating").First().Text())
		votes := htmlutil.CleanText(item.Find("span.ipc-rating-star--voteCount").First().Text())

		duration := ""
		item.Find("span.dli-title-metadata-item").EachWithBreak(func(_ int, meta *goquery.Selection) bool {
			text := htmlutil.CleanText(meta.Text())
			if runtimePattern.MatchString(text) {
				duration = text
				return false
			}
			return true
		})

		records = append(records, moviedata.RawRecord{
			Title:    title,
			Rating:   rating,
			Votes:    votes,
			Duration: duration,
		})
	})

	return records
}

type ScrapeOptions struct {
	Year int
	// one listing crawl per genre, the genre also becomes the raw
	// genre cell of every row it yields
	Genres []string
	// upper bound of listing pages fetched per genre
	MaxPages int
}

// Scrape crawls the year's listing pages genre by genre. A failing
// page aborts that genre's crawl but not the others, all page errors
// come back joined next to whatever rows were collected.
func (c *Client) Scrape(ctx context.Context, opts ScrapeOptions) ([]moviedata.RawRecord, error) {
	ctx, span := tracer.Start(ctx, "Scrape")
	defer span.End()

	if opts.MaxPages <= 0 {
		opts.MaxPages = 10
	}
	genres := opts.Genres
	if len(genres) == 0 {
		genres = []string{""}
	}

	var records []moviedata.RawRecord
	var errList []error

	for _, genre := range genres {
		for page := 0; page < opts.MaxPages; page++ {
			query := ListingQuery{
				Year:  opts.Year,
				Genre: genre,
				Start: page*pageSize + 1,
			}

			doc, err := c.FetchListing(ctx, query)
			if err != nil {
				slog.ErrorContext(
					ctx, "failed to fetch listing page",
					"genre", genre,
					"start", query.Start,
					"err", err,
				)
				errList = append(errList, err)
				break
			}

			rows := ParseListing(doc)
			if len(rows) == 0 {
				break
			}
			for i := range rows {
				rows[i].Genre = genre
			}
			records = append(records, rows...)

			slog.DebugContext(
				ctx, "scraped listing page",
				"genre", genre,
				"start", query.Start,
				"rows", len(rows),
			)
		}
	}

	return records, errors.Join(errList...)
}
