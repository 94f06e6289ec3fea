package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chartwizmani/marketbot-backend/models"
	"github.com/chartwizmani/marketbot-backend/shared"
	"github.com/chromedp/chromedp"
	"github.com/sirupsen/logrus"
)

const giftNiftySource = "giftnifty"

// DerivedIndexFetcher resolves an index that is not exposed by the
// time-series provider.
type DerivedIndexFetcher interface {
	Fetch(ctx context.Context) (models.Quote, error)
}

// PageFetcher retrieves the raw markup of one page. It is a swappable
// strategy so the scraper survives the upstream page moving from static
// markup to fully JS-rendered content without touching the extraction.
type PageFetcher interface {
	FetchPage(ctx context.Context, pageURL string) ([]byte, error)
}

// StaticPageFetcher performs a plain GET with browser-like headers.
type StaticPageFetcher struct {
	client *http.Client
}

// NewStaticPageFetcher creates the default page fetcher.
func NewStaticPageFetcher(client *http.Client) *StaticPageFetcher {
	return &StaticPageFetcher{client: client}
}

// FetchPage implements PageFetcher.
func (f *StaticPageFetcher) FetchPage(ctx context.Context, pageURL string) ([]byte, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, shared.NewFetchError(giftNiftySource, shared.ReasonNetwork, err)
	}
	shared.SetBrowserLikeHeaders(request, "text/html,application/xhtml+xml")

	response, err := f.client.Do(request)
	if err != nil {
		return nil, shared.NewFetchError(giftNiftySource, shared.ReasonNetwork, err)
	}
	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode > 299 {
		return nil, shared.NewFetchError(giftNiftySource, shared.ReasonNetwork,
			fmt.Errorf("page returned HTTP %d", response.StatusCode))
	}

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, shared.NewFetchError(giftNiftySource, shared.ReasonNetwork, err)
	}
	return body, nil
}

// HeadlessPageFetcher drives a headless Chrome through chromedp and returns
// the rendered markup. Used when the upstream page stops embedding its data
// in the initial response.
type HeadlessPageFetcher struct {
	timeout time.Duration
}

// NewHeadlessPageFetcher creates a chromedp-backed page fetcher.
func NewHeadlessPageFetcher(timeout time.Duration) *HeadlessPageFetcher {
	return &HeadlessPageFetcher{timeout: timeout}
}

// FetchPage implements PageFetcher.
func (f *HeadlessPageFetcher) FetchPage(ctx context.Context, pageURL string) ([]byte, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("blink-settings", "imagesEnabled=false"),
		chromedp.Flag("mute-audio", true),
		chromedp.UserAgent(shared.BrowserUserAgent),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	browserCtx, cancelTimeout := context.WithTimeout(browserCtx, f.timeout)
	defer cancelTimeout()

	var html string
	err := chromedp.Run(browserCtx,
		chromedp.EmulateViewport(1920, 1080),
		chromedp.Navigate(pageURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return nil, shared.NewFetchError(giftNiftySource, shared.ReasonNetwork, err)
	}
	return []byte(html), nil
}

// GiftNiftyFetcher extracts the GIFT NIFTY level from the embedded
// __NEXT_DATA__ payload of the upstream page. The page structure is
// undocumented third-party territory, so every parsing anomaly is converted
// to a recoverable absence rather than a crash.
type GiftNiftyFetcher struct {
	pageURL string
	pages   PageFetcher
}

// NewGiftNiftyFetcher creates the fetcher for the given page URL.
func NewGiftNiftyFetcher(pageURL string, pages PageFetcher) *GiftNiftyFetcher {
	return &GiftNiftyFetcher{pageURL: pageURL, pages: pages}
}

// nextDataPayload navigates the fixed key path down to the price record.
// Pointers distinguish "key absent" from a legitimate zero.
type nextDataPayload struct {
	Props struct {
		PageProps struct {
			GlobalIndicesData struct {
				PriceData struct {
					Value         *float64 `json:"value"`
					DayChangePerc *float64 `json:"dayChangePerc"`
				} `json:"priceData"`
			} `json:"globalIndicesData"`
		} `json:"pageProps"`
	} `json:"props"`
}

// Fetch implements DerivedIndexFetcher.
func (f *GiftNiftyFetcher) Fetch(ctx context.Context) (models.Quote, error) {
	log := logrus.WithFields(logrus.Fields{
		"component": "GiftNiftyFetcher",
		"url":       f.pageURL,
	})

	body, err := f.pages.FetchPage(ctx, f.pageURL)
	if err != nil {
		return models.Quote{}, err
	}

	document, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return models.Quote{}, shared.NewFetchError(giftNiftySource, shared.ReasonShapeMismatch, err)
	}

	raw := document.Find("script#__NEXT_DATA__").First().Text()
	if strings.TrimSpace(raw) == "" {
		return models.Quote{}, shared.NewFetchError(giftNiftySource, shared.ReasonShapeMismatch,
			fmt.Errorf("page carries no __NEXT_DATA__ script element"))
	}

	var payload nextDataPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return models.Quote{}, shared.NewFetchError(giftNiftySource, shared.ReasonShapeMismatch, err)
	}

	price := payload.Props.PageProps.GlobalIndicesData.PriceData
	if price.Value == nil || price.DayChangePerc == nil {
		return models.Quote{}, shared.NewFetchError(giftNiftySource, shared.ReasonShapeMismatch,
			fmt.Errorf("priceData is missing value or dayChangePerc"))
	}

	log.WithFields(logrus.Fields{
		"value":           *price.Value,
		"day_change_perc": *price.DayChangePerc,
	}).Debug("Extracted GIFT NIFTY price data")

	return models.Quote{
		DisplayValue:  FormatIndexValue(*price.Value),
		ChangePercent: FormatChangePercent(*price.DayChangePerc),
	}, nil
}
