package services

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/chartwizmani/marketbot-backend/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// cannedPageFetcher returns a fixed page body or error without a network.
type cannedPageFetcher struct {
	body []byte
	err  error
}

func (f *cannedPageFetcher) FetchPage(ctx context.Context, pageURL string) ([]byte, error) {
	return f.body, f.err
}

func giftNiftyPage(priceData string) []byte {
	return []byte(fmt.Sprintf(`<html><head></head><body>
		<div id="app">GIFT NIFTY</div>
		<script id="__NEXT_DATA__" type="application/json">
		{"props":{"pageProps":{"globalIndicesData":{"priceData":%s}}}}
		</script></body></html>`, priceData))
}

func TestGiftNiftyFetchExtractsEmbeddedPriceData(t *testing.T) {
	pages := &cannedPageFetcher{body: giftNiftyPage(`{"value":25012.5,"dayChangePerc":-0.8}`)}
	fetcher := NewGiftNiftyFetcher("https://example.test/gift-nifty", pages)

	quote, err := fetcher.Fetch(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "25,012.50", quote.DisplayValue)
	assert.Equal(t, "-0.80%", quote.ChangePercent)
}

func TestGiftNiftyFetchFailsWhenScriptElementAbsent(t *testing.T) {
	pages := &cannedPageFetcher{body: []byte(`<html><body><p>redesigned page</p></body></html>`)}
	fetcher := NewGiftNiftyFetcher("https://example.test/gift-nifty", pages)

	_, err := fetcher.Fetch(context.Background())

	require.Error(t, err)
	assert.True(t, shared.HasReason(err, shared.ReasonShapeMismatch))
}

func TestGiftNiftyFetchFailsWhenKeyPathBroken(t *testing.T) {
	// value present but dayChangePerc renamed upstream
	pages := &cannedPageFetcher{body: giftNiftyPage(`{"value":25012.5,"changePerc":-0.8}`)}
	fetcher := NewGiftNiftyFetcher("https://example.test/gift-nifty", pages)

	_, err := fetcher.Fetch(context.Background())

	require.Error(t, err)
	assert.True(t, shared.HasReason(err, shared.ReasonShapeMismatch))
}

func TestGiftNiftyFetchFailsOnMalformedEmbeddedJSON(t *testing.T) {
	pages := &cannedPageFetcher{body: []byte(`<html><body>
		<script id="__NEXT_DATA__">{"props":{</script></body></html>`)}
	fetcher := NewGiftNiftyFetcher("https://example.test/gift-nifty", pages)

	_, err := fetcher.Fetch(context.Background())

	require.Error(t, err)
	assert.True(t, shared.HasReason(err, shared.ReasonShapeMismatch))
}

func TestStaticPageFetcherSendsBrowserUserAgent(t *testing.T) {
	var seenAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenAgent = r.Header.Get("User-Agent")
		fmt.Fprint(w, "<html></html>")
	}))
	defer server.Close()

	fetcher := NewStaticPageFetcher(server.Client())
	_, err := fetcher.FetchPage(context.Background(), server.URL)

	require.NoError(t, err)
	assert.Equal(t, shared.BrowserUserAgent, seenAgent)
}

func TestStaticPageFetcherTreatsNon2xxAsNetworkFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	fetcher := NewStaticPageFetcher(server.Client())
	_, err := fetcher.FetchPage(context.Background(), server.URL)

	require.Error(t, err)
	assert.True(t, shared.HasReason(err, shared.ReasonNetwork))
}
