package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/chartwizmani/marketbot-backend/models"
	"github.com/chartwizmani/marketbot-backend/shared"
	"github.com/sirupsen/logrus"
)

// QuoteFetcher resolves a ticker symbol to a display-ready quote.
type QuoteFetcher interface {
	FetchQuote(ctx context.Context, symbol string) (models.Quote, error)
}

// lookbackRanges are tried in order until two valid closes turn up. Widening
// past two days skates over weekends, holidays and provider data gaps; it is
// a robustness policy, not a retry.
var lookbackRanges = []string{"2d", "5d", "1mo"}

// ChartAPIQuoteFetcher resolves quotes through the provider's v8 chart
// endpoint, the same price-history source the yfinance library wraps.
type ChartAPIQuoteFetcher struct {
	baseURL string
	client  *http.Client
}

// NewChartAPIQuoteFetcher creates a fetcher against the given chart API base
// URL (e.g. "https://query1.finance.yahoo.com").
func NewChartAPIQuoteFetcher(baseURL string, client *http.Client) *ChartAPIQuoteFetcher {
	return &ChartAPIQuoteFetcher{baseURL: baseURL, client: client}
}

// chartResponse mirrors the slice of the chart payload we navigate. Closes
// come back as pointers because the provider emits nulls for sessions with
// no settlement.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// FetchQuote retrieves the two most recent valid closes for the symbol and
// derives the quote from them. If even the widest look-back window yields
// fewer than two valid closes the fetch fails with insufficient history;
// quotes are never built from one point or extrapolated.
func (f *ChartAPIQuoteFetcher) FetchQuote(ctx context.Context, symbol string) (models.Quote, error) {
	log := logrus.WithFields(logrus.Fields{
		"component": "ChartAPIQuoteFetcher",
		"symbol":    symbol,
	})

	for _, lookback := range lookbackRanges {
		closes, err := f.fetchCloses(ctx, symbol, lookback)
		if err != nil {
			return models.Quote{}, err
		}

		if len(closes) >= 2 {
			previous := closes[len(closes)-2]
			current := closes[len(closes)-1]
			change := ChangePercent(previous, current)

			log.WithFields(logrus.Fields{
				"lookback":       lookback,
				"previous_close": previous,
				"current_close":  current,
				"change_percent": change,
			}).Debug("Resolved quote from price history")

			return models.Quote{
				DisplayValue:  FormatIndexValue(current),
				ChangePercent: FormatChangePercent(change),
			}, nil
		}

		log.WithFields(logrus.Fields{
			"lookback":     lookback,
			"valid_closes": len(closes),
		}).Debug("Not enough valid closes, widening look-back window")
	}

	return models.Quote{}, shared.NewFetchError(symbol, shared.ReasonInsufficientHistory,
		fmt.Errorf("fewer than two valid closes within %s", lookbackRanges[len(lookbackRanges)-1]))
}

// fetchCloses queries one look-back window and returns the non-null closes
// in chronological order.
func (f *ChartAPIQuoteFetcher) fetchCloses(ctx context.Context, symbol, lookback string) ([]float64, error) {
	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?range=%s&interval=1d",
		f.baseURL, url.PathEscape(symbol), lookback)

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, shared.NewFetchError(symbol, shared.ReasonNetwork, err)
	}
	shared.SetBrowserLikeHeaders(request, "application/json")

	response, err := f.client.Do(request)
	if err != nil {
		return nil, shared.NewFetchError(symbol, shared.ReasonNetwork, err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return nil, shared.NewFetchError(symbol, shared.ReasonNetwork,
			fmt.Errorf("chart API returned HTTP %d", response.StatusCode))
	}

	var payload chartResponse
	if err := json.NewDecoder(response.Body).Decode(&payload); err != nil {
		return nil, shared.NewFetchError(symbol, shared.ReasonShapeMismatch, err)
	}

	if payload.Chart.Error != nil {
		return nil, shared.NewFetchError(symbol, shared.ReasonShapeMismatch,
			fmt.Errorf("chart API error %s: %s", payload.Chart.Error.Code, payload.Chart.Error.Description))
	}
	if len(payload.Chart.Result) == 0 || len(payload.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, shared.NewFetchError(symbol, shared.ReasonShapeMismatch,
			fmt.Errorf("chart payload carries no quote series"))
	}

	var closes []float64
	for _, c := range payload.Chart.Result[0].Indicators.Quote[0].Close {
		if c != nil {
			closes = append(closes, *c)
		}
	}
	return closes, nil
}
