package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/chartwizmani/marketbot-backend/config"
	"github.com/chartwizmani/marketbot-backend/models"
	"github.com/sirupsen/logrus"
)

// MarketAggregator composes the GIFT NIFTY scraper and the chart API
// fetchers into one ordered snapshot.
//
// The partial-failure policy is strict: if any of the six sources fails, no
// snapshot is produced at all. The downstream post is an irreversible public
// broadcast, and a silently incomplete report is worse than a failed run.
type MarketAggregator struct {
	giftNifty DerivedIndexFetcher
	quotes    QuoteFetcher
	tickers   []config.TickerMapping
}

// NewMarketAggregator creates an aggregator over the given fetchers. The
// tickers carry the labels after GIFTNIFTY in presentation order.
func NewMarketAggregator(giftNifty DerivedIndexFetcher, quotes QuoteFetcher, tickers []config.TickerMapping) *MarketAggregator {
	return &MarketAggregator{
		giftNifty: giftNifty,
		quotes:    quotes,
		tickers:   tickers,
	}
}

// fetchOutcome holds one source's result slotted by its fixed position.
type fetchOutcome struct {
	label string
	quote models.Quote
	err   error
}

// Aggregate fans out over all sources concurrently (they are independent and
// side-effect-free) and assembles the snapshot in the fixed label order
// regardless of completion order. Under the strict policy any single failure
// yields no snapshot.
func (a *MarketAggregator) Aggregate(ctx context.Context) (*models.MarketSnapshot, error) {
	log := logrus.WithField("component", "MarketAggregator")
	log.Info("Fetching global market data")

	outcomes := make([]fetchOutcome, 1+len(a.tickers))

	var wg sync.WaitGroup
	wg.Add(1 + len(a.tickers))

	go func() {
		defer wg.Done()
		quote, err := a.giftNifty.Fetch(ctx)
		outcomes[0] = fetchOutcome{label: "GIFTNIFTY", quote: quote, err: err}
	}()

	for i, ticker := range a.tickers {
		go func(slot int, mapping config.TickerMapping) {
			defer wg.Done()
			quote, err := a.quotes.FetchQuote(ctx, mapping.Symbol)
			outcomes[slot] = fetchOutcome{label: mapping.Label, quote: quote, err: err}
		}(i+1, ticker)
	}

	wg.Wait()

	quotes := make(map[string]models.Quote, len(outcomes))
	var failed []string
	var firstErr error
	for _, outcome := range outcomes {
		if outcome.err != nil {
			log.WithError(outcome.err).WithField("label", outcome.label).Warn("Market source fetch failed")
			failed = append(failed, outcome.label)
			if firstErr == nil {
				firstErr = outcome.err
			}
			continue
		}
		quotes[outcome.label] = outcome.quote
	}

	if len(failed) > 0 {
		return nil, fmt.Errorf("global market aggregation aborted, %d of %d sources unavailable %v: %w",
			len(failed), len(outcomes), failed, firstErr)
	}

	log.WithField("indices", len(quotes)).Info("Global market data fetched")
	return models.NewMarketSnapshot(quotes), nil
}
