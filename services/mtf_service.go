package services

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chartwizmani/marketbot-backend/models"
	"github.com/chartwizmani/marketbot-backend/shared"
	"github.com/gocolly/colly/v2"
	"github.com/sirupsen/logrus"
)

const mtfSource = "mtf_insight"

// UnknownReportDate is the graceful-degrade value when the page drops the
// "as on <date>" line. The date is the only field allowed to degrade; every
// currency figure is all-or-nothing.
const UnknownReportDate = "Unknown Date"

var (
	mtfDatePattern        = regexp.MustCompile(`as on (\w{3} \d{1,2}, \d{4})`)
	positionsAddedPattern = regexp.MustCompile(`Positions Added:\s*(\+)?₹\s*([\d,]+\.?\d*)\s*Cr`)
	positionsLiqPattern   = regexp.MustCompile(`Positions Liquidated:\s*(-)?₹\s*([\d,]+\.?\d*)\s*Cr`)
	netBookPattern        = regexp.MustCompile(`Net Book (Added|Liquidated):\s*([+\-])?₹\s*([\d,]+\.?\d*)\s*Cr`)
	industryBookPattern   = regexp.MustCompile(`Industry MTF Book:\s*₹\s*([\d,]+\.?\d*)\s*Cr`)
)

// MTFInsightExtractor scrapes the margin-trading-facility report page into a
// complete MTFInsight. Extraction is all-or-nothing: the figures carry
// direction-sensitive signs, so a partially filled record must never reach a
// public post.
type MTFInsightExtractor struct {
	pageURL string
	timeout time.Duration
}

// NewMTFInsightExtractor creates the extractor for the given report page.
func NewMTFInsightExtractor(pageURL string, timeout time.Duration) *MTFInsightExtractor {
	return &MTFInsightExtractor{pageURL: pageURL, timeout: timeout}
}

// Extract fetches the report page and parses the labeled figures out of its
// visible text. Returns a complete insight or a FetchError, never a partial
// record.
func (e *MTFInsightExtractor) Extract(ctx context.Context) (*models.MTFInsight, error) {
	log := logrus.WithFields(logrus.Fields{
		"component": "MTFInsightExtractor",
		"url":       e.pageURL,
	})
	log.Info("Fetching MTF insight data")

	if err := ctx.Err(); err != nil {
		return nil, shared.NewFetchError(mtfSource, shared.ReasonNetwork, err)
	}

	collector := colly.NewCollector(
		colly.UserAgent(shared.BrowserUserAgent),
		colly.IgnoreRobotsTxt(),
	)
	collector.SetRequestTimeout(e.timeout)

	collector.OnRequest(func(r *colly.Request) {
		r.Headers.Set("Accept", "text/html,application/xhtml+xml")
		r.Headers.Set("Accept-Language", "en-US,en;q=0.9")
	})

	var pageText string
	var parseErr error
	collector.OnResponse(func(r *colly.Response) {
		document, err := goquery.NewDocumentFromReader(bytes.NewReader(r.Body))
		if err != nil {
			parseErr = shared.NewFetchError(mtfSource, shared.ReasonShapeMismatch, err)
			return
		}
		pageText = document.Text()
	})

	var fetchErr error
	collector.OnError(func(r *colly.Response, err error) {
		fetchErr = shared.NewFetchError(mtfSource, shared.ReasonNetwork,
			fmt.Errorf("HTTP %d: %w", r.StatusCode, err))
	})

	if err := collector.Visit(e.pageURL); err != nil && fetchErr == nil {
		fetchErr = shared.NewFetchError(mtfSource, shared.ReasonNetwork, err)
	}
	collector.Wait()

	if fetchErr != nil {
		return nil, fetchErr
	}
	if parseErr != nil {
		return nil, parseErr
	}

	insight, err := parseMTFInsight(pageText)
	if err != nil {
		return nil, err
	}

	log.WithField("date", insight.Date).Info("MTF insight data fetched")
	return insight, nil
}

// parseMTFInsight applies the labeled regex grammar to the page's visible
// text. The net-book label is polymorphic: the page reports either
// "Net Book Added" or "Net Book Liquidated" depending on market direction,
// and whichever label is present is carried into the record. A captured
// minus sign is prepended to the reassembled value; a plus sign is implied
// by the label and dropped.
func parseMTFInsight(pageText string) (*models.MTFInsight, error) {
	date := UnknownReportDate
	if match := mtfDatePattern.FindStringSubmatch(pageText); match != nil {
		date = match[1]
	}

	added := positionsAddedPattern.FindStringSubmatch(pageText)
	if added == nil {
		return nil, shared.NewFetchError(mtfSource, shared.ReasonShapeMismatch,
			fmt.Errorf("Positions Added figure not found"))
	}

	liquidated := positionsLiqPattern.FindStringSubmatch(pageText)
	if liquidated == nil {
		return nil, shared.NewFetchError(mtfSource, shared.ReasonShapeMismatch,
			fmt.Errorf("Positions Liquidated figure not found"))
	}

	netBook := netBookPattern.FindStringSubmatch(pageText)
	if netBook == nil {
		return nil, shared.NewFetchError(mtfSource, shared.ReasonShapeMismatch,
			fmt.Errorf("Net Book figure not found"))
	}

	industry := industryBookPattern.FindStringSubmatch(pageText)
	if industry == nil {
		return nil, shared.NewFetchError(mtfSource, shared.ReasonShapeMismatch,
			fmt.Errorf("Industry MTF Book figure not found"))
	}

	return &models.MTFInsight{
		Date: date,
		Fields: []models.MTFField{
			{Label: "Positions Added", Value: currencyValue(added[1], added[2])},
			{Label: "Positions Liquidated", Value: currencyValue(liquidated[1], liquidated[2])},
			{Label: "Net Book " + netBook[1], Value: currencyValue(netBook[2], netBook[3])},
			{Label: "Industry MTF Book", Value: currencyValue("", industry[1])},
		},
	}, nil
}

// currencyValue reassembles a captured figure as "₹<amount> Cr", keeping a
// captured minus sign in front of the currency symbol.
func currencyValue(sign, amount string) string {
	if sign == "-" {
		return fmt.Sprintf("-₹%s Cr", amount)
	}
	return fmt.Sprintf("₹%s Cr", amount)
}
