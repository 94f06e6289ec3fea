package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/chartwizmani/marketbot-backend/models"
)

const (
	globalHashtags = "#GIFTNIFTY #Nifty #DowJones #Nasdaq #Nikkei #HangSeng"
	mtfHashtags    = "#MTF #nifty #GIFTNIFTY #banknifty"
)

// CaptionBuilder composes the post text for each job type: one line per
// record entry, in record order, with the fixed hashtag suffix.
type CaptionBuilder struct {
	now func() time.Time
}

// NewCaptionBuilder creates a builder using the wall clock.
func NewCaptionBuilder() *CaptionBuilder {
	return &CaptionBuilder{now: time.Now}
}

// NewCaptionBuilderWithClock creates a builder with an injected clock.
func NewCaptionBuilderWithClock(now func() time.Time) *CaptionBuilder {
	return &CaptionBuilder{now: now}
}

// BuildGlobalCaption renders the global market snapshot caption. Entries
// appear exactly in snapshot order, none dropped or reordered.
func (b *CaptionBuilder) BuildGlobalCaption(snapshot *models.MarketSnapshot) string {
	lines := []string{fmt.Sprintf("Global Market Update – %s\n", b.now().Format("02 Jan, 2006"))}
	for _, entry := range snapshot.Entries() {
		lines = append(lines, fmt.Sprintf("%s: %s (%s)", entry.Label, entry.Quote.DisplayValue, entry.Quote.ChangePercent))
	}
	lines = append(lines, "\n"+globalHashtags)
	return strings.Join(lines, "\n")
}

// BuildMTFCaption renders the MTF insight caption in report field order.
func (b *CaptionBuilder) BuildMTFCaption(insight *models.MTFInsight) string {
	lines := []string{fmt.Sprintf("MTF Insights (as on %s)\n", insight.Date)}
	for _, field := range insight.Fields {
		lines = append(lines, fmt.Sprintf("- %s: %s", field.Label, field.Value))
	}
	lines = append(lines, "\n"+mtfHashtags)
	return strings.Join(lines, "\n")
}
