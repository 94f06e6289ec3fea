package services

import (
	"strings"
	"testing"
	"time"

	"github.com/chartwizmani/marketbot-backend/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock() func() time.Time {
	at := time.Date(2025, time.July, 18, 9, 0, 0, 0, time.UTC)
	return func() time.Time { return at }
}

func fullSnapshot() *models.MarketSnapshot {
	quotes := make(map[string]models.Quote)
	for i, label := range models.SnapshotLabels {
		quotes[label] = models.Quote{
			DisplayValue:  FormatIndexValue(float64(1000 * (i + 1))),
			ChangePercent: FormatChangePercent(float64(i) - 2),
		}
	}
	return models.NewMarketSnapshot(quotes)
}

func TestBuildGlobalCaptionHasOneLinePerEntryInSnapshotOrder(t *testing.T) {
	builder := NewCaptionBuilderWithClock(fixedClock())
	caption := builder.BuildGlobalCaption(fullSnapshot())

	lines := strings.Split(caption, "\n")
	require.Equal(t, "Global Market Update – 18 Jul, 2025", lines[0])
	assert.Equal(t, "", lines[1])

	entryLines := lines[2:8]
	for i, label := range models.SnapshotLabels {
		assert.True(t, strings.HasPrefix(entryLines[i], label+": "),
			"line %d should carry %s", i, label)
	}

	assert.Equal(t, "#GIFTNIFTY #Nifty #DowJones #Nasdaq #Nikkei #HangSeng", lines[len(lines)-1])
}

func TestBuildGlobalCaptionDropsNoEntry(t *testing.T) {
	builder := NewCaptionBuilderWithClock(fixedClock())
	snapshot := fullSnapshot()
	caption := builder.BuildGlobalCaption(snapshot)

	for _, entry := range snapshot.Entries() {
		assert.Contains(t, caption, entry.Label+": "+entry.Quote.DisplayValue+" ("+entry.Quote.ChangePercent+")")
	}
}

func TestBuildMTFCaptionFollowsReportFieldOrder(t *testing.T) {
	builder := NewCaptionBuilderWithClock(fixedClock())
	insight := &models.MTFInsight{
		Date: "Jul 18, 2025",
		Fields: []models.MTFField{
			{Label: "Positions Added", Value: "₹6,614.35 Cr"},
			{Label: "Positions Liquidated", Value: "-₹6,085.26 Cr"},
			{Label: "Net Book Added", Value: "₹529.10 Cr"},
			{Label: "Industry MTF Book", Value: "₹88,878.24 Cr"},
		},
	}

	caption := builder.BuildMTFCaption(insight)
	lines := strings.Split(caption, "\n")

	require.Equal(t, "MTF Insights (as on Jul 18, 2025)", lines[0])
	assert.Equal(t, "- Positions Added: ₹6,614.35 Cr", lines[2])
	assert.Equal(t, "- Positions Liquidated: -₹6,085.26 Cr", lines[3])
	assert.Equal(t, "- Net Book Added: ₹529.10 Cr", lines[4])
	assert.Equal(t, "- Industry MTF Book: ₹88,878.24 Cr", lines[5])
	assert.Equal(t, "#MTF #nifty #GIFTNIFTY #banknifty", lines[len(lines)-1])
}
