// Package render draws the fixed-size summary cards the bot publishes. It is
// a pure presentation step over the snapshot and insight records; nothing
// here touches the network.
package render

import (
	"time"

	"github.com/chartwizmani/marketbot-backend/models"
)

// Options is the explicit rendering configuration passed in at call time.
// The font path and canvas size used to live in ambient globals in earlier
// iterations of this bot; keeping them here makes the renderer swappable and
// testable.
type Options struct {
	FontPath  string
	Width     int
	Height    int
	OutputDir string
	// Watermark is drawn at the bottom of every card, before the date suffix.
	Watermark string
}

// DefaultOptions returns the production card layout.
func DefaultOptions(fontPath, outputDir string) Options {
	return Options{
		FontPath:  fontPath,
		Width:     1080,
		Height:    1080,
		OutputDir: outputDir,
		Watermark: "@ChartWizMani",
	}
}

// Renderer produces image artifacts for the two job types, returning the
// written file path.
type Renderer interface {
	RenderMarketCard(snapshot *models.MarketSnapshot, asOf time.Time) (string, error)
	RenderMTFCard(insight *models.MTFInsight, asOf time.Time) (string, error)
}
