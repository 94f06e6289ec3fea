package render

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/chartwizmani/marketbot-backend/models"
	"github.com/fogleman/gg"
	"github.com/sirupsen/logrus"
)

// CardRenderer draws 1080x1080 PNG cards with gg.
type CardRenderer struct {
	opts Options
}

// NewCardRenderer creates a renderer with the given options.
func NewCardRenderer(opts Options) *CardRenderer {
	return &CardRenderer{opts: opts}
}

// RenderMarketCard draws the global market update card: title, date, one row
// per snapshot entry in snapshot order, watermark.
func (r *CardRenderer) RenderMarketCard(snapshot *models.MarketSnapshot, asOf time.Time) (string, error) {
	dc := gg.NewContext(r.opts.Width, r.opts.Height)
	dc.SetRGB255(20, 20, 40)
	dc.Clear()

	if err := r.drawHeader(dc, "Global Market Update", asOf.Format("02 Jan, 2006")); err != nil {
		return "", err
	}

	if err := dc.LoadFontFace(r.opts.FontPath, 44); err != nil {
		return "", fmt.Errorf("failed to load font %s: %w", r.opts.FontPath, err)
	}
	y := 350.0
	for _, entry := range snapshot.Entries() {
		dc.SetRGB255(255, 255, 255)
		dc.DrawStringAnchored(entry.Label+":", 80, y, 0, 0.5)
		dc.DrawStringAnchored(entry.Quote.DisplayValue, 750, y, 1, 0.5)

		if strings.HasPrefix(entry.Quote.ChangePercent, "-") {
			dc.SetRGB255(255, 80, 80)
		} else {
			dc.SetRGB255(80, 255, 80)
		}
		dc.DrawStringAnchored(entry.Quote.ChangePercent, 1000, y, 1, 0.5)
		y += 110
	}

	if err := r.drawWatermark(dc, asOf); err != nil {
		return "", err
	}

	path := filepath.Join(r.opts.OutputDir, "global_market_update.png")
	if err := dc.SavePNG(path); err != nil {
		return "", fmt.Errorf("failed to save market card: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"component": "CardRenderer",
		"path":      path,
	}).Info("Rendered global market card")
	return path, nil
}

// RenderMTFCard draws the MTF insights card in report field order.
func (r *CardRenderer) RenderMTFCard(insight *models.MTFInsight, asOf time.Time) (string, error) {
	dc := gg.NewContext(r.opts.Width, r.opts.Height)
	dc.SetRGB255(40, 20, 20)
	dc.Clear()

	if err := r.drawHeader(dc, "MTF Insights", fmt.Sprintf("(as on %s)", insight.Date)); err != nil {
		return "", err
	}

	if err := dc.LoadFontFace(r.opts.FontPath, 46); err != nil {
		return "", fmt.Errorf("failed to load font %s: %w", r.opts.FontPath, err)
	}
	y := 380.0
	for _, field := range insight.Fields {
		dc.SetRGB255(255, 255, 255)
		dc.DrawStringAnchored("- "+field.Label+":", 80, y, 0, 0.5)
		dc.SetRGB255(255, 223, 186)
		dc.DrawStringAnchored(field.Value, float64(r.opts.Width)-80, y, 1, 0.5)
		y += 120
	}

	if err := r.drawWatermark(dc, asOf); err != nil {
		return "", err
	}

	path := filepath.Join(r.opts.OutputDir, "mtf_insights.png")
	if err := dc.SavePNG(path); err != nil {
		return "", fmt.Errorf("failed to save MTF card: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"component": "CardRenderer",
		"path":      path,
	}).Info("Rendered MTF insights card")
	return path, nil
}

// drawHeader draws the centered title and subtitle lines.
func (r *CardRenderer) drawHeader(dc *gg.Context, title, subtitle string) error {
	centerX := float64(r.opts.Width) / 2

	if err := dc.LoadFontFace(r.opts.FontPath, 78); err != nil {
		return fmt.Errorf("failed to load font %s: %w", r.opts.FontPath, err)
	}
	dc.SetRGB255(255, 255, 255)
	dc.DrawStringAnchored(title, centerX, 150, 0.5, 0.5)

	if err := dc.LoadFontFace(r.opts.FontPath, 48); err != nil {
		return fmt.Errorf("failed to load font %s: %w", r.opts.FontPath, err)
	}
	dc.SetRGB255(180, 180, 200)
	dc.DrawStringAnchored(subtitle, centerX, 230, 0.5, 0.5)
	return nil
}

// drawWatermark draws the attribution/disclaimer line at the card bottom.
func (r *CardRenderer) drawWatermark(dc *gg.Context, asOf time.Time) error {
	if err := dc.LoadFontFace(r.opts.FontPath, 28); err != nil {
		return fmt.Errorf("failed to load font %s: %w", r.opts.FontPath, err)
	}
	dc.SetRGB255(180, 180, 200)
	text := fmt.Sprintf("%s | Data as of %s | For informational & educational use only",
		r.opts.Watermark, asOf.Format("02-Jan-2006"))
	dc.DrawStringAnchored(text, float64(r.opts.Width)/2, float64(r.opts.Height)-50, 0.5, 0.5)
	return nil
}
