package jobs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/chartwizmani/marketbot-backend/models"
	"github.com/chartwizmani/marketbot-backend/services"
	"github.com/chartwizmani/marketbot-backend/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubMarket struct {
	snapshot *models.MarketSnapshot
	err      error
}

func (s *stubMarket) Aggregate(ctx context.Context) (*models.MarketSnapshot, error) {
	return s.snapshot, s.err
}

type stubInsights struct {
	insight *models.MTFInsight
	err     error
}

func (s *stubInsights) Extract(ctx context.Context) (*models.MTFInsight, error) {
	return s.insight, s.err
}

// recordingRenderer writes placeholder artifacts and records calls.
type recordingRenderer struct {
	dir         string
	marketCalls int
	mtfCalls    int
}

func (r *recordingRenderer) RenderMarketCard(snapshot *models.MarketSnapshot, asOf time.Time) (string, error) {
	r.marketCalls++
	path := filepath.Join(r.dir, "global_market_update.png")
	return path, os.WriteFile(path, []byte("png"), 0o644)
}

func (r *recordingRenderer) RenderMTFCard(insight *models.MTFInsight, asOf time.Time) (string, error) {
	r.mtfCalls++
	path := filepath.Join(r.dir, "mtf_insights.png")
	return path, os.WriteFile(path, []byte("png"), 0o644)
}

// recordingPublisher records publishes without any network.
type recordingPublisher struct {
	calls int
	text  string
	image string
	err   error
}

func (p *recordingPublisher) Publish(ctx context.Context, text, imagePath string) error {
	p.calls++
	p.text = text
	p.image = imagePath
	return p.err
}

func sixEntrySnapshot() *models.MarketSnapshot {
	quotes := make(map[string]models.Quote)
	for _, label := range models.SnapshotLabels {
		quotes[label] = models.Quote{DisplayValue: "100.00", ChangePercent: "+1.00%"}
	}
	return models.NewMarketSnapshot(quotes)
}

func TestGlobalRunPublishesCaptionAndImage(t *testing.T) {
	dir := t.TempDir()
	renderer := &recordingRenderer{dir: dir}
	pub := &recordingPublisher{}
	job := NewGlobalUpdateJob(&stubMarket{snapshot: sixEntrySnapshot()}, renderer,
		services.NewCaptionBuilder(), pub, dir)

	err := job.Run(context.Background(), true)

	require.NoError(t, err)
	assert.Equal(t, 1, renderer.marketCalls)
	assert.Equal(t, 1, pub.calls)
	assert.Contains(t, pub.text, "GIFTNIFTY: 100.00 (+1.00%)")
	assert.FileExists(t, filepath.Join(dir, "global_market_update.txt"))
}

func TestGlobalRunDryRunSkipsPublish(t *testing.T) {
	dir := t.TempDir()
	renderer := &recordingRenderer{dir: dir}
	pub := &recordingPublisher{}
	job := NewGlobalUpdateJob(&stubMarket{snapshot: sixEntrySnapshot()}, renderer,
		services.NewCaptionBuilder(), pub, dir)

	err := job.Run(context.Background(), false)

	require.NoError(t, err)
	assert.Zero(t, pub.calls)
	assert.FileExists(t, filepath.Join(dir, "global_market_update.txt"))
}

func TestGlobalRunFailedFetchProducesNoArtifactAndNoPublish(t *testing.T) {
	dir := t.TempDir()
	renderer := &recordingRenderer{dir: dir}
	pub := &recordingPublisher{}
	market := &stubMarket{err: shared.NewFetchError("global_market", shared.ReasonNetwork, fmt.Errorf("timeout"))}
	job := NewGlobalUpdateJob(market, renderer, services.NewCaptionBuilder(), pub, dir)

	err := job.Run(context.Background(), true)

	require.Error(t, err)
	assert.Zero(t, renderer.marketCalls, "no image may be generated for a failed fetch")
	assert.Zero(t, pub.calls, "no publish attempt may be made for a failed fetch")
	assert.NoFileExists(t, filepath.Join(dir, "global_market_update.txt"))
}

func TestGlobalRunWithoutPublisherFailsOnlyWhenPosting(t *testing.T) {
	dir := t.TempDir()
	renderer := &recordingRenderer{dir: dir}
	job := NewGlobalUpdateJob(&stubMarket{snapshot: sixEntrySnapshot()}, renderer,
		services.NewCaptionBuilder(), nil, dir)

	require.NoError(t, job.Run(context.Background(), false))
	require.Error(t, job.Run(context.Background(), true))
}

func TestMTFRunPublishesCompleteInsight(t *testing.T) {
	dir := t.TempDir()
	renderer := &recordingRenderer{dir: dir}
	pub := &recordingPublisher{}
	insight := &models.MTFInsight{
		Date: "Jul 18, 2025",
		Fields: []models.MTFField{
			{Label: "Positions Added", Value: "₹6,614.35 Cr"},
			{Label: "Positions Liquidated", Value: "-₹6,085.26 Cr"},
			{Label: "Net Book Added", Value: "₹529.10 Cr"},
			{Label: "Industry MTF Book", Value: "₹88,878.24 Cr"},
		},
	}
	job := NewMTFUpdateJob(&stubInsights{insight: insight}, renderer,
		services.NewCaptionBuilder(), pub, dir)

	err := job.Run(context.Background(), true)

	require.NoError(t, err)
	assert.Equal(t, 1, renderer.mtfCalls)
	assert.Equal(t, 1, pub.calls)
	assert.Contains(t, pub.text, "- Industry MTF Book: ₹88,878.24 Cr")
}

func TestMTFRunFailedExtractionProducesNoArtifact(t *testing.T) {
	dir := t.TempDir()
	renderer := &recordingRenderer{dir: dir}
	pub := &recordingPublisher{}
	insights := &stubInsights{err: shared.NewFetchError("mtf_insight", shared.ReasonShapeMismatch, fmt.Errorf("figure missing"))}
	job := NewMTFUpdateJob(insights, renderer, services.NewCaptionBuilder(), pub, dir)

	err := job.Run(context.Background(), true)

	require.Error(t, err)
	assert.Zero(t, renderer.mtfCalls)
	assert.Zero(t, pub.calls)
}
