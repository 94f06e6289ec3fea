package jobs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chartwizmani/marketbot-backend/models"
	"github.com/chartwizmani/marketbot-backend/publisher"
	"github.com/chartwizmani/marketbot-backend/render"
	"github.com/chartwizmani/marketbot-backend/services"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// MarketSource produces the global market snapshot for one run.
type MarketSource interface {
	Aggregate(ctx context.Context) (*models.MarketSnapshot, error)
}

// GlobalUpdateJob runs one global market update: fetch, render, caption and
// optionally publish. A fetch failure aborts the run before any artifact is
// produced, so a failed job can never emit a partial public post.
type GlobalUpdateJob struct {
	Market    MarketSource
	Renderer  render.Renderer
	Captions  *services.CaptionBuilder
	Publisher publisher.Publisher
	OutputDir string
}

// NewGlobalUpdateJob wires the job from its collaborators. Publisher may be
// nil for dry runs; Run then fails only if asked to post.
func NewGlobalUpdateJob(market MarketSource, renderer render.Renderer, captions *services.CaptionBuilder, pub publisher.Publisher, outputDir string) *GlobalUpdateJob {
	return &GlobalUpdateJob{
		Market:    market,
		Renderer:  renderer,
		Captions:  captions,
		Publisher: pub,
		OutputDir: outputDir,
	}
}

// Run executes the job once. When post is false the image and caption are
// written locally and nothing leaves the machine.
func (j *GlobalUpdateJob) Run(ctx context.Context, post bool) error {
	runID := uuid.New().String()
	log := logrus.WithFields(logrus.Fields{
		"job":    "global_update",
		"run_id": runID,
	})
	log.Info("Starting Global Market Update Job")

	snapshot, err := j.Market.Aggregate(ctx)
	if err != nil {
		log.WithError(err).Error("Global market fetch produced no snapshot, aborting run")
		return fmt.Errorf("global update fetched nothing: %w", err)
	}

	now := time.Now()
	imagePath, err := j.Renderer.RenderMarketCard(snapshot, now)
	if err != nil {
		log.WithError(err).Error("Failed to render global market card")
		return err
	}

	caption := j.Captions.BuildGlobalCaption(snapshot)
	captionPath := filepath.Join(j.OutputDir, "global_market_update.txt")
	if err := os.WriteFile(captionPath, []byte(caption), 0o644); err != nil {
		log.WithError(err).Warn("Failed to save caption text")
	}

	if !post {
		log.WithFields(logrus.Fields{
			"image":   imagePath,
			"caption": captionPath,
		}).Info("Dry run, skipping publish")
		return nil
	}

	if j.Publisher == nil {
		return fmt.Errorf("publishing requested but no publisher is configured")
	}
	if err := j.Publisher.Publish(ctx, caption, imagePath); err != nil {
		log.WithError(err).Error("Failed to publish global market update")
		return err
	}

	log.WithField("caption_lines", strings.Count(caption, "\n")+1).Info("Global Market Update Job completed")
	return nil
}
