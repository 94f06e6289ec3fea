package jobs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/chartwizmani/marketbot-backend/models"
	"github.com/chartwizmani/marketbot-backend/publisher"
	"github.com/chartwizmani/marketbot-backend/render"
	"github.com/chartwizmani/marketbot-backend/services"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// InsightSource produces the MTF insight record for one run.
type InsightSource interface {
	Extract(ctx context.Context) (*models.MTFInsight, error)
}

// MTFUpdateJob runs one MTF insights update. Extraction is all-or-nothing
// upstream, so the job either has a complete record or aborts with no
// artifact.
type MTFUpdateJob struct {
	Insights  InsightSource
	Renderer  render.Renderer
	Captions  *services.CaptionBuilder
	Publisher publisher.Publisher
	OutputDir string
}

// NewMTFUpdateJob wires the job from its collaborators.
func NewMTFUpdateJob(insights InsightSource, renderer render.Renderer, captions *services.CaptionBuilder, pub publisher.Publisher, outputDir string) *MTFUpdateJob {
	return &MTFUpdateJob{
		Insights:  insights,
		Renderer:  renderer,
		Captions:  captions,
		Publisher: pub,
		OutputDir: outputDir,
	}
}

// Run executes the job once. When post is false the image and caption are
// written locally and nothing leaves the machine.
func (j *MTFUpdateJob) Run(ctx context.Context, post bool) error {
	runID := uuid.New().String()
	log := logrus.WithFields(logrus.Fields{
		"job":    "mtf_update",
		"run_id": runID,
	})
	log.Info("Starting MTF Insights Update Job")

	insight, err := j.Insights.Extract(ctx)
	if err != nil {
		log.WithError(err).Error("MTF extraction produced no insight, aborting run")
		return fmt.Errorf("mtf update fetched nothing: %w", err)
	}

	imagePath, err := j.Renderer.RenderMTFCard(insight, time.Now())
	if err != nil {
		log.WithError(err).Error("Failed to render MTF insights card")
		return err
	}

	caption := j.Captions.BuildMTFCaption(insight)
	captionPath := filepath.Join(j.OutputDir, "mtf_insights.txt")
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
		log.WithError(err).Error("Failed to publish MTF insights update")
		return err
	}

	log.Info("MTF Insights Update Job completed")
	return nil
}
