package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/chartwizmani/marketbot-backend/config"
	"github.com/chartwizmani/marketbot-backend/handlers"
	"github.com/chartwizmani/marketbot-backend/jobs"
	"github.com/chartwizmani/marketbot-backend/logger"
	"github.com/chartwizmani/marketbot-backend/publisher"
	"github.com/chartwizmani/marketbot-backend/render"
	"github.com/chartwizmani/marketbot-backend/services"
	"github.com/chartwizmani/marketbot-backend/shared"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg := config.LoadConfig()
	logger.Setup(cfg.LogLevel, cfg.LogFile)

	globalJob, mtfJob, market := buildJobs(cfg)

	// CLI mode: `marketbot global|mtf [-post]` runs one job and exits.
	// Without arguments the process serves the HTTP surface instead.
	if len(os.Args) > 1 {
		runCLI(globalJob, mtfJob)
		return
	}

	app := fiber.New()
	app.Use(fiberlogger.New())
	app.Use(cors.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":    "ok",
			"timestamp": time.Now().Unix(),
		})
	})

	marketHandler := handlers.NewMarketHandler(globalJob, mtfJob, market)
	app.Get("/global-market-update", marketHandler.RunGlobalUpdate)
	app.Get("/mtf-insights-update", marketHandler.RunMTFUpdate)

	api := app.Group("/api/v1")
	api.Get("/market/indices", marketHandler.GetMarketIndices)

	logrus.Infof("Server starting on port %s", cfg.ServerPort)
	if err := app.Listen(":" + cfg.ServerPort); err != nil {
		logrus.Fatalf("Server failed to start: %v", err)
	}
}

// buildJobs wires the fetchers, renderer, captioner and publisher into the
// two bot jobs.
func buildJobs(cfg *config.Config) (*jobs.GlobalUpdateJob, *jobs.MTFUpdateJob, jobs.MarketSource) {
	clientFactory := shared.NewHTTPClientFactory(cfg.FetchTimeout)
	fetchClient := clientFactory.ClientWithTimeout(cfg.FetchTimeout)

	var pages services.PageFetcher = services.NewStaticPageFetcher(fetchClient)
	if cfg.UseHeadless {
		pages = services.NewHeadlessPageFetcher(cfg.FetchTimeout)
		logrus.Info("Using headless page fetcher for GIFT NIFTY")
	}

	giftNifty := services.NewGiftNiftyFetcher(cfg.GiftNiftyURL, pages)
	quotes := services.NewChartAPIQuoteFetcher(cfg.ChartAPIBaseURL, fetchClient)
	market := services.NewMarketAggregator(giftNifty, quotes, cfg.Tickers)
	insights := services.NewMTFInsightExtractor(cfg.MTFInsightURL, cfg.FetchTimeout)

	captions := services.NewCaptionBuilder()
	renderer := render.NewCardRenderer(render.DefaultOptions(cfg.FontPath, cfg.OutputDir))

	var pub publisher.Publisher
	if twitterPub, err := publisher.NewTwitterPublisher(cfg.Twitter); err != nil {
		logrus.WithError(err).Warn("Twitter publisher unavailable, jobs can only dry-run")
	} else {
		pub = twitterPub
	}

	globalJob := jobs.NewGlobalUpdateJob(market, renderer, captions, pub, cfg.OutputDir)
	mtfJob := jobs.NewMTFUpdateJob(insights, renderer, captions, pub, cfg.OutputDir)
	return globalJob, mtfJob, market
}

// runCLI parses the job name and flags, runs the job once and exits the
// process with a non-zero status on failure.
func runCLI(globalJob *jobs.GlobalUpdateJob, mtfJob *jobs.MTFUpdateJob) {
	jobName := os.Args[1]

	flags := flag.NewFlagSet(jobName, flag.ExitOnError)
	post := flags.Bool("post", false, "actually publish the update instead of a dry run")
	if err := flags.Parse(os.Args[2:]); err != nil {
		logrus.Fatalf("Invalid arguments: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	var err error
	switch jobName {
	case "global":
		err = globalJob.Run(ctx, *post)
	case "mtf":
		err = mtfJob.Run(ctx, *post)
	default:
		fmt.Fprintf(os.Stderr, "unknown job %q: expected 'global' or 'mtf'\n", jobName)
		os.Exit(2)
	}

	if err != nil {
		logrus.WithError(err).Errorf("Job %q failed", jobName)
		os.Exit(1)
	}
	logrus.Infof("Job %q finished", jobName)
}
