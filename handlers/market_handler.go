package handlers

import (
	"context"

	"github.com/chartwizmani/marketbot-backend/jobs"
	"github.com/gofiber/fiber/v2"
)

// JobRunner is the slice of a job the HTTP surface needs.
type JobRunner interface {
	Run(ctx context.Context, post bool) error
}

// MarketHandler exposes the two bot jobs and a JSON preview of the live
// snapshot over HTTP. The routes are thin dispatchers; all policy lives in
// the jobs and services.
type MarketHandler struct {
	GlobalJob JobRunner
	MTFJob    JobRunner
	Market    jobs.MarketSource
}

// NewMarketHandler creates the handler.
func NewMarketHandler(globalJob, mtfJob JobRunner, market jobs.MarketSource) *MarketHandler {
	return &MarketHandler{GlobalJob: globalJob, MTFJob: mtfJob, Market: market}
}

// RunGlobalUpdate triggers the global market update job, publishing the
// result. A failed fetch returns 500 with no artifact produced.
func (h *MarketHandler) RunGlobalUpdate(c *fiber.Ctx) error {
	if err := h.GlobalJob.Run(c.Context(), true); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"status":  "error",
			"message": "Could not fetch global market data.",
		})
	}
	return c.JSON(fiber.Map{
		"status":  "success",
		"message": "Global market update posted.",
	})
}

// RunMTFUpdate triggers the MTF insights update job, publishing the result.
func (h *MarketHandler) RunMTFUpdate(c *fiber.Ctx) error {
	if err := h.MTFJob.Run(c.Context(), true); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"status":  "error",
			"message": "Could not fetch MTF insights data.",
		})
	}
	return c.JSON(fiber.Map{
		"status":  "success",
		"message": "MTF insights update posted.",
	})
}

// GetMarketIndices returns the live snapshot as JSON without rendering or
// publishing anything. Useful for checking what a run would post.
func (h *MarketHandler) GetMarketIndices(c *fiber.Ctx) error {
	snapshot, err := h.Market.Aggregate(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Could not fetch global market data.",
		})
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    snapshot.Entries(),
	})
}
