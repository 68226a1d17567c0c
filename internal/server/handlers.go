package server

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/egvia/egvia/internal/metrics"
	"github.com/egvia/egvia/internal/model"
	"github.com/egvia/egvia/internal/pipeline"
)

type handler struct {
	orch *pipeline.Orchestrator
	log  *zap.Logger
}

func (h *handler) handleHealthz(c *fiber.Ctx) error {
	return c.JSON(model.HealthzResponse{Status: "ok"})
}

// handleInterpret validates the payload and runs the pipeline. Well-formed
// requests always get a 200 with a complete response shape; malformed
// requests are rejected here with a client error before reaching the core.
func (h *handler) handleInterpret(c *fiber.Ctx) error {
	var req model.InterpretRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "request body must be a JSON object")
	}
	if !req.VariantType.Valid() {
		return badRequest(c, fmt.Sprintf("variant_type must be one of %q or %q", model.VariantSNV, model.VariantIndel))
	}
	if !req.AssayContext.Valid() {
		return badRequest(c, "assay_context is not a supported value")
	}

	start := time.Now()
	resp, err := h.orch.Run(c.UserContext(), &req)
	if err != nil {
		metrics.InterpretTotal.WithLabelValues("error").Inc()
		h.log.Error("interpretation failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "internal verification error",
		})
	}

	metrics.InterpretTotal.WithLabelValues("ok").Inc()
	metrics.InterpretDuration.Observe(time.Since(start).Seconds())
	metrics.AbstainTotal.WithLabelValues(strconv.FormatBool(resp.ConfidencePanel.Abstain)).Inc()
	metrics.ConfidenceScore.Observe(resp.ConfidencePanel.Confidence)
	metrics.RetrievalFailures.Add(float64(len(resp.Trace.VerificationFailures)))

	return c.JSON(resp)
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
}
