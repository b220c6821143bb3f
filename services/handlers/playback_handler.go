package handlers

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/kidtube-labs/kidtube_api/dto"
	"github.com/kidtube-labs/kidtube_api/shared"
)

type PlaybackHandler struct {
	accessSvc AccessServiceInterface
}

func NewPlaybackHandler(accessSvc AccessServiceInterface) *PlaybackHandler {
	return &PlaybackHandler{accessSvc: accessSvc}
}

// @Summary Log playback
// @Description Record watched seconds for a kid and video after an access check
// @Tags playback
// @Accept json
// @Produce json
// @Param playbackLogRequest body dto.PlaybackLogRequest true "Playback log payload"
// @Success 200 {object} shared.Response
// @Router /api/v1/playback/log [post]
func (h *PlaybackHandler) Log(c *fiber.Ctx) error {
	var req dto.PlaybackLogRequest
	if err := c.BodyParser(&req); err != nil {
		return err
	}

	if err := req.Validate(); err != nil {
		validationResp := dto.CreateValidationErrorResponse(err)
		return c.Status(fiber.StatusBadRequest).JSON(validationResp)
	}

	if err := h.accessSvc.LogPlayback(req, time.Now().UTC()); err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Success", fiber.Map{"ok": true})
}

// @Summary Playback heartbeat
// @Description Periodic watch ping; deduplicated against the previous event for the same kid and video
// @Tags playback
// @Accept json
// @Produce json
// @Param heartbeatRequest body dto.PlaybackHeartbeatRequest true "Heartbeat payload"
// @Success 200 {object} shared.Response
// @Router /api/v1/playback/heartbeat [post]
func (h *PlaybackHandler) Heartbeat(c *fiber.Ctx) error {
	var req dto.PlaybackHeartbeatRequest
	if err := c.BodyParser(&req); err != nil {
		return err
	}

	if err := req.Validate(); err != nil {
		validationResp := dto.CreateValidationErrorResponse(err)
		return c.Status(fiber.StatusBadRequest).JSON(validationResp)
	}

	recorded, err := h.accessSvc.Heartbeat(req, time.Now().UTC())
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Success", fiber.Map{"ok": true, "recorded": recorded})
}
