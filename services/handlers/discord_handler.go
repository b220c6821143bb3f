package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

type DiscordHandler struct {
	discordSvc DiscordServiceInterface
}

func NewDiscordHandler(discordSvc DiscordServiceInterface) *DiscordHandler {
	return &DiscordHandler{discordSvc: discordSvc}
}

// @Summary Discord interaction webhook
// @Description Signed interaction endpoint; verifies the ed25519 signature before acting
// @Tags discord
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /discord/interactions [post]
func (h *DiscordHandler) Interactions(c *fiber.Ctx) error {
	timestamp := c.Get("X-Signature-Timestamp")
	signature := c.Get("X-Signature-Ed25519")
	body := c.Body()

	if err := h.discordSvc.VerifySignature(timestamp, signature, body); err != nil {
		return err
	}

	resp, err := h.discordSvc.HandleInteraction(body, time.Now().UTC())
	if err != nil {
		return err
	}

	// Discord expects the interaction response bare, not wrapped in the
	// API envelope.
	return c.Status(fiber.StatusOK).JSON(resp)
}
