package handlers

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/kidtube-labs/kidtube_api/dto"
	"github.com/kidtube-labs/kidtube_api/shared"
)

type AccessHandler struct {
	accessSvc AccessServiceInterface
	limitsSvc LimitsServiceInterface
}

func NewAccessHandler(accessSvc AccessServiceInterface, limitsSvc LimitsServiceInterface) *AccessHandler {
	return &AccessHandler{
		accessSvc: accessSvc,
		limitsSvc: limitsSvc,
	}
}

// @Summary Check playback access
// @Description Evaluate whether a kid may play the given video or channel right now
// @Tags access
// @Accept json
// @Produce json
// @Param accessCheckRequest body dto.AccessCheckRequest true "Access check parameters"
// @Success 200 {object} shared.Response{data=dto.AccessCheckResponse}
// @Router /api/v1/access/check [post]
func (h *AccessHandler) CheckAccess(c *fiber.Ctx) error {
	var req dto.AccessCheckRequest
	if err := c.BodyParser(&req); err != nil {
		return err
	}

	if err := req.Validate(); err != nil {
		validationResp := dto.CreateValidationErrorResponse(err)
		return c.Status(fiber.StatusBadRequest).JSON(validationResp)
	}

	decision, err := h.accessSvc.CheckAccess(req, time.Now().UTC())
	if err != nil {
		return err
	}

	resp := dto.AccessCheckResponse{AccessDecision: *decision}
	if decision.Reason != nil {
		resp.Message = shared.ReasonDetail(*decision.Reason)
	}

	return shared.ResponseJSON(c, http.StatusOK, "Success", resp)
}

// @Summary Remaining watch budget
// @Description Seconds left in today's budget for a kid, optionally scoped to a category
// @Tags access
// @Produce json
// @Param id path string true "Kid ID"
// @Param category_id query string false "Category ID"
// @Success 200 {object} shared.Response{data=dto.RemainingResponse}
// @Router /api/v1/kids/{id}/remaining [get]
func (h *AccessHandler) Remaining(c *fiber.Ctx) error {
	kidID := c.Params("id")

	var categoryID *string
	if value := c.Query("category_id"); value != "" {
		categoryID = &value
	}

	remaining, err := h.limitsSvc.RemainingSeconds(kidID, categoryID, time.Now().UTC())
	if err != nil {
		return err
	}

	resp := dto.RemainingResponse{
		KidID:            kidID,
		CategoryID:       categoryID,
		Unlimited:        remaining == nil,
		RemainingSeconds: remaining,
	}

	return shared.ResponseJSON(c, http.StatusOK, "Success", resp)
}
