package handlers

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/kidtube-labs/kidtube_api/dto"
	"github.com/kidtube-labs/kidtube_api/model"
	"github.com/kidtube-labs/kidtube_api/shared"
)

type RequestHandler struct {
	approvalSvc ApprovalServiceInterface
	limitsSvc   LimitsServiceInterface
}

func NewRequestHandler(approvalSvc ApprovalServiceInterface, limitsSvc LimitsServiceInterface) *RequestHandler {
	return &RequestHandler{
		approvalSvc: approvalSvc,
		limitsSvc:   limitsSvc,
	}
}

// @Summary Create an approval request
// @Description Kid-facing ask for a channel, video, or bonus time; throttled per kid
// @Tags requests
// @Accept json
// @Produce json
// @Param createRequest body dto.CreateRequestRequest true "Request details"
// @Success 201 {object} shared.Response{data=dto.RequestResponse}
// @Router /api/v1/requests [post]
func (h *RequestHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateRequestRequest
	if err := c.BodyParser(&req); err != nil {
		return err
	}

	if err := req.Validate(); err != nil {
		validationResp := dto.CreateValidationErrorResponse(err)
		return c.Status(fiber.StatusBadRequest).JSON(validationResp)
	}

	request, err := h.approvalSvc.CreateRequest(req, time.Now().UTC())
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusCreated, "Created", requestResponse(request))
}

// @Summary Resolve an approval request
// @Description Admin approve/deny; re-applying to a resolved request is a no-op
// @Tags requests
// @Produce json
// @Param id path string true "Request ID"
// @Param action path string true "approve or deny"
// @Success 200 {object} shared.Response{data=dto.RequestResponse}
// @Router /api/v1/requests/{id}/{action} [post]
func (h *RequestHandler) Resolve(c *fiber.Ctx) error {
	requestID := c.Params("id")
	action := c.Params("action")

	request, err := h.approvalSvc.ApplyAction(requestID, action, time.Now().UTC())
	if err != nil {
		return err
	}
	if request == nil {
		// The workflow treats unknown ids as silent no-ops for the remote
		// gateway; humans on the admin surface get a 404 instead.
		return shared.ResponseNotFound(c)
	}

	return shared.ResponseJSON(c, http.StatusOK, "Success", requestResponse(request))
}

// @Summary Grant bonus time
// @Description Admin grant of additive bonus minutes, optionally expiring
// @Tags requests
// @Accept json
// @Produce json
// @Param id path string true "Kid ID"
// @Param grantBonusRequest body dto.GrantBonusRequest true "Bonus grant"
// @Success 201 {object} shared.Response{data=model.KidBonusTime}
// @Router /api/v1/kids/{id}/bonus [post]
func (h *RequestHandler) GrantBonus(c *fiber.Ctx) error {
	kidID := c.Params("id")

	var req dto.GrantBonusRequest
	if err := c.BodyParser(&req); err != nil {
		return err
	}

	if err := req.Validate(); err != nil {
		validationResp := dto.CreateValidationErrorResponse(err)
		return c.Status(fiber.StatusBadRequest).JSON(validationResp)
	}

	grant, err := h.limitsSvc.GrantBonus(kidID, req.Minutes, req.ExpiresAt)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusCreated, "Created", grant)
}

func requestResponse(request *model.Request) dto.RequestResponse {
	return dto.RequestResponse{
		ID:         request.ID,
		Type:       request.Type,
		SubjectID:  request.SubjectID,
		KidID:      request.KidID,
		Status:     request.Status,
		CreatedAt:  request.CreatedAt,
		ResolvedAt: request.ResolvedAt,
	}
}
