package counsellor

import (
	"bufio"

	"github.com/gofiber/fiber/v2"
	"github.com/sentinelai/counsel-api/services"
	"github.com/sentinelai/counsel-api/utils/middleware"
	"github.com/sentinelai/counsel-api/utils/response"
	"github.com/sentinelai/counsel-api/utils/sse"
	"github.com/sentinelai/counsel-api/utils/validation"
)

// CounsellorHandler handles counsellor chat requests
type CounsellorHandler struct {
	counsellor *services.CounsellorService
	validator  *validation.Validator
}

// NewCounsellorHandler creates a new counsellor handler
func NewCounsellorHandler(counsellor *services.CounsellorService) *CounsellorHandler {
	return &CounsellorHandler{
		counsellor: counsellor,
		validator:  validation.NewValidator(),
	}
}

// ChatRequest represents a counsellor chat message
type ChatRequest struct {
	Message string `json:"message" validate:"required,min=1,max=10000"`
}

// Chat handles POST /api/v1/counsellor/chat
func (h *CounsellorHandler) Chat(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	var req ChatRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		return response.ValidationError(c, validation.FormatValidationErrors(err))
	}

	reply, err := h.counsellor.Chat(c.Context(), userID, req.Message)
	if err != nil {
		if err == services.ErrGateOnboarding {
			return response.Forbidden(c, err.Error())
		}
		return response.ServiceUnavailable(c, "Counsellor is unavailable right now")
	}

	return response.Success(c, fiber.Map{"message": reply})
}

// Stream handles POST /api/v1/counsellor/stream. The gate is checked
// before headers are committed so gate failures are proper 403s.
func (h *CounsellorHandler) Stream(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	var req ChatRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		return response.ValidationError(c, validation.FormatValidationErrors(err))
	}

	status, err := h.counsellor.Status(c.Context(), userID)
	if err != nil {
		return response.InternalServerError(c, "Failed to check counsellor access")
	}
	if !status.Available {
		return response.Forbidden(c, services.ErrGateOnboarding.Error())
	}

	// Set headers for SSE
	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("Transfer-Encoding", "chunked")

	ctx := c.Context()
	message := req.Message

	ctx.SetBodyStreamWriter(func(w *bufio.Writer) {
		err := h.counsellor.StreamChat(ctx, userID, message, func(chunk string) error {
			return sse.SendChunk(w, chunk)
		})
		if err != nil {
			sse.SendError(w, err)
			return
		}
		sse.SendDone(w)
	})

	return nil
}

// Status handles GET /api/v1/counsellor/status
func (h *CounsellorHandler) Status(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	status, err := h.counsellor.Status(c.Context(), userID)
	if err != nil {
		return response.InternalServerError(c, "Failed to check counsellor access")
	}
	return response.Success(c, status)
}
