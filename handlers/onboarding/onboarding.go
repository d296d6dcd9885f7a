package onboarding

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sentinelai/counsel-api/services"
	"github.com/sentinelai/counsel-api/utils/middleware"
	"github.com/sentinelai/counsel-api/utils/response"
)

// OnboardingHandler handles profile collection requests
type OnboardingHandler struct {
	onboarding *services.OnboardingService
}

// NewOnboardingHandler creates a new onboarding handler
func NewOnboardingHandler(onboarding *services.OnboardingService) *OnboardingHandler {
	return &OnboardingHandler{onboarding: onboarding}
}

// SubmitProfile handles POST /api/v1/onboarding. All four sections are
// required on a full submission.
func (h *OnboardingHandler) SubmitProfile(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	var update services.ProfileUpdate
	if err := c.BodyParser(&update); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	missing := map[string]string{}
	if update.AcademicBackground == nil {
		missing["academic_background"] = "section is required"
	}
	if update.StudyGoal == nil {
		missing["study_goal"] = "section is required"
	}
	if update.Budget == nil {
		missing["budget"] = "section is required"
	}
	if update.ExamsReadiness == nil {
		missing["exams_readiness"] = "section is required"
	}
	if len(missing) > 0 {
		return response.ValidationError(c, missing)
	}

	return h.save(c, userID, &update)
}

// UpdateProfile handles PATCH /api/v1/onboarding. Only the provided
// sections are replaced.
func (h *OnboardingHandler) UpdateProfile(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	var update services.ProfileUpdate
	if err := c.BodyParser(&update); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if update.Empty() {
		return response.BadRequest(c, "At least one profile section is required")
	}

	return h.save(c, userID, &update)
}

func (h *OnboardingHandler) save(c *fiber.Ctx, userID string, update *services.ProfileUpdate) error {
	if details := h.onboarding.Validate(update); details != nil {
		return response.ValidationError(c, details)
	}

	email, _ := middleware.GetUserEmail(c)
	fullName := ""
	if claims, ok := middleware.GetClaims(c); ok {
		fullName = claims.FullName
	}

	if _, err := h.onboarding.Upsert(c.Context(), userID, email, fullName, update); err != nil {
		return response.InternalServerError(c, "Failed to save profile")
	}

	status, err := h.onboarding.Status(c.Context(), userID)
	if err != nil {
		return response.InternalServerError(c, "Failed to compute onboarding status")
	}
	return response.SuccessWithMessage(c, "Profile saved", status)
}

// GetStatus handles GET /api/v1/onboarding/status
func (h *OnboardingHandler) GetStatus(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	status, err := h.onboarding.Status(c.Context(), userID)
	if err != nil {
		return response.InternalServerError(c, "Failed to compute onboarding status")
	}
	return response.Success(c, status)
}
