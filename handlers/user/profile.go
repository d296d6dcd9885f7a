package user

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sentinelai/counsel-api/model"
	"github.com/sentinelai/counsel-api/services"
	"github.com/sentinelai/counsel-api/utils/middleware"
	"github.com/sentinelai/counsel-api/utils/response"
	"gorm.io/gorm"
)

// UserHandler serves the authenticated user's profile and stage.
type UserHandler struct {
	db         *gorm.DB
	onboarding *services.OnboardingService
	stages     *services.StageService
}

// NewUserHandler creates a new user handler
func NewUserHandler(db *gorm.DB, onboarding *services.OnboardingService, stages *services.StageService) *UserHandler {
	return &UserHandler{
		db:         db,
		onboarding: onboarding,
		stages:     stages,
	}
}

// GetProfile handles GET /api/v1/user/profile
func (h *UserHandler) GetProfile(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	var account model.User
	if err := h.db.WithContext(c.Context()).First(&account, "id = ?", userID).Error; err != nil {
		if err != gorm.ErrRecordNotFound {
			return response.InternalServerError(c, "Failed to fetch user")
		}
		// The user row appears lazily on first profile write; fall back to
		// token claims until then.
		account = model.User{ID: userID}
		if email, ok := middleware.GetUserEmail(c); ok {
			account.Email = email
		}
		if claims, ok := middleware.GetClaims(c); ok {
			account.FullName = claims.FullName
		}
	}

	status, err := h.onboarding.Status(c.Context(), userID)
	if err != nil {
		return response.InternalServerError(c, "Failed to compute onboarding status")
	}

	return response.Success(c, fiber.Map{
		"user":       account,
		"onboarding": status,
	})
}

// GetStage handles GET /api/v1/user/stage
func (h *UserHandler) GetStage(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	current, err := h.stages.Current(c.Context(), userID)
	if err != nil {
		return response.InternalServerError(c, "Failed to compute stage")
	}
	return response.Success(c, current)
}
