package university

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sentinelai/counsel-api/model"
	"github.com/sentinelai/counsel-api/services"
	"github.com/sentinelai/counsel-api/utils/middleware"
	"github.com/sentinelai/counsel-api/utils/response"
	"github.com/sentinelai/counsel-api/utils/validation"
)

// UniversityHandler handles directory search, recommendations and the
// shortlist.
type UniversityHandler struct {
	directory       services.DirectorySearcher
	recommendations *services.RecommendationService
	shortlist       *services.ShortlistService
	validator       *validation.Validator
}

// NewUniversityHandler creates a new university handler
func NewUniversityHandler(dir services.DirectorySearcher, rec *services.RecommendationService, shortlist *services.ShortlistService) *UniversityHandler {
	return &UniversityHandler{
		directory:       dir,
		recommendations: rec,
		shortlist:       shortlist,
		validator:       validation.NewValidator(),
	}
}

// ShortlistRequest represents the request to add a shortlist entry
type ShortlistRequest struct {
	UniversityName string `json:"university_name" validate:"required,min=1,max=255"`
	Country        string `json:"country" validate:"required,min=1,max=100"`
	Category       string `json:"category" validate:"omitempty,oneof=dream target safe"`
}

// LockRequest represents the request to lock or unlock an entry
type LockRequest struct {
	UniversityName string `json:"university_name" validate:"required,min=1,max=255"`
	Country        string `json:"country" validate:"required,min=1,max=100"`
}

// Search handles GET /api/v1/universities/search
func (h *UniversityHandler) Search(c *fiber.Ctx) error {
	name := validation.SanitizeString(c.Query("name"))
	country := validation.SanitizeString(c.Query("country"))
	if name == "" && country == "" {
		return response.BadRequest(c, "Provide a name or country filter")
	}

	universities, err := h.directory.Search(c.Context(), name, country)
	if err != nil {
		// Upstream outage is the empty-list contract, not an error.
		universities = []model.University{}
	}
	return response.Success(c, universities)
}

// Recommendations handles GET /api/v1/universities/recommendations
func (h *UniversityHandler) Recommendations(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	var countries []string
	if raw := c.Query("countries"); raw != "" {
		for _, country := range strings.Split(raw, ",") {
			if trimmed := strings.TrimSpace(country); trimmed != "" {
				countries = append(countries, trimmed)
			}
		}
	}

	tiers, err := h.recommendations.Recommend(c.Context(), userID, countries)
	if err != nil {
		if err == services.ErrNotFound {
			return response.Forbidden(c, "Complete onboarding to get recommendations")
		}
		return response.InternalServerError(c, "Failed to build recommendations")
	}
	return response.Success(c, tiers)
}

// ListShortlist handles GET /api/v1/universities/shortlist
func (h *UniversityHandler) ListShortlist(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	entries, err := h.shortlist.List(c.Context(), userID)
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch shortlist")
	}
	return response.Success(c, entries)
}

// AddToShortlist handles POST /api/v1/universities/shortlist
func (h *UniversityHandler) AddToShortlist(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	var req ShortlistRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		return response.ValidationError(c, validation.FormatValidationErrors(err))
	}

	entry, err := h.shortlist.Add(c.Context(), userID, req.UniversityName, req.Country, req.Category)
	if err != nil {
		switch err {
		case services.ErrNotFound:
			return response.NotFound(c, "University not found in directory")
		case services.ErrAlreadyShortlisted:
			return response.BadRequestWithCode(c, "University is already in your shortlist", "ALREADY_SHORTLISTED")
		default:
			return response.InternalServerError(c, "Failed to add shortlist entry")
		}
	}
	return response.SuccessWithMessage(c, "University added to shortlist", entry)
}

// RemoveFromShortlist handles DELETE /api/v1/universities/shortlist/:id
func (h *UniversityHandler) RemoveFromShortlist(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	entryID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil || entryID == 0 {
		return response.BadRequest(c, "Invalid shortlist entry id")
	}

	if err := h.shortlist.Remove(c.Context(), userID, uint(entryID)); err != nil {
		switch err {
		case services.ErrNotFound:
			return response.NotFound(c, "Shortlist entry not found")
		case services.ErrRemoveLocked:
			return response.BadRequestWithCode(c, "Cannot remove a locked university, unlock it first", "REMOVE_LOCKED")
		default:
			return response.InternalServerError(c, "Failed to remove shortlist entry")
		}
	}
	return response.SuccessWithMessage(c, "University removed from shortlist", nil)
}

// Lock handles POST /api/v1/universities/lock
func (h *UniversityHandler) Lock(c *fiber.Ctx) error {
	return h.setLock(c, true)
}

// Unlock handles POST /api/v1/universities/unlock
func (h *UniversityHandler) Unlock(c *fiber.Ctx) error {
	return h.setLock(c, false)
}

func (h *UniversityHandler) setLock(c *fiber.Ctx, locked bool) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	var req LockRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		return response.ValidationError(c, validation.FormatValidationErrors(err))
	}

	var entry *model.ShortlistEntry
	var err error
	if locked {
		entry, err = h.shortlist.Lock(c.Context(), userID, req.UniversityName, req.Country)
	} else {
		entry, err = h.shortlist.Unlock(c.Context(), userID, req.UniversityName, req.Country)
	}
	if err != nil {
		if err == services.ErrNotFound {
			return response.NotFound(c, "Shortlist entry not found")
		}
		return response.InternalServerError(c, "Failed to update lock state")
	}

	message := "University locked"
	if !locked {
		message = "University unlocked"
	}
	return response.SuccessWithMessage(c, message, entry)
}
