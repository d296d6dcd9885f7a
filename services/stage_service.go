package services

import (
	"context"

	"github.com/sentinelai/counsel-api/model"
	"gorm.io/gorm"
)

// ComputeStage maps current state to a stage. Pure and recomputed from
// scratch on every query: there is no stored history and no ratchet, so
// removing the last locked entry legitimately moves a user back a stage.
func ComputeStage(profileComplete bool, shortlistSize int, anyLocked bool) model.Stage {
	switch {
	case !profileComplete:
		return model.StageBuildingProfile
	case anyLocked:
		return model.StagePreparingApplications
	case shortlistSize > 0:
		return model.StageFinalizingUniversities
	default:
		return model.StageDiscoveringUniversities
	}
}

// StageService answers stage and gating queries from live profile and
// shortlist state.
type StageService struct {
	db         *gorm.DB
	onboarding *OnboardingService
}

// NewStageService creates a new stage service
func NewStageService(db *gorm.DB, onboarding *OnboardingService) *StageService {
	return &StageService{
		db:         db,
		onboarding: onboarding,
	}
}

// CurrentStage is the response shape for a stage query.
type CurrentStage struct {
	Stage     int               `json:"stage"`
	StageName string            `json:"stage_name"`
	Stages    []model.StageInfo `json:"stages"`
}

// Current recomputes the user's stage from present state.
func (s *StageService) Current(ctx context.Context, userID string) (*CurrentStage, error) {
	complete, err := s.onboarding.IsComplete(ctx, userID)
	if err != nil {
		return nil, err
	}

	var total, locked int64
	if err := s.db.WithContext(ctx).Model(&model.ShortlistEntry{}).
		Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(&model.ShortlistEntry{}).
		Where("user_id = ? AND is_locked = ?", userID, true).Count(&locked).Error; err != nil {
		return nil, err
	}

	stage := ComputeStage(complete, int(total), locked > 0)

	return &CurrentStage{
		Stage:     int(stage),
		StageName: stage.Name(),
		Stages:    model.StageCatalogue(),
	}, nil
}

// CanAccessCounsellor reports whether the counsellor gate is open:
// true iff the profile is complete.
func (s *StageService) CanAccessCounsellor(ctx context.Context, userID string) (bool, error) {
	return s.onboarding.IsComplete(ctx, userID)
}

// CanAccessGuidance reports whether guidance-level features are open:
// true iff at least one shortlist entry is locked.
func (s *StageService) CanAccessGuidance(ctx context.Context, userID string) (bool, error) {
	var locked int64
	err := s.db.WithContext(ctx).Model(&model.ShortlistEntry{}).
		Where("user_id = ? AND is_locked = ?", userID, true).Count(&locked).Error
	if err != nil {
		return false, err
	}
	return locked > 0, nil
}
