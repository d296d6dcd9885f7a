package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sentinelai/counsel-api/model"
	"github.com/sentinelai/counsel-api/utils/keylock"
	"github.com/sentinelai/counsel-api/utils/validation"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// OnboardingService owns the per-user onboarding profile. It is the single
// source of truth for completeness, which is derived on read and never
// stored.
type OnboardingService struct {
	db        *gorm.DB
	locks     *keylock.KeyLock
	validator *validation.Validator
}

// NewOnboardingService creates a new onboarding service
func NewOnboardingService(db *gorm.DB, locks *keylock.KeyLock) *OnboardingService {
	return &OnboardingService{
		db:        db,
		locks:     locks,
		validator: validation.NewValidator(),
	}
}

// ProfileUpdate carries full or partial onboarding data. Each section
// present is validated and replaces the stored section wholesale.
type ProfileUpdate struct {
	AcademicBackground *model.AcademicBackground `json:"academic_background"`
	StudyGoal          *model.StudyGoal          `json:"study_goal"`
	Budget             *model.BudgetSection      `json:"budget"`
	ExamsReadiness     *model.ExamsReadiness     `json:"exams_readiness"`
}

// Empty reports whether the update carries no sections at all.
func (u *ProfileUpdate) Empty() bool {
	return u.AcademicBackground == nil && u.StudyGoal == nil && u.Budget == nil && u.ExamsReadiness == nil
}

// Validate checks every provided section against its field rules.
// Returns a field→message map on violation, nil otherwise.
func (s *OnboardingService) Validate(update *ProfileUpdate) map[string]string {
	sections := []interface{}{}
	if update.AcademicBackground != nil {
		sections = append(sections, update.AcademicBackground)
	}
	if update.StudyGoal != nil {
		sections = append(sections, update.StudyGoal)
	}
	if update.Budget != nil {
		sections = append(sections, update.Budget)
	}
	if update.ExamsReadiness != nil {
		sections = append(sections, update.ExamsReadiness)
	}

	for _, section := range sections {
		if err := s.validator.ValidateStruct(section); err != nil {
			return validation.FormatValidationErrors(err)
		}
	}
	return nil
}

// Get returns the stored profile row for a user, ErrNotFound when absent.
func (s *OnboardingService) Get(ctx context.Context, userID string) (*model.OnboardingProfile, error) {
	var profile model.OnboardingProfile
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch profile: %w", err)
	}
	return &profile, nil
}

// Upsert applies a full or partial update. Writes for the same user are
// serialized through the per-user lock so concurrent section edits cannot
// clobber each other.
func (s *OnboardingService) Upsert(ctx context.Context, userID, email, fullName string, update *ProfileUpdate) (*model.OnboardingProfile, error) {
	s.locks.Lock(userID)
	defer s.locks.Unlock(userID)

	if err := s.ensureUser(ctx, userID, email, fullName); err != nil {
		return nil, err
	}

	var profile model.OnboardingProfile
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error
	if err != nil && err != gorm.ErrRecordNotFound {
		return nil, fmt.Errorf("failed to fetch profile: %w", err)
	}
	if err == gorm.ErrRecordNotFound {
		profile = model.OnboardingProfile{UserID: userID}
	}

	// Section-wise wholesale replacement: a provided section overwrites
	// the stored one entirely, absent sections are untouched.
	if update.AcademicBackground != nil {
		raw, err := json.Marshal(update.AcademicBackground)
		if err != nil {
			return nil, fmt.Errorf("failed to encode academic background: %w", err)
		}
		profile.AcademicBackground = datatypes.JSON(raw)
	}
	if update.StudyGoal != nil {
		raw, err := json.Marshal(update.StudyGoal)
		if err != nil {
			return nil, fmt.Errorf("failed to encode study goal: %w", err)
		}
		profile.StudyGoal = datatypes.JSON(raw)
	}
	if update.Budget != nil {
		raw, err := json.Marshal(update.Budget)
		if err != nil {
			return nil, fmt.Errorf("failed to encode budget: %w", err)
		}
		profile.Budget = datatypes.JSON(raw)
	}
	if update.ExamsReadiness != nil {
		raw, err := json.Marshal(update.ExamsReadiness)
		if err != nil {
			return nil, fmt.Errorf("failed to encode exams readiness: %w", err)
		}
		profile.ExamsReadiness = datatypes.JSON(raw)
	}

	if err := s.db.WithContext(ctx).Save(&profile).Error; err != nil {
		return nil, fmt.Errorf("failed to save profile: %w", err)
	}

	return &profile, nil
}

// Decode unmarshals the stored sections into a ProfileData view. Sections
// that are missing stay zero-valued.
func (s *OnboardingService) Decode(profile *model.OnboardingProfile) (*model.ProfileData, error) {
	data := &model.ProfileData{}

	if len(profile.AcademicBackground) > 0 {
		if err := json.Unmarshal(profile.AcademicBackground, &data.AcademicBackground); err != nil {
			return nil, fmt.Errorf("corrupt academic_background section: %w", err)
		}
	}
	if len(profile.StudyGoal) > 0 {
		if err := json.Unmarshal(profile.StudyGoal, &data.StudyGoal); err != nil {
			return nil, fmt.Errorf("corrupt study_goal section: %w", err)
		}
	}
	if len(profile.Budget) > 0 {
		if err := json.Unmarshal(profile.Budget, &data.Budget); err != nil {
			return nil, fmt.Errorf("corrupt budget section: %w", err)
		}
	}
	if len(profile.ExamsReadiness) > 0 {
		if err := json.Unmarshal(profile.ExamsReadiness, &data.ExamsReadiness); err != nil {
			return nil, fmt.Errorf("corrupt exams_readiness section: %w", err)
		}
	}

	return data, nil
}

// missingSections lists sections that are absent or fail required-field
// validation. Completeness means every section passes.
func (s *OnboardingService) missingSections(profile *model.OnboardingProfile) []string {
	missing := []string{}

	check := func(name string, raw []byte, dest interface{}) {
		if len(raw) == 0 {
			missing = append(missing, name)
			return
		}
		if err := json.Unmarshal(raw, dest); err != nil {
			missing = append(missing, name)
			return
		}
		if err := s.validator.ValidateStruct(dest); err != nil {
			missing = append(missing, name)
		}
	}

	check("academic_background", profile.AcademicBackground, &model.AcademicBackground{})
	check("study_goal", profile.StudyGoal, &model.StudyGoal{})
	check("budget", profile.Budget, &model.BudgetSection{})
	check("exams_readiness", profile.ExamsReadiness, &model.ExamsReadiness{})

	return missing
}

// Status derives completeness for a user. A missing profile counts all four
// sections as missing rather than erroring.
func (s *OnboardingService) Status(ctx context.Context, userID string) (*model.OnboardingStatus, error) {
	status := &model.OnboardingStatus{
		UserID:          userID,
		MissingSections: []string{},
	}

	profile, err := s.Get(ctx, userID)
	if err != nil {
		if err == ErrNotFound {
			status.MissingSections = append(status.MissingSections, model.SectionNames...)
			return status, nil
		}
		return nil, err
	}

	status.MissingSections = s.missingSections(profile)
	completed := len(model.SectionNames) - len(status.MissingSections)
	status.CompletionPercentage = completed * 100 / len(model.SectionNames)
	status.IsComplete = len(status.MissingSections) == 0

	if status.IsComplete {
		data, err := s.Decode(profile)
		if err != nil {
			return nil, err
		}
		status.Data = data
	}

	return status, nil
}

// IsComplete reports whether every section is present and valid.
func (s *OnboardingService) IsComplete(ctx context.Context, userID string) (bool, error) {
	status, err := s.Status(ctx, userID)
	if err != nil {
		return false, err
	}
	return status.IsComplete, nil
}

// CompleteData returns the decoded profile when complete, ErrNotFound
// otherwise. Used by callers that require a full snapshot (classification,
// counsellor context).
func (s *OnboardingService) CompleteData(ctx context.Context, userID string) (*model.ProfileData, error) {
	status, err := s.Status(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !status.IsComplete || status.Data == nil {
		return nil, ErrNotFound
	}
	return status.Data, nil
}

// ensureUser lazily mirrors the identity provider's subject into the users
// table on first write.
func (s *OnboardingService) ensureUser(ctx context.Context, userID, email, fullName string) error {
	var user model.User
	err := s.db.WithContext(ctx).Where("id = ?", userID).First(&user).Error
	if err == nil {
		return nil
	}
	if err != gorm.ErrRecordNotFound {
		return fmt.Errorf("failed to fetch user: %w", err)
	}

	user = model.User{ID: userID, Email: email, FullName: fullName}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}
