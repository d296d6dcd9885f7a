package model

import (
	"time"

	"gorm.io/datatypes"
)

// OnboardingProfile stores the four onboarding sections as JSON documents.
// Sections are replaced wholesale on update, never deep-merged, so keeping
// them as JSON columns matches the write pattern.
type OnboardingProfile struct {
	ID                 uint           `gorm:"primaryKey" json:"-"`
	UserID             string         `gorm:"type:varchar(64);not null;uniqueIndex" json:"user_id"`
	AcademicBackground datatypes.JSON `json:"academic_background,omitempty"`
	StudyGoal          datatypes.JSON `json:"study_goal,omitempty"`
	Budget             datatypes.JSON `json:"budget,omitempty"`
	ExamsReadiness     datatypes.JSON `json:"exams_readiness,omitempty"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
}

// TableName specifies the table name for OnboardingProfile
func (OnboardingProfile) TableName() string {
	return "onboarding_profiles"
}

// AcademicBackground is section A of the onboarding form.
type AcademicBackground struct {
	CurrentEducationLevel string   `json:"current_education_level" validate:"required,oneof=high_school bachelors masters phd other"`
	DegreeMajor           string   `json:"degree_major" validate:"required"`
	GraduationYear        int      `json:"graduation_year" validate:"required,gte=1980,lte=2035"`
	GPA                   *float64 `json:"gpa" validate:"omitempty,gte=0,lte=10"`
}

// StudyGoal is section B.
type StudyGoal struct {
	IntendedDegree     string   `json:"intended_degree" validate:"required,oneof=bachelors masters mba phd"`
	FieldOfStudy       string   `json:"field_of_study" validate:"required"`
	TargetIntakeYear   int      `json:"target_intake_year" validate:"required,gte=2024,lte=2035"`
	PreferredCountries []string `json:"preferred_countries" validate:"required,min=1,max=5,dive,required"`
}

// BudgetSection is section C.
type BudgetSection struct {
	BudgetRangePerYear string `json:"budget_range_per_year" validate:"required,oneof=under_10k 10k_20k 20k_40k 40k_60k above_60k"`
	FundingPlan        string `json:"funding_plan" validate:"required,oneof=self_funded scholarship_dependent loan_dependent"`
}

// ExamsReadiness is section D.
type ExamsReadiness struct {
	IELTSTOEFLStatus string   `json:"ielts_toefl_status" validate:"required,oneof=not_started preparing scheduled completed"`
	IELTSTOEFLScore  *float64 `json:"ielts_toefl_score" validate:"omitempty,gte=0"`
	GREGMATStatus    string   `json:"gre_gmat_status" validate:"required,oneof=not_started preparing scheduled completed not_required"`
	GREGMATScore     *int     `json:"gre_gmat_score" validate:"omitempty,gte=0"`
	SOPStatus        string   `json:"sop_status" validate:"required,oneof=not_started draft ready"`
}

// ProfileData is the decoded view of all four sections.
type ProfileData struct {
	AcademicBackground AcademicBackground `json:"academic_background"`
	StudyGoal          StudyGoal          `json:"study_goal"`
	Budget             BudgetSection      `json:"budget"`
	ExamsReadiness     ExamsReadiness     `json:"exams_readiness"`
}

// SectionNames lists the onboarding sections in form order.
var SectionNames = []string{"academic_background", "study_goal", "budget", "exams_readiness"}

// OnboardingStatus reports derived completeness for a user's profile.
type OnboardingStatus struct {
	UserID               string       `json:"user_id"`
	IsComplete           bool         `json:"is_complete"`
	CompletionPercentage int          `json:"completion_percentage"`
	MissingSections      []string     `json:"missing_sections"`
	Data                 *ProfileData `json:"data,omitempty"`
}
