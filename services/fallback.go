package services

import (
	"fmt"
	"hash/fnv"
	"strings"

	"github.com/sentinelai/counsel-api/model"
)

var highCostCountries = []string{"united states", "united kingdom", "australia", "singapore"}
var mediumCostCountries = []string{"canada", "netherlands", "ireland", "new zealand"}

// estimateCostLevel maps a country to a cost tier.
func estimateCostLevel(country string) string {
	lower := strings.ToLower(country)
	for _, c := range highCostCountries {
		if strings.Contains(lower, c) {
			return model.LevelHigh
		}
	}
	for _, c := range mediumCostCountries {
		if strings.Contains(lower, c) {
			return model.LevelMedium
		}
	}
	return model.LevelLow
}

// estimateAcceptanceChance derives a chance level from the student's GPA.
// Profiles may report GPA on a 4-point or 10-point scale; anything above 4
// is normalized down.
func estimateAcceptanceChance(data *model.ProfileData) string {
	if data == nil || data.AcademicBackground.GPA == nil {
		return model.LevelMedium
	}
	gpa := *data.AcademicBackground.GPA
	if gpa > 4 {
		gpa = gpa / 10 * 4
	}
	switch {
	case gpa >= 3.7:
		return model.LevelHigh
	case gpa >= 3.3:
		return model.LevelMedium
	default:
		return model.LevelLow
	}
}

// fallbackCategory assigns a stable category from the university name so
// repeated runs place the same candidate in the same tier.
func fallbackCategory(name string) string {
	h := fnv.New32a()
	h.Write([]byte(strings.ToLower(name)))
	switch h.Sum32() % 3 {
	case 0:
		return model.CategoryDream
	case 1:
		return model.CategoryTarget
	default:
		return model.CategorySafe
	}
}

func fallbackFitReasons(university model.University, data *model.ProfileData) []string {
	var reasons []string
	if data != nil {
		for _, c := range data.StudyGoal.PreferredCountries {
			if strings.EqualFold(c, university.Country) {
				reasons = append(reasons, fmt.Sprintf("Located in your preferred country: %s", university.Country))
				break
			}
		}
		reasons = append(reasons,
			fmt.Sprintf("Offers programs in %s", data.StudyGoal.FieldOfStudy),
			fmt.Sprintf("Strong %s programs", data.StudyGoal.IntendedDegree))
	}
	if len(reasons) == 0 {
		reasons = append(reasons, "Complete onboarding for personalized fit analysis")
	}
	return reasons
}

func fallbackRisks(university model.University, data *model.ProfileData) []string {
	var risks []string
	if estimateCostLevel(university.Country) == model.LevelHigh {
		risks = append(risks, "High tuition and living costs")
	}
	if data != nil {
		if data.ExamsReadiness.IELTSTOEFLStatus == "not_started" {
			risks = append(risks, "English proficiency test not yet taken")
		}
		if data.ExamsReadiness.SOPStatus == "not_started" {
			risks = append(risks, "Statement of Purpose not yet started")
		}
	}
	return risks
}

// fallbackClassification produces a deterministic result for a candidate
// when the upstream classifier is unavailable.
func fallbackClassification(university model.University, data *model.ProfileData) model.ClassificationResult {
	return model.ClassificationResult{
		University:       university,
		Category:         fallbackCategory(university.Name),
		FitReasons:       fallbackFitReasons(university, data),
		Risks:            fallbackRisks(university, data),
		CostLevel:        estimateCostLevel(university.Country),
		AcceptanceChance: estimateAcceptanceChance(data),
		Degraded:         true,
	}
}
