package services

import (
	"testing"

	"github.com/sentinelai/counsel-api/model"
	"github.com/stretchr/testify/assert"
)

func TestEstimateCostLevel(t *testing.T) {
	assert.Equal(t, model.LevelHigh, estimateCostLevel("United States"))
	assert.Equal(t, model.LevelHigh, estimateCostLevel("united kingdom"))
	assert.Equal(t, model.LevelMedium, estimateCostLevel("Canada"))
	assert.Equal(t, model.LevelMedium, estimateCostLevel("New Zealand"))
	assert.Equal(t, model.LevelLow, estimateCostLevel("Germany"))
	assert.Equal(t, model.LevelLow, estimateCostLevel("India"))
}

func TestEstimateAcceptanceChance(t *testing.T) {
	data := testProfileData()

	data.AcademicBackground.GPA = floatPtr(3.8)
	assert.Equal(t, model.LevelHigh, estimateAcceptanceChance(data))

	data.AcademicBackground.GPA = floatPtr(3.5)
	assert.Equal(t, model.LevelMedium, estimateAcceptanceChance(data))

	data.AcademicBackground.GPA = floatPtr(2.9)
	assert.Equal(t, model.LevelLow, estimateAcceptanceChance(data))

	// 10-point scales are normalized before thresholding.
	data.AcademicBackground.GPA = floatPtr(9.5)
	assert.Equal(t, model.LevelHigh, estimateAcceptanceChance(data))

	data.AcademicBackground.GPA = nil
	assert.Equal(t, model.LevelMedium, estimateAcceptanceChance(data))

	assert.Equal(t, model.LevelMedium, estimateAcceptanceChance(nil))
}

func TestFallbackCategoryStable(t *testing.T) {
	first := fallbackCategory("University of Toronto")
	assert.True(t, model.ValidCategory(first))
	assert.Equal(t, first, fallbackCategory("University of Toronto"))
	assert.Equal(t, first, fallbackCategory("UNIVERSITY OF TORONTO"))
}

func TestFallbackClassification(t *testing.T) {
	data := testProfileData()
	university := model.University{Name: "Technical University of Munich", Country: "Germany"}

	result := fallbackClassification(university, data)
	assert.True(t, result.Degraded)
	assert.True(t, model.ValidCategory(result.Category))
	assert.Equal(t, model.LevelLow, result.CostLevel)
	assert.NotEmpty(t, result.FitReasons)
	assert.Contains(t, result.FitReasons[0], "Germany")
}

func TestFallbackRisks(t *testing.T) {
	data := testProfileData()
	data.ExamsReadiness.IELTSTOEFLStatus = "not_started"
	data.ExamsReadiness.SOPStatus = "not_started"

	risks := fallbackRisks(model.University{Name: "Stanford", Country: "United States"}, data)
	assert.Contains(t, risks, "High tuition and living costs")
	assert.Contains(t, risks, "English proficiency test not yet taken")
	assert.Contains(t, risks, "Statement of Purpose not yet started")
}
