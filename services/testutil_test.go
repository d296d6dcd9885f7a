package services

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/sentinelai/counsel-api/model"
	"github.com/sentinelai/counsel-api/utils/keylock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens an isolated in-memory database with the full schema.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&model.User{},
		&model.OnboardingProfile{},
		&model.ShortlistEntry{},
		&model.CronJobLog{},
	)
	require.NoError(t, err)

	return db
}

func floatPtr(f float64) *float64 { return &f }
func intPtr(i int) *int           { return &i }

// completeUpdate returns a profile update with all four sections valid.
func completeUpdate() *ProfileUpdate {
	return &ProfileUpdate{
		AcademicBackground: &model.AcademicBackground{
			CurrentEducationLevel: "bachelors",
			DegreeMajor:           "Computer Science",
			GraduationYear:        2024,
			GPA:                   floatPtr(8.4),
		},
		StudyGoal: &model.StudyGoal{
			IntendedDegree:     "masters",
			FieldOfStudy:       "Artificial Intelligence",
			TargetIntakeYear:   2026,
			PreferredCountries: []string{"Canada", "Germany"},
		},
		Budget: &model.BudgetSection{
			BudgetRangePerYear: "20k_40k",
			FundingPlan:        "self_funded",
		},
		ExamsReadiness: &model.ExamsReadiness{
			IELTSTOEFLStatus: "completed",
			IELTSTOEFLScore:  floatPtr(7.5),
			GREGMATStatus:    "not_required",
			SOPStatus:        "draft",
		},
	}
}

// seedCompleteProfile stores a complete profile for userID and returns the
// onboarding service bound to db.
func seedCompleteProfile(t *testing.T, db *gorm.DB, userID string) *OnboardingService {
	t.Helper()

	svc := NewOnboardingService(db, keylock.New())
	_, err := svc.Upsert(context.Background(), userID, userID+"@example.com", "Test Student", completeUpdate())
	require.NoError(t, err)
	return svc
}

// fakeDirectory returns canned results or an error.
type fakeDirectory struct {
	universities []model.University
	err          error
	calls        int
}

func (f *fakeDirectory) Search(ctx context.Context, name, country string) ([]model.University, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}

	var matches []model.University
	for _, u := range f.universities {
		if name != "" && !strings.Contains(strings.ToLower(u.Name), strings.ToLower(name)) {
			continue
		}
		if country != "" && !strings.EqualFold(u.Country, country) {
			continue
		}
		matches = append(matches, u)
	}
	return matches, nil
}

func sampleUniversities() []model.University {
	return []model.University{
		{Name: "University of Toronto", Country: "Canada", AlphaTwoCode: "CA"},
		{Name: "McGill University", Country: "Canada", AlphaTwoCode: "CA"},
		{Name: "Technical University of Munich", Country: "Germany", AlphaTwoCode: "DE"},
	}
}
