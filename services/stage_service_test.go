package services

import (
	"context"
	"testing"

	"github.com/sentinelai/counsel-api/model"
	"github.com/sentinelai/counsel-api/utils/keylock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeStage(t *testing.T) {
	cases := []struct {
		name            string
		profileComplete bool
		shortlistSize   int
		anyLocked       bool
		want            model.Stage
	}{
		{"incomplete profile", false, 0, false, model.StageBuildingProfile},
		{"incomplete profile with shortlist", false, 3, false, model.StageBuildingProfile},
		{"incomplete profile with lock", false, 3, true, model.StageBuildingProfile},
		{"complete, empty shortlist", true, 0, false, model.StageDiscoveringUniversities},
		{"complete, shortlist, no lock", true, 2, false, model.StageFinalizingUniversities},
		{"complete, shortlist, locked", true, 2, true, model.StagePreparingApplications},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ComputeStage(tc.profileComplete, tc.shortlistSize, tc.anyLocked)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestStageRegressesWhenShortlistEmpties(t *testing.T) {
	// Stage is recomputed from live state: removing the last entry drops
	// the user back to discovery.
	assert.Equal(t, model.StageFinalizingUniversities, ComputeStage(true, 1, false))
	assert.Equal(t, model.StageDiscoveringUniversities, ComputeStage(true, 0, false))
}

func TestStageServiceCurrent(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	userID := "student-1"

	onboarding := NewOnboardingService(db, keylock.New())
	stages := NewStageService(db, onboarding)

	current, err := stages.Current(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int(model.StageBuildingProfile), current.Stage)
	assert.Equal(t, "Building Profile", current.StageName)
	assert.Len(t, current.Stages, 4)

	_, err = onboarding.Upsert(ctx, userID, "s@example.com", "Student", completeUpdate())
	require.NoError(t, err)

	current, err = stages.Current(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int(model.StageDiscoveringUniversities), current.Stage)

	dir := &fakeDirectory{universities: sampleUniversities()}
	shortlist := NewShortlistService(db, dir, keylock.New())
	entry, err := shortlist.Add(ctx, userID, "University of Toronto", "Canada", model.CategoryTarget)
	require.NoError(t, err)

	current, err = stages.Current(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int(model.StageFinalizingUniversities), current.Stage)

	_, err = shortlist.Lock(ctx, userID, entry.UniversityName, entry.Country)
	require.NoError(t, err)

	current, err = stages.Current(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int(model.StagePreparingApplications), current.Stage)
	assert.Equal(t, "Preparing Applications", current.StageName)
}

func TestStageServiceAccessChecks(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	userID := "student-1"

	onboarding := NewOnboardingService(db, keylock.New())
	stages := NewStageService(db, onboarding)

	ok, err := stages.CanAccessCounsellor(ctx, userID)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = onboarding.Upsert(ctx, userID, "s@example.com", "Student", completeUpdate())
	require.NoError(t, err)

	ok, err = stages.CanAccessCounsellor(ctx, userID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = stages.CanAccessGuidance(ctx, userID)
	require.NoError(t, err)
	assert.False(t, ok)

	shortlist := NewShortlistService(db, &fakeDirectory{universities: sampleUniversities()}, keylock.New())
	_, err = shortlist.Add(ctx, userID, "McGill University", "Canada", model.CategorySafe)
	require.NoError(t, err)
	_, err = shortlist.Lock(ctx, userID, "McGill University", "Canada")
	require.NoError(t, err)

	ok, err = stages.CanAccessGuidance(ctx, userID)
	require.NoError(t, err)
	assert.True(t, ok)
}
