package services

import (
	"context"
	"log"
	"sort"
	"strings"

	"github.com/sentinelai/counsel-api/model"
)

const (
	maxRecommendCountries   = 3
	maxCandidatesPerCountry = 20
	maxRecommendCandidates  = 10
)

// Classifier is the classification dependency of the recommendation
// pipeline; tests substitute a canned implementation.
type Classifier interface {
	Classify(ctx context.Context, data *model.ProfileData, candidates []model.University) []model.ClassificationResult
}

var _ Classifier = (*ClassifierService)(nil)

// RecommendationService glues the directory, the classifier and the
// aggregator into the recommendation pipeline.
type RecommendationService struct {
	directory  DirectorySearcher
	classifier Classifier
	onboarding *OnboardingService
}

// NewRecommendationService creates a new recommendation service
func NewRecommendationService(dir DirectorySearcher, classifier Classifier, onboarding *OnboardingService) *RecommendationService {
	return &RecommendationService{
		directory:  dir,
		classifier: classifier,
		onboarding: onboarding,
	}
}

// Recommend builds tiered recommendations for a user. Candidates come from
// the user's preferred countries; directory failures yield empty tiers
// rather than an error.
func (s *RecommendationService) Recommend(ctx context.Context, userID string, countries []string) (*model.RecommendationTiers, error) {
	data, err := s.onboarding.CompleteData(ctx, userID)
	if err != nil {
		return nil, err
	}

	targetCountries := countries
	if len(targetCountries) == 0 {
		targetCountries = data.StudyGoal.PreferredCountries
	}
	if len(targetCountries) > maxRecommendCountries {
		targetCountries = targetCountries[:maxRecommendCountries]
	}

	var candidates []model.University
	for _, country := range targetCountries {
		found, err := s.directory.Search(ctx, "", country)
		if err != nil {
			log.Printf("directory lookup failed for %s: %v", country, err)
			continue
		}
		if len(found) > maxCandidatesPerCountry {
			found = found[:maxCandidatesPerCountry]
		}
		candidates = append(candidates, found...)
	}
	if len(candidates) > maxRecommendCandidates {
		candidates = candidates[:maxRecommendCandidates]
	}

	results := s.classifier.Classify(ctx, data, candidates)
	return Aggregate(results), nil
}

// Aggregate partitions classification results into tiers. It deduplicates
// by university identity, preferring a non-degraded result over a degraded
// one, and orders each tier by descending acceptance chance then name.
// Side effect free.
func Aggregate(results []model.ClassificationResult) *model.RecommendationTiers {
	best := make(map[string]model.ClassificationResult)
	order := make([]string, 0, len(results))

	for _, r := range results {
		key := candidateIdentity(r.University)
		existing, seen := best[key]
		if !seen {
			best[key] = r
			order = append(order, key)
			continue
		}
		if existing.Degraded && !r.Degraded {
			best[key] = r
		}
	}

	tiers := &model.RecommendationTiers{
		Dream:  []model.ClassificationResult{},
		Target: []model.ClassificationResult{},
		Safe:   []model.ClassificationResult{},
	}
	for _, key := range order {
		r := best[key]
		switch r.Category {
		case model.CategoryDream:
			tiers.Dream = append(tiers.Dream, r)
		case model.CategoryTarget:
			tiers.Target = append(tiers.Target, r)
		case model.CategorySafe:
			tiers.Safe = append(tiers.Safe, r)
		}
	}

	sortTier(tiers.Dream)
	sortTier(tiers.Target)
	sortTier(tiers.Safe)
	return tiers
}

var chanceRank = map[string]int{
	model.LevelHigh:   3,
	model.LevelMedium: 2,
	model.LevelLow:    1,
}

func sortTier(tier []model.ClassificationResult) {
	sort.SliceStable(tier, func(i, j int) bool {
		ri, rj := chanceRank[tier[i].AcceptanceChance], chanceRank[tier[j].AcceptanceChance]
		if ri != rj {
			return ri > rj
		}
		return strings.ToLower(tier[i].University.Name) < strings.ToLower(tier[j].University.Name)
	})
}
