package services

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/sentinelai/counsel-api/model"
	"github.com/sentinelai/counsel-api/services/llm"
	"github.com/sentinelai/counsel-api/utils/cache"
	"golang.org/x/sync/errgroup"
)

const (
	classifyMaxAttempts   = 3
	classifyBackoffBase   = 500 * time.Millisecond
	classifyCacheTTL      = 15 * time.Minute
	classifyTemperature   = 0.2
	defaultClassifyWorker = 4
)

// ChatClient is the slice of the inference client the classifier uses;
// tests substitute a scripted fake.
type ChatClient interface {
	JSONCompletion(ctx context.Context, systemPrompt, userPrompt string, options ...llm.Option) (string, error)
}

var _ ChatClient = (*llm.Client)(nil)

// ClassifierService classifies candidate universities into dream/target/safe
// tiers with a bounded worker pool. Per-candidate failures degrade to a
// deterministic heuristic; they never fail the batch.
type ClassifierService struct {
	client      ChatClient
	cache       *cache.RedisCache
	concurrency int
	backoffBase time.Duration
}

// ClassifierOption configures a ClassifierService.
type ClassifierOption func(*ClassifierService)

// WithConcurrency bounds the number of in-flight classification calls.
func WithConcurrency(n int) ClassifierOption {
	return func(s *ClassifierService) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithCache enables result caching. Pass nil to run without one.
func WithCache(c *cache.RedisCache) ClassifierOption {
	return func(s *ClassifierService) {
		s.cache = c
	}
}

// WithBackoffBase overrides the retry backoff base; tests shrink it.
func WithBackoffBase(d time.Duration) ClassifierOption {
	return func(s *ClassifierService) {
		if d > 0 {
			s.backoffBase = d
		}
	}
}

// NewClassifierService creates a new classifier service
func NewClassifierService(client ChatClient, opts ...ClassifierOption) *ClassifierService {
	s := &ClassifierService{
		client:      client,
		concurrency: defaultClassifyWorker,
		backoffBase: classifyBackoffBase,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Classify returns one result per candidate, in candidate order. Each
// candidate is classified independently; retry exhaustion yields a
// degraded fallback result instead of an error.
func (s *ClassifierService) Classify(ctx context.Context, data *model.ProfileData, candidates []model.University) []model.ClassificationResult {
	if len(candidates) == 0 {
		return []model.ClassificationResult{}
	}

	results := make([]model.ClassificationResult, len(candidates))
	fingerprint := profileFingerprint(data)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i, candidate := range candidates {
		i, candidate := i, candidate
		g.Go(func() error {
			results[i] = s.classifyOne(gctx, data, fingerprint, candidate)
			return nil
		})
	}

	// Workers never return errors; Wait only joins them.
	_ = g.Wait()
	return results
}

func (s *ClassifierService) classifyOne(ctx context.Context, data *model.ProfileData, fingerprint string, candidate model.University) model.ClassificationResult {
	cacheKey := fmt.Sprintf("classify:%s:%s", fingerprint, candidateIdentity(candidate))

	if s.cache != nil {
		var cached model.ClassificationResult
		if err := s.cache.GetJSON(ctx, cacheKey, &cached); err == nil {
			cached.University = candidate
			return cached
		}
	}

	prompt := ClassifierPrompt(data, candidate)

	for attempt := 0; attempt < classifyMaxAttempts; attempt++ {
		if attempt > 0 {
			backoff := s.backoffBase * time.Duration(1<<(attempt-1))
			select {
			case <-ctx.Done():
				return fallbackClassification(candidate, data)
			case <-time.After(backoff):
			}
		}

		raw, err := s.client.JSONCompletion(ctx, "", prompt,
			llm.WithTemperature(classifyTemperature))
		if err != nil {
			log.Printf("classification attempt %d failed for %s: %v", attempt+1, candidate.Name, err)
			continue
		}

		result, err := parseClassification(raw, candidate)
		if err != nil {
			// Schema violations are transient: retry with the same prompt.
			log.Printf("classification attempt %d returned invalid payload for %s: %v", attempt+1, candidate.Name, err)
			continue
		}

		if s.cache != nil {
			if err := s.cache.SetJSON(ctx, cacheKey, result, classifyCacheTTL); err != nil {
				log.Printf("failed to cache classification for %s: %v", candidate.Name, err)
			}
		}
		return result
	}

	return fallbackClassification(candidate, data)
}

// parseClassification validates the model output against the result schema.
// Any violation is reported as an error so the caller retries.
func parseClassification(raw string, candidate model.University) (model.ClassificationResult, error) {
	var payload struct {
		Category         string   `json:"category"`
		FitReasons       []string `json:"fit_reasons"`
		Risks            []string `json:"risks"`
		CostLevel        string   `json:"cost_level"`
		AcceptanceChance string   `json:"acceptance_chance"`
	}

	if err := json.Unmarshal([]byte(extractJSON(raw)), &payload); err != nil {
		return model.ClassificationResult{}, fmt.Errorf("invalid JSON: %w", err)
	}

	payload.Category = strings.ToLower(strings.TrimSpace(payload.Category))
	payload.CostLevel = strings.ToLower(strings.TrimSpace(payload.CostLevel))
	payload.AcceptanceChance = strings.ToLower(strings.TrimSpace(payload.AcceptanceChance))

	if !model.ValidCategory(payload.Category) {
		return model.ClassificationResult{}, fmt.Errorf("invalid category %q", payload.Category)
	}
	if len(payload.FitReasons) == 0 {
		return model.ClassificationResult{}, fmt.Errorf("empty fit_reasons")
	}
	if !model.ValidLevel(payload.CostLevel) {
		return model.ClassificationResult{}, fmt.Errorf("invalid cost_level %q", payload.CostLevel)
	}
	if !model.ValidLevel(payload.AcceptanceChance) {
		return model.ClassificationResult{}, fmt.Errorf("invalid acceptance_chance %q", payload.AcceptanceChance)
	}

	risks := payload.Risks
	if risks == nil {
		risks = []string{}
	}

	return model.ClassificationResult{
		University:       candidate,
		Category:         payload.Category,
		FitReasons:       payload.FitReasons,
		Risks:            risks,
		CostLevel:        payload.CostLevel,
		AcceptanceChance: payload.AcceptanceChance,
	}, nil
}

// extractJSON trims markdown code fences some models wrap around JSON.
func extractJSON(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```json")
		trimmed = strings.TrimPrefix(trimmed, "```")
		trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	}
	return strings.TrimSpace(trimmed)
}

// profileFingerprint hashes the profile so cache keys change when the
// profile does.
func profileFingerprint(data *model.ProfileData) string {
	encoded, _ := json.Marshal(data)
	sum := sha256.Sum256(encoded)
	return fmt.Sprintf("%x", sum[:8])
}

func candidateIdentity(u model.University) string {
	return strings.ToLower(u.Name) + "|" + strings.ToLower(u.Country)
}
