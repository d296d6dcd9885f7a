package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/sentinelai/counsel-api/model"
	"github.com/sentinelai/counsel-api/services/llm"
	"github.com/sentinelai/counsel-api/utils/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeChatClient replays scripted responses, one per call, in order.
// After the script runs out the last response repeats.
type fakeChatClient struct {
	mu        sync.Mutex
	responses []fakeResponse
	calls     int

	inFlight    int32
	maxInFlight int32
}

type fakeResponse struct {
	body string
	err  error
}

func (f *fakeChatClient) JSONCompletion(ctx context.Context, systemPrompt, userPrompt string, options ...llm.Option) (string, error) {
	current := atomic.AddInt32(&f.inFlight, 1)
	defer atomic.AddInt32(&f.inFlight, -1)
	for {
		max := atomic.LoadInt32(&f.maxInFlight)
		if current <= max || atomic.CompareAndSwapInt32(&f.maxInFlight, max, current) {
			break
		}
	}
	time.Sleep(time.Millisecond)

	f.mu.Lock()
	defer f.mu.Unlock()
	idx := f.calls
	if idx >= len(f.responses) {
		idx = len(f.responses) - 1
	}
	f.calls++
	resp := f.responses[idx]
	return resp.body, resp.err
}

func validPayload(category string) string {
	return fmt.Sprintf(`{
		"category": %q,
		"fit_reasons": ["Strong program fit"],
		"risks": [],
		"cost_level": "medium",
		"acceptance_chance": "high"
	}`, category)
}

func testProfileData() *model.ProfileData {
	update := completeUpdate()
	return &model.ProfileData{
		AcademicBackground: *update.AcademicBackground,
		StudyGoal:          *update.StudyGoal,
		Budget:             *update.Budget,
		ExamsReadiness:     *update.ExamsReadiness,
	}
}

func TestClassifySuccess(t *testing.T) {
	client := &fakeChatClient{responses: []fakeResponse{{body: validPayload("target")}}}
	svc := NewClassifierService(client, WithBackoffBase(time.Millisecond))

	results := svc.Classify(context.Background(), testProfileData(), sampleUniversities())
	require.Len(t, results, 3)
	for i, r := range results {
		assert.Equal(t, sampleUniversities()[i].Name, r.University.Name)
		assert.Equal(t, model.CategoryTarget, r.Category)
		assert.False(t, r.Degraded)
		assert.NotEmpty(t, r.FitReasons)
	}
}

func TestClassifyEmptyCandidates(t *testing.T) {
	svc := NewClassifierService(&fakeChatClient{responses: []fakeResponse{{body: validPayload("safe")}}})

	results := svc.Classify(context.Background(), testProfileData(), nil)
	assert.NotNil(t, results)
	assert.Empty(t, results)
}

func TestClassifyAllUpstreamFailuresDegrade(t *testing.T) {
	client := &fakeChatClient{responses: []fakeResponse{{err: errors.New("upstream timeout")}}}
	svc := NewClassifierService(client, WithBackoffBase(time.Millisecond))

	candidates := sampleUniversities()
	results := svc.Classify(context.Background(), testProfileData(), candidates)
	require.Len(t, results, len(candidates))

	for _, r := range results {
		assert.True(t, r.Degraded)
		assert.True(t, model.ValidCategory(r.Category))
		assert.True(t, model.ValidLevel(r.CostLevel))
		assert.True(t, model.ValidLevel(r.AcceptanceChance))
		assert.NotEmpty(t, r.FitReasons)
	}

	// Three attempts per candidate before giving up.
	assert.Equal(t, 3*len(candidates), client.calls)
}

func TestClassifyInvalidPayloadRetried(t *testing.T) {
	client := &fakeChatClient{responses: []fakeResponse{
		{body: `{"category": "maybe"}`},
		{body: "not json at all"},
		{body: validPayload("dream")},
	}}
	svc := NewClassifierService(client,
		WithBackoffBase(time.Millisecond),
		WithConcurrency(1))

	results := svc.Classify(context.Background(), testProfileData(), sampleUniversities()[:1])
	require.Len(t, results, 1)
	assert.Equal(t, model.CategoryDream, results[0].Category)
	assert.False(t, results[0].Degraded)
	assert.Equal(t, 3, client.calls)
}

func TestClassifyFallbackIsDeterministic(t *testing.T) {
	client := &fakeChatClient{responses: []fakeResponse{{err: errors.New("down")}}}
	svc := NewClassifierService(client, WithBackoffBase(time.Millisecond))

	data := testProfileData()
	first := svc.Classify(context.Background(), data, sampleUniversities())
	second := svc.Classify(context.Background(), data, sampleUniversities())
	assert.Equal(t, first, second)
}

func TestClassifyConcurrencyBound(t *testing.T) {
	client := &fakeChatClient{responses: []fakeResponse{{body: validPayload("safe")}}}
	svc := NewClassifierService(client, WithConcurrency(2), WithBackoffBase(time.Millisecond))

	candidates := make([]model.University, 12)
	for i := range candidates {
		candidates[i] = model.University{Name: fmt.Sprintf("University %d", i), Country: "Canada"}
	}

	results := svc.Classify(context.Background(), testProfileData(), candidates)
	require.Len(t, results, 12)
	assert.LessOrEqual(t, client.maxInFlight, int32(2))
}

func TestClassifyDegradedResultMarkdownFences(t *testing.T) {
	payload := "```json\n" + validPayload("safe") + "\n```"
	client := &fakeChatClient{responses: []fakeResponse{{body: payload}}}
	svc := NewClassifierService(client, WithBackoffBase(time.Millisecond))

	results := svc.Classify(context.Background(), testProfileData(), sampleUniversities()[:1])
	require.Len(t, results, 1)
	assert.Equal(t, model.CategorySafe, results[0].Category)
	assert.False(t, results[0].Degraded)
}

func TestClassifyCacheHit(t *testing.T) {
	mr := miniredis.RunT(t)
	redisCache, err := cache.NewRedisCache("redis://" + mr.Addr())
	require.NoError(t, err)
	defer redisCache.Close()

	client := &fakeChatClient{responses: []fakeResponse{{body: validPayload("target")}}}
	svc := NewClassifierService(client,
		WithCache(redisCache),
		WithBackoffBase(time.Millisecond))

	data := testProfileData()
	candidate := sampleUniversities()[:1]

	first := svc.Classify(context.Background(), data, candidate)
	require.Len(t, first, 1)
	assert.Equal(t, 1, client.calls)

	// Identical profile and candidate: served from cache.
	second := svc.Classify(context.Background(), data, candidate)
	require.Len(t, second, 1)
	assert.Equal(t, 1, client.calls)
	assert.Equal(t, first[0].Category, second[0].Category)

	// A different profile misses the cache.
	other := testProfileData()
	other.AcademicBackground.GPA = floatPtr(5.0)
	_ = svc.Classify(context.Background(), other, candidate)
	assert.Equal(t, 2, client.calls)
}

func TestClassifyDegradedResultsNotCached(t *testing.T) {
	mr := miniredis.RunT(t)
	redisCache, err := cache.NewRedisCache("redis://" + mr.Addr())
	require.NoError(t, err)
	defer redisCache.Close()

	client := &fakeChatClient{responses: []fakeResponse{
		{err: errors.New("down")},
		{err: errors.New("down")},
		{err: errors.New("down")},
		{body: validPayload("target")},
	}}
	svc := NewClassifierService(client,
		WithCache(redisCache),
		WithBackoffBase(time.Millisecond),
		WithConcurrency(1))

	data := testProfileData()
	candidate := sampleUniversities()[:1]

	first := svc.Classify(context.Background(), data, candidate)
	require.True(t, first[0].Degraded)

	// The degraded result was not cached, so the next run reaches the
	// upstream again and succeeds.
	second := svc.Classify(context.Background(), data, candidate)
	require.False(t, second[0].Degraded)
	assert.Equal(t, model.CategoryTarget, second[0].Category)
}
