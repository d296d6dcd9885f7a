package services

import (
	"context"

	"github.com/sentinelai/counsel-api/model"
	"github.com/sentinelai/counsel-api/services/llm"
)

// CounsellorClient is the inference surface the counsellor depends on.
type CounsellorClient interface {
	SimpleCompletion(ctx context.Context, systemPrompt, userPrompt string, options ...llm.Option) (string, error)
	StreamChatCompletion(ctx context.Context, messages []llm.Message, callback func(llm.StreamChunk) error, options ...llm.Option) error
}

var _ CounsellorClient = (*llm.Client)(nil)

// CounsellorService answers study-abroad questions with the user's profile
// and stage injected as context. Access is gated on onboarding completion.
type CounsellorService struct {
	client     CounsellorClient
	onboarding *OnboardingService
	stages     *StageService
}

// CounsellorStatus reports whether the user may talk to the counsellor and
// which guidance features are open.
type CounsellorStatus struct {
	Available      bool   `json:"available"`
	GuidanceActive bool   `json:"guidance_active"`
	Stage          int    `json:"stage"`
	StageName      string `json:"stage_name"`
	Reason         string `json:"reason,omitempty"`
}

// NewCounsellorService creates a new counsellor service
func NewCounsellorService(client CounsellorClient, onboarding *OnboardingService, stages *StageService) *CounsellorService {
	return &CounsellorService{
		client:     client,
		onboarding: onboarding,
		stages:     stages,
	}
}

// context loads a fresh profile and stage for each call so the persona
// always reflects the current state, and enforces the onboarding gate.
func (s *CounsellorService) context(ctx context.Context, userID string) (string, error) {
	data, err := s.onboarding.CompleteData(ctx, userID)
	if err != nil {
		if err == ErrNotFound {
			return "", ErrGateOnboarding
		}
		return "", err
	}

	current, err := s.stages.Current(ctx, userID)
	if err != nil {
		return "", err
	}

	return CounsellorSystemPrompt(data, model.Stage(current.Stage)), nil
}

// Chat returns a single complete reply to the user's message.
func (s *CounsellorService) Chat(ctx context.Context, userID, message string) (string, error) {
	systemPrompt, err := s.context(ctx, userID)
	if err != nil {
		return "", err
	}
	return s.client.SimpleCompletion(ctx, systemPrompt, message, llm.WithTemperature(0.7))
}

// StreamChat streams the reply chunk by chunk through onChunk. The gate is
// checked before any chunk is emitted.
func (s *CounsellorService) StreamChat(ctx context.Context, userID, message string, onChunk func(chunk string) error) error {
	systemPrompt, err := s.context(ctx, userID)
	if err != nil {
		return err
	}

	messages := []llm.Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: message},
	}

	return s.client.StreamChatCompletion(ctx, messages, func(chunk llm.StreamChunk) error {
		content := chunk.GetContent()
		if content == "" {
			return nil
		}
		return onChunk(content)
	}, llm.WithTemperature(0.7))
}

// Status reports counsellor availability without calling the model.
func (s *CounsellorService) Status(ctx context.Context, userID string) (*CounsellorStatus, error) {
	current, err := s.stages.Current(ctx, userID)
	if err != nil {
		return nil, err
	}

	status := &CounsellorStatus{
		Available:      current.Stage > int(model.StageBuildingProfile),
		GuidanceActive: current.Stage >= int(model.StagePreparingApplications),
		Stage:          current.Stage,
		StageName:      current.StageName,
	}
	if !status.Available {
		status.Reason = ErrGateOnboarding.Error()
	} else if !status.GuidanceActive {
		status.Reason = ErrGateLock.Error()
	}
	return status, nil
}
