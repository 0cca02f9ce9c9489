package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/BubbaTeePi/brushy-creek-voice/internal/domain"
)

// MockLLM is a deterministic stand-in for local development and tests.
type MockLLM struct{}

func NewMockLLM() *MockLLM {
	return &MockLLM{}
}

func (m *MockLLM) GenerateReply(_ context.Context, utterance string, _ domain.ConversationContext) (string, error) {
	return fmt.Sprintf("You asked about %q. I can help with water, billing, or facilities. Anything else?", utterance), nil
}

// ClassifyIntent applies a few keyword rules so local flows exercise the
// policy paths without a model.
func (m *MockLLM) ClassifyIntent(_ context.Context, utterance string) (domain.Intent, error) {
	lower := strings.ToLower(utterance)
	switch {
	case strings.Contains(lower, "leak"), strings.Contains(lower, "emergency"), strings.Contains(lower, "no water"):
		return domain.IntentEmergency, nil
	case strings.Contains(lower, "bill"), strings.Contains(lower, "rate"), strings.Contains(lower, "payment"):
		return domain.IntentBilling, nil
	case strings.Contains(lower, "pool"), strings.Contains(lower, "park"), strings.Contains(lower, "community center"):
		return domain.IntentFacilities, nil
	case strings.Contains(lower, "event"), strings.Contains(lower, "register"):
		return domain.IntentEvents, nil
	case strings.Contains(lower, "complain"), strings.Contains(lower, "unacceptable"):
		return domain.IntentComplaint, nil
	default:
		return domain.IntentGeneral, nil
	}
}

func (m *MockLLM) Summarize(_ context.Context, transcript string) (string, error) {
	lines := strings.Count(transcript, "\n") + 1
	return fmt.Sprintf("Caller spoke with the assistant over %d exchanges about district services.", lines), nil
}
