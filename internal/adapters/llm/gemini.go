package llm

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/BubbaTeePi/brushy-creek-voice/internal/domain"
)

// GeminiClient implements domain.LLMClient on Vertex AI (Gemini).
type GeminiClient struct {
	client    *genai.Client
	modelName string
	persona   Persona
}

// NewGeminiClient creates the client. Model calls inherit whatever deadline
// the caller's context carries; the turn processor owns the hard timeout.
func NewGeminiClient(ctx context.Context, projectID, location, modelName string, persona Persona) (*GeminiClient, error) {
	if projectID == "" || location == "" {
		return nil, fmt.Errorf("projectID and location are required for the Gemini client")
	}
	if modelName == "" {
		modelName = "gemini-2.5-flash-lite"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Project:  projectID,
		Location: location,
		Backend:  genai.BackendVertexAI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating Vertex AI client: %w", err)
	}

	return &GeminiClient{
		client:    client,
		modelName: modelName,
		persona:   persona,
	}, nil
}

// promptContents maps the windowed history onto model contents and appends
// the current utterance. The window may already end with the caller turn
// being answered; that turn is skipped so the utterance appears once.
func promptContents(utterance string, history []domain.Turn) []*genai.Content {
	if n := len(history); n > 0 && history[n-1].Role == domain.RoleCaller && history[n-1].Content == utterance {
		history = history[:n-1]
	}

	var contents []*genai.Content
	for _, t := range history {
		var role genai.Role = genai.RoleUser
		if t.Role == domain.RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(t.Content, role))
	}
	return append(contents, genai.NewContentFromText(utterance, genai.RoleUser))
}

// GenerateReply implements domain.LLMClient. The history in convCtx is
// already windowed by the caller.
func (g *GeminiClient) GenerateReply(ctx context.Context, utterance string, convCtx domain.ConversationContext) (string, error) {
	system := BuildSystemPrompt(g.persona, convCtx.DomainContext)
	contents := promptContents(utterance, convCtx.History)

	// Short, consistent answers: a phone reply never needs many tokens.
	temp := float32(0.3)
	maxTokens := int32(75)

	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
		Temperature:       &temp,
		MaxOutputTokens:   maxTokens,
	}

	res, err := g.client.Models.GenerateContent(ctx, g.modelName, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("gemini generate content: %w", err)
	}

	text := strings.TrimSpace(res.Text())
	if text == "" {
		return "", fmt.Errorf("gemini returned empty text")
	}
	return text, nil
}

// ClassifyIntent implements domain.LLMClient.
func (g *GeminiClient) ClassifyIntent(ctx context.Context, utterance string) (domain.Intent, error) {
	temp := float32(0.1)
	maxTokens := int32(10)

	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(classifierInstruction, genai.RoleUser),
		Temperature:       &temp,
		MaxOutputTokens:   maxTokens,
	}

	contents := []*genai.Content{genai.NewContentFromText(utterance, genai.RoleUser)}
	res, err := g.client.Models.GenerateContent(ctx, g.modelName, contents, cfg)
	if err != nil {
		return domain.IntentGeneral, fmt.Errorf("gemini classify intent: %w", err)
	}

	label := strings.ToLower(strings.TrimSpace(res.Text()))
	return domain.ParseIntent(label), nil
}

// Summarize implements domain.LLMClient.
func (g *GeminiClient) Summarize(ctx context.Context, transcript string) (string, error) {
	temp := float32(0.3)
	maxTokens := int32(120)

	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(summaryInstruction, genai.RoleUser),
		Temperature:       &temp,
		MaxOutputTokens:   maxTokens,
	}

	contents := []*genai.Content{genai.NewContentFromText("Conversation:\n"+transcript, genai.RoleUser)}
	res, err := g.client.Models.GenerateContent(ctx, g.modelName, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("gemini summarize: %w", err)
	}

	text := strings.TrimSpace(res.Text())
	if text == "" {
		return "", fmt.Errorf("gemini returned empty summary")
	}
	return text, nil
}
