package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const (
	defaultGeminiModel          = "gemini-2.5-flash"
	defaultGeminiEmbeddingModel = "models/text-embedding-004"
)

// GeminiConfig configures the Gemini client.
type GeminiConfig struct {
	APIKey         string
	Model          string
	EmbeddingModel string
	// SafetyThreshold applies one block threshold to every harm category.
	// Empty keeps the API defaults.
	SafetyThreshold string
}

// GeminiClient implements Client using Google's Gemini API.
type GeminiClient struct {
	client         *genai.Client
	modelID        string
	embeddingModel string
	safety         []*genai.SafetySetting
}

// NewGeminiClient creates a new Gemini client.
func NewGeminiClient(ctx context.Context, cfg GeminiConfig) (*GeminiClient, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("llm: gemini api key is required")
	}
	if strings.TrimSpace(cfg.Model) == "" {
		cfg.Model = defaultGeminiModel
	}
	if strings.TrimSpace(cfg.EmbeddingModel) == "" {
		cfg.EmbeddingModel = defaultGeminiEmbeddingModel
	}
	safety, err := SafetySettings(cfg.SafetyThreshold)
	if err != nil {
		return nil, err
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("llm: failed to create gemini client: %w", err)
	}

	return &GeminiClient{
		client:         client,
		modelID:        cfg.Model,
		embeddingModel: cfg.EmbeddingModel,
		safety:         safety,
	}, nil
}

// Complete sends a single prompt to Gemini and returns the generated text.
func (c *GeminiClient) Complete(ctx context.Context, req Request) (Response, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return Response{}, ErrEmptyPrompt
	}
	model := c.client.GenerativeModel(c.modelID)

	if req.Temperature >= 0 {
		model.SetTemperature(req.Temperature)
	}
	if req.TopP > 0 {
		model.SetTopP(req.TopP)
	}
	if req.MaxTokens > 0 {
		model.SetMaxOutputTokens(req.MaxTokens)
	}
	if len(c.safety) > 0 {
		model.SafetySettings = c.safety
	}
	if len(req.System) > 0 {
		systemText := strings.Join(req.System, "\n\n")
		if strings.TrimSpace(systemText) != "" {
			model.SystemInstruction = genai.NewUserContent(genai.Text(systemText))
		}
	}

	resp, err := model.GenerateContent(ctx, genai.Text(req.Prompt))
	if err != nil {
		return Response{}, fmt.Errorf("llm: gemini completion failed: %w", err)
	}
	if len(resp.Candidates) == 0 {
		return Response{}, errors.New("llm: gemini returned no candidates")
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return Response{}, ErrEmptyCompletion
	}

	var text strings.Builder
	for _, part := range candidate.Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text.WriteString(string(t))
		}
	}

	result := Response{
		Text:       text.String(),
		StopReason: candidate.FinishReason.String(),
	}
	if resp.UsageMetadata != nil {
		result.Usage = TokenUsage{
			InputTokens:  resp.UsageMetadata.PromptTokenCount,
			OutputTokens: resp.UsageMetadata.CandidatesTokenCount,
			TotalTokens:  resp.UsageMetadata.TotalTokenCount,
		}
	}
	return result, nil
}

// Embed vectorizes texts with the configured embedding model.
func (c *GeminiClient) Embed(ctx context.Context, texts []string, task TaskType) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	em := c.client.EmbeddingModel(c.embeddingModel)
	em.TaskType = geminiTaskType(task)

	if len(texts) == 1 {
		res, err := em.EmbedContent(ctx, genai.Text(texts[0]))
		if err != nil {
			return nil, fmt.Errorf("llm: gemini embedding failed: %w", err)
		}
		if res == nil || res.Embedding == nil || len(res.Embedding.Values) == 0 {
			return nil, ErrEmptyEmbedding
		}
		return [][]float32{res.Embedding.Values}, nil
	}

	batch := em.NewBatch()
	for _, text := range texts {
		batch.AddContent(genai.Text(text))
	}
	res, err := em.BatchEmbedContents(ctx, batch)
	if err != nil {
		return nil, fmt.Errorf("llm: gemini batch embedding failed: %w", err)
	}
	if len(res.Embeddings) != len(texts) {
		return nil, errors.New("llm: embedding response size mismatch")
	}
	out := make([][]float32, len(res.Embeddings))
	for i, e := range res.Embeddings {
		if e == nil || len(e.Values) == 0 {
			return nil, ErrEmptyEmbedding
		}
		out[i] = e.Values
	}
	return out, nil
}

// Close releases resources held by the Gemini client.
func (c *GeminiClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

func geminiTaskType(task TaskType) genai.TaskType {
	switch task {
	case TaskRetrievalQuery:
		return genai.TaskTypeRetrievalQuery
	case TaskRetrievalDocument:
		return genai.TaskTypeRetrievalDocument
	default:
		return genai.TaskTypeUnspecified
	}
}

// SafetySettings builds the content filter for a named threshold
// ("none", "only_high", "medium_and_above", "low_and_above").
func SafetySettings(threshold string) ([]*genai.SafetySetting, error) {
	var block genai.HarmBlockThreshold
	switch strings.ToLower(strings.TrimSpace(threshold)) {
	case "":
		return nil, nil
	case "none", "block_none":
		block = genai.HarmBlockNone
	case "only_high", "block_only_high":
		block = genai.HarmBlockOnlyHigh
	case "medium_and_above", "block_medium_and_above":
		block = genai.HarmBlockMediumAndAbove
	case "low_and_above", "block_low_and_above":
		block = genai.HarmBlockLowAndAbove
	default:
		return nil, fmt.Errorf("llm: unknown safety threshold %q", threshold)
	}

	categories := []genai.HarmCategory{
		genai.HarmCategoryHarassment,
		genai.HarmCategoryHateSpeech,
		genai.HarmCategorySexuallyExplicit,
		genai.HarmCategoryDangerousContent,
	}
	settings := make([]*genai.SafetySetting, 0, len(categories))
	for _, category := range categories {
		settings = append(settings, &genai.SafetySetting{Category: category, Threshold: block})
	}
	return settings, nil
}
