package bootstrap

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	"github.com/wolfman30/salesforce-ai-backend/cmd/mainconfig"
	appconfig "github.com/wolfman30/salesforce-ai-backend/internal/config"
	"github.com/wolfman30/salesforce-ai-backend/internal/llm"
	"github.com/wolfman30/salesforce-ai-backend/pkg/logging"
)

// BuildLLMClient returns the generation and embedding client for LLM_PROVIDER.
func BuildLLMClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (llm.Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}

	switch cfg.LLMProvider {
	case appconfig.ProviderGemini:
		client, err := llm.NewGeminiClient(ctx, llm.GeminiConfig{
			APIKey:          cfg.GeminiAPIKey,
			Model:           cfg.GeminiModel,
			EmbeddingModel:  cfg.GeminiEmbeddingModel,
			SafetyThreshold: cfg.GeminiSafetyThreshold,
		})
		if err != nil {
			return nil, err
		}
		logger.Info("llm provider ready", "provider", cfg.LLMProvider, "model", cfg.GeminiModel, "embedding_model", cfg.GeminiEmbeddingModel)
		return client, nil
	case appconfig.ProviderBedrock:
		awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: load aws config: %w", err)
		}
		client := llm.NewBedrockClient(bedrockruntime.NewFromConfig(awsCfg), llm.BedrockConfig{
			ModelID:          cfg.BedrockModelID,
			EmbeddingModelID: cfg.BedrockEmbeddingModelID,
			Dimensions:       cfg.EmbeddingDimension,
		})
		logger.Info("llm provider ready", "provider", cfg.LLMProvider, "model", cfg.BedrockModelID, "embedding_model", cfg.BedrockEmbeddingModelID)
		return client, nil
	default:
		return nil, fmt.Errorf("bootstrap: unsupported llm provider %q", cfg.LLMProvider)
	}
}
