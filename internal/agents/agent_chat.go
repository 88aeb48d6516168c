package agents

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/deepseek"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"

	"github.com/dyike/SectorsGo/config"
	"github.com/dyike/SectorsGo/consts"
)

// NewChatModel builds the tool-calling chat model for the configured provider.
// Groq and Ollama are reached through their OpenAI-compatible endpoints.
func NewChatModel(ctx context.Context, cfg *config.Config) (model.ToolCallingChatModel, error) {
	switch cfg.LLMProvider {
	case consts.ProviderGroq, consts.ProviderOllama, consts.ProviderOpenAI:
		return newOpenAICompatibleModel(ctx, cfg)
	case consts.ProviderDeepSeek:
		if cfg.LLMAPIKey() == "" {
			return nil, fmt.Errorf("no API key configured for LLM provider %q", cfg.LLMProvider)
		}
		chatModel, err := deepseek.NewChatModel(ctx, deepSeekConfig(cfg))
		if err != nil {
			return nil, fmt.Errorf("failed to create DeepSeek model: %w", err)
		}
		return chatModel, nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider %q", cfg.LLMProvider)
	}
}

func deepSeekConfig(cfg *config.Config) *deepseek.ChatModelConfig {
	return &deepseek.ChatModelConfig{
		APIKey:      cfg.LLMAPIKey(),
		BaseURL:     cfg.LLMBaseURL,
		Model:       cfg.Model(),
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
	}
}

func newOpenAICompatibleModel(ctx context.Context, cfg *config.Config) (model.ToolCallingChatModel, error) {
	if cfg.LLMAPIKey() == "" {
		return nil, fmt.Errorf("no API key configured for LLM provider %q", cfg.LLMProvider)
	}

	temperature := cfg.Temperature
	modelCfg := &openai.ChatModelConfig{
		BaseURL:     cfg.ModelBaseURL(),
		APIKey:      cfg.LLMAPIKey(),
		Model:       cfg.Model(),
		Temperature: &temperature,
	}
	if cfg.MaxTokens > 0 {
		maxTokens := cfg.MaxTokens
		modelCfg.MaxTokens = &maxTokens
	}

	chatModel, err := openai.NewChatModel(ctx, modelCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s model: %w", cfg.LLMProvider, err)
	}
	return chatModel, nil
}
