package provider

import (
	"context"
	"fmt"

	"storyteller/internal/config"
	"storyteller/internal/story/generator"
	"storyteller/internal/story/provider/gemini"
	"storyteller/internal/story/provider/openai"
)

// New constructs the generation backend selected in cfg.
func New(ctx context.Context, cfg *config.Config) (generator.Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.Provider {
	case config.ProviderGemini:
		return gemini.New(ctx, gemini.Config{
			APIKey:     cfg.Gemini.APIKey,
			BaseURL:    cfg.Gemini.BaseURL,
			TextModel:  cfg.Gemini.TextModel,
			ImageModel: cfg.Gemini.ImageModel,
		})
	case config.ProviderOpenAI:
		return openai.New(openai.Config{
			APIKey:     cfg.OpenAI.APIKey,
			BaseURL:    cfg.OpenAI.BaseURL,
			TextModel:  cfg.OpenAI.TextModel,
			ImageModel: cfg.OpenAI.ImageModel,
		})
	}
	return nil, fmt.Errorf("unsupported provider %q", cfg.Provider)
}
