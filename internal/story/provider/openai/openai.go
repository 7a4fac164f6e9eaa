// Package openai adapts the OpenAI chat and image APIs to the generator ports.
package openai

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	goopenai "github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"

	"storyteller/internal/story/generator"
)

type Config struct {
	APIKey     string
	BaseURL    string
	TextModel  string
	ImageModel string
}

type Provider struct {
	client     *goopenai.Client
	textModel  string
	imageModel string
}

func New(cfg Config) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai: api key is required")
	}
	if cfg.TextModel == "" {
		cfg.TextModel = goopenai.GPT4oMini
	}
	if cfg.ImageModel == "" {
		cfg.ImageModel = goopenai.CreateImageModelDallE3
	}

	clientCfg := goopenai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &Provider{
		client:     goopenai.NewClientWithConfig(clientCfg),
		textModel:  cfg.TextModel,
		imageModel: cfg.ImageModel,
	}, nil
}

func (p *Provider) Name() string { return "openai" }

// GenerateText uses a strict JSON schema response format.
func (p *Provider) GenerateText(ctx context.Context, req generator.TextRequest) (*generator.TextResponse, error) {
	resp, err := p.client.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model: p.textModel,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleUser, Content: req.Prompt},
		},
		ResponseFormat: &goopenai.ChatCompletionResponseFormat{
			Type: goopenai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &goopenai.ChatCompletionResponseFormatJSONSchema{
				Name:   "story",
				Schema: responseSchema(req.Schema),
				Strict: true,
			},
		},
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("openai: completion has no choices")
	}
	return &generator.TextResponse{Raw: resp.Choices[0].Message.Content}, nil
}

// GenerateImage requests base64 images. DALL-E only emits PNG, so the
// requested MIME type is not forwarded.
func (p *Provider) GenerateImage(ctx context.Context, req generator.ImageRequest) (*generator.ImageResponse, error) {
	n := req.Count
	if n <= 0 {
		n = 1
	}

	resp, err := p.client.CreateImage(ctx, goopenai.ImageRequest{
		Prompt:         req.Prompt,
		Model:          p.imageModel,
		N:              n,
		Size:           imageSize(req.AspectRatio),
		ResponseFormat: goopenai.CreateImageResponseFormatB64JSON,
	})
	if err != nil {
		return nil, err
	}

	out := &generator.ImageResponse{}
	for i, d := range resp.Data {
		if d.B64JSON == "" {
			continue
		}
		data, err := base64.StdEncoding.DecodeString(d.B64JSON)
		if err != nil {
			return nil, fmt.Errorf("failed to decode image %d: %w", i, err)
		}
		out.Images = append(out.Images, generator.Image{Data: data, MIMEType: "image/png"})
	}
	return out, nil
}

func responseSchema(s generator.Schema) *jsonschema.Definition {
	props := make(map[string]jsonschema.Definition, len(s.Fields))
	for _, f := range s.Fields {
		props[f.Name] = jsonschema.Definition{Type: jsonschema.String, Description: f.Description}
	}
	return &jsonschema.Definition{
		Type:                 jsonschema.Object,
		Properties:           props,
		Required:             s.Names(),
		AdditionalProperties: false,
	}
}

func imageSize(aspect string) string {
	switch aspect {
	case "16:9":
		return goopenai.CreateImageSize1792x1024
	case "9:16":
		return goopenai.CreateImageSize1024x1792
	default:
		return goopenai.CreateImageSize1024x1024
	}
}
