// Package gemini adapts Google's generative AI API (Gemini for text, Imagen
// for images) to the generator ports.
package gemini

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"

	"storyteller/internal/story/generator"
)

type Config struct {
	APIKey     string
	BaseURL    string
	TextModel  string
	ImageModel string
}

// Provider talks to the Gemini API through a single client.
type Provider struct {
	client     *genai.Client
	textModel  string
	imageModel string
}

// New creates the client. The API key is required.
func New(ctx context.Context, cfg Config) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini: api key is required")
	}
	if cfg.TextModel == "" {
		cfg.TextModel = "gemini-2.5-flash"
	}
	if cfg.ImageModel == "" {
		cfg.ImageModel = "imagen-4.0-generate-001"
	}

	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &Provider{
		client:     client,
		textModel:  cfg.TextModel,
		imageModel: cfg.ImageModel,
	}, nil
}

func (p *Provider) Name() string { return "gemini" }

// GenerateText asks for JSON constrained by the request schema.
func (p *Provider) GenerateText(ctx context.Context, req generator.TextRequest) (*generator.TextResponse, error) {
	resp, err := p.client.Models.GenerateContent(ctx, p.textModel, genai.Text(req.Prompt), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   responseSchema(req.Schema),
	})
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, errors.New("genai: empty generate response")
	}
	return &generator.TextResponse{Raw: resp.Text()}, nil
}

func (p *Provider) GenerateImage(ctx context.Context, req generator.ImageRequest) (*generator.ImageResponse, error) {
	resp, err := p.client.Models.GenerateImages(ctx, p.imageModel, req.Prompt, &genai.GenerateImagesConfig{
		NumberOfImages: int32(req.Count),
		OutputMIMEType: req.MIMEType,
		AspectRatio:    req.AspectRatio,
	})
	if err != nil {
		return nil, err
	}

	out := &generator.ImageResponse{}
	if resp == nil {
		return out, nil
	}
	for _, gen := range resp.GeneratedImages {
		if gen == nil || gen.Image == nil {
			continue
		}
		mime := gen.Image.MIMEType
		if mime == "" {
			mime = req.MIMEType
		}
		out.Images = append(out.Images, generator.Image{Data: gen.Image.ImageBytes, MIMEType: mime})
	}
	return out, nil
}

func responseSchema(s generator.Schema) *genai.Schema {
	props := make(map[string]*genai.Schema, len(s.Fields))
	for _, f := range s.Fields {
		props[f.Name] = &genai.Schema{Type: genai.TypeString, Description: f.Description}
	}
	return &genai.Schema{
		Type:             genai.TypeObject,
		Properties:       props,
		Required:         s.Names(),
		PropertyOrdering: s.Names(),
	}
}
