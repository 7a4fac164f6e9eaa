package generator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"storyteller/internal/domain/story"
)

const (
	imageMIMEType    = "image/jpeg"
	imageAspectRatio = "16:9"
)

// StorySchema is the structure the text call must return.
var StorySchema = Schema{
	Fields: []SchemaField{
		{Name: "title", Description: "The title of the story."},
		{Name: "story", Description: "The full text of the story."},
		{Name: "moral", Description: "A short moral or lesson from the story."},
	},
}

// Generator turns a prompt and a category into an illustrated story. It keeps
// no state between calls.
type Generator struct {
	text  TextGenerator
	image ImageGenerator
	name  string
}

// New builds a Generator over a single provider.
func New(p Provider) *Generator {
	return &Generator{text: p, image: p, name: p.Name()}
}

// NewWithPorts builds a Generator from separate text and image backends.
func NewWithPorts(text TextGenerator, image ImageGenerator) *Generator {
	return &Generator{text: text, image: image, name: "custom"}
}

// Generate issues the text and image calls concurrently and joins them.
// Either both succeed and a complete Result is returned, or a
// *GenerationError is.
func (g *Generator) Generate(ctx context.Context, req story.Request) (*story.Result, error) {
	if err := req.Validate(); err != nil {
		return nil, fail(ErrInvalidRequest, err)
	}

	log := logrus.WithFields(logrus.Fields{
		"request_id": uuid.NewString(),
		"category":   req.Category,
		"provider":   g.name,
	})
	start := time.Now()

	textReq := TextRequest{Prompt: storyPrompt(req), Schema: StorySchema}
	imageReq := ImageRequest{
		Prompt:      imagePrompt(req),
		Count:       1,
		MIMEType:    imageMIMEType,
		AspectRatio: imageAspectRatio,
	}

	var (
		textResp  *TextResponse
		imageResp *ImageResponse
	)

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		resp, err := g.text.GenerateText(egCtx, textReq)
		if err != nil {
			return fmt.Errorf("text generation: %w", err)
		}
		textResp = resp
		return nil
	})
	eg.Go(func() error {
		resp, err := g.image.GenerateImage(egCtx, imageReq)
		if err != nil {
			return fmt.Errorf("image generation: %w", err)
		}
		imageResp = resp
		return nil
	})

	if err := eg.Wait(); err != nil {
		log.WithError(err).Error("Story generation failed")
		return nil, fail(ErrProvider, err)
	}

	result, err := assemble(textResp, imageResp, imageReq.MIMEType)
	if err != nil {
		log.WithError(err).Error("Story response rejected")
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"title":   result.Title,
		"elapsed": time.Since(start).Round(time.Millisecond).String(),
	}).Info("Story generated")

	return result, nil
}

func assemble(text *TextResponse, images *ImageResponse, fallbackMIME string) (*story.Result, error) {
	if text == nil {
		return nil, fail(ErrMalformedResponse, fmt.Errorf("%w: empty text response", ErrMalformedResponse))
	}
	fields, err := parseStory(text.Raw)
	if err != nil {
		return nil, fail(ErrMalformedResponse, err)
	}

	if images == nil || len(images.Images) == 0 || len(images.Images[0].Data) == 0 {
		return nil, fail(ErrEmptyImage, ErrEmptyImage)
	}
	first := images.Images[0]
	mime := first.MIMEType
	if mime == "" {
		mime = fallbackMIME
	}

	return &story.Result{
		Title:    fields["title"],
		Text:     fields["story"],
		Moral:    fields["moral"],
		ImageURL: story.DataURI(mime, first.Data),
	}, nil
}

// parseStory decodes the structured payload and checks every schema field is
// a non-blank string.
func parseStory(raw string) (map[string]string, error) {
	var payload map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	fields := make(map[string]string, len(StorySchema.Fields))
	for _, name := range StorySchema.Names() {
		v, ok := payload[name]
		if !ok || v == nil {
			return nil, fmt.Errorf("%w: missing field %q", ErrMalformedResponse, name)
		}
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("%w: field %q is not a string", ErrMalformedResponse, name)
		}
		if strings.TrimSpace(s) == "" {
			return nil, fmt.Errorf("%w: field %q is empty", ErrMalformedResponse, name)
		}
		fields[name] = s
	}
	return fields, nil
}

func storyPrompt(req story.Request) string {
	return fmt.Sprintf(`You are a masterful cultural storyteller. Generate a story in the category of '%s'. The user wants a story about: '%s'.
Your response must be a JSON object containing a title, the story itself, and a moral for the story.
Keep the story well-structured, culturally respectful, and captivating.`, req.Category, req.Prompt)
}

func imagePrompt(req story.Request) string {
	return fmt.Sprintf(`Create a vibrant and evocative image representing a scene from a '%s' story. The scene should depict: '%s'. The style should be artistic and fitting for a cultural tale.`, req.Category, req.Prompt)
}
