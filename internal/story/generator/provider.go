package generator

import "context"

// SchemaField is a required string property of a structured text response.
type SchemaField struct {
	Name        string
	Description string
}

// Schema declares the object shape the provider must emit. Every field is a
// required string.
type Schema struct {
	Fields []SchemaField
}

func (s Schema) Names() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}

type TextRequest struct {
	Prompt string
	Schema Schema
}

// TextResponse holds the raw structured payload, still to be parsed.
type TextResponse struct {
	Raw string
}

type ImageRequest struct {
	Prompt      string
	Count       int
	MIMEType    string // e.g. image/jpeg
	AspectRatio string // e.g. 16:9
}

type Image struct {
	Data     []byte
	MIMEType string
}

type ImageResponse struct {
	Images []Image
}

// TextGenerator produces structured text from a prompt.
type TextGenerator interface {
	GenerateText(ctx context.Context, req TextRequest) (*TextResponse, error)
}

// ImageGenerator produces images from a prompt.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, req ImageRequest) (*ImageResponse, error)
}

// Provider is a generative-content backend offering both calls.
type Provider interface {
	TextGenerator
	ImageGenerator
	Name() string
}
