package generator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storyteller/internal/domain/story"
)

// fakeText and fakeImage let each test script the provider's behaviour.
type fakeText struct {
	fn func(ctx context.Context, req TextRequest) (*TextResponse, error)
}

func (f fakeText) GenerateText(ctx context.Context, req TextRequest) (*TextResponse, error) {
	return f.fn(ctx, req)
}

type fakeImage struct {
	fn func(ctx context.Context, req ImageRequest) (*ImageResponse, error)
}

func (f fakeImage) GenerateImage(ctx context.Context, req ImageRequest) (*ImageResponse, error) {
	return f.fn(ctx, req)
}

func textReturning(raw string) fakeText {
	return fakeText{fn: func(context.Context, TextRequest) (*TextResponse, error) {
		return &TextResponse{Raw: raw}, nil
	}}
}

func imageReturning(images ...Image) fakeImage {
	return fakeImage{fn: func(context.Context, ImageRequest) (*ImageResponse, error) {
		return &ImageResponse{Images: images}, nil
	}}
}

var jpegBytes = []byte{0xff, 0xd8, 0xff, 0xe0}

const foxJSON = `{"title":"The Clever Fox","story":"Once upon a time a fox outwitted a lion.","moral":"Wit is stronger than might."}`

func foxRequest() story.Request {
	return story.Request{Prompt: "a clever fox", Category: "Folk Tales"}
}

func TestGenerateEndToEnd(t *testing.T) {
	var gotText TextRequest
	var gotImage ImageRequest

	g := NewWithPorts(
		fakeText{fn: func(_ context.Context, req TextRequest) (*TextResponse, error) {
			gotText = req
			return &TextResponse{Raw: foxJSON}, nil
		}},
		fakeImage{fn: func(_ context.Context, req ImageRequest) (*ImageResponse, error) {
			gotImage = req
			return &ImageResponse{Images: []Image{{Data: jpegBytes, MIMEType: "image/jpeg"}}}, nil
		}},
	)

	res, err := g.Generate(context.Background(), foxRequest())
	require.NoError(t, err)

	assert.Equal(t, "The Clever Fox", res.Title)
	assert.Equal(t, "Once upon a time a fox outwitted a lion.", res.Text)
	assert.Equal(t, "Wit is stronger than might.", res.Moral)
	assert.Equal(t, story.DataURI("image/jpeg", jpegBytes), res.ImageURL)

	assert.Contains(t, gotText.Prompt, "'Folk Tales'")
	assert.Contains(t, gotText.Prompt, "'a clever fox'")
	assert.Equal(t, []string{"title", "story", "moral"}, gotText.Schema.Names())

	assert.Contains(t, gotImage.Prompt, "'Folk Tales'")
	assert.Contains(t, gotImage.Prompt, "'a clever fox'")
	assert.Equal(t, 1, gotImage.Count)
	assert.Equal(t, "image/jpeg", gotImage.MIMEType)
	assert.Equal(t, "16:9", gotImage.AspectRatio)
}

func TestGenerateTextFailure(t *testing.T) {
	netErr := errors.New("dial tcp: connection refused")
	g := NewWithPorts(
		fakeText{fn: func(context.Context, TextRequest) (*TextResponse, error) { return nil, netErr }},
		imageReturning(Image{Data: jpegBytes, MIMEType: "image/jpeg"}),
	)

	res, err := g.Generate(context.Background(), foxRequest())
	require.Error(t, err)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrProvider)
	assert.ErrorIs(t, err, netErr)
	assert.NotErrorIs(t, err, ErrMalformedResponse)

	var genErr *GenerationError
	require.ErrorAs(t, err, &genErr)
	assert.True(t, strings.HasPrefix(err.Error(), "failed to generate story: "))
	assert.Contains(t, err.Error(), "connection refused")
}

func TestGenerateImageFailure(t *testing.T) {
	g := NewWithPorts(
		textReturning(foxJSON),
		fakeImage{fn: func(context.Context, ImageRequest) (*ImageResponse, error) {
			return nil, errors.New("quota exceeded")
		}},
	)

	res, err := g.Generate(context.Background(), foxRequest())
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrProvider)
}

func TestGenerateFailureCancelsSibling(t *testing.T) {
	cancelled := make(chan struct{})
	g := NewWithPorts(
		fakeText{fn: func(context.Context, TextRequest) (*TextResponse, error) {
			return nil, errors.New("rejected")
		}},
		fakeImage{fn: func(ctx context.Context, _ ImageRequest) (*ImageResponse, error) {
			<-ctx.Done()
			close(cancelled)
			return nil, ctx.Err()
		}},
	)

	_, err := g.Generate(context.Background(), foxRequest())
	assert.ErrorIs(t, err, ErrProvider)

	select {
	case <-cancelled:
	case <-time.After(time.Second):
		t.Fatal("image call was not cancelled")
	}
}

func TestGenerateMalformedResponse(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "not json", raw: "Once upon a time..."},
		{name: "json array", raw: `["The Clever Fox"]`},
		{name: "missing title", raw: `{"story":"s","moral":"m"}`},
		{name: "missing story", raw: `{"title":"t","moral":"m"}`},
		{name: "missing moral", raw: `{"title":"t","story":"s"}`},
		{name: "null moral", raw: `{"title":"t","story":"s","moral":null}`},
		{name: "blank title", raw: `{"title":"  ","story":"s","moral":"m"}`},
		{name: "numeric story", raw: `{"title":"t","story":42,"moral":"m"}`},
		{name: "empty payload", raw: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewWithPorts(textReturning(tt.raw), imageReturning(Image{Data: jpegBytes}))

			res, err := g.Generate(context.Background(), foxRequest())
			assert.Nil(t, res)
			assert.ErrorIs(t, err, ErrMalformedResponse)
			assert.NotErrorIs(t, err, ErrProvider)
		})
	}
}

func TestGenerateEmptyImageResult(t *testing.T) {
	tests := []struct {
		name   string
		images []Image
	}{
		{name: "no images"},
		{name: "image without bytes", images: []Image{{MIMEType: "image/jpeg"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewWithPorts(textReturning(foxJSON), imageReturning(tt.images...))

			res, err := g.Generate(context.Background(), foxRequest())
			assert.Nil(t, res)
			assert.ErrorIs(t, err, ErrEmptyImage)
			assert.Contains(t, err.Error(), "image generation failed to produce an image")
		})
	}
}

func TestGenerateImageMIMEFallback(t *testing.T) {
	g := NewWithPorts(textReturning(foxJSON), imageReturning(Image{Data: jpegBytes}))

	res, err := g.Generate(context.Background(), foxRequest())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(res.ImageURL, "data:image/jpeg;base64,"))
}

func TestGenerateInvalidRequest(t *testing.T) {
	called := false
	g := NewWithPorts(
		fakeText{fn: func(context.Context, TextRequest) (*TextResponse, error) {
			called = true
			return &TextResponse{Raw: foxJSON}, nil
		}},
		imageReturning(Image{Data: jpegBytes}),
	)

	_, err := g.Generate(context.Background(), story.Request{Prompt: " ", Category: "History"})
	assert.ErrorIs(t, err, ErrInvalidRequest)
	assert.ErrorIs(t, err, story.ErrEmptyPrompt)
	assert.False(t, called)
}

func TestGenerateUnknownCategoryStillGenerates(t *testing.T) {
	g := NewWithPorts(textReturning(foxJSON), imageReturning(Image{Data: jpegBytes}))

	res, err := g.Generate(context.Background(), story.Request{Prompt: "a clever fox", Category: "Space Opera"})
	require.NoError(t, err)
	assert.Equal(t, "The Clever Fox", res.Title)
}

func TestGenerateDispatchesConcurrently(t *testing.T) {
	// Each call waits until the other has started; a sequential
	// implementation would time out here.
	textStarted := make(chan struct{})
	imageStarted := make(chan struct{})

	waitFor := func(ctx context.Context, ch <-chan struct{}) error {
		select {
		case <-ch:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(2 * time.Second):
			return errors.New("sibling call never started")
		}
	}

	g := NewWithPorts(
		fakeText{fn: func(ctx context.Context, _ TextRequest) (*TextResponse, error) {
			close(textStarted)
			if err := waitFor(ctx, imageStarted); err != nil {
				return nil, err
			}
			return &TextResponse{Raw: foxJSON}, nil
		}},
		fakeImage{fn: func(ctx context.Context, _ ImageRequest) (*ImageResponse, error) {
			close(imageStarted)
			if err := waitFor(ctx, textStarted); err != nil {
				return nil, err
			}
			return &ImageResponse{Images: []Image{{Data: jpegBytes}}}, nil
		}},
	)

	_, err := g.Generate(context.Background(), foxRequest())
	require.NoError(t, err)
}

func TestGenerateConcurrentCallsAreIndependent(t *testing.T) {
	// The fakes echo the prompt back so every result can be traced to its input.
	g := NewWithPorts(
		fakeText{fn: func(_ context.Context, req TextRequest) (*TextResponse, error) {
			start := strings.Index(req.Prompt, "story about: '") + len("story about: '")
			subject := req.Prompt[start : start+strings.Index(req.Prompt[start:], "'")]
			raw, err := json.Marshal(map[string]string{"title": subject, "story": "s " + subject, "moral": "m " + subject})
			if err != nil {
				return nil, err
			}
			time.Sleep(time.Millisecond)
			return &TextResponse{Raw: string(raw)}, nil
		}},
		fakeImage{fn: func(_ context.Context, req ImageRequest) (*ImageResponse, error) {
			return &ImageResponse{Images: []Image{{Data: []byte(req.Prompt), MIMEType: "image/png"}}}, nil
		}},
	)

	const n = 16
	var wg sync.WaitGroup
	results := make([]*story.Result, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = g.Generate(context.Background(), story.Request{
				Prompt:   fmt.Sprintf("subject %d", i),
				Category: "Heroes",
			})
		}(i)
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		want := fmt.Sprintf("subject %d", i)
		assert.Equal(t, want, results[i].Title)
		assert.Equal(t, "s "+want, results[i].Text)
		assert.Equal(t, "m "+want, results[i].Moral)

		_, img, err := results[i].Image()
		require.NoError(t, err)
		assert.Contains(t, string(img), "'"+want+"'")
	}
}
