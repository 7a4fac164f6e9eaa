package export

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font"

	"storyteller/internal/domain/story"
)

func pngDataURI(t *testing.T, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{0x40, 0x80, 0xc0, 0xff})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return story.DataURI("image/png", buf.Bytes())
}

func sunsGift(t *testing.T) *story.Result {
	return &story.Result{
		Title:    "The Sun's Gift!",
		Text:     "Long ago the sun gave the village a single seed.\nThe children planted it together.",
		Moral:    "Shared gifts grow.",
		ImageURL: pngDataURI(t, 32, 18),
	}
}

type rendererFunc func(ctx context.Context, res *story.Result) (image.Image, error)

func (f rendererFunc) Render(ctx context.Context, res *story.Result) (image.Image, error) {
	return f(ctx, res)
}

func TestExport_WritesPDF(t *testing.T) {
	dir := t.TempDir()
	e := NewExporter(nil)

	path, err := e.Export(context.Background(), sunsGift(t), dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "the_sun_s_gift_.pdf"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))
	assert.False(t, e.InProgress())
}

func TestExport_PageSizedToCard(t *testing.T) {
	e := NewExporter(rendererFunc(func(ctx context.Context, res *story.Result) (image.Image, error) {
		return image.NewRGBA(image.Rect(0, 0, 100, 50)), nil
	}))

	path, err := e.Export(context.Background(), sunsGift(t), t.TempDir())
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	pdf := string(data)
	assert.Contains(t, pdf, "/MediaBox [0 0 100.00 50.00]")
	assert.Contains(t, pdf, "/Count 1")
}

func TestExport_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "out")
	e := NewExporter(nil)

	path, err := e.Export(context.Background(), sunsGift(t), dir)
	require.NoError(t, err)
	assert.FileExists(t, path)
}

func TestExport_RejectsConcurrentExport(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	e := NewExporter(rendererFunc(func(ctx context.Context, res *story.Result) (image.Image, error) {
		close(entered)
		<-release
		return image.NewRGBA(image.Rect(0, 0, 4, 4)), nil
	}))

	dir := t.TempDir()
	res := sunsGift(t)
	errc := make(chan error, 1)
	go func() {
		_, err := e.Export(context.Background(), res, dir)
		errc <- err
	}()

	<-entered
	assert.True(t, e.InProgress())
	_, err := e.Export(context.Background(), res, dir)
	assert.ErrorIs(t, err, ErrExportInProgress)

	close(release)
	require.NoError(t, <-errc)
	assert.False(t, e.InProgress())
}

func TestExport_ResetsAfterFailure(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	e := NewExporter(rendererFunc(func(ctx context.Context, res *story.Result) (image.Image, error) {
		calls++
		if calls == 1 {
			return nil, boom
		}
		return image.NewRGBA(image.Rect(0, 0, 4, 4)), nil
	}))

	_, err := e.Export(context.Background(), sunsGift(t), t.TempDir())
	require.ErrorIs(t, err, boom)
	assert.False(t, e.InProgress())

	_, err = e.Export(context.Background(), sunsGift(t), t.TempDir())
	require.NoError(t, err)
}

func TestExport_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewExporter(nil).Export(ctx, sunsGift(t), t.TempDir())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCardRenderer_Render(t *testing.T) {
	r := NewCardRenderer()
	img, err := r.Render(context.Background(), sunsGift(t))
	require.NoError(t, err)

	b := img.Bounds()
	assert.Equal(t, r.Width*r.Scale, b.Dx())
	assert.Greater(t, b.Dy(), b.Dx()/2)
}

func TestCardRenderer_FacesCoverExtendedLatin(t *testing.T) {
	r := NewCardRenderer()
	title, body, err := r.faces(r.Scale)
	require.NoError(t, err)
	defer title.Close()
	defer body.Close()

	text := "Māui — Ōkuninushi’s “gift” ŌāēīūĀ Ñandú"
	for _, face := range []font.Face{title, body} {
		for _, c := range text {
			if c == ' ' {
				continue
			}
			_, ok := face.GlyphAdvance(c)
			assert.Truef(t, ok, "no glyph for %q", c)
		}
	}

	res := sunsGift(t)
	res.Title = "Māui and the Sun — a Ōkuninushi tale"
	res.Text = text
	_, err = r.Render(context.Background(), res)
	require.NoError(t, err)
}

func TestCardRenderer_BadIllustration(t *testing.T) {
	res := sunsGift(t)
	res.ImageURL = story.DataURI("image/png", []byte("not a png"))

	_, err := NewCardRenderer().Render(context.Background(), res)
	assert.ErrorContains(t, err, "failed to decode illustration")
}

func TestWrap(t *testing.T) {
	r := NewCardRenderer()
	_, face, err := r.faces(1)
	require.NoError(t, err)
	defer face.Close()

	width := max(
		font.MeasureString(face, "the quick").Ceil(),
		font.MeasureString(face, "brown fox").Ceil(),
	)

	tests := []struct {
		name string
		text string
		want []string
	}{
		{name: "words", text: "the quick brown fox", want: []string{"the quick", "brown fox"}},
		{name: "paragraphs", text: "one\n\ntwo", want: []string{"one", "", "two"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, wrap(face, tt.text, width))
		})
	}

	t.Run("long word", func(t *testing.T) {
		word := "Ōkuninushinomikoto"
		lines := wrap(face, word, width)
		require.Greater(t, len(lines), 1)
		assert.Equal(t, word, strings.Join(lines, ""))
		for _, line := range lines {
			assert.LessOrEqual(t, font.MeasureString(face, line).Ceil(), width)
		}
	})
}

func TestSaveIllustration(t *testing.T) {
	dir := t.TempDir()
	res := sunsGift(t)

	path, err := SaveIllustration(res, filepath.Join(dir, "art"))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, ".png"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	_, want, err := res.Image()
	require.NoError(t, err)
	assert.Equal(t, want, data)
}
