package export

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg" // illustrations arrive as JPEG or PNG
	_ "image/png"
	"strings"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"storyteller/internal/domain/story"
)

// Renderer turns a story into the raster that gets exported.
type Renderer interface {
	Render(ctx context.Context, res *story.Result) (image.Image, error)
}

var (
	paper     = color.RGBA{0xff, 0xff, 0xff, 0xff}
	ink       = color.RGBA{0x1f, 0x29, 0x37, 0xff}
	accent    = color.RGBA{0x92, 0x40, 0x0e, 0xff}
	moralFill = color.RGBA{0xfe, 0xf3, 0xc7, 0xff}
)

// The Go fonts cover Latin Extended, Greek, Cyrillic and general
// punctuation, so names like "Māui" survive the export.
var (
	regularFont = mustParse(goregular.TTF)
	boldFont    = mustParse(gobold.TTF)
)

func mustParse(ttf []byte) *opentype.Font {
	f, err := opentype.Parse(ttf)
	if err != nil {
		panic(fmt.Sprintf("export: bundled font: %v", err))
	}
	return f
}

// CardRenderer draws the story card: title, illustration, body and moral on
// a white background. Width, Padding and the point sizes are in 1x units;
// everything is laid out at Scale.
type CardRenderer struct {
	Width     int
	Padding   int
	Scale     int
	TitleSize float64
	BodySize  float64
}

func NewCardRenderer() *CardRenderer {
	return &CardRenderer{
		Width:     480,
		Padding:   24,
		Scale:     2,
		TitleSize: 18,
		BodySize:  13,
	}
}

// faces returns fresh title and body faces; opentype faces are not safe
// for concurrent use.
func (r *CardRenderer) faces(scale int) (title, body font.Face, err error) {
	dpi := 72 * float64(scale)
	title, err = opentype.NewFace(boldFont, &opentype.FaceOptions{Size: r.TitleSize, DPI: dpi, Hinting: font.HintingFull})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load title font: %w", err)
	}
	body, err = opentype.NewFace(regularFont, &opentype.FaceOptions{Size: r.BodySize, DPI: dpi, Hinting: font.HintingFull})
	if err != nil {
		title.Close()
		return nil, nil, fmt.Errorf("failed to load body font: %w", err)
	}
	return title, body, nil
}

type textBlock struct {
	face  font.Face
	color color.Color
	lines []string
}

func (r *CardRenderer) Render(ctx context.Context, res *story.Result) (image.Image, error) {
	_, data, err := res.Image()
	if err != nil {
		return nil, fmt.Errorf("failed to read illustration: %w", err)
	}
	illustration, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode illustration: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	scale := max(r.Scale, 1)
	titleFace, bodyFace, err := r.faces(scale)
	if err != nil {
		return nil, err
	}
	defer titleFace.Close()
	defer bodyFace.Close()

	width := r.Width * scale
	pad := r.Padding * scale
	inner := width - 2*pad
	lineGap := 4 * scale

	title := textBlock{face: titleFace, color: accent, lines: wrap(titleFace, res.Title, inner)}
	body := textBlock{face: bodyFace, color: ink, lines: wrap(bodyFace, res.Text, inner)}
	moral := textBlock{face: titleFace, color: accent, lines: wrap(titleFace, "Moral: "+res.Moral, inner-pad)}

	ib := illustration.Bounds()
	artHeight := inner * ib.Dy() / max(ib.Dx(), 1)

	height := pad +
		blockHeight(title, lineGap) + pad +
		artHeight + pad +
		blockHeight(body, lineGap) + pad +
		blockHeight(moral, lineGap) + pad + pad

	card := image.NewRGBA(image.Rect(0, 0, width, height))
	xdraw.Draw(card, card.Bounds(), image.NewUniform(paper), image.Point{}, xdraw.Src)

	y := pad
	y = drawBlock(card, title, pad, y, lineGap) + pad
	art := image.Rect(pad, y, pad+inner, y+artHeight)
	xdraw.CatmullRom.Scale(card, art, illustration, ib, xdraw.Over, nil)
	y = art.Max.Y + pad
	y = drawBlock(card, body, pad, y, lineGap) + pad

	box := image.Rect(pad, y, pad+inner, y+blockHeight(moral, lineGap)+pad)
	xdraw.Draw(card, box, image.NewUniform(moralFill), image.Point{}, xdraw.Src)
	drawBlock(card, moral, pad+pad/2, y+pad/2, lineGap)

	return card, nil
}

func lineHeight(face font.Face, gap int) int {
	return face.Metrics().Height.Ceil() + gap
}

func blockHeight(b textBlock, gap int) int {
	return len(b.lines) * lineHeight(b.face, gap)
}

// drawBlock draws b with its top edge at y and returns the y below it.
func drawBlock(dst *image.RGBA, b textBlock, x, y, gap int) int {
	d := font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(b.color),
		Face: b.face,
	}
	ascent := b.face.Metrics().Ascent.Ceil()
	for _, line := range b.lines {
		d.Dot = fixed.P(x, y+ascent)
		d.DrawString(line)
		y += lineHeight(b.face, gap)
	}
	return y
}

// wrap breaks text into lines no wider than width pixels. Paragraph breaks
// are kept; words longer than a line are split.
func wrap(face font.Face, text string, width int) []string {
	var lines []string
	for _, para := range strings.Split(text, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}

		line := ""
		for _, word := range words {
			for font.MeasureString(face, word).Ceil() > width {
				head, tail := splitToWidth(face, word, width)
				if line != "" {
					lines = append(lines, line)
					line = ""
				}
				lines = append(lines, head)
				word = tail
			}

			candidate := word
			if line != "" {
				candidate = line + " " + word
			}
			if font.MeasureString(face, candidate).Ceil() > width {
				lines = append(lines, line)
				line = word
				continue
			}
			line = candidate
		}
		lines = append(lines, line)
	}
	return lines
}

func splitToWidth(face font.Face, word string, width int) (string, string) {
	runes := []rune(word)
	n := 1
	for n < len(runes) && font.MeasureString(face, string(runes[:n+1])).Ceil() <= width {
		n++
	}
	return string(runes[:n]), string(runes[n:])
}
