package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/go-pdf/fpdf"
	"github.com/sirupsen/logrus"

	"storyteller/internal/domain/story"
)

var ErrExportInProgress = errors.New("an export is already in progress")

// Exporter writes a story card to a single-page PDF. Only one export runs at
// a time.
type Exporter struct {
	renderer Renderer
	busy     atomic.Bool
}

func NewExporter(renderer Renderer) *Exporter {
	if renderer == nil {
		renderer = NewCardRenderer()
	}
	return &Exporter{renderer: renderer}
}

// InProgress reports whether an export is running.
func (e *Exporter) InProgress() bool {
	return e.busy.Load()
}

// Export renders res and writes it to dir under res.ExportFilename(). It
// returns the path written.
func (e *Exporter) Export(ctx context.Context, res *story.Result, dir string) (string, error) {
	if !e.busy.CompareAndSwap(false, true) {
		return "", ErrExportInProgress
	}
	defer e.busy.Store(false)

	path := filepath.Join(dir, res.ExportFilename())
	log := logrus.WithFields(logrus.Fields{
		"title": res.Title,
		"path":  path,
	})

	if err := e.export(ctx, res, dir, path); err != nil {
		log.WithError(err).Error("Failed to export story")
		return "", err
	}

	log.Info("Story exported")
	return path, nil
}

func (e *Exporter) export(ctx context.Context, res *story.Result, dir, path string) error {
	card, err := e.renderer.Render(ctx, res)
	if err != nil {
		return fmt.Errorf("failed to render story card: %w", err)
	}

	var raster bytes.Buffer
	if err := png.Encode(&raster, card); err != nil {
		return fmt.Errorf("failed to encode story card: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	// One point per pixel, so the page is exactly the card.
	w := float64(card.Bounds().Dx())
	h := float64(card.Bounds().Dy())

	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           fpdf.SizeType{Wd: w, Ht: h},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetTitle(res.Title, true)
	pdf.AddPage()

	opts := fpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("card", opts, &raster)
	pdf.ImageOptions("card", 0, 0, w, h, false, opts, 0, "")
	if err := pdf.Error(); err != nil {
		return fmt.Errorf("failed to build PDF: %w", err)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}
	if err := pdf.OutputFileAndClose(path); err != nil {
		return fmt.Errorf("failed to write PDF: %w", err)
	}
	return nil
}

// SaveIllustration writes the story's image to path. When path has no
// extension one is added from the image type; the final path is returned.
func SaveIllustration(res *story.Result, path string) (string, error) {
	mime, data, err := res.Image()
	if err != nil {
		return "", fmt.Errorf("failed to read illustration: %w", err)
	}

	if filepath.Ext(path) == "" {
		path += extension(mime)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("failed to create directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write illustration: %w", err)
	}
	return path, nil
}

func extension(mime string) string {
	switch strings.ToLower(mime) {
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	default:
		return ".jpg"
	}
}
