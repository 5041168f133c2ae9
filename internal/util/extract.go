package util

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"os/exec"
	"strings"

	"github.com/gen2brain/go-fitz"
	"go.uber.org/zap"
)

var ErrEmptyDocument = errors.New("document produced no text")

// Rasterizer renders a binary document into page images, in page order.
type Rasterizer interface {
	Rasterize(ctx context.Context, document []byte) ([]image.Image, error)
}

// TextRecognizer runs optical character recognition on one page image.
type TextRecognizer interface {
	RecognizeText(ctx context.Context, img image.Image) (string, error)
}

type TextExtractorInterface interface {
	Extract(ctx context.Context, document []byte) (string, error)
}

// TextExtractor converts a stored résumé into plain text: rasterize,
// binarize each page, recognize, concatenate in page order.
type TextExtractor struct {
	rasterizer Rasterizer
	recognizer TextRecognizer
	threshold  uint8
	logger     *zap.Logger
}

func NewTextExtractor(rasterizer Rasterizer, recognizer TextRecognizer, threshold uint8, logger *zap.Logger) *TextExtractor {
	return &TextExtractor{
		rasterizer: rasterizer,
		recognizer: recognizer,
		threshold:  threshold,
		logger:     logger.Named("extract"),
	}
}

func (e *TextExtractor) Extract(ctx context.Context, document []byte) (string, error) {
	if len(document) == 0 {
		return "", ErrEmptyDocument
	}

	pages, err := e.rasterizer.Rasterize(ctx, document)
	if err != nil {
		return "", fmt.Errorf("rasterize document: %w", err)
	}
	if len(pages) == 0 {
		return "", fmt.Errorf("rasterize document: no pages")
	}
	e.logger.Debug("rasterized document", zap.Int("pages", len(pages)))

	var fullText strings.Builder
	for n, page := range pages {
		text, err := e.recognizer.RecognizeText(ctx, Binarize(page, e.threshold))
		if err != nil {
			return "", fmt.Errorf("page %d: %w", n+1, err)
		}
		e.logger.Debug("recognized page", zap.Int("page", n+1), zap.Int("chars", len(text)))
		fullText.WriteString(text)
	}

	result := strings.TrimSpace(fullText.String())
	if result == "" {
		return "", ErrEmptyDocument
	}
	e.logger.Info("extracted document text", zap.Int("pages", len(pages)), zap.Int("chars", len(result)))
	return result, nil
}

// Binarize maps every pixel to black when its luminance is below threshold
// and to white otherwise.
func Binarize(src image.Image, threshold uint8) *image.Gray {
	bounds := src.Bounds()
	dst := image.NewGray(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			lum := color.GrayModel.Convert(src.At(x, y)).(color.Gray).Y
			if lum < threshold {
				dst.SetGray(x, y, color.Gray{Y: 0})
			} else {
				dst.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	return dst
}

// FitzRasterizer renders PDF pages with MuPDF.
type FitzRasterizer struct{}

func (FitzRasterizer) Rasterize(ctx context.Context, document []byte) ([]image.Image, error) {
	tmpPath, err := writeTemp("resume-*.pdf", func(f *os.File) error {
		_, err := f.Write(document)
		return err
	})
	if err != nil {
		return nil, err
	}
	defer os.Remove(tmpPath)

	doc, err := fitz.New(tmpPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	images := make([]image.Image, 0, doc.NumPage())
	for n := 0; n < doc.NumPage(); n++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		img, err := doc.Image(n)
		if err != nil {
			return nil, fmt.Errorf("page %d: failed to extract image: %w", n+1, err)
		}
		images = append(images, img)
	}
	return images, nil
}

// TesseractRecognizer shells out to the tesseract binary.
type TesseractRecognizer struct {
	Language string
}

func (r TesseractRecognizer) RecognizeText(ctx context.Context, img image.Image) (string, error) {
	tmpPath, err := writeTemp("page-*.png", func(f *os.File) error {
		return png.Encode(f, img)
	})
	if err != nil {
		return "", err
	}
	defer os.Remove(tmpPath)

	lang := r.Language
	if lang == "" {
		lang = "eng"
	}
	out, err := exec.CommandContext(ctx, "tesseract", tmpPath, "stdout", "-l", lang).Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", fmt.Errorf("tesseract error: %w, output: %s", err, string(exitErr.Stderr))
		}
		return "", fmt.Errorf("tesseract error: %w", err)
	}
	return string(out), nil
}

// CheckTesseract verifies tesseract is installed and returns its version line.
func CheckTesseract(ctx context.Context) (string, error) {
	out, err := exec.CommandContext(ctx, "tesseract", "--version").CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("tesseract not found or not executable: %w\nOutput: %s", err, string(out))
	}
	return strings.Split(string(out), "\n")[0], nil
}

// writeTemp creates a temp file, fills it and returns its path. The file is
// removed again if filling fails.
func writeTemp(pattern string, fill func(f *os.File) error) (string, error) {
	f, err := os.CreateTemp("", pattern)
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	path := f.Name()
	if err := fill(f); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to close temp file: %w", err)
	}
	return path, nil
}
