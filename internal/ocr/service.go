package ocr

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/health-dashboard/backend/internal/metrics"
	"github.com/health-dashboard/backend/pkg/logger"
)

var (
	ErrInvalidImage = errors.New("unsupported or corrupt image")
	ErrDisabled     = errors.New("text recognition is not configured")
)

const blurryWarning = "The uploaded image is blurry. Please upload a clearer image for better OCR results."

type Result struct {
	Lines     []TextLine   `json:"lines"`
	Text      string       `json:"text"`
	Blurry    bool         `json:"blurry"`
	BlurScore float64      `json:"blur_score"`
	Analysis  TextAnalysis `json:"analysis"`
	Annotated string       `json:"annotated_png,omitempty"`
	Warnings  []string     `json:"warnings,omitempty"`
}

// DefaultMaxPixels bounds the decoded size of an upload. Blur detection and
// annotation each hold a full-size copy of the image.
const DefaultMaxPixels = 40_000_000

type Service struct {
	recognizer    Recognizer
	blurThreshold float64
	maxPixels     int
}

// NewService builds the OCR pipeline. A nil recognizer still allows blur
// checks; recognition then reports ErrDisabled as a warning. Non-positive
// limits fall back to the defaults.
func NewService(recognizer Recognizer, blurThreshold float64, maxPixels int) *Service {
	if blurThreshold <= 0 {
		blurThreshold = DefaultBlurThreshold
	}
	if maxPixels <= 0 {
		maxPixels = DefaultMaxPixels
	}
	return &Service{recognizer: recognizer, blurThreshold: blurThreshold, maxPixels: maxPixels}
}

// Process runs blur detection, text recognition, annotation and text
// analysis on one image. Only an undecodable image is an error; a failing
// recognizer degrades to a warning.
func (s *Service) Process(ctx context.Context, data []byte) (*Result, error) {
	contentType := http.DetectContentType(data)
	if contentType != "image/jpeg" && contentType != "image/png" {
		metrics.OCRRequests.WithLabelValues("invalid").Inc()
		return nil, fmt.Errorf("%w: %s", ErrInvalidImage, contentType)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		metrics.OCRRequests.WithLabelValues("invalid").Inc()
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.Width > s.maxPixels/cfg.Height {
		metrics.OCRRequests.WithLabelValues("invalid").Inc()
		return nil, fmt.Errorf("%w: %dx%d exceeds the %d pixel limit", ErrInvalidImage, cfg.Width, cfg.Height, s.maxPixels)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		metrics.OCRRequests.WithLabelValues("invalid").Inc()
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	res := &Result{Lines: []TextLine{}}
	res.Blurry, res.BlurScore = IsBlurry(img, s.blurThreshold)
	if res.Blurry {
		res.Warnings = append(res.Warnings, blurryWarning)
	}

	lines, err := s.recognize(ctx, Image{
		Data:        data,
		ContentType: contentType,
		Width:       img.Bounds().Dx(),
		Height:      img.Bounds().Dy(),
	})
	if err != nil {
		metrics.OCRRequests.WithLabelValues("degraded").Inc()
		logger.Warn("Text recognition failed", zap.Error(err))
		res.Warnings = append(res.Warnings, "text recognition is unavailable: "+err.Error())
		res.Analysis = TextAnalysis{Sentences: []string{}, Keywords: []string{}}
		return res, nil
	}
	res.Lines = lines

	texts := make([]string, len(lines))
	for i, l := range lines {
		texts[i] = l.Text
	}
	res.Text = strings.Join(texts, "\n")

	analysis, err := Analyze(res.Text)
	if err != nil {
		res.Warnings = append(res.Warnings, err.Error())
		analysis = &TextAnalysis{Sentences: []string{}, Keywords: []string{}}
	}
	res.Analysis = *analysis

	annotated, err := Annotate(img, lines)
	if err != nil {
		res.Warnings = append(res.Warnings, err.Error())
	} else {
		res.Annotated = base64.StdEncoding.EncodeToString(annotated)
	}

	metrics.OCRRequests.WithLabelValues("ok").Inc()
	return res, nil
}

func (s *Service) recognize(ctx context.Context, img Image) ([]TextLine, error) {
	if s.recognizer == nil {
		return nil, ErrDisabled
	}
	return s.recognizer.Recognize(ctx, img)
}
