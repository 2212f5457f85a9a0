package ocr

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/health-dashboard/backend/internal/llm"
)

type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// TextLine is one recognized line. Box holds the corners clockwise from the
// top-left, in pixels.
type TextLine struct {
	Text       string   `json:"text"`
	Confidence float64  `json:"confidence"`
	Box        [4]Point `json:"box"`
}

// Image is an encoded upload plus its decoded dimensions.
type Image struct {
	Data        []byte
	ContentType string
	Width       int
	Height      int
}

type Recognizer interface {
	Recognize(ctx context.Context, img Image) ([]TextLine, error)
}

// Vision is the part of the LLM client the recognizer uses.
type Vision interface {
	Vision(ctx context.Context, req llm.VisionRequest) (*llm.CompletionResponse, error)
}

// VisionRecognizer extracts text with a vision-capable chat model.
type VisionRecognizer struct {
	vision Vision
}

func NewVisionRecognizer(vision Vision) *VisionRecognizer {
	return &VisionRecognizer{vision: vision}
}

const recognizeSystemPrompt = `You are an OCR engine for scanned medical documents.
Return every line of text you can read in the image as JSON:
{"lines":[{"text":"...","confidence":0.0-1.0,"box":[[x,y],[x,y],[x,y],[x,y]]}]}
Box corners are integer pixel coordinates, clockwise from the top-left corner.
Return {"lines":[]} if there is no text. Do not add commentary.`

func (r *VisionRecognizer) Recognize(ctx context.Context, img Image) ([]TextLine, error) {
	dataURL := fmt.Sprintf("data:%s;base64,%s", img.ContentType, base64.StdEncoding.EncodeToString(img.Data))

	resp, err := r.vision.Vision(ctx, llm.VisionRequest{
		SystemPrompt: recognizeSystemPrompt,
		UserPrompt:   fmt.Sprintf("The image is %d pixels wide and %d pixels high.", img.Width, img.Height),
		ImageURL:     dataURL,
		JSON:         true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to recognize text: %w", err)
	}

	return parseLines(resp.Content, img.Width, img.Height)
}

func parseLines(content string, width, height int) ([]TextLine, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	var payload struct {
		Lines []struct {
			Text       string      `json:"text"`
			Confidence float64     `json:"confidence"`
			Box        [][]float64 `json:"box"`
		} `json:"lines"`
	}
	if err := json.Unmarshal([]byte(content), &payload); err != nil {
		return nil, fmt.Errorf("failed to parse recognizer output: %w", err)
	}

	lines := make([]TextLine, 0, len(payload.Lines))
	for _, l := range payload.Lines {
		text := strings.TrimSpace(l.Text)
		if text == "" {
			continue
		}
		line := TextLine{Text: text, Confidence: clamp(l.Confidence, 0, 1)}
		if len(l.Box) == 4 {
			for i, p := range l.Box {
				if len(p) < 2 {
					continue
				}
				line.Box[i] = Point{
					X: int(clamp(p[0], 0, float64(width-1))),
					Y: int(clamp(p[1], 0, float64(height-1))),
				}
			}
		}
		lines = append(lines, line)
	}
	return lines, nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
