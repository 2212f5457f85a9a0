package diagnosis

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

var (
	ErrInvalidModel = errors.New("invalid classifier model")
	ErrUnknownClass = errors.New("classifier returned a class with no disease label")
)

const (
	StrategyOVR = "ovr"
	StrategyOVO = "ovo"
)

// Model is a linear SVM exported from the training pipeline.
//
// For "ovr" there is one coefficient row per class. For "ovo" there is one
// row per class pair (i, j) with i < j, in the order (0,1), (0,2) ... (1,2) ...,
// and a positive decision value votes for class i.
type Model struct {
	Strategy  string      `json:"strategy"`
	NFeatures int         `json:"n_features"`
	Classes   []int       `json:"classes"`
	Coef      [][]float64 `json:"coef"`
	Intercept []float64   `json:"intercept"`
}

func LoadModel(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model: %w", err)
	}

	var m Model
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse model: %w", err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate checks the model's shape against the symptom vocabulary and the
// disease label space.
func (m *Model) Validate() error {
	if m.NFeatures != len(Symptoms) {
		return fmt.Errorf("%w: model has %d features, vocabulary has %d", ErrInvalidModel, m.NFeatures, len(Symptoms))
	}

	k := len(m.Classes)
	if k < 2 {
		return fmt.Errorf("%w: need at least 2 classes, got %d", ErrInvalidModel, k)
	}
	for _, c := range m.Classes {
		if _, ok := Diseases[c]; !ok {
			return fmt.Errorf("%w: class %d has no disease label", ErrInvalidModel, c)
		}
	}

	var rows int
	switch m.Strategy {
	case StrategyOVR:
		rows = k
	case StrategyOVO:
		rows = k * (k - 1) / 2
	default:
		return fmt.Errorf("%w: unknown strategy %q", ErrInvalidModel, m.Strategy)
	}

	if len(m.Coef) != rows || len(m.Intercept) != rows {
		return fmt.Errorf("%w: %s with %d classes needs %d rows, got coef=%d intercept=%d",
			ErrInvalidModel, m.Strategy, k, rows, len(m.Coef), len(m.Intercept))
	}
	for i, row := range m.Coef {
		if len(row) != m.NFeatures {
			return fmt.Errorf("%w: coef row %d has %d values, want %d", ErrInvalidModel, i, len(row), m.NFeatures)
		}
	}
	return nil
}

// Predict returns the class index for a feature vector.
func (m *Model) Predict(x []float64) (int, error) {
	if len(x) != m.NFeatures {
		return 0, fmt.Errorf("%w: input has %d features, want %d", ErrInvalidModel, len(x), m.NFeatures)
	}

	if m.Strategy == StrategyOVR {
		best := 0
		bestScore := m.decision(0, x)
		for i := 1; i < len(m.Classes); i++ {
			if s := m.decision(i, x); s > bestScore {
				best, bestScore = i, s
			}
		}
		return m.Classes[best], nil
	}

	k := len(m.Classes)
	votes := make([]int, k)
	row := 0
	for i := 0; i < k; i++ {
		for j := i + 1; j < k; j++ {
			if m.decision(row, x) > 0 {
				votes[i]++
			} else {
				votes[j]++
			}
			row++
		}
	}

	best := 0
	for i := 1; i < k; i++ {
		if votes[i] > votes[best] {
			best = i
		}
	}
	return m.Classes[best], nil
}

func (m *Model) decision(row int, x []float64) float64 {
	sum := m.Intercept[row]
	for i, w := range m.Coef[row] {
		sum += w * x[i]
	}
	return sum
}
