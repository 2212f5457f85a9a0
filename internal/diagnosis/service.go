package diagnosis

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/health-dashboard/backend/internal/metrics"
	"github.com/health-dashboard/backend/pkg/logger"
)

// Predictor maps a feature vector to a class index.
type Predictor interface {
	Predict(x []float64) (int, error)
}

type Result struct {
	Symptoms []string `json:"symptoms"`
	Recommendation
}

// ErrUnavailable is returned by every operation of a service whose model or
// tables failed to load.
var ErrUnavailable = errors.New("diagnosis is unavailable")

type Service struct {
	model   Predictor
	catalog *Catalog
	loadErr error
}

func NewService(model Predictor, catalog *Catalog) *Service {
	return &Service{model: model, catalog: catalog}
}

// Unavailable returns a service that rejects every call with ErrUnavailable,
// so the rest of the API can run without the classifier.
func Unavailable(cause error) *Service {
	return &Service{loadErr: cause}
}

// Ping reports whether the classifier and tables are loaded.
func (s *Service) Ping(context.Context) error {
	if s.loadErr != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, s.loadErr)
	}
	return nil
}

// Load reads the classifier artifact and the auxiliary tables.
func Load(modelPath, tablesDir string) (*Service, error) {
	model, err := LoadModel(modelPath)
	if err != nil {
		return nil, err
	}
	catalog, err := LoadCatalog(tablesDir)
	if err != nil {
		return nil, err
	}

	logger.Info("Diagnosis model loaded",
		zap.String("strategy", model.Strategy),
		zap.Int("classes", len(model.Classes)),
		zap.String("tables", tablesDir),
	)
	return NewService(model, catalog), nil
}

// Predict returns the disease name the classifier assigns to a symptom
// selection.
func (s *Service) Predict(symptoms []string) (string, error) {
	disease, _, err := s.predict(symptoms)
	return disease, err
}

func (s *Service) predict(symptoms []string) (string, []float64, error) {
	if err := s.Ping(context.Background()); err != nil {
		return "", nil, err
	}

	vec, err := Encode(symptoms)
	if err != nil {
		return "", nil, err
	}

	class, err := s.model.Predict(vec)
	if err != nil {
		return "", nil, fmt.Errorf("failed to predict: %w", err)
	}

	disease, ok := Diseases[class]
	if !ok {
		return "", nil, fmt.Errorf("%w: %d", ErrUnknownClass, class)
	}

	metrics.Predictions.WithLabelValues(disease).Inc()
	return disease, vec, nil
}

func (s *Service) Lookup(disease string) (*Recommendation, error) {
	if err := s.Ping(context.Background()); err != nil {
		return nil, err
	}
	return s.catalog.Lookup(disease)
}

// Diagnose runs prediction followed by the table lookup.
func (s *Service) Diagnose(symptoms []string) (*Result, error) {
	disease, vec, err := s.predict(symptoms)
	if err != nil {
		return nil, err
	}

	rec, err := s.Lookup(disease)
	if err != nil {
		logger.Warn("Predicted disease missing from tables", zap.String("disease", disease))
		return nil, err
	}
	if len(rec.Missing) > 0 {
		logger.Debug("Partial recommendation", zap.String("disease", disease), zap.Strings("missing", rec.Missing))
	}

	return &Result{Symptoms: Decode(vec), Recommendation: *rec}, nil
}
