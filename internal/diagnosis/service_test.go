package diagnosis

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

type fixedPredictor int

func (p fixedPredictor) Predict([]float64) (int, error) { return int(p), nil }

func TestDiagnose(t *testing.T) {
	svc := NewService(ovrModel(t), loadTestCatalog(t))

	res, err := svc.Diagnose([]string{"itching", "skin_rash"})
	if err != nil {
		t.Fatalf("Diagnose() error = %v", err)
	}
	if res.Disease != "Fungal infection" {
		t.Errorf("Disease = %q, want Fungal infection", res.Disease)
	}
	if len(res.Symptoms) != 2 {
		t.Errorf("Symptoms = %v", res.Symptoms)
	}
	if len(res.Medications) != 3 {
		t.Errorf("Medications = %v", res.Medications)
	}
}

func TestDiagnoseErrors(t *testing.T) {
	catalog := loadTestCatalog(t)

	tests := []struct {
		name     string
		model    Predictor
		symptoms []string
		want     error
	}{
		{"no symptoms", ovrModel(t), nil, ErrNoSymptoms},
		{"unknown symptom", ovrModel(t), []string{"glowing"}, ErrUnknownSymptom},
		{"unlabelled class", fixedPredictor(99), []string{"itching"}, ErrUnknownClass},
		{"disease without description", fixedPredictor(1), []string{"itching"}, ErrDiseaseNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewService(tt.model, catalog).Diagnose(tt.symptoms)
			if !errors.Is(err, tt.want) {
				t.Errorf("Diagnose() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestUnavailable(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"), "testdata/tables")
	if err == nil {
		t.Fatal("Load() with a missing model succeeded")
	}

	svc := Unavailable(err)
	if err := svc.Ping(context.Background()); !errors.Is(err, ErrUnavailable) {
		t.Errorf("Ping() error = %v, want ErrUnavailable", err)
	}
	if _, err := svc.Diagnose([]string{"itching"}); !errors.Is(err, ErrUnavailable) {
		t.Errorf("Diagnose() error = %v, want ErrUnavailable", err)
	}
	if _, err := svc.Predict([]string{"itching"}); !errors.Is(err, ErrUnavailable) {
		t.Errorf("Predict() error = %v, want ErrUnavailable", err)
	}
	if _, err := svc.Lookup("Fungal infection"); !errors.Is(err, ErrUnavailable) {
		t.Errorf("Lookup() error = %v, want ErrUnavailable", err)
	}

	if err := NewService(ovrModel(t), loadTestCatalog(t)).Ping(context.Background()); err != nil {
		t.Errorf("loaded service Ping() error = %v", err)
	}
}
