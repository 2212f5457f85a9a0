package diagnosis

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/health-dashboard/backend/internal/metrics"
)

var ErrDiseaseNotFound = errors.New("disease not found in description table")

const (
	descriptionFile = "description.csv"
	precautionsFile = "precautions_df.csv"
	medicationsFile = "medications.csv"
	dietsFile       = "diets.csv"
	workoutsFile    = "workout_df.csv"
)

// Recommendation is everything the auxiliary tables know about a disease.
// Missing names the list tables that had no row for it.
type Recommendation struct {
	Disease     string   `json:"disease"`
	Description string   `json:"description"`
	Precautions []string `json:"precautions"`
	Medications []string `json:"medications"`
	Diets       []string `json:"diets"`
	Workouts    []string `json:"workouts"`
	Missing     []string `json:"missing,omitempty"`
}

// Catalog holds the auxiliary disease tables, keyed by disease name.
type Catalog struct {
	descriptions map[string]string
	precautions  map[string][]string
	medications  map[string][]string
	diets        map[string][]string
	workouts     map[string][]string
}

func LoadCatalog(dir string) (*Catalog, error) {
	c := &Catalog{}

	var err error
	if c.descriptions, err = loadDescriptions(filepath.Join(dir, descriptionFile)); err != nil {
		return nil, err
	}
	if c.precautions, err = loadList(filepath.Join(dir, precautionsFile), "Disease", false,
		"Precaution_1", "Precaution_2", "Precaution_3", "Precaution_4"); err != nil {
		return nil, err
	}
	if c.medications, err = loadList(filepath.Join(dir, medicationsFile), "Disease", true, "Medication"); err != nil {
		return nil, err
	}
	if c.diets, err = loadList(filepath.Join(dir, dietsFile), "Disease", true, "Diet"); err != nil {
		return nil, err
	}
	if c.workouts, err = loadList(filepath.Join(dir, workoutsFile), "disease", false, "workout"); err != nil {
		return nil, err
	}
	return c, nil
}

// Lookup gathers the recommendation for a disease. Only the description is
// mandatory; list tables without a row contribute an empty list.
func (c *Catalog) Lookup(disease string) (*Recommendation, error) {
	desc, ok := c.descriptions[disease]
	if !ok {
		metrics.LookupMisses.WithLabelValues("description").Inc()
		return nil, fmt.Errorf("%w: %q", ErrDiseaseNotFound, disease)
	}

	rec := &Recommendation{Disease: disease, Description: desc}
	rec.Precautions = c.list(rec, "precautions", c.precautions, disease)
	rec.Medications = c.list(rec, "medications", c.medications, disease)
	rec.Diets = c.list(rec, "diets", c.diets, disease)
	rec.Workouts = c.list(rec, "workouts", c.workouts, disease)
	return rec, nil
}

func (c *Catalog) list(rec *Recommendation, table string, rows map[string][]string, disease string) []string {
	values, ok := rows[disease]
	if !ok {
		metrics.LookupMisses.WithLabelValues(table).Inc()
		rec.Missing = append(rec.Missing, table)
		return []string{}
	}
	out := make([]string, len(values))
	copy(out, values)
	return out
}

func readTable(path string) ([]string, [][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open table: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read header of %s: %w", filepath.Base(path), err)
	}

	var rows [][]string
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read %s: %w", filepath.Base(path), err)
		}
		rows = append(rows, rec)
	}
	return header, rows, nil
}

func columnIndexes(path string, header []string, names ...string) ([]int, error) {
	pos := make(map[string]int, len(header))
	for i, h := range header {
		pos[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}

	idx := make([]int, len(names))
	for i, n := range names {
		p, ok := pos[n]
		if !ok {
			return nil, fmt.Errorf("table %s has no %q column", filepath.Base(path), n)
		}
		idx[i] = p
	}
	return idx, nil
}

func cell(rec []string, i int) string {
	if i >= len(rec) {
		return ""
	}
	return rec[i]
}

func loadDescriptions(path string) (map[string]string, error) {
	header, rows, err := readTable(path)
	if err != nil {
		return nil, err
	}
	idx, err := columnIndexes(path, header, "Disease", "Description")
	if err != nil {
		return nil, err
	}

	out := make(map[string]string, len(rows))
	for _, rec := range rows {
		disease := cell(rec, idx[0])
		// First row wins, as a filtered lookup would return it.
		if _, seen := out[disease]; !seen {
			out[disease] = cell(rec, idx[1])
		}
	}
	return out, nil
}

// loadList reads a table whose value columns accumulate into one list per
// disease. expand unpacks cells holding list literals.
func loadList(path, keyColumn string, expand bool, valueColumns ...string) (map[string][]string, error) {
	header, rows, err := readTable(path)
	if err != nil {
		return nil, err
	}
	idx, err := columnIndexes(path, header, append([]string{keyColumn}, valueColumns...)...)
	if err != nil {
		return nil, err
	}

	out := make(map[string][]string)
	for _, rec := range rows {
		disease := cell(rec, idx[0])
		values := out[disease]
		for _, i := range idx[1:] {
			v := strings.TrimSpace(cell(rec, i))
			if v == "" || v == "nan" {
				continue
			}
			if expand {
				values = append(values, expandListLiteral(v)...)
			} else {
				values = append(values, v)
			}
		}
		if values == nil {
			values = []string{}
		}
		out[disease] = values
	}
	return out, nil
}

// expandListLiteral turns "['a', \"b's\"]" into [a b's]. A cell that is not
// a bracketed list is returned as the single value.
func expandListLiteral(s string) []string {
	if !strings.HasPrefix(s, "[") || !strings.HasSuffix(s, "]") {
		return []string{s}
	}

	inner := s[1 : len(s)-1]
	var (
		out   []string
		cur   strings.Builder
		quote rune
	)
	flush := func() {
		if v := strings.TrimSpace(cur.String()); v != "" {
			out = append(out, v)
		}
		cur.Reset()
	}

	for _, r := range inner {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				cur.WriteRune(r)
			}
		case r == '\'' || r == '"':
			quote = r
		case r == ',':
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return out
}
