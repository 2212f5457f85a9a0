package dashboard

import (
	"context"
	"math"
	"math/rand"
	"sync"

	"github.com/health-dashboard/backend/internal/session"
)

type Profile struct {
	Username string  `json:"username"`
	Age      int     `json:"age"`
	Weight   int     `json:"weight"`
	Height   int     `json:"height"`
	BMI      float64 `json:"bmi"`
}

type Tile struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

type TrendPoint struct {
	Day            string  `json:"day"`
	Steps          int     `json:"steps"`
	MentalPressure float64 `json:"mental_pressure"`
	ScreenTime     float64 `json:"screen_time"`
}

type Dashboard struct {
	Profile   Profile      `json:"profile"`
	Tiles     []Tile       `json:"tiles"`
	Trends    []TrendPoint `json:"trends"`
	Animation any          `json:"animation"`
}

var weekDays = []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// Placeholder readings until a device integration provides real ones.
var healthTiles = []Tile{
	{Label: "Heart Rate", Value: "104 bpm"},
	{Label: "Steps", Value: "8000"},
	{Label: "Blood Pressure", Value: "120/80 mmHg"},
	{Label: "Sleep Condition", Value: "Good"},
	{Label: "Overall Health", Value: "Healthy"},
}

// BMI is weight(kg) / height(m)^2 rounded to two decimals. A zero height
// yields 0.
func BMI(weightKg, heightCm int) float64 {
	if heightCm <= 0 {
		return 0
	}
	m := float64(heightCm) / 100
	return math.Round(float64(weightKg)/(m*m)*100) / 100
}

type Service struct {
	animation *AnimationFetcher

	mu  sync.Mutex
	rng *rand.Rand
}

// NewService builds the dashboard. animation may be nil to skip the
// animation entirely.
func NewService(animation *AnimationFetcher, src rand.Source) *Service {
	return &Service{animation: animation, rng: rand.New(src)}
}

// Build assembles the dashboard for the session's user. It never fails; a
// missing animation is reported as null.
func (s *Service) Build(ctx context.Context, sess *session.Session) *Dashboard {
	d := &Dashboard{
		Profile: Profile{
			Username: sess.Username,
			Age:      sess.Age,
			Weight:   sess.Weight,
			Height:   sess.Height,
			BMI:      BMI(sess.Weight, sess.Height),
		},
		Tiles:  append([]Tile(nil), healthTiles...),
		Trends: s.Trends(),
	}
	if s.animation != nil {
		if raw := s.animation.Fetch(ctx); raw != nil {
			d.Animation = raw
		}
	}
	return d
}

// Trends generates a week of sample readings: steps in [4000, 12000),
// mental pressure in [0.2, 1.0) and screen time in [0.5, 1.5).
func (s *Service) Trends() []TrendPoint {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]TrendPoint, len(weekDays))
	for i, day := range weekDays {
		out[i] = TrendPoint{
			Day:            day,
			Steps:          4000 + s.rng.Intn(8000),
			MentalPressure: 0.2 + s.rng.Float64()*0.8,
			ScreenTime:     0.5 + s.rng.Float64(),
		}
	}
	return out
}
