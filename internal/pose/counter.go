package pose

type Stage string

const (
	StageNone Stage = "none"
	StageUp   Stage = "up"
	StageDown Stage = "down"
)

const (
	upThreshold   = 160.0
	downThreshold = 90.0
)

// RepCounter counts repetitions with hysteresis: the joint has to open past
// 160 degrees before closing below 90 counts as a rep.
type RepCounter struct {
	stage Stage
	reps  int
}

func NewRepCounter() *RepCounter {
	return &RepCounter{stage: StageNone}
}

// Observe feeds one angle sample and reports whether it completed a rep.
func (r *RepCounter) Observe(angle float64) bool {
	switch {
	case angle > upThreshold:
		r.stage = StageUp
	case angle < downThreshold && r.stage == StageUp:
		r.stage = StageDown
		r.reps++
		return true
	}
	return false
}

func (r *RepCounter) Stage() Stage { return r.stage }

func (r *RepCounter) Reps() int { return r.reps }
