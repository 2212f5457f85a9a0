package pose

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/health-dashboard/backend/internal/metrics"
)

type Mode string

const (
	ModeReps    Mode = "reps"
	ModePosture Mode = "posture"
)

var ErrUnknownMode = errors.New("unknown analysis mode")

// FrameSource yields pose frames. Next returns io.EOF once the source is
// exhausted.
type FrameSource interface {
	Next(ctx context.Context) (Frame, error)
}

// Update is the analysis of one frame.
type Update struct {
	Seq          int            `json:"seq"`
	Mode         Mode           `json:"mode"`
	Exercise     string         `json:"exercise,omitempty"`
	Angle        *float64       `json:"angle,omitempty"`
	Stage        Stage          `json:"stage,omitempty"`
	Reps         int            `json:"reps"`
	RepCompleted bool           `json:"rep_completed,omitempty"`
	Posture      *PostureResult `json:"posture,omitempty"`
	Error        string         `json:"error,omitempty"`
}

// Task analyses a stream of frames in one mode. Its state lives only as long
// as the task.
type Task struct {
	mode     Mode
	exercise Exercise
	counter  *RepCounter
	seq      int
}

func NewTask(mode Mode, exercise string) (*Task, error) {
	t := &Task{mode: mode, counter: NewRepCounter()}
	switch mode {
	case ModeReps:
		e, err := ExerciseByName(exercise)
		if err != nil {
			return nil, err
		}
		t.exercise = e
	case ModePosture:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}
	return t, nil
}

// Step analyses a single frame. A frame lacking the needed landmarks yields
// an update carrying the error and leaves the counter alone.
func (t *Task) Step(f Frame) Update {
	t.seq++
	metrics.PoseFrames.WithLabelValues(string(t.mode)).Inc()

	u := Update{Seq: t.seq, Mode: t.mode}
	if t.mode == ModePosture {
		res, err := CheckPosture(f)
		if err != nil {
			u.Error = err.Error()
			return u
		}
		u.Posture = &res
		return u
	}

	u.Exercise = t.exercise.Name
	angle, err := t.exercise.AngleOf(f)
	if err != nil {
		u.Error = err.Error()
		u.Stage = t.counter.Stage()
		u.Reps = t.counter.Reps()
		return u
	}

	if t.counter.Observe(angle) {
		u.RepCompleted = true
		metrics.RepsCounted.WithLabelValues(t.exercise.Name).Inc()
	}
	u.Angle = &angle
	u.Stage = t.counter.Stage()
	u.Reps = t.counter.Reps()
	return u
}

// Run pulls frames from src and publishes one update per frame until the
// source ends or ctx is cancelled. It does not close out.
func (t *Task) Run(ctx context.Context, src FrameSource, out chan<- Update) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		f, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			return fmt.Errorf("failed to read frame: %w", err)
		}

		u := t.Step(f)
		select {
		case out <- u:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// ChannelSource adapts a channel of frames. Closing the channel ends the
// source.
type ChannelSource <-chan Frame

func (c ChannelSource) Next(ctx context.Context) (Frame, error) {
	select {
	case f, ok := <-c:
		if !ok {
			return Frame{}, io.EOF
		}
		return f, nil
	case <-ctx.Done():
		return Frame{}, ctx.Err()
	}
}

// SliceSource replays a fixed list of frames.
type SliceSource struct {
	frames []Frame
	pos    int
}

func NewSliceSource(frames []Frame) *SliceSource {
	return &SliceSource{frames: frames}
}

func (s *SliceSource) Next(ctx context.Context) (Frame, error) {
	if err := ctx.Err(); err != nil {
		return Frame{}, err
	}
	if s.pos >= len(s.frames) {
		return Frame{}, io.EOF
	}
	f := s.frames[s.pos]
	s.pos++
	return f, nil
}

type Summary struct {
	Exercise string   `json:"exercise"`
	Reps     int      `json:"reps"`
	Stage    Stage    `json:"stage"`
	Updates  []Update `json:"updates"`
}

// Analyze counts reps over a recorded sequence of frames.
func Analyze(ctx context.Context, exercise string, frames []Frame) (*Summary, error) {
	t, err := NewTask(ModeReps, exercise)
	if err != nil {
		return nil, err
	}

	out := make(chan Update, len(frames))
	if err := t.Run(ctx, NewSliceSource(frames), out); err != nil {
		return nil, err
	}
	close(out)

	s := &Summary{Exercise: t.exercise.Name, Updates: make([]Update, 0, len(frames))}
	for u := range out {
		s.Updates = append(s.Updates, u)
	}
	s.Reps = t.counter.Reps()
	s.Stage = t.counter.Stage()
	return s, nil
}
