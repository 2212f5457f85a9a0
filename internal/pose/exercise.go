package pose

import (
	"errors"
	"fmt"
)

var ErrUnknownExercise = errors.New("unknown exercise")

// Exercise names the joint whose angle drives the rep counter: the angle at
// Joints[1] between Joints[0] and Joints[2].
type Exercise struct {
	Name   string `json:"name"`
	Joints [3]int `json:"joints"`
}

var Exercises = []Exercise{
	{Name: "Shoulder Raise", Joints: [3]int{RightElbow, RightShoulder, RightHip}},
	{Name: "Leg Raise", Joints: [3]int{RightHip, RightKnee, RightAnkle}},
	{Name: "Arm Curl", Joints: [3]int{RightShoulder, RightElbow, RightWrist}},
}

func ExerciseByName(name string) (Exercise, error) {
	for _, e := range Exercises {
		if e.Name == name {
			return e, nil
		}
	}
	return Exercise{}, fmt.Errorf("%w: %q", ErrUnknownExercise, name)
}

// AngleOf measures the exercise's joint angle in a frame.
func (e Exercise) AngleOf(f Frame) (float64, error) {
	var pts [3]Landmark
	for i, j := range e.Joints {
		p, err := f.Point(j)
		if err != nil {
			return 0, err
		}
		pts[i] = p
	}
	return Angle(pts[0], pts[1], pts[2]), nil
}
