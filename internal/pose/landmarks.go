package pose

import (
	"errors"
	"fmt"
	"math"
)

var ErrMissingLandmarks = errors.New("frame is missing required landmarks")

// Landmark indices as numbered by the MediaPipe pose model.
const (
	LeftShoulder  = 11
	RightShoulder = 12
	LeftElbow     = 13
	RightElbow    = 14
	LeftWrist     = 15
	RightWrist    = 16
	LeftHip       = 23
	RightHip      = 24
	LeftKnee      = 25
	RightKnee     = 26
	LeftAnkle     = 27
	RightAnkle    = 28

	NumLandmarks = 33
)

// Landmark is a detected body point in normalized image coordinates.
type Landmark struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Z          float64 `json:"z"`
	Visibility float64 `json:"visibility"`
}

// Frame is one pose detection result.
type Frame struct {
	Landmarks []Landmark `json:"landmarks"`
}

// Point returns landmark i, or ErrMissingLandmarks if the detector did not
// report it.
func (f Frame) Point(i int) (Landmark, error) {
	if i < 0 || i >= len(f.Landmarks) {
		return Landmark{}, fmt.Errorf("%w: index %d", ErrMissingLandmarks, i)
	}
	l := f.Landmarks[i]
	if math.IsNaN(l.X) || math.IsNaN(l.Y) {
		return Landmark{}, fmt.Errorf("%w: index %d", ErrMissingLandmarks, i)
	}
	return l, nil
}

// Angle is the angle at b formed by the segments b->a and b->c, in degrees
// within [0, 180].
func Angle(a, b, c Landmark) float64 {
	radians := math.Atan2(c.Y-b.Y, c.X-b.X) - math.Atan2(a.Y-b.Y, a.X-b.X)
	angle := math.Abs(radians * 180 / math.Pi)
	if angle > 180 {
		angle = 360 - angle
	}
	return angle
}
