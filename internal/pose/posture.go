package pose

import "math"

const shoulderTolerance = 0.05

const (
	msgUnevenShoulders = "Your shoulders are not level. Try to adjust your posture."
	msgGoodPosture     = "Good posture! Keep it up."
)

type PostureResult struct {
	Good               bool    `json:"good"`
	ShoulderDifference float64 `json:"shoulder_difference"`
	Message            string  `json:"message"`
}

// CheckPosture compares the heights of the two shoulders.
func CheckPosture(f Frame) (PostureResult, error) {
	left, err := f.Point(LeftShoulder)
	if err != nil {
		return PostureResult{}, err
	}
	right, err := f.Point(RightShoulder)
	if err != nil {
		return PostureResult{}, err
	}

	diff := math.Abs(left.Y - right.Y)
	if diff > shoulderTolerance {
		return PostureResult{Good: false, ShoulderDifference: diff, Message: msgUnevenShoulders}, nil
	}
	return PostureResult{Good: true, ShoulderDifference: diff, Message: msgGoodPosture}, nil
}
