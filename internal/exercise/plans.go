package exercise

import (
	"errors"
	"fmt"
)

var ErrInvalidInput = errors.New("invalid plan request")

type Item struct {
	Name         string `json:"name"`
	Prescription string `json:"prescription"`
}

var (
	Goals  = []string{"Increase Strength", "Improve Flexibility", "Rehabilitation", "Weight Loss", "Cardio Endurance", "Muscle Toning"}
	Levels = []string{"Beginner", "Intermediate", "Advanced"}
)

// reviewed lists the goals whose plans come from the curated programme. The
// remaining goals carry placeholder plans until a clinician supplies them.
var reviewed = map[string]bool{
	"Increase Strength": true,
}

// Placeholder reports whether goal is served by a placeholder plan.
func Placeholder(goal string) bool {
	_, ok := plans[goal]
	return ok && !reviewed[goal]
}

var plans = map[string]map[string][]Item{
	"Increase Strength": {
		"Beginner": {
			{"Bodyweight Squats", "3 sets of 10 reps"},
			{"Push-ups", "3 sets of 8 reps"},
			{"Dumbbell Lunges", "3 sets of 10 reps each leg"},
			{"Dumbbell Rows", "3 sets of 12 reps"},
		},
		"Intermediate": {
			{"Barbell Squats", "4 sets of 12 reps"},
			{"Bench Press", "4 sets of 10 reps"},
			{"Dumbbell Deadlifts", "4 sets of 12 reps"},
			{"Seated Rows", "4 sets of 12 reps"},
		},
		"Advanced": {
			{"Deadlifts", "5 sets of 5 reps"},
			{"Weighted Pull-ups", "4 sets of 8 reps"},
			{"Barbell Overhead Press", "4 sets of 10 reps"},
			{"Weighted Lunges", "4 sets of 12 reps each leg"},
		},
	},
	"Improve Flexibility": {
		"Beginner": {
			{"Standing Hamstring Stretch", "3 holds of 20 seconds"},
			{"Cat-Cow Stretch", "2 sets of 10 cycles"},
			{"Child's Pose", "3 holds of 30 seconds"},
		},
		"Intermediate": {
			{"Downward Dog", "3 holds of 30 seconds"},
			{"Pigeon Pose", "2 holds of 45 seconds each side"},
			{"Seated Forward Fold", "3 holds of 30 seconds"},
			{"Hip Flexor Lunge Stretch", "2 holds of 45 seconds each side"},
		},
		"Advanced": {
			{"Full Splits Progression", "3 holds of 60 seconds each side"},
			{"Wheel Pose", "3 holds of 20 seconds"},
			{"Standing Split", "3 holds of 30 seconds each leg"},
			{"Dynamic Leg Swings", "3 sets of 15 swings each leg"},
		},
	},
	"Rehabilitation": {
		"Beginner": {
			{"Ankle Pumps", "3 sets of 15 reps"},
			{"Heel Slides", "2 sets of 10 reps each leg"},
			{"Isometric Quad Sets", "3 sets of 10 holds of 5 seconds"},
		},
		"Intermediate": {
			{"Straight Leg Raises", "3 sets of 12 reps each leg"},
			{"Resistance Band Shoulder Rotations", "3 sets of 12 reps"},
			{"Mini Squats", "3 sets of 10 reps"},
		},
		"Advanced": {
			{"Single Leg Balance", "3 holds of 45 seconds each leg"},
			{"Step-ups", "3 sets of 12 reps each leg"},
			{"Resistance Band Rows", "3 sets of 15 reps"},
			{"Wall Sits", "3 holds of 40 seconds"},
		},
	},
	"Weight Loss": {
		"Beginner": {
			{"Brisk Walking", "30 minutes, 5 days a week"},
			{"Bodyweight Squats", "3 sets of 12 reps"},
			{"Marching in Place", "3 rounds of 2 minutes"},
		},
		"Intermediate": {
			{"Jogging", "30 minutes, 4 days a week"},
			{"Jump Rope", "5 rounds of 1 minute"},
			{"Mountain Climbers", "3 sets of 30 seconds"},
			{"Kettlebell Swings", "3 sets of 15 reps"},
		},
		"Advanced": {
			{"HIIT Sprints", "8 rounds of 30 seconds on, 30 seconds off"},
			{"Burpees", "4 sets of 15 reps"},
			{"Box Jumps", "4 sets of 10 reps"},
			{"Battle Ropes", "5 rounds of 40 seconds"},
		},
	},
	"Cardio Endurance": {
		"Beginner": {
			{"Walking", "20-30 minutes at a comfortable pace"},
			{"Stationary Cycling", "15 minutes at low resistance"},
			{"Step Touches", "3 rounds of 2 minutes"},
		},
		"Intermediate": {
			{"Running", "25 minutes at a steady pace"},
			{"Cycling Intervals", "6 rounds of 2 minutes hard, 2 minutes easy"},
			{"Rowing Machine", "15 minutes"},
		},
		"Advanced": {
			{"Tempo Run", "40 minutes with 20 minutes at threshold pace"},
			{"Hill Repeats", "8 repeats of 60 seconds"},
			{"Swimming", "1500 meters continuous"},
			{"Rowing Intervals", "5 rounds of 500 meters"},
		},
	},
	"Muscle Toning": {
		"Beginner": {
			{"Glute Bridges", "3 sets of 12 reps"},
			{"Wall Push-ups", "3 sets of 10 reps"},
			{"Plank", "3 holds of 20 seconds"},
		},
		"Intermediate": {
			{"Dumbbell Shoulder Press", "3 sets of 12 reps"},
			{"Walking Lunges", "3 sets of 12 reps each leg"},
			{"Tricep Dips", "3 sets of 12 reps"},
			{"Side Plank", "3 holds of 30 seconds each side"},
		},
		"Advanced": {
			{"Bulgarian Split Squats", "4 sets of 10 reps each leg"},
			{"Renegade Rows", "4 sets of 10 reps each arm"},
			{"Pike Push-ups", "4 sets of 10 reps"},
			{"Hanging Leg Raises", "4 sets of 12 reps"},
		},
	},
}

// Plan returns the exercise list for a goal at a fitness level.
func Plan(goal, level string) ([]Item, error) {
	byLevel, ok := plans[goal]
	if !ok {
		return nil, fmt.Errorf("%w: unknown goal %q", ErrInvalidInput, goal)
	}
	items, ok := byLevel[level]
	if !ok {
		return nil, fmt.Errorf("%w: unknown fitness level %q", ErrInvalidInput, level)
	}
	return append([]Item(nil), items...), nil
}
