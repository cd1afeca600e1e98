// Package health holds the computations behind the healthcare commands.
// Input is acquired elsewhere; everything here is a pure function.
package health

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrInvalidInput = errors.New("invalid input")

var Tips = []string{
	"Stay hydrated and drink at least 8 glasses of water a day.",
	"Eat a balanced diet with plenty of fruits and vegetables.",
	"Get regular exercise to maintain a healthy weight.",
	"Get enough sleep each night.",
	"Practice good hygiene to prevent illness.",
}

var FitnessRecommendations = []string{
	"Engage in at least 30 minutes of physical activity daily.",
	"Include strength training exercises in your routine.",
	"Take breaks and stretch regularly if sitting for long periods.",
	"Consider consulting a fitness professional for personalized advice.",
}

// BMI computes body mass index from height in meters and weight in kilograms
func BMI(heightM, weightKg float64) (float64, error) {
	if heightM <= 0 || weightKg <= 0 {
		return 0, ErrInvalidInput
	}
	return weightKg / (heightM * heightM), nil
}

// BMIReply parses the raw answers and formats the spoken result
func BMIReply(height, weight string) string {
	h, err1 := strconv.ParseFloat(strings.TrimSpace(height), 64)
	w, err2 := strconv.ParseFloat(strings.TrimSpace(weight), 64)
	if err1 != nil || err2 != nil {
		return "Invalid input. Please enter numerical values for height and weight."
	}

	bmi, err := BMI(h, w)
	if err != nil {
		return "Invalid input. Please enter numerical values for height and weight."
	}
	return fmt.Sprintf("Your BMI is %.2f.", bmi)
}

// ParseCalories validates the calorie count answer
func ParseCalories(raw string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, ErrInvalidInput
	}
	return n, nil
}

// CaloriesReply formats a tracked calorie entry
func CaloriesReply(calories int, activity string) string {
	return fmt.Sprintf("Tracked %d calories consumed and activity: %s.", calories, activity)
}

// InvalidCaloriesReply is spoken when the calorie count is not a number
const InvalidCaloriesReply = "Invalid input. Please enter a numerical value for calories."
