package bmi

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrOutOfRange   = errors.New("out of range")

	ErrInvalidAgeRange    = &rangeError{field: "age", min: MinAge, max: MaxAge}
	ErrInvalidHeightRange = &rangeError{field: "height", min: MinHeight, max: MaxHeight}
	ErrInvalidWeightRange = &rangeError{field: "weight", min: MinWeight, max: MaxWeight}
)

const (
	MinAge    = 2
	MaxAge    = 120
	MinHeight = 50
	MaxHeight = 250
	MinWeight = 2
	MaxWeight = 500
)

type rangeError struct {
	field    string
	min, max float64
}

func (e *rangeError) Error() string {
	return fmt.Sprintf("invalid %s range", e.field)
}

func (e *rangeError) Is(target error) bool {
	return target == ErrOutOfRange
}

// Measurement is an age/height/weight triple that passed Validate.
// Age is in years, Height in centimeters, Weight in kilograms.
type Measurement struct {
	Age    float64
	Height float64
	Weight float64
}

// Parse converts raw form values and validates them.
// Empty and non-numeric values are rejected as ErrInvalidInput.
func Parse(age, height, weight string) (Measurement, error) {
	a, okAge := parseNumber(age)
	h, okHeight := parseNumber(height)
	w, okWeight := parseNumber(weight)
	if !okAge || !okHeight || !okWeight {
		return Measurement{}, ErrInvalidInput
	}
	return Validate(a, h, w)
}

// Validate checks presence first, then age, height and weight ranges,
// returning the first violation.
func Validate(age, height, weight float64) (Measurement, error) {
	if !present(age) || !present(height) || !present(weight) {
		return Measurement{}, ErrInvalidInput
	}

	if age < MinAge || age > MaxAge {
		return Measurement{}, ErrInvalidAgeRange
	}

	if height < MinHeight || height > MaxHeight {
		return Measurement{}, ErrInvalidHeightRange
	}

	if weight < MinWeight || weight > MaxWeight {
		return Measurement{}, ErrInvalidWeightRange
	}

	return Measurement{Age: age, Height: height, Weight: weight}, nil
}

func parseNumber(raw string) (float64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func present(v float64) bool {
	return v != 0 && !math.IsNaN(v) && !math.IsInf(v, 0)
}
