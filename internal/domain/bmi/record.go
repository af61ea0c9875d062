package bmi

import "math"

type Category string

const (
	Underweight Category = "Underweight"
	Normal      Category = "Normal"
	Overweight  Category = "Overweight"
	Obese       Category = "Obese"
)

const (
	normalFrom     = 18.5
	overweightFrom = 24.9
	obeseFrom      = 29.9
)

func (c Category) Valid() bool {
	switch c {
	case Underweight, Normal, Overweight, Obese:
		return true
	default:
		return false
	}
}

// Record is the result of one calculation. It is a plain value:
// two records computed from the same measurement compare equal.
type Record struct {
	Age      float64  `json:"age" diff:"age"`
	Height   float64  `json:"height" diff:"height"`
	Weight   float64  `json:"weight" diff:"weight"`
	BMI      float64  `json:"bmi" diff:"bmi"`
	Category Category `json:"category" diff:"category"`
}

func Compute(m Measurement) Record {
	heightM := m.Height / 100
	value := Round(m.Weight / (heightM * heightM))

	return Record{
		Age:      m.Age,
		Height:   m.Height,
		Weight:   m.Weight,
		BMI:      value,
		Category: Classify(value),
	}
}

// Classify maps an already rounded BMI to its category.
func Classify(bmi float64) Category {
	switch {
	case bmi < normalFrom:
		return Underweight
	case bmi < overweightFrom:
		return Normal
	case bmi < obeseFrom:
		return Overweight
	default:
		return Obese
	}
}

// Round rounds to two decimal places, halves away from zero.
func Round(v float64) float64 {
	return math.Round(v*100) / 100
}
