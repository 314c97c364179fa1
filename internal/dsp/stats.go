package dsp

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summary holds descriptive statistics over every value of a matrix.
type Summary struct {
	Mean float64 `json:"mean" yaml:"mean"`
	Std  float64 `json:"std" yaml:"std"`
	Min  float64 `json:"min" yaml:"min"`
	Max  float64 `json:"max" yaml:"max"`
}

// Map renders the summary for result details.
func (s Summary) Map() map[string]any {
	return map[string]any{"mean": s.Mean, "std": s.Std, "min": s.Min, "max": s.Max}
}

// Summarize computes mean, population standard deviation, min, and max over
// all values. An empty matrix yields the zero Summary.
func Summarize(matrix [][]float64) Summary {
	values := Flatten(matrix)
	if len(values) == 0 {
		return Summary{}
	}
	mean, variance := stat.PopMeanVariance(values, nil)
	return Summary{
		Mean: mean,
		Std:  math.Sqrt(variance),
		Min:  floats.Min(values),
		Max:  floats.Max(values),
	}
}

// Flatten concatenates the rows of matrix.
func Flatten(matrix [][]float64) []float64 {
	total := 0
	for _, row := range matrix {
		total += len(row)
	}
	out := make([]float64, 0, total)
	for _, row := range matrix {
		out = append(out, row...)
	}
	return out
}
