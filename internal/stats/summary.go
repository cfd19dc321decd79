package stats

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summary describes a per-generation fitness series.
type Summary struct {
	Generations int     `json:"generations"`
	Initial     float64 `json:"initial"`
	Final       float64 `json:"final"`
	Mean        float64 `json:"mean"`
	StdDev      float64 `json:"stddev"`
	Min         float64 `json:"min"`
	Max         float64 `json:"max"`
	// BestGeneration is the 1-based generation holding Max.
	BestGeneration int     `json:"best_generation"`
	Improvement    float64 `json:"improvement"`
}

// Summarize returns the zero Summary for an empty series.
func Summarize(series []float64) Summary {
	if len(series) == 0 {
		return Summary{}
	}
	mean, std := stat.PopMeanStdDev(series, nil)
	first, last := series[0], series[len(series)-1]
	return Summary{
		Generations:    len(series),
		Initial:        first,
		Final:          last,
		Mean:           mean,
		StdDev:         std,
		Min:            floats.Min(series),
		Max:            floats.Max(series),
		BestGeneration: floats.MaxIdx(series) + 1,
		Improvement:    last - first,
	}
}
