package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSummarize(t *testing.T) {
	s := Summarize([]float64{10, 20, 30, 20})
	assert.Equal(t, 4, s.Generations)
	assert.Equal(t, 10.0, s.Initial)
	assert.Equal(t, 20.0, s.Final)
	assert.InDelta(t, 20.0, s.Mean, 1e-9)
	assert.InDelta(t, 7.0710678, s.StdDev, 1e-6)
	assert.Equal(t, 10.0, s.Min)
	assert.Equal(t, 30.0, s.Max)
	assert.Equal(t, 3, s.BestGeneration)
	assert.Equal(t, 10.0, s.Improvement)
}

func TestSummarizeEmpty(t *testing.T) {
	assert.Equal(t, Summary{}, Summarize(nil))
}
