package rng

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSource struct {
	floats int
}

func (s *countingSource) Intn(int) int { return 0 }

func (s *countingSource) Float64() float64 {
	s.floats++
	return 0.5
}

func TestNewIsDeterministic(t *testing.T) {
	a := New(7)
	b := New(7)
	for i := 0; i < 32; i++ {
		assert.Equal(t, a.Intn(100), b.Intn(100))
	}
}

func TestNewSeedIsPositive(t *testing.T) {
	seed, err := NewSeed()
	require.NoError(t, err)
	assert.Positive(t, seed)
}

func TestChanceBoundsDoNotDraw(t *testing.T) {
	src := &countingSource{}
	assert.False(t, Chance(src, 0))
	assert.True(t, Chance(src, 1))
	assert.Equal(t, 0, src.floats)

	assert.True(t, Chance(src, 0.6))
	assert.False(t, Chance(src, 0.4))
	assert.Equal(t, 2, src.floats)
}
