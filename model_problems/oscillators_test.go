package model_problems

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat"
)

// residual of x'' + b1 x' + b0 x + a u by central differences
func odeResidual(mp ModelProblem, c int, t float64) float64 {
	var (
		h     = 1.e-4
		tr    = mp.Truth()
		x     = mp.Curve(c, t)
		xp    = mp.Curve(c, t+h)
		xm    = mp.Curve(c, t-h)
		d1    = (xp - xm) / (2 * h)
		d2    = (xp - 2*x + xm) / (h * h)
		force float64
	)
	for k := range tr.A {
		force += tr.A[k] * tr.U[k]
	}
	return d2 + tr.B[1]*d1 + tr.B[0]*x + force
}

func TestModelProblems(t *testing.T) {
	{
		h := NewHarmonic(2*math.Pi, 1, 3)
		for c := 0; c < 3; c++ {
			for _, tt := range []float64{0.1, 0.5, 0.9} {
				assert.InDelta(t, 0., odeResidual(h, c, tt), 1.e-3)
			}
		}
		assert.InDelta(t, 4*math.Pi*math.Pi, h.Truth().B[0], 1.e-12)
	}
	{
		d := NewDampedForced(5, 0.2, 3, 2, 2)
		for c := 0; c < 2; c++ {
			// starts from rest
			assert.InDelta(t, -float64(c)/2., d.Curve(c, 0), 1.e-12)
			assert.InDelta(t, 0., (d.Curve(c, 1.e-6)-d.Curve(c, -1.e-6))/2.e-6, 1.e-6)
			for _, tt := range []float64{0.3, 1.1, 1.7} {
				assert.InDelta(t, 0., odeResidual(d, c, tt), 1.e-3)
			}
		}
	}
	{
		mt, err := NewModelType("damped")
		require.NoError(t, err)
		assert.Equal(t, M_DampedForced, mt)
		_, err = NewModelType("lorenz")
		assert.Error(t, err)
	}
}

func TestSample(t *testing.T) {
	h := NewHarmonic(3, 2, 2)
	times, Y := Sample(h, 2, 2001, 0.1, 7)
	require.Len(t, times, 2001)
	assert.Equal(t, 0., times[0])
	assert.Equal(t, 2., times[2000])
	noise := make([]float64, len(times))
	for i, tt := range times {
		noise[i] = Y.At(i, 1) - h.Curve(1, tt)
	}
	assert.InDelta(t, 0.1, stat.StdDev(noise, nil), 0.01)
	// same seed, same data
	_, Y2 := Sample(h, 2, 2001, 0.1, 7)
	assert.Equal(t, Y.Data(), Y2.Data())
	// noise free
	_, Y3 := Sample(h, 2, 11, 0, 7)
	assert.InDelta(t, h.Curve(0, 0.2), Y3.At(1, 0), 1.e-15)
}
