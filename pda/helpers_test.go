package pda

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/notargets/gopda/basis"
	"github.com/notargets/gopda/fda"
	"github.com/notargets/gopda/model_problems"
	"github.com/notargets/gopda/utils"
)

func vecMatrix(vals ...float64) utils.Matrix {
	return utils.NewMatrix(len(vals), 1, append([]float64(nil), vals...))
}

func matrixOf(nr, nc int, data []float64) utils.Matrix {
	return utils.NewMatrix(nr, nc, append([]float64(nil), data...))
}

func mustWeight(t *testing.T, fd *fda.FD, estimate bool) *fda.WeightFunction {
	wf, err := fda.NewWeightFunction(fd, estimate)
	require.NoError(t, err)
	return wf
}

func constWeight(t *testing.T, value float64, estimate bool) *fda.WeightFunction {
	wf, err := fda.NewConstantWeight([2]float64{0, 1}, value, estimate)
	require.NoError(t, err)
	return wf
}

// unitForcing is u(t) = 1 on [0,1]
func unitForcing(t *testing.T) *fda.FD {
	cb, err := basis.NewConstant([2]float64{0, 1})
	require.NoError(t, err)
	u, err := fda.NewFDVector([]float64{1}, cb)
	require.NoError(t, err)
	return u
}

// harmonicData samples sin(2 pi t + phase) on [0,1] and projects onto an
// order 6 B-spline basis with nbasis functions
func harmonicData(t *testing.T, nbasis, npts, ncurves int, noiseSD float64) *fda.SmoothingData {
	mp := model_problems.NewHarmonic(2*math.Pi, 1, ncurves)
	times, Y := model_problems.Sample(mp, ncurves, npts, noiseSD, 11)
	b, err := basis.NewBSpline(mp.Range(), nbasis, 6)
	require.NoError(t, err)
	sd, err := fda.NewSmoothingData(times, Y, b)
	require.NoError(t, err)
	return sd
}

// stepData puts one sample in each of the four intervals of an order one
// B-spline, so Basismat and Bmat are the identity
func stepData(t *testing.T, y []float64) *fda.SmoothingData {
	b, err := basis.NewBSpline([2]float64{0, 1}, 4, 1)
	require.NoError(t, err)
	sd, err := fda.NewSmoothingData([]float64{0.125, 0.375, 0.625, 0.875}, vecMatrix(y...), b)
	require.NoError(t, err)
	return sd
}
