package pda

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/gopda/basis"
	"github.com/notargets/gopda/fda"
	"github.com/notargets/gopda/model_problems"
)

func TestCascadeHarmonic(t *testing.T) {
	var (
		omega2 = 4 * math.Pi * math.Pi
		data   = harmonicData(t, 15, 41, 3, 0.01)
		op     = &Operator{
			Bwt: []*fda.WeightFunction{
				constWeight(t, 30, true),
				constWeight(t, 0, false),
			},
		}
	)
	o, err := NewObjective(op, data, 1)
	require.NoError(t, err)
	c := NewCascade(o)
	cr, err := c.Estimate(nil)
	require.NoError(t, err)
	require.Len(t, cr.Bvec, 1)
	assert.InEpsilon(t, omega2, cr.Bvec[0], 0.02)
	assert.Equal(t, cr.Bvec, NewLayout(cr.Operator).Pack(cr.Operator))
	assert.Greater(t, cr.Stats.FuncEvaluations, 0)
	assert.Less(t, cr.Result.SSE, 41*3*1.e-3)
	// Starting operator is untouched
	assert.Equal(t, []float64{30}, op.Bwt[0].Coefficients())

	_, err = c.Estimate([]float64{1, 2})
	assert.ErrorIs(t, err, ErrParameterLength)
}

func TestCascadeForced(t *testing.T) {
	var (
		rng = [2]float64{0, 2}
		mp  = model_problems.NewDampedForced(5, 0.1, 3, 2, 2)
		tr  = mp.Truth()
		cw  = func(v float64) *fda.WeightFunction {
			wf, err := fda.NewConstantWeight(rng, v, true)
			require.NoError(t, err)
			return wf
		}
	)
	times, Y := model_problems.Sample(mp, 2, 61, 0.002, 3)
	b, err := basis.NewBSpline(rng, 25, 6)
	require.NoError(t, err)
	data, err := fda.NewSmoothingData(times, Y, b)
	require.NoError(t, err)
	cb, err := basis.NewConstant(rng)
	require.NoError(t, err)
	u, err := fda.NewFDVector(tr.U, cb)
	require.NoError(t, err)
	op := &Operator{
		Bwt: []*fda.WeightFunction{cw(20), cw(0)},
		Awt: []*fda.WeightFunction{cw(0)},
		Ufd: []*fda.FD{u},
	}
	o, err := NewObjective(op, data, 10)
	require.NoError(t, err)
	cr, err := NewCascade(o).Estimate(nil)
	require.NoError(t, err)
	require.Len(t, cr.Bvec, 3)
	assert.InDelta(t, tr.B[0], cr.Bvec[0], 0.5)
	assert.InDelta(t, tr.B[1], cr.Bvec[1], 0.1)
	assert.InDelta(t, tr.A[0], cr.Bvec[2], 0.15)
}

func TestCascadeNoParameters(t *testing.T) {
	var (
		data = stepData(t, []float64{1, 2, 3, 4})
		op   = fixAll(firstOrderOperator(t, 2, 0, false))
	)
	o, err := NewObjective(op, data, 0.5)
	require.NoError(t, err)
	cr, err := NewCascade(o).Estimate(nil)
	require.NoError(t, err)
	assert.Empty(t, cr.Bvec)
	assert.NotNil(t, cr.Result.DSSE)
	ref, err := o.Eval(nil)
	require.NoError(t, err)
	assert.Equal(t, ref.SSE, cr.Result.SSE)
}

func TestLambdaPath(t *testing.T) {
	var (
		data = harmonicData(t, 15, 41, 3, 0.01)
		op   = &Operator{
			Bwt: []*fda.WeightFunction{
				constWeight(t, 35, true),
				constWeight(t, 0, false),
			},
		}
		lambdas = []float64{1.e-2, 1, 1.e2}
	)
	o, err := NewObjective(op, data, 0)
	require.NoError(t, err)
	path, best, err := NewCascade(o).LambdaPath(lambdas)
	require.NoError(t, err)
	require.Len(t, path, len(lambdas))
	require.True(t, best >= 0 && best < len(path))
	for i, lf := range path {
		assert.Equal(t, lambdas[i], lf.Lambda)
		assert.Equal(t, lambdas[i], lf.Fit.Result.Lambda)
		if g := lf.Fit.Result.GCV; !math.IsNaN(g) {
			assert.LessOrEqual(t, path[best].Fit.Result.GCV, g)
		}
	}
	// The objective itself keeps its smoothing parameter
	assert.Equal(t, 0., o.Lambda)
}
