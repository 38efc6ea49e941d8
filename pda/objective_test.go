package pda

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/mat"

	"github.com/notargets/gopda/basis"
	"github.com/notargets/gopda/fda"
	"github.com/notargets/gopda/model_problems"
	"github.com/notargets/gopda/utils"
)

func TestGCV(t *testing.T) {
	assert.InDelta(t, (2./10.)/0.25, GCV(2, 5, 10), 1.e-15)
	assert.True(t, math.IsNaN(GCV(1, 10, 10)))
	assert.True(t, math.IsNaN(GCV(1, 11, 10)))
}

func TestProfPDAStep(t *testing.T) {
	var (
		y    = []float64{1, -2, 0.5, 3}
		h    = 0.25 // interval width, R = b0^2 h I
		b0   = 2.
		data = stepData(t, y)
	)
	{ // Interpolation at lambda = 0 leaves no degrees of freedom
		op := firstOrderOperator(t, b0, 0, false)
		res, err := ProfPDA(nil, fixAll(op), data, 0)
		require.NoError(t, err)
		assert.InDelta(t, 0., res.SSE, 1.e-28)
		assert.Equal(t, 4., res.DF)
		assert.True(t, math.IsNaN(res.GCV))
		assert.Nil(t, res.DSSE)
		assert.Empty(t, res.Warnings)
	}
	{ // Diagonal system, solved in closed form
		var (
			a      = 1.5
			lambda = 0.8
			op     = fixAll(firstOrderOperator(t, b0, a, true))
			shrink = 1 + lambda*b0*b0*h
		)
		res, err := ProfPDAGrad(nil, op, data, lambda)
		require.NoError(t, err)
		assert.NotNil(t, res.DSSE)
		assert.Len(t, res.DSSE, 0)
		var sse, pen float64
		for i, yi := range y {
			c := (yi - lambda*h*b0*a) / shrink
			assert.InDelta(t, c, res.Fd.Coef.At(i, 0), 1.e-14)
			sse += (yi - c) * (yi - c)
			pen += b0 * b0 * h * c * c
		}
		assert.InDelta(t, 4/shrink, res.DF, 1.e-14)
		assert.InDelta(t, sse, res.SSE, 1.e-13)
		assert.InDelta(t, sse+lambda*pen, res.PENSSE, 1.e-13)
		assert.InDelta(t, GCV(sse, 4/shrink, 4), res.GCV, 1.e-13)
		assert.Equal(t, lambda, res.Lambda)
	}
}

// fixAll marks every weight of op as fixed
func fixAll(op *Operator) *Operator {
	for _, wf := range op.Bwt {
		wf.Estimate = false
	}
	for _, wf := range op.Awt {
		wf.Estimate = false
	}
	return op
}

func TestLambdaGuards(t *testing.T) {
	var (
		data = stepData(t, []float64{1, 2, 3, 4})
		op   = fixAll(firstOrderOperator(t, 2, 0, false))
	)
	ref, err := ProfPDA(nil, op, data, 0)
	require.NoError(t, err)
	{
		res, err := ProfPDA(nil, op, data, -3)
		require.NoError(t, err)
		require.Len(t, res.Warnings, 1)
		assert.Equal(t, NegativeLambda, res.Warnings[0].Kind)
		assert.Equal(t, -3., res.Warnings[0].Original)
		assert.Equal(t, 0., res.Lambda)
		assert.Equal(t, ref.SSE, res.SSE)
		assert.Equal(t, ref.DF, res.DF)
	}
	{
		// ||R||_F / ||Bmat||_F = b0^2 h = 1
		res, err := ProfPDA(nil, op, data, 1.e13, WithVerbose(true))
		require.NoError(t, err)
		assert.InDelta(t, 1., res.CondNo, 1.e-14)
		require.Len(t, res.Warnings, 1)
		w := res.Warnings[0]
		assert.Equal(t, IllConditioned, w.Kind)
		assert.Equal(t, 1.e13, w.Original)
		assert.Equal(t, CondNoMax/res.CondNo, res.Lambda)
		assert.Equal(t, res.Lambda, w.Adjusted)
		assert.Contains(t, w.String(), "reduced")
	}
	{
		res, err := ProfPDA(nil, op, data, 1.e11)
		require.NoError(t, err)
		assert.Empty(t, res.Warnings)
		assert.Equal(t, 1.e11, res.Lambda)
	}
}

func TestProfPDALeastSquares(t *testing.T) {
	// Fixed weights and lambda = 0 reduce to ordinary least squares
	var (
		mp = model_problems.NewHarmonic(2*math.Pi, 1, 4)
		op = &Operator{
			Bwt: []*fda.WeightFunction{
				constWeight(t, 4*math.Pi*math.Pi, false),
				constWeight(t, 0, false),
			},
		}
	)
	times, Y := model_problems.Sample(mp, 4, 20, 0.05, 5)
	cubic, err := basis.NewBSpline(mp.Range(), 4, 4)
	require.NoError(t, err)
	data, err := fda.NewSmoothingData(times, Y, cubic)
	require.NoError(t, err)
	dmat := data.Dmat.Copy()

	res, err := ProfPDAGrad(nil, op, data, 0)
	require.NoError(t, err)
	var coef mat.Dense
	require.NoError(t, coef.Solve(data.Bmat.M, data.Dmat.M))
	assert.InDelta(t, 0., res.Fd.Coef.MaxAbsDiff(&coef), 1.e-10)
	assert.InDelta(t, 4., res.DF, 1.e-10)
	assert.Equal(t, res.SSE, res.PENSSE)
	assert.NotNil(t, res.DSSE)
	assert.Empty(t, res.DSSE)
	assert.InDelta(t, res.SSE, res.Residuals.SumSquares(), 1.e-12)
	assert.Equal(t, 4, res.Fd.NCurves())
	assert.InDelta(t, GCV(res.SSE, res.DF, 20), res.GCV, 1.e-12)
	assert.Equal(t, dmat.Data(), data.Dmat.Data())
}

func TestZeroForcing(t *testing.T) {
	var (
		data = harmonicData(t, 10, 25, 2, 0.01)
		op   = firstOrderOperator(t, 3, 0, false)
		opz  = firstOrderOperator(t, 3, 0, true)
	)
	res, err := ProfPDA([]float64{3}, op, data, 0.1)
	require.NoError(t, err)
	resz, err := ProfPDA([]float64{3, 0}, opz, data, 0.1)
	require.NoError(t, err)
	assert.InDelta(t, res.SSE, resz.SSE, 1.e-14)
	assert.InDelta(t, 0., res.Fd.Coef.MaxAbsDiff(resz.Fd.Coef), 1.e-14)
}

// gradientProblem estimates a spline b0, a constant b1 and a constant
// forcing weight, with its own roughness penalty on b0
func gradientProblem(t *testing.T) *Objective {
	var (
		rng  = [2]float64{0, 1}
		data = harmonicData(t, 12, 31, 3, 0.02)
	)
	wb, err := basis.NewBSpline(rng, 3, 2)
	require.NoError(t, err)
	b0, err := fda.NewFD(vecMatrix(35, 42, 38), wb)
	require.NoError(t, err)
	op := &Operator{
		Bwt: []*fda.WeightFunction{
			mustWeight(t, b0, true).WithRoughness(0.1, 1),
			constWeight(t, 0.3, true),
		},
		Awt: []*fda.WeightFunction{constWeight(t, 0.5, true)},
		Ufd: []*fda.FD{unitForcing(t)},
	}
	o, err := NewObjective(op, data, 0.5)
	require.NoError(t, err)
	return o
}

func TestProfPDAGradient(t *testing.T) {
	o := gradientProblem(t)
	var (
		layout = o.Layout()
		bvec   = o.InitialParameters()
	)
	require.Equal(t, 5, layout.Size)
	require.Equal(t, 4, layout.NHomogeneous)

	res, err := o.EvalGrad(bvec)
	require.NoError(t, err)
	require.Len(t, res.DSSE, layout.Size)

	sse := func(x []float64) float64 {
		r, err := o.Eval(x)
		require.NoError(t, err)
		return r.SSE
	}
	num := fd.Gradient(nil, sse, append([]float64(nil), bvec...), &fd.Settings{Formula: fd.Central, Step: 1.e-6})
	for m, g := range num {
		assert.InDelta(t, g, res.DSSE[m], 1.e-6+1.e-4*math.Abs(g), layout.Names()[m])
	}

	// The weight roughness enters SSE and not PENSSE
	noRough := o.Operator.Copy()
	noRough.Bwt[0].Lambda = 0
	res0, err := ProfPDA(bvec, noRough, o.Data, o.Lambda)
	require.NoError(t, err)
	P, err := o.Operator.Bwt[0].Penalty()
	require.NoError(t, err)
	rough := 0.1 * basis.EvalQuadratic(P, o.Operator.Bwt[0].Coefficients())
	assert.Greater(t, rough, 0.)
	assert.InDelta(t, res0.SSE+rough, res.SSE, 1.e-10)
	assert.InDelta(t, res0.PENSSE, res.PENSSE, 1.e-10)

	// Evaluation never touches the caller's operator
	assert.Equal(t, bvec, o.InitialParameters())
}

func TestObjectiveErrors(t *testing.T) {
	var (
		data = stepData(t, []float64{1, 2, 3, 4})
		op   = firstOrderOperator(t, 1, 0, false)
	)
	_, err := NewObjective(op, nil, 1)
	assert.ErrorIs(t, err, ErrNoData)
	_, err = ProfPDA(nil, &Operator{}, data, 1)
	assert.ErrorIs(t, err, ErrNoOperator)
	_, err = ProfPDA([]float64{1, 2}, op, data, 1)
	assert.ErrorIs(t, err, ErrParameterLength)

	// An order one spline interval holding no sample leaves Bmat singular
	// when lambda = 0
	b, err := basis.NewBSpline([2]float64{0, 1}, 4, 1)
	require.NoError(t, err)
	sparseData, err := fda.NewSmoothingData([]float64{0.1, 0.3, 0.6}, utils.NewMatrix(3, 1), b)
	require.NoError(t, err)
	_, err = ProfPDA(nil, fixAll(firstOrderOperator(t, 1, 0, false)), sparseData, 0)
	assert.ErrorIs(t, err, ErrSingular)
}
