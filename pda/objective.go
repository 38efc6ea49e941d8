package pda

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/notargets/gopda/basis"
	"github.com/notargets/gopda/fda"
	"github.com/notargets/gopda/utils"
)

// CondNoMax bounds lambda * ||R||_F / ||Bmat||_F
const CondNoMax = 1.e12

type WarningKind uint8

const (
	NegativeLambda WarningKind = iota
	IllConditioned
)

// Warning records a recoverable adjustment made during an evaluation
type Warning struct {
	Kind               WarningKind
	Original, Adjusted float64
}

func (w Warning) String() string {
	switch w.Kind {
	case NegativeLambda:
		return fmt.Sprintf("lambda %g was negative, set to %g", w.Original, w.Adjusted)
	case IllConditioned:
		return fmt.Sprintf("lambda %g too large for conditioning, reduced to %g", w.Original, w.Adjusted)
	}
	return "unknown warning"
}

// Result of one objective evaluation. SSE includes the roughness terms of
// the estimated weight functions; PENSSE is the data SSE plus the curve
// roughness lambda * trace(coef^T R coef).
type Result struct {
	SSE, PENSSE float64
	DF, GCV     float64
	// Lambda is the smoothing parameter actually used
	Lambda float64
	CondNo float64
	// DSSE is nil unless the gradient was requested
	DSSE      []float64
	Fd        *fda.FD
	Residuals utils.Matrix
	Operator  *Operator
	Warnings  []Warning
}

// Objective is the profiled error sum of squares as a function of the free
// weight coefficients, for fixed data and smoothing parameter.
type Objective struct {
	Operator *Operator
	Data     *fda.SmoothingData
	Lambda   float64
	Verbose  bool
	layout   *Layout
}

type Option func(*Objective)

func WithVerbose(verbose bool) Option {
	return func(o *Objective) { o.Verbose = verbose }
}

func NewObjective(op *Operator, data *fda.SmoothingData, lambda float64, opts ...Option) (o *Objective, err error) {
	if data == nil {
		err = ErrNoData
		return
	}
	if err = basis.Validate(data.Basis); err != nil {
		return
	}
	if err = op.Validate(); err != nil {
		return
	}
	o = &Objective{
		Operator: op,
		Data:     data,
		Lambda:   lambda,
		layout:   NewLayout(op),
	}
	for _, opt := range opts {
		opt(o)
	}
	return
}

func (o *Objective) Layout() *Layout { return o.layout }

// InitialParameters packs the current coefficients of the operator
func (o *Objective) InitialParameters() []float64 { return o.layout.Pack(o.Operator) }

// WithLambda returns a copy of the objective using another smoothing parameter
func (o *Objective) WithLambda(lambda float64) *Objective {
	c := *o
	c.Lambda = lambda
	return &c
}

// ProfPDA evaluates SSE, PENSSE, df and GCV at bvec
func ProfPDA(bvec []float64, op *Operator, data *fda.SmoothingData, lambda float64, opts ...Option) (*Result, error) {
	o, err := NewObjective(op, data, lambda, opts...)
	if err != nil {
		return nil, err
	}
	return o.Eval(bvec)
}

// ProfPDAGrad is ProfPDA with the gradient of SSE in Result.DSSE
func ProfPDAGrad(bvec []float64, op *Operator, data *fda.SmoothingData, lambda float64, opts ...Option) (*Result, error) {
	o, err := NewObjective(op, data, lambda, opts...)
	if err != nil {
		return nil, err
	}
	return o.EvalGrad(bvec)
}

func (o *Objective) Eval(bvec []float64) (*Result, error) { return o.evaluate(bvec, false) }

func (o *Objective) EvalGrad(bvec []float64) (*Result, error) { return o.evaluate(bvec, true) }

func (o *Objective) evaluate(bvec []float64, wantGrad bool) (res *Result, err error) {
	var (
		data   = o.Data
		layout = o.layout
		op     *Operator
		pen    *Penalty
	)
	if op, err = layout.Unpack(bvec, o.Operator); err != nil {
		return
	}
	if pen, err = EvalRs(op, data.Basis, layout, wantGrad); err != nil {
		return
	}
	res = &Result{Operator: op}

	lambda := o.Lambda
	if lambda < 0 {
		res.warn(o.Verbose, Warning{NegativeLambda, lambda, 0})
		lambda = 0
	}
	res.CondNo = pen.R.FrobeniusNorm() / data.Bmat.FrobeniusNorm()
	if lambda*res.CondNo > CondNoMax {
		adjusted := CondNoMax / res.CondNo
		res.warn(o.Verbose, Warning{IllConditioned, lambda, adjusted})
		lambda = adjusted
	}
	res.Lambda = lambda

	Mmat := data.Bmat.Copy().AddScaled(lambda, pen.R)
	rhs := data.Dmat.Copy()
	if pen.S != nil {
		rhs.AddToCols(utils.NewVector(len(pen.S), pen.S).Copy().Scale(lambda).Data())
	}

	var Mmatinv utils.Matrix
	if Mmat.IsDiagonal() {
		Mmatinv, err = Mmat.InverseDiagonal()
	} else {
		Mmatinv, err = Mmat.Inverse()
	}
	if err != nil {
		res = nil
		err = fmt.Errorf("%w: %v", ErrSingular, err)
		return
	}
	res.DF = Mmatinv.Mul(data.Bmat).Trace()

	coef := Mmatinv.Mul(rhs)
	res.Residuals = data.Residuals(coef)
	res.SSE = data.WeightedSSE(res.Residuals)
	res.PENSSE = res.SSE + lambda*coef.TransposeMul(pen.R.Mul(coef)).Trace()
	if res.Fd, err = fda.NewFD(coef, data.Basis); err != nil {
		res = nil
		return
	}

	// Roughness of the estimated weight functions enters SSE only
	for _, blk := range layout.Blocks {
		var rough float64
		if rough, err = op.Weight(blk).RoughnessPenalty(); err != nil {
			res = nil
			return
		}
		res.SSE += rough
	}

	if wantGrad {
		if res.DSSE, err = o.gradient(op, pen, Mmatinv, coef, res.Residuals, lambda); err != nil {
			res = nil
			return
		}
	}

	res.GCV = GCV(res.SSE, res.DF, data.N())
	return
}

func (o *Objective) gradient(op *Operator, pen *Penalty, Mmatinv, coef, residuals utils.Matrix,
	lambda float64) (DSSE []float64, err error) {
	var (
		data   = o.Data
		layout = o.layout
	)
	DSSE = make([]float64, layout.Size)
	if layout.Size == 0 {
		return
	}
	// G = (Basismat Mmatinv)^T W res, so trace(res^T W PhiMmatinv X) = <G, X>
	PhiMmatinv := data.Basismat.Mul(Mmatinv)
	Wres := residuals.Copy()
	if data.Weights != nil {
		Wres.ScaleRows(data.Weights)
	}
	G := PhiMmatinv.TransposeMul(Wres)
	var Gsum []float64
	if !pen.DS.IsEmpty() {
		Gsum = rowSums(G)
	}
	for m := 0; m < layout.Size; m++ {
		var d float64
		if m < layout.NHomogeneous {
			d = floats.Dot(G.Data(), pen.DR[m].Mul(coef).Data())
		}
		if Gsum != nil {
			d -= floats.Dot(Gsum, pen.DS.Col(m).Data())
		}
		DSSE[m] = 2 * lambda * d
	}
	for _, blk := range layout.Blocks {
		wf := op.Weight(blk)
		if wf.Lambda <= 0 {
			continue
		}
		var P utils.Matrix
		if P, err = wf.Penalty(); err != nil {
			return
		}
		Pc := P.Mul(utils.NewVector(blk.Length, wf.Coefficients())).Data()
		floats.AddScaled(DSSE[blk.Offset:blk.Offset+blk.Length], 2*wf.Lambda, Pc)
	}
	return
}

// GCV is (SSE/n) / ((n-df)/n)^2, NaN when df >= n
func GCV(sse, df float64, n int) float64 {
	fn := float64(n)
	if !(df < fn) {
		return math.NaN()
	}
	return (sse / fn) / utils.POW((fn-df)/fn, 2)
}

func (r *Result) warn(verbose bool, w Warning) {
	r.Warnings = append(r.Warnings, w)
	if verbose {
		fmt.Printf("warning: %s\n", w)
	}
}

func rowSums(A utils.Matrix) (s []float64) {
	var (
		nr, _ = A.Dims()
	)
	s = make([]float64, nr)
	for i := range s {
		s[i] = floats.Sum(A.M.RawRowView(i))
	}
	return
}
