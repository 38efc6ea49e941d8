package pda

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/optimize"
)

// Cascade minimizes the profiled SSE over the free weight coefficients with
// a gonum quasi-Newton method.
type Cascade struct {
	Objective *Objective
	Settings  *optimize.Settings
	Method    optimize.Method
}

type CascadeResult struct {
	Bvec     []float64
	Operator *Operator
	Result   *Result
	Status   optimize.Status
	Stats    optimize.Stats
	// OptErr is the optimizer's complaint when it stopped early but still
	// produced a location
	OptErr error
}

func NewCascade(o *Objective) *Cascade {
	return &Cascade{
		Objective: o,
		Settings: &optimize.Settings{
			GradientThreshold: 1.e-8,
			MajorIterations:   500,
		},
		Method: &optimize.BFGS{},
	}
}

// memo keeps the last gradient evaluation so Func and Grad at the same point
// cost one objective call
type memo struct {
	o   *Objective
	x   []float64
	res *Result
	err error
}

func (mm *memo) at(x []float64) (*Result, error) {
	if mm.x != nil && floats.Equal(mm.x, x) {
		return mm.res, mm.err
	}
	mm.x = append(mm.x[:0], x...)
	mm.res, mm.err = mm.o.EvalGrad(x)
	return mm.res, mm.err
}

// Estimate runs the optimizer from bvec0, or from the operator's current
// coefficients when bvec0 is nil
func (c *Cascade) Estimate(bvec0 []float64) (cr *CascadeResult, err error) {
	var (
		o      = c.Objective
		layout = o.Layout()
	)
	if bvec0 == nil {
		bvec0 = o.InitialParameters()
	}
	if len(bvec0) != layout.Size {
		err = fmt.Errorf("%w: have %d, need %d", ErrParameterLength, len(bvec0), layout.Size)
		return
	}
	cr = &CascadeResult{Bvec: append([]float64(nil), bvec0...)}
	if layout.Size == 0 {
		if cr.Result, err = o.EvalGrad(cr.Bvec); err != nil {
			cr = nil
			return
		}
		cr.Operator = cr.Result.Operator
		cr.Status = optimize.Success
		return
	}

	var (
		mm       = &memo{o: o}
		firstErr error
	)
	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			res, err := mm.at(x)
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				return math.Inf(1)
			}
			return res.SSE
		},
		Grad: func(grad, x []float64) {
			res, err := mm.at(x)
			if err != nil {
				for i := range grad {
					grad[i] = math.NaN()
				}
				return
			}
			copy(grad, res.DSSE)
		},
	}
	result, optErr := optimize.Minimize(problem, bvec0, c.Settings, c.Method)
	if result == nil {
		if firstErr != nil {
			optErr = fmt.Errorf("%v: %w", optErr, firstErr)
		}
		cr, err = nil, optErr
		return
	}
	if o.Verbose && optErr != nil {
		fmt.Printf("optimizer stopped early: %v\n", optErr)
	}
	cr.OptErr = optErr
	cr.Bvec = append(cr.Bvec[:0], result.X...)
	cr.Status = result.Status
	cr.Stats = result.Stats
	if cr.Result, err = o.EvalGrad(cr.Bvec); err != nil {
		cr = nil
		return
	}
	cr.Operator = cr.Result.Operator
	return
}

// LambdaFit is one point of a smoothing parameter search
type LambdaFit struct {
	Lambda float64
	Fit    *CascadeResult
}

// LambdaPath estimates the operator for each smoothing parameter in turn,
// warm starting from the previous solution, and returns the index of the
// smallest finite GCV (-1 if none is finite).
func (c *Cascade) LambdaPath(lambdas []float64) (path []LambdaFit, best int, err error) {
	var (
		bvec    []float64
		bestGCV = math.Inf(1)
	)
	best = -1
	for _, lambda := range lambdas {
		cc := *c
		cc.Objective = c.Objective.WithLambda(lambda)
		var cr *CascadeResult
		if cr, err = cc.Estimate(bvec); err != nil {
			err = fmt.Errorf("lambda %g: %w", lambda, err)
			return
		}
		if c.Objective.Verbose {
			fmt.Printf("lambda = %10.4e, SSE = %12.6e, df = %8.3f, GCV = %12.6e\n",
				lambda, cr.Result.SSE, cr.Result.DF, cr.Result.GCV)
		}
		path = append(path, LambdaFit{Lambda: lambda, Fit: cr})
		if g := cr.Result.GCV; !math.IsNaN(g) && g < bestGCV {
			bestGCV, best = g, len(path)-1
		}
		bvec = cr.Bvec
	}
	return
}
