package InputParameters

import (
	"fmt"
	"math"
	"strings"

	"github.com/ghodss/yaml"
	"gonum.org/v1/gonum/optimize"

	"github.com/notargets/gopda/basis"
	"github.com/notargets/gopda/fda"
	"github.com/notargets/gopda/model_problems"
	"github.com/notargets/gopda/pda"
	"github.com/notargets/gopda/utils"
)

// ProblemParameters is an estimation problem read from a YAML file
type ProblemParameters struct {
	Title      string          `json:"Title"`
	Lambda     float64         `json:"Lambda"`
	LambdaPath []float64       `json:"LambdaPath"` // Overrides Lambda when present
	Basis      BasisSpec       `json:"Basis"`
	Operator   OperatorSpec    `json:"Operator"`
	Data       DataSpec        `json:"Data"`
	Optimizer  OptimizerParams `json:"Optimizer"`
}

// BasisSpec selects one of bspline, legendre, monomial or constant. Range
// defaults to the range of the data.
type BasisSpec struct {
	Type      string    `json:"Type"`
	Range     []float64 `json:"Range"`
	NBasis    int       `json:"NBasis"`
	Order     int       `json:"Order"`
	Breaks    []float64 `json:"Breaks"`
	NQuad     int       `json:"NQuad"`
	Exponents []int     `json:"Exponents"`
}

type WeightSpec struct {
	Basis        BasisSpec `json:"Basis"`
	Coefficients []float64 `json:"Coefficients"`
	Estimate     bool      `json:"Estimate"`
	Lambda       float64   `json:"Lambda"`
	PenaltyOrder int       `json:"PenaltyOrder"`
}

type ForcingSpec struct {
	Weight   WeightSpec `json:"Weight"`
	Function FDSpec     `json:"Function"`
}

type FDSpec struct {
	Basis        BasisSpec `json:"Basis"`
	Coefficients []float64 `json:"Coefficients"`
}

type OperatorSpec struct {
	Homogeneous []WeightSpec  `json:"Homogeneous"` // b_0 .. b_{m-1}
	Forcing     []ForcingSpec `json:"Forcing"`
}

// DataSpec holds either explicit samples, Values[i] being the values of every
// curve at Times[i], or a synthetic Model
type DataSpec struct {
	Times   []float64   `json:"Times"`
	Values  [][]float64 `json:"Values"`
	Weights []float64   `json:"Weights"`
	Model   *ModelSpec  `json:"Model"`
}

type ModelSpec struct {
	Type    string  `json:"Type"`
	Omega   float64 `json:"Omega"`
	Zeta    float64 `json:"Zeta"`
	Force   float64 `json:"Force"`
	TMax    float64 `json:"TMax"`
	NCurves int     `json:"NCurves"`
	NPoints int     `json:"NPoints"`
	NoiseSD float64 `json:"NoiseSD"`
	Seed    uint64  `json:"Seed"`
}

type OptimizerParams struct {
	Method            string  `json:"Method"`
	GradientThreshold float64 `json:"GradientThreshold"`
	MajorIterations   int     `json:"MajorIterations"`
}

func (pp *ProblemParameters) Parse(data []byte) error {
	return yaml.Unmarshal(data, pp)
}

func (pp *ProblemParameters) Print() {
	fmt.Printf("\"%s\"\t\t= Title\n", pp.Title)
	if len(pp.LambdaPath) != 0 {
		fmt.Printf("%v\t= Lambda Path\n", pp.LambdaPath)
	} else {
		fmt.Printf("%8.5g\t\t= Lambda\n", pp.Lambda)
	}
	fmt.Printf("[%s]\t\t= Fitting Basis\n", pp.Basis)
	for j, ws := range pp.Operator.Homogeneous {
		fmt.Printf("b%d: [%s] %v estimate=%v\n", j, ws.Basis, ws.Coefficients, ws.Estimate)
	}
	for k, fs := range pp.Operator.Forcing {
		fmt.Printf("a%d: [%s] %v estimate=%v, u%d: [%s] %v\n", k,
			fs.Weight.Basis, fs.Weight.Coefficients, fs.Weight.Estimate,
			k, fs.Function.Basis, fs.Function.Coefficients)
	}
	if m := pp.Data.Model; m != nil {
		fmt.Printf("[%s]\t\t= Model, %d curves, %d points, noise %g\n", m.Type, m.NCurves, m.NPoints, m.NoiseSD)
	} else {
		fmt.Printf("%d sample times\n", len(pp.Data.Times))
	}
}

func (bs BasisSpec) String() string {
	switch strings.ToLower(bs.Type) {
	case "bspline":
		return fmt.Sprintf("bspline, %d functions, order %d", bs.NBasis, bs.Order)
	case "constant", "":
		return "constant"
	}
	return fmt.Sprintf("%s, %d functions", bs.Type, bs.NBasis)
}

// Build constructs the basis over rng unless bs.Range overrides it
func (bs BasisSpec) Build(rng [2]float64) (b basis.Basis, err error) {
	if len(bs.Range) != 0 {
		if len(bs.Range) != 2 {
			err = fmt.Errorf("%w: basis range needs two values, have %v", basis.ErrInvalidBasis, bs.Range)
			return
		}
		rng = [2]float64{bs.Range[0], bs.Range[1]}
	}
	switch strings.ToLower(bs.Type) {
	case "bspline":
		if len(bs.Breaks) != 0 {
			return basis.NewBSplineBreaks(bs.Breaks, bs.Order)
		}
		return basis.NewBSpline(rng, bs.NBasis, bs.Order)
	case "legendre":
		return basis.NewLegendre(rng, bs.NBasis, bs.NQuad)
	case "monomial":
		return basis.NewMonomial(rng, bs.NBasis, bs.Exponents...)
	case "constant", "":
		return basis.NewConstant(rng)
	default:
		err = fmt.Errorf("%w: unknown basis type %q", basis.ErrInvalidBasis, bs.Type)
	}
	return
}

func (fs FDSpec) Build(rng [2]float64) (fd *fda.FD, err error) {
	var b basis.Basis
	if b, err = fs.Basis.Build(rng); err != nil {
		return
	}
	return fda.NewFDVector(fs.Coefficients, b)
}

func (ws WeightSpec) Build(rng [2]float64) (wf *fda.WeightFunction, err error) {
	var fd *fda.FD
	if fd, err = (FDSpec{Basis: ws.Basis, Coefficients: ws.Coefficients}).Build(rng); err != nil {
		return
	}
	if wf, err = fda.NewWeightFunction(fd, ws.Estimate); err != nil {
		return
	}
	wf.WithRoughness(ws.Lambda, ws.PenaltyOrder)
	if err = wf.Validate(); err != nil {
		wf = nil
	}
	return
}

// BuildOperator constructs the operator with every weight and forcing
// function defined over rng
func (pp *ProblemParameters) BuildOperator(rng [2]float64) (op *pda.Operator, err error) {
	op = &pda.Operator{}
	for j, ws := range pp.Operator.Homogeneous {
		var wf *fda.WeightFunction
		if wf, err = ws.Build(rng); err != nil {
			err = fmt.Errorf("homogeneous weight %d: %w", j, err)
			return
		}
		op.Bwt = append(op.Bwt, wf)
	}
	for k, fs := range pp.Operator.Forcing {
		var (
			wf *fda.WeightFunction
			u  *fda.FD
		)
		if wf, err = fs.Weight.Build(rng); err != nil {
			err = fmt.Errorf("forcing weight %d: %w", k, err)
			return
		}
		if u, err = fs.Function.Build(rng); err != nil {
			err = fmt.Errorf("forcing function %d: %w", k, err)
			return
		}
		op.Awt = append(op.Awt, wf)
		op.Ufd = append(op.Ufd, u)
	}
	if err = op.Validate(); err != nil {
		op = nil
	}
	return
}

// Samples returns the sample times and curve values, generating them from
// the model when one is given
func (ds DataSpec) Samples() (times []float64, Y utils.Matrix, err error) {
	if m := ds.Model; m != nil {
		var mp model_problems.ModelProblem
		if mp, err = m.Build(); err != nil {
			return
		}
		times, Y = model_problems.Sample(mp, m.NCurves, m.NPoints, m.NoiseSD, m.Seed)
		return
	}
	var (
		n = len(ds.Times)
	)
	if n == 0 || len(ds.Values) != n {
		err = fmt.Errorf("%w: %d sample times and %d rows of data", fda.ErrDimension, n, len(ds.Values))
		return
	}
	nc := len(ds.Values[0])
	Y = utils.NewMatrix(n, nc)
	for i, row := range ds.Values {
		if len(row) != nc {
			err = fmt.Errorf("%w: row %d has %d values, expected %d", fda.ErrDimension, i, len(row), nc)
			return
		}
		for j, v := range row {
			Y.Set(i, j, v)
		}
	}
	times = ds.Times
	return
}

func (m *ModelSpec) Build() (mp model_problems.ModelProblem, err error) {
	var mt model_problems.ModelType
	if mt, err = model_problems.NewModelType(m.Type); err != nil {
		return
	}
	if m.NCurves < 1 || m.NPoints < 2 || !(m.TMax > 0) {
		err = fmt.Errorf("model %s needs NCurves >= 1, NPoints >= 2 and TMax > 0", m.Type)
		return
	}
	switch mt {
	case model_problems.M_Harmonic:
		mp = model_problems.NewHarmonic(m.Omega, m.TMax, m.NCurves)
	case model_problems.M_DampedForced:
		if !(m.Zeta >= 0 && m.Zeta < 1) {
			err = fmt.Errorf("model %s needs 0 <= Zeta < 1, have %g", m.Type, m.Zeta)
			return
		}
		mp = model_problems.NewDampedForced(m.Omega, m.Zeta, m.Force, m.TMax, m.NCurves)
	}
	return
}

// Build assembles the smoothing data, its range and the starting operator
func (pp *ProblemParameters) Build() (data *fda.SmoothingData, op *pda.Operator, err error) {
	var (
		times []float64
		Y     utils.Matrix
		b     basis.Basis
	)
	if times, Y, err = pp.Data.Samples(); err != nil {
		return
	}
	rng := [2]float64{math.Inf(1), math.Inf(-1)}
	for _, t := range times {
		rng[0], rng[1] = math.Min(rng[0], t), math.Max(rng[1], t)
	}
	if b, err = pp.Basis.Build(rng); err != nil {
		return
	}
	if data, err = fda.NewSmoothingData(times, Y, b, pp.Data.Weights); err != nil {
		return
	}
	if op, err = pp.BuildOperator(b.Range()); err != nil {
		data = nil
	}
	return
}

// Lambdas is the smoothing parameter path, or the single Lambda
func (pp *ProblemParameters) Lambdas() []float64 {
	if len(pp.LambdaPath) != 0 {
		return pp.LambdaPath
	}
	return []float64{pp.Lambda}
}

// Cascade configures the optimizer settings over an objective
func (op OptimizerParams) Cascade(o *pda.Objective) (c *pda.Cascade, err error) {
	c = pda.NewCascade(o)
	if op.GradientThreshold > 0 {
		c.Settings.GradientThreshold = op.GradientThreshold
	}
	if op.MajorIterations > 0 {
		c.Settings.MajorIterations = op.MajorIterations
	}
	switch strings.ToLower(op.Method) {
	case "bfgs", "":
		c.Method = &optimize.BFGS{}
	case "lbfgs":
		c.Method = &optimize.LBFGS{}
	case "cg":
		c.Method = &optimize.CG{}
	case "gradientdescent":
		c.Method = &optimize.GradientDescent{}
	case "neldermead":
		c.Method = &optimize.NelderMead{}
	default:
		c, err = nil, fmt.Errorf("unknown optimizer method %q, have BFGS, LBFGS, CG, GradientDescent, NelderMead", op.Method)
	}
	return
}

// ExampleFile is printed when no problem file is given
const ExampleFile = `
########################################
Title: "Harmonic oscillator"
LambdaPath: [0.01, 1, 100]
Basis:
  Type: bspline
  NBasis: 15
  Order: 6
Operator:
  Homogeneous:
    - Basis: {Type: constant}
      Coefficients: [30]
      Estimate: true
    - Basis: {Type: constant}
      Coefficients: [0]
Data:
  Model:
    Type: Harmonic
    Omega: 6.283185307
    TMax: 1
    NCurves: 3
    NPoints: 41
    NoiseSD: 0.01
    Seed: 1
Optimizer:
  Method: BFGS
  GradientThreshold: 1.0e-8
########################################
`
