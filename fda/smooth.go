package fda

import (
	"fmt"

	"github.com/james-bowman/sparse"

	"github.com/notargets/gopda/basis"
	"github.com/notargets/gopda/utils"
)

// SparseEvaluator is implemented by bases with compact support, whose
// design matrices are mostly zeros.
type SparseEvaluator interface {
	EvalSparse(t []float64, nderiv int) (*sparse.CSR, error)
}

// SmoothingData carries sampled curves and the matrices that stay fixed while
// the operator estimate changes: Basismat = Phi(t), Bmat = Phi^T W Phi and
// Dmat = Phi^T W y. All matrices are read only.
type SmoothingData struct {
	Times    []float64
	Y        utils.Matrix
	Weights  []float64
	Basis    basis.Basis
	Basismat utils.Matrix
	Bmat     utils.Matrix
	Dmat     utils.Matrix
}

// NewSmoothingData precomputes the fixed matrices for curves y (one column per
// curve, one row per entry of times). Observation weights are optional.
func NewSmoothingData(times []float64, y utils.Matrix, b basis.Basis, weightsO ...[]float64) (sd *SmoothingData, err error) {
	if err = basis.Validate(b); err != nil {
		return
	}
	var (
		n       = len(times)
		weights []float64
	)
	if y.IsEmpty() {
		err = fmt.Errorf("%w: no curve data", ErrDimension)
		return
	}
	if nr, _ := y.Dims(); nr != n {
		err = fmt.Errorf("%w: %d sample times but %d data rows", ErrDimension, n, nr)
		return
	}
	if utils.NanOrInf(y) {
		err = fmt.Errorf("%w: curve data contains NaN or Inf", ErrNonFinite)
		return
	}
	if len(weightsO) != 0 && weightsO[0] != nil {
		weights = weightsO[0]
		if len(weights) != n {
			err = fmt.Errorf("%w: %d weights for %d sample times", ErrDimension, len(weights), n)
			return
		}
		if utils.NanOrInf(weights) {
			err = fmt.Errorf("%w: observation weights contain NaN or Inf", ErrNonFinite)
			return
		}
		for _, w := range weights {
			if !(w > 0) {
				err = fmt.Errorf("%w: observation weights must be positive", ErrDimension)
				return
			}
		}
	}
	sd = &SmoothingData{
		Times:   append([]float64(nil), times...),
		Y:       y.Copy(),
		Weights: weights,
		Basis:   b,
	}
	if sb, ok := b.(SparseEvaluator); ok {
		err = sd.assembleSparse(sb)
	} else {
		err = sd.assembleDense()
	}
	if err != nil {
		sd = nil
		return
	}
	sd.Y.SetReadOnly("Y")
	sd.Basismat.SetReadOnly("Basismat")
	sd.Bmat.SetReadOnly("Bmat")
	sd.Dmat.SetReadOnly("Dmat")
	return
}

func (sd *SmoothingData) N() int { return len(sd.Times) }

func (sd *SmoothingData) NCurves() int {
	_, nc := sd.Y.Dims()
	return nc
}

func (sd *SmoothingData) weight(i int) float64 {
	if sd.Weights == nil {
		return 1
	}
	return sd.Weights[i]
}

func (sd *SmoothingData) assembleDense() (err error) {
	if sd.Basismat, err = sd.Basis.Eval(sd.Times, 0); err != nil {
		return
	}
	WPhi := sd.Basismat.Copy()
	if sd.Weights != nil {
		WPhi.ScaleRows(sd.Weights)
	}
	sd.Bmat = WPhi.TransposeMul(sd.Basismat)
	sd.Dmat = WPhi.TransposeMul(sd.Y)
	return
}

func (sd *SmoothingData) assembleSparse(sb SparseEvaluator) (err error) {
	var (
		Phi *sparse.CSR
		n   = sd.N()
		K   = sd.Basis.NBasis()
	)
	if Phi, err = sb.EvalSparse(sd.Times, 0); err != nil {
		return
	}
	// Weighted transpose, K x n
	WPhiT := sparse.NewDOK(K, n)
	Phi.DoNonZero(func(i, j int, v float64) {
		WPhiT.Set(j, i, sd.weight(i)*v)
	})
	WPhiTCSR := WPhiT.ToCSR()
	Bsp := sparse.NewCSR(K, K, nil, nil, nil)
	Bsp.Mul(WPhiTCSR, Phi)
	sd.Basismat = utils.NewMatrixFrom(Phi)
	sd.Bmat = utils.NewMatrixFrom(Bsp)
	sd.Dmat = utils.NewMatrix(K, sd.NCurves())
	sd.Dmat.M.Mul(WPhiTCSR, sd.Y.M)
	return
}

// Residuals returns y - Basismat*coef
func (sd *SmoothingData) Residuals(coef utils.Matrix) utils.Matrix {
	return sd.Y.Copy().Subtract(sd.Basismat.Mul(coef))
}

// WeightedSSE sums the weighted squared residuals over all curves
func (sd *SmoothingData) WeightedSSE(res utils.Matrix) (sse float64) {
	if sd.Weights == nil {
		return res.SumSquares()
	}
	var (
		nr, nc = res.Dims()
		data   = res.Data()
	)
	for i := 0; i < nr; i++ {
		w := sd.weight(i)
		for j := 0; j < nc; j++ {
			v := data[i*nc+j]
			sse += w * v * v
		}
	}
	return
}
