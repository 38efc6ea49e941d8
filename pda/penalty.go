package pda

import (
	"fmt"
	"runtime"
	"sync"

	"gonum.org/v1/gonum/mat"

	"github.com/notargets/gopda/basis"
	"github.com/notargets/gopda/utils"
)

// Penalty is the quadratic roughness penalty c^T R c - 2 c^T S induced by an
// operator on the coefficients c of a curve, with optional derivatives
// against the parameters of a Layout.
type Penalty struct {
	// LPhi is the operator applied to the target basis at its quadrature points
	LPhi utils.Matrix
	R    utils.Matrix
	// S is nil when the operator has no forcing
	S []float64
	// DR[m] = dR/dbvec[m] for the homogeneous parameters m < NHomogeneous;
	// forcing parameters leave R unchanged.
	DR []utils.Matrix
	// DS column m = dS/dbvec[m]; empty when there is no forcing
	DS utils.Matrix
}

// EvalRs assembles R = LPhi^T W LPhi and S = -sum_k LPhi^T W (a_k u_k) on the
// quadrature grid of target, and their parameter derivatives when
// wantDeriv is set.
func EvalRs(op *Operator, target basis.Basis, layout *Layout, wantDeriv bool) (pen *Penalty, err error) {
	if err = basis.Validate(target); err != nil {
		return
	}
	if err = op.Validate(); err != nil {
		return
	}
	var (
		quad  = target.Quadrature()
		W     = quad.Weights
		Q     = quad.Len()
		K     = target.NBasis()
		m     = op.Order()
		DjPhi = make([]utils.Matrix, m)
		LPhi  = target.QuadValues(m).Copy()
	)
	for j, wf := range op.Bwt {
		var bj []float64
		DjPhi[j] = target.QuadValues(j)
		if bj, err = wf.QuadValues(quad); err != nil {
			err = fmt.Errorf("homogeneous weight %d: %w", j, err)
			return
		}
		addScaledRows(LPhi, bj, DjPhi[j])
	}
	WLPhi := LPhi.Copy().ScaleRows(W)

	pen = &Penalty{LPhi: LPhi}
	pen.R = symmetrize(WLPhi.TransposeMul(LPhi))

	// f(t_q) = sum_k a_k(t_q) u_k(t_q)
	var (
		uvals [][]float64
		f     []float64
	)
	if op.HasForcing() {
		uvals = make([][]float64, len(op.Ufd))
		f = make([]float64, Q)
		for k, wf := range op.Awt {
			var ak []float64
			if ak, err = wf.QuadValues(quad); err != nil {
				err = fmt.Errorf("forcing weight %d: %w", k, err)
				return
			}
			if uvals[k], err = op.Ufd[k].EvalCurve(quad.Points, 0, 0); err != nil {
				err = fmt.Errorf("forcing function %d: %w", k, err)
				return
			}
			for q := range f {
				f[q] += ak[q] * uvals[k][q]
			}
		}
		pen.S = negProject(WLPhi, f)
	}

	if !wantDeriv {
		return
	}
	pen.DR = make([]utils.Matrix, layout.NHomogeneous)
	if op.HasForcing() && layout.Size > 0 {
		pen.DS = utils.NewMatrix(K, layout.Size)
	}
	if layout.Size == 0 {
		return
	}
	var (
		psi  = make([][]float64, layout.Size)
		blks = make([]Block, layout.Size)
	)
	for _, blk := range layout.Blocks {
		var Psi utils.Matrix
		if Psi, err = op.Weight(blk).Basis().Eval(quad.Points, 0); err != nil {
			err = fmt.Errorf("weight %s: %w", blk, err)
			return
		}
		for p := 0; p < blk.Length; p++ {
			psi[blk.Offset+p] = Psi.Col(p).Data()
			blks[blk.Offset+p] = blk
		}
	}
	// Every parameter writes only its own DR entry and DS column
	var (
		pm = utils.NewPartitionMap(runtime.NumCPU(), layout.Size)
		wg sync.WaitGroup
	)
	for np := 0; np < pm.ParallelDegree; np++ {
		wg.Add(1)
		go func(np int) {
			defer wg.Done()
			kMin, kMax := pm.GetBucketRange(np)
			for ind := kMin; ind < kMax; ind++ {
				blk := blks[ind]
				switch blk.Kind {
				case Homogeneous:
					// D_p(LPhi) = psi_p .* D^j Phi
					DL := utils.NewMatrix(Q, K)
					addScaledRows(DL, psi[ind], DjPhi[blk.Index])
					A := DL.TransposeMul(WLPhi)
					pen.DR[ind] = A.Copy().Add(A.Transpose())
					if !pen.DS.IsEmpty() {
						pen.DS.SetCol(ind, negProject(DL.ScaleRows(W), f))
					}
				case Forcing:
					g := make([]float64, Q)
					u := uvals[blk.Index]
					for q := range g {
						g[q] = psi[ind][q] * u[q]
					}
					pen.DS.SetCol(ind, negProject(WLPhi, g))
				}
			}
		}(np)
	}
	wg.Wait()
	return
}

// addScaledRows computes M[i,:] += s[i] * A[i,:]
func addScaledRows(M utils.Matrix, s []float64, A utils.Matrix) {
	var (
		nr, nc = M.Dims()
		dataM  = M.Data()
		dataA  = A.Data()
	)
	for i := 0; i < nr; i++ {
		si := s[i]
		if si == 0 {
			continue
		}
		for j := 0; j < nc; j++ {
			dataM[i*nc+j] += si * dataA[i*nc+j]
		}
	}
}

// negProject returns -A^T f
func negProject(A utils.Matrix, f []float64) []float64 {
	var (
		_, nc = A.Dims()
		out   = mat.NewVecDense(nc, nil)
	)
	out.MulVec(A.T(), mat.NewVecDense(len(f), f))
	out.ScaleVec(-1, out)
	return out.RawVector().Data
}

func symmetrize(A utils.Matrix) utils.Matrix {
	return A.Copy().Add(A.Transpose()).Scale(0.5)
}
