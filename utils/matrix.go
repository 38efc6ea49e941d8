package utils

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/blas/blas64"
	"gonum.org/v1/gonum/lapack/lapack64"
	"gonum.org/v1/gonum/mat"
)

type Matrix struct {
	M        *mat.Dense
	readOnly bool
	name     string
}

func NewMatrix(nr, nc int, dataO ...[]float64) (R Matrix) {
	var m *mat.Dense
	if len(dataO) != 0 {
		if len(dataO[0]) != nr*nc {
			err := fmt.Errorf("mismatch in allocation: NewMatrix nr,nc = %v,%v, len(data[0]) = %v\n", nr, nc, len(dataO[0]))
			panic(err)
		}
		m = mat.NewDense(nr, nc, dataO[0])
	} else {
		m = mat.NewDense(nr, nc, make([]float64, nr*nc))
	}
	R = Matrix{
		m,
		false,
		"unnamed - hint: pass a variable name to SetReadOnly()",
	}
	return
}

// NewMatrixFrom copies any mat.Matrix into a writable Matrix
func NewMatrixFrom(A mat.Matrix) (R Matrix) {
	var (
		nr, nc = A.Dims()
	)
	R = NewMatrix(nr, nc)
	R.M.Copy(A)
	return
}

func NewDiagMatrix(diag []float64) (R Matrix) {
	var (
		n = len(diag)
	)
	R = NewMatrix(n, n)
	for i, val := range diag {
		R.M.Set(i, i, val)
	}
	return
}

// Dims, At and T minimally satisfy the mat.Matrix interface.
func (m Matrix) Dims() (r, c int)          { return m.M.Dims() }
func (m Matrix) At(i, j int) float64       { return m.M.At(i, j) }
func (m Matrix) T() mat.Matrix             { return m.M.T() }
func (m Matrix) RawMatrix() blas64.General { return m.M.RawMatrix() }
func (m Matrix) Data() []float64           { return m.M.RawMatrix().Data }
func (m Matrix) IsEmpty() bool             { return m.M == nil }
func (m Matrix) IsReadOnly() bool          { return m.readOnly }

// Chainable methods (extended)
func (m *Matrix) SetReadOnly(name ...string) Matrix {
	if len(name) != 0 {
		m.name = name[0]
	}
	m.readOnly = true
	return *m
}

func (m Matrix) Copy() (R Matrix) { // Does not change receiver
	var (
		nr, nc = m.Dims()
		dataR  = make([]float64, nr*nc)
	)
	copy(dataR, m.Data())
	R = NewMatrix(nr, nc, dataR)
	return
}

func (m Matrix) Transpose() (R Matrix) { // Does not change receiver
	var (
		nr, nc = m.Dims()
	)
	R = NewMatrix(nc, nr)
	R.M.Copy(m.M.T())
	return
}

func (m Matrix) Mul(A mat.Matrix) (R Matrix) { // Does not change receiver
	var (
		nrM, ncM = m.M.Dims()
		nrA, ncA = A.Dims()
	)
	if ncM != nrA {
		err := fmt.Errorf("dimension mismatch in Mul: (%d x %d) * (%d x %d)", nrM, ncM, nrA, ncA)
		panic(err)
	}
	R = NewMatrix(nrM, ncA)
	R.M.Mul(m.M, A)
	return R
}

// TransposeMul returns m^T * A without forming the transpose
func (m Matrix) TransposeMul(A mat.Matrix) (R Matrix) { // Does not change receiver
	var (
		nrM, ncM = m.M.Dims()
		nrA, ncA = A.Dims()
	)
	if nrM != nrA {
		err := fmt.Errorf("dimension mismatch in TransposeMul: (%d x %d)^T * (%d x %d)", nrM, ncM, nrA, ncA)
		panic(err)
	}
	R = NewMatrix(ncM, ncA)
	R.M.Mul(m.M.T(), A)
	return R
}

func (m Matrix) Set(i, j int, val float64) Matrix { // Changes receiver
	m.checkWritable()
	m.M.Set(i, j, val)
	return m
}

func (m Matrix) SetCol(j int, data []float64) Matrix { // Changes receiver
	m.checkWritable()
	m.M.SetCol(j, data)
	return m
}

func (m Matrix) Add(A Matrix) Matrix { // Changes receiver
	var (
		dataM = m.Data()
		dataA = A.Data()
	)
	m.checkWritable()
	m.checkSameShape(A)
	for i, val := range dataA {
		dataM[i] += val
	}
	return m
}

// AddScaled computes m += a*A
func (m Matrix) AddScaled(a float64, A Matrix) Matrix { // Changes receiver
	var (
		dataM = m.Data()
		dataA = A.Data()
	)
	m.checkWritable()
	m.checkSameShape(A)
	for i, val := range dataA {
		dataM[i] += a * val
	}
	return m
}

func (m Matrix) Subtract(A Matrix) Matrix { // Changes receiver
	var (
		dataM = m.Data()
		dataA = A.Data()
	)
	m.checkWritable()
	m.checkSameShape(A)
	for i, val := range dataA {
		dataM[i] -= val
	}
	return m
}

func (m Matrix) Scale(a float64) Matrix { // Changes receiver
	var (
		data = m.Data()
	)
	m.checkWritable()
	for i := range data {
		data[i] *= a
	}
	return m
}

func (m Matrix) Apply(f func(float64) float64) Matrix { // Changes receiver
	var (
		data = m.Data()
	)
	m.checkWritable()
	for i, val := range data {
		data[i] = f(val)
	}
	return m
}

// ScaleRows multiplies row i by w[i]
func (m Matrix) ScaleRows(w []float64) Matrix { // Changes receiver
	var (
		nr, nc = m.Dims()
		data   = m.Data()
	)
	m.checkWritable()
	if len(w) != nr {
		panic(fmt.Errorf("row scale length %d does not match row count %d", len(w), nr))
	}
	for i := 0; i < nr; i++ {
		row := data[i*nc : (i+1)*nc]
		for j := range row {
			row[j] *= w[i]
		}
	}
	return m
}

// AddToCols adds v to every column of m
func (m Matrix) AddToCols(v []float64) Matrix { // Changes receiver
	var (
		nr, nc = m.Dims()
		data   = m.Data()
	)
	m.checkWritable()
	if len(v) != nr {
		panic(fmt.Errorf("column vector length %d does not match row count %d", len(v), nr))
	}
	for i := 0; i < nr; i++ {
		for j := 0; j < nc; j++ {
			data[i*nc+j] += v[i]
		}
	}
	return m
}

func (m Matrix) Col(j int) Vector {
	var (
		nr, _ = m.Dims()
		vData = make([]float64, nr)
	)
	mat.Col(vData, j, m.M)
	return NewVector(nr, vData)
}

// Non chainable methods
func (m Matrix) SumSquares() (sum float64) {
	for _, val := range m.Data() {
		sum += val * val
	}
	return
}

func (m Matrix) Trace() float64 {
	return mat.Trace(m.M)
}

func (m Matrix) FrobeniusNorm() float64 {
	return mat.Norm(m.M, 2)
}

// IsDiagonal reports whether every off diagonal entry is exactly zero
func (m Matrix) IsDiagonal() bool {
	var (
		nr, nc = m.Dims()
		data   = m.Data()
	)
	if nr != nc {
		return false
	}
	for i := 0; i < nr; i++ {
		for j := 0; j < nc; j++ {
			if i != j && data[i*nc+j] != 0 {
				return false
			}
		}
	}
	return true
}

// InverseDiagonal inverts a diagonal matrix entry by entry
func (m Matrix) InverseDiagonal() (R Matrix, err error) {
	var (
		nr, _ = m.Dims()
	)
	if !m.IsDiagonal() {
		err = fmt.Errorf("unable to invert by diagonal, matrix has off diagonal entries")
		return
	}
	inv := make([]float64, nr)
	for i := range inv {
		d := m.M.At(i, i)
		if d == 0 {
			err = fmt.Errorf("unable to invert, matrix is singular")
			return
		}
		inv[i] = 1. / d
	}
	R = NewDiagMatrix(inv)
	return
}

func (m Matrix) Inverse() (R Matrix, err error) {
	var (
		nr, nc = m.Dims()
	)
	if nr != nc {
		err = fmt.Errorf("unable to invert non square matrix: %d x %d", nr, nc)
		return
	}
	R = m.Copy()
	iPiv := make([]int, nr)
	if ok := lapack64.Getrf(R.RawMatrix(), iPiv); !ok {
		err = fmt.Errorf("unable to invert, matrix is singular")
		return
	}
	work := make([]float64, nr*nc)
	if ok := lapack64.Getri(R.RawMatrix(), iPiv, work, nr*nc); !ok {
		err = fmt.Errorf("unable to invert, matrix is singular")
	}
	return
}

func (m Matrix) Max() (max float64) {
	var (
		data = m.Data()
	)
	max = data[0]
	for _, val := range data {
		if val > max {
			max = val
		}
	}
	return
}

// MaxAbsDiff is the largest absolute entry of m - A
func (m Matrix) MaxAbsDiff(A mat.Matrix) (d float64) {
	var (
		nr, nc = m.Dims()
	)
	for i := 0; i < nr; i++ {
		for j := 0; j < nc; j++ {
			if v := math.Abs(m.M.At(i, j) - A.At(i, j)); v > d {
				d = v
			}
		}
	}
	return
}

func (m Matrix) checkWritable() {
	if m.readOnly {
		err := fmt.Errorf("attempt to write to a read only matrix named: \"%v\"", m.name)
		panic(err)
	}
}

func (m Matrix) checkSameShape(A Matrix) {
	var (
		nr, nc   = m.Dims()
		nrA, ncA = A.Dims()
	)
	if nr != nrA || nc != ncA {
		err := fmt.Errorf("dimension mismatch: (%d x %d) vs (%d x %d)", nr, nc, nrA, ncA)
		panic(err)
	}
}
