package utils

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestMatrix(t *testing.T) {
	// Transpose
	{
		M := NewMatrix(2, 3, []float64{
			1, 2, 3,
			4, 5, 6,
		})
		mNr, mNc := M.Dims()
		A := M.Transpose()
		aNr, aNc := A.Dims()
		assert.Equal(t, aNc, mNr)
		assert.Equal(t, aNr, mNc)
		assert.Equal(t, []float64{1, 4, 2, 5, 3, 6}, A.Data())
	}
	// Mul and TransposeMul agree
	{
		M := NewMatrix(3, 2, []float64{
			1, 2,
			3, 4,
			5, 6,
		})
		A := M.Transpose().Mul(M)
		B := M.TransposeMul(M)
		assert.Equal(t, A.Data(), B.Data())
		assert.Equal(t, []float64{35, 44, 44, 56}, A.Data())
	}
	// Trace, Frobenius norm, sums
	{
		M := NewMatrix(2, 2, []float64{
			3, 0,
			4, 1,
		})
		assert.Equal(t, 4., M.Trace())
		assert.InDelta(t, math.Sqrt(26), M.FrobeniusNorm(), 1.e-14)
		assert.Equal(t, 26., M.SumSquares())
	}
	// Read only matrices refuse writes
	{
		M := NewMatrix(2, 2)
		M.SetReadOnly("M")
		assert.True(t, M.IsReadOnly())
		assert.Panics(t, func() { M.Scale(2) })
		C := M.Copy()
		assert.False(t, C.IsReadOnly())
		assert.NotPanics(t, func() { C.Scale(2) })
	}
	// ScaleRows and AddToCols
	{
		M := NewMatrix(2, 2, []float64{
			1, 2,
			3, 4,
		})
		M.ScaleRows([]float64{2, 10}).AddToCols([]float64{1, -1})
		assert.Equal(t, []float64{3, 5, 29, 39}, M.Data())
	}
}

func TestInverse(t *testing.T) {
	{
		M := NewMatrix(3, 3, []float64{
			4, 1, 0,
			1, 3, 1,
			0, 1, 2,
		})
		Minv, err := M.Inverse()
		require.NoError(t, err)
		I := M.Mul(Minv)
		fmt.Printf("I = \n%v\n", mat.Formatted(I, mat.Squeeze()))
		assert.InDelta(t, 0, I.MaxAbsDiff(NewDiagMatrix([]float64{1, 1, 1})), 1.e-12)
	}
	// Singular
	{
		M := NewMatrix(2, 2, []float64{
			1, 2,
			2, 4,
		})
		_, err := M.Inverse()
		assert.Error(t, err)
	}
	// Diagonal fast path matches LU inverse
	{
		D := NewDiagMatrix([]float64{2, 0.5, 8, 1.e-3})
		require.True(t, D.IsDiagonal())
		D1, err := D.InverseDiagonal()
		require.NoError(t, err)
		D2, err := D.Inverse()
		require.NoError(t, err)
		assert.InDelta(t, 0, D1.MaxAbsDiff(D2), 1.e-12)
		assert.Equal(t, 1000., D1.At(3, 3))
	}
	// Non diagonal is refused by the fast path
	{
		M := NewMatrix(2, 2, []float64{
			1, 1.e-20,
			0, 1,
		})
		assert.False(t, M.IsDiagonal())
		_, err := M.InverseDiagonal()
		assert.Error(t, err)
	}
}

func TestConditionNumber(t *testing.T) {
	D := NewDiagMatrix([]float64{2, 0.5, 8, 1.e-3})
	assert.InDelta(t, 8000., D.ConditionNumber(), 1.e-8)
	assert.InDelta(t, 1., NewDiagMatrix([]float64{3, 3}).ConditionNumber(), 1.e-14)
	S := NewMatrix(2, 2, []float64{1, 2, 2, 4})
	assert.Greater(t, S.ConditionNumber(), 1.e14)
}
