package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPartitionMap(t *testing.T) {
	{
		pm := NewPartitionMap(4, 10)
		assert.Equal(t, [][2]int{{0, 3}, {3, 6}, {6, 8}, {8, 10}}, pm.Partitions)
		kMin, kMax := pm.GetBucketRange(2)
		assert.Equal(t, 6, kMin)
		assert.Equal(t, 8, kMax)
	}
	{ // Never more buckets than items
		pm := NewPartitionMap(8, 3)
		assert.Equal(t, 3, pm.ParallelDegree)
		assert.Equal(t, [][2]int{{0, 1}, {1, 2}, {2, 3}}, pm.Partitions)
	}
	{
		pm := NewPartitionMap(4, 0)
		assert.Equal(t, 1, pm.ParallelDegree)
		assert.Equal(t, [][2]int{{0, 0}}, pm.Partitions)
	}
}
