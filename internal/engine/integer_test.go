package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func take(next func() (int64, bool), n int) []int64 {
	var out []int64
	for len(out) < n {
		v, ok := next()
		if !ok {
			break
		}
		out = append(out, v)
	}
	return out
}

func TestZigzag(t *testing.T) {
	assert.Equal(t, []int64{0, 1, -1, 2, -2, 3, -3}, take(zigzag(), 7))
}

func TestCountFrom_StopsAtOverflow(t *testing.T) {
	assert.Equal(t, []int64{math.MaxInt64 - 1, math.MaxInt64}, take(countFrom(math.MaxInt64-1, 1), 5))
	assert.Equal(t, []int64{math.MinInt64 + 1, math.MinInt64}, take(countFrom(math.MinInt64+1, -1), 5))
	assert.Equal(t, []int64{3, 2, 1}, take(countFrom(3, -1), 3))
}

func TestSaturatingAdd(t *testing.T) {
	tests := []struct {
		x, d, want int64
	}{
		{5, -1, 4},
		{5, 1, 6},
		{math.MaxInt64, 1, math.MaxInt64},
		{math.MinInt64, -1, math.MinInt64},
		{math.MaxInt64, -1, math.MaxInt64 - 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, saturatingAdd(tt.x, tt.d), "%d%+d", tt.x, tt.d)
	}
}
