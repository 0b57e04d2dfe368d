package heap

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_stringWords(t *testing.T) {
	for _, tc := range []struct{ n, words uint64 }{
		{0, 0},
		{1, 1},
		{8, 1},
		{9, 2},
		{math.MaxUint64, math.MaxUint64/8 + 1},
	} {
		assert.Equal(t, tc.words, stringWords(tc.n), "expected words for %v bytes", tc.n)
	}
}
