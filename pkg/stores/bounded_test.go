package stores

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppendCapped(t *testing.T) {
	t.Run("appends freely under the bound", func(t *testing.T) {
		var buf []int
		for i := 0; i < 5; i++ {
			buf = AppendCapped(buf, i, 10)
		}
		assert.Equal(t, []int{0, 1, 2, 3, 4}, buf)
	})

	t.Run("evicts oldest first once the bound is exceeded", func(t *testing.T) {
		var buf []int
		for i := 0; i < 8; i++ {
			buf = AppendCapped(buf, i, 3)
		}
		assert.Equal(t, []int{5, 6, 7}, buf)
	})

	t.Run("holds the bound exactly across sustained inserts", func(t *testing.T) {
		var buf []string
		for i := 0; i < 1000; i++ {
			buf = AppendCapped(buf, "x", 100)
			assert.LessOrEqual(t, len(buf), 100)
		}
		assert.Len(t, buf, 100)
	})

	t.Run("non-positive bound disables eviction", func(t *testing.T) {
		var buf []int
		for i := 0; i < 50; i++ {
			buf = AppendCapped(buf, i, 0)
		}
		assert.Len(t, buf, 50)
	})
}
