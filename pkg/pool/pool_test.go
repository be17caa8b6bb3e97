package pool

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPool_Parallelize(t *testing.T) {
	for _, pl := range []*Pool{nil, NewPool(4)} {
		results := pl.Parallelize(32, func(i int) any { return i * i })
		for i, r := range results {
			assert.Equal(t, i*i, r)
		}
		pl.TearDown()
	}
}

func TestPool_Search(t *testing.T) {
	for _, pl := range []*Pool{nil, NewPool(3)} {
		var tries int64
		results := pl.Search(5, func() any {
			if atomic.AddInt64(&tries, 1)%3 != 0 {
				return nil
			}
			return struct{}{}
		})
		assert.Len(t, results, 5)
		for _, r := range results {
			assert.NotNil(t, r)
		}
		pl.TearDown()
	}
}
