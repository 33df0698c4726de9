package opt

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBestStrictReplacement(t *testing.T) {
	b := NewBest(nil)
	_, _, ok := b.Get()
	assert.False(t, ok)

	assert.True(t, b.Offer([]int{0, 1, 0}, 10))
	assert.False(t, b.Offer([]int{0, 2, 0}, 10), "equal cost must not replace")
	assert.False(t, b.Offer([]int{0, 3, 0}, 11))
	assert.True(t, b.Offer([]int{0, 4, 0}, 9))

	seq, cost, ok := b.Get()
	require.True(t, ok)
	assert.Equal(t, 9, cost)
	assert.Equal(t, []int{0, 4, 0}, seq)
}

func TestBestConcurrentOffers(t *testing.T) {
	var improvements []int
	b := NewBest(func(cost int) { improvements = append(improvements, cost) })

	var wg sync.WaitGroup
	for w := 0; w < 16; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for c := 1000; c >= 0; c -= 16 {
				b.Offer([]int{0, w, 0}, c+w)
			}
		}()
	}
	wg.Wait()

	_, cost, ok := b.Get()
	require.True(t, ok)
	assert.Equal(t, 8, cost)
	for i := 1; i < len(improvements); i++ {
		assert.Less(t, improvements[i], improvements[i-1])
	}
}
