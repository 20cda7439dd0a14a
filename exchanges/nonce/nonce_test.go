package nonce

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet(t *testing.T) {
	t.Parallel()
	var n Nonce

	before := time.Now().UnixMilli()
	v := n.Get(UnixMilli)
	assert.GreaterOrEqual(t, v.Int64(), before, "First nonce should be seeded from the clock")
	assert.Greater(t, n.Get(UnixMilli).Int64(), v.Int64(), "Next nonce should exceed the first")
	assert.Equal(t, "1616492376594", Value(1616492376594).String())
}

func TestGetStrictlyIncreasing(t *testing.T) {
	t.Parallel()
	var n Nonce
	prev := n.Get(UnixMilli)
	for i := 0; i < 10000; i++ {
		next := n.Get(UnixMilli)
		require.Greater(t, next, prev, "Nonce must strictly increase on rapid calls")
		prev = next
	}
}

func TestGetClockStepsBackwards(t *testing.T) {
	t.Parallel()
	clock := time.UnixMilli(1700000000000)
	n := Nonce{now: func() time.Time { return clock }}

	first := n.Get(UnixMilli)
	assert.Equal(t, Value(1700000000000), first)

	clock = clock.Add(-time.Hour)
	second := n.Get(UnixMilli)
	assert.Equal(t, first+1, second, "Nonce must not go backwards with the clock")

	clock = clock.Add(2 * time.Hour)
	third := n.Get(UnixMilli)
	assert.Equal(t, Value(clock.UnixMilli()), third, "Nonce should resync with the clock when it moves ahead")
}

func TestGetConcurrent(t *testing.T) {
	t.Parallel()
	const callers = 64
	const perCaller = 100
	var n Nonce
	var mu sync.Mutex
	seen := make(map[Value]struct{}, callers*perCaller)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			local := make([]Value, 0, perCaller)
			for j := 0; j < perCaller; j++ {
				local = append(local, n.Get(UnixMilli))
			}
			mu.Lock()
			for _, v := range local {
				seen[v] = struct{}{}
			}
			mu.Unlock()
		}()
	}
	wg.Wait()
	assert.Len(t, seen, callers*perCaller, "Every concurrent caller must receive a distinct nonce")
}

func TestSetters(t *testing.T) {
	t.Parallel()
	tm := time.Unix(1616492376, 594000000)
	assert.Equal(t, int64(1616492376), Unix(tm))
	assert.Equal(t, int64(1616492376594), UnixMilli(tm))
	assert.Equal(t, int64(1616492376594000000), UnixNano(tm))
}
