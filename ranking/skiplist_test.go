package ranking

import (
	"fmt"
	"math/rand/v2"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scorekit/core"
)

func TestSkipListMatchesTopN(t *testing.T) {
	sl := NewSkipList()
	var all []core.ScoreRecord
	for i := 0; i < 500; i++ {
		r := rec(fmt.Sprintf("id-%d", i), fmt.Sprintf("u%d", i%37), rand.IntN(1000), int64(rand.IntN(10000)))
		all = append(all, r)
		sl.Insert(r)
	}
	require.Equal(t, len(all), sl.Len())

	for _, n := range []int{1, 10, 100, 500, 1000} {
		want := TopN(all, n)
		got := sl.TopN(n)
		require.Equal(t, len(want), len(got), "n=%d", n)
		for i := range want {
			assert.Equal(t, want[i].ID, got[i].ID, "n=%d pos=%d", n, i)
		}
	}
}

func TestSkipListDuplicateInsertIsNoop(t *testing.T) {
	sl := NewSkipList()
	r := rec("dup", "a", 10, 1)
	sl.Insert(r)
	sl.Insert(r)
	assert.Equal(t, 1, sl.Len())
}

func TestSkipListRemove(t *testing.T) {
	sl := NewSkipList()
	sl.Insert(rec("1", "a", 10, 1))
	sl.Insert(rec("2", "b", 20, 2))
	sl.Remove("2")
	sl.Remove("missing")
	top := sl.TopN(10)
	require.Len(t, top, 1)
	assert.Equal(t, "1", top[0].ID)
}

func TestSkipListConcurrentInsertAndRead(t *testing.T) {
	sl := NewSkipList()
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				sl.Insert(rec(fmt.Sprintf("%d-%d", g, i), "u", i, int64(i)))
				_ = sl.TopN(5)
			}
		}(g)
	}
	wg.Wait()
	assert.Equal(t, 800, sl.Len())
}
