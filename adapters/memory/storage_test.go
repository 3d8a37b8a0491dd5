package memory

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scorekit/core"
	"scorekit/ranking"
)

func TestAppendAndQuery(t *testing.T) {
	s := New()
	ctx := context.Background()

	r1, err := s.Append(ctx, core.NewScoreRecord("u1", "Alice", 100))
	require.NoError(t, err)
	_, err = s.Append(ctx, core.NewScoreRecord("u2", "Bob", 200))
	require.NoError(t, err)

	all, err := s.ScanAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	mine, err := s.QueryByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, r1.ID, mine[0].ID)

	none, err := s.QueryByUser(ctx, "ghost")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestTopScoresMatchesReferenceRanking(t *testing.T) {
	s := New()
	ctx := context.Background()
	for i := 0; i < 200; i++ {
		_, err := s.Append(ctx, core.ScoreRecord{
			ID:        fmt.Sprintf("id-%d", i),
			UserID:    fmt.Sprintf("u%d", i%11),
			Score:     rand.IntN(2000),
			Timestamp: int64(rand.IntN(5000)),
		})
		require.NoError(t, err)
	}

	all, err := s.ScanAll(ctx)
	require.NoError(t, err)
	want := ranking.TopN(all, 25)

	got, err := s.TopScores(ctx, 25)
	require.NoError(t, err)
	require.Equal(t, len(want), len(got))
	for i := range want {
		assert.Equal(t, want[i].ID, got[i].ID, "pos %d", i)
	}
}

func TestConcurrentAppends(t *testing.T) {
	s := New()
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				_, err := s.Append(context.Background(), core.NewScoreRecord(fmt.Sprintf("u%d", g), "x", i))
				assert.NoError(t, err)
			}
		}(g)
	}
	wg.Wait()
	all, err := s.ScanAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 400)
}
