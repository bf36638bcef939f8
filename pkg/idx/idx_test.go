package idx_test

import (
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/tabauth/pkg/idx"
	"github.com/stretchr/testify/require"
)

func TestNewAndParse(t *testing.T) {
	id := idx.New()
	require.False(t, id.IsZero())
	require.Len(t, id.String(), 26)

	parsed, err := idx.Parse(id.String())
	require.NoError(t, err)
	require.Equal(t, id, parsed)
}

func TestParseInvalid(t *testing.T) {
	for _, s := range []string{"", "   ", "not-a-ulid", "01HQ7T3Z1MZ0JQ3M6MZQ1FQ3Z", " 01HQ7T3Z1MZ0JQ3M6MZQ1FQ3ZV"} {
		_, err := idx.Parse(s)
		require.ErrorIs(t, err, idx.ErrInvalid, "input %q", s)
	}
}

func TestGeneratorSortsWithinMillisecond(t *testing.T) {
	at := time.Unix(1700000000, 0).UTC()
	g := idx.NewGenerator(func() time.Time { return at })

	ids := make([]string, 100)
	for i := range ids {
		ids[i] = g.Next().String()
	}

	require.True(t, slices.IsSorted(ids))
	require.WithinDuration(t, at, idx.ID(ids[0]).Time(), time.Millisecond)
}

func TestGeneratorConcurrentUnique(t *testing.T) {
	g := idx.NewGenerator(nil)

	var (
		mu   sync.Mutex
		seen = make(map[idx.ID]struct{})
		wg   sync.WaitGroup
	)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 50 {
				id := g.Next()
				mu.Lock()
				seen[id] = struct{}{}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	require.Len(t, seen, 400)
}

func TestZeroTime(t *testing.T) {
	require.True(t, idx.Zero.Time().IsZero())
	require.True(t, idx.ID("garbage").Time().IsZero())
}
