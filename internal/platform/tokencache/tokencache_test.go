package tokencache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemory_ExpiresEntries(t *testing.T) {
	now := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	cache := NewMemory()
	cache.WithClock(func() time.Time { return now })
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "bkash", "tok", time.Minute))
	value, ok, err := cache.Get(ctx, "bkash")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "tok", value)

	now = now.Add(2 * time.Minute)
	_, ok, err = cache.Get(ctx, "bkash")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestMemory_IgnoresNonPositiveTTL(t *testing.T) {
	cache := NewMemory()
	require.NoError(t, cache.Set(context.Background(), "eps", "tok", 0))
	_, ok, _ := cache.Get(context.Background(), "eps")
	require.False(t, ok)
}

func TestSource_CachesAndSharesGrants(t *testing.T) {
	var grants atomic.Int32
	release := make(chan struct{})
	source := NewSource(NewMemory(), "eps", func(context.Context) (string, time.Duration, error) {
		grants.Add(1)
		<-release
		return "tok-1", time.Minute, nil
	})

	var wg sync.WaitGroup
	tokens := make([]string, 5)
	for i := range tokens {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tokens[i], _ = source.Token(context.Background())
		}(i)
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	for _, tok := range tokens {
		require.Equal(t, "tok-1", tok)
	}
	tok, err := source.Token(context.Background())
	require.NoError(t, err)
	require.Equal(t, "tok-1", tok)
	require.LessOrEqual(t, grants.Load(), int32(2))
}

func TestSource_RefreshGrantsAgain(t *testing.T) {
	count := 0
	source := NewSource(nil, "bkash", func(context.Context) (string, time.Duration, error) {
		count++
		return fmt.Sprintf("tok-%d", count), time.Minute, nil
	})
	ctx := context.Background()

	tok, err := source.Token(ctx)
	require.NoError(t, err)
	require.Equal(t, "tok-1", tok)

	tok, err = source.Refresh(ctx)
	require.NoError(t, err)
	require.Equal(t, "tok-2", tok)
}

func TestSource_PropagatesGrantErrors(t *testing.T) {
	source := NewSource(nil, "eps", func(context.Context) (string, time.Duration, error) {
		return "", 0, errors.New("bad credentials")
	})
	_, err := source.Token(context.Background())
	require.EqualError(t, err, "bad credentials")
}
