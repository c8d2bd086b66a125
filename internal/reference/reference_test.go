package reference

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounterGeneratorFormat(t *testing.T) {
	gen := NewCounterGenerator(MemberPrefix, NewMemCounter())

	first, err := gen.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "BRS-0001", first)

	second, err := gen.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "BRS-0002", second)
}

func TestCounterGeneratorUniqueUnderConcurrency(t *testing.T) {
	gen := NewCounterGenerator(SubmissionPrefix, NewMemCounter())

	const n = 100
	var (
		mu    sync.Mutex
		seen  = make(map[string]bool, n)
		wg    sync.WaitGroup
		dupes int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			code, err := gen.Next(context.Background())
			require.NoError(t, err)
			mu.Lock()
			if seen[code] {
				dupes++
			}
			seen[code] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Zero(t, dupes)
	assert.Len(t, seen, n)
}

func TestRandomGeneratorFormat(t *testing.T) {
	gen := NewRandomGenerator(SubmissionPrefix, 6, func(context.Context, string) (bool, error) {
		return false, nil
	})

	code, err := gen.Next(context.Background())
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(code, "POP-"))

	suffix := strings.TrimPrefix(code, "POP-")
	assert.Len(t, suffix, 6)
	for _, r := range suffix {
		assert.Contains(t, alphabet, string(r))
	}
}

func TestRandomGeneratorRetriesThenSucceeds(t *testing.T) {
	calls := 0
	gen := NewRandomGenerator(SubmissionPrefix, 6, func(context.Context, string) (bool, error) {
		calls++
		return calls < 3, nil // first two candidates collide
	})

	_, err := gen.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRandomGeneratorExhaustsLoudly(t *testing.T) {
	gen := NewRandomGenerator(SubmissionPrefix, 6, func(context.Context, string) (bool, error) {
		return true, nil // every candidate collides
	})

	_, err := gen.Next(context.Background())
	assert.ErrorIs(t, err, ErrGenerationExhausted)
}
