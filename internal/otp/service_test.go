package otp

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stokvelhub/internal/notify"
)

func newTestService(t *testing.T) (*service, *MemStore, *time.Time) {
	t.Helper()
	store := NewMemStore()
	dispatcher := notify.NewDispatcher(nil)
	t.Cleanup(dispatcher.Close)

	clock := time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)
	svc := NewService(store, dispatcher).(*service)
	svc.now = func() time.Time { return clock }
	return svc, store, &clock
}

func TestIssueThenVerify(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	rec, err := svc.Issue(ctx, "0821234567")
	require.NoError(t, err)
	require.Len(t, rec.Code, CodeLength)

	assert.NoError(t, svc.Verify(ctx, "082 123 4567", rec.Code))
}

func TestVerifyWithoutIssue(t *testing.T) {
	svc, _, _ := newTestService(t)
	err := svc.Verify(context.Background(), "0821234567", "123456")
	assert.ErrorIs(t, err, ErrNoCode)
}

func TestIssueOverwritesOutstandingCode(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.Issue(ctx, "0821234567")
	require.NoError(t, err)
	second, err := svc.Issue(ctx, "0821234567")
	require.NoError(t, err)

	if first.Code != second.Code {
		assert.ErrorIs(t, svc.Verify(ctx, "0821234567", first.Code), ErrMismatch)
	}
	assert.NoError(t, svc.Verify(ctx, "0821234567", second.Code))
}

func TestVerifyExpiredDeletesRecord(t *testing.T) {
	svc, store, clock := newTestService(t)
	ctx := context.Background()

	rec, err := svc.Issue(ctx, "0821234567")
	require.NoError(t, err)

	*clock = clock.Add(TTL + time.Minute)
	assert.ErrorIs(t, svc.Verify(ctx, "0821234567", rec.Code), ErrExpired)

	_, err = store.Get(ctx, rec.Phone)
	assert.ErrorIs(t, err, ErrNoCode)
}

func TestVerifyExhaustedOnFourthAttempt(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	rec, err := svc.Issue(ctx, "0821234567")
	require.NoError(t, err)

	wrong := "000000"
	if wrong == rec.Code {
		wrong = "000001"
	}
	for i := 0; i < MaxAttempts; i++ {
		assert.ErrorIs(t, svc.Verify(ctx, "0821234567", wrong), ErrMismatch)
	}

	// Even the correct code fails once attempts are burned, and the record
	// is gone afterwards.
	assert.ErrorIs(t, svc.Verify(ctx, "0821234567", rec.Code), ErrExhausted)
	_, err = store.Get(ctx, rec.Phone)
	assert.ErrorIs(t, err, ErrNoCode)
}

func TestUsedCodeNeverVerifiesAgain(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	rec, err := svc.Issue(ctx, "0821234567")
	require.NoError(t, err)

	require.NoError(t, svc.Verify(ctx, "0821234567", rec.Code))
	assert.ErrorIs(t, svc.Verify(ctx, "0821234567", rec.Code), ErrCodeUsed)
}

func TestConcurrentVerifySingleWinner(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	rec, err := svc.Issue(ctx, "0821234567")
	require.NoError(t, err)

	const racers = 64
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		used      int
	)
	start := make(chan struct{})
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			err := svc.Verify(ctx, "0821234567", rec.Code)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case assert.ErrorIs(t, err, ErrCodeUsed):
				used++
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, 1, successes, "exactly one verification should consume the code")
	assert.Equal(t, racers-1, used)
}
