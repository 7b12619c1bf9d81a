package luck

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	unsold []int
	err    error
}

func (f *fakeStore) UnsoldNumbers(_ context.Context, _ string) ([]int, error) {
	return f.unsold, f.err
}

type fakeBonusStore struct {
	stored map[string]int
	getErr error
	setErr error
}

func newFakeBonusStore() *fakeBonusStore {
	return &fakeBonusStore{stored: make(map[string]int)}
}

func (f *fakeBonusStore) Get(_ context.Context, raffleID, day string) (int, bool, error) {
	if f.getErr != nil {
		return 0, false, f.getErr
	}
	n, ok := f.stored[raffleID+"|"+day]
	return n, ok, nil
}

func (f *fakeBonusStore) Set(_ context.Context, raffleID, day string, number int) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.stored[raffleID+"|"+day] = number
	return nil
}

func newTestService(store Store, bonus BonusStore, intN func(int) int) *Service {
	svc := New(store, bonus)
	svc.intN = intN
	svc.now = func() time.Time {
		return time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	}
	return svc
}

func TestAnalyzePicksUnsoldNumber(t *testing.T) {
	store := &fakeStore{unsold: []int{5, 17, 42, 303}}
	// index 2 into the unsold set, then 13 for the probability roll
	rolls := []int{2, 13}
	svc := newTestService(store, newFakeBonusStore(), func(n int) int {
		r := rolls[0]
		rolls = rolls[1:]
		return r
	})

	pick, err := svc.Analyze(context.Background(), "main-raffle")

	require.NoError(t, err)
	assert.Equal(t, 42, pick.Number)
	assert.Equal(t, 53, pick.Probability)
}

func TestAnalyzeProbabilityBounds(t *testing.T) {
	store := &fakeStore{unsold: []int{1}}

	for _, roll := range []int{0, 10, 20} {
		svc := newTestService(store, newFakeBonusStore(), func(n int) int {
			if n == 1 {
				return 0
			}
			return roll
		})

		pick, err := svc.Analyze(context.Background(), "main-raffle")

		require.NoError(t, err)
		assert.GreaterOrEqual(t, pick.Probability, 40)
		assert.LessOrEqual(t, pick.Probability, 60)
	}
}

func TestAnalyzeSoldOut(t *testing.T) {
	svc := newTestService(&fakeStore{unsold: nil}, newFakeBonusStore(), func(n int) int { return 0 })

	_, err := svc.Analyze(context.Background(), "main-raffle")

	assert.ErrorIs(t, err, ErrSoldOut)
}

func TestAnalyzeStoreError(t *testing.T) {
	boom := errors.New("store down")
	svc := newTestService(&fakeStore{err: boom}, newFakeBonusStore(), func(n int) int { return 0 })

	_, err := svc.Analyze(context.Background(), "main-raffle")

	assert.ErrorIs(t, err, boom)
}

func TestBonusNumberPicksAndStores(t *testing.T) {
	bonus := newFakeBonusStore()
	svc := newTestService(&fakeStore{unsold: []int{9, 80, 211}}, bonus, func(n int) int { return 1 })

	n, err := svc.BonusNumber(context.Background(), "main-raffle")

	require.NoError(t, err)
	assert.Equal(t, 80, n)
	assert.Equal(t, 80, bonus.stored["main-raffle|2026-03-14"])
}

func TestBonusNumberStableWithinDay(t *testing.T) {
	bonus := newFakeBonusStore()
	bonus.stored["main-raffle|2026-03-14"] = 77

	// the pick path must not run when today's number exists
	svc := newTestService(&fakeStore{unsold: nil}, bonus, func(n int) int { return 0 })

	n, err := svc.BonusNumber(context.Background(), "main-raffle")

	require.NoError(t, err)
	assert.Equal(t, 77, n)
}

func TestBonusNumberSoldOut(t *testing.T) {
	svc := newTestService(&fakeStore{unsold: nil}, newFakeBonusStore(), func(n int) int { return 0 })

	_, err := svc.BonusNumber(context.Background(), "main-raffle")

	assert.ErrorIs(t, err, ErrSoldOut)
}

func TestRotateReplacesExistingNumber(t *testing.T) {
	bonus := newFakeBonusStore()
	bonus.stored["main-raffle|2026-03-14"] = 77

	svc := newTestService(&fakeStore{unsold: []int{5, 6}}, bonus, func(n int) int { return 0 })

	n, err := svc.Rotate(context.Background(), "main-raffle")

	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, 5, bonus.stored["main-raffle|2026-03-14"])
}
