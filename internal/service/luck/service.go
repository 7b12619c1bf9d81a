package luck

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/lucasvdj/rifa-go/internal/domain"
)

var ErrSoldOut = errors.New("no unsold numbers left")

// Store is the read side the gimmicks need: which numbers are unsold.
type Store interface {
	UnsoldNumbers(ctx context.Context, raffleID string) ([]int, error)
}

// BonusStore keeps the per-day bonus number.
type BonusStore interface {
	Get(ctx context.Context, raffleID, day string) (int, bool, error)
	Set(ctx context.Context, raffleID, day string, number int) error
}

// Service backs the storefront gimmicks: the mock "analysis" pick and
// the daily bonus number. Both are plain pseudo-random picks over the
// unsold set; the theatrics live entirely in the client.
type Service struct {
	store Store
	bonus BonusStore

	// overridable for tests
	intN func(n int) int
	now  func() time.Time
}

func New(store Store, bonus BonusStore) *Service {
	return &Service{
		store: store,
		bonus: bonus,
		intN:  rand.IntN,
		now:   time.Now,
	}
}

// Analyze returns a random unsold number together with a made-up hit
// probability in [40, 60].
//
// Returns:
//   - *domain.LuckyPick: the pick.
//   - error: luck.ErrSoldOut when every number is sold.
func (s *Service) Analyze(ctx context.Context, raffleID string) (*domain.LuckyPick, error) {
	const op = "service.luck.Analyze"

	number, err := s.pick(ctx, raffleID)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return &domain.LuckyPick{
		Number:      number,
		Probability: 40 + s.intN(21),
	}, nil
}

// BonusNumber returns today's bonus number, picking and storing one if
// none exists yet for the current day.
func (s *Service) BonusNumber(ctx context.Context, raffleID string) (int, error) {
	const op = "service.luck.BonusNumber"

	day := s.now().Format("2006-01-02")

	if n, ok, err := s.bonus.Get(ctx, raffleID, day); err != nil {
		return 0, fmt.Errorf("%s:%w", op, err)
	} else if ok {
		return n, nil
	}

	number, err := s.pick(ctx, raffleID)
	if err != nil {
		return 0, fmt.Errorf("%s:%w", op, err)
	}

	if err := s.bonus.Set(ctx, raffleID, day, number); err != nil {
		return 0, fmt.Errorf("%s:%w", op, err)
	}

	return number, nil
}

// Rotate forces a fresh bonus number for the current day. Run by the
// daily scheduler job.
func (s *Service) Rotate(ctx context.Context, raffleID string) (int, error) {
	const op = "service.luck.Rotate"

	day := s.now().Format("2006-01-02")

	number, err := s.pick(ctx, raffleID)
	if err != nil {
		return 0, fmt.Errorf("%s:%w", op, err)
	}

	if err := s.bonus.Set(ctx, raffleID, day, number); err != nil {
		return 0, fmt.Errorf("%s:%w", op, err)
	}

	return number, nil
}

func (s *Service) pick(ctx context.Context, raffleID string) (int, error) {
	unsold, err := s.store.UnsoldNumbers(ctx, raffleID)
	if err != nil {
		return 0, err
	}

	if len(unsold) == 0 {
		return 0, ErrSoldOut
	}

	return unsold[s.intN(len(unsold))], nil
}
