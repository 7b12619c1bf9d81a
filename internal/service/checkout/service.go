package checkout

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lucasvdj/rifa-go/internal/config"
	"github.com/lucasvdj/rifa-go/internal/domain"
	redisx "github.com/lucasvdj/rifa-go/internal/redis"
	"github.com/lucasvdj/rifa-go/internal/repository"
	postgresrepo "github.com/lucasvdj/rifa-go/internal/repository/postgres"
	redisrepo "github.com/lucasvdj/rifa-go/internal/repository/redis"
	"github.com/lucasvdj/rifa-go/internal/service/identity"
)

// Store is the sell-side of the ticket store. Implemented by
// postgresrepo.AllocationRepo; both Sell methods are single atomic
// commits that create the purchase and flip the tickets together.
type Store interface {
	AvailableCount(ctx context.Context, raffleID string) (int64, error)
	SoldNumbers(ctx context.Context, raffleID string) ([]int, error)
	SellNumber(ctx context.Context, raffleID string, number int, buyer domain.Buyer, purchase domain.Purchase) error
	SellBatch(ctx context.Context, raffleID string, quantity int, buyer domain.Buyer, purchase domain.Purchase) ([]int, error)
}

// Identity resolves session tokens to buyers and bootstraps anonymous
// identities for first-time buyers.
type Identity interface {
	Resolve(ctx context.Context, token string) (*domain.Buyer, error)
	Bootstrap(ctx context.Context) (string, *domain.Buyer, error)
}

type Config struct {
	Raffle  config.RaffleConfig
	Pricing config.Pricing
}

type Service struct {
	store    Store
	identity Identity
	cache    *redisrepo.Cache
	pubsub   *redisx.RafflePubSub
	limiter  *redisrepo.SlidingWindowLimiter
	cfg      Config
}

func New(
	store Store,
	identity Identity,
	cache *redisrepo.Cache,
	pubsub *redisx.RafflePubSub,
	limiter *redisrepo.SlidingWindowLimiter,
	cfg Config,
) *Service {
	return &Service{
		store:    store,
		identity: identity,
		cache:    cache,
		pubsub:   pubsub,
		limiter:  limiter,
		cfg:      cfg,
	}
}

// Input is one buyer request: either Quantity arbitrary numbers, or the
// one specific ChosenNumber (which forces quantity to 1). ChosenNumber
// is the raw user string so "042" and "42" both mean ticket 42.
type Input struct {
	RaffleID     string
	Quantity     int
	ChosenNumber string
}

// Outcome is the result of one checkout attempt. PendingIdentity is a
// deferral, not an error: the buyer had no resolved identity, one was
// bootstrapped, and the caller should retry with SessionToken.
type Outcome struct {
	PendingIdentity bool
	SessionToken    string
	PurchaseID      uuid.UUID
	Numbers         []int
	GoldenNumbers   []int
	TotalCentavos   int
}

// Purchase runs the allocation protocol: validate the request, resolve
// the buyer, pre-check availability, then atomically create the
// purchase record and mark the selected tickets sold. Any failure
// leaves the ticket store untouched.
//
// Returns:
//   - *Outcome: the purchased numbers and purchase ID, or a
//     PendingIdentity deferral.
//   - error: checkout.ErrInvalidNumber / ErrInvalidQuantity for
//     malformed input (the store is never touched).
//   - error: checkout.ErrNumberTaken (pre-check) or
//     checkout.ErrNumberUnavailable (lost the race at commit).
//   - error: checkout.ErrInsufficientTickets when fewer tickets remain
//     than requested.
//   - error: checkout.ErrConflictRetry when the commit lost a
//     serialization race; the caller may re-run the whole protocol.
//   - error: checkout.ErrStoreUnavailable on store timeouts, safe to
//     retry since nothing precedes the atomic commit.
func (s *Service) Purchase(
	ctx context.Context,
	sessionToken string,
	in Input,
	rlKey string,
) (*Outcome, error) {
	const op = "service.checkout.Purchase"

	if s.limiter != nil && rlKey != "" {
		ok, _, retry, err := s.limiter.Allow(ctx, rlKey)
		if err != nil {
			return nil, fmt.Errorf("%s:%w", op, err)
		}
		if !ok {
			return nil, fmt.Errorf("%s:%w: retry in %s", op, ErrRateLimited, retry)
		}
	}

	// validate before anything reaches the store
	number, quantity, err := s.parseRequest(in)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	buyer, err := s.identity.Resolve(ctx, sessionToken)
	if err != nil {
		if sessionToken == "" || errors.Is(err, identity.ErrSessionNotFound) {
			token, _, berr := s.identity.Bootstrap(ctx)
			if berr != nil {
				return nil, fmt.Errorf("%s:%w", op, berr)
			}
			return &Outcome{PendingIdentity: true, SessionToken: token}, nil
		}
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	if number > 0 {
		// optimistic pre-check; the commit re-verifies under its own guard
		sold, err := s.store.SoldNumbers(ctx, in.RaffleID)
		if err != nil {
			return nil, fmt.Errorf("%s:%w", op, s.translateStoreErr(err))
		}
		for _, n := range sold {
			if n == number {
				return nil, fmt.Errorf("%s:%w", op, NumberTakenError{Number: number})
			}
		}
	} else {
		available, err := s.store.AvailableCount(ctx, in.RaffleID)
		if err != nil {
			return nil, fmt.Errorf("%s:%w", op, s.translateStoreErr(err))
		}
		if int64(quantity) > available {
			return nil, fmt.Errorf("%s:%w", op,
				InsufficientTicketsError{Requested: quantity, Available: available})
		}
	}

	purchase := domain.Purchase{
		ID:              uuid.New(),
		RaffleID:        in.RaffleID,
		BuyerID:         buyer.ID,
		PurchaseDate:    time.Now().UTC(),
		NumberOfTickets: quantity,
		TotalCentavos:   s.cfg.Pricing.Total(quantity),
		PaymentMethod:   "PIX",
		PaymentStatus:   "completed",
	}

	var numbers []int
	if number > 0 {
		if err := s.store.SellNumber(ctx, in.RaffleID, number, *buyer, purchase); err != nil {
			if errors.Is(err, repository.ErrNumberTaken) || errors.Is(err, repository.ErrNotFound) {
				return nil, fmt.Errorf("%s:%w", op, NumberUnavailableError{Number: number})
			}
			return nil, fmt.Errorf("%s:%w", op, s.translateStoreErr(err))
		}
		numbers = []int{number}
	} else {
		ns, err := s.store.SellBatch(ctx, in.RaffleID, quantity, *buyer, purchase)
		if err != nil {
			if errors.Is(err, repository.ErrInsufficientTickets) {
				return nil, fmt.Errorf("%s:%w", op,
					InsufficientTicketsError{Requested: quantity})
			}
			return nil, fmt.Errorf("%s:%w", op, s.translateStoreErr(err))
		}
		numbers = ns
	}

	if s.cache != nil {
		_ = s.cache.InvalidateRaffle(ctx, in.RaffleID)
	}
	if s.pubsub != nil {
		_ = s.pubsub.PublishRaffleChanged(ctx, in.RaffleID)
	}

	return &Outcome{
		PurchaseID:    purchase.ID,
		Numbers:       numbers,
		GoldenNumbers: s.goldenAmong(numbers),
		TotalCentavos: purchase.TotalCentavos,
	}, nil
}

func (s *Service) parseRequest(in Input) (number, quantity int, err error) {
	chosen := strings.TrimSpace(in.ChosenNumber)
	if chosen != "" {
		n, convErr := strconv.Atoi(chosen)
		if convErr != nil || n < 1 || n > s.cfg.Raffle.TotalNumbers {
			return 0, 0, InvalidNumberError{Raw: chosen, Max: s.cfg.Raffle.TotalNumbers}
		}
		// a specific number always means exactly one ticket
		return n, 1, nil
	}

	if in.Quantity < 1 {
		return 0, 0, fmt.Errorf("%w: got %d", ErrInvalidQuantity, in.Quantity)
	}

	return 0, in.Quantity, nil
}

func (s *Service) translateStoreErr(err error) error {
	switch {
	case errors.Is(err, repository.ErrUnavailable):
		return ErrStoreUnavailable
	case errors.Is(err, repository.ErrConflict), postgresrepo.IsRetryable(err):
		return ErrConflictRetry
	default:
		return err
	}
}

func (s *Service) goldenAmong(numbers []int) []int {
	var out []int
	for _, n := range numbers {
		if s.cfg.Raffle.IsGolden(n) {
			out = append(out, n)
		}
	}
	return out
}
