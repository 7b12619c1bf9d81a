package query

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lucasvdj/rifa-go/internal/domain"
	redisx "github.com/lucasvdj/rifa-go/internal/redis"
	"github.com/lucasvdj/rifa-go/internal/repository"
	postgresrepo "github.com/lucasvdj/rifa-go/internal/repository/postgres"
	redisrepo "github.com/lucasvdj/rifa-go/internal/repository/redis"
)

type Config struct {
	SummaryTTL       time.Duration
	AvailabilityTTL  time.Duration
	TopBuyersTTL     time.Duration
	DefaultGridPage  int
	MaxGridPage      int
	TopBuyersDefault int
}

type Service struct {
	store *postgresrepo.Store
	cache *redisrepo.Cache
	cfg   Config
}

func New(store *postgresrepo.Store, cache *redisrepo.Cache, cfg Config) *Service {
	if cfg.SummaryTTL <= 0 {
		cfg.SummaryTTL = 60 * time.Second
	}

	if cfg.AvailabilityTTL <= 0 {
		cfg.AvailabilityTTL = 15 * time.Second
	}

	if cfg.TopBuyersTTL <= 0 {
		cfg.TopBuyersTTL = 30 * time.Second
	}

	if cfg.DefaultGridPage <= 0 {
		cfg.DefaultGridPage = 100
	}

	if cfg.MaxGridPage <= 0 {
		cfg.MaxGridPage = 500
	}

	if cfg.TopBuyersDefault <= 0 {
		cfg.TopBuyersDefault = 5
	}

	return &Service{
		store: store,
		cache: cache,
		cfg:   cfg,
	}
}

// GetRaffle retrieves the raffle summary, through the cache.
//
// Returns:
//   - *domain.Raffle: the raffle, or nil if not found.
//   - error: query.ErrRaffleNotFound if the raffle does not exist.
func (s *Service) GetRaffle(ctx context.Context, id string) (*domain.Raffle, error) {
	const op = "service.query.GetRaffle"

	key := redisx.KeyRaffleSummary(id)

	raffle, err := redisrepo.GetOrSetJSON(
		ctx,
		s.cache,
		key,
		s.cfg.SummaryTTL,
		func(ctx context.Context) (domain.Raffle, error) {
			r, err := s.store.Query().GetRaffle(ctx, id)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return domain.Raffle{}, ErrRaffleNotFound
				}

				return domain.Raffle{}, err
			}

			return *r, nil
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &raffle, nil
}

// Counts retrieves the sold/available/total counters, through the
// cache. Sold + Available always equals Total.
func (s *Service) Counts(ctx context.Context, raffleID string) (*domain.RaffleCounts, error) {
	const op = "service.query.Counts"

	key := redisx.KeyRaffleAvailability(raffleID)

	counts, err := redisrepo.GetOrSetJSON(
		ctx,
		s.cache,
		key,
		s.cfg.AvailabilityTTL,
		func(ctx context.Context) (domain.RaffleCounts, error) {
			rc, err := s.store.Query().Counts(ctx, raffleID)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return domain.RaffleCounts{}, ErrRaffleNotFound
				}

				return domain.RaffleCounts{}, err
			}

			return *rc, nil
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &counts, nil
}

// ListTickets retrieves a page of the ticket grid, optionally filtered
// to only sold or only available tickets.
func (s *Service) ListTickets(
	ctx context.Context,
	raffleID string,
	onlySold *bool,
	limit, offset int,
) ([]domain.Ticket, error) {
	const op = "service.query.ListTickets"

	if limit <= 0 {
		limit = s.cfg.DefaultGridPage
	}

	if limit > s.cfg.MaxGridPage {
		limit = s.cfg.MaxGridPage
	}

	if offset < 0 {
		offset = 0
	}

	load := func(ctx context.Context) ([]domain.Ticket, error) {
		return s.store.Query().ListTickets(ctx, raffleID, onlySold, limit, offset)
	}

	var tickets []domain.Ticket
	var err error

	// only the grid's first unfiltered page is hot enough to cache
	if s.cache != nil && onlySold == nil && offset == 0 && limit == s.cfg.DefaultGridPage {
		tickets, err = redisrepo.GetOrSetJSON(ctx, s.cache, redisx.KeyRaffleGrid(raffleID), s.cfg.AvailabilityTTL, load)
	} else {
		tickets, err = load(ctx)
	}
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrRaffleNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return tickets, nil
}

// TopBuyers retrieves the leaderboard, through the cache.
func (s *Service) TopBuyers(ctx context.Context, raffleID string, limit int) ([]domain.TopBuyer, error) {
	const op = "service.query.TopBuyers"

	if limit <= 0 {
		limit = s.cfg.TopBuyersDefault
	}

	key := redisx.KeyTopBuyers(raffleID)

	buyers, err := redisrepo.GetOrSetJSON(
		ctx,
		s.cache,
		key,
		s.cfg.TopBuyersTTL,
		func(ctx context.Context) ([]domain.TopBuyer, error) {
			return s.store.Query().TopBuyers(ctx, raffleID, limit)
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return buyers, nil
}

// MyNumbers retrieves the ticket numbers a buyer owns.
func (s *Service) MyNumbers(ctx context.Context, raffleID string, buyerID uuid.UUID) ([]int, error) {
	const op = "service.query.MyNumbers"

	numbers, err := s.store.Query().TicketNumbersByBuyer(ctx, raffleID, buyerID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return numbers, nil
}

// MyPurchases retrieves a buyer's purchase history, newest first.
func (s *Service) MyPurchases(ctx context.Context, raffleID string, buyerID uuid.UUID) ([]domain.Purchase, error) {
	const op = "service.query.MyPurchases"

	purchases, err := s.store.Query().PurchasesByBuyer(ctx, raffleID, buyerID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return purchases, nil
}
