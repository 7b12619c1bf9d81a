package admin

import (
	"context"
	"errors"
	"fmt"

	"github.com/lucasvdj/rifa-go/internal/repository"
	postgresrepo "github.com/lucasvdj/rifa-go/internal/repository/postgres"
	redisrepo "github.com/lucasvdj/rifa-go/internal/repository/redis"
	redisx "github.com/lucasvdj/rifa-go/internal/redis"
	"github.com/lucasvdj/rifa-go/internal/uow"
)

type Service struct {
	store  *postgresrepo.Store
	cache  *redisrepo.Cache
	pubsub *redisx.RafflePubSub
	uow    *uow.UoW
}

func New(store *postgresrepo.Store, cache *redisrepo.Cache, pubsub *redisx.RafflePubSub) *Service {
	return &Service{
		store:  store,
		cache:  cache,
		pubsub: pubsub,
		uow:    uow.NewUoW(store),
	}
}

// CreateRaffle creates a raffle and provisions its full ticket range
// 1..totalNumbers, all unsold, in one transactional Unit of Work.
//
// Parameters:
//   - ctx: request-scoped context.
//   - id: raffle identifier (e.g. "main-raffle").
//   - totalNumbers: size of the ticket pool.
//
// Returns:
//   - int64: how many ticket rows were provisioned.
//   - error: admin.ErrRaffleConflict if the raffle ID already exists.
func (s *Service) CreateRaffle(ctx context.Context, id string, totalNumbers int) (int64, error) {
	const op = "service.admin.CreateRaffle"

	if totalNumbers <= 0 {
		return 0, fmt.Errorf("%s: total numbers must be positive", op)
	}

	var seeded int64

	err := s.uow.Do(ctx, func(
		ctx context.Context,
		tx postgresrepo.DB,
		after func(uow.AfterCommit),
	) error {
		if err := s.store.Admin().With(tx).CreateRaffle(ctx, id, totalNumbers); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return fmt.Errorf("%s: %w", op, ErrRaffleConflict)
			}
			return fmt.Errorf("%s: %w", op, err)
		}

		n, err := s.store.Admin().With(tx).SeedTickets(ctx, id, totalNumbers)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}

		seeded = n

		after(func(ctx context.Context) {
			_ = s.cache.InvalidateRaffle(ctx, id)
			_ = s.pubsub.PublishRaffleChanged(ctx, id)
		})
		return nil
	})

	return seeded, err
}
