package service

import (
	redisx "github.com/lucasvdj/rifa-go/internal/redis"
	postgres "github.com/lucasvdj/rifa-go/internal/repository/postgres"
	redis "github.com/lucasvdj/rifa-go/internal/repository/redis"
	"github.com/lucasvdj/rifa-go/internal/service/admin"
	"github.com/lucasvdj/rifa-go/internal/service/checkout"
	"github.com/lucasvdj/rifa-go/internal/service/identity"
	"github.com/lucasvdj/rifa-go/internal/service/luck"
	"github.com/lucasvdj/rifa-go/internal/service/query"
)

type Services struct {
	Checkout *checkout.Service
	Query    *query.Service
	Luck     *luck.Service
	Identity *identity.Service
	Admin    *admin.Service
}

type Config struct {
	Checkout checkout.Config
	Query    query.Config
}

func NewServices(
	store *postgres.Store,
	cache *redis.Cache,
	pubsub *redisx.RafflePubSub,
	limiter *redis.SlidingWindowLimiter,
	bonus *redis.BonusStore,
	cfg Config,
) *Services {
	identitySvc := identity.New(store.Buyers())

	return &Services{
		Checkout: checkout.New(store.Allocation(), identitySvc, cache, pubsub, limiter, cfg.Checkout),
		Query:    query.New(store, cache, cfg.Query),
		Luck:     luck.New(store.Query(), bonus),
		Identity: identitySvc,
		Admin:    admin.New(store, cache, pubsub),
	}
}
