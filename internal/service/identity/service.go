package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lucasvdj/rifa-go/internal/domain"
	"github.com/lucasvdj/rifa-go/internal/repository"
)

var ErrSessionNotFound = errors.New("session not found")

// anonymousName is what the storefront shows for buyers who never
// signed in with a profile.
const anonymousName = "Anônimo"

// Store persists buyers keyed by their session token.
type Store interface {
	ByToken(ctx context.Context, token string) (*domain.Buyer, error)
	Create(ctx context.Context, buyer domain.Buyer, token string) error
}

type Service struct {
	store Store
}

func New(store Store) *Service {
	return &Service{store: store}
}

// Resolve looks up the buyer behind a session token.
//
// Returns:
//   - *domain.Buyer: the resolved buyer.
//   - error: identity.ErrSessionNotFound for empty or unknown tokens.
func (s *Service) Resolve(ctx context.Context, token string) (*domain.Buyer, error) {
	const op = "service.identity.Resolve"

	if token == "" {
		return nil, fmt.Errorf("%s:%w", op, ErrSessionNotFound)
	}

	buyer, err := s.store.ByToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s:%w", op, ErrSessionNotFound)
		}

		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return buyer, nil
}

// Bootstrap creates a fresh anonymous buyer and returns the session
// token that resolves to it. Called when a checkout arrives without a
// usable identity; the caller retries the checkout with the token.
func (s *Service) Bootstrap(ctx context.Context) (string, *domain.Buyer, error) {
	const op = "service.identity.Bootstrap"

	buyer := domain.Buyer{
		ID:          uuid.New(),
		DisplayName: anonymousName,
		Anonymous:   true,
		CreatedAt:   time.Now().UTC(),
	}

	token := uuid.New().String()

	if err := s.store.Create(ctx, buyer, token); err != nil {
		return "", nil, fmt.Errorf("%s:%w", op, err)
	}

	return token, &buyer, nil
}
