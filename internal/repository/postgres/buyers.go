package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lucasvdj/rifa-go/internal/domain"
)

type BuyerRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *BuyerRepo) With(db DB) *BuyerRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *BuyerRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

// ByToken resolves a buyer from their session token.
//
// Returns:
//   - *domain.Buyer: the buyer when the token is known.
//   - error: repository.ErrNotFound for unknown tokens.
func (r *BuyerRepo) ByToken(ctx context.Context, token string) (*domain.Buyer, error) {
	const op = "postgres.BuyerRepo.ByToken"

	db := r.handle()

	var b domain.Buyer
	err := db.QueryRow(ctx,
		`SELECT id, display_name, COALESCE(photo_url, ''), anonymous, created_at
       	 FROM buyers WHERE session_token = $1`,
		token,
	).Scan(&b.ID, &b.DisplayName, &b.PhotoURL, &b.Anonymous, &b.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return &b, nil
}

// Create persists a buyer under the given session token.
//
// Returns:
//   - error: repository.ErrConflict if the token is already in use.
func (r *BuyerRepo) Create(ctx context.Context, buyer domain.Buyer, token string) error {
	const op = "postgres.BuyerRepo.Create"

	db := r.handle()

	_, err := db.Exec(ctx,
		`INSERT INTO buyers(id, session_token, display_name, photo_url, anonymous, created_at)
       	 VALUES ($1, $2, $3, $4, $5, $6)`,
		buyer.ID, token, buyer.DisplayName, buyer.PhotoURL, buyer.Anonymous, buyer.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return nil
}
