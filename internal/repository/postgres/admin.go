package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type AdminRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *AdminRepo) With(db DB) *AdminRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *AdminRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

// CreateRaffle inserts the raffle row.
//
// Returns:
//   - error: repository.ErrConflict if the raffle ID already exists.
func (r *AdminRepo) CreateRaffle(ctx context.Context, id string, totalNumbers int) error {
	const op = "postgres.AdminRepo.CreateRaffle"

	db := r.handle()

	if _, err := db.Exec(ctx,
		`INSERT INTO raffles(id, total_numbers)
       	 VALUES ($1, $2)`,
		id, totalNumbers,
	); err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return nil
}

// SeedTickets provisions one unsold ticket row per number in
// [1, totalNumbers]. Re-running is a no-op for numbers that exist.
func (r *AdminRepo) SeedTickets(ctx context.Context, raffleID string, totalNumbers int) (int64, error) {
	const op = "postgres.AdminRepo.SeedTickets"

	db := r.handle()

	tag, err := db.Exec(ctx,
		`INSERT INTO raffle_tickets(raffle_id, ticket_number, is_sold)
       	 SELECT $1, n, FALSE
         FROM generate_series(1, $2) AS n
     	 ON CONFLICT (raffle_id, ticket_number) DO NOTHING`,
		raffleID, totalNumbers,
	)
	if err != nil {
		return 0, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return tag.RowsAffected(), nil
}
