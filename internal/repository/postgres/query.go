package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lucasvdj/rifa-go/internal/domain"
)

type QueryRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *QueryRepo) With(db DB) *QueryRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *QueryRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

// GetRaffle retrieves a raffle by its ID.
//
// Returns:
//   - *domain.Raffle: the raffle when found.
//   - error: repository.ErrNotFound if the raffle does not exist.
func (r *QueryRepo) GetRaffle(ctx context.Context, id string) (*domain.Raffle, error) {
	const op = "postgres.QueryRepo.GetRaffle"

	db := r.handle()

	var rf domain.Raffle
	err := db.QueryRow(ctx,
		`SELECT id, total_numbers, created_at
       	 FROM raffles WHERE id = $1`,
		id,
	).Scan(&rf.ID, &rf.TotalNumbers, &rf.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return &rf, nil
}

// Counts returns sold/available/total counters for a raffle.
//
// Returns:
//   - *domain.RaffleCounts: the counters; Total is zero when the raffle
//     has no tickets.
func (r *QueryRepo) Counts(ctx context.Context, raffleID string) (*domain.RaffleCounts, error) {
	const op = "postgres.QueryRepo.Counts"

	db := r.handle()

	var rc domain.RaffleCounts
	err := db.QueryRow(ctx,
		`SELECT
       	 	COALESCE(SUM(CASE WHEN is_sold THEN 1 ELSE 0 END), 0),
       	 	COALESCE(SUM(CASE WHEN is_sold THEN 0 ELSE 1 END), 0)
     	 FROM raffle_tickets
     	 WHERE raffle_id = $1`,
		raffleID,
	).Scan(&rc.Sold, &rc.Available)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	rc.Total = rc.Sold + rc.Available

	return &rc, nil
}

// ListTickets lists tickets for a raffle in number order, optionally
// filtered to only sold or only unsold ones.
func (r *QueryRepo) ListTickets(
	ctx context.Context,
	raffleID string,
	onlySold *bool,
	limit, offset int,
) ([]domain.Ticket, error) {
	const op = "postgres.QueryRepo.ListTickets"

	db := r.handle()

	var rows pgx.Rows
	var err error

	if onlySold != nil {
		rows, err = db.Query(ctx,
			`SELECT id, raffle_id, ticket_number, is_sold,
	                purchase_id, buyer_id,
	                COALESCE(buyer_name, ''), COALESCE(buyer_photo, '')
	         FROM raffle_tickets
        	 WHERE raffle_id = $1 AND is_sold = $2
        	 ORDER BY ticket_number
        	 LIMIT $3 OFFSET $4`,
			raffleID, *onlySold, limit, offset,
		)
	} else {
		rows, err = db.Query(ctx,
			`SELECT id, raffle_id, ticket_number, is_sold,
	                purchase_id, buyer_id,
	                COALESCE(buyer_name, ''), COALESCE(buyer_photo, '')
	         FROM raffle_tickets
        	 WHERE raffle_id = $1
        	 ORDER BY ticket_number
        	 LIMIT $2 OFFSET $3`,
			raffleID, limit, offset,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	defer rows.Close()

	var out []domain.Ticket
	for rows.Next() {
		var t domain.Ticket

		if err := rows.Scan(
			&t.ID,
			&t.RaffleID,
			&t.Number,
			&t.IsSold,
			&t.PurchaseID,
			&t.BuyerID,
			&t.BuyerName,
			&t.BuyerPhoto,
		); err != nil {
			return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
		}

		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return out, nil
}

// UnsoldNumbers lists every unsold ticket number, ascending.
func (r *QueryRepo) UnsoldNumbers(ctx context.Context, raffleID string) ([]int, error) {
	const op = "postgres.QueryRepo.UnsoldNumbers"

	db := r.handle()

	rows, err := db.Query(ctx,
		`SELECT ticket_number FROM raffle_tickets
     	 WHERE raffle_id = $1 AND is_sold = FALSE
     	 ORDER BY ticket_number`,
		raffleID,
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	defer rows.Close()

	var out []int
	for rows.Next() {
		var n int
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return out, nil
}

// TopBuyers aggregates sold tickets per buyer, most tickets first.
func (r *QueryRepo) TopBuyers(ctx context.Context, raffleID string, limit int) ([]domain.TopBuyer, error) {
	const op = "postgres.QueryRepo.TopBuyers"

	db := r.handle()

	rows, err := db.Query(ctx,
		`SELECT buyer_id, COALESCE(buyer_name, ''), COALESCE(buyer_photo, ''), COUNT(*)
     	 FROM raffle_tickets
     	 WHERE raffle_id = $1 AND is_sold = TRUE AND buyer_id IS NOT NULL
     	 GROUP BY buyer_id, buyer_name, buyer_photo
     	 ORDER BY COUNT(*) DESC, buyer_name
     	 LIMIT $2`,
		raffleID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	defer rows.Close()

	var out []domain.TopBuyer
	for rows.Next() {
		var tb domain.TopBuyer

		if err := rows.Scan(&tb.BuyerID, &tb.DisplayName, &tb.PhotoURL, &tb.TicketCount); err != nil {
			return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
		}

		out = append(out, tb)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return out, nil
}

// TicketNumbersByBuyer lists the numbers a buyer owns in a raffle.
func (r *QueryRepo) TicketNumbersByBuyer(
	ctx context.Context,
	raffleID string,
	buyerID uuid.UUID,
) ([]int, error) {
	const op = "postgres.QueryRepo.TicketNumbersByBuyer"

	db := r.handle()

	rows, err := db.Query(ctx,
		`SELECT ticket_number FROM raffle_tickets
     	 WHERE raffle_id = $1 AND buyer_id = $2
     	 ORDER BY ticket_number`,
		raffleID, buyerID,
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	defer rows.Close()

	var out []int
	for rows.Next() {
		var n int
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return out, nil
}

// PurchasesByBuyer lists a buyer's purchases, newest first.
func (r *QueryRepo) PurchasesByBuyer(
	ctx context.Context,
	raffleID string,
	buyerID uuid.UUID,
) ([]domain.Purchase, error) {
	const op = "postgres.QueryRepo.PurchasesByBuyer"

	db := r.handle()

	rows, err := db.Query(ctx,
		`SELECT id, raffle_id, buyer_id, purchase_date,
	            number_of_tickets, total_centavos, payment_method, payment_status
     	 FROM purchases
     	 WHERE raffle_id = $1 AND buyer_id = $2
     	 ORDER BY purchase_date DESC`,
		raffleID, buyerID,
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	defer rows.Close()

	var out []domain.Purchase
	for rows.Next() {
		var p domain.Purchase

		if err := rows.Scan(
			&p.ID,
			&p.RaffleID,
			&p.BuyerID,
			&p.PurchaseDate,
			&p.NumberOfTickets,
			&p.TotalCentavos,
			&p.PaymentMethod,
			&p.PaymentStatus,
		); err != nil {
			return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
		}

		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return out, nil
}
