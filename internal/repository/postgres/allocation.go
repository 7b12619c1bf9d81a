package postgres

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lucasvdj/rifa-go/internal/domain"
	"github.com/lucasvdj/rifa-go/internal/repository"
)

// AllocationRepo owns the sell-side of the ticket store: the atomic
// purchase-plus-ticket commit. Every sell runs in a single serializable
// transaction, so a failed allocation leaves no partial state behind.
type AllocationRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *AllocationRepo) With(db DB) *AllocationRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *AllocationRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

// AvailableCount returns how many tickets are still unsold.
func (r *AllocationRepo) AvailableCount(ctx context.Context, raffleID string) (int64, error) {
	const op = "postgres.AllocationRepo.AvailableCount"

	db := r.handle()

	var n int64
	err := db.QueryRow(ctx,
		`SELECT COUNT(*) FROM raffle_tickets
     	 WHERE raffle_id = $1 AND is_sold = FALSE`,
		raffleID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return n, nil
}

// SoldNumbers lists every sold ticket number, ascending.
func (r *AllocationRepo) SoldNumbers(ctx context.Context, raffleID string) ([]int, error) {
	const op = "postgres.AllocationRepo.SoldNumbers"

	db := r.handle()

	rows, err := db.Query(ctx,
		`SELECT ticket_number FROM raffle_tickets
     	 WHERE raffle_id = $1 AND is_sold = TRUE
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
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return out, nil
}

// SellNumber sells one specific ticket number to the buyer, creating the
// purchase record in the same transaction. The ticket update is guarded
// by is_sold = FALSE, so of two concurrent buyers of the same number
// exactly one commit succeeds.
//
// Returns:
//   - error: repository.ErrNumberTaken if the number is already sold.
//   - error: repository.ErrNotFound if the raffle has no such ticket row.
//   - error: repository.ErrConflict if the purchase insert collides.
func (r *AllocationRepo) SellNumber(
	ctx context.Context,
	raffleID string,
	number int,
	buyer domain.Buyer,
	purchase domain.Purchase,
) error {
	const op = "postgres.AllocationRepo.SellNumber"

	if r.db != nil {
		if err := r.sellNumberCore(ctx, r.db, raffleID, number, buyer, purchase); err != nil {
			return fmt.Errorf("%s:%w", op, translateDBErr(err))
		}
		return nil
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.Serializable,
		AccessMode: pgx.ReadWrite,
	})
	if err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	defer tx.Rollback(ctx)

	if err := r.sellNumberCore(ctx, tx, raffleID, number, buyer, purchase); err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return nil
}

// SellBatch sells the first quantity unsold tickets in number order and
// returns the numbers actually sold. Fewer unsold tickets than requested
// aborts the whole transaction.
//
// Returns:
//   - []int: the sold ticket numbers, ascending.
//   - error: repository.ErrInsufficientTickets if fewer than quantity
//     tickets were unsold at commit time.
func (r *AllocationRepo) SellBatch(
	ctx context.Context,
	raffleID string,
	quantity int,
	buyer domain.Buyer,
	purchase domain.Purchase,
) ([]int, error) {
	const op = "postgres.AllocationRepo.SellBatch"

	if r.db != nil {
		numbers, err := r.sellBatchCore(ctx, r.db, raffleID, quantity, buyer, purchase)
		if err != nil {
			return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
		}
		return numbers, nil
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.Serializable,
		AccessMode: pgx.ReadWrite,
	})
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	defer tx.Rollback(ctx)

	numbers, err := r.sellBatchCore(ctx, tx, raffleID, quantity, buyer, purchase)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return numbers, nil
}

func (r *AllocationRepo) sellNumberCore(
	ctx context.Context,
	db DB,
	raffleID string,
	number int,
	buyer domain.Buyer,
	purchase domain.Purchase,
) error {
	if err := insertPurchase(ctx, db, purchase); err != nil {
		return err
	}

	tag, err := db.Exec(ctx,
		`UPDATE raffle_tickets
	        SET is_sold = TRUE,
	            purchase_id = $3,
	            buyer_id = $4,
	            buyer_name = $5,
	            buyer_photo = $6
      	 WHERE raffle_id = $1
        	AND ticket_number = $2
        	AND is_sold = FALSE`,
		raffleID, number,
		purchase.ID, buyer.ID, buyer.DisplayName, buyer.PhotoURL,
	)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 1 {
		return nil
	}

	// the conditional write matched nothing: either the number was sold
	// since the caller's read, or the raffle never had that ticket
	var sold bool
	err = db.QueryRow(ctx,
		`SELECT is_sold FROM raffle_tickets
     	 WHERE raffle_id = $1 AND ticket_number = $2`,
		raffleID, number,
	).Scan(&sold)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return repository.ErrNotFound
		}
		return err
	}

	return repository.ErrNumberTaken
}

func (r *AllocationRepo) sellBatchCore(
	ctx context.Context,
	db DB,
	raffleID string,
	quantity int,
	buyer domain.Buyer,
	purchase domain.Purchase,
) ([]int, error) {
	if err := insertPurchase(ctx, db, purchase); err != nil {
		return nil, err
	}

	rows, err := db.Query(ctx,
		`UPDATE raffle_tickets
	        SET is_sold = TRUE,
	            purchase_id = $3,
	            buyer_id = $4,
	            buyer_name = $5,
	            buyer_photo = $6
      	 WHERE id IN (
	            SELECT id FROM raffle_tickets
	             WHERE raffle_id = $1 AND is_sold = FALSE
	             ORDER BY ticket_number
	             LIMIT $2)
      	 RETURNING ticket_number`,
		raffleID, quantity,
		purchase.ID, buyer.ID, buyer.DisplayName, buyer.PhotoURL,
	)
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	var numbers []int
	for rows.Next() {
		var n int
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		numbers = append(numbers, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(numbers) < quantity {
		return nil, repository.ErrInsufficientTickets
	}

	sort.Ints(numbers)

	return numbers, nil
}

func insertPurchase(ctx context.Context, db DB, p domain.Purchase) error {
	_, err := db.Exec(ctx,
		`INSERT INTO purchases(
	        id, raffle_id, buyer_id, purchase_date,
	        number_of_tickets, total_centavos, payment_method, payment_status)
       	 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		p.ID, p.RaffleID, p.BuyerID, p.PurchaseDate,
		p.NumberOfTickets, p.TotalCentavos, p.PaymentMethod, p.PaymentStatus,
	)
	return err
}
