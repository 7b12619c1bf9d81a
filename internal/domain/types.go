package domain

import (
	"time"

	"github.com/google/uuid"
)

// Raffle is one numbered-ticket pool. Tickets are numbered 1..TotalNumbers.
type Raffle struct {
	ID           string
	TotalNumbers int
	CreatedAt    time.Time
}

// Ticket is one purchasable entry in a raffle. IsSold transitions
// false -> true exactly once; buyer identity is denormalized onto the
// ticket in the same commit that sells it.
type Ticket struct {
	ID         int64
	RaffleID   string
	Number     int
	IsSold     bool
	PurchaseID *uuid.UUID
	BuyerID    *uuid.UUID
	BuyerName  string
	BuyerPhoto string
}

// Purchase is the append-only audit record of one checkout. It is created
// inside the same transaction that marks its tickets sold.
type Purchase struct {
	ID              uuid.UUID
	RaffleID        string
	BuyerID         uuid.UUID
	PurchaseDate    time.Time
	NumberOfTickets int
	TotalCentavos   int
	PaymentMethod   string
	PaymentStatus   string
}

// Buyer is a resolved storefront identity. Anonymous buyers are created
// on demand by the identity bootstrap.
type Buyer struct {
	ID          uuid.UUID
	DisplayName string
	PhotoURL    string
	Anonymous   bool
	CreatedAt   time.Time
}

// RaffleCounts holds the live inventory counters for one raffle.
// Sold + Available == Total after every successful allocation.
type RaffleCounts struct {
	Sold      int64
	Available int64
	Total     int64
}

// TopBuyer is one leaderboard row: a buyer and how many tickets they hold.
type TopBuyer struct {
	BuyerID     uuid.UUID
	DisplayName string
	PhotoURL    string
	TicketCount int
}

// LuckyPick is the output of the mock "analysis": a random unsold number
// and a made-up hit probability.
type LuckyPick struct {
	Number      int
	Probability int
}
