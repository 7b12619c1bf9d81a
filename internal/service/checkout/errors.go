package checkout

import (
	"errors"
	"fmt"

	"github.com/lucasvdj/rifa-go/internal/domain"
)

var (
	ErrInvalidNumber       = errors.New("invalid ticket number")
	ErrInvalidQuantity     = errors.New("invalid ticket quantity")
	ErrNumberTaken         = errors.New("ticket number already sold")
	ErrNumberUnavailable   = errors.New("ticket number no longer available")
	ErrInsufficientTickets = errors.New("not enough tickets available")
	ErrConflictRetry       = errors.New("lost an allocation race, safe to retry")
	ErrStoreUnavailable    = errors.New("ticket store unavailable")
	ErrRateLimited         = errors.New("rate limited")
	ErrRaffleNotFound      = errors.New("raffle not found")
)

// InvalidNumberError reports what the buyer actually typed.
type InvalidNumberError struct {
	Raw string
	Max int
}

func (e InvalidNumberError) Error() string {
	return fmt.Sprintf("invalid ticket number %q: choose a number between 001 and %d", e.Raw, e.Max)
}

func (e InvalidNumberError) Unwrap() error { return ErrInvalidNumber }

// NumberTakenError is the optimistic pre-check failure: the number was
// already in the sold set before any commit was attempted.
type NumberTakenError struct {
	Number int
}

func (e NumberTakenError) Error() string {
	return fmt.Sprintf("number %s is already sold", domain.FormatNumber(e.Number))
}

func (e NumberTakenError) Unwrap() error { return ErrNumberTaken }

// NumberUnavailableError is the hard failure at commit time: another
// buyer won the race since the pre-check.
type NumberUnavailableError struct {
	Number int
}

func (e NumberUnavailableError) Error() string {
	return fmt.Sprintf("number %s is no longer available", domain.FormatNumber(e.Number))
}

func (e NumberUnavailableError) Unwrap() error { return ErrNumberUnavailable }

// InsufficientTicketsError carries how many tickets were actually left.
type InsufficientTicketsError struct {
	Requested int
	Available int64
}

func (e InsufficientTicketsError) Error() string {
	return fmt.Sprintf("only %d of %d requested numbers are available", e.Available, e.Requested)
}

func (e InsufficientTicketsError) Unwrap() error { return ErrInsufficientTickets }
