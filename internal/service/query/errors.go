package query

import (
	"errors"
)

var (
	ErrRaffleNotFound = errors.New("raffle not found")
)
