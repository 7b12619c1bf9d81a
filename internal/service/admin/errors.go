package admin

import (
	"errors"
)

var (
	ErrRaffleConflict = errors.New("raffle already exists")
)
