package repository

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrConflict            = errors.New("conflict")
	ErrNumberTaken         = errors.New("ticket number already sold")
	ErrInsufficientTickets = errors.New("not enough unsold tickets")
	ErrUnavailable         = errors.New("store unavailable")
)
