package apperror

import "errors"

var (
	ErrGameFinished     = errors.New("game is already finished")
	ErrCellOccupied     = errors.New("cell is already occupied")
	ErrCellOutOfRange   = errors.New("cell index out of range")
	ErrNoAvailableMoves = errors.New("no available moves")
	ErrSessionNotFound  = errors.New("session not found")
)
