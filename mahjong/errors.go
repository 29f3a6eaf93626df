package mahjong

import "errors"

var (
	ErrRoundEnded       = errors.New("round already ended")
	ErrOutOfTurn        = errors.New("action out of turn")
	ErrNotEligible      = errors.New("no claim eligibility")
	ErrAlreadyResponded = errors.New("claim decision already submitted")
	ErrFalseHu          = errors.New("hand is not a winning hand")
	ErrTileNotInHand    = errors.New("tile not in hand")
	ErrMeldNotFound     = errors.New("matching meld not found")
	ErrSeatOccupied     = errors.New("seat already occupied")
	ErrSeatEmpty        = errors.New("seat is empty")
)

type InvalidStateError string

func (e InvalidStateError) Error() string { return "invalid state: " + string(e) }

func ErrInvalidState(msg string) error { return InvalidStateError(msg) }
