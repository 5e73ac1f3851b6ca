package domain

import "errors"

var (
	// ErrInsufficientSymbols means there are fewer distinct normal symbols than requested pairs.
	ErrInsufficientSymbols = errors.New("insufficient distinct symbols")
	// ErrInvalidSlots means the board cannot hold the special cards plus one pair.
	ErrInvalidSlots = errors.New("board too small for special cards")
	// ErrIndexOutOfRange is a caller bug: the board index does not exist.
	ErrIndexOutOfRange = errors.New("card index out of range")
	// ErrInvalidPair means the indices are not the revealed pair awaiting resolution.
	ErrInvalidPair = errors.New("pair must be the two revealed pending cards")
)
