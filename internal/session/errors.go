package session

import "errors"

var (
	ErrNotPlaying   = errors.New("game is not in progress")
	ErrNotSetup     = errors.New("game has already started")
	ErrEmptyHistory = errors.New("no moves to undo")
)
