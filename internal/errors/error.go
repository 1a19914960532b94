package errors

import "errors"

var (
	ErrGameNotFound      = errors.New("game not found")
	ErrCreateGameFailed  = errors.New("create game failed")
	ErrInvalidBoardSize  = errors.New("board size is not allowed")
	ErrInvalidRule       = errors.New("unknown rule variant")
	ErrIllegalMove       = errors.New("illegal move")
	ErrGameNotInProgress = errors.New("game is not in progress")
	ErrNothingToUndo     = errors.New("nothing to undo")
	ErrStaleAIResult     = errors.New("ai result is stale")
	ErrAIUnavailable     = errors.New("ai service unavailable")
	ErrInvalidTier       = errors.New("unknown ai tier")
	ErrRecordNotFound    = errors.New("live record not found")
	ErrInternal          = errors.New("internal error")
)
