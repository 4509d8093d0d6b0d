package httpapi

import (
	"errors"

	"github.com/valyala/fasthttp"

	"github.com/park285/cheese-chess/internal/engine"
	"github.com/park285/cheese-chess/internal/game"
	svcchess "github.com/park285/cheese-chess/internal/service/chess"
	"github.com/park285/cheese-chess/pkg/chessdto"
)

var errBadRequest = errors.New("bad request")

type errorMapping struct {
	target    error
	status    int
	code      string
	retryable bool
}

// Order matters: more specific sentinels come first because service errors
// often wrap several of them.
var errorTable = []errorMapping{
	{svcchess.ErrPlayerRequired, fasthttp.StatusUnauthorized, chessdto.CodePlayerRequired, false},
	{svcchess.ErrSessionNotFound, fasthttp.StatusNotFound, chessdto.CodeSessionNotFound, false},
	{svcchess.ErrSessionInProgress, fasthttp.StatusConflict, chessdto.CodeSessionInProgress, false},
	{svcchess.ErrEngineTimeout, fasthttp.StatusServiceUnavailable, chessdto.CodeEngineTimeout, true},
	{svcchess.ErrInvalidMove, fasthttp.StatusUnprocessableEntity, chessdto.CodeInvalidMove, false},
	{game.ErrIllegalMove, fasthttp.StatusUnprocessableEntity, chessdto.CodeInvalidMove, false},
	{svcchess.ErrUndoNotAvailable, fasthttp.StatusConflict, chessdto.CodeUndoNotAvailable, false},
	{game.ErrUnknownDifficulty, fasthttp.StatusBadRequest, chessdto.CodeUnknownDifficulty, false},
	{game.ErrMalformedSave, fasthttp.StatusBadRequest, chessdto.CodeMalformedSave, false},
	{svcchess.ErrInvalidSaveName, fasthttp.StatusBadRequest, chessdto.CodeInvalidSaveName, false},
	{game.ErrInvalidState, fasthttp.StatusConflict, chessdto.CodeInvalidState, false},
	{svcchess.ErrGameNotFound, fasthttp.StatusNotFound, chessdto.CodeNotFound, false},
	{svcchess.ErrSavedGameNotFound, fasthttp.StatusNotFound, chessdto.CodeNotFound, false},
	{svcchess.ErrProfileNotFound, fasthttp.StatusNotFound, chessdto.CodeNotFound, false},
	{engine.ErrInvalidSquare, fasthttp.StatusBadRequest, chessdto.CodeBadRequest, false},
	{errBadRequest, fasthttp.StatusBadRequest, chessdto.CodeBadRequest, false},
}

func toDomainError(err error) (int, chessdto.DomainError) {
	for _, m := range errorTable {
		if errors.Is(err, m.target) {
			return m.status, chessdto.DomainError{Code: m.code, Message: err.Error(), Retryable: m.retryable}
		}
	}
	return fasthttp.StatusInternalServerError, chessdto.DomainError{Code: chessdto.CodeInternal, Message: "internal error", Retryable: true}
}
