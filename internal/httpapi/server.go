package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/park285/cheese-chess/internal/adapter/chesspresenter"
	svcchess "github.com/park285/cheese-chess/internal/service/chess"
	"github.com/park285/cheese-chess/pkg/chessdto"
)

const (
	HeaderPlayer    = "X-Player"
	HeaderSessionID = "X-Session-ID"

	apiPrefix   = "/v1"
	maxBodySize = 64 << 10
)

// Server exposes the chess service as a JSON API.
type Server struct {
	svc    *svcchess.Service
	format *chesspresenter.Formatter
	logger *zap.Logger
}

func NewServer(svc *svcchess.Service, format *chesspresenter.Formatter, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{svc: svc, format: format, logger: logger}
}

// HTTPServer returns a configured fasthttp server for s.
func (s *Server) HTTPServer() *fasthttp.Server {
	return &fasthttp.Server{
		Handler:            s.Handler(),
		Name:               "cheese-chess",
		ReadTimeout:        15 * time.Second,
		WriteTimeout:       30 * time.Second,
		MaxRequestBodySize: maxBodySize,
	}
}

func (s *Server) Handler() fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		started := time.Now()
		s.route(ctx)
		s.logger.Debug("http request",
			zap.ByteString("method", ctx.Method()),
			zap.ByteString("path", ctx.Path()),
			zap.Int("status", ctx.Response.StatusCode()),
			zap.Duration("elapsed", time.Since(started)),
		)
	}
}

func (s *Server) route(ctx *fasthttp.RequestCtx) {
	method := string(ctx.Method())
	path := strings.TrimRight(string(ctx.Path()), "/")

	if path == "/healthz" {
		ctx.SetStatusCode(fasthttp.StatusOK)
		ctx.SetBodyString("ok")
		return
	}
	rest, ok := strings.CutPrefix(path, apiPrefix)
	if !ok {
		s.notFound(ctx)
		return
	}
	parts := strings.Split(strings.Trim(rest, "/"), "/")

	switch {
	case match(parts, "games") && method == fasthttp.MethodPost:
		s.handleStart(ctx)
	case match(parts, "games", "current") && method == fasthttp.MethodGet:
		s.handleStatus(ctx)
	case match(parts, "games", "current", "moves") && method == fasthttp.MethodPost:
		s.handlePlay(ctx)
	case match(parts, "games", "current", "legal") && method == fasthttp.MethodGet:
		s.handleLegal(ctx)
	case match(parts, "games", "current", "undo") && method == fasthttp.MethodPost:
		s.handleUndo(ctx)
	case match(parts, "games", "current", "resign") && method == fasthttp.MethodPost:
		s.handleResign(ctx)
	case match(parts, "games", "current", "board.png") && method == fasthttp.MethodGet:
		s.handleBoard(ctx)
	case match(parts, "games", "current", "export") && method == fasthttp.MethodGet:
		s.handleExport(ctx)
	case match(parts, "games", "import") && method == fasthttp.MethodPost:
		s.handleImport(ctx)
	case match(parts, "saves") && method == fasthttp.MethodPost:
		s.handleSave(ctx)
	case match(parts, "saves") && method == fasthttp.MethodGet:
		s.handleListSaved(ctx)
	case match(parts, "saves", "*", "load") && method == fasthttp.MethodPost:
		s.handleLoadSaved(ctx, parts[1])
	case match(parts, "saves", "*") && method == fasthttp.MethodDelete:
		s.handleDeleteSaved(ctx, parts[1])
	case match(parts, "history") && method == fasthttp.MethodGet:
		s.handleHistory(ctx)
	case match(parts, "history", "*") && method == fasthttp.MethodGet:
		s.handleGame(ctx, parts[1])
	case match(parts, "profile") && method == fasthttp.MethodGet:
		s.handleProfile(ctx)
	case match(parts, "profile", "difficulty") && method == fasthttp.MethodPut:
		s.handlePreferredDifficulty(ctx)
	default:
		s.notFound(ctx)
	}
}

// match compares path segments; "*" matches any single segment.
func match(parts []string, pattern ...string) bool {
	if len(parts) != len(pattern) {
		return false
	}
	for i, p := range pattern {
		if p != "*" && p != parts[i] {
			return false
		}
	}
	return true
}

func meta(ctx *fasthttp.RequestCtx) svcchess.SessionMeta {
	return chesspresenter.ToServiceMeta(chessdto.RequestMeta{
		Player:    string(ctx.Request.Header.Peek(HeaderPlayer)),
		SessionID: string(ctx.Request.Header.Peek(HeaderSessionID)),
	})
}

func (s *Server) handleStart(ctx *fasthttp.RequestCtx) {
	var req chessdto.StartSessionRequest
	if !s.decode(ctx, &req) {
		return
	}
	state, err := s.svc.Start(ctx, meta(ctx), req.Difficulty, req.AIColor)
	resumed := errors.Is(err, svcchess.ErrSessionInProgress)
	if err != nil && !resumed {
		s.fail(ctx, err)
		return
	}
	dto := chesspresenter.ToDTOState(state)
	status := fasthttp.StatusCreated
	if resumed {
		status = fasthttp.StatusOK
	}
	s.respond(ctx, status, chessdto.StartSessionResponse{State: dto, Resumed: resumed, Message: s.format.Start(dto, resumed)})
}

func (s *Server) handleStatus(ctx *fasthttp.RequestCtx) {
	state, err := s.svc.Status(ctx, meta(ctx))
	if err != nil {
		s.fail(ctx, err)
		return
	}
	dto := chesspresenter.ToDTOState(state)
	s.respond(ctx, fasthttp.StatusOK, chessdto.StatusResponse{State: dto, Message: s.format.Status(dto)})
}

func (s *Server) handlePlay(ctx *fasthttp.RequestCtx) {
	var req chessdto.PlayRequest
	if !s.decode(ctx, &req) {
		return
	}
	summary, err := s.svc.Play(ctx, meta(ctx), req.Move)
	if err != nil {
		s.fail(ctx, err)
		return
	}
	dto := chesspresenter.ToDTOMoveSummary(summary)
	s.respond(ctx, fasthttp.StatusOK, chessdto.PlayResponse{Summary: dto, Message: s.format.Move(dto)})
}

func (s *Server) handleLegal(ctx *fasthttp.RequestCtx) {
	square := string(ctx.QueryArgs().Peek("square"))
	moves, err := s.svc.LegalMoves(ctx, meta(ctx), square)
	if err != nil {
		s.fail(ctx, err)
		return
	}
	if moves == nil {
		moves = []string{}
	}
	s.respond(ctx, fasthttp.StatusOK, chessdto.LegalMovesResponse{Square: square, Moves: moves})
}

func (s *Server) handleUndo(ctx *fasthttp.RequestCtx) {
	state, err := s.svc.Undo(ctx, meta(ctx))
	if err != nil {
		s.fail(ctx, err)
		return
	}
	dto := chesspresenter.ToDTOState(state)
	s.respond(ctx, fasthttp.StatusOK, chessdto.StatusResponse{State: dto, Message: s.format.Undo(dto)})
}

func (s *Server) handleResign(ctx *fasthttp.RequestCtx) {
	state, err := s.svc.Resign(ctx, meta(ctx))
	if err != nil {
		s.fail(ctx, err)
		return
	}
	dto := chesspresenter.ToDTOState(state)
	s.respond(ctx, fasthttp.StatusOK, chessdto.StatusResponse{State: dto, Message: s.format.Resign(dto)})
}

func (s *Server) handleBoard(ctx *fasthttp.RequestCtx) {
	img, err := s.svc.BoardImage(ctx, meta(ctx))
	if err != nil {
		s.fail(ctx, err)
		return
	}
	ctx.SetStatusCode(fasthttp.StatusOK)
	ctx.SetContentType("image/png")
	ctx.SetBody(img)
}

func (s *Server) handleExport(ctx *fasthttp.RequestCtx) {
	text, err := s.svc.Export(ctx, meta(ctx))
	if err != nil {
		s.fail(ctx, err)
		return
	}
	s.respond(ctx, fasthttp.StatusOK, chessdto.ExportResponse{Save: text})
}

func (s *Server) handleImport(ctx *fasthttp.RequestCtx) {
	var req chessdto.ImportRequest
	if !s.decode(ctx, &req) {
		return
	}
	state, err := s.svc.Import(ctx, meta(ctx), req.Save)
	if err != nil {
		s.fail(ctx, err)
		return
	}
	dto := chesspresenter.ToDTOState(state)
	s.respond(ctx, fasthttp.StatusCreated, chessdto.StatusResponse{State: dto, Message: s.format.Status(dto)})
}

func (s *Server) handleSave(ctx *fasthttp.RequestCtx) {
	var req chessdto.SaveRequest
	if !s.decode(ctx, &req) {
		return
	}
	saved, err := s.svc.Save(ctx, meta(ctx), req.Name)
	if err != nil {
		s.fail(ctx, err)
		return
	}
	dto := chesspresenter.ToDTOSaved(saved, true)
	s.respond(ctx, fasthttp.StatusCreated, chessdto.SaveResponse{Saved: dto, Message: s.format.Saved(dto)})
}

func (s *Server) handleListSaved(ctx *fasthttp.RequestCtx) {
	list, err := s.svc.ListSaved(ctx, meta(ctx), queryInt(ctx, "limit"))
	if err != nil {
		s.fail(ctx, err)
		return
	}
	s.respond(ctx, fasthttp.StatusOK, chessdto.SavedListResponse{Saved: chesspresenter.ToDTOSavedList(list)})
}

func (s *Server) handleLoadSaved(ctx *fasthttp.RequestCtx, rawID string) {
	id, ok := s.pathID(ctx, rawID)
	if !ok {
		return
	}
	state, err := s.svc.LoadSaved(ctx, meta(ctx), id)
	if err != nil {
		s.fail(ctx, err)
		return
	}
	dto := chesspresenter.ToDTOState(state)
	s.respond(ctx, fasthttp.StatusOK, chessdto.StatusResponse{State: dto, Message: s.format.Status(dto)})
}

func (s *Server) handleDeleteSaved(ctx *fasthttp.RequestCtx, rawID string) {
	id, ok := s.pathID(ctx, rawID)
	if !ok {
		return
	}
	if err := s.svc.DeleteSaved(ctx, meta(ctx), id); err != nil {
		s.fail(ctx, err)
		return
	}
	ctx.SetStatusCode(fasthttp.StatusNoContent)
}

func (s *Server) handleHistory(ctx *fasthttp.RequestCtx) {
	games, err := s.svc.History(ctx, meta(ctx), queryInt(ctx, "limit"))
	if err != nil {
		s.fail(ctx, err)
		return
	}
	dto := chesspresenter.ToDTOGames(games)
	s.respond(ctx, fasthttp.StatusOK, chessdto.HistoryResponse{Games: dto, Message: s.format.History(dto)})
}

func (s *Server) handleGame(ctx *fasthttp.RequestCtx, rawID string) {
	id, ok := s.pathID(ctx, rawID)
	if !ok {
		return
	}
	g, err := s.svc.Game(ctx, meta(ctx), id)
	if err != nil {
		s.fail(ctx, err)
		return
	}
	dto := chesspresenter.ToDTOGame(g)
	s.respond(ctx, fasthttp.StatusOK, chessdto.GameResponse{Game: dto, Message: s.format.Game(dto)})
}

func (s *Server) handleProfile(ctx *fasthttp.RequestCtx) {
	p, err := s.svc.Profile(ctx, meta(ctx))
	if err != nil {
		s.fail(ctx, err)
		return
	}
	dto := chesspresenter.ToDTOProfile(p)
	s.respond(ctx, fasthttp.StatusOK, chessdto.ProfileResponse{Profile: dto, Message: s.format.Profile(dto)})
}

func (s *Server) handlePreferredDifficulty(ctx *fasthttp.RequestCtx) {
	var req chessdto.UpdatePreferredDifficultyRequest
	if !s.decode(ctx, &req) {
		return
	}
	p, err := s.svc.UpdatePreferredDifficulty(ctx, meta(ctx), req.Difficulty)
	if err != nil {
		s.fail(ctx, err)
		return
	}
	dto := chesspresenter.ToDTOProfile(p)
	s.respond(ctx, fasthttp.StatusOK, chessdto.ProfileResponse{Profile: dto, Message: s.format.PreferredDifficultyUpdated(dto)})
}

// decode reads a JSON body. An empty body leaves dst zeroed.
func (s *Server) decode(ctx *fasthttp.RequestCtx, dst any) bool {
	body := ctx.PostBody()
	if len(strings.TrimSpace(string(body))) == 0 {
		return true
	}
	if err := json.Unmarshal(body, dst); err != nil {
		s.fail(ctx, fmt.Errorf("%w: decode body: %v", errBadRequest, err))
		return false
	}
	return true
}

func (s *Server) pathID(ctx *fasthttp.RequestCtx, raw string) (int64, bool) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		s.fail(ctx, fmt.Errorf("%w: invalid id %q", errBadRequest, raw))
		return 0, false
	}
	return id, true
}

func queryInt(ctx *fasthttp.RequestCtx, name string) int {
	n, err := strconv.Atoi(string(ctx.QueryArgs().Peek(name)))
	if err != nil {
		return 0
	}
	return n
}

func (s *Server) respond(ctx *fasthttp.RequestCtx, status int, body any) {
	raw, err := json.Marshal(body)
	if err != nil {
		s.logger.Error("encode response", zap.Error(err))
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
		return
	}
	ctx.SetStatusCode(status)
	ctx.SetContentType("application/json")
	ctx.SetBody(raw)
}

func (s *Server) fail(ctx *fasthttp.RequestCtx, err error) {
	status, derr := toDomainError(err)
	if status >= fasthttp.StatusInternalServerError {
		s.logger.Error("chess request failed", zap.Error(err), zap.ByteString("path", ctx.Path()))
	}
	s.respond(ctx, status, chessdto.ErrorResponse{Error: derr})
}

func (s *Server) notFound(ctx *fasthttp.RequestCtx) {
	s.respond(ctx, fasthttp.StatusNotFound, chessdto.ErrorResponse{Error: chessdto.DomainError{Code: chessdto.CodeNotFound, Message: "no such route"}})
}
