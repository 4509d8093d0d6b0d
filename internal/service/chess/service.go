package chess

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	corechess "github.com/park285/cheese-chess/internal/chess"
	"github.com/park285/cheese-chess/internal/domain"
	"github.com/park285/cheese-chess/internal/engine"
	"github.com/park285/cheese-chess/internal/game"
	"github.com/park285/cheese-chess/internal/pgnexport"
	"github.com/park285/cheese-chess/internal/savecodec"
)

var (
	ErrSessionNotFound   = errors.New("chess session not found")
	ErrSessionInProgress = errors.New("chess session already in progress")
	ErrInvalidMove       = errors.New("invalid chess move")
	ErrGameNotFound      = errors.New("chess game not found")
	ErrProfileNotFound   = errors.New("chess profile not found")
	ErrUndoNotAvailable  = errors.New("no moves available to undo")
	ErrSavedGameNotFound = errors.New("saved chess game not found")
	ErrInvalidSaveName   = errors.New("invalid save name")
	ErrEngineTimeout     = errors.New("chess engine timeout")
	ErrPlayerRequired    = errors.New("player identity required")
)

const (
	defaultPlayerRating   = 1200
	kFactor               = 24
	profileCacheTTL       = 6 * time.Hour
	maxHistoryLimit       = 50
	defaultMoveTimeout    = 10 * time.Second
	playerLabelRuneLimit  = 24
	saveNameRuneLimit     = 64
	defaultHUDPlayerLabel = "Player"
	aiColorRandom         = "random"
)

type SessionMeta struct {
	SessionID string
	Player    string
}

type sessionIdentity struct {
	SessionID  string
	PlayerHash string
}

type Config struct {
	DefaultDifficulty string
	DefaultAIColor    engine.Color
	SessionTTL        time.Duration
	HistoryLimit      int
	MoveTimeout       time.Duration
}

// sessionLock serialises one session id. refs counts holders and waiters so
// the entry can be dropped once nobody uses it.
type sessionLock struct {
	mu   sync.Mutex
	refs int
}

type Service struct {
	picker   game.MovePicker
	cache    Cache
	renderer BoardRenderer
	repo     Repository
	cfg      Config
	logger   *zap.Logger
	now      func() time.Time

	locksMu sync.Mutex
	locks   map[string]*sessionLock

	randMu sync.Mutex
	rand   *rand.Rand
}

// sessionPayload is what the cache holds between requests. The game itself
// travels as save text.
type sessionPayload struct {
	SessionUUID     string    `json:"session_uuid"`
	PlayerHash      string    `json:"player_hash"`
	PlayerName      string    `json:"player_name,omitempty"`
	Save            string    `json:"save"`
	LastMove        string    `json:"last_move,omitempty"`
	StartedAt       time.Time `json:"started_at"`
	UpdatedAt       time.Time `json:"updated_at"`
	EngineLatencyMS int64     `json:"engine_latency_ms,omitempty"`
}

type SessionState struct {
	SessionUUID string
	PlayerHash  string
	PlayerName  string
	Difficulty  string
	AIColor     engine.Color
	HumanColor  engine.Color
	MovesUCI    []string
	MovesSAN    []string
	FEN         string
	Turn        engine.Color
	MoveCount   int
	InCheck     bool
	LastMove    string
	Outcome     game.Outcome
	Material    MaterialScore
	Captured    CapturedPieces
	StartedAt   time.Time
	UpdatedAt   time.Time
	Profile     *domain.ChessProfile
	RatingDelta int
	GameID      int64
}

type MoveSummary struct {
	State       *SessionState
	PlayerSAN   string
	PlayerUCI   string
	EngineSAN   string
	EngineUCI   string
	EngineTime  time.Duration
	Finished    bool
	GameID      int64
	Profile     *domain.ChessProfile
	RatingDelta int
}

func NewService(picker game.MovePicker, cache Cache, repo Repository, renderer BoardRenderer, cfg Config, logger *zap.Logger) (*Service, error) {
	if picker == nil {
		return nil, fmt.Errorf("chess move picker is required")
	}
	if cache == nil {
		return nil, fmt.Errorf("session cache is required")
	}
	if repo == nil {
		return nil, fmt.Errorf("chess repository is required")
	}
	if renderer == nil {
		return nil, fmt.Errorf("board renderer is required")
	}
	if cfg.SessionTTL <= 0 {
		return nil, fmt.Errorf("session TTL must be greater than 0")
	}
	difficulty := strings.TrimSpace(cfg.DefaultDifficulty)
	if difficulty == "" {
		difficulty = corechess.DefaultDifficulty
	}
	normalized, err := corechess.ParseDifficulty(difficulty)
	if err != nil {
		return nil, fmt.Errorf("default difficulty validation failed: %w", err)
	}
	cfg.DefaultDifficulty = normalized
	if cfg.HistoryLimit <= 0 || cfg.HistoryLimit > maxHistoryLimit {
		cfg.HistoryLimit = 10
	}
	if cfg.MoveTimeout <= 0 {
		cfg.MoveTimeout = defaultMoveTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		picker:   picker,
		cache:    cache,
		renderer: renderer,
		repo:     repo,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
		locks:    make(map[string]*sessionLock),
		rand:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}, nil
}

// Start opens a new game. When one is already running its state is returned
// together with ErrSessionInProgress.
func (s *Service) Start(ctx context.Context, meta SessionMeta, difficulty, aiColor string) (*SessionState, error) {
	identity, err := deriveIdentity(meta)
	if err != nil {
		return nil, err
	}
	unlock := s.lock(identity.SessionID)
	defer unlock()

	existing, err := s.loadSession(ctx, identity.SessionID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		sess, err := s.replay(existing)
		if err != nil {
			return nil, err
		}
		state := s.stateFromSession(existing, sess)
		s.attachProfile(ctx, identity, state)
		return state, ErrSessionInProgress
	}

	profile, err := s.fetchProfile(ctx, identity, false)
	if err != nil && !errors.Is(err, ErrProfileNotFound) {
		return nil, err
	}
	chosen, err := s.resolveDifficulty(difficulty, profile)
	if err != nil {
		return nil, err
	}
	color, err := s.resolveAIColor(aiColor)
	if err != nil {
		return nil, err
	}

	sess, err := game.NewSession(nil, chosen, color)
	if err != nil {
		return nil, err
	}
	now := s.now()
	payload := &sessionPayload{
		SessionUUID: uuid.NewString(),
		PlayerHash:  identity.PlayerHash,
		PlayerName:  normalizePlayerLabel(meta.Player),
		StartedAt:   now,
		UpdatedAt:   now,
	}
	s.logger.Info("chess session started",
		zap.String("session_uuid", payload.SessionUUID),
		zap.String("difficulty", chosen),
		zap.String("ai_color", color.String()),
	)

	if sess.IsAITurn() {
		if _, err := s.engineReply(ctx, identity, payload, sess); err != nil {
			return nil, err
		}
	}
	if err := s.storeSession(ctx, identity.SessionID, payload, sess); err != nil {
		return nil, err
	}
	state := s.stateFromSession(payload, sess)
	state.Profile = profile
	return state, nil
}

func (s *Service) Status(ctx context.Context, meta SessionMeta) (*SessionState, error) {
	identity, payload, sess, err := s.current(ctx, meta)
	if err != nil {
		return nil, err
	}
	state := s.stateFromSession(payload, sess)
	s.attachProfile(ctx, identity, state)
	return state, nil
}

// Play applies the human move, then the computer's reply. Moves may be given
// in coordinate notation (e2e4) or SAN (Nf3). On any error the stored session
// is left as it was.
func (s *Service) Play(ctx context.Context, meta SessionMeta, moveInput string) (*MoveSummary, error) {
	moveText := strings.TrimSpace(moveInput)
	if moveText == "" {
		return nil, ErrInvalidMove
	}
	identity, err := deriveIdentity(meta)
	if err != nil {
		return nil, err
	}
	unlock := s.lock(identity.SessionID)
	defer unlock()

	payload, sess, err := s.loadCurrent(ctx, identity)
	if err != nil {
		return nil, err
	}
	if sess.IsAITurn() {
		return nil, fmt.Errorf("%w: waiting for the computer to move", game.ErrInvalidState)
	}

	before := sess.Board()
	move, err := parseHumanMove(before, moveText)
	if err != nil {
		return nil, err
	}
	if err := sess.SubmitMove(move); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidMove, err)
	}
	payload.LastMove = move.String()
	payload.UpdatedAt = s.now()

	summary := &MoveSummary{
		PlayerUCI: move.String(),
		PlayerSAN: singleSAN(before, move),
	}

	if !sess.Outcome().Ended() {
		reply, err := s.engineReply(ctx, identity, payload, sess)
		if err != nil {
			return nil, err
		}
		summary.EngineUCI = reply.uci
		summary.EngineSAN = reply.san
		summary.EngineTime = reply.elapsed
	}

	summary.State = s.stateFromSession(payload, sess)
	summary.Finished = sess.Outcome().Ended()
	if err := s.finishIfNeeded(ctx, identity, payload, sess, summary); err != nil {
		return nil, err
	}
	return summary, nil
}

type engineMove struct {
	uci     string
	san     string
	elapsed time.Duration
}

func (s *Service) engineReply(ctx context.Context, identity sessionIdentity, payload *sessionPayload, sess *game.Session) (engineMove, error) {
	evalCtx, cancel := context.WithTimeout(ctx, s.cfg.MoveTimeout)
	defer cancel()

	before := sess.Board()
	started := time.Now()
	move, err := sess.RequestAIMove(evalCtx, s.picker)
	elapsed := time.Since(started)
	if err != nil {
		s.logger.Warn("chess engine move failed",
			zap.Error(err),
			zap.String("session_id", identity.SessionID),
			zap.String("difficulty", sess.Difficulty()),
			zap.Int("ply", sess.Ply()),
			zap.Duration("elapsed", elapsed),
		)
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return engineMove{}, fmt.Errorf("%w: %w", ErrEngineTimeout, err)
		}
		return engineMove{}, err
	}
	payload.LastMove = move.String()
	payload.EngineLatencyMS += elapsed.Milliseconds()
	payload.UpdatedAt = s.now()
	s.logger.Debug("chess engine move",
		zap.String("session_uuid", payload.SessionUUID),
		zap.String("move", move.String()),
		zap.Duration("elapsed", elapsed),
	)
	return engineMove{uci: move.String(), san: singleSAN(before, move), elapsed: elapsed}, nil
}

// Undo takes back the player's last move together with any computer reply
// that followed it.
func (s *Service) Undo(ctx context.Context, meta SessionMeta) (*SessionState, error) {
	identity, err := deriveIdentity(meta)
	if err != nil {
		return nil, err
	}
	unlock := s.lock(identity.SessionID)
	defer unlock()

	payload, sess, err := s.loadCurrent(ctx, identity)
	if err != nil {
		return nil, err
	}
	if err := sess.UndoToTurn(sess.HumanColor()); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUndoNotAvailable, err)
	}
	payload.LastMove = ""
	if moves := sess.Moves(); len(moves) > 0 {
		payload.LastMove = moves[len(moves)-1].String()
	}
	payload.UpdatedAt = s.now()
	if err := s.storeSession(ctx, identity.SessionID, payload, sess); err != nil {
		return nil, err
	}
	state := s.stateFromSession(payload, sess)
	s.attachProfile(ctx, identity, state)
	return state, nil
}

func (s *Service) Resign(ctx context.Context, meta SessionMeta) (*SessionState, error) {
	identity, err := deriveIdentity(meta)
	if err != nil {
		return nil, err
	}
	unlock := s.lock(identity.SessionID)
	defer unlock()

	payload, sess, err := s.loadCurrent(ctx, identity)
	if err != nil {
		return nil, err
	}
	if err := sess.Resign(sess.HumanColor()); err != nil {
		return nil, err
	}
	payload.UpdatedAt = s.now()
	state := s.stateFromSession(payload, sess)
	gameID, profile, delta, err := s.persistFinishedGame(ctx, identity, payload, sess)
	if err != nil {
		return nil, err
	}
	state.GameID = gameID
	state.Profile = profile
	state.RatingDelta = delta
	if err := s.deleteSession(ctx, identity.SessionID); err != nil {
		s.logger.Warn("failed to delete chess session after resignation", zap.Error(err))
	}
	return state, nil
}

// LegalMoves lists legal moves in coordinate notation, optionally only those
// leaving square.
func (s *Service) LegalMoves(ctx context.Context, meta SessionMeta, square string) ([]string, error) {
	_, _, sess, err := s.current(ctx, meta)
	if err != nil {
		return nil, err
	}
	var moves []engine.Move
	if sq := strings.TrimSpace(square); sq != "" {
		from, err := engine.ParseSquare(strings.ToLower(sq))
		if err != nil {
			return nil, err
		}
		moves = sess.LegalMovesFrom(from)
	} else {
		moves = sess.LegalMoves()
	}
	out := make([]string, len(moves))
	for i, m := range moves {
		out[i] = m.String()
	}
	return out, nil
}

// Export returns the save text of the running game.
func (s *Service) Export(ctx context.Context, meta SessionMeta) (string, error) {
	_, payload, _, err := s.current(ctx, meta)
	if err != nil {
		return "", err
	}
	return payload.Save, nil
}

// Save stores the running game in a named slot. Saving under an existing
// name replaces that slot.
func (s *Service) Save(ctx context.Context, meta SessionMeta, name string) (*domain.SavedGame, error) {
	slot, err := normalizeSaveName(name)
	if err != nil {
		return nil, err
	}
	identity, payload, sess, err := s.current(ctx, meta)
	if err != nil {
		return nil, err
	}
	saved := &domain.SavedGame{
		PlayerHash: identity.PlayerHash,
		Name:       slot,
		Difficulty: sess.Difficulty(),
		FEN:        sess.Board().FEN(),
		MoveCount:  sess.Ply(),
		Payload:    payload.Save,
		CreatedAt:  s.now(),
	}
	id, err := s.repo.SaveGame(ctx, saved)
	if err != nil {
		return nil, err
	}
	saved.ID = id
	s.logger.Info("chess game saved",
		zap.String("session_uuid", payload.SessionUUID),
		zap.String("slot", slot),
		zap.Int64("saved_id", id),
	)
	return saved, nil
}

func (s *Service) ListSaved(ctx context.Context, meta SessionMeta, limit int) ([]*domain.SavedGame, error) {
	identity, err := deriveIdentity(meta)
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > maxHistoryLimit {
		limit = s.cfg.HistoryLimit
	}
	return s.repo.ListSavedGames(ctx, identity.PlayerHash, limit)
}

func (s *Service) DeleteSaved(ctx context.Context, meta SessionMeta, id int64) error {
	identity, err := deriveIdentity(meta)
	if err != nil {
		return err
	}
	ok, err := s.repo.DeleteSavedGame(ctx, id, identity.PlayerHash)
	if err != nil {
		return err
	}
	if !ok {
		return ErrSavedGameNotFound
	}
	return nil
}

// LoadSaved resumes a save slot as the running game.
func (s *Service) LoadSaved(ctx context.Context, meta SessionMeta, id int64) (*SessionState, error) {
	identity, err := deriveIdentity(meta)
	if err != nil {
		return nil, err
	}
	saved, err := s.repo.GetSavedGame(ctx, id, identity.PlayerHash)
	if err != nil {
		return nil, err
	}
	if saved == nil {
		return nil, ErrSavedGameNotFound
	}
	return s.Import(ctx, meta, saved.Payload)
}

// Import resumes a game from save text. Finished games cannot be resumed.
func (s *Service) Import(ctx context.Context, meta SessionMeta, text string) (*SessionState, error) {
	identity, err := deriveIdentity(meta)
	if err != nil {
		return nil, err
	}
	sess, err := savecodec.Decode(text)
	if err != nil {
		return nil, err
	}
	if sess.Outcome().Ended() {
		return nil, fmt.Errorf("%w: saved game already finished (%s)", game.ErrInvalidState, sess.Outcome())
	}

	unlock := s.lock(identity.SessionID)
	defer unlock()
	existing, err := s.loadSession(ctx, identity.SessionID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrSessionInProgress
	}

	now := s.now()
	payload := &sessionPayload{
		SessionUUID: uuid.NewString(),
		PlayerHash:  identity.PlayerHash,
		PlayerName:  normalizePlayerLabel(meta.Player),
		StartedAt:   now,
		UpdatedAt:   now,
	}
	if moves := sess.Moves(); len(moves) > 0 {
		payload.LastMove = moves[len(moves)-1].String()
	}
	summary := &MoveSummary{}
	if sess.IsAITurn() {
		if _, err := s.engineReply(ctx, identity, payload, sess); err != nil {
			return nil, err
		}
	}
	summary.State = s.stateFromSession(payload, sess)
	summary.Finished = sess.Outcome().Ended()
	if err := s.finishIfNeeded(ctx, identity, payload, sess, summary); err != nil {
		return nil, err
	}
	summary.State.GameID = summary.GameID
	return summary.State, nil
}

func (s *Service) History(ctx context.Context, meta SessionMeta, limit int) ([]*domain.ChessGame, error) {
	identity, err := deriveIdentity(meta)
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > s.cfg.HistoryLimit {
		limit = s.cfg.HistoryLimit
	}
	return s.repo.GetRecentGames(ctx, identity.PlayerHash, limit)
}

func (s *Service) Game(ctx context.Context, meta SessionMeta, id int64) (*domain.ChessGame, error) {
	identity, err := deriveIdentity(meta)
	if err != nil {
		return nil, err
	}
	g, err := s.repo.GetGame(ctx, id, identity.PlayerHash)
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, ErrGameNotFound
	}
	return g, nil
}

func (s *Service) Profile(ctx context.Context, meta SessionMeta) (*domain.ChessProfile, error) {
	identity, err := deriveIdentity(meta)
	if err != nil {
		return nil, err
	}
	return s.fetchProfile(ctx, identity, true)
}

func (s *Service) UpdatePreferredDifficulty(ctx context.Context, meta SessionMeta, difficulty string) (*domain.ChessProfile, error) {
	identity, err := deriveIdentity(meta)
	if err != nil {
		return nil, err
	}
	target, err := corechess.ParseDifficulty(difficulty)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", game.ErrUnknownDifficulty, err)
	}
	profile, err := s.fetchProfile(ctx, identity, false)
	if err != nil && !errors.Is(err, ErrProfileNotFound) {
		return nil, err
	}
	now := s.now()
	if profile == nil {
		profile = &domain.ChessProfile{
			PlayerHash: identity.PlayerHash,
			Rating:     defaultPlayerRating,
			CreatedAt:  now,
		}
	}
	profile.PreferredDifficulty = target
	profile.UpdatedAt = now
	if err := s.repo.UpsertProfile(ctx, profile); err != nil {
		return nil, err
	}
	s.cacheProfile(ctx, identity, profile)
	return profile, nil
}

// BoardImage renders the running game as a PNG, marking the last move.
func (s *Service) BoardImage(ctx context.Context, meta SessionMeta) ([]byte, error) {
	_, payload, sess, err := s.current(ctx, meta)
	if err != nil {
		return nil, err
	}
	state := s.stateFromSession(payload, sess)
	opts := RenderOptions{
		Material:  state.Material,
		HUDHeader: fmt.Sprintf("%s vs Computer (%s)", state.PlayerName, state.Difficulty),
		HUDTurn:   fmt.Sprintf("%s to move, move %d", titleCase(state.Turn.String()), sess.Board().FullmoveNumber()),
		Flip:      sess.HumanColor() == engine.Black,
	}
	if m, err := engine.ParseCoordinate(payload.LastMove); err == nil {
		opts.Highlight = &MoveHighlight{From: m.From, To: m.To}
	}
	return s.renderer.RenderPNG(ctx, sess.Board(), opts)
}

func (s *Service) finishIfNeeded(ctx context.Context, identity sessionIdentity, payload *sessionPayload, sess *game.Session, summary *MoveSummary) error {
	if !summary.Finished {
		return s.storeSession(ctx, identity.SessionID, payload, sess)
	}
	gameID, profile, delta, err := s.persistFinishedGame(ctx, identity, payload, sess)
	if err != nil {
		return err
	}
	summary.GameID = gameID
	summary.Profile = profile
	summary.RatingDelta = delta
	if summary.State != nil {
		summary.State.GameID = gameID
		summary.State.Profile = profile
		summary.State.RatingDelta = delta
	}
	if err := s.deleteSession(ctx, identity.SessionID); err != nil {
		s.logger.Warn("failed to delete finished chess session", zap.Error(err))
	}
	return nil
}

func (s *Service) persistFinishedGame(ctx context.Context, identity sessionIdentity, payload *sessionPayload, sess *game.Session) (int64, *domain.ChessProfile, int, error) {
	outcome := sess.Outcome()
	result := resultForHuman(outcome, sess.HumanColor())
	now := s.now()

	human := orDefault(payload.PlayerName, defaultHUDPlayerLabel)
	computer := "Computer (" + sess.Difficulty() + ")"
	header := pgnexport.Header{Event: "Casual game", Site: "cheese-chess", Date: now, White: human, Black: computer}
	if sess.HumanColor() == engine.Black {
		header.White, header.Black = computer, human
	}
	exp, err := pgnexport.FromSession(sess, header)
	if err != nil {
		s.logger.Warn("pgn export failed", zap.Error(err), zap.String("session_uuid", payload.SessionUUID))
	}

	moves := sess.Moves()
	uci := make([]string, len(moves))
	for i, m := range moves {
		uci[i] = m.String()
	}

	record := &domain.ChessGame{
		SessionUUID:   payload.SessionUUID,
		PlayerHash:    identity.PlayerHash,
		PlayerName:    payload.PlayerName,
		Difficulty:    sess.Difficulty(),
		AIColor:       sess.AIColor().String(),
		Result:        result,
		ResultMethod:  outcome.Method(),
		MovesUCI:      uci,
		MovesSAN:      exp.SAN,
		PGN:           exp.PGN,
		ECO:           exp.ECO,
		Opening:       exp.OpeningName,
		StartFEN:      sess.StartBoard().FEN(),
		FinalFEN:      sess.Board().FEN(),
		StartedAt:     payload.StartedAt,
		EndedAt:       now,
		Duration:      now.Sub(payload.StartedAt),
		EngineLatency: time.Duration(payload.EngineLatencyMS) * time.Millisecond,
	}

	gameID, err := s.repo.InsertGame(ctx, record)
	if err != nil {
		if errors.Is(err, ErrDuplicateGame) {
			existing, fetchErr := s.repo.GetGameBySession(ctx, payload.SessionUUID, identity.PlayerHash)
			if fetchErr != nil || existing == nil {
				return 0, nil, 0, err
			}
			profile, profErr := s.fetchProfile(ctx, identity, true)
			if profErr != nil && !errors.Is(profErr, ErrProfileNotFound) {
				return existing.ID, nil, 0, profErr
			}
			return existing.ID, profile, 0, nil
		}
		return 0, nil, 0, err
	}

	profile, err := s.fetchProfile(ctx, identity, false)
	if err != nil && !errors.Is(err, ErrProfileNotFound) {
		return gameID, nil, 0, err
	}
	profile, delta := applyGameResult(profile, identity, sess.Difficulty(), result, now)
	if err := s.repo.UpsertProfile(ctx, profile); err != nil {
		return gameID, nil, 0, err
	}
	s.cacheProfile(ctx, identity, profile)

	s.logger.Info("chess game finished",
		zap.String("session_uuid", payload.SessionUUID),
		zap.Int64("game_id", gameID),
		zap.String("result", result),
		zap.String("method", outcome.Method()),
		zap.Int("plies", len(moves)),
		zap.String("eco", exp.ECO),
	)
	return gameID, profile, delta, nil
}

func (s *Service) current(ctx context.Context, meta SessionMeta) (sessionIdentity, *sessionPayload, *game.Session, error) {
	identity, err := deriveIdentity(meta)
	if err != nil {
		return sessionIdentity{}, nil, nil, err
	}
	payload, sess, err := s.loadCurrent(ctx, identity)
	return identity, payload, sess, err
}

func (s *Service) loadCurrent(ctx context.Context, identity sessionIdentity) (*sessionPayload, *game.Session, error) {
	payload, err := s.loadSession(ctx, identity.SessionID)
	if err != nil {
		return nil, nil, err
	}
	if payload == nil {
		return nil, nil, ErrSessionNotFound
	}
	sess, err := s.replay(payload)
	if err != nil {
		return nil, nil, err
	}
	return payload, sess, nil
}

func (s *Service) replay(payload *sessionPayload) (*game.Session, error) {
	sess, err := savecodec.Decode(payload.Save)
	if err != nil {
		return nil, fmt.Errorf("replay session %s: %w", payload.SessionUUID, err)
	}
	return sess, nil
}

func (s *Service) lock(sessionID string) func() {
	s.locksMu.Lock()
	l, ok := s.locks[sessionID]
	if !ok {
		l = &sessionLock{}
		s.locks[sessionID] = l
	}
	l.refs++
	s.locksMu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		s.locksMu.Lock()
		if l.refs--; l.refs == 0 {
			delete(s.locks, sessionID)
		}
		s.locksMu.Unlock()
	}
}

func sessionKey(sessionID string) string {
	hash := sha256.Sum256([]byte(strings.TrimSpace(sessionID)))
	return "chess:sessions:" + hex.EncodeToString(hash[:])
}

func profileCacheKey(identity sessionIdentity) string {
	return "chess:profile:" + identity.PlayerHash
}

func (s *Service) loadSession(ctx context.Context, sessionID string) (*sessionPayload, error) {
	payload := &sessionPayload{}
	if err := s.cache.Get(ctx, sessionKey(sessionID), payload); err != nil {
		return nil, err
	}
	if payload.Save == "" {
		return nil, nil
	}
	return payload, nil
}

func (s *Service) storeSession(ctx context.Context, sessionID string, payload *sessionPayload, sess *game.Session) error {
	payload.Save = savecodec.Encode(sess)
	return s.cache.Set(ctx, sessionKey(sessionID), payload, s.cfg.SessionTTL)
}

func (s *Service) deleteSession(ctx context.Context, sessionID string) error {
	return s.cache.Del(ctx, sessionKey(sessionID))
}

func (s *Service) fetchProfile(ctx context.Context, identity sessionIdentity, allowCache bool) (*domain.ChessProfile, error) {
	if allowCache {
		cached := &domain.ChessProfile{}
		if err := s.cache.Get(ctx, profileCacheKey(identity), cached); err != nil {
			s.logger.Warn("failed to read cached chess profile", zap.Error(err))
		} else if cached.PlayerHash != "" {
			return cached, nil
		}
	}
	stored, err := s.repo.GetProfile(ctx, identity.PlayerHash)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, ErrProfileNotFound
	}
	s.cacheProfile(ctx, identity, stored)
	return stored, nil
}

// attachProfile is best effort; a missing profile is normal for new players.
func (s *Service) attachProfile(ctx context.Context, identity sessionIdentity, state *SessionState) {
	profile, err := s.fetchProfile(ctx, identity, true)
	if err != nil {
		if !errors.Is(err, ErrProfileNotFound) {
			s.logger.Warn("failed to load chess profile", zap.Error(err), zap.String("session_id", identity.SessionID))
		}
		return
	}
	state.Profile = profile
}

func (s *Service) cacheProfile(ctx context.Context, identity sessionIdentity, profile *domain.ChessProfile) {
	if profile == nil {
		return
	}
	if err := s.cache.Set(ctx, profileCacheKey(identity), profile, profileCacheTTL); err != nil {
		s.logger.Warn("failed to cache chess profile", zap.Error(err))
	}
}

// resolveDifficulty rejects an unknown requested name. An empty request uses
// the player's preference, and a stale preference falls back to the default.
func (s *Service) resolveDifficulty(requested string, profile *domain.ChessProfile) (string, error) {
	if strings.TrimSpace(requested) != "" {
		name, err := corechess.ParseDifficulty(requested)
		if err != nil {
			return "", fmt.Errorf("%w: %w", game.ErrUnknownDifficulty, err)
		}
		return name, nil
	}
	if profile != nil && strings.TrimSpace(profile.PreferredDifficulty) != "" {
		if name, err := corechess.ParseDifficulty(profile.PreferredDifficulty); err == nil {
			return name, nil
		}
		s.logger.Warn("stale preferred difficulty, using default",
			zap.String("preferred", profile.PreferredDifficulty),
			zap.String("default", s.cfg.DefaultDifficulty),
		)
	}
	return s.cfg.DefaultDifficulty, nil
}

func (s *Service) resolveAIColor(raw string) (engine.Color, error) {
	text := strings.ToLower(strings.TrimSpace(raw))
	switch text {
	case "":
		return s.cfg.DefaultAIColor, nil
	case aiColorRandom:
		s.randMu.Lock()
		defer s.randMu.Unlock()
		if s.rand.Intn(2) == 0 {
			return engine.White, nil
		}
		return engine.Black, nil
	}
	return engine.ParseColor(text)
}

func (s *Service) stateFromSession(payload *sessionPayload, sess *game.Session) *SessionState {
	moves := sess.Moves()
	uci := make([]string, len(moves))
	for i, m := range moves {
		uci[i] = m.String()
	}
	san, err := pgnexport.SANMoves(sess.StartBoard(), moves)
	if err != nil {
		s.logger.Warn("san rendering failed", zap.Error(err), zap.String("session_uuid", payload.SessionUUID))
		san = nil
	}
	b := sess.Board()
	state := &SessionState{
		SessionUUID: payload.SessionUUID,
		PlayerHash:  payload.PlayerHash,
		PlayerName:  orDefault(payload.PlayerName, defaultHUDPlayerLabel),
		Difficulty:  sess.Difficulty(),
		AIColor:     sess.AIColor(),
		HumanColor:  sess.HumanColor(),
		MovesUCI:    uci,
		MovesSAN:    san,
		FEN:         b.FEN(),
		Turn:        b.Turn(),
		MoveCount:   len(moves),
		InCheck:     b.InCheck(),
		LastMove:    payload.LastMove,
		Outcome:     sess.Outcome(),
		StartedAt:   payload.StartedAt,
		UpdatedAt:   payload.UpdatedAt,
	}
	state.Material, state.Captured = computeMaterial(sess)
	return state
}

func parseHumanMove(b engine.Board, text string) (engine.Move, error) {
	if m, err := engine.ParseMove(b, text); err == nil {
		return m, nil
	}
	m, err := pgnexport.ParseSAN(b, text)
	if err != nil {
		return engine.Move{}, fmt.Errorf("%w: %w: %q", ErrInvalidMove, game.ErrIllegalMove, text)
	}
	return m, nil
}

func singleSAN(before engine.Board, m engine.Move) string {
	san, err := pgnexport.SANMoves(before, []engine.Move{m})
	if err != nil || len(san) == 0 {
		return m.String()
	}
	return san[0]
}

func deriveIdentity(meta SessionMeta) (sessionIdentity, error) {
	player := strings.ToLower(strings.TrimSpace(meta.Player))
	if player == "" {
		return sessionIdentity{}, ErrPlayerRequired
	}
	sessionID := strings.ToLower(strings.TrimSpace(meta.SessionID))
	if sessionID == "" {
		sessionID = player
	}
	return sessionIdentity{SessionID: sessionID, PlayerHash: hashString(player)}, nil
}

func hashString(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}

func normalizePlayerLabel(raw string) string {
	cleaned := strings.Join(strings.Fields(raw), " ")
	if cleaned == "" {
		return ""
	}
	runes := []rune(cleaned)
	if len(runes) > playerLabelRuneLimit {
		return strings.TrimSpace(string(runes[:playerLabelRuneLimit])) + "..."
	}
	return cleaned
}

func normalizeSaveName(raw string) (string, error) {
	name := strings.Join(strings.Fields(raw), " ")
	if name == "" {
		return "", fmt.Errorf("%w: name must not be empty", ErrInvalidSaveName)
	}
	if utf8.RuneCountInString(name) > saveNameRuneLimit {
		return "", fmt.Errorf("%w: name longer than %d characters", ErrInvalidSaveName, saveNameRuneLimit)
	}
	return name, nil
}

func orDefault(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func resultForHuman(o game.Outcome, human engine.Color) string {
	if o.IsDraw() {
		return "draw"
	}
	winner, ok := o.Winner()
	switch {
	case !ok:
		return "unknown"
	case winner == human:
		return "win"
	default:
		return "loss"
	}
}

func applyGameResult(profile *domain.ChessProfile, identity sessionIdentity, difficulty, result string, endedAt time.Time) (*domain.ChessProfile, int) {
	if profile == nil {
		profile = &domain.ChessProfile{
			PlayerHash: identity.PlayerHash,
			Rating:     defaultPlayerRating,
			CreatedAt:  endedAt,
		}
	}
	prevRating := profile.Rating

	profile.GamesPlayed++
	profile.LastDifficulty = difficulty
	profile.LastPlayedAt = endedAt
	profile.UpdatedAt = endedAt

	var score float64
	switch result {
	case "win":
		profile.Wins++
		score = 1.0
	case "loss":
		profile.Losses++
		score = 0.0
	default:
		profile.Draws++
		result = "draw"
		score = 0.5
	}
	if profile.StreakType == result {
		profile.Streak++
	} else {
		profile.Streak = 1
		profile.StreakType = result
	}

	engineRating := difficultyApproxRating(difficulty)
	expected := 1 / (1 + math.Pow(10, float64(engineRating-profile.Rating)/400))
	profile.Rating = int(math.Round(float64(profile.Rating) + kFactor*(score-expected)))
	return profile, profile.Rating - prevRating
}

func difficultyApproxRating(difficulty string) int {
	switch difficulty {
	case corechess.DifficultyEasy:
		return 800
	case corechess.DifficultyMedium:
		return 1200
	case corechess.DifficultyHard:
		return 1600
	default:
		return 1200
	}
}
