package chess

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/park285/cheese-chess/internal/domain"
)

var ErrDuplicateGame = errors.New("chess game already exists")

// Repository is the long-lived store: finished games, player profiles and
// named save slots. Lookups that find nothing return (nil, nil).
type Repository interface {
	InsertGame(ctx context.Context, game *domain.ChessGame) (int64, error)
	GetRecentGames(ctx context.Context, playerHash string, limit int) ([]*domain.ChessGame, error)
	GetGame(ctx context.Context, id int64, playerHash string) (*domain.ChessGame, error)
	GetGameBySession(ctx context.Context, sessionUUID string, playerHash string) (*domain.ChessGame, error)
	GetProfile(ctx context.Context, playerHash string) (*domain.ChessProfile, error)
	UpsertProfile(ctx context.Context, profile *domain.ChessProfile) error
	SaveGame(ctx context.Context, saved *domain.SavedGame) (int64, error)
	ListSavedGames(ctx context.Context, playerHash string, limit int) ([]*domain.SavedGame, error)
	GetSavedGame(ctx context.Context, id int64, playerHash string) (*domain.SavedGame, error)
	DeleteSavedGame(ctx context.Context, id int64, playerHash string) (bool, error)
}

const schema = `
CREATE TABLE IF NOT EXISTS chess_games (
	id                BIGSERIAL PRIMARY KEY,
	session_uuid      TEXT NOT NULL UNIQUE,
	player_hash       TEXT NOT NULL,
	player_name       TEXT NOT NULL DEFAULT '',
	difficulty        TEXT NOT NULL,
	ai_color          TEXT NOT NULL,
	result            TEXT NOT NULL,
	result_method     TEXT NOT NULL,
	moves_uci         TEXT[] NOT NULL,
	moves_san         TEXT[] NOT NULL,
	pgn               TEXT NOT NULL,
	eco               TEXT NOT NULL DEFAULT '',
	opening           TEXT NOT NULL DEFAULT '',
	start_fen         TEXT NOT NULL,
	final_fen         TEXT NOT NULL,
	started_at        TIMESTAMPTZ NOT NULL,
	ended_at          TIMESTAMPTZ NOT NULL,
	duration_ms       BIGINT,
	engine_latency_ms BIGINT
);
CREATE INDEX IF NOT EXISTS chess_games_player_idx ON chess_games (player_hash, ended_at DESC);

CREATE TABLE IF NOT EXISTS chess_profiles (
	player_hash          TEXT PRIMARY KEY,
	preferred_difficulty TEXT NOT NULL DEFAULT '',
	rating               INTEGER NOT NULL,
	games_played         INTEGER NOT NULL DEFAULT 0,
	wins                 INTEGER NOT NULL DEFAULT 0,
	losses               INTEGER NOT NULL DEFAULT 0,
	draws                INTEGER NOT NULL DEFAULT 0,
	streak               INTEGER NOT NULL DEFAULT 0,
	streak_type          TEXT NOT NULL DEFAULT '',
	last_difficulty      TEXT NOT NULL DEFAULT '',
	last_played_at       TIMESTAMPTZ,
	updated_at           TIMESTAMPTZ NOT NULL,
	created_at           TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS chess_saved_games (
	id          BIGSERIAL PRIMARY KEY,
	player_hash TEXT NOT NULL,
	name        TEXT NOT NULL,
	difficulty  TEXT NOT NULL,
	fen         TEXT NOT NULL,
	move_count  INTEGER NOT NULL,
	payload     TEXT NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL,
	UNIQUE (player_hash, name)
);`

// EnsureSchema creates the tables the postgres repository needs.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure chess schema: %w", err)
	}
	return nil
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

const gameColumns = `
	id,
	session_uuid,
	player_hash,
	player_name,
	difficulty,
	ai_color,
	result,
	result_method,
	moves_uci,
	moves_san,
	pgn,
	eco,
	opening,
	start_fen,
	final_fen,
	started_at,
	ended_at,
	duration_ms,
	engine_latency_ms`

func (r *repository) InsertGame(ctx context.Context, game *domain.ChessGame) (int64, error) {
	if game == nil {
		return 0, fmt.Errorf("nil chess game payload")
	}

	const query = `
		INSERT INTO chess_games (
			session_uuid,
			player_hash,
			player_name,
			difficulty,
			ai_color,
			result,
			result_method,
			moves_uci,
			moves_san,
			pgn,
			eco,
			opening,
			start_fen,
			final_fen,
			started_at,
			ended_at,
			duration_ms,
			engine_latency_ms
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		ON CONFLICT (session_uuid) DO NOTHING
		RETURNING id`

	var id sql.NullInt64
	err := r.db.QueryRowContext(
		ctx,
		query,
		game.SessionUUID,
		game.PlayerHash,
		game.PlayerName,
		game.Difficulty,
		game.AIColor,
		game.Result,
		game.ResultMethod,
		pq.Array(game.MovesUCI),
		pq.Array(game.MovesSAN),
		game.PGN,
		game.ECO,
		game.Opening,
		game.StartFEN,
		game.FinalFEN,
		game.StartedAt,
		game.EndedAt,
		game.Duration.Milliseconds(),
		game.EngineLatency.Milliseconds(),
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && !id.Valid) {
		return 0, ErrDuplicateGame
	}
	if err != nil {
		return 0, fmt.Errorf("insert chess game: %w", err)
	}
	return id.Int64, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGame(row rowScanner) (*domain.ChessGame, error) {
	var (
		game       domain.ChessGame
		durationMS sql.NullInt64
		latencyMS  sql.NullInt64
	)
	if err := row.Scan(
		&game.ID,
		&game.SessionUUID,
		&game.PlayerHash,
		&game.PlayerName,
		&game.Difficulty,
		&game.AIColor,
		&game.Result,
		&game.ResultMethod,
		pq.Array(&game.MovesUCI),
		pq.Array(&game.MovesSAN),
		&game.PGN,
		&game.ECO,
		&game.Opening,
		&game.StartFEN,
		&game.FinalFEN,
		&game.StartedAt,
		&game.EndedAt,
		&durationMS,
		&latencyMS,
	); err != nil {
		return nil, err
	}
	if durationMS.Valid {
		game.Duration = time.Duration(durationMS.Int64) * time.Millisecond
	}
	if latencyMS.Valid {
		game.EngineLatency = time.Duration(latencyMS.Int64) * time.Millisecond
	}
	return &game, nil
}

func (r *repository) GetRecentGames(ctx context.Context, playerHash string, limit int) ([]*domain.ChessGame, error) {
	if limit <= 0 {
		limit = 10
	}
	query := `SELECT` + gameColumns + `
		FROM chess_games
		WHERE player_hash = $1
		ORDER BY ended_at DESC, id DESC
		LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, playerHash, limit)
	if err != nil {
		return nil, fmt.Errorf("select chess games: %w", err)
	}
	defer rows.Close()

	games := make([]*domain.ChessGame, 0, limit)
	for rows.Next() {
		game, err := scanGame(rows)
		if err != nil {
			return nil, fmt.Errorf("scan chess game: %w", err)
		}
		games = append(games, game)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chess games: %w", err)
	}
	return games, nil
}

func (r *repository) GetGame(ctx context.Context, id int64, playerHash string) (*domain.ChessGame, error) {
	query := `SELECT` + gameColumns + `
		FROM chess_games
		WHERE id = $1 AND player_hash = $2`

	game, err := scanGame(r.db.QueryRowContext(ctx, query, id, playerHash))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select chess game: %w", err)
	}
	return game, nil
}

func (r *repository) GetGameBySession(ctx context.Context, sessionUUID string, playerHash string) (*domain.ChessGame, error) {
	query := `SELECT` + gameColumns + `
		FROM chess_games
		WHERE session_uuid = $1 AND player_hash = $2
		LIMIT 1`

	game, err := scanGame(r.db.QueryRowContext(ctx, query, sessionUUID, playerHash))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select chess game by session: %w", err)
	}
	return game, nil
}

func (r *repository) GetProfile(ctx context.Context, playerHash string) (*domain.ChessProfile, error) {
	const query = `
		SELECT
			player_hash,
			preferred_difficulty,
			rating,
			games_played,
			wins,
			losses,
			draws,
			streak,
			streak_type,
			last_difficulty,
			last_played_at,
			updated_at,
			created_at
		FROM chess_profiles
		WHERE player_hash = $1`

	var (
		profile    domain.ChessProfile
		lastPlayed pq.NullTime
	)
	err := r.db.QueryRowContext(ctx, query, playerHash).Scan(
		&profile.PlayerHash,
		&profile.PreferredDifficulty,
		&profile.Rating,
		&profile.GamesPlayed,
		&profile.Wins,
		&profile.Losses,
		&profile.Draws,
		&profile.Streak,
		&profile.StreakType,
		&profile.LastDifficulty,
		&lastPlayed,
		&profile.UpdatedAt,
		&profile.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select chess profile: %w", err)
	}
	if lastPlayed.Valid {
		profile.LastPlayedAt = lastPlayed.Time
	}
	return &profile, nil
}

func (r *repository) UpsertProfile(ctx context.Context, profile *domain.ChessProfile) error {
	if profile == nil {
		return fmt.Errorf("nil chess profile payload")
	}
	const query = `
		INSERT INTO chess_profiles (
			player_hash,
			preferred_difficulty,
			rating,
			games_played,
			wins,
			losses,
			draws,
			streak,
			streak_type,
			last_difficulty,
			last_played_at,
			updated_at,
			created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), NOW())
		ON CONFLICT (player_hash)
		DO UPDATE SET
			preferred_difficulty = EXCLUDED.preferred_difficulty,
			rating = EXCLUDED.rating,
			games_played = EXCLUDED.games_played,
			wins = EXCLUDED.wins,
			losses = EXCLUDED.losses,
			draws = EXCLUDED.draws,
			streak = EXCLUDED.streak,
			streak_type = EXCLUDED.streak_type,
			last_difficulty = EXCLUDED.last_difficulty,
			last_played_at = EXCLUDED.last_played_at,
			updated_at = NOW()`

	lastPlayed := pq.NullTime{Time: profile.LastPlayedAt, Valid: !profile.LastPlayedAt.IsZero()}
	_, err := r.db.ExecContext(
		ctx,
		query,
		profile.PlayerHash,
		profile.PreferredDifficulty,
		profile.Rating,
		profile.GamesPlayed,
		profile.Wins,
		profile.Losses,
		profile.Draws,
		profile.Streak,
		profile.StreakType,
		profile.LastDifficulty,
		lastPlayed,
	)
	if err != nil {
		return fmt.Errorf("upsert chess profile: %w", err)
	}
	return nil
}

// SaveGame stores a save slot. A slot with the same name for the same player
// is overwritten and keeps its id.
func (r *repository) SaveGame(ctx context.Context, saved *domain.SavedGame) (int64, error) {
	if saved == nil {
		return 0, fmt.Errorf("nil saved game payload")
	}
	const query = `
		INSERT INTO chess_saved_games (player_hash, name, difficulty, fen, move_count, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (player_hash, name)
		DO UPDATE SET
			difficulty = EXCLUDED.difficulty,
			fen = EXCLUDED.fen,
			move_count = EXCLUDED.move_count,
			payload = EXCLUDED.payload,
			created_at = EXCLUDED.created_at
		RETURNING id`

	var id int64
	err := r.db.QueryRowContext(ctx, query,
		saved.PlayerHash,
		saved.Name,
		saved.Difficulty,
		saved.FEN,
		saved.MoveCount,
		saved.Payload,
		saved.CreatedAt,
	).Scan(&id)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "string_data_right_truncation" {
			return 0, fmt.Errorf("save slot name too long: %w", err)
		}
		return 0, fmt.Errorf("upsert saved game: %w", err)
	}
	return id, nil
}

const savedColumns = `id, player_hash, name, difficulty, fen, move_count, payload, created_at`

func scanSaved(row rowScanner) (*domain.SavedGame, error) {
	var s domain.SavedGame
	if err := row.Scan(&s.ID, &s.PlayerHash, &s.Name, &s.Difficulty, &s.FEN, &s.MoveCount, &s.Payload, &s.CreatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *repository) ListSavedGames(ctx context.Context, playerHash string, limit int) ([]*domain.SavedGame, error) {
	if limit <= 0 {
		limit = 10
	}
	query := `SELECT ` + savedColumns + `
		FROM chess_saved_games
		WHERE player_hash = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2`
	rows, err := r.db.QueryContext(ctx, query, playerHash, limit)
	if err != nil {
		return nil, fmt.Errorf("select saved games: %w", err)
	}
	defer rows.Close()

	out := make([]*domain.SavedGame, 0, limit)
	for rows.Next() {
		s, err := scanSaved(rows)
		if err != nil {
			return nil, fmt.Errorf("scan saved game: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate saved games: %w", err)
	}
	return out, nil
}

func (r *repository) GetSavedGame(ctx context.Context, id int64, playerHash string) (*domain.SavedGame, error) {
	query := `SELECT ` + savedColumns + ` FROM chess_saved_games WHERE id = $1 AND player_hash = $2`
	s, err := scanSaved(r.db.QueryRowContext(ctx, query, id, playerHash))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select saved game: %w", err)
	}
	return s, nil
}

func (r *repository) DeleteSavedGame(ctx context.Context, id int64, playerHash string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM chess_saved_games WHERE id = $1 AND player_hash = $2`, id, playerHash)
	if err != nil {
		return false, fmt.Errorf("delete saved game: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete saved game: %w", err)
	}
	return n > 0, nil
}
