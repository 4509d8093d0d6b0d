package chessdto

import "time"

type ChessGame struct {
	ID              int64     `json:"id"`
	SessionUUID     string    `json:"session_uuid"`
	PlayerName      string    `json:"player_name,omitempty"`
	Difficulty      string    `json:"difficulty"`
	AIColor         string    `json:"ai_color"`
	Result          string    `json:"result"`
	ResultMethod    string    `json:"result_method"`
	MovesUCI        []string  `json:"moves_uci"`
	MovesSAN        []string  `json:"moves_san,omitempty"`
	PGN             string    `json:"pgn,omitempty"`
	ECO             string    `json:"eco,omitempty"`
	Opening         string    `json:"opening,omitempty"`
	StartFEN        string    `json:"start_fen"`
	FinalFEN        string    `json:"final_fen"`
	StartedAt       time.Time `json:"started_at"`
	EndedAt         time.Time `json:"ended_at"`
	DurationMS      int64     `json:"duration_ms"`
	EngineLatencyMS int64     `json:"engine_latency_ms"`
}

type ChessProfile struct {
	Rating              int       `json:"rating"`
	PreferredDifficulty string    `json:"preferred_difficulty,omitempty"`
	GamesPlayed         int       `json:"games_played"`
	Wins                int       `json:"wins"`
	Losses              int       `json:"losses"`
	Draws               int       `json:"draws"`
	WinPercentage       float64   `json:"win_percentage"`
	Streak              int       `json:"streak"`
	StreakType          string    `json:"streak_type,omitempty"`
	LastDifficulty      string    `json:"last_difficulty,omitempty"`
	LastPlayedAt        time.Time `json:"last_played_at,omitzero"`
	UpdatedAt           time.Time `json:"updated_at,omitzero"`
	CreatedAt           time.Time `json:"created_at,omitzero"`
}

type SavedGame struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Difficulty string    `json:"difficulty"`
	FEN        string    `json:"fen"`
	MoveCount  int       `json:"move_count"`
	CreatedAt  time.Time `json:"created_at"`
	// Save is the portable save text; only filled on export.
	Save string `json:"save,omitempty"`
}
