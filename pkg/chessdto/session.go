package chessdto

import "time"

type MaterialScore struct {
	White int `json:"white"`
	Black int `json:"black"`
}

// CapturedPieces lists piece names ("queen", "pawn") taken by each side.
type CapturedPieces struct {
	White []string `json:"white"`
	Black []string `json:"black"`
}

type SessionState struct {
	SessionUUID   string         `json:"session_uuid"`
	PlayerName    string         `json:"player_name"`
	Difficulty    string         `json:"difficulty"`
	AIColor       string         `json:"ai_color"`
	HumanColor    string         `json:"human_color"`
	MovesSAN      []string       `json:"moves_san"`
	MovesUCI      []string       `json:"moves_uci"`
	FEN           string         `json:"fen"`
	Turn          string         `json:"turn"`
	MoveCount     int            `json:"move_count"`
	InCheck       bool           `json:"in_check"`
	LastMove      string         `json:"last_move,omitempty"`
	Material      MaterialScore  `json:"material"`
	Captured      CapturedPieces `json:"captured"`
	Outcome       string         `json:"outcome"`
	OutcomeMethod string         `json:"outcome_method,omitempty"`
	Result        string         `json:"result"`
	Profile       *ChessProfile  `json:"profile,omitempty"`
	RatingDelta   int            `json:"rating_delta,omitempty"`
	GameID        int64          `json:"game_id,omitempty"`
	StartedAt     time.Time      `json:"started_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}
