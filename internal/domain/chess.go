package domain

import "time"

// ChessGame is a finished game as kept in the archive. Result is seen from
// the human side: "win", "loss" or "draw".
type ChessGame struct {
	ID            int64
	SessionUUID   string
	PlayerHash    string
	PlayerName    string
	Difficulty    string
	AIColor       string
	Result        string
	ResultMethod  string
	MovesUCI      []string
	MovesSAN      []string
	PGN           string
	ECO           string
	Opening       string
	StartFEN      string
	FinalFEN      string
	StartedAt     time.Time
	EndedAt       time.Time
	Duration      time.Duration
	EngineLatency time.Duration
}

type ChessProfile struct {
	PlayerHash          string
	PreferredDifficulty string
	Rating              int
	GamesPlayed         int
	Wins                int
	Losses              int
	Draws               int
	Streak              int
	StreakType          string
	LastDifficulty      string
	LastPlayedAt        time.Time
	UpdatedAt           time.Time
	CreatedAt           time.Time
}

func (p *ChessProfile) WinPercentage() float64 {
	if p == nil || p.GamesPlayed == 0 {
		return 0
	}
	return float64(p.Wins) / float64(p.GamesPlayed) * 100
}

// SavedGame is a named save slot. Payload holds the save text.
type SavedGame struct {
	ID         int64
	PlayerHash string
	Name       string
	Difficulty string
	FEN        string
	MoveCount  int
	Payload    string
	CreatedAt  time.Time
}
