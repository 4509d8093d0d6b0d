package chessdto

// MoveSummary describes one turn: the player's move and the computer's reply.
type MoveSummary struct {
	State        *SessionState `json:"state"`
	PlayerSAN    string        `json:"player_san"`
	PlayerUCI    string        `json:"player_uci"`
	EngineSAN    string        `json:"engine_san,omitempty"`
	EngineUCI    string        `json:"engine_uci,omitempty"`
	EngineTimeMS int64         `json:"engine_time_ms,omitempty"`
	Finished     bool          `json:"finished"`
	GameID       int64         `json:"game_id,omitempty"`
	Profile      *ChessProfile `json:"profile,omitempty"`
	RatingDelta  int           `json:"rating_delta,omitempty"`
}
