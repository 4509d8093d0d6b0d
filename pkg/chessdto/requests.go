package chessdto

// RequestMeta identifies the caller. Player is required; SessionID defaults
// to the player so one player has one running game unless told otherwise.
type RequestMeta struct {
	SessionID string `json:"session_id,omitempty"`
	Player    string `json:"player"`
}

type StartSessionRequest struct {
	Difficulty string `json:"difficulty,omitempty"`
	AIColor    string `json:"ai_color,omitempty"`
}

type StartSessionResponse struct {
	State   *SessionState `json:"state"`
	Resumed bool          `json:"resumed"`
	Message string        `json:"message,omitempty"`
}

type StatusResponse struct {
	State   *SessionState `json:"state"`
	Message string        `json:"message,omitempty"`
}

type PlayRequest struct {
	Move string `json:"move"`
}

type PlayResponse struct {
	Summary *MoveSummary `json:"summary"`
	Message string       `json:"message,omitempty"`
}

type LegalMovesResponse struct {
	Square string   `json:"square,omitempty"`
	Moves  []string `json:"moves"`
}

type HistoryResponse struct {
	Games   []*ChessGame `json:"games"`
	Message string       `json:"message,omitempty"`
}

type GameResponse struct {
	Game    *ChessGame `json:"game"`
	Message string     `json:"message,omitempty"`
}

type ProfileResponse struct {
	Profile *ChessProfile `json:"profile"`
	Message string        `json:"message,omitempty"`
}

type UpdatePreferredDifficultyRequest struct {
	Difficulty string `json:"difficulty"`
}

type SaveRequest struct {
	Name string `json:"name"`
}

type SaveResponse struct {
	Saved   *SavedGame `json:"saved"`
	Message string     `json:"message,omitempty"`
}

type SavedListResponse struct {
	Saved []*SavedGame `json:"saved"`
}

type ImportRequest struct {
	Save string `json:"save"`
}

type ExportResponse struct {
	Save string `json:"save"`
}

type ErrorResponse struct {
	Error DomainError `json:"error"`
}
