package chessdto

// Error codes carried by DomainError.
const (
	CodeBadRequest        = "bad_request"
	CodePlayerRequired    = "player_required"
	CodeSessionNotFound   = "session_not_found"
	CodeSessionInProgress = "session_in_progress"
	CodeInvalidMove       = "invalid_move"
	CodeInvalidState      = "invalid_state"
	CodeUnknownDifficulty = "unknown_difficulty"
	CodeUndoNotAvailable  = "undo_not_available"
	CodeMalformedSave     = "malformed_save"
	CodeInvalidSaveName   = "invalid_save_name"
	CodeNotFound          = "not_found"
	CodeEngineTimeout     = "engine_timeout"
	CodeInternal          = "internal"
)

type DomainError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable,omitempty"`
}

func (e DomainError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Code != "" {
		return e.Code
	}
	return "chess service error"
}
