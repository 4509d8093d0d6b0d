package chesspresenter

import (
	"github.com/park285/cheese-chess/internal/domain"
	"github.com/park285/cheese-chess/internal/engine"
	svc "github.com/park285/cheese-chess/internal/service/chess"
	"github.com/park285/cheese-chess/pkg/chessdto"
)

func ToServiceMeta(m chessdto.RequestMeta) svc.SessionMeta {
	return svc.SessionMeta{SessionID: m.SessionID, Player: m.Player}
}

func ToDTOState(s *svc.SessionState) *chessdto.SessionState {
	if s == nil {
		return nil
	}
	return &chessdto.SessionState{
		SessionUUID:   s.SessionUUID,
		PlayerName:    s.PlayerName,
		Difficulty:    s.Difficulty,
		AIColor:       s.AIColor.String(),
		HumanColor:    s.HumanColor.String(),
		MovesSAN:      append([]string(nil), s.MovesSAN...),
		MovesUCI:      append([]string(nil), s.MovesUCI...),
		FEN:           s.FEN,
		Turn:          s.Turn.String(),
		MoveCount:     s.MoveCount,
		InCheck:       s.InCheck,
		LastMove:      s.LastMove,
		Material:      chessdto.MaterialScore{White: s.Material.White, Black: s.Material.Black},
		Captured:      toDTOCaptured(s.Captured),
		Outcome:       s.Outcome.Kind.String(),
		OutcomeMethod: s.Outcome.Method(),
		Result:        s.Outcome.Result(),
		Profile:       ToDTOProfile(s.Profile),
		RatingDelta:   s.RatingDelta,
		GameID:        s.GameID,
		StartedAt:     s.StartedAt,
		UpdatedAt:     s.UpdatedAt,
	}
}

func ToDTOMoveSummary(m *svc.MoveSummary) *chessdto.MoveSummary {
	if m == nil {
		return nil
	}
	return &chessdto.MoveSummary{
		State:        ToDTOState(m.State),
		PlayerSAN:    m.PlayerSAN,
		PlayerUCI:    m.PlayerUCI,
		EngineSAN:    m.EngineSAN,
		EngineUCI:    m.EngineUCI,
		EngineTimeMS: m.EngineTime.Milliseconds(),
		Finished:     m.Finished,
		GameID:       m.GameID,
		Profile:      ToDTOProfile(m.Profile),
		RatingDelta:  m.RatingDelta,
	}
}

func toDTOCaptured(c svc.CapturedPieces) chessdto.CapturedPieces {
	return chessdto.CapturedPieces{
		White: toPieceTokenList(c.White),
		Black: toPieceTokenList(c.Black),
	}
}

func toPieceTokenList(list []engine.PieceType) []string {
	tokens := make([]string, 0, len(list))
	for _, pt := range list {
		tokens = append(tokens, pieceTypeToToken(pt))
	}
	return tokens
}

func pieceTypeToToken(pt engine.PieceType) string {
	switch pt {
	case engine.Queen:
		return "queen"
	case engine.Rook:
		return "rook"
	case engine.Bishop:
		return "bishop"
	case engine.Knight:
		return "knight"
	case engine.Pawn:
		return "pawn"
	case engine.King:
		return "king"
	default:
		return ""
	}
}

// profile
func ToDTOProfile(p *domain.ChessProfile) *chessdto.ChessProfile {
	if p == nil {
		return nil
	}
	return &chessdto.ChessProfile{
		Rating:              p.Rating,
		PreferredDifficulty: p.PreferredDifficulty,
		GamesPlayed:         p.GamesPlayed,
		Wins:                p.Wins,
		Losses:              p.Losses,
		Draws:               p.Draws,
		WinPercentage:       p.WinPercentage(),
		Streak:              p.Streak,
		StreakType:          p.StreakType,
		LastDifficulty:      p.LastDifficulty,
		LastPlayedAt:        p.LastPlayedAt,
		UpdatedAt:           p.UpdatedAt,
		CreatedAt:           p.CreatedAt,
	}
}

func ToDTOGames(list []*domain.ChessGame) []*chessdto.ChessGame {
	out := make([]*chessdto.ChessGame, 0, len(list))
	for _, g := range list {
		if dto := ToDTOGame(g); dto != nil {
			out = append(out, dto)
		}
	}
	return out
}

func ToDTOGame(g *domain.ChessGame) *chessdto.ChessGame {
	if g == nil {
		return nil
	}
	return &chessdto.ChessGame{
		ID:              g.ID,
		SessionUUID:     g.SessionUUID,
		PlayerName:      g.PlayerName,
		Difficulty:      g.Difficulty,
		AIColor:         g.AIColor,
		Result:          g.Result,
		ResultMethod:    g.ResultMethod,
		MovesUCI:        append([]string(nil), g.MovesUCI...),
		MovesSAN:        append([]string(nil), g.MovesSAN...),
		PGN:             g.PGN,
		ECO:             g.ECO,
		Opening:         g.Opening,
		StartFEN:        g.StartFEN,
		FinalFEN:        g.FinalFEN,
		StartedAt:       g.StartedAt,
		EndedAt:         g.EndedAt,
		DurationMS:      g.Duration.Milliseconds(),
		EngineLatencyMS: g.EngineLatency.Milliseconds(),
	}
}

func ToDTOSaved(s *domain.SavedGame, withPayload bool) *chessdto.SavedGame {
	if s == nil {
		return nil
	}
	out := &chessdto.SavedGame{
		ID:         s.ID,
		Name:       s.Name,
		Difficulty: s.Difficulty,
		FEN:        s.FEN,
		MoveCount:  s.MoveCount,
		CreatedAt:  s.CreatedAt,
	}
	if withPayload {
		out.Save = s.Payload
	}
	return out
}

func ToDTOSavedList(list []*domain.SavedGame) []*chessdto.SavedGame {
	out := make([]*chessdto.SavedGame, 0, len(list))
	for _, s := range list {
		if dto := ToDTOSaved(s, false); dto != nil {
			out = append(out, dto)
		}
	}
	return out
}
