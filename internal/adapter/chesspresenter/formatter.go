package chesspresenter

import (
	"fmt"
	"strings"
	"time"

	"github.com/park285/cheese-chess/internal/msgcat"
	"github.com/park285/cheese-chess/pkg/chessdto"
)

const (
	defaultDifficulty   = "medium"
	capturedRecentLimit = 3
	recentMovesLimit    = 6
)

// Formatter renders chess DTOs into plain text through the message catalog.
type Formatter struct {
	cat *msgcat.Catalog
}

func NewFormatter(cat *msgcat.Catalog) *Formatter {
	return &Formatter{cat: cat}
}

// render falls back to the key itself so a broken override never hides the
// rest of a reply.
func (f *Formatter) render(key string, data any) string {
	if f == nil || f.cat == nil {
		return key
	}
	text, err := f.cat.Render(key, data)
	if err != nil {
		return key
	}
	return text
}

type lines []string

func (l *lines) add(s string) {
	if strings.TrimSpace(s) != "" {
		*l = append(*l, s)
	}
}

func (l lines) String() string { return strings.Join(l, "\n") }

func (f *Formatter) Start(state *chessdto.SessionState, resumed bool) string {
	if state == nil {
		return f.NoSession()
	}
	var out lines
	if resumed {
		out.add(f.render("chess.start.resumed", map[string]any{
			"Difficulty": formatDifficulty(state.Difficulty),
			"MoveCount":  state.MoveCount,
		}))
	} else {
		out.add(f.render("chess.start.new", map[string]any{
			"Difficulty": formatDifficulty(state.Difficulty),
			"HumanColor": state.HumanColor,
		}))
	}
	if len(state.MovesSAN) > 0 && !resumed {
		out.add(f.render("chess.move.engine", map[string]any{
			"EngineSAN": state.MovesSAN[len(state.MovesSAN)-1],
			"Elapsed":   "opening move",
		}))
	}
	out.add(f.ratingLine(state.Profile, state.RatingDelta))
	out.add(f.turnLine(state))
	return out.String()
}

func (f *Formatter) Move(summary *chessdto.MoveSummary) string {
	if summary == nil || summary.State == nil {
		return ""
	}
	var out lines
	out.add(f.render("chess.move.player", map[string]any{"PlayerSAN": orUCI(summary.PlayerSAN, summary.PlayerUCI)}))
	if summary.EngineUCI != "" {
		out.add(f.render("chess.move.engine", map[string]any{
			"EngineSAN": orUCI(summary.EngineSAN, summary.EngineUCI),
			"Elapsed":   formatGameDuration(time.Duration(summary.EngineTimeMS) * time.Millisecond),
		}))
	}
	if !summary.Finished {
		out.add(f.turnLine(summary.State))
		return out.String()
	}
	out.add(f.outcomeLine(summary.State))
	out.add(f.ratingLine(summary.Profile, summary.RatingDelta))
	if summary.GameID > 0 {
		out.add(f.render("chess.game_id", map[string]any{"ID": summary.GameID}))
	}
	return out.String()
}

func (f *Formatter) Status(state *chessdto.SessionState) string {
	if state == nil {
		return f.NoSession()
	}
	var out lines
	out.add(f.render("chess.status.header", map[string]any{
		"Difficulty": formatDifficulty(state.Difficulty),
		"HumanColor": state.HumanColor,
	}))
	out.add(f.render("chess.status.moves", map[string]any{
		"MoveCount": state.MoveCount,
		"Recent":    formatRecentMoves(state.MovesSAN),
	}))
	out.add(f.render("chess.status.material", map[string]any{"Material": formatMaterial(state.Material)}))
	if captured := formatCaptured(state.Captured); captured != "" {
		out.add(f.render("chess.status.captured", map[string]any{"Captured": captured}))
	}
	out.add(f.ratingLine(state.Profile, 0))
	out.add(f.turnLine(state))
	return out.String()
}

func (f *Formatter) Undo(state *chessdto.SessionState) string {
	if state == nil {
		return f.NoSession()
	}
	var out lines
	out.add(f.render("chess.undo", map[string]any{"MoveCount": state.MoveCount}))
	out.add(f.render("chess.status.material", map[string]any{"Material": formatMaterial(state.Material)}))
	return out.String()
}

func (f *Formatter) Resign(state *chessdto.SessionState) string {
	var out lines
	out.add(f.render("chess.resign", nil))
	if state == nil {
		return out.String()
	}
	out.add(f.ratingLine(state.Profile, state.RatingDelta))
	if state.GameID > 0 {
		out.add(f.render("chess.game_id", map[string]any{"ID": state.GameID}))
	}
	return out.String()
}

func (f *Formatter) History(games []*chessdto.ChessGame) string {
	if len(games) == 0 {
		return f.render("chess.history.empty", nil)
	}
	var out lines
	out.add(f.render("chess.history.header", nil))
	for _, g := range games {
		moves := len(g.MovesSAN)
		if moves == 0 {
			moves = len(g.MovesUCI)
		}
		out.add(f.render("chess.history.line", map[string]any{
			"ID":         g.ID,
			"Result":     formatResultBadge(g.Result),
			"Date":       formatShortTime(g.EndedAt),
			"Difficulty": formatDifficulty(g.Difficulty),
			"Moves":      moves,
			"Opening":    g.Opening,
		}))
	}
	return out.String()
}

func (f *Formatter) Game(game *chessdto.ChessGame) string {
	if game == nil {
		return ""
	}
	var out lines
	out.add(f.render("chess.game.header", map[string]any{
		"ID":         game.ID,
		"Result":     formatResultBadge(game.Result),
		"Method":     orDefault(game.ResultMethod, "-"),
		"Difficulty": formatDifficulty(game.Difficulty),
	}))
	if !game.StartedAt.IsZero() {
		out.add(f.render("chess.game.time", map[string]any{
			"Start":    formatShortTime(game.StartedAt),
			"Duration": orDefault(formatGameDuration(time.Duration(game.DurationMS)*time.Millisecond), "-"),
		}))
	}
	if game.ECO != "" {
		out.add(f.render("chess.game.opening", map[string]any{"ECO": game.ECO, "Name": game.Opening}))
	}
	if pgn := strings.TrimSpace(game.PGN); pgn != "" {
		out = append(out, "", pgn)
	}
	return out.String()
}

func (f *Formatter) Profile(profile *chessdto.ChessProfile) string {
	if profile == nil {
		return f.render("chess.profile.none", nil)
	}
	var out lines
	out.add(f.render("chess.profile.header", nil))
	out.add(f.ratingLine(profile, 0))
	if profile.Streak > 1 {
		out.add(f.render("chess.profile.streak", map[string]any{
			"Streak": profile.Streak,
			"Kind":   formatStreakKind(profile.StreakType),
		}))
	}
	if profile.PreferredDifficulty != "" {
		out.add(f.render("chess.profile.preferred", map[string]any{"Difficulty": profile.PreferredDifficulty}))
	}
	if !profile.LastPlayedAt.IsZero() {
		out.add(f.render("chess.profile.last", map[string]any{
			"Date":       formatShortTime(profile.LastPlayedAt),
			"Difficulty": formatDifficulty(profile.LastDifficulty),
		}))
	}
	return out.String()
}

func (f *Formatter) PreferredDifficultyUpdated(profile *chessdto.ChessProfile) string {
	if profile == nil {
		return ""
	}
	return f.render("chess.preferred_updated", map[string]any{"Difficulty": formatDifficulty(profile.PreferredDifficulty)})
}

func (f *Formatter) Saved(saved *chessdto.SavedGame) string {
	if saved == nil {
		return ""
	}
	return f.render("chess.saved", map[string]any{"Name": saved.Name, "ID": saved.ID, "MoveCount": saved.MoveCount})
}

func (f *Formatter) SavedList(list []*chessdto.SavedGame) string {
	if len(list) == 0 {
		return f.render("chess.saved_list.empty", nil)
	}
	var out lines
	out.add(f.render("chess.saved_list.header", nil))
	for _, s := range list {
		out.add(f.render("chess.saved_list.line", map[string]any{
			"ID":         s.ID,
			"Name":       s.Name,
			"Difficulty": formatDifficulty(s.Difficulty),
			"MoveCount":  s.MoveCount,
			"Date":       formatShortTime(s.CreatedAt),
		}))
	}
	return out.String()
}

func (f *Formatter) NoSession() string { return f.render("chess.no_session", nil) }

func (f *Formatter) Help() string { return f.render("chess.help", nil) }

func (f *Formatter) turnLine(state *chessdto.SessionState) string {
	if state.Outcome != "" && state.Outcome != "in_progress" {
		return f.outcomeLine(state)
	}
	return f.render("chess.turn", map[string]any{"Turn": capitalize(state.Turn), "InCheck": state.InCheck})
}

func (f *Formatter) outcomeLine(state *chessdto.SessionState) string {
	data := map[string]any{"Method": strings.ReplaceAll(orDefault(state.OutcomeMethod, "agreement"), "_", " ")}
	switch humanResult(state) {
	case "win":
		return f.render("chess.outcome.win", data)
	case "loss":
		return f.render("chess.outcome.loss", data)
	default:
		return f.render("chess.outcome.draw", data)
	}
}

func (f *Formatter) ratingLine(profile *chessdto.ChessProfile, delta int) string {
	if profile == nil {
		return ""
	}
	return f.render("chess.rating", map[string]any{
		"Rating": profile.Rating,
		"Delta":  formatDelta(delta),
		"Wins":   profile.Wins,
		"Losses": profile.Losses,
		"Draws":  profile.Draws,
		"Games":  profile.GamesPlayed,
	})
}

// humanResult reads the PGN result token from the player's side.
func humanResult(state *chessdto.SessionState) string {
	switch state.Result {
	case "1-0":
		if state.HumanColor == "white" {
			return "win"
		}
		return "loss"
	case "0-1":
		if state.HumanColor == "black" {
			return "win"
		}
		return "loss"
	}
	return "draw"
}

func formatDelta(delta int) string {
	switch {
	case delta > 0:
		return fmt.Sprintf(" (+%d)", delta)
	case delta < 0:
		return fmt.Sprintf(" (%d)", delta)
	}
	return ""
}

func formatDifficulty(d string) string {
	if strings.TrimSpace(d) == "" {
		return defaultDifficulty
	}
	return strings.ToLower(d)
}

func formatStreakKind(streakType string) string {
	switch strings.ToLower(strings.TrimSpace(streakType)) {
	case "win":
		return "wins"
	case "loss":
		return "losses"
	case "draw":
		return "draws"
	default:
		return "games"
	}
}

func formatRecentMoves(moves []string) string {
	if len(moves) == 0 {
		return "-"
	}
	if len(moves) <= recentMovesLimit {
		return strings.Join(moves, " ")
	}
	return "... " + strings.Join(moves[len(moves)-recentMovesLimit:], " ")
}

func formatResultBadge(result string) string {
	switch strings.ToLower(strings.TrimSpace(result)) {
	case "win":
		return "won"
	case "loss":
		return "lost"
	case "draw":
		return "drew"
	default:
		return "unfinished"
	}
}

func formatShortTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format("2006-01-02 15:04")
}

func formatGameDuration(d time.Duration) string {
	if d <= 0 {
		return ""
	}
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Round(time.Second).String()
}

func formatMaterial(score chessdto.MaterialScore) string {
	switch diff := score.White - score.Black; {
	case diff > 0:
		return fmt.Sprintf("white +%d", diff)
	case diff < 0:
		return fmt.Sprintf("black +%d", -diff)
	}
	return "even"
}

func formatCaptured(captured chessdto.CapturedPieces) string {
	white := formatCapturedSequence(recentPieces(captured.White, capturedRecentLimit))
	black := formatCapturedSequence(recentPieces(captured.Black, capturedRecentLimit))
	var parts []string
	if white != "" {
		parts = append(parts, "white "+white)
	}
	if black != "" {
		parts = append(parts, "black "+black)
	}
	return strings.Join(parts, " / ")
}

func formatCapturedSequence(order []string) string {
	tokens := make([]string, 0, len(order))
	for _, token := range order {
		if symbol := capturedSymbol(token); symbol != "" {
			tokens = append(tokens, symbol)
		}
	}
	return strings.Join(tokens, " ")
}

func capturedSymbol(piece string) string {
	switch strings.ToLower(strings.TrimSpace(piece)) {
	case "queen", "q":
		return "Q"
	case "rook", "r":
		return "R"
	case "bishop", "b":
		return "B"
	case "knight", "n":
		return "N"
	case "pawn", "p":
		return "P"
	case "":
		return ""
	default:
		return strings.ToUpper(string([]rune(piece)[0]))
	}
}

// recentPieces returns the last limit entries, newest first.
func recentPieces(order []string, limit int) []string {
	if len(order) == 0 || limit <= 0 {
		return nil
	}
	if len(order) > limit {
		order = order[len(order)-limit:]
	}
	result := make([]string, len(order))
	for i := range order {
		result[i] = order[len(order)-1-i]
	}
	return result
}

func orUCI(san, uci string) string {
	if san != "" {
		return san
	}
	return uci
}

func orDefault(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
