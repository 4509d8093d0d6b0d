// Package pgnexport turns a recorded game into standard algebraic notation,
// PGN text and an opening label.
package pgnexport

import (
	"errors"
	"fmt"
	"strings"
	"time"

	nchess "github.com/corentings/chess/v2"
	"github.com/corentings/chess/v2/opening"

	"github.com/park285/cheese-chess/internal/engine"
	"github.com/park285/cheese-chess/internal/game"
)

var ErrReplay = errors.New("pgn replay failed")

type Header struct {
	Event string
	Site  string
	Date  time.Time
	White string
	Black string
}

type Export struct {
	SAN         []string
	PGN         string
	ECO         string
	OpeningName string
}

// Replay rebuilds moves on a corentings game, starting from start.
func Replay(start engine.Board, moves []engine.Move) (*nchess.Game, error) {
	g, err := newGame(start)
	if err != nil {
		return nil, err
	}
	notation := nchess.UCINotation{}
	for i, m := range moves {
		mv, err := notation.Decode(g.Position(), m.String())
		if err != nil {
			return nil, fmt.Errorf("%w: decode ply %d %s: %w", ErrReplay, i+1, m, err)
		}
		if err := g.Move(mv, nil); err != nil {
			return nil, fmt.Errorf("%w: apply ply %d %s: %w", ErrReplay, i+1, m, err)
		}
	}
	return g, nil
}

func newGame(start engine.Board) (*nchess.Game, error) {
	if start == engine.NewBoard() {
		return nchess.NewGame(), nil
	}
	opt, err := nchess.FEN(start.FEN())
	if err != nil {
		return nil, fmt.Errorf("%w: start position: %w", ErrReplay, err)
	}
	return nchess.NewGame(opt), nil
}

// SANMoves renders moves in standard algebraic notation, check marks
// included.
func SANMoves(start engine.Board, moves []engine.Move) ([]string, error) {
	g, err := Replay(start, moves)
	if err != nil {
		return nil, err
	}
	positions := g.Positions()
	played := g.Moves()
	out := make([]string, len(played))
	notation := nchess.AlgebraicNotation{}
	for i, mv := range played {
		out[i] = notation.Encode(positions[i], mv)
	}
	return out, nil
}

// ParseSAN resolves a move such as "Nf3" or "exd5" against b.
func ParseSAN(b engine.Board, text string) (engine.Move, error) {
	g, err := newGame(b)
	if err != nil {
		return engine.Move{}, err
	}
	pos := g.Position()
	mv, err := nchess.AlgebraicNotation{}.Decode(pos, strings.TrimSpace(text))
	if err != nil {
		return engine.Move{}, fmt.Errorf("%w: %q", engine.ErrInvalidNotation, text)
	}
	uci := strings.ToLower(nchess.UCINotation{}.Encode(pos, mv))
	return engine.ParseMove(b, uci)
}

// Opening names the ECO opening reached by moves. Games that did not begin
// from the standard position have no label.
func Opening(start engine.Board, moves []engine.Move) (code, title string) {
	if start != engine.NewBoard() || len(moves) == 0 {
		return "", ""
	}
	g, err := Replay(start, moves)
	if err != nil {
		return "", ""
	}
	book := opening.NewBookECO()
	if book == nil {
		return "", ""
	}
	if eco := book.Find(g.Moves()); eco != nil {
		return eco.Code(), eco.Title()
	}
	return "", ""
}

// FromSession exports the whole of s.
func FromSession(s *game.Session, h Header) (Export, error) {
	start := s.StartBoard()
	moves := s.Moves()
	san, err := SANMoves(start, moves)
	if err != nil {
		return Export{}, err
	}
	code, title := Opening(start, moves)
	o := s.Outcome()
	text := Build(h, PGNParams{
		Start:       start,
		SAN:         san,
		Result:      o.Result(),
		Termination: o.Method(),
		ECO:         code,
		OpeningName: title,
	})
	return Export{SAN: san, PGN: text, ECO: code, OpeningName: title}, nil
}

type PGNParams struct {
	Start       engine.Board
	SAN         []string
	Result      string
	Termination string
	ECO         string
	OpeningName string
}

// Build writes the seven-tag roster plus optional tags, then the numbered
// movetext.
func Build(h Header, p PGNParams) string {
	var b strings.Builder
	date := h.Date
	if date.IsZero() {
		date = time.Now()
	}
	result := p.Result
	if result == "" {
		result = "*"
	}
	writeTag(&b, "Event", orDefault(h.Event, "Casual game"))
	writeTag(&b, "Site", orDefault(h.Site, "?"))
	writeTag(&b, "Date", fmt.Sprintf("%04d.%02d.%02d", date.Year(), int(date.Month()), date.Day()))
	writeTag(&b, "Round", "-")
	writeTag(&b, "White", orDefault(h.White, "?"))
	writeTag(&b, "Black", orDefault(h.Black, "?"))
	writeTag(&b, "Result", result)
	standard := p.Start == engine.NewBoard()
	if !standard {
		writeTag(&b, "SetUp", "1")
		writeTag(&b, "FEN", p.Start.FEN())
	}
	if p.ECO != "" {
		writeTag(&b, "ECO", p.ECO)
	}
	if p.OpeningName != "" {
		writeTag(&b, "Opening", p.OpeningName)
	}
	if p.Termination != "" {
		writeTag(&b, "Termination", p.Termination)
	}
	b.WriteByte('\n')

	number := 1
	blackFirst := false
	if !standard {
		number = p.Start.FullmoveNumber()
		blackFirst = p.Start.Turn() == engine.Black
	}
	for i, san := range p.SAN {
		whiteToMove := (i%2 == 0) != blackFirst
		switch {
		case i == 0 && blackFirst:
			fmt.Fprintf(&b, "%d... ", number)
		case whiteToMove:
			fmt.Fprintf(&b, "%d. ", number)
		}
		b.WriteString(strings.TrimSpace(san))
		b.WriteByte(' ')
		if !whiteToMove {
			number++
		}
	}
	b.WriteString(result)
	b.WriteByte('\n')
	return b.String()
}

func writeTag(b *strings.Builder, name, value string) {
	fmt.Fprintf(b, "[%s \"%s\"]\n", name, sanitize(value))
}

func sanitize(s string) string {
	s = strings.ReplaceAll(s, "\\", " ")
	s = strings.ReplaceAll(s, "\"", "'")
	return strings.TrimSpace(s)
}

func orDefault(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}
