// Package savecodec writes and reads the text form of a game in progress:
// bracketed tag pairs followed by the moves in coordinate notation.
package savecodec

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"

	"github.com/park285/cheese-chess/internal/engine"
	"github.com/park285/cheese-chess/internal/game"
)

const FormatVersion = "cheese-save/1"

const (
	tagFormat     = "Format"
	tagDifficulty = "Difficulty"
	tagAIColor    = "AIColor"
	tagStart      = "Start"
	tagPosition   = "Position"
	tagResigned   = "Resigned"
)

var knownTags = map[string]bool{
	tagFormat:     true,
	tagDifficulty: true,
	tagAIColor:    true,
	tagStart:      true,
	tagPosition:   true,
	tagResigned:   true,
}

// SaveError describes why a save text was rejected. It matches
// game.ErrMalformedSave and the underlying cause under errors.Is.
type SaveError struct {
	Line  int
	Ply   int
	Token string
	Msg   string
	Err   error
}

func (e *SaveError) Error() string {
	var b strings.Builder
	b.WriteString("malformed save")
	if e.Line > 0 {
		fmt.Fprintf(&b, " (line %d)", e.Line)
	}
	if e.Ply > 0 {
		fmt.Fprintf(&b, " (ply %d)", e.Ply)
	}
	b.WriteString(": ")
	b.WriteString(e.Msg)
	if e.Token != "" {
		fmt.Fprintf(&b, " %q", e.Token)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *SaveError) Unwrap() []error {
	if e.Err == nil {
		return []error{game.ErrMalformedSave}
	}
	return []error{game.ErrMalformedSave, e.Err}
}

// Encode renders s. Decode(Encode(s)) reproduces the same boards, moves and
// outcome.
func Encode(s *game.Session) string {
	var b strings.Builder
	writeTag(&b, tagFormat, FormatVersion)
	writeTag(&b, tagDifficulty, s.Difficulty())
	writeTag(&b, tagAIColor, s.AIColor().String())
	writeTag(&b, tagStart, s.StartBoard().FEN())
	writeTag(&b, tagPosition, s.Board().FEN())
	if o := s.Outcome(); o.Kind == game.Resigned {
		writeTag(&b, tagResigned, o.Resigner.String())
	}
	b.WriteByte('\n')

	moves := s.Moves()
	for i, m := range moves {
		if i > 0 {
			if i%16 == 0 {
				b.WriteByte('\n')
			} else {
				b.WriteByte(' ')
			}
		}
		b.WriteString(m.String())
	}
	if len(moves) > 0 {
		b.WriteByte('\n')
	}
	return b.String()
}

func writeTag(b *strings.Builder, name, value string) {
	b.WriteByte('[')
	b.WriteString(name)
	b.WriteString(" ")
	b.WriteString(strconv.Quote(value))
	b.WriteString("]\n")
}

type moveToken struct {
	text string
	line int
}

// Decode parses text and replays it into a new session. No partially built
// session is ever returned.
func Decode(text string) (*game.Session, error) {
	tags := make(map[string]string, len(knownTags))
	tagLines := make(map[string]int, len(knownTags))
	var tokens []moveToken

	sc := bufio.NewScanner(strings.NewReader(text))
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	lineNo := 0
	inMoves := false
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "[") {
			if inMoves {
				return nil, &SaveError{Line: lineNo, Msg: "tag after move list", Token: line}
			}
			name, value, err := parseTag(line)
			if err != nil {
				return nil, &SaveError{Line: lineNo, Msg: "bad tag", Token: line, Err: err}
			}
			if !knownTags[name] {
				return nil, &SaveError{Line: lineNo, Msg: "unknown tag", Token: name}
			}
			if _, dup := tags[name]; dup {
				return nil, &SaveError{Line: lineNo, Msg: "duplicate tag", Token: name}
			}
			tags[name] = value
			tagLines[name] = lineNo
			continue
		}
		inMoves = true
		for _, f := range strings.Fields(line) {
			tokens = append(tokens, moveToken{text: f, line: lineNo})
		}
	}
	if err := sc.Err(); err != nil {
		return nil, &SaveError{Msg: "read failed", Err: err}
	}

	format, ok := tags[tagFormat]
	if !ok {
		return nil, &SaveError{Msg: "missing tag", Token: tagFormat}
	}
	if format != FormatVersion {
		return nil, &SaveError{Line: tagLines[tagFormat], Msg: "unsupported format", Token: format}
	}
	startFEN, ok := tags[tagStart]
	if !ok {
		return nil, &SaveError{Msg: "missing tag", Token: tagStart}
	}
	start, err := engine.ParseFEN(startFEN)
	if err != nil {
		return nil, &SaveError{Line: tagLines[tagStart], Msg: "bad start position", Err: err}
	}

	aiColor := engine.Black
	if v, ok := tags[tagAIColor]; ok {
		if aiColor, err = engine.ParseColor(v); err != nil {
			return nil, &SaveError{Line: tagLines[tagAIColor], Msg: "bad colour", Token: v}
		}
	}
	difficulty := tags[tagDifficulty]
	if difficulty == "" {
		return nil, &SaveError{Msg: "missing tag", Token: tagDifficulty}
	}

	s, err := game.NewSession(&start, difficulty, aiColor)
	if err != nil {
		return nil, &SaveError{Line: tagLines[tagDifficulty], Msg: "cannot start session", Err: err}
	}
	for i, tok := range tokens {
		if s.Outcome().Ended() {
			return nil, &SaveError{Line: tok.line, Ply: i + 1, Msg: "move after game end", Token: tok.text}
		}
		if err := s.SubmitMoveText(tok.text); err != nil {
			return nil, &SaveError{Line: tok.line, Ply: i + 1, Msg: "illegal move", Token: tok.text, Err: err}
		}
	}

	if v, ok := tags[tagPosition]; ok {
		pos, err := engine.ParseFEN(v)
		if err != nil {
			return nil, &SaveError{Line: tagLines[tagPosition], Msg: "bad position", Err: err}
		}
		if pos != s.Board() {
			return nil, &SaveError{Line: tagLines[tagPosition], Msg: "position does not match replayed moves", Token: v}
		}
	}

	if v, ok := tags[tagResigned]; ok {
		c, err := engine.ParseColor(v)
		if err != nil {
			return nil, &SaveError{Line: tagLines[tagResigned], Msg: "bad colour", Token: v}
		}
		if err := s.Resign(c); err != nil {
			return nil, &SaveError{Line: tagLines[tagResigned], Msg: "resignation after game end", Err: err}
		}
	}
	return s, nil
}

func parseTag(line string) (string, string, error) {
	if !strings.HasSuffix(line, "]") {
		return "", "", fmt.Errorf("missing closing bracket")
	}
	body := strings.TrimSpace(line[1 : len(line)-1])
	name, rest, ok := strings.Cut(body, " ")
	if !ok || name == "" {
		return "", "", fmt.Errorf("missing tag value")
	}
	value, err := strconv.Unquote(strings.TrimSpace(rest))
	if err != nil {
		return "", "", fmt.Errorf("tag value must be quoted: %w", err)
	}
	return name, value, nil
}
