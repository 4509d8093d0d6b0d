package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/park285/cheese-chess/internal/engine"
	"github.com/park285/cheese-chess/internal/pgnexport"
	"github.com/park285/cheese-chess/pkg/chesscore"
)

const localHelp = `commands:
  <move>        play a move, e.g. e2e4, e7e8q, Nf3 or O-O
  moves [sq]    list legal moves, optionally from one square
  board         show the board
  undo          take back your last move
  save <file>   write the game to a save file
  pgn           print the game as PGN
  resign        give up
  quit          leave without saving`

type localGame struct {
	core        *chesscore.Core
	sess        *chesscore.Session
	in          io.Reader
	out         io.Writer
	moveTimeout time.Duration
	logger      *zap.Logger
}

func (g *localGame) run(ctx context.Context) error {
	g.printf("You play %s at %s difficulty. Type 'help' for commands.\n", g.sess.HumanColor(), g.sess.Difficulty())
	if g.sess.IsAITurn() {
		if err := g.computerMove(ctx); err != nil {
			return err
		}
	}
	g.printf("%s", g.sess.Board())
	if g.finished() {
		return nil
	}

	scanner := bufio.NewScanner(g.in)
	for {
		g.printf("> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		done, err := g.handle(ctx, fields)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
}

// handle runs one command. done reports that the session is over.
func (g *localGame) handle(ctx context.Context, fields []string) (done bool, err error) {
	switch strings.ToLower(fields[0]) {
	case "quit", "exit":
		return true, nil
	case "help":
		g.printf("%s\n", localHelp)
	case "board":
		g.printf("%s", g.sess.Board())
	case "moves":
		g.listMoves(fields[1:])
	case "undo":
		g.undo()
	case "save":
		if len(fields) < 2 {
			g.printf("usage: save <file>\n")
			return false, nil
		}
		if err := os.WriteFile(fields[1], []byte(g.core.SaveGame(g.sess)), 0o644); err != nil {
			g.printf("save failed: %v\n", err)
			return false, nil
		}
		g.printf("Saved to %s.\n", fields[1])
	case "pgn":
		if err := writePGN(g.out, g.sess, "", ""); err != nil {
			g.printf("pgn failed: %v\n", err)
		}
	case "resign":
		if err := g.sess.Resign(g.sess.HumanColor()); err != nil {
			g.printf("%v\n", err)
			return false, nil
		}
		return g.finished(), nil
	default:
		return g.humanMove(ctx, fields[0])
	}
	return false, nil
}

func (g *localGame) humanMove(ctx context.Context, text string) (bool, error) {
	coord := text
	if _, err := engine.ParseCoordinate(strings.ToLower(text)); err == nil {
		coord = strings.ToLower(text)
	} else if m, err := pgnexport.ParseSAN(g.sess.Board(), text); err == nil {
		coord = m.String()
	}
	if _, err := g.core.HumanMove(g.sess, coord); err != nil {
		if errors.Is(err, chesscore.ErrIllegalMove) {
			g.printf("Illegal move %q. Try 'moves'.\n", text)
			return false, nil
		}
		g.printf("%v\n", err)
		return false, nil
	}
	g.printf("You played %s.\n", lastSAN(g.sess))
	if g.finished() {
		return true, nil
	}
	if err := g.computerMove(ctx); err != nil {
		return false, err
	}
	g.printf("%s", g.sess.Board())
	return g.finished(), nil
}

func (g *localGame) computerMove(ctx context.Context) error {
	mctx, cancel := context.WithTimeout(ctx, g.moveTimeout)
	defer cancel()
	started := time.Now()
	if _, err := g.core.AIMove(mctx, g.sess); err != nil {
		return fmt.Errorf("computer move: %w", err)
	}
	elapsed := time.Since(started)
	g.logger.Debug("computer moved", zap.Duration("elapsed", elapsed), zap.Int("ply", g.sess.Ply()))
	g.printf("Computer played %s (%s).\n", lastSAN(g.sess), elapsed.Round(time.Millisecond))
	return nil
}

func (g *localGame) listMoves(args []string) {
	var moves []chesscore.Move
	if len(args) > 0 {
		var err error
		if moves, err = g.core.LegalMovesFor(g.sess, strings.ToLower(args[0])); err != nil {
			g.printf("%v\n", err)
			return
		}
	} else {
		moves = g.sess.LegalMoves()
	}
	if len(moves) == 0 {
		g.printf("No legal moves.\n")
		return
	}
	names := make([]string, len(moves))
	for i, m := range moves {
		names[i] = m.String()
	}
	g.printf("%s\n", strings.Join(names, " "))
}

// undo rewinds to the last position where the human was to move.
func (g *localGame) undo() {
	if err := g.sess.UndoToTurn(g.sess.HumanColor()); err != nil {
		g.printf("Nothing to undo.\n")
		return
	}
	g.printf("%s", g.sess.Board())
}

func (g *localGame) finished() bool {
	o := g.core.Outcome(g.sess)
	if !o.Ended() {
		if g.sess.Board().InCheck() {
			g.printf("Check.\n")
		}
		return false
	}
	g.printf("Game over: %s (%s).\n", o.Result(), o.Method())
	return true
}

func (g *localGame) printf(format string, args ...any) {
	fmt.Fprintf(g.out, format, args...)
}

func lastSAN(sess *chesscore.Session) string {
	moves := sess.Moves()
	if len(moves) == 0 {
		return ""
	}
	last := moves[len(moves)-1]
	san, err := pgnexport.SANMoves(sess.Boards()[len(moves)-1], []engine.Move{last})
	if err != nil || len(san) == 0 {
		return last.String()
	}
	return san[0]
}
