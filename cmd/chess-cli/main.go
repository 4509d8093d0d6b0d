package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/park285/cheese-chess/internal/engine"
	"github.com/park285/cheese-chess/internal/obslog"
	"github.com/park285/cheese-chess/internal/pgnexport"
	"github.com/park285/cheese-chess/pkg/chessclient"
	"github.com/park285/cheese-chess/pkg/chesscore"
)

func usage() {
	fmt.Fprintln(os.Stderr, `usage: chess-cli <command> [flags]

commands:
  play     play against the computer in this terminal
  pgn      print a save file as PGN
  remote   play against a chess server`)
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	logger, err := obslog.New(obslog.Options{Level: "warn", Format: "console", Console: true, Stdout: os.Stderr})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cmd, args := os.Args[1], os.Args[2:]
	switch cmd {
	case "play":
		err = runPlay(ctx, args, os.Stdin, os.Stdout, logger)
	case "pgn":
		err = runPGN(args, os.Stdout)
	case "remote":
		err = runRemote(ctx, args, os.Stdin, os.Stdout)
	case "help", "-h", "--help":
		usage()
		return
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func runPlay(ctx context.Context, args []string, in io.Reader, out io.Writer, logger *zap.Logger) error {
	fs := flag.NewFlagSet("play", flag.ContinueOnError)
	difficulty := fs.String("difficulty", "medium", "easy, medium or hard")
	color := fs.String("color", "white", "colour you play: white or black")
	load := fs.String("load", "", "resume from a save file")
	seed := fs.Int64("seed", 0, "seed for reproducible computer moves (0 = random)")
	timeout := fs.Duration("move-timeout", 10*time.Second, "time limit for one computer move")
	if err := fs.Parse(args); err != nil {
		return err
	}

	human, err := engine.ParseColor(*color)
	if err != nil {
		return err
	}
	opts := []chesscore.Option{chesscore.WithAIColor(human.Other())}
	if *seed != 0 {
		opts = append(opts, chesscore.WithSeed(*seed))
	}
	core := chesscore.New(opts...)

	var sess *chesscore.Session
	if *load != "" {
		raw, err := os.ReadFile(*load)
		if err != nil {
			return err
		}
		if sess, err = core.LoadGame(string(raw)); err != nil {
			return err
		}
		logger.Info("save loaded", zap.String("file", *load), zap.Int("ply", sess.Ply()))
	} else if sess, err = core.NewGame(*difficulty); err != nil {
		return err
	}

	g := &localGame{core: core, sess: sess, in: in, out: out, moveTimeout: *timeout, logger: logger}
	return g.run(ctx)
}

func runPGN(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("pgn", flag.ContinueOnError)
	white := fs.String("white", "", "White player name")
	black := fs.String("black", "", "Black player name")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("pgn needs exactly one save file")
	}
	raw, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		return err
	}
	sess, err := chesscore.New().LoadGame(string(raw))
	if err != nil {
		return err
	}
	return writePGN(out, sess, *white, *black)
}

func writePGN(out io.Writer, sess *chesscore.Session, white, black string) error {
	computer := "Computer (" + sess.Difficulty() + ")"
	h := pgnexport.Header{Event: "Casual game", Site: "chess-cli", Date: time.Now(), White: white, Black: black}
	if sess.AIColor() == engine.White {
		h.White = computer
	} else {
		h.Black = computer
	}
	exp, err := pgnexport.FromSession(sess, h)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, strings.TrimRight(exp.PGN, "\n"))
	return err
}

func runRemote(ctx context.Context, args []string, in io.Reader, out io.Writer) error {
	fs := flag.NewFlagSet("remote", flag.ContinueOnError)
	server := fs.String("server", "http://localhost:8080", "chess server base URL")
	player := fs.String("player", os.Getenv("USER"), "player name")
	session := fs.String("session", "", "session id (default: one game per player)")
	difficulty := fs.String("difficulty", "", "difficulty for a new game")
	aiColor := fs.String("ai-color", "", "computer colour: white, black or random")
	if err := fs.Parse(args); err != nil {
		return err
	}
	var opts []chessclient.Option
	if *session != "" {
		opts = append(opts, chessclient.WithSessionID(*session))
	}
	r := &remoteGame{client: chessclient.New(*server, *player, opts...), in: in, out: out}
	return r.run(ctx, *difficulty, *aiColor)
}
