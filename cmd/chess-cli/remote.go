package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/park285/cheese-chess/pkg/chessclient"
	"github.com/park285/cheese-chess/pkg/chessdto"
)

const remoteHelp = `commands:
  <move>          play a move
  status          show the running game
  moves [sq]      list legal moves
  undo | resign   take back or give up
  board <file>    write the board image to a PNG file
  export          print the save text
  save <name>     store the game in a named slot
  saves           list save slots
  load <id>       resume a save slot
  history         recent finished games
  profile         rating and record
  quit            leave (the game stays on the server)`

type remoteGame struct {
	client *chessclient.Client
	in     io.Reader
	out    io.Writer
}

func (r *remoteGame) run(ctx context.Context, difficulty, aiColor string) error {
	start, err := r.client.Start(ctx, difficulty, aiColor)
	if err != nil {
		return err
	}
	fmt.Fprintln(r.out, start.Message)

	scanner := bufio.NewScanner(r.in)
	for {
		fmt.Fprint(r.out, "> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if strings.EqualFold(fields[0], "quit") {
			return nil
		}
		msg, err := r.handle(ctx, fields)
		switch {
		case err != nil && chessclient.IsCode(err, chessdto.CodeInternal):
			return err
		case err != nil:
			fmt.Fprintln(r.out, err)
		case msg != "":
			fmt.Fprintln(r.out, msg)
		}
	}
}

func (r *remoteGame) handle(ctx context.Context, fields []string) (string, error) {
	arg := ""
	if len(fields) > 1 {
		arg = fields[1]
	}
	switch strings.ToLower(fields[0]) {
	case "help":
		return remoteHelp, nil
	case "status":
		resp, err := r.client.Status(ctx)
		if err != nil {
			return "", err
		}
		return resp.Message, nil
	case "moves":
		moves, err := r.client.LegalMoves(ctx, arg)
		if err != nil {
			return "", err
		}
		return strings.Join(moves, " "), nil
	case "undo":
		resp, err := r.client.Undo(ctx)
		if err != nil {
			return "", err
		}
		return resp.Message, nil
	case "resign":
		resp, err := r.client.Resign(ctx)
		if err != nil {
			return "", err
		}
		return resp.Message, nil
	case "board":
		if arg == "" {
			return "usage: board <file>", nil
		}
		img, err := r.client.BoardPNG(ctx)
		if err != nil {
			return "", err
		}
		if err := os.WriteFile(arg, img, 0o644); err != nil {
			return "", err
		}
		return "Board written to " + arg + ".", nil
	case "export":
		return r.client.Export(ctx)
	case "save":
		resp, err := r.client.Save(ctx, strings.Join(fields[1:], " "))
		if err != nil {
			return "", err
		}
		return resp.Message, nil
	case "saves":
		list, err := r.client.ListSaved(ctx, 0)
		if err != nil {
			return "", err
		}
		lines := make([]string, 0, len(list))
		for _, s := range list {
			lines = append(lines, fmt.Sprintf("#%d %s (%s, %d plies)", s.ID, s.Name, s.Difficulty, s.MoveCount))
		}
		return strings.Join(lines, "\n"), nil
	case "load":
		id, err := strconv.ParseInt(arg, 10, 64)
		if err != nil {
			return "usage: load <id>", nil
		}
		resp, err := r.client.LoadSaved(ctx, id)
		if err != nil {
			return "", err
		}
		return resp.Message, nil
	case "history":
		resp, err := r.client.History(ctx, 0)
		if err != nil {
			return "", err
		}
		return resp.Message, nil
	case "profile":
		resp, err := r.client.Profile(ctx)
		if err != nil {
			return "", err
		}
		return resp.Message, nil
	default:
		resp, err := r.client.Play(ctx, fields[0])
		if err != nil {
			return "", err
		}
		return resp.Message, nil
	}
}
