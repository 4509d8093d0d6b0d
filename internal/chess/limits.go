package chess

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/park285/cheese-chess/internal/engine"
)

// BuildSearchOptions turns a preset into engine options. Exact scores for
// every root move are only requested when noise needs them.
func BuildSearchOptions(p DifficultyPreset) (engine.Options, error) {
	if err := ValidatePreset(p); err != nil {
		return engine.Options{}, err
	}
	return engine.Options{
		Depth:    p.Depth,
		ScoreAll: p.EvalNoise > 0,
	}, nil
}

// WithMoveTime bounds ctx by the preset's move time, if any.
func WithMoveTime(ctx context.Context, p DifficultyPreset) (context.Context, context.CancelFunc) {
	if p.MoveTimeMillis <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, time.Duration(p.MoveTimeMillis)*time.Millisecond)
}

// FormatLimits renders the search limits for logs, e.g. "depth 3 movetime 500".
func FormatLimits(p DifficultyPreset) (string, error) {
	if err := ValidatePreset(p); err != nil {
		return "", err
	}
	args := []string{"depth", strconv.Itoa(p.Depth)}
	if p.MoveTimeMillis > 0 {
		args = append(args, "movetime", strconv.Itoa(p.MoveTimeMillis))
	}
	if p.RandomMoveRate > 0 {
		args = append(args, "random", strconv.FormatFloat(p.RandomMoveRate, 'f', -1, 64))
	}
	if p.EvalNoise > 0 {
		args = append(args, "noise", fmt.Sprintf("%d", p.EvalNoise))
	}
	return strings.Join(args, " "), nil
}
