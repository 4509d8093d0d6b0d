package chess

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// TieBreak decides between moves that share the best score.
type TieBreak string

const (
	TieBreakFirst  TieBreak = "first"
	TieBreakRandom TieBreak = "random"
)

const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"

	DefaultDifficulty = DifficultyMedium
)

const maxSearchDepth = 8

type DifficultyPreset struct {
	Name           string
	Depth          int
	MoveTimeMillis int
	// RandomMoveRate is the probability of playing a uniformly random legal
	// move instead of searching.
	RandomMoveRate float64
	// EvalNoise perturbs every root score by a uniform offset in
	// [-EvalNoise, +EvalNoise] centipawns before the best one is picked.
	EvalNoise int
	TieBreak  TieBreak
}

// PresetOverride carries optional replacements loaded from configuration.
type PresetOverride struct {
	Depth          *int      `yaml:"depth"`
	MoveTimeMillis *int      `yaml:"move_time_ms"`
	RandomMoveRate *float64  `yaml:"random_move_rate"`
	EvalNoise      *int      `yaml:"eval_noise"`
	TieBreak       *TieBreak `yaml:"tie_break"`
}

var presetMu sync.RWMutex

var DefaultPresets = map[string]DifficultyPreset{
	DifficultyEasy: {
		Depth:          2,
		MoveTimeMillis: 0,
		RandomMoveRate: 0.3,
		EvalNoise:      40,
		TieBreak:       TieBreakRandom,
	},
	DifficultyMedium: {
		Depth:          3,
		MoveTimeMillis: 0,
		RandomMoveRate: 0,
		EvalNoise:      0,
		TieBreak:       TieBreakRandom,
	},
	DifficultyHard: {
		Depth:          4,
		MoveTimeMillis: 0,
		RandomMoveRate: 0,
		EvalNoise:      0,
		TieBreak:       TieBreakFirst,
	},
}

var presetAliases = map[string]string{
	"beginner":     DifficultyEasy,
	"intermediate": DifficultyMedium,
	"advanced":     DifficultyHard,
	"master":       DifficultyHard,
}

// ParseDifficulty resolves a user supplied name or alias to a preset name.
func ParseDifficulty(name string) (string, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if alias, ok := presetAliases[key]; ok {
		key = alias
	}
	presetMu.RLock()
	_, ok := DefaultPresets[key]
	presetMu.RUnlock()
	if !ok {
		return "", fmt.Errorf("unknown chess preset: %s", name)
	}
	return key, nil
}

func GetPreset(name string) (DifficultyPreset, error) {
	key, err := ParseDifficulty(name)
	if err != nil {
		return DifficultyPreset{}, err
	}
	presetMu.RLock()
	p := DefaultPresets[key]
	presetMu.RUnlock()
	p.Name = key
	return p, nil
}

// PresetNames lists the canonical difficulty names, easiest first.
func PresetNames() []string {
	presetMu.RLock()
	names := make([]string, 0, len(DefaultPresets))
	depth := make(map[string]int, len(DefaultPresets))
	for name, p := range DefaultPresets {
		names = append(names, name)
		depth[name] = p.Depth
	}
	presetMu.RUnlock()
	sort.Slice(names, func(i, j int) bool {
		if depth[names[i]] != depth[names[j]] {
			return depth[names[i]] < depth[names[j]]
		}
		return names[i] < names[j]
	})
	return names
}

// SetPresetOverrides applies configuration overrides. It is meant to run
// once at startup; every override is validated before any is stored.
func SetPresetOverrides(overrides map[string]PresetOverride) error {
	presetMu.Lock()
	defer presetMu.Unlock()

	updated := make(map[string]DifficultyPreset, len(overrides))
	for rawName, ov := range overrides {
		name := strings.ToLower(strings.TrimSpace(rawName))
		if alias, ok := presetAliases[name]; ok {
			name = alias
		}
		preset, ok := DefaultPresets[name]
		if !ok {
			return fmt.Errorf("unknown chess preset: %s", rawName)
		}
		if prev, seen := updated[name]; seen {
			preset = prev
		}
		if ov.Depth != nil {
			preset.Depth = *ov.Depth
		}
		if ov.MoveTimeMillis != nil {
			preset.MoveTimeMillis = *ov.MoveTimeMillis
		}
		if ov.RandomMoveRate != nil {
			preset.RandomMoveRate = *ov.RandomMoveRate
		}
		if ov.EvalNoise != nil {
			preset.EvalNoise = *ov.EvalNoise
		}
		if ov.TieBreak != nil {
			preset.TieBreak = TieBreak(strings.ToLower(strings.TrimSpace(string(*ov.TieBreak))))
		}
		preset.Name = name
		if err := ValidatePreset(preset); err != nil {
			return fmt.Errorf("preset %s: %w", name, err)
		}
		updated[name] = preset
	}
	for name, preset := range updated {
		preset.Name = ""
		DefaultPresets[name] = preset
	}
	return nil
}

func ValidatePreset(p DifficultyPreset) error {
	switch {
	case p.Depth < 1 || p.Depth > maxSearchDepth:
		return fmt.Errorf("depth %d out of range 1-%d", p.Depth, maxSearchDepth)
	case p.MoveTimeMillis < 0:
		return fmt.Errorf("move time must be >= 0: %d", p.MoveTimeMillis)
	case p.RandomMoveRate < 0 || p.RandomMoveRate > 1:
		return fmt.Errorf("random move rate %f out of range 0-1", p.RandomMoveRate)
	case p.EvalNoise < 0:
		return fmt.Errorf("eval noise must be >= 0: %d", p.EvalNoise)
	}
	switch p.TieBreak {
	case TieBreakFirst, TieBreakRandom:
	default:
		return fmt.Errorf("unknown tie break %q", p.TieBreak)
	}
	return nil
}
