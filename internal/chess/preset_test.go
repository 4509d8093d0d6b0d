package chess

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func restorePresets(t *testing.T) {
	t.Helper()
	presetMu.RLock()
	saved := make(map[string]DifficultyPreset, len(DefaultPresets))
	for k, v := range DefaultPresets {
		saved[k] = v
	}
	presetMu.RUnlock()
	t.Cleanup(func() {
		presetMu.Lock()
		DefaultPresets = saved
		presetMu.Unlock()
	})
}

func TestGetPresetAliases(t *testing.T) {
	cases := map[string]string{
		"easy":         DifficultyEasy,
		" Medium ":     DifficultyMedium,
		"HARD":         DifficultyHard,
		"beginner":     DifficultyEasy,
		"intermediate": DifficultyMedium,
		"advanced":     DifficultyHard,
		"master":       DifficultyHard,
	}
	for in, want := range cases {
		p, err := GetPreset(in)
		if err != nil {
			t.Fatalf("GetPreset(%q): %v", in, err)
		}
		if p.Name != want {
			t.Fatalf("GetPreset(%q).Name = %q, want %q", in, p.Name, want)
		}
	}
	if _, err := GetPreset("grandmaster"); err == nil {
		t.Fatalf("expected error for unknown preset")
	}
}

func TestDefaultPresetsAreValidAndOrdered(t *testing.T) {
	if diff := cmp.Diff([]string{"easy", "medium", "hard"}, PresetNames()); diff != "" {
		t.Fatalf("preset order mismatch (-want +got):\n%s", diff)
	}
	for _, name := range PresetNames() {
		p, err := GetPreset(name)
		if err != nil {
			t.Fatalf("GetPreset(%s): %v", name, err)
		}
		if err := ValidatePreset(p); err != nil {
			t.Fatalf("default preset %s invalid: %v", name, err)
		}
	}
	hard, _ := GetPreset(DifficultyHard)
	if hard.RandomMoveRate != 0 || hard.EvalNoise != 0 || hard.TieBreak != TieBreakFirst {
		t.Fatalf("hard preset must be deterministic: %+v", hard)
	}
}

func TestValidatePresetRejects(t *testing.T) {
	base := DifficultyPreset{Name: "x", Depth: 2, TieBreak: TieBreakFirst}
	bad := []DifficultyPreset{
		{Depth: 0, TieBreak: TieBreakFirst},
		{Depth: maxSearchDepth + 1, TieBreak: TieBreakFirst},
		{Depth: 2, MoveTimeMillis: -1, TieBreak: TieBreakFirst},
		{Depth: 2, RandomMoveRate: 1.5, TieBreak: TieBreakFirst},
		{Depth: 2, EvalNoise: -3, TieBreak: TieBreakFirst},
		{Depth: 2, TieBreak: "coin"},
	}
	if err := ValidatePreset(base); err != nil {
		t.Fatalf("base preset rejected: %v", err)
	}
	for i, p := range bad {
		if err := ValidatePreset(p); err == nil {
			t.Fatalf("case %d: expected error for %+v", i, p)
		}
	}
}

func TestSetPresetOverrides(t *testing.T) {
	restorePresets(t)
	depth := 5
	noise := 15
	if err := SetPresetOverrides(map[string]PresetOverride{
		"intermediate": {Depth: &depth},
		"medium":       {EvalNoise: &noise},
	}); err != nil {
		t.Fatalf("SetPresetOverrides: %v", err)
	}
	p, err := GetPreset(DifficultyMedium)
	if err != nil {
		t.Fatalf("GetPreset: %v", err)
	}
	if p.Depth != 5 || p.EvalNoise != 15 {
		t.Fatalf("override not applied: %+v", p)
	}

	tooDeep := 99
	err = SetPresetOverrides(map[string]PresetOverride{"easy": {Depth: &tooDeep}})
	if err == nil || !strings.Contains(err.Error(), "easy") {
		t.Fatalf("expected validation error naming easy, got %v", err)
	}
	easy, _ := GetPreset(DifficultyEasy)
	if easy.Depth != 2 {
		t.Fatalf("failed override leaked into table: depth=%d", easy.Depth)
	}
	if err := SetPresetOverrides(map[string]PresetOverride{"nightmare": {}}); err == nil {
		t.Fatalf("expected unknown preset error")
	}
}

func TestFormatLimits(t *testing.T) {
	easy, _ := GetPreset(DifficultyEasy)
	got, err := FormatLimits(easy)
	if err != nil {
		t.Fatalf("FormatLimits: %v", err)
	}
	if got != "depth 2 random 0.3 noise 40" {
		t.Fatalf("FormatLimits(easy) = %q", got)
	}
	easy.MoveTimeMillis = 250
	got, _ = FormatLimits(easy)
	if !strings.HasPrefix(got, "depth 2 movetime 250") {
		t.Fatalf("FormatLimits with movetime = %q", got)
	}
}
