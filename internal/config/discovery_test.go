package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestParseMode(t *testing.T) {
	tests := []struct {
		input string
		want  Mode
	}{
		{"", ModeAuto},
		{"auto", ModeAuto},
		{"S", ModeSystem},
		{"system", ModeSystem},
		{"usr", ModeUser},
		{"development", ModeDev},
	}
	for _, tt := range tests {
		got, err := ParseMode(tt.input)
		if err != nil {
			t.Fatalf("ParseMode(%q) error: %v", tt.input, err)
		}
		if got != tt.want {
			t.Fatalf("ParseMode(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}

	if _, err := ParseMode("everywhere"); err == nil {
		t.Fatalf("expected error for unknown mode")
	}
}

func missingStat(string) (os.FileInfo, error) {
	return nil, os.ErrNotExist
}

func TestDiscover_AutoSearchOrder(t *testing.T) {
	home := filepath.Join("/home", "alice", "."+ProfileFileName)
	system := filepath.Join("/usr/local/etc", ProfileFileName)

	env := SearchEnv{
		ExecutableDir: "/opt/netloc",
		HomeDir:       "/home/alice",
		Username:      "alice",
	}

	info, err := os.Stat(writeFile(t, "real.json", "{}"))
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	env.Stat = func(path string) (os.FileInfo, error) {
		if path == home || path == system {
			return info, nil
		}
		return nil, os.ErrNotExist
	}

	got, err := env.Discover(ModeAuto, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != home {
		t.Fatalf("expected home config to win, got %s", got)
	}

	candidates, err := env.Candidates(ModeAuto)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(candidates) != 5 {
		t.Fatalf("expected 5 candidates, got %d", len(candidates))
	}
	if candidates[0].Path != filepath.Join("/opt/netloc", ProfileFileName) || candidates[0].Exists {
		t.Fatalf("unexpected first candidate: %+v", candidates[0])
	}
}

func TestDiscover_ExplicitPath(t *testing.T) {
	env := SearchEnv{Stat: missingStat}
	if _, err := env.Discover(ModeAuto, "/missing.json"); err == nil {
		t.Fatalf("expected error for missing explicit path")
	}

	path := writeFile(t, "explicit.json", "{}")
	got, err := SearchEnv{}.Discover(ModeSystem, path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != path {
		t.Fatalf("explicit path must win over mode, got %s", got)
	}
}

func TestDiscover_PinnedModeNotFound(t *testing.T) {
	env := SearchEnv{Username: "bob", Stat: missingStat}

	_, err := env.Discover(ModeUser, "")
	if !errors.Is(err, ErrProfileFileNotFound) {
		t.Fatalf("expected ErrProfileFileNotFound, got %v", err)
	}

	if _, err := (SearchEnv{}).Candidates(ModeUser); err == nil {
		t.Fatalf("expected error when username is unknown")
	}
}
