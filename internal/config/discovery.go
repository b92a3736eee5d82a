package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ProfileFileName is the file name searched for in every discovery location.
const ProfileFileName = "network-location-config.json"

// Mode pins profile file discovery to one installation layout.
type Mode string

const (
	ModeAuto   Mode = "auto"
	ModeSystem Mode = "system"
	ModeUser   Mode = "user"
	ModeDev    Mode = "dev"
)

// ErrProfileFileNotFound is returned when discovery finds no profile file.
var ErrProfileFileNotFound = errors.New("profile file not found")

// ParseMode accepts the mode names and their short aliases.
func ParseMode(value string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "auto", "a":
		return ModeAuto, nil
	case "system", "sys", "s":
		return ModeSystem, nil
	case "user", "usr", "u":
		return ModeUser, nil
	case "dev", "development", "d":
		return ModeDev, nil
	default:
		return "", fmt.Errorf("unknown mode %q (available: system, user, dev, auto)", value)
	}
}

// Candidate is one location considered during discovery.
type Candidate struct {
	Label  string
	Path   string
	Exists bool
}

// SearchEnv supplies the host facts discovery depends on.
type SearchEnv struct {
	ExecutableDir string
	HomeDir       string
	Username      string
	Stat          func(string) (os.FileInfo, error)
}

// DefaultSearchEnv inspects the running process.
func DefaultSearchEnv() SearchEnv {
	env := SearchEnv{Stat: os.Stat}
	if exe, err := os.Executable(); err == nil {
		env.ExecutableDir = filepath.Dir(exe)
	}
	if home, err := os.UserHomeDir(); err == nil {
		env.HomeDir = home
	}
	env.Username = os.Getenv("USER")
	if env.Username == "" {
		env.Username = os.Getenv("USERNAME")
	}
	return env
}

// Candidates lists discovery locations in priority order for the given mode.
func (e SearchEnv) Candidates(mode Mode) ([]Candidate, error) {
	var list []Candidate
	switch mode {
	case ModeSystem:
		list = []Candidate{{Label: "System-wide (system)", Path: filepath.Join("/usr/local/etc", ProfileFileName)}}
	case ModeUser:
		if e.Username == "" {
			return nil, errors.New("cannot determine username for user mode")
		}
		list = []Candidate{{Label: "User-specific (user)", Path: filepath.Join("/usr/local/etc", e.Username, ProfileFileName)}}
	case ModeDev:
		list = []Candidate{{Label: "Executable directory (dev)", Path: filepath.Join(e.ExecutableDir, ProfileFileName)}}
	default:
		if e.ExecutableDir != "" {
			list = append(list, Candidate{Label: "Executable directory (dev)", Path: filepath.Join(e.ExecutableDir, ProfileFileName)})
		}
		if e.HomeDir != "" {
			list = append(list, Candidate{Label: "User home", Path: filepath.Join(e.HomeDir, "."+ProfileFileName)})
		}
		if e.Username != "" {
			list = append(list, Candidate{Label: "User-specific (user)", Path: filepath.Join("/usr/local/etc", e.Username, ProfileFileName)})
		}
		list = append(list,
			Candidate{Label: "System-wide (system)", Path: filepath.Join("/usr/local/etc", ProfileFileName)},
			Candidate{Label: "System", Path: filepath.Join("/etc", ProfileFileName)},
		)
	}

	stat := e.Stat
	if stat == nil {
		stat = os.Stat
	}
	for i := range list {
		if info, err := stat(list[i].Path); err == nil && !info.IsDir() {
			list[i].Exists = true
		}
	}
	return list, nil
}

// Discover returns the profile file to load. An explicit path always wins and must exist.
func (e SearchEnv) Discover(mode Mode, explicit string) (string, error) {
	if explicit = strings.TrimSpace(explicit); explicit != "" {
		stat := e.Stat
		if stat == nil {
			stat = os.Stat
		}
		if _, err := stat(explicit); err != nil {
			return "", fmt.Errorf("profile file %s: %w", explicit, err)
		}
		return explicit, nil
	}

	candidates, err := e.Candidates(mode)
	if err != nil {
		return "", err
	}
	for _, c := range candidates {
		if c.Exists {
			return c.Path, nil
		}
	}
	if mode != ModeAuto && len(candidates) == 1 {
		return "", fmt.Errorf("%w for mode %s: %s", ErrProfileFileNotFound, mode, candidates[0].Path)
	}
	return "", ErrProfileFileNotFound
}
