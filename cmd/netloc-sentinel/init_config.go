package main

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/nholik/netloc-sentinel/internal/config"
	"github.com/spf13/cobra"
)

var initConfigCmd = &cobra.Command{
	Use:   "init-config [path]",
	Short: "Write a default profile map",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := initConfigPath(args)
		if err != nil {
			return err
		}
		if err := config.WriteDefaultProfileFile(path); err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Created configuration file: %s\n", path)
		fmt.Fprintln(out, "Edit ssid_location_map to match your networks and profiles.")
		return nil
	},
}

// initConfigPath picks the target: an argument, then --config, then the
// location the discovery mode prefers for user edits.
func initConfigPath(args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	if flags.configFile != "" {
		return flags.configFile, nil
	}

	mode, err := config.ParseMode(flags.mode)
	if err != nil {
		return "", err
	}
	env := config.DefaultSearchEnv()
	if mode == config.ModeAuto {
		if env.HomeDir == "" {
			return "", errors.New("cannot determine home directory; pass a path")
		}
		return filepath.Join(env.HomeDir, "."+config.ProfileFileName), nil
	}
	candidates, err := env.Candidates(mode)
	if err != nil {
		return "", err
	}
	return candidates[0].Path, nil
}
