package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/nholik/netloc-sentinel/internal/logging"
	"github.com/nholik/netloc-sentinel/internal/state"
	"github.com/spf13/cobra"
)

var (
	statusPath string
	statusJSON bool
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the last recorded switches",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := statusPath
		if path == "" {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			path = cfg.StatePath
		}
		if path == "" {
			return errors.New("no state file configured; set NLS_STATE_PATH or pass --state")
		}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		st, err := state.NewFileStore(path, logging.NewWithLevel("error")).Load(ctx)
		if err != nil {
			return err
		}
		if statusJSON {
			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			return encoder.Encode(st)
		}
		printStatus(cmd.OutOrStdout(), st)
		return nil
	},
}

func init() {
	statusCmd.Flags().StringVar(&statusPath, "state", "", "state file (defaults to NLS_STATE_PATH)")
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "print the raw state as JSON")
}

func printStatus(out io.Writer, st state.State) {
	active := st.ActiveProfile
	if active == "" {
		active = "unknown"
	}
	fmt.Fprintf(out, "Active profile:       %s\n", active)
	if !st.LastCycleAt.IsZero() {
		fmt.Fprintf(out, "Last cycle:           %s\n", st.LastCycleAt.Local().Format(time.RFC3339))
	}
	fmt.Fprintf(out, "Consecutive failures: %d\n", st.ConsecutiveFailures)

	if len(st.Recent) == 0 {
		fmt.Fprintln(out, "No switches recorded")
		return
	}
	fmt.Fprintln(out, "Recent switches:")
	for i := len(st.Recent) - 1; i >= 0; i-- {
		t := st.Recent[i]
		line := fmt.Sprintf("  %s  %s -> %s (%s, %s)", t.At.Local().Format(time.RFC3339), t.From, t.To, t.Reason, t.Outcome)
		if t.Error != "" {
			line += ": " + t.Error
		}
		fmt.Fprintln(out, line)
	}
}
