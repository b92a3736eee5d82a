package sysexec

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"testing"
	"time"
)

func requireShell(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func TestExecRunner_Output(t *testing.T) {
	requireShell(t)
	out, err := NewExecRunner(time.Second).Run(context.Background(), "sh", "-c", "echo Home")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(string(out)) != "Home" {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestExecRunner_ExitError(t *testing.T) {
	requireShell(t)
	_, err := NewExecRunner(time.Second).Run(context.Background(), "sh", "-c", "echo nope >&2; exit 4")

	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("expected ExitError, got %v", err)
	}
	if exitErr.ExitCode != 4 || exitErr.Stderr != "nope" {
		t.Fatalf("unexpected exit error: %+v", exitErr)
	}
	if !IsExit(err) {
		t.Fatalf("IsExit must report exit errors")
	}
}

func TestExecRunner_Timeout(t *testing.T) {
	requireShell(t)
	start := time.Now()
	_, err := NewExecRunner(50*time.Millisecond).Run(context.Background(), "sh", "-c", "exec sleep 5")
	if err == nil {
		t.Fatalf("expected timeout error")
	}
	if time.Since(start) > 2*time.Second {
		t.Fatalf("command was not killed on timeout")
	}
}

func TestExecRunner_MissingBinary(t *testing.T) {
	_, err := NewExecRunner(time.Second).Run(context.Background(), "definitely-not-a-real-binary-nls")
	if err == nil || IsExit(err) {
		t.Fatalf("expected non-exit error for missing binary, got %v", err)
	}
}

func TestFakeRunner(t *testing.T) {
	fake := NewFakeRunner(map[string]Response{
		"scselect": {Output: "* A (Home)\n"},
	})

	out, err := fake.Run(context.Background(), "scselect")
	if err != nil || string(out) != "* A (Home)\n" {
		t.Fatalf("unexpected response: %q %v", out, err)
	}
	if _, err := fake.Run(context.Background(), "ifconfig", "en0"); err == nil {
		t.Fatalf("expected error for unknown command")
	}
	if fake.CallCount("ifconfig") != 1 || len(fake.Calls()) != 2 {
		t.Fatalf("unexpected calls: %v", fake.Calls())
	}
}
