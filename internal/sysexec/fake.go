package sysexec

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Response is a canned result for FakeRunner.
type Response struct {
	Output string
	Err    error
}

// FakeRunner replays canned responses keyed by the full command line.
// Unknown commands fail as if the binary were missing.
type FakeRunner struct {
	mu        sync.Mutex
	responses map[string]Response
	calls     []string
}

// NewFakeRunner returns a FakeRunner with the given responses.
func NewFakeRunner(responses map[string]Response) *FakeRunner {
	if responses == nil {
		responses = map[string]Response{}
	}
	return &FakeRunner{responses: responses}
}

// Set installs or replaces a canned response.
func (f *FakeRunner) Set(command string, resp Response) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[command] = resp
}

// Run implements Runner.
func (f *FakeRunner) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	line := commandLine(name, args)

	f.mu.Lock()
	f.calls = append(f.calls, line)
	resp, ok := f.responses[line]
	f.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("%s: executable file not found", line)
	}
	return []byte(resp.Output), resp.Err
}

// Calls returns every command line run so far.
func (f *FakeRunner) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// CallCount returns how many times commands with the given prefix ran.
func (f *FakeRunner) CallCount(prefix string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}
