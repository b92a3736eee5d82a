package profile

import (
	"context"
	"testing"

	"github.com/nholik/netloc-sentinel/internal/sysexec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const scselectOutput = `Defined sets include: (* indicates set currently in use)
   3F0B1A2C-0000-4000-8000-000000000001	(Automatic)
 * 3F0B1A2C-0000-4000-8000-000000000002	(Home Office)
   3F0B1A2C-0000-4000-8000-000000000003	(Wired)
`

func TestDarwinApplier_Current(t *testing.T) {
	fake := sysexec.NewFakeRunner(map[string]sysexec.Response{scselectPath: {Output: scselectOutput}})

	current, err := NewDarwinApplier(fake).Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Home Office", current)
}

func TestDarwinApplier_NoActive(t *testing.T) {
	fake := sysexec.NewFakeRunner(map[string]sysexec.Response{scselectPath: {Output: "Defined sets include:\n   ID1 (Automatic)\n"}})

	_, err := NewDarwinApplier(fake).Current(context.Background())
	assert.ErrorIs(t, err, ErrNoActiveProfile)
}

func TestDarwinApplier_Profiles(t *testing.T) {
	fake := sysexec.NewFakeRunner(map[string]sysexec.Response{scselectPath: {Output: scselectOutput}})

	profiles, err := NewDarwinApplier(fake).Profiles(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Automatic", "Home Office", "Wired"}, profiles)
}

func TestDarwinApplier_Apply(t *testing.T) {
	fake := sysexec.NewFakeRunner(map[string]sysexec.Response{
		networksetupPath + " -switchtolocation Home Office": {Output: "found it!\n"},
	})
	applier := NewDarwinApplier(fake)

	require.NoError(t, applier.Apply(context.Background(), "Home Office"))
	assert.Error(t, applier.Apply(context.Background(), "Missing"))
}

func TestCommandApplier(t *testing.T) {
	fake := sysexec.NewFakeRunner(map[string]sysexec.Response{
		"nmcli connection up Home Office":                 {},
		"sh -c nmcli -t -f NAME connection show --active": {Output: "\nHome Office\nlo\n"},
	})

	applier, err := NewCommandApplier(fake, "nmcli connection up {{.Profile}}", `sh -c "nmcli -t -f NAME connection show --active"`)
	require.NoError(t, err)

	current, err := applier.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Home Office", current)

	require.NoError(t, applier.Apply(context.Background(), "Home Office"))
	assert.Equal(t, 1, fake.CallCount("nmcli connection up"))
}

func TestNewCommandApplier_Errors(t *testing.T) {
	tests := []struct {
		name    string
		apply   string
		current string
	}{
		{name: "empty apply", apply: " ", current: "scselect"},
		{name: "empty current", apply: "switch {{.Profile}}", current: ""},
		{name: "unterminated quote", apply: `switch "{{.Profile}}`, current: "scselect"},
		{name: "bad template", apply: "switch {{.Profile", current: "scselect"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCommandApplier(sysexec.NewFakeRunner(nil), tt.apply, tt.current)
			assert.Error(t, err)
		})
	}
}

func TestCommandApplier_UnknownField(t *testing.T) {
	applier, err := NewCommandApplier(sysexec.NewFakeRunner(nil), "switch {{.Name}}", "current")
	require.NoError(t, err)
	assert.Error(t, applier.Apply(context.Background(), "Wired"))
}
