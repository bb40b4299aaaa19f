package cmd

import (
	"bytes"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mouse-blink/ubsynth/internal/config"
)

func TestParseShard(t *testing.T) {
	tests := []struct {
		shard     string
		wantIndex int
		wantTotal int
		wantErr   bool
	}{
		{shard: "", wantIndex: 0, wantTotal: 1},
		{shard: "0/1", wantIndex: 0, wantTotal: 1},
		{shard: "2/3", wantIndex: 2, wantTotal: 3},
		{shard: "3/3", wantErr: true},
		{shard: "-1/3", wantErr: true},
		{shard: "1/0", wantErr: true},
		{shard: "half", wantErr: true},
	}

	for _, tt := range tests {
		index, total, err := parseShard(tt.shard)
		if tt.wantErr {
			if err == nil {
				t.Errorf("parseShard(%q) expected error", tt.shard)
			}

			continue
		}

		if err != nil || index != tt.wantIndex || total != tt.wantTotal {
			t.Errorf("parseShard(%q) = %d, %d, %v; want %d, %d", tt.shard, index, total, err, tt.wantIndex, tt.wantTotal)
		}
	}
}

func TestParsePaths(t *testing.T) {
	paths := parsePaths([]string{"a.c", "dir/..."})
	require.Len(t, paths, 2)
	assert.Equal(t, "dir/...", string(paths[1]))
	assert.Empty(t, parsePaths(nil))
}

func TestRootCmd_Help(t *testing.T) {
	var out bytes.Buffer

	cmd := newRootCmd()
	cmd.AddCommand(newRunCmd(), newListCmd(), newViewCmd())
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--help"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "division-by-zero")
	assert.Contains(t, out.String(), "--heap-prob")
	assert.Contains(t, out.String(), "Available Commands")
}

func TestRootCmd_RegistersSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, sub := range rootCmd.Commands() {
		names[sub.Name()] = true
	}

	for _, want := range []string{"run", "list", "view"} {
		if !names[want] {
			t.Errorf("root command is missing %q", want)
		}
	}
}

func loadedConfig(t *testing.T, args ...string) (*cobra.Command, config.Config) {
	t.Helper()

	cmd := newRootCmd()
	sub := newRunCmd()
	cmd.AddCommand(sub)

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)

	require.NoError(t, sub.ParseFlags(args))

	cfg, err := loadConfig(sub)
	require.NoError(t, err)

	return sub, cfg
}

func TestResolveWorkflow_BuildsFromConfig(t *testing.T) {
	originalWorkflow := workflow
	workflow = nil

	defer func() { workflow = originalWorkflow }()

	sub, cfg := loadedConfig(t, "--ub", "division-by-zero", "--out", "out", "--log-level", "debug", "--tools-dir", "/opt/tools")

	assert.Equal(t, "/opt/tools/tool-instrumenter", cfg.Tools.Instrumenter)

	wf, err := resolveWorkflow(sub, cfg)
	require.NoError(t, err)
	assert.NotNil(t, wf)
}

func TestResolveWorkflow_InvalidLogLevel(t *testing.T) {
	originalWorkflow := workflow
	workflow = nil

	defer func() { workflow = originalWorkflow }()

	sub, cfg := loadedConfig(t, "--ub", "division-by-zero", "--log-level", "loud")

	_, err := resolveWorkflow(sub, cfg)
	require.Error(t, err)
}
