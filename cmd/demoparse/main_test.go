package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/taoyao-code/demo-analyzer/internal/demo/demotest"
)

func writeDemo(t *testing.T) string {
	t.Helper()
	data, err := demotest.Match()
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "match.dem")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestRunJSON(t *testing.T) {
	t.Chdir(t.TempDir())
	var out bytes.Buffer
	require.NoError(t, run([]string{writeDemo(t)}, nil, &out))

	var got struct {
		Digest string `json:"digest"`
		Header struct {
			Map string `json:"map"`
		} `json:"header"`
		Match struct {
			Users map[string]struct {
				Name string `json:"name"`
				Team string `json:"team"`
			} `json:"users"`
		} `json:"match"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.Len(t, got.Digest, 64)
	assert.Equal(t, demotest.Map, got.Header.Map)
	require.Contains(t, got.Match.Users, "7")
	assert.Equal(t, demotest.Player, got.Match.Users["7"].Name)
	assert.Equal(t, "blue", got.Match.Users["7"].Team)
}

func TestRunYAMLFromStdin(t *testing.T) {
	t.Chdir(t.TempDir())
	data, err := demotest.Match()
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, run([]string{"--format", "yaml", "-"}, bytes.NewReader(data), &out))

	var got map[string]any
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &got))
	header, ok := got["header"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, demotest.Map, header["map"])
	assert.Contains(t, got, "match")
}

func TestRunStateAndMetrics(t *testing.T) {
	t.Chdir(t.TempDir())
	textfile := filepath.Join(t.TempDir(), "demo.prom")

	var out bytes.Buffer
	require.NoError(t, run([]string{"--state", "--parse-all", "--metrics-textfile", textfile, writeDemo(t)}, nil, &out))
	assert.Contains(t, out.String(), `"eventDefinitions"`)
	assert.Contains(t, out.String(), `"player_spawn"`)
	assert.NotContains(t, out.String(), `"match"`)

	prom, err := os.ReadFile(textfile)
	require.NoError(t, err)
	assert.Contains(t, string(prom), `demo_parse_total{result="ok"} 1`)
}

func TestRunErrors(t *testing.T) {
	t.Chdir(t.TempDir())
	var out bytes.Buffer
	assert.Error(t, run(nil, nil, &out))
	assert.Error(t, run([]string{"--format", "xml", "a.dem"}, nil, &out))
	assert.Error(t, run([]string{filepath.Join(t.TempDir(), "missing.dem")}, nil, &out))

	bad := filepath.Join(t.TempDir(), "bad.dem")
	require.NoError(t, os.WriteFile(bad, []byte("not a demo"), 0o644))
	assert.Error(t, run([]string{bad}, nil, &out))
	assert.Empty(t, out.String())
}
