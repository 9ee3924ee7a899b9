package cliapp

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"serialguard/internal/shared/version"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const orderSource = `package com.acme;

import com.yourcompany.Autoserializable;

@Autoserializable
public class Order {
}
`

type project struct {
	dir    string
	config string
}

func newProject(t *testing.T) project {
	t.Helper()
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "serialguard.toml")
	content := fmt.Sprintf(`version = 1
watch_paths = [%q]

[paths]
project_root = %q
state_dir = %q

[db]
enabled = true
path = "history.db"
`, dir, dir, filepath.Join(dir, "state"))
	require.NoError(t, os.WriteFile(cfgPath, []byte(content), 0o644))
	return project{dir: dir, config: cfgPath}
}

func (p project) write(t *testing.T, name, src string) string {
	t.Helper()
	path := filepath.Join(p.dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return path
}

func run(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := Run(t.Context(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestVersionCommand(t *testing.T) {
	code, out, _ := run(t, "version")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "serialguard version "+version.Version)
}

func TestCheckCommand(t *testing.T) {
	p := newProject(t)
	order := p.write(t, "src/Order.java", orderSource)

	code, out, _ := run(t, "--config", p.config, "check", order, "--details")
	require.Equal(t, 0, code, out)
	assert.Contains(t, out, "Serialization-Sensitive Classes Found")
	assert.Contains(t, out, "com.acme.Order")
	assert.Contains(t, out, "CLASS")

	code, out, _ = run(t, "--config", p.config, "history")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "src/Order.java (com.acme.Order)")
	assert.Contains(t, out, "1 notification(s)")
}

func TestCheckCommand_NotJavaAndMissing(t *testing.T) {
	p := newProject(t)
	notes := p.write(t, "notes.txt", "Autoserializable")

	code, out, _ := run(t, "--config", p.config, "check", notes)
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "Not a Java File")

	code, out, _ = run(t, "--config", p.config, "check", filepath.Join(p.dir, "Gone.java"))
	assert.Equal(t, 1, code)
	assert.Contains(t, out, "Serialization Check Failed")
}

func TestCheckCommand_RequiresOneArg(t *testing.T) {
	code, _, stderr := run(t, "check")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "accepts 1 arg")
}

func TestInspectCommand_SARIF(t *testing.T) {
	p := newProject(t)
	p.write(t, "src/Order.java", orderSource)

	code, out, _ := run(t, "--config", p.config, "inspect", "--format", "sarif")
	require.Equal(t, 0, code)

	var doc struct {
		Runs []struct {
			Results []struct {
				RuleID    string `json:"ruleId"`
				Locations []struct {
					PhysicalLocation struct {
						ArtifactLocation struct {
							URI string `json:"uri"`
						} `json:"artifactLocation"`
					} `json:"physicalLocation"`
				} `json:"locations"`
			} `json:"results"`
		} `json:"runs"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	require.Len(t, doc.Runs, 1)
	require.Len(t, doc.Runs[0].Results, 1)
	assert.Equal(t, "SER001", doc.Runs[0].Results[0].RuleID)
	assert.Equal(t, "src/Order.java", doc.Runs[0].Results[0].Locations[0].PhysicalLocation.ArtifactLocation.URI)
}

func TestInspectCommand_FailOnFindingsAndOutputFile(t *testing.T) {
	p := newProject(t)
	p.write(t, "src/Order.java", orderSource)
	report := filepath.Join(p.dir, "out", "report.md")

	code, _, _ := run(t, "--config", p.config, "inspect", "--format", "markdown", "--output", report, "--fail-on-findings")
	assert.Equal(t, 3, code)
	data, err := os.ReadFile(report)
	require.NoError(t, err)
	assert.Contains(t, string(data), "com.acme.Order")
}

func TestInspectCommand_BadFormat(t *testing.T) {
	code, _, stderr := run(t, "inspect", "--format", "xml")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "unsupported format")
}

func TestHistoryCommand_Disabled(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "serialguard.toml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("version = 1\n[db]\nenabled = false\n"), 0o644))

	code, _, stderr := run(t, "--config", cfgPath, "history")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "history is disabled")
}

func TestLoadConfig_ExplicitMissingFileFails(t *testing.T) {
	code, _, stderr := run(t, "--config", filepath.Join(t.TempDir(), "nope.toml"), "inspect")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "load config")
}

func TestParseSince(t *testing.T) {
	got, err := parseSince("")
	require.NoError(t, err)
	assert.True(t, got.IsZero())

	got, err = parseSince("2024-03-01")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), got)

	got, err = parseSince("2024-03-01T12:30:00+02:00")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC), got)

	got, err = parseSince("1h")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(-time.Hour), got, time.Minute)

	_, err = parseSince("yesterday")
	assert.Error(t, err)
}

func TestApplyPathArgs(t *testing.T) {
	p := newProject(t)
	code, _, _ := run(t, "--config", p.config, "inspect", p.dir)
	assert.Equal(t, 0, code)
}
