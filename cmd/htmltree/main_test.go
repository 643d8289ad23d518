package main

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dpotapov/go-htmltree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCmd(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := run(args, strings.NewReader(stdin), &stdout, &stderr)
	return stdout.String(), stderr.String(), err
}

func TestDump(t *testing.T) {
	out, _, err := runCmd(t, "<p>a<p>b", "dump")
	require.NoError(t, err)
	assert.Equal(t, "| <p> [0,3) end=4\n|   \"a\" [3,4)\n| <p> [4,7) end=8\n|   \"b\" [7,8)\n", out)
}

func TestDumpFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "page.html")
	require.NoError(t, os.WriteFile(path, []byte("<title>t</title>"), 0o644))

	out, _, err := runCmd(t, "", "-mode", "document", "dump", path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "| <html> virtual"), out)
}

func TestQuery(t *testing.T) {
	out, _, err := runCmd(t, "<ul>\n<li>a\n<li>b</ul>", "query", `name == "li"`)
	require.NoError(t, err)
	assert.Equal(t, "2:1\t\"<li>\"\n3:1\t\"<li>\"\n", out)
}

func TestDiagnosticsOnStderr(t *testing.T) {
	_, stderr, err := runCmd(t, "<b>1<p>2</b>3</p>", "-log-level", "error", "json")
	require.NoError(t, err)
	assert.Regexp(t, `(?m)^1:\d+: structural-mismatch: `, stderr)
}

func TestDiagnosticContext(t *testing.T) {
	_, stderr, err := runCmd(t, "<b>1<p>2</b>3</p>", "-context", "0", "dump")
	require.NoError(t, err)
	assert.Contains(t, stderr, "1 | <b>1<p>2</b>3</p>\n")
	assert.Contains(t, stderr, "^\n")
}

func TestUsageErrors(t *testing.T) {
	_, _, err := runCmd(t, "")
	assert.ErrorIs(t, err, errUsage)

	_, _, err = runCmd(t, "", "frobnicate")
	assert.ErrorIs(t, err, errUsage)

	_, _, err = runCmd(t, "", "query")
	assert.ErrorIs(t, err, errUsage)

	_, _, err = runCmd(t, "", "-mode", "xhtml", "dump")
	assert.Error(t, err)
}

func TestConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "htmltree.yaml")
	require.NoError(t, os.WriteFile(path, []byte("mode: document\nmax_diagnostics: 3\nlog_level: debug\n"), 0o644))

	cfg := defaultConfig()
	require.NoError(t, loadConfig(path, &cfg))
	assert.Equal(t, config{Mode: "document", MaxDiagnostics: 3, Listen: ":8080", LogLevel: "debug", ContextLines: -1}, cfg)

	mode, err := cfg.mode()
	require.NoError(t, err)
	assert.Equal(t, htmltree.ModeDocument, mode)
	level, err := cfg.level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)

	// flags win over the file
	out, _, err := runCmd(t, "<p>x", "-config", path, "-mode", "fragment", "dump")
	require.NoError(t, err)
	assert.Equal(t, "| <p> [0,3) end=4\n|   \"x\" [3,4)\n", out)
}

func TestConfigErrors(t *testing.T) {
	cfg := defaultConfig()
	assert.Error(t, loadConfig(filepath.Join(t.TempDir(), "missing.yaml"), &cfg))

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("mode: [\n"), 0o644))
	assert.Error(t, loadConfig(path, &cfg))

	cfg.LogLevel = "loud"
	_, err := cfg.level()
	assert.Error(t, err)
}
