package main

import (
	"bytes"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(args ...string) (code int, stdout, stderr string) {
	var out, errOut bytes.Buffer
	code = dispatch(args, &out, &errOut)

	return code, out.String(), errOut.String()
}

var timingLine = regexp.MustCompile(`^(\d+) (\d+), \d+\.\d{9}$`)

func TestDispatchUsage(t *testing.T) {
	code, _, stderr := execute()
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "USAGE:")

	code, stdout, _ := execute("help")
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout, "COMMANDS:")

	code, _, stderr = execute("frobnicate")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "Unknown command: frobnicate")
}

func TestRunCommand(t *testing.T) {
	code, stdout, stderr := execute("run", "10", "2", "--bound", "20")
	require.Equal(t, 0, code, stderr)

	lines := strings.Split(strings.TrimSuffix(stdout, "\n"), "\n")
	require.Len(t, lines, 20)
	assert.Equal(t, "<k = 1>, <1>", lines[0])
	assert.Equal(t, "<k = 4>, <0>", lines[3])
	assert.Equal(t, "<k = 19>, <1>", lines[18])
	assert.Equal(t, "<k = 20>, <0>", lines[19])

	m := timingLine.FindStringSubmatch(strings.TrimSpace(stderr))
	require.NotNil(t, m, "stderr: %q", stderr)
	assert.Equal(t, "10", m[1])
	assert.Equal(t, "2", m[2])
}

func TestRunCommandDefaultBound(t *testing.T) {
	code, stdout, _ := execute("run", "100", "3")
	require.Equal(t, 0, code)

	assert.Equal(t, 1000, strings.Count(stdout, "\n"))
	assert.True(t, strings.HasSuffix(stdout, "<k = 1000>, <0>\n"))
}

func TestRunCommandAuditLedgerMetrics(t *testing.T) {
	code, _, stderr := execute("run", "500", "4", "--audit", "--ledger", "--metrics", "--log-color", "never")
	require.Equal(t, 0, code, stderr)

	assert.Contains(t, stderr, "audit: 0 hazards")
	assert.Contains(t, stderr, "ledger: expected=499 claimed=499 duplicates=0 missing=0")
	assert.Contains(t, stderr, `mtcollatz_runs_total{mode="safe"} 1`)
	assert.NotContains(t, stderr, "DATA RACE")
}

func TestRunCommandErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing threads", []string{"run", "10"}, "invalid usage"},
		{"max too small", []string{"run", "1", "2"}, "MaxValue"},
		{"zero threads", []string{"run", "10", "0"}, "Threads"},
		{"bad number", []string{"run", "x", "2"}, "max must be"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, stdout, stderr := execute(tt.args...)
			assert.Equal(t, 1, code)
			assert.Empty(t, stdout)
			assert.Contains(t, stderr, tt.want)
		})
	}
}

func TestRunCommandHelp(t *testing.T) {
	code, _, stderr := execute("run", "--help")
	assert.Equal(t, 0, code)
	assert.Contains(t, stderr, "--nolock")
}

func TestBenchCommand(t *testing.T) {
	code, stdout, stderr := execute("bench", "2000", "--threads", "1,3", "--trials", "2")
	require.Equal(t, 0, code, stderr)

	lines := strings.Split(strings.TrimSuffix(stdout, "\n"), "\n")
	require.Len(t, lines, 4)

	for i, want := range []string{"1", "1", "3", "3"} {
		m := timingLine.FindStringSubmatch(lines[i])
		require.NotNil(t, m, lines[i])
		assert.Equal(t, "2000", m[1])
		assert.Equal(t, want, m[2])
	}

	assert.NotContains(t, stdout, "diverged")
}

func TestVersionCommand(t *testing.T) {
	code, stdout, _ := execute("version")
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout, "mtcollatz version v")

	code, _, _ = execute("version", "--require", "v0.1.0")
	assert.Equal(t, 0, code)

	code, _, stderr := execute("version", "--require", "v99.0.0")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "version requirement not met")

	code, _, stderr = execute("version", "--require", "next")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "invalid semantic version")
}
