package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

// writeTestConfig points every configurable path into base so tests never
// touch the real home directory.
func writeTestConfig(t *testing.T, base string) string {
	t.Helper()
	content := fmt.Sprintf(
		"[paths]\nstate_dir = %q\nexport_dir = %q\n\n[history]\nenabled = true\nkeep_runs = 5\n\n[logging]\nlevel = \"error\"\n",
		filepath.Join(base, "state"),
		filepath.Join(base, "exports"),
	)
	path := filepath.Join(base, "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func runCLI(t *testing.T, configPath string, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = []string{"--config", configPath}
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestRootCommandShowsHelpWithoutArgs(t *testing.T) {
	stdout, _, err := runCLI(t, writeTestConfig(t, t.TempDir()))
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	for _, want := range []string{"fix", "inspect", "history", "config"} {
		if !bytes.Contains([]byte(stdout), []byte(want)) {
			t.Errorf("help output missing %q:\n%s", want, stdout)
		}
	}
}
