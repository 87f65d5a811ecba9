package spec

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, dir, name, contents string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadResolvesPathsAndMergesEnv(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".env", "A=from-file\nB=kept\nexport C='quoted value'\n")
	path := writeFile(t, dir, "proc.yaml", `command: ["sleep", "1"]
workdir: sub
env:
  A: inline-wins
envFromFile: .env
stdout: out.log
`)

	doc, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if got, want := doc.Workdir, filepath.Join(dir, "sub"); got != want {
		t.Fatalf("workdir = %q, want %q", got, want)
	}
	if got, want := doc.Stdout, filepath.Join(dir, "out.log"); got != want {
		t.Fatalf("stdout = %q, want %q", got, want)
	}
	if doc.Stderr != "" {
		t.Fatalf("stderr = %q, want empty", doc.Stderr)
	}
	for k, want := range map[string]string{"A": "inline-wins", "B": "kept", "C": "quoted value"} {
		if doc.Env[k] != want {
			t.Fatalf("env[%s] = %q, want %q", k, doc.Env[k], want)
		}
	}
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "proc.yaml", "command: [\"true\"]\nbogus: 1\n")
	if _, err := Load(path); err == nil {
		t.Fatal("expected unknown field to be rejected")
	}
}

func TestLoadRequiresCommand(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "proc.yaml", "workdir: /tmp\n")
	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "requires a command") {
		t.Fatalf("expected missing-command error, got %v", err)
	}
}

func TestEnvironMergesOverParent(t *testing.T) {
	t.Setenv("COBALT_SPEC_TEST_PARENT", "present")
	l := &Launch{Env: map[string]string{"COBALT_SPEC_TEST_CHILD": "child"}}

	env := l.Environ()
	var foundParent, foundChild bool
	for _, kv := range env {
		switch kv {
		case "COBALT_SPEC_TEST_PARENT=present":
			foundParent = true
		case "COBALT_SPEC_TEST_CHILD=child":
			foundChild = true
		}
	}
	if !foundParent || !foundChild {
		t.Fatalf("merged env missing entries (parent=%v child=%v)", foundParent, foundChild)
	}

	if (&Launch{}).Environ() != nil {
		t.Fatal("empty manifest env should inherit (nil)")
	}
}
