package runner

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func requireSh(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not found in PATH")
	}
}

func TestCmdString(t *testing.T) {
	c := Cmd{Name: "cmake", Args: []string{"--build", ".", "--parallel", "8"}}
	if got, want := c.String(), "cmake --build . --parallel 8"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestExecRunSuccess(t *testing.T) {
	requireSh(t)
	dir := t.TempDir()
	var out bytes.Buffer
	r := &Exec{Stdout: &out}

	err := r.Run(context.Background(), Cmd{
		Name: "sh",
		Args: []string{"-c", `pwd; echo "$USDBUILD_TEST"`},
		Dir:  dir,
		Env:  []string{"USDBUILD_TEST=overlay", "PATH=/usr/bin:/bin"},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("output = %q", out.String())
	}
	// The temp dir may be reached through a symlink (macOS /var).
	if filepath.Base(lines[0]) != filepath.Base(dir) {
		t.Errorf("cwd = %q, want %q", lines[0], dir)
	}
	if lines[1] != "overlay" {
		t.Errorf("env value = %q, want %q", lines[1], "overlay")
	}
}

func TestExecRunExitCode(t *testing.T) {
	requireSh(t)
	r := &Exec{Stdout: &bytes.Buffer{}, Stderr: &bytes.Buffer{}}
	cmd := Cmd{Name: "sh", Args: []string{"-c", "exit 3"}}

	err := r.Run(context.Background(), cmd)
	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("Run error = %v, want *ExitError", err)
	}
	if exitErr.Code != 3 {
		t.Errorf("Code = %d, want 3", exitErr.Code)
	}
	if !strings.Contains(exitErr.Error(), "sh -c exit 3") {
		t.Errorf("Error() = %q, want the command line", exitErr.Error())
	}
}

func TestExecRunNotFound(t *testing.T) {
	r := &Exec{}
	err := r.Run(context.Background(), Cmd{Name: "usdbuild-no-such-tool"})
	if err == nil {
		t.Fatal("Run succeeded for a missing executable")
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		t.Errorf("missing executable reported as exit status: %v", err)
	}
}

func TestExecRunCancel(t *testing.T) {
	requireSh(t)
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	r := &Exec{Stdout: &bytes.Buffer{}, Stderr: &bytes.Buffer{}}
	start := time.Now()
	err := r.Run(ctx, Cmd{Name: "sh", Args: []string{"-c", "sleep 30"}})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Run error = %v, want deadline exceeded", err)
	}
	if time.Since(start) > 10*time.Second {
		t.Error("child was not killed on cancel")
	}
}
