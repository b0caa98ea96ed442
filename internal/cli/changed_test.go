package cli

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

func gitRun(t *testing.T, dir string, args ...string) {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(),
		"GIT_AUTHOR_NAME=test",
		"GIT_AUTHOR_EMAIL=test@test.com",
		"GIT_COMMITTER_NAME=test",
		"GIT_COMMITTER_EMAIL=test@test.com",
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("git %v failed: %v\n%s", args, err, out)
	}
}

func TestRunAnalysis_ChangedStaged(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	tmp := isolate(t)
	dir := filepath.Join(tmp, "repo")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if resolved, err := filepath.EvalSymlinks(dir); err == nil {
		dir = resolved
	}
	gitRun(t, dir, "init")
	writeFile(t, filepath.Join(dir, "Worker.cs"), sleepySource)
	gitRun(t, dir, "add", ".")
	gitRun(t, dir, "-c", "commit.gpgsign=false", "commit", "-m", "initial")

	writeFile(t, filepath.Join(dir, "Staged.cs"), sleepySource)
	gitRun(t, dir, "add", "Staged.cs")
	writeFile(t, filepath.Join(dir, "Untracked.cs"), sleepySource)

	flagFormat = "json"
	flagOut = filepath.Join(tmp, "report.json")
	flagChanged = "staged"

	var stderr bytes.Buffer
	if code := runAnalysis(context.Background(), performanceAnalysis, dir, &stderr); code != ExitSuccess {
		t.Fatalf("exit code = %d, stderr: %s", code, stderr.String())
	}
	r := readReport(t)
	if r.FilesScanned != 1 {
		t.Fatalf("FilesScanned = %d, want 1", r.FilesScanned)
	}
	if len(r.Issues) != 1 || r.Issues[0].File != "Staged.cs" {
		t.Errorf("issues = %+v", r.Issues)
	}
}

func TestRunAnalysis_ChangedNotARepo(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	tmp := isolate(t)
	dir := filepath.Join(tmp, "plain")
	writeFile(t, filepath.Join(dir, "Worker.cs"), sleepySource)
	t.Setenv("GIT_CEILING_DIRECTORIES", tmp)
	flagChanged = "staged"

	var stderr bytes.Buffer
	if code := runAnalysis(context.Background(), performanceAnalysis, dir, &stderr); code != ExitRuntimeError {
		t.Errorf("exit code = %d, want %d", code, ExitRuntimeError)
	}
}

func TestChangeDir(t *testing.T) {
	tmp := t.TempDir()
	file := filepath.Join(tmp, "Program.cs")
	writeFile(t, file, "class P {}")
	if got := changeDir(file); got != tmp {
		t.Errorf("changeDir(file) = %q, want %q", got, tmp)
	}
	if got := changeDir(tmp); got != tmp {
		t.Errorf("changeDir(dir) = %q, want %q", got, tmp)
	}
}
