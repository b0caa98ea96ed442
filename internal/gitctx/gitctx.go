package gitctx

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
)

// Change modes accepted by ChangedFiles besides revision ranges.
const (
	ModeStaged   = "staged"
	ModeUnstaged = "unstaged"
)

// RepoMeta contains git repository metadata.
type RepoMeta struct {
	Root   string
	Head   string
	Branch string
}

// GetRepoMeta collects repository metadata for the repository containing dir.
func GetRepoMeta(dir string) (RepoMeta, error) {
	root, err := gitOutput(dir, "rev-parse", "--show-toplevel")
	if err != nil {
		return RepoMeta{}, fmt.Errorf("not a git repository: %w", err)
	}
	head, err := gitOutput(dir, "rev-parse", "HEAD")
	if err != nil {
		head = "" // new repo with no commits
	}
	branch, err := gitOutput(dir, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		branch = ""
	}
	return RepoMeta{
		Root:   strings.TrimSpace(root),
		Head:   strings.TrimSpace(head),
		Branch: strings.TrimSpace(branch),
	}, nil
}

// ChangedFiles returns the absolute, sorted paths of files added, copied,
// modified or renamed by change in the repository containing dir. change is
// ModeStaged (index vs HEAD), ModeUnstaged (working tree vs index) or a
// revision range such as origin/main..HEAD, which is compared against the
// merge base.
func ChangedFiles(dir, change string) ([]string, error) {
	args, err := diffArgs(change)
	if err != nil {
		return nil, err
	}
	meta, err := GetRepoMeta(dir)
	if err != nil {
		return nil, err
	}
	out, err := gitOutput(dir, args...)
	if err != nil {
		return nil, fmt.Errorf("git %s: %w", strings.Join(args, " "), err)
	}
	return absolutize(meta.Root, out), nil
}

func diffArgs(change string) ([]string, error) {
	base := []string{"diff", "--name-only", "--diff-filter=ACMR"}
	switch change = strings.TrimSpace(change); change {
	case "":
		return nil, errors.New("empty change selector")
	case ModeStaged:
		return append(base, "--cached"), nil
	case ModeUnstaged:
		return base, nil
	default:
		if strings.HasPrefix(change, "-") {
			return nil, fmt.Errorf("invalid revision %q", change)
		}
		if strings.Contains(change, "..") && !strings.Contains(change, "...") {
			change = strings.Replace(change, "..", "...", 1)
		}
		return append(base, change, "--"), nil
	}
}

// absolutize turns git's toplevel-relative output into sorted absolute paths.
func absolutize(root, out string) []string {
	seen := make(map[string]bool)
	files := []string{}
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		p := filepath.Join(root, filepath.FromSlash(line))
		if !seen[p] {
			seen[p] = true
			files = append(files, p)
		}
	}
	sort.Strings(files)
	return files
}

// HooksDir returns the hooks directory of the repository containing dir.
func HooksDir(dir string) (string, error) {
	out, err := gitOutput(dir, "rev-parse", "--git-path", "hooks")
	if err != nil {
		return "", fmt.Errorf("not a git repository (git rev-parse failed)")
	}
	p := strings.TrimSpace(out)
	if !filepath.IsAbs(p) {
		base := dir
		if base == "" {
			base, _ = os.Getwd()
		}
		p = filepath.Join(base, p)
	}
	return p, nil
}

func gitOutput(dir string, args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return string(out), fmt.Errorf("%s: %s", err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return "", err
	}
	return string(out), nil
}
