package extract

import (
	"bufio"
	"bytes"
	"context"
	"os/exec"
	"strconv"
	"strings"
)

// gitLogLimit is the number of trailing commit subjects appended per file.
const gitLogLimit = 50

// shellGitEnricher shells out to the system git binary. Missing git or a
// path outside any repository is not an error: CommitSubjects returns
// (nil, nil) and the caller simply omits the gitlog block.
type shellGitEnricher struct{}

// NewGitEnricher returns the default git-log enricher.
func NewGitEnricher() GitEnricher { return shellGitEnricher{} }

func (shellGitEnricher) CommitSubjects(ctx context.Context, repoRoot, path string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = gitLogLimit
	}

	cmd := exec.CommandContext(ctx, "git", "log",
		"-n", strconv.Itoa(limit), "--pretty=format:%s", "--", path)
	cmd.Dir = repoRoot

	output, err := cmd.Output()
	if err != nil {
		// Not a git repo, git unavailable, or file untracked: not fatal.
		return nil, nil
	}

	var subjects []string
	scanner := bufio.NewScanner(bytes.NewReader(output))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			subjects = append(subjects, line)
		}
	}
	return subjects, nil
}

// DetectGitRoot returns the working tree root for repoPath, or "" if it
// isn't inside a git repository.
func DetectGitRoot(ctx context.Context, repoPath string) string {
	cmd := exec.CommandContext(ctx, "git", "rev-parse", "--show-toplevel")
	cmd.Dir = repoPath
	output, err := cmd.Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(output))
}

// gitLogBlock renders commit subjects as the trailing gitlog metadata
// block text.
func gitLogBlock(subjects []string) string {
	if len(subjects) == 0 {
		return ""
	}
	return strings.Join(subjects, "\n")
}
