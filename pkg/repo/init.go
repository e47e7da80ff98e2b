package repo

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/grit-vcs/grit/pkg/object"
)

// Init creates a new grit repository at path. It creates the .grit/
// directory structure: HEAD, objects/, refs/heads/, refs/tags/, and the
// reflog directory. Returns an error if a .grit/ directory already exists.
func Init(path string) (*Repo, error) {
	gritDir := filepath.Join(path, ".grit")

	if _, err := os.Stat(gritDir); err == nil {
		return nil, fmt.Errorf("init: repository already exists at %s", gritDir)
	}

	dirs := []string{
		filepath.Join(gritDir, "objects"),
		filepath.Join(gritDir, "refs", "heads"),
		filepath.Join(gritDir, "refs", "tags"),
		filepath.Join(gritDir, "logs", "refs", "heads"),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return nil, fmt.Errorf("init: mkdir %s: %w", d, err)
		}
	}

	headPath := filepath.Join(gritDir, "HEAD")
	if err := os.WriteFile(headPath, []byte("ref: refs/heads/main\n"), 0o644); err != nil {
		return nil, fmt.Errorf("init: write HEAD: %w", err)
	}

	return &Repo{
		RootDir: path,
		GritDir: gritDir,
		Store:   object.NewFileStore(gritDir),
	}, nil
}

// Open searches upward from path for a .grit/ directory and opens the
// repository. Returns ErrNotRepository if no .grit/ directory is found.
func Open(path string) (*Repo, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("open: abs path: %w", err)
	}

	cur := abs
	for {
		gritDir := filepath.Join(cur, ".grit")
		info, err := os.Stat(gritDir)
		if err == nil && info.IsDir() {
			return &Repo{
				RootDir: cur,
				GritDir: gritDir,
				Store:   object.NewFileStore(gritDir),
			}, nil
		}

		parent := filepath.Dir(cur)
		if parent == cur {
			return nil, fmt.Errorf("open %s: %w", path, ErrNotRepository)
		}
		cur = parent
	}
}

// Head reads .grit/HEAD. If the content starts with "ref: ", it returns the
// ref path (e.g., "refs/heads/main"). Otherwise it returns the raw content
// as a detached hash string.
func (r *Repo) Head() (string, error) {
	data, err := os.ReadFile(filepath.Join(r.GritDir, "HEAD"))
	if err != nil {
		return "", fmt.Errorf("head: %w", err)
	}
	content := strings.TrimRight(string(data), "\n")

	if strings.HasPrefix(content, "ref: ") {
		return strings.TrimPrefix(content, "ref: "), nil
	}
	return content, nil
}

// Detached reports whether HEAD points directly at a commit rather than a
// branch ref.
func (r *Repo) Detached() (bool, error) {
	head, err := r.Head()
	if err != nil {
		return false, err
	}
	return !strings.HasPrefix(head, "refs/"), nil
}

// CurrentBranch returns the short branch name HEAD is on, or "" when HEAD
// is detached.
func (r *Repo) CurrentBranch() (string, error) {
	head, err := r.Head()
	if err != nil {
		return "", err
	}
	if strings.HasPrefix(head, "refs/heads/") {
		return strings.TrimPrefix(head, "refs/heads/"), nil
	}
	return "", nil
}

// setHeadSymbolic points HEAD at a branch ref.
func (r *Repo) setHeadSymbolic(refName string) error {
	headPath := filepath.Join(r.GritDir, "HEAD")
	if err := os.WriteFile(headPath, []byte("ref: "+refName+"\n"), 0o644); err != nil {
		return fmt.Errorf("set HEAD: %w", err)
	}
	return nil
}

// setHeadDetached points HEAD directly at a commit.
func (r *Repo) setHeadDetached(h object.Hash) error {
	headPath := filepath.Join(r.GritDir, "HEAD")
	if err := os.WriteFile(headPath, []byte(string(h)+"\n"), 0o644); err != nil {
		return fmt.Errorf("set HEAD: %w", err)
	}
	return nil
}
