package repo

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/grit-vcs/grit/pkg/object"
)

// Merge-in-progress state lives in two files under .grit/: MERGE_HEAD holds
// the commit being merged, MERGE_MSG the message for the finalizing commit.
// Both survive until the merge is committed or the repository is reset.

func (r *Repo) mergeHeadPath() string {
	return filepath.Join(r.GritDir, "MERGE_HEAD")
}

func (r *Repo) mergeMsgPath() string {
	return filepath.Join(r.GritDir, "MERGE_MSG")
}

// MergeHead returns the commit recorded in MERGE_HEAD and whether a merge is
// in progress.
func (r *Repo) MergeHead() (object.Hash, bool, error) {
	data, err := os.ReadFile(r.mergeHeadPath())
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("read MERGE_HEAD: %w", err)
	}
	h := object.Hash(strings.TrimSpace(string(data)))
	if h == "" {
		return "", false, nil
	}
	return h, true, nil
}

func (r *Repo) writeMergeState(theirs object.Hash, message string) error {
	if err := os.WriteFile(r.mergeHeadPath(), []byte(string(theirs)+"\n"), 0o644); err != nil {
		return fmt.Errorf("write MERGE_HEAD: %w", err)
	}
	if err := os.WriteFile(r.mergeMsgPath(), []byte(message+"\n"), 0o644); err != nil {
		return fmt.Errorf("write MERGE_MSG: %w", err)
	}
	return nil
}

func (r *Repo) clearMergeState() error {
	for _, p := range []string{r.mergeHeadPath(), r.mergeMsgPath()} {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("clear merge state: %w", err)
		}
	}
	return nil
}

func (r *Repo) mergeMessage() string {
	data, err := os.ReadFile(r.mergeMsgPath())
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}
