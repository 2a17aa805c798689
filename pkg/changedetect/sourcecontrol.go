package changedetect

import (
	"path/filepath"

	"github.com/go-git/go-git/v5"

	"github.com/praetorian-inc/rustscout/pkg/types"
)

// SourceControlDetector classifies paths using the worktree status of
// the local repository rooted at or above a configured directory,
// instead of titus's use of go-git for remote clone enumeration.
type SourceControlDetector struct {
	repo *git.Repository
	root string
}

// NewSourceControlDetector opens the repository containing root,
// searching parent directories the way `git status` does. It returns
// an error when root is not inside a git worktree so that NewAuto can
// fall back to SignatureDetector.
func NewSourceControlDetector(root string) (*SourceControlDetector, error) {
	repo, err := git.PlainOpenWithOptions(root, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, err
	}
	return &SourceControlDetector{repo: repo, root: root}, nil
}

func (d *SourceControlDetector) Detect(paths []string) map[string]types.ChangeResult {
	out := make(map[string]types.ChangeResult, len(paths))

	w, err := d.repo.Worktree()
	if err != nil {
		return degradeAll(paths)
	}
	status, err := w.Status()
	if err != nil {
		return degradeAll(paths)
	}

	for _, p := range paths {
		rel, err := filepath.Rel(w.Filesystem.Root(), p)
		if err != nil {
			out[p] = types.ChangeResult{Status: types.Modified}
			continue
		}
		rel = filepath.ToSlash(rel)

		entry, tracked := status[rel]
		if !tracked {
			out[p] = types.ChangeResult{Status: types.Unchanged}
			continue
		}
		out[p] = classify(entry)
	}
	return out
}

func classify(entry *git.FileStatus) types.ChangeResult {
	switch {
	case entry.Worktree == git.Untracked || entry.Staging == git.Added:
		return types.ChangeResult{Status: types.Added}
	case entry.Worktree == git.Deleted || entry.Staging == git.Deleted:
		return types.ChangeResult{Status: types.Deleted}
	case entry.Worktree == git.Renamed || entry.Staging == git.Renamed:
		return types.ChangeResult{Status: types.Renamed, PreviousPath: entry.Extra}
	case entry.Worktree == git.Unmodified && entry.Staging == git.Unmodified:
		return types.ChangeResult{Status: types.Unchanged}
	default:
		return types.ChangeResult{Status: types.Modified}
	}
}

func degradeAll(paths []string) map[string]types.ChangeResult {
	out := make(map[string]types.ChangeResult, len(paths))
	for _, p := range paths {
		out[p] = types.ChangeResult{Status: types.Modified}
	}
	return out
}
