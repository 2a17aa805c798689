// Package walker enumerates a root directory tree into an ordered list of
// candidate file paths, honoring gitignore-style ignore patterns and an
// extension allowlist (§4.5). Walk does not read file contents; the
// binary-content heuristic is exposed as IsBinary and applied by the
// file processor when it reads each file.
package walker

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	gitignore "github.com/sabhiram/go-gitignore"
	"github.com/praetorian-inc/rustscout/pkg/types"
)

// Config controls one walk.
type Config struct {
	Root           string
	IgnorePatterns []string // gitignore-style; built-ins (.git/**) are always applied
	Extensions     []string // case-insensitive allowlist; empty = all extensions pass
	MaxDepth       int      // 0 = unlimited
	FollowSymlinks bool
	IncludeHidden  bool
}

var builtinIgnores = []string{".git/**"}

// Walker enumerates Config.Root.
type Walker struct {
	cfg     Config
	ignore  *gitignore.GitIgnore
	exts    map[string]bool
	onError func(*types.WalkError)
}

// New builds a Walker. onError, if non-nil, is invoked for every
// per-entry enumeration failure; a single bad entry is never fatal to
// the walk.
func New(cfg Config, onError func(*types.WalkError)) *Walker {
	patterns := append(append([]string{}, builtinIgnores...), cfg.IgnorePatterns...)
	ignore := gitignore.CompileIgnoreLines(patterns...)

	var exts map[string]bool
	if len(cfg.Extensions) > 0 {
		exts = make(map[string]bool, len(cfg.Extensions))
		for _, e := range cfg.Extensions {
			exts[strings.ToLower(strings.TrimPrefix(e, "."))] = true
		}
	}

	if onError == nil {
		onError = func(*types.WalkError) {}
	}
	return &Walker{cfg: cfg, ignore: ignore, exts: exts, onError: onError}
}

// Walk returns the ordered list of eligible file paths under cfg.Root.
// Ordering is deterministic (the collected paths are sorted as whole
// strings with sort.Strings) so that SearchEngine's downstream ordering
// guarantee has a stable base to preserve.
func (w *Walker) Walk() []string {
	var paths []string
	root := normalizePath(w.cfg.Root)

	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			w.onError(&types.WalkError{Path: path, Cause: err})
			return nil
		}

		path = normalizePath(path)
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			rel = path
		}

		if d.IsDir() {
			if path != root && !w.cfg.IncludeHidden && isHidden(path, d.Name()) {
				return filepath.SkipDir
			}
			if w.cfg.MaxDepth > 0 && depthOf(rel) > w.cfg.MaxDepth {
				return filepath.SkipDir
			}
			if w.matchesIgnore(rel, d.Name(), true) {
				return filepath.SkipDir
			}
			return nil
		}

		info, infoErr := d.Info()
		if infoErr != nil {
			w.onError(&types.WalkError{Path: path, Cause: infoErr})
			return nil
		}

		if info.Mode()&os.ModeSymlink != 0 && !w.cfg.FollowSymlinks {
			return nil
		}
		if !w.cfg.IncludeHidden && isHidden(path, d.Name()) {
			return nil
		}
		if w.cfg.MaxDepth > 0 && depthOf(rel) > w.cfg.MaxDepth {
			return nil
		}
		if w.matchesIgnore(rel, d.Name(), false) {
			return nil
		}
		if !w.extensionAllowed(path) {
			return nil
		}

		paths = append(paths, path)
		return nil
	})

	sort.Strings(paths)
	return paths
}

// matchesIgnore applies the built-in + user ignore patterns: a pattern
// with no slash matches on basename; a pattern with a slash matches the
// root-relative path with a literal-separator rule (handled by
// go-gitignore, which already implements gitignore glob semantics).
func (w *Walker) matchesIgnore(rel, base string, isDir bool) bool {
	if w.ignore == nil {
		return false
	}
	if isDir {
		return w.ignore.MatchesPath(rel + "/")
	}
	return w.ignore.MatchesPath(rel) || w.ignore.MatchesPath(base)
}

func (w *Walker) extensionAllowed(path string) bool {
	if w.exts == nil {
		return true
	}
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	return w.exts[ext]
}

func isHidden(path, name string) bool {
	if name == "." || name == ".." {
		return false
	}
	return strings.HasPrefix(name, ".") || platformHidden(path)
}

func depthOf(rel string) int {
	if rel == "." {
		return 0
	}
	return strings.Count(filepath.ToSlash(rel), "/") + 1
}
