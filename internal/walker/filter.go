package walker

import (
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// SkippedNames are directory and file names never read as documents:
// VCS and editor state, archive-extraction litter and macOS metadata.
var SkippedNames = []string{
	".git",
	".idea",
	".venv",
	".vscode",
	".DS_Store",
	"__MACOSX",
	"__pycache__",
}

// skippedName reports whether a directory or file name is never read. Index
// staging directories (".<name>-staging-<n>") are skipped too, so an index
// built inside its own data directory is not indexed.
func skippedName(name string) bool {
	if strings.HasPrefix(name, ".") && strings.Contains(name, "-staging-") {
		return true
	}
	for _, s := range SkippedNames {
		if strings.EqualFold(name, s) {
			return true
		}
	}
	return false
}

// MatchesInclude reports whether relPath matches one of the include
// patterns. No patterns means everything is included.
func MatchesInclude(relPath string, patterns []string) bool {
	return len(patterns) == 0 || matchGlobs(relPath, patterns)
}

// MatchesExclude reports whether relPath matches one of the exclude
// patterns.
func MatchesExclude(relPath string, patterns []string) bool {
	return len(patterns) > 0 && matchGlobs(relPath, patterns)
}

// matchGlobs tries every doublestar pattern against both the full relative
// path and its base name, so "*.pdf" matches at any depth.
func matchGlobs(relPath string, patterns []string) bool {
	p := filepath.ToSlash(relPath)
	candidates := [2]string{p, path.Base(p)}
	for _, pattern := range patterns {
		pattern = filepath.ToSlash(pattern)
		for _, c := range candidates {
			if ok, err := doublestar.Match(pattern, c); err == nil && ok {
				return true
			}
		}
	}
	return false
}
