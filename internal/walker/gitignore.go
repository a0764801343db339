package walker

import (
	"os"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

type ignoreRule struct {
	pattern  string
	anchored bool // contains a slash: matched against the whole path
	dirOnly  bool // trailing slash: matches directories only
	negate   bool // leading "!": re-includes a path
}

// ignoreRules is the subset of .gitignore syntax that matters for a data
// directory: globs, ** segments, trailing-slash directories and negation.
type ignoreRules []ignoreRule

func loadIgnoreRules(path string) ignoreRules {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var rules ignoreRules
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		var r ignoreRule
		if strings.HasPrefix(line, "!") {
			r.negate = true
			line = line[1:]
		}
		if strings.HasSuffix(line, "/") {
			r.dirOnly = true
			line = strings.TrimSuffix(line, "/")
		}
		if strings.Contains(line, "/") {
			r.anchored = true
			line = strings.TrimPrefix(line, "/")
		}
		if line == "" {
			continue
		}
		r.pattern = line
		rules = append(rules, r)
	}
	return rules
}

// ignored reports whether the slash-separated relPath is ignored. The last
// matching rule wins.
func (rules ignoreRules) ignored(relPath string, isDir bool) bool {
	if len(rules) == 0 {
		return false
	}
	segments := strings.Split(relPath, "/")
	ignored := false
	for _, r := range rules {
		if r.matches(segments, isDir) {
			ignored = !r.negate
		}
	}
	return ignored
}

func (r ignoreRule) matches(segments []string, isDir bool) bool {
	last := len(segments) - 1
	if r.anchored {
		// A directory rule also covers everything beneath the directory.
		for i := range segments {
			prefix := strings.Join(segments[:i+1], "/")
			if r.dirOnly && i == last && !isDir {
				break
			}
			if ok, _ := doublestar.Match(r.pattern, prefix); ok {
				return true
			}
		}
		return false
	}
	for i, seg := range segments {
		if r.dirOnly && i == last && !isDir {
			break
		}
		if ok, _ := doublestar.Match(r.pattern, seg); ok {
			return true
		}
	}
	return false
}
