package compare

import (
	"path/filepath"
	"strings"
)

// shouldExclude checks a path relative to the mirror root against exclude patterns.
// Patterns support:
//   - basename globs: *.tmp, *.log
//   - directory names with a trailing slash: .git/, node_modules/
//   - path globs containing a slash: build/*, docs/*.pdf
//   - any-depth globs: **/cache
func shouldExclude(relativePath string, patterns []string) bool {
	if len(patterns) == 0 {
		return false
	}

	normalizedPath := filepath.ToSlash(relativePath)
	baseName := filepath.Base(relativePath)
	segments := strings.Split(normalizedPath, "/")

	for _, pattern := range patterns {
		if pattern == "" {
			continue
		}
		pattern = filepath.ToSlash(pattern)

		switch {
		case strings.HasSuffix(pattern, "/"):
			name := strings.TrimSuffix(pattern, "/")
			for _, seg := range segments {
				if matchGlob(seg, name) {
					return true
				}
			}

		case strings.HasPrefix(pattern, "**/"):
			suffix := strings.TrimPrefix(pattern, "**/")
			if matchGlob(baseName, suffix) || matchGlob(normalizedPath, suffix) ||
				strings.HasSuffix(normalizedPath, "/"+suffix) {
				return true
			}

		case strings.Contains(pattern, "/"):
			if matchGlob(normalizedPath, pattern) {
				return true
			}

		default:
			if matchGlob(baseName, pattern) {
				return true
			}
		}
	}

	return false
}

// matchGlob reports whether name matches a filepath.Match pattern; bad patterns never match
func matchGlob(name, pattern string) bool {
	matched, _ := filepath.Match(pattern, name)
	return matched
}
