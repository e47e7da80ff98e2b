package repo

import (
	"bufio"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// IgnoreChecker decides whether a worktree path is excluded from status,
// diff, and untracked-file collection. Patterns come from .gritignore at the
// repository root; .grit/ and .git/ are always excluded.
type IgnoreChecker struct {
	patterns []ignorePattern

	// Indexed pattern groups so IsIgnored avoids a linear scan for the
	// common literal cases.
	dirPrefixPatterns map[string][]int
	exactBasePatterns map[string][]int
	exactPathPatterns map[string][]int
	wildcardBase      []int
	wildcardPath      []int
}

type ignorePattern struct {
	pattern  string
	negated  bool
	dirOnly  bool
	hasSlash bool // slash in pattern means match against the full path
	regex    *regexp.Regexp
}

// NewIgnoreChecker builds the checker for a repository root, parsing
// .gritignore if present.
func NewIgnoreChecker(repoRoot string) *IgnoreChecker {
	ic := &IgnoreChecker{}

	ic.patterns = append(ic.patterns,
		ignorePattern{pattern: ".grit"},
		ignorePattern{pattern: ".git"},
	)

	f, err := os.Open(filepath.Join(repoRoot, ".gritignore"))
	if err == nil {
		defer f.Close()
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			if p := parseIgnoreLine(scanner.Text()); p != nil {
				ic.patterns = append(ic.patterns, *p)
			}
		}
	}

	ic.compile()
	return ic
}

// parseIgnoreLine parses one .gritignore line. Empty lines and # comments
// yield nil.
func parseIgnoreLine(line string) *ignorePattern {
	line = strings.TrimRight(line, " \t")
	if line == "" || strings.HasPrefix(line, "#") {
		return nil
	}

	p := &ignorePattern{}
	if strings.HasPrefix(line, "!") {
		p.negated = true
		line = line[1:]
	}
	if strings.HasSuffix(line, "/") {
		p.dirOnly = true
		line = strings.TrimRight(line, "/")
	}
	p.hasSlash = strings.Contains(line, "/")
	p.pattern = line
	if strings.Contains(line, "**") {
		if re, err := regexp.Compile(globToRegex(line)); err == nil {
			p.regex = re
		}
	}
	return p
}

// IsIgnored checks whether a repo-relative, slash-separated path should be
// ignored. Last matching pattern wins, so negations can re-include paths.
func (ic *IgnoreChecker) IsIgnored(path string) bool {
	path = filepath.ToSlash(path)
	base := filepath.Base(path)

	lastMatch := -1
	ignored := false
	apply := func(idx int) {
		if idx > lastMatch {
			lastMatch = idx
			ignored = !ic.patterns[idx].negated
		}
	}
	applyAll := func(idxs []int) {
		for _, idx := range idxs {
			apply(idx)
		}
	}

	// Directory patterns match the directory itself and everything under it.
	applyAll(ic.dirPrefixPatterns[path])
	for i := 0; i < len(path); i++ {
		if path[i] == '/' {
			applyAll(ic.dirPrefixPatterns[path[:i]])
		}
	}

	applyAll(ic.exactPathPatterns[path])
	applyAll(ic.exactBasePatterns[base])

	for _, idx := range ic.wildcardPath {
		if ic.patterns[idx].match(path) {
			apply(idx)
		}
	}
	for _, idx := range ic.wildcardBase {
		if ic.patterns[idx].match(base) {
			apply(idx)
		}
	}

	return ignored
}

func (ic *IgnoreChecker) compile() {
	ic.dirPrefixPatterns = make(map[string][]int)
	ic.exactBasePatterns = make(map[string][]int)
	ic.exactPathPatterns = make(map[string][]int)
	ic.wildcardBase = nil
	ic.wildcardPath = nil

	for idx := range ic.patterns {
		p := ic.patterns[idx]

		if p.dirOnly || p.pattern == ".grit" || p.pattern == ".git" {
			ic.dirPrefixPatterns[p.pattern] = append(ic.dirPrefixPatterns[p.pattern], idx)
			if p.dirOnly {
				continue
			}
		}

		switch {
		case p.regex == nil && !strings.ContainsAny(p.pattern, "*?["):
			if p.hasSlash {
				ic.exactPathPatterns[p.pattern] = append(ic.exactPathPatterns[p.pattern], idx)
			} else {
				ic.exactBasePatterns[p.pattern] = append(ic.exactBasePatterns[p.pattern], idx)
			}
		case p.hasSlash:
			ic.wildcardPath = append(ic.wildcardPath, idx)
		default:
			ic.wildcardBase = append(ic.wildcardBase, idx)
		}
	}
}

func (p *ignorePattern) match(target string) bool {
	if p.regex != nil {
		return p.regex.MatchString(target)
	}
	matched, _ := filepath.Match(p.pattern, target)
	return matched
}

func globToRegex(pattern string) string {
	var b strings.Builder
	b.WriteString("^")
	for i := 0; i < len(pattern); i++ {
		ch := pattern[i]
		if ch == '*' {
			if i+1 < len(pattern) && pattern[i+1] == '*' {
				if i+2 < len(pattern) && pattern[i+2] == '/' {
					// Globstar directory segment: zero or more path segments.
					b.WriteString("(?:.*/)?")
					i += 2
				} else {
					b.WriteString(".*")
					i++
				}
				continue
			}
			b.WriteString("[^/]*")
			continue
		}
		if ch == '?' {
			b.WriteString("[^/]")
			continue
		}
		if strings.ContainsRune(`.+()|[]{}^$\\`, rune(ch)) {
			b.WriteByte('\\')
		}
		b.WriteByte(ch)
	}
	b.WriteString("$")
	return b.String()
}
