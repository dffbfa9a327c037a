package fsys

import (
	"path"
	"regexp"
	"sort"
	"strings"

	"github.com/shellgrove/shellgrove/pattern"
)

// Glob expands a shell pathname pattern against the tree rooted at cwd:
// unquoted words containing glob metacharacters are matched against the
// filesystem; no matches passes the pattern through literally (callers
// decide that fallback); matches are returned sorted.
func (fs FS) Glob(cwd, pat string) ([]string, error) {
	if !pattern.HasMeta(pat, 0) {
		return nil, nil
	}
	abs := strings.HasPrefix(pat, "/")
	segs := strings.Split(pat, "/")
	start := "/"
	if abs {
		segs = segs[1:]
	} else {
		start = cwd
	}
	matches, err := fs.globSegs(start, segs)
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)
	return matches, nil
}

func (fs FS) globSegs(dir string, segs []string) ([]string, error) {
	if len(segs) == 0 {
		return []string{dir}, nil
	}
	seg := segs[0]
	rest := segs[1:]
	if seg == "" {
		return fs.globSegs(dir, rest)
	}
	entries, err := fs.ReadDir(dir)
	if err != nil {
		return nil, nil // unreadable directory yields no matches, not an error
	}
	if !pattern.HasMeta(seg, 0) {
		for _, e := range entries {
			if e.Name == seg {
				return fs.globSegs(path.Join(dir, seg), rest)
			}
		}
		return nil, nil
	}
	reSrc, err := pattern.Regexp(seg, pattern.EntireString|pattern.Filenames)
	if err != nil {
		return nil, nil
	}
	re, err := regexp.Compile(reSrc)
	if err != nil {
		return nil, nil
	}
	var out []string
	for _, e := range entries {
		if strings.HasPrefix(e.Name, ".") && !strings.HasPrefix(seg, ".") {
			continue
		}
		if !re.MatchString(e.Name) {
			continue
		}
		matches, err := fs.globSegs(path.Join(dir, e.Name), rest)
		if err != nil {
			return nil, err
		}
		out = append(out, matches...)
	}
	return out, nil
}
