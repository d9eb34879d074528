package extractor

import (
	"os"
	"path/filepath"
	"strings"
)

// maxLinks bounds how many symlinks Canonical follows for one path.
const maxLinks = 255

// Canonical returns an absolute, symlink-resolved form of path. Elements are
// resolved one at a time from the root, so ".." applies to the resolved
// prefix and not to the link that led there. Missing elements are kept as
// they are and dangling links are followed to their target.
func Canonical(path string) string {
	sep := string(filepath.Separator)
	if !filepath.IsAbs(path) {
		if wd, err := os.Getwd(); err == nil {
			path = wd + sep + path
		}
	}
	volume := filepath.VolumeName(path)
	resolved := volume + sep

	pending := strings.Split(path[len(volume):], sep)
	links := 0
	for len(pending) > 0 {
		name := pending[0]
		pending = pending[1:]

		switch name {
		case "", ".":
			continue
		case "..":
			resolved = filepath.Dir(resolved)
			continue
		}

		next := filepath.Join(resolved, name)
		info, err := os.Lstat(next)
		if err != nil || info.Mode()&os.ModeSymlink == 0 || links >= maxLinks {
			resolved = next
			continue
		}
		target, err := os.Readlink(next)
		if err != nil {
			resolved = next
			continue
		}
		links++
		if filepath.IsAbs(target) {
			volume = filepath.VolumeName(target)
			resolved = volume + sep
			target = target[len(volume):]
		}
		pending = append(strings.Split(target, sep), pending...)
	}
	return resolved
}

// Within reports whether path is dir or lies below it. Both must be
// canonical; the test is separator aware so /a/bc is not within /a/b.
func Within(path, dir string) bool {
	if path == dir {
		return true
	}
	if !strings.HasSuffix(dir, string(os.PathSeparator)) {
		dir += string(os.PathSeparator)
	}
	return strings.HasPrefix(path, dir)
}

// MatchesIgnorePrefix reports whether path matches prefix followed by a
// trailing wildcard. No other glob metacharacters are interpreted, so an
// empty prefix matches everything.
func MatchesIgnorePrefix(path, prefix string) bool {
	return strings.HasPrefix(path, prefix)
}
