// Package media turns caller-supplied media references into inputs the
// ffprobe and ffmpeg processes can open.
package media

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var urlPattern = regexp.MustCompile(`(?i)^https?://`)

// IsURL reports whether ref is an absolute http(s) URL.
func IsURL(ref string) bool {
	return urlPattern.MatchString(ref)
}

// Resolve maps ref to an input path or URL relative to the process working
// directory. It never fails; if the working directory cannot be read the
// reference is resolved against ".".
func Resolve(ref string) string {
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}
	return ResolveFrom(cwd, ref)
}

// ResolveFrom applies the resolution rules against base:
//   - http(s) URLs are returned unchanged
//   - absolute paths that exist are returned unchanged
//   - absolute paths that do not exist lose one leading separator and are
//     joined to base (so "/uploads/a.mp3" can address base/uploads/a.mp3),
//     unless what remains is itself absolute, in which case it is returned
//     cleaned
//   - anything else is joined to base
func ResolveFrom(base, ref string) string {
	if IsURL(ref) {
		return ref
	}
	if filepath.IsAbs(ref) {
		if _, err := os.Stat(ref); err == nil {
			return ref
		}
		rest, ok := strings.CutPrefix(ref, string(filepath.Separator))
		if !ok || filepath.IsAbs(rest) {
			return filepath.Clean(rest)
		}
		return filepath.Join(base, rest)
	}
	return filepath.Join(base, ref)
}
