package imgio

import (
	"os"
	"strings"
)

// SplitList splits a semicolon or comma separated list of paths.
// Semicolons win when both separators appear, so comma-bearing
// filenames stay usable.
func SplitList(s string) []string {
	if s == "" {
		return nil
	}
	switch {
	case strings.Contains(s, ";"):
		return strings.Split(s, ";")
	case strings.Contains(s, ","):
		return strings.Split(s, ",")
	}
	return []string{s}
}

// ExistingFiles partitions paths into regular files and everything else
// (missing entries, directories). Empty strings are dropped silently.
func ExistingFiles(paths []string) (files, missing []string) {
	for _, p := range paths {
		if p == "" {
			continue
		}
		if info, err := os.Stat(p); err == nil && info.Mode().IsRegular() {
			files = append(files, p)
		} else {
			missing = append(missing, p)
		}
	}
	return files, missing
}
