//go:build windows

package walker

import (
	"strings"

	"golang.org/x/sys/windows"
)

// normalizePath strips the \\?\ and \\?\UNC\ extended-length prefixes
// Windows sometimes attaches to paths returned from filepath.Walk, so
// that two logically equal paths compare equal regardless of which form
// produced them.
func normalizePath(path string) string {
	const uncPrefix = `\\?\UNC\`
	const extPrefix = `\\?\`
	switch {
	case strings.HasPrefix(path, uncPrefix):
		return `\\` + path[len(uncPrefix):]
	case strings.HasPrefix(path, extPrefix):
		return path[len(extPrefix):]
	default:
		return path
	}
}

// platformHidden reports whether path carries the Windows
// FILE_ATTRIBUTE_HIDDEN bit, which on this platform is an authoritative
// signal in addition to the leading-dot convention borrowed from Unix.
func platformHidden(path string) bool {
	p, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return false
	}
	attrs, err := windows.GetFileAttributes(p)
	if err != nil {
		return false
	}
	return attrs&windows.FILE_ATTRIBUTE_HIDDEN != 0
}
