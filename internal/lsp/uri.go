package lsp

import (
	"net/url"
	"path/filepath"
	"runtime"
	"strings"
)

// ToURI converts a local file path to a file: URI.
func ToURI(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}

	// Windows: C:\Users -> /C:/Users
	if runtime.GOOS == "windows" {
		abs = "/" + strings.ReplaceAll(abs, "\\", "/")
	}

	u := url.URL{Scheme: "file", Path: abs}
	return u.String()
}

// FromURI converts a file: URI back to a local path. Unparseable input is
// returned as-is.
func FromURI(uriStr string) string {
	u, err := url.Parse(uriStr)
	if err != nil {
		return uriStr
	}

	path := u.Path
	if runtime.GOOS == "windows" && strings.HasPrefix(path, "/") {
		path = strings.TrimPrefix(path, "/")
	}
	return filepath.FromSlash(path)
}

// NormalizePath resolves a path for comparison, folding case on the
// case-insensitive filesystems of Windows and macOS.
func NormalizePath(path string) string {
	abs, _ := filepath.Abs(path)
	if runtime.GOOS == "windows" || runtime.GOOS == "darwin" {
		return strings.ToLower(abs)
	}
	return abs
}

// ResolveURI joins a root URI and a root-relative path the way the server
// will report the result back: plain concatenation with a single separating
// slash, so prefix checks against the root stay exact.
func ResolveURI(root, rel string) string {
	rel = strings.TrimPrefix(rel, "/")
	if strings.HasSuffix(root, "/") {
		return root + rel
	}
	return root + "/" + rel
}
