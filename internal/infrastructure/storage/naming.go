package storage

import (
	"path/filepath"
	"regexp"
	"strings"
)

var (
	unsafeNameChars = regexp.MustCompile(`[^a-zA-Z0-9\-_]`)
	unsafeFileChars = regexp.MustCompile(`[^a-zA-Z0-9\-_.]`)
)

// SanitizeName returns a folder-safe version of name.
// Only letters, digits, hyphens and underscores survive.
func SanitizeName(name string) string {
	name = strings.ReplaceAll(name, "..", "")
	return unsafeNameChars.ReplaceAllString(name, "")
}

// SanitizeFilename keeps the base name and a single extension
func SanitizeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	ext := strings.ToLower(filepath.Ext(name))
	stem := SanitizeName(strings.TrimSuffix(name, filepath.Ext(name)))
	if stem == "" {
		return ""
	}
	return stem + unsafeFileChars.ReplaceAllString(ext, "")
}
