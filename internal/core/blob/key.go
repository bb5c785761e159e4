// Package blob implements the storage backends behind the Upload Gateway.
package blob

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

const maxNameLength = 100

// FilesPath is the route prefix that serves stored blobs.
const FilesPath = "/files/"

// NewKey builds a storage key from a millisecond timestamp, a random UUID and the
// sanitized original file name. The UUID makes keys unique even for identical
// names uploaded in the same millisecond.
func NewKey(now time.Time, originalName string) string {
	return fmt.Sprintf("%d-%s-%s", now.UnixMilli(), uuid.NewString(), SanitizeName(originalName))
}

// PublicURL joins the public base URL and the file route for key.
// An empty base yields a path relative to the serving host.
func PublicURL(base, key string) string {
	return strings.TrimSuffix(base, "/") + FilesPath + key
}

// SanitizeName reduces a client-supplied file name to a single safe path segment.
func SanitizeName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	var b strings.Builder
	for _, r := range name {
		if safeRune(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune('-')
		}
	}
	clean := b.String()
	for strings.Contains(clean, "..") {
		clean = strings.ReplaceAll(clean, "..", ".")
	}
	if len(clean) > maxNameLength {
		clean = clean[len(clean)-maxNameLength:]
	}
	clean = strings.Trim(clean, ".-")
	if clean == "" {
		return "file"
	}
	return clean
}

// ValidKey reports whether key is a single safe segment: the alphabet SanitizeName
// emits, no leading dot, no "..".
func ValidKey(key string) bool {
	if key == "" || len(key) > 255 || key[0] == '.' || strings.Contains(key, "..") {
		return false
	}
	for _, r := range key {
		if !safeRune(r) {
			return false
		}
	}
	return true
}

func safeRune(r rune) bool {
	return r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '.' || r == '-' || r == '_'
}
