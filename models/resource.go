package models

import "strings"

// ShortName returns the bare secret name from a full resource path, e.g.
// "projects/p/secrets/my-secret/versions/1" -> "my-secret". Paths that do not
// contain a secrets segment followed by a name are returned unchanged.
func ShortName(path string) string {
	parts := strings.Split(path, "/")
	for i, p := range parts {
		if p == "secrets" {
			if i+1 < len(parts) {
				return parts[i+1]
			}
			break
		}
	}
	return path
}

// StripVersion truncates a resource path right before its versions segment,
// yielding the path of the parent secret. Paths without a versions segment
// are returned unchanged.
func StripVersion(path string) string {
	parts := strings.Split(path, "/")
	for i, p := range parts {
		if p == "versions" {
			return strings.Join(parts[:i], "/")
		}
	}
	return path
}
