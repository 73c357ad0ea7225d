package storage

import (
	"net/url"
	"path"
	"strings"
)

// ObjectID derives the remote identifier of a stored media URL: the last
// path segment with its extension removed, prefixed by folder.
//
//	https://cdn.example/x/blogs/abc123.jpg, "blogs" -> "blogs/abc123"
//
// Upload names objects so that this derivation yields their exact key.
func ObjectID(mediaURL, folder string) string {
	raw := strings.TrimSpace(mediaURL)
	if raw == "" {
		return ""
	}
	if u, err := url.Parse(raw); err == nil && u.Path != "" {
		raw = u.Path
	}

	name := path.Base(strings.TrimRight(raw, "/"))
	if name == "." || name == "/" || name == "" {
		return ""
	}
	if ext := path.Ext(name); ext != "" && ext != name {
		name = strings.TrimSuffix(name, ext)
	}

	folder = strings.Trim(folder, "/")
	if folder == "" {
		return name
	}
	return folder + "/" + name
}
