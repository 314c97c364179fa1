package api

import "path/filepath"

func baseName(path string) string {
	if path == "" {
		return ""
	}
	return filepath.Base(path)
}
