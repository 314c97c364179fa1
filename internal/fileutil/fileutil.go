package fileutil

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// HashFile returns the hex SHA256 digest and size of the file at path.
func HashFile(path string) (string, int64, error) {
	in, err := os.Open(path)
	if err != nil {
		return "", 0, err
	}
	defer in.Close()

	hasher := sha256.New()
	n, err := io.Copy(hasher, in)
	if err != nil {
		return "", 0, fmt.Errorf("hash %s: %w", path, err)
	}
	return hex.EncodeToString(hasher.Sum(nil)), n, nil
}

// WriteHashed streams r into a new file at dst and returns the SHA256 digest
// of what was written. At most limit bytes are accepted when limit > 0; a
// longer stream removes dst and fails.
func WriteHashed(dst string, r io.Reader, limit int64) (string, int64, error) {
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
	if err != nil {
		return "", 0, err
	}
	defer func() {
		_ = out.Close()
	}()

	src := r
	if limit > 0 {
		src = io.LimitReader(r, limit+1)
	}
	hasher := sha256.New()
	written, err := io.Copy(io.MultiWriter(out, hasher), src)
	if err != nil {
		_ = os.Remove(dst)
		return "", 0, err
	}
	if limit > 0 && written > limit {
		_ = os.Remove(dst)
		return "", 0, fmt.Errorf("write %s: exceeds %d bytes", dst, limit)
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(dst)
		return "", 0, err
	}
	return hex.EncodeToString(hasher.Sum(nil)), written, nil
}
