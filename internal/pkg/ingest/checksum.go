package ingest

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
)

// FileChecksum returns the hex SHA-256 of the full file content, streamed so
// large accounting logs never reside in memory. The checksum is the identity
// half of the (filename, checksum) ledger key; modification times are not
// consulted, they are unreliable on shared filesystems.
func FileChecksum(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
