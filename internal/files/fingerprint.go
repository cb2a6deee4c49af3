package files

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/desertthunder/ibup/internal/shared"
)

// ChunkSize is the read size used when hashing file contents.
const ChunkSize = 8192

// Fingerprint returns the lowercase hex MD5 of the file at path, read in [ChunkSize] chunks.
//
// The digest matches the one the server keeps for the same bytes.
func Fingerprint(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("%w: %w", shared.ErrFileRead, err)
	}
	defer f.Close()

	return digest(f)
}

func digest(r io.Reader) (string, error) {
	hash := md5.New()
	buf := make([]byte, ChunkSize)
	if _, err := io.CopyBuffer(hash, struct{ io.Reader }{r}, buf); err != nil {
		return "", fmt.Errorf("%w: %w", shared.ErrFileRead, err)
	}
	return hex.EncodeToString(hash.Sum(nil)), nil
}
