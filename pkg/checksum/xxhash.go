package checksum

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// GetFileChecksum hashes the full file content. Used to detect files that
// were already ingested before any parsing work is done.
func GetFileChecksum(filePath string) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to open file %s: %w", filePath, err)
	}
	defer file.Close()

	hasher := xxhash.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return "", fmt.Errorf("failed to hash file %s: %w", filePath, err)
	}

	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// CalculateHash produces a per-row digest used as the idempotency key when
// loading measurement batches.
func CalculateHash(fields []string) string {
	digest := xxhash.New()
	digest.Write([]byte(strings.Join(fields, ";")))

	return hex.EncodeToString(digest.Sum(nil))
}
