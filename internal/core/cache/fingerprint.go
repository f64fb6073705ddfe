package cache

import (
	"encoding/hex"
	"strconv"
	"time"

	"golang.org/x/crypto/blake2b"
)

// Fingerprint identifies a document version by (absolute path, mtime).
// Content changes that keep the same mtime are not detected.
func Fingerprint(absPath string, modTime time.Time) string {
	buf := make([]byte, 0, len(absPath)+21)
	buf = append(buf, absPath...)
	buf = append(buf, 0)
	buf = strconv.AppendInt(buf, modTime.UnixNano(), 10)

	sum := blake2b.Sum256(buf)
	return hex.EncodeToString(sum[:])
}

// ValidFingerprint reports whether fp looks like a Fingerprint output.
// Stores use it to refuse keys that could escape their namespace.
func ValidFingerprint(fp string) bool {
	if len(fp) != blake2b.Size256*2 {
		return false
	}
	_, err := hex.DecodeString(fp)
	return err == nil
}
