// Package checksum provides the content hashes used for cache validation,
// archive de-duplication and privacy-preserving log fields.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// Bytes returns the 16-character hex xxhash64 of data.
func Bytes(data []byte) string {
	return pad16(strconv.FormatUint(xxhash.Sum64(data), 16))
}

// JSON returns the checksum of v's JSON encoding together with the
// encoding itself, so callers that also need the bytes encode only once.
func JSON(v any) (string, []byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", nil, err
	}
	return Bytes(data), data, nil
}

// SHA256Hex returns the hex-encoded SHA256 hash of the input string.
func SHA256Hex(input string) string {
	h := sha256.Sum256([]byte(input))
	return hex.EncodeToString(h[:])
}

// ShortSHA256 returns the first n hex characters of SHA256(input). Used to
// correlate client IPs in logs without storing them.
func ShortSHA256(input string, n int) string {
	full := SHA256Hex(input)
	if n <= 0 || n > len(full) {
		return full
	}
	return full[:n]
}

func pad16(s string) string {
	for len(s) < 16 {
		s = "0" + s
	}
	return s
}
