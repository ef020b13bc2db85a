// Package checksum computes content digests used for change detection and
// optimistic concurrency.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// ETag wraps a digest in double quotes for use in ETag/If-Match headers.
func ETag(sum string) string {
	return `"` + sum + `"`
}

// TrimETag strips surrounding quotes and a weak-validator prefix from an
// If-Match header value, returning the bare digest.
func TrimETag(etag string) string {
	etag = strings.TrimPrefix(etag, "W/")
	return strings.Trim(etag, `"`)
}
