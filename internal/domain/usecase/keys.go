package usecase

import (
	"crypto/sha1"
	"encoding/hex"
	"strings"
)

// cacheKey derives a stable cache key from a query name and its
// parameters. The readable name prefix survives for debugging; the
// sha1 keeps keys short and safe whatever the parameters contain.
func cacheKey(name string, params ...string) string {
	h := sha1.Sum([]byte(name + "|" + strings.Join(params, "|")))
	return name + ":" + hex.EncodeToString(h[:])
}
