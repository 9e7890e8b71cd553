package blockchain

import "encoding/hex"

// hexDecode wraps hex.DecodeString with the package's error convention
// for the many call sites that turn a stored hex id/hash back into raw
// bytes before hashing or comparing it.
func hexDecode(s string) ([]byte, error) {
	return hex.DecodeString(s)
}
