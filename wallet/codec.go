package wallet

import (
	"bytes"
	"crypto/sha256"

	"github.com/ledgerlite/ledgerlite/chainerr"
	"github.com/mr-tron/base58"
	"golang.org/x/crypto/ripemd160"
)

const (
	checksumLength = 4
	addressVersion = byte(0x00)
)

// HashPubKey computes Hash160(pubKey) = RIPEMD160(SHA256(pubKey)), the
// 20-byte pub_key_hash every output locks to.
func HashPubKey(pubKey []byte) []byte {
	sha := sha256.Sum256(pubKey)
	hasher := ripemd160.New()
	hasher.Write(sha[:])
	return hasher.Sum(nil)
}

// Checksum returns the first 4 bytes of SHA256(SHA256(payload)).
func Checksum(payload []byte) []byte {
	first := sha256.Sum256(payload)
	second := sha256.Sum256(first[:])
	return second[:checksumLength]
}

// EncodeAddress base58-encodes a pub_key_hash with a leading version
// byte (the "hash-type tag" spec.md refers to; ignored by the chain,
// carried only so addresses round-trip) and a trailing checksum.
func EncodeAddress(pubKeyHash []byte) string {
	versioned := append([]byte{addressVersion}, pubKeyHash...)
	checksum := Checksum(versioned)
	full := append(versioned, checksum...)
	return base58.Encode(full)
}

// DecodeAddress recovers the pub_key_hash from an address string,
// validating its length and checksum.
func DecodeAddress(address string) ([]byte, error) {
	full, err := base58.Decode(address)
	if err != nil {
		return nil, chainerr.New(chainerr.KindBadUTF8, "wallet.DecodeAddress", err)
	}
	if len(full) != 1+20+checksumLength {
		return nil, chainerr.New(chainerr.KindBadUTF8, "wallet.DecodeAddress", nil)
	}

	pubKeyHash := full[1 : len(full)-checksumLength]
	actualChecksum := full[len(full)-checksumLength:]
	payload := full[:len(full)-checksumLength]

	if !bytes.Equal(actualChecksum, Checksum(payload)) {
		return nil, chainerr.New(chainerr.KindBadUTF8, "wallet.DecodeAddress", nil)
	}

	return pubKeyHash, nil
}

// ValidateAddress reports whether address decodes successfully.
func ValidateAddress(address string) bool {
	_, err := DecodeAddress(address)
	return err == nil
}
