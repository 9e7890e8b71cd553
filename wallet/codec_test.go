package wallet

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeAddressRoundTrips(t *testing.T) {
	w, err := New()
	require.NoError(t, err)

	pkh := HashPubKey(w.PublicKey)
	address := EncodeAddress(pkh)

	decoded, err := DecodeAddress(address)
	require.NoError(t, err)
	require.Equal(t, pkh, decoded)
}

func TestDecodeAddressRejectsCorruptedChecksum(t *testing.T) {
	w, err := New()
	require.NoError(t, err)
	address := w.GetAddress()

	corrupted := []byte(address)
	corrupted[len(corrupted)-1]++

	require.False(t, ValidateAddress(string(corrupted)))
}

func TestDecodeAddressRejectsGarbage(t *testing.T) {
	_, err := DecodeAddress("not-a-valid-address")
	require.Error(t, err)
}
