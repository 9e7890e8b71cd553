package wallet

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewGeneratesValidAddress(t *testing.T) {
	w, err := New()
	require.NoError(t, err)

	address := w.GetAddress()
	require.True(t, ValidateAddress(address))
}

func TestNewProducesDistinctKeys(t *testing.T) {
	a, err := New()
	require.NoError(t, err)
	b, err := New()
	require.NoError(t, err)

	require.NotEqual(t, a.GetAddress(), b.GetAddress())
}

func TestMnemonicIsTwelveWords(t *testing.T) {
	w, err := New()
	require.NoError(t, err)

	phrase, err := w.Mnemonic()
	require.NoError(t, err)
	require.Len(t, strings.Fields(phrase), 12)
}
