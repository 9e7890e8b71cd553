package blockchain

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ledgerlite/ledgerlite/config"
	"github.com/ledgerlite/ledgerlite/wallet"
)

func testCoinbase(t *testing.T, cfg *config.Config) *Transaction {
	t.Helper()
	w, err := wallet.New()
	require.NoError(t, err)
	tx, err := NewCoinbaseTx(cfg, w.GetAddress(), "test")
	require.NoError(t, err)
	return tx
}

func TestProofOfWorkMinesAHoldingHash(t *testing.T) {
	cfg := config.Default()
	tx := testCoinbase(t, cfg)

	block, err := NewGenesisBlock(tx)
	require.NoError(t, err)

	pow := NewProofOfWork(block)
	ok, err := pow.Validate()
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, holds(block.Hash))
}

func TestProofOfWorkRejectsTamperedNonce(t *testing.T) {
	cfg := config.Default()
	tx := testCoinbase(t, cfg)

	block, err := NewGenesisBlock(tx)
	require.NoError(t, err)

	block.Nonce++
	pow := NewProofOfWork(block)
	ok, err := pow.Validate()
	require.NoError(t, err)
	require.False(t, ok)
}
