package blockchain

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ledgerlite/ledgerlite/chainerr"
	"github.com/ledgerlite/ledgerlite/config"
	"github.com/ledgerlite/ledgerlite/wallet"
)

func testConfig(t *testing.T) *config.Config {
	cfg := config.Default()
	cfg.DataDir = t.TempDir()
	return cfg
}

func TestCreateBlockchainThenContinue(t *testing.T) {
	cfg := testConfig(t)
	w, err := wallet.New()
	require.NoError(t, err)

	chain, err := CreateBlockchain(cfg, "node1", w.GetAddress())
	require.NoError(t, err)

	height, err := chain.GetBestHeight()
	require.NoError(t, err)
	require.Equal(t, int32(0), height)
	require.NoError(t, chain.Database.Close())

	reopened, err := ContinueBlockchain(cfg, "node1")
	require.NoError(t, err)
	defer reopened.Database.Close()

	require.Equal(t, chain.LastHash, reopened.LastHash)
}

func TestContinueBlockchainErrorsWithoutExistingChain(t *testing.T) {
	cfg := testConfig(t)
	_, err := ContinueBlockchain(cfg, "node1")
	require.Error(t, err)
	require.True(t, chainerr.Is(err, chainerr.KindNotFound))
}

func TestOpenOrEmptyToleratesMissingChain(t *testing.T) {
	cfg := testConfig(t)
	chain, err := OpenOrEmpty(cfg, "node1")
	require.NoError(t, err)
	defer chain.Database.Close()

	height, err := chain.GetBestHeight()
	require.NoError(t, err)
	require.Equal(t, int32(-1), height)
}

func TestMineBlockAdvancesTipAndUTXOSet(t *testing.T) {
	cfg := testConfig(t)
	sender, err := wallet.New()
	require.NoError(t, err)
	recipient, err := wallet.New()
	require.NoError(t, err)

	chain, err := CreateBlockchain(cfg, "node1", sender.GetAddress())
	require.NoError(t, err)
	defer chain.Database.Close()

	utxo := NewUTXOSet(cfg, "node1", chain)
	require.NoError(t, utxo.Reindex())

	tx, err := NewUTXOTransaction(sender, recipient.GetAddress(), 4, utxo)
	require.NoError(t, err)

	cbTx, err := NewCoinbaseTx(cfg, sender.GetAddress(), "")
	require.NoError(t, err)

	block, err := chain.MineBlock([]*Transaction{cbTx, tx})
	require.NoError(t, err)
	require.Equal(t, int32(1), block.Height)
	require.NoError(t, utxo.Update(block))

	height, err := chain.GetBestHeight()
	require.NoError(t, err)
	require.Equal(t, int32(1), height)

	recipientPKH := wallet.HashPubKey(recipient.PublicKey)
	outs, err := utxo.FindUTXO(recipientPKH)
	require.NoError(t, err)
	require.Len(t, outs, 1)
	require.Equal(t, int32(4), outs[0].Value)
}

func TestAddBlockIsIdempotent(t *testing.T) {
	cfg := testConfig(t)
	w, err := wallet.New()
	require.NoError(t, err)

	chain, err := CreateBlockchain(cfg, "node1", w.GetAddress())
	require.NoError(t, err)
	defer chain.Database.Close()

	cbTx, err := NewCoinbaseTx(cfg, w.GetAddress(), "")
	require.NoError(t, err)
	block, err := chain.MineBlock([]*Transaction{cbTx})
	require.NoError(t, err)

	// Re-adding a block already on the chain must be a no-op: it neither
	// errors nor advances the tip a second time.
	require.NoError(t, chain.AddBlock(block))

	height, err := chain.GetBestHeight()
	require.NoError(t, err)
	require.Equal(t, int32(1), height)
}
