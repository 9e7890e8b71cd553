package blockchain

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ledgerlite/ledgerlite/config"
	"github.com/ledgerlite/ledgerlite/wallet"
)

func TestCoinbaseTxIsCoinbase(t *testing.T) {
	cfg := config.Default()
	w, err := wallet.New()
	require.NoError(t, err)

	tx, err := NewCoinbaseTx(cfg, w.GetAddress(), "")
	require.NoError(t, err)
	require.True(t, tx.IsCoinbase())

	ok, err := tx.Verify(nil)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestSignThenVerifySucceeds(t *testing.T) {
	cfg := config.Default()
	sender, err := wallet.New()
	require.NoError(t, err)
	recipient, err := wallet.New()
	require.NoError(t, err)

	prevOut, err := NewTXOutput(cfg.Subsidy, sender.GetAddress())
	require.NoError(t, err)
	prevTx := &Transaction{Vin: []TXInput{{TxID: "", Vout: -1}}, Vout: []TXOutput{prevOut}}
	require.NoError(t, prevTx.SetID())

	spendOut, err := NewTXOutput(cfg.Subsidy, recipient.GetAddress())
	require.NoError(t, err)
	tx := &Transaction{
		Vin:  []TXInput{{TxID: prevTx.ID, Vout: 0, PubKey: sender.PublicKey}},
		Vout: []TXOutput{spendOut},
	}
	require.NoError(t, tx.SetID())

	prevTXs := map[string]Transaction{prevTx.ID: *prevTx}
	require.NoError(t, tx.Sign(sender.SecretKey, prevTXs))

	ok, err := tx.Verify(prevTXs)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestVerifyFailsOnTamperedSignature(t *testing.T) {
	cfg := config.Default()
	sender, err := wallet.New()
	require.NoError(t, err)
	recipient, err := wallet.New()
	require.NoError(t, err)

	prevOut, err := NewTXOutput(cfg.Subsidy, sender.GetAddress())
	require.NoError(t, err)
	prevTx := &Transaction{Vin: []TXInput{{TxID: "", Vout: -1}}, Vout: []TXOutput{prevOut}}
	require.NoError(t, prevTx.SetID())

	spendOut, err := NewTXOutput(cfg.Subsidy, recipient.GetAddress())
	require.NoError(t, err)
	tx := &Transaction{
		Vin:  []TXInput{{TxID: prevTx.ID, Vout: 0, PubKey: sender.PublicKey}},
		Vout: []TXOutput{spendOut},
	}
	require.NoError(t, tx.SetID())

	prevTXs := map[string]Transaction{prevTx.ID: *prevTx}
	require.NoError(t, tx.Sign(sender.SecretKey, prevTXs))

	tx.Vin[0].Signature[0] ^= 0xFF

	ok, err := tx.Verify(prevTXs)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestSignFailsOnMissingPrevTx(t *testing.T) {
	sender, err := wallet.New()
	require.NoError(t, err)

	tx := &Transaction{Vin: []TXInput{{TxID: "deadbeef", Vout: 0, PubKey: sender.PublicKey}}}
	require.NoError(t, tx.SetID())

	err = tx.Sign(sender.SecretKey, map[string]Transaction{})
	require.Error(t, err)
}
