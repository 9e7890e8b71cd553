package blockchain

import (
	"bytes"
	"encoding/gob"

	"github.com/ledgerlite/ledgerlite/chainerr"
	"github.com/ledgerlite/ledgerlite/wallet"
)

// TXOutputs is the on-disk value stored for each key in the UTXO
// index: every currently-unspent output belonging to one transaction.
// The teacher's blockchain/utxo.go referenced this type, NewTXOutput,
// IsLockedWithKey, and DeserializeOutputs without ever defining them;
// this file supplies them, grounded on original_source/src/utxoset.rs
// and src/transaction.rs's TXOutputs/TXOutput::new/is_locked_with_key.
type TXOutputs struct {
	Outputs []TXOutput
}

// NewTXOutput builds an output paying amount to address, locking it to
// that address's pub_key_hash.
func NewTXOutput(value int32, address string) (TXOutput, error) {
	pubKeyHash, err := wallet.DecodeAddress(address)
	if err != nil {
		return TXOutput{}, err
	}
	return TXOutput{Value: value, PubKeyHash: pubKeyHash}, nil
}

// IsLockedWithKey reports whether out is spendable by the holder of
// pubKeyHash.
func (out TXOutput) IsLockedWithKey(pubKeyHash []byte) bool {
	return bytes.Equal(out.PubKeyHash, pubKeyHash)
}

// Serialize gob-encodes outs for storage in the utxos KV.
func (outs TXOutputs) Serialize() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(outs); err != nil {
		return nil, chainerr.New(chainerr.KindCorrupt, "TXOutputs.Serialize", err)
	}
	return buf.Bytes(), nil
}

// DeserializeOutputs decodes a TXOutputs previously written by Serialize.
func DeserializeOutputs(data []byte) (TXOutputs, error) {
	var outs TXOutputs
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&outs); err != nil {
		return TXOutputs{}, chainerr.New(chainerr.KindCorrupt, "blockchain.DeserializeOutputs", err)
	}
	return outs, nil
}
