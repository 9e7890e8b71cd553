package blockchain

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/ledgerlite/ledgerlite/chainerr"
	"github.com/ledgerlite/ledgerlite/config"
	"github.com/ledgerlite/ledgerlite/wallet"
)

// Transaction is a UTXO transaction: an ordered set of inputs spending
// previous outputs and an ordered set of new outputs.
type Transaction struct {
	ID   string // SHA-256 hex of the serialised transaction with ID blanked
	Vin  []TXInput
	Vout []TXOutput
}

// TXInput references a previous output being spent.
type TXInput struct {
	TxID      string // hex id of the transaction holding the referenced output; empty for coinbase
	Vout      int32  // index into that transaction's outputs; -1 for coinbase
	Signature []byte // Ed25519 signature of the stripped image; empty for coinbase
	PubKey    []byte // the spender's raw public key
}

// TXOutput locks value to a recipient's pub_key_hash.
type TXOutput struct {
	Value      int32
	PubKeyHash []byte
}

// IsCoinbase reports whether tx is a coinbase (mining reward)
// transaction: exactly one input with an empty TxID and Vout == -1.
func (tx *Transaction) IsCoinbase() bool {
	return len(tx.Vin) == 1 && tx.Vin[0].TxID == "" && tx.Vin[0].Vout == -1
}

// Serialize gob-encodes tx for storage/hashing/network transmission.
func (tx Transaction) Serialize() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(tx); err != nil {
		return nil, chainerr.New(chainerr.KindCorrupt, "Transaction.Serialize", err)
	}
	return buf.Bytes(), nil
}

// DeserializeTransaction decodes a transaction previously written by Serialize.
func DeserializeTransaction(data []byte) (*Transaction, error) {
	var tx Transaction
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&tx); err != nil {
		return nil, chainerr.New(chainerr.KindCorrupt, "blockchain.DeserializeTransaction", err)
	}
	return &tx, nil
}

// Hash returns SHA-256 of tx serialised with ID blanked — the
// transaction's identity and the message that gets signed per input.
func (tx *Transaction) Hash() ([]byte, error) {
	txCopy := *tx
	txCopy.ID = ""

	data, err := txCopy.Serialize()
	if err != nil {
		return nil, err
	}
	hash := sha256.Sum256(data)
	return hash[:], nil
}

// SetID computes and stores tx.ID = hex(tx.Hash()).
func (tx *Transaction) SetID() error {
	hash, err := tx.Hash()
	if err != nil {
		return err
	}
	tx.ID = hex.EncodeToString(hash)
	return nil
}

// NewCoinbaseTx builds the reward transaction for a newly mined block.
// If memo is empty, it is filled with 32 random bytes plus
// "Reward to '<to>'".
func NewCoinbaseTx(cfg *config.Config, to, memo string) (*Transaction, error) {
	if memo == "" {
		random := make([]byte, 32)
		if _, err := rand.Read(random); err != nil {
			return nil, chainerr.New(chainerr.KindClock, "blockchain.NewCoinbaseTx", err)
		}
		memo = fmt.Sprintf("%x%s", random, fmt.Sprintf("Reward to '%s'", to))
	}

	txIn := TXInput{TxID: "", Vout: -1, Signature: nil, PubKey: []byte(memo)}
	txOut, err := NewTXOutput(cfg.Subsidy, to)
	if err != nil {
		return nil, err
	}

	tx := &Transaction{Vin: []TXInput{txIn}, Vout: []TXOutput{txOut}}
	if err := tx.SetID(); err != nil {
		return nil, err
	}
	return tx, nil
}

// NewUTXOTransaction builds, signs, and returns a transaction spending
// amount from w's spendable outputs to the to address.
func NewUTXOTransaction(w *wallet.Wallet, to string, amount int32, utxoSet *UTXOSet) (*Transaction, error) {
	pubKeyHash := wallet.HashPubKey(w.PublicKey)
	acc, validOutputs, err := utxoSet.FindSpendableOutputs(pubKeyHash, amount)
	if err != nil {
		return nil, err
	}
	if acc < amount {
		return nil, chainerr.New(chainerr.KindInsufficientFunds, "blockchain.NewUTXOTransaction", nil)
	}

	var inputs []TXInput
	for txID, outs := range validOutputs {
		for _, outIdx := range outs {
			inputs = append(inputs, TXInput{
				TxID:      txID,
				Vout:      outIdx,
				Signature: nil,
				PubKey:    w.PublicKey,
			})
		}
	}

	var outputs []TXOutput
	out, err := NewTXOutput(amount, to)
	if err != nil {
		return nil, err
	}
	outputs = append(outputs, out)

	if acc > amount {
		change, err := NewTXOutput(acc-amount, w.GetAddress())
		if err != nil {
			return nil, err
		}
		outputs = append(outputs, change)
	}

	tx := &Transaction{Vin: inputs, Vout: outputs}
	if err := tx.SetID(); err != nil {
		return nil, err
	}

	if err := utxoSet.Blockchain.SignTransaction(tx, w.SecretKey); err != nil {
		return nil, err
	}

	return tx, nil
}

// TrimmedCopy returns a copy of tx with every input's Signature and
// PubKey cleared, the basis for both signing and verification.
func (tx *Transaction) TrimmedCopy() Transaction {
	inputs := make([]TXInput, len(tx.Vin))
	for i, in := range tx.Vin {
		inputs[i] = TXInput{TxID: in.TxID, Vout: in.Vout, Signature: nil, PubKey: nil}
	}

	outputs := make([]TXOutput, len(tx.Vout))
	copy(outputs, tx.Vout)

	return Transaction{ID: tx.ID, Vin: inputs, Vout: outputs}
}

// Sign signs every non-coinbase input of tx with privKey. prevTXs maps
// each referenced input's TxID to the transaction that produced the
// output it spends.
//
// For each input, the stripped copy's matching PubKey field is set to
// the referenced output's PubKeyHash, the copy is rehashed to produce
// a per-input digest, Ed25519 signs that digest, and PubKey is cleared
// again before the next input — so every input signs a distinct
// message even though they share one transaction.
func (tx *Transaction) Sign(privKey ed25519.PrivateKey, prevTXs map[string]Transaction) error {
	if tx.IsCoinbase() {
		return nil
	}

	for _, in := range tx.Vin {
		if prevTXs[in.TxID].ID == "" {
			return chainerr.New(chainerr.KindMissingPrev, "Transaction.Sign", nil)
		}
	}

	txCopy := tx.TrimmedCopy()

	for inID, in := range txCopy.Vin {
		prevTX := prevTXs[in.TxID]
		txCopy.Vin[inID].Signature = nil
		txCopy.Vin[inID].PubKey = prevTX.Vout[in.Vout].PubKeyHash

		digest, err := txCopy.Hash()
		if err != nil {
			return err
		}
		txCopy.Vin[inID].PubKey = nil

		tx.Vin[inID].Signature = ed25519.Sign(privKey, digest)
	}

	return nil
}

// Verify validates every non-coinbase input's signature against the
// stripped-copy digest, reconstructed the same way Sign built it.
func (tx *Transaction) Verify(prevTXs map[string]Transaction) (bool, error) {
	if tx.IsCoinbase() {
		return true, nil
	}

	for _, in := range tx.Vin {
		if prevTXs[in.TxID].ID == "" {
			return false, chainerr.New(chainerr.KindMissingPrev, "Transaction.Verify", nil)
		}
	}

	txCopy := tx.TrimmedCopy()

	for inID, in := range tx.Vin {
		prevTX := prevTXs[in.TxID]
		txCopy.Vin[inID].Signature = nil
		txCopy.Vin[inID].PubKey = prevTX.Vout[in.Vout].PubKeyHash

		digest, err := txCopy.Hash()
		if err != nil {
			return false, err
		}
		txCopy.Vin[inID].PubKey = nil

		if !ed25519.Verify(in.PubKey, digest, in.Signature) {
			return false, nil
		}
	}

	return true, nil
}

// String returns a human-readable rendering of tx, for print/debug CLI output.
func (tx Transaction) String() string {
	var lines []string
	lines = append(lines, fmt.Sprintf("--- Transaction %s:", tx.ID))
	for i, in := range tx.Vin {
		lines = append(lines, fmt.Sprintf("     Input %d:", i))
		lines = append(lines, fmt.Sprintf("       TxID:      %s", in.TxID))
		lines = append(lines, fmt.Sprintf("       Vout:      %d", in.Vout))
		lines = append(lines, fmt.Sprintf("       Signature: %x", in.Signature))
		lines = append(lines, fmt.Sprintf("       PubKey:    %x", in.PubKey))
	}
	for i, out := range tx.Vout {
		lines = append(lines, fmt.Sprintf("     Output %d:", i))
		lines = append(lines, fmt.Sprintf("       Value:      %d", out.Value))
		lines = append(lines, fmt.Sprintf("       PubKeyHash: %x", out.PubKeyHash))
	}
	return strings.Join(lines, "\n")
}
