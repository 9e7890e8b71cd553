package blockchain

import (
	"bytes"
	"encoding/gob"
	"time"

	"github.com/ledgerlite/ledgerlite/chainerr"
)

// Block is one entry in the append-only chain. Hash and Nonce are set
// once, by mining; a Block is immutable after NewBlock/NewGenesisBlock
// returns it.
type Block struct {
	Timestamp     int64 // milliseconds since epoch
	Transactions  []*Transaction
	PrevBlockHash string // hex, empty only for genesis
	Hash          string // hex, set after mining
	Height        int32
	Nonce         int32
}

// NewBlock mines a block over txs on top of prevHash at the given
// height, stamping the current time and iterating the proof-of-work
// predicate until it holds.
func NewBlock(txs []*Transaction, prevHash string, height int32) (*Block, error) {
	b := &Block{
		Timestamp:     time.Now().UnixMilli(),
		Transactions:  txs,
		PrevBlockHash: prevHash,
		Height:        height,
	}

	pow := NewProofOfWork(b)
	nonce, hash, err := pow.Run()
	if err != nil {
		return nil, chainerr.New(chainerr.KindClock, "blockchain.NewBlock", err)
	}
	b.Nonce = nonce
	b.Hash = hash

	return b, nil
}

// NewGenesisBlock mines the height-0 block carrying only coinbase, with
// an empty PrevBlockHash.
func NewGenesisBlock(coinbase *Transaction) (*Block, error) {
	return NewBlock([]*Transaction{coinbase}, "", 0)
}

// HashTransactions returns the Merkle root over this block's
// transaction ids.
func (b *Block) HashTransactions() ([]byte, error) {
	var idHashes [][]byte
	for _, tx := range b.Transactions {
		idBytes, err := hexDecode(tx.ID)
		if err != nil {
			return nil, chainerr.New(chainerr.KindCorrupt, "blockchain.HashTransactions", err)
		}
		idHashes = append(idHashes, idBytes)
	}
	tree := NewMerkleTree(idHashes)
	return tree.RootNode.Data, nil
}

// Serialize gob-encodes the block for storage in the blocks KV.
func (b *Block) Serialize() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(b); err != nil {
		return nil, chainerr.New(chainerr.KindCorrupt, "Block.Serialize", err)
	}
	return buf.Bytes(), nil
}

// DeserializeBlock decodes a block previously written by Serialize.
func DeserializeBlock(data []byte) (*Block, error) {
	var b Block
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&b); err != nil {
		return nil, chainerr.New(chainerr.KindCorrupt, "blockchain.DeserializeBlock", err)
	}
	return &b, nil
}
