package blockchain

import (
	"encoding/hex"

	"github.com/dgraph-io/badger/v4"
	"github.com/ledgerlite/ledgerlite/chainerr"
)

// Iterator walks a chain from tip to genesis without materialising the
// whole history in memory, per spec.md §9's "restartable, finite, lazy
// sequence" requirement. It borrows the chain's KV handle rather than
// owning a copy of it.
type Iterator struct {
	currentHash string
	db          *badger.DB
}

// Iterator returns a fresh iterator starting at the chain's current tip.
func (bc *Blockchain) Iterator() *Iterator {
	return &Iterator{currentHash: bc.LastHash, db: bc.Database}
}

// Next returns the current block and advances the iterator to its
// predecessor. Next returns (nil, nil) once the genesis block (whose
// PrevBlockHash is empty) has already been returned.
func (it *Iterator) Next() (*Block, error) {
	if it.currentHash == "" {
		return nil, nil
	}

	hashBytes, err := hex.DecodeString(it.currentHash)
	if err != nil {
		return nil, chainerr.New(chainerr.KindCorrupt, "Iterator.Next", err)
	}

	var block *Block
	err = it.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(hashBytes)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			block, err = DeserializeBlock(val)
			return err
		})
	})
	if err != nil {
		return nil, chainerr.New(chainerr.KindKV, "Iterator.Next", err)
	}

	it.currentHash = block.PrevBlockHash
	return block, nil
}
