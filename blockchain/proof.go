package blockchain

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"strings"

	"github.com/ledgerlite/ledgerlite/chainerr"
)

// TargetHexs is the number of leading hex characters a block hash must
// have for the proof-of-work predicate to hold. Mirrors
// config.Config.TargetHexs; kept as a package constant here because
// the predicate's serialisation format is part of the image every
// node must reproduce bit-for-bit, not a per-instance setting.
const TargetHexs = 4

// ProofOfWork mines or validates a single block's nonce.
//
// The predicate is the canonical "hex prefix is N zero characters"
// form rather than the reference implementation's comparison against
// a string of TargetHexs NUL bytes — see DESIGN.md, Open Question 1.
type ProofOfWork struct {
	Block *Block
}

// NewProofOfWork wraps a block for mining or validation.
func NewProofOfWork(b *Block) *ProofOfWork {
	return &ProofOfWork{Block: b}
}

// prepareData builds the deterministic image hashed by the
// proof-of-work predicate: (prev_block_hash, merkle_root, timestamp,
// TargetHexs, nonce).
func (pow *ProofOfWork) prepareData(nonce int32) ([]byte, error) {
	root, err := pow.Block.HashTransactions()
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.WriteString(pow.Block.PrevBlockHash)
	buf.Write(root)
	if err := binary.Write(&buf, binary.BigEndian, pow.Block.Timestamp); err != nil {
		return nil, chainerr.New(chainerr.KindCorrupt, "ProofOfWork.prepareData", err)
	}
	if err := binary.Write(&buf, binary.BigEndian, int32(TargetHexs)); err != nil {
		return nil, chainerr.New(chainerr.KindCorrupt, "ProofOfWork.prepareData", err)
	}
	if err := binary.Write(&buf, binary.BigEndian, nonce); err != nil {
		return nil, chainerr.New(chainerr.KindCorrupt, "ProofOfWork.prepareData", err)
	}

	return buf.Bytes(), nil
}

func holds(hexHash string) bool {
	return strings.HasPrefix(hexHash, strings.Repeat("0", TargetHexs))
}

// Run iterates nonce from 0 until the predicate holds, returning the
// winning nonce and the resulting hex hash.
func (pow *ProofOfWork) Run() (int32, string, error) {
	var nonce int32

	for {
		data, err := pow.prepareData(nonce)
		if err != nil {
			return 0, "", err
		}
		hash := sha256.Sum256(data)
		hexHash := hex.EncodeToString(hash[:])

		if holds(hexHash) {
			return nonce, hexHash, nil
		}
		nonce++
	}
}

// Validate recomputes the image from the block's stored nonce and
// checks both that the predicate holds and that it matches the
// block's recorded Hash.
func (pow *ProofOfWork) Validate() (bool, error) {
	data, err := pow.prepareData(pow.Block.Nonce)
	if err != nil {
		return false, err
	}
	hash := sha256.Sum256(data)
	hexHash := hex.EncodeToString(hash[:])

	return holds(hexHash) && hexHash == pow.Block.Hash, nil
}
