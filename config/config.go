// Package config centralizes the process-wide constants spec.md §9 calls
// a "single configuration record": proof-of-work difficulty, the block
// subsidy, the wire protocol version, command framing length, the
// hard-coded seed peer, and the on-disk layout under a node's data
// directory.
package config

import "path/filepath"

// Config is the configuration record the packages read Subsidy,
// Version, KnownNode1 and the data directory layout from. TargetHexs
// and CmdLen are mirrored by the package constants blockchain.TargetHexs
// and network's commandLength, which the proof-of-work and framing code
// use; the address checksum length is a wallet package constant.
// Tests build their own Config rooted at t.TempDir() so chain state
// never leaks between cases.
type Config struct {
	// TargetHexs is the number of leading hex characters (ASCII '0')
	// a block hash's hex encoding must have for the proof-of-work
	// predicate to hold. The predicate itself reads the constant
	// blockchain.TargetHexs, which holds the same value.
	TargetHexs int
	// Subsidy is the coinbase reward, in the same units as TXOutput.Value.
	Subsidy int32
	// Version is the P2P wire protocol version exchanged in the
	// version handshake.
	Version int32
	// CmdLen is the fixed width, in bytes, of the command tag that
	// prefixes every message on the wire. The framing code reads the
	// network package's commandLength constant, which holds the same value.
	CmdLen int
	// KnownNode1 is the hard-coded seed peer every node starts out
	// knowing about.
	KnownNode1 string
	// DataDir is the root directory under which every node's
	// blocks/utxos/wallets Badger stores live, keyed by node ID.
	DataDir string
}

// Default returns the constants named in spec.md §6: TargetHexs=4,
// CmdLen=12, Version=1, Subsidy=10, with the seed corrected to
// "localhost:3000" (see DESIGN.md, Open Question 3).
func Default() *Config {
	return &Config{
		TargetHexs: 4,
		Subsidy:    10,
		Version:    1,
		CmdLen:     12,
		KnownNode1: "localhost:3000",
		DataDir:    "data",
	}
}

// BlocksDir returns the chain KV directory for a given node ID.
func (c *Config) BlocksDir(nodeID string) string {
	return filepath.Join(c.DataDir, nodeID, "blocks")
}

// UTXODir returns the UTXO index KV directory for a given node ID.
func (c *Config) UTXODir(nodeID string) string {
	return filepath.Join(c.DataDir, nodeID, "utxos")
}

// WalletsDir returns the wallet KV directory for a given node ID.
func (c *Config) WalletsDir(nodeID string) string {
	return filepath.Join(c.DataDir, nodeID, "wallets")
}
