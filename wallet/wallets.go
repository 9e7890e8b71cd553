package wallet

import (
	"bytes"
	"encoding/gob"

	"github.com/dgraph-io/badger/v4"
	"github.com/ledgerlite/ledgerlite/chainerr"
	"github.com/ledgerlite/ledgerlite/config"
)

// Wallets is an in-memory view over the on-disk `wallets` KV (key =
// address, value = gob-encoded Wallet), adapted from the teacher's
// flat-gob-file store (wallet/wallets.go's walletFile) onto the same
// Badger-backed KV pattern blockchain/blockchain.go and
// blockchain/utxo.go already use, so wallet persistence shares one
// storage idiom with the rest of the repo instead of a bespoke file
// format. Unlike the teacher's ecdsa.PrivateKey, an ed25519.PrivateKey
// is a plain []byte under the hood, so gob encodes/decodes Wallet
// natively — no custom GobEncode/GobDecode is needed.
type Wallets struct {
	cfg    *config.Config
	nodeID string
	items  map[string]*Wallet
}

// Load opens the wallets KV for nodeID and reads every entry into memory.
func Load(cfg *config.Config, nodeID string) (*Wallets, error) {
	ws := &Wallets{cfg: cfg, nodeID: nodeID, items: make(map[string]*Wallet)}

	db, err := openWalletsDB(cfg, nodeID)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	err = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			address := string(item.KeyCopy(nil))

			var w Wallet
			if err := item.Value(func(val []byte) error {
				return gob.NewDecoder(bytes.NewReader(val)).Decode(&w)
			}); err != nil {
				return err
			}
			ws.items[address] = &w
		}
		return nil
	})
	if err != nil {
		return nil, chainerr.New(chainerr.KindKV, "wallet.Load", err)
	}

	return ws, nil
}

// CreateWallet generates a new wallet, adds it to the in-memory set,
// and returns its address. Callers must still call SaveAll to persist.
func (ws *Wallets) CreateWallet() (string, error) {
	w, err := New()
	if err != nil {
		return "", err
	}
	address := w.GetAddress()
	ws.items[address] = w
	return address, nil
}

// GetWallet returns the wallet for address, if known.
func (ws *Wallets) GetWallet(address string) (*Wallet, bool) {
	w, ok := ws.items[address]
	return w, ok
}

// GetAllAddresses returns every known address.
func (ws *Wallets) GetAllAddresses() []string {
	addresses := make([]string, 0, len(ws.items))
	for address := range ws.items {
		addresses = append(addresses, address)
	}
	return addresses
}

// SaveAll flushes every wallet to the on-disk KV.
func (ws *Wallets) SaveAll() error {
	db, err := openWalletsDB(ws.cfg, ws.nodeID)
	if err != nil {
		return err
	}
	defer db.Close()

	err = db.Update(func(txn *badger.Txn) error {
		for address, w := range ws.items {
			var buf bytes.Buffer
			if err := gob.NewEncoder(&buf).Encode(w); err != nil {
				return err
			}
			if err := txn.Set([]byte(address), buf.Bytes()); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return chainerr.New(chainerr.KindKV, "Wallets.SaveAll", err)
	}
	return db.Sync()
}

func openWalletsDB(cfg *config.Config, nodeID string) (*badger.DB, error) {
	path := cfg.WalletsDir(nodeID)
	opts := badger.DefaultOptions(path).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, chainerr.New(chainerr.KindLock, "wallet.openWalletsDB", err)
	}
	return db, nil
}
