package wallet

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"

	"github.com/ledgerlite/ledgerlite/chainerr"
	"github.com/ledgerlite/ledgerlite/logging"
	"github.com/tyler-smith/go-bip39"
)

var log = logging.For("wallet")

// Wallet is an Ed25519 key pair; its address is
// base58(version ‖ hash_pub_key(public_key) ‖ checksum).
type Wallet struct {
	SecretKey ed25519.PrivateKey
	PublicKey ed25519.PublicKey
}

// New generates a fresh key pair.
func New() (*Wallet, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, chainerr.New(chainerr.KindClock, "wallet.New", err)
	}
	return &Wallet{SecretKey: priv, PublicKey: pub}, nil
}

// GetAddress returns the wallet's base58 address.
func (w *Wallet) GetAddress() string {
	pkh := HashPubKey(w.PublicKey)
	return EncodeAddress(pkh)
}

// Mnemonic derives a BIP-39 mnemonic from the wallet's seed material,
// purely as a human-friendly backup display — recovering the exact
// same Ed25519 keypair from this mnemonic is out of scope; it is a
// display convenience, not an alternate key-derivation path.
func (w *Wallet) Mnemonic() (string, error) {
	seed := w.SecretKey.Seed()
	entropy := sha256.Sum256(seed)
	mnemonic, err := bip39.NewMnemonic(entropy[:16])
	if err != nil {
		log.WithError(err).Error("failed to derive mnemonic")
		return "", chainerr.New(chainerr.KindCorrupt, "Wallet.Mnemonic", err)
	}
	return mnemonic, nil
}
