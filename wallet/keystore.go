package wallet

import (
	"crypto/ed25519"
	"crypto/sha256"
	"fmt"
	"sync"
)

// Signer signs digests on behalf of an address and resolves the matching
// public key. The ledger core only depends on this contract; a production
// deployment plugs a real key-management service in here.
type Signer interface {
	Sign(address string, digest []byte) ([]byte, error)
	PublicKey(address string) (ed25519.PublicKey, error)
}

// Keystore derives an Ed25519 keypair deterministically from the address
// string, so every simulated address can sign without prior registration.
// The signatures are real Ed25519; only the key derivation is a simulator
// convenience, not a custody scheme.
type Keystore struct {
	mu   sync.Mutex
	keys map[string]ed25519.PrivateKey
}

func NewKeystore() *Keystore {
	return &Keystore{
		keys: make(map[string]ed25519.PrivateKey),
	}
}

func (ks *Keystore) privateKey(address string) (ed25519.PrivateKey, error) {
	if address == "" {
		return nil, fmt.Errorf("empty address")
	}
	ks.mu.Lock()
	defer ks.mu.Unlock()
	if key, ok := ks.keys[address]; ok {
		return key, nil
	}
	seed := sha256.Sum256([]byte("vindex-key:" + address))
	key := ed25519.NewKeyFromSeed(seed[:])
	ks.keys[address] = key
	return key, nil
}

// Sign signs digest with the key belonging to address.
func (ks *Keystore) Sign(address string, digest []byte) ([]byte, error) {
	key, err := ks.privateKey(address)
	if err != nil {
		return nil, err
	}
	return ed25519.Sign(key, digest), nil
}

// PublicKey returns the verification key for address.
func (ks *Keystore) PublicKey(address string) (ed25519.PublicKey, error) {
	key, err := ks.privateKey(address)
	if err != nil {
		return nil, err
	}
	return key.Public().(ed25519.PublicKey), nil
}
