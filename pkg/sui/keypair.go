package sui

import (
	"crypto/ed25519"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// Ed25519Flag is the signature scheme flag of ed25519 keys.
const Ed25519Flag byte = 0x00

var ErrInvalidKey = errors.New("invalid keystore key")

// transactionIntent prefixes transaction bytes before hashing: scope
// TransactionData, version V0, app Sui.
var transactionIntent = []byte{0, 0, 0}

// Keypair is an ed25519 signer.
type Keypair struct {
	priv ed25519.PrivateKey
}

// ParseKeystoreKey decodes a key as stored in sui.keystore: base64 of the
// scheme flag followed by the 32 byte seed. A bare base64 seed is accepted
// too.
func ParseKeystoreKey(encoded string) (*Keypair, error) {
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	switch len(raw) {
	case ed25519.SeedSize + 1:
		if raw[0] != Ed25519Flag {
			return nil, fmt.Errorf("%w: unsupported scheme flag %d", ErrInvalidKey, raw[0])
		}
		raw = raw[1:]
	case ed25519.SeedSize:
	default:
		return nil, fmt.Errorf("%w: unexpected length %d", ErrInvalidKey, len(raw))
	}
	return NewKeypair(raw), nil
}

// NewKeypair derives a keypair from a 32 byte seed.
func NewKeypair(seed []byte) *Keypair {
	return &Keypair{priv: ed25519.NewKeyFromSeed(seed)}
}

func (k *Keypair) PublicKey() ed25519.PublicKey {
	return k.priv.Public().(ed25519.PublicKey)
}

// Address is blake2b-256 over the flag and the public key.
func (k *Keypair) Address() string {
	buf := append([]byte{Ed25519Flag}, k.PublicKey()...)
	sum := blake2b.Sum256(buf)
	return "0x" + hex.EncodeToString(sum[:])
}

// TransactionDigest is the message signed for txBytes.
func TransactionDigest(txBytes []byte) [32]byte {
	msg := make([]byte, 0, len(transactionIntent)+len(txBytes))
	msg = append(msg, transactionIntent...)
	msg = append(msg, txBytes...)
	return blake2b.Sum256(msg)
}

// SignTransaction signs base64 transaction bytes and returns the serialized
// signature: base64 of flag, signature and public key.
func (k *Keypair) SignTransaction(txBytes string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(txBytes)
	if err != nil {
		return "", fmt.Errorf("decode transaction bytes: %w", err)
	}
	digest := TransactionDigest(raw)
	sig := ed25519.Sign(k.priv, digest[:])

	out := make([]byte, 0, 1+ed25519.SignatureSize+ed25519.PublicKeySize)
	out = append(out, Ed25519Flag)
	out = append(out, sig...)
	out = append(out, k.PublicKey()...)
	return base64.StdEncoding.EncodeToString(out), nil
}
