package post

import (
	"crypto/ecdsa"
	"fmt"

	"github.com/google/uuid"
	bcrypto "github.com/openherd/openherd/src/crypto"
	"github.com/openherd/openherd/src/crypto/keys"
)

// Identity is a signing key-pair used for exactly one post.
type Identity struct {
	Label      string
	PrivateKey *ecdsa.PrivateKey
	PublicKey  []byte
}

// Crypto is the cryptographic capability consumed by post creation and
// verification.
type Crypto interface {
	GenerateIdentity(label string) (*Identity, error)
	Fingerprint(publicKey []byte) string
	Sign(data []byte, identity *Identity) (string, error)
	EncodePublicKey(publicKey []byte) string
	Verify(envelope *Envelope) bool
}

// ECDSACrypto implements Crypto with secp256k1 ECDSA keys.
type ECDSACrypto struct{}

// NewECDSACrypto ...
func NewECDSACrypto() *ECDSACrypto {
	return &ECDSACrypto{}
}

// NewLabel returns a random label for an anonymous identity.
func NewLabel() string {
	return "anonymous-" + uuid.New().String()
}

// GenerateIdentity implements Crypto.
func (c *ECDSACrypto) GenerateIdentity(label string) (*Identity, error) {
	key, err := keys.GenerateECDSAKey()
	if err != nil {
		return nil, err
	}
	return &Identity{
		Label:      label,
		PrivateKey: key,
		PublicKey:  keys.FromPublicKey(&key.PublicKey),
	}, nil
}

// Fingerprint implements Crypto.
func (c *ECDSACrypto) Fingerprint(publicKey []byte) string {
	return keys.Fingerprint(publicKey)
}

// EncodePublicKey implements Crypto.
func (c *ECDSACrypto) EncodePublicKey(publicKey []byte) string {
	return keys.PublicKeyHex(keys.ToPublicKey(publicKey))
}

// Sign implements Crypto. It signs the SHA256 hash of data.
func (c *ECDSACrypto) Sign(data []byte, identity *Identity) (string, error) {
	if identity == nil || identity.PrivateKey == nil {
		return "", fmt.Errorf("no private key")
	}
	r, s, err := keys.Sign(identity.PrivateKey, bcrypto.SHA256(data))
	if err != nil {
		return "", err
	}
	return keys.EncodeSignature(r, s), nil
}

// Verify implements Crypto. It returns false on any error: missing fields, an
// id which is not the fingerprint of the public key, a key or signature that
// cannot be decoded, or a signature that does not match the data.
func (c *ECDSACrypto) Verify(envelope *Envelope) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()

	if envelope.Validate() != nil {
		return false
	}

	pub, err := keys.ParsePublicKeyHex(envelope.PublicKey)
	if err != nil {
		return false
	}

	if keys.Fingerprint(keys.FromPublicKey(pub)) != envelope.ID {
		return false
	}

	r, s, err := keys.DecodeSignature(envelope.Signature)
	if err != nil {
		return false
	}

	return keys.Verify(pub, bcrypto.SHA256([]byte(envelope.Data)), r, s)
}

var defaultCrypto = NewECDSACrypto()

// Verify checks an envelope with the default ECDSA crypto.
func Verify(envelope *Envelope) bool {
	return defaultCrypto.Verify(envelope)
}
