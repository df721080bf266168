package keys

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"fmt"

	"github.com/openherd/openherd/src/common"
	"github.com/openherd/openherd/src/crypto"
)

// fingerprintSize is the number of bytes of the public key hash kept in a
// fingerprint.
const fingerprintSize = 20

// ToPublicKey is a wrapper around elliptic.Unmarshal which calls Curve() to
// determine which elliptic.Curve to use. The argument pub is expected to be the
// uncompressed form of a point on the curve, as returned by FromPublicKey. It
// returns nil if pub is not a valid point.
func ToPublicKey(pub []byte) *ecdsa.PublicKey {
	if len(pub) == 0 {
		return nil
	}
	x, y := elliptic.Unmarshal(Curve(), pub)
	if x == nil || y == nil {
		return nil
	}
	return &ecdsa.PublicKey{Curve: Curve(), X: x, Y: y}
}

// FromPublicKey is a wrapper around elliptic.Marshal which calls Curve() to
// determine which elliptic.Curve to use. It outputs the point in uncompressed
// form.
func FromPublicKey(pub *ecdsa.PublicKey) []byte {
	if pub == nil || pub.X == nil || pub.Y == nil {
		return nil
	}
	return elliptic.Marshal(Curve(), pub.X, pub.Y)
}

// PublicKeyHex returns the hexadecimal reprentation of the uncompressed form of
// the public key
func PublicKeyHex(pub *ecdsa.PublicKey) string {
	return common.EncodeToString(FromPublicKey(pub))
}

// ParsePublicKeyHex is the inverse of PublicKeyHex.
func ParsePublicKeyHex(s string) (*ecdsa.PublicKey, error) {
	if len(s) < 2 {
		return nil, fmt.Errorf("public key too short")
	}
	raw, err := common.DecodeFromString(s)
	if err != nil {
		return nil, err
	}
	pub := ToPublicKey(raw)
	if pub == nil {
		return nil, fmt.Errorf("public key is not a point on the curve")
	}
	return pub, nil
}

// Fingerprint derives the identifier of a public key: the uppercase hex of the
// first 20 bytes of the SHA256 of its uncompressed form.
func Fingerprint(pub []byte) string {
	hash := crypto.SHA256(pub)
	return fmt.Sprintf("%X", hash[:fingerprintSize])
}
