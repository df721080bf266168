package keys

import (
	"strings"
	"testing"

	bcrypto "github.com/openherd/openherd/src/crypto"
)

func TestSignatureEncoding(t *testing.T) {
	privKey, _ := GenerateECDSAKey()

	msg := "J'aime mieux forger mon ame que la meubler"
	msgBytes := []byte(msg)
	msgHashBytes := bcrypto.SHA256(msgBytes)

	r, s, _ := Sign(privKey, msgHashBytes)

	encodedSig := EncodeSignature(r, s)

	dr, ds, err := DecodeSignature(encodedSig)
	if err != nil {
		t.Logf("r: %#v", r)
		t.Logf("s: %#v", s)
		t.Logf("error decoding %v", encodedSig)
		t.Fatal(err)
	}

	if r.Cmp(dr) != 0 {
		t.Fatalf("Signature Rs defer")
	}

	if s.Cmp(ds) != 0 {
		t.Fatalf("Signature Ss defer")
	}

	if !Verify(&privKey.PublicKey, msgHashBytes, dr, ds) {
		t.Fatalf("decoded signature should verify")
	}
}

func TestDecodeSignatureErrors(t *testing.T) {
	for _, sig := range []string{"", "abc", "a|b|c", "!!|zz", "zz|??"} {
		if _, _, err := DecodeSignature(sig); err == nil {
			t.Fatalf("DecodeSignature(%q) should fail", sig)
		}
	}
}

func TestVerifyNilInputs(t *testing.T) {
	privKey, _ := GenerateECDSAKey()
	if Verify(nil, []byte("data"), nil, nil) {
		t.Fatalf("Verify with nil key should be false")
	}
	if Verify(&privKey.PublicKey, []byte("data"), nil, nil) {
		t.Fatalf("Verify with nil signature should be false")
	}
}

func TestPublicKeyHex(t *testing.T) {
	privKey, _ := GenerateECDSAKey()

	pubHex := PublicKeyHex(&privKey.PublicKey)
	if !strings.HasPrefix(pubHex, "0X") {
		t.Fatalf("public key hex should start with 0X, got %s", pubHex)
	}

	pub, err := ParsePublicKeyHex(pubHex)
	if err != nil {
		t.Fatal(err)
	}
	if pub.X.Cmp(privKey.PublicKey.X) != 0 || pub.Y.Cmp(privKey.PublicKey.Y) != 0 {
		t.Fatalf("public key not parsed correctly")
	}

	// Without the prefix the first byte would be silently lost.
	if _, err := ParsePublicKeyHex(strings.TrimPrefix(pubHex, "0X")); err == nil {
		t.Fatalf("public key without 0X prefix should be refused")
	}
	if _, err := ParsePublicKeyHex("AB" + strings.TrimPrefix(pubHex, "0X")); err == nil {
		t.Fatalf("public key with a foreign prefix should be refused")
	}

	for _, bad := range []string{"", "0X", "0XZZ", "0X0102"} {
		if _, err := ParsePublicKeyHex(bad); err == nil {
			t.Fatalf("ParsePublicKeyHex(%q) should fail", bad)
		}
	}
}

func TestFingerprint(t *testing.T) {
	k1, _ := GenerateECDSAKey()
	k2, _ := GenerateECDSAKey()

	f1 := Fingerprint(FromPublicKey(&k1.PublicKey))
	f2 := Fingerprint(FromPublicKey(&k2.PublicKey))

	if len(f1) != 2*fingerprintSize {
		t.Fatalf("fingerprint should have %d chars, got %d", 2*fingerprintSize, len(f1))
	}
	if f1 == f2 {
		t.Fatalf("distinct keys should have distinct fingerprints")
	}
	if f1 != Fingerprint(FromPublicKey(&k1.PublicKey)) {
		t.Fatalf("fingerprint should be deterministic")
	}
	if f1 != strings.ToUpper(f1) {
		t.Fatalf("fingerprint should be uppercase")
	}
}
