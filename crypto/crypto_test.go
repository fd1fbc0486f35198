package crypto

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSignVerifyRoundTrip(t *testing.T) {
	kp, err := GenerateKeyPair(rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	msg := []byte("transfer 1 unit")
	sig := Sign(kp.Private, msg)
	if !Verify(kp.Public, msg, sig) {
		t.Error("expected signature to verify under the signing key")
	}
}

func TestVerifyRejectsTamperedMessage(t *testing.T) {
	kp, _ := GenerateKeyPair(rand.Reader)
	sig := Sign(kp.Private, []byte("original"))
	if Verify(kp.Public, []byte("tampered"), sig) {
		t.Error("expected verification to fail for a tampered message")
	}
}

func TestVerifyRejectsWrongKey(t *testing.T) {
	kp1, _ := GenerateKeyPair(rand.Reader)
	kp2, _ := GenerateKeyPair(rand.Reader)
	msg := []byte("payload")
	sig := Sign(kp1.Private, msg)
	if Verify(kp2.Public, msg, sig) {
		t.Error("expected verification to fail under a different public key")
	}
}

func TestVerifyRejectsMalformedInputWithoutPanic(t *testing.T) {
	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("Verify panicked on malformed input: %v", r)
		}
	}()
	if Verify([]byte{1, 2, 3}, []byte("msg"), []byte{4, 5, 6}) {
		t.Error("expected malformed input to fail verification")
	}
}

func TestAddressFromPublicKeyDeterministic(t *testing.T) {
	kp, _ := GenerateKeyPair(rand.Reader)
	a1 := kp.Address()
	a2 := AddressFromPublicKey(kp.Public)
	assert.Equal(t, a1, a2, "expected consistent address derivation")
}

func TestKeyPairFromSeedDeterministic(t *testing.T) {
	var seed [ed25519.SeedSize]byte
	seed[0] = 7
	kp1 := KeyPairFromSeed(seed)
	kp2 := KeyPairFromSeed(seed)
	assert.True(t, bytes.Equal(kp1.Public, kp2.Public), "expected the same seed to derive the same key pair")
}

func TestHash256Deterministic(t *testing.T) {
	data := []byte("block header bytes")
	if Hash256(data) != Hash256(data) {
		t.Error("expected Hash256 to be deterministic")
	}
}
