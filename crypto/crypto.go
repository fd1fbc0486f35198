// Copyright 2024 The lumenchain Authors
// This file is part of the lumenchain library.
//
// The lumenchain library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package crypto wraps the node's two cryptographic primitives, Ed25519
// signing and SHA-256 hashing. Both are treated as external, pre-vetted
// collaborators per the design (no custom crypto is implemented here), so
// this package is a thin, direct adapter over the standard library rather
// than a third-party crypto module: crypto/ed25519 and crypto/sha256 are
// themselves the canonical implementations of these exact primitives.
package crypto

import (
	"crypto/ed25519"
	"crypto/sha256"
	"io"

	"github.com/lumenchain/lumenchain/common"
)

// KeyPair is an Ed25519 identity: a signing key and its address.
type KeyPair struct {
	Private ed25519.PrivateKey
	Public  ed25519.PublicKey
}

// Address derives the 20-byte account address from the public key: the
// low-order 20 bytes of SHA-256(pubkey).
func (k KeyPair) Address() common.Address {
	return AddressFromPublicKey(k.Public)
}

// AddressFromPublicKey derives H160 for an arbitrary Ed25519 public key,
// used on the verification side where only the bytes are available.
func AddressFromPublicKey(pub []byte) common.Address {
	digest := sha256.Sum256(pub)
	return common.BytesToAddress(digest[len(digest)-common.AddressLength:])
}

// GenerateKeyPair creates a fresh random Ed25519 identity.
func GenerateKeyPair(rand io.Reader) (KeyPair, error) {
	pub, priv, err := ed25519.GenerateKey(rand)
	if err != nil {
		return KeyPair{}, err
	}
	return KeyPair{Private: priv, Public: pub}, nil
}

// KeyPairFromSeed deterministically derives an identity from a 32-byte seed,
// used to build the ten ICO accounts (seed[0]=i, seed[1:]=0).
func KeyPairFromSeed(seed [ed25519.SeedSize]byte) KeyPair {
	priv := ed25519.NewKeyFromSeed(seed[:])
	return KeyPair{Private: priv, Public: priv.Public().(ed25519.PublicKey)}
}

// Sign produces an Ed25519 signature of msg under priv.
func Sign(priv ed25519.PrivateKey, msg []byte) []byte {
	return ed25519.Sign(priv, msg)
}

// Verify reports whether sig is a valid Ed25519 signature of msg under pub.
// A malformed public key or signature length verifies false, never panics.
func Verify(pub []byte, msg, sig []byte) bool {
	if len(pub) != ed25519.PublicKeySize || len(sig) != ed25519.SignatureSize {
		return false
	}
	return ed25519.Verify(pub, msg, sig)
}

// Hash256 is the node's block/transaction digest function.
func Hash256(data []byte) common.Hash {
	return common.Hash(sha256.Sum256(data))
}
