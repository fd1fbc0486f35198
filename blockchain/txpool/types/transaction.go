// Copyright 2024 The lumenchain Authors
// This file is part of the lumenchain library.
//
// The lumenchain library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package types holds the wire/ledger data model: raw and signed
// transactions, block headers, and blocks. Canonical serialization (for
// hashing) uses RLP, the same deterministic encoding used for wire
// messages — there is no reason to invent a second encoding for hashing
// versus the wire.
package types

import (
	"github.com/ethereum/go-ethereum/rlp"

	"github.com/lumenchain/lumenchain/common"
	"github.com/lumenchain/lumenchain/crypto"
)

// RawTransaction is the unsigned transfer instruction: move Value from From
// to To, at the sender's next Nonce.
type RawTransaction struct {
	From  common.Address
	To    common.Address
	Value uint64
	Nonce uint32
}

// CanonicalBytes is the deterministic serialization that both the tx hash
// and the Ed25519 signature are computed over.
func (t RawTransaction) CanonicalBytes() []byte {
	b, err := rlp.EncodeToBytes(&t)
	if err != nil {
		// Fixed-width fields only; encoding cannot fail.
		panic(err)
	}
	return b
}

// Hash is SHA-256 of the canonical serialization.
func (t RawTransaction) Hash() common.Hash {
	return crypto.Hash256(t.CanonicalBytes())
}

// SignedTransaction is a RawTransaction plus the authorizing signature.
type SignedTransaction struct {
	Raw       RawTransaction
	PubKey    []byte
	Signature []byte
}

// Hash covers all three fields, distinct from Raw.Hash().
func (t *SignedTransaction) Hash() common.Hash {
	b, err := rlp.EncodeToBytes(t)
	if err != nil {
		panic(err)
	}
	return crypto.Hash256(b)
}

// Authentic reports whether the signature verifies Raw under PubKey as
// Ed25519, and the public key hashes to the claimed sender address.
func (t *SignedTransaction) Authentic() bool {
	if !crypto.Verify(t.PubKey, t.Raw.CanonicalBytes(), t.Signature) {
		return false
	}
	return crypto.AddressFromPublicKey(t.PubKey) == t.Raw.From
}

// Sign produces a SignedTransaction authorizing raw under the given key pair.
// The caller is responsible for raw.From matching the address of pub; signing with
// a mismatched key is how the transaction generator exercises the
// unauthentic-transaction rejection path on purpose.
func Sign(raw RawTransaction, priv, pub []byte) *SignedTransaction {
	sig := crypto.Sign(priv, raw.CanonicalBytes())
	return &SignedTransaction{Raw: raw, PubKey: pub, Signature: sig}
}
