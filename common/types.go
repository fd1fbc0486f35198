// Copyright 2024 The lumenchain Authors
// This file is part of the lumenchain library.
//
// The lumenchain library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The lumenchain library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.

// Package common holds the primitive value types shared across the node:
// the 32-byte block/transaction digest and the 20-byte account address.
package common

import (
	"bytes"
	"encoding/hex"
	"fmt"
)

const (
	// HashLength is the expected length of a block or transaction digest.
	HashLength = 32
	// AddressLength is the expected length of an account address.
	AddressLength = 20
)

// Hash is a 32-byte SHA-256 digest, compared in big-endian lexicographic order.
type Hash [HashLength]byte

// BytesToHash copies b into a Hash, keeping the last HashLength bytes of a
// longer input and left-padding a shorter one with zeros.
func BytesToHash(b []byte) Hash {
	var h Hash
	if len(b) > HashLength {
		b = b[len(b)-HashLength:]
	}
	copy(h[HashLength-len(b):], b)
	return h
}

func (h Hash) Bytes() []byte  { return h[:] }
func (h Hash) Hex() string    { return "0x" + hex.EncodeToString(h[:]) }
func (h Hash) String() string { return h.Hex() }

// IsZero reports whether h is the all-zero sentinel, used for genesis' parent.
func (h Hash) IsZero() bool { return h == Hash{} }

// Cmp gives the big-endian lexicographic order of h against other, the order
// blocks are checked against difficulty in.
func (h Hash) Cmp(other Hash) int { return bytes.Compare(h[:], other[:]) }

// LessOrEqual reports whether h <= limit, i.e. whether h satisfies a
// proof-of-work target of limit.
func (h Hash) LessOrEqual(limit Hash) bool { return h.Cmp(limit) <= 0 }

// MarshalText implements encoding.TextMarshaler for logging and JSON.
func (h Hash) MarshalText() ([]byte, error) { return []byte(h.Hex()), nil }

// Address is the 20-byte low-order truncation of SHA-256(pubkey).
type Address [AddressLength]byte

func BytesToAddress(b []byte) Address {
	var a Address
	if len(b) > AddressLength {
		b = b[len(b)-AddressLength:]
	}
	copy(a[AddressLength-len(b):], b)
	return a
}

func (a Address) Bytes() []byte  { return a[:] }
func (a Address) Hex() string    { return "0x" + hex.EncodeToString(a[:]) }
func (a Address) String() string { return a.Hex() }

func (a Address) MarshalText() ([]byte, error) { return []byte(a.Hex()), nil }

// HexToHash parses a "0x"-prefixed or bare hex string into a Hash, mostly
// for tests. It never panics: a malformed string yields the zero Hash.
func HexToHash(s string) Hash { return BytesToHash(fromHex(s)) }

func HexToAddress(s string) Address { return BytesToAddress(fromHex(s)) }

func fromHex(s string) []byte {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		s = s[2:]
	}
	if len(s)%2 == 1 {
		s = "0" + s
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil
	}
	return b
}

// Sortable hash/address slices; AddressList orders the ledger in the /status
// dump for deterministic output.
type HashList []Hash

func (l HashList) Len() int           { return len(l) }
func (l HashList) Less(i, j int) bool { return l[i].Cmp(l[j]) < 0 }
func (l HashList) Swap(i, j int)      { l[i], l[j] = l[j], l[i] }

type AddressList []Address

func (l AddressList) Len() int           { return len(l) }
func (l AddressList) Less(i, j int) bool { return bytes.Compare(l[i][:], l[j][:]) < 0 }
func (l AddressList) Swap(i, j int)      { l[i], l[j] = l[j], l[i] }

// GoString makes Hash/Address print usefully under %#v and spew dumps.
func (h Hash) GoString() string    { return fmt.Sprintf("common.HexToHash(%q)", h.Hex()) }
func (a Address) GoString() string { return fmt.Sprintf("common.HexToAddress(%q)", a.Hex()) }
