// Copyright 2024 The lumenchain Authors
// This file is part of the lumenchain library.
//
// The lumenchain library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This file is the state transition model: a plain value-transfer ledger,
// not an EVM-style execution engine.

package blockchain

import (
	"crypto/ed25519"
	"errors"
	"sort"

	"github.com/lumenchain/lumenchain/common"
	"github.com/lumenchain/lumenchain/crypto"
	"github.com/lumenchain/lumenchain/params"
	"github.com/lumenchain/lumenchain/blockchain/txpool/types"
)

var (
	errUnknownSender        = errors.New("sender account does not exist")
	errNonceMismatch        = errors.New("transaction nonce does not match account nonce")
	errInsufficientBalance  = errors.New("sender balance insufficient for transfer value")
)

// AccountInfo is the ledger entry for one address.
type AccountInfo struct {
	Nonce   uint32
	Balance uint64
}

// State is the ledger: addresses absent from the map act as the zero
// account {nonce:0, balance:0} when credited, but are invalid as a sender.
type State map[common.Address]AccountInfo

// Clone makes an independent copy, the basis of Apply-sequence's
// start-from-a-copy semantics.
func (s State) Clone() State {
	out := make(State, len(s))
	for addr, info := range s {
		out[addr] = info
	}
	return out
}

// Check reports whether raw is valid against s as a single next transaction
// for its sender: the sender must exist, its nonce must match, and its
// balance must cover the value. Non-mutating.
func Check(s State, raw types.RawTransaction) error {
	info, ok := s[raw.From]
	if !ok {
		return errUnknownSender
	}
	if info.Nonce != raw.Nonce {
		return errNonceMismatch
	}
	if info.Balance < raw.Value {
		return errInsufficientBalance
	}
	return nil
}

// ApplyInPlace mutates s to reflect raw, iff Check(s, raw) succeeds; s is
// left unchanged on failure. Self-transfers (From == To) advance the nonce
// and leave the balance unchanged, the composition of debit then credit.
func ApplyInPlace(s State, raw types.RawTransaction) error {
	if err := Check(s, raw); err != nil {
		return err
	}
	sender := s[raw.From]
	sender.Nonce++
	sender.Balance -= raw.Value
	s[raw.From] = sender

	receiver := s[raw.To]
	receiver.Balance += raw.Value
	s[raw.To] = receiver
	return nil
}

// ApplySequence applies txs in order to a copy of s, returning the resulting
// state iff every transaction applied successfully; it never mutates s, and
// returns (nil, err) on the first failure, since ordering matters: nonces
// chain between successive transactions from the same sender.
func ApplySequence(s State, txs []types.RawTransaction) (State, error) {
	next := s.Clone()
	for _, raw := range txs {
		if err := ApplyInPlace(next, raw); err != nil {
			return nil, err
		}
	}
	return next, nil
}

// ICOKeyPair deterministically derives the keypair for genesis account i, a
// 32-byte seed whose first byte is i and whose remaining bytes are zero.
func ICOKeyPair(i byte) (pub, priv []byte) {
	var seed [ed25519.SeedSize]byte
	seed[0] = i
	kp := crypto.KeyPairFromSeed(seed)
	return kp.Public, kp.Private
}

// ICOAccount is one of the ten deterministic genesis allocations.
type ICOAccount struct {
	Index   byte
	Address common.Address
	Public  ed25519.PublicKey
	Private ed25519.PrivateKey
}

// ICOAccounts returns the ten genesis accounts in index order, deriving each
// keypair and balance deterministically.
func ICOAccounts() []ICOAccount {
	accounts := make([]ICOAccount, params.ICOAccountCount)
	for i := 0; i < params.ICOAccountCount; i++ {
		pub, priv := ICOKeyPair(byte(i))
		accounts[i] = ICOAccount{
			Index:   byte(i),
			Address: crypto.AddressFromPublicKey(pub),
			Public:  pub,
			Private: priv,
		}
	}
	return accounts
}

// GenesisState builds the ICO ledger: ten accounts, account i funded with
// ICOBalanceUnit * (ICOAccountCount - i), nonce 0.
func GenesisState() State {
	s := make(State, params.ICOAccountCount)
	for _, acc := range ICOAccounts() {
		s[acc.Address] = AccountInfo{
			Nonce:   0,
			Balance: uint64(params.ICOBalanceUnit) * uint64(params.ICOAccountCount-int(acc.Index)),
		}
	}
	return s
}

// SortedAddresses returns the state's addresses in deterministic order, used
// by the /status dump.
func (s State) SortedAddresses() []common.Address {
	addrs := make(common.AddressList, 0, len(s))
	for a := range s {
		addrs = append(addrs, a)
	}
	sort.Sort(addrs)
	return addrs
}
