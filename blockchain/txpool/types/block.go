// Copyright 2024 The lumenchain Authors
// This file is part of the lumenchain library.
//
// The lumenchain library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package types

import (
	"github.com/ethereum/go-ethereum/rlp"

	"github.com/lumenchain/lumenchain/common"
	"github.com/lumenchain/lumenchain/crypto"
	"github.com/lumenchain/lumenchain/merkle"
)

// Header is the part of a Block whose hash identifies it; the content
// (transaction list) is authenticated separately via MerkleRoot.
type Header struct {
	Parent      common.Hash
	Nonce       uint32
	Difficulty  common.Hash
	Timestamp   uint64 // milliseconds since Unix epoch
	MerkleRoot  common.Hash
}

// Hash is the block hash: SHA-256 of the header alone.
func (h *Header) Hash() common.Hash {
	b, err := rlp.EncodeToBytes(h)
	if err != nil {
		panic(err)
	}
	return crypto.Hash256(b)
}

// Block is a Header plus its ordered transaction list.
type Block struct {
	Header       *Header
	Transactions []*SignedTransaction
}

// Hash is the header's hash.
func (b *Block) Hash() common.Hash { return b.Header.Hash() }

// ComputeMerkleRoot derives the Merkle root over the block's transactions in
// order, leaf hash = tx hash.
func (b *Block) ComputeMerkleRoot() common.Hash {
	return merkle.Root(txHashes(b.Transactions))
}

func txHashes(txs []*SignedTransaction) []common.Hash {
	hashes := make([]common.Hash, len(txs))
	for i, tx := range txs {
		hashes[i] = tx.Hash()
	}
	return hashes
}

// NewGenesisHeader builds the deterministic genesis header: all-zero parent,
// nonce 0, timestamp 0, all-zero merkle root (no transactions), and the
// implementation-fixed difficulty sentinel.
func NewGenesisHeader(difficulty common.Hash) *Header {
	return &Header{
		Parent:     common.Hash{},
		Nonce:      0,
		Difficulty: difficulty,
		Timestamp:  0,
		MerkleRoot: common.Hash{},
	}
}

// Genesis builds the deterministic genesis block (no transactions).
func Genesis(difficulty common.Hash) *Block {
	return &Block{Header: NewGenesisHeader(difficulty), Transactions: nil}
}
