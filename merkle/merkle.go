// Copyright 2024 The lumenchain Authors
// This file is part of the lumenchain library.
//
// The lumenchain library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package merkle builds the Merkle root over an ordered list of transaction
// hashes and proves/verifies inclusion: leaf hash is the tx hash, and an odd
// node at any level is duplicated with itself before pairing.
package merkle

import (
	"github.com/lumenchain/lumenchain/crypto"
	"github.com/lumenchain/lumenchain/common"
)

// Tree is a fully-materialized Merkle tree, level 0 being the leaves.
type Tree struct {
	levels [][]common.Hash
}

// New builds a Tree over leaves in the given order. An empty leaf list
// yields the zero hash as root, matching genesis' merkle_root.
func New(leaves []common.Hash) *Tree {
	if len(leaves) == 0 {
		return &Tree{levels: [][]common.Hash{{common.Hash{}}}}
	}
	level := make([]common.Hash, len(leaves))
	copy(level, leaves)
	levels := [][]common.Hash{level}
	for len(level) > 1 {
		level = nextLevel(level)
		levels = append(levels, level)
	}
	return &Tree{levels: levels}
}

func nextLevel(level []common.Hash) []common.Hash {
	if len(level)%2 == 1 {
		level = append(level, level[len(level)-1])
	}
	next := make([]common.Hash, len(level)/2)
	for i := 0; i < len(next); i++ {
		next[i] = hashPair(level[2*i], level[2*i+1])
	}
	return next
}

func hashPair(left, right common.Hash) common.Hash {
	buf := make([]byte, 0, 2*common.HashLength)
	buf = append(buf, left.Bytes()...)
	buf = append(buf, right.Bytes()...)
	return crypto.Hash256(buf)
}

// Root returns the Merkle root.
func (t *Tree) Root() common.Hash {
	top := t.levels[len(t.levels)-1]
	return top[0]
}

// Root builds a Tree over leaves and returns its root; the convenience path
// block assembly and validation use.
func Root(leaves []common.Hash) common.Hash {
	return New(leaves).Root()
}

// Proof is the sibling path from a leaf up to the root, one hash per level.
type Proof struct {
	Siblings []common.Hash
}

// Prove returns the inclusion proof for the leaf at index i.
func (t *Tree) Prove(i int) Proof {
	var proof Proof
	index := i
	for lvl := 0; lvl < len(t.levels)-1; lvl++ {
		level := t.levels[lvl]
		// The tree does not materialize the duplicated odd node, so compute
		// the sibling the same way nextLevel did.
		siblingIndex := index ^ 1
		var sibling common.Hash
		if siblingIndex < len(level) {
			sibling = level[siblingIndex]
		} else {
			sibling = level[index] // odd node duplicated with itself
		}
		proof.Siblings = append(proof.Siblings, sibling)
		index /= 2
	}
	return proof
}

// Verify reports whether leaf, combined with proof along the path implied by
// index among n total leaves, reproduces root. Prove always resolves a
// missing (odd-node) sibling to a duplicate of the current node, so the
// pairing rule here only needs to know left/right, not node counts.
func Verify(root common.Hash, leaf common.Hash, proof Proof, index, n int) bool {
	current := leaf
	idx := index
	for _, sibling := range proof.Siblings {
		if idx%2 == 0 {
			current = hashPair(current, sibling)
		} else {
			current = hashPair(sibling, current)
		}
		idx /= 2
	}
	return current == root
}
