// Copyright 2024 The lumenchain Authors
// This file is part of the lumenchain library.
//
// The lumenchain library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package blockchain is the block-tree / mempool engine: the single mutable
// object the gossip workers and the miner share under one mutex.
package blockchain

import (
	"sync"

	"github.com/lumenchain/lumenchain/blockchain/txpool/types"
	"github.com/lumenchain/lumenchain/common"
	"github.com/lumenchain/lumenchain/event"
	"github.com/lumenchain/lumenchain/log"
	"github.com/lumenchain/lumenchain/metrics"
	"github.com/lumenchain/lumenchain/params"
)

// TipAdvanced is sent on a Blockchain's feed whenever InsertBlockValidated
// moves the tip, including a reorg to a different fork. Subscribers (status
// reporting, logging) learn about it without taking the engine's lock.
type TipAdvanced struct {
	Hash   common.Hash
	Height uint64
}

var logger = log.NewModuleLogger(log.ModuleChain)

var (
	blocksAcceptedCounter = metrics.NewRegisteredCounter("chain/blocks/accepted", nil)
	blocksRejectedCounter = metrics.NewRegisteredCounter("chain/blocks/rejected", nil)
	txAcceptedCounter     = metrics.NewRegisteredCounter("chain/tx/accepted", nil)
	txRejectedCounter     = metrics.NewRegisteredCounter("chain/tx/rejected", nil)
)

// blockEntry is the per-block record the engine retains forever: the block
// itself, its height, and the ledger obtained by applying its transactions
// to its parent's state. Storing state_after per block trades memory for
// O(1) reorg: switching tips is a pointer move, no undo log or replay.
type blockEntry struct {
	Block  *types.Block
	Height uint64
	State  State
}

// MempoolEntry pairs a pending transaction with its hash, for iteration.
type MempoolEntry struct {
	Hash common.Hash
	Tx   *types.SignedTransaction
}

// ReadView is a consistent, lock-held snapshot handed to ReadLocked callers
// (the miner, the transaction generator) that need to read tip + mempool
// together atomically before building something to submit back.
type ReadView struct {
	Tip       common.Hash
	TipBlock  *types.Block
	TipHeight uint64
	TipState  State
	Mempool   map[common.Hash]*types.SignedTransaction
}

// Blockchain is the engine: block tree keyed by hash, orphan buffer, mempool,
// tip pointer, and the dirty-mempool flag, all behind one mutex. Every
// exported method acquires the lock on entry and releases it on exit, except
// ReadLocked, which holds the lock for the duration of the supplied callback
// so a caller can read tip and mempool as one atomic observation.
type Blockchain struct {
	mu sync.Mutex

	blocks       map[common.Hash]*blockEntry
	orphanage    map[common.Hash][]*types.Block
	mempool      map[common.Hash]*types.SignedTransaction
	tip          common.Hash
	dirtyMempool bool

	tipFeed event.Feed
}

// SubscribeTipAdvanced registers ch to receive a TipAdvanced value every time
// the tip moves. ch should be buffered; a subscriber that falls behind simply
// misses intermediate sends rather than stalling block insertion.
func (bc *Blockchain) SubscribeTipAdvanced(ch chan interface{}) *event.Subscription {
	return bc.tipFeed.Subscribe(ch)
}

// New constructs the engine at genesis: the deterministic genesis block
// with the ICO ledger as its state_after.
func New() *Blockchain {
	genesis := types.Genesis(params.GenesisDifficulty)
	genesis.Header.MerkleRoot = genesis.ComputeMerkleRoot()
	hash := genesis.Hash()

	bc := &Blockchain{
		blocks:    make(map[common.Hash]*blockEntry),
		orphanage: make(map[common.Hash][]*types.Block),
		mempool:   make(map[common.Hash]*types.SignedTransaction),
		tip:       hash,
	}
	bc.blocks[hash] = &blockEntry{Block: genesis, Height: 0, State: GenesisState()}
	logger.Info("genesis constructed", "hash", hash)
	return bc
}

// TipHash returns the hash of the current best block.
func (bc *Blockchain) TipHash() common.Hash {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	return bc.tip
}

// TipData returns the current tip's block and height.
func (bc *Blockchain) TipData() (*types.Block, uint64) {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	entry := bc.blocks[bc.tip]
	return entry.Block, entry.Height
}

// Lookup returns the block, height, and ledger recorded for hash, if known.
func (bc *Blockchain) Lookup(hash common.Hash) (*types.Block, uint64, State, bool) {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	entry, ok := bc.blocks[hash]
	if !ok {
		return nil, 0, nil, false
	}
	return entry.Block, entry.Height, entry.State, true
}

// BlockCount returns the number of blocks known to the engine (for /status).
func (bc *Blockchain) BlockCount() int {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	return len(bc.blocks)
}

// ReadLocked runs fn with the engine lock held, handing it a consistent view
// of the tip and the mempool. fn must not block on I/O and must not call
// back into any other Blockchain method (that would deadlock on the mutex).
func (bc *Blockchain) ReadLocked(fn func(ReadView)) {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	entry := bc.blocks[bc.tip]
	fn(ReadView{
		Tip:       bc.tip,
		TipBlock:  entry.Block,
		TipHeight: entry.Height,
		TipState:  entry.State,
		Mempool:   bc.mempool,
	})
}

// InsertBlockValidated validates and inserts b, recursively promoting any
// buffered orphans whose parent it completes, and returns the hashes newly
// added to blocks (in arrival order) — the novelty list gossip re-announces.
// Idempotent: inserting the same block twice adds it once and returns no
// novelty the second time.
func (bc *Blockchain) InsertBlockValidated(b *types.Block) []common.Hash {
	bc.mu.Lock()
	defer bc.mu.Unlock()

	novelty := bc.insertLocked(b)
	if bc.dirtyMempool {
		bc.pruneMempoolLocked()
		bc.dirtyMempool = false
	}
	return novelty
}

func (bc *Blockchain) insertLocked(b *types.Block) []common.Hash {
	hash := b.Hash()
	if _, ok := bc.blocks[hash]; ok {
		return nil
	}

	parent, ok := bc.blocks[b.Header.Parent]
	if !ok {
		bc.orphanage[b.Header.Parent] = append(bc.orphanage[b.Header.Parent], b)
		logger.Debug("buffered orphan block", "hash", hash, "parent", b.Header.Parent)
		return nil
	}

	required := parent.Block.Header.Difficulty
	if !hash.LessOrEqual(required) {
		blocksRejectedCounter.Inc(1)
		logger.Warn("block fails proof-of-work check", "hash", hash)
		return nil
	}

	// Verify the header's merkle_root actually covers the attached
	// transaction list before trusting it; a header can otherwise claim any
	// contents while keeping a valid-looking hash.
	if b.ComputeMerkleRoot() != b.Header.MerkleRoot {
		blocksRejectedCounter.Inc(1)
		logger.Warn("block merkle root mismatch", "hash", hash)
		return nil
	}

	raws := make([]types.RawTransaction, len(b.Transactions))
	for i, tx := range b.Transactions {
		raws[i] = tx.Raw
	}
	newState, err := ApplySequence(parent.State, raws)
	if err != nil {
		blocksRejectedCounter.Inc(1)
		logger.Warn("block fails state validation", "hash", hash, "err", err)
		logger.Dump("rejected block header", b.Header)
		return nil
	}

	for _, tx := range b.Transactions {
		delete(bc.mempool, tx.Hash())
	}

	height := parent.Height + 1
	bc.blocks[hash] = &blockEntry{Block: b, Height: height, State: newState}
	blocksAcceptedCounter.Inc(1)

	if height > bc.blocks[bc.tip].Height {
		bc.tip = hash
		bc.dirtyMempool = true
		logger.Info("tip advanced", "hash", hash, "height", height)
		bc.tipFeed.Send(TipAdvanced{Hash: hash, Height: height})
	}

	novelty := []common.Hash{hash}
	if pending, ok := bc.orphanage[hash]; ok {
		delete(bc.orphanage, hash)
		for _, child := range pending {
			novelty = append(novelty, bc.insertLocked(child)...)
		}
	}
	return novelty
}

// pruneMempoolLocked retains exactly the mempool entries that remain
// signature-authentic and valid as a single next transaction against the
// (possibly new) tip's state. Must be called with bc.mu held.
func (bc *Blockchain) pruneMempoolLocked() {
	tipState := bc.blocks[bc.tip].State
	for hash, tx := range bc.mempool {
		if !tx.Authentic() || Check(tipState, tx.Raw) != nil {
			delete(bc.mempool, hash)
		}
	}
}

// InsertTxValidated validates tx against the current tip's state and inserts
// it into the mempool; returns true iff it was newly accepted.
func (bc *Blockchain) InsertTxValidated(tx *types.SignedTransaction) bool {
	bc.mu.Lock()
	defer bc.mu.Unlock()

	hash := tx.Hash()
	if _, ok := bc.mempool[hash]; ok {
		return false
	}
	if !tx.Authentic() {
		txRejectedCounter.Inc(1)
		return false
	}
	tipState := bc.blocks[bc.tip].State
	if err := Check(tipState, tx.Raw); err != nil {
		txRejectedCounter.Inc(1)
		return false
	}
	bc.mempool[hash] = tx
	txAcceptedCounter.Inc(1)
	return true
}

// GetTx looks up a transaction by hash in the mempool.
func (bc *Blockchain) GetTx(hash common.Hash) (*types.SignedTransaction, bool) {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	tx, ok := bc.mempool[hash]
	return tx, ok
}

// MempoolSnapshot returns a point-in-time copy of the mempool contents.
func (bc *Blockchain) MempoolSnapshot() []MempoolEntry {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	out := make([]MempoolEntry, 0, len(bc.mempool))
	for h, tx := range bc.mempool {
		out = append(out, MempoolEntry{Hash: h, Tx: tx})
	}
	return out
}

// FilterUnknownBlocks returns the subset of hashes not present in blocks, in
// the gossip worker's NewBlockHashes handler.
func (bc *Blockchain) FilterUnknownBlocks(hashes []common.Hash) []common.Hash {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	var unknown []common.Hash
	for _, h := range hashes {
		if _, ok := bc.blocks[h]; !ok {
			unknown = append(unknown, h)
		}
	}
	return unknown
}

// FetchBlocks returns the blocks present for hashes, skipping any missing.
func (bc *Blockchain) FetchBlocks(hashes []common.Hash) []*types.Block {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	var found []*types.Block
	for _, h := range hashes {
		if entry, ok := bc.blocks[h]; ok {
			found = append(found, entry.Block)
		}
	}
	return found
}

// FilterUnknownTxs returns the subset of hashes not present in the mempool.
func (bc *Blockchain) FilterUnknownTxs(hashes []common.Hash) []common.Hash {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	var unknown []common.Hash
	for _, h := range hashes {
		if _, ok := bc.mempool[h]; !ok {
			unknown = append(unknown, h)
		}
	}
	return unknown
}

// FetchTxs returns the mempool transactions present for hashes, skipping any
// missing.
func (bc *Blockchain) FetchTxs(hashes []common.Hash) []*types.SignedTransaction {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	var found []*types.SignedTransaction
	for _, h := range hashes {
		if tx, ok := bc.mempool[h]; ok {
			found = append(found, tx)
		}
	}
	return found
}
