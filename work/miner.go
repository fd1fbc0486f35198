// Copyright 2024 The lumenchain Authors
// This file is part of the lumenchain library.
//
// The lumenchain library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package work is the miner: a single background worker that assembles
// candidate blocks from the mempool and searches for a valid proof-of-work
// nonce. It owns its own assemble-search-commit cycle end to end, started
// and stopped over a control channel, restarting it whenever the caller
// asks for a new lambda.
package work

import (
	"sync"
	"time"

	"github.com/lumenchain/lumenchain/blockchain"
	"github.com/lumenchain/lumenchain/blockchain/txpool/types"
	"github.com/lumenchain/lumenchain/gossip"
	"github.com/lumenchain/lumenchain/log"
	"github.com/lumenchain/lumenchain/metrics"
	"github.com/lumenchain/lumenchain/params"
)

var logger = log.NewModuleLogger(log.ModuleMiner)

var (
	attemptsCounter = metrics.NewRegisteredCounter("miner/attempts", nil)
	minedCounter    = metrics.NewRegisteredCounter("miner/mined", nil)
)

type signalKind int

const (
	signalStart signalKind = iota
	signalExit
)

type controlSignal struct {
	kind   signalKind
	lambda uint64
}

// Miner is a Paused / Running(lambda) / ShutDown state machine. The zero
// value is not usable; build one with NewMiner and run it with Run in its
// own goroutine.
type Miner struct {
	chain  *blockchain.Blockchain
	server gossip.Server

	control chan controlSignal

	mu          sync.Mutex
	quitCurrent chan struct{}
	searchWg    sync.WaitGroup
}

// NewMiner builds a miner starting in the Paused state.
func NewMiner(chain *blockchain.Blockchain, server gossip.Server) *Miner {
	return &Miner{
		chain:   chain,
		server:  server,
		control: make(chan controlSignal, 1),
	}
}

// Run is the miner's control loop; call it once in the background. It
// returns once Exit has been processed.
func (m *Miner) Run() {
	for sig := range m.control {
		switch sig.kind {
		case signalStart:
			m.restartSearch(sig.lambda)
		case signalExit:
			m.stopSearch()
			return
		}
	}
}

// Start moves the miner to Running(lambda): an in-flight search, if any, is
// abandoned and a fresh one begins under the new pacing. lambda is the
// number of microseconds to sleep after each attempt; 0 means unthrottled.
func (m *Miner) Start(lambda uint64) {
	m.control <- controlSignal{kind: signalStart, lambda: lambda}
}

// Exit moves the miner to ShutDown: the search stops and Run returns.
func (m *Miner) Exit() {
	m.control <- controlSignal{kind: signalExit}
}

func (m *Miner) restartSearch(lambda uint64) {
	m.stopSearch()

	m.mu.Lock()
	quit := make(chan struct{})
	m.quitCurrent = quit
	m.mu.Unlock()

	m.searchWg.Add(1)
	go m.loop(lambda, quit)
}

func (m *Miner) stopSearch() {
	m.mu.Lock()
	if m.quitCurrent != nil {
		close(m.quitCurrent)
		m.quitCurrent = nil
	}
	m.mu.Unlock()
	m.searchWg.Wait()
}

// loop repeatedly assembles a candidate block, searches it for a valid
// nonce, and commits it, until quit is closed.
func (m *Miner) loop(lambda uint64, quit <-chan struct{}) {
	defer m.searchWg.Done()
	for {
		select {
		case <-quit:
			return
		default:
		}

		header, txs, ok := m.assemble()
		if !ok {
			// Not enough pending transactions yet to satisfy MinBlockTxs;
			// wait a moment for the mempool to fill rather than spin.
			select {
			case <-quit:
				return
			case <-time.After(50 * time.Millisecond):
			}
			continue
		}

		if !m.search(header, lambda, quit) {
			return // quit was closed mid-search
		}

		block := &types.Block{Header: header, Transactions: txs}
		novelty := m.chain.InsertBlockValidated(block)
		if len(novelty) == 0 {
			// The tip moved under us between assemble and commit (someone
			// else's block, or ours already seen); an expected, silent miss
			// rather than an error.
			logger.Debug("mined block superseded before commit", "hash", block.Hash())
			continue
		}
		minedCounter.Inc(1)
		_, height, _, _ := m.chain.Lookup(block.Hash())
		logger.Info("mined block", "hash", block.Hash(), "height", height, "txs", len(txs))
		m.server.Broadcast(gossip.NewBlockHashes(novelty))
	}
}

// assemble builds a candidate header and transaction list from the current
// tip and mempool, selecting between MinBlockTxs and MaxBlockTxs
// individually-valid transactions in sequence. ok is false if the mempool
// cannot currently supply at least MinBlockTxs valid transactions.
func (m *Miner) assemble() (header *types.Header, selected []*types.SignedTransaction, ok bool) {
	m.chain.ReadLocked(func(view blockchain.ReadView) {
		if len(view.Mempool) < params.MinBlockTxs {
			return
		}
		trial := view.TipState.Clone()
		for _, tx := range view.Mempool {
			if len(selected) >= params.MaxBlockTxs {
				break
			}
			if err := blockchain.ApplyInPlace(trial, tx.Raw); err != nil {
				continue
			}
			selected = append(selected, tx)
		}
		if len(selected) < params.MinBlockTxs {
			selected = nil
			return
		}
		header = &types.Header{
			Parent:     view.Tip,
			Difficulty: params.GenesisDifficulty,
			Timestamp:  uint64(time.Now().UnixMilli()),
		}
		ok = true
	})
	if !ok {
		return nil, nil, false
	}
	block := &types.Block{Header: header, Transactions: selected}
	header.MerkleRoot = block.ComputeMerkleRoot()
	return header, selected, true
}

// search increments header's nonce until its hash satisfies the fixed
// difficulty target, or quit is closed. It returns false iff it gave up
// because quit closed.
func (m *Miner) search(header *types.Header, lambda uint64, quit <-chan struct{}) bool {
	for {
		select {
		case <-quit:
			return false
		default:
		}

		attemptsCounter.Inc(1)
		if header.Hash().LessOrEqual(header.Difficulty) {
			return true
		}

		header.Nonce++
		if header.Nonce == 0 {
			// Nonce space exhausted for this timestamp; refresh it to open
			// a fresh search window.
			header.Timestamp = uint64(time.Now().UnixMilli())
		}

		if wait := pacingInterval(lambda); wait > 0 {
			select {
			case <-quit:
				return false
			case <-time.After(wait):
			}
		}
	}
}

// pacingInterval is the fixed delay to sleep after one proof-of-work attempt:
// lambda microseconds, or no delay at all when lambda is 0.
func pacingInterval(lambda uint64) time.Duration {
	return time.Duration(lambda) * time.Microsecond
}
