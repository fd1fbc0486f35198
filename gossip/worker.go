// Copyright 2024 The lumenchain Authors
// This file is part of the lumenchain library.
//
// The lumenchain library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package gossip

import (
	"sync"

	"github.com/lumenchain/lumenchain/blockchain"
	"github.com/lumenchain/lumenchain/common"
	"github.com/lumenchain/lumenchain/log"
	"github.com/lumenchain/lumenchain/metrics"
)

var logger = log.NewModuleLogger(log.ModuleGossip)

var dispatchedCounter = metrics.NewRegisteredCounter("gossip/dispatched", nil)

// requestCacheSize bounds the "already asked for this hash" dedup caches. A
// hash stays in a cache until evicted, and while it is there it is not
// requested again.
const requestCacheSize = 4096

// WorkerPool is the multi-worker message dispatcher: N workers drain a
// single shared inbound queue, each message handled start-to-finish
// by whichever worker picks it up. Every message's engine interaction is
// serialized by the Blockchain's own mutex; workers never hold any lock of
// their own across a network send.
type WorkerPool struct {
	n       int
	chain   *blockchain.Blockchain
	server  Server
	inbound chan Inbound

	requestedBlocks *common.HashCache
	requestedTxs    *common.HashCache

	quit chan struct{}
	wg   sync.WaitGroup
}

// NewWorkerPool builds a pool of n workers sharing chain and server. queue
// is the inbound message queue's capacity; it should be sized generously
// rather than relied upon for backpressure.
func NewWorkerPool(n int, queue int, chain *blockchain.Blockchain, server Server) *WorkerPool {
	if n < 1 {
		n = 1
	}
	return &WorkerPool{
		n:               n,
		chain:           chain,
		server:          server,
		inbound:         make(chan Inbound, queue),
		requestedBlocks: common.NewHashCache(requestCacheSize),
		requestedTxs:    common.NewHashCache(requestCacheSize),
		quit:            make(chan struct{}),
	}
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start() {
	for i := 0; i < wp.n; i++ {
		wp.wg.Add(1)
		go wp.run()
	}
}

// Stop signals every worker to exit and waits for them to return. Messages
// still queued at that point are not dispatched.
func (wp *WorkerPool) Stop() {
	close(wp.quit)
	wp.wg.Wait()
}

// Submit enqueues one received message for dispatch; called by the network
// transport as bytes arrive and are decoded into a Message.
func (wp *WorkerPool) Submit(peer PeerHandle, msg Message) {
	select {
	case wp.inbound <- Inbound{Peer: peer, Msg: msg}:
	case <-wp.quit:
	}
}

func (wp *WorkerPool) run() {
	defer wp.wg.Done()
	for {
		select {
		case <-wp.quit:
			return
		case in := <-wp.inbound:
			wp.handle(in.Peer, in.Msg)
		}
	}
}

func (wp *WorkerPool) handle(peer PeerHandle, msg Message) {
	dispatchedCounter.Inc(1)
	switch msg.Code {
	case PingCode:
		wp.handlePing(peer, msg)
	case PongCode:
		logger.Debug("pong received", "peer", peer.ID())
	case NewBlockHashesCode:
		wp.handleNewBlockHashes(peer, msg)
	case GetBlocksCode:
		wp.handleGetBlocks(peer, msg)
	case BlocksCode:
		wp.handleBlocks(msg)
	case NewTransactionHashesCode:
		wp.handleNewTransactionHashes(peer, msg)
	case GetTransactionsCode:
		wp.handleGetTransactions(peer, msg)
	case TransactionsCode:
		wp.handleTransactions(msg)
	default:
		logger.Warn("dropping message with unknown code", "code", msg.Code, "peer", peer.ID())
	}
}

func (wp *WorkerPool) handlePing(peer PeerHandle, msg Message) {
	if err := peer.Send(Pong(msg.Nonce)); err != nil {
		logger.Warn("failed to reply to ping", "peer", peer.ID(), "err", err)
	}
}

func (wp *WorkerPool) handleNewBlockHashes(peer PeerHandle, msg Message) {
	unknown := wp.chain.FilterUnknownBlocks(msg.Hashes)
	unknown = wp.dedupRequested(wp.requestedBlocks, unknown)
	if len(unknown) == 0 {
		return
	}
	if err := peer.Send(GetBlocks(unknown)); err != nil {
		logger.Warn("failed to request blocks", "peer", peer.ID(), "err", err)
	}
}

func (wp *WorkerPool) handleGetBlocks(peer PeerHandle, msg Message) {
	blocks := wp.chain.FetchBlocks(msg.Hashes)
	if err := peer.Send(Blocks(blocks)); err != nil {
		logger.Warn("failed to send blocks", "peer", peer.ID(), "err", err)
	}
}

func (wp *WorkerPool) handleBlocks(msg Message) {
	var novelty []common.Hash
	for _, b := range msg.Blocks {
		novelty = append(novelty, wp.chain.InsertBlockValidated(b)...)
	}
	if len(novelty) > 0 {
		wp.server.Broadcast(NewBlockHashes(novelty))
	}
}

func (wp *WorkerPool) handleNewTransactionHashes(peer PeerHandle, msg Message) {
	unknown := wp.chain.FilterUnknownTxs(msg.Hashes)
	unknown = wp.dedupRequested(wp.requestedTxs, unknown)
	if len(unknown) == 0 {
		return
	}
	if err := peer.Send(GetTransactions(unknown)); err != nil {
		logger.Warn("failed to request transactions", "peer", peer.ID(), "err", err)
	}
}

func (wp *WorkerPool) handleGetTransactions(peer PeerHandle, msg Message) {
	txs := wp.chain.FetchTxs(msg.Hashes)
	if err := peer.Send(Transactions(txs)); err != nil {
		logger.Warn("failed to send transactions", "peer", peer.ID(), "err", err)
	}
}

func (wp *WorkerPool) handleTransactions(msg Message) {
	var novel []common.Hash
	for _, tx := range msg.Transactions {
		if wp.chain.InsertTxValidated(tx) {
			novel = append(novel, tx.Hash())
		}
	}
	if len(novel) > 0 {
		wp.server.Broadcast(NewTransactionHashes(novel))
	}
}

// dedupRequested drops hashes already recently requested, recording the rest
// as now-requested. A dropped hash is not requested again even when it is
// still unknown, for example because the earlier request was never
// answered; it becomes requestable again only once evicted from the cache.
func (wp *WorkerPool) dedupRequested(cache *common.HashCache, hashes []common.Hash) []common.Hash {
	var fresh []common.Hash
	for _, h := range hashes {
		if cache.Contains(h) {
			continue
		}
		cache.Add(h)
		fresh = append(fresh, h)
	}
	return fresh
}
