// Copyright 2024 The lumenchain Authors
// This file is part of the lumenchain library.
//
// The lumenchain library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package txgen is the transaction generator: it manufactures value-1
// transfers between the ten ICO accounts in round-robin sender order,
// deliberately mis-signing one in eight so the unauthentic-rejection path
// gets routine exercise rather than only unit-test coverage.
package txgen

import (
	"fmt"
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/lumenchain/lumenchain/blockchain"
	"github.com/lumenchain/lumenchain/blockchain/txpool/types"
	"github.com/lumenchain/lumenchain/common"
	"github.com/lumenchain/lumenchain/gossip"
	"github.com/lumenchain/lumenchain/log"
	"github.com/lumenchain/lumenchain/metrics"
)

var logger = log.NewModuleLogger(log.ModuleTxGen)

var (
	generatedCounter = metrics.NewRegisteredCounter("txgen/generated", nil)
	rejectedCounter  = metrics.NewRegisteredCounter("txgen/rejected", nil)
)

// unauthenticOdds is the original's 1-in-8 probability of signing with the
// receiver's key instead of the sender's, producing a transaction that fails
// Authentic() unless the randomly drawn receiver is the sender itself.
const unauthenticOdds = 8

// Generator produces and submits one transaction at a time, either on a
// timer (Run) or on demand (GenerateOne, used by the HTTP control surface).
type Generator struct {
	chain    *blockchain.Blockchain
	server   gossip.Server
	accounts []blockchain.ICOAccount

	next uint64 // round-robin sender cursor, advanced atomically
}

// NewGenerator builds a generator over chain's genesis ICO accounts.
func NewGenerator(chain *blockchain.Blockchain, server gossip.Server) *Generator {
	return &Generator{
		chain:    chain,
		server:   server,
		accounts: blockchain.ICOAccounts(),
	}
}

// Run submits one transaction every interval until stop is closed.
func (g *Generator) Run(interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if err := g.GenerateOne(); err != nil {
				logger.Debug("generated transaction not accepted", "err", err)
			}
		}
	}
}

// GenerateOne builds, signs, and submits a single transaction, broadcasting
// it on acceptance. It returns an error iff the engine rejected it (either
// because the deliberate mis-signing triggered, or because the sender's
// account state had already moved on).
func (g *Generator) GenerateOne() error {
	senderIdx := atomic.AddUint64(&g.next, 1) - 1
	sender := g.accounts[int(senderIdx)%len(g.accounts)]
	receiver := g.accounts[rand.Intn(len(g.accounts))]

	var nonce uint32
	g.chain.ReadLocked(func(view blockchain.ReadView) {
		nonce = view.TipState[sender.Address].Nonce
	})

	raw := types.RawTransaction{
		From:  sender.Address,
		To:    receiver.Address,
		Value: 1,
		Nonce: nonce,
	}

	signer := sender
	if rand.Intn(unauthenticOdds) == 0 {
		signer = receiver // wrong key on purpose unless receiver == sender
	}
	tx := types.Sign(raw, signer.Private, signer.Public)

	generatedCounter.Inc(1)
	if !g.chain.InsertTxValidated(tx) {
		rejectedCounter.Inc(1)
		return fmt.Errorf("txgen: transaction %s rejected", tx.Hash())
	}

	g.server.Broadcast(gossip.NewTransactionHashes([]common.Hash{tx.Hash()}))
	logger.Debug("generated transaction", "hash", tx.Hash(), "from", sender.Address, "to", receiver.Address)
	return nil
}
