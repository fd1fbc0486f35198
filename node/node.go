// Copyright 2024 The lumenchain Authors
// This file is part of the lumenchain library.
//
// The lumenchain library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package node wires the engine, gossip workers, miner, transaction
// generator, network transport, and HTTP control surface into one running
// process. There is no account manager, no RPC module registry, and no
// on-disk database to open — everything lives for the process lifetime.
package node

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/naoina/toml"

	"github.com/lumenchain/lumenchain/api"
	"github.com/lumenchain/lumenchain/blockchain"
	"github.com/lumenchain/lumenchain/event"
	"github.com/lumenchain/lumenchain/gossip"
	"github.com/lumenchain/lumenchain/log"
	"github.com/lumenchain/lumenchain/network"
	"github.com/lumenchain/lumenchain/txgen"
	"github.com/lumenchain/lumenchain/work"
)

var logger = log.NewModuleLogger(log.ModuleNode)

// Config is the node's static configuration, loadable from a TOML file;
// just the handful of settings this node needs.
type Config struct {
	ListenAddr    string   `toml:"ListenAddr"`
	SeedPeers     []string `toml:"SeedPeers"`
	HTTPAddr      string   `toml:"HTTPAddr"`
	GossipWorkers int      `toml:"GossipWorkers"`
	TxGenInterval Duration `toml:"TxGenInterval"`
}

// Duration wraps time.Duration with TOML text (un)marshaling, since naoina/toml
// has no built-in support for Go durations.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalTOML(data []byte) error {
	s := string(data)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

// DefaultConfig is a package-level default value callers start from and
// override.
var DefaultConfig = Config{
	ListenAddr:    ":30900",
	HTTPAddr:      ":8090",
	GossipWorkers: 4,
	TxGenInterval: Duration{5 * time.Second},
}

// LoadConfig decodes a TOML file into DefaultConfig's shape.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig
	f, err := os.Open(path)
	if err != nil {
		return cfg, err
	}
	defer f.Close()
	if err := toml.NewDecoder(f).Decode(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Node is the assembled process: every component sharing the one Blockchain
// engine and network Server.
type Node struct {
	cfg Config

	Chain     *blockchain.Blockchain
	Gossip    *gossip.WorkerPool
	Network   *network.Server
	Miner     *work.Miner
	Generator *txgen.Generator
	API       *api.Server

	httpServer *http.Server
	txgenStop  chan struct{}
	tipEvents  chan interface{}
	tipSub     *event.Subscription
}

// New constructs every component and wires them together, but starts
// nothing; call Start to bring the node up.
func New(cfg Config) *Node {
	chain := blockchain.New()

	netServer := network.NewServer()
	pool := gossip.NewWorkerPool(cfg.GossipWorkers, 256, chain, netServer)
	netServer.SetPool(pool)

	miner := work.NewMiner(chain, netServer)
	generator := txgen.NewGenerator(chain, netServer)
	apiServer := api.New(chain, miner, generator, netServer)

	return &Node{
		cfg:       cfg,
		Chain:     chain,
		Gossip:    pool,
		Network:   netServer,
		Miner:     miner,
		Generator: generator,
		API:       apiServer,
		txgenStop: make(chan struct{}),
		tipEvents: make(chan interface{}, 16),
	}
}

// Start brings every background component up: the gossip workers, the miner
// control loop, the transaction generator's timer, the TCP listener, seed
// dials, and the HTTP control surface.
func (n *Node) Start() error {
	n.Gossip.Start()
	go n.Miner.Run()
	go n.Generator.Run(n.cfg.TxGenInterval.Duration, n.txgenStop)

	n.tipSub = n.Chain.SubscribeTipAdvanced(n.tipEvents)
	go n.logTipAdvances()

	if err := n.Network.Listen(n.cfg.ListenAddr); err != nil {
		return err
	}
	for _, seed := range n.cfg.SeedPeers {
		if err := n.Network.Dial(seed); err != nil {
			logger.Warn("failed to dial seed peer", "addr", seed, "err", err)
		}
	}

	n.httpServer = &http.Server{Addr: n.cfg.HTTPAddr, Handler: n.API}
	go func() {
		if err := n.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http control surface stopped", "err", err)
		}
	}()

	logger.Info("node started", "listen", n.cfg.ListenAddr, "http", n.cfg.HTTPAddr)
	return nil
}

// logTipAdvances drains the chain's tip-advance feed for as long as the
// subscription is live, logging each one at info level for status visibility
// independent of the HTTP /status endpoint.
func (n *Node) logTipAdvances() {
	for {
		select {
		case <-n.tipSub.Err():
			return
		case v := <-n.tipEvents:
			tip := v.(blockchain.TipAdvanced)
			logger.Info("observed tip advance", "hash", tip.Hash, "height", tip.Height)
		}
	}
}

// Stop tears the node down: HTTP server, transaction generator, miner,
// gossip workers, and network transport, in that order.
func (n *Node) Stop() {
	if n.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		n.httpServer.Shutdown(ctx)
	}
	close(n.txgenStop)
	n.Miner.Exit()
	n.Gossip.Stop()
	n.Network.Close()
	if n.tipSub != nil {
		n.tipSub.Unsubscribe()
	}
	logger.Info("node stopped")
}
