// Copyright 2024 The lumenchain Authors
// This file is part of the lumenchain library.
//
// The lumenchain library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Command lumenchain is the node's entry point: an urfave/cli app with
// flags overriding node.DefaultConfig, a start action, and a signal-driven
// graceful shutdown.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/urfave/cli"

	"github.com/lumenchain/lumenchain/log"
	"github.com/lumenchain/lumenchain/node"
)

var logger = log.NewModuleLogger(log.ModuleMain)

var (
	listenFlag = cli.StringFlag{
		Name:  "listen",
		Usage: "P2P listen address",
		Value: node.DefaultConfig.ListenAddr,
	}
	httpFlag = cli.StringFlag{
		Name:  "http",
		Usage: "HTTP control surface address",
		Value: node.DefaultConfig.HTTPAddr,
	}
	seedsFlag = cli.StringFlag{
		Name:  "seeds",
		Usage: "comma-separated list of seed peer addresses to dial at startup",
	}
	workersFlag = cli.IntFlag{
		Name:  "workers",
		Usage: "number of gossip dispatch workers",
		Value: node.DefaultConfig.GossipWorkers,
	}
	configFlag = cli.StringFlag{
		Name:  "config",
		Usage: "TOML configuration file (flags set on the command line override its values)",
	}
)

func main() {
	app := cli.NewApp()
	app.Name = "lumenchain"
	app.Usage = "a proof-of-work, account-model blockchain node"
	app.Flags = []cli.Flag{listenFlag, httpFlag, seedsFlag, workersFlag, configFlag}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "lumenchain: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx *cli.Context) error {
	cfg := node.DefaultConfig
	if path := ctx.String(configFlag.Name); path != "" {
		loaded, err := node.LoadConfig(path)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}
	if ctx.IsSet(listenFlag.Name) {
		cfg.ListenAddr = ctx.String(listenFlag.Name)
	}
	if ctx.IsSet(httpFlag.Name) {
		cfg.HTTPAddr = ctx.String(httpFlag.Name)
	}
	if ctx.IsSet(workersFlag.Name) {
		cfg.GossipWorkers = ctx.Int(workersFlag.Name)
	}
	if seeds := ctx.String(seedsFlag.Name); seeds != "" {
		cfg.SeedPeers = strings.Split(seeds, ",")
	}

	n := node.New(cfg)
	if err := n.Start(); err != nil {
		return fmt.Errorf("start node: %w", err)
	}

	waitForShutdown()
	n.Stop()
	return nil
}

func waitForShutdown() {
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigc)
	<-sigc
	logger.Info("received interrupt, shutting down")
}
