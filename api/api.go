// Copyright 2024 The lumenchain Authors
// This file is part of the lumenchain library.
//
// The lumenchain library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package api is the HTTP control surface: start/stop the miner, trigger the
// transaction generator, ping the network, and dump node status. Routing
// uses httprouter.
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/julienschmidt/httprouter"

	"github.com/lumenchain/lumenchain/blockchain"
	"github.com/lumenchain/lumenchain/gossip"
	"github.com/lumenchain/lumenchain/log"
	"github.com/lumenchain/lumenchain/txgen"
	"github.com/lumenchain/lumenchain/work"
)

var logger = log.NewModuleLogger(log.ModuleAPI)

// response is the JSON envelope every endpoint but /status returns.
type response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Server wires the control endpoints to the engine, miner, generator, and
// network server.
type Server struct {
	chain     *blockchain.Blockchain
	miner     *work.Miner
	generator *txgen.Generator
	network   gossip.Server

	router *httprouter.Router
}

// New builds the control surface. network may be nil, in which case
// /network/ping reports failure instead of broadcasting.
func New(chain *blockchain.Blockchain, miner *work.Miner, generator *txgen.Generator, network gossip.Server) *Server {
	s := &Server{
		chain:     chain,
		miner:     miner,
		generator: generator,
		network:   network,
		router:    httprouter.New(),
	}
	s.router.GET("/miner/start", s.handleMinerStart)
	s.router.GET("/miner/exit", s.handleMinerExit)
	s.router.GET("/tx_gen", s.handleTxGen)
	s.router.GET("/status", s.handleStatus)
	s.router.GET("/network/ping", s.handleNetworkPing)
	s.router.NotFound = http.HandlerFunc(s.handleNotFound)
	return s
}

// ServeHTTP makes Server an http.Handler, ready for http.ListenAndServe.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleMinerStart(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	lambda, err := strconv.ParseUint(r.URL.Query().Get("lambda"), 10, 64)
	if err != nil {
		lambda = 0
	}
	s.miner.Start(lambda)
	logger.Info("miner started via api", "lambda", lambda)
	writeJSON(w, http.StatusOK, response{Success: true, Message: fmt.Sprintf("miner running at lambda=%d", lambda)})
}

func (s *Server) handleMinerExit(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	s.miner.Exit()
	logger.Info("miner stopped via api")
	writeJSON(w, http.StatusOK, response{Success: true, Message: "miner stopped"})
}

func (s *Server) handleTxGen(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if err := s.generator.GenerateOne(); err != nil {
		writeJSON(w, http.StatusOK, response{Success: false, Message: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, response{Success: true, Message: "transaction generated"})
}

func (s *Server) handleNetworkPing(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if s.network == nil {
		writeJSON(w, http.StatusOK, response{Success: false, Message: "no network server configured"})
		return
	}
	s.network.Broadcast(gossip.Ping(gossip.RandomNonce()))
	writeJSON(w, http.StatusOK, response{Success: true, Message: "ping broadcast"})
}

// handleStatus writes the plain-text node dump: block count, tip
// height/hash, mempool entries, and the full ledger sorted by address.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	fmt.Fprintf(w, "blocks: %d\n", s.chain.BlockCount())

	s.chain.ReadLocked(func(view blockchain.ReadView) {
		fmt.Fprintf(w, "tip: height=%d hash=%s\n", view.TipHeight, view.Tip.Hex())

		fmt.Fprintf(w, "mempool (%d):\n", len(view.Mempool))
		for hash, tx := range view.Mempool {
			fmt.Fprintf(w, "  %s from=%s to=%s value=%d nonce=%d\n",
				hash.Hex(), tx.Raw.From.Hex(), tx.Raw.To.Hex(), tx.Raw.Value, tx.Raw.Nonce)
		}

		fmt.Fprintf(w, "ledger (%d):\n", len(view.TipState))
		for _, addr := range view.TipState.SortedAddresses() {
			info := view.TipState[addr]
			fmt.Fprintf(w, "  %s nonce=%d balance=%d\n", addr.Hex(), info.Nonce, info.Balance)
		}
	})
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, response{Success: false, Message: "unknown endpoint: " + r.URL.Path})
}

func writeJSON(w http.ResponseWriter, status int, body response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Warn("failed to write response", "err", err)
	}
}
