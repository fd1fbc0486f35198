// Copyright 2024 The lumenchain Authors
// This file is part of the lumenchain library.
//
// The lumenchain library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package gossip is the worker pool that dispatches deserialized peer
// messages over the shared blockchain engine: the hash-announce /
// pull-body pattern for blocks and transactions, with re-broadcast on
// novelty. Message framing is a small numeric variant tag plus an
// RLP-encoded payload, length-prefixed for transport framing.
package gossip

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/lumenchain/lumenchain/blockchain/txpool/types"
	"github.com/lumenchain/lumenchain/common"
)

// Code identifies a message's variant on the wire.
type Code byte

const (
	PingCode Code = iota
	PongCode
	NewBlockHashesCode
	NewTransactionHashesCode
	GetBlocksCode
	GetTransactionsCode
	BlocksCode
	TransactionsCode
)

func (c Code) String() string {
	switch c {
	case PingCode:
		return "Ping"
	case PongCode:
		return "Pong"
	case NewBlockHashesCode:
		return "NewBlockHashes"
	case NewTransactionHashesCode:
		return "NewTransactionHashes"
	case GetBlocksCode:
		return "GetBlocks"
	case GetTransactionsCode:
		return "GetTransactions"
	case BlocksCode:
		return "Blocks"
	case TransactionsCode:
		return "Transactions"
	default:
		return "Unknown"
	}
}

// Message is a tagged union. Exactly one payload field is
// populated, selected by Code; the others are the zero value. A struct of
// optional fields (rather than an interface{}) keeps the type RLP-encodable
// without a custom discriminated-union encoder.
type Message struct {
	Code Code

	Nonce string // Ping, Pong

	Hashes []common.Hash // NewBlockHashes, NewTransactionHashes, GetBlocks, GetTransactions

	Blocks       []*types.Block              // Blocks
	Transactions []*types.SignedTransaction // Transactions
}

func Ping(nonce string) Message { return Message{Code: PingCode, Nonce: nonce} }
func Pong(nonce string) Message { return Message{Code: PongCode, Nonce: nonce} }

// RandomNonce generates the per-ping nonce used to correlate a Pong with its
// Ping and to give each liveness check a distinct log line.
func RandomNonce() string {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b[:])
}

func NewBlockHashes(hashes []common.Hash) Message {
	return Message{Code: NewBlockHashesCode, Hashes: hashes}
}

func NewTransactionHashes(hashes []common.Hash) Message {
	return Message{Code: NewTransactionHashesCode, Hashes: hashes}
}

func GetBlocks(hashes []common.Hash) Message {
	return Message{Code: GetBlocksCode, Hashes: hashes}
}

func GetTransactions(hashes []common.Hash) Message {
	return Message{Code: GetTransactionsCode, Hashes: hashes}
}

func Blocks(blocks []*types.Block) Message {
	return Message{Code: BlocksCode, Blocks: blocks}
}

func Transactions(txs []*types.SignedTransaction) Message {
	return Message{Code: TransactionsCode, Transactions: txs}
}

// PeerHandle is a single connected peer the worker pool can reply to
// directly. Implemented by the (out-of-scope) network transport.
type PeerHandle interface {
	ID() string
	Send(msg Message) error
}

// Server addresses every connected peer, for broadcast-on-novelty.
// Implemented by the (out-of-scope) network transport.
type Server interface {
	Peers() []PeerHandle
	Broadcast(msg Message)
}

// Inbound is one received message paired with the peer it arrived from,
// the unit of work the shared queue carries to the worker pool.
type Inbound struct {
	Peer PeerHandle
	Msg  Message
}
