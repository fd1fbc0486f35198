// Copyright 2024 The lumenchain Authors
// This file is part of the lumenchain library.
//
// The lumenchain library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package params holds the node's fixed, implementation-wide constants:
// genesis difficulty, block assembly bounds, and the ICO allocation table.
// None of these are negotiated or adjusted at runtime: there is no
// difficulty retargeting and no fee market.
package params

import "github.com/lumenchain/lumenchain/common"

const (
	// MaxBlockTxs caps how many mempool transactions the miner packs into a
	// single candidate block.
	MaxBlockTxs = 7
	// MinBlockTxs is the minimum the miner requires before it will start a
	// proof-of-work search; short of this it yields and retries later.
	MinBlockTxs = 5
	// ICOAccountCount is the number of deterministic genesis accounts.
	ICOAccountCount = 10
	// ICOBalanceUnit: account i receives ICOBalanceUnit * (ICOAccountCount - i).
	ICOBalanceUnit = 1000
)

// GenesisDifficulty is the fixed, implementation-wide proof-of-work target.
// A block hash must be lexicographically <= this to be accepted. It is
// deliberately generous for a CPU miner running without custom ASIC
// hardware: only the top two bytes need to be zero, so roughly one in
// 2^16 random hashes qualifies.
var GenesisDifficulty = common.Hash{
	0x00, 0x00, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
	0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
	0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
	0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
}
