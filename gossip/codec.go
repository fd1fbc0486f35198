// Copyright 2024 The lumenchain Authors
// This file is part of the lumenchain library.
//
// The lumenchain library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package gossip

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/lumenchain/lumenchain/common"
)

// wireEnvelope is the RLP-encoded body of a frame: the variant tag plus its
// payload, as one struct so a single rlp.Encode/Decode call handles framing.
type wireEnvelope struct {
	Code         uint8
	Nonce        string
	Hashes       [][]byte
	BlocksRLP    []byte // re-encoded []*types.Block, kept opaque here
	TxsRLP       []byte // re-encoded []*types.SignedTransaction, kept opaque here
}

// EncodeMessage serializes msg into a length-prefixed frame: a 4-byte
// little-endian length followed by that many bytes of RLP payload. The
// length lets a stream transport (out of scope here) know where one message
// ends and the next begins without parsing RLP twice.
func EncodeMessage(msg Message) ([]byte, error) {
	env := wireEnvelope{Code: uint8(msg.Code), Nonce: msg.Nonce}
	for _, h := range msg.Hashes {
		env.Hashes = append(env.Hashes, h.Bytes())
	}
	if msg.Blocks != nil {
		b, err := rlp.EncodeToBytes(msg.Blocks)
		if err != nil {
			return nil, fmt.Errorf("gossip: encode blocks: %w", err)
		}
		env.BlocksRLP = b
	}
	if msg.Transactions != nil {
		b, err := rlp.EncodeToBytes(msg.Transactions)
		if err != nil {
			return nil, fmt.Errorf("gossip: encode transactions: %w", err)
		}
		env.TxsRLP = b
	}

	body, err := rlp.EncodeToBytes(&env)
	if err != nil {
		return nil, fmt.Errorf("gossip: encode envelope: %w", err)
	}

	frame := make([]byte, 4+len(body))
	binary.LittleEndian.PutUint32(frame[:4], uint32(len(body)))
	copy(frame[4:], body)
	return frame, nil
}

// DecodeMessage parses a previously length-framed body (the 4-byte length
// prefix already stripped by the transport) back into a Message.
func DecodeMessage(body []byte) (Message, error) {
	var env wireEnvelope
	if err := rlp.DecodeBytes(body, &env); err != nil {
		return Message{}, fmt.Errorf("gossip: decode envelope: %w", err)
	}

	msg := Message{Code: Code(env.Code), Nonce: env.Nonce}
	for _, b := range env.Hashes {
		msg.Hashes = append(msg.Hashes, common.BytesToHash(b))
	}
	if len(env.BlocksRLP) > 0 {
		if err := rlp.DecodeBytes(env.BlocksRLP, &msg.Blocks); err != nil {
			return Message{}, fmt.Errorf("gossip: decode blocks: %w", err)
		}
	}
	if len(env.TxsRLP) > 0 {
		if err := rlp.DecodeBytes(env.TxsRLP, &msg.Transactions); err != nil {
			return Message{}, fmt.Errorf("gossip: decode transactions: %w", err)
		}
	}
	return msg, nil
}

// ReadFrame reads one length-prefixed frame's body from r.
func ReadFrame(r io.Reader) ([]byte, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, err
	}
	n := binary.LittleEndian.Uint32(lenBuf[:])
	const maxFrame = 32 << 20 // 32MiB: generous for a batch of blocks, still bounded
	if n > maxFrame {
		return nil, fmt.Errorf("gossip: frame too large: %d bytes", n)
	}
	body := make([]byte, n)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, err
	}
	return body, nil
}
