package gossip

import (
	"sync"
	"testing"
	"time"

	"github.com/lumenchain/lumenchain/blockchain"
	"github.com/lumenchain/lumenchain/blockchain/txpool/types"
	"github.com/lumenchain/lumenchain/common"
	"github.com/lumenchain/lumenchain/params"
)

// fakePeer records every message sent to it, for assertions.
type fakePeer struct {
	id string

	mu  sync.Mutex
	out []Message
}

func newFakePeer(id string) *fakePeer { return &fakePeer{id: id} }

func (p *fakePeer) ID() string { return p.id }

func (p *fakePeer) Send(msg Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.out = append(p.out, msg)
	return nil
}

func (p *fakePeer) sent() []Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Message, len(p.out))
	copy(out, p.out)
	return out
}

// fakeServer records every broadcast.
type fakeServer struct {
	mu        sync.Mutex
	peers     []PeerHandle
	broadcast []Message
}

func (s *fakeServer) Peers() []PeerHandle { return s.peers }

func (s *fakeServer) Broadcast(msg Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.broadcast = append(s.broadcast, msg)
}

func (s *fakeServer) broadcasts() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.broadcast))
	copy(out, s.broadcast)
	return out
}

func mineHeader(header *types.Header) {
	for !header.Hash().LessOrEqual(header.Difficulty) {
		header.Nonce++
	}
}

func buildBlock(parent common.Hash) *types.Block {
	header := &types.Header{Parent: parent, Difficulty: params.GenesisDifficulty}
	block := &types.Block{Header: header}
	header.MerkleRoot = block.ComputeMerkleRoot()
	mineHeader(header)
	return block
}

// waitFor polls fn until it returns true or the deadline passes, since the
// worker pool dispatches asynchronously.
func waitFor(t *testing.T, fn func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestWorkerPoolRepliesToPing(t *testing.T) {
	chain := blockchain.New()
	server := &fakeServer{}
	pool := NewWorkerPool(2, 16, chain, server)
	pool.Start()
	defer pool.Stop()

	peer := newFakePeer("p1")
	pool.Submit(peer, Ping("abc"))

	waitFor(t, func() bool { return len(peer.sent()) == 1 })
	got := peer.sent()[0]
	if got.Code != PongCode || got.Nonce != "abc" {
		t.Errorf("expected Pong(abc) reply, got %+v", got)
	}
}

func TestWorkerPoolRequestsUnknownBlocks(t *testing.T) {
	chain := blockchain.New()
	server := &fakeServer{}
	pool := NewWorkerPool(1, 16, chain, server)
	pool.Start()
	defer pool.Stop()

	peer := newFakePeer("p1")
	unknown := common.HexToHash("0x00000000000000000000000000000000000000000000000000000000000099")
	pool.Submit(peer, NewBlockHashes([]common.Hash{unknown}))

	waitFor(t, func() bool { return len(peer.sent()) == 1 })
	got := peer.sent()[0]
	if got.Code != GetBlocksCode || len(got.Hashes) != 1 || got.Hashes[0] != unknown {
		t.Errorf("expected GetBlocks([unknown]), got %+v", got)
	}
}

func TestWorkerPoolInsertsBlocksAndRebroadcasts(t *testing.T) {
	chain := blockchain.New()
	server := &fakeServer{}
	pool := NewWorkerPool(1, 16, chain, server)
	pool.Start()
	defer pool.Stop()

	block := buildBlock(chain.TipHash())
	peer := newFakePeer("p1")
	pool.Submit(peer, Blocks([]*types.Block{block}))

	waitFor(t, func() bool { return len(server.broadcasts()) == 1 })
	got := server.broadcasts()[0]
	if got.Code != NewBlockHashesCode || len(got.Hashes) != 1 || got.Hashes[0] != block.Hash() {
		t.Errorf("expected re-broadcast of the new block hash, got %+v", got)
	}
	if _, _, _, ok := chain.Lookup(block.Hash()); !ok {
		t.Error("expected the block to be present in the chain after dispatch")
	}
}

func TestWorkerPoolDoesNotRebroadcastAlreadyKnownBlock(t *testing.T) {
	chain := blockchain.New()
	server := &fakeServer{}
	pool := NewWorkerPool(1, 16, chain, server)
	pool.Start()
	defer pool.Stop()

	block := buildBlock(chain.TipHash())
	chain.InsertBlockValidated(block) // already known before gossip sees it

	peer := newFakePeer("p1")
	pool.Submit(peer, Blocks([]*types.Block{block}))
	pool.Submit(peer, Ping("sentinel")) // drains after the Blocks message on a single worker

	waitFor(t, func() bool { return len(peer.sent()) == 1 })
	if len(server.broadcasts()) != 0 {
		t.Errorf("expected no re-broadcast of an already-known block, got %v", server.broadcasts())
	}
}

func TestWorkerPoolGetBlocksRepliesWithPresentOnly(t *testing.T) {
	chain := blockchain.New()
	server := &fakeServer{}
	pool := NewWorkerPool(1, 16, chain, server)
	pool.Start()
	defer pool.Stop()

	peer := newFakePeer("p1")
	unknown := common.HexToHash("0x00000000000000000000000000000000000000000000000000000000000042")
	pool.Submit(peer, GetBlocks([]common.Hash{chain.TipHash(), unknown}))

	waitFor(t, func() bool { return len(peer.sent()) == 1 })
	got := peer.sent()[0]
	if got.Code != BlocksCode || len(got.Blocks) != 1 {
		t.Errorf("expected exactly one known block in reply, got %+v", got)
	}
}
