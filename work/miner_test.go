package work

import (
	"testing"
	"time"

	"github.com/lumenchain/lumenchain/blockchain"
	"github.com/lumenchain/lumenchain/blockchain/txpool/types"
	"github.com/lumenchain/lumenchain/gossip"
	"github.com/lumenchain/lumenchain/params"
)

type fakeServer struct {
	broadcast []gossip.Message
}

func (s *fakeServer) Peers() []gossip.PeerHandle { return nil }
func (s *fakeServer) Broadcast(msg gossip.Message) {
	s.broadcast = append(s.broadcast, msg)
}

func fillMempool(t *testing.T, chain *blockchain.Blockchain, n int) {
	t.Helper()
	accounts := blockchain.ICOAccounts()
	for i := 0; i < n; i++ {
		sender := accounts[i%len(accounts)]
		receiver := accounts[(i+1)%len(accounts)]
		raw := types.RawTransaction{From: sender.Address, To: receiver.Address, Value: 1, Nonce: 0}
		tx := types.Sign(raw, sender.Private, sender.Public)
		if !chain.InsertTxValidated(tx) {
			t.Fatalf("expected seed transaction %d to be accepted", i)
		}
	}
}

func waitFor(t *testing.T, fn func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestMinerMinesBlockWhenMempoolReady(t *testing.T) {
	chain := blockchain.New()
	// Distinct senders avoid nonce collisions across the batch so every
	// transaction is independently valid against genesis state.
	fillMempool(t, chain, params.MinBlockTxs)

	server := &fakeServer{}
	m := NewMiner(chain, server)
	go m.Run()
	defer m.Exit()

	m.Start(0)

	waitFor(t, func() bool {
		_, height := chain.TipData()
		return height >= 1
	})

	if len(server.broadcast) == 0 {
		t.Error("expected the miner to broadcast the newly mined block")
	}
}

func TestMinerStaysPausedBelowMinBlockTxs(t *testing.T) {
	chain := blockchain.New()
	fillMempool(t, chain, params.MinBlockTxs-1)

	server := &fakeServer{}
	m := NewMiner(chain, server)
	go m.Run()
	defer m.Exit()

	m.Start(0)
	time.Sleep(200 * time.Millisecond)

	_, height := chain.TipData()
	if height != 0 {
		t.Errorf("expected no block mined below MinBlockTxs, got height %d", height)
	}
}

func TestPacingIntervalIsDeterministicMicroseconds(t *testing.T) {
	cases := []struct {
		lambda uint64
		want   time.Duration
	}{
		{0, 0},
		{1, time.Microsecond},
		{500, 500 * time.Microsecond},
		{1_000_000, time.Second},
	}
	for _, c := range cases {
		if got := pacingInterval(c.lambda); got != c.want {
			t.Errorf("pacingInterval(%d) = %v, want %v", c.lambda, got, c.want)
		}
	}
}

func TestMinerWithLambdaSleepsPerAttempt(t *testing.T) {
	chain := blockchain.New()
	fillMempool(t, chain, params.MinBlockTxs)

	server := &fakeServer{}
	m := NewMiner(chain, server)
	go m.Run()
	defer m.Exit()

	// A large per-attempt sleep should keep the miner from completing a
	// search within a short, generous window, confirming lambda actually
	// paces attempts rather than being ignored.
	const lambda = 50_000 // 50ms per attempt
	start := time.Now()
	m.Start(lambda)
	time.Sleep(300 * time.Millisecond)

	_, height := chain.TipData()
	if height != 0 {
		t.Errorf("expected no block mined within %v given a %dus per-attempt pacing, got height %d", time.Since(start), lambda, height)
	}
}

func TestMinerExitStopsSearch(t *testing.T) {
	chain := blockchain.New()
	fillMempool(t, chain, params.MinBlockTxs)

	server := &fakeServer{}
	m := NewMiner(chain, server)
	go m.Run()

	m.Start(0)
	waitFor(t, func() bool {
		_, height := chain.TipData()
		return height >= 1
	})
	m.Exit()

	// After Exit, Run has returned and the control channel is abandoned;
	// this just confirms Exit doesn't hang or panic.
}
