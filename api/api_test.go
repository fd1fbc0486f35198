package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lumenchain/lumenchain/blockchain"
	"github.com/lumenchain/lumenchain/gossip"
	"github.com/lumenchain/lumenchain/txgen"
	"github.com/lumenchain/lumenchain/work"
)

type fakeServer struct {
	broadcast []gossip.Message
}

func (s *fakeServer) Peers() []gossip.PeerHandle { return nil }
func (s *fakeServer) Broadcast(msg gossip.Message) {
	s.broadcast = append(s.broadcast, msg)
}

func newTestServer() (*Server, *blockchain.Blockchain, *fakeServer) {
	chain := blockchain.New()
	server := &fakeServer{}
	miner := work.NewMiner(chain, server)
	go miner.Run()
	generator := txgen.NewGenerator(chain, server)
	return New(chain, miner, generator, server), chain, server
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) response {
	t.Helper()
	var body response
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
	return body
}

func TestMinerStartAndExit(t *testing.T) {
	s, _, _ := newTestServer()

	req := httptest.NewRequest(http.MethodGet, "/miner/start?lambda=5", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if body := decodeResponse(t, rec); !body.Success {
		t.Errorf("expected success, got %+v", body)
	}

	req = httptest.NewRequest(http.MethodGet, "/miner/exit", nil)
	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	if body := decodeResponse(t, rec); !body.Success {
		t.Errorf("expected success on exit, got %+v", body)
	}
}

func TestMinerStartDefaultsLambdaOnBadInput(t *testing.T) {
	s, _, _ := newTestServer()
	defer s.miner.Exit()

	req := httptest.NewRequest(http.MethodGet, "/miner/start?lambda=not-a-number", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := decodeResponse(t, rec)
	if !body.Success {
		t.Errorf("expected success even with a malformed lambda, got %+v", body)
	}
}

func TestTxGen(t *testing.T) {
	s, _, server := newTestServer()
	defer s.miner.Exit()

	req := httptest.NewRequest(http.MethodGet, "/tx_gen", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := decodeResponse(t, rec)
	if body.Success && len(server.broadcast) == 0 {
		t.Error("expected a broadcast when generation succeeds")
	}
}

func TestNetworkPing(t *testing.T) {
	s, _, server := newTestServer()
	defer s.miner.Exit()

	req := httptest.NewRequest(http.MethodGet, "/network/ping", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := decodeResponse(t, rec)
	if !body.Success {
		t.Errorf("expected success, got %+v", body)
	}
	if len(server.broadcast) != 1 || server.broadcast[0].Code != gossip.PingCode {
		t.Errorf("expected exactly one Ping broadcast, got %+v", server.broadcast)
	}
}

func TestNetworkPingWithNoNetworkConfigured(t *testing.T) {
	chain := blockchain.New()
	server := &fakeServer{}
	miner := work.NewMiner(chain, server)
	go miner.Run()
	defer miner.Exit()
	generator := txgen.NewGenerator(chain, server)
	s := New(chain, miner, generator, nil)

	req := httptest.NewRequest(http.MethodGet, "/network/ping", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	body := decodeResponse(t, rec)
	if body.Success {
		t.Error("expected failure when no network server is configured")
	}
}

func TestStatus(t *testing.T) {
	s, _, _ := newTestServer()
	defer s.miner.Exit()

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/plain; charset=utf-8" {
		t.Errorf("expected plain text content type, got %q", ct)
	}
	if rec.Body.Len() == 0 {
		t.Error("expected a non-empty status dump")
	}
}

func TestUnknownEndpointReturns404(t *testing.T) {
	s, _, _ := newTestServer()
	defer s.miner.Exit()

	req := httptest.NewRequest(http.MethodGet, "/nonexistent", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	body := decodeResponse(t, rec)
	if body.Success {
		t.Error("expected failure envelope for unknown endpoint")
	}
}
