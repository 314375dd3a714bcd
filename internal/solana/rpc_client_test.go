package solana

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestHTTPClient_GetLatestBlockhash(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}

		if req.Method != "getLatestBlockhash" {
			t.Errorf("expected method getLatestBlockhash, got %s", req.Method)
		}

		resp := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result": map[string]interface{}{
				"value": map[string]interface{}{
					"blockhash":            "EkSnNWid2cvwEVnVx9aBqawnmiCNiDgp3gUdkDPTKN1N",
					"lastValidBlockHeight": uint64(3090),
				},
			},
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL)
	ctx := context.Background()

	bh, err := client.GetLatestBlockhash(ctx)
	if err != nil {
		t.Fatalf("GetLatestBlockhash: %v", err)
	}

	if bh.Blockhash != "EkSnNWid2cvwEVnVx9aBqawnmiCNiDgp3gUdkDPTKN1N" {
		t.Errorf("unexpected blockhash %s", bh.Blockhash)
	}

	if bh.LastValidBlockHeight != 3090 {
		t.Errorf("expected lastValidBlockHeight 3090, got %d", bh.LastValidBlockHeight)
	}
}

func TestHTTPClient_GetLatestBlockhash_Empty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		json.NewDecoder(r.Body).Decode(&req)

		resp := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result":  map[string]interface{}{"value": map[string]interface{}{}},
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL)

	if _, err := client.GetLatestBlockhash(context.Background()); err == nil {
		t.Fatal("expected error for empty blockhash")
	}
}

func TestHTTPClient_GetMinimumBalanceForRentExemption(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		json.NewDecoder(r.Body).Decode(&req)

		if req.Method != "getMinimumBalanceForRentExemption" {
			t.Errorf("expected method getMinimumBalanceForRentExemption, got %s", req.Method)
		}

		if len(req.Params) != 1 || req.Params[0] != float64(82) {
			t.Errorf("expected size param 82, got %v", req.Params)
		}

		resp := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result":  uint64(1461600),
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL)

	lamports, err := client.GetMinimumBalanceForRentExemption(context.Background(), 82)
	if err != nil {
		t.Fatalf("GetMinimumBalanceForRentExemption: %v", err)
	}

	if lamports != 1461600 {
		t.Errorf("expected 1461600 lamports, got %d", lamports)
	}
}

func TestHTTPClient_SendTransaction(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		json.NewDecoder(r.Body).Decode(&req)

		if req.Method != "sendTransaction" {
			t.Errorf("expected method sendTransaction, got %s", req.Method)
		}

		if len(req.Params) != 2 {
			t.Fatalf("expected 2 params, got %d", len(req.Params))
		}
		if req.Params[0] != "dGVzdHR4" {
			t.Errorf("unexpected transaction payload %v", req.Params[0])
		}
		opts, ok := req.Params[1].(map[string]interface{})
		if !ok || opts["encoding"] != "base64" {
			t.Errorf("expected base64 encoding option, got %v", req.Params[1])
		}

		resp := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result":  "5VERv8NMvzbJMEkV8xnrLkEaWRtSz9CosKDYjCJjBRnbJLgp8uirBgmQpjKhoR4tjF3ZpRzrFmBV6UjKdiSZkQUW",
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL)

	sig, err := client.SendTransaction(context.Background(), "dGVzdHR4")
	if err != nil {
		t.Fatalf("SendTransaction: %v", err)
	}

	if sig == "" {
		t.Error("expected non-empty signature")
	}
}

func TestHTTPClient_GetSignatureStatuses(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		json.NewDecoder(r.Body).Decode(&req)

		if req.Method != "getSignatureStatuses" {
			t.Errorf("expected method getSignatureStatuses, got %s", req.Method)
		}

		resp := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result": map[string]interface{}{
				"value": []interface{}{
					map[string]interface{}{
						"slot":               int64(48),
						"confirmations":      nil,
						"err":                nil,
						"confirmationStatus": "finalized",
					},
					nil,
				},
			},
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL)

	statuses, err := client.GetSignatureStatuses(context.Background(), []string{"sig1", "sig2"})
	if err != nil {
		t.Fatalf("GetSignatureStatuses: %v", err)
	}

	if len(statuses) != 2 {
		t.Fatalf("expected 2 statuses, got %d", len(statuses))
	}

	if statuses[0] == nil || !statuses[0].Confirmed() {
		t.Errorf("expected first signature confirmed, got %+v", statuses[0])
	}

	if statuses[1] != nil {
		t.Errorf("expected nil for unobserved signature, got %+v", statuses[1])
	}
}

func TestHTTPClient_GetTransaction(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		json.NewDecoder(r.Body).Decode(&req)

		if req.Method != "getTransaction" {
			t.Errorf("expected method getTransaction, got %s", req.Method)
		}

		resp := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result": map[string]interface{}{
				"slot":      int64(123456),
				"blockTime": int64(1700000000),
				"meta": map[string]interface{}{
					"err":         map[string]interface{}{"InstructionError": []interface{}{0, "Custom"}},
					"logMessages": []string{"Program log: insufficient funds"},
				},
				"transaction": map[string]interface{}{
					"message": map[string]interface{}{
						"accountKeys": []string{"addr1", "addr2"},
					},
				},
			},
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL)

	tx, err := client.GetTransaction(context.Background(), "testsig123")
	if err != nil {
		t.Fatalf("GetTransaction: %v", err)
	}

	if tx == nil {
		t.Fatal("expected transaction, got nil")
	}

	if tx.Slot != 123456 {
		t.Errorf("expected slot 123456, got %d", tx.Slot)
	}

	if tx.Meta == nil || tx.Meta.Err == nil {
		t.Error("expected non-nil transaction error in meta")
	}

	if tx.Message == nil || len(tx.Message.AccountKeys) != 2 {
		t.Errorf("expected 2 account keys, got %+v", tx.Message)
	}
}

func TestHTTPClient_GetTransaction_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		json.NewDecoder(r.Body).Decode(&req)

		resp := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result":  nil,
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL)

	tx, err := client.GetTransaction(context.Background(), "nonexistent")
	if err != nil {
		t.Fatalf("GetTransaction: %v", err)
	}

	if tx != nil {
		t.Errorf("expected nil for not found, got %+v", tx)
	}
}

func TestHTTPClient_GetBalance(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		json.NewDecoder(r.Body).Decode(&req)

		if req.Method != "getBalance" {
			t.Errorf("expected method getBalance, got %s", req.Method)
		}

		resp := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result":  map[string]interface{}{"value": uint64(2039280)},
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL)

	balance, err := client.GetBalance(context.Background(), "addr1")
	if err != nil {
		t.Fatalf("GetBalance: %v", err)
	}

	if balance != 2039280 {
		t.Errorf("expected balance 2039280, got %d", balance)
	}
}

func TestHTTPClient_Retry(t *testing.T) {
	var attempts atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		count := attempts.Add(1)
		if count < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}

		var req rpcRequest
		json.NewDecoder(r.Body).Decode(&req)

		resp := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result":  uint64(1461600),
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL,
		WithMaxRetries(3),
		WithRetryDelay(10*time.Millisecond),
	)

	lamports, err := client.GetMinimumBalanceForRentExemption(context.Background(), 82)
	if err != nil {
		t.Fatalf("GetMinimumBalanceForRentExemption: %v", err)
	}

	if lamports != 1461600 {
		t.Errorf("expected 1461600 lamports, got %d", lamports)
	}

	if attempts.Load() != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts.Load())
	}
}

func TestHTTPClient_RPCError(t *testing.T) {
	var attempts atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)

		var req rpcRequest
		json.NewDecoder(r.Body).Decode(&req)

		resp := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"error": map[string]interface{}{
				"code":    -32002,
				"message": "Transaction simulation failed",
			},
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, WithRetryDelay(time.Millisecond))

	_, err := client.SendTransaction(context.Background(), "dGVzdHR4")
	if err == nil {
		t.Fatal("expected error, got nil")
	}

	rpcErr, ok := err.(*rpcError)
	if !ok {
		t.Fatalf("expected rpcError, got %T", err)
	}

	if rpcErr.Code != -32002 {
		t.Errorf("expected code -32002, got %d", rpcErr.Code)
	}

	// RPC-level errors are definitive and must not be retried.
	if attempts.Load() != 1 {
		t.Errorf("expected 1 attempt, got %d", attempts.Load())
	}
}

func TestHTTPClient_ContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL,
		WithMaxRetries(10),
		WithRetryDelay(time.Second),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.GetBalance(ctx, "addr1")
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestHTTPClient_CallObserver(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		json.NewDecoder(r.Body).Decode(&req)

		resp := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result": map[string]interface{}{
				"value": map[string]interface{}{
					"blockhash":            "EkSnNWid2cvwEVnVx9aBqawnmiCNiDgp3gUdkDPTKN1N",
					"lastValidBlockHeight": uint64(3090),
				},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	var (
		method string
		dur    time.Duration
	)
	client := NewHTTPClient(server.URL, WithCallObserver(func(m string, d time.Duration) {
		method = m
		dur = d
	}))

	if _, err := client.GetLatestBlockhash(context.Background()); err != nil {
		t.Fatalf("GetLatestBlockhash: %v", err)
	}

	if method != "getLatestBlockhash" {
		t.Errorf("expected observed method getLatestBlockhash, got %q", method)
	}
	if dur <= 0 {
		t.Errorf("expected positive observed duration, got %v", dur)
	}
}
