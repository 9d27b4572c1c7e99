package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/maxatome/go-testdeep/td"
)

const testWalletKey = "0x0123456789012345678901234567890123456789012345678901234567890123"

type fakeAPI struct {
	mu       sync.Mutex
	actions  []json.RawMessage
	exchange string
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	raw, _ := io.ReadAll(r.Body)
	w.Header().Set("content-type", "application/json")

	switch r.URL.Path {
	case "/info":
		var req struct {
			Type string `json:"type"`
		}
		_ = json.Unmarshal(raw, &req)
		switch req.Type {
		case "meta":
			io.WriteString(w, `{"universe":[{"name":"BTC","szDecimals":5},{"name":"ETH","szDecimals":4}]}`)
		case "spotMeta":
			io.WriteString(w, `{"universe":[],"tokens":[]}`)
		case "allMids":
			io.WriteString(w, `{"BTC":"60000","ETH":"2000"}`)
		default:
			io.WriteString(w, `null`)
		}
	case "/exchange":
		var envelope struct {
			Action json.RawMessage `json:"action"`
		}
		_ = json.Unmarshal(raw, &envelope)
		f.mu.Lock()
		f.actions = append(f.actions, envelope.Action)
		answer := f.exchange
		f.mu.Unlock()
		if answer == "" {
			answer = `{"status":"ok","response":{"type":"default"}}`
		}
		io.WriteString(w, answer)
	default:
		http.NotFound(w, r)
	}
}

func (f *fakeAPI) sent() []json.RawMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]json.RawMessage(nil), f.actions...)
}

func setupEnv(t *testing.T) *fakeAPI {
	t.Helper()
	api := &fakeAPI{}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	t.Setenv("HLAGENT_NETWORK", "testnet")
	t.Setenv("HLAGENT_BASE_URL", srv.URL)
	t.Setenv("HLAGENT_STORAGE", "file")
	t.Setenv("HLAGENT_STORAGE_DIR", t.TempDir())
	t.Setenv("HLAGENT_STORAGE_PASSPHRASE", "")
	t.Setenv("HLAGENT_TRANSPORT", "rest")
	t.Setenv("HLAGENT_WALLET_PRIVATE_KEY", testWalletKey)
	return api
}

func runCLI(args ...string) (int, string, string) {
	var stdout, stderr bytes.Buffer
	code := newApp(&stdout, &stderr).run(args)
	return code, stdout.String(), stderr.String()
}

func TestStatusJSON(t *testing.T) {
	setupEnv(t)

	code, stdout, stderr := runCLI("status", "--json")
	td.Require(t).Cmp(code, 0, stderr)
	td.Cmp(t, json.RawMessage(stdout), td.JSON(`{
		"network": "testnet",
		"wallet": "0x14791697260e4c9a71f18484c9f997b308e59325",
		"state": "noAgent",
		"context": {
			"fetchAddress": "0x14791697260e4c9a71f18484c9f997b308e59325",
			"vaultAddress": null,
			"isSubAccount": false,
			"contextLabel": "Master"
		}
	}`))
}

func TestEnableIsRememberedAcrossRuns(t *testing.T) {
	api := setupEnv(t)

	code, stdout, stderr := runCLI("enable")
	td.Require(t).Cmp(code, 0, stderr)
	td.CmpContains(t, stdout, "approveAgent: ok")

	code, stdout, _ = runCLI("status")
	td.Cmp(t, code, 0)
	td.CmpContains(t, stdout, "agentReady")

	code, _, stderr = runCLI("leverage", "ETH", "5", "--isolated")
	td.Require(t).Cmp(code, 0, stderr)

	sent := api.sent()
	td.Require(t).Len(sent, 2)
	td.Cmp(t, sent[0], td.SuperJSONOf(`{"type": "approveAgent"}`))
	td.Cmp(t, sent[1], td.JSON(`{"type": "updateLeverage", "asset": 1, "isCross": false, "leverage": 5}`))

	code, _, _ = runCLI("disable")
	td.Cmp(t, code, 0)
	_, stdout, _ = runCLI("status")
	td.CmpContains(t, stdout, "noAgent")
}

func TestMarketOrderUsesMidPrice(t *testing.T) {
	api := setupEnv(t)

	code, _, stderr := runCLI("order", "ETH", "buy", "0.5", "--market")
	td.Require(t).Cmp(code, 0, stderr)

	sent := api.sent()
	td.Require(t).Len(sent, 1)
	td.Cmp(t, sent[0], td.JSONPointer("/orders/0", td.SuperJSONOf(`{
		"a": 1,
		"b": true,
		"p": "2100",
		"s": "0.5",
		"t": {"limit": {"tif": "Ioc"}}
	}`)))
}

func TestRefusedActionExitsNonZero(t *testing.T) {
	api := setupEnv(t)
	api.exchange = `{"status":"err","response":"Insufficient margin to place order."}`

	code, stdout, stderr := runCLI("order", "ETH", "sell", "1", "2000")
	td.Cmp(t, code, 1)
	td.CmpContains(t, stdout, "Insufficient margin")
	td.CmpContains(t, stderr, "action failed")
}

func TestArgumentErrors(t *testing.T) {
	api := setupEnv(t)

	code, _, stderr := runCLI("order", "ETH", "up", "1", "2000")
	td.Cmp(t, code, 1)
	td.CmpContains(t, stderr, "side must be buy or sell")

	code, _, stderr = runCLI("order", "ETH", "buy", "1")
	td.Cmp(t, code, 1)
	td.CmpContains(t, stderr, "price is required")

	code, _, stderr = runCLI("context", "sub", "nope")
	td.Cmp(t, code, 1)
	td.CmpContains(t, stderr, "is not an address")

	td.CmpEmpty(t, api.sent())
}

func TestMissingWalletKey(t *testing.T) {
	setupEnv(t)
	t.Setenv("HLAGENT_WALLET_PRIVATE_KEY", "")

	code, _, stderr := runCLI("status")
	td.Cmp(t, code, 1)
	td.CmpContains(t, stderr, "WALLET_PRIVATE_KEY not set")
}
