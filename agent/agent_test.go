package agent

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/banky/go-hyperliquid-agent/storage"
	"github.com/banky/go-hyperliquid-agent/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/maxatome/go-testdeep/td"
)

var master = common.HexToAddress("0x5e9ee1089755c3435139848e47e6635505d5a13a")

func TestLifecycle(t *testing.T) {
	ctx := context.Background()
	s := NewKeyStore(storage.NewMemory(), types.Testnet, master)

	td.CmpFalse(t, s.IsReady(ctx), "fresh store")

	gen, err := s.GenerateAndStore(ctx)
	td.Require(t).CmpNoError(err)
	td.Cmp(t, gen.Address, crypto.PubkeyToAddress(gen.PrivateKey.PublicKey))
	td.CmpFalse(t, s.IsReady(ctx), "pending credential is not ready")

	_, err = s.Credential(ctx)
	td.CmpErrorIs(t, err, ErrNoCredential)

	td.Require(t).CmpNoError(s.MarkApprovedWithKey(ctx, gen.PrivateKey))
	td.CmpTrue(t, s.IsReady(ctx))

	cred, err := s.Credential(ctx)
	td.Require(t).CmpNoError(err)
	td.Cmp(t, cred.Address, gen.Address)
	td.Cmp(t, crypto.FromECDSA(cred.PrivateKey), crypto.FromECDSA(gen.PrivateKey))
	td.CmpTrue(t, cred.Approved)

	td.Require(t).CmpNoError(s.Clear(ctx))
	td.CmpFalse(t, s.IsReady(ctx), "cleared")
}

func TestPendingRecordHasNoKey(t *testing.T) {
	ctx := context.Background()
	backend := storage.NewMemory()
	s := NewKeyStore(backend, types.Mainnet, master)

	gen, err := s.GenerateAndStore(ctx)
	td.Require(t).CmpNoError(err)

	raw, err := backend.Get(ctx, storage.Key("agent", "mainnet", master.Hex()))
	td.Require(t).CmpNoError(err)
	td.Cmp(t, json.RawMessage(raw), td.JSON(`{"address": $1, "approved": false, "createdAt": NotZero()}`, gen.Address.Hex()))
}

func TestMarkApprovedRejectsForeignKey(t *testing.T) {
	ctx := context.Background()
	s := NewKeyStore(storage.NewMemory(), types.Testnet, master)

	_, err := s.GenerateAndStore(ctx)
	td.Require(t).CmpNoError(err)

	other, err := crypto.GenerateKey()
	td.Require(t).CmpNoError(err)

	td.CmpErrorIs(t, s.MarkApprovedWithKey(ctx, other), ErrKeyMismatch)
	td.CmpFalse(t, s.IsReady(ctx))
}

func TestMarkApprovedWithoutPending(t *testing.T) {
	ctx := context.Background()
	s := NewKeyStore(storage.NewMemory(), types.Testnet, master)

	key, err := crypto.GenerateKey()
	td.Require(t).CmpNoError(err)

	td.CmpNoError(t, s.MarkApprovedWithKey(ctx, key))
	td.CmpTrue(t, s.IsReady(ctx))
}

func TestScopedByMasterAndNetwork(t *testing.T) {
	ctx := context.Background()
	backend := storage.NewMemory()
	s := NewKeyStore(backend, types.Testnet, master)

	gen, err := s.GenerateAndStore(ctx)
	td.Require(t).CmpNoError(err)
	td.Require(t).CmpNoError(s.MarkApprovedWithKey(ctx, gen.PrivateKey))

	other := NewKeyStore(backend, types.Testnet, common.HexToAddress("0x01"))
	td.CmpFalse(t, other.IsReady(ctx))

	mainnet := NewKeyStore(backend, types.Mainnet, master)
	td.CmpFalse(t, mainnet.IsReady(ctx))
}

func TestDisabledStorageNeverReady(t *testing.T) {
	ctx := context.Background()
	s := NewKeyStore(storage.Disabled{}, types.Testnet, master)

	gen, err := s.GenerateAndStore(ctx)
	td.CmpErrorIs(t, err, storage.ErrUnavailable)
	td.CmpNotNil(t, gen.PrivateKey, "key material still returned")

	td.CmpErrorIs(t, s.MarkApprovedWithKey(ctx, gen.PrivateKey), storage.ErrUnavailable)
	td.CmpFalse(t, s.IsReady(ctx))
}

func TestExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.UnixMilli(1_700_000_000_000)
	s := NewKeyStore(
		storage.NewMemory(),
		types.Testnet,
		master,
		WithMaxAge(time.Hour),
		WithClock(func() time.Time { return now }),
	)

	gen, err := s.GenerateAndStore(ctx)
	td.Require(t).CmpNoError(err)
	td.Require(t).CmpNoError(s.MarkApprovedWithKey(ctx, gen.PrivateKey))
	td.CmpTrue(t, s.IsReady(ctx))

	now = now.Add(59 * time.Minute)
	td.CmpTrue(t, s.IsReady(ctx))

	now = now.Add(2 * time.Minute)
	td.CmpFalse(t, s.IsReady(ctx), "expired")
}

func TestCorruptRecordNotReady(t *testing.T) {
	ctx := context.Background()
	backend := storage.NewMemory()
	s := NewKeyStore(backend, types.Testnet, master)

	key := storage.Key("agent", "testnet", master.Hex())
	td.Require(t).CmpNoError(backend.Set(ctx, key, []byte(`{"approved":true,"privateKey":"0xzz"}`)))
	td.CmpFalse(t, s.IsReady(ctx))

	td.Require(t).CmpNoError(backend.Set(ctx, key, []byte(`not json`)))
	td.CmpFalse(t, s.IsReady(ctx))
}

func TestNameIsRecorded(t *testing.T) {
	ctx := context.Background()
	s := NewKeyStore(storage.NewMemory(), types.Testnet, master, WithName("desk"))

	gen, err := s.GenerateAndStore(ctx)
	td.Require(t).CmpNoError(err)
	td.Require(t).CmpNoError(s.MarkApprovedWithKey(ctx, gen.PrivateKey))

	cred, err := s.Credential(ctx)
	td.Require(t).CmpNoError(err)
	td.Cmp(t, cred.Name, "desk")
}
