package tradingctx

import (
	"context"
	"errors"
	"testing"

	"github.com/banky/go-hyperliquid-agent/storage"
	"github.com/banky/go-hyperliquid-agent/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/maxatome/go-testdeep/td"
	"github.com/samber/mo"
)

var (
	master = common.HexToAddress("0x5e9ee1089755c3435139848e47e6635505d5a13a")
	sub    = common.HexToAddress("0x1d9470d4b963f552e6f671a81619d395877bf409")
)

type fakeLister struct {
	subs []common.Address
	err  error
}

func (f fakeLister) SubAccountAddresses(context.Context, common.Address) ([]common.Address, error) {
	return f.subs, f.err
}

func TestMasterResolution(t *testing.T) {
	r := New(storage.NewMemory(), types.Testnet)

	// nothing selected yet behaves like master, for any master
	for _, m := range []common.Address{master, sub, common.HexToAddress("0x02")} {
		res := r.Resolve(m)
		td.Cmp(t, res.FetchAddress, m)
		td.CmpTrue(t, res.VaultAddress.IsAbsent())
		td.CmpFalse(t, res.IsSubAccount)
	}

	c := r.Connect(context.Background(), master)
	td.Cmp(t, c.Type, Master)
	td.Cmp(t, r.FetchAddress(master), master)
	td.CmpTrue(t, r.VaultAddress().IsAbsent())
}

func TestSubAccountResolution(t *testing.T) {
	ctx := context.Background()
	r := New(storage.NewMemory(), types.Testnet)
	r.Connect(ctx, master)

	td.Require(t).CmpNoError(r.UseSubAccount(ctx, sub, "hedge"))

	for _, m := range []common.Address{master, common.HexToAddress("0x03")} {
		res := r.Resolve(m)
		td.Cmp(t, res, Resolution{
			FetchAddress: sub,
			VaultAddress: mo.Some(sub),
			IsSubAccount: true,
			ContextLabel: "hedge",
		})
	}
	td.Cmp(t, r.VaultAddress(), mo.Some(sub))
	td.Cmp(t, r.Current().VaultAddress, mo.Some(sub))
}

func TestSwitchTakesEffectOnNextCall(t *testing.T) {
	ctx := context.Background()
	r := New(storage.NewMemory(), types.Testnet)
	r.Connect(ctx, master)

	before := r.Resolve(master)
	td.Require(t).CmpNoError(r.UseSubAccount(ctx, sub, ""))
	after := r.Resolve(master)

	td.Cmp(t, before.FetchAddress, master, "snapshot is not mutated")
	td.Cmp(t, after.FetchAddress, sub)
	hex := sub.Hex()
	td.Cmp(t, after.ContextLabel, hex[:6]+"…"+hex[38:])

	r.UseMaster(ctx)
	td.Cmp(t, r.FetchAddress(master), master)
	td.CmpTrue(t, r.VaultAddress().IsAbsent())
}

func TestSelectionPersists(t *testing.T) {
	ctx := context.Background()
	backend := storage.NewMemory()

	r := New(backend, types.Mainnet)
	r.Connect(ctx, master)
	td.Require(t).CmpNoError(r.UseSubAccount(ctx, sub, "hedge"))

	reloaded := New(backend, types.Mainnet)
	c := reloaded.Connect(ctx, master)
	td.Cmp(t, c.Type, SubAccount)
	td.Cmp(t, c.Address, sub)
	td.Cmp(t, c.Label, "hedge")
	td.Cmp(t, reloaded.FetchAddress(master), sub)

	// other networks keep their own selection
	testnet := New(backend, types.Testnet)
	td.Cmp(t, testnet.Connect(ctx, master).Type, Master)
}

func TestPersistedVaultIsNormalised(t *testing.T) {
	ctx := context.Background()
	backend := storage.NewMemory()
	key := storage.Key("context", "testnet", master.Hex())
	td.Require(t).CmpNoError(backend.Set(ctx, key, []byte(`{
		"type": "subaccount",
		"address": "0x1d9470d4b963f552e6f671a81619d395877bf409",
		"label": "x",
		"vaultAddress": "0x0000000000000000000000000000000000000009"
	}`)))

	r := New(backend, types.Testnet)
	r.Connect(ctx, master)
	td.Cmp(t, r.VaultAddress(), mo.Some(sub))
}

func TestUnreadableSelectionFallsBackToMaster(t *testing.T) {
	ctx := context.Background()
	backend := storage.NewMemory()
	key := storage.Key("context", "testnet", master.Hex())
	td.Require(t).CmpNoError(backend.Set(ctx, key, []byte(`{"type":"weird"}`)))

	r := New(backend, types.Testnet)
	td.Cmp(t, r.Connect(ctx, master).Type, Master)

	r = New(storage.Disabled{}, types.Testnet)
	td.Cmp(t, r.Connect(ctx, master).Type, Master)
	td.CmpNoError(t, r.UseSubAccount(ctx, sub, "s"), "switch works without storage")
	td.Cmp(t, r.FetchAddress(master), sub)
}

func TestSubAccountOwnership(t *testing.T) {
	ctx := context.Background()

	r := New(storage.NewMemory(), types.Testnet, WithSubAccountLister(fakeLister{subs: []common.Address{sub}}))
	r.Connect(ctx, master)

	td.CmpErrorIs(t, r.UseSubAccount(ctx, common.HexToAddress("0x04"), ""), ErrUnknownSubAccount)
	td.Cmp(t, r.FetchAddress(master), master)
	td.CmpNoError(t, r.UseSubAccount(ctx, sub, ""))

	boom := errors.New("boom")
	r = New(storage.NewMemory(), types.Testnet, WithSubAccountLister(fakeLister{err: boom}))
	r.Connect(ctx, master)
	td.CmpErrorIs(t, r.UseSubAccount(ctx, sub, ""), boom)

	td.CmpErrorIs(t, r.UseSubAccount(ctx, common.Address{}, ""), ErrInvalidAddress)
}
