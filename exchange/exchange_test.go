package exchange

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/banky/go-hyperliquid-agent/agent"
	"github.com/banky/go-hyperliquid-agent/cache"
	"github.com/banky/go-hyperliquid-agent/nonce"
	"github.com/banky/go-hyperliquid-agent/rest"
	"github.com/banky/go-hyperliquid-agent/storage"
	"github.com/banky/go-hyperliquid-agent/tradingctx"
	"github.com/banky/go-hyperliquid-agent/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/maxatome/go-testdeep/helpers/tdsuite"
	"github.com/maxatome/go-testdeep/td"
	"github.com/samber/mo"
)

const (
	okDefault    = `{"status":"ok","response":{"type":"default"}}`
	agentMissing = `{"status":"err","response":"User or API Wallet 0x0000000000000000000000000000000000000001 does not exist."}`
)

var subAccount = common.HexToAddress("0x1d9470d4b963f552e6f671a81619d395877bf409")

// fakeSubmitter records every posted body and answers with respond.
type fakeSubmitter struct {
	mu      sync.Mutex
	bodies  []json.RawMessage
	respond func(body json.RawMessage) (string, error)
}

func (f *fakeSubmitter) Post(ctx context.Context, path string, body any, result any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return err
	}

	f.mu.Lock()
	f.bodies = append(f.bodies, raw)
	respond := f.respond
	f.mu.Unlock()

	answer := okDefault
	if respond != nil {
		answer, err = respond(raw)
		if err != nil {
			return err
		}
	}
	return json.Unmarshal([]byte(answer), result)
}

func (f *fakeSubmitter) reply(answer string) {
	f.mu.Lock()
	f.respond = func(json.RawMessage) (string, error) { return answer, nil }
	f.mu.Unlock()
}

func (f *fakeSubmitter) fail(err error) {
	f.mu.Lock()
	f.respond = func(json.RawMessage) (string, error) { return "", err }
	f.mu.Unlock()
}

func (f *fakeSubmitter) sent() []json.RawMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]json.RawMessage(nil), f.bodies...)
}

func (f *fakeSubmitter) last(t testing.TB) sentEnvelope {
	t.Helper()
	bodies := f.sent()
	td.Require(t).NotEmpty(bodies)

	var env sentEnvelope
	td.Require(t).CmpNoError(json.Unmarshal(bodies[len(bodies)-1], &env))
	return env
}

type sentEnvelope struct {
	Action       json.RawMessage `json:"action"`
	Nonce        uint64          `json:"nonce"`
	Signature    Signature       `json:"signature"`
	VaultAddress *string         `json:"vaultAddress"`
	ExpiresAfter *uint64         `json:"expiresAfter"`
}

// fakeWallet counts prompts. err, when set, is returned instead of a
// signature; gate, when set, holds every prompt until closed.
type fakeWallet struct {
	*KeyWallet

	mu    sync.Mutex
	calls int
	err   error
	gate  chan struct{}
}

func (w *fakeWallet) SignTypedData(ctx context.Context, data apitypes.TypedData) (Signature, error) {
	w.mu.Lock()
	w.calls++
	err, gate := w.err, w.gate
	w.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if err != nil {
		return Signature{}, err
	}
	return w.KeyWallet.SignTypedData(ctx, data)
}

func (w *fakeWallet) prompts() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.calls
}

type ExchangeSuite struct {
	ctx       context.Context
	submitter *fakeSubmitter
	wallet    *fakeWallet
	store     *agent.KeyStore
	contexts  *tradingctx.Resolver
	nonces    *nonce.Generator
	cache     *cache.Store
	signer    *Signer
	exchange  *Exchange
}

func TestExchangeSuite(t *testing.T) {
	tdsuite.Run(t, &ExchangeSuite{})
}

func (s *ExchangeSuite) PreTest(t *td.T, testName string) error {
	s.ctx = context.Background()
	s.submitter = &fakeSubmitter{}
	s.wallet = &fakeWallet{KeyWallet: testWallet(t)}
	s.store = agent.NewKeyStore(storage.NewMemory(), types.Testnet, s.wallet.Address())
	s.contexts = tradingctx.New(storage.NewMemory(), types.Testnet)
	s.contexts.Connect(s.ctx, s.wallet.Address())
	s.nonces = nonce.New()
	s.cache = cache.New()
	s.signer = NewSigner(s.wallet, s.store, types.Testnet)

	var err error
	s.exchange, err = New(Config{
		Submitter: s.submitter,
		Signer:    s.signer,
		Contexts:  s.contexts,
		Nonces:    s.nonces,
		Assets:    fakeAssets{"BTC": 0, "ETH": 1},
		Cache:     s.cache,
	})
	return err
}

func (s *ExchangeSuite) enable(require *td.T) common.Address {
	out := s.exchange.EnableTrading(s.ctx)
	require.True(out.Success, out.Error)
	cred, err := s.store.Credential(s.ctx)
	require.CmpNoError(err)
	return cred.Address
}

// recoverClaim recovers who signed a claimRewards envelope.
func (s *ExchangeSuite) recoverClaim(require *td.T, env sentEnvelope) common.Address {
	typedData, err := l1TypedData(
		claimRewardsAction{Type: "claimRewards"},
		mo.None[common.Address](),
		env.Nonce,
		mo.PointerToOption(env.ExpiresAfter),
		types.Testnet,
	)
	require.CmpNoError(err)
	signer, err := RecoverSigner(typedData, env.Signature)
	require.CmpNoError(err)
	return signer
}

func (s *ExchangeSuite) TestNewRequiresSubmitterAndSigner(assert, require *td.T) {
	_, err := New(Config{Signer: s.signer})
	assert.CmpError(err)

	_, err = New(Config{Submitter: s.submitter})
	assert.CmpError(err)
}

func (s *ExchangeSuite) TestInvalidInputConsumesNothing(assert, require *td.T) {
	for name, action := range map[string]Action{
		"zero size":      NewOrder("ETH", true, 0, 100),
		"negative size":  NewOrder("ETH", true, -5, 100),
		"unknown coin":   NewOrder("DOGE", true, 1, 100),
		"zero transfer":  UsdTransfer{Destination: subAccount.Hex(), Amount: 0},
		"bad address":    UsdTransfer{Destination: "0x1234", Amount: 1},
		"zero address":   UsdTransfer{Destination: "0x0000000000000000000000000000000000000000", Amount: 1},
		"leverage 0":     UpdateLeverage{Coin: "ETH", Leverage: 0},
		"leverage 51":    UpdateLeverage{Coin: "ETH", Leverage: 51},
		"empty referral": CreateReferral{Code: "  "},
		"no oid":         CancelOrder{Coin: "ETH"},
		"oid and cloid": ModifyOrder{
			Oid:   mo.Some[int64](1).ToPointer(),
			Cloid: mo.Some(types.NewCloid()).ToPointer(),
			Order: NewOrder("ETH", true, 1, 100),
		},
		"negative delegation": TokenDelegate{Validator: subAccount.Hex(), Amount: -1},
		"dust transfer":       UsdTransfer{Destination: subAccount.Hex(), Amount: 1e-13},
		"dust vault deposit":  VaultTransfer{Vault: subAccount.Hex(), IsDeposit: true, Usd: 1e-10},
		"dust staking":        StakingDeposit{Amount: 1e-12},
		"dust size":           NewOrder("ETH", true, 1e-13, 100),
	} {
		out := s.exchange.Dispatch(s.ctx, action)
		assert.False(out.Success, name)
		assert.True(out.IsValidationError(), name)
		assert.Cmp(out.Kind, action.Kind(), name)
	}

	assert.Cmp(s.nonces.Last(), uint64(0), "no nonce issued")
	assert.Cmp(s.wallet.prompts(), 0, "no prompt")
	assert.Empty(s.submitter.sent(), "nothing submitted")
}

func (s *ExchangeSuite) TestLeverageBounds(assert, require *td.T) {
	out := s.exchange.Dispatch(s.ctx, UpdateLeverage{Coin: "ETH", Leverage: 50, IsCross: true})
	require.True(out.Success, out.Error)

	env := s.submitter.last(require)
	assert.Cmp(env.Action, td.JSON(`{"type": "updateLeverage", "asset": 1, "isCross": true, "leverage": 50}`))

	out = s.exchange.Dispatch(s.ctx, UpdateLeverage{Coin: "ETH", Leverage: 1})
	assert.True(out.Success, out.Error)
}

func (s *ExchangeSuite) TestWithoutAgentWalletSignsL1(assert, require *td.T) {
	assert.Cmp(s.signer.State(s.ctx), NoAgent)

	out := s.exchange.Dispatch(s.ctx, ClaimRewards{})
	require.True(out.Success, out.Error)
	assert.Cmp(s.wallet.prompts(), 1)

	env := s.submitter.last(require)
	assert.Cmp(s.recoverClaim(require, env), s.wallet.Address())
	assert.Nil(env.VaultAddress)
	assert.Nil(env.ExpiresAfter)
}

func (s *ExchangeSuite) TestEnableTradingApprovesAgent(assert, require *td.T) {
	out := s.exchange.EnableTrading(s.ctx)
	require.True(out.Success, out.Error)
	assert.Cmp(out.Kind, KindApproveAgent)
	assert.Cmp(s.signer.State(s.ctx), AgentReady)
	assert.Cmp(s.wallet.prompts(), 1)

	cred, err := s.store.Credential(s.ctx)
	require.CmpNoError(err)

	env := s.submitter.last(require)
	assert.Cmp(env.Action, td.JSON(`{
		"type": "approveAgent",
		"signatureChainId": "0x66eee",
		"hyperliquidChain": "Testnet",
		"agentAddress": $1,
		"nonce": $2
	}`, lower(cred.Address), env.Nonce))
	assert.Nil(env.VaultAddress)

	// Enabling again is a no-op.
	out = s.exchange.EnableTrading(s.ctx)
	assert.True(out.Success)
	assert.Len(s.submitter.sent(), 1)
}

func (s *ExchangeSuite) TestAgentSignsL1OnceReady(assert, require *td.T) {
	agentAddress := s.enable(require)
	prompts := s.wallet.prompts()

	out := s.exchange.Dispatch(s.ctx, ClaimRewards{})
	require.True(out.Success, out.Error)
	assert.Cmp(s.wallet.prompts(), prompts, "no prompt for L1 actions")

	env := s.submitter.last(require)
	assert.Cmp(s.recoverClaim(require, env), agentAddress)
}

func (s *ExchangeSuite) TestUserSignedAlwaysUsesWallet(assert, require *td.T) {
	s.enable(require)
	prompts := s.wallet.prompts()

	out := s.exchange.Dispatch(s.ctx, UsdTransfer{Destination: subAccount.Hex(), Amount: 1.5})
	require.True(out.Success, out.Error)
	assert.Cmp(s.wallet.prompts(), prompts+1)

	env := s.submitter.last(require)
	assert.Cmp(env.Action, td.JSON(`{
		"type": "usdSend",
		"signatureChainId": "0x66eee",
		"hyperliquidChain": "Testnet",
		"destination": $1,
		"amount": "1.5",
		"time": $2
	}`, lower(subAccount), env.Nonce))
	assert.Nil(env.VaultAddress)
	assert.Nil(env.ExpiresAfter)

	desc := descriptors[KindUsdTransfer]
	typedData, err := userSignedPayload(desc.primaryType, desc.fields, apitypes.TypedDataMessage{
		"hyperliquidChain": "Testnet",
		"destination":      lower(subAccount),
		"amount":           "1.5",
		"time":             uint64Value(env.Nonce),
	}, "0x66eee")
	require.CmpNoError(err)
	signer, err := RecoverSigner(typedData, env.Signature)
	require.CmpNoError(err)
	assert.Cmp(signer, s.wallet.Address())
}

func (s *ExchangeSuite) TestUserRejectsApproval(assert, require *td.T) {
	s.wallet.err = ErrUserRejected

	out := s.exchange.EnableTrading(s.ctx)
	assert.False(out.Success)
	assert.True(out.Cancelled)
	assert.CmpErrorIs(out.Err, ErrUserRejected)
	assert.Cmp(s.signer.State(s.ctx), NoAgent)
	assert.Empty(s.submitter.sent())
	assert.False(s.store.IsReady(s.ctx))
}

func (s *ExchangeSuite) TestRefusedApprovalLeavesNoAgent(assert, require *td.T) {
	s.submitter.reply(`{"status":"err","response":"Extra agent already used."}`)

	out := s.exchange.EnableTrading(s.ctx)
	assert.False(out.Success)
	assert.Cmp(out.Error, "Extra agent already used.")
	assert.Cmp(s.signer.State(s.ctx), NoAgent)
}

func (s *ExchangeSuite) TestConcurrentApprovalIsRefused(assert, require *td.T) {
	gate := make(chan struct{})
	s.wallet.gate = gate

	done := make(chan Outcome)
	go func() { done <- s.exchange.EnableTrading(s.ctx) }()

	for i := 0; i < 200 && s.wallet.prompts() == 0; i++ {
		time.Sleep(5 * time.Millisecond)
	}
	require.Cmp(s.signer.State(s.ctx), AgentPendingApproval)

	second := s.exchange.EnableTrading(s.ctx)
	assert.False(second.Success)
	assert.CmpErrorIs(second.Err, ErrApprovalInProgress)

	close(gate)
	first := <-done
	assert.True(first.Success, first.Error)
	assert.Cmp(s.signer.State(s.ctx), AgentReady)
}

func (s *ExchangeSuite) TestUnknownAgentIsRevoked(assert, require *td.T) {
	s.enable(require)
	s.submitter.reply(agentMissing)

	out := s.exchange.Dispatch(s.ctx, NewOrder("ETH", true, 1, 100))
	assert.False(out.Success)
	assert.CmpErrorIs(out.Err, ErrAgentUnauthorized)
	assert.Cmp(s.signer.State(s.ctx), NoAgent)

	// The next L1 action goes back to the wallet.
	s.submitter.reply(okDefault)
	prompts := s.wallet.prompts()
	out = s.exchange.Dispatch(s.ctx, ClaimRewards{})
	require.True(out.Success, out.Error)
	assert.Cmp(s.wallet.prompts(), prompts+1)
}

func (s *ExchangeSuite) TestWalletSignedRefusalKeepsNoAgentState(assert, require *td.T) {
	s.submitter.reply(agentMissing)

	out := s.exchange.Dispatch(s.ctx, ClaimRewards{})
	assert.False(out.Success)
	assert.Not(out.Err, td.ErrorIs(ErrAgentUnauthorized))
}

func (s *ExchangeSuite) TestDisableTrading(assert, require *td.T) {
	s.enable(require)

	out := s.exchange.DisableTrading(s.ctx)
	assert.True(out.Success)
	assert.Cmp(s.signer.State(s.ctx), NoAgent)

	out = s.exchange.DisableTrading(s.ctx)
	assert.True(out.Success, "disabling twice")
}

func (s *ExchangeSuite) TestSubAccountContextQualifiesWrites(assert, require *td.T) {
	require.CmpNoError(s.contexts.UseSubAccount(s.ctx, subAccount, "Desk"))

	assert.Cmp(s.exchange.ContextQuery(), ContextQuery{
		FetchAddress: subAccount,
		VaultAddress: &subAccount,
		IsSubAccount: true,
		ContextLabel: "Desk",
	})

	out := s.exchange.Dispatch(s.ctx, NewOrder("BTC", false, 0.01, 65000))
	require.True(out.Success, out.Error)
	env := s.submitter.last(require)
	require.NotNil(env.VaultAddress)
	assert.Cmp(*env.VaultAddress, lower(subAccount))

	// Vault transfers name their vault in the action itself.
	out = s.exchange.Dispatch(s.ctx, VaultTransfer{Vault: s.wallet.Address().Hex(), IsDeposit: true, Usd: 5})
	require.True(out.Success, out.Error)
	assert.Nil(s.submitter.last(require).VaultAddress)

	out = s.exchange.Dispatch(s.ctx, UsdClassTransfer{Amount: 2, ToPerp: true})
	require.True(out.Success, out.Error)
	env = s.submitter.last(require)
	assert.Nil(env.VaultAddress)
	assert.Cmp(env.Action, td.SuperJSONOf(`{"amount": $1}`, "2 subaccount:"+lower(subAccount)))

	s.contexts.UseMaster(s.ctx)
	out = s.exchange.Dispatch(s.ctx, NewOrder("BTC", false, 0.01, 65000))
	require.True(out.Success, out.Error)
	assert.Nil(s.submitter.last(require).VaultAddress)
}

func (s *ExchangeSuite) TestSubAccountContextRefusesMasterFunds(assert, require *td.T) {
	require.CmpNoError(s.contexts.UseSubAccount(s.ctx, subAccount, "Desk"))

	for _, action := range []Action{
		UsdTransfer{Destination: s.wallet.Address().Hex(), Amount: 1},
		TokenDelegate{Validator: s.wallet.Address().Hex(), Amount: 1},
		StakingDeposit{Amount: 1},
		StakingWithdraw{Amount: 1},
	} {
		out := s.exchange.Dispatch(s.ctx, action)
		assert.False(out.Success, action.Kind())
		assert.True(out.IsValidationError(), action.Kind())
		assert.Contains(out.Error, "master", action.Kind())
	}

	assert.Cmp(s.nonces.Last(), uint64(0), "no nonce issued")
	assert.Cmp(s.wallet.prompts(), 0, "no prompt")
	assert.Empty(s.submitter.sent())

	s.contexts.UseMaster(s.ctx)
	out := s.exchange.Dispatch(s.ctx, UsdTransfer{Destination: subAccount.Hex(), Amount: 1})
	assert.True(out.Success, out.Error)
}

func (s *ExchangeSuite) TestExpiresAfterOnlyOnL1(assert, require *td.T) {
	e, err := New(Config{
		Submitter:    s.submitter,
		Signer:       s.signer,
		Nonces:       s.nonces,
		ExpiresAfter: 30 * time.Second,
	})
	require.CmpNoError(err)

	out := e.Dispatch(s.ctx, ClaimRewards{})
	require.True(out.Success, out.Error)
	env := s.submitter.last(require)
	require.NotNil(env.ExpiresAfter)
	assert.Cmp(*env.ExpiresAfter, env.Nonce+30_000)
	assert.Cmp(s.recoverClaim(require, env), s.wallet.Address())

	out = e.Dispatch(s.ctx, StakingDeposit{Amount: 1})
	require.True(out.Success, out.Error)
	assert.Nil(s.submitter.last(require).ExpiresAfter)
}

func (s *ExchangeSuite) TestNoncesIncrease(assert, require *td.T) {
	for range 3 {
		out := s.exchange.Dispatch(s.ctx, ClaimRewards{})
		require.True(out.Success, out.Error)
	}

	var prev uint64
	for _, body := range s.submitter.sent() {
		var env sentEnvelope
		require.CmpNoError(json.Unmarshal(body, &env))
		assert.Gt(env.Nonce, prev)
		prev = env.Nonce
	}
}

func (s *ExchangeSuite) TestCacheInvalidatedOnlyOnSuccess(assert, require *td.T) {
	load := func(context.Context) (string, error) { return "state", nil }
	_, err := cache.GetOrLoad(s.ctx, s.cache, "clearinghouseState", time.Minute, []cache.Tag{cache.UserState}, load)
	require.CmpNoError(err)
	_, err = cache.GetOrLoad(s.ctx, s.cache, "referral", time.Minute, []cache.Tag{cache.Referral}, load)
	require.CmpNoError(err)

	s.submitter.reply(`{"status":"err","response":"Insufficient margin to place order."}`)
	out := s.exchange.Dispatch(s.ctx, NewOrder("ETH", true, 1, 100))
	require.False(out.Success)
	assert.Cmp(s.cache.Len(), 2)

	s.submitter.reply(okDefault)
	out = s.exchange.Dispatch(s.ctx, NewOrder("ETH", true, 1, 100))
	require.True(out.Success, out.Error)
	assert.Cmp(s.cache.Len(), 1, "only the referral view survives")
}

func (s *ExchangeSuite) TestUnrelatedRefusalKeepsAgent(assert, require *td.T) {
	s.enable(require)

	s.submitter.reply(`{"status":"err","response":"Referral code does not exist."}`)
	out := s.exchange.Dispatch(s.ctx, SetReferrer{Code: "NOPE"})
	assert.False(out.Success)

	var se *SubmissionError
	require.True(errors.As(out.Err, &se))
	assert.False(se.AgentUnauthorized)
	assert.Cmp(s.signer.State(s.ctx), AgentReady)
}

func (s *ExchangeSuite) TestUnconfirmedApprovalKeepsAgent(assert, require *td.T) {
	s.submitter.fail(errors.New("connection reset by peer"))

	out := s.exchange.EnableTrading(s.ctx)
	assert.False(out.Success)
	assert.True(out.IsTransportError())
	assert.Cmp(s.signer.State(s.ctx), AgentReady, "approval may have landed")

	// The exchange never saw it: the first agent-signed refusal drops it.
	s.submitter.reply(agentMissing)
	out = s.exchange.Dispatch(s.ctx, NewOrder("ETH", true, 1, 100))
	assert.False(out.Success)
	assert.Cmp(s.signer.State(s.ctx), NoAgent)
}

func (s *ExchangeSuite) TestTransportFailure(assert, require *td.T) {
	s.submitter.fail(errors.New("connection reset by peer"))

	out := s.exchange.Dispatch(s.ctx, ClaimRewards{})
	assert.False(out.Success)
	assert.True(out.IsTransportError())
	assert.Contains(out.Error, "connection reset by peer")
}

func (s *ExchangeSuite) TestClientErrorIsSubmissionError(assert, require *td.T) {
	s.submitter.fail(&rest.ClientError{StatusCode: 422, Msg: "Order has invalid price.\n"})

	out := s.exchange.Dispatch(s.ctx, NewOrder("ETH", true, 1, 100))
	assert.False(out.Success)
	assert.False(out.IsTransportError())
	assert.Cmp(out.Error, "Order has invalid price.")

	var se *SubmissionError
	require.True(errors.As(out.Err, &se))
	assert.False(se.AgentUnauthorized)
}

func (s *ExchangeSuite) TestOrderStatusErrors(assert, require *td.T) {
	s.submitter.reply(`{"status":"ok","response":{"type":"order","data":{"statuses":[
		{"error":"Order must have minimum value of $10."},
		{"error":"Post only order would have immediately matched."}
	]}}}`)

	out := s.exchange.Dispatch(s.ctx, NewOrder("ETH", true, 0.001, 100))
	assert.False(out.Success)
	assert.Cmp(out.Error, "Order must have minimum value of $10.; Post only order would have immediately matched.")
}

func (s *ExchangeSuite) TestOrderSuccessData(assert, require *td.T) {
	s.submitter.reply(`{"status":"ok","response":{"type":"order","data":{"statuses":[
		{"resting":{"oid":77738308}},
		{"filled":{"totalSz":"0.02","avgPx":"1891.4","oid":77747314}}
	]}}}`)

	out := s.exchange.Dispatch(s.ctx, NewOrder("ETH", true, 0.02, 1900, WithCloid(types.HexToCloid("0x00000000000000000000000000000001"))))
	require.True(out.Success, out.Error)

	env := s.submitter.last(require)
	assert.Cmp(env.Action, td.JSON(`{
		"type": "order",
		"orders": [{
			"a": 1, "b": true, "p": "1900", "s": "0.02", "r": false,
			"t": {"limit": {"tif": "Gtc"}},
			"c": "0x00000000000000000000000000000001"
		}],
		"grouping": "na"
	}`))

	statuses, err := OrderStatuses(out)
	require.CmpNoError(err)
	require.Len(statuses, 2)
	assert.Cmp(statuses[0].Resting.Oid, int64(77738308))
	assert.Cmp(statuses[1].Filled.AvgPx.Raw(), 1891.4)
}

func (s *ExchangeSuite) TestCancelledContextIsWalletError(assert, require *td.T) {
	ctx, cancel := context.WithCancel(s.ctx)
	cancel()

	out := s.exchange.Dispatch(ctx, ClaimRewards{})
	assert.False(out.Success)

	var we *WalletError
	require.True(errors.As(out.Err, &we))
	assert.CmpErrorIs(we, context.Canceled)
	assert.Empty(s.submitter.sent())
}

func (s *ExchangeSuite) TestStorageUnavailableApproval(assert, require *td.T) {
	store := agent.NewKeyStore(storage.Disabled{}, types.Testnet, s.wallet.Address())
	signer := NewSigner(s.wallet, store, types.Testnet)
	e, err := New(Config{Submitter: s.submitter, Signer: signer})
	require.CmpNoError(err)

	out := e.EnableTrading(s.ctx)
	assert.True(out.Success, out.Error)
	assert.Cmp(signer.State(s.ctx), NoAgent, "agent never becomes ready without storage")
	assert.Len(s.submitter.sent(), 1)
}
