// Package exchange signs and submits actions to the exchange's /exchange
// endpoint, on behalf of a primary wallet and its approved agent.
package exchange

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/banky/go-hyperliquid-agent/cache"
	"github.com/banky/go-hyperliquid-agent/internal/logger"
	"github.com/banky/go-hyperliquid-agent/nonce"
	"github.com/banky/go-hyperliquid-agent/rest"
	"github.com/banky/go-hyperliquid-agent/tradingctx"
	"github.com/banky/go-hyperliquid-agent/ws"
	"github.com/ethereum/go-ethereum/common"
	"github.com/samber/mo"
)

const exchangePath = "/exchange"

// Submitter posts a signed envelope and decodes the answer. Both the REST
// and the websocket clients implement it.
type Submitter interface {
	Post(ctx context.Context, path string, body any, result any) error
}

var (
	_ Submitter = (*rest.Client)(nil)
	_ Submitter = (*ws.Client)(nil)
)

// ContextResolver supplies the trading context at call time.
type ContextResolver interface {
	Resolve(master common.Address) tradingctx.Resolution
}

// Config for initializing the Exchange client
type Config struct {
	Submitter Submitter
	Signer    *Signer
	// Contexts is optional; without it every action is the master's.
	Contexts ContextResolver
	// Nonces defaults to a fresh generator.
	Nonces *nonce.Generator
	// Assets resolves coin names for order, cancel and leverage actions.
	Assets AssetResolver
	// Cache, when set, has the affected views dropped after each success.
	Cache *cache.Store
	// ExpiresAfter, when positive, bounds how long L1 actions stay valid.
	ExpiresAfter time.Duration
	Logger       *slog.Logger
}

// Exchange is the action dispatcher.
type Exchange struct {
	submitter    Submitter
	signer       *Signer
	contexts     ContextResolver
	nonces       *nonce.Generator
	assets       AssetResolver
	cache        *cache.Store
	expiresAfter mo.Option[time.Duration]
	log          *slog.Logger
}

// New creates a new Exchange client
func New(cfg Config) (*Exchange, error) {
	if cfg.Submitter == nil {
		return nil, fmt.Errorf("submitter is required")
	}
	if cfg.Signer == nil {
		return nil, fmt.Errorf("signer is required")
	}

	nonces := cfg.Nonces
	if nonces == nil {
		nonces = nonce.New()
	}

	var expiresAfter mo.Option[time.Duration]
	if cfg.ExpiresAfter > 0 {
		expiresAfter = mo.Some(cfg.ExpiresAfter)
	}

	return &Exchange{
		submitter:    cfg.Submitter,
		signer:       cfg.Signer,
		contexts:     cfg.Contexts,
		nonces:       nonces,
		assets:       cfg.Assets,
		cache:        cfg.Cache,
		expiresAfter: expiresAfter,
		log:          logger.OrNop(cfg.Logger),
	}, nil
}

func (e *Exchange) Signer() *Signer {
	return e.signer
}

// envelope is the body posted to /exchange. Absent vault and expiry are
// sent as null.
type envelope struct {
	Action       any       `json:"action"`
	Nonce        uint64    `json:"nonce"`
	Signature    Signature `json:"signature"`
	VaultAddress *string   `json:"vaultAddress"`
	ExpiresAfter *uint64   `json:"expiresAfter"`
}

// resolve snapshots the trading context for one call.
func (e *Exchange) resolve() tradingctx.Resolution {
	master := e.signer.Wallet().Address()
	if e.contexts == nil {
		return tradingctx.Resolution{
			FetchAddress: master,
			ContextLabel: "Master",
		}
	}
	return e.contexts.Resolve(master)
}

// Dispatch validates, signs and submits a, and reports exactly one
// outcome. Nothing is retried.
func (e *Exchange) Dispatch(ctx context.Context, a Action) Outcome {
	kind := a.Kind()
	desc, ok := descriptors[kind]
	if !ok {
		return failed(kind, &SigningError{Kind: kind, Err: errors.New("unknown action kind")})
	}

	res := e.resolve()
	var vault mo.Option[common.Address]
	if desc.vaulted {
		vault = res.VaultAddress
	}
	if res.IsSubAccount && desc.masterOnly {
		return failed(kind, invalid("context", "%s acts on the master account; switch to master first", kind))
	}

	wire, err := a.build(buildEnv{assets: e.assets, vault: res.VaultAddress})
	if err != nil {
		e.log.Debug("action rejected", "kind", kind, "error", err)
		return failed(kind, err)
	}

	return e.submit(ctx, kind, wire, vault)
}

func (e *Exchange) submit(
	ctx context.Context,
	kind Kind,
	wire any,
	vault mo.Option[common.Address],
) Outcome {
	desc := descriptors[kind]
	n := e.nonces.Next()

	var expiresAfter mo.Option[uint64]
	if desc.scheme == SchemeUserSigned {
		us, ok := wire.(userSigned)
		if !ok {
			return failed(kind, &SigningError{Kind: kind, Err: fmt.Errorf("%T is not a user-signed action", wire)})
		}
		us.stamp(n, e.signer.SignatureChainID(), e.signer.Network())
		vault = mo.None[common.Address]()
	} else if d, ok := e.expiresAfter.Get(); ok {
		expiresAfter = mo.Some(n + uint64(d.Milliseconds()))
	}

	s, err := e.signer.sign(ctx, kind, wire, n, vault, expiresAfter)
	if err != nil {
		e.log.Warn("action not signed", "kind", kind, "nonce", n, "error", err)
		return failed(kind, err)
	}

	env := envelope{
		Action:    wire,
		Nonce:     n,
		Signature: s.sig,
	}
	if v, ok := vault.Get(); ok {
		addr := lower(v)
		env.VaultAddress = &addr
	}
	if x, ok := expiresAfter.Get(); ok {
		env.ExpiresAfter = &x
	}

	signer := "wallet"
	if a, ok := s.agent.Get(); ok {
		signer = a.Hex()
	}

	var resp Response[ResponseBody]
	if err := e.submitter.Post(ctx, exchangePath, env, &resp); err != nil {
		err = classifyPostError(err)
		e.log.Warn("action failed", "kind", kind, "nonce", n, "signer", signer, "error", err)
		return e.rejected(ctx, kind, s, err)
	}

	if !resp.IsOK() {
		err := &SubmissionError{Reason: resp.ErrorMessage}
		e.log.Warn("action refused", "kind", kind, "nonce", n, "signer", signer, "reason", resp.ErrorMessage)
		return e.rejected(ctx, kind, s, err)
	}

	if errs := resp.Data.statusErrors(); len(errs) > 0 {
		err := &SubmissionError{Reason: joinStatusErrors(errs)}
		e.log.Warn("action refused", "kind", kind, "nonce", n, "signer", signer, "reason", err.Reason)
		return e.rejected(ctx, kind, s, err)
	}

	dropped := 0
	if e.cache != nil {
		dropped = e.cache.Invalidate(desc.tags...)
	}
	e.log.Info("action accepted", "kind", kind, "nonce", n, "signer", signer, "invalidated", dropped)

	data, err := json.Marshal(resp.Data)
	if err != nil {
		data = nil
	}
	return Outcome{Kind: kind, Success: true, Data: data}
}

// rejected reports a failed submission. An agent-signed action refused
// because the agent is unknown drops the agent.
func (e *Exchange) rejected(ctx context.Context, kind Kind, s signed, err error) Outcome {
	var se *SubmissionError
	if errors.As(err, &se) && s.agent.IsPresent() && isAgentUnauthorized(se.Reason) {
		se.AgentUnauthorized = true
		_ = e.signer.Revoke(ctx, se.Reason)
	}
	return failed(kind, err)
}

// classifyPostError separates refusals, which carry the exchange's reason,
// from failures to get any answer.
func classifyPostError(err error) error {
	var ce *rest.ClientError
	if errors.As(err, &ce) {
		return &SubmissionError{Reason: strings.TrimSpace(ce.Msg)}
	}
	var pe *ws.PostError
	if errors.As(err, &pe) {
		return &SubmissionError{Reason: pe.Msg}
	}
	return &TransportError{Err: err}
}

// EnableTrading generates an agent, has the primary wallet approve it and
// submits the approval. The agent becomes ready only once the exchange
// accepts it.
func (e *Exchange) EnableTrading(ctx context.Context) Outcome {
	kind := KindApproveAgent

	if e.signer.State(ctx) == AgentReady {
		return Outcome{Kind: kind, Success: true}
	}

	gen, err := e.signer.beginApproval(ctx)
	if err != nil {
		return failed(kind, err)
	}

	wire, err := approveAgent{agent: gen.Address, name: e.signer.name}.build(buildEnv{})
	if err != nil {
		e.signer.abortApproval(ctx, err)
		return failed(kind, err)
	}

	out := e.submit(ctx, kind, wire, mo.None[common.Address]())
	if out.IsTransportError() {
		// The approval may have landed. Keep the agent; if the exchange
		// never saw it, the first refusal of an agent-signed action
		// revokes it.
		e.log.Warn("agent approval unconfirmed, keeping agent", "agent", gen.Address, "error", out.Err)
		_ = e.signer.completeApproval(ctx, gen)
		return out
	}
	if !out.Success {
		e.signer.abortApproval(ctx, out.Err)
		return out
	}

	// The exchange accepted the agent. A local write failure only means
	// later actions fall back to the wallet.
	_ = e.signer.completeApproval(ctx, gen)
	return out
}

// DisableTrading forgets the agent. Later L1 actions are signed by the
// wallet.
func (e *Exchange) DisableTrading(ctx context.Context) Outcome {
	kind := KindApproveAgent
	err := e.signer.Revoke(ctx, "trading disabled")
	if err != nil && e.signer.State(ctx) == AgentReady {
		return failed(kind, err)
	}
	return Outcome{Kind: kind, Success: true}
}
