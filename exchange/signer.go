package exchange

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"sync"

	"github.com/banky/go-hyperliquid-agent/agent"
	"github.com/banky/go-hyperliquid-agent/constants"
	"github.com/banky/go-hyperliquid-agent/internal/logger"
	"github.com/banky/go-hyperliquid-agent/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/samber/mo"
)

// State is the signer's agent state.
type State int

const (
	NoAgent State = iota
	AgentPendingApproval
	AgentReady
)

func (s State) String() string {
	switch s {
	case NoAgent:
		return "noAgent"
	case AgentPendingApproval:
		return "agentPendingApproval"
	case AgentReady:
		return "agentReady"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Signer produces signatures for every action kind, choosing between the
// approved agent key and the primary wallet.
type Signer struct {
	wallet  Wallet
	store   agent.Store
	network types.Network
	name    string
	log     *slog.Logger

	mu      sync.Mutex
	pending bool
}

type SignerOption func(*Signer)

// WithAgentName names the agent in its approval. Unnamed agents are the
// default.
func WithAgentName(name string) SignerOption {
	return func(s *Signer) {
		s.name = name
	}
}

func WithSignerLogger(l *slog.Logger) SignerOption {
	return func(s *Signer) {
		s.log = logger.OrNop(l)
	}
}

// NewSigner returns a signer for wallet on network. The agent credential
// in store must belong to wallet.
func NewSigner(
	wallet Wallet,
	store agent.Store,
	network types.Network,
	opts ...SignerOption,
) *Signer {
	s := &Signer{
		wallet:  wallet,
		store:   store,
		network: network,
		log:     logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Signer) Wallet() Wallet {
	return s.wallet
}

func (s *Signer) Network() types.Network {
	return s.network
}

// State reports the agent state. Storage failures read as NoAgent.
func (s *Signer) State(ctx context.Context) State {
	s.mu.Lock()
	pending := s.pending
	s.mu.Unlock()

	if pending {
		return AgentPendingApproval
	}
	if s.store.IsReady(ctx) {
		return AgentReady
	}
	return NoAgent
}

// IsReady reports whether L1 actions will be signed without a wallet
// prompt.
func (s *Signer) IsReady(ctx context.Context) bool {
	return s.State(ctx) == AgentReady
}

// SignatureChainID is the signatureChainId of user-signed actions: the
// wallet's own chain when it reports one.
func (s *Signer) SignatureChainID() string {
	if c, ok := s.wallet.(ChainIDer); ok {
		if id := c.ChainID(); id != nil && id.Sign() > 0 {
			return chainIdHex(id)
		}
	}
	return chainIdHex(big.NewInt(constants.SIGNATURE_CHAIN_ID))
}

// signed is a signature and whether the agent key produced it.
type signed struct {
	sig   Signature
	agent mo.Option[common.Address]
}

// sign signs a built action. User-signed actions must already be stamped.
func (s *Signer) sign(
	ctx context.Context,
	kind Kind,
	action any,
	nonce uint64,
	vault mo.Option[common.Address],
	expiresAfter mo.Option[uint64],
) (signed, error) {
	desc := descriptors[kind]

	if desc.scheme == SchemeUserSigned {
		us, ok := action.(userSigned)
		if !ok {
			return signed{}, &SigningError{Kind: kind, Err: fmt.Errorf("%T is not a user-signed action", action)}
		}
		typedData, err := userSignedPayload(desc.primaryType, desc.fields, us.message(), s.SignatureChainID())
		if err != nil {
			return signed{}, &SigningError{Kind: kind, Err: err}
		}
		return s.signWithWallet(ctx, typedData)
	}

	typedData, err := l1TypedData(action, vault, nonce, expiresAfter, s.network)
	if err != nil {
		return signed{}, &SigningError{Kind: kind, Err: err}
	}

	if s.State(ctx) == AgentReady {
		cred, err := s.store.Credential(ctx)
		if err == nil {
			sig, err := signTypedData(cred.PrivateKey, typedData)
			if err != nil {
				return signed{}, &SigningError{Kind: kind, Err: err}
			}
			return signed{sig: sig, agent: mo.Some(cred.Address)}, nil
		}
		s.log.Warn("agent credential unreadable, signing with wallet", "error", err)
	}

	return s.signWithWallet(ctx, typedData)
}

func (s *Signer) signWithWallet(ctx context.Context, typedData apitypes.TypedData) (signed, error) {
	if s.wallet == nil {
		return signed{}, &WalletError{Err: ErrWalletUnavailable}
	}
	sig, err := s.wallet.SignTypedData(ctx, typedData)
	if err != nil {
		return signed{}, &WalletError{Err: err}
	}
	return signed{sig: sig}, nil
}

// beginApproval moves NoAgent to AgentPendingApproval and returns the new
// key. A key that could not be persisted is still returned; approval then
// succeeds on the exchange but the agent never becomes ready locally.
func (s *Signer) beginApproval(ctx context.Context) (agent.Generated, error) {
	s.mu.Lock()
	if s.pending {
		s.mu.Unlock()
		return agent.Generated{}, ErrApprovalInProgress
	}
	s.pending = true
	s.mu.Unlock()

	gen, err := s.store.GenerateAndStore(ctx)
	if gen.PrivateKey == nil {
		s.setPending(false)
		if err == nil {
			err = errors.New("no key generated")
		}
		return agent.Generated{}, err
	}
	if err != nil {
		s.log.Warn("pending agent not persisted", "agent", gen.Address, "error", err)
	}

	s.log.Info("agent pending approval", "agent", gen.Address)
	return gen, nil
}

// completeApproval moves AgentPendingApproval to AgentReady.
func (s *Signer) completeApproval(ctx context.Context, gen agent.Generated) error {
	defer s.setPending(false)

	if err := s.store.MarkApprovedWithKey(ctx, gen.PrivateKey); err != nil {
		s.log.Warn("approved agent not persisted, agent stays unavailable",
			"agent", gen.Address,
			"error", err,
		)
		return err
	}

	s.log.Info("agent ready", "agent", gen.Address)
	return nil
}

// abortApproval moves AgentPendingApproval back to NoAgent.
func (s *Signer) abortApproval(ctx context.Context, reason error) {
	defer s.setPending(false)

	if err := s.store.Clear(ctx); err != nil {
		s.log.Warn("failed to discard pending agent", "error", err)
	}
	s.log.Info("agent approval abandoned", "reason", reason)
}

// Revoke forgets the agent, moving AgentReady to NoAgent.
func (s *Signer) Revoke(ctx context.Context, reason string) error {
	err := s.store.Clear(ctx)
	if err != nil {
		s.log.Warn("failed to clear agent", "error", err)
	}
	s.log.Info("agent revoked", "reason", reason)
	return err
}

func (s *Signer) setPending(p bool) {
	s.mu.Lock()
	s.pending = p
	s.mu.Unlock()
}
