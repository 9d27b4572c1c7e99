package exchange

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"
)

// HookState is the three-state result of the latest invocation, plus Idle
// before the first.
type HookState int

const (
	Idle HookState = iota
	Pending
	Succeeded
	Failed
)

func (s HookState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Pending:
		return "pending"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("HookState(%d)", int(s))
}

func (s HookState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Hook is the entry point of one action for a caller. It does not
// deduplicate: a second Invoke while one is in flight submits again.
type Hook[A any] struct {
	fn func(context.Context, A) Outcome

	mu       sync.Mutex
	inFlight int
	state    HookState
	last     Outcome
}

func NewHook[A any](fn func(context.Context, A) Outcome) *Hook[A] {
	return &Hook[A]{fn: fn}
}

// Invoke runs the action and records its outcome.
func (h *Hook[A]) Invoke(ctx context.Context, args A) Outcome {
	h.mu.Lock()
	h.inFlight++
	h.state = Pending
	h.mu.Unlock()

	out := h.fn(ctx, args)

	h.mu.Lock()
	defer h.mu.Unlock()
	h.inFlight--
	h.last = out
	switch {
	case h.inFlight > 0:
		h.state = Pending
	case out.Success:
		h.state = Succeeded
	default:
		h.state = Failed
	}
	return out
}

func (h *Hook[A]) InFlight() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.inFlight > 0
}

func (h *Hook[A]) State() HookState {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// Last is the latest completed outcome.
func (h *Hook[A]) Last() Outcome {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.last
}

// HookStatus is a point-in-time view of a hook.
type HookStatus struct {
	State    HookState `json:"state"`
	InFlight bool      `json:"inFlight"`
	Last     *Outcome  `json:"last,omitempty"`
}

func (h *Hook[A]) Status() HookStatus {
	h.mu.Lock()
	defer h.mu.Unlock()
	st := HookStatus{State: h.state, InFlight: h.inFlight > 0}
	if h.state == Succeeded || h.state == Failed {
		last := h.last
		st.Last = &last
	}
	return st
}

// Hooks is one hook per user-facing action.
type Hooks struct {
	EnableTrading      *Hook[struct{}]
	DisableTrading     *Hook[struct{}]
	PlaceOrder         *Hook[PlaceOrder]
	ModifyOrder        *Hook[ModifyOrder]
	CancelOrder        *Hook[CancelOrder]
	CancelByCloid      *Hook[CancelByCloid]
	Transfer           *Hook[UsdTransfer]
	ClassTransfer      *Hook[UsdClassTransfer]
	UpdateLeverage     *Hook[UpdateLeverage]
	Delegate           *Hook[TokenDelegate]
	Undelegate         *Hook[TokenDelegate]
	StakingDeposit     *Hook[StakingDeposit]
	StakingWithdraw    *Hook[StakingWithdraw]
	VaultDeposit       *Hook[VaultTransfer]
	VaultWithdraw      *Hook[VaultTransfer]
	SubAccountTransfer *Hook[SubAccountTransfer]
	CreateSubAccount   *Hook[CreateSubAccount]
	CreateReferral     *Hook[CreateReferral]
	SetReferrer        *Hook[SetReferrer]
	ClaimRewards       *Hook[ClaimRewards]

	byName map[string]namedHook
}

type namedHook struct {
	invoke func(ctx context.Context, raw json.RawMessage) (Outcome, error)
	status func() HookStatus
}

func dispatch[A Action](e *Exchange) func(context.Context, A) Outcome {
	return func(ctx context.Context, a A) Outcome {
		return e.Dispatch(ctx, a)
	}
}

// NewHooks binds every hook to e.
func NewHooks(e *Exchange) *Hooks {
	h := &Hooks{byName: make(map[string]namedHook)}

	h.EnableTrading = register(h, "enableTrading", NewHook(func(ctx context.Context, _ struct{}) Outcome {
		return e.EnableTrading(ctx)
	}))
	h.DisableTrading = register(h, "disableTrading", NewHook(func(ctx context.Context, _ struct{}) Outcome {
		return e.DisableTrading(ctx)
	}))
	h.PlaceOrder = register(h, "placeOrder", NewHook(dispatch[PlaceOrder](e)))
	h.ModifyOrder = register(h, "modifyOrder", NewHook(dispatch[ModifyOrder](e)))
	h.CancelOrder = register(h, "cancelOrder", NewHook(dispatch[CancelOrder](e)))
	h.CancelByCloid = register(h, "cancelByCloid", NewHook(dispatch[CancelByCloid](e)))
	h.Transfer = register(h, "transfer", NewHook(dispatch[UsdTransfer](e)))
	h.ClassTransfer = register(h, "classTransfer", NewHook(dispatch[UsdClassTransfer](e)))
	h.UpdateLeverage = register(h, "updateLeverage", NewHook(dispatch[UpdateLeverage](e)))
	h.Delegate = register(h, "delegate", NewHook(func(ctx context.Context, a TokenDelegate) Outcome {
		a.IsUndelegate = false
		return e.Dispatch(ctx, a)
	}))
	h.Undelegate = register(h, "undelegate", NewHook(func(ctx context.Context, a TokenDelegate) Outcome {
		a.IsUndelegate = true
		return e.Dispatch(ctx, a)
	}))
	h.StakingDeposit = register(h, "stakingDeposit", NewHook(dispatch[StakingDeposit](e)))
	h.StakingWithdraw = register(h, "stakingWithdraw", NewHook(dispatch[StakingWithdraw](e)))
	h.VaultDeposit = register(h, "vaultDeposit", NewHook(func(ctx context.Context, a VaultTransfer) Outcome {
		a.IsDeposit = true
		return e.Dispatch(ctx, a)
	}))
	h.VaultWithdraw = register(h, "vaultWithdraw", NewHook(func(ctx context.Context, a VaultTransfer) Outcome {
		a.IsDeposit = false
		return e.Dispatch(ctx, a)
	}))
	h.SubAccountTransfer = register(h, "subAccountTransfer", NewHook(dispatch[SubAccountTransfer](e)))
	h.CreateSubAccount = register(h, "createSubAccount", NewHook(dispatch[CreateSubAccount](e)))
	h.CreateReferral = register(h, "createReferral", NewHook(dispatch[CreateReferral](e)))
	h.SetReferrer = register(h, "setReferrer", NewHook(dispatch[SetReferrer](e)))
	h.ClaimRewards = register(h, "claimRewards", NewHook(dispatch[ClaimRewards](e)))

	return h
}

func register[A any](h *Hooks, name string, hook *Hook[A]) *Hook[A] {
	h.byName[name] = namedHook{
		invoke: func(ctx context.Context, raw json.RawMessage) (Outcome, error) {
			var args A
			if len(bytes.TrimSpace(raw)) > 0 {
				dec := json.NewDecoder(bytes.NewReader(raw))
				dec.DisallowUnknownFields()
				if err := dec.Decode(&args); err != nil {
					return Outcome{}, fmt.Errorf("decode %s arguments: %w", name, err)
				}
			}
			return hook.Invoke(ctx, args), nil
		},
		status: hook.Status,
	}
	return hook
}

// Names lists the hooks in a stable order.
func (h *Hooks) Names() []string {
	names := make([]string, 0, len(h.byName))
	for name := range h.byName {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// InvokeByName decodes raw JSON arguments for the named hook and invokes
// it. The error is only for unknown names and undecodable arguments.
func (h *Hooks) InvokeByName(ctx context.Context, name string, raw json.RawMessage) (Outcome, error) {
	nh, ok := h.byName[name]
	if !ok {
		return Outcome{}, fmt.Errorf("unknown action %q", name)
	}
	return nh.invoke(ctx, raw)
}

// Status reports every hook by name.
func (h *Hooks) Status() map[string]HookStatus {
	out := make(map[string]HookStatus, len(h.byName))
	for name, nh := range h.byName {
		out[name] = nh.status()
	}
	return out
}
