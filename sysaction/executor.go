package sysaction

import (
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/vm"
	"github.com/tos-network/dumpglory/leaderboard"
	"github.com/tos-network/dumpglory/params"
)

var (
	// ErrUnauthorized is returned when a non-owner calls an owner-gated action.
	ErrUnauthorized = errors.New("sysaction: caller is not authorized")
	// ErrUnexpectedValue is returned when native value accompanies an action
	// that does not consume it.
	ErrUnexpectedValue = errors.New("sysaction: action does not accept value")
)

// AcceptsValue reports whether kind consumes the native value sent with it.
func AcceptsValue(kind ActionKind) bool {
	return kind == ActionSignup
}

// Entropy supplies the per-participant randomness used at epoch rollover.
type Entropy interface {
	Draw(epoch uint64, addr common.Address) uint64
}

// Swapper converts DUMP collected by the fee pot into GLORY on an external
// venue and reports the amount of GLORY bought (and burned).
type Swapper interface {
	SwapForGlory(dumpIn *big.Int) (*big.Int, error)
}

// Context carries information available to a system-action handler.
type Context struct {
	From    common.Address
	Value   *big.Int
	Time    uint64 // unix seconds
	StateDB vm.StateDB
	Config  *params.GameConfig
	Board   *leaderboard.Board
	Entropy Entropy
	Swapper Swapper
}

// RequireOwner is the capability check run at the top of owner-gated handlers.
func (c *Context) RequireOwner() error {
	if c.From != c.Config.Owner {
		return ErrUnauthorized
	}
	return nil
}

// Handler is implemented by the game's sub-systems.
type Handler interface {
	CanHandle(kind ActionKind) bool
	Handle(ctx *Context, sa *SysAction) error
}

// Registry holds registered handlers.
type Registry struct {
	mu       sync.RWMutex
	handlers []Handler
}

// DefaultRegistry is the process-wide handler registry.
var DefaultRegistry = &Registry{}

// Register adds a handler to the registry.
func (r *Registry) Register(h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers = append(r.handlers, h)
}

// Lookup returns the handler for kind, or nil.
func (r *Registry) Lookup(kind ActionKind) Handler {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, h := range r.handlers {
		if h.CanHandle(kind) {
			return h
		}
	}
	return nil
}

// Dispatch routes sa to its handler.
func (r *Registry) Dispatch(ctx *Context, sa *SysAction) error {
	h := r.Lookup(sa.Action)
	if h == nil {
		return fmt.Errorf("unknown system action: %q", sa.Action)
	}
	if ctx.Value == nil {
		ctx.Value = new(big.Int)
	}
	if ctx.Value.Sign() != 0 && !AcceptsValue(sa.Action) {
		return ErrUnexpectedValue
	}
	return h.Handle(ctx, sa)
}

// ExecuteWithContext decodes data and dispatches it through DefaultRegistry.
// It performs no snapshot handling; callers needing atomicity use the engine.
func ExecuteWithContext(ctx *Context, data []byte) error {
	sa, err := Decode(data)
	if err != nil {
		return err
	}
	return DefaultRegistry.Dispatch(ctx, sa)
}
