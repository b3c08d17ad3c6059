// Package game wires the DUMP/GLORY components into a single engine: it
// owns the state database, serialises actions, applies each one atomically
// and commits the resulting state, and answers the read-only queries.
package game

import (
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/state"
	"github.com/ethereum/go-ethereum/ethdb"
	"github.com/ethereum/go-ethereum/log"
	"github.com/tos-network/dumpglory/feepot"
	"github.com/tos-network/dumpglory/glory"
	"github.com/tos-network/dumpglory/journal"
	"github.com/tos-network/dumpglory/leaderboard"
	"github.com/tos-network/dumpglory/params"
	"github.com/tos-network/dumpglory/sysaction"
)

// ErrInvalidNonce is returned when a message's nonce does not match the
// sender's account nonce.
var ErrInvalidNonce = errors.New("game: invalid nonce")

// Config holds the engine's collaborators.
type Config struct {
	Clock   Clock             // defaults to SystemClock
	Entropy sysaction.Entropy // defaults to KeccakEntropy over the rule seed
	Swapper sysaction.Swapper // defaults to a FixedRateSwapper at the rule rate
	Journal *journal.Journal  // optional
}

// Message is a request to apply one action.
type Message struct {
	From       common.Address
	Nonce      uint64
	CheckNonce bool
	Value      *big.Int
	Data       []byte
}

// Receipt describes an applied action.
type Receipt struct {
	Action sysaction.ActionKind `json:"action"`
	Time   uint64               `json:"time"`
	Root   common.Hash          `json:"root"`
	Seq    uint64               `json:"seq"` // journal sequence, 0 without a journal
}

// Engine is the game state machine. All methods are safe for concurrent use;
// actions are applied one at a time.
type Engine struct {
	mu sync.Mutex

	rules   *params.GameConfig
	db      ethdb.Database
	sdb     state.Database
	state   *state.StateDB
	root    common.Hash
	board   *leaderboard.Board
	clock   Clock
	entropy sysaction.Entropy
	swapper sysaction.Swapper
	journal *journal.Journal
}

// Init writes genesis for rules into db and returns the genesis root. It
// fails if db already holds a game.
func Init(db ethdb.Database, rules *params.GameConfig) (common.Hash, error) {
	if _, ok := ReadHeadRoot(db); ok {
		return common.Hash{}, errors.New("game: database already initialised")
	}
	sdb := state.NewDatabase(db)
	st, err := state.New(common.Hash{}, sdb, nil)
	if err != nil {
		return common.Hash{}, err
	}
	if err := SetupGenesis(st, rules); err != nil {
		return common.Hash{}, err
	}
	root, err := commit(st, sdb)
	if err != nil {
		return common.Hash{}, err
	}
	if err := writeGameConfig(db, rules); err != nil {
		return common.Hash{}, err
	}
	if err := writeHeadRoot(db, root); err != nil {
		return common.Hash{}, err
	}
	return root, nil
}

// New opens the game stored in db.
func New(db ethdb.Database, cfg Config) (*Engine, error) {
	rules, err := ReadGameConfig(db)
	if err != nil {
		return nil, err
	}
	root, ok := ReadHeadRoot(db)
	if !ok {
		return nil, ErrNoGenesis
	}
	sdb := state.NewDatabase(db)
	st, err := state.New(root, sdb, nil)
	if err != nil {
		return nil, fmt.Errorf("game: open state %x: %w", root, err)
	}
	e := &Engine{
		rules:   rules,
		db:      db,
		sdb:     sdb,
		state:   st,
		root:    root,
		board:   leaderboard.New(int64(binaryPrefix(rules.EntropySeed))),
		clock:   cfg.Clock,
		entropy: cfg.Entropy,
		swapper: cfg.Swapper,
		journal: cfg.Journal,
	}
	if e.clock == nil {
		e.clock = SystemClock{}
	}
	if e.entropy == nil {
		e.entropy = KeccakEntropy{Seed: rules.EntropySeed}
	}
	if e.swapper == nil {
		e.swapper = feepot.FixedRateSwapper{RateBps: rules.BuybackRateBps}
	}
	e.rebuildBoard()
	log.Info("Opened game state", "root", root, "epoch", e.CurrentEpoch(), "ranked", e.board.Len())
	return e, nil
}

func binaryPrefix(h common.Hash) uint64 {
	return new(big.Int).SetBytes(h[:8]).Uint64()
}

// rebuildBoard restores the in-memory leaderboard from the last persisted
// epoch snapshot.
func (e *Engine) rebuildBoard() {
	last := glory.LastSnapshotEpoch(e.state)
	if last == 0 {
		return
	}
	e.board.Reset()
	for _, entry := range glory.ReadSnapshot(e.state, last) {
		e.board.Record(entry.Address, entry.Score)
	}
}

// Rules returns the game rules.
func (e *Engine) Rules() *params.GameConfig { return e.rules }

// Board returns the live leaderboard.
func (e *Engine) Board() *leaderboard.Board { return e.board }

// Now returns the engine clock's current time.
func (e *Engine) Now() uint64 { return e.clock.Now() }

// Apply runs one action atomically. A rejected action leaves no trace in the
// game state; with CheckNonce the sender's nonce is consumed either way.
func (e *Engine) Apply(msg Message) (*Receipt, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	start := time.Now()
	defer applyTimer.UpdateSince(start)

	if msg.Value == nil {
		msg.Value = new(big.Int)
	}
	if msg.CheckNonce {
		if have := e.state.GetNonce(msg.From); have != msg.Nonce {
			return nil, fmt.Errorf("%w: have %d, want %d", ErrInvalidNonce, msg.Nonce, have)
		}
	}
	sa, err := sysaction.Decode(msg.Data)
	if err != nil {
		invalidMeter.Mark(1)
		return nil, err
	}
	now := e.clock.Now()
	ctx := &sysaction.Context{
		From:    msg.From,
		Value:   msg.Value,
		Time:    now,
		StateDB: e.state,
		Config:  e.rules,
		Board:   e.board,
		Entropy: e.entropy,
		Swapper: e.swapper,
	}
	snap := e.state.Snapshot()
	execErr := sysaction.DefaultRegistry.Dispatch(ctx, sa)
	if execErr != nil {
		e.state.RevertToSnapshot(snap)
		if !msg.CheckNonce {
			markAction(sa.Action, execErr)
			e.record(msg, sa, now, e.root, execErr)
			return nil, execErr
		}
	}
	if msg.CheckNonce {
		e.state.SetNonce(msg.From, msg.Nonce+1)
	}
	root, err := commit(e.state, e.sdb)
	if err != nil {
		return nil, err
	}
	if err := writeHeadRoot(e.db, root); err != nil {
		return nil, err
	}
	if e.state, err = state.New(root, e.sdb, nil); err != nil {
		return nil, err
	}
	e.root = root
	markAction(sa.Action, execErr)
	seq := e.record(msg, sa, now, root, execErr)
	if execErr != nil {
		return nil, execErr
	}
	log.Debug("Applied action", "action", sa.Action, "from", msg.From, "root", root)
	return &Receipt{Action: sa.Action, Time: now, Root: root, Seq: seq}, nil
}

func (e *Engine) record(msg Message, sa *sysaction.SysAction, now uint64, root common.Hash, execErr error) uint64 {
	if e.journal == nil {
		return 0
	}
	entry := &journal.Entry{
		Time:   now,
		From:   msg.From,
		Nonce:  msg.Nonce,
		Value:  msg.Value,
		Action: string(sa.Action),
		Data:   msg.Data,
		Root:   root,
	}
	if execErr != nil {
		entry.Err = execErr.Error()
	}
	seq, err := e.journal.Append(entry)
	if err != nil {
		log.Error("Failed to journal action", "action", sa.Action, "err", err)
	}
	return seq
}

// commit flushes st to its trie database and returns the new root.
// Storage-only system accounts must survive, so empty objects are kept.
func commit(st *state.StateDB, sdb state.Database) (common.Hash, error) {
	root, err := st.Commit(false)
	if err != nil {
		return common.Hash{}, err
	}
	if err := sdb.TrieDB().Commit(root, false, nil); err != nil {
		return common.Hash{}, err
	}
	return root, nil
}

// Root returns the current state root.
func (e *Engine) Root() common.Hash {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.root
}

// Journal returns the action journal, or nil.
func (e *Engine) Journal() *journal.Journal { return e.journal }
