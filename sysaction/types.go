// Package sysaction implements the game's system action protocol.
//
// Every state-changing operation is a JSON-encoded SysAction envelope. The
// engine decodes the envelope and dispatches it to the handler registered
// for its kind (dump ledger, epoch lifecycle, fee pot, GLORY, bug bounty or
// bridge gatekeeper).
package sysaction

import (
	"encoding/json"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// ActionKind identifies the type of system action.
type ActionKind string

const (
	// DUMP ledger
	ActionStake          ActionKind = "STAKE"
	ActionTransfer       ActionKind = "TRANSFER"
	ActionSteal          ActionKind = "STEAL"
	ActionApplyDemurrage ActionKind = "APPLY_DEMURRAGE"
	ActionResetCooldown  ActionKind = "RESET_COOLDOWN"
	ActionAllocate       ActionKind = "ALLOCATE"

	// Epoch lifecycle
	ActionSignup         ActionKind = "SIGNUP"
	ActionFinalizeEpoch  ActionKind = "FINALIZE_EPOCH"
	ActionStartNextEpoch ActionKind = "START_NEXT_EPOCH"

	// Fee pot
	ActionExecuteBuyback    ActionKind = "EXECUTE_BUYBACK"
	ActionSetEmergencyPause ActionKind = "SET_EMERGENCY_PAUSE"

	// GLORY
	ActionGloryTransfer ActionKind = "GLORY_TRANSFER"

	// Bug bounty
	ActionBugSubmit ActionKind = "BUG_SUBMIT"
	ActionBugVerify ActionKind = "BUG_VERIFY"
	ActionBugPay    ActionKind = "BUG_PAY"
	ActionBugReject ActionKind = "BUG_REJECT"

	// Bridge gatekeeper
	ActionBridgeRecord ActionKind = "BRIDGE_RECORD"
)

// AllKinds lists every action kind in a stable order.
var AllKinds = []ActionKind{
	ActionStake, ActionTransfer, ActionSteal, ActionApplyDemurrage, ActionResetCooldown, ActionAllocate,
	ActionSignup, ActionFinalizeEpoch, ActionStartNextEpoch,
	ActionExecuteBuyback, ActionSetEmergencyPause,
	ActionGloryTransfer,
	ActionBugSubmit, ActionBugVerify, ActionBugPay, ActionBugReject,
	ActionBridgeRecord,
}

// SysAction is the top-level envelope of every mutating operation.
type SysAction struct {
	Action  ActionKind      `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// AmountPayload is the payload for STAKE.
type AmountPayload struct {
	Amount *big.Int `json:"amount"`
}

// TransferPayload is the payload for TRANSFER, ALLOCATE and GLORY_TRANSFER.
type TransferPayload struct {
	To     common.Address `json:"to"`
	Amount *big.Int       `json:"amount"`
}

// StealPayload is the payload for STEAL.
type StealPayload struct {
	Victim common.Address `json:"victim"`
	Amount *big.Int       `json:"amount"`
}

// AddressPayload is the payload for APPLY_DEMURRAGE and RESET_COOLDOWN.
type AddressPayload struct {
	Address common.Address `json:"address"`
}

// PausePayload is the payload for SET_EMERGENCY_PAUSE.
type PausePayload struct {
	Paused bool `json:"paused"`
}

// BugSubmitPayload is the payload for BUG_SUBMIT.
type BugSubmitPayload struct {
	Severity       string `json:"severity"`
	Description    string `json:"description"`
	ProofOfConcept string `json:"proofOfConcept"`
}

// BugVerifyPayload is the payload for BUG_VERIFY. A zero or missing bounty
// selects the standard amount for the report's severity.
type BugVerifyPayload struct {
	ID     uint64   `json:"id"`
	Bounty *big.Int `json:"bounty,omitempty"`
}

// BugIDPayload is the payload for BUG_PAY.
type BugIDPayload struct {
	ID uint64 `json:"id"`
}

// BugRejectPayload is the payload for BUG_REJECT.
type BugRejectPayload struct {
	ID     uint64 `json:"id"`
	Reason string `json:"reason"`
}

// BridgeRecordPayload is the payload for BRIDGE_RECORD.
type BridgeRecordPayload struct {
	User   common.Address `json:"user"`
	Amount *big.Int       `json:"amount"`
}
