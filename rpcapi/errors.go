package rpcapi

import (
	"errors"

	"github.com/tos-network/dumpglory/bounty"
	"github.com/tos-network/dumpglory/bridge"
	"github.com/tos-network/dumpglory/dump"
	"github.com/tos-network/dumpglory/epoch"
	"github.com/tos-network/dumpglory/feepot"
	"github.com/tos-network/dumpglory/game"
	"github.com/tos-network/dumpglory/glory"
	"github.com/tos-network/dumpglory/participant"
	"github.com/tos-network/dumpglory/pricing"
	"github.com/tos-network/dumpglory/sysaction"
)

// Application error codes, stable across releases.
const (
	errCodeInvalidAction = -39001
	errCodeUnauthorized  = -39002
	errCodeRejected      = -39003
	errCodeInvalidNonce  = -39004
	errCodeNotFound      = -39005
	errCodeSignature     = -39006
)

// apiError is a JSON-RPC error with an application code and the kind of
// game error as data.
type apiError struct {
	code    int
	message string
	kind    string
}

func (e *apiError) Error() string          { return e.message }
func (e *apiError) ErrorCode() int         { return e.code }
func (e *apiError) ErrorData() interface{} { return map[string]string{"kind": e.kind} }

// errorKinds names each game error for clients.
var errorKinds = []struct {
	err  error
	kind string
}{
	{participant.ErrNotActiveParticipant, "NotActiveParticipant"},
	{participant.ErrInsufficientStake, "InsufficientStake"},
	{participant.ErrAlreadySignedUp, "AlreadySignedUp"},
	{participant.ErrSignupDisabled, "SignupDisabled"},
	{participant.ErrSystemAddress, "SystemAddress"},
	{epoch.ErrGameNotStarted, "GameNotStarted"},
	{epoch.ErrEpochNotReady, "EpochNotReady"},
	{epoch.ErrEpochAlreadyFinalized, "EpochAlreadyFinalized"},
	{epoch.ErrWaitingPeriodNotOver, "WaitingPeriodNotOver"},
	{epoch.ErrEpochActive, "EpochActive"},
	{epoch.ErrSignupClosed, "SignupClosed"},
	{epoch.ErrInsufficientFee, "InsufficientFee"},
	{epoch.ErrNotInitialized, "NotInitialized"},
	{dump.ErrGiveCooldownActive, "GiveCooldownActive"},
	{dump.ErrTheftCooldownActive, "TheftCooldownActive"},
	{dump.ErrInsufficientBalance, "InsufficientBalance"},
	{dump.ErrZeroAmount, "ZeroAmount"},
	{dump.ErrSelfTransfer, "SelfTransfer"},
	{dump.ErrSelfTheft, "SelfTheft"},
	{dump.ErrInvalidRecipient, "InvalidRecipient"},
	{pricing.ErrDivisionByZero, "DivisionByZero"},
	{feepot.ErrEmergencyPaused, "EmergencyPaused"},
	{feepot.ErrNothingToBuyback, "NothingToBuyback"},
	{feepot.ErrSwapFailed, "SwapFailed"},
	{glory.ErrInsufficientBalance, "InsufficientBalance"},
	{glory.ErrBurnExceedsSupply, "BurnExceedsSupply"},
	{bounty.ErrInvalidSeverity, "InvalidSeverity"},
	{bounty.ErrReportNotFound, "ReportNotFound"},
	{bounty.ErrAlreadyVerified, "AlreadyVerified"},
	{bounty.ErrReserveExceeded, "ReserveExceeded"},
	{bounty.ErrNotVerified, "NotVerified"},
	{bounty.ErrAlreadyPaid, "AlreadyPaid"},
	{bridge.ErrBridgeLimitExceeded, "BridgeLimitExceeded"},
	{game.ErrInsufficientFunds, "InsufficientFunds"},
}

// toAPIError maps a game error onto a JSON-RPC error.
func toAPIError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, game.ErrInvalidNonce):
		return &apiError{code: errCodeInvalidNonce, message: err.Error(), kind: "InvalidNonce"}
	case errors.Is(err, sysaction.ErrUnauthorized):
		return &apiError{code: errCodeUnauthorized, message: err.Error(), kind: "Unauthorized"}
	case errors.Is(err, sysaction.ErrInvalidSysAction), errors.Is(err, sysaction.ErrUnexpectedValue):
		return &apiError{code: errCodeInvalidAction, message: err.Error(), kind: "InvalidAction"}
	case errors.Is(err, errInvalidSignature):
		return &apiError{code: errCodeSignature, message: err.Error(), kind: "InvalidSignature"}
	}
	for _, k := range errorKinds {
		if errors.Is(err, k.err) {
			code := errCodeRejected
			if k.err == bounty.ErrReportNotFound {
				code = errCodeNotFound
			}
			return &apiError{code: code, message: err.Error(), kind: k.kind}
		}
	}
	return &apiError{code: errCodeInvalidAction, message: err.Error(), kind: "Unknown"}
}
