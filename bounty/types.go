// Package bounty implements the bug bounty ledger: open report submission,
// owner verification against a GLORY reserve, payout and rejection.
package bounty

import (
	"errors"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/tos-network/dumpglory/params"
)

// Sentinel errors returned by system action handlers.
var (
	ErrInvalidSeverity     = errors.New("bounty: invalid severity")
	ErrReportNotFound      = errors.New("bounty: report not found")
	ErrAlreadyVerified     = errors.New("bounty: report already verified")
	ErrReserveExceeded     = errors.New("bounty: bounty exceeds reserve")
	ErrNotVerified         = errors.New("bounty: report not verified")
	ErrAlreadyPaid         = errors.New("bounty: bounty already paid")
	ErrDescriptionTooLarge = errors.New("bounty: description too large")
)

// Severity grades a report.
type Severity uint8

const (
	SeverityLow Severity = iota
	SeverityMedium
	SeverityHigh
	SeverityCritical
)

var severityNames = [...]string{"LOW", "MEDIUM", "HIGH", "CRITICAL"}

func (s Severity) String() string {
	if int(s) < len(severityNames) {
		return severityNames[s]
	}
	return "UNKNOWN"
}

// ParseSeverity accepts a severity name in any case.
func ParseSeverity(name string) (Severity, error) {
	for i, n := range severityNames {
		if strings.EqualFold(name, n) {
			return Severity(i), nil
		}
	}
	return 0, ErrInvalidSeverity
}

// StandardBounty returns the configured payout for a severity.
func StandardBounty(cfg *params.GameConfig, s Severity) *big.Int {
	switch s {
	case SeverityLow:
		return new(big.Int).Set(cfg.BountyLow)
	case SeverityMedium:
		return new(big.Int).Set(cfg.BountyMedium)
	case SeverityHigh:
		return new(big.Int).Set(cfg.BountyHigh)
	default:
		return new(big.Int).Set(cfg.BountyCritical)
	}
}

// Report is a bug report and its workflow state. A rejected report is
// verified and paid with a zero bounty, and additionally flagged Rejected.
type Report struct {
	ID             uint64         `json:"id"`
	Reporter       common.Address `json:"reporter"`
	Severity       string         `json:"severity"`
	Description    string         `json:"description"`
	ProofOfConcept string         `json:"proofOfConcept"`
	Verified       bool           `json:"verified"`
	Paid           bool           `json:"paid"`
	Rejected       bool           `json:"rejected"`
	RejectReason   string         `json:"rejectReason,omitempty"`
	BountyAmount   *big.Int       `json:"bountyAmount"`
	SubmittedAt    uint64         `json:"submittedAt"`
}
