package bounty

import (
	"github.com/ethereum/go-ethereum/log"
	"github.com/tos-network/dumpglory/glory"
	"github.com/tos-network/dumpglory/params"
	"github.com/tos-network/dumpglory/slots"
	"github.com/tos-network/dumpglory/sysaction"
)

func init() {
	sysaction.DefaultRegistry.Register(&bountyHandler{})
}

// bountyHandler implements sysaction.Handler for the bug bounty workflow.
type bountyHandler struct{}

func (h *bountyHandler) CanHandle(kind sysaction.ActionKind) bool {
	switch kind {
	case sysaction.ActionBugSubmit,
		sysaction.ActionBugVerify,
		sysaction.ActionBugPay,
		sysaction.ActionBugReject:
		return true
	}
	return false
}

func (h *bountyHandler) Handle(ctx *sysaction.Context, sa *sysaction.SysAction) error {
	switch sa.Action {
	case sysaction.ActionBugSubmit:
		return h.handleSubmit(ctx, sa)
	case sysaction.ActionBugVerify:
		return h.handleVerify(ctx, sa)
	case sysaction.ActionBugPay:
		return h.handlePay(ctx, sa)
	case sysaction.ActionBugReject:
		return h.handleReject(ctx, sa)
	}
	return nil
}

func (h *bountyHandler) handleSubmit(ctx *sysaction.Context, sa *sysaction.SysAction) error {
	var p sysaction.BugSubmitPayload
	if err := sysaction.DecodePayload(sa, &p); err != nil {
		return err
	}

	// ── Validation phase (no state writes) ───────────────────────────────────
	sev, err := ParseSeverity(p.Severity)
	if err != nil {
		return err
	}
	if len(p.Description) > params.MaxDescriptionLength || len(p.ProofOfConcept) > params.MaxDescriptionLength {
		return ErrDescriptionTooLarge
	}

	// ── Mutation phase ───────────────────────────────────────────────────────
	id := submit(ctx.StateDB, ctx.From, sev, []byte(p.Description), []byte(p.ProofOfConcept), ctx.Time)
	log.Info("Bug report submitted", "id", id, "reporter", ctx.From, "severity", sev)
	return nil
}

func (h *bountyHandler) handleVerify(ctx *sysaction.Context, sa *sysaction.SysAction) error {
	if err := ctx.RequireOwner(); err != nil {
		return err
	}
	var p sysaction.BugVerifyPayload
	if err := sysaction.DecodePayload(sa, &p); err != nil {
		return err
	}

	// ── Validation phase (no state writes) ───────────────────────────────────
	if !Exists(ctx.StateDB, p.ID) {
		return ErrReportNotFound
	}
	if Read(ctx.StateDB, p.ID).Verified {
		return ErrAlreadyVerified
	}
	bounty := p.Bounty
	if bounty == nil || bounty.Sign() == 0 {
		bounty = StandardBounty(ctx.Config, severityOf(ctx.StateDB, p.ID))
	}
	if err := slots.CheckAmount(bounty); err != nil {
		return err
	}
	if bounty.Cmp(glory.Reserve(ctx.StateDB)) > 0 {
		return ErrReserveExceeded
	}

	// ── Mutation phase ───────────────────────────────────────────────────────
	verify(ctx.StateDB, p.ID, bounty)
	log.Info("Bug report verified", "id", p.ID, "bounty", bounty)
	return nil
}

func (h *bountyHandler) handlePay(ctx *sysaction.Context, sa *sysaction.SysAction) error {
	if err := ctx.RequireOwner(); err != nil {
		return err
	}
	var p sysaction.BugIDPayload
	if err := sysaction.DecodePayload(sa, &p); err != nil {
		return err
	}

	// ── Validation phase (no state writes) ───────────────────────────────────
	if !Exists(ctx.StateDB, p.ID) {
		return ErrReportNotFound
	}
	r := Read(ctx.StateDB, p.ID)
	if !r.Verified {
		return ErrNotVerified
	}
	if r.Paid {
		return ErrAlreadyPaid
	}
	if r.BountyAmount.Cmp(glory.Reserve(ctx.StateDB)) > 0 {
		return ErrReserveExceeded
	}

	// ── Mutation phase ───────────────────────────────────────────────────────
	if r.BountyAmount.Sign() > 0 {
		glory.Move(ctx.StateDB, params.BugBountyAddress, r.Reporter, r.BountyAmount)
	}
	markPaid(ctx.StateDB, p.ID, r.Reporter)
	log.Info("Bug bounty paid", "id", p.ID, "reporter", r.Reporter, "amount", r.BountyAmount)
	return nil
}

func (h *bountyHandler) handleReject(ctx *sysaction.Context, sa *sysaction.SysAction) error {
	if err := ctx.RequireOwner(); err != nil {
		return err
	}
	var p sysaction.BugRejectPayload
	if err := sysaction.DecodePayload(sa, &p); err != nil {
		return err
	}

	// ── Validation phase (no state writes) ───────────────────────────────────
	if !Exists(ctx.StateDB, p.ID) {
		return ErrReportNotFound
	}
	r := Read(ctx.StateDB, p.ID)
	if r.Paid {
		return ErrAlreadyPaid
	}
	if len(p.Reason) > params.MaxDescriptionLength {
		return ErrDescriptionTooLarge
	}

	// ── Mutation phase ───────────────────────────────────────────────────────
	reject(ctx.StateDB, p.ID, []byte(p.Reason))
	log.Info("Bug report rejected", "id", p.ID, "reason", p.Reason)
	return nil
}

