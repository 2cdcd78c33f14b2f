package domain

import (
	"fmt"
	"time"

	"salespipe_backend/platform/apperr"

	"github.com/google/uuid"
)

// Transition is a typed request to move a lead through its lifecycle.
// Every mutation of stage, columnId, status, or a stage payload goes through
// exactly one of these variants, dispatched by the pipeline service. Apply
// mutates the given lead (the service passes a clone) and reports what was
// recorded; on error the lead must be discarded.
type Transition interface {
	// Operation is the audit verb for this transition.
	Operation() string
	// Apply validates the transition against the lead's current state and
	// mutates the lead accordingly.
	Apply(lead *Lead, now time.Time, actorID uuid.UUID) (Applied, error)
}

// Applied describes the observable result of a successful transition.
type Applied struct {
	// Update is the history entry appended by a status-affecting
	// transition, nil otherwise.
	Update *StatusUpdate
	// AuditDetails is the human-readable audit summary.
	AuditDetails string
	// Outcome is the composite review outcome after a review write.
	Outcome ApprovalOutcome
	// NewlyApproved is true when a review write just turned the composite
	// outcome Approved.
	NewlyApproved bool
}

func errUnknownColumn(columnID string) error {
	return apperr.Configuration(fmt.Sprintf("unknown pipeline column %q", columnID))
}

func errWrongState(operation string, lead *Lead) error {
	return apperr.Validation(fmt.Sprintf(
		"%s is not allowed from status %q (column %q)", operation, lead.Status, lead.ColumnID))
}

func requireField(operation, field string, ok bool) error {
	if ok {
		return nil
	}
	return apperr.Validation(fmt.Sprintf("%s requires %s", operation, field))
}

// =============================================================================
// ChangeStatus — Unaware <-> Engaged
// =============================================================================

// ChangeStatus flips a pre-prospect lead between Unaware and Engaged.
type ChangeStatus struct {
	Status Status
	Notes  string
}

func (t ChangeStatus) Operation() string { return "change_status" }

func (t ChangeStatus) Apply(lead *Lead, now time.Time, actorID uuid.UUID) (Applied, error) {
	if lead.Status != StatusUnaware && lead.Status != StatusEngaged {
		return Applied{}, errWrongState(t.Operation(), lead)
	}
	if t.Status != StatusUnaware && t.Status != StatusEngaged {
		return Applied{}, apperr.Validation(fmt.Sprintf("change_status cannot set status %q", t.Status))
	}
	if err := requireField(t.Operation(), "notes", t.Notes != ""); err != nil {
		return Applied{}, err
	}

	update := lead.appendStatusUpdate(t.Status, now, t.Notes, actorID, nil)
	return Applied{
		Update:       update,
		AuditDetails: fmt.Sprintf("Status changed to %s", t.Status),
	}, nil
}

// =============================================================================
// MarkProspect
// =============================================================================

// MarkProspect qualifies contact engagement: the lead moves to the Prospect
// column and records its qualification details. Allowed from any
// pre-Qualified status; re-applying to a lead already marked Prospect
// amends the payload in place without a new history entry.
type MarkProspect struct {
	Data ProspectData
}

func (t MarkProspect) Operation() string { return "mark_prospect" }

func (t MarkProspect) Apply(lead *Lead, now time.Time, actorID uuid.UUID) (Applied, error) {
	if lead.Status != StatusUnaware && lead.Status != StatusEngaged && lead.Status != StatusProspect {
		return Applied{}, errWrongState(t.Operation(), lead)
	}
	if err := requireField(t.Operation(), "response date", !t.Data.ResponseDate.IsZero()); err != nil {
		return Applied{}, err
	}
	if err := requireField(t.Operation(), "engagement type", t.Data.EngagementType != ""); err != nil {
		return Applied{}, err
	}
	if err := requireField(t.Operation(), "contact quality", t.Data.ContactQuality != ""); err != nil {
		return Applied{}, err
	}
	if t.Data.DemoScheduled {
		if err := requireField(t.Operation(), "demo date", t.Data.DemoDate != nil && !t.Data.DemoDate.IsZero()); err != nil {
			return Applied{}, err
		}
	}

	if err := lead.moveToColumn(ColumnProspects); err != nil {
		return Applied{}, err
	}
	amend := lead.Status == StatusProspect
	data := t.Data
	if lead.Prospect == nil {
		lead.Prospect = &data
	} else {
		*lead.Prospect = data
	}

	if amend {
		return Applied{
			AuditDetails: fmt.Sprintf("Prospect details updated (%s, %s)", t.Data.EngagementType, t.Data.ContactQuality),
		}, nil
	}
	update := lead.appendStatusUpdate(StatusProspect, now, t.Data.QualificationNotes, actorID, data)
	return Applied{
		Update:       update,
		AuditDetails: fmt.Sprintf("Marked as prospect (%s, %s)", t.Data.EngagementType, t.Data.ContactQuality),
	}, nil
}

// =============================================================================
// MarkOpportunity
// =============================================================================

// MarkOpportunity promotes a prospect (or directly engaged lead) into the
// qualified opportunities column. The lead's status becomes Qualified: the
// status field, stage, and column move together or not at all.
type MarkOpportunity struct{}

func (t MarkOpportunity) Operation() string { return "mark_opportunity" }

func (t MarkOpportunity) Apply(lead *Lead, now time.Time, actorID uuid.UUID) (Applied, error) {
	if lead.Status != StatusProspect && lead.Status != StatusEngaged {
		return Applied{}, errWrongState(t.Operation(), lead)
	}

	if err := lead.moveToColumn(ColumnQualified); err != nil {
		return Applied{}, err
	}

	update := lead.appendStatusUpdate(StatusQualified, now, "", actorID, nil)
	return Applied{
		Update:       update,
		AuditDetails: "Marked as qualified opportunity",
	}, nil
}

// =============================================================================
// MoveToFutureOpportunity
// =============================================================================

// MoveToFutureOpportunity parks a qualified lead with a follow-up reminder.
type MoveToFutureOpportunity struct {
	Data FutureOpportunityData
}

func (t MoveToFutureOpportunity) Operation() string { return "move_to_future_opportunity" }

func (t MoveToFutureOpportunity) Apply(lead *Lead, now time.Time, actorID uuid.UUID) (Applied, error) {
	if lead.Status != StatusQualified {
		return Applied{}, errWrongState(t.Operation(), lead)
	}
	if err := requireField(t.Operation(), "reminder date", !t.Data.ReminderDate.IsZero()); err != nil {
		return Applied{}, err
	}
	if err := requireField(t.Operation(), "reason", t.Data.Reason != ""); err != nil {
		return Applied{}, err
	}

	if err := lead.moveToColumn(ColumnFuture); err != nil {
		return Applied{}, err
	}
	data := t.Data
	if lead.FutureOpportunity == nil {
		lead.FutureOpportunity = &data
	} else {
		*lead.FutureOpportunity = data
	}

	update := lead.appendStatusUpdate(StatusFutureOpportunity, now, t.Data.Notes, actorID, data)
	return Applied{
		Update:       update,
		AuditDetails: fmt.Sprintf("Moved to future opportunities, follow up on %s", t.Data.ReminderDate.Format("2006-01-02")),
	}, nil
}

// =============================================================================
// Disqualify
// =============================================================================

// Disqualify removes a qualified lead from the active pipeline. Terminal but
// not a delete: the lead and its history stay on the board.
type Disqualify struct {
	Data DisqualifiedData
}

func (t Disqualify) Operation() string { return "disqualify" }

func (t Disqualify) Apply(lead *Lead, now time.Time, actorID uuid.UUID) (Applied, error) {
	if lead.Status != StatusQualified {
		return Applied{}, errWrongState(t.Operation(), lead)
	}
	if !IsKnownDisqualifyReason(t.Data.Reason) {
		return Applied{}, apperr.Validation(fmt.Sprintf("unknown disqualification reason %q", t.Data.Reason))
	}
	if t.Data.Reason == DisqualifyChoseCompetitor {
		if err := requireField(t.Operation(), "competitor", t.Data.Competitor != ""); err != nil {
			return Applied{}, err
		}
	}

	if err := lead.moveToColumn(ColumnDisqualified); err != nil {
		return Applied{}, err
	}
	data := t.Data
	if lead.Disqualified == nil {
		lead.Disqualified = &data
	} else {
		*lead.Disqualified = data
	}

	update := lead.appendStatusUpdate(StatusDisqualified, now, t.Data.Notes, actorID, data)
	return Applied{
		Update:       update,
		AuditDetails: fmt.Sprintf("Disqualified: %s", t.Data.Reason),
	}, nil
}

// =============================================================================
// AddProposal
// =============================================================================

// AddProposal attaches the first proposal revision and moves the lead into
// the proposal/review column. A fresh dual review record is created with
// both tracks pending.
type AddProposal struct {
	Data ProposalData
}

func (t AddProposal) Operation() string { return "add_proposal" }

func (t AddProposal) Apply(lead *Lead, now time.Time, actorID uuid.UUID) (Applied, error) {
	if lead.Status != StatusQualified || lead.ColumnID != ColumnQualified {
		return Applied{}, errWrongState(t.Operation(), lead)
	}
	if err := requireField(t.Operation(), "template", t.Data.Template != ""); err != nil {
		return Applied{}, err
	}
	if err := requireField(t.Operation(), "services", len(t.Data.Services) > 0); err != nil {
		return Applied{}, err
	}
	if err := requireField(t.Operation(), "pricing structure", t.Data.PricingStructure != ""); err != nil {
		return Applied{}, err
	}
	if err := requireField(t.Operation(), "duration", t.Data.DurationMonths > 0); err != nil {
		return Applied{}, err
	}
	if err := requireField(t.Operation(), "terms version", t.Data.TermsVersion != ""); err != nil {
		return Applied{}, err
	}

	if err := lead.moveToColumn(ColumnProposal); err != nil {
		return Applied{}, err
	}

	data := t.Data
	if lead.Proposal == nil {
		data.Revision = 1
		lead.Proposal = &data
	} else {
		data.Revision = lead.Proposal.Revision + 1
		*lead.Proposal = data
	}
	if lead.InternalReview == nil {
		lead.InternalReview = NewInternalReview()
	}

	return Applied{
		AuditDetails: fmt.Sprintf("Proposal revision %d added (%s)", data.Revision, data.Template),
	}, nil
}

// =============================================================================
// UpdateReview
// =============================================================================

// ReviewUpdate is a partial write to one review track. Nil fields are left
// untouched so CST and CRO reviewers can submit independently.
type ReviewUpdate struct {
	Status   *ReviewStatus
	Reviewer *string
	Notes    *string
}

// UpdateReview merges partial CST/CRO updates into the review record and
// recomputes the derived approval stamps.
type UpdateReview struct {
	CST *ReviewUpdate
	CRO *ReviewUpdate
	// ActorName is stamped as approvedBy when this write completes the
	// dual approval.
	ActorName string
}

func (t UpdateReview) Operation() string { return "update_review" }

func (t UpdateReview) Apply(lead *Lead, now time.Time, actorID uuid.UUID) (Applied, error) {
	if lead.ColumnID != ColumnProposal {
		return Applied{}, errWrongState(t.Operation(), lead)
	}
	if lead.InternalReview == nil {
		return Applied{}, apperr.Validation("lead has no review record; add a proposal first")
	}
	if t.CST == nil && t.CRO == nil {
		return Applied{}, apperr.Validation("update_review requires at least one track update")
	}

	if err := mergeTrack(&lead.InternalReview.CST, t.CST); err != nil {
		return Applied{}, err
	}
	if err := mergeTrack(&lead.InternalReview.CRO, t.CRO); err != nil {
		return Applied{}, err
	}

	outcome, newlyApproved := ReconcileApproval(lead.InternalReview, now, t.ActorName)

	details := fmt.Sprintf("Internal review updated, outcome %s", outcome)
	if newlyApproved {
		details = fmt.Sprintf("Internal review fully approved by %s", t.ActorName)
	}

	return Applied{
		AuditDetails:  details,
		Outcome:       outcome,
		NewlyApproved: newlyApproved,
	}, nil
}

func mergeTrack(track *ReviewTrack, update *ReviewUpdate) error {
	if update == nil {
		return nil
	}
	if update.Status != nil {
		if !IsKnownReviewStatus(*update.Status) {
			return apperr.Validation(fmt.Sprintf("unknown review status %q", *update.Status))
		}
		track.Status = *update.Status
	}
	if update.Reviewer != nil {
		track.Reviewer = *update.Reviewer
	}
	if update.Notes != nil {
		track.Notes = *update.Notes
	}
	return nil
}

// =============================================================================
// MoveToClientDelivery
// =============================================================================

// MoveToClientDelivery advances a fully approved proposal into the delivery
// column. Gated on the composite review outcome.
type MoveToClientDelivery struct{}

func (t MoveToClientDelivery) Operation() string { return "move_to_client_delivery" }

func (t MoveToClientDelivery) Apply(lead *Lead, now time.Time, actorID uuid.UUID) (Applied, error) {
	if lead.ColumnID != ColumnProposal {
		return Applied{}, errWrongState(t.Operation(), lead)
	}
	if lead.InternalReview == nil || Evaluate(*lead.InternalReview) != ApprovalApproved {
		return Applied{}, apperr.Validation("proposal is not fully approved by CST and CRO")
	}

	if err := lead.moveToColumn(ColumnDelivery); err != nil {
		return Applied{}, err
	}

	return Applied{AuditDetails: "Moved to client delivery"}, nil
}

// =============================================================================
// MoveToContract
// =============================================================================

// MoveToContract records the client presentation outcome and advances the
// lead to the contract column.
type MoveToContract struct {
	Data ClientDeliveryData
}

func (t MoveToContract) Operation() string { return "move_to_contract" }

func (t MoveToContract) Apply(lead *Lead, now time.Time, actorID uuid.UUID) (Applied, error) {
	if lead.ColumnID != ColumnDelivery {
		return Applied{}, errWrongState(t.Operation(), lead)
	}
	if err := requireField(t.Operation(), "presentation details", t.Data.PresentationDetails != ""); err != nil {
		return Applied{}, err
	}
	if err := requireField(t.Operation(), "timeline", t.Data.Timeline != ""); err != nil {
		return Applied{}, err
	}

	if err := lead.moveToColumn(ColumnContract); err != nil {
		return Applied{}, err
	}
	data := t.Data
	if lead.ClientDelivery == nil {
		lead.ClientDelivery = &data
	} else {
		*lead.ClientDelivery = data
	}

	return Applied{AuditDetails: "Moved to contract"}, nil
}

// =============================================================================
// MoveToImplementation
// =============================================================================

// MoveToImplementation records the signed contract and advances the lead
// into the implementation stage.
type MoveToImplementation struct {
	Data ContractData
}

func (t MoveToImplementation) Operation() string { return "move_to_implementation" }

func (t MoveToImplementation) Apply(lead *Lead, now time.Time, actorID uuid.UUID) (Applied, error) {
	if lead.ColumnID != ColumnContract {
		return Applied{}, errWrongState(t.Operation(), lead)
	}
	if err := requireField(t.Operation(), "template", t.Data.Template != ""); err != nil {
		return Applied{}, err
	}
	if err := requireField(t.Operation(), "final value", t.Data.FinalValueCents > 0); err != nil {
		return Applied{}, err
	}
	if err := requireField(t.Operation(), "terms", t.Data.Terms != ""); err != nil {
		return Applied{}, err
	}
	if err := requireField(t.Operation(), "success criteria", t.Data.SuccessCriteria != ""); err != nil {
		return Applied{}, err
	}
	if err := requireField(t.Operation(), "completed legal review", t.Data.LegalReviewComplete); err != nil {
		return Applied{}, err
	}

	if err := lead.moveToColumn(ColumnImplementation); err != nil {
		return Applied{}, err
	}
	data := t.Data
	if lead.Contract == nil {
		lead.Contract = &data
	} else {
		*lead.Contract = data
	}

	return Applied{AuditDetails: fmt.Sprintf("Moved to implementation, contract value %d cents", data.FinalValueCents)}, nil
}

// =============================================================================
// AddChangeOrder
// =============================================================================

// AddChangeOrder appends a change order during implementation. The lead does
// not move.
type AddChangeOrder struct {
	Data ChangeOrderData
}

func (t AddChangeOrder) Operation() string { return "add_change_order" }

func (t AddChangeOrder) Apply(lead *Lead, now time.Time, actorID uuid.UUID) (Applied, error) {
	if lead.Stage != StageImplementation {
		return Applied{}, errWrongState(t.Operation(), lead)
	}
	if err := requireField(t.Operation(), "type", t.Data.Type != ""); err != nil {
		return Applied{}, err
	}
	if err := requireField(t.Operation(), "requester", t.Data.RequestedBy != ""); err != nil {
		return Applied{}, err
	}
	if err := requireField(t.Operation(), "description", t.Data.Description != ""); err != nil {
		return Applied{}, err
	}

	data := t.Data
	data.CreatedAt = now
	lead.ChangeOrders = append(lead.ChangeOrders, data)

	return Applied{AuditDetails: fmt.Sprintf("Change order added: %s", data.Type)}, nil
}

// =============================================================================
// MoveToGoLive
// =============================================================================

// MoveToGoLive advances the lead into post-sales go-live and support.
type MoveToGoLive struct {
	Data GoLiveAndSupportData
}

func (t MoveToGoLive) Operation() string { return "move_to_golive" }

func (t MoveToGoLive) Apply(lead *Lead, now time.Time, actorID uuid.UUID) (Applied, error) {
	if lead.ColumnID != ColumnImplementation {
		return Applied{}, errWrongState(t.Operation(), lead)
	}
	if err := requireField(t.Operation(), "deployment status", t.Data.DeploymentStatus != ""); err != nil {
		return Applied{}, err
	}

	if err := lead.moveToColumn(ColumnGoLive); err != nil {
		return Applied{}, err
	}
	data := t.Data
	if lead.GoLive == nil {
		lead.GoLive = &data
	} else {
		*lead.GoLive = data
	}

	return Applied{AuditDetails: fmt.Sprintf("Moved to go-live (%s)", data.DeploymentStatus)}, nil
}

// =============================================================================
// MoveToBilling
// =============================================================================

// MoveToBilling advances the lead into the final billing and handoff column.
type MoveToBilling struct {
	Data BillingAndHandoffData
}

func (t MoveToBilling) Operation() string { return "move_to_billing" }

func (t MoveToBilling) Apply(lead *Lead, now time.Time, actorID uuid.UUID) (Applied, error) {
	if lead.ColumnID != ColumnGoLive {
		return Applied{}, errWrongState(t.Operation(), lead)
	}
	if err := requireField(t.Operation(), "invoice schedule", t.Data.InvoiceSchedule != ""); err != nil {
		return Applied{}, err
	}
	if err := requireField(t.Operation(), "account manager", t.Data.AccountManager != ""); err != nil {
		return Applied{}, err
	}

	if err := lead.moveToColumn(ColumnBilling); err != nil {
		return Applied{}, err
	}
	data := t.Data
	if lead.Billing == nil {
		lead.Billing = &data
	} else {
		*lead.Billing = data
	}

	return Applied{AuditDetails: "Moved to billing and handoff"}, nil
}
