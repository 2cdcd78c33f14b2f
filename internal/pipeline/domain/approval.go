package domain

import "time"

// ReviewStatus is the state of one internal review track.
type ReviewStatus string

const (
	ReviewPending      ReviewStatus = "Pending"
	ReviewApproved     ReviewStatus = "Approved"
	ReviewNeedsChanges ReviewStatus = "Needs Changes"
)

// IsKnownReviewStatus reports whether s is a defined review status.
func IsKnownReviewStatus(s ReviewStatus) bool {
	switch s {
	case ReviewPending, ReviewApproved, ReviewNeedsChanges:
		return true
	}
	return false
}

// ReviewTrack is one of the two independent internal review tracks.
type ReviewTrack struct {
	Status   ReviewStatus `json:"status"`
	Reviewer string       `json:"reviewer,omitempty"`
	Notes    string       `json:"notes,omitempty"`
}

// InternalReviewData is the dual-approval record attached to a lead in the
// proposal stage. CST is the technical track, CRO the commercial one.
// FinalApprovalDate and ApprovedBy are derived: they are recomputed from the
// two track statuses on every write and must never persist inconsistently.
type InternalReviewData struct {
	CST               ReviewTrack `json:"cst"`
	CRO               ReviewTrack `json:"cro"`
	FinalApprovalDate *time.Time  `json:"finalApprovalDate,omitempty"`
	ApprovedBy        string      `json:"approvedBy,omitempty"`
}

// NewInternalReview returns a review record with both tracks pending.
func NewInternalReview() *InternalReviewData {
	return &InternalReviewData{
		CST: ReviewTrack{Status: ReviewPending},
		CRO: ReviewTrack{Status: ReviewPending},
	}
}

// ApprovalOutcome is the composite result of the two review tracks.
type ApprovalOutcome string

const (
	ApprovalIncomplete ApprovalOutcome = "Incomplete"
	ApprovalRejected   ApprovalOutcome = "Rejected"
	ApprovalApproved   ApprovalOutcome = "Approved"
)

// Evaluate derives the composite outcome from the two track statuses.
// Rejected wins over everything if either track needs changes; Approved
// requires both tracks approved simultaneously. Pure function.
func Evaluate(review InternalReviewData) ApprovalOutcome {
	if review.CST.Status == ReviewNeedsChanges || review.CRO.Status == ReviewNeedsChanges {
		return ApprovalRejected
	}
	if review.CST.Status == ReviewApproved && review.CRO.Status == ReviewApproved {
		return ApprovalApproved
	}
	return ApprovalIncomplete
}

// ReconcileApproval recomputes the derived approval stamps after a track
// write. On a fresh transition into Approved it stamps the approval date and
// the acting user's display name; when the outcome leaves Approved the
// stamps are cleared so a regressed review never carries a stale approval.
// Returns the outcome and whether this call newly approved the review.
func ReconcileApproval(review *InternalReviewData, now time.Time, actorName string) (ApprovalOutcome, bool) {
	outcome := Evaluate(*review)

	if outcome != ApprovalApproved {
		review.FinalApprovalDate = nil
		review.ApprovedBy = ""
		return outcome, false
	}

	if review.FinalApprovalDate != nil {
		return outcome, false
	}

	stamp := now
	review.FinalApprovalDate = &stamp
	review.ApprovedBy = actorName
	return outcome, true
}
