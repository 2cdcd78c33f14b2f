package domain

import (
	"testing"
	"time"
)

func TestEvaluate(t *testing.T) {
	cases := []struct {
		name string
		cst  ReviewStatus
		cro  ReviewStatus
		want ApprovalOutcome
	}{
		{"both pending", ReviewPending, ReviewPending, ApprovalIncomplete},
		{"one approved", ReviewApproved, ReviewPending, ApprovalIncomplete},
		{"both approved", ReviewApproved, ReviewApproved, ApprovalApproved},
		{"cst rejects", ReviewNeedsChanges, ReviewPending, ApprovalRejected},
		{"cro rejects", ReviewApproved, ReviewNeedsChanges, ApprovalRejected},
		{"both reject", ReviewNeedsChanges, ReviewNeedsChanges, ApprovalRejected},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			review := InternalReviewData{
				CST: ReviewTrack{Status: tc.cst},
				CRO: ReviewTrack{Status: tc.cro},
			}
			if got := Evaluate(review); got != tc.want {
				t.Errorf("Evaluate(cst=%s, cro=%s) = %s, want %s", tc.cst, tc.cro, got, tc.want)
			}
		})
	}
}

func TestEvaluateIsOrderIndependent(t *testing.T) {
	a := InternalReviewData{
		CST: ReviewTrack{Status: ReviewApproved},
		CRO: ReviewTrack{Status: ReviewNeedsChanges},
	}
	b := InternalReviewData{
		CST: ReviewTrack{Status: ReviewNeedsChanges},
		CRO: ReviewTrack{Status: ReviewApproved},
	}
	if Evaluate(a) != Evaluate(b) {
		t.Errorf("outcome depends on track order: %s vs %s", Evaluate(a), Evaluate(b))
	}
}

func TestEvaluateDoesNotMutate(t *testing.T) {
	review := *NewInternalReview()
	review.CST.Status = ReviewApproved
	review.CRO.Status = ReviewApproved

	Evaluate(review)

	if review.FinalApprovalDate != nil || review.ApprovedBy != "" {
		t.Error("Evaluate wrote derived stamps; it must be pure")
	}
}

func TestReconcileApprovalStampsOnSecondApproval(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	review := NewInternalReview()

	review.CST.Status = ReviewApproved
	outcome, newly := ReconcileApproval(review, now, "Alex")
	if outcome != ApprovalIncomplete || newly {
		t.Fatalf("after first approval: outcome=%s newly=%v, want Incomplete/false", outcome, newly)
	}
	if review.FinalApprovalDate != nil {
		t.Fatal("stamped before both tracks approved")
	}

	review.CRO.Status = ReviewApproved
	outcome, newly = ReconcileApproval(review, now, "Alex")
	if outcome != ApprovalApproved || !newly {
		t.Fatalf("after second approval: outcome=%s newly=%v, want Approved/true", outcome, newly)
	}
	if review.FinalApprovalDate == nil || !review.FinalApprovalDate.Equal(now) {
		t.Errorf("final approval date = %v, want %v", review.FinalApprovalDate, now)
	}
	if review.ApprovedBy != "Alex" {
		t.Errorf("approvedBy = %q, want Alex", review.ApprovedBy)
	}
}

func TestReconcileApprovalKeepsOriginalStamp(t *testing.T) {
	first := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	later := first.Add(48 * time.Hour)

	review := NewInternalReview()
	review.CST.Status = ReviewApproved
	review.CRO.Status = ReviewApproved
	ReconcileApproval(review, first, "Alex")

	// An idempotent re-save of an already approved review must not move
	// the stamp or change the approver.
	outcome, newly := ReconcileApproval(review, later, "Sam")
	if outcome != ApprovalApproved || newly {
		t.Fatalf("re-save: outcome=%s newly=%v, want Approved/false", outcome, newly)
	}
	if !review.FinalApprovalDate.Equal(first) {
		t.Errorf("stamp moved to %v, want original %v", review.FinalApprovalDate, first)
	}
	if review.ApprovedBy != "Alex" {
		t.Errorf("approver changed to %q, want Alex", review.ApprovedBy)
	}
}

func TestReconcileApprovalClearsStampOnRegression(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	review := NewInternalReview()
	review.CST.Status = ReviewApproved
	review.CRO.Status = ReviewApproved
	ReconcileApproval(review, now, "Alex")

	review.CRO.Status = ReviewNeedsChanges
	outcome, newly := ReconcileApproval(review, now.Add(time.Hour), "Sam")
	if outcome != ApprovalRejected || newly {
		t.Fatalf("regression: outcome=%s newly=%v, want Rejected/false", outcome, newly)
	}
	if review.FinalApprovalDate != nil || review.ApprovedBy != "" {
		t.Error("stale approval stamps survived a regression")
	}
}
