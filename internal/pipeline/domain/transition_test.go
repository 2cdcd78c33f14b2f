package domain

import (
	"errors"
	"testing"
	"time"

	"salespipe_backend/platform/apperr"

	"github.com/google/uuid"
)

var (
	testActor = uuid.MustParse("5f8c7a9e-1b2d-4c3e-8f90-123456789abc")
	testNow   = time.Date(2025, 4, 1, 9, 30, 0, 0, time.UTC)
)

func newLead(status Status, columnID string) *Lead {
	col, ok := ColumnByID(columnID)
	if !ok {
		panic("test lead uses unknown column " + columnID)
	}
	return &Lead{
		ID:       uuid.New(),
		OwnerID:  testActor,
		Company:  "Acme Corp",
		Stage:    col.Stage,
		ColumnID: col.ID,
		Status:   status,
	}
}

func validProspectData() ProspectData {
	return ProspectData{
		ResponseDate:   testNow,
		EngagementType: "Replied to email",
		ContactQuality: "Decision maker",
	}
}

func validProposalData() ProposalData {
	return ProposalData{
		Template:         "standard-services",
		Services:         []string{"implementation", "support"},
		PricingStructure: "fixed",
		DurationMonths:   12,
		TermsVersion:     "v3",
	}
}

func approvedReview() *InternalReviewData {
	r := NewInternalReview()
	r.CST.Status = ReviewApproved
	r.CRO.Status = ReviewApproved
	return r
}

func assertValidation(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected validation error, got nil")
	}
	var appErr *apperr.Error
	if !errors.As(err, &appErr) || appErr.Kind != apperr.KindValidation {
		t.Fatalf("expected KindValidation, got %v", err)
	}
}

func TestChangeStatusTogglesPreProspectStates(t *testing.T) {
	lead := newLead(StatusUnaware, ColumnNewLeads)

	applied, err := ChangeStatus{Status: StatusEngaged, Notes: "first call made"}.Apply(lead, testNow, testActor)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if lead.Status != StatusEngaged {
		t.Errorf("status = %s, want Engaged", lead.Status)
	}
	if lead.ColumnID != ColumnNewLeads {
		t.Errorf("columnId changed to %s; change_status must not move the card", lead.ColumnID)
	}
	if applied.Update == nil || applied.Update.Status != StatusEngaged {
		t.Error("missing history entry for status change")
	}
	if len(lead.StatusHistory) != 1 {
		t.Errorf("history length = %d, want 1", len(lead.StatusHistory))
	}
}

func TestChangeStatusRejectsNotesMissing(t *testing.T) {
	lead := newLead(StatusUnaware, ColumnNewLeads)
	_, err := ChangeStatus{Status: StatusEngaged}.Apply(lead, testNow, testActor)
	assertValidation(t, err)
}

func TestChangeStatusRejectsQualifiedTarget(t *testing.T) {
	lead := newLead(StatusEngaged, ColumnNewLeads)
	_, err := ChangeStatus{Status: StatusQualified, Notes: "shortcut"}.Apply(lead, testNow, testActor)
	assertValidation(t, err)
}

func TestMarkProspectMovesAndRecordsPayload(t *testing.T) {
	lead := newLead(StatusEngaged, ColumnNewLeads)

	applied, err := MarkProspect{Data: validProspectData()}.Apply(lead, testNow, testActor)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if lead.Status != StatusProspect || lead.ColumnID != ColumnProspects || lead.Stage != StageLead {
		t.Errorf("state = (%s, %s, %s), want (Prospect, col-prospect, Lead)", lead.Status, lead.ColumnID, lead.Stage)
	}
	if lead.Prospect == nil {
		t.Fatal("prospect payload not recorded")
	}
	if applied.Update == nil {
		t.Fatal("mark_prospect must append a history entry")
	}
	if err := ValidateStateCombination(lead.Status, lead.Stage, lead.ColumnID); err != nil {
		t.Errorf("resulting state invalid: %v", err)
	}
}

func TestMarkProspectRequiresDemoDateWhenScheduled(t *testing.T) {
	lead := newLead(StatusEngaged, ColumnNewLeads)
	data := validProspectData()
	data.DemoScheduled = true
	_, err := MarkProspect{Data: data}.Apply(lead, testNow, testActor)
	assertValidation(t, err)
}

func TestMarkProspectAmendsExistingProspect(t *testing.T) {
	lead := newLead(StatusEngaged, ColumnNewLeads)
	if _, err := (MarkProspect{Data: validProspectData()}).Apply(lead, testNow, testActor); err != nil {
		t.Fatalf("first Apply: %v", err)
	}

	data := validProspectData()
	data.ContactQuality = "Champion"
	applied, err := MarkProspect{Data: data}.Apply(lead, testNow.Add(time.Hour), testActor)
	if err != nil {
		t.Fatalf("re-apply on prospect lead: %v", err)
	}
	if lead.Prospect.ContactQuality != "Champion" {
		t.Errorf("contactQuality = %q, want amended value", lead.Prospect.ContactQuality)
	}
	if applied.Update != nil {
		t.Error("amending prospect data must not append a history entry")
	}
	if len(lead.StatusHistory) != 1 {
		t.Errorf("history length = %d, want 1 (status did not change)", len(lead.StatusHistory))
	}
	if lead.Status != StatusProspect || lead.ColumnID != ColumnProspects {
		t.Errorf("state = (%s, %s), want (Prospect, col-prospect)", lead.Status, lead.ColumnID)
	}
}

func TestMarkOpportunityMovesStatusStageAndColumnTogether(t *testing.T) {
	lead := newLead(StatusProspect, ColumnProspects)

	_, err := MarkOpportunity{}.Apply(lead, testNow, testActor)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if lead.Status != StatusQualified {
		t.Errorf("status = %s, want Qualified", lead.Status)
	}
	if lead.ColumnID != ColumnQualified || lead.Stage != StageOpportunity {
		t.Errorf("position = (%s, %s), want (col-qualified, Opportunity)", lead.ColumnID, lead.Stage)
	}
	if err := ValidateStateCombination(lead.Status, lead.Stage, lead.ColumnID); err != nil {
		t.Errorf("resulting state invalid: %v", err)
	}
}

func TestMarkOpportunityRejectedFromUnaware(t *testing.T) {
	lead := newLead(StatusUnaware, ColumnNewLeads)
	_, err := MarkOpportunity{}.Apply(lead, testNow, testActor)
	assertValidation(t, err)
}

func TestMoveToFutureOpportunityRequiresReminder(t *testing.T) {
	lead := newLead(StatusQualified, ColumnQualified)
	_, err := MoveToFutureOpportunity{Data: FutureOpportunityData{Reason: "budget frozen"}}.Apply(lead, testNow, testActor)
	assertValidation(t, err)
}

func TestMoveToFutureOpportunityParksLead(t *testing.T) {
	lead := newLead(StatusQualified, ColumnQualified)
	data := FutureOpportunityData{ReminderDate: testNow.AddDate(0, 3, 0), Reason: "budget frozen"}

	applied, err := MoveToFutureOpportunity{Data: data}.Apply(lead, testNow, testActor)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if lead.Status != StatusFutureOpportunity || lead.ColumnID != ColumnFuture {
		t.Errorf("state = (%s, %s), want (Future Opportunity, col-future)", lead.Status, lead.ColumnID)
	}
	if !IsTerminalStatus(lead.Status) {
		t.Error("future opportunity must be terminal")
	}
	if applied.Update == nil {
		t.Error("parking must append a history entry")
	}
}

func TestDisqualifyRequiresCompetitorName(t *testing.T) {
	lead := newLead(StatusQualified, ColumnQualified)
	_, err := Disqualify{Data: DisqualifiedData{Reason: DisqualifyChoseCompetitor}}.Apply(lead, testNow, testActor)
	assertValidation(t, err)
}

func TestDisqualifyKeepsLeadOnBoard(t *testing.T) {
	lead := newLead(StatusQualified, ColumnQualified)
	lead.Proposal = &ProposalData{Template: "standard-services", Revision: 2}

	_, err := Disqualify{Data: DisqualifiedData{Reason: DisqualifyNoBudget, Notes: "CFO said no"}}.Apply(lead, testNow, testActor)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if lead.ColumnID != ColumnDisqualified || lead.Status != StatusDisqualified {
		t.Errorf("state = (%s, %s), want (Disqualified, col-disqualified)", lead.Status, lead.ColumnID)
	}
	if lead.Proposal == nil {
		t.Error("earlier stage payload removed on disqualification")
	}
}

func TestTerminalLeadsAcceptNoFurtherTransitions(t *testing.T) {
	disqualified := newLead(StatusDisqualified, ColumnDisqualified)
	future := newLead(StatusFutureOpportunity, ColumnFuture)

	for _, lead := range []*Lead{disqualified, future} {
		if _, err := (MarkOpportunity{}).Apply(lead, testNow, testActor); err == nil {
			t.Errorf("MarkOpportunity allowed from terminal status %s", lead.Status)
		}
		if _, err := (AddProposal{Data: validProposalData()}).Apply(lead, testNow, testActor); err == nil {
			t.Errorf("AddProposal allowed from terminal status %s", lead.Status)
		}
	}
}

func TestAddProposalInitialisesReviewAndRevision(t *testing.T) {
	lead := newLead(StatusQualified, ColumnQualified)

	_, err := AddProposal{Data: validProposalData()}.Apply(lead, testNow, testActor)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if lead.ColumnID != ColumnProposal || lead.Stage != StageProposal {
		t.Errorf("position = (%s, %s), want (col-proposal, Proposal)", lead.ColumnID, lead.Stage)
	}
	if lead.Status != StatusQualified {
		t.Errorf("status = %s; proposal move must not change qualification status", lead.Status)
	}
	if lead.Proposal == nil || lead.Proposal.Revision != 1 {
		t.Fatalf("proposal revision = %+v, want revision 1", lead.Proposal)
	}
	if lead.InternalReview == nil {
		t.Fatal("review record not created")
	}
	if lead.InternalReview.CST.Status != ReviewPending || lead.InternalReview.CRO.Status != ReviewPending {
		t.Error("fresh review tracks must both be pending")
	}
}

func TestUpdateReviewMergesPartialWrites(t *testing.T) {
	lead := newLead(StatusQualified, ColumnProposal)
	lead.InternalReview = NewInternalReview()
	lead.InternalReview.CRO = ReviewTrack{Status: ReviewApproved, Reviewer: "Robin"}

	status := ReviewApproved
	reviewer := "Alex"
	applied, err := UpdateReview{
		CST:       &ReviewUpdate{Status: &status, Reviewer: &reviewer},
		ActorName: "Alex",
	}.Apply(lead, testNow, testActor)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if lead.InternalReview.CRO.Reviewer != "Robin" {
		t.Error("partial CST write clobbered the CRO track")
	}
	if applied.Outcome != ApprovalApproved || !applied.NewlyApproved {
		t.Errorf("outcome = %s newly=%v, want Approved/true", applied.Outcome, applied.NewlyApproved)
	}
	if lead.InternalReview.ApprovedBy != "Alex" {
		t.Errorf("approvedBy = %q, want Alex", lead.InternalReview.ApprovedBy)
	}
}

func TestUpdateReviewRejectsOutsideProposalColumn(t *testing.T) {
	lead := newLead(StatusQualified, ColumnDelivery)
	lead.InternalReview = NewInternalReview()
	status := ReviewApproved
	_, err := UpdateReview{CST: &ReviewUpdate{Status: &status}}.Apply(lead, testNow, testActor)
	assertValidation(t, err)
}

func TestMoveToClientDeliveryGatedOnDualApproval(t *testing.T) {
	lead := newLead(StatusQualified, ColumnProposal)
	lead.InternalReview = NewInternalReview()
	lead.InternalReview.CST.Status = ReviewApproved

	_, err := MoveToClientDelivery{}.Apply(lead, testNow, testActor)
	assertValidation(t, err)

	lead.InternalReview = approvedReview()
	if _, err := (MoveToClientDelivery{}).Apply(lead, testNow, testActor); err != nil {
		t.Fatalf("Apply after dual approval: %v", err)
	}
	if lead.ColumnID != ColumnDelivery || lead.Stage != StageClientDelivery {
		t.Errorf("position = (%s, %s), want (col-delivery, Client-Delivery)", lead.ColumnID, lead.Stage)
	}
}

func TestMoveToImplementationRequiresLegalReview(t *testing.T) {
	lead := newLead(StatusQualified, ColumnContract)
	data := ContractData{
		Template:        "msa-2024",
		FinalValueCents: 120_000_00,
		Terms:           "net-30",
		SuccessCriteria: "go-live within 90 days",
	}
	_, err := MoveToImplementation{Data: data}.Apply(lead, testNow, testActor)
	assertValidation(t, err)

	data.LegalReviewComplete = true
	if _, err := (MoveToImplementation{Data: data}).Apply(lead, testNow, testActor); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if lead.ColumnID != ColumnImplementation || lead.Stage != StageImplementation {
		t.Errorf("position = (%s, %s), want (col-implementation, Implementation)", lead.ColumnID, lead.Stage)
	}
}

func TestAddChangeOrderAccumulates(t *testing.T) {
	lead := newLead(StatusQualified, ColumnImplementation)

	first := ChangeOrderData{Type: "Scope", RequestedBy: "Client PM", Description: "Add reporting module"}
	second := ChangeOrderData{Type: "Timeline", RequestedBy: "Client PM", Description: "Extend by 4 weeks"}

	if _, err := (AddChangeOrder{Data: first}).Apply(lead, testNow, testActor); err != nil {
		t.Fatalf("first change order: %v", err)
	}
	if _, err := (AddChangeOrder{Data: second}).Apply(lead, testNow.Add(time.Hour), testActor); err != nil {
		t.Fatalf("second change order: %v", err)
	}
	if len(lead.ChangeOrders) != 2 {
		t.Fatalf("change orders = %d, want 2 (must accumulate, not replace)", len(lead.ChangeOrders))
	}
	if lead.ColumnID != ColumnImplementation {
		t.Error("change order must not move the lead")
	}
	if lead.ChangeOrders[1].CreatedAt.Before(lead.ChangeOrders[0].CreatedAt) {
		t.Error("change order timestamps out of order")
	}
}

func TestFullHappyPathEndsInBilling(t *testing.T) {
	lead := newLead(StatusUnaware, ColumnNewLeads)

	steps := []Transition{
		ChangeStatus{Status: StatusEngaged, Notes: "intro call"},
		MarkProspect{Data: validProspectData()},
		MarkOpportunity{},
		AddProposal{Data: validProposalData()},
	}
	for i, step := range steps {
		if _, err := step.Apply(lead, testNow.Add(time.Duration(i)*time.Hour), testActor); err != nil {
			t.Fatalf("step %d (%s): %v", i, step.Operation(), err)
		}
	}

	lead.InternalReview = approvedReview()

	rest := []Transition{
		MoveToClientDelivery{},
		MoveToContract{Data: ClientDeliveryData{PresentationDetails: "on-site demo", Timeline: "Q3"}},
		MoveToImplementation{Data: ContractData{
			Template: "msa-2024", LegalReviewComplete: true,
			FinalValueCents: 250_000_00, Terms: "net-30", SuccessCriteria: "adoption > 80%",
		}},
		MoveToGoLive{Data: GoLiveAndSupportData{DeploymentStatus: "Live"}},
		MoveToBilling{Data: BillingAndHandoffData{InvoiceSchedule: "monthly", AccountManager: "Dana"}},
	}
	for i, step := range rest {
		if _, err := step.Apply(lead, testNow.Add(time.Duration(10+i)*time.Hour), testActor); err != nil {
			t.Fatalf("step %d (%s): %v", i, step.Operation(), err)
		}
	}

	if lead.ColumnID != ColumnBilling || lead.Stage != StagePostSales || lead.Status != StatusQualified {
		t.Errorf("final state = (%s, %s, %s), want (Qualified, Post-Sales, col-billing)",
			lead.Status, lead.Stage, lead.ColumnID)
	}
	if err := ValidateStateCombination(lead.Status, lead.Stage, lead.ColumnID); err != nil {
		t.Errorf("final state invalid: %v", err)
	}
}

func TestColumnSkippingRejected(t *testing.T) {
	lead := newLead(StatusQualified, ColumnQualified)
	// Trying to jump straight to contract without delivery.
	_, err := MoveToContract{Data: ClientDeliveryData{PresentationDetails: "x", Timeline: "Q3"}}.Apply(lead, testNow, testActor)
	assertValidation(t, err)
}

func TestCloneIsolation(t *testing.T) {
	lead := newLead(StatusQualified, ColumnProposal)
	lead.InternalReview = NewInternalReview()
	lead.StatusHistory = []StatusUpdate{{Status: StatusQualified, Date: testNow, UpdatedBy: testActor}}

	clone := lead.Clone()
	clone.InternalReview.CST.Status = ReviewApproved
	clone.StatusHistory = append(clone.StatusHistory, StatusUpdate{Status: StatusQualified, Date: testNow})

	if lead.InternalReview.CST.Status != ReviewPending {
		t.Error("mutating the clone's review leaked into the original")
	}
	if len(lead.StatusHistory) != 1 {
		t.Error("mutating the clone's history leaked into the original")
	}
}
