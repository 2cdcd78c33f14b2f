package domain

import (
	"time"

	"github.com/google/uuid"
)

// StatusUpdate is one entry in a lead's append-only status history.
// Entries are never reordered, amended, or deleted.
type StatusUpdate struct {
	Status    Status      `json:"status"`
	Date      time.Time   `json:"date"`
	Notes     string      `json:"notes,omitempty"`
	UpdatedBy uuid.UUID   `json:"updatedBy"`
	Data      interface{} `json:"data,omitempty"`
}

// Lead is the central entity under lifecycle control. Its stage, columnId,
// status, and stage payloads are mutated exclusively through transition
// requests applied by the pipeline service.
type Lead struct {
	ID           uuid.UUID
	OwnerID      uuid.UUID
	CampaignID   *uuid.UUID
	Company      string
	ContactName  string
	ContactEmail string
	ContactPhone string

	Stage         Stage
	ColumnID      string
	Status        Status
	StatusHistory []StatusUpdate

	// Stage payloads. Created on first entry into the corresponding stage,
	// amended in place afterwards, never removed even if the lead regresses.
	Prospect          *ProspectData
	Proposal          *ProposalData
	InternalReview    *InternalReviewData
	ClientDelivery    *ClientDeliveryData
	Contract          *ContractData
	ChangeOrders      []ChangeOrderData
	GoLive            *GoLiveAndSupportData
	Billing           *BillingAndHandoffData
	FutureOpportunity *FutureOpportunityData
	Disqualified      *DisqualifiedData

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Clone returns a deep copy of the lead. Transitions are applied to a clone
// so a failed validation never leaves a partially mutated lead behind.
func (l *Lead) Clone() *Lead {
	out := *l

	out.StatusHistory = make([]StatusUpdate, len(l.StatusHistory))
	copy(out.StatusHistory, l.StatusHistory)

	out.CampaignID = cloneUUIDPtr(l.CampaignID)
	out.Prospect = clonePtr(l.Prospect)
	out.Proposal = clonePtr(l.Proposal)
	out.InternalReview = clonePtr(l.InternalReview)
	out.ClientDelivery = clonePtr(l.ClientDelivery)
	out.Contract = clonePtr(l.Contract)
	out.GoLive = clonePtr(l.GoLive)
	out.Billing = clonePtr(l.Billing)
	out.FutureOpportunity = clonePtr(l.FutureOpportunity)
	out.Disqualified = clonePtr(l.Disqualified)

	out.ChangeOrders = make([]ChangeOrderData, len(l.ChangeOrders))
	copy(out.ChangeOrders, l.ChangeOrders)

	return &out
}

// appendStatusUpdate records a status change in the history and keeps the
// lead's current status aligned with the last entry.
func (l *Lead) appendStatusUpdate(status Status, now time.Time, notes string, actorID uuid.UUID, data interface{}) *StatusUpdate {
	update := StatusUpdate{
		Status:    status,
		Date:      now,
		Notes:     notes,
		UpdatedBy: actorID,
		Data:      data,
	}
	l.Status = status
	l.StatusHistory = append(l.StatusHistory, update)
	return &l.StatusHistory[len(l.StatusHistory)-1]
}

// moveToColumn places the lead in the given registry column and keeps the
// coarse stage aligned with it.
func (l *Lead) moveToColumn(columnID string) error {
	col, ok := ColumnByID(columnID)
	if !ok {
		return errUnknownColumn(columnID)
	}
	l.ColumnID = col.ID
	l.Stage = col.Stage
	return nil
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneUUIDPtr(p *uuid.UUID) *uuid.UUID {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
