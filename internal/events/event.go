// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"time"

	"salespipe_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var (
	NewBaseEvent   = events.NewBaseEvent
	NewInMemoryBus = events.NewInMemoryBus
)

// =============================================================================
// Pipeline Domain Events
// =============================================================================

// LeadCreated is published when a new lead enters the board.
type LeadCreated struct {
	BaseEvent
	LeadID     uuid.UUID  `json:"leadId"`
	OwnerID    uuid.UUID  `json:"ownerId"`
	CampaignID *uuid.UUID `json:"campaignId,omitempty"`
	Company    string     `json:"company"`
}

func (e LeadCreated) EventName() string { return "pipeline.lead.created" }

// LeadTransitioned is published after any successful lifecycle transition.
type LeadTransitioned struct {
	BaseEvent
	LeadID     uuid.UUID `json:"leadId"`
	Operation  string    `json:"operation"`
	FromColumn string    `json:"fromColumn"`
	ToColumn   string    `json:"toColumn"`
	Status     string    `json:"status"`
	ActorID    uuid.UUID `json:"actorId"`
}

func (e LeadTransitioned) EventName() string { return "pipeline.lead.transitioned" }

// ReviewUpdated is published when a CST or CRO review track changes.
type ReviewUpdated struct {
	BaseEvent
	LeadID  uuid.UUID `json:"leadId"`
	Outcome string    `json:"outcome"`
	ActorID uuid.UUID `json:"actorId"`
}

func (e ReviewUpdated) EventName() string { return "pipeline.review.updated" }

// LeadApproved is published exactly once per dual approval: only when a
// review write turns the composite outcome Approved.
type LeadApproved struct {
	BaseEvent
	LeadID     uuid.UUID `json:"leadId"`
	Company    string    `json:"company"`
	ApprovedBy string    `json:"approvedBy"`
	ApprovedAt time.Time `json:"approvedAt"`
}

func (e LeadApproved) EventName() string { return "pipeline.lead.approved" }

// FollowUpScheduled is published when a lead is parked as a future
// opportunity with a reminder date. The scheduler enqueues a reminder task
// for it.
type FollowUpScheduled struct {
	BaseEvent
	LeadID       uuid.UUID `json:"leadId"`
	OwnerID      uuid.UUID `json:"ownerId"`
	Company      string    `json:"company"`
	ReminderDate time.Time `json:"reminderDate"`
	Reason       string    `json:"reason"`
}

func (e FollowUpScheduled) EventName() string { return "pipeline.followup.scheduled" }

// LeadDeleted is published when a lead is removed from the board.
type LeadDeleted struct {
	BaseEvent
	LeadID  uuid.UUID `json:"leadId"`
	ActorID uuid.UUID `json:"actorId"`
}

func (e LeadDeleted) EventName() string { return "pipeline.lead.deleted" }

// =============================================================================
// Campaign Domain Events
// =============================================================================

// CampaignDeleted is published when a campaign is removed. Deleting a
// campaign never deletes its leads; their campaign reference is cleared and
// everything else survives.
type CampaignDeleted struct {
	BaseEvent
	CampaignID uuid.UUID `json:"campaignId"`
	Name       string    `json:"name"`
	ActorID    uuid.UUID `json:"actorId"`
}

func (e CampaignDeleted) EventName() string { return "campaigns.campaign.deleted" }
