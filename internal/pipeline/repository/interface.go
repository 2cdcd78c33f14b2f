package repository

import (
	"context"
	"time"

	"salespipe_backend/internal/pipeline/domain"

	"github.com/google/uuid"
)

// Segregated interfaces: services depend on the slice they need, and tests
// fake exactly that slice.

// LeadReader provides read-only access to leads.
type LeadReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Lead, error)
	List(ctx context.Context, params ListParams) ([]*domain.Lead, int, error)
}

// LeadWriter provides non-lifecycle write operations.
type LeadWriter interface {
	Create(ctx context.Context, params CreateLeadParams) (*domain.Lead, error)
	UpdateDetails(ctx context.Context, id uuid.UUID, params UpdateDetailsParams) (*domain.Lead, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// TransitionStore persists lifecycle transitions atomically.
type TransitionStore interface {
	SaveTransition(ctx context.Context, lead *domain.Lead, update *domain.StatusUpdate, audit TransitionAudit) error
}

// FollowUpReader lists leads due for a follow-up reminder.
type FollowUpReader interface {
	LeadsWithDueFollowUps(ctx context.Context, cutoff time.Time) ([]*domain.Lead, error)
}

// CampaignDetacher clears campaign references when a campaign goes away.
type CampaignDetacher interface {
	DetachCampaign(ctx context.Context, campaignID uuid.UUID) (int, error)
}

var (
	_ LeadReader       = (*Repository)(nil)
	_ LeadWriter       = (*Repository)(nil)
	_ TransitionStore  = (*Repository)(nil)
	_ FollowUpReader   = (*Repository)(nil)
	_ CampaignDetacher = (*Repository)(nil)
)
