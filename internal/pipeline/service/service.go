// Package service orchestrates the lead lifecycle: it serializes transitions
// per lead, enforces role-based access, applies the typed transitions from
// the domain package, and persists the result atomically with its audit row.
package service

import (
	"context"
	"errors"
	"time"

	"salespipe_backend/internal/events"
	"salespipe_backend/internal/pipeline/domain"
	"salespipe_backend/internal/pipeline/repository"
	"salespipe_backend/internal/pipeline/transport"
	"salespipe_backend/platform/apperr"
	"salespipe_backend/platform/httpkit"
	"salespipe_backend/platform/logger"
	"salespipe_backend/platform/phone"

	"github.com/google/uuid"
)

// Store defines the data access interface needed by the pipeline service.
type Store interface {
	repository.LeadReader
	repository.LeadWriter
	repository.TransitionStore
}

// Service handles lead lifecycle and board operations.
type Service struct {
	store Store
	bus   events.Bus
	log   *logger.Logger
	locks *leadLocks
	now   func() time.Time
}

// New creates a pipeline service.
func New(store Store, bus events.Bus, log *logger.Logger) *Service {
	return &Service{
		store: store,
		bus:   bus,
		log:   log,
		locks: newLeadLocks(defaultLockWait),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// CreateLead adds a new lead at the board entry position.
func (s *Service) CreateLead(ctx context.Context, ident httpkit.Identity, req transport.CreateLeadRequest) (transport.LeadResponse, error) {
	ownerID := ident.UserID()
	if req.OwnerID != nil && *req.OwnerID != ident.UserID() {
		if !ident.IsAdmin() {
			return transport.LeadResponse{}, apperr.Forbidden("only admins can assign leads to other users")
		}
		ownerID = *req.OwnerID
	}

	lead, err := s.store.Create(ctx, repository.CreateLeadParams{
		OwnerID:      ownerID,
		CampaignID:   req.CampaignID,
		Company:      req.Company,
		ContactName:  req.ContactName,
		ContactEmail: req.ContactEmail,
		ContactPhone: phone.NormalizeE164(req.ContactPhone),
		Status:       domain.Status(req.Status),
	})
	if err != nil {
		return transport.LeadResponse{}, err
	}

	s.bus.Publish(ctx, events.LeadCreated{
		BaseEvent:  events.NewBaseEvent(),
		LeadID:     lead.ID,
		OwnerID:    lead.OwnerID,
		CampaignID: lead.CampaignID,
		Company:    lead.Company,
	})
	return transport.ToLeadResponse(lead), nil
}

// GetLead returns a single lead with its full status history.
func (s *Service) GetLead(ctx context.Context, ident httpkit.Identity, id uuid.UUID) (transport.LeadResponse, error) {
	lead, err := s.loadAuthorized(ctx, ident, id)
	if err != nil {
		return transport.LeadResponse{}, err
	}
	return transport.ToLeadResponse(lead), nil
}

// ListLeads returns a filtered page of leads. Sales reps only see their own.
func (s *Service) ListLeads(ctx context.Context, ident httpkit.Identity, req transport.ListLeadsRequest) (transport.ListLeadsResponse, error) {
	page := req.Page
	if page < 1 {
		page = 1
	}
	pageSize := req.PageSize
	if pageSize < 1 {
		pageSize = 50
	}

	params := repository.ListParams{
		ColumnID: req.ColumnID,
		Status:   req.Status,
		Search:   req.Search,
		Limit:    pageSize,
		Offset:   (page - 1) * pageSize,
	}
	if !ident.IsAdmin() {
		ownerID := ident.UserID()
		params.OwnerID = &ownerID
	}

	leads, total, err := s.store.List(ctx, params)
	if err != nil {
		return transport.ListLeadsResponse{}, err
	}
	return transport.ListLeadsResponse{
		Items:    transport.ToLeadResponses(leads),
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}, nil
}

// Board returns the full column registry with each column's visible leads.
func (s *Service) Board(ctx context.Context, ident httpkit.Identity) (transport.BoardResponse, error) {
	params := repository.ListParams{Limit: 200}
	if !ident.IsAdmin() {
		ownerID := ident.UserID()
		params.OwnerID = &ownerID
	}
	leads, _, err := s.store.List(ctx, params)
	if err != nil {
		return transport.BoardResponse{}, err
	}

	byColumn := make(map[string][]transport.LeadResponse)
	for _, lead := range leads {
		byColumn[lead.ColumnID] = append(byColumn[lead.ColumnID], transport.ToLeadResponse(lead))
	}

	resp := transport.BoardResponse{Columns: make([]transport.BoardColumnResponse, 0, len(domain.Columns()))}
	for _, col := range domain.Columns() {
		leads := byColumn[col.ID]
		if leads == nil {
			leads = []transport.LeadResponse{}
		}
		resp.Columns = append(resp.Columns, transport.BoardColumnResponse{
			ID:    col.ID,
			Title: col.Title,
			Stage: string(col.Stage),
			Leads: leads,
		})
	}
	return resp, nil
}

// UpdateLead patches contact details. Lifecycle fields are untouchable here.
func (s *Service) UpdateLead(ctx context.Context, ident httpkit.Identity, id uuid.UUID, req transport.UpdateLeadRequest) (transport.LeadResponse, error) {
	if _, err := s.loadAuthorized(ctx, ident, id); err != nil {
		return transport.LeadResponse{}, err
	}

	params := repository.UpdateDetailsParams{
		CampaignID:   req.CampaignID,
		Company:      req.Company,
		ContactName:  req.ContactName,
		ContactEmail: req.ContactEmail,
	}
	if req.ContactPhone != nil {
		normalized := phone.NormalizeE164(*req.ContactPhone)
		params.ContactPhone = &normalized
	}

	lead, err := s.store.UpdateDetails(ctx, id, params)
	if err != nil {
		return transport.LeadResponse{}, mapRepoErr(err)
	}
	return transport.ToLeadResponse(lead), nil
}

// DeleteLead soft-deletes a lead. History and audit rows are retained.
func (s *Service) DeleteLead(ctx context.Context, ident httpkit.Identity, id uuid.UUID) error {
	if _, err := s.loadAuthorized(ctx, ident, id); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return mapRepoErr(err)
	}
	s.bus.Publish(ctx, events.LeadDeleted{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    id,
		ActorID:   ident.UserID(),
	})
	return nil
}

// Apply executes one lifecycle transition on a lead. The whole operation is
// serialized per lead: load, validate, mutate, and persist happen under the
// lead's lock so concurrent requests cannot interleave. The updated lead,
// its history entry, and the audit row are committed in one transaction.
func (s *Service) Apply(ctx context.Context, ident httpkit.Identity, leadID uuid.UUID, t domain.Transition) (transport.LeadResponse, error) {
	release, err := s.locks.acquire(ctx, leadID)
	if err != nil {
		return transport.LeadResponse{}, err
	}
	defer release()

	lead, err := s.loadAuthorized(ctx, ident, leadID)
	if err != nil {
		return transport.LeadResponse{}, err
	}

	now := s.now()
	next := lead.Clone()
	applied, err := t.Apply(next, now, ident.UserID())
	if err != nil {
		// Unknown column references are a deploy-time bug: the client gets
		// a masked 500, operators get the real error.
		if apperr.Is(err, apperr.KindConfiguration) {
			s.log.ConfigurationError(t.Operation(), err)
		}
		return transport.LeadResponse{}, err
	}
	next.UpdatedAt = now

	audit := repository.TransitionAudit{
		ActorID:   ident.UserID(),
		ActorName: ident.Name(),
		Action:    t.Operation(),
		Details:   applied.AuditDetails,
	}
	if err := s.store.SaveTransition(ctx, next, applied.Update, audit); err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			s.log.DatabaseError(t.Operation(), err)
		}
		return transport.LeadResponse{}, mapRepoErr(err)
	}

	s.log.Transition(leadID.String(), t.Operation(), ident.Name())
	s.publishTransitionEvents(ctx, ident, lead, next, t, applied)

	return transport.ToLeadResponse(next), nil
}

func (s *Service) publishTransitionEvents(ctx context.Context, ident httpkit.Identity, before, after *domain.Lead, t domain.Transition, applied domain.Applied) {
	s.bus.Publish(ctx, events.LeadTransitioned{
		BaseEvent:  events.NewBaseEvent(),
		LeadID:     after.ID,
		Operation:  t.Operation(),
		FromColumn: before.ColumnID,
		ToColumn:   after.ColumnID,
		Status:     string(after.Status),
		ActorID:    ident.UserID(),
	})

	switch tr := t.(type) {
	case domain.UpdateReview:
		s.bus.Publish(ctx, events.ReviewUpdated{
			BaseEvent: events.NewBaseEvent(),
			LeadID:    after.ID,
			Outcome:   string(applied.Outcome),
			ActorID:   ident.UserID(),
		})
		if applied.NewlyApproved && after.InternalReview != nil && after.InternalReview.FinalApprovalDate != nil {
			s.bus.Publish(ctx, events.LeadApproved{
				BaseEvent:  events.NewBaseEvent(),
				LeadID:     after.ID,
				Company:    after.Company,
				ApprovedBy: after.InternalReview.ApprovedBy,
				ApprovedAt: *after.InternalReview.FinalApprovalDate,
			})
		}
	case domain.MoveToFutureOpportunity:
		s.bus.Publish(ctx, events.FollowUpScheduled{
			BaseEvent:    events.NewBaseEvent(),
			LeadID:       after.ID,
			OwnerID:      after.OwnerID,
			Company:      after.Company,
			ReminderDate: tr.Data.ReminderDate,
			Reason:       tr.Data.Reason,
		})
	}
}

// loadAuthorized loads a lead and checks the actor may act on it: admins
// always, sales reps only on their own leads. The check runs before any
// mutation so a forbidden request never touches state.
func (s *Service) loadAuthorized(ctx context.Context, ident httpkit.Identity, id uuid.UUID) (*domain.Lead, error) {
	lead, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	if !ident.IsAdmin() && lead.OwnerID != ident.UserID() {
		return nil, apperr.Forbidden("you do not have access to this lead")
	}
	return lead, nil
}

func mapRepoErr(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound("lead not found")
	}
	return err
}
