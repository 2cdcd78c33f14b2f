// Package service implements campaign management. Campaigns are a weak
// grouping for leads: deleting a campaign clears the reference on its leads
// and leaves the leads themselves untouched.
package service

import (
	"context"
	"errors"

	"salespipe_backend/internal/campaigns/repository"
	"salespipe_backend/internal/campaigns/transport"
	"salespipe_backend/internal/events"
	"salespipe_backend/platform/apperr"
	"salespipe_backend/platform/httpkit"

	"github.com/google/uuid"
)

// LeadDetacher clears campaign references on leads. Implemented by the
// pipeline repository.
type LeadDetacher interface {
	DetachCampaign(ctx context.Context, campaignID uuid.UUID) (int, error)
}

type Service struct {
	repo     *repository.Repository
	detacher LeadDetacher
	bus      events.Bus
}

func New(repo *repository.Repository, detacher LeadDetacher, bus events.Bus) *Service {
	return &Service{repo: repo, detacher: detacher, bus: bus}
}

func (s *Service) Create(ctx context.Context, req transport.CreateCampaignRequest) (transport.CampaignResponse, error) {
	campaign, err := s.repo.Create(ctx, repository.CreateCampaignParams{
		Name:        req.Name,
		Description: req.Description,
		Channel:     req.Channel,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
	})
	if err != nil {
		return transport.CampaignResponse{}, err
	}
	return toResponse(campaign), nil
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (transport.CampaignResponse, error) {
	campaign, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return transport.CampaignResponse{}, mapErr(err)
	}
	return toResponse(campaign), nil
}

func (s *Service) List(ctx context.Context) ([]transport.CampaignResponse, error) {
	campaigns, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]transport.CampaignResponse, 0, len(campaigns))
	for _, campaign := range campaigns {
		out = append(out, toResponse(campaign))
	}
	return out, nil
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, req transport.UpdateCampaignRequest) (transport.CampaignResponse, error) {
	campaign, err := s.repo.Update(ctx, id, repository.UpdateCampaignParams{
		Name:        req.Name,
		Description: req.Description,
		Channel:     req.Channel,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
	})
	if err != nil {
		return transport.CampaignResponse{}, mapErr(err)
	}
	return toResponse(campaign), nil
}

// Delete removes the campaign, detaches its leads, and reports how many
// leads were detached. The leads keep their position, history, and payloads.
func (s *Service) Delete(ctx context.Context, ident httpkit.Identity, id uuid.UUID) (transport.DeleteCampaignResponse, error) {
	campaign, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return transport.DeleteCampaignResponse{}, mapErr(err)
	}

	detached, err := s.detacher.DetachCampaign(ctx, id)
	if err != nil {
		return transport.DeleteCampaignResponse{}, err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return transport.DeleteCampaignResponse{}, mapErr(err)
	}

	s.bus.Publish(ctx, events.CampaignDeleted{
		BaseEvent:  events.NewBaseEvent(),
		CampaignID: id,
		Name:       campaign.Name,
		ActorID:    ident.UserID(),
	})
	return transport.DeleteCampaignResponse{DetachedLeads: detached}, nil
}

func toResponse(campaign repository.Campaign) transport.CampaignResponse {
	return transport.CampaignResponse{
		ID:          campaign.ID,
		Name:        campaign.Name,
		Description: campaign.Description,
		Channel:     campaign.Channel,
		StartDate:   campaign.StartDate,
		EndDate:     campaign.EndDate,
		CreatedAt:   campaign.CreatedAt,
		UpdatedAt:   campaign.UpdatedAt,
	}
}

func mapErr(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound("campaign not found")
	}
	return err
}
