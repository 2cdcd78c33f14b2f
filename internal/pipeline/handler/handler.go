// Package handler exposes the pipeline board and lead lifecycle over HTTP.
// Every lifecycle endpoint binds its own request DTO, converts it into the
// matching typed transition, and hands it to the service. No lifecycle
// semantics live here.
package handler

import (
	"net/http"

	"salespipe_backend/internal/pipeline/domain"
	"salespipe_backend/internal/pipeline/service"
	"salespipe_backend/internal/pipeline/transport"
	"salespipe_backend/platform/httpkit"
	"salespipe_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

type Handler struct {
	svc *service.Service
	val *validator.Validator
}

func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/columns", h.Columns)
	rg.GET("/board", h.Board)

	rg.GET("/leads", h.List)
	rg.POST("/leads", h.Create)
	rg.GET("/leads/:id", h.GetByID)
	rg.PUT("/leads/:id", h.Update)
	rg.DELETE("/leads/:id", h.Delete)

	// Lifecycle transitions. One route per operation; the route shape is
	// the public contract, the typed transitions are the internal one.
	rg.PATCH("/leads/:id/status", h.ChangeStatus)
	rg.POST("/leads/:id/prospect", h.MarkProspect)
	rg.POST("/leads/:id/opportunity", h.MarkOpportunity)
	rg.POST("/leads/:id/future", h.MoveToFutureOpportunity)
	rg.POST("/leads/:id/disqualify", h.Disqualify)
	rg.POST("/leads/:id/proposal", h.AddProposal)
	rg.PATCH("/leads/:id/review", h.UpdateReview)
	rg.POST("/leads/:id/client-delivery", h.MoveToClientDelivery)
	rg.POST("/leads/:id/contract", h.MoveToContract)
	rg.POST("/leads/:id/implementation", h.MoveToImplementation)
	rg.POST("/leads/:id/change-orders", h.AddChangeOrder)
	rg.POST("/leads/:id/golive", h.MoveToGoLive)
	rg.POST("/leads/:id/billing", h.MoveToBilling)
}

// Columns returns the static board column registry.
func (h *Handler) Columns(c *gin.Context) {
	httpkit.OK(c, transport.ToColumnResponses(domain.Columns()))
}

func (h *Handler) Board(c *gin.Context) {
	board, err := h.svc.Board(c.Request.Context(), httpkit.GetIdentity(c))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, board)
}

func (h *Handler) List(c *gin.Context) {
	var req transport.ListLeadsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	resp, err := h.svc.ListLeads(c.Request.Context(), httpkit.GetIdentity(c), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, resp)
}

func (h *Handler) Create(c *gin.Context) {
	var req transport.CreateLeadRequest
	if !h.bind(c, &req) {
		return
	}

	lead, err := h.svc.CreateLead(c.Request.Context(), httpkit.GetIdentity(c), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, lead)
}

func (h *Handler) GetByID(c *gin.Context) {
	id, ok := h.leadID(c)
	if !ok {
		return
	}
	lead, err := h.svc.GetLead(c.Request.Context(), httpkit.GetIdentity(c), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, lead)
}

func (h *Handler) Update(c *gin.Context) {
	id, ok := h.leadID(c)
	if !ok {
		return
	}
	var req transport.UpdateLeadRequest
	if !h.bind(c, &req) {
		return
	}

	lead, err := h.svc.UpdateLead(c.Request.Context(), httpkit.GetIdentity(c), id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, lead)
}

func (h *Handler) Delete(c *gin.Context) {
	id, ok := h.leadID(c)
	if !ok {
		return
	}
	if err := h.svc.DeleteLead(c.Request.Context(), httpkit.GetIdentity(c), id); httpkit.HandleError(c, err) {
		return
	}
	c.Status(http.StatusNoContent)
}

// Lifecycle endpoints

func (h *Handler) ChangeStatus(c *gin.Context) {
	var req transport.ChangeStatusRequest
	h.applyBound(c, &req, func() domain.Transition {
		return domain.ChangeStatus{Status: domain.Status(req.Status), Notes: req.Notes}
	})
}

func (h *Handler) MarkProspect(c *gin.Context) {
	var req transport.MarkProspectRequest
	h.applyBound(c, &req, func() domain.Transition {
		return domain.MarkProspect{Data: domain.ProspectData{
			ResponseDate:       req.ResponseDate,
			EngagementType:     req.EngagementType,
			ContactQuality:     req.ContactQuality,
			QualificationNotes: req.QualificationNotes,
			DemoScheduled:      req.DemoScheduled,
			DemoDate:           req.DemoDate,
			PainPoints:         req.PainPoints,
			NextSteps:          req.NextSteps,
		}}
	})
}

func (h *Handler) MarkOpportunity(c *gin.Context) {
	h.apply(c, domain.MarkOpportunity{})
}

func (h *Handler) MoveToFutureOpportunity(c *gin.Context) {
	var req transport.MoveToFutureOpportunityRequest
	h.applyBound(c, &req, func() domain.Transition {
		return domain.MoveToFutureOpportunity{Data: domain.FutureOpportunityData{
			ReminderDate: req.ReminderDate,
			Reason:       req.Reason,
			Notes:        req.Notes,
		}}
	})
}

func (h *Handler) Disqualify(c *gin.Context) {
	var req transport.DisqualifyRequest
	h.applyBound(c, &req, func() domain.Transition {
		return domain.Disqualify{Data: domain.DisqualifiedData{
			Reason:     domain.DisqualifyReason(req.Reason),
			Competitor: req.Competitor,
			Notes:      req.Notes,
		}}
	})
}

func (h *Handler) AddProposal(c *gin.Context) {
	var req transport.AddProposalRequest
	h.applyBound(c, &req, func() domain.Transition {
		return domain.AddProposal{Data: domain.ProposalData{
			Template:         req.Template,
			Services:         req.Services,
			PricingStructure: req.PricingStructure,
			DurationMonths:   req.DurationMonths,
			Resources:        req.Resources,
			TermsVersion:     req.TermsVersion,
		}}
	})
}

func (h *Handler) UpdateReview(c *gin.Context) {
	var req transport.UpdateReviewRequest
	h.applyBound(c, &req, func() domain.Transition {
		return domain.UpdateReview{
			CST:       toReviewUpdate(req.CST),
			CRO:       toReviewUpdate(req.CRO),
			ActorName: httpkit.GetIdentity(c).Name(),
		}
	})
}

func (h *Handler) MoveToClientDelivery(c *gin.Context) {
	h.apply(c, domain.MoveToClientDelivery{})
}

func (h *Handler) MoveToContract(c *gin.Context) {
	var req transport.MoveToContractRequest
	h.applyBound(c, &req, func() domain.Transition {
		return domain.MoveToContract{Data: domain.ClientDeliveryData{
			PresentationDetails: req.PresentationDetails,
			ClientFeedback:      req.ClientFeedback,
			RevisionRequested:   req.RevisionRequested,
			Timeline:            req.Timeline,
		}}
	})
}

func (h *Handler) MoveToImplementation(c *gin.Context) {
	var req transport.MoveToImplementationRequest
	h.applyBound(c, &req, func() domain.Transition {
		return domain.MoveToImplementation{Data: domain.ContractData{
			Template:            req.Template,
			LegalReviewComplete: req.LegalReviewComplete,
			FinalValueCents:     req.FinalValueCents,
			Terms:               req.Terms,
			SuccessCriteria:     req.SuccessCriteria,
			ClientReviewStatus:  req.ClientReviewStatus,
		}}
	})
}

func (h *Handler) AddChangeOrder(c *gin.Context) {
	var req transport.AddChangeOrderRequest
	h.applyBound(c, &req, func() domain.Transition {
		return domain.AddChangeOrder{Data: domain.ChangeOrderData{
			Type:               req.Type,
			RequestedBy:        req.RequestedBy,
			Description:        req.Description,
			ImpactAnalysis:     req.ImpactAnalysis,
			ValueDeltaCents:    req.ValueDeltaCents,
			ImplementationDate: req.ImplementationDate,
			UpdatedBudgetCents: req.UpdatedBudgetCents,
			UpdatedTimeline:    req.UpdatedTimeline,
			DocumentationLink:  req.DocumentationLink,
		}}
	})
}

func (h *Handler) MoveToGoLive(c *gin.Context) {
	var req transport.MoveToGoLiveRequest
	h.applyBound(c, &req, func() domain.Transition {
		return domain.MoveToGoLive{Data: domain.GoLiveAndSupportData{
			DeploymentStatus:   req.DeploymentStatus,
			TrainingScore:      req.TrainingScore,
			AdoptionScore:      req.AdoptionScore,
			SatisfactionScore:  req.SatisfactionScore,
			KnownIssues:        req.KnownIssues,
			SuccessCriteriaMet: req.SuccessCriteriaMet,
		}}
	})
}

func (h *Handler) MoveToBilling(c *gin.Context) {
	var req transport.MoveToBillingRequest
	h.applyBound(c, &req, func() domain.Transition {
		return domain.MoveToBilling{Data: domain.BillingAndHandoffData{
			BillingStart:    req.BillingStart,
			InvoiceSchedule: req.InvoiceSchedule,
			AccountManager:  req.AccountManager,
			HandoffNotes:    req.HandoffNotes,
		}}
	})
}

// helpers

func (h *Handler) leadID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) bind(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return false
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return false
	}
	return true
}

// apply runs a bodyless transition endpoint.
func (h *Handler) apply(c *gin.Context, t domain.Transition) {
	id, ok := h.leadID(c)
	if !ok {
		return
	}
	lead, err := h.svc.Apply(c.Request.Context(), httpkit.GetIdentity(c), id, t)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, lead)
}

// applyBound binds and validates the request body, then runs the transition
// built from it.
func (h *Handler) applyBound(c *gin.Context, req interface{}, build func() domain.Transition) {
	id, ok := h.leadID(c)
	if !ok {
		return
	}
	if !h.bind(c, req) {
		return
	}
	lead, err := h.svc.Apply(c.Request.Context(), httpkit.GetIdentity(c), id, build())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, lead)
}

func toReviewUpdate(req *transport.ReviewTrackRequest) *domain.ReviewUpdate {
	if req == nil {
		return nil
	}
	update := &domain.ReviewUpdate{Reviewer: req.Reviewer, Notes: req.Notes}
	if req.Status != nil {
		status := domain.ReviewStatus(*req.Status)
		update.Status = &status
	}
	return update
}
