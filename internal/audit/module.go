package audit

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	apphttp "salespipe_backend/internal/http"
	"salespipe_backend/internal/pipeline/domain"
	pipelinerepo "salespipe_backend/internal/pipeline/repository"
	"salespipe_backend/platform/apperr"
	"salespipe_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// TrailReader lists audit rows. Implemented by Repository.
type TrailReader interface {
	ListByLead(ctx context.Context, leadID uuid.UUID, limit int) ([]Entry, error)
	ListRecent(ctx context.Context, limit int) ([]Entry, error)
}

// LeadAccess resolves a lead so its trail inherits the lead's access rules.
type LeadAccess interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Lead, error)
}

// Module exposes the audit trail over HTTP. A lead's trail is gated the
// same way as the lead itself: admins always, sales reps only on their own
// leads. The global feed is admin-only.
type Module struct {
	trail TrailReader
	leads LeadAccess
}

func NewModule(trail TrailReader, leads LeadAccess) *Module {
	return &Module{trail: trail, leads: leads}
}

func (m *Module) Name() string {
	return "audit"
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.GET("/leads/:id/audit", m.listByLead)
	ctx.Admin.GET("/audit", m.listRecent)
}

func (m *Module) listByLead(c *gin.Context) {
	leadID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid lead id", nil)
		return
	}

	lead, err := m.leads.GetByID(c.Request.Context(), leadID)
	if errors.Is(err, pipelinerepo.ErrNotFound) {
		httpkit.HandleError(c, apperr.NotFound("lead not found"))
		return
	}
	if httpkit.HandleError(c, err) {
		return
	}
	ident := httpkit.GetIdentity(c)
	if !ident.IsAdmin() && lead.OwnerID != ident.UserID() {
		httpkit.HandleError(c, apperr.Forbidden("you do not have access to this lead"))
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	entries, err := m.trail.ListByLead(c.Request.Context(), leadID, limit)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, entries)
}

func (m *Module) listRecent(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	entries, err := m.trail.ListRecent(c.Request.Context(), limit)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, entries)
}

var _ apphttp.Module = (*Module)(nil)
var _ TrailReader = (*Repository)(nil)
