package assist

import (
	"context"
	"net/http"

	apphttp "salespipe_backend/internal/http"
	pipelinerepo "salespipe_backend/internal/pipeline/repository"
	"salespipe_backend/platform/apperr"
	"salespipe_backend/platform/config"
	"salespipe_backend/platform/httpkit"
	"salespipe_backend/platform/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Module exposes the lead advisor over HTTP.
type Module struct {
	advisor *Advisor
	leads   pipelinerepo.LeadReader
	log     *logger.Logger
}

// NewModule creates the assist module. Returns nil when no API key is
// configured; callers skip registration in that case.
func NewModule(ctx context.Context, cfg config.AssistConfig, leads pipelinerepo.LeadReader, log *logger.Logger) (*Module, error) {
	if !cfg.IsAssistEnabled() {
		return nil, nil
	}
	advisor, err := NewAdvisor(ctx, cfg.GetGeminiAPIKey(), cfg.GetGeminiModel())
	if err != nil {
		return nil, err
	}
	return &Module{advisor: advisor, leads: leads, log: log}, nil
}

func (m *Module) Name() string {
	return "assist"
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.POST("/leads/:id/advise", m.advise)
}

func (m *Module) advise(c *gin.Context) {
	leadID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid lead id", nil)
		return
	}

	lead, err := m.leads.GetByID(c.Request.Context(), leadID)
	if err != nil {
		httpkit.HandleError(c, apperr.NotFound("lead not found"))
		return
	}

	ident := httpkit.GetIdentity(c)
	if !ident.IsAdmin() && lead.OwnerID != ident.UserID() {
		httpkit.HandleError(c, apperr.Forbidden("you do not have access to this lead"))
		return
	}

	advice, err := m.advisor.Advise(c.Request.Context(), lead)
	if err != nil {
		m.log.Error("lead advisor failed", "error", err, "leadId", leadID)
		httpkit.HandleError(c, err)
		return
	}
	httpkit.OK(c, advice)
}

var _ apphttp.Module = (*Module)(nil)
