// Package campaigns provides the marketing campaign bounded context module.
package campaigns

import (
	"salespipe_backend/internal/campaigns/handler"
	"salespipe_backend/internal/campaigns/repository"
	"salespipe_backend/internal/campaigns/service"
	"salespipe_backend/internal/events"
	apphttp "salespipe_backend/internal/http"
	"salespipe_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the campaigns bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates the campaigns module. The detacher comes from the
// pipeline module so campaign deletion can clear lead references without a
// hard dependency on the pipeline's internals.
func NewModule(pool *pgxpool.Pool, detacher service.LeadDetacher, eventBus events.Bus, val *validator.Validator) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, detacher, eventBus)
	return &Module{
		handler: handler.New(svc, val),
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "campaigns"
}

// RegisterRoutes mounts campaign routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/campaigns")
	m.handler.RegisterRoutes(group)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
