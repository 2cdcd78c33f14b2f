// Package identity provides the user account bounded context module:
// login, profile, and admin user management.
package identity

import (
	"context"

	apphttp "salespipe_backend/internal/http"
	"salespipe_backend/internal/identity/handler"
	"salespipe_backend/internal/identity/repository"
	"salespipe_backend/internal/identity/service"
	"salespipe_backend/platform/config"
	"salespipe_backend/platform/logger"
	"salespipe_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the identity bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates the identity module and ensures a bootstrap admin
// account exists.
func NewModule(ctx context.Context, pool *pgxpool.Pool, val *validator.Validator, cfg config.AuthServiceConfig, log *logger.Logger) (*Module, error) {
	repo := repository.New(pool)
	svc := service.New(repo, cfg, log)
	if err := svc.EnsureAdmin(ctx); err != nil {
		return nil, err
	}

	return &Module{
		handler: handler.New(svc, val),
		service: svc,
	}, nil
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "identity"
}

// RegisterRoutes mounts identity routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	auth := ctx.V1.Group("/auth")
	auth.POST("/login", ctx.AuthRateLimiter.RateLimit(), m.handler.Login)

	ctx.Protected.GET("/auth/me", m.handler.Me)

	ctx.Admin.GET("/users", m.handler.ListUsers)
	ctx.Admin.POST("/users", m.handler.CreateUser)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
