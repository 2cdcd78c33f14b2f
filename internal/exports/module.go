package exports

import (
	"net/http"
	"time"

	apphttp "salespipe_backend/internal/http"
	pipelinerepo "salespipe_backend/internal/pipeline/repository"
	"salespipe_backend/platform/httpkit"
	"salespipe_backend/platform/logger"

	"github.com/gin-gonic/gin"
)

// Module is the exports bounded context module implementing http.Module.
// Exports are admin-only: they cross owner boundaries by design.
type Module struct {
	leads   pipelinerepo.LeadReader
	storage *Storage
	log     *logger.Logger
}

// NewModule creates the exports module. storage may be nil; exports then
// stream the CSV directly instead of returning a download link.
func NewModule(leads pipelinerepo.LeadReader, storage *Storage, log *logger.Logger) *Module {
	return &Module{leads: leads, storage: storage, log: log}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "exports"
}

// RegisterRoutes mounts export routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Admin.GET("/exports/leads.csv", m.exportLeads)
}

type exportResponse struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
	Count     int       `json:"count"`
}

func (m *Module) exportLeads(c *gin.Context) {
	leads, _, err := m.leads.List(c.Request.Context(), pipelinerepo.ListParams{
		ColumnID: c.Query("columnId"),
		Status:   c.Query("status"),
		Limit:    200,
	})
	if httpkit.HandleError(c, err) {
		return
	}

	data, err := buildCSV(leads)
	if err != nil {
		m.log.Error("csv build failed", "error", err)
		httpkit.Error(c, http.StatusInternalServerError, "failed to build export", nil)
		return
	}

	if m.storage == nil {
		c.Header("Content-Disposition", "attachment; filename=leads.csv")
		c.Data(http.StatusOK, "text/csv", data)
		return
	}

	now := time.Now().UTC()
	link, err := m.storage.Put(c.Request.Context(), objectName(now), data)
	if err != nil {
		m.log.Error("export upload failed", "error", err)
		httpkit.Error(c, http.StatusInternalServerError, "failed to store export", nil)
		return
	}

	httpkit.OK(c, exportResponse{
		URL:       link.String(),
		ExpiresAt: now.Add(presignExpiry),
		Count:     len(leads),
	})
}

var _ apphttp.Module = (*Module)(nil)
