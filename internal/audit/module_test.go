package audit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"salespipe_backend/internal/pipeline/domain"
	pipelinerepo "salespipe_backend/internal/pipeline/repository"
	"salespipe_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type fakeTrail struct {
	entries map[uuid.UUID][]Entry
}

func (f *fakeTrail) ListByLead(ctx context.Context, leadID uuid.UUID, limit int) ([]Entry, error) {
	return f.entries[leadID], nil
}

func (f *fakeTrail) ListRecent(ctx context.Context, limit int) ([]Entry, error) {
	out := []Entry{}
	for _, entries := range f.entries {
		out = append(out, entries...)
	}
	return out, nil
}

type fakeLeads struct {
	leads map[uuid.UUID]*domain.Lead
}

func (f *fakeLeads) GetByID(ctx context.Context, id uuid.UUID) (*domain.Lead, error) {
	lead, ok := f.leads[id]
	if !ok {
		return nil, pipelinerepo.ErrNotFound
	}
	return lead, nil
}

func setIdentity(userID uuid.UUID, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(httpkit.ContextUserIDKey, userID)
		c.Set(httpkit.ContextUserNameKey, "Test User")
		c.Set(httpkit.ContextRoleKey, role)
		c.Next()
	}
}

func newTrailServer(t *testing.T, m *Module, userID uuid.UUID, role string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.GET("/leads/:id/audit", setIdentity(userID, role), m.listByLead)
	return engine
}

func seedTrail(t *testing.T) (*Module, *domain.Lead) {
	t.Helper()
	ownerID := uuid.New()
	lead := &domain.Lead{ID: uuid.New(), OwnerID: ownerID, Company: "Acme Corp"}

	trail := &fakeTrail{entries: map[uuid.UUID][]Entry{
		lead.ID: {{
			ID: 1, LeadID: lead.ID, ActorID: ownerID, ActorName: "Owner Rep",
			Action: "mark_prospect", CreatedAt: time.Now().UTC(),
		}},
	}}
	leads := &fakeLeads{leads: map[uuid.UUID]*domain.Lead{lead.ID: lead}}
	return NewModule(trail, leads), lead
}

func getTrail(engine *gin.Engine, leadID uuid.UUID) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/leads/"+leadID.String()+"/audit", nil)
	engine.ServeHTTP(rec, req)
	return rec
}

func TestListByLeadAllowsOwner(t *testing.T) {
	m, lead := seedTrail(t)
	engine := newTrailServer(t, m, lead.OwnerID, httpkit.RoleSalesRep)

	rec := getTrail(engine, lead.ID)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
}

func TestListByLeadForbiddenForNonOwner(t *testing.T) {
	m, lead := seedTrail(t)
	engine := newTrailServer(t, m, uuid.New(), httpkit.RoleSalesRep)

	rec := getTrail(engine, lead.ID)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403: a rep must not read another rep's trail", rec.Code)
	}
}

func TestListByLeadAllowsAdmin(t *testing.T) {
	m, lead := seedTrail(t)
	engine := newTrailServer(t, m, uuid.New(), httpkit.RoleAdmin)

	rec := getTrail(engine, lead.ID)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
}

func TestListByLeadUnknownLeadIsNotFound(t *testing.T) {
	m, _ := seedTrail(t)
	engine := newTrailServer(t, m, uuid.New(), httpkit.RoleSalesRep)

	rec := getTrail(engine, uuid.New())
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}
