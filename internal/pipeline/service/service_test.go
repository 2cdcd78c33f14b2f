package service

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"salespipe_backend/internal/events"
	"salespipe_backend/internal/pipeline/domain"
	"salespipe_backend/internal/pipeline/repository"
	"salespipe_backend/internal/pipeline/transport"
	"salespipe_backend/platform/apperr"
	"salespipe_backend/platform/httpkit"
	"salespipe_backend/platform/logger"

	"github.com/google/uuid"
)

// fakeStore keeps leads in memory and mimics the repository's transactional
// contract: SaveTransition either persists everything or nothing.
type fakeStore struct {
	mu       sync.Mutex
	leads    map[uuid.UUID]*domain.Lead
	audits   []repository.TransitionAudit
	failSave error
	saves    int
}

func newFakeStore() *fakeStore {
	return &fakeStore{leads: map[uuid.UUID]*domain.Lead{}}
}

func (f *fakeStore) put(lead *domain.Lead) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.leads[lead.ID] = lead.Clone()
}

func (f *fakeStore) Create(ctx context.Context, params repository.CreateLeadParams) (*domain.Lead, error) {
	status := params.Status
	if status == "" {
		status = domain.StatusUnaware
	}
	lead := &domain.Lead{
		ID:          uuid.New(),
		OwnerID:     params.OwnerID,
		CampaignID:  params.CampaignID,
		Company:     params.Company,
		ContactName: params.ContactName,
		Stage:       domain.StageLead,
		ColumnID:    domain.ColumnNewLeads,
		Status:      status,
	}
	f.put(lead)
	return lead.Clone(), nil
}

func (f *fakeStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Lead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	lead, ok := f.leads[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return lead.Clone(), nil
}

func (f *fakeStore) List(ctx context.Context, params repository.ListParams) ([]*domain.Lead, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*domain.Lead, 0, len(f.leads))
	for _, lead := range f.leads {
		if params.OwnerID != nil && lead.OwnerID != *params.OwnerID {
			continue
		}
		out = append(out, lead.Clone())
	}
	return out, len(out), nil
}

func (f *fakeStore) UpdateDetails(ctx context.Context, id uuid.UUID, params repository.UpdateDetailsParams) (*domain.Lead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	lead, ok := f.leads[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if params.Company != nil {
		lead.Company = *params.Company
	}
	return lead.Clone(), nil
}

func (f *fakeStore) Delete(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.leads[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.leads, id)
	return nil
}

func (f *fakeStore) SaveTransition(ctx context.Context, lead *domain.Lead, update *domain.StatusUpdate, audit repository.TransitionAudit) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSave != nil {
		return f.failSave
	}
	saved := lead.Clone()
	if update != nil {
		// The repository persists the history row with the lead; the
		// clone already carries it in StatusHistory.
		_ = update
	}
	f.leads[lead.ID] = saved
	f.audits = append(f.audits, audit)
	f.saves++
	return nil
}

// recordingBus captures published events synchronously.
type recordingBus struct {
	mu     sync.Mutex
	events []events.Event
}

func (b *recordingBus) Publish(ctx context.Context, event events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
}

func (b *recordingBus) PublishSync(ctx context.Context, event events.Event) error {
	b.Publish(ctx, event)
	return nil
}

func (b *recordingBus) Subscribe(eventName string, handler events.Handler) {}

func (b *recordingBus) named(name string) []events.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := []events.Event{}
	for _, e := range b.events {
		if e.EventName() == name {
			out = append(out, e)
		}
	}
	return out
}

var (
	ownerID = uuid.MustParse("11111111-1111-1111-1111-111111111111")
	otherID = uuid.MustParse("22222222-2222-2222-2222-222222222222")

	ownerIdent = httpkit.NewIdentity(ownerID, "Owner Rep", httpkit.RoleSalesRep)
	otherIdent = httpkit.NewIdentity(otherID, "Other Rep", httpkit.RoleSalesRep)
	adminIdent = httpkit.NewIdentity(uuid.New(), "Admin", httpkit.RoleAdmin)
)

func newTestService(store *fakeStore, bus events.Bus) *Service {
	return New(store, bus, logger.New("test"))
}

// captureLogger writes log output to the returned buffer for assertions.
func captureLogger() (*logger.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return &logger.Logger{Logger: slog.New(slog.NewTextHandler(&buf, nil))}, &buf
}

func seedLead(store *fakeStore, status domain.Status, columnID string) *domain.Lead {
	col, _ := domain.ColumnByID(columnID)
	lead := &domain.Lead{
		ID:       uuid.New(),
		OwnerID:  ownerID,
		Company:  "Acme Corp",
		Stage:    col.Stage,
		ColumnID: col.ID,
		Status:   status,
	}
	store.put(lead)
	return lead
}

func TestApplyPersistsTransitionWithAudit(t *testing.T) {
	store := newFakeStore()
	bus := &recordingBus{}
	svc := newTestService(store, bus)
	lead := seedLead(store, domain.StatusProspect, domain.ColumnProspects)

	resp, err := svc.Apply(context.Background(), ownerIdent, lead.ID, domain.MarkOpportunity{})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if resp.Status != string(domain.StatusQualified) || resp.ColumnID != domain.ColumnQualified {
		t.Errorf("response state = (%s, %s), want (Qualified, col-qualified)", resp.Status, resp.ColumnID)
	}

	saved, _ := store.GetByID(context.Background(), lead.ID)
	if saved.Status != domain.StatusQualified {
		t.Errorf("persisted status = %s, want Qualified", saved.Status)
	}
	if len(store.audits) != 1 {
		t.Fatalf("audit rows = %d, want 1", len(store.audits))
	}
	if store.audits[0].Action != "mark_opportunity" || store.audits[0].ActorName != "Owner Rep" {
		t.Errorf("audit = %+v", store.audits[0])
	}
	if got := bus.named(events.LeadTransitioned{}.EventName()); len(got) != 1 {
		t.Errorf("transition events = %d, want 1", len(got))
	}
}

func TestApplyForbiddenForNonOwnerBeforeMutation(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, &recordingBus{})
	lead := seedLead(store, domain.StatusProspect, domain.ColumnProspects)

	_, err := svc.Apply(context.Background(), otherIdent, lead.ID, domain.MarkOpportunity{})
	if !apperr.Is(err, apperr.KindForbidden) {
		t.Fatalf("err = %v, want KindForbidden", err)
	}

	saved, _ := store.GetByID(context.Background(), lead.ID)
	if saved.Status != domain.StatusProspect || store.saves != 0 {
		t.Error("forbidden request mutated state")
	}
}

func TestApplyAdminMayActOnAnyLead(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, &recordingBus{})
	lead := seedLead(store, domain.StatusProspect, domain.ColumnProspects)

	if _, err := svc.Apply(context.Background(), adminIdent, lead.ID, domain.MarkOpportunity{}); err != nil {
		t.Fatalf("admin Apply: %v", err)
	}
}

func TestApplyValidationFailureLeavesLeadUntouched(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, &recordingBus{})
	lead := seedLead(store, domain.StatusQualified, domain.ColumnQualified)

	_, err := svc.Apply(context.Background(), ownerIdent, lead.ID, domain.Disqualify{
		Data: domain.DisqualifiedData{Reason: domain.DisqualifyChoseCompetitor}, // competitor missing
	})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("err = %v, want KindValidation", err)
	}

	saved, _ := store.GetByID(context.Background(), lead.ID)
	if saved.Status != domain.StatusQualified || saved.Disqualified != nil {
		t.Error("failed validation left partial mutation behind")
	}
	if store.saves != 0 {
		t.Error("failed validation reached the store")
	}
}

func TestApplyAuditFailureRollsBackEverything(t *testing.T) {
	store := newFakeStore()
	bus := &recordingBus{}
	svc := newTestService(store, bus)
	lead := seedLead(store, domain.StatusProspect, domain.ColumnProspects)

	store.failSave = errors.New("audit insert failed")
	_, err := svc.Apply(context.Background(), ownerIdent, lead.ID, domain.MarkOpportunity{})
	if err == nil {
		t.Fatal("expected save failure to surface")
	}

	saved, _ := store.GetByID(context.Background(), lead.ID)
	if saved.Status != domain.StatusProspect {
		t.Error("lead mutated despite failed transactional save")
	}
	if len(saved.StatusHistory) != 0 {
		t.Error("history entry survived failed save")
	}
	if got := bus.named(events.LeadTransitioned{}.EventName()); len(got) != 0 {
		t.Error("events published for a failed transition")
	}
}

// brokenMove references a column missing from the registry, the way a stale
// deploy would.
type brokenMove struct{}

func (brokenMove) Operation() string { return "broken_move" }
func (brokenMove) Apply(lead *domain.Lead, now time.Time, actorID uuid.UUID) (domain.Applied, error) {
	return domain.Applied{}, apperr.Configuration(`unknown column "col-missing"`)
}

func TestApplyLogsConfigurationErrorsForOperators(t *testing.T) {
	store := newFakeStore()
	log, buf := captureLogger()
	svc := New(store, &recordingBus{}, log)
	lead := seedLead(store, domain.StatusQualified, domain.ColumnQualified)

	_, err := svc.Apply(context.Background(), ownerIdent, lead.ID, brokenMove{})
	if !apperr.Is(err, apperr.KindConfiguration) {
		t.Fatalf("err = %v, want KindConfiguration", err)
	}
	if !strings.Contains(buf.String(), "configuration_error") {
		t.Errorf("operator log missing configuration_error entry: %q", buf.String())
	}
}

func TestApplyLogsDatabaseErrorsOnPersistFailure(t *testing.T) {
	store := newFakeStore()
	store.failSave = errors.New("connection reset")
	log, buf := captureLogger()
	svc := New(store, &recordingBus{}, log)
	lead := seedLead(store, domain.StatusProspect, domain.ColumnProspects)

	if _, err := svc.Apply(context.Background(), ownerIdent, lead.ID, domain.MarkOpportunity{}); err == nil {
		t.Fatal("expected save failure to surface")
	}
	if !strings.Contains(buf.String(), "database_error") {
		t.Errorf("operator log missing database_error entry: %q", buf.String())
	}
}

func TestApplySerializesConcurrentReviewWrites(t *testing.T) {
	store := newFakeStore()
	bus := &recordingBus{}
	svc := newTestService(store, bus)

	lead := seedLead(store, domain.StatusQualified, domain.ColumnProposal)
	lead.InternalReview = domain.NewInternalReview()
	store.put(lead)

	approve := func(track string) domain.UpdateReview {
		status := domain.ReviewApproved
		update := &domain.ReviewUpdate{Status: &status}
		req := domain.UpdateReview{ActorName: "Reviewer"}
		if track == "cst" {
			req.CST = update
		} else {
			req.CRO = update
		}
		return req
	}

	var wg sync.WaitGroup
	for _, track := range []string{"cst", "cro"} {
		wg.Add(1)
		go func(track string) {
			defer wg.Done()
			if _, err := svc.Apply(context.Background(), ownerIdent, lead.ID, approve(track)); err != nil {
				t.Errorf("Apply(%s): %v", track, err)
			}
		}(track)
	}
	wg.Wait()

	saved, _ := store.GetByID(context.Background(), lead.ID)
	if saved.InternalReview.CST.Status != domain.ReviewApproved || saved.InternalReview.CRO.Status != domain.ReviewApproved {
		t.Fatalf("lost a concurrent track write: %+v", saved.InternalReview)
	}
	if saved.InternalReview.FinalApprovalDate == nil {
		t.Fatal("dual approval not stamped")
	}
	if got := bus.named(events.LeadApproved{}.EventName()); len(got) != 1 {
		t.Errorf("LeadApproved events = %d, want exactly 1", len(got))
	}
}

func TestApplyLockTimeoutReturnsConflict(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, &recordingBus{})
	svc.locks = newLeadLocks(20 * time.Millisecond)
	lead := seedLead(store, domain.StatusProspect, domain.ColumnProspects)

	release, err := svc.locks.acquire(context.Background(), lead.ID)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	defer release()

	_, err = svc.Apply(context.Background(), ownerIdent, lead.ID, domain.MarkOpportunity{})
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("err = %v, want KindConflict", err)
	}
}

func TestApplyDistinctLeadsDoNotContend(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, &recordingBus{})
	svc.locks = newLeadLocks(50 * time.Millisecond)

	a := seedLead(store, domain.StatusProspect, domain.ColumnProspects)
	b := seedLead(store, domain.StatusProspect, domain.ColumnProspects)

	releaseA, err := svc.locks.acquire(context.Background(), a.ID)
	if err != nil {
		t.Fatalf("acquire a: %v", err)
	}
	defer releaseA()

	// Lead b must proceed while a's lock is held.
	if _, err := svc.Apply(context.Background(), ownerIdent, b.ID, domain.MarkOpportunity{}); err != nil {
		t.Fatalf("Apply on independent lead: %v", err)
	}
}

func TestMoveToFutureOpportunityPublishesFollowUp(t *testing.T) {
	store := newFakeStore()
	bus := &recordingBus{}
	svc := newTestService(store, bus)
	lead := seedLead(store, domain.StatusQualified, domain.ColumnQualified)

	reminder := time.Now().UTC().AddDate(0, 2, 0)
	_, err := svc.Apply(context.Background(), ownerIdent, lead.ID, domain.MoveToFutureOpportunity{
		Data: domain.FutureOpportunityData{ReminderDate: reminder, Reason: "budget next year"},
	})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	got := bus.named(events.FollowUpScheduled{}.EventName())
	if len(got) != 1 {
		t.Fatalf("FollowUpScheduled events = %d, want 1", len(got))
	}
	e := got[0].(events.FollowUpScheduled)
	if !e.ReminderDate.Equal(reminder) || e.LeadID != lead.ID {
		t.Errorf("event = %+v", e)
	}
}

func TestListLeadsScopedToOwnerForSalesReps(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, &recordingBus{})
	seedLead(store, domain.StatusUnaware, domain.ColumnNewLeads)

	foreign := seedLead(store, domain.StatusUnaware, domain.ColumnNewLeads)
	foreign.OwnerID = otherID
	store.put(foreign)

	resp, err := svc.ListLeads(context.Background(), ownerIdent, transport.ListLeadsRequest{})
	if err != nil {
		t.Fatalf("ListLeads: %v", err)
	}
	if resp.Total != 1 {
		t.Errorf("sales rep sees %d leads, want 1", resp.Total)
	}

	adminResp, err := svc.ListLeads(context.Background(), adminIdent, transport.ListLeadsRequest{})
	if err != nil {
		t.Fatalf("ListLeads admin: %v", err)
	}
	if adminResp.Total != 2 {
		t.Errorf("admin sees %d leads, want 2", adminResp.Total)
	}
}

func TestBoardReturnsAllColumnsEvenWhenEmpty(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, &recordingBus{})

	board, err := svc.Board(context.Background(), adminIdent)
	if err != nil {
		t.Fatalf("Board: %v", err)
	}
	if len(board.Columns) != len(domain.Columns()) {
		t.Fatalf("board columns = %d, want %d", len(board.Columns), len(domain.Columns()))
	}
	for _, col := range board.Columns {
		if col.Leads == nil {
			t.Errorf("column %s has nil leads slice", col.ID)
		}
	}
}

func TestCreateLeadOwnerAssignmentRules(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, &recordingBus{})

	_, err := svc.CreateLead(context.Background(), ownerIdent, transport.CreateLeadRequest{
		Company: "Acme", ContactName: "Jo", OwnerID: &otherID,
	})
	if !apperr.Is(err, apperr.KindForbidden) {
		t.Fatalf("rep assigning foreign owner: err = %v, want KindForbidden", err)
	}

	resp, err := svc.CreateLead(context.Background(), adminIdent, transport.CreateLeadRequest{
		Company: "Acme", ContactName: "Jo", OwnerID: &otherID,
	})
	if err != nil {
		t.Fatalf("admin create: %v", err)
	}
	if resp.OwnerID != otherID {
		t.Errorf("ownerId = %s, want %s", resp.OwnerID, otherID)
	}
	if resp.ColumnID != domain.ColumnNewLeads || resp.Status != string(domain.StatusUnaware) {
		t.Errorf("new lead state = (%s, %s), want entry position", resp.ColumnID, resp.Status)
	}
}

func TestCreateLeadAcceptsEngagedEntryStatus(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, &recordingBus{})

	resp, err := svc.CreateLead(context.Background(), ownerIdent, transport.CreateLeadRequest{
		Company: "Acme", ContactName: "Jo", Status: string(domain.StatusEngaged),
	})
	if err != nil {
		t.Fatalf("CreateLead: %v", err)
	}
	if resp.Status != string(domain.StatusEngaged) {
		t.Errorf("status = %s, want Engaged", resp.Status)
	}
	if resp.ColumnID != domain.ColumnNewLeads {
		t.Errorf("columnId = %s; entry status never changes the entry column", resp.ColumnID)
	}
}
