package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"salespipe_backend/internal/pipeline/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("lead not found")

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// payloadDoc is the JSONB shape of the per-stage payload column. One document
// per lead; keys appear as the lead first enters each stage.
type payloadDoc struct {
	Prospect          *domain.ProspectData          `json:"prospect,omitempty"`
	Proposal          *domain.ProposalData          `json:"proposal,omitempty"`
	InternalReview    *domain.InternalReviewData    `json:"internalReview,omitempty"`
	ClientDelivery    *domain.ClientDeliveryData    `json:"clientDelivery,omitempty"`
	Contract          *domain.ContractData          `json:"contract,omitempty"`
	ChangeOrders      []domain.ChangeOrderData      `json:"changeOrders,omitempty"`
	GoLive            *domain.GoLiveAndSupportData  `json:"goLiveAndSupport,omitempty"`
	Billing           *domain.BillingAndHandoffData `json:"billingAndHandoff,omitempty"`
	FutureOpportunity *domain.FutureOpportunityData `json:"futureOpportunity,omitempty"`
	Disqualified      *domain.DisqualifiedData      `json:"disqualified,omitempty"`
}

func payloadsOf(lead *domain.Lead) payloadDoc {
	return payloadDoc{
		Prospect:          lead.Prospect,
		Proposal:          lead.Proposal,
		InternalReview:    lead.InternalReview,
		ClientDelivery:    lead.ClientDelivery,
		Contract:          lead.Contract,
		ChangeOrders:      lead.ChangeOrders,
		GoLive:            lead.GoLive,
		Billing:           lead.Billing,
		FutureOpportunity: lead.FutureOpportunity,
		Disqualified:      lead.Disqualified,
	}
}

func (d payloadDoc) applyTo(lead *domain.Lead) {
	lead.Prospect = d.Prospect
	lead.Proposal = d.Proposal
	lead.InternalReview = d.InternalReview
	lead.ClientDelivery = d.ClientDelivery
	lead.Contract = d.Contract
	lead.ChangeOrders = d.ChangeOrders
	lead.GoLive = d.GoLive
	lead.Billing = d.Billing
	lead.FutureOpportunity = d.FutureOpportunity
	lead.Disqualified = d.Disqualified
}

type CreateLeadParams struct {
	OwnerID      uuid.UUID
	CampaignID   *uuid.UUID
	Company      string
	ContactName  string
	ContactEmail string
	ContactPhone string
	// Status may be Unaware or Engaged; empty means Unaware.
	Status domain.Status
}

// Create inserts a new lead at the board entry position with an initial
// history entry, in one transaction.
func (r *Repository) Create(ctx context.Context, params CreateLeadParams) (*domain.Lead, error) {
	status := params.Status
	if status == "" {
		status = domain.StatusUnaware
	}
	now := time.Now().UTC()
	lead := &domain.Lead{
		ID:           uuid.New(),
		OwnerID:      params.OwnerID,
		CampaignID:   params.CampaignID,
		Company:      params.Company,
		ContactName:  params.ContactName,
		ContactEmail: params.ContactEmail,
		ContactPhone: params.ContactPhone,
		Stage:        domain.StageLead,
		ColumnID:     domain.ColumnNewLeads,
		Status:       status,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	payloads, err := json.Marshal(payloadsOf(lead))
	if err != nil {
		return nil, fmt.Errorf("marshal payloads: %w", err)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO leads (
			id, owner_id, campaign_id, company, contact_name, contact_email, contact_phone,
			stage, column_id, status, payloads, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`,
		lead.ID, lead.OwnerID, lead.CampaignID, lead.Company, lead.ContactName, lead.ContactEmail, lead.ContactPhone,
		lead.Stage, lead.ColumnID, lead.Status, payloads, lead.CreatedAt, lead.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	initial := domain.StatusUpdate{
		Status:    status,
		Date:      now,
		Notes:     "Lead created",
		UpdatedBy: params.OwnerID,
	}
	if err := insertStatusUpdate(ctx, tx, lead.ID, initial); err != nil {
		return nil, err
	}
	lead.StatusHistory = []domain.StatusUpdate{initial}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return lead, nil
}

// GetByID loads a lead with its full status history.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Lead, error) {
	lead, err := scanLead(r.pool.QueryRow(ctx, selectLead+` WHERE id = $1 AND deleted_at IS NULL`, id))
	if err != nil {
		return nil, err
	}

	history, err := r.listStatusUpdates(ctx, id)
	if err != nil {
		return nil, err
	}
	lead.StatusHistory = history
	return lead, nil
}

// ListParams filters the board listing.
type ListParams struct {
	OwnerID  *uuid.UUID
	ColumnID string
	Status   string
	Search   string
	Limit    int
	Offset   int
}

// List returns leads matching the filters plus the total count. History is
// not loaded for listings.
func (r *Repository) List(ctx context.Context, params ListParams) ([]*domain.Lead, int, error) {
	where := []string{"deleted_at IS NULL"}
	args := []interface{}{}

	if params.OwnerID != nil {
		args = append(args, *params.OwnerID)
		where = append(where, fmt.Sprintf("owner_id = $%d", len(args)))
	}
	if params.ColumnID != "" {
		args = append(args, params.ColumnID)
		where = append(where, fmt.Sprintf("column_id = $%d", len(args)))
	}
	if params.Status != "" {
		args = append(args, params.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if params.Search != "" {
		args = append(args, "%"+params.Search+"%")
		where = append(where, fmt.Sprintf("(company ILIKE $%d OR contact_name ILIKE $%d)", len(args), len(args)))
	}
	clause := " WHERE " + strings.Join(where, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM leads`+clause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := params.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	args = append(args, limit, params.Offset)
	query := selectLead + clause + fmt.Sprintf(" ORDER BY updated_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	leads := make([]*domain.Lead, 0)
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, 0, err
		}
		leads = append(leads, lead)
	}
	if rows.Err() != nil {
		return nil, 0, rows.Err()
	}
	return leads, total, nil
}

type UpdateDetailsParams struct {
	CampaignID   *uuid.UUID
	Company      *string
	ContactName  *string
	ContactEmail *string
	ContactPhone *string
}

// UpdateDetails patches contact fields only. Lifecycle fields are off limits
// here; they change exclusively through SaveTransition.
func (r *Repository) UpdateDetails(ctx context.Context, id uuid.UUID, params UpdateDetailsParams) (*domain.Lead, error) {
	set := []string{"updated_at = now()"}
	args := []interface{}{id}

	add := func(column string, value interface{}) {
		args = append(args, value)
		set = append(set, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if params.CampaignID != nil {
		add("campaign_id", *params.CampaignID)
	}
	if params.Company != nil {
		add("company", *params.Company)
	}
	if params.ContactName != nil {
		add("contact_name", *params.ContactName)
	}
	if params.ContactEmail != nil {
		add("contact_email", *params.ContactEmail)
	}
	if params.ContactPhone != nil {
		add("contact_phone", *params.ContactPhone)
	}

	tag, err := r.pool.Exec(ctx,
		`UPDATE leads SET `+strings.Join(set, ", ")+` WHERE id = $1 AND deleted_at IS NULL`, args...)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNotFound
	}
	return r.GetByID(ctx, id)
}

// Delete soft-deletes a lead. Its rows and audit trail are retained.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE leads SET deleted_at = now(), updated_at = now() WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DetachCampaign clears the campaign reference on all leads pointing at the
// given campaign. Used when a campaign is deleted; the leads themselves are
// untouched otherwise.
func (r *Repository) DetachCampaign(ctx context.Context, campaignID uuid.UUID) (int, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE leads SET campaign_id = NULL, updated_at = now() WHERE campaign_id = $1`, campaignID)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

// TransitionAudit is the audit row written atomically with a transition.
type TransitionAudit struct {
	ActorID   uuid.UUID
	ActorName string
	Action    string
	Details   string
}

// SaveTransition persists the outcome of a lifecycle transition: the updated
// lead row, at most one appended history entry, and exactly one audit row,
// all in a single transaction. If any write fails nothing is visible.
func (r *Repository) SaveTransition(ctx context.Context, lead *domain.Lead, update *domain.StatusUpdate, audit TransitionAudit) error {
	payloads, err := json.Marshal(payloadsOf(lead))
	if err != nil {
		return fmt.Errorf("marshal payloads: %w", err)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE leads SET
			stage = $2, column_id = $3, status = $4, payloads = $5, updated_at = $6
		WHERE id = $1 AND deleted_at IS NULL
	`, lead.ID, lead.Stage, lead.ColumnID, lead.Status, payloads, lead.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	if update != nil {
		if err := insertStatusUpdate(ctx, tx, lead.ID, *update); err != nil {
			return err
		}
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO audit_log (lead_id, actor_id, actor_name, action, details, created_at)
		VALUES ($1, $2, $3, $4, $5, now())
	`, lead.ID, audit.ActorID, audit.ActorName, audit.Action, audit.Details)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// LeadsWithDueFollowUps returns future-opportunity leads whose reminder date
// falls on or before the given cutoff.
func (r *Repository) LeadsWithDueFollowUps(ctx context.Context, cutoff time.Time) ([]*domain.Lead, error) {
	rows, err := r.pool.Query(ctx, selectLead+`
		WHERE deleted_at IS NULL
		  AND status = $1
		  AND (payloads -> 'futureOpportunity' ->> 'reminderDate')::timestamptz <= $2
	`, domain.StatusFutureOpportunity, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	leads := make([]*domain.Lead, 0)
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, lead)
	}
	return leads, rows.Err()
}

const selectLead = `
	SELECT id, owner_id, campaign_id, company, contact_name, contact_email, contact_phone,
	       stage, column_id, status, payloads, created_at, updated_at
	FROM leads`

func scanLead(row pgx.Row) (*domain.Lead, error) {
	var lead domain.Lead
	var payloads []byte
	err := row.Scan(
		&lead.ID, &lead.OwnerID, &lead.CampaignID, &lead.Company,
		&lead.ContactName, &lead.ContactEmail, &lead.ContactPhone,
		&lead.Stage, &lead.ColumnID, &lead.Status, &payloads,
		&lead.CreatedAt, &lead.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var doc payloadDoc
	if len(payloads) > 0 {
		if err := json.Unmarshal(payloads, &doc); err != nil {
			return nil, fmt.Errorf("unmarshal payloads for lead %s: %w", lead.ID, err)
		}
	}
	doc.applyTo(&lead)
	return &lead, nil
}

func insertStatusUpdate(ctx context.Context, tx pgx.Tx, leadID uuid.UUID, update domain.StatusUpdate) error {
	var data []byte
	if update.Data != nil {
		var err error
		data, err = json.Marshal(update.Data)
		if err != nil {
			return fmt.Errorf("marshal status update data: %w", err)
		}
	}
	_, err := tx.Exec(ctx, `
		INSERT INTO lead_status_updates (lead_id, status, date, notes, updated_by, data)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, leadID, update.Status, update.Date, update.Notes, update.UpdatedBy, data)
	return err
}

func (r *Repository) listStatusUpdates(ctx context.Context, leadID uuid.UUID) ([]domain.StatusUpdate, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT status, date, notes, updated_by, data
		FROM lead_status_updates
		WHERE lead_id = $1
		ORDER BY id ASC
	`, leadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	history := make([]domain.StatusUpdate, 0)
	for rows.Next() {
		var update domain.StatusUpdate
		var data []byte
		if err := rows.Scan(&update.Status, &update.Date, &update.Notes, &update.UpdatedBy, &data); err != nil {
			return nil, err
		}
		if len(data) > 0 {
			var raw json.RawMessage
			if err := json.Unmarshal(data, &raw); err != nil {
				return nil, err
			}
			update.Data = raw
		}
		history = append(history, update)
	}
	return history, rows.Err()
}
