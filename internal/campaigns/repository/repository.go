// Package repository provides data access for marketing campaigns.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("campaign not found")

type Campaign struct {
	ID          uuid.UUID
	Name        string
	Description string
	Channel     string
	StartDate   *time.Time
	EndDate     *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type CreateCampaignParams struct {
	Name        string
	Description string
	Channel     string
	StartDate   *time.Time
	EndDate     *time.Time
}

func (r *Repository) Create(ctx context.Context, params CreateCampaignParams) (Campaign, error) {
	var campaign Campaign
	err := r.pool.QueryRow(ctx, `
		INSERT INTO campaigns (name, description, channel, start_date, end_date)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, name, description, channel, start_date, end_date, created_at, updated_at
	`, params.Name, params.Description, params.Channel, params.StartDate, params.EndDate).Scan(
		&campaign.ID, &campaign.Name, &campaign.Description, &campaign.Channel,
		&campaign.StartDate, &campaign.EndDate, &campaign.CreatedAt, &campaign.UpdatedAt,
	)
	return campaign, err
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Campaign, error) {
	return scanOne(r.pool.QueryRow(ctx, selectCampaign+` WHERE id = $1`, id))
}

func (r *Repository) List(ctx context.Context) ([]Campaign, error) {
	rows, err := r.pool.Query(ctx, selectCampaign+` ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	campaigns := make([]Campaign, 0)
	for rows.Next() {
		var campaign Campaign
		if err := rows.Scan(
			&campaign.ID, &campaign.Name, &campaign.Description, &campaign.Channel,
			&campaign.StartDate, &campaign.EndDate, &campaign.CreatedAt, &campaign.UpdatedAt,
		); err != nil {
			return nil, err
		}
		campaigns = append(campaigns, campaign)
	}
	return campaigns, rows.Err()
}

type UpdateCampaignParams struct {
	Name        *string
	Description *string
	Channel     *string
	StartDate   *time.Time
	EndDate     *time.Time
}

func (r *Repository) Update(ctx context.Context, id uuid.UUID, params UpdateCampaignParams) (Campaign, error) {
	var campaign Campaign
	err := r.pool.QueryRow(ctx, `
		UPDATE campaigns SET
			name = COALESCE($2, name),
			description = COALESCE($3, description),
			channel = COALESCE($4, channel),
			start_date = COALESCE($5, start_date),
			end_date = COALESCE($6, end_date),
			updated_at = now()
		WHERE id = $1
		RETURNING id, name, description, channel, start_date, end_date, created_at, updated_at
	`, id, params.Name, params.Description, params.Channel, params.StartDate, params.EndDate).Scan(
		&campaign.ID, &campaign.Name, &campaign.Description, &campaign.Channel,
		&campaign.StartDate, &campaign.EndDate, &campaign.CreatedAt, &campaign.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Campaign{}, ErrNotFound
	}
	return campaign, err
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM campaigns WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

const selectCampaign = `
	SELECT id, name, description, channel, start_date, end_date, created_at, updated_at
	FROM campaigns`

func scanOne(row pgx.Row) (Campaign, error) {
	var campaign Campaign
	err := row.Scan(
		&campaign.ID, &campaign.Name, &campaign.Description, &campaign.Channel,
		&campaign.StartDate, &campaign.EndDate, &campaign.CreatedAt, &campaign.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Campaign{}, ErrNotFound
	}
	return campaign, err
}
