package exports

import (
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"salespipe_backend/internal/pipeline/domain"

	"github.com/google/uuid"
)

func TestBuildCSV(t *testing.T) {
	approved := time.Date(2025, 5, 2, 10, 0, 0, 0, time.UTC)
	campaignID := uuid.New()

	leads := []*domain.Lead{
		{
			ID:          uuid.New(),
			OwnerID:     uuid.New(),
			CampaignID:  &campaignID,
			Company:     "Acme, Inc.", // comma must survive quoting
			ContactName: "Jo Doe",
			Stage:       domain.StageImplementation,
			ColumnID:    domain.ColumnImplementation,
			Status:      domain.StatusQualified,
			Contract:    &domain.ContractData{FinalValueCents: 150_000_00},
			InternalReview: &domain.InternalReviewData{
				FinalApprovalDate: &approved,
			},
		},
		{
			ID:       uuid.New(),
			OwnerID:  uuid.New(),
			Company:  "Beta LLC",
			Stage:    domain.StageLead,
			ColumnID: domain.ColumnNewLeads,
			Status:   domain.StatusUnaware,
		},
	}

	data, err := buildCSV(leads)
	if err != nil {
		t.Fatalf("buildCSV: %v", err)
	}

	records, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid CSV: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("rows = %d, want header + 2", len(records))
	}
	if records[1][1] != "Acme, Inc." {
		t.Errorf("company = %q, comma not preserved", records[1][1])
	}
	if records[1][9] != "15000000" {
		t.Errorf("contract value = %q, want 15000000", records[1][9])
	}
	if records[1][10] != "2025-05-02" {
		t.Errorf("approval date = %q", records[1][10])
	}
	if records[2][9] != "" || records[2][10] != "" {
		t.Error("lead without contract/approval must leave those cells empty")
	}
}
