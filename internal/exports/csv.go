package exports

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"salespipe_backend/internal/pipeline/domain"
)

const dateLayout = "2006-01-02"

var csvHeader = []string{
	"id", "company", "contact_name", "contact_email", "owner_id", "campaign_id",
	"stage", "column", "status", "contract_value_cents", "final_approval_date",
	"created_at", "updated_at",
}

// buildCSV renders the leads as a CSV document.
func buildCSV(leads []*domain.Lead) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(csvHeader); err != nil {
		return nil, err
	}
	for _, lead := range leads {
		if err := w.Write(leadRow(lead)); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func leadRow(lead *domain.Lead) []string {
	campaignID := ""
	if lead.CampaignID != nil {
		campaignID = lead.CampaignID.String()
	}
	contractValue := ""
	if lead.Contract != nil {
		contractValue = strconv.FormatInt(lead.Contract.FinalValueCents, 10)
	}
	approvalDate := ""
	if lead.InternalReview != nil && lead.InternalReview.FinalApprovalDate != nil {
		approvalDate = lead.InternalReview.FinalApprovalDate.Format(dateLayout)
	}

	return []string{
		lead.ID.String(),
		lead.Company,
		lead.ContactName,
		lead.ContactEmail,
		lead.OwnerID.String(),
		campaignID,
		string(lead.Stage),
		lead.ColumnID,
		string(lead.Status),
		contractValue,
		approvalDate,
		lead.CreatedAt.Format(time.RFC3339),
		lead.UpdatedAt.Format(time.RFC3339),
	}
}

func objectName(now time.Time) string {
	return fmt.Sprintf("leads-%s.csv", now.Format("2006-01-02T15-04-05Z0700"))
}
