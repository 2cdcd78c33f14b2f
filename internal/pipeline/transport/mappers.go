package transport

import "salespipe_backend/internal/pipeline/domain"

// ToLeadResponse converts a domain lead to its API representation.
func ToLeadResponse(lead *domain.Lead) LeadResponse {
	resp := LeadResponse{
		ID:           lead.ID,
		OwnerID:      lead.OwnerID,
		CampaignID:   lead.CampaignID,
		Company:      lead.Company,
		ContactName:  lead.ContactName,
		ContactEmail: lead.ContactEmail,
		ContactPhone: lead.ContactPhone,

		Stage:    string(lead.Stage),
		ColumnID: lead.ColumnID,
		Status:   string(lead.Status),

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

		CreatedAt: lead.CreatedAt,
		UpdatedAt: lead.UpdatedAt,
	}

	if len(lead.StatusHistory) > 0 {
		resp.StatusHistory = make([]StatusUpdateResponse, 0, len(lead.StatusHistory))
		for _, update := range lead.StatusHistory {
			resp.StatusHistory = append(resp.StatusHistory, StatusUpdateResponse{
				Status:    string(update.Status),
				Date:      update.Date,
				Notes:     update.Notes,
				UpdatedBy: update.UpdatedBy,
				Data:      update.Data,
			})
		}
	}
	return resp
}

// ToLeadResponses converts a listing.
func ToLeadResponses(leads []*domain.Lead) []LeadResponse {
	out := make([]LeadResponse, 0, len(leads))
	for _, lead := range leads {
		out = append(out, ToLeadResponse(lead))
	}
	return out
}

// ToColumnResponses converts the static column registry.
func ToColumnResponses(columns []domain.Column) []ColumnResponse {
	out := make([]ColumnResponse, 0, len(columns))
	for _, col := range columns {
		out = append(out, ColumnResponse{ID: col.ID, Title: col.Title, Stage: string(col.Stage)})
	}
	return out
}
