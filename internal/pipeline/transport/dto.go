package transport

import (
	"time"

	"salespipe_backend/internal/pipeline/domain"

	"github.com/google/uuid"
)

// Request DTOs

type CreateLeadRequest struct {
	Company      string     `json:"company" validate:"required,min=1,max=200"`
	ContactName  string     `json:"contactName" validate:"required,min=1,max=100"`
	ContactEmail string     `json:"contactEmail,omitempty" validate:"omitempty,email"`
	ContactPhone string     `json:"contactPhone,omitempty" validate:"omitempty,min=5,max=20"`
	CampaignID   *uuid.UUID `json:"campaignId,omitempty"`
	// Status optionally sets the entry status for leads that already had
	// contact before intake. Defaults to Unaware.
	Status string `json:"status,omitempty" validate:"omitempty,oneof=Unaware Engaged"`
	// OwnerID may only be set by admins; sales reps always own their own
	// leads.
	OwnerID *uuid.UUID `json:"ownerId,omitempty"`
}

type UpdateLeadRequest struct {
	Company      *string    `json:"company,omitempty" validate:"omitempty,min=1,max=200"`
	ContactName  *string    `json:"contactName,omitempty" validate:"omitempty,min=1,max=100"`
	ContactEmail *string    `json:"contactEmail,omitempty" validate:"omitempty,email"`
	ContactPhone *string    `json:"contactPhone,omitempty" validate:"omitempty,min=5,max=20"`
	CampaignID   *uuid.UUID `json:"campaignId,omitempty"`
}

type ListLeadsRequest struct {
	ColumnID string `form:"columnId" validate:"omitempty,max=40"`
	Status   string `form:"status" validate:"omitempty,oneof=Unaware Engaged Prospect Qualified 'Future Opportunity' Disqualified"`
	Search   string `form:"search" validate:"max=100"`
	Page     int    `form:"page" validate:"omitempty,min=1"`
	PageSize int    `form:"pageSize" validate:"omitempty,min=1,max=100"`
}

// Transition request DTOs. Each one maps to exactly one lifecycle operation;
// the handler converts it into the corresponding typed transition.

type ChangeStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=Unaware Engaged"`
	Notes  string `json:"notes" validate:"required,min=1,max=2000"`
}

type MarkProspectRequest struct {
	ResponseDate       time.Time  `json:"responseDate" validate:"required"`
	EngagementType     string     `json:"engagementType" validate:"required,min=1,max=100"`
	ContactQuality     string     `json:"contactQuality" validate:"required,min=1,max=100"`
	QualificationNotes string     `json:"qualificationNotes,omitempty" validate:"max=2000"`
	DemoScheduled      bool       `json:"demoScheduled"`
	DemoDate           *time.Time `json:"demoDate,omitempty"`
	PainPoints         []string   `json:"painPoints,omitempty" validate:"max=20,dive,max=200"`
	NextSteps          string     `json:"nextSteps,omitempty" validate:"max=2000"`
}

type MoveToFutureOpportunityRequest struct {
	ReminderDate time.Time `json:"reminderDate" validate:"required"`
	Reason       string    `json:"reason" validate:"required,min=1,max=500"`
	Notes        string    `json:"notes,omitempty" validate:"max=2000"`
}

type DisqualifyRequest struct {
	Reason     string `json:"reason" validate:"required,oneof='No budget' 'No need' 'Chose competitor' Unresponsive 'Bad timing' Other"`
	Competitor string `json:"competitor,omitempty" validate:"max=200"`
	Notes      string `json:"notes,omitempty" validate:"max=2000"`
}

type AddProposalRequest struct {
	Template         string   `json:"template" validate:"required,min=1,max=100"`
	Services         []string `json:"services" validate:"required,min=1,max=50,dive,min=1,max=200"`
	PricingStructure string   `json:"pricingStructure" validate:"required,min=1,max=100"`
	DurationMonths   int      `json:"durationMonths" validate:"required,min=1,max=120"`
	Resources        string   `json:"resources,omitempty" validate:"max=2000"`
	TermsVersion     string   `json:"termsVersion" validate:"required,min=1,max=50"`
}

type ReviewTrackRequest struct {
	Status   *string `json:"status,omitempty" validate:"omitempty,oneof=Pending Approved 'Needs Changes'"`
	Reviewer *string `json:"reviewer,omitempty" validate:"omitempty,max=100"`
	Notes    *string `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

type UpdateReviewRequest struct {
	CST *ReviewTrackRequest `json:"cst,omitempty"`
	CRO *ReviewTrackRequest `json:"cro,omitempty"`
}

type MoveToContractRequest struct {
	PresentationDetails string `json:"presentationDetails" validate:"required,min=1,max=2000"`
	ClientFeedback      string `json:"clientFeedback,omitempty" validate:"max=2000"`
	RevisionRequested   bool   `json:"revisionRequested"`
	Timeline            string `json:"timeline" validate:"required,min=1,max=500"`
}

type MoveToImplementationRequest struct {
	Template            string `json:"template" validate:"required,min=1,max=100"`
	LegalReviewComplete bool   `json:"legalReviewComplete"`
	FinalValueCents     int64  `json:"finalValueCents" validate:"required,min=1"`
	Terms               string `json:"terms" validate:"required,min=1,max=2000"`
	SuccessCriteria     string `json:"successCriteria" validate:"required,min=1,max=2000"`
	ClientReviewStatus  string `json:"clientReviewStatus,omitempty" validate:"max=100"`
}

type AddChangeOrderRequest struct {
	Type               string     `json:"type" validate:"required,min=1,max=100"`
	RequestedBy        string     `json:"requestedBy" validate:"required,min=1,max=100"`
	Description        string     `json:"description" validate:"required,min=1,max=2000"`
	ImpactAnalysis     string     `json:"impactAnalysis,omitempty" validate:"max=2000"`
	ValueDeltaCents    int64      `json:"valueDeltaCents"`
	ImplementationDate *time.Time `json:"implementationDate,omitempty"`
	UpdatedBudgetCents int64      `json:"updatedBudgetCents,omitempty"`
	UpdatedTimeline    string     `json:"updatedTimeline,omitempty" validate:"max=500"`
	DocumentationLink  string     `json:"documentationLink,omitempty" validate:"omitempty,url,max=500"`
}

type MoveToGoLiveRequest struct {
	DeploymentStatus   string   `json:"deploymentStatus" validate:"required,min=1,max=100"`
	TrainingScore      int      `json:"trainingScore" validate:"min=0,max=10"`
	AdoptionScore      int      `json:"adoptionScore" validate:"min=0,max=10"`
	SatisfactionScore  int      `json:"satisfactionScore" validate:"min=0,max=10"`
	KnownIssues        []string `json:"knownIssues,omitempty" validate:"max=50,dive,max=500"`
	SuccessCriteriaMet bool     `json:"successCriteriaMet"`
}

type MoveToBillingRequest struct {
	BillingStart    *time.Time `json:"billingStart,omitempty"`
	InvoiceSchedule string     `json:"invoiceSchedule" validate:"required,min=1,max=100"`
	AccountManager  string     `json:"accountManager" validate:"required,min=1,max=100"`
	HandoffNotes    string     `json:"handoffNotes,omitempty" validate:"max=2000"`
}

// Response DTOs

type StatusUpdateResponse struct {
	Status    string      `json:"status"`
	Date      time.Time   `json:"date"`
	Notes     string      `json:"notes,omitempty"`
	UpdatedBy uuid.UUID   `json:"updatedBy"`
	Data      interface{} `json:"data,omitempty"`
}

type LeadResponse struct {
	ID           uuid.UUID  `json:"id"`
	OwnerID      uuid.UUID  `json:"ownerId"`
	CampaignID   *uuid.UUID `json:"campaignId,omitempty"`
	Company      string     `json:"company"`
	ContactName  string     `json:"contactName"`
	ContactEmail string     `json:"contactEmail,omitempty"`
	ContactPhone string     `json:"contactPhone,omitempty"`

	Stage         string                 `json:"stage"`
	ColumnID      string                 `json:"columnId"`
	Status        string                 `json:"status"`
	StatusHistory []StatusUpdateResponse `json:"statusHistory,omitempty"`

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

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type ListLeadsResponse struct {
	Items    []LeadResponse `json:"items"`
	Total    int            `json:"total"`
	Page     int            `json:"page"`
	PageSize int            `json:"pageSize"`
}

type BoardColumnResponse struct {
	ID    string         `json:"id"`
	Title string         `json:"title"`
	Stage string         `json:"stage"`
	Leads []LeadResponse `json:"leads"`
}

type BoardResponse struct {
	Columns []BoardColumnResponse `json:"columns"`
}

type ColumnResponse struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Stage string `json:"stage"`
}
