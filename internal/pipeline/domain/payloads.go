package domain

import "time"

// Stage payloads. Each one is created on first entry into its stage and may
// be amended in place afterwards. Monetary values are stored in cents.

// ProspectData captures the qualification details recorded when a lead is
// marked as a prospect.
type ProspectData struct {
	ResponseDate       time.Time  `json:"responseDate"`
	EngagementType     string     `json:"engagementType"`
	ContactQuality     string     `json:"contactQuality"`
	QualificationNotes string     `json:"qualificationNotes,omitempty"`
	DemoScheduled      bool       `json:"demoScheduled"`
	DemoDate           *time.Time `json:"demoDate,omitempty"`
	PainPoints         []string   `json:"painPoints,omitempty"`
	NextSteps          string     `json:"nextSteps,omitempty"`
}

// ProposalData describes the commercial proposal. Revision starts at 1 and
// is bumped by subsequent proposal amendments.
type ProposalData struct {
	Template         string   `json:"template"`
	Services         []string `json:"services"`
	PricingStructure string   `json:"pricingStructure"`
	DurationMonths   int      `json:"durationMonths"`
	Resources        string   `json:"resources,omitempty"`
	TermsVersion     string   `json:"termsVersion"`
	Revision         int      `json:"revision"`
}

// ClientDeliveryData records the client presentation outcome required to
// advance to Contract.
type ClientDeliveryData struct {
	PresentationDetails string `json:"presentationDetails"`
	ClientFeedback      string `json:"clientFeedback,omitempty"`
	RevisionRequested   bool   `json:"revisionRequested"`
	Timeline            string `json:"timeline"`
}

// ContractData records the signed contract details required to advance to
// Implementation.
type ContractData struct {
	Template            string `json:"template"`
	LegalReviewComplete bool   `json:"legalReviewComplete"`
	FinalValueCents     int64  `json:"finalValueCents"`
	Terms               string `json:"terms"`
	SuccessCriteria     string `json:"successCriteria"`
	ClientReviewStatus  string `json:"clientReviewStatus"`
}

// ChangeOrderData is one change order raised during Implementation. Change
// orders accumulate; they never replace each other.
type ChangeOrderData struct {
	Type               string     `json:"type"`
	RequestedBy        string     `json:"requestedBy"`
	Description        string     `json:"description"`
	ImpactAnalysis     string     `json:"impactAnalysis,omitempty"`
	ValueDeltaCents    int64      `json:"valueDeltaCents"`
	ImplementationDate *time.Time `json:"implementationDate,omitempty"`
	UpdatedBudgetCents int64      `json:"updatedBudgetCents,omitempty"`
	UpdatedTimeline    string     `json:"updatedTimeline,omitempty"`
	DocumentationLink  string     `json:"documentationLink,omitempty"`
	CreatedAt          time.Time  `json:"createdAt"`
}

// GoLiveAndSupportData captures the deployment and adoption outcome.
type GoLiveAndSupportData struct {
	DeploymentStatus   string   `json:"deploymentStatus"`
	TrainingScore      int      `json:"trainingScore"`
	AdoptionScore      int      `json:"adoptionScore"`
	SatisfactionScore  int      `json:"satisfactionScore"`
	KnownIssues        []string `json:"knownIssues,omitempty"`
	SuccessCriteriaMet bool     `json:"successCriteriaMet"`
}

// BillingAndHandoffData captures the billing start and account handoff.
type BillingAndHandoffData struct {
	BillingStart    *time.Time `json:"billingStart,omitempty"`
	InvoiceSchedule string     `json:"invoiceSchedule"`
	AccountManager  string     `json:"accountManager"`
	HandoffNotes    string     `json:"handoffNotes,omitempty"`
}

// FutureOpportunityData parks a qualified lead for a later follow-up.
type FutureOpportunityData struct {
	ReminderDate time.Time `json:"reminderDate"`
	Reason       string    `json:"reason"`
	Notes        string    `json:"notes,omitempty"`
}

// DisqualifyReason enumerates why a qualified lead was disqualified.
type DisqualifyReason string

const (
	DisqualifyNoBudget        DisqualifyReason = "No budget"
	DisqualifyNoNeed          DisqualifyReason = "No need"
	DisqualifyChoseCompetitor DisqualifyReason = "Chose competitor"
	DisqualifyUnresponsive    DisqualifyReason = "Unresponsive"
	DisqualifyBadTiming       DisqualifyReason = "Bad timing"
	DisqualifyOther           DisqualifyReason = "Other"
)

var knownDisqualifyReasons = map[DisqualifyReason]struct{}{
	DisqualifyNoBudget:        {},
	DisqualifyNoNeed:          {},
	DisqualifyChoseCompetitor: {},
	DisqualifyUnresponsive:    {},
	DisqualifyBadTiming:       {},
	DisqualifyOther:           {},
}

// IsKnownDisqualifyReason reports whether r is a defined reason.
func IsKnownDisqualifyReason(r DisqualifyReason) bool {
	_, ok := knownDisqualifyReasons[r]
	return ok
}

// DisqualifiedData records the terminal disqualification outcome.
type DisqualifiedData struct {
	Reason     DisqualifyReason `json:"reason"`
	Competitor string           `json:"competitor,omitempty"`
	Notes      string           `json:"notes,omitempty"`
}
