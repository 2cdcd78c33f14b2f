// Package domain provides core business rules for the sales pipeline:
// the stage registry, the lead lifecycle state machine, and the
// dual-review approval aggregator. It has no I/O and no framework
// dependencies beyond the shared error types.
package domain

// Stage is the coarse commercial phase a lead sits in.
type Stage string

const (
	StageLead           Stage = "Lead"
	StageOpportunity    Stage = "Opportunity"
	StageProposal       Stage = "Proposal"
	StageClientDelivery Stage = "Client-Delivery"
	StageImplementation Stage = "Implementation"
	StagePostSales      Stage = "Post-Sales"
)

// Column identifiers for the pipeline board. The registry below is the only
// authority on which ids exist; a lead carrying any other columnId is a
// configuration bug, not user error.
const (
	ColumnNewLeads       = "col-1"
	ColumnProspects      = "col-prospect"
	ColumnQualified      = "col-qualified"
	ColumnProposal       = "col-proposal"
	ColumnDelivery       = "col-delivery"
	ColumnContract       = "col-contract"
	ColumnImplementation = "col-implementation"
	ColumnGoLive         = "col-golive"
	ColumnBilling        = "col-billing"
	ColumnFuture         = "col-future"
	ColumnDisqualified   = "col-disqualified"
)

// Column is one board column: a fine-grained position within a stage.
type Column struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Stage Stage  `json:"stage"`
}

// registry is the static ordered column list. Loaded once, immutable.
var registry = []Column{
	{ID: ColumnNewLeads, Title: "New Leads", Stage: StageLead},
	{ID: ColumnProspects, Title: "Prospects", Stage: StageLead},
	{ID: ColumnQualified, Title: "Qualified Opportunities", Stage: StageOpportunity},
	{ID: ColumnProposal, Title: "Proposal & Internal Review", Stage: StageProposal},
	{ID: ColumnDelivery, Title: "Client Delivery", Stage: StageClientDelivery},
	{ID: ColumnContract, Title: "Contract", Stage: StageClientDelivery},
	{ID: ColumnImplementation, Title: "Implementation", Stage: StageImplementation},
	{ID: ColumnGoLive, Title: "Go-Live & Support", Stage: StagePostSales},
	{ID: ColumnBilling, Title: "Billing & Handoff", Stage: StagePostSales},
	{ID: ColumnFuture, Title: "Future Opportunities", Stage: StageOpportunity},
	{ID: ColumnDisqualified, Title: "Disqualified", Stage: StageOpportunity},
}

var columnIndex = buildColumnIndex()

func buildColumnIndex() map[string]Column {
	idx := make(map[string]Column, len(registry))
	for _, col := range registry {
		idx[col.ID] = col
	}
	return idx
}

// Columns returns the ordered column list. The result is a copy; callers
// cannot mutate the registry.
func Columns() []Column {
	out := make([]Column, len(registry))
	copy(out, registry)
	return out
}

// ColumnByID looks up a column by id.
func ColumnByID(id string) (Column, bool) {
	col, ok := columnIndex[id]
	return col, ok
}

// IsKnownColumn reports whether id exists in the registry.
func IsKnownColumn(id string) bool {
	_, ok := columnIndex[id]
	return ok
}
