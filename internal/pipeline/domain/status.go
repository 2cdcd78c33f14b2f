package domain

import "fmt"

// Status is the qualification status of a lead.
type Status string

const (
	StatusUnaware           Status = "Unaware"
	StatusEngaged           Status = "Engaged"
	StatusProspect          Status = "Prospect"
	StatusQualified         Status = "Qualified"
	StatusFutureOpportunity Status = "Future Opportunity"
	StatusDisqualified      Status = "Disqualified"
)

var knownStatuses = map[Status]struct{}{
	StatusUnaware:           {},
	StatusEngaged:           {},
	StatusProspect:          {},
	StatusQualified:         {},
	StatusFutureOpportunity: {},
	StatusDisqualified:      {},
}

// IsKnownStatus reports whether s is a defined qualification status.
func IsKnownStatus(s Status) bool {
	_, ok := knownStatuses[s]
	return ok
}

// statusColumns maps each status to the set of columns it may legally
// occupy. Qualified spans the whole active pipeline past the Prospect
// column; the two absorbing side branches are pinned to their own columns.
var statusColumns = map[Status]map[string]struct{}{
	StatusUnaware:  {ColumnNewLeads: {}},
	StatusEngaged:  {ColumnNewLeads: {}},
	StatusProspect: {ColumnProspects: {}},
	StatusQualified: {
		ColumnQualified:      {},
		ColumnProposal:       {},
		ColumnDelivery:       {},
		ColumnContract:       {},
		ColumnImplementation: {},
		ColumnGoLive:         {},
		ColumnBilling:        {},
	},
	StatusFutureOpportunity: {ColumnFuture: {}},
	StatusDisqualified:      {ColumnDisqualified: {}},
}

// ValidateStateCombination checks that (status, stage, columnId) is a legal
// at-rest state. Returns a descriptive error when the combination is
// contradictory or references an unknown column.
func ValidateStateCombination(status Status, stage Stage, columnID string) error {
	col, ok := ColumnByID(columnID)
	if !ok {
		return fmt.Errorf("unknown column %q", columnID)
	}
	if !IsKnownStatus(status) {
		return fmt.Errorf("unknown status %q", status)
	}
	if col.Stage != stage {
		return fmt.Errorf("stage %q does not match column %q (stage %q)", stage, columnID, col.Stage)
	}
	allowed, ok := statusColumns[status]
	if !ok {
		return fmt.Errorf("status %q has no column mapping", status)
	}
	if _, ok := allowed[columnID]; !ok {
		return fmt.Errorf("status %q cannot occupy column %q", status, columnID)
	}
	return nil
}

// IsTerminalStatus reports whether the status is an absorbing side branch.
// Terminal leads stay on the board but accept no further pipeline
// transitions.
func IsTerminalStatus(status Status) bool {
	return status == StatusFutureOpportunity || status == StatusDisqualified
}
