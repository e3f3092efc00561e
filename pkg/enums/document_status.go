package enums

import "fmt"

// DocumentStatus tracks the lifecycle of a transport document.
type DocumentStatus string

const (
	DocumentStatusDraft     DocumentStatus = "draft"
	DocumentStatusIssued    DocumentStatus = "issued"
	DocumentStatusInTransit DocumentStatus = "in_transit"
	DocumentStatusDelivered DocumentStatus = "delivered"
	DocumentStatusCancelled DocumentStatus = "cancelled"
)

var validDocumentStatuses = []DocumentStatus{
	DocumentStatusDraft,
	DocumentStatusIssued,
	DocumentStatusInTransit,
	DocumentStatusDelivered,
	DocumentStatusCancelled,
}

// String implements fmt.Stringer.
func (s DocumentStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known DocumentStatus.
func (s DocumentStatus) IsValid() bool {
	for _, candidate := range validDocumentStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is allowed from the status.
func (s DocumentStatus) IsTerminal() bool {
	return s == DocumentStatusDelivered || s == DocumentStatusCancelled
}

// CanBeConfirmed reports whether Confirm is legal from the status.
func (s DocumentStatus) CanBeConfirmed() bool {
	return s == DocumentStatusDraft
}

// CanBeCancelled reports whether Cancel is legal from the status.
func (s DocumentStatus) CanBeCancelled() bool {
	return s == DocumentStatusIssued || s == DocumentStatusInTransit
}

// CanBeDelivered reports whether Deliver is legal from the status.
func (s DocumentStatus) CanBeDelivered() bool {
	return s == DocumentStatusIssued || s == DocumentStatusInTransit
}

// ParseDocumentStatus converts raw input into a DocumentStatus.
func ParseDocumentStatus(value string) (DocumentStatus, error) {
	for _, candidate := range validDocumentStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid document status %q", value)
}
