package enums

import "fmt"

// SiteMaterialStatus is derived from delivered/returned/planned quantities.
type SiteMaterialStatus string

const (
	SiteMaterialStatusPlanned   SiteMaterialStatus = "planned"
	SiteMaterialStatusPartial   SiteMaterialStatus = "partial"
	SiteMaterialStatusCompleted SiteMaterialStatus = "completed"
)

var validSiteMaterialStatuses = []SiteMaterialStatus{
	SiteMaterialStatusPlanned,
	SiteMaterialStatusPartial,
	SiteMaterialStatusCompleted,
}

// IsValid reports whether the value is a known SiteMaterialStatus.
func (s SiteMaterialStatus) IsValid() bool {
	for _, candidate := range validSiteMaterialStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseSiteMaterialStatus converts raw input into a SiteMaterialStatus.
func ParseSiteMaterialStatus(value string) (SiteMaterialStatus, error) {
	for _, candidate := range validSiteMaterialStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid site material status %q", value)
}
