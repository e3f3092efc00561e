package enums

import "fmt"

// ReturnReason qualifies why goods came back on a return document.
type ReturnReason string

const (
	ReturnReasonDefective               ReturnReason = "defective"
	ReturnReasonWrongItem               ReturnReason = "wrong_item"
	ReturnReasonExcess                  ReturnReason = "excess"
	ReturnReasonWarranty                ReturnReason = "warranty"
	ReturnReasonCustomerDissatisfaction ReturnReason = "customer_dissatisfaction"
	ReturnReasonOther                   ReturnReason = "other"
)

var validReturnReasons = []ReturnReason{
	ReturnReasonDefective,
	ReturnReasonWrongItem,
	ReturnReasonExcess,
	ReturnReasonWarranty,
	ReturnReasonCustomerDissatisfaction,
	ReturnReasonOther,
}

// IsValid reports whether the value is a known ReturnReason.
func (r ReturnReason) IsValid() bool {
	for _, candidate := range validReturnReasons {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseReturnReason converts raw input into a ReturnReason.
func ParseReturnReason(value string) (ReturnReason, error) {
	for _, candidate := range validReturnReasons {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid return reason %q", value)
}
