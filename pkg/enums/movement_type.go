package enums

import "fmt"

// MovementType maps to the stock_movement_type_enum enum in Postgres.
type MovementType string

const (
	MovementTypeIntake         MovementType = "intake"
	MovementTypeOutput         MovementType = "output"
	MovementTypeTransfer       MovementType = "transfer"
	MovementTypeAdjustment     MovementType = "adjustment"
	MovementTypeReturn         MovementType = "return"
	MovementTypeWaste          MovementType = "waste"
	MovementTypeRentalOut      MovementType = "rental_out"
	MovementTypeRentalReturn   MovementType = "rental_return"
	MovementTypeSiteAllocation MovementType = "site_allocation"
	MovementTypeSiteReturn     MovementType = "site_return"
)

var validMovementTypes = []MovementType{
	MovementTypeIntake,
	MovementTypeOutput,
	MovementTypeTransfer,
	MovementTypeAdjustment,
	MovementTypeReturn,
	MovementTypeWaste,
	MovementTypeRentalOut,
	MovementTypeRentalReturn,
	MovementTypeSiteAllocation,
	MovementTypeSiteReturn,
}

// String implements fmt.Stringer.
func (m MovementType) String() string {
	return string(m)
}

// IsValid reports whether the value is a known MovementType.
func (m MovementType) IsValid() bool {
	for _, candidate := range validMovementTypes {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParseMovementType converts raw input into a MovementType.
func ParseMovementType(value string) (MovementType, error) {
	for _, candidate := range validMovementTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid movement type %q", value)
}
