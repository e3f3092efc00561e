package enums

import "fmt"

// DocumentType maps to the document_type_enum enum in Postgres.
type DocumentType string

const (
	DocumentTypeIncoming           DocumentType = "incoming"
	DocumentTypeOutgoing           DocumentType = "outgoing"
	DocumentTypeInternal           DocumentType = "internal"
	DocumentTypeRentalOut          DocumentType = "rental_out"
	DocumentTypeRentalReturn       DocumentType = "rental_return"
	DocumentTypeReturnFromCustomer DocumentType = "return_from_customer"
	DocumentTypeReturnToSupplier   DocumentType = "return_to_supplier"
)

var validDocumentTypes = []DocumentType{
	DocumentTypeIncoming,
	DocumentTypeOutgoing,
	DocumentTypeInternal,
	DocumentTypeRentalOut,
	DocumentTypeRentalReturn,
	DocumentTypeReturnFromCustomer,
	DocumentTypeReturnToSupplier,
}

// DocumentTypes returns every valid document type.
func DocumentTypes() []DocumentType {
	out := make([]DocumentType, len(validDocumentTypes))
	copy(out, validDocumentTypes)
	return out
}

// String implements fmt.Stringer.
func (t DocumentType) String() string {
	return string(t)
}

// IsValid reports whether the value is a known DocumentType.
func (t DocumentType) IsValid() bool {
	for _, candidate := range validDocumentTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// RequiresDestinationWarehouse reports whether the type moves stock into a
// second warehouse and therefore needs to_warehouse_id set.
func (t DocumentType) RequiresDestinationWarehouse() bool {
	return t == DocumentTypeInternal
}

// ParseDocumentType converts raw input into a DocumentType.
func ParseDocumentType(value string) (DocumentType, error) {
	for _, candidate := range validDocumentTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid document type %q", value)
}
