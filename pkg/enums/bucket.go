package enums

import "fmt"

// Bucket names one of the quantity categories tracked per (product, warehouse).
type Bucket string

const (
	BucketAvailable  Bucket = "available"
	BucketReserved   Bucket = "reserved"
	BucketInTransit  Bucket = "in_transit"
	BucketQuarantine Bucket = "quarantine"
)

var validBuckets = []Bucket{
	BucketAvailable,
	BucketReserved,
	BucketInTransit,
	BucketQuarantine,
}

// IsValid reports whether the value is a known Bucket.
func (b Bucket) IsValid() bool {
	for _, candidate := range validBuckets {
		if candidate == b {
			return true
		}
	}
	return false
}

// ParseBucket converts raw input into a Bucket.
func ParseBucket(value string) (Bucket, error) {
	for _, candidate := range validBuckets {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid inventory bucket %q", value)
}
