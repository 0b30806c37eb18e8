package enums

import "fmt"

// DistributorBucket identifies the dormitory block that holds stock for an order.
type DistributorBucket string

const (
	DistributorBucket104 DistributorBucket = "104"
	DistributorBucket407 DistributorBucket = "407"
	DistributorBucket607 DistributorBucket = "607"
)

// DistributorBuckets lists every bucket in display order.
var DistributorBuckets = []DistributorBucket{
	DistributorBucket104,
	DistributorBucket407,
	DistributorBucket607,
}

// String implements fmt.Stringer.
func (b DistributorBucket) String() string {
	return string(b)
}

// IsValid reports whether the value is one of the three known buckets.
func (b DistributorBucket) IsValid() bool {
	for _, candidate := range DistributorBuckets {
		if candidate == b {
			return true
		}
	}
	return false
}

// ParseDistributorBucket converts raw input into a DistributorBucket.
func ParseDistributorBucket(value string) (DistributorBucket, error) {
	for _, candidate := range DistributorBuckets {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid distributor bucket %q", value)
}
