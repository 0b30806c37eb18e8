package distributor

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/hostelmart/hostelmart-backend/pkg/enums"
)

// Stock mirrors, per bucket, the quantity owed by that dormitory block.
type Stock map[enums.DistributorBucket]map[string]int

// ResolveBucket maps a room number to the block that serves it:
// 0-299 → 104, 300-599 → 407, everything else → 607.
func ResolveBucket(room string) enums.DistributorBucket {
	n, err := strconv.ParseFloat(strings.TrimSpace(room), 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return enums.DistributorBucket607
	}
	switch {
	case n >= 0 && n <= 299:
		return enums.DistributorBucket104
	case n >= 300 && n <= 599:
		return enums.DistributorBucket407
	default:
		return enums.DistributorBucket607
	}
}

// Normalize returns exactly the three buckets, each covering every product.
// Unknown buckets and products are dropped and missing entries default to 0.
func Normalize(raw map[string]map[string]int, products []string) Stock {
	out := make(Stock, len(enums.DistributorBuckets))
	for _, bucket := range enums.DistributorBuckets {
		entry := make(map[string]int, len(products))
		source := raw[string(bucket)]
		for _, name := range products {
			entry[name] = source[name]
		}
		out[bucket] = entry
	}
	return out
}

// Adjust applies delta to a bucket's product, creating the entry at 0 first.
func (s Stock) Adjust(bucket enums.DistributorBucket, name string, delta int) {
	entry, ok := s[bucket]
	if !ok {
		entry = map[string]int{}
		s[bucket] = entry
	}
	if _, ok := entry[name]; !ok {
		entry[name] = 0
	}
	entry[name] += delta
}

// Raw copies the stock into a plain string-keyed map for JSON responses.
func (s Stock) Raw() map[string]map[string]int {
	out := make(map[string]map[string]int, len(s))
	for bucket, entry := range s {
		copied := make(map[string]int, len(entry))
		for name, qty := range entry {
			copied[name] = qty
		}
		out[string(bucket)] = copied
	}
	return out
}

// ParseRaw leniently decodes a bucket document. Malformed input yields nil
// and non-numeric quantities are skipped, so Normalize fills defaults.
func ParseRaw(data []byte) map[string]map[string]int {
	var loose map[string]map[string]any
	if err := json.Unmarshal(data, &loose); err != nil {
		return nil
	}
	out := make(map[string]map[string]int, len(loose))
	for bucket, entry := range loose {
		parsed := make(map[string]int, len(entry))
		for name, value := range entry {
			if qty, ok := wholeNumber(value); ok {
				parsed[name] = qty
			}
		}
		out[bucket] = parsed
	}
	return out
}

func wholeNumber(value any) (int, bool) {
	var f float64
	switch v := value.(type) {
	case float64:
		f = v
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	return int(f), true
}
