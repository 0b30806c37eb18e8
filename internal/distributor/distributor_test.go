package distributor

import (
	"testing"

	"github.com/hostelmart/hostelmart-backend/pkg/enums"
)

func TestResolveBucketBoundaries(t *testing.T) {
	tests := []struct {
		room string
		want enums.DistributorBucket
	}{
		{"0", enums.DistributorBucket104},
		{"104", enums.DistributorBucket104},
		{"299", enums.DistributorBucket104},
		{"300", enums.DistributorBucket407},
		{"599", enums.DistributorBucket407},
		{"600", enums.DistributorBucket607},
		{"-5", enums.DistributorBucket607},
		{"NaN", enums.DistributorBucket607},
		{"", enums.DistributorBucket607},
		{"B-12", enums.DistributorBucket607},
		{" 250 ", enums.DistributorBucket104},
		{"299.5", enums.DistributorBucket607},
		{"Inf", enums.DistributorBucket607},
	}
	for _, tt := range tests {
		if got := ResolveBucket(tt.room); got != tt.want {
			t.Fatalf("ResolveBucket(%q) = %s, want %s", tt.room, got, tt.want)
		}
	}
}

func TestNormalizeAlwaysReturnsThreeFullBuckets(t *testing.T) {
	raw := map[string]map[string]int{
		"104":   {"Maggi": 5, "Unknown": 9},
		"bogus": {"Maggi": 100},
	}
	got := Normalize(raw, []string{"Maggi", "Kurkure"})

	if len(got) != 3 {
		t.Fatalf("expected three buckets, got %d", len(got))
	}
	if got[enums.DistributorBucket104]["Maggi"] != 5 {
		t.Fatalf("expected Maggi 5 in 104, got %v", got[enums.DistributorBucket104])
	}
	if _, ok := got[enums.DistributorBucket104]["Unknown"]; ok {
		t.Fatal("unknown product should be dropped")
	}
	for _, bucket := range enums.DistributorBuckets {
		if len(got[bucket]) != 2 {
			t.Fatalf("bucket %s should carry every product: %v", bucket, got[bucket])
		}
	}
	if got[enums.DistributorBucket607]["Kurkure"] != 0 {
		t.Fatal("missing entries default to zero")
	}
}

func TestNormalizeNilInput(t *testing.T) {
	got := Normalize(nil, []string{"Maggi"})
	if len(got) != 3 || got[enums.DistributorBucket407]["Maggi"] != 0 {
		t.Fatalf("nil input should degrade to defaults: %v", got)
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	products := []string{"Maggi"}
	first := Normalize(map[string]map[string]int{"407": {"Maggi": 3}}, products)
	second := Normalize(first.Raw(), products)
	if second[enums.DistributorBucket407]["Maggi"] != 3 {
		t.Fatalf("normalize should be idempotent: %v", second)
	}
}

func TestAdjustCreatesEntry(t *testing.T) {
	s := Stock{}
	s.Adjust(enums.DistributorBucket607, "Lays", -2)
	s.Adjust(enums.DistributorBucket607, "Lays", 2)
	if qty, ok := s[enums.DistributorBucket607]["Lays"]; !ok || qty != 0 {
		t.Fatalf("expected Lays entry at 0, got %v", s)
	}
}

func TestParseRawIsLenient(t *testing.T) {
	raw := ParseRaw([]byte(`{"104":{"Maggi":3,"Kurkure":"2","Ariel":"x","Bhujia":1.5},"999":{"Maggi":7}}`))
	got := Normalize(raw, []string{"Maggi", "Kurkure", "Ariel", "Bhujia"})
	if got[enums.DistributorBucket104]["Maggi"] != 3 || got[enums.DistributorBucket104]["Kurkure"] != 2 {
		t.Fatalf("numeric values should survive: %v", got)
	}
	if got[enums.DistributorBucket104]["Ariel"] != 0 || got[enums.DistributorBucket104]["Bhujia"] != 0 {
		t.Fatalf("non-numeric values should default: %v", got)
	}
	if _, ok := got["999"]; ok {
		t.Fatal("unknown bucket should be dropped")
	}
}

func TestParseRawMalformed(t *testing.T) {
	if raw := ParseRaw([]byte(`[1,2,3]`)); raw != nil {
		t.Fatalf("expected nil for malformed document, got %v", raw)
	}
	got := Normalize(ParseRaw([]byte(`not json`)), []string{"Maggi"})
	if len(got) != 3 {
		t.Fatalf("malformed input should degrade to defaults: %v", got)
	}
}
