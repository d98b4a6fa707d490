package series

import (
	"testing"
	"time"
)

func TestNormalizeEntity(t *testing.T) {
	cases := []struct {
		in   string
		want Entity
	}{
		{"Plant A", "PLANT_A"},
		{"  plant   a  ", "PLANT_A"},
		{"St. Anthony's - Unit 2", "ST_ANTHONY_S_UNIT_2"},
		{"UHE-Três.Marias", "UHE_TR_S_MARIAS"},
		{"abc123", "ABC123"},
		{"---", ""},
	}
	for _, tc := range cases {
		if got := NormalizeEntity(tc.in); got != tc.want {
			t.Errorf("NormalizeEntity(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeEntityIdempotentAcrossSpellings(t *testing.T) {
	a := NormalizeEntity("Plant A")
	b := NormalizeEntity("PLANT  a")
	if a != b {
		t.Fatalf("spellings normalized differently: %q vs %q", a, b)
	}
}

func TestEntitySlug(t *testing.T) {
	if got := NormalizeEntity("Plant A").Slug(); got != "plant_a" {
		t.Fatalf("Slug() = %q, want plant_a", got)
	}
}

func TestDayBucketingAndNext(t *testing.T) {
	loc, err := time.LoadLocation("America/Sao_Paulo")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	// 01:30 UTC on Jan 16 is still Jan 15 in Sao Paulo.
	ts := time.Date(2026, 1, 16, 1, 30, 0, 0, time.UTC)
	if got := NewDay(ts.In(loc)); got != "2026-01-15" {
		t.Fatalf("NewDay across midnight = %q, want 2026-01-15", got)
	}

	next, err := Day("2026-01-31").Next()
	if err != nil {
		t.Fatalf("next day: %v", err)
	}
	if next != "2026-02-01" {
		t.Fatalf("Next() = %q, want 2026-02-01", next)
	}

	midnight, err := Day("2026-01-15").Time(loc)
	if err != nil {
		t.Fatalf("day time: %v", err)
	}
	if midnight.Hour() != 0 || midnight.Location() != loc {
		t.Fatalf("Time() = %v, want local midnight", midnight)
	}
}

func TestDayTimeInvalid(t *testing.T) {
	if _, err := Day("not-a-date").Time(time.UTC); err == nil {
		t.Fatalf("expected parse error for malformed day")
	}
}
