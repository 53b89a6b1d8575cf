package types

import (
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Date
		wantErr bool
	}{
		{"plain", "2025-03-15", Date{2025, time.March, 15}, false},
		{"iso datetime", "2025-03-15T09:30:00Z", Date{2025, time.March, 15}, false},
		{"space datetime", "2025-03-15 09:30:00", Date{2025, time.March, 15}, false},
		{"day 31 accepted without month-length check", "2025-02-31", Date{2025, time.February, 31}, false},
		{"empty", "", Date{}, true},
		{"garbage", "soon", Date{}, true},
		{"two parts", "2025-03", Date{}, true},
		{"month zero", "2025-00-15", Date{}, true},
		{"month 13", "2025-13-15", Date{}, true},
		{"day zero", "2025-03-00", Date{}, true},
		{"day 32", "2025-03-32", Date{}, true},
		{"non-numeric day", "2025-03-xx", Date{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDate(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDaysIn(t *testing.T) {
	tests := []struct {
		year  int
		month time.Month
		want  int
	}{
		{2025, time.January, 31},
		{2025, time.February, 28},
		{2024, time.February, 29},
		{2000, time.February, 29},
		{1900, time.February, 28},
		{2025, time.April, 30},
		{2025, time.December, 31},
	}

	for _, tt := range tests {
		if got := DaysIn(tt.year, tt.month); got != tt.want {
			t.Errorf("DaysIn(%d, %s): got %d, want %d", tt.year, tt.month, got, tt.want)
		}
	}
}

func TestClampToMonth(t *testing.T) {
	tests := []struct {
		year  int
		month time.Month
		day   int
		want  string
	}{
		{2025, time.April, 31, "2025-04-30"},
		{2025, time.February, 31, "2025-02-28"},
		{2024, time.February, 31, "2024-02-29"},
		{2025, time.March, 31, "2025-03-31"},
		{2025, time.June, 15, "2025-06-15"},
	}

	for _, tt := range tests {
		if got := ClampToMonth(tt.year, tt.month, tt.day).String(); got != tt.want {
			t.Errorf("ClampToMonth(%d, %s, %d): got %s, want %s",
				tt.year, tt.month, tt.day, got, tt.want)
		}
	}
}

func TestDateOrdering(t *testing.T) {
	a := MustParseDate("2025-03-15")
	b := MustParseDate("2025-03-16")
	c := MustParseDate("2025-04-01")
	d := MustParseDate("2026-01-01")

	if !a.Before(b) || !b.Before(c) || !c.Before(d) {
		t.Error("Before ordering broken")
	}
	if !d.After(a) {
		t.Error("After ordering broken")
	}
	if a.Compare(b) != -1 || b.Compare(a) != 1 || a.Compare(a) != 0 {
		t.Error("Compare ordering broken")
	}
	if !a.Equal(MustParseDate("2025-03-15")) {
		t.Error("Equal broken")
	}
}

func TestDateAddDays(t *testing.T) {
	tests := []struct {
		start string
		n     int
		want  string
	}{
		{"2025-03-15", 7, "2025-03-22"},
		{"2025-03-28", 7, "2025-04-04"},
		{"2025-12-30", 5, "2026-01-04"},
		{"2025-03-01", -1, "2025-02-28"},
		{"2024-03-01", -1, "2024-02-29"},
	}

	for _, tt := range tests {
		if got := MustParseDate(tt.start).AddDays(tt.n).String(); got != tt.want {
			t.Errorf("%s + %d days: got %s, want %s", tt.start, tt.n, got, tt.want)
		}
	}
}

func TestDateTextRoundTrip(t *testing.T) {
	d := MustParseDate("2025-03-15")
	b, err := d.MarshalText()
	if err != nil {
		t.Fatal(err)
	}
	var back Date
	if err := back.UnmarshalText(b); err != nil {
		t.Fatal(err)
	}
	if !back.Equal(d) {
		t.Errorf("round trip: got %v, want %v", back, d)
	}

	var zero Date
	b, err = zero.MarshalText()
	if err != nil {
		t.Fatal(err)
	}
	if len(b) != 0 {
		t.Errorf("zero date should marshal empty, got %q", b)
	}
}

func TestDateScan(t *testing.T) {
	var d Date
	if err := d.Scan("2025-03-15"); err != nil {
		t.Fatal(err)
	}
	if d.String() != "2025-03-15" {
		t.Errorf("scan string: got %s", d)
	}

	if err := d.Scan(time.Date(2025, time.June, 1, 23, 0, 0, 0, time.UTC)); err != nil {
		t.Fatal(err)
	}
	if d.String() != "2025-06-01" {
		t.Errorf("scan time: got %s", d)
	}

	if err := d.Scan(nil); err != nil {
		t.Fatal(err)
	}
	if !d.IsZero() {
		t.Error("scan nil should produce zero date")
	}

	if err := d.Scan(42); err == nil {
		t.Error("expected error scanning int")
	}
}
