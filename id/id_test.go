package id_test

import (
	"strings"
	"testing"

	"github.com/kovrhq/kovr/id"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name   string
		newFn  func() id.ID
		prefix string
	}{
		{"SubscriptionID", id.NewSubscriptionID, "sub_"},
		{"ProfileID", id.NewProfileID, "prof_"},
		{"FamilyID", id.NewFamilyID, "fam_"},
		{"MemberID", id.NewMemberID, "mem_"},
		{"InviteID", id.NewInviteID, "invt_"},
		{"AlertID", id.NewAlertID, "alrt_"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.newFn().String()
			if !strings.HasPrefix(got, tt.prefix) {
				t.Errorf("expected prefix %q, got %q", tt.prefix, got)
			}
		})
	}
}

func TestNew(t *testing.T) {
	i := id.New(id.PrefixSubscription)
	if i.IsNil() {
		t.Fatal("expected non-nil ID")
	}
	if i.Prefix() != id.PrefixSubscription {
		t.Errorf("expected prefix %q, got %q", id.PrefixSubscription, i.Prefix())
	}
}

func TestParseRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		newFn   func() id.ID
		parseFn func(string) (id.ID, error)
	}{
		{"SubscriptionID", id.NewSubscriptionID, id.ParseSubscriptionID},
		{"ProfileID", id.NewProfileID, id.ParseProfileID},
		{"FamilyID", id.NewFamilyID, id.ParseFamilyID},
		{"MemberID", id.NewMemberID, id.ParseMemberID},
		{"InviteID", id.NewInviteID, id.ParseInviteID},
		{"AlertID", id.NewAlertID, id.ParseAlertID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orig := tt.newFn()
			parsed, err := tt.parseFn(orig.String())
			if err != nil {
				t.Fatalf("parse failed: %v", err)
			}
			if parsed.String() != orig.String() {
				t.Errorf("round trip: got %q, want %q", parsed.String(), orig.String())
			}
		})
	}
}

func TestParseRejectsWrongPrefix(t *testing.T) {
	subID := id.NewSubscriptionID()

	if _, err := id.ParseProfileID(subID.String()); err == nil {
		t.Error("expected error parsing subscription ID as profile ID")
	}
	if _, err := id.ParseFamilyID(subID.String()); err == nil {
		t.Error("expected error parsing subscription ID as family ID")
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	tests := []string{
		"",
		"not-an-id",
		"sub_",
		"sub_!!!!",
	}

	for _, input := range tests {
		if _, err := id.Parse(input); err == nil {
			t.Errorf("expected error parsing %q", input)
		}
	}
}

func TestIDUniqueness(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		s := id.NewSubscriptionID().String()
		if seen[s] {
			t.Fatalf("duplicate ID generated: %s", s)
		}
		seen[s] = true
	}
}

func TestIDTextRoundTrip(t *testing.T) {
	orig := id.NewAlertID()
	b, err := orig.MarshalText()
	if err != nil {
		t.Fatal(err)
	}

	var back id.ID
	if err := back.UnmarshalText(b); err != nil {
		t.Fatal(err)
	}
	if back.String() != orig.String() {
		t.Errorf("round trip: got %q, want %q", back.String(), orig.String())
	}
}

func TestNilID(t *testing.T) {
	var i id.ID
	if !i.IsNil() {
		t.Error("zero value should be nil")
	}
	if i.String() != "" {
		t.Errorf("nil ID should render empty, got %q", i.String())
	}
}
