package enums

import "testing"

func TestParsePlanTier(t *testing.T) {
	for _, value := range []string{"free", "pro", "enterprise"} {
		tier, err := ParsePlanTier(value)
		if err != nil {
			t.Fatalf("expected %q to parse: %v", value, err)
		}
		if !tier.IsValid() {
			t.Fatalf("parsed tier %q should be valid", tier)
		}
	}

	for _, value := range []string{"", "FREE", "platinum"} {
		if _, err := ParsePlanTier(value); err == nil {
			t.Fatalf("expected %q to be rejected", value)
		}
	}
}

func TestParseLedgerEntryKind(t *testing.T) {
	for _, value := range []string{"debit", "grant"} {
		kind, err := ParseLedgerEntryKind(value)
		if err != nil {
			t.Fatalf("expected %q to parse: %v", value, err)
		}
		if !kind.IsValid() {
			t.Fatalf("parsed kind %q should be valid", kind)
		}
	}

	if _, err := ParseLedgerEntryKind("credit"); err == nil {
		t.Fatal("expected unknown kind to be rejected")
	}
}
