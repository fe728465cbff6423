package enums

import "fmt"

// LedgerEntryKind classifies entries in the quota audit trail. Charges append
// debit entries; grant is reserved for top-ups so credits purchases land in
// the same trail.
type LedgerEntryKind string

const (
	LedgerEntryKindDebit LedgerEntryKind = "debit"
	LedgerEntryKindGrant LedgerEntryKind = "grant"
)

var validLedgerEntryKinds = []LedgerEntryKind{
	LedgerEntryKindDebit,
	LedgerEntryKindGrant,
}

// IsValid reports whether the value is a known LedgerEntryKind.
func (k LedgerEntryKind) IsValid() bool {
	for _, candidate := range validLedgerEntryKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// ParseLedgerEntryKind converts raw input into LedgerEntryKind.
func ParseLedgerEntryKind(value string) (LedgerEntryKind, error) {
	for _, candidate := range validLedgerEntryKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid ledger entry kind %q", value)
}
