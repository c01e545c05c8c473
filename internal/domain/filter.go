package domain

import (
	"fmt"
	"strings"
)

// LedgerFilter restricts an account's entries to one lifecycle state.
type LedgerFilter string

const (
	FilterAll         LedgerFilter = "all"
	FilterNulled      LedgerFilter = "nulled"
	FilterConciliated LedgerFilter = "conciliated"
	FilterPending     LedgerFilter = "pending"
)

// ParseLedgerFilter accepts the canonical names plus the short "con" and
// "uncon" forms. An empty string means all.
func ParseLedgerFilter(s string) (LedgerFilter, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return FilterAll, nil
	case "nulled":
		return FilterNulled, nil
	case "conciliated", "con":
		return FilterConciliated, nil
	case "pending", "uncon":
		return FilterPending, nil
	}

	return "", ValidationErrors{{Field: "filter", Message: fmt.Sprintf("unknown filter %q", s)}}
}

// Matches reports whether e passes the filter.
func (f LedgerFilter) Matches(e *LedgerEntry) bool {
	switch f {
	case FilterNulled:
		return e.State() == LedgerStateNulled
	case FilterConciliated:
		return e.State() == LedgerStateConciliated
	case FilterPending:
		return e.State() == LedgerStatePending
	default:
		return true
	}
}

// Touches reports whether accountID is either side of e.
func Touches(e *LedgerEntry, accountID string) bool {
	return e.AccountID == accountID || e.ToID == accountID
}
