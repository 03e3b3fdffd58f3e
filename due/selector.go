// Package due decides which registry components need imminent inspection.
package due

import (
	"time"

	"fixtureaudit/cycles"
	"fixtureaudit/store"
)

// Item is a registry record that has accrued enough cycles to fall inside
// the due window. Derived, never persisted.
//
// DisplayNo is the item's position in this particular due list. It is a
// dashboard label only and shares no namespace with the history trail's
// audit numbers; a real audit number is minted when a session opens.
type Item struct {
	store.ComponentRecord
	CurrentCycles int `json:"current_cycles"`
	Remaining     int `json:"remaining"`
	DisplayNo     int `json:"display_no"`
}

// Select scans records in row-id order and keeps every tracked component
// whose remaining cycles sit inside [0, threshold].
//
// Untracked records (frequency <= 0) are skipped. Already-overdue records
// (remaining < 0) are also skipped; that mirrors the floor's long-standing
// dashboard behavior and is preserved as-is.
func Select(records []store.ComponentRecord, calc cycles.Calculator, asOf time.Time, threshold int) []Item {
	var items []Item
	for _, rec := range records {
		if rec.FrequencyCycles <= 0 {
			continue
		}
		current := calc.WorkingCycles(rec.ChangedBefore, asOf)
		remaining := rec.FrequencyCycles - current
		if remaining < 0 || remaining > threshold {
			continue
		}
		items = append(items, Item{
			ComponentRecord: rec,
			CurrentCycles:   current,
			Remaining:       remaining,
			DisplayNo:       len(items) + 1,
		})
	}
	return items
}
