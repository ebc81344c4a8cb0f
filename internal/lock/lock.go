// Package lock holds the canonical lock model, the record normalizer that
// produces it from raw ledger payloads, and discovery over ledger state.
package lock

import "fmt"

// Status is the derived lifecycle state of a lock. Declined is never
// observed on a record: a declined lock is destroyed on the ledger, so the
// client infers it from a lookup miss on a previously-known lock.
type Status string

const (
	StatusPending  Status = "pending"
	StatusLocked   Status = "locked"
	StatusDeclined Status = "declined"
)

// Date is a lock's creation date as chosen by the creator. It is display
// data, not a timestamp; the ledger stores it as entered.
type Date struct {
	Day   int `json:"day"`
	Month int `json:"month"`
	Year  int `json:"year"`
}

// SentinelDate replaces a malformed or missing creation date. A record is
// never dropped over a bad date — it degrades to this value instead.
var SentinelDate = Date{Day: 1, Month: 1, Year: 2024}

func (d Date) String() string {
	return fmt.Sprintf("%d/%d/%d", d.Day, d.Month, d.Year)
}

// Lock is the canonical in-memory lock record. All fields except Closed
// are immutable from creation; Closed flips to true exactly once, on
// accept, and never reverts.
type Lock struct {
	ID           string `json:"id"`
	Creator      string `json:"creator"`
	Recipient    string `json:"recipient"`
	Message      string `json:"message"`
	CreationDate Date   `json:"creationDate"`
	Closed       bool   `json:"closed"`
}

// Status derives the lifecycle state from the record itself. A destroyed
// (declined) lock has no record, so this never returns StatusDeclined.
func (l *Lock) Status() Status {
	if l.Closed {
		return StatusLocked
	}
	return StatusPending
}

// PendingFor reports whether addr may still decide this lock's fate.
func (l *Lock) PendingFor(addr string) bool {
	return !l.Closed && l.Recipient == addr
}
