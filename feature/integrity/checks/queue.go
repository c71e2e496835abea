package checks

import (
	"sort"

	"party-ledger/feature/ledger/store"
)

// StuckAttempts is the number of failed replays after which an entry is
// reported as stuck.
const StuckAttempts = 5

// QueueReport summarizes the pending-write queue.
type QueueReport struct {
	Pending         int            `json:"pending"`
	ByEntity        map[string]int `json:"by_entity"`
	OldestCreatedAt int64          `json:"oldest_created_at,omitempty"`
	MaxAttempts     int            `json:"max_attempts"`
	Stuck           []string       `json:"stuck"`
	Status          string         `json:"status"` // "ok", "pending", "stuck"
}

// CheckQueue reports how many writes wait for the remote store and which
// of them keep failing.
func CheckQueue(entries []store.PendingEntry) QueueReport {
	report := QueueReport{
		ByEntity: make(map[string]int),
		Stuck:    []string{},
		Status:   "ok",
	}
	for _, e := range entries {
		if e.State == store.StateApplied {
			continue
		}
		report.Pending++
		report.ByEntity[string(e.Entity)]++
		if report.OldestCreatedAt == 0 || e.CreatedAt < report.OldestCreatedAt {
			report.OldestCreatedAt = e.CreatedAt
		}
		if e.Attempts > report.MaxAttempts {
			report.MaxAttempts = e.Attempts
		}
		if e.Attempts >= StuckAttempts {
			report.Stuck = append(report.Stuck, e.ID)
		}
	}
	sort.Strings(report.Stuck)

	switch {
	case len(report.Stuck) > 0:
		report.Status = "stuck"
	case report.Pending > 0:
		report.Status = "pending"
	}
	return report
}
