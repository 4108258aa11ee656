package scheduler

import (
	"fmt"
	"time"
)

// maxReportErrors bounds the per-run error list so a pathological batch
// cannot balloon the report payload.
const maxReportErrors = 50

// ReportEntry is one human-readable skip or failure line in a batch report.
type ReportEntry struct {
	CustomerID uint      `json:"customer_id"`
	Customer   string    `json:"customer"`
	Time       time.Time `json:"time"`
	Reason     string    `json:"reason"`
}

func (e ReportEntry) String() string {
	return fmt.Sprintf("customer %d (%s) at %s: %s", e.CustomerID, e.Customer, e.Time.Format(time.RFC3339), e.Reason)
}

// Candidate is one slot the generator considered, reported in preview mode.
type Candidate struct {
	CustomerID    uint      `json:"customer_id"`
	StartTime     time.Time `json:"start_time"`
	DurationHours float64   `json:"duration_hours"`
	Source        string    `json:"source"` // "schedule" or "pattern"
	Frequency     Frequency `json:"frequency,omitempty"`
}

// CustomerResult is the outcome of generation for a single customer.
type CustomerResult struct {
	CustomerID     uint          `json:"customer_id"`
	Created        int           `json:"created"`
	PastSkips      int           `json:"past_skips"`
	DuplicateSkips int           `json:"duplicate_skips"`
	ConflictSkips  int           `json:"conflict_skips"`
	CeilingSkips   int           `json:"ceiling_skips"`
	Errors         []ReportEntry `json:"errors,omitempty"`
	Candidates     []Candidate   `json:"candidates,omitempty"` // populated in preview mode
}

// RunReport aggregates a whole batch invocation across customers.
type RunReport struct {
	RunID              string        `json:"run_id"`
	Created            int           `json:"created"`
	CustomersProcessed int           `json:"customers_processed"`
	PastSkips          int           `json:"past_skips"`
	DuplicateSkips     int           `json:"duplicate_skips"`
	ConflictSkips      int           `json:"conflict_skips"`
	CeilingSkips       int           `json:"ceiling_skips"`
	Errors             []ReportEntry `json:"errors,omitempty"`
	Candidates         []Candidate   `json:"candidates,omitempty"` // preview mode only
	NextRun            time.Time     `json:"next_run"`
}

func (r *RunReport) absorb(cr *CustomerResult) {
	r.Created += cr.Created
	r.CustomersProcessed++
	r.PastSkips += cr.PastSkips
	r.DuplicateSkips += cr.DuplicateSkips
	r.ConflictSkips += cr.ConflictSkips
	r.CeilingSkips += cr.CeilingSkips
	for _, e := range cr.Errors {
		if len(r.Errors) >= maxReportErrors {
			break
		}
		r.Errors = append(r.Errors, e)
	}
	r.Candidates = append(r.Candidates, cr.Candidates...)
}
