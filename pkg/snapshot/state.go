// Package snapshot defines the portable representation of a full budget
// and its CSV codec. The format is line-oriented with section markers, so
// exports stay readable in a plain spreadsheet.
package snapshot

import (
	"fmt"
	"time"
)

// ItemSnapshot is one category row as it appears in an export.
type ItemSnapshot struct {
	Name     string
	Icon     string
	Budgeted float64
	Spent    float64
}

// State is everything an export carries: the income, the three bucket
// percentages, and the per-bucket breakdown rows. It is a value type with
// no behavior; sessions build one from live state and apply one back.
type State struct {
	MonthlyIncome float64
	WeeklyPct     float64
	MonthlyPct    float64
	SavingsPct    float64
	Weekly        []ItemSnapshot
	Monthly       []ItemSnapshot
	Savings       []ItemSnapshot
}

// ExportFilename names a download after the export date.
func ExportFilename(now time.Time) string {
	return fmt.Sprintf("bolsillito-export-%s.csv", now.Format("2006-01-02"))
}
