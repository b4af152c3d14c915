package event_bus

import "time"

// ExpenseAdded is published once per AddExpense call, after every sibling
// record of a recurring expense has been committed.
type ExpenseAdded struct {
	CategoryID string
	Total      float64 // amount * times
	Count      int
	Paid       bool
}

type ExpensePaidToggled struct {
	ExpenseID  int64
	CategoryID string
	Paid       bool
}

type LineItemRemoved struct {
	LineItemID string
	CategoryID string
}

type LineItemAdded struct {
	LineItemID string
	CategoryID string
	Budgeted   float64
}

type AllocationChanged struct {
	CategoryID string
	Percentage float64
}

type IncomeChanged struct {
	Value     float64
	Confirmed bool
}

type PeriodNavigated struct {
	PeriodType string
	Direction  int
	Reference  time.Time
}
