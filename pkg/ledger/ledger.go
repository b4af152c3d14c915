package ledger

import (
	"errors"
	"math"
	"strings"
	"time"

	"github.com/bolsillito/bolsillito/pkg/allocation"
)

// MaxTimes caps recurrence expansion so one request cannot flood the ledger.
const MaxTimes = 60

var (
	ErrInvalidAmount    = errors.New("expense amount must be a positive value")
	ErrEmptyDescription = errors.New("expense description must not be blank")
	ErrUnknownCategory  = errors.New("unknown category")
	ErrInvalidTimes     = errors.New("recurrence count out of range")
	ErrExpenseNotFound  = errors.New("expense not found")
	ErrLineItemNotFound = errors.New("line item not found")
)

// ExpenseRecord is one committed expense. Recurring drafts expand into
// several records sharing amount and category, distinguished by the
// " (i/N)" suffix on the description.
type ExpenseRecord struct {
	ID          int64
	Amount      float64
	Description string
	CategoryID  allocation.CategoryID
	Icon        string
	Date        time.Time
	Times       int
	Paid        bool
	CreatedAt   time.Time
}

// Draft is the caller-supplied input for AddExpense, before validation and
// recurrence expansion.
type Draft struct {
	Amount      float64
	Description string
	CategoryID  allocation.CategoryID
	Icon        string
	Date        time.Time
	Times       int
	Paid        bool
}

// Validate checks the draft without mutating it. A Times of zero is treated
// as a single occurrence by the service, so only negative or oversized
// counts are rejected here.
func (d Draft) Validate() error {
	if d.Amount <= 0 || math.IsNaN(d.Amount) || math.IsInf(d.Amount, 0) {
		return ErrInvalidAmount
	}
	if strings.TrimSpace(d.Description) == "" {
		return ErrEmptyDescription
	}
	if !allocation.ValidCategory(d.CategoryID) {
		return ErrUnknownCategory
	}
	if d.Times < 0 || d.Times > MaxTimes {
		return ErrInvalidTimes
	}
	return nil
}

// LineItem is one row in a category's budget breakdown. Items materialized
// from a paid expense carry the originating ExpenseID; manually added items
// have ExpenseID zero and never count as spend, because they carry no
// payment metadata.
type LineItem struct {
	ID         string
	CategoryID allocation.CategoryID
	Name       string
	Icon       string
	Budgeted   float64
	Spent      float64
	ExpenseID  int64
}
