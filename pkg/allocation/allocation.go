package allocation

import "errors"

// CategoryID names one of the three top-level allocation buckets.
type CategoryID string

const (
	Weekly  CategoryID = "weekly"
	Monthly CategoryID = "monthly"
	Savings CategoryID = "savings"
)

// Categories returns the buckets in their fixed display order.
func Categories() []CategoryID {
	return []CategoryID{Weekly, Monthly, Savings}
}

func ValidCategory(id CategoryID) bool {
	return id == Weekly || id == Monthly || id == Savings
}

// MaxIncome caps the monthly income input, matching the original
// $100,000,000 limit.
const MaxIncome = 100_000_000

var (
	ErrUnknownCategory   = errors.New("unknown category")
	ErrInvalidIncome     = errors.New("income must be a positive value")
	ErrNoConfirmedIncome = errors.New("no confirmed income to reduce against")
)

// Category is one allocation bucket: a percentage of the effective income.
type Category struct {
	ID         CategoryID
	Percentage float64
}

// Profile is the full allocation state. MonthlyIncome is the live input
// value; ConfirmedIncome, when Confirmed is set, supersedes it for every
// derived calculation until the income is explicitly edited again.
type Profile struct {
	MonthlyIncome   float64
	ConfirmedIncome float64
	Confirmed       bool
	Categories      []Category
}

// NewProfile returns an empty profile with the three buckets at 0%.
func NewProfile() Profile {
	cats := make([]Category, 0, 3)
	for _, id := range Categories() {
		cats = append(cats, Category{ID: id})
	}
	return Profile{Categories: cats}
}

func (p Profile) index(id CategoryID) int {
	for i, c := range p.Categories {
		if c.ID == id {
			return i
		}
	}
	return -1
}

// Percentage returns the stored percentage for id, 0 for unknown ids.
func (p Profile) Percentage(id CategoryID) float64 {
	if i := p.index(id); i >= 0 {
		return p.Categories[i].Percentage
	}
	return 0
}

// SumOthers totals the percentages of every bucket except id.
func (p Profile) SumOthers(id CategoryID) float64 {
	total := 0.0
	for _, c := range p.Categories {
		if c.ID != id {
			total += c.Percentage
		}
	}
	return total
}

// Sum totals all bucket percentages.
func (p Profile) Sum() float64 {
	total := 0.0
	for _, c := range p.Categories {
		total += c.Percentage
	}
	return total
}
