package ledger

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/bolsillito/bolsillito/internal/event_bus"
	"github.com/bolsillito/bolsillito/internal/utils"
	"github.com/bolsillito/bolsillito/pkg/aggregation"
	"github.com/bolsillito/bolsillito/pkg/allocation"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// Ledger owns the expense records and per-category line items. Every
// mutation goes through here so the aggregation cache and the allocation
// engine observe a consistent sequence of changes.
type Ledger struct {
	mu     sync.Mutex
	engine *allocation.Engine
	cache  *aggregation.Cache
	bus    *event_bus.EventBus
	clock  utils.Clock

	nextID     int64
	expenses   map[int64]ExpenseRecord
	byCategory map[allocation.CategoryID][]int64
	items      map[allocation.CategoryID][]LineItem
}

func NewLedger(engine *allocation.Engine, cache *aggregation.Cache, bus *event_bus.EventBus, clock utils.Clock) *Ledger {
	return &Ledger{
		engine:     engine,
		cache:      cache,
		bus:        bus,
		clock:      clock,
		nextID:     1,
		expenses:   make(map[int64]ExpenseRecord),
		byCategory: make(map[allocation.CategoryID][]int64),
		items:      make(map[allocation.CategoryID][]LineItem),
	}
}

// AddExpense validates the draft, expands its recurrence into individual
// records, and commits them all at once. Every record materializes one line
// item in its category; a paid draft additionally carries its amount as
// spend and lowers the category budget by the combined amount in a single
// reduction.
//
// The records are committed even when the budget reduction is rejected for
// lack of a confirmed income; in that case the committed records are
// returned together with allocation.ErrNoConfirmedIncome so the caller can
// surface the warning.
func (l *Ledger) AddExpense(ctx context.Context, draft Draft) ([]ExpenseRecord, error) {
	if err := draft.Validate(); err != nil {
		return nil, err
	}

	times := draft.Times
	if times < 1 {
		times = 1
	}
	date := draft.Date
	if date.IsZero() {
		date = utils.Today(l.clock)
	}

	l.mu.Lock()
	records := make([]ExpenseRecord, 0, times)
	for i := 1; i <= times; i++ {
		description := draft.Description
		if times > 1 {
			description = fmt.Sprintf("%s (%d/%d)", draft.Description, i, times)
		}
		record := ExpenseRecord{
			ID:          l.nextID,
			Amount:      draft.Amount,
			Description: description,
			CategoryID:  draft.CategoryID,
			Icon:        draft.Icon,
			Date:        date,
			Times:       times,
			Paid:        draft.Paid,
			CreatedAt:   l.clock.Now(),
		}
		l.nextID++
		l.expenses[record.ID] = record
		l.byCategory[record.CategoryID] = append(l.byCategory[record.CategoryID], record.ID)
		records = append(records, record)
		l.materializeLocked(record)
	}
	l.mu.Unlock()

	total := draft.Amount * float64(times)
	l.publish(ctx, event_bus.TypeExpenseAdded, event_bus.ExpenseAdded{
		CategoryID: string(draft.CategoryID),
		Total:      total,
		Count:      times,
		Paid:       draft.Paid,
	})

	if draft.Paid {
		if err := l.engine.ReduceBySpend(ctx, draft.CategoryID, total); err != nil {
			return records, err
		}
	}
	return records, nil
}

// materializeLocked appends the line item backing an expense record. Unpaid
// records get a zero spend; the item is visible either way.
func (l *Ledger) materializeLocked(record ExpenseRecord) {
	item := LineItem{
		ID:         uuid.NewString(),
		CategoryID: record.CategoryID,
		Name:       record.Description,
		Icon:       record.Icon,
		Budgeted:   record.Amount,
		ExpenseID:  record.ID,
	}
	if record.Paid {
		item.Spent = record.Amount
	}
	l.items[record.CategoryID] = append(l.items[record.CategoryID], item)
}

// SetPaid toggles the paid flag on one record. Marking a record paid fills
// its line item's spend and lowers the category budget; marking it unpaid
// zeroes the spend but never restores the budget.
func (l *Ledger) SetPaid(ctx context.Context, id int64, paid bool) error {
	l.mu.Lock()
	record, ok := l.expenses[id]
	if !ok {
		l.mu.Unlock()
		return ErrExpenseNotFound
	}
	if record.Paid == paid {
		l.mu.Unlock()
		return nil
	}
	record.Paid = paid
	l.expenses[id] = record

	linked := false
	for i, item := range l.items[record.CategoryID] {
		if item.ExpenseID == id {
			linked = true
			if paid {
				l.items[record.CategoryID][i].Spent = record.Amount
			} else {
				l.items[record.CategoryID][i].Spent = 0
			}
		}
	}
	// Restored state may predate record-backed items; recreate the row.
	if paid && !linked {
		l.materializeLocked(record)
	}
	l.mu.Unlock()

	l.publish(ctx, event_bus.TypeExpensePaidToggled, event_bus.ExpensePaidToggled{
		ExpenseID:  id,
		CategoryID: string(record.CategoryID),
		Paid:       paid,
	})

	if paid {
		if err := l.engine.ReduceBySpend(ctx, record.CategoryID, record.Amount); err != nil {
			return err
		}
	}
	return nil
}

// CategorySpend returns the paid spend total for one category, memoized
// between mutations. Only line items backed by a currently paid expense
// count; manual items are excluded.
func (l *Ledger) CategorySpend(category allocation.CategoryID) float64 {
	if total, ok := l.cache.Get(string(category)); ok {
		return total
	}

	l.mu.Lock()
	total := 0.0
	for _, item := range l.items[category] {
		if item.ExpenseID == 0 {
			continue
		}
		record, ok := l.expenses[item.ExpenseID]
		if !ok || !record.Paid {
			continue
		}
		total += item.Spent
	}
	l.mu.Unlock()

	l.cache.Put(string(category), total)
	return total
}

// Remaining is the category's derived budget minus its paid spend. It goes
// negative when spending exceeds the budget; callers decide how to present
// that.
func (l *Ledger) Remaining(category allocation.CategoryID) float64 {
	return l.engine.DerivedAmount(category) - l.CategorySpend(category)
}

// AddLineItem appends a manual breakdown row to a category.
func (l *Ledger) AddLineItem(ctx context.Context, category allocation.CategoryID, name, icon string, budgeted float64) (LineItem, error) {
	if !allocation.ValidCategory(category) {
		return LineItem{}, ErrUnknownCategory
	}

	item := LineItem{
		ID:         uuid.NewString(),
		CategoryID: category,
		Name:       name,
		Icon:       icon,
		Budgeted:   utils.SanitizeAmount(budgeted),
	}
	l.mu.Lock()
	l.items[category] = append(l.items[category], item)
	l.mu.Unlock()

	l.publish(ctx, event_bus.TypeLineItemAdded, event_bus.LineItemAdded{
		LineItemID: item.ID,
		CategoryID: string(category),
		Budgeted:   item.Budgeted,
	})
	return item, nil
}

// RemoveLineItem deletes one row by id, wherever it lives. Removing an item
// that backs an expense record destroys the record as well; the row is the
// record's only owner.
func (l *Ledger) RemoveLineItem(ctx context.Context, id string) error {
	l.mu.Lock()
	var category allocation.CategoryID
	var expenseID int64
	found := false
	for cat, items := range l.items {
		for i, item := range items {
			if item.ID == id {
				l.items[cat] = append(items[:i], items[i+1:]...)
				category = cat
				expenseID = item.ExpenseID
				found = true
				break
			}
		}
		if found {
			break
		}
	}
	if found && expenseID != 0 {
		delete(l.expenses, expenseID)
		ids := l.byCategory[category]
		for i, eid := range ids {
			if eid == expenseID {
				l.byCategory[category] = append(ids[:i], ids[i+1:]...)
				break
			}
		}
	}
	l.mu.Unlock()

	if !found {
		return ErrLineItemNotFound
	}

	l.publish(ctx, event_bus.TypeLineItemRemoved, event_bus.LineItemRemoved{
		LineItemID: id,
		CategoryID: string(category),
	})
	return nil
}

// Expenses returns every record ordered by id.
func (l *Ledger) Expenses() []ExpenseRecord {
	l.mu.Lock()
	defer l.mu.Unlock()
	records := make([]ExpenseRecord, 0, len(l.expenses))
	for _, record := range l.expenses {
		records = append(records, record)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].ID < records[j].ID })
	return records
}

// ExpensesByCategory returns one category's records in insertion order,
// served from the incrementally maintained index rather than a full scan.
func (l *Ledger) ExpensesByCategory(category allocation.CategoryID) []ExpenseRecord {
	l.mu.Lock()
	defer l.mu.Unlock()
	ids := l.byCategory[category]
	records := make([]ExpenseRecord, 0, len(ids))
	for _, id := range ids {
		if record, ok := l.expenses[id]; ok {
			records = append(records, record)
		}
	}
	return records
}

// LineItems returns a copy of one category's rows in insertion order.
func (l *Ledger) LineItems(category allocation.CategoryID) []LineItem {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]LineItem(nil), l.items[category]...)
}

// Restore replaces the ledger contents wholesale, reseeding the id counter
// past the highest restored record. Used by load and CSV import.
func (l *Ledger) Restore(expenses []ExpenseRecord, items []LineItem) {
	l.mu.Lock()
	l.expenses = make(map[int64]ExpenseRecord, len(expenses))
	l.byCategory = make(map[allocation.CategoryID][]int64)
	l.items = make(map[allocation.CategoryID][]LineItem)
	var maxID int64
	for _, record := range expenses {
		l.expenses[record.ID] = record
		l.byCategory[record.CategoryID] = append(l.byCategory[record.CategoryID], record.ID)
		if record.ID > maxID {
			maxID = record.ID
		}
	}
	for _, item := range items {
		l.items[item.CategoryID] = append(l.items[item.CategoryID], item)
	}
	l.nextID = maxID + 1
	l.mu.Unlock()

	l.cache.InvalidateAll()
	log.Debugf("ledger restored: %d expenses, %d line items", len(expenses), len(items))
}

func (l *Ledger) publish(ctx context.Context, t event_bus.EventType, data any) {
	if l.bus == nil {
		return
	}
	if err := l.bus.Publish(event_bus.NewEvent(ctx, t, data)); err != nil {
		log.Errorf("failed to publish %s: %v", t, err)
	}
}
