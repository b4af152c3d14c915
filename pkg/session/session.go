// Package session ties the allocation engine, ledger, and aggregation cache
// together behind one serialized facade, and owns durable persistence: state
// is stored under a handful of well-known keys, written in coalesced batches
// shortly after the last mutation.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/bolsillito/bolsillito/internal/event_bus"
	"github.com/bolsillito/bolsillito/internal/scheduler"
	"github.com/bolsillito/bolsillito/internal/storage"
	"github.com/bolsillito/bolsillito/internal/utils"
	"github.com/bolsillito/bolsillito/pkg/aggregation"
	"github.com/bolsillito/bolsillito/pkg/allocation"
	"github.com/bolsillito/bolsillito/pkg/ledger"
	"github.com/bolsillito/bolsillito/pkg/period"
	"github.com/bolsillito/bolsillito/pkg/snapshot"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// Store keys. The names predate this codebase; changing them would orphan
// existing exports and databases.
const (
	keyProfile        = "datosPresupuesto"
	keyLineItems      = "categoriasPersonalizadas"
	keyIncomeFlag     = "incomeConfirmed"
	keyConfirmedValue = "confirmedIncomeValue"
	keyExpenses       = "gastos"
	keyActions        = "accionesUsuario"
)

const (
	saveKey    = "session.save"
	maxActions = 100
)

var ErrPastPeriod = errors.New("cannot navigate to a past period")

// Action is one entry in the append-only user action log.
type Action struct {
	Type      string         `json:"tipo"`
	Data      map[string]any `json:"datos,omitempty"`
	Timestamp int64          `json:"timestamp"`
}

// Summary is the aggregate view the UI's overview panel renders.
type Summary struct {
	TotalBudgeted float64 `json:"totalBudgeted"`
	TotalSpent    float64 `json:"totalSpent"`
	Available     float64 `json:"available"`
	SavingsAmount float64 `json:"savingsAmount"`
	SavingsRate   float64 `json:"savingsRate"`
	CategoryCount int     `json:"categoryCount"`
}

// Suggestion is one advisory line derived from the spend ratio.
type Suggestion struct {
	Icon string `json:"icon"`
	Text string `json:"text"`
}

// Session is the single logical mutator over the budget state. Mutations go
// through the engine and ledger it wraps; every mutation event re-arms the
// coalesced save, so rapid edits settle into one durable write per key.
type Session struct {
	mu     sync.Mutex
	engine *allocation.Engine
	ledger *ledger.Ledger
	cache  *aggregation.Cache
	store  storage.Store
	sched  scheduler.Scheduler
	clock  utils.Clock
	bus    *event_bus.EventBus

	saveWindow time.Duration
	storeDown  bool

	reference  time.Time
	periodType period.Type
	actions    []Action
}

func NewSession(
	engine *allocation.Engine,
	ledg *ledger.Ledger,
	cache *aggregation.Cache,
	store storage.Store,
	sched scheduler.Scheduler,
	bus *event_bus.EventBus,
	clock utils.Clock,
	saveWindow time.Duration,
) *Session {
	s := &Session{
		engine:     engine,
		ledger:     ledg,
		cache:      cache,
		store:      store,
		sched:      sched,
		clock:      clock,
		bus:        bus,
		saveWindow: saveWindow,
		reference:  utils.Today(clock),
		periodType: period.Weekly,
	}

	if bus != nil {
		for _, t := range []event_bus.EventType{
			event_bus.TypeExpenseAdded,
			event_bus.TypeExpensePaidToggled,
			event_bus.TypeLineItemAdded,
			event_bus.TypeLineItemRemoved,
			event_bus.TypeAllocationChanged,
			event_bus.TypeIncomeChanged,
		} {
			bus.Subscribe(t, func(event_bus.Event) error {
				s.ScheduleSave()
				return nil
			})
		}
	}
	return s
}

func (s *Session) Engine() *allocation.Engine { return s.engine }
func (s *Session) Ledger() *ledger.Ledger     { return s.ledger }

// storage documents. Field names mirror the historical export vocabulary.

type profileDoc struct {
	IngresoMensual     float64 `json:"ingresoMensual"`
	PresupuestoSemanal float64 `json:"presupuestoSemanal"`
	PresupuestoMensual float64 `json:"presupuestoMensual"`
	PresupuestoAhorros float64 `json:"presupuestoAhorros"`
}

type itemDoc struct {
	ID            string  `json:"id"`
	Nombre        string  `json:"nombre"`
	Icono         string  `json:"icono,omitempty"`
	Presupuestado float64 `json:"presupuestado"`
	Gastado       float64 `json:"gastado"`
	ExpenseID     int64   `json:"expenseId,omitempty"`
}

type itemsDoc struct {
	Semanal []itemDoc `json:"semanal"`
	Mensual []itemDoc `json:"mensual"`
	Ahorros []itemDoc `json:"ahorros"`
}

type expenseDoc struct {
	ID          int64     `json:"id"`
	Amount      float64   `json:"amount"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Icon        string    `json:"icon,omitempty"`
	Date        time.Time `json:"date"`
	Times       int       `json:"times"`
	Paid        bool      `json:"paid"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Load restores the session from the durable store. Corrupt keys are purged
// and their portion of the state falls back to defaults; an unavailable
// store leaves the session empty but fully usable.
func (s *Session) Load(ctx context.Context) {
	profile := allocation.NewProfile()

	var pd profileDoc
	if s.loadJSON(ctx, keyProfile, &pd) {
		profile.MonthlyIncome = pd.IngresoMensual
		for i := range profile.Categories {
			switch profile.Categories[i].ID {
			case allocation.Weekly:
				profile.Categories[i].Percentage = pd.PresupuestoSemanal
			case allocation.Monthly:
				profile.Categories[i].Percentage = pd.PresupuestoMensual
			case allocation.Savings:
				profile.Categories[i].Percentage = pd.PresupuestoAhorros
			}
		}
	}

	if flag, ok := s.loadRaw(ctx, keyIncomeFlag); ok && flag == "true" {
		if raw, ok := s.loadRaw(ctx, keyConfirmedValue); ok {
			if value := utils.ParseAmount(raw); value > 0 {
				profile.Confirmed = true
				profile.ConfirmedIncome = value
			}
		}
	}
	s.engine.Restore(ctx, profile)

	var expenses []ledger.ExpenseRecord
	var docs []expenseDoc
	if s.loadJSON(ctx, keyExpenses, &docs) {
		for _, d := range docs {
			expenses = append(expenses, ledger.ExpenseRecord{
				ID:          d.ID,
				Amount:      d.Amount,
				Description: d.Description,
				CategoryID:  allocation.CategoryID(d.Category),
				Icon:        d.Icon,
				Date:        d.Date,
				Times:       d.Times,
				Paid:        d.Paid,
				CreatedAt:   d.CreatedAt,
			})
		}
	}

	var items []ledger.LineItem
	var itemsByCat itemsDoc
	if s.loadJSON(ctx, keyLineItems, &itemsByCat) {
		items = append(items, docsToItems(itemsByCat.Semanal, allocation.Weekly)...)
		items = append(items, docsToItems(itemsByCat.Mensual, allocation.Monthly)...)
		items = append(items, docsToItems(itemsByCat.Ahorros, allocation.Savings)...)
	}
	s.ledger.Restore(expenses, items)

	var actions []Action
	if s.loadJSON(ctx, keyActions, &actions) {
		if len(actions) > maxActions {
			actions = actions[len(actions)-maxActions:]
		}
		s.mu.Lock()
		s.actions = actions
		s.mu.Unlock()
	}
}

func docsToItems(docs []itemDoc, category allocation.CategoryID) []ledger.LineItem {
	items := make([]ledger.LineItem, 0, len(docs))
	for _, d := range docs {
		items = append(items, ledger.LineItem{
			ID:         d.ID,
			CategoryID: category,
			Name:       d.Nombre,
			Icon:       d.Icono,
			Budgeted:   d.Presupuestado,
			Spent:      d.Gastado,
			ExpenseID:  d.ExpenseID,
		})
	}
	return items
}

func itemsToDocs(items []ledger.LineItem) []itemDoc {
	docs := make([]itemDoc, 0, len(items))
	for _, item := range items {
		docs = append(docs, itemDoc{
			ID:            item.ID,
			Nombre:        item.Name,
			Icono:         item.Icon,
			Presupuestado: item.Budgeted,
			Gastado:       item.Spent,
			ExpenseID:     item.ExpenseID,
		})
	}
	return docs
}

// loadRaw reads one key, degrading to absent on an unavailable store.
func (s *Session) loadRaw(ctx context.Context, key string) (string, bool) {
	if s.store == nil || s.isStoreDown() {
		return "", false
	}
	value, ok, err := s.store.Get(ctx, key)
	if err != nil {
		s.markStoreDown(err)
		return "", false
	}
	return value, ok
}

// loadJSON reads and unmarshals one key. A key that exists but does not
// parse is removed so the next load starts clean.
func (s *Session) loadJSON(ctx context.Context, key string, v any) bool {
	raw, ok := s.loadRaw(ctx, key)
	if !ok {
		return false
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		log.Warnf("purging corrupt state under %q: %v", key, err)
		if err := s.store.Remove(ctx, key); err != nil {
			s.markStoreDown(err)
		}
		return false
	}
	return true
}

func (s *Session) isStoreDown() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.storeDown
}

func (s *Session) markStoreDown(err error) {
	if !errors.Is(err, storage.ErrUnavailable) {
		log.Errorf("store error: %v", err)
		return
	}
	s.mu.Lock()
	already := s.storeDown
	s.storeDown = true
	s.mu.Unlock()
	if !already {
		log.Warnf("durable store unavailable, persistence degraded to no-ops: %v", err)
	}
}

// ScheduleSave arms the coalesced save. Rapid calls within the save window
// collapse into a single flush of the full state.
func (s *Session) ScheduleSave() {
	if s.sched == nil {
		return
	}
	s.sched.Schedule(saveKey, s.saveWindow, func() {
		s.Flush(context.Background())
	})
}

// Flush writes the complete session state now. A failed write is logged and
// dropped; there are no retries.
func (s *Session) Flush(ctx context.Context) {
	if s.store == nil || s.isStoreDown() {
		return
	}

	profile := s.engine.Profile()
	pd := profileDoc{
		IngresoMensual:     profile.MonthlyIncome,
		PresupuestoSemanal: profile.Percentage(allocation.Weekly),
		PresupuestoMensual: profile.Percentage(allocation.Monthly),
		PresupuestoAhorros: profile.Percentage(allocation.Savings),
	}
	itemsByCat := itemsDoc{
		Semanal: itemsToDocs(s.ledger.LineItems(allocation.Weekly)),
		Mensual: itemsToDocs(s.ledger.LineItems(allocation.Monthly)),
		Ahorros: itemsToDocs(s.ledger.LineItems(allocation.Savings)),
	}
	records := s.ledger.Expenses()
	docs := make([]expenseDoc, 0, len(records))
	for _, r := range records {
		docs = append(docs, expenseDoc{
			ID:          r.ID,
			Amount:      r.Amount,
			Description: r.Description,
			Category:    string(r.CategoryID),
			Icon:        r.Icon,
			Date:        r.Date,
			Times:       r.Times,
			Paid:        r.Paid,
			CreatedAt:   r.CreatedAt,
		})
	}
	s.mu.Lock()
	actions := append([]Action(nil), s.actions...)
	s.mu.Unlock()

	s.setJSON(ctx, keyProfile, pd)
	s.setJSON(ctx, keyLineItems, itemsByCat)
	s.setJSON(ctx, keyExpenses, docs)
	s.setJSON(ctx, keyActions, actions)

	if profile.Confirmed {
		s.set(ctx, keyIncomeFlag, "true")
		s.set(ctx, keyConfirmedValue, strconv.FormatFloat(profile.ConfirmedIncome, 'f', -1, 64))
	} else {
		s.remove(ctx, keyIncomeFlag)
		s.remove(ctx, keyConfirmedValue)
	}
}

func (s *Session) setJSON(ctx context.Context, key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Errorf("failed to marshal %q: %v", key, err)
		return
	}
	s.set(ctx, key, string(data))
}

func (s *Session) set(ctx context.Context, key, value string) {
	if s.isStoreDown() {
		return
	}
	if err := s.store.Set(ctx, key, value); err != nil {
		s.markStoreDown(err)
	}
}

func (s *Session) remove(ctx context.Context, key string) {
	if s.isStoreDown() {
		return
	}
	if err := s.store.Remove(ctx, key); err != nil {
		s.markStoreDown(err)
	}
}

// CurrentWindow returns the window the session is currently displaying.
func (s *Session) CurrentWindow() period.Window {
	s.mu.Lock()
	defer s.mu.Unlock()
	return period.WindowFor(s.reference, s.periodType)
}

// SetPeriodType switches between the weekly and monthly view, resnapping the
// reference to today.
func (s *Session) SetPeriodType(t period.Type) {
	if !t.Valid() {
		return
	}
	s.mu.Lock()
	s.periodType = t
	s.reference = utils.Today(s.clock)
	s.mu.Unlock()
}

// Navigate moves the displayed window one period in the given direction.
// Backward navigation into a fully past window is refused.
func (s *Session) Navigate(ctx context.Context, direction int) (period.Window, error) {
	s.mu.Lock()
	candidate := period.Advance(s.reference, s.periodType, direction)
	window := period.WindowFor(candidate, s.periodType)
	if direction < 0 && !period.IsNavigableBackward(window, s.clock.Now()) {
		s.mu.Unlock()
		return period.Window{}, ErrPastPeriod
	}
	s.reference = candidate
	periodType := s.periodType
	s.mu.Unlock()

	if s.bus != nil {
		if err := s.bus.Publish(event_bus.NewEvent(ctx, event_bus.TypePeriodNavigated, event_bus.PeriodNavigated{
			PeriodType: string(periodType),
			Direction:  direction,
			Reference:  candidate,
		})); err != nil {
			log.Errorf("failed to publish %s: %v", event_bus.TypePeriodNavigated, err)
		}
	}
	s.RecordAction("navegacion_periodo", map[string]any{
		"tipo":      string(periodType),
		"direccion": direction,
	})
	return window, nil
}

// Summary aggregates the overview numbers: budgeted and paid-only spent
// totals, the unallocated remainder of the effective income, and the
// savings slice.
func (s *Session) Summary() Summary {
	income := s.engine.EffectiveIncome()

	totalBudgeted := 0.0
	totalSpent := 0.0
	categoryCount := 3
	for _, id := range allocation.Categories() {
		totalBudgeted += s.engine.DerivedAmount(id)
		totalSpent += s.ledger.CategorySpend(id)
		categoryCount += len(s.ledger.LineItems(id))
	}

	profile := s.engine.Profile()
	return Summary{
		TotalBudgeted: totalBudgeted,
		TotalSpent:    totalSpent,
		Available:     income - totalBudgeted,
		SavingsAmount: s.engine.DerivedAmount(allocation.Savings),
		SavingsRate:   profile.Percentage(allocation.Savings),
		CategoryCount: categoryCount,
	}
}

// Suggestions derives advisory entries from the spend-to-income ratio.
func (s *Session) Suggestions() []Suggestion {
	income := s.engine.EffectiveIncome()
	if income <= 0 {
		return nil
	}

	totalSpent := 0.0
	for _, id := range allocation.Categories() {
		totalSpent += s.ledger.CategorySpend(id)
	}
	ratio := totalSpent / income * 100

	var suggestions []Suggestion
	if ratio > 90 {
		suggestions = append(suggestions, Suggestion{
			Icon: "⚠️",
			Text: "Estás gastando más del 90% de tus ingresos. Considera reducir gastos no esenciales.",
		})
	}
	if ratio < 50 {
		suggestions = append(suggestions, Suggestion{
			Icon: "💰",
			Text: "¡Excelente! Tienes potencial para aumentar tus ahorros.",
		})
	}
	return suggestions
}

// RecordAction appends to the capped user action log and arms a save.
func (s *Session) RecordAction(actionType string, data map[string]any) {
	s.mu.Lock()
	s.actions = append(s.actions, Action{
		Type:      actionType,
		Data:      data,
		Timestamp: s.clock.Now().UnixMilli(),
	})
	if len(s.actions) > maxActions {
		s.actions = s.actions[len(s.actions)-maxActions:]
	}
	s.mu.Unlock()

	s.ScheduleSave()
}

// Actions returns a copy of the action log, oldest first.
func (s *Session) Actions() []Action {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Action(nil), s.actions...)
}

// Snapshot captures the exportable state.
func (s *Session) Snapshot() snapshot.State {
	profile := s.engine.Profile()
	return snapshot.State{
		MonthlyIncome: s.engine.EffectiveIncome(),
		WeeklyPct:     profile.Percentage(allocation.Weekly),
		MonthlyPct:    profile.Percentage(allocation.Monthly),
		SavingsPct:    profile.Percentage(allocation.Savings),
		Weekly:        itemSnapshots(s.ledger.LineItems(allocation.Weekly)),
		Monthly:       itemSnapshots(s.ledger.LineItems(allocation.Monthly)),
		Savings:       itemSnapshots(s.ledger.LineItems(allocation.Savings)),
	}
}

func itemSnapshots(items []ledger.LineItem) []snapshot.ItemSnapshot {
	snaps := make([]snapshot.ItemSnapshot, 0, len(items))
	for _, item := range items {
		snaps = append(snaps, snapshot.ItemSnapshot{
			Name:     item.Name,
			Icon:     item.Icon,
			Budgeted: item.Budgeted,
			Spent:    item.Spent,
		})
	}
	return snaps
}

// ExportCSV renders the current state and names the download.
func (s *Session) ExportCSV() ([]byte, string) {
	s.RecordAction("exportar_datos", nil)
	return snapshot.ToCSV(s.Snapshot()), snapshot.ExportFilename(s.clock.Now())
}

// ImportCSV replaces the profile percentages, income input, and line items
// with the parsed file. The expense history and the income confirmation
// latch are left alone; imported items carry no payment metadata, so they
// never count as paid spend.
func (s *Session) ImportCSV(ctx context.Context, data []byte) error {
	state, err := snapshot.FromCSV(data)
	if err != nil {
		return err
	}

	profile := s.engine.Profile()
	profile.MonthlyIncome = state.MonthlyIncome
	for i := range profile.Categories {
		switch profile.Categories[i].ID {
		case allocation.Weekly:
			profile.Categories[i].Percentage = state.WeeklyPct
		case allocation.Monthly:
			profile.Categories[i].Percentage = state.MonthlyPct
		case allocation.Savings:
			profile.Categories[i].Percentage = state.SavingsPct
		}
	}
	s.engine.Restore(ctx, profile)

	var items []ledger.LineItem
	items = append(items, snapshotItems(state.Weekly, allocation.Weekly)...)
	items = append(items, snapshotItems(state.Monthly, allocation.Monthly)...)
	items = append(items, snapshotItems(state.Savings, allocation.Savings)...)
	s.ledger.Restore(s.ledger.Expenses(), items)

	s.RecordAction("importar_datos", nil)
	s.ScheduleSave()
	return nil
}

func snapshotItems(snaps []snapshot.ItemSnapshot, category allocation.CategoryID) []ledger.LineItem {
	items := make([]ledger.LineItem, 0, len(snaps))
	for _, snap := range snaps {
		items = append(items, ledger.LineItem{
			ID:         uuid.NewString(),
			CategoryID: category,
			Name:       snap.Name,
			Icon:       snap.Icon,
			Budgeted:   snap.Budgeted,
			Spent:      snap.Spent,
		})
	}
	return items
}

// Reset clears the profile, line items, expense history, and the income
// confirmation, both in memory and in the store. The action log survives so
// the reset itself stays auditable.
func (s *Session) Reset(ctx context.Context) {
	s.engine.Restore(ctx, allocation.NewProfile())
	s.ledger.Restore(nil, nil)
	s.cache.InvalidateAll()

	for _, key := range []string{keyProfile, keyLineItems, keyExpenses, keyConfirmedValue, keyIncomeFlag} {
		s.remove(ctx, key)
	}
	s.RecordAction("reiniciar_presupuesto", nil)
}
