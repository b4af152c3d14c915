package session

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/bolsillito/bolsillito/internal/event_bus"
	"github.com/bolsillito/bolsillito/internal/scheduler"
	"github.com/bolsillito/bolsillito/internal/storage"
	"github.com/bolsillito/bolsillito/internal/utils"
	"github.com/bolsillito/bolsillito/pkg/aggregation"
	"github.com/bolsillito/bolsillito/pkg/allocation"
	"github.com/bolsillito/bolsillito/pkg/ledger"
	"github.com/bolsillito/bolsillito/pkg/period"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	session *Session
	engine  *allocation.Engine
	ledger  *ledger.Ledger
	store   *storage.MemoryStore
	sched   *scheduler.ManualScheduler
	clock   *utils.MockClock
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	bus := event_bus.NewEventBus()
	engine := allocation.NewEngine(bus)
	cache := aggregation.New(bus, nil, 0)
	clock := &utils.MockClock{FixedNow: time.Date(2024, time.January, 10, 9, 0, 0, 0, time.UTC)}
	ledg := ledger.NewLedger(engine, cache, bus, clock)
	store := storage.NewMemoryStore()
	sched := scheduler.NewManual()
	sess := NewSession(engine, ledg, cache, store, sched, bus, clock, 250*time.Millisecond)
	return fixture{session: sess, engine: engine, ledger: ledg, store: store, sched: sched, clock: clock}
}

func TestLoad_EmptyStoreYieldsDefaults(t *testing.T) {
	f := newFixture(t)

	f.session.Load(context.Background())

	profile := f.engine.Profile()
	assert.Equal(t, 0.0, profile.MonthlyIncome)
	assert.False(t, profile.Confirmed)
	assert.Empty(t, f.ledger.Expenses())
}

func TestLoad_RestoresProfileAndConfirmation(t *testing.T) {
	f := newFixture(t)
	f.store.Seed(keyProfile, `{"ingresoMensual":10000,"presupuestoSemanal":20,"presupuestoMensual":30,"presupuestoAhorros":15}`)
	f.store.Seed(keyIncomeFlag, "true")
	f.store.Seed(keyConfirmedValue, "10000")

	f.session.Load(context.Background())

	profile := f.engine.Profile()
	assert.Equal(t, 20.0, profile.Percentage(allocation.Weekly))
	assert.Equal(t, 30.0, profile.Percentage(allocation.Monthly))
	assert.Equal(t, 15.0, profile.Percentage(allocation.Savings))
	assert.True(t, profile.Confirmed)
	assert.Equal(t, 10000.0, f.engine.EffectiveIncome())
}

func TestLoad_PurgesCorruptKeys(t *testing.T) {
	f := newFixture(t)
	f.store.Seed(keyProfile, "{not json")
	f.store.Seed(keyLineItems, `{"semanal":[{"id":"a","nombre":"Pan","presupuestado":10,"gastado":0}]}`)

	f.session.Load(context.Background())

	// Corrupt key removed, valid key applied.
	_, exists := f.store.Contents()[keyProfile]
	assert.False(t, exists)
	assert.Equal(t, 0.0, f.engine.Profile().MonthlyIncome)
	assert.Len(t, f.ledger.LineItems(allocation.Weekly), 1)
}

func TestLoad_RestoresExpenseHistory(t *testing.T) {
	f := newFixture(t)
	f.store.Seed(keyExpenses, `[{"id":3,"amount":50,"description":"Luz","category":"monthly","times":1,"paid":true,"date":"2024-01-05T00:00:00Z","createdAt":"2024-01-05T10:00:00Z"}]`)

	f.session.Load(context.Background())

	records := f.ledger.Expenses()
	require.Len(t, records, 1)
	assert.Equal(t, int64(3), records[0].ID)
	assert.Equal(t, allocation.Monthly, records[0].CategoryID)
	assert.True(t, records[0].Paid)
}

func TestScheduleSave_CoalescesIntoOneWritePerKey(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.engine.ConfirmIncome(ctx, 10000))

	// Three rapid mutations arm a single pending flush.
	f.engine.SetPercentage(ctx, allocation.Weekly, 20)
	f.engine.SetPercentage(ctx, allocation.Weekly, 25)
	f.engine.SetPercentage(ctx, allocation.Monthly, 30)
	assert.True(t, f.sched.HasPending(saveKey))
	assert.Equal(t, 0, f.store.SetCalls[keyProfile])

	assert.True(t, f.sched.Fire(saveKey))

	assert.Equal(t, 1, f.store.SetCalls[keyProfile])
	var pd profileDoc
	require.NoError(t, json.Unmarshal([]byte(f.store.Contents()[keyProfile]), &pd))
	assert.Equal(t, 25.0, pd.PresupuestoSemanal)
	assert.Equal(t, 30.0, pd.PresupuestoMensual)
	assert.Equal(t, "true", f.store.Contents()[keyIncomeFlag])
	assert.Equal(t, "10000", f.store.Contents()[keyConfirmedValue])
}

func TestFlush_UnconfirmedIncomeRemovesLatchKeys(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.store.Seed(keyIncomeFlag, "true")
	f.store.Seed(keyConfirmedValue, "5000")

	f.engine.SetIncome(ctx, 8000)
	f.session.Flush(ctx)

	contents := f.store.Contents()
	_, hasFlag := contents[keyIncomeFlag]
	_, hasValue := contents[keyConfirmedValue]
	assert.False(t, hasFlag)
	assert.False(t, hasValue)
}

func TestUnavailableStore_DegradesToNoOps(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.store.Unavailable = true

	f.session.Load(ctx)
	require.NoError(t, f.engine.ConfirmIncome(ctx, 10000))
	f.engine.SetPercentage(ctx, allocation.Weekly, 20)
	f.sched.FireAll()

	// Session stays usable, nothing was written.
	assert.Equal(t, 10000.0, f.engine.EffectiveIncome())
	assert.Empty(t, f.store.SetCalls)
}

func TestSummary(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.engine.ConfirmIncome(ctx, 10000))
	f.engine.SetPercentage(ctx, allocation.Weekly, 20)
	f.engine.SetPercentage(ctx, allocation.Savings, 15)

	f.ledger.AddExpense(ctx, ledger.Draft{Amount: 300, Description: "Super", CategoryID: allocation.Weekly, Paid: true})

	summary := f.session.Summary()
	// Weekly dropped to 17% by the paid expense: 1700 + 0 + 1500.
	assert.InDelta(t, 3200.0, summary.TotalBudgeted, 1e-9)
	assert.InDelta(t, 300.0, summary.TotalSpent, 1e-9)
	assert.InDelta(t, 6800.0, summary.Available, 1e-9)
	assert.InDelta(t, 1500.0, summary.SavingsAmount, 1e-9)
	assert.InDelta(t, 15.0, summary.SavingsRate, 1e-9)
	assert.Equal(t, 4, summary.CategoryCount)
}

func TestSummary_AvailableIsIncomeMinusBudgeted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.engine.ConfirmIncome(ctx, 10000))
	f.engine.SetPercentage(ctx, allocation.Weekly, 20)
	f.engine.SetPercentage(ctx, allocation.Monthly, 30)

	summary := f.session.Summary()

	// Nothing spent yet: available is what the allocations leave over, not
	// the income itself.
	assert.InDelta(t, 5000.0, summary.TotalBudgeted, 1e-9)
	assert.InDelta(t, 0.0, summary.TotalSpent, 1e-9)
	assert.InDelta(t, 5000.0, summary.Available, 1e-9)
}

func TestSuggestions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.engine.ConfirmIncome(ctx, 1000))

	// No spend: savings-potential suggestion only.
	suggestions := f.session.Suggestions()
	require.Len(t, suggestions, 1)
	assert.Contains(t, suggestions[0].Text, "ahorros")

	// Spend above 90% of income: warning instead.
	f.ledger.AddExpense(ctx, ledger.Draft{Amount: 950, Description: "Alquiler", CategoryID: allocation.Monthly, Paid: true})
	suggestions = f.session.Suggestions()
	require.Len(t, suggestions, 1)
	assert.Contains(t, suggestions[0].Text, "90%")
}

func TestSuggestions_NoIncomeMeansNoAdvice(t *testing.T) {
	f := newFixture(t)

	assert.Empty(t, f.session.Suggestions())
}

func TestRecordAction_CapsAtOneHundred(t *testing.T) {
	f := newFixture(t)

	for i := 0; i < maxActions+20; i++ {
		f.session.RecordAction("prueba", nil)
	}

	actions := f.session.Actions()
	assert.Len(t, actions, maxActions)
}

func TestNavigate_BlocksPastPeriods(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.session.Navigate(ctx, -1)
	assert.ErrorIs(t, err, ErrPastPeriod)

	window, err := f.session.Navigate(ctx, 1)
	assert.NoError(t, err)
	assert.Equal(t, "Ene 15 - 21, 2024", period.Format(window))

	// Back to the current week is allowed again.
	window, err = f.session.Navigate(ctx, -1)
	assert.NoError(t, err)
	assert.Equal(t, "Ene 8 - 14, 2024", period.Format(window))
}

func TestNavigate_RecordsAction(t *testing.T) {
	f := newFixture(t)

	f.session.Navigate(context.Background(), 1)

	actions := f.session.Actions()
	require.NotEmpty(t, actions)
	assert.Equal(t, "navegacion_periodo", actions[len(actions)-1].Type)
}

func TestExportImportRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.engine.ConfirmIncome(ctx, 10000))
	f.engine.SetPercentage(ctx, allocation.Weekly, 20)
	f.ledger.AddLineItem(ctx, allocation.Weekly, "Super", "🛒", 150)

	data, filename := f.session.ExportCSV()
	assert.Equal(t, "bolsillito-export-2024-01-10.csv", filename)
	assert.True(t, strings.HasPrefix(string(data), "=== PRESUPUESTO ===\n"))

	other := newFixture(t)
	require.NoError(t, other.session.ImportCSV(ctx, data))

	assert.Equal(t, 20.0, other.engine.Profile().Percentage(allocation.Weekly))
	items := other.ledger.LineItems(allocation.Weekly)
	require.Len(t, items, 1)
	assert.Equal(t, "Super", items[0].Name)
	assert.Equal(t, 150.0, items[0].Budgeted)
	// Imported items carry no payment metadata, so they are not paid spend.
	assert.Equal(t, 0.0, other.ledger.CategorySpend(allocation.Weekly))
}

func TestExportCSV_IncludesUnpaidExpenses(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.engine.ConfirmIncome(ctx, 10000))
	f.ledger.AddExpense(ctx, ledger.Draft{Amount: 100, Description: "Dentista", CategoryID: allocation.Weekly, Paid: false})

	data, _ := f.session.ExportCSV()

	assert.Contains(t, string(data), "Dentista,,100,0")
}

func TestImportCSV_RejectsGarbage(t *testing.T) {
	f := newFixture(t)

	err := f.session.ImportCSV(context.Background(), []byte("x"))

	assert.Error(t, err)
}

func TestImportCSV_KeepsExpenseHistoryAndLatch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.engine.ConfirmIncome(ctx, 10000))
	f.ledger.AddExpense(ctx, ledger.Draft{Amount: 50, Description: "Luz", CategoryID: allocation.Monthly})

	data, _ := f.session.ExportCSV()
	require.NoError(t, f.session.ImportCSV(ctx, data))

	assert.Len(t, f.ledger.Expenses(), 1)
	assert.True(t, f.engine.IncomeConfirmed())
}

func TestReset(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.engine.ConfirmIncome(ctx, 10000))
	f.engine.SetPercentage(ctx, allocation.Weekly, 20)
	f.ledger.AddExpense(ctx, ledger.Draft{Amount: 50, Description: "Luz", CategoryID: allocation.Monthly, Paid: true})
	f.session.Flush(ctx)
	require.NotEmpty(t, f.store.Contents())

	f.session.Reset(ctx)

	profile := f.engine.Profile()
	assert.Equal(t, 0.0, profile.MonthlyIncome)
	assert.False(t, profile.Confirmed)
	assert.Equal(t, 0.0, profile.Sum())
	assert.Empty(t, f.ledger.Expenses())
	contents := f.store.Contents()
	_, hasProfile := contents[keyProfile]
	_, hasItems := contents[keyLineItems]
	_, hasExpenses := contents[keyExpenses]
	assert.False(t, hasProfile)
	assert.False(t, hasItems)
	assert.False(t, hasExpenses)
}
