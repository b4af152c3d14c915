package allocation

import (
	"context"
	"sync"

	"github.com/bolsillito/bolsillito/internal/event_bus"
	"github.com/bolsillito/bolsillito/internal/utils"
	log "github.com/sirupsen/logrus"
)

// Engine owns the allocation profile and enforces its one invariant: the
// three bucket percentages never sum above 100 after an engine-mediated
// mutation. Out-of-range requests are clamped, never stored.
//
// Effective income: once an income is confirmed it is the single basis for
// every derived amount, including the automatic reduction applied by paid
// expenses. The live input only matters while nothing is confirmed.
type Engine struct {
	mu      sync.Mutex
	profile Profile
	bus     *event_bus.EventBus
}

func NewEngine(bus *event_bus.EventBus) *Engine {
	return &Engine{profile: NewProfile(), bus: bus}
}

// Profile returns a copy of the current allocation state.
func (e *Engine) Profile() Profile {
	e.mu.Lock()
	defer e.mu.Unlock()
	p := e.profile
	p.Categories = append([]Category(nil), e.profile.Categories...)
	return p
}

// Restore replaces the whole profile, clamping every bucket so the restored
// state also honors the 100% pool. Used by load and CSV import.
func (e *Engine) Restore(ctx context.Context, p Profile) {
	e.mu.Lock()
	fresh := NewProfile()
	fresh.MonthlyIncome = utils.ClampAmount(p.MonthlyIncome, 0, MaxIncome)
	fresh.ConfirmedIncome = utils.ClampAmount(p.ConfirmedIncome, 0, MaxIncome)
	fresh.Confirmed = p.Confirmed && fresh.ConfirmedIncome > 0
	remaining := 100.0
	for i := range fresh.Categories {
		pct := utils.ClampAmount(p.Percentage(fresh.Categories[i].ID), 0, remaining)
		fresh.Categories[i].Percentage = pct
		remaining -= pct
	}
	e.profile = fresh
	e.mu.Unlock()

	e.publishIncome(ctx)
}

// SetPercentage applies the requested percentage to the edited bucket,
// clamped to the headroom the other buckets leave. The edited bucket always
// absorbs the clamp; the others are never touched. Returns the applied value
// so the caller can tell the user when it differs from the request.
func (e *Engine) SetPercentage(ctx context.Context, id CategoryID, requested float64) (float64, error) {
	e.mu.Lock()
	i := e.profile.index(id)
	if i < 0 {
		e.mu.Unlock()
		return 0, ErrUnknownCategory
	}

	headroom := 100 - e.profile.SumOthers(id)
	applied := utils.ClampAmount(requested, 0, max(0, headroom))
	e.profile.Categories[i].Percentage = applied
	e.mu.Unlock()

	if applied != requested {
		log.Debugf("percentage for %s clamped from %v to %v", id, requested, applied)
	}
	e.publish(ctx, event_bus.TypeAllocationChanged, event_bus.AllocationChanged{
		CategoryID: string(id),
		Percentage: applied,
	})
	return applied, nil
}

// MaxAvailable returns the largest percentage id could take without the pool
// exceeding 100.
func (e *Engine) MaxAvailable(id CategoryID) float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return max(0, 100-e.profile.SumOthers(id))
}

// EffectiveIncome is the income every derived amount is computed from.
func (e *Engine) EffectiveIncome() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.effectiveIncomeLocked()
}

func (e *Engine) effectiveIncomeLocked() float64 {
	if e.profile.Confirmed {
		return e.profile.ConfirmedIncome
	}
	return utils.SanitizeAmount(e.profile.MonthlyIncome)
}

// DerivedAmount converts a bucket's percentage into currency.
func (e *Engine) DerivedAmount(id CategoryID) float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.effectiveIncomeLocked() * e.profile.Percentage(id) / 100
}

// ReduceBySpend lowers a bucket's budget by a paid amount: the current
// derived amount minus spent (floored at 0) is converted back into a
// percentage of the confirmed income and applied through SetPercentage.
// Without a confirmed income the profile is left untouched, so spending can
// never silently reshape a still-editable income basis.
func (e *Engine) ReduceBySpend(ctx context.Context, id CategoryID, spent float64) error {
	e.mu.Lock()
	if !e.profile.Confirmed || e.profile.ConfirmedIncome <= 0 {
		e.mu.Unlock()
		log.Warnf("cannot reduce %s budget by %v: income not confirmed", id, spent)
		return ErrNoConfirmedIncome
	}
	income := e.profile.ConfirmedIncome
	current := income * e.profile.Percentage(id) / 100
	e.mu.Unlock()

	target := max(0, current-utils.SanitizeAmount(spent))
	newPct := target / income * 100
	applied, err := e.SetPercentage(ctx, id, newPct)
	if err != nil {
		return err
	}
	log.Debugf("budget for %s reduced: %v -> %v (%.2f%%)", id, current, target, applied)
	return nil
}

// SetIncome updates the live income input. Values are sanitized and clamped
// to [0, MaxIncome]; a confirmed income is unaffected until EditIncome.
func (e *Engine) SetIncome(ctx context.Context, value float64) {
	e.mu.Lock()
	e.profile.MonthlyIncome = utils.ClampAmount(value, 0, MaxIncome)
	e.mu.Unlock()

	e.publishIncome(ctx)
}

// ConfirmIncome latches the given value as the confirmed income basis.
// Fails for non-positive or over-cap values, leaving the profile unchanged.
func (e *Engine) ConfirmIncome(ctx context.Context, value float64) error {
	value = utils.SanitizeAmount(value)
	if value <= 0 || value > MaxIncome {
		return ErrInvalidIncome
	}

	e.mu.Lock()
	e.profile.ConfirmedIncome = value
	e.profile.MonthlyIncome = value
	e.profile.Confirmed = true
	e.mu.Unlock()

	log.Infof("income confirmed at %v", value)
	e.publishIncome(ctx)
	return nil
}

// EditIncome clears the confirmation latch, returning the live input to
// service as the effective income.
func (e *Engine) EditIncome(ctx context.Context) {
	e.mu.Lock()
	e.profile.Confirmed = false
	e.profile.ConfirmedIncome = 0
	e.mu.Unlock()

	e.publishIncome(ctx)
}

// IncomeConfirmed reports whether a confirmed income is in effect.
func (e *Engine) IncomeConfirmed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.profile.Confirmed
}

func (e *Engine) publishIncome(ctx context.Context) {
	e.mu.Lock()
	data := event_bus.IncomeChanged{Value: e.effectiveIncomeLocked(), Confirmed: e.profile.Confirmed}
	e.mu.Unlock()
	e.publish(ctx, event_bus.TypeIncomeChanged, data)
}

func (e *Engine) publish(ctx context.Context, t event_bus.EventType, data any) {
	if e.bus == nil {
		return
	}
	if err := e.bus.Publish(event_bus.NewEvent(ctx, t, data)); err != nil {
		log.Errorf("failed to publish %s: %v", t, err)
	}
}
