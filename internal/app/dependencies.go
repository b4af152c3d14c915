package app

import (
	"context"
	"time"

	"github.com/bolsillito/bolsillito/internal/config"
	"github.com/bolsillito/bolsillito/internal/event_bus"
	"github.com/bolsillito/bolsillito/internal/scheduler"
	"github.com/bolsillito/bolsillito/internal/storage"
	"github.com/bolsillito/bolsillito/internal/utils"
	"github.com/bolsillito/bolsillito/pkg/aggregation"
	"github.com/bolsillito/bolsillito/pkg/allocation"
	"github.com/bolsillito/bolsillito/pkg/ledger"
	"github.com/bolsillito/bolsillito/pkg/session"
)

// Dependencies holds all services and handlers for the application.
type Dependencies struct {
	Bus       *event_bus.EventBus
	Scheduler *scheduler.TimerScheduler
	Store     storage.Store
	Clock     utils.Clock

	AllocationEngine  *allocation.Engine
	AllocationHandler *allocation.AllocationHandler

	AggregationCache *aggregation.Cache

	Ledger        *ledger.Ledger
	LedgerHandler *ledger.LedgerHandler

	Session        *session.Session
	SessionHandler *session.SessionHandler
}

// BuildDependencies initializes and wires all application services and handlers.
func BuildDependencies(store storage.Store, cfg config.Application) *Dependencies {
	deps := &Dependencies{}

	deps.Bus = event_bus.NewEventBus()
	deps.Scheduler = scheduler.New()
	deps.Store = store
	deps.Clock = utils.SystemClock{}

	quiescence := time.Duration(cfg.Batching.CacheQuiescenceMs) * time.Millisecond
	saveWindow := time.Duration(cfg.Batching.SaveWindowMs) * time.Millisecond

	deps.AllocationEngine = allocation.NewEngine(deps.Bus)
	deps.AllocationHandler = allocation.NewAllocationHandler(deps.AllocationEngine)

	deps.AggregationCache = aggregation.New(deps.Bus, deps.Scheduler, quiescence)

	deps.Ledger = ledger.NewLedger(deps.AllocationEngine, deps.AggregationCache, deps.Bus, deps.Clock)
	deps.LedgerHandler = ledger.NewLedgerHandler(deps.Ledger)

	deps.Session = session.NewSession(
		deps.AllocationEngine, deps.Ledger, deps.AggregationCache,
		store, deps.Scheduler, deps.Bus, deps.Clock, saveWindow,
	)
	deps.SessionHandler = session.NewSessionHandler(deps.Session)

	deps.Session.Load(context.Background())

	return deps
}
