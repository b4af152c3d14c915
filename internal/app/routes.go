package app

import (
	"github.com/bolsillito/bolsillito/internal/config"
	"github.com/gorilla/mux"
)

// RegisterRoutes registers all API endpoints.
func RegisterRoutes(r *mux.Router, deps *Dependencies, cfg config.Application) {

	// Allocation
	r.HandleFunc("/api/allocation", deps.AllocationHandler.GetProfile).Methods("GET")
	r.HandleFunc("/api/allocation/{category}", deps.AllocationHandler.SetPercentage).Methods("PUT")
	r.HandleFunc("/api/income", deps.AllocationHandler.SetIncome).Methods("PUT")
	r.HandleFunc("/api/income/confirmation", deps.AllocationHandler.ConfirmIncome).Methods("POST")
	r.HandleFunc("/api/income/confirmation", deps.AllocationHandler.EditIncome).Methods("DELETE")

	// Expenses
	r.HandleFunc("/api/expense", deps.LedgerHandler.AddExpense).Methods("POST")
	r.HandleFunc("/api/expense", deps.LedgerHandler.GetExpenses).Methods("GET")
	r.HandleFunc("/api/expense/{id}/paid", deps.LedgerHandler.SetPaid).Methods("PUT")

	// Line items
	r.HandleFunc("/api/category/{category}/item", deps.LedgerHandler.GetLineItems).Methods("GET")
	r.HandleFunc("/api/category/{category}/item", deps.LedgerHandler.AddLineItem).Methods("POST")
	r.HandleFunc("/api/category/item/{id}", deps.LedgerHandler.RemoveLineItem).Methods("DELETE")

	// Session
	r.HandleFunc("/api/summary", deps.SessionHandler.GetSummary).Methods("GET")
	r.HandleFunc("/api/period", deps.SessionHandler.GetPeriod).Methods("GET")
	r.HandleFunc("/api/period/navigate", deps.SessionHandler.Navigate).Methods("POST")
	r.HandleFunc("/api/export", deps.SessionHandler.Export).Methods("GET")
	r.HandleFunc("/api/import", deps.SessionHandler.Import).Methods("POST")
	r.HandleFunc("/api/actions", deps.SessionHandler.GetActions).Methods("GET")
	r.HandleFunc("/api/reset", deps.SessionHandler.Reset).Methods("POST")
}
