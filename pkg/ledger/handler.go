package ledger

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/bolsillito/bolsillito/pkg/allocation"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type ExpenseDTO struct {
	ID          int64     `json:"id"`
	Amount      float64   `json:"amount"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Icon        string    `json:"icon,omitempty"`
	Date        time.Time `json:"date"`
	Times       int       `json:"times,omitempty"`
	Paid        bool      `json:"paid"`
}

type LineItemDTO struct {
	ID       string  `json:"id"`
	Category string  `json:"category"`
	Name     string  `json:"name"`
	Icon     string  `json:"icon,omitempty"`
	Budgeted float64 `json:"budgeted"`
	Spent    float64 `json:"spent"`
}

type LedgerHandler struct {
	ledger *Ledger
}

func NewLedgerHandler(ledger *Ledger) *LedgerHandler {
	return &LedgerHandler{ledger}
}

func (handler *LedgerHandler) AddExpense(w http.ResponseWriter, r *http.Request) {
	log.Debug("Registering new expense")
	w.Header().Set("Content-Type", "application/json")

	var expenseDTO ExpenseDTO
	if err := json.NewDecoder(r.Body).Decode(&expenseDTO); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	draft := Draft{
		Amount:      expenseDTO.Amount,
		Description: expenseDTO.Description,
		CategoryID:  allocation.CategoryID(expenseDTO.Category),
		Icon:        expenseDTO.Icon,
		Date:        expenseDTO.Date,
		Times:       expenseDTO.Times,
		Paid:        expenseDTO.Paid,
	}

	records, err := handler.ledger.AddExpense(r.Context(), draft)
	if err != nil && !errors.Is(err, allocation.ErrNoConfirmedIncome) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	responseDTO := struct {
		Expenses []ExpenseDTO `json:"expenses"`
		Warning  string       `json:"warning,omitempty"`
	}{Expenses: expensesToDTO(records)}
	if err != nil {
		responseDTO.Warning = err.Error()
	}

	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(responseDTO); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func (handler *LedgerHandler) GetExpenses(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(expensesToDTO(handler.ledger.Expenses())); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func (handler *LedgerHandler) SetPaid(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	vars := mux.Vars(r)
	expenseId, err := strconv.ParseInt(vars["id"], 10, 64)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var paidDTO struct {
		Paid bool `json:"paid"`
	}
	if err := json.NewDecoder(r.Body).Decode(&paidDTO); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	err = handler.ledger.SetPaid(r.Context(), expenseId, paidDTO.Paid)
	if errors.Is(err, ErrExpenseNotFound) {
		http.Error(w, "Expense not found", http.StatusNotFound)
		return
	}
	if err != nil && !errors.Is(err, allocation.ErrNoConfirmedIncome) {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (handler *LedgerHandler) GetLineItems(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	category := allocation.CategoryID(mux.Vars(r)["category"])
	if !allocation.ValidCategory(category) {
		http.Error(w, "Category not found", http.StatusNotFound)
		return
	}

	items := handler.ledger.LineItems(category)
	itemsDTO := make([]LineItemDTO, 0, len(items))
	for _, item := range items {
		itemsDTO = append(itemsDTO, lineItemToDTO(item))
	}

	responseDTO := struct {
		Items     []LineItemDTO `json:"items"`
		Spent     float64       `json:"spent"`
		Remaining float64       `json:"remaining"`
	}{
		Items:     itemsDTO,
		Spent:     handler.ledger.CategorySpend(category),
		Remaining: handler.ledger.Remaining(category),
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(responseDTO); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func (handler *LedgerHandler) AddLineItem(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	category := allocation.CategoryID(mux.Vars(r)["category"])

	var itemDTO LineItemDTO
	if err := json.NewDecoder(r.Body).Decode(&itemDTO); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	item, err := handler.ledger.AddLineItem(r.Context(), category, itemDTO.Name, itemDTO.Icon, itemDTO.Budgeted)
	if errors.Is(err, ErrUnknownCategory) {
		http.Error(w, "Category not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(lineItemToDTO(item)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func (handler *LedgerHandler) RemoveLineItem(w http.ResponseWriter, r *http.Request) {
	itemId := mux.Vars(r)["id"]

	err := handler.ledger.RemoveLineItem(r.Context(), itemId)
	if errors.Is(err, ErrLineItemNotFound) {
		http.Error(w, "Line item not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func expensesToDTO(records []ExpenseRecord) []ExpenseDTO {
	dtos := make([]ExpenseDTO, 0, len(records))
	for _, record := range records {
		dtos = append(dtos, ExpenseDTO{
			ID:          record.ID,
			Amount:      record.Amount,
			Description: record.Description,
			Category:    string(record.CategoryID),
			Icon:        record.Icon,
			Date:        record.Date,
			Times:       record.Times,
			Paid:        record.Paid,
		})
	}
	return dtos
}

func lineItemToDTO(item LineItem) LineItemDTO {
	return LineItemDTO{
		ID:       item.ID,
		Category: string(item.CategoryID),
		Name:     item.Name,
		Icon:     item.Icon,
		Budgeted: item.Budgeted,
		Spent:    item.Spent,
	}
}
