package allocation

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type CategoryDTO struct {
	ID         string  `json:"id"`
	Percentage float64 `json:"percentage"`
	Amount     float64 `json:"amount"`
}

type ProfileDTO struct {
	MonthlyIncome   float64       `json:"monthlyIncome"`
	EffectiveIncome float64       `json:"effectiveIncome"`
	IncomeConfirmed bool          `json:"incomeConfirmed"`
	Categories      []CategoryDTO `json:"categories"`
}

type AllocationHandler struct {
	engine *Engine
}

func NewAllocationHandler(engine *Engine) *AllocationHandler {
	return &AllocationHandler{engine}
}

func (handler *AllocationHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	dto := handler.profileDTO()

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(dto); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func (handler *AllocationHandler) SetPercentage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	vars := mux.Vars(r)
	category := CategoryID(vars["category"])

	var requestDTO struct {
		Percentage float64 `json:"percentage"`
	}
	if err := json.NewDecoder(r.Body).Decode(&requestDTO); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	applied, err := handler.engine.SetPercentage(r.Context(), category, requestDTO.Percentage)
	if err != nil {
		if errors.Is(err, ErrUnknownCategory) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	responseDTO := struct {
		Applied  float64 `json:"applied"`
		Adjusted bool    `json:"adjusted"`
	}{Applied: applied, Adjusted: applied != requestDTO.Percentage}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(responseDTO); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func (handler *AllocationHandler) SetIncome(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var incomeDTO struct {
		Value float64 `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&incomeDTO); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	handler.engine.SetIncome(r.Context(), incomeDTO.Value)

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(handler.profileDTO()); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func (handler *AllocationHandler) ConfirmIncome(w http.ResponseWriter, r *http.Request) {
	log.Debug("Confirming income")
	w.Header().Set("Content-Type", "application/json")

	var incomeDTO struct {
		Value float64 `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&incomeDTO); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := handler.engine.ConfirmIncome(r.Context(), incomeDTO.Value); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(handler.profileDTO()); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func (handler *AllocationHandler) EditIncome(w http.ResponseWriter, r *http.Request) {
	handler.engine.EditIncome(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func (handler *AllocationHandler) profileDTO() ProfileDTO {
	profile := handler.engine.Profile()
	categories := make([]CategoryDTO, 0, len(profile.Categories))
	for _, c := range profile.Categories {
		categories = append(categories, CategoryDTO{
			ID:         string(c.ID),
			Percentage: c.Percentage,
			Amount:     handler.engine.DerivedAmount(c.ID),
		})
	}
	return ProfileDTO{
		MonthlyIncome:   profile.MonthlyIncome,
		EffectiveIncome: handler.engine.EffectiveIncome(),
		IncomeConfirmed: profile.Confirmed,
		Categories:      categories,
	}
}
