package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/bolsillito/bolsillito/pkg/period"
	"github.com/bolsillito/bolsillito/pkg/snapshot"
	log "github.com/sirupsen/logrus"
)

type SessionHandler struct {
	session *Session
}

func NewSessionHandler(session *Session) *SessionHandler {
	return &SessionHandler{session}
}

func (handler *SessionHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	responseDTO := struct {
		Summary     Summary      `json:"summary"`
		Suggestions []Suggestion `json:"suggestions"`
	}{
		Summary:     handler.session.Summary(),
		Suggestions: handler.session.Suggestions(),
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(responseDTO); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func (handler *SessionHandler) GetPeriod(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	window := handler.session.CurrentWindow()
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(windowToDTO(window)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func (handler *SessionHandler) Navigate(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var navigateDTO struct {
		Direction int    `json:"direction"`
		Type      string `json:"type,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&navigateDTO); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if navigateDTO.Type != "" {
		handler.session.SetPeriodType(period.Type(navigateDTO.Type))
	}
	if navigateDTO.Direction != -1 && navigateDTO.Direction != 1 {
		http.Error(w, "direction must be -1 or 1", http.StatusBadRequest)
		return
	}

	window, err := handler.session.Navigate(r.Context(), navigateDTO.Direction)
	if errors.Is(err, ErrPastPeriod) {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(windowToDTO(window)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func (handler *SessionHandler) Export(w http.ResponseWriter, r *http.Request) {
	data, filename := handler.session.ExportCSV()

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		log.Errorf("failed to write export: %v", err)
	}
}

func (handler *SessionHandler) Import(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	err = handler.session.ImportCSV(r.Context(), data)
	if errors.Is(err, snapshot.ErrInvalidFormat) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (handler *SessionHandler) GetActions(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(handler.session.Actions()); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func (handler *SessionHandler) Reset(w http.ResponseWriter, r *http.Request) {
	handler.session.Reset(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func windowToDTO(window period.Window) any {
	return struct {
		Start string `json:"start"`
		End   string `json:"end"`
		Type  string `json:"type"`
		Label string `json:"label"`
	}{
		Start: window.Start.Format("2006-01-02"),
		End:   window.End.Format("2006-01-02"),
		Type:  string(window.Type),
		Label: period.Format(window),
	}
}
