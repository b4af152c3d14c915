package snapshot

import (
	"bytes"
	"encoding/csv"
	"errors"
	"strconv"
	"strings"

	"github.com/bolsillito/bolsillito/internal/utils"
)

// Section markers. Matching is substring-based on read, so a file that
// survived a spreadsheet round trip (extra cells, quoting) still parses.
const (
	markerBudget  = "=== PRESUPUESTO ==="
	markerWeekly  = "=== CATEGORIAS SEMANAL ==="
	markerMonthly = "=== CATEGORIAS MENSUAL ==="
	markerSavings = "=== CATEGORIAS AHORROS ==="

	labelIncome  = "Ingreso Mensual"
	labelWeekly  = "Presupuesto Semanal"
	labelMonthly = "Presupuesto Mensual"
	labelSavings = "Presupuesto Ahorros"
)

var ErrInvalidFormat = errors.New("unrecognized export format")

// ToCSV renders the state in the sectioned export layout. Category sections
// are emitted even when empty, so a re-import always sees every marker.
func ToCSV(s State) []byte {
	var buf bytes.Buffer

	buf.WriteString(markerBudget + "\n")
	w := csv.NewWriter(&buf)
	w.Write([]string{labelIncome, formatAmount(s.MonthlyIncome)})
	w.Write([]string{labelWeekly, formatAmount(s.WeeklyPct)})
	w.Write([]string{labelMonthly, formatAmount(s.MonthlyPct)})
	w.Write([]string{labelSavings, formatAmount(s.SavingsPct)})
	w.Flush()
	buf.WriteString("\n")

	writeSection(&buf, markerWeekly, s.Weekly)
	writeSection(&buf, markerMonthly, s.Monthly)
	writeSection(&buf, markerSavings, s.Savings)

	return buf.Bytes()
}

func writeSection(buf *bytes.Buffer, marker string, items []ItemSnapshot) {
	buf.WriteString(marker + "\n")
	w := csv.NewWriter(buf)
	for _, item := range items {
		w.Write([]string{item.Name, item.Icon, formatAmount(item.Budgeted), formatAmount(item.Spent)})
	}
	w.Flush()
	buf.WriteString("\n")
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(utils.SanitizeAmount(v), 'f', -1, 64)
}

// FromCSV parses an export back into a State. Unknown lines are skipped,
// malformed numbers coerce to zero, and rows outside any known section are
// ignored. A file with fewer than two non-empty lines is rejected.
func FromCSV(data []byte) (State, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return State{}, ErrInvalidFormat
	}

	nonEmpty := 0
	for _, record := range records {
		if !recordEmpty(record) {
			nonEmpty++
		}
	}
	if nonEmpty < 2 {
		return State{}, ErrInvalidFormat
	}

	var s State
	section := ""
	for _, record := range records {
		if recordEmpty(record) {
			continue
		}
		switch {
		case strings.Contains(record[0], markerBudget):
			section = "budget"
			continue
		case strings.Contains(record[0], markerWeekly):
			section = "weekly"
			continue
		case strings.Contains(record[0], markerMonthly):
			section = "monthly"
			continue
		case strings.Contains(record[0], markerSavings):
			section = "savings"
			continue
		}

		switch section {
		case "budget":
			if len(record) < 2 {
				continue
			}
			value := utils.ParseAmount(record[1])
			switch strings.TrimSpace(record[0]) {
			case labelIncome:
				s.MonthlyIncome = value
			case labelWeekly:
				s.WeeklyPct = value
			case labelMonthly:
				s.MonthlyPct = value
			case labelSavings:
				s.SavingsPct = value
			}
		case "weekly", "monthly", "savings":
			if len(record) < 4 {
				continue
			}
			item := ItemSnapshot{
				Name:     strings.TrimSpace(record[0]),
				Icon:     strings.TrimSpace(record[1]),
				Budgeted: utils.ParseAmount(record[2]),
				Spent:    utils.ParseAmount(record[3]),
			}
			switch section {
			case "weekly":
				s.Weekly = append(s.Weekly, item)
			case "monthly":
				s.Monthly = append(s.Monthly, item)
			case "savings":
				s.Savings = append(s.Savings, item)
			}
		}
	}
	return s, nil
}

func recordEmpty(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}
