package core

import (
	"errors"
	"strings"
	"time"
)

// DateLayout is the ISO 8601 calendar date layout used for every ledger date.
const DateLayout = "2006-01-02"

const (
	ViewDashboard  View = "dashboard"
	ViewAddExpense View = "addExpense"
	ViewReport     View = "report"
)

const (
	CategoryMaterials   Category = "materials"
	CategoryLabor       Category = "labor"
	CategoryRent        Category = "rent"
	CategoryUtilities   Category = "utilities"
	CategoryAdvertising Category = "advertising"
	CategoryOther       Category = "other"
)

type (
	// View names one of the three mutually exclusive screens.
	View string

	// Category is an expense label from a fixed closed set.
	Category string

	// Expense is one ledger entry. Records are never modified once appended.
	Expense struct {
		Date     string   `json:"date"`
		Amount   int64    `json:"amount"`
		Category Category `json:"category"`
		Memo     string   `json:"memo"`
	}

	Sales struct {
		Month int64 `json:"month"`
	}

	// Ledger is the durable part of the application state.
	Ledger struct {
		Sales    Sales     `json:"sales"`
		Expenses []Expense `json:"expenses"`
	}

	// Session holds UI-only state. It is never persisted.
	Session struct {
		CurrentView      View
		SelectedCategory Category // empty when nothing is selected
	}

	// AppState is the canonical state of a running session.
	AppState struct {
		Ledger  Ledger
		Session Session
	}

	// ExpenseDraft is the form input for a new record. The category comes
	// from the session selection, not from the draft.
	ExpenseDraft struct {
		Date   string
		Amount int64 // zero means missing
		Memo   string
	}
)

var (
	ErrValidation      = errors.New("validation failed")
	ErrUnknownCategory = errors.New("unknown category")
)

var categoryLabels = map[Category]string{
	CategoryMaterials:   "材料費",
	CategoryLabor:       "人件費",
	CategoryRent:        "家賃",
	CategoryUtilities:   "水道・光熱費",
	CategoryAdvertising: "広告費",
	CategoryOther:       "その他",
}

var viewTitles = map[View]string{
	ViewDashboard:  "ダッシュボード",
	ViewAddExpense: "経費の入力",
	ViewReport:     "レポートと申告",
}

// ParseView maps a requested view name to a valid View. Unknown names fall
// back to the dashboard.
func ParseView(s string) View {
	switch v := View(strings.TrimSpace(s)); v {
	case ViewAddExpense, ViewReport:
		return v
	default:
		return ViewDashboard
	}
}

// Title returns the header title shown for the view.
func (v View) Title() string {
	return viewTitles[ParseView(string(v))]
}

func (v View) String() string { return string(v) }

// Categories returns the closed set of categories in display order.
func Categories() []Category {
	return []Category{
		CategoryMaterials,
		CategoryLabor,
		CategoryRent,
		CategoryUtilities,
		CategoryAdvertising,
		CategoryOther,
	}
}

// Valid reports whether c belongs to the closed category set.
func (c Category) Valid() bool {
	_, ok := categoryLabels[c]
	return ok
}

// Label returns the display label, or the raw value for unknown categories
// found in loaded data.
func (c Category) Label() string {
	if l, ok := categoryLabels[c]; ok {
		return l
	}
	return string(c)
}

func (c Category) String() string { return string(c) }

// ValidationError names every missing or invalid field of a submission.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "missing or invalid required fields: " + strings.Join(e.Fields, ", ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Validate checks a draft against the selected category and returns a
// *ValidationError listing each bad field, or nil.
func (d ExpenseDraft) Validate(selected Category) error {
	var fields []string
	if d.Amount <= 0 {
		fields = append(fields, "amount")
	}
	if !selected.Valid() {
		fields = append(fields, "category")
	}
	if !validDate(d.Date) {
		fields = append(fields, "date")
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// Expense builds the record for a validated draft.
func (d ExpenseDraft) Expense(category Category) Expense {
	return Expense{
		Date:     strings.TrimSpace(d.Date),
		Amount:   d.Amount,
		Category: category,
		Memo:     d.Memo,
	}
}

func validDate(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	_, err := time.Parse(DateLayout, s)
	return err == nil
}

// Clone returns a deep copy so callers cannot alias the expense slice.
func (s AppState) Clone() AppState {
	out := s
	out.Ledger = s.Ledger.Clone()
	return out
}

// Clone returns a deep copy of the ledger.
func (l Ledger) Clone() Ledger {
	out := l
	if l.Expenses != nil {
		out.Expenses = make([]Expense, len(l.Expenses))
		copy(out.Expenses, l.Expenses)
	}
	return out
}
