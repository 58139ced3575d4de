// Package view turns application state into one of three screens and keeps
// the screen's input handlers bound.
package view

import (
	"time"

	"echobo/internal/core"
	"echobo/internal/export"
)

// Chart placeholders for the three months before the current period. They are
// fixed values, not derived from the ledger.
var (
	chartLabels       = []string{"5月", "6月", "7月", "8月"}
	chartPlaceholders = []int64{120000, 190000, 150000}
)

// Screen describes exactly one rendered view. Only the body matching View is
// non-nil.
type Screen struct {
	View    core.View
	Title   string
	Actions []Action

	Dashboard  *DashboardScreen
	AddExpense *AddExpenseScreen
	Report     *ReportScreen

	// ResetScroll asks the client to scroll to the top. Set on transitions.
	ResetScroll bool
}

type DashboardScreen struct {
	Sales          int64
	TotalExpenses  int64
	Profit         int64
	ProfitPositive bool
	Chart          ChartData
}

// ChartData is what the chart collaborator receives: a label per bar and
// one value per label.
type ChartData struct {
	Labels []string `json:"labels"`
	Series []int64  `json:"series"`
}

type AddExpenseScreen struct {
	Categories  []CategoryOption
	Selected    core.Category
	DefaultDate string
}

type CategoryOption struct {
	Category core.Category
	Label    string
	Selected bool
}

type ReportScreen struct {
	Sales          int64
	TotalExpenses  int64
	Profit         int64
	Breakdown      []BreakdownRow
	ExportFileName string
}

type BreakdownRow struct {
	Category core.Category
	Label    string
	Amount   int64
}

// Render maps state to a screen description. It has no side effects and
// returns equal screens for equal inputs.
func Render(state core.AppState, now time.Time) Screen {
	v := core.ParseView(string(state.Session.CurrentView))
	sc := Screen{View: v, Title: v.Title()}

	switch v {
	case core.ViewAddExpense:
		sc.AddExpense = renderAddExpense(state.Session.SelectedCategory, now)
		sc.Actions = []Action{ActionSelectCategory, ActionSubmitExpense}
	case core.ViewReport:
		sc.Report = renderReport(state.Ledger)
		sc.Actions = []Action{ActionExportCSV}
	default:
		sc.Dashboard = renderDashboard(state.Ledger)
	}
	return sc
}

func renderDashboard(l core.Ledger) *DashboardScreen {
	sum := core.Summarize(l)
	series := make([]int64, 0, len(chartLabels))
	series = append(series, chartPlaceholders...)
	series = append(series, sum.Profit)

	return &DashboardScreen{
		Sales:          sum.Sales,
		TotalExpenses:  sum.TotalExpenses,
		Profit:         sum.Profit,
		ProfitPositive: sum.Profit > 0,
		Chart: ChartData{
			Labels: append([]string(nil), chartLabels...),
			Series: series,
		},
	}
}

func renderAddExpense(selected core.Category, now time.Time) *AddExpenseScreen {
	cats := core.Categories()
	opts := make([]CategoryOption, len(cats))
	for i, c := range cats {
		opts[i] = CategoryOption{Category: c, Label: c.Label(), Selected: c == selected}
	}
	return &AddExpenseScreen{
		Categories:  opts,
		Selected:    selected,
		DefaultDate: now.Format(core.DateLayout),
	}
}

func renderReport(l core.Ledger) *ReportScreen {
	sum := core.Summarize(l)
	rows := make([]BreakdownRow, len(sum.ByCategory))
	for i, ca := range sum.ByCategory {
		rows[i] = BreakdownRow{Category: ca.Category, Label: ca.Category.Label(), Amount: ca.Amount}
	}
	return &ReportScreen{
		Sales:          sum.Sales,
		TotalExpenses:  sum.TotalExpenses,
		Profit:         sum.Profit,
		Breakdown:      rows,
		ExportFileName: export.FileName,
	}
}
