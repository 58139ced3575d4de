package http

import (
	"net/http"
	"strings"

	"echobo/internal/core"
	"echobo/internal/view"
)

// page is the template data for the full layout and the "app" partial.
type page struct {
	Screen view.Screen
	Nav    []navItem
}

type navItem struct {
	View   core.View
	Label  string
	Active bool
}

var navLabels = map[core.View]string{
	core.ViewDashboard:  "ダッシュボード",
	core.ViewAddExpense: "経費入力",
	core.ViewReport:     "レポート",
}

func newPage(sc view.Screen) page {
	views := []core.View{core.ViewDashboard, core.ViewAddExpense, core.ViewReport}
	nav := make([]navItem, len(views))
	for i, v := range views {
		nav[i] = navItem{View: v, Label: navLabels[v], Active: v == sc.View}
	}
	return page{Screen: sc, Nav: nav}
}

// parseForm reads a bounded urlencoded body and strips control characters
// from every value.
func parseForm(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		return err
	}
	for key, values := range r.PostForm {
		for i, v := range values {
			r.PostForm[key][i] = sanitizeInput(v)
		}
	}
	return nil
}

// sanitizeInput removes control characters except tab, newline and carriage
// return, and trims surrounding whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
