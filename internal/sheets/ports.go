// Package sheets defines the outbound port for mirroring the ledger to a
// spreadsheet.
package sheets

import (
	"context"

	"echobo/internal/core"
)

// Columns is the header row of the mirror. It matches the CSV export.
var Columns = []string{"date", "category", "memo", "amount"}

// LedgerWriter mirrors ledger records into a spreadsheet. Record index i
// always lands on the same row, so writing a record twice is harmless.
type LedgerWriter interface {
	WriteHeader(ctx context.Context) error
	WriteExpense(ctx context.Context, index int, e core.Expense) (rowRef string, err error)
}

// RowFor is the 1-based sheet row of ledger record index. Row 1 holds the
// header.
func RowFor(index int) int {
	return index + 2
}

// RowValues is the cell content of one record, in Columns order.
func RowValues(e core.Expense) []any {
	return []any{e.Date, string(e.Category), e.Memo, e.Amount}
}
