package view

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"echobo/internal/core"
	"echobo/internal/export"
	"echobo/internal/log"
)

// User-facing messages.
const (
	MsgRequiredFields  = "金額、費用の種類、日付は必須です。"
	MsgExpenseRecorded = "経費を登録しました！"
	MsgExported        = "CSVファイルをダウンロードしました。"
)

func (s *Synchronizer) selectCategory(ctx context.Context, form url.Values) (Result, error) {
	c := core.Category(strings.TrimSpace(form.Get("category")))
	if err := s.store.SelectCategory(c); err != nil {
		return Result{}, err
	}
	sc := s.sync(ctx)
	return Result{Screen: &sc, Partial: PartialCategoryChooser}, nil
}

// submitExpense records the form. A validation failure leaves the user on
// the form with a blocking message; success moves to the dashboard.
func (s *Synchronizer) submitExpense(ctx context.Context, form url.Values) (Result, error) {
	// Unparseable amounts count as missing.
	amount, _ := core.ParseAmount(form.Get("amount"))
	draft := core.ExpenseDraft{
		Date:   strings.TrimSpace(form.Get("date")),
		Amount: amount,
		Memo:   singleLine(form.Get("memo")),
	}

	if err := s.store.AddExpense(ctx, draft); err != nil {
		if errors.Is(err, core.ErrValidation) {
			return Result{Message: MsgRequiredFields, Blocking: true}, err
		}
		return Result{}, err
	}

	sc := s.navigate(ctx, core.ViewDashboard)
	return Result{Screen: &sc, Partial: PartialScreen, Message: MsgExpenseRecorded}, nil
}

// exportCSV hands the full ledger to the exporter. No year filter applies.
func (s *Synchronizer) exportCSV(ctx context.Context, _ url.Values) (Result, error) {
	expenses := s.store.Snapshot().Ledger.Expenses
	body := export.CSV(expenses)
	s.logger.InfoContext(ctx, "Ledger exported",
		log.FieldOperation, log.OpExport,
		log.FieldRecords, len(expenses))
	return Result{
		Download: &Download{
			FileName:    export.FileName,
			ContentType: export.ContentType,
			Body:        body,
		},
		Message: MsgExported,
	}, nil
}

var lineBreaks = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ")

// singleLine flattens a memo to one line. Exported CSV rows are not quoted,
// so a line break would split a record across lines.
func singleLine(s string) string {
	return strings.TrimSpace(lineBreaks.Replace(s))
}
