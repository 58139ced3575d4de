// Package worker applies expense-recorded events to the spreadsheet mirror.
package worker

import (
	"context"
	"errors"
	"fmt"

	"echobo/internal/amqp"
	"echobo/internal/cache"
	"echobo/internal/log"
	"echobo/internal/sheets"
	"echobo/internal/storage"
)

// LedgerSync mirrors recorded expenses into a LedgerWriter.
type LedgerSync struct {
	writer sheets.LedgerWriter
	logger *log.Logger
	// message ID -> written range, for skipping redeliveries
	recent cache.Cache[string]
}

// Option configures a LedgerSync.
type Option func(*LedgerSync)

// WithRecent remembers mirrored message IDs so redeliveries skip the write.
func WithRecent(c cache.Cache[string]) Option {
	return func(w *LedgerSync) { w.recent = c }
}

func NewLedgerSync(writer sheets.LedgerWriter, logger *log.Logger, opts ...Option) *LedgerSync {
	if logger == nil {
		logger = log.Discard()
	}
	w := &LedgerSync{writer: writer, logger: logger.WithComponent(log.ComponentWorker)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start writes the header row. It is safe to call on every boot.
func (w *LedgerSync) Start(ctx context.Context) error {
	if err := w.writer.WriteHeader(ctx); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	return nil
}

// Handle mirrors one message. Malformed messages are wrapped in
// amqp.ErrDiscard so the consumer drops them; write failures are returned
// as-is and the message is requeued.
func (w *LedgerSync) Handle(ctx context.Context, msg *amqp.ExpenseRecordedMessage) error {
	if err := msg.Validate(); err != nil {
		w.logger.WarnContext(ctx, "Discarding invalid message",
			"message_id", msg.MessageID,
			log.FieldError, err)
		return fmt.Errorf("%w: %w", amqp.ErrDiscard, err)
	}

	if w.recent != nil {
		if ref, ok := w.recent.Get(msg.MessageID); ok {
			w.logger.DebugContext(ctx, "Skipping redelivered message", "message_id", msg.MessageID, "ref", ref)
			return nil
		}
	}

	e := msg.Expense()
	ref, err := w.writer.WriteExpense(ctx, msg.Index, e)
	if err != nil {
		return fmt.Errorf("mirror record %d: %w", msg.Index, err)
	}
	if w.recent != nil {
		w.recent.Set(msg.MessageID, ref)
	}

	w.logger.InfoContext(ctx, "Record mirrored",
		append(log.NewFields().
			WithOperation(log.OpSync).
			WithExpense(e.Date, e.Amount, e.Category.String()).
			ToSlice(), "message_id", msg.MessageID, "index", msg.Index, "ref", ref)...)
	return nil
}

// Reconcile rewrites every record of the stored ledger. Rows are keyed by
// ledger index, so this repairs gaps left by lost messages without creating
// duplicates.
func (w *LedgerSync) Reconcile(ctx context.Context, p storage.Persister) (int, error) {
	ledger, err := p.Load(ctx)
	if err != nil {
		return 0, fmt.Errorf("load ledger: %w", err)
	}
	if ledger == nil {
		w.logger.InfoContext(ctx, "No stored ledger to reconcile")
		return 0, nil
	}

	var errs []error
	written := 0
	for i, e := range ledger.Expenses {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		if _, err := w.writer.WriteExpense(ctx, i, e); err != nil {
			errs = append(errs, fmt.Errorf("record %d: %w", i, err))
			continue
		}
		written++
	}

	w.logger.InfoContext(ctx, "Reconcile finished",
		log.FieldOperation, log.OpSync,
		log.FieldRecords, written,
		"failed", len(errs))
	return written, errors.Join(errs...)
}
