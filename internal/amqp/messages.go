package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"echobo/internal/core"
)

// ExpenseRecordedMessage announces one expense that was durably appended to
// the ledger. Records are immutable, so the message carries the full record.
type ExpenseRecordedMessage struct {
	MessageID string        `json:"message_id"`
	Index     int           `json:"index"`
	Date      string        `json:"date"`
	Amount    int64         `json:"amount"`
	Category  core.Category `json:"category"`
	Memo      string        `json:"memo"`
	Timestamp time.Time     `json:"timestamp"`
}

// NewExpenseRecordedMessage wraps the record at position index of the ledger.
func NewExpenseRecordedMessage(e core.Expense, index int) *ExpenseRecordedMessage {
	return &ExpenseRecordedMessage{
		MessageID: uuid.NewString(),
		Index:     index,
		Date:      e.Date,
		Amount:    e.Amount,
		Category:  e.Category,
		Memo:      e.Memo,
		Timestamp: time.Now(),
	}
}

// Expense returns the carried record.
func (m *ExpenseRecordedMessage) Expense() core.Expense {
	return core.Expense{Date: m.Date, Amount: m.Amount, Category: m.Category, Memo: m.Memo}
}

// Validate rejects messages that could never be mirrored.
func (m *ExpenseRecordedMessage) Validate() error {
	var errs []error
	if _, err := uuid.Parse(m.MessageID); err != nil {
		errs = append(errs, fmt.Errorf("message_id: %w", err))
	}
	if m.Index < 0 {
		errs = append(errs, fmt.Errorf("index %d is negative", m.Index))
	}
	if m.Amount <= 0 {
		errs = append(errs, fmt.Errorf("amount %d is not positive", m.Amount))
	}
	if !m.Category.Valid() {
		errs = append(errs, fmt.Errorf("%w: %q", core.ErrUnknownCategory, m.Category))
	}
	if _, err := time.Parse(core.DateLayout, m.Date); err != nil {
		errs = append(errs, fmt.Errorf("date %q: %w", m.Date, err))
	}
	return errors.Join(errs...)
}

// ToJSON converts the message to JSON bytes
func (m *ExpenseRecordedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ExpenseRecordedMessageFromJSON creates a message from JSON bytes
func ExpenseRecordedMessageFromJSON(data []byte) (*ExpenseRecordedMessage, error) {
	var msg ExpenseRecordedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
