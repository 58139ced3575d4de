// Package google mirrors ledger records into a Google Sheet.
package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"echobo/internal/core"
	"echobo/internal/log"
	ports "echobo/internal/sheets"
)

// valueInputRaw stores cells as typed, so memos like "=1+1" or "8月分" are
// never interpreted by Sheets.
const valueInputRaw = "RAW"

var ErrMissingCredentials = errors.New("missing service account credentials")

// Config selects the spreadsheet and the service account used to write it.
// CredentialsJSON wins over CredentialsFile when both are set.
type Config struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsJSON string
	CredentialsFile string
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheet         string
	logger        *log.Logger
}

var _ ports.LedgerWriter = (*Client)(nil)

// New creates a Sheets client authenticated with a service account.
func New(ctx context.Context, cfg Config, logger *log.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	creds, err := readCredentials(cfg)
	if err != nil {
		return nil, err
	}
	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return newWithService(svc, cfg, logger), nil
}

func newWithService(svc *gsheet.Service, cfg Config, logger *log.Logger) *Client {
	if logger == nil {
		logger = log.Discard()
	}
	sheet := strings.TrimSpace(cfg.SheetName)
	if sheet == "" {
		sheet = "Sheet1"
	}
	return &Client{
		svc:           svc,
		spreadsheetID: strings.TrimSpace(cfg.SpreadsheetID),
		sheet:         sheet,
		logger:        logger.WithComponent(log.ComponentSheets),
	}
}

func readCredentials(cfg Config) ([]byte, error) {
	switch {
	case strings.TrimSpace(cfg.CredentialsJSON) != "":
		return []byte(cfg.CredentialsJSON), nil
	case strings.TrimSpace(cfg.CredentialsFile) != "":
		b, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	default:
		return nil, ErrMissingCredentials
	}
}

// WriteHeader puts the column names in row 1.
func (c *Client) WriteHeader(ctx context.Context) error {
	header := make([]any, len(ports.Columns))
	for i, col := range ports.Columns {
		header[i] = col
	}
	rng := c.rowRange(1)
	if err := c.update(ctx, rng, header); err != nil {
		return err
	}
	c.logger.DebugContext(ctx, "Header written", "range", rng)
	return nil
}

// WriteExpense writes record index to its fixed row and returns the A1 range
// that was written.
func (c *Client) WriteExpense(ctx context.Context, index int, e core.Expense) (string, error) {
	if index < 0 {
		return "", fmt.Errorf("invalid record index %d", index)
	}
	rng := c.rowRange(ports.RowFor(index))
	if err := c.update(ctx, rng, ports.RowValues(e)); err != nil {
		return "", err
	}
	return rng, nil
}

func (c *Client) update(ctx context.Context, rng string, row []any) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	vr := &gsheet.ValueRange{Values: [][]any{row}}
	_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
		ValueInputOption(valueInputRaw).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("update %s: %w", rng, err)
	}
	return nil
}

func (c *Client) rowRange(row int) string {
	return fmt.Sprintf("%s!A%d:D%d", quoteSheet(c.sheet), row, row)
}

// quoteSheet wraps a sheet name for A1 notation, doubling embedded quotes.
func quoteSheet(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}
