package storage

import (
	"encoding/json"
	"errors"
	"fmt"

	"echobo/internal/core"
)

// EncodeLedger serializes the ledger into the stored blob format.
func EncodeLedger(l core.Ledger) ([]byte, error) {
	b, err := json.Marshal(l)
	if err != nil {
		return nil, fmt.Errorf("encode ledger: %w", err)
	}
	return b, nil
}

// DecodeLedger parses a stored blob.
func DecodeLedger(b []byte) (core.Ledger, error) {
	var l core.Ledger
	if err := json.Unmarshal(b, &l); err != nil {
		return core.Ledger{}, fmt.Errorf("decode ledger: %w", err)
	}
	return l, nil
}

// errEmptyLedger marks a blob such as `null` or `{}` that decodes but holds
// neither sales nor records. Saves always carry at least one record, so such
// a blob was never written by this program.
var errEmptyLedger = errors.New("stored ledger is empty")

// decodeOrNil applies the corrupt-blob policy: undecodable or empty means
// absent.
func decodeOrNil(b []byte) (*core.Ledger, error) {
	l, err := DecodeLedger(b)
	if err != nil {
		return nil, err
	}
	if l.Sales.Month == 0 && len(l.Expenses) == 0 {
		return nil, errEmptyLedger
	}
	return &l, nil
}
