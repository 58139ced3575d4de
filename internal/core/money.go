// Package core holds the ledger model and the pure computations over it.
//
// This file contains whole-yen amount parsing and display formatting.
package core

import (
	"errors"
	"strconv"
	"strings"
	"unicode"

	"github.com/Rhymond/go-money"
)

// CurrencyCode is the only currency the ledger handles.
const CurrencyCode = "JPY"

var ErrInvalidAmount = errors.New("invalid amount")

// ParseAmount converts form input to a positive whole-yen amount.
//
// A leading "¥" or "￥" and "," thousands separators are accepted. Anything
// else that is not a digit, including a decimal point or a sign, is rejected.
//
// Examples:
//
//	ParseAmount("3500")    -> 3500, nil
//	ParseAmount("¥12,000") -> 12000, nil
//	ParseAmount("0")       -> 0, ErrInvalidAmount
func ParseAmount(s string) (int64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "¥")
	s = strings.TrimPrefix(s, "￥")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0, ErrInvalidAmount
	}
	for _, r := range s {
		if !unicode.IsDigit(r) || r > unicode.MaxASCII {
			return 0, ErrInvalidAmount
		}
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil || v <= 0 {
		return 0, ErrInvalidAmount
	}
	return v, nil
}

// FormatYen renders an amount for display, e.g. "¥127,000" or "-¥5,000".
func FormatYen(amount int64) string {
	return money.New(amount, CurrencyCode).Display()
}
