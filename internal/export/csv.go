// Package export renders the expense ledger for the tax filing download.
package export

import (
	"bytes"
	"strconv"

	"echobo/internal/core"
)

const (
	// FileName is the fixed name of the downloaded file.
	FileName = "iizuka_e-chobo_data.csv"
	// ContentType is sent with the download.
	ContentType = "text/csv; charset=utf-8"
	// Header is the first line of every export.
	Header = "date,category,memo,amount"
)

// CSV renders every record, in ledger order, under the fixed header. Fields
// are written verbatim: a memo containing a comma or a quote is not escaped
// and will shift the columns of its row. The whole ledger is exported; there
// is no year filter.
func CSV(expenses []core.Expense) []byte {
	var buf bytes.Buffer
	buf.WriteString(Header)
	buf.WriteByte('\n')
	for _, e := range expenses {
		buf.WriteString(e.Date)
		buf.WriteByte(',')
		buf.WriteString(string(e.Category))
		buf.WriteByte(',')
		buf.WriteString(e.Memo)
		buf.WriteByte(',')
		buf.WriteString(strconv.FormatInt(e.Amount, 10))
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}
