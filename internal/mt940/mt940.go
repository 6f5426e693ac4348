// Package mt940 decodes booked account statements. One blob can carry several
// statements, each terminated by a lone "-" line; fields are tagged lines
// with continuations.
package mt940

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/openfints/fints/internal/banking"
)

var (
	fieldTag = regexp.MustCompile(`^:(\d{2}[A-Z]?):(.*)$`)
	// balanceLine is C/D, booking date YYMMDD, currency, comma-decimal amount.
	balanceLine = regexp.MustCompile(`^([CD])(\d{6})([A-Z]{3})([\d,]+)$`)
	// entryLine is value date YYMMDD, optional entry date MMDD, debit/credit
	// mark, optional funds code, comma-decimal amount, type, reference.
	entryLine = regexp.MustCompile(`^(\d{6})(\d{4})?(R?[CD])([A-Z])?([\d,]+)(N[A-Z0-9]{3})(.*)$`)
)

type field struct {
	tag   string
	value string
}

// Parse decodes every statement in the blob.
func Parse(raw []byte) ([]banking.Statement, error) {
	var out []banking.Statement
	for _, block := range splitStatements(string(raw)) {
		fields := collectFields(block)
		if len(fields) == 0 {
			continue
		}
		stmt, err := parseStatement(fields)
		if err != nil {
			return nil, err
		}
		out = append(out, stmt)
	}
	return out, nil
}

func splitStatements(text string) [][]string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	var blocks [][]string
	var current []string
	for _, line := range strings.Split(text, "\n") {
		if line == "-" {
			if len(current) > 0 {
				blocks = append(blocks, current)
				current = nil
			}
			continue
		}
		if line != "" {
			current = append(current, line)
		}
	}
	if len(current) > 0 {
		blocks = append(blocks, current)
	}
	return blocks
}

// collectFields folds continuation lines into the preceding tagged field.
func collectFields(lines []string) []field {
	var fields []field
	for _, line := range lines {
		if m := fieldTag.FindStringSubmatch(line); m != nil {
			fields = append(fields, field{tag: m[1], value: m[2]})
			continue
		}
		if len(fields) > 0 {
			fields[len(fields)-1].value += "\n" + line
		}
	}
	return fields
}

func parseStatement(fields []field) (banking.Statement, error) {
	var stmt banking.Statement
	for i := 0; i < len(fields); i++ {
		f := fields[i]
		switch f.tag {
		case "20":
			stmt.ReferenceNumber = f.value
		case "25":
			stmt.AccountID = f.value
		case "28C", "28":
			stmt.Number = f.value
		case "60F", "60M":
			balance, currency, date, err := parseBalance(f.value)
			if err != nil {
				return stmt, fmt.Errorf("mt940: opening balance: %w", err)
			}
			stmt.OpeningBalance = balance
			stmt.Currency = currency
			stmt.Date = date
		case "62F", "62M":
			balance, _, _, err := parseBalance(f.value)
			if err != nil {
				return stmt, fmt.Errorf("mt940: closing balance: %w", err)
			}
			stmt.ClosingBalance = balance
		case "61":
			tx, err := parseEntry(f.value)
			if err != nil {
				return stmt, err
			}
			if i+1 < len(fields) && fields[i+1].tag == "86" {
				i++
				applyPurpose(&tx, fields[i].value)
			}
			if tx.Currency == "" {
				tx.Currency = stmt.Currency
			}
			stmt.Transactions = append(stmt.Transactions, tx)
		}
	}
	return stmt, nil
}

func parseBalance(value string) (decimal.Decimal, string, time.Time, error) {
	m := balanceLine.FindStringSubmatch(strings.SplitN(value, "\n", 2)[0])
	if m == nil {
		return decimal.Zero, "", time.Time{}, fmt.Errorf("malformed balance %q", value)
	}
	amount, err := parseAmount(m[4])
	if err != nil {
		return decimal.Zero, "", time.Time{}, err
	}
	if m[1] == "D" {
		amount = amount.Neg()
	}
	date, err := time.Parse("060102", m[2])
	if err != nil {
		return decimal.Zero, "", time.Time{}, err
	}
	return amount, m[3], date, nil
}

func parseEntry(value string) (banking.Transaction, error) {
	m := entryLine.FindStringSubmatch(strings.SplitN(value, "\n", 2)[0])
	if m == nil {
		return banking.Transaction{}, fmt.Errorf("mt940: malformed entry %q", value)
	}
	var tx banking.Transaction
	valueDate, err := time.Parse("060102", m[1])
	if err != nil {
		return tx, err
	}
	tx.ValueDate = valueDate
	if m[2] != "" {
		// The entry date carries no year; it belongs to the value date's year
		// unless that would put it in the wrong half of a year boundary.
		entryDate, err := time.Parse("20060102", fmt.Sprintf("%04d%s", valueDate.Year(), m[2]))
		if err == nil {
			if entryDate.Month() == time.December && valueDate.Month() == time.January {
				entryDate = entryDate.AddDate(-1, 0, 0)
			}
			tx.EntryDate = entryDate
		}
	}
	tx.IsCredit = strings.HasSuffix(m[3], "C")
	amount, err := parseAmount(m[5])
	if err != nil {
		return tx, err
	}
	if !tx.IsCredit {
		amount = amount.Neg()
	}
	tx.Amount = amount
	tx.TransactionType = m[6]
	tx.Reference = strings.SplitN(m[7], "//", 2)[0]
	return tx, nil
}

func parseAmount(value string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.Replace(value, ",", ".", 1))
	if err != nil {
		return decimal.Zero, fmt.Errorf("mt940: bad amount %q: %w", value, err)
	}
	return d, nil
}

// applyPurpose decodes the ?-delimited purpose field into the structured
// description. Subfields 20-29 and 60-63 hold the purpose text, which may
// itself carry SEPA reference prefixes.
func applyPurpose(tx *banking.Transaction, value string) {
	value = strings.ReplaceAll(value, "\n", "")
	parts := strings.Split(value, "?")
	tx.Description = value
	var purposeLines []string
	var name strings.Builder
	for _, part := range parts[1:] {
		if len(part) < 2 {
			continue
		}
		code, text := part[:2], part[2:]
		switch {
		case code == "00":
			tx.Structured.TransactionKey = text
		case code == "10":
			tx.Structured.PrimanotaNo = text
		case code >= "20" && code <= "29", code >= "60" && code <= "63":
			purposeLines = append(purposeLines, text)
		case code == "30":
			tx.Structured.BIC = text
		case code == "31":
			tx.Structured.IBAN = text
		case code == "32", code == "33":
			name.WriteString(text)
		}
	}
	tx.Structured.Name = name.String()
	applyReferences(&tx.Structured, purposeLines)
}

// SEPA reference prefixes inside the purpose lines.
var referencePrefixes = []struct {
	prefix string
	assign func(*banking.StructuredDescription, string)
}{
	{"EREF+", func(s *banking.StructuredDescription, v string) { s.EndToEndRef = v }},
	{"MREF+", func(s *banking.StructuredDescription, v string) { s.MandateRef = v }},
	{"CRED+", func(s *banking.StructuredDescription, v string) { s.CreditorID = v }},
	{"SVWZ+", func(s *banking.StructuredDescription, v string) { s.Purpose = v }},
}

func applyReferences(structured *banking.StructuredDescription, lines []string) {
	joined := strings.Join(lines, "")
	if joined == "" {
		return
	}
	// Split the joined purpose text at each known prefix.
	type span struct {
		start  int
		assign func(*banking.StructuredDescription, string)
		skip   int
	}
	var spans []span
	for _, ref := range referencePrefixes {
		if idx := strings.Index(joined, ref.prefix); idx >= 0 {
			spans = append(spans, span{start: idx, assign: ref.assign, skip: len(ref.prefix)})
		}
	}
	if len(spans) == 0 {
		structured.Purpose = joined
		return
	}
	for _, s := range spans {
		end := len(joined)
		for _, other := range spans {
			if other.start > s.start && other.start < end {
				end = other.start
			}
		}
		s.assign(structured, joined[s.start+s.skip:end])
	}
}
