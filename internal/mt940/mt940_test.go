package mt940

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

const sampleStatement = ":20:STARTUMSE\r\n" +
	":25:50010517/5407324931\r\n" +
	":28C:00000/001\r\n" +
	":60F:C231108EUR1234,56\r\n" +
	":61:2311091109DR100,00NMSCNONREF//8033\r\n" +
	":86:005?00Überweisung?10931?20EREF+E2E-42?21MREF+M-7?22CRED+DE98ZZZ099\r\n" +
	"?23SVWZ+Miete November?30INGDDEFF?31DE02100100100006820101?32ACME\r\n" +
	"?33 GmbH\r\n" +
	":61:231109C50,12NTRFNONREF\r\n" +
	":86:166?20Gutschrift?32Erika Musterfrau\r\n" +
	":62F:C231109EUR1184,68\r\n" +
	"-"

func TestParseStatement(t *testing.T) {
	statements, err := Parse([]byte(sampleStatement))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(statements) != 1 {
		t.Fatalf("statements = %d", len(statements))
	}
	stmt := statements[0]
	if stmt.ReferenceNumber != "STARTUMSE" || stmt.AccountID != "50010517/5407324931" {
		t.Fatalf("statement = %+v", stmt)
	}
	if stmt.Number != "00000/001" || stmt.Currency != "EUR" {
		t.Fatalf("statement = %+v", stmt)
	}
	if !stmt.OpeningBalance.Equal(decimal.RequireFromString("1234.56")) {
		t.Fatalf("opening = %s", stmt.OpeningBalance)
	}
	if !stmt.ClosingBalance.Equal(decimal.RequireFromString("1184.68")) {
		t.Fatalf("closing = %s", stmt.ClosingBalance)
	}
	if len(stmt.Transactions) != 2 {
		t.Fatalf("transactions = %d", len(stmt.Transactions))
	}
}

func TestParseDebitEntry(t *testing.T) {
	statements, err := Parse([]byte(sampleStatement))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	tx := statements[0].Transactions[0]
	if tx.IsCredit {
		t.Fatal("debit flagged as credit")
	}
	if !tx.Amount.Equal(decimal.RequireFromString("-100")) {
		t.Fatalf("amount = %s", tx.Amount)
	}
	if tx.ValueDate != time.Date(2023, time.November, 9, 0, 0, 0, 0, time.UTC) {
		t.Fatalf("value date = %v", tx.ValueDate)
	}
	if tx.EntryDate != tx.ValueDate {
		t.Fatalf("entry date = %v", tx.EntryDate)
	}
	if tx.TransactionType != "NMSC" {
		t.Fatalf("type = %q", tx.TransactionType)
	}
	// The //-suffix of the reference belongs to the bank, not the customer.
	if tx.Reference != "NONREF" {
		t.Fatalf("reference = %q", tx.Reference)
	}
	if tx.Currency != "EUR" {
		t.Fatalf("currency = %q", tx.Currency)
	}
}

func TestStructuredPurposeFields(t *testing.T) {
	statements, err := Parse([]byte(sampleStatement))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	s := statements[0].Transactions[0].Structured
	if s.TransactionKey != "Überweisung" || s.PrimanotaNo != "931" {
		t.Fatalf("structured = %+v", s)
	}
	if s.EndToEndRef != "E2E-42" {
		t.Fatalf("end-to-end = %q", s.EndToEndRef)
	}
	if s.MandateRef != "M-7" {
		t.Fatalf("mandate = %q", s.MandateRef)
	}
	if s.CreditorID != "DE98ZZZ099" {
		t.Fatalf("creditor id = %q", s.CreditorID)
	}
	if s.Purpose != "Miete November" {
		t.Fatalf("purpose = %q", s.Purpose)
	}
	if s.BIC != "INGDDEFF" || s.IBAN != "DE02100100100006820101" {
		t.Fatalf("counterparty = %+v", s)
	}
	if s.Name != "ACME GmbH" {
		t.Fatalf("name = %q", s.Name)
	}
}

func TestUnstructuredPurposeStaysPlain(t *testing.T) {
	statements, err := Parse([]byte(sampleStatement))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	tx := statements[0].Transactions[1]
	if !tx.IsCredit || !tx.Amount.Equal(decimal.RequireFromString("50.12")) {
		t.Fatalf("tx = %+v", tx)
	}
	if tx.Structured.Purpose != "Gutschrift" {
		t.Fatalf("purpose = %q", tx.Structured.Purpose)
	}
	if tx.Structured.Name != "Erika Musterfrau" {
		t.Fatalf("name = %q", tx.Structured.Name)
	}
}

func TestParseMultipleStatements(t *testing.T) {
	blob := sampleStatement + "\r\n" + strings.ReplaceAll(sampleStatement, "STARTUMSE", "SECOND")
	statements, err := Parse([]byte(blob))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(statements) != 2 {
		t.Fatalf("statements = %d", len(statements))
	}
	if statements[1].ReferenceNumber != "SECOND" {
		t.Fatalf("second = %+v", statements[1])
	}
}

func TestEntryDateYearBoundary(t *testing.T) {
	blob := ":20:REF\r\n:25:X\r\n:28C:1\r\n:60F:C240101EUR0,00\r\n" +
		":61:2401021230DR10,00NMSCNONREF\r\n:62F:C240102EUR0,00\r\n-"
	statements, err := Parse([]byte(blob))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	tx := statements[0].Transactions[0]
	// A December entry date on a January value date belongs to the prior year.
	if tx.EntryDate.Year() != 2023 || tx.EntryDate.Month() != time.December {
		t.Fatalf("entry date = %v", tx.EntryDate)
	}
}

func TestParseRejectsMalformedBalance(t *testing.T) {
	blob := ":20:REF\r\n:60F:garbage\r\n-"
	if _, err := Parse([]byte(blob)); err == nil {
		t.Fatal("malformed balance accepted")
	}
}
