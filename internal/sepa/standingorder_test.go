package sepa

import (
	"testing"

	"github.com/shopspring/decimal"
)

const standingOrderDocument = `<?xml version="1.0" encoding="UTF-8"?>` +
	`<Document xmlns="urn:iso:std:iso:20022:tech:xsd:pain.001.001.03">` +
	`<CstmrCdtTrfInitn><GrpHdr><MsgId>M1</MsgId><CreDtTm>2023-11-09T08:03:45</CreDtTm>` +
	`<NbOfTxs>1</NbOfTxs><CtrlSum>50.00</CtrlSum></GrpHdr>` +
	`<PmtInf><Dbtr><Nm>Max Mustermann</Nm></Dbtr>` +
	`<DbtrAcct><Id><IBAN>DE44500105175407324931</IBAN></Id></DbtrAcct>` +
	`<DbtrAgt><FinInstnId><BIC>INGDDEFFXXX</BIC></FinInstnId></DbtrAgt>` +
	`<CdtTrfTxInf><Amt><InstdAmt Ccy="EUR">50.00</InstdAmt></Amt>` +
	`<CdtrAgt><FinInstnId><BIC>PBNKDEFFXXX</BIC></FinInstnId></CdtrAgt>` +
	`<Cdtr><Nm>Musterverein e.V.</Nm></Cdtr>` +
	`<CdtrAcct><Id><IBAN>DE02100100100006820101</IBAN></Id></CdtrAcct>` +
	`<RmtInf><Ustrd>Mitgliedsbeitrag</Ustrd></RmtInf>` +
	`</CdtTrfTxInf></PmtInf></CstmrCdtTrfInitn></Document>`

func TestParseStandingOrderPain001(t *testing.T) {
	details, err := ParseStandingOrderPain001([]byte(standingOrderDocument))
	if err != nil {
		t.Fatalf("ParseStandingOrderPain001: %v", err)
	}
	if !details.Amount.Equal(decimal.RequireFromString("50")) {
		t.Fatalf("amount = %s", details.Amount)
	}
	if details.Currency != "EUR" {
		t.Fatalf("currency = %q", details.Currency)
	}
	if details.Purpose != "Mitgliedsbeitrag" {
		t.Fatalf("purpose = %q", details.Purpose)
	}
	if details.Debtor.Name != "Max Mustermann" || details.Debtor.IBAN != "DE44500105175407324931" {
		t.Fatalf("debtor = %+v", details.Debtor)
	}
	if details.Creditor.Name != "Musterverein e.V." || details.Creditor.BIC != "PBNKDEFFXXX" {
		t.Fatalf("creditor = %+v", details.Creditor)
	}
	if details.CreationDate.Year() != 2023 || details.CreationDate.Hour() != 8 {
		t.Fatalf("creation date = %v", details.CreationDate)
	}
}

func TestParseStandingOrderAmountFallsBackToControlSum(t *testing.T) {
	doc := `<Document><CstmrCdtTrfInitn><GrpHdr><CtrlSum>12.34</CtrlSum></GrpHdr>` +
		`<PmtInf><CdtTrfTxInf></CdtTrfTxInf></PmtInf></CstmrCdtTrfInitn></Document>`
	details, err := ParseStandingOrderPain001([]byte(doc))
	if err != nil {
		t.Fatalf("ParseStandingOrderPain001: %v", err)
	}
	if !details.Amount.Equal(decimal.RequireFromString("12.34")) {
		t.Fatalf("amount = %s", details.Amount)
	}
}

func TestParseStandingOrderRejectsGarbage(t *testing.T) {
	if _, err := ParseStandingOrderPain001([]byte("not xml at all <<")); err == nil {
		t.Fatal("garbage accepted")
	}
}

func TestBuiltPain001IsReparseable(t *testing.T) {
	msg, err := BuildPain001(transferRequest(), debtorAccount(), "sepade.pain.001.003.03.xsd")
	if err != nil {
		t.Fatalf("BuildPain001: %v", err)
	}
	details, err := ParseStandingOrderPain001([]byte(msg.XML))
	if err != nil {
		t.Fatalf("ParseStandingOrderPain001: %v", err)
	}
	if !details.Amount.Equal(decimal.RequireFromString("99.5")) {
		t.Fatalf("amount = %s", details.Amount)
	}
	if details.Creditor.IBAN != "DE02100100100006820101" {
		t.Fatalf("creditor = %+v", details.Creditor)
	}
}
