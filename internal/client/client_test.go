package client

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/openfints/fints/internal/banking"
	"github.com/openfints/fints/internal/tan"
)

// scriptTransport answers each Send with the next scripted response and keeps
// every request for inspection.
type scriptTransport struct {
	t         *testing.T
	responses []string
	sent      []string
}

func (s *scriptTransport) Send(_ context.Context, msg []byte) ([]byte, error) {
	s.sent = append(s.sent, string(msg))
	if len(s.responses) == 0 {
		s.t.Fatalf("unexpected request: %q", msg)
	}
	next := s.responses[0]
	s.responses = s.responses[1:]
	return []byte(next), nil
}

func newClient(st *scriptTransport) *Client {
	return New(Config{
		BankCode:  "50010517",
		UserID:    "user1",
		PIN:       "secret",
		ProductID: "product-1",
		Transport: st,
	})
}

func testAccount() banking.Account {
	return banking.Account{
		IBAN:          "DE44500105175407324931",
		BIC:           "INGDDEFFXXX",
		AccountNumber: "5407324931",
		BankCode:      "50010517",
	}
}

// syncResponse advertises the read-only capabilities of a bank without a
// two-step TAN requirement. extra segments slot in before the trailer.
func syncResponse(extra ...string) string {
	segs := []string{
		"HNHBK:1:3+000000000000+300+SYNC-DLG+1'",
		"HIRMG:2:2+0010::Nachricht entgegengenommen'",
		"HISYN:3:4:5+SYS-77'",
		"HISALS:4:7:4+1+1'",
		"HIKAZS:5:6:4+1+1'",
		"HICDBS:6:1:4+1+1'",
		"HISPAS:7:1:4+1+1+1+J:N:N:sepade.pain.001.003.03.xsd'",
	}
	segs = append(segs, extra...)
	segs = append(segs, "HNHBS:8:1+1'")
	return strings.Join(segs, "")
}

func tanBlockV6(fn, name string) string {
	fields := []string{
		fn, "2", "MT_SEALONE", "mobileTAN", "1.4", name, "6", "1",
		"TAN", "256", "J", "1", "J", "N", "0", "00", "J", "00", "2", "N", "1",
	}
	return strings.Join(fields, ":")
}

// tanSyncResponse advertises a v6 pushTAN method so orders announce the
// two-step procedure.
func tanSyncResponse() string {
	return "HNHBK:1:3+000000000000+300+SYNC-DLG+1'" +
		"HIRMG:2:2+0010::Nachricht entgegengenommen'" +
		"HIRMS:3:2:5+3920::Zugelassen:921'" +
		"HISYN:4:4:5+SYS-77'" +
		"HITANS:5:6:4+1+1+J:N:0:" + tanBlockV6("921", "pushTAN") + "'" +
		"HISALS:6:7:4+1+1'" +
		"HISPAS:7:1:4+1+1+1+J:N:N:sepade.pain.001.003.03.xsd'" +
		"HNHBS:8:1+1'"
}

func okResponse(dialogID string) string {
	return "HNHBK:1:3+000000000000+300+" + dialogID + "+1'" +
		"HIRMG:2:2+0010::Nachricht entgegengenommen'" +
		"HNHBS:3:1+1'"
}

func TestAccounts(t *testing.T) {
	list := "HNHBK:1:3+000000000000+300+INIT-DLG+2'" +
		"HIRMG:2:2+0010::OK'" +
		"HISPA:3:1:3+J:DE44500105175407324931:INGDDEFFXXX:5407324931::280:50010517" +
		"+J:DE02100100100006820101:PBNKDEFFXXX:6820101::280:10010010'" +
		"HNHBS:4:1+2'"
	st := &scriptTransport{t: t, responses: []string{
		syncResponse(), okResponse("SYNC-DLG"), okResponse("INIT-DLG"), list, okResponse("INIT-DLG"),
	}}
	c := newClient(st)

	accounts, err := c.Accounts(context.Background())
	if err != nil {
		t.Fatalf("Accounts: %v", err)
	}
	if len(accounts) != 2 {
		t.Fatalf("accounts = %d", len(accounts))
	}
	if accounts[0].IBAN != "DE44500105175407324931" || accounts[0].BIC != "INGDDEFFXXX" {
		t.Fatalf("first account = %+v", accounts[0])
	}
	if accounts[0].AccountNumber != "5407324931" || accounts[0].BankCode != "50010517" {
		t.Fatalf("first account = %+v", accounts[0])
	}
	if accounts[1].IBAN != "DE02100100100006820101" {
		t.Fatalf("second account = %+v", accounts[1])
	}
	if len(st.sent) != 5 {
		t.Fatalf("requests sent = %d", len(st.sent))
	}
	if !strings.Contains(st.sent[3], "HKSPA:3:1'") {
		t.Fatalf("list request = %q", st.sent[3])
	}
}

func TestBalancePaginates(t *testing.T) {
	page1 := "HNHBK:1:3+000000000000+300+INIT-DLG+2'" +
		"HIRMG:2:2+0010::OK'" +
		"HIRMS:3:2:3+3040::Weitere Informationen verfügbar:TD-1'" +
		"HNHBS:4:1+2'"
	page2 := "HNHBK:1:3+000000000000+300+INIT-DLG+3'" +
		"HIRMG:2:2+0010::OK'" +
		"HISAL:3:7:3+5407324931::280:50010517+Girokonto+EUR" +
		"+C:1234,56:EUR:20231109+D:10,:EUR+2000,:EUR+1500,:EUR'" +
		"HNHBS:4:1+3'"
	st := &scriptTransport{t: t, responses: []string{
		syncResponse(), okResponse("SYNC-DLG"), okResponse("INIT-DLG"), page1, page2, okResponse("INIT-DLG"),
	}}
	c := newClient(st)

	balance, err := c.Balance(context.Background(), testAccount())
	if err != nil {
		t.Fatalf("Balance: %v", err)
	}
	if !balance.BookedBalance.Equal(decimal.RequireFromString("1234.56")) {
		t.Fatalf("booked = %s", balance.BookedBalance)
	}
	if !balance.PendingBalance.Equal(decimal.RequireFromString("-10")) {
		t.Fatalf("pending = %s", balance.PendingBalance)
	}
	if !balance.CreditLimit.Equal(decimal.RequireFromString("2000")) {
		t.Fatalf("credit limit = %s", balance.CreditLimit)
	}
	if !balance.AvailableBalance.Equal(decimal.RequireFromString("1500")) {
		t.Fatalf("available = %s", balance.AvailableBalance)
	}
	if balance.ProductName != "Girokonto" || balance.Currency != "EUR" {
		t.Fatalf("balance = %+v", balance)
	}
	if balance.BookedAt != time.Date(2023, time.November, 9, 0, 0, 0, 0, time.UTC) {
		t.Fatalf("booked at = %v", balance.BookedAt)
	}
	// The advertised v7 parameters address the account by IBAN and BIC.
	if !strings.Contains(st.sent[3], "HKSAL:3:7+DE44500105175407324931:INGDDEFFXXX+N'") {
		t.Fatalf("first page request = %q", st.sent[3])
	}
	// The second page echoes the touchdown marker back.
	if !strings.Contains(st.sent[4], "+N++TD-1'") {
		t.Fatalf("second page request = %q", st.sent[4])
	}
}

func TestBalancePageCap(t *testing.T) {
	page1 := "HNHBK:1:3+000000000000+300+INIT-DLG+2'" +
		"HIRMG:2:2+0010::OK'" +
		"HIRMS:3:2:3+3040::Weitere Informationen verfügbar:TD-1'" +
		"HNHBS:4:1+2'"
	st := &scriptTransport{t: t, responses: []string{
		syncResponse(), okResponse("SYNC-DLG"), okResponse("INIT-DLG"), page1,
	}}
	c := New(Config{
		BankCode: "50010517", UserID: "user1", PIN: "secret", ProductID: "product-1",
		MaxPages: 1, Transport: st,
	})

	_, err := c.Balance(context.Background(), testAccount())
	if !errors.Is(err, ErrTooManyPages) {
		t.Fatalf("got %v, want ErrTooManyPages", err)
	}
}

func TestStatements(t *testing.T) {
	blob := ":20:REF\r\n:25:50010517/5407324931\r\n:28C:1\r\n" +
		":60F:C231101EUR100,00\r\n" +
		":61:231105C10,00NTRFNONREF\r\n" +
		":86:166?20Gutschrift\r\n" +
		":62F:C231105EUR110,00\r\n-"
	page := "HNHBK:1:3+000000000000+300+INIT-DLG+2'" +
		"HIRMG:2:2+0010::OK'" +
		fmt.Sprintf("HIKAZ:3:6:3+@%d@%s'", len(blob), blob) +
		"HNHBS:4:1+2'"
	st := &scriptTransport{t: t, responses: []string{
		syncResponse(), okResponse("SYNC-DLG"), okResponse("INIT-DLG"), page, okResponse("INIT-DLG"),
	}}
	c := newClient(st)

	start := time.Date(2023, time.November, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2023, time.November, 30, 0, 0, 0, 0, time.UTC)
	statements, err := c.Statements(context.Background(), testAccount(), start, end)
	if err != nil {
		t.Fatalf("Statements: %v", err)
	}
	if len(statements) != 1 || len(statements[0].Transactions) != 1 {
		t.Fatalf("statements = %+v", statements)
	}
	tx := statements[0].Transactions[0]
	if !tx.IsCredit || !tx.Amount.Equal(decimal.RequireFromString("10")) {
		t.Fatalf("transaction = %+v", tx)
	}
	// The advertised v6 parameters address the account the legacy way.
	if !strings.Contains(st.sent[3], "HKKAZ:3:6+5407324931::280:50010517+N+20231101+20231130") {
		t.Fatalf("statement request = %q", st.sent[3])
	}
}

func mt535Blob(isin, name string) string {
	return "\r\n:16R:FIN\r\n:35B:ISIN " + isin + "\r\nZEILE ZWEI\r\n" + name + "\r\n:16S:FIN\r\n-"
}

func TestHoldingsAcrossPages(t *testing.T) {
	blob1 := mt535Blob("DE0007100000", "NAMENS-AKTIEN O.N.")
	blob2 := mt535Blob("US0378331005", "REGISTERED SHARES O.N.")
	page1 := "HNHBK:1:3+000000000000+300+INIT-DLG+2'" +
		"HIRMG:2:2+0010::OK'" +
		"HIRMS:3:2:3+3040::Weitere Informationen verfügbar:TD-7'" +
		fmt.Sprintf("HIWPD:4:6:3+@%d@%s'", len(blob1), blob1) +
		"HNHBS:5:1+2'"
	page2 := "HNHBK:1:3+000000000000+300+INIT-DLG+3'" +
		"HIRMG:2:2+0010::OK'" +
		fmt.Sprintf("HIWPD:3:6:3+@%d@%s'", len(blob2), blob2) +
		"HNHBS:4:1+3'"
	st := &scriptTransport{t: t, responses: []string{
		syncResponse("HIWPDS:8:6:4+1+1'"), okResponse("SYNC-DLG"), okResponse("INIT-DLG"),
		page1, page2, okResponse("INIT-DLG"),
	}}
	c := newClient(st)

	holdings, err := c.Holdings(context.Background(), testAccount())
	if err != nil {
		t.Fatalf("Holdings: %v", err)
	}
	if len(holdings) != 2 {
		t.Fatalf("holdings = %d", len(holdings))
	}
	if holdings[0].ISIN != "DE0007100000" || holdings[1].ISIN != "US0378331005" {
		t.Fatalf("holdings = %+v", holdings)
	}
	if holdings[0].Name != "NAMENS-AKTIEN O.N." {
		t.Fatalf("name = %q", holdings[0].Name)
	}
	if !strings.Contains(st.sent[3], "HKWPD:3:6+5407324931::280:50010517'") {
		t.Fatalf("first page request = %q", st.sent[3])
	}
	if !strings.Contains(st.sent[4], "HKWPD:3:6+5407324931::280:50010517++++TD-7'") {
		t.Fatalf("second page request = %q", st.sent[4])
	}
}

func TestHoldingsUnsupported(t *testing.T) {
	st := &scriptTransport{t: t, responses: []string{syncResponse(), okResponse("SYNC-DLG")}}
	c := newClient(st)

	_, err := c.Holdings(context.Background(), testAccount())
	if !errors.Is(err, ErrHoldingsUnsupported) {
		t.Fatalf("got %v, want ErrHoldingsUnsupported", err)
	}
	// The missing capability is detected before the dialog is initialized.
	if len(st.sent) != 2 {
		t.Fatalf("requests sent = %d", len(st.sent))
	}
}

const standingOrderPainDoc = `<?xml version="1.0" encoding="UTF-8"?>` +
	`<Document xmlns="urn:iso:std:iso:20022:tech:xsd:pain.001.001.03">` +
	`<CstmrCdtTrfInitn><GrpHdr><MsgId>M1</MsgId><CreDtTm>2023-11-09T08:03:45</CreDtTm></GrpHdr>` +
	`<PmtInf><Dbtr><Nm>Max Mustermann</Nm></Dbtr>` +
	`<CdtTrfTxInf><Amt><InstdAmt Ccy="EUR">50.00</InstdAmt></Amt>` +
	`<Cdtr><Nm>Musterverein e.V.</Nm></Cdtr>` +
	`<CdtrAcct><Id><IBAN>DE02100100100006820101</IBAN></Id></CdtrAcct>` +
	`<RmtInf><Ustrd>Beitrag</Ustrd></RmtInf>` +
	`</CdtTrfTxInf></PmtInf></CstmrCdtTrfInitn></Document>`

func TestStandingOrders(t *testing.T) {
	list := "HNHBK:1:3+000000000000+300+INIT-DLG+2'" +
		"HIRMG:2:2+0010::OK'" +
		"HICDB:3:1:3+DE44500105175407324931:INGDDEFFXXX+sepade.pain.001.003.03.xsd+" +
		fmt.Sprintf("@%d@%s", len(standingOrderPainDoc), standingOrderPainDoc) +
		"+SO-1+20231201:M:1:1:20241201'" +
		"HNHBS:4:1+2'"
	st := &scriptTransport{t: t, responses: []string{
		syncResponse(), okResponse("SYNC-DLG"), okResponse("INIT-DLG"), list, okResponse("INIT-DLG"),
	}}
	c := newClient(st)

	orders, err := c.StandingOrders(context.Background(), testAccount())
	if err != nil {
		t.Fatalf("StandingOrders: %v", err)
	}
	if len(orders) != 1 {
		t.Fatalf("orders = %d", len(orders))
	}
	order := orders[0]
	if order.OrderID != "SO-1" {
		t.Fatalf("order id = %q", order.OrderID)
	}
	if order.NextOrderDate != time.Date(2023, time.December, 1, 0, 0, 0, 0, time.UTC) {
		t.Fatalf("next order date = %v", order.NextOrderDate)
	}
	if order.TimeUnit != "M" || order.Interval != 1 || order.OrderDay != 1 {
		t.Fatalf("schedule = %+v", order)
	}
	if order.LastOrderDate != time.Date(2024, time.December, 1, 0, 0, 0, 0, time.UTC) {
		t.Fatalf("last order date = %v", order.LastOrderDate)
	}
	if !order.Amount.Equal(decimal.RequireFromString("50")) || order.Currency != "EUR" {
		t.Fatalf("amount = %s %s", order.Amount, order.Currency)
	}
	if order.Creditor.Name != "Musterverein e.V." {
		t.Fatalf("creditor = %+v", order.Creditor)
	}
	// The pain document names no debtor account; the ack reference fills in.
	if order.Debtor.IBAN != "DE44500105175407324931" {
		t.Fatalf("debtor = %+v", order.Debtor)
	}
	if order.Purpose != "Beitrag" {
		t.Fatalf("purpose = %q", order.Purpose)
	}
}

func TestTransferRaisesTanRequired(t *testing.T) {
	suspended := "HNHBK:1:3+000000000000+300+INIT-DLG+2'" +
		"HIRMG:2:2+0010::OK'" +
		"HIRMS:3:2:4+0030::Starke Kundenauthentifizierung erforderlich'" +
		"HITAN:4:6:5+4++REF-77+Bitte Auftrag in der App freigeben'" +
		"HNHBS:5:1+2'"
	st := &scriptTransport{t: t, responses: []string{
		tanSyncResponse(), okResponse("SYNC-DLG"), okResponse("INIT-DLG"), suspended,
	}}
	c := newClient(st)

	req := banking.CreditTransferRequest{
		DebtorName: "Max Mustermann",
		Creditor:   banking.Party{Name: "ACME GmbH", IBAN: "DE02100100100006820101"},
		Amount:     decimal.RequireFromString("99.5"),
	}
	_, err := c.Transfer(context.Background(), testAccount(), req)
	var required *tan.RequiredError
	if !errors.As(err, &required) {
		t.Fatalf("got %v, want *tan.RequiredError", err)
	}
	if required.Challenge.TransactionReference != "REF-77" {
		t.Fatalf("reference = %q", required.Challenge.TransactionReference)
	}
	if required.Challenge.TriggeringSegment != "HKCCS" {
		t.Fatalf("triggering segment = %q", required.Challenge.TriggeringSegment)
	}
	if required.Challenge.Decoupled {
		t.Fatal("plain TAN challenge flagged decoupled")
	}
	if len(required.Snapshot) == 0 {
		t.Fatal("snapshot missing")
	}
	// The init message already announced the two-step procedure.
	if !strings.Contains(st.sent[2], "HKTAN:5:6+4+HKIDN") {
		t.Fatalf("init request = %q", st.sent[2])
	}
	order := st.sent[3]
	if !strings.Contains(order, "HKCCS:3:1+") {
		t.Fatalf("order request = %q", order)
	}
	if !strings.Contains(order, "HKTAN:4:6+4+HKCCS++pushTAN'") {
		t.Fatalf("order request = %q", order)
	}
	if !strings.Contains(order, "pain.001.003.03") {
		t.Fatalf("order request carries no pain document: %q", order)
	}

	completeTransfer(t, c.cfg, required)
}

// completeTransfer resumes the suspended order from its snapshot on a fresh
// transport, the way a second process would after the user typed the TAN.
func completeTransfer(t *testing.T, cfg Config, required *tan.RequiredError) {
	t.Helper()
	ack := "HNHBK:1:3+000000000000+300+INIT-DLG+3'" +
		"HIRMG:2:2+0010::OK'" +
		"HIRMS:3:2:3+0020::Auftrag ausgeführt'" +
		"HICCS:4:1:3+ORDER-1'" +
		"HNHBS:5:1+3'"
	st := &scriptTransport{t: t, responses: []string{ack, okResponse("INIT-DLG")}}
	cfg.Transport = st
	c := New(cfg)

	receipt, err := c.CompleteTransfer(context.Background(), required.Snapshot,
		required.Challenge.TransactionReference, "654321")
	if err != nil {
		t.Fatalf("CompleteTransfer: %v", err)
	}
	if receipt.OrderID != "ORDER-1" {
		t.Fatalf("order id = %q", receipt.OrderID)
	}
	if !strings.Contains(st.sent[0], "HKTAN:3:6+2++REF-77+pushTAN'") {
		t.Fatalf("resume request = %q", st.sent[0])
	}
	// The TAN rides in the signature trailer next to the PIN.
	if !strings.Contains(st.sent[0], "+secret:654321'") {
		t.Fatalf("resume request = %q", st.sent[0])
	}
}
