package sepa

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/openfints/fints/internal/banking"
)

const (
	defaultCurrency        = "EUR"
	defaultSequenceType    = "OOFF"
	defaultLocalInstrument = "CORE"
	unprovidedEndToEndID   = "NOTPROVIDED"
)

// Message is one rendered payment initiation document plus the identifiers
// stamped into it, kept for receipts and reconciliation.
type Message struct {
	XML                  string
	MessageID            string
	PaymentInformationID string
	EndToEndID           string
	Namespace            string
}

func escapeXML(value string) string {
	r := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
		"'", "&apos;",
	)
	return r.Replace(value)
}

func xmlDate(t time.Time) string     { return t.Format("2006-01-02") }
func xmlDateTime(t time.Time) string { return t.Format("2006-01-02T15:04:05") }

func requireText(value, what string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("sepa: %s must be provided", what)
	}
	return nil
}

func requirePositive(amount decimal.Decimal, what string) error {
	if !amount.IsPositive() {
		return fmt.Errorf("sepa: %s must be greater than zero", what)
	}
	return nil
}

func requireDate(t time.Time, what string) error {
	if t.IsZero() {
		return fmt.Errorf("sepa: %s must be a valid date", what)
	}
	return nil
}

func defaultString(value, fallback string) string {
	if value != "" {
		return value
	}
	return fallback
}

// BuildPain001 renders a single credit transfer as a pain.001 document under
// the namespace derived from the chosen schema descriptor.
func BuildPain001(req banking.CreditTransferRequest, account banking.Account, descriptor string) (Message, error) {
	if err := requireText(account.IBAN, "debtor IBAN"); err != nil {
		return Message{}, err
	}
	if err := requireText(account.BIC, "debtor BIC"); err != nil {
		return Message{}, err
	}
	if err := requireText(req.DebtorName, "debtor name"); err != nil {
		return Message{}, err
	}
	if err := requireText(req.Creditor.Name, "creditor name"); err != nil {
		return Message{}, err
	}
	if err := requireText(req.Creditor.IBAN, "creditor IBAN"); err != nil {
		return Message{}, err
	}
	if err := requirePositive(req.Amount, "credit transfer amount"); err != nil {
		return Message{}, err
	}

	createdAt := req.CreationDateTime
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	executionDate := req.ExecutionDate
	if executionDate.IsZero() {
		executionDate = time.Now()
	}
	msg := Message{
		MessageID:  defaultString(req.MessageID, "CT-"+uuid.NewString()),
		EndToEndID: defaultString(req.EndToEndID, unprovidedEndToEndID),
		Namespace:  namespaceFromDescriptor(descriptor, pain001Version),
	}
	msg.PaymentInformationID = defaultString(req.PaymentInformationID, msg.MessageID)
	currency := defaultString(req.Currency, defaultCurrency)
	amount := req.Amount.StringFixed(2)
	debtorName := strings.TrimSpace(req.DebtorName)
	creditorName := strings.TrimSpace(req.Creditor.Name)

	parts := []string{
		`<?xml version="1.0" encoding="UTF-8"?>`,
		fmt.Sprintf(`<Document xmlns="%s">`, escapeXML(msg.Namespace)),
		"<CstmrCdtTrfInitn>",
		"<GrpHdr>",
		fmt.Sprintf("<MsgId>%s</MsgId>", escapeXML(msg.MessageID)),
		fmt.Sprintf("<CreDtTm>%s</CreDtTm>", xmlDateTime(createdAt)),
		"<NbOfTxs>1</NbOfTxs>",
		fmt.Sprintf("<CtrlSum>%s</CtrlSum>", amount),
		"<InitgPty>",
		fmt.Sprintf("<Nm>%s</Nm>", escapeXML(debtorName)),
		"</InitgPty>",
		"</GrpHdr>",
		"<PmtInf>",
		fmt.Sprintf("<PmtInfId>%s</PmtInfId>", escapeXML(msg.PaymentInformationID)),
		"<PmtMtd>TRF</PmtMtd>",
		fmt.Sprintf("<BtchBookg>%t</BtchBookg>", req.BatchBooking),
		"<NbOfTxs>1</NbOfTxs>",
		fmt.Sprintf("<CtrlSum>%s</CtrlSum>", amount),
		"<PmtTpInf>",
		"<SvcLvl>",
		"<Cd>SEPA</Cd>",
		"</SvcLvl>",
		"</PmtTpInf>",
		fmt.Sprintf("<ReqdExctnDt>%s</ReqdExctnDt>", xmlDate(executionDate)),
		"<Dbtr>",
		fmt.Sprintf("<Nm>%s</Nm>", escapeXML(debtorName)),
		"</Dbtr>",
		"<DbtrAcct>",
		"<Id>",
		fmt.Sprintf("<IBAN>%s</IBAN>", escapeXML(account.IBAN)),
		"</Id>",
		"</DbtrAcct>",
		"<DbtrAgt>",
		"<FinInstnId>",
		fmt.Sprintf("<BIC>%s</BIC>", escapeXML(account.BIC)),
		"</FinInstnId>",
		"</DbtrAgt>",
		"<ChrgBr>SLEV</ChrgBr>",
		"<CdtTrfTxInf>",
		"<PmtId>",
		fmt.Sprintf("<EndToEndId>%s</EndToEndId>", escapeXML(msg.EndToEndID)),
		"</PmtId>",
		"<Amt>",
		fmt.Sprintf(`<InstdAmt Ccy="%s">%s</InstdAmt>`, escapeXML(currency), amount),
		"</Amt>",
	}
	if req.Creditor.BIC != "" {
		parts = append(parts,
			"<CdtrAgt>",
			"<FinInstnId>",
			fmt.Sprintf("<BIC>%s</BIC>", escapeXML(req.Creditor.BIC)),
			"</FinInstnId>",
			"</CdtrAgt>",
		)
	}
	parts = append(parts,
		"<Cdtr>",
		fmt.Sprintf("<Nm>%s</Nm>", escapeXML(creditorName)),
		"</Cdtr>",
		"<CdtrAcct>",
		"<Id>",
		fmt.Sprintf("<IBAN>%s</IBAN>", escapeXML(req.Creditor.IBAN)),
		"</Id>",
		"</CdtrAcct>",
	)
	if req.PurposeCode != "" {
		parts = append(parts, "<Purp>", fmt.Sprintf("<Cd>%s</Cd>", escapeXML(req.PurposeCode)), "</Purp>")
	}
	if req.RemittanceInformation != "" {
		parts = append(parts,
			"<RmtInf>",
			fmt.Sprintf("<Ustrd>%s</Ustrd>", escapeXML(req.RemittanceInformation)),
			"</RmtInf>",
		)
	}
	parts = append(parts, "</CdtTrfTxInf>", "</PmtInf>", "</CstmrCdtTrfInitn>", "</Document>")
	msg.XML = strings.Join(parts, "")
	return msg, nil
}

// BuildPain008 renders a single direct debit collection as a pain.008
// document under the namespace derived from the chosen schema descriptor.
func BuildPain008(req banking.DirectDebitRequest, account banking.Account, descriptor string) (Message, error) {
	if err := requireText(account.IBAN, "creditor IBAN"); err != nil {
		return Message{}, err
	}
	if err := requireText(account.BIC, "creditor BIC"); err != nil {
		return Message{}, err
	}
	if err := requireText(req.CreditorName, "creditor name"); err != nil {
		return Message{}, err
	}
	if err := requireText(req.CreditorID, "creditor identifier"); err != nil {
		return Message{}, err
	}
	if err := requireText(req.Debtor.Name, "debtor name"); err != nil {
		return Message{}, err
	}
	if err := requireText(req.Debtor.IBAN, "debtor IBAN"); err != nil {
		return Message{}, err
	}
	if err := requireText(req.MandateID, "mandate identifier"); err != nil {
		return Message{}, err
	}
	if err := requirePositive(req.Amount, "direct debit amount"); err != nil {
		return Message{}, err
	}
	if err := requireDate(req.MandateSignatureDate, "mandate signature date"); err != nil {
		return Message{}, err
	}
	if err := requireDate(req.RequestedCollectionDate, "requested collection date"); err != nil {
		return Message{}, err
	}

	createdAt := req.CreationDateTime
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	msg := Message{
		MessageID:  defaultString(req.MessageID, "DD-"+uuid.NewString()),
		EndToEndID: defaultString(req.EndToEndID, unprovidedEndToEndID),
		Namespace:  namespaceFromDescriptor(descriptor, pain008Version),
	}
	msg.PaymentInformationID = defaultString(req.PaymentInformationID, msg.MessageID)
	currency := defaultString(req.Currency, defaultCurrency)
	sequenceType := defaultString(req.SequenceType, defaultSequenceType)
	localInstrument := defaultString(req.LocalInstrument, defaultLocalInstrument)
	amount := req.Amount.StringFixed(2)
	creditorName := strings.TrimSpace(req.CreditorName)
	debtorName := strings.TrimSpace(req.Debtor.Name)

	parts := []string{
		`<?xml version="1.0" encoding="UTF-8"?>`,
		fmt.Sprintf(`<Document xmlns="%s">`, escapeXML(msg.Namespace)),
		"<CstmrDrctDbtInitn>",
		"<GrpHdr>",
		fmt.Sprintf("<MsgId>%s</MsgId>", escapeXML(msg.MessageID)),
		fmt.Sprintf("<CreDtTm>%s</CreDtTm>", xmlDateTime(createdAt)),
		"<NbOfTxs>1</NbOfTxs>",
		fmt.Sprintf("<CtrlSum>%s</CtrlSum>", amount),
		"<InitgPty>",
		fmt.Sprintf("<Nm>%s</Nm>", escapeXML(creditorName)),
		"</InitgPty>",
		"</GrpHdr>",
		"<PmtInf>",
		fmt.Sprintf("<PmtInfId>%s</PmtInfId>", escapeXML(msg.PaymentInformationID)),
		"<PmtMtd>DD</PmtMtd>",
		fmt.Sprintf("<BtchBookg>%t</BtchBookg>", req.BatchBooking),
		"<NbOfTxs>1</NbOfTxs>",
		fmt.Sprintf("<CtrlSum>%s</CtrlSum>", amount),
		"<PmtTpInf>",
		"<SvcLvl>",
		"<Cd>SEPA</Cd>",
		"</SvcLvl>",
		"<LclInstrm>",
		fmt.Sprintf("<Cd>%s</Cd>", escapeXML(localInstrument)),
		"</LclInstrm>",
		fmt.Sprintf("<SeqTp>%s</SeqTp>", escapeXML(sequenceType)),
		"</PmtTpInf>",
		fmt.Sprintf("<ReqdColltnDt>%s</ReqdColltnDt>", xmlDate(req.RequestedCollectionDate)),
		"<Cdtr>",
		fmt.Sprintf("<Nm>%s</Nm>", escapeXML(creditorName)),
		"</Cdtr>",
		"<CdtrAcct>",
		"<Id>",
		fmt.Sprintf("<IBAN>%s</IBAN>", escapeXML(account.IBAN)),
		"</Id>",
		"</CdtrAcct>",
		"<CdtrAgt>",
		"<FinInstnId>",
		fmt.Sprintf("<BIC>%s</BIC>", escapeXML(account.BIC)),
		"</FinInstnId>",
		"</CdtrAgt>",
		"<ChrgBr>SLEV</ChrgBr>",
		"<CdtrSchmeId>",
		"<Id>",
		"<PrvtId>",
		"<Othr>",
		fmt.Sprintf("<Id>%s</Id>", escapeXML(req.CreditorID)),
		"<SchmeNm>",
		"<Prtry>SEPA</Prtry>",
		"</SchmeNm>",
		"</Othr>",
		"</PrvtId>",
		"</Id>",
		"</CdtrSchmeId>",
		"<DrctDbtTxInf>",
		"<PmtId>",
		fmt.Sprintf("<EndToEndId>%s</EndToEndId>", escapeXML(msg.EndToEndID)),
		"</PmtId>",
		fmt.Sprintf(`<InstdAmt Ccy="%s">%s</InstdAmt>`, escapeXML(currency), amount),
		"<DrctDbtTx>",
		"<MndtRltdInf>",
		fmt.Sprintf("<MndtId>%s</MndtId>", escapeXML(req.MandateID)),
		fmt.Sprintf("<DtOfSgntr>%s</DtOfSgntr>", xmlDate(req.MandateSignatureDate)),
		"</MndtRltdInf>",
		"</DrctDbtTx>",
	}
	if req.Debtor.BIC != "" {
		parts = append(parts,
			"<DbtrAgt>",
			"<FinInstnId>",
			fmt.Sprintf("<BIC>%s</BIC>", escapeXML(req.Debtor.BIC)),
			"</FinInstnId>",
			"</DbtrAgt>",
		)
	}
	parts = append(parts,
		"<Dbtr>",
		fmt.Sprintf("<Nm>%s</Nm>", escapeXML(debtorName)),
		"</Dbtr>",
		"<DbtrAcct>",
		"<Id>",
		fmt.Sprintf("<IBAN>%s</IBAN>", escapeXML(req.Debtor.IBAN)),
		"</Id>",
		"</DbtrAcct>",
	)
	if req.PurposeCode != "" {
		parts = append(parts, "<Purp>", fmt.Sprintf("<Cd>%s</Cd>", escapeXML(req.PurposeCode)), "</Purp>")
	}
	if req.RemittanceInformation != "" {
		parts = append(parts,
			"<RmtInf>",
			fmt.Sprintf("<Ustrd>%s</Ustrd>", escapeXML(req.RemittanceInformation)),
			"</RmtInf>",
		)
	}
	parts = append(parts, "</DrctDbtTxInf>", "</PmtInf>", "</CstmrDrctDbtInitn>", "</Document>")
	msg.XML = strings.Join(parts, "")
	return msg, nil
}
