// Package banking holds the domain value types produced by client operations.
//
// Everything here is a plain immutable record decoded from response segments;
// none of these types carry protocol state.
package banking

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account is one SEPA account advertised by the bank for the authenticated user.
type Account struct {
	IBAN          string
	BIC           string
	AccountNumber string
	SubAccount    string
	BankCode      string
	OwnerName     string
	ProductName   string
}

// Balance is the balance snapshot of a single account.
type Balance struct {
	Account          Account
	BookedBalance    decimal.Decimal
	PendingBalance   decimal.Decimal
	AvailableBalance decimal.Decimal
	CreditLimit      decimal.Decimal
	Currency         string
	ProductName      string
	BookedAt         time.Time
}

// Transaction is one booked entry within a statement.
type Transaction struct {
	ValueDate       time.Time
	EntryDate       time.Time
	Amount          decimal.Decimal
	Currency        string
	IsCredit        bool
	TransactionType string
	Reference       string
	Description     string
	Structured      StructuredDescription
}

// StructuredDescription carries the machine-readable remittance fields parsed
// from a statement's purpose block, where present.
type StructuredDescription struct {
	Purpose        string
	Name           string
	IBAN           string
	BIC            string
	EndToEndRef    string
	MandateRef     string
	CreditorID     string
	PrimanotaNo    string
	TransactionKey string
}

// Statement is one MT940 statement block with its transactions.
type Statement struct {
	ReferenceNumber string
	AccountID       string
	Number          string
	OpeningBalance  decimal.Decimal
	ClosingBalance  decimal.Decimal
	Currency        string
	Date            time.Time
	Transactions    []Transaction
}

// Holding is one position in a securities depot.
type Holding struct {
	ISIN             string
	Name             string
	MarketPrice      decimal.Decimal
	Currency         string
	ValuationDate    time.Time
	Pieces           decimal.Decimal
	TotalValue       decimal.Decimal
	AcquisitionPrice decimal.Decimal
}

// Party identifies one side of a SEPA payment.
type Party struct {
	Name string
	IBAN string
	BIC  string
}

// StandingOrderSchedule describes the recurrence of a standing order.
type StandingOrderSchedule struct {
	StartDate    time.Time
	TimeUnit     string
	Interval     int
	ExecutionDay int
	EndDate      time.Time
}

// StandingOrder is one recurring credit transfer held by the bank.
type StandingOrder struct {
	OrderID       string
	NextOrderDate time.Time
	LastOrderDate time.Time
	TimeUnit      string
	Interval      int
	OrderDay      int
	CreationDate  time.Time
	Amount        decimal.Decimal
	Currency      string
	Purpose       string
	Debtor        Party
	Creditor      Party
}

// CreditTransferRequest describes a single SEPA credit transfer (pain.001).
type CreditTransferRequest struct {
	DebtorName            string
	Creditor              Party
	Amount                decimal.Decimal
	Currency              string
	Purpose               string
	PurposeCode           string
	ExecutionDate         time.Time
	CreationDateTime      time.Time
	MessageID             string
	PaymentInformationID  string
	EndToEndID            string
	BatchBooking          bool
	RemittanceInformation string
}

// DirectDebitRequest describes a single SEPA direct debit collection (pain.008).
type DirectDebitRequest struct {
	CreditorName            string
	CreditorID              string
	Debtor                  Party
	Amount                  decimal.Decimal
	Currency                string
	MandateID               string
	MandateSignatureDate    time.Time
	RequestedCollectionDate time.Time
	CreationDateTime        time.Time
	SequenceType            string
	LocalInstrument         string
	MessageID               string
	PaymentInformationID    string
	EndToEndID              string
	BatchBooking            bool
	PurposeCode             string
	RemittanceInformation   string
}

// PaymentReceipt is the bank's acknowledgement of a submitted payment order.
type PaymentReceipt struct {
	OrderID              string
	OrderStatus          string
	ConsentCode          string
	MessageID            string
	PaymentInformationID string
	EndToEndID           string
	PainDescriptor       string
}

// StandingOrderResult is the acknowledgement of a standing-order command.
type StandingOrderResult struct {
	OrderID       string
	StandingOrder StandingOrder
}
