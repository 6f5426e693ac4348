package sepa

import (
	"encoding/xml"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/openfints/fints/internal/banking"
)

// pain.001 document shape, reduced to the fields standing-order responses
// carry.
type pain001Document struct {
	XMLName    xml.Name `xml:"Document"`
	Initiation struct {
		GroupHeader struct {
			CreationDateTime string `xml:"CreDtTm"`
			ControlSum       string `xml:"CtrlSum"`
		} `xml:"GrpHdr"`
		PaymentInfo struct {
			Debtor struct {
				Name string `xml:"Nm"`
			} `xml:"Dbtr"`
			DebtorAccount struct {
				IBAN string `xml:"Id>IBAN"`
			} `xml:"DbtrAcct"`
			DebtorAgent struct {
				BIC string `xml:"FinInstnId>BIC"`
			} `xml:"DbtrAgt"`
			Transaction struct {
				Amount struct {
					InstdAmt struct {
						Currency string `xml:"Ccy,attr"`
						Value    string `xml:",chardata"`
					} `xml:"InstdAmt"`
				} `xml:"Amt"`
				CreditorAgent struct {
					BIC string `xml:"FinInstnId>BIC"`
				} `xml:"CdtrAgt"`
				Creditor struct {
					Name string `xml:"Nm"`
				} `xml:"Cdtr"`
				CreditorAccount struct {
					IBAN string `xml:"Id>IBAN"`
				} `xml:"CdtrAcct"`
				Remittance struct {
					Unstructured string `xml:"Ustrd"`
				} `xml:"RmtInf"`
			} `xml:"CdtTrfTxInf"`
		} `xml:"PmtInf"`
	} `xml:"CstmrCdtTrfInitn"`
}

// StandingOrderDetails are the payment fields carried inside the pain.001
// document of a standing-order response.
type StandingOrderDetails struct {
	CreationDate time.Time
	Amount       decimal.Decimal
	Currency     string
	Purpose      string
	Debtor       banking.Party
	Creditor     banking.Party
}

// ParseStandingOrderPain001 extracts the payment details from the pain.001
// document embedded in a standing-order response segment.
func ParseStandingOrderPain001(raw []byte) (StandingOrderDetails, error) {
	var doc pain001Document
	if err := xml.Unmarshal(raw, &doc); err != nil {
		return StandingOrderDetails{}, fmt.Errorf("sepa: decoding standing-order document: %w", err)
	}
	var out StandingOrderDetails
	hdr := doc.Initiation.GroupHeader
	info := doc.Initiation.PaymentInfo
	tx := info.Transaction

	if hdr.CreationDateTime != "" {
		for _, layout := range []string{"2006-01-02T15:04:05", time.RFC3339} {
			if t, err := time.Parse(layout, hdr.CreationDateTime); err == nil {
				out.CreationDate = t
				break
			}
		}
	}
	amountStr := tx.Amount.InstdAmt.Value
	if amountStr == "" {
		amountStr = hdr.ControlSum
	}
	if amountStr != "" {
		amount, err := decimal.NewFromString(amountStr)
		if err != nil {
			return StandingOrderDetails{}, fmt.Errorf("sepa: bad standing-order amount %q: %w", amountStr, err)
		}
		out.Amount = amount
	}
	out.Currency = tx.Amount.InstdAmt.Currency
	out.Purpose = tx.Remittance.Unstructured
	out.Debtor = banking.Party{
		Name: info.Debtor.Name,
		IBAN: info.DebtorAccount.IBAN,
		BIC:  info.DebtorAgent.BIC,
	}
	out.Creditor = banking.Party{
		Name: tx.Creditor.Name,
		IBAN: tx.CreditorAccount.IBAN,
		BIC:  tx.CreditorAgent.BIC,
	}
	return out, nil
}
