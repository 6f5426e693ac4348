// Package mt535 decodes the holdings statements returned for securities
// depots. The format is line-oriented: tagged clauses, financial instruments
// bracketed by :16R:FIN / :16S:FIN block markers.
package mt535

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/openfints/fints/internal/banking"
)

var (
	identification   = regexp.MustCompile(`^:35B:ISIN\s(.*)\|(.*)\|(.*)$`)
	marketPrice      = regexp.MustCompile(`^:90B::MRKT//ACTU/([A-Z]{3})(\d*),(\d*)$`)
	priceDate        = regexp.MustCompile(`^:98A::PRIC//(\d*)$`)
	pieces           = regexp.MustCompile(`^:93B::AGGR//UNIT/(\d*),(\d*)$`)
	totalValue       = regexp.MustCompile(`^:19A::HOLD//([A-Z]{3})(\d*),(\d*)$`)
	acquisitionPrice = regexp.MustCompile(`^:70E::HOLD//\d*STK\|2(\d*?),(\d*?)\+([A-Z]{3})$`)
)

// Parse decodes the holdings from raw statement text.
func Parse(raw []byte) []banking.Holding {
	lines := splitLines(raw)
	if len(lines) == 0 {
		return nil
	}
	var holdings []banking.Holding
	for _, segment := range instrumentSegments(collapseMultilines(lines)) {
		if holding, ok := parseInstrument(segment); ok {
			holdings = append(holdings, holding)
		}
	}
	return holdings
}

func splitLines(raw []byte) []string {
	text := strings.ReplaceAll(string(raw), "\r\n", "\n")
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}

// collapseMultilines joins continuation lines onto their tagged clause with a
// "|" separator so each clause can be matched as a unit.
func collapseMultilines(lines []string) []string {
	var clauses []string
	previous := ""
	for _, line := range lines {
		switch {
		case strings.HasPrefix(line, ":"):
			if previous != "" {
				clauses = append(clauses, previous)
			}
			previous = line
		case strings.HasPrefix(line, "-"):
			if previous != "" {
				clauses = append(clauses, previous)
			}
			clauses = append(clauses, line)
			previous = ""
		case previous != "":
			previous += "|" + line
		default:
			previous = line
		}
	}
	if previous != "" {
		clauses = append(clauses, previous)
	}
	return clauses
}

func instrumentSegments(clauses []string) [][]string {
	var segments [][]string
	var stack []string
	within := false
	for _, clause := range clauses {
		switch {
		case strings.HasPrefix(clause, ":16R:FIN"):
			within = true
			stack = nil
		case strings.HasPrefix(clause, ":16S:FIN"):
			if within {
				segments = append(segments, stack)
			}
			within = false
			stack = nil
		case within:
			stack = append(stack, clause)
		}
	}
	return segments
}

func parseInstrument(segment []string) (banking.Holding, bool) {
	var h banking.Holding
	found := false
	for _, clause := range segment {
		if m := identification.FindStringSubmatch(clause); m != nil {
			h.ISIN, h.Name = m[1], m[3]
			found = true
			continue
		}
		if m := marketPrice.FindStringSubmatch(clause); m != nil {
			h.Currency = m[1]
			h.MarketPrice = parseDecimal(m[2], m[3])
			found = true
			continue
		}
		if m := priceDate.FindStringSubmatch(clause); m != nil {
			if t, ok := parseDate(m[1]); ok {
				h.ValuationDate = t
				found = true
			}
			continue
		}
		if m := pieces.FindStringSubmatch(clause); m != nil {
			h.Pieces = parseDecimal(m[1], m[2])
			found = true
			continue
		}
		if m := totalValue.FindStringSubmatch(clause); m != nil {
			h.TotalValue = parseDecimal(m[2], m[3])
			if h.Currency == "" {
				h.Currency = m[1]
			}
			found = true
			continue
		}
		if m := acquisitionPrice.FindStringSubmatch(clause); m != nil {
			h.AcquisitionPrice = parseDecimal(m[1], m[2])
			found = true
		}
	}
	return h, found
}

func parseDecimal(integer, fraction string) decimal.Decimal {
	if integer == "" {
		integer = "0"
	}
	if fraction == "" {
		fraction = "0"
	}
	d, err := decimal.NewFromString(integer + "." + fraction)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func parseDate(raw string) (time.Time, bool) {
	t, err := time.Parse("20060102", raw)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
