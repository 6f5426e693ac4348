// Package codes maps the 4-digit protocol return codes to categorized
// messages and typed error kinds.
//
// Code ranges: 0xxx success, 3xxx warning, 9xxx error.
package codes

import "fmt"

// Well-known return codes referenced by the dialog engine and the TAN poller.
const (
	CodeOrderAccepted      = "0030" // order accepted, security clearance required
	CodeMoreData           = "3040" // touchdown: more result data available
	CodeSCARequired        = "3076" // strong customer authentication required
	CodeTanMethodsAllowed  = "3920" // permitted two-step procedures
	CodeSCAPending         = "3956" // strong auth pending on a separate device
	CodePinIncorrect       = "9942"
	CodeInvalidSystemID    = "9931"
	CodeDialogAborted      = "9380"
	CodeMessageAborted     = "9800"
	CodeNotAuthorized      = "9110"
	CodeOrderNotPermitted  = "9120"
	CodeMessageRejected    = "9340"
	CodeStructureError     = "9010"
	CodeHeaderError        = "9030"
	CodeTrailerError       = "9040"
	CodeStaleSystemData    = "9070"
	CodeBusinessNotAllowed = "9140"
)

// Category classifies a return code by its leading digit.
type Category int

const (
	CategorySuccess Category = iota
	CategoryWarning
	CategoryError
	CategoryUnknown
)

func (c Category) String() string {
	switch c {
	case CategorySuccess:
		return "success"
	case CategoryWarning:
		return "warning"
	case CategoryError:
		return "error"
	default:
		return "unknown"
	}
}

// Info describes one known return code.
type Info struct {
	Code     string
	Message  string
	Category Category
}

// ReturnValue is one return code instance from a response, with the
// server-supplied message and parameters.
type ReturnValue struct {
	Code    string
	Message string
	Params  []string
	// Ref is the number of the request segment this value answers, 0 if none.
	Ref int
}

// Error reports whether the value is in the error category.
func (r ReturnValue) Error() bool {
	return CategoryOf(r.Code) == CategoryError
}

var table = map[string]Info{
	"0010": {"0010", "Nachricht entgegengenommen", CategorySuccess},
	"0020": {"0020", "Dialoginitialisierung erfolgreich", CategorySuccess},
	"0030": {"0030", "Auftrag entgegengenommen - Sicherheitsfreigabe erforderlich", CategorySuccess},
	"0100": {"0100", "Dialog beendet", CategorySuccess},
	"3010": {"3010", "Teilweise fehlerhaft", CategoryWarning},
	"3040": {"3040", "Auftragsdaten liegen nicht vollständig vor - weitere Auftragsdaten benötigt", CategoryWarning},
	"3050": {"3050", "Auftragsart derzeit nicht zugelassen", CategoryWarning},
	"3060": {"3060", "Teilweise fehlerhaft, Restdaten folgen", CategoryWarning},
	"3076": {"3076", "Starke Kundenauthentifizierung notwendig", CategoryWarning},
	"3920": {"3920", "Zugelassene Zwei-Schritt-Verfahren für den Benutzer", CategoryWarning},
	"3956": {"3956", "Starke Kundenauthentifizierung notwendig", CategoryWarning},
	"9010": {"9010", "Nachrichtenaufbau fehlerhaft", CategoryError},
	"9030": {"9030", "Nachrichtenkopf fehlerhaft", CategoryError},
	"9040": {"9040", "Nachrichten-Ende fehlerhaft", CategoryError},
	"9050": {"9050", "Nachrichtensignatur fehlerhaft oder fehlt", CategoryError},
	"9070": {"9070", "Test-BPD/UPD nicht mehr aktuell", CategoryError},
	"9080": {"9080", "Teilnehmer im Testsystem nicht vorhanden", CategoryError},
	"9110": {"9110", "Kunde nicht berechtigt", CategoryError},
	"9120": {"9120", "Auftrag nicht zugelassen", CategoryError},
	"9130": {"9130", "Maximale Anzahl Aufträge überschritten", CategoryError},
	"9140": {"9140", "Geschäftsvorfall nicht zugelassen", CategoryError},
	"9210": {"9210", "Feature nicht unterstützt", CategoryError},
	"9340": {"9340", "Nachricht abgelehnt", CategoryError},
	"9380": {"9380", "Dialog abgebrochen", CategoryError},
	"9390": {"9390", "Nachricht doppelt", CategoryError},
	"9800": {"9800", "Dialog/Nachricht abgebrochen", CategoryError},
	"9931": {"9931", "Kundensystem-ID ungültig", CategoryError},
	"9942": {"9942", "PIN falsch", CategoryError},
}

// Lookup returns the static info for a known code.
func Lookup(code string) (Info, bool) {
	info, ok := table[code]
	return info, ok
}

// CategoryOf classifies a code, deriving the category from the leading digit
// when the code is unmapped.
func CategoryOf(code string) Category {
	if info, ok := table[code]; ok {
		return info.Category
	}
	if len(code) == 0 {
		return CategoryUnknown
	}
	switch code[0] {
	case '0':
		return CategorySuccess
	case '3':
		return CategoryWarning
	case '9':
		return CategoryError
	default:
		return CategoryUnknown
	}
}

// FormatCode renders a return code as "[code] message", preferring the static
// table's message and appending a differing server message.
func FormatCode(code, serverMessage string) string {
	if info, ok := table[code]; ok {
		if serverMessage != "" && serverMessage != info.Message {
			return fmt.Sprintf("[%s] %s - %s", code, info.Message, serverMessage)
		}
		return fmt.Sprintf("[%s] %s", code, info.Message)
	}
	if serverMessage != "" {
		return fmt.Sprintf("[%s] %s", code, serverMessage)
	}
	return fmt.Sprintf("[%s] Unknown return code", code)
}
