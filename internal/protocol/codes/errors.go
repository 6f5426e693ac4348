package codes

// Kind is the closed set of typed protocol error kinds.
type Kind int

const (
	KindGeneric Kind = iota
	KindPinIncorrect
	KindAuthenticationFailed
	KindStrongAuthRequired
	KindOrderRejected
	KindDialogAborted
	KindMessageStructure
	KindInvalidSystemID
)

func (k Kind) String() string {
	switch k {
	case KindPinIncorrect:
		return "pin incorrect"
	case KindAuthenticationFailed:
		return "authentication failed"
	case KindStrongAuthRequired:
		return "strong authentication required"
	case KindOrderRejected:
		return "order rejected"
	case KindDialogAborted:
		return "dialog aborted"
	case KindMessageStructure:
		return "message structure error"
	case KindInvalidSystemID:
		return "invalid system id"
	default:
		return "protocol error"
	}
}

var kindByCode = map[string]Kind{
	CodePinIncorrect:       KindPinIncorrect,
	CodeNotAuthorized:      KindAuthenticationFailed,
	CodeSCARequired:        KindStrongAuthRequired,
	CodeSCAPending:         KindStrongAuthRequired,
	CodeOrderNotPermitted:  KindOrderRejected,
	CodeBusinessNotAllowed: KindOrderRejected,
	CodeMessageRejected:    KindOrderRejected,
	CodeDialogAborted:      KindDialogAborted,
	CodeMessageAborted:     KindDialogAborted,
	CodeStructureError:     KindMessageStructure,
	CodeHeaderError:        KindMessageStructure,
	CodeTrailerError:       KindMessageStructure,
	CodeInvalidSystemID:    KindInvalidSystemID,
	CodeStaleSystemData:    KindInvalidSystemID,
}

// Error is the single tagged protocol error type. Callers dispatch on Kind
// and can inspect the originating return value.
type Error struct {
	Kind        Kind
	Code        string
	Message     string
	ReturnValue ReturnValue
}

func (e *Error) Error() string {
	return e.Message
}

// NewError builds a typed error from a return value. Unmapped codes fall back
// to the generic kind.
func NewError(rv ReturnValue) *Error {
	kind, ok := kindByCode[rv.Code]
	if !ok {
		kind = KindGeneric
	}
	return &Error{
		Kind:        kind,
		Code:        rv.Code,
		Message:     FormatCode(rv.Code, rv.Message),
		ReturnValue: rv,
	}
}
