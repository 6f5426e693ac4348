package dialog

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/openfints/fints/internal/tan"
)

// Identity is the customer's fixed credential set. It never changes over the
// life of a dialog and is deliberately kept out of session snapshots.
type Identity struct {
	BankCode  string
	UserID    string
	PIN       string
	ProductID string
}

// Session is the mutable negotiated state of a dialog: identifiers assigned
// by the server, the message counter, and everything learned during
// synchronization. It is the unit of suspension: a session snapshot plus the
// identity is enough to resume a TAN-interrupted dialog elsewhere.
type Session struct {
	SystemID string
	DialogID string
	MsgNo    int
	// SecurityFunction is the selected TAN method's security function.
	SecurityFunction string
	TanMethods       []tan.Method
	PainFormats      []string
	// SegmentVersions holds the highest version the server supports per
	// parameter segment type, learned during synchronization.
	SegmentVersions map[string]int
}

// Segment version fallbacks used before synchronization has run.
var defaultVersions = map[string]int{
	"HISALS": 6,
	"HIKAZS": 6,
	"HICDBS": 1,
	"HICCSS": 1,
	"HIDSES": 1,
	"HITANS": 1,
}

// NewSession returns the pristine pre-synchronization state.
func NewSession() Session {
	return Session{
		SystemID:         "0",
		DialogID:         "0",
		MsgNo:            1,
		SecurityFunction: "999",
		SegmentVersions:  make(map[string]int),
	}
}

// Version returns the negotiated version for a parameter segment type,
// falling back to the pre-synchronization default. Zero means the server
// never advertised the segment and no default exists.
func (s *Session) Version(name string) int {
	if v, ok := s.SegmentVersions[name]; ok && v > 0 {
		return v
	}
	return defaultVersions[name]
}

// Method returns the selected TAN method, false when none matches the
// session's security function.
func (s *Session) Method() (tan.Method, bool) {
	for _, m := range s.TanMethods {
		if m.SecurityFunction == s.SecurityFunction {
			return m, true
		}
	}
	return tan.Method{}, false
}

// Clone returns a deep copy; snapshots must not alias live session state.
func (s *Session) Clone() Session {
	out := *s
	out.TanMethods = append([]tan.Method(nil), s.TanMethods...)
	out.PainFormats = append([]string(nil), s.PainFormats...)
	out.SegmentVersions = make(map[string]int, len(s.SegmentVersions))
	for k, v := range s.SegmentVersions {
		out.SegmentVersions[k] = v
	}
	return out
}

// Marshal serializes the session for suspension.
func (s *Session) Marshal() ([]byte, error) {
	raw, err := cbor.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("dialog: encoding session snapshot: %w", err)
	}
	return raw, nil
}

// UnmarshalSession restores a session from a snapshot.
func UnmarshalSession(raw []byte) (Session, error) {
	var s Session
	if err := cbor.Unmarshal(raw, &s); err != nil {
		return Session{}, fmt.Errorf("dialog: decoding session snapshot: %w", err)
	}
	if s.SegmentVersions == nil {
		s.SegmentVersions = make(map[string]int)
	}
	return s, nil
}
