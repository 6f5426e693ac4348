package dialog

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/openfints/fints/internal/protocol/codes"
	"github.com/openfints/fints/internal/protocol/segments"
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

func identity() Identity {
	return Identity{BankCode: "50010517", UserID: "user1", PIN: "secret", ProductID: "product-1"}
}

func tanBlockV6(fn, name string) string {
	fields := []string{
		fn, "2", "MT_SEALONE", "mobileTAN", "1.4", name, "6", "1",
		"TAN", "256", "J", "1", "J", "N", "0", "00", "J", "00", "2", "N", "1",
	}
	return strings.Join(fields, ":")
}

func syncResponse() string {
	return "HNHBK:1:3+000000000000+300+SYNC-DLG+1'" +
		"HIRMG:2:2+0010::Nachricht entgegengenommen'" +
		"HIRMS:3:2:5+3920::Zugelassen:921'" +
		"HISYN:4:4:5+SYS-77'" +
		"HITANS:5:6:4+1+1+J:N:0:" + tanBlockV6("921", "pushTAN") + "'" +
		"HISALS:6:7:4+1+1'" +
		"HIKAZS:7:6:4+1+1'" +
		"HISPAS:8:1:4+1+1+1+J:N:N:sepade.pain.001.003.03.xsd'" +
		"HNHBS:9:1+1'"
}

func okResponse(dialogID string) string {
	return "HNHBK:1:3+000000000000+300+" + dialogID + "+1'" +
		"HIRMG:2:2+0010::Nachricht entgegengenommen'" +
		"HNHBS:3:1+1'"
}

func TestSyncLearnsServerCapabilities(t *testing.T) {
	transport := &scriptTransport{t: t, responses: []string{syncResponse(), okResponse("SYNC-DLG")}}
	d := New(transport, identity())

	if err := d.Sync(context.Background()); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	sess := d.Session()
	if sess.SystemID != "SYS-77" {
		t.Fatalf("system id = %q", sess.SystemID)
	}
	if sess.Version("HISALS") != 7 || sess.Version("HIKAZS") != 6 || sess.Version("HITANS") != 6 {
		t.Fatalf("versions = %v", sess.SegmentVersions)
	}
	if len(sess.TanMethods) != 1 || sess.TanMethods[0].Name != "pushTAN" {
		t.Fatalf("tan methods = %+v", sess.TanMethods)
	}
	if sess.SecurityFunction != "921" {
		t.Fatalf("security function = %q", sess.SecurityFunction)
	}
	if len(sess.PainFormats) != 1 {
		t.Fatalf("pain formats = %v", sess.PainFormats)
	}
	// Sync closes its own dialog and resets the counters.
	if sess.DialogID != "0" || sess.MsgNo != 1 {
		t.Fatalf("session after sync = %+v", sess)
	}
	if len(transport.sent) != 2 {
		t.Fatalf("requests sent = %d", len(transport.sent))
	}
	if !strings.Contains(transport.sent[0], "HKSYN:5:3+0'") {
		t.Fatalf("sync request = %q", transport.sent[0])
	}
	if !strings.Contains(transport.sent[1], "HKEND:3:1+SYNC-DLG'") {
		t.Fatalf("end request = %q", transport.sent[1])
	}
}

func TestInitRequiresSynchronization(t *testing.T) {
	d := New(&scriptTransport{t: t}, identity())
	if err := d.Init(context.Background()); !errors.Is(err, ErrNotSynchronized) {
		t.Fatalf("got %v", err)
	}
}

func synchronizedDialog(t *testing.T, transport *scriptTransport) *Dialog {
	t.Helper()
	sess := NewSession()
	sess.SystemID = "SYS-77"
	sess.SegmentVersions["HITANS"] = 6
	sess.SecurityFunction = "921"
	sess.TanMethods = []tan.Method{{
		Version: 6, SecurityFunction: "921", Name: "pushTAN",
		DecoupledMaxStatusRequests: -1,
	}}
	snapshot, err := sess.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	d, err := Resume(transport, identity(), snapshot)
	if err != nil {
		t.Fatalf("Resume: %v", err)
	}
	return d
}

func TestInitAnnouncesTwoStepAuth(t *testing.T) {
	transport := &scriptTransport{t: t, responses: []string{okResponse("INIT-DLG")}}
	d := synchronizedDialog(t, transport)

	if err := d.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	// With a modern TAN parameter version the init message announces the
	// two-step procedure for the identification segment.
	if !strings.Contains(transport.sent[0], "HKTAN:5:6+4+HKIDN") {
		t.Fatalf("init request = %q", transport.sent[0])
	}
	sess := d.Session()
	if sess.DialogID != "INIT-DLG" {
		t.Fatalf("dialog id = %q", sess.DialogID)
	}
	if sess.MsgNo != 2 {
		t.Fatalf("message number = %d, want 2", sess.MsgNo)
	}
}

func TestSendRaisesTanRequired(t *testing.T) {
	suspended := "HNHBK:1:3+000000000000+300+DLG-9+2'" +
		"HIRMG:2:2+0010::Nachricht entgegengenommen'" +
		"HIRMS:3:2:3+0030::Sicherheitsfreigabe erforderlich'" +
		"HITAN:4:6:5+4++REF-42+Bitte Auftrag freigeben'" +
		"HNHBS:5:1+2'"
	transport := &scriptTransport{t: t, responses: []string{suspended}}
	d := synchronizedDialog(t, transport)

	_, err := d.Send(context.Background(), segments.HKSPA{})
	var required *tan.RequiredError
	if !errors.As(err, &required) {
		t.Fatalf("got %v, want *tan.RequiredError", err)
	}
	if required.Challenge.TransactionReference != "REF-42" {
		t.Fatalf("reference = %q", required.Challenge.TransactionReference)
	}
	if required.Challenge.TriggeringSegment != "HKSPA" {
		t.Fatalf("triggering segment = %q", required.Challenge.TriggeringSegment)
	}
	if required.Challenge.Decoupled {
		t.Fatal("plain TAN challenge flagged decoupled")
	}
	// The snapshot resumes with the advanced message counter.
	resumed, err := UnmarshalSession(required.Snapshot)
	if err != nil {
		t.Fatalf("UnmarshalSession: %v", err)
	}
	if resumed.MsgNo != 2 || resumed.DialogID != "DLG-9" {
		t.Fatalf("resumed session = %+v", resumed)
	}
}

func TestSendFlagsDecoupledChallenge(t *testing.T) {
	suspended := "HNHBK:1:3+000000000000+300+DLG-9+2'" +
		"HIRMS:2:2:3+0030::Sicherheitsfreigabe erforderlich+3956::Bitte in der App freigeben'" +
		"HITAN:3:6:5+4++REF-43+In der App bestätigen'" +
		"HNHBS:4:1+2'"
	transport := &scriptTransport{t: t, responses: []string{suspended}}
	d := synchronizedDialog(t, transport)

	_, err := d.Send(context.Background(), segments.HKSPA{})
	var required *tan.RequiredError
	if !errors.As(err, &required) {
		t.Fatalf("got %v, want *tan.RequiredError", err)
	}
	if !required.Challenge.Decoupled {
		t.Fatal("decoupled challenge not flagged")
	}
}

func TestSendSurfacesTypedErrors(t *testing.T) {
	rejected := "HNHBK:1:3+000000000000+300+DLG-9+2'" +
		"HIRMS:2:2:3+9942::PIN falsch'" +
		"HNHBS:3:1+2'"
	transport := &scriptTransport{t: t, responses: []string{rejected}}
	d := synchronizedDialog(t, transport)

	_, err := d.Send(context.Background(), segments.HKSPA{})
	var typed *codes.Error
	if !errors.As(err, &typed) {
		t.Fatalf("got %v, want *codes.Error", err)
	}
	if typed.Kind != codes.KindPinIncorrect {
		t.Fatalf("kind = %v", typed.Kind)
	}
	// The counter still advances: the server consumed the message.
	if d.Session().MsgNo != 2 {
		t.Fatalf("message number = %d", d.Session().MsgNo)
	}
}

func TestCheckStatus(t *testing.T) {
	pending := "HNHBK:1:3+000000000000+300+DLG-9+2'" +
		"HIRMS:2:2:3+3956::Noch nicht freigegeben'" +
		"HNHBS:3:1+2'"
	confirmed := "HNHBK:1:3+000000000000+300+DLG-9+3'" +
		"HIRMS:2:2:3+0020::Auftrag ausgeführt'" +
		"HNHBS:3:1+3'"
	transport := &scriptTransport{t: t, responses: []string{pending, confirmed}}
	d := synchronizedDialog(t, transport)

	status, err := d.CheckStatus(context.Background(), "REF-42")
	if err != nil {
		t.Fatalf("CheckStatus: %v", err)
	}
	if !status.Pending {
		t.Fatal("pending code not recognized")
	}
	if !strings.Contains(transport.sent[0], "HKTAN:3:6+2++REF-42") {
		t.Fatalf("status request = %q", transport.sent[0])
	}

	status, err = d.CheckStatus(context.Background(), "REF-42")
	if err != nil {
		t.Fatalf("CheckStatus: %v", err)
	}
	if status.Pending {
		t.Fatal("confirmed order still pending")
	}
	if len(status.Messages) == 0 {
		t.Fatal("status messages dropped")
	}
	// Each status request advances the message counter.
	if d.Session().MsgNo != 3 {
		t.Fatalf("message number = %d, want 3", d.Session().MsgNo)
	}
}

func TestSelectTanMethod(t *testing.T) {
	d := synchronizedDialog(t, &scriptTransport{t: t})
	if err := d.SelectTanMethod("921"); err != nil {
		t.Fatalf("SelectTanMethod: %v", err)
	}
	if err := d.SelectTanMethod("999"); err == nil {
		t.Fatal("unknown security function accepted")
	}
}

func TestSessionSnapshotRoundTrip(t *testing.T) {
	sess := NewSession()
	sess.SystemID = "SYS-1"
	sess.DialogID = "DLG-1"
	sess.MsgNo = 4
	sess.SegmentVersions["HISALS"] = 7
	sess.PainFormats = []string{"sepade.pain.001.003.03.xsd"}

	raw, err := sess.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	restored, err := UnmarshalSession(raw)
	if err != nil {
		t.Fatalf("UnmarshalSession: %v", err)
	}
	if restored.SystemID != "SYS-1" || restored.MsgNo != 4 {
		t.Fatalf("restored = %+v", restored)
	}
	if restored.Version("HISALS") != 7 {
		t.Fatalf("versions = %v", restored.SegmentVersions)
	}
	if _, err := UnmarshalSession([]byte("not cbor")); err == nil {
		t.Fatal("garbage snapshot accepted")
	}
}

func TestSessionVersionFallbacks(t *testing.T) {
	sess := NewSession()
	if sess.Version("HISALS") != 6 || sess.Version("HITANS") != 1 {
		t.Fatalf("defaults = %d/%d", sess.Version("HISALS"), sess.Version("HITANS"))
	}
	if sess.Version("HIWPDS") != 0 {
		t.Fatalf("HIWPDS default = %d, want 0", sess.Version("HIWPDS"))
	}
	sess.SegmentVersions["HISALS"] = 8
	if sess.Version("HISALS") != 8 {
		t.Fatal("learned version not preferred")
	}
}

func TestCloneDoesNotAlias(t *testing.T) {
	sess := NewSession()
	sess.SegmentVersions["HISALS"] = 7
	sess.PainFormats = []string{"a"}
	clone := sess.Clone()
	clone.SegmentVersions["HISALS"] = 9
	clone.PainFormats[0] = "b"
	if sess.SegmentVersions["HISALS"] != 7 || sess.PainFormats[0] != "a" {
		t.Fatal("clone aliases the original")
	}
}
