package segments

import (
	"time"

	"github.com/openfints/fints/internal/banking"
	"github.com/openfints/fints/internal/protocol/wire"
)

// HKCDB requests the list of SEPA standing orders.
type HKCDB struct {
	Ver         int
	Account     banking.Account
	PainFormats []string
	Touchdown   string
}

func (HKCDB) Type() string   { return "HKCDB" }
func (s HKCDB) Version() int { return s.Ver }

func (s HKCDB) Groups() [][]string {
	formats := make([]string, 0, len(s.PainFormats))
	for _, f := range s.PainFormats {
		formats = append(formats, wire.Escape(f))
	}
	groups := [][]string{
		{wire.Escape(s.Account.IBAN), wire.Escape(s.Account.BIC)},
		formats,
	}
	if s.Touchdown != "" {
		groups = append(groups, []string{""}, []string{wire.Escape(s.Touchdown)})
	}
	return groups
}

// StandingOrderAck is the shared decoded layout of the standing-order
// response segments: account reference, pain document, order id, schedule.
type StandingOrderAck struct {
	Common
	IBAN          string
	BIC           string
	PainMessage   string
	OrderID       string
	NextOrderDate time.Time
	TimeUnit      string
	Interval      int
	OrderDay      int
	LastOrderDate time.Time
}

// HICDB reports one existing standing order.
type HICDB struct{ StandingOrderAck }

// HICDA acknowledges a standing-order creation.
type HICDA struct{ StandingOrderAck }

// HICDE acknowledges a standing-order update.
type HICDE struct{ StandingOrderAck }

// HICDL acknowledges a standing-order cancellation.
type HICDL struct{ StandingOrderAck }

func decodeHICDB(raw wire.RawSegment) (Segment, error) {
	ack, err := decodeStandingOrderAck(raw)
	if err != nil {
		return nil, err
	}
	return &HICDB{StandingOrderAck: ack}, nil
}

func decodeHICDA(raw wire.RawSegment) (Segment, error) {
	ack, err := decodeStandingOrderAck(raw)
	if err != nil {
		return nil, err
	}
	return &HICDA{StandingOrderAck: ack}, nil
}

func decodeHICDE(raw wire.RawSegment) (Segment, error) {
	ack, err := decodeStandingOrderAck(raw)
	if err != nil {
		return nil, err
	}
	return &HICDE{StandingOrderAck: ack}, nil
}

func decodeHICDL(raw wire.RawSegment) (Segment, error) {
	ack, err := decodeStandingOrderAck(raw)
	if err != nil {
		return nil, err
	}
	return &HICDL{StandingOrderAck: ack}, nil
}

func decodeStandingOrderAck(raw wire.RawSegment) (StandingOrderAck, error) {
	ack := StandingOrderAck{Common: commonFrom(raw)}
	ack.IBAN = raw.Element(0, 0)
	ack.BIC = raw.Element(0, 1)
	pain, err := wire.ParseBinary(raw.Element(2, 0))
	if err != nil {
		return StandingOrderAck{}, err
	}
	ack.PainMessage = pain
	ack.OrderID = raw.Element(3, 0)

	schedule := raw.Group(4)
	if len(schedule) > 0 && schedule[0] != "" {
		next, err := wire.ParseDate(schedule[0])
		if err != nil {
			return StandingOrderAck{}, err
		}
		ack.NextOrderDate = next
	}
	if len(schedule) > 1 {
		ack.TimeUnit = schedule[1]
	}
	if len(schedule) > 2 {
		interval, err := wire.ParseNum(schedule[2])
		if err != nil {
			return StandingOrderAck{}, err
		}
		ack.Interval = interval
	}
	if len(schedule) > 3 {
		day, err := wire.ParseNum(schedule[3])
		if err != nil {
			return StandingOrderAck{}, err
		}
		ack.OrderDay = day
	}
	if len(schedule) > 4 && schedule[4] != "" {
		last, err := wire.ParseDate(schedule[4])
		if err != nil {
			return StandingOrderAck{}, err
		}
		ack.LastOrderDate = last
	}
	return ack, nil
}

// scheduleGroup renders a standing-order schedule for the maintenance
// requests. Absent fields stay empty rather than zero.
func scheduleGroup(s banking.StandingOrderSchedule) []string {
	day := ""
	if s.ExecutionDay > 0 {
		day = wire.FormatNum(s.ExecutionDay)
	}
	end := ""
	if !s.EndDate.IsZero() {
		end = wire.FormatDate(s.EndDate)
	}
	return []string{
		wire.FormatDate(s.StartDate),
		s.TimeUnit,
		wire.FormatNum(s.Interval),
		day,
		end,
	}
}

// StandingOrderCommand is the shared encoded layout of the standing-order
// maintenance requests (create, update, cancel).
type StandingOrderCommand struct {
	Account        banking.Account
	PainDescriptor string
	PainMessage    string
	Schedule       banking.StandingOrderSchedule
	OrderID        string
}

func (s StandingOrderCommand) groups() [][]string {
	// The order id rides in the fourth group, empty on creation; the schedule
	// follows it. Mirrors decodeStandingOrderAck.
	return [][]string{
		{wire.Escape(s.Account.IBAN), wire.Escape(s.Account.BIC)},
		{wire.Escape(s.PainDescriptor)},
		{wire.FormatBinary(s.PainMessage)},
		{wire.Escape(s.OrderID)},
		scheduleGroup(s.Schedule),
	}
}

// HKCDA creates a standing order.
type HKCDA struct{ StandingOrderCommand }

func (HKCDA) Type() string         { return "HKCDA" }
func (HKCDA) Version() int         { return 1 }
func (s HKCDA) Groups() [][]string { return s.groups() }

// HKCDE updates a standing order.
type HKCDE struct{ StandingOrderCommand }

func (HKCDE) Type() string         { return "HKCDE" }
func (HKCDE) Version() int         { return 1 }
func (s HKCDE) Groups() [][]string { return s.groups() }

// HKCDL cancels a standing order.
type HKCDL struct{ StandingOrderCommand }

func (HKCDL) Type() string         { return "HKCDL" }
func (HKCDL) Version() int         { return 1 }
func (s HKCDL) Groups() [][]string { return s.groups() }
