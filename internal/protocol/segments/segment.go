package segments

import (
	"errors"
	"fmt"

	"github.com/openfints/fints/internal/protocol/wire"
)

var ErrUnsupportedVersion = errors.New("segments: unsupported segment version")

// Segment is one decoded response segment.
type Segment interface {
	Type() string
	SegmentNumber() int
	SegmentVersion() int
}

// Request is one typed request segment. Groups returns pre-escaped
// data-element groups; numbering is the envelope's job.
type Request interface {
	Type() string
	Version() int
	Groups() [][]string
}

// Common carries the header fields shared by all decoded segments.
type Common struct {
	Name string
	No   int
	Ver  int
	Ref  int
}

func (c Common) Type() string        { return c.Name }
func (c Common) SegmentNumber() int  { return c.No }
func (c Common) SegmentVersion() int { return c.Ver }

func commonFrom(raw wire.RawSegment) Common {
	return Common{
		Name: raw.Header.Name,
		No:   raw.Header.No,
		Ver:  raw.Header.Version,
		Ref:  raw.Header.Ref,
	}
}

func unsupportedVersion(name string, version int) error {
	return fmt.Errorf("%w: %s version %d", ErrUnsupportedVersion, name, version)
}

// Unknown retains segments without a registered decoder. The session engine
// still needs their headers for version negotiation and their groups for
// parameter extraction.
type Unknown struct {
	Common
	Data [][]string
}
