package segments

import "github.com/openfints/fints/internal/protocol/wire"

type decodeFunc func(wire.RawSegment) (Segment, error)

// decoders maps segment names to their version-dispatching decode strategy.
// Names absent here decode into Unknown; a registered name with an unsupported
// version is a hard error.
var decoders = map[string]decodeFunc{
	"HISYN":  decodeHISYN,
	"HIRMG":  decodeFeedback,
	"HIRMS":  decodeFeedback,
	"HITAN":  decodeHITAN,
	"HITANS": decodeHITANS,
	"HISPA":  decodeHISPA,
	"HISPAS": decodeHISPAS,
	"HISAL":  decodeHISAL,
	"HIKAZ":  decodeHIKAZ,
	"HIWPD":  decodeHIWPD,
	"HICDB":  decodeHICDB,
	"HICDA":  decodeHICDA,
	"HICDE":  decodeHICDE,
	"HICDL":  decodeHICDL,
	"HICCS":  decodeHICCS,
	"HIDSE":  decodeHIDSE,
}

// Decode turns a tokenized segment into its typed representation.
func Decode(raw wire.RawSegment) (Segment, error) {
	if fn, ok := decoders[raw.Header.Name]; ok {
		return fn(raw)
	}
	return &Unknown{Common: commonFrom(raw), Data: raw.Groups}, nil
}
