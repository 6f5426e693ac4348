// Package tan models two-factor confirmation: the negotiated TAN methods, the
// challenge raised when an order needs clearance, and the decoupled poller
// that waits for confirmation on a separate device.
package tan

import (
	"fmt"
	"strconv"
)

// methodFields is the single source of truth for the version-dependent field
// layout of a TAN method descriptor. Seven versions are known; each adds
// fields to its predecessor's layout.
var methodFields = map[int][]string{
	1: {
		"securityFunction", "tanProcess", "techId", "name", "maxLengthInput",
		"allowedFormat", "textReturnvalue", "maxLengthReturnvalue",
		"numberOfSupportedLists", "multiple", "tanTimeDialogAssociation",
	},
	2: {
		"securityFunction", "tanProcess", "techId", "name", "maxLengthInput",
		"allowedFormat", "textReturnvalue", "maxLengthReturnvalue",
		"numberOfSupportedLists", "multiple", "tanTimeDialogAssociation",
		"tanListNumberRequired", "cancellable", "challengeClassRequired",
		"challengeValueRequired",
	},
	3: {
		"securityFunction", "tanProcess", "techId", "name", "maxLengthInput",
		"allowedFormat", "textReturnvalue", "maxLengthReturnvalue",
		"numberOfSupportedLists", "multiple", "tanTimeDialogAssociation",
		"tanListNumberRequired", "cancellable", "challengeClassRequired",
		"challengeValueRequired", "initializationMode", "descriptionRequired",
		"supportedMediaNumber",
	},
	4: {
		"securityFunction", "tanProcess", "techId", "zkaId", "zkaVersion",
		"name", "maxLengthInput", "allowedFormat", "textReturnvalue",
		"maxLengthReturnvalue", "numberOfSupportedLists", "multiple",
		"tanTimeDialogAssociation", "tanListNumberRequired", "cancellable",
		"smsChargeAccountRequired", "challengeClassRequired",
		"challengeValueRequired", "challengeStructured", "initializationMode",
		"descriptionRequired", "supportedMediaNumber",
	},
	5: {
		"securityFunction", "tanProcess", "techId", "zkaId", "zkaVersion",
		"name", "maxLengthInput", "allowedFormat", "textReturnvalue",
		"maxLengthReturnvalue", "numberOfSupportedLists", "multiple",
		"tanTimeDialogAssociation", "tanListNumberRequired", "cancellable",
		"smsChargeAccountRequired", "principalAccountRequired",
		"challengeClassRequired", "challengeValueRequired",
		"initializationMode", "descriptionRequired", "supportedMediaNumber",
	},
	6: {
		"securityFunction", "tanProcess", "techId", "zkaId", "zkaVersion",
		"name", "maxLengthInput", "allowedFormat", "textReturnvalue",
		"maxLengthReturnvalue", "multiple", "tanTimeDialogAssociation",
		"cancellable", "smsChargeAccountRequired", "principalAccountRequired",
		"challengeClassRequired", "challengeStructured", "initializationMode",
		"descriptionRequired", "hhdUcRequired", "supportedMediaNumber",
	},
	7: {
		"securityFunction", "tanProcess", "techId", "zkaId", "zkaVersion",
		"name", "maxLengthInput", "allowedFormat", "textReturnvalue",
		"maxLengthReturnvalue", "numberOfSupportedLists", "multiple",
		"tanTimeDialogAssociation", "tanDialogOptions", "tanListNumberRequired",
		"cancellable", "smsChargeAccountRequired", "principalAccountRequired",
		"challengeClassRequired", "challengeValueRequired",
		"challengeStructured", "initializationMode", "supportedMediaNumber",
		"hhdUcRequired", "activeTanMedia", "decoupledMaxStatusRequests",
		"decoupledWaitBeforeFirstStatusRequest",
		"decoupledWaitBetweenStatusRequests",
		"decoupledManualConfirmationAllowed", "decoupledAutoConfirmationAllowed",
	},
}

// MethodFieldCount returns the descriptor width for a method version, false
// for unknown versions.
func MethodFieldCount(version int) (int, bool) {
	fields, ok := methodFields[version]
	return len(fields), ok
}

// Method describes one second-factor method variant advertised by the server.
type Method struct {
	Version          int
	SecurityFunction string
	Process          string
	TechID           string
	ZkaID            string
	ZkaVersion       string
	Name             string
	MaxInputLength   int
	AllowedFormat    string
	Multiple         bool
	Cancellable      bool
	Structured       bool

	// Server-advised decoupled polling parameters, version 7 only.
	// Negative means not advertised.
	DecoupledMaxStatusRequests int
	DecoupledWaitBeforeFirstMS int
	DecoupledWaitBetweenMS     int
	DecoupledManualAllowed     bool
	DecoupledAutoAllowed       bool
}

// Decoupled reports whether the method advertises decoupled polling limits.
func (m Method) Decoupled() bool {
	return m.DecoupledMaxStatusRequests >= 0
}

// ParseMethod builds a Method from one raw descriptor block of the given
// version. The block must be exactly as wide as the version's field layout.
func ParseMethod(version int, block []string) (Method, error) {
	fields, ok := methodFields[version]
	if !ok {
		return Method{}, fmt.Errorf("tan: unknown method version %d", version)
	}
	if len(block) != len(fields) {
		return Method{}, fmt.Errorf("tan: method version %d expects %d fields, got %d",
			version, len(fields), len(block))
	}
	byName := make(map[string]string, len(fields))
	for i, name := range fields {
		byName[name] = block[i]
	}
	m := Method{
		Version:                    version,
		SecurityFunction:           byName["securityFunction"],
		Process:                    byName["tanProcess"],
		TechID:                     byName["techId"],
		ZkaID:                      byName["zkaId"],
		ZkaVersion:                 byName["zkaVersion"],
		Name:                       byName["name"],
		AllowedFormat:              byName["allowedFormat"],
		Multiple:                   byName["multiple"] == "J",
		Cancellable:                byName["cancellable"] == "J",
		Structured:                 byName["challengeStructured"] == "J",
		DecoupledMaxStatusRequests: -1,
		DecoupledWaitBeforeFirstMS: -1,
		DecoupledWaitBetweenMS:     -1,
	}
	m.MaxInputLength = parseOptionalInt(byName["maxLengthInput"], 0)
	if v, ok := byName["decoupledMaxStatusRequests"]; ok && v != "" {
		m.DecoupledMaxStatusRequests = parseOptionalInt(v, -1)
	}
	if v, ok := byName["decoupledWaitBeforeFirstStatusRequest"]; ok && v != "" {
		// Server values are seconds per the parameter segment definition.
		m.DecoupledWaitBeforeFirstMS = parseOptionalInt(v, -1) * 1000
	}
	if v, ok := byName["decoupledWaitBetweenStatusRequests"]; ok && v != "" {
		m.DecoupledWaitBetweenMS = parseOptionalInt(v, -1) * 1000
	}
	m.DecoupledManualAllowed = byName["decoupledManualConfirmationAllowed"] == "J"
	m.DecoupledAutoAllowed = byName["decoupledAutoConfirmationAllowed"] == "J"
	return m, nil
}

func parseOptionalInt(s string, fallback int) int {
	if s == "" {
		return fallback
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}
