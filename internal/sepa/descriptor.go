// Package sepa selects pain schema descriptors and builds and parses the
// pain.001/pain.008 payment initiation documents embedded in payment orders.
package sepa

import (
	"errors"
	"regexp"
	"strings"
)

var (
	ErrNoPain001 = errors.New("sepa: bank does not advertise support for pain.001 credit transfer messages")
	ErrNoPain008 = errors.New("sepa: bank does not advertise support for pain.008 direct debit messages")
)

// Newest first; older schemas only when the bank offers nothing better.
var (
	pain001Preferred = []string{"pain.001.003.03", "pain.001.001.03", "pain.001.003.02", "pain.001.001.02"}
	pain008Preferred = []string{"pain.008.003.02", "pain.008.003.01", "pain.008.002.02", "pain.008.001.02"}
)

var (
	pain001Version = regexp.MustCompile(`pain\.001\.\d{3}\.\d{2}`)
	pain008Version = regexp.MustCompile(`pain\.008\.\d{3}\.\d{2}`)
)

// SelectPain001Descriptor picks the credit-transfer schema descriptor to use
// from the bank's advertised formats.
func SelectPain001Descriptor(painFormats []string) (string, error) {
	return selectDescriptor(painFormats, pain001Preferred, "pain.001", ErrNoPain001)
}

// SelectPain008Descriptor picks the direct-debit schema descriptor to use
// from the bank's advertised formats.
func SelectPain008Descriptor(painFormats []string) (string, error) {
	return selectDescriptor(painFormats, pain008Preferred, "pain.008", ErrNoPain008)
}

func selectDescriptor(painFormats, preferred []string, family string, missing error) (string, error) {
	for _, version := range preferred {
		for _, candidate := range painFormats {
			if strings.Contains(candidate, version) {
				return candidate, nil
			}
		}
	}
	for _, candidate := range painFormats {
		if strings.Contains(candidate, family) {
			return candidate, nil
		}
	}
	return "", missing
}

// namespaceFromDescriptor derives the document namespace from a schema
// descriptor. Descriptors usually embed the schema version; when they do not,
// the descriptor itself, minus any .xsd suffix, is the namespace.
func namespaceFromDescriptor(descriptor string, version *regexp.Regexp) string {
	if match := version.FindString(descriptor); match != "" {
		return "urn:iso:std:iso:20022:tech:xsd:" + match
	}
	return strings.TrimSuffix(strings.TrimSuffix(descriptor, ".xsd"), ".XSD")
}
