// Package qrcode validates payloads scanned from the QR stickers on bikes.
package qrcode

import (
	"regexp"
	"strings"
)

// DefaultPrefix is printed in front of every bike identifier, e.g. "BIKE-HN0042".
const DefaultPrefix = "BIKE-"

var bikeIDPattern = regexp.MustCompile(`^[A-Za-z0-9]{4,32}$`)

// Validator checks scanned strings against the bike-identifier format.
type Validator struct {
	prefix string
}

// NewValidator returns a validator for prefix; an empty prefix falls back to DefaultPrefix.
func NewValidator(prefix string) Validator {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return Validator{prefix: prefix}
}

// Prefix returns the configured payload prefix.
func (v Validator) Prefix() string {
	if v.prefix == "" {
		return DefaultPrefix
	}
	return v.prefix
}

// IsValidFormat reports whether payload is a bike identifier.
func (v Validator) IsValidFormat(payload string) bool {
	_, ok := v.BikeID(payload)
	return ok
}

// BikeID extracts the identifier that follows the prefix. Surrounding
// whitespace from the scanner is ignored.
func (v Validator) BikeID(payload string) (string, bool) {
	payload = strings.TrimSpace(payload)
	id, found := strings.CutPrefix(payload, v.Prefix())
	if !found || !bikeIDPattern.MatchString(id) {
		return "", false
	}
	return id, true
}

// Payload builds the string printed on a bike's QR sticker.
func (v Validator) Payload(bikeID string) string {
	return v.Prefix() + bikeID
}
