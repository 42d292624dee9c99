package model

import (
	"fmt"
	"time"
)

// APIKey is an issued credential and its metadata. The raw key is the
// identity of the record and is only ever returned in full at issuance.
type APIKey struct {
	Key      string     `json:"-"`
	Name     string     `json:"name"`
	Created  time.Time  `json:"created"`
	LastUsed *time.Time `json:"last_used"`
	Active   bool       `json:"active"`
}

// MaskedAPIKey is the display form of an APIKey with the key redacted.
type MaskedAPIKey struct {
	Key      string     `json:"key"`
	Name     string     `json:"name"`
	Created  time.Time  `json:"created"`
	LastUsed *time.Time `json:"last_used"`
	Active   bool       `json:"active"`
}

// Masked returns the record with only the first and last eight characters of
// the key visible.
func (k APIKey) Masked() MaskedAPIKey {
	return MaskedAPIKey{
		Key:      MaskKey(k.Key, 8),
		Name:     k.Name,
		Created:  k.Created,
		LastUsed: k.LastUsed,
		Active:   k.Active,
	}
}

// MaskKey keeps visible characters at each end of key and replaces the middle
// with "***". Keys too short to keep anything hidden are fully redacted.
func MaskKey(key string, visible int) string {
	if len(key) <= 2*visible {
		return "***"
	}
	return key[:visible] + "***" + key[len(key)-visible:]
}

// timestampLayouts are tried in order when reading stored timestamps. The
// zone-less layouts cover key files written by older deployments.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

// ParseTimestamp parses an RFC 3339 timestamp, falling back to naive ISO-8601
// forms which are interpreted as local time.
func ParseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", s)
}
