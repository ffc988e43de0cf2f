package models

import (
	"bytes"
	"encoding/json"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Station is one radio-station profile, stored as <stations dir>/<id>.json.
// Keys not declared here are kept in Extra and written back unchanged.
type Station struct {
	// Primary key and file stem. Immutable once created.
	ID string `json:"id"`

	Name        string `json:"name,omitempty"`
	StationName string `json:"stationName,omitempty"`
	CallLetters string `json:"callLetters,omitempty"`
	Frequency   string `json:"frequency,omitempty"`
	Location    string `json:"location,omitempty"`
	Format      string `json:"format,omitempty"`
	Established string `json:"established,omitempty"`

	// Rich text (HTML) bodies
	Synopsis    string `json:"synopsis,omitempty"`
	FullProfile string `json:"fullProfile,omitempty"`
	FullContent string `json:"fullContent,omitempty"`

	// Data URI or external URL, stored as given
	Logo string `json:"logo,omitempty"`

	Website   string `json:"website,omitempty"`
	Facebook  string `json:"facebook,omitempty"`
	Twitter   string `json:"twitter,omitempty"`
	Instagram string `json:"instagram,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

// stationFields has Station's layout without its methods
type stationFields Station

var knownStationFields = []string{
	"id", "name", "stationName", "callLetters", "frequency", "location", "format",
	"established", "synopsis", "fullProfile", "fullContent", "logo",
	"website", "facebook", "twitter", "instagram",
}

// MarshalJSON writes declared fields followed by preserved unknown keys.
// HTML in rich text fields is not escaped.
func (s Station) MarshalJSON() ([]byte, error) {
	known, err := marshalNoEscape(stationFields(s))
	if err != nil {
		return nil, err
	}
	if len(s.Extra) == 0 {
		return known, nil
	}

	merged := make(map[string]json.RawMessage, len(knownStationFields)+len(s.Extra))
	if err := json.Unmarshal(known, &merged); err != nil {
		return nil, err
	}
	for k, v := range s.Extra {
		if _, declared := merged[k]; !declared && !isKnownField(k) {
			merged[k] = v
		}
	}

	return marshalNoEscape(merged)
}

// UnmarshalJSON reads declared fields and keeps everything else in Extra,
// compacted so re-encoding is stable.
func (s *Station) UnmarshalJSON(data []byte) error {
	var fields stationFields
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}
	for k, v := range all {
		// encoding/json matches declared fields case-insensitively
		if isKnownField(k) {
			delete(all, k)
			continue
		}
		var compact bytes.Buffer
		if err := json.Compact(&compact, v); err != nil {
			return err
		}
		all[k] = compact.Bytes()
	}

	*s = Station(fields)
	if len(all) > 0 {
		s.Extra = all
	} else {
		s.Extra = nil
	}

	return nil
}

// DisplayName prefers the editor's stationName over the admin panel's name
func (s *Station) DisplayName() string {
	if s.StationName != "" {
		return s.StationName
	}
	if s.Name != "" {
		return s.Name
	}
	return s.ID
}

// EncodeStation serializes a record the way it is committed: two-space
// indent, unescaped HTML, trailing newline.
func EncodeStation(s *Station) ([]byte, error) {
	return encodeIndented(s)
}

// DecodeStation parses a stored record
func DecodeStation(data []byte) (*Station, error) {
	var s Station
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// NormalizeID trims, NFC-normalizes and lowercases a station id
func NormalizeID(id string) string {
	return cases.Lower(language.Und).String(norm.NFC.String(strings.TrimSpace(id)))
}

// StationFileName is the blob name for a station id
func StationFileName(id string) string {
	return id + ".json"
}

// IDFromFileName returns the station id for a directory entry, or false for
// anything that is not a station blob (non-JSON files and the manifest).
func IDFromFileName(name, manifestName string) (string, bool) {
	if name == manifestName || !strings.HasSuffix(name, ".json") {
		return "", false
	}
	id := strings.TrimSuffix(name, ".json")
	if id == "" {
		return "", false
	}
	return id, true
}

func isKnownField(key string) bool {
	for _, k := range knownStationFields {
		if strings.EqualFold(k, key) {
			return true
		}
	}
	return false
}

func marshalNoEscape(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

func encodeIndented(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
