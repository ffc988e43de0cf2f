package models

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Manifest is the derived list of every station id in the collection.
// It is rebuilt from a directory listing, never edited by hand.
type Manifest struct {
	Stations []string `json:"stations"`
}

// NewManifest builds a manifest from ids, dropping duplicates.
// Ids are sorted so identical directory contents produce identical bytes.
func NewManifest(ids []string) *Manifest {
	seen := make(map[string]bool, len(ids))
	stations := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		stations = append(stations, id)
	}
	sort.Strings(stations)

	return &Manifest{Stations: stations}
}

// Contains reports whether id is listed
func (m *Manifest) Contains(id string) bool {
	for _, s := range m.Stations {
		if s == id {
			return true
		}
	}
	return false
}

// EncodeManifest serializes the manifest as committed
func EncodeManifest(m *Manifest) ([]byte, error) {
	return encodeIndented(m)
}

// DecodeManifest parses {"stations": [...]} and also accepts the bare array
// form older admin panel builds wrote.
func DecodeManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err == nil {
		if m.Stations == nil {
			m.Stations = []string{}
		}
		return &m, nil
	}

	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, fmt.Errorf("invalid manifest: %w", err)
	}
	return NewManifest(ids), nil
}
