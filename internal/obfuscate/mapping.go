package obfuscate

import "encoding/json"

// Mapping is the serializable form of an obfuscator's reverse map:
// `{"mapping": {"<obfuscated>": "<original>", ...}}`, grounded on the
// original Rust ObfuscationMapping.
type Mapping struct {
	Entries map[string]string `json:"mapping"`
}

// FromObfuscator snapshots an obfuscator's current reverse map.
func FromObfuscator(o *NameObfuscator) Mapping {
	return Mapping{Entries: o.ExportMapping()}
}

// Deobfuscate looks up one pseudonym's original name.
func (m Mapping) Deobfuscate(obfuscated string) (string, bool) {
	name, ok := m.Entries[obfuscated]
	return name, ok
}

// MarshalFile serializes the mapping to JSON bytes.
func (m Mapping) MarshalFile() ([]byte, error) {
	return json.MarshalIndent(m, "", "  ")
}

// LoadMapping parses a mapping file's JSON bytes; loading is the
// symmetric inverse of Mapping.MarshalFile.
func LoadMapping(data []byte) (Mapping, error) {
	var m Mapping
	if err := json.Unmarshal(data, &m); err != nil {
		return Mapping{}, err
	}
	if m.Entries == nil {
		m.Entries = make(map[string]string)
	}
	return m, nil
}
