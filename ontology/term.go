// Package ontology provides the controlled-vocabulary term type used to
// classify annotation records, together with a curated table of common
// Sequence Ontology terms.
//
// A Term is an immutable value type: an accession plus an optional
// human-readable label. The annotation packages compare terms by
// accession only - the label is display metadata and two terms with the
// same ID are the same term regardless of label.
package ontology

import "encoding/json"

// Term is a reference into a controlled vocabulary such as the
// Sequence Ontology.
type Term struct {
	// ID is the term accession (e.g., "SO:0000704").
	ID string `json:"id"`

	// Label is the optional human-readable name (e.g., "gene").
	// It is advisory; equality ignores it.
	Label string `json:"label,omitempty"`
}

// Equal compares two terms by accession. Labels are display metadata
// and do not participate in identity.
func (t Term) Equal(other Term) bool {
	return t.ID == other.ID
}

// IsValid checks that the term carries an accession.
func (t Term) IsValid() bool {
	return t.ID != ""
}

// String returns the label when present, otherwise the accession.
func (t Term) String() string {
	if t.Label != "" {
		return t.Label
	}
	return t.ID
}

// MarshalJSON implements json.Marshaler.
func (t Term) MarshalJSON() ([]byte, error) {
	type Alias Term
	return json.Marshal(Alias(t))
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Term) UnmarshalJSON(data []byte) error {
	type Alias Term
	return json.Unmarshal(data, (*Alias)(t))
}
