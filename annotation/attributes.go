package annotation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/e-plus-healthcare-alliance/schemas/errors"
	"github.com/e-plus-healthcare-alliance/schemas/ontology"
)

// ValueKind is the explicit discriminant of the AttributeValue union.
// The kind is always carried in the wire form - it is never inferred
// from the shape of the value, because text, external identifiers and
// ontology terms are all string-shaped.
type ValueKind string

const (
	// KindText is a plain text value.
	KindText ValueKind = "text"

	// KindExternalIdentifier is a reference into a third-party database.
	KindExternalIdentifier ValueKind = "external_identifier"

	// KindOntologyTerm is a controlled-vocabulary term.
	KindOntologyTerm ValueKind = "ontology_term"
)

// IsValid checks if the ValueKind is one of the defined constants.
func (vk ValueKind) IsValid() bool {
	switch vk {
	case KindText, KindExternalIdentifier, KindOntologyTerm:
		return true
	default:
		return false
	}
}

// String returns the string representation of the ValueKind.
func (vk ValueKind) String() string {
	return string(vk)
}

// ExternalIdentifier is a reference into a third-party database.
// It is an immutable value type with no identity beyond field equality.
type ExternalIdentifier struct {
	// Database names the external database (e.g., "GenBank").
	Database string `json:"database"`

	// Identifier is the record id within that database.
	Identifier string `json:"identifier"`

	// Version is the database-specific record version.
	Version string `json:"version"`
}

// Equal compares two identifiers field by field.
func (x ExternalIdentifier) Equal(other ExternalIdentifier) bool {
	return x == other
}

// AttributeValue is a closed tagged union over plain text, an external
// database identifier, or an ontology term.
//
// Values decoded from a future schema version may carry a kind this
// library does not know. Such values are preserved opaquely: they keep
// their original wire bytes, re-encode unchanged, and answer false to
// every typed accessor. The codec's unknown-field policy decides
// whether opaque values survive decoding or are dropped with a warning.
//
// AttributeValue is immutable after construction.
type AttributeValue struct {
	kind ValueKind
	text string
	xid  ExternalIdentifier
	term ontology.Term

	// raw holds the original wire object for opaque (unknown-kind)
	// values so they round-trip byte for byte.
	raw json.RawMessage
}

// TextValue creates a plain text attribute value.
func TextValue(text string) AttributeValue {
	return AttributeValue{kind: KindText, text: text}
}

// ExternalIDValue creates an external-identifier attribute value.
func ExternalIDValue(xid ExternalIdentifier) AttributeValue {
	return AttributeValue{kind: KindExternalIdentifier, xid: xid}
}

// OntologyValue creates an ontology-term attribute value.
func OntologyValue(term ontology.Term) AttributeValue {
	return AttributeValue{kind: KindOntologyTerm, term: term}
}

// Kind returns the union discriminant. For opaque values this is the
// kind declared by the (newer) encoder, which IsValid reports as false.
func (v AttributeValue) Kind() ValueKind {
	return v.kind
}

// Text returns the text value and true when the kind is KindText.
func (v AttributeValue) Text() (string, bool) {
	if v.kind != KindText || v.raw != nil {
		return "", false
	}
	return v.text, true
}

// ExternalID returns the identifier and true when the kind is
// KindExternalIdentifier.
func (v AttributeValue) ExternalID() (ExternalIdentifier, bool) {
	if v.kind != KindExternalIdentifier || v.raw != nil {
		return ExternalIdentifier{}, false
	}
	return v.xid, true
}

// Term returns the ontology term and true when the kind is
// KindOntologyTerm.
func (v AttributeValue) Term() (ontology.Term, bool) {
	if v.kind != KindOntologyTerm || v.raw != nil {
		return ontology.Term{}, false
	}
	return v.term, true
}

// IsOpaque reports whether this value was decoded from an unknown union
// variant and is carried as raw bytes only.
func (v AttributeValue) IsOpaque() bool {
	return v.raw != nil
}

// Equal compares two attribute values. Opaque values compare by their
// preserved wire bytes; typed values compare kind and payload. Ontology
// terms compare by accession, matching ontology.Term.Equal.
func (v AttributeValue) Equal(other AttributeValue) bool {
	if v.IsOpaque() || other.IsOpaque() {
		return bytes.Equal(v.raw, other.raw)
	}
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindText:
		return v.text == other.text
	case KindExternalIdentifier:
		return v.xid == other.xid
	case KindOntologyTerm:
		return v.term.Equal(other.term)
	default:
		return false
	}
}

// attributeValueWire is the JSON wire format for AttributeValue.
// Exactly one payload field is populated, selected by Kind.
type attributeValueWire struct {
	Kind               ValueKind           `json:"kind"`
	Text               *string             `json:"text,omitempty"`
	ExternalIdentifier *ExternalIdentifier `json:"external_identifier,omitempty"`
	OntologyTerm       *ontology.Term      `json:"ontology_term,omitempty"`
}

// MarshalJSON implements json.Marshaler. Opaque values re-emit their
// original bytes unchanged.
func (v AttributeValue) MarshalJSON() ([]byte, error) {
	if v.raw != nil {
		return v.raw, nil
	}

	wire := attributeValueWire{Kind: v.kind}
	switch v.kind {
	case KindText:
		wire.Text = &v.text
	case KindExternalIdentifier:
		xid := v.xid
		wire.ExternalIdentifier = &xid
	case KindOntologyTerm:
		term := v.term
		wire.OntologyTerm = &term
	default:
		return nil, errors.WrapInvalid(errors.ErrBadUnionTag, "AttributeValue", "MarshalJSON",
			fmt.Sprintf("kind %q", v.kind))
	}
	return json.Marshal(wire)
}

// UnmarshalJSON implements json.Unmarshaler. Unknown kinds are kept as
// opaque values; a missing kind tag or a kind without its payload is a
// decode error.
func (v *AttributeValue) UnmarshalJSON(data []byte) error {
	var wire attributeValueWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return errors.WrapDecode(errors.ErrTruncated, "AttributeValue", "UnmarshalJSON", err.Error())
	}

	if wire.Kind == "" {
		return errors.WrapDecode(errors.ErrMissingRequired, "AttributeValue", "UnmarshalJSON",
			"kind tag absent")
	}

	switch wire.Kind {
	case KindText:
		if wire.Text == nil {
			return errors.WrapDecode(errors.ErrMissingRequired, "AttributeValue", "UnmarshalJSON",
				"text payload absent")
		}
		*v = TextValue(*wire.Text)
	case KindExternalIdentifier:
		if wire.ExternalIdentifier == nil {
			return errors.WrapDecode(errors.ErrMissingRequired, "AttributeValue", "UnmarshalJSON",
				"external_identifier payload absent")
		}
		*v = ExternalIDValue(*wire.ExternalIdentifier)
	case KindOntologyTerm:
		if wire.OntologyTerm == nil {
			return errors.WrapDecode(errors.ErrMissingRequired, "AttributeValue", "UnmarshalJSON",
				"ontology_term payload absent")
		}
		*v = OntologyValue(*wire.OntologyTerm)
	default:
		// Future schema version. Preserve the whole object so it can
		// re-encode unchanged; the codec decides whether it survives.
		raw := make(json.RawMessage, len(data))
		copy(raw, data)
		*v = AttributeValue{kind: wire.Kind, raw: raw}
	}
	return nil
}

// Attributes is an ordered mapping from attribute name to a non-empty
// sequence of AttributeValue.
//
// Order within a value sequence is significant (GFF3 attributes repeat
// with meaning, e.g. multiple Dbxref entries). Insertion order among
// distinct names is tracked for deterministic iteration but carries no
// semantics: Equal ignores it, and after decoding names are ordered
// lexically.
//
// Invariant: a name present in the store always maps to at least one
// value. Set rejects empty sequences and Remove deletes entries
// outright, so an empty sequence is never observable.
//
// Attributes is not safe for concurrent mutation. Callers must hold
// exclusive access during Set/Append/Remove; any number of readers may
// run concurrently as long as no writer is active.
type Attributes struct {
	names  []string
	values map[string][]AttributeValue
}

// NewAttributes creates an empty attribute store.
func NewAttributes() *Attributes {
	return &Attributes{values: make(map[string][]AttributeValue)}
}

// Set replaces the value sequence for name.
// Returns ErrInvalidAttribute when values is empty: the store never
// holds empty sequences.
func (a *Attributes) Set(name string, values []AttributeValue) error {
	if len(values) == 0 {
		return errors.WrapInvalid(errors.ErrInvalidAttribute, "Attributes", "Set",
			fmt.Sprintf("attribute %q", name))
	}
	a.ensure()
	if _, exists := a.values[name]; !exists {
		a.names = append(a.names, name)
	}
	seq := make([]AttributeValue, len(values))
	copy(seq, values)
	a.values[name] = seq
	return nil
}

// Append adds a value to the end of the sequence for name, creating the
// entry if absent.
func (a *Attributes) Append(name string, value AttributeValue) {
	a.ensure()
	if _, exists := a.values[name]; !exists {
		a.names = append(a.names, name)
	}
	a.values[name] = append(a.values[name], value)
}

// Get returns the value sequence for name and true when present.
// A missing name reports (nil, false) rather than an error; absence is
// an expected condition for optional GFF3 attributes. The returned
// slice is a copy - mutating it does not affect the store.
func (a *Attributes) Get(name string) ([]AttributeValue, bool) {
	if a == nil || a.values == nil {
		return nil, false
	}
	seq, ok := a.values[name]
	if !ok {
		return nil, false
	}
	out := make([]AttributeValue, len(seq))
	copy(out, seq)
	return out, true
}

// Remove deletes the entry for name entirely.
// Removing a non-existent name is a no-op, not an error.
func (a *Attributes) Remove(name string) {
	if a == nil || a.values == nil {
		return
	}
	if _, exists := a.values[name]; !exists {
		return
	}
	delete(a.values, name)
	for i, n := range a.names {
		if n == name {
			a.names = append(a.names[:i], a.names[i+1:]...)
			break
		}
	}
}

// Names returns the attribute names in iteration order.
func (a *Attributes) Names() []string {
	if a == nil {
		return nil
	}
	out := make([]string, len(a.names))
	copy(out, a.names)
	return out
}

// Len returns the number of distinct attribute names.
func (a *Attributes) Len() int {
	if a == nil {
		return 0
	}
	return len(a.values)
}

// DropOpaque removes every opaque (unknown-kind) value from the store,
// deleting entries whose sequence becomes empty so the non-empty
// invariant holds. Returns the number of values dropped.
func (a *Attributes) DropOpaque() int {
	if a == nil || a.values == nil {
		return 0
	}
	dropped := 0
	for _, name := range a.Names() {
		seq := a.values[name]
		kept := seq[:0]
		for _, v := range seq {
			if v.IsOpaque() {
				dropped++
				continue
			}
			kept = append(kept, v)
		}
		if len(kept) == 0 {
			a.Remove(name)
			continue
		}
		a.values[name] = kept
	}
	return dropped
}

// Equal compares two stores by content. Name order is not semantically
// significant and is ignored; value order within each name is compared.
func (a *Attributes) Equal(other *Attributes) bool {
	if a.Len() != other.Len() {
		return false
	}
	if a == nil || other == nil {
		return a.Len() == 0 && other.Len() == 0
	}
	for name, seq := range a.values {
		otherSeq, ok := other.values[name]
		if !ok || len(seq) != len(otherSeq) {
			return false
		}
		for i := range seq {
			if !seq[i].Equal(otherSeq[i]) {
				return false
			}
		}
	}
	return true
}

// MarshalJSON implements json.Marshaler. The wire form is a plain JSON
// object from name to value array.
func (a *Attributes) MarshalJSON() ([]byte, error) {
	if a == nil || len(a.values) == 0 {
		return []byte("{}"), nil
	}
	return json.Marshal(a.values)
}

// UnmarshalJSON implements json.Unmarshaler. Entries decoded with an
// empty value sequence are rejected to preserve the store invariant.
// Names are ordered lexically after decoding (JSON objects carry no
// order).
func (a *Attributes) UnmarshalJSON(data []byte) error {
	var wire map[string][]AttributeValue
	if err := json.Unmarshal(data, &wire); err != nil {
		return errors.WrapDecode(errors.ErrTruncated, "Attributes", "UnmarshalJSON", err.Error())
	}

	values := make(map[string][]AttributeValue, len(wire))
	names := make([]string, 0, len(wire))
	for name, seq := range wire {
		if len(seq) == 0 {
			return errors.WrapDecode(errors.ErrMissingRequired, "Attributes", "UnmarshalJSON",
				fmt.Sprintf("attribute %q has empty value sequence", name))
		}
		values[name] = seq
		names = append(names, name)
	}
	sort.Strings(names)

	a.names = names
	a.values = values
	return nil
}

func (a *Attributes) ensure() {
	if a.values == nil {
		a.values = make(map[string][]AttributeValue)
	}
}
