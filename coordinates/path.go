// Package coordinates provides the genomic region value types shared by
// every annotation record. A Path names a half-open interval
// [Start, Start+Length) on a reference sequence, optionally stranded.
//
// Path is an immutable value type: it has equality and no behavior
// beyond simple interval arithmetic. The annotation packages treat it
// as opaque - they never decompose a Path beyond Start/Length/Contains.
package coordinates

import "encoding/json"

// Strand represents the orientation of a region on its reference.
type Strand string

const (
	// StrandForward is the 5' to 3' orientation of the reference.
	StrandForward Strand = "+"

	// StrandReverse is the reverse complement orientation.
	StrandReverse Strand = "-"

	// StrandNone indicates the region is unstranded.
	// Example: a wiggle track sampled without orientation.
	StrandNone Strand = "."
)

// String returns the string representation of the Strand.
func (s Strand) String() string {
	return string(s)
}

// MarshalJSON implements json.Marshaler to ensure Strand serializes as a string.
func (s Strand) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(s))
}

// UnmarshalJSON implements json.Unmarshaler to deserialize Strand from string.
func (s *Strand) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	*s = Strand(str)
	return nil
}

// IsValid checks if the Strand is one of the defined constants.
func (s Strand) IsValid() bool {
	switch s {
	case StrandForward, StrandReverse, StrandNone:
		return true
	default:
		return false
	}
}

// Path identifies a contiguous region of a reference sequence.
// Positions are zero-based; the region covers [Start, Start+Length).
type Path struct {
	// ReferenceName is the sequence the region lies on (e.g., "chr7").
	ReferenceName string `json:"reference_name"`

	// Start is the zero-based first position of the region.
	Start int64 `json:"start"`

	// Length is the number of positions covered. Zero is legal and
	// denotes an empty region (an insertion point).
	Length int64 `json:"length"`

	// Strand is the orientation of the region.
	Strand Strand `json:"strand"`
}

// End returns the exclusive end position: Start + Length.
func (p Path) End() int64 {
	return p.Start + p.Length
}

// Contains reports whether pos falls inside [Start, Start+Length).
func (p Path) Contains(pos int64) bool {
	return pos >= p.Start && pos < p.End()
}

// Equal compares two Path values field by field.
func (p Path) Equal(other Path) bool {
	return p == other
}

// IsValid checks that the Path names a reference, covers a non-negative
// span, and carries a defined strand.
func (p Path) IsValid() bool {
	return p.ReferenceName != "" && p.Start >= 0 && p.Length >= 0 && p.Strand.IsValid()
}
