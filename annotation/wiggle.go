package annotation

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/e-plus-healthcare-alliance/schemas/coordinates"
	"github.com/e-plus-healthcare-alliance/schemas/errors"
)

// Wiggle is a continuous numeric signal over a genomic region, sampled
// into len(Values) equal-width bins covering [Path.Start, Path.End()).
//
// Gaps between disjoint regions require separate Wiggle records: the
// evaluator never interpolates across a gap, and this package never
// merges adjacent or overlapping wiggles over the same path. Callers
// query records individually and decide themselves how to combine them.
type Wiggle struct {
	// Path is the region the signal covers.
	Path coordinates.Path `json:"path"`

	// Values holds one sample per bin, in region order.
	Values []float64 `json:"values"`

	// Attributes carries track-level metadata.
	Attributes *Attributes `json:"attributes,omitempty"`
}

// BinCount returns the number of bins.
func (w *Wiggle) BinCount() int {
	return len(w.Values)
}

// BinWidth returns the width of one bin in positions, or 0 when the
// wiggle has no bins.
func (w *Wiggle) BinWidth() float64 {
	if len(w.Values) == 0 {
		return 0
	}
	return float64(w.Path.Length) / float64(len(w.Values))
}

// ValueAt evaluates the signal at a genomic position.
//
// The second return is the "has value" marker: it is false, with a nil
// error, when the position lies outside [Path.Start, Path.End()) or
// when the wiggle has no bins. Absence of a value is not zero - a bin
// can legitimately hold 0.0.
//
// A zero-length path with a nonzero bin count makes the bin width
// undefined and reports ErrInvalidRegion.
func (w *Wiggle) ValueAt(pos int64) (float64, bool, error) {
	count := len(w.Values)
	if count > 0 && w.Path.Length == 0 {
		return 0, false, errors.WrapInvalid(errors.ErrInvalidRegion, "Wiggle", "ValueAt",
			fmt.Sprintf("%d bins over zero-length region", count))
	}
	if count == 0 || !w.Path.Contains(pos) {
		return 0, false, nil
	}

	i := int((pos - w.Path.Start) * int64(count) / w.Path.Length)
	// Clamp against floating-point/rounding at the exact right edge:
	// the last covered position must map to the last bin, never to
	// index count.
	if i >= count {
		i = count - 1
	}
	if i < 0 {
		i = 0
	}
	return w.Values[i], true, nil
}

// Validate checks the wiggle's region and bin math are coherent.
func (w *Wiggle) Validate() error {
	if !w.Path.IsValid() {
		return errors.WrapInvalid(errors.ErrInvalidRegion, "Wiggle", "Validate", "path")
	}
	if len(w.Values) > 0 && w.Path.Length == 0 {
		return errors.WrapInvalid(errors.ErrInvalidRegion, "Wiggle", "Validate",
			fmt.Sprintf("%d bins over zero-length region", len(w.Values)))
	}
	return nil
}

// Equal compares two wiggles by content.
func (w *Wiggle) Equal(other *Wiggle) bool {
	if w == nil || other == nil {
		return w == other
	}
	if !w.Path.Equal(other.Path) || len(w.Values) != len(other.Values) {
		return false
	}
	for i := range w.Values {
		if w.Values[i] != other.Values[i] {
			return false
		}
	}
	return w.Attributes.Equal(other.Attributes)
}

// WiggleSet is a named, attributed collection grouping wiggle tracks.
// The grouping relation itself (which wiggles belong to which set) is
// owned by the storage layer; the core only defines the container.
type WiggleSet struct {
	// ID is the set identifier.
	ID string `json:"id"`

	// Attributes carries set-level metadata.
	Attributes *Attributes `json:"attributes,omitempty"`
}

// NewWiggleSet creates a wiggle set, generating a UUID when id is empty.
func NewWiggleSet(id string) *WiggleSet {
	if id == "" {
		id = uuid.New().String()
	}
	return &WiggleSet{ID: id, Attributes: NewAttributes()}
}

// Validate checks required fields.
func (ws *WiggleSet) Validate() error {
	if ws.ID == "" {
		return errors.WrapInvalid(errors.ErrMissingRequired, "WiggleSet", "Validate", "id is required")
	}
	return nil
}

// Equal compares two wiggle sets by content.
func (ws *WiggleSet) Equal(other *WiggleSet) bool {
	if ws == nil || other == nil {
		return ws == other
	}
	return ws.ID == other.ID && ws.Attributes.Equal(other.Attributes)
}
