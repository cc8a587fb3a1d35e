package annotation

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/e-plus-healthcare-alliance/schemas/coordinates"
	"github.com/e-plus-healthcare-alliance/schemas/errors"
	"github.com/e-plus-healthcare-alliance/schemas/ontology"
)

// Feature is a discrete annotation node over a genomic region: an
// ontology-typed record with zero or more parent links, forming the
// GFF3-style annotation graph.
//
// ParentIDs are forward references resolved lazily by the owning
// FeatureGraph. A parent id may name a feature that has not been
// inserted yet - graphs may be streamed or partial - so Feature never
// holds object links, only ids.
type Feature struct {
	// ID is unique within the owning feature set.
	ID string `json:"id"`

	// ParentIDs lists the ids of parent features. Empty for roots.
	// Multi-parent linkage is legal (an exon shared by transcripts).
	ParentIDs []string `json:"parent_ids,omitempty"`

	// FeatureSetID names the set that owns this feature.
	FeatureSetID string `json:"feature_set_id"`

	// Path is the genomic region the feature annotates.
	Path coordinates.Path `json:"path"`

	// FeatureType is the Sequence Ontology classification.
	FeatureType ontology.Term `json:"feature_type"`

	// Attributes carries the GFF3-style attribute store.
	Attributes *Attributes `json:"attributes,omitempty"`
}

// Validate checks required fields and referential sanity local to the
// feature itself. Graph-level checks (cycles, dangling parents) belong
// to FeatureGraph.Validate.
func (f *Feature) Validate() error {
	if f.ID == "" {
		return errors.WrapInvalid(errors.ErrMissingRequired, "Feature", "Validate", "id is required")
	}
	if f.FeatureSetID == "" {
		return errors.WrapInvalid(errors.ErrMissingRequired, "Feature", "Validate", "feature_set_id is required")
	}
	if !f.Path.IsValid() {
		return errors.WrapInvalid(errors.ErrInvalidRegion, "Feature", "Validate",
			fmt.Sprintf("feature %q path", f.ID))
	}
	if !f.FeatureType.IsValid() {
		return errors.WrapInvalid(errors.ErrMissingRequired, "Feature", "Validate",
			fmt.Sprintf("feature %q feature_type", f.ID))
	}
	for i, parentID := range f.ParentIDs {
		if parentID == "" {
			return errors.WrapInvalid(errors.ErrMissingRequired, "Feature", "Validate",
				fmt.Sprintf("feature %q parent_ids[%d] is empty", f.ID, i))
		}
	}
	return nil
}

// IsRoot reports whether the feature has no parents.
func (f *Feature) IsRoot() bool {
	return len(f.ParentIDs) == 0
}

// Attrs returns the attribute store, creating it on first use so
// callers can append without a nil check.
func (f *Feature) Attrs() *Attributes {
	if f.Attributes == nil {
		f.Attributes = NewAttributes()
	}
	return f.Attributes
}

// Equal compares two features by content.
func (f *Feature) Equal(other *Feature) bool {
	if f == nil || other == nil {
		return f == other
	}
	if f.ID != other.ID || f.FeatureSetID != other.FeatureSetID {
		return false
	}
	if !f.Path.Equal(other.Path) || !f.FeatureType.Equal(other.FeatureType) {
		return false
	}
	if len(f.ParentIDs) != len(other.ParentIDs) {
		return false
	}
	for i := range f.ParentIDs {
		if f.ParentIDs[i] != other.ParentIDs[i] {
			return false
		}
	}
	return f.Attributes.Equal(other.Attributes)
}

// FeatureSet is a named collection of features sharing one reference
// coordinate space.
//
// DatasetID, ReferenceSetID, Name and SourceURI are tri-state optional:
// a nil pointer means the field was never set, which is distinct from a
// pointer to the empty string. The codec encodes nil as field-omitted
// so older and newer encodings stay distinguishable.
type FeatureSet struct {
	// ID is the set identifier.
	ID string `json:"id"`

	// DatasetID optionally names the dataset this set belongs to.
	DatasetID *string `json:"dataset_id,omitempty"`

	// ReferenceSetID optionally names the coordinate space every
	// contained feature's path must use. The path check is lazy -
	// reference resolution is owned by the coordinate companion.
	ReferenceSetID *string `json:"reference_set_id,omitempty"`

	// Name is the optional human-readable set name.
	Name *string `json:"name,omitempty"`

	// SourceURI optionally records where the set was ingested from.
	SourceURI *string `json:"source_uri,omitempty"`

	// Attributes carries set-level metadata.
	Attributes *Attributes `json:"attributes,omitempty"`
}

// NewFeatureSet creates a feature set, generating a UUID when id is
// empty.
func NewFeatureSet(id string) *FeatureSet {
	if id == "" {
		id = uuid.New().String()
	}
	return &FeatureSet{ID: id, Attributes: NewAttributes()}
}

// Validate checks required fields.
func (fs *FeatureSet) Validate() error {
	if fs.ID == "" {
		return errors.WrapInvalid(errors.ErrMissingRequired, "FeatureSet", "Validate", "id is required")
	}
	return nil
}

// Equal compares two sets by content, including optional-field
// presence: nil and pointer-to-empty are not equal.
func (fs *FeatureSet) Equal(other *FeatureSet) bool {
	if fs == nil || other == nil {
		return fs == other
	}
	return fs.ID == other.ID &&
		optEqual(fs.DatasetID, other.DatasetID) &&
		optEqual(fs.ReferenceSetID, other.ReferenceSetID) &&
		optEqual(fs.Name, other.Name) &&
		optEqual(fs.SourceURI, other.SourceURI) &&
		fs.Attributes.Equal(other.Attributes)
}

// optEqual compares tri-state optional strings: both absent, or both
// present with the same value.
func optEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// StringPtr returns a pointer to s, for populating optional fields.
func StringPtr(s string) *string {
	return &s
}
