package annotation

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/e-plus-healthcare-alliance/schemas/coordinates"
	"github.com/e-plus-healthcare-alliance/schemas/ontology"
)

func TestFeature_Validate(t *testing.T) {
	valid := testFeature("gene1")
	assert.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*Feature)
	}{
		{"missing id", func(f *Feature) { f.ID = "" }},
		{"missing set id", func(f *Feature) { f.FeatureSetID = "" }},
		{"invalid path", func(f *Feature) { f.Path.ReferenceName = "" }},
		{"missing feature type", func(f *Feature) { f.FeatureType = ontology.Term{} }},
		{"empty parent id", func(f *Feature) { f.ParentIDs = []string{""} }},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			f := testFeature("gene1")
			test.mutate(f)
			assert.Error(t, f.Validate())
		})
	}
}

func TestFeature_IsRoot(t *testing.T) {
	assert.True(t, testFeature("gene1").IsRoot())
	assert.False(t, testFeature("mrna1", "gene1").IsRoot())
}

func TestFeature_AttrsLazyInit(t *testing.T) {
	f := testFeature("gene1")
	require.Nil(t, f.Attributes)

	f.Attrs().Append("Name", TextValue("BRCA2"))
	values, ok := f.Attributes.Get("Name")
	require.True(t, ok)
	assert.Len(t, values, 1)
}

func TestFeature_Equal(t *testing.T) {
	a := testFeature("exon1", "mrna1")
	b := testFeature("exon1", "mrna1")
	assert.True(t, a.Equal(b))

	b.Path.Start = 200
	assert.False(t, a.Equal(b))

	c := testFeature("exon1", "mrna2")
	assert.False(t, a.Equal(c))
}

func TestNewFeatureSet_GeneratesID(t *testing.T) {
	fs := NewFeatureSet("")
	assert.NotEmpty(t, fs.ID)
	assert.NoError(t, fs.Validate())

	named := NewFeatureSet("gencode-v44")
	assert.Equal(t, "gencode-v44", named.ID)
}

func TestFeatureSet_OptionalFieldsAreTriState(t *testing.T) {
	unset := NewFeatureSet("fs1")
	empty := NewFeatureSet("fs1")
	empty.Name = StringPtr("")

	// Absent and set-to-empty are distinguishable states.
	assert.False(t, unset.Equal(empty))

	data, err := json.Marshal(unset)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "name")

	data, err = json.Marshal(empty)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"name":""`)
}

func TestFeatureSet_Equal(t *testing.T) {
	a := NewFeatureSet("fs1")
	a.ReferenceSetID = StringPtr("GRCh38")
	b := NewFeatureSet("fs1")
	b.ReferenceSetID = StringPtr("GRCh38")

	assert.True(t, a.Equal(b))

	b.ReferenceSetID = StringPtr("GRCh37")
	assert.False(t, a.Equal(b))
}

func TestFeature_PathInSetCoordinateSpace(t *testing.T) {
	// A feature in a set's coordinate space carries a path on the
	// set's reference; the linkage itself is by id and checked lazily.
	fs := NewFeatureSet("fs1")
	fs.ReferenceSetID = StringPtr("GRCh38")

	f := testFeature("gene1")
	f.FeatureSetID = fs.ID
	assert.Equal(t, fs.ID, f.FeatureSetID)
	assert.True(t, f.Path.Equal(coordinates.Path{
		ReferenceName: "chr1",
		Start:         100,
		Length:        50,
		Strand:        coordinates.StrandForward,
	}))
}
