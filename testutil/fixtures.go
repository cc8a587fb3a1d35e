// Package testutil provides ready-made annotation fixtures for tests:
// a small canonical gene model, signal tracks and populated attribute
// stores. Fixtures return fresh values on every call so tests can
// mutate them freely.
package testutil

import (
	"fmt"
	"testing"

	"github.com/e-plus-healthcare-alliance/schemas/annotation"
	"github.com/e-plus-healthcare-alliance/schemas/coordinates"
	"github.com/e-plus-healthcare-alliance/schemas/ontology"
)

// TestSetID is the feature-set ID shared by all fixture features.
const TestSetID = "test-set"

// TestReference is the reference sequence the fixtures live on.
const TestReference = "chr13"

// GeneFeature returns a minimal valid root gene.
func GeneFeature(id string) *annotation.Feature {
	return &annotation.Feature{
		ID:           id,
		FeatureSetID: TestSetID,
		Path: coordinates.Path{
			ReferenceName: TestReference,
			Start:         32315473,
			Length:        84195,
			Strand:        coordinates.StrandForward,
		},
		FeatureType: ontology.SOGene,
	}
}

// ChildFeature returns a feature of the given type parented on parentID,
// positioned inside the fixture gene.
func ChildFeature(id, parentID string, featureType ontology.Term, start, length int64) *annotation.Feature {
	return &annotation.Feature{
		ID:           id,
		ParentIDs:    []string{parentID},
		FeatureSetID: TestSetID,
		Path: coordinates.Path{
			ReferenceName: TestReference,
			Start:         start,
			Length:        length,
			Strand:        coordinates.StrandForward,
		},
		FeatureType: featureType,
	}
}

// GeneModel returns a gene with one mRNA and n exons, in insertion
// order: gene, mRNA, exon1..exonN. The IDs are "gene", "mrna" and
// "exon<i>".
func GeneModel(exons int) []*annotation.Feature {
	features := []*annotation.Feature{
		GeneFeature("gene"),
		ChildFeature("mrna", "gene", ontology.SOMRNA, 32315473, 84195),
	}
	for i := range exons {
		start := int64(32315473 + i*1000)
		features = append(features,
			ChildFeature(fmt.Sprintf("exon%d", i+1), "mrna", ontology.SOExon, start, 200))
	}
	return features
}

// PopulatedGraph builds and validates a graph holding GeneModel(exons).
func PopulatedGraph(t testing.TB, exons int, opts ...annotation.GraphOption) *annotation.FeatureGraph {
	t.Helper()

	g := annotation.NewFeatureGraph(opts...)
	for _, f := range GeneModel(exons) {
		if err := g.Insert(f); err != nil {
			t.Fatalf("insert fixture feature %s: %v", f.ID, err)
		}
	}
	if err := g.Validate(); err != nil {
		t.Fatalf("validate fixture graph: %v", err)
	}
	return g
}

// CoverageWiggle returns a track with the given per-bin values over a
// region sized so every bin is width binWidth.
func CoverageWiggle(binWidth int64, values ...float64) *annotation.Wiggle {
	return &annotation.Wiggle{
		Path: coordinates.Path{
			ReferenceName: TestReference,
			Start:         1000,
			Length:        binWidth * int64(len(values)),
			Strand:        coordinates.StrandNone,
		},
		Values: values,
	}
}

// MixedAttributes returns a store holding one value of every known
// kind plus a multi-valued name.
func MixedAttributes() *annotation.Attributes {
	attrs := annotation.NewAttributes()
	attrs.Append("Name", annotation.TextValue("BRCA2"))
	attrs.Append("Dbxref", annotation.ExternalIDValue(annotation.ExternalIdentifier{
		Database: "GeneID", Identifier: "675", Version: "1",
	}))
	attrs.Append("Dbxref", annotation.OntologyValue(ontology.SOGene))
	attrs.Append("biotype", annotation.TextValue("protein_coding"))
	return attrs
}
