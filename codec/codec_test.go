package codec

import (
	"encoding/json"
	"testing"

	stderrors "errors"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/e-plus-healthcare-alliance/schemas/annotation"
	"github.com/e-plus-healthcare-alliance/schemas/coordinates"
	"github.com/e-plus-healthcare-alliance/schemas/errors"
	"github.com/e-plus-healthcare-alliance/schemas/ontology"
)

func sampleFeature() *annotation.Feature {
	f := &annotation.Feature{
		ID:           "gene1",
		FeatureSetID: "fs1",
		Path: coordinates.Path{
			ReferenceName: "chr13",
			Start:         32315473,
			Length:        84195,
			Strand:        coordinates.StrandForward,
		},
		FeatureType: ontology.SOGene,
	}
	f.Attrs().Append("Name", annotation.TextValue("BRCA2"))
	f.Attrs().Append("Dbxref", annotation.ExternalIDValue(
		annotation.ExternalIdentifier{Database: "GeneID", Identifier: "675", Version: "1"}))
	f.Attrs().Append("Dbxref", annotation.OntologyValue(ontology.SOGene))
	return f
}

func sampleWiggle() *annotation.Wiggle {
	return &annotation.Wiggle{
		Path: coordinates.Path{
			ReferenceName: "chr13",
			Start:         100,
			Length:        10,
			Strand:        coordinates.StrandNone,
		},
		Values: []float64{1.0, 2.0},
	}
}

func TestKind_ParseAndKey(t *testing.T) {
	kind, err := ParseKind("annotation.Feature.v1")
	require.NoError(t, err)
	assert.Equal(t, KindFeature, kind)
	assert.Equal(t, "annotation.Feature.v1", kind.Key())

	for _, bad := range []string{"", "annotation.Feature", "a..v1", "a.b.c.d"} {
		_, err := ParseKind(bad)
		require.Error(t, err, bad)
		assert.True(t, stderrors.Is(err, errors.ErrBadUnionTag))
	}
}

func TestRoundTrip_AllRecordKinds(t *testing.T) {
	fs := annotation.NewFeatureSet("fs1")
	fs.ReferenceSetID = annotation.StringPtr("GRCh38")
	fs.Name = annotation.StringPtr("gencode v44")

	ws := annotation.NewWiggleSet("coverage")
	ws.Attributes.Append("assay", annotation.TextValue("RNA-seq"))

	records := map[string]Record{
		"feature":     sampleFeature(),
		"feature_set": fs,
		"wiggle":      sampleWiggle(),
		"wiggle_set":  ws,
	}

	for name, rec := range records {
		t.Run(name, func(t *testing.T) {
			data, err := Encode(rec)
			require.NoError(t, err)

			decoded, err := Decode(data)
			require.NoError(t, err)

			if diff := cmp.Diff(rec, decoded); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRoundTrip_AbsentOptionalFieldsStayAbsent(t *testing.T) {
	fs := annotation.NewFeatureSet("fs-minimal")

	data, err := Encode(fs)
	require.NoError(t, err)

	// Absent optionals are omitted from the wire, not encoded as "".
	var wire map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &wire))
	var body map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(wire["record"], &body))
	for _, field := range []string{"dataset_id", "reference_set_id", "name", "source_uri"} {
		assert.NotContains(t, body, field)
	}

	decoded, err := Decode(data)
	require.NoError(t, err)
	got, ok := decoded.(*annotation.FeatureSet)
	require.True(t, ok)
	assert.Nil(t, got.DatasetID)
	assert.Nil(t, got.Name)
	assert.True(t, fs.Equal(got))
}

func TestRoundTrip_EmptyStringIsNotAbsent(t *testing.T) {
	fs := annotation.NewFeatureSet("fs1")
	fs.Name = annotation.StringPtr("")

	data, err := Encode(fs)
	require.NoError(t, err)

	decoded, err := Decode(data)
	require.NoError(t, err)
	got := decoded.(*annotation.FeatureSet)
	require.NotNil(t, got.Name)
	assert.Equal(t, "", *got.Name)
}

func TestEncode_EnvelopeCarriesExplicitKind(t *testing.T) {
	data, err := Encode(sampleWiggle())
	require.NoError(t, err)

	var wire map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &wire))
	assert.JSONEq(t, `"annotation.Wiggle.v1"`, string(wire["kind"]))
}

func TestEncode_RejectsInvalidRecord(t *testing.T) {
	_, err := Encode(&annotation.Feature{ID: "no-set"})
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))
}

func TestEncode_RejectsUnregisteredType(t *testing.T) {
	_, err := Encode(unregisteredRecord{})
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrUnknownKind))
}

type unregisteredRecord struct{}

func (unregisteredRecord) Validate() error { return nil }

func TestDecode_UnknownKind(t *testing.T) {
	_, err := Decode([]byte(`{"id":"x","kind":"annotation.Transcriptome.v9","record":{}}`))
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrDecode))
	assert.True(t, stderrors.Is(err, errors.ErrUnknownKind))
}

func TestDecode_MissingKind(t *testing.T) {
	_, err := Decode([]byte(`{"id":"x","record":{}}`))
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrMissingRequired))
}

func TestDecode_Truncated(t *testing.T) {
	data, err := Encode(sampleFeature())
	require.NoError(t, err)

	_, decodeErr := Decode(data[:len(data)/2])
	require.Error(t, decodeErr)
	assert.True(t, stderrors.Is(decodeErr, errors.ErrDecode))
	assert.True(t, stderrors.Is(decodeErr, errors.ErrTruncated))
}

func TestDecode_ValidationFailureKeepsTrueSubReason(t *testing.T) {
	// A wiggle with bins over a zero-length region is well-formed JSON
	// but semantically invalid; the decode error must report the real
	// kind, not a generic missing-field reason.
	data := []byte(`{
		"id": "w1",
		"kind": "annotation.Wiggle.v1",
		"record": {
			"path": {"reference_name":"chr1","start":100,"length":0,"strand":"."},
			"values": [1.0]
		}
	}`)

	_, err := Decode(data)
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrDecode))
	assert.True(t, stderrors.Is(err, errors.ErrInvalidRegion))
	assert.False(t, stderrors.Is(err, errors.ErrMissingRequired))
}

func TestDecode_IgnoresUnknownTrailingEnvelopeFields(t *testing.T) {
	data, err := Encode(sampleWiggle())
	require.NoError(t, err)

	var wire map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &wire))
	wire["checksum"] = json.RawMessage(`"sha256:abc"`)
	extended, err := json.Marshal(wire)
	require.NoError(t, err)

	decoded, err := Decode(extended)
	require.NoError(t, err)
	assert.True(t, sampleWiggle().Equal(decoded.(*annotation.Wiggle)))
}

func futureEnvelope(t *testing.T) []byte {
	t.Helper()
	// A v1 feature written by a hypothetical newer encoder that added
	// a "quantity" attribute-value kind.
	return []byte(`{
		"id": "m1",
		"kind": "annotation.Feature.v1",
		"record": {
			"id": "gene1",
			"feature_set_id": "fs1",
			"path": {"reference_name":"chr1","start":0,"length":10,"strand":"+"},
			"feature_type": {"id":"SO:0000704","label":"gene"},
			"attributes": {
				"Name": [{"kind":"text","text":"BRCA2"}],
				"Score": [{"kind":"quantity","quantity":{"value":3.2}}]
			}
		}
	}`)
}

func TestDecode_UnknownValueKind_PreserveMode(t *testing.T) {
	decoded, err := NewDecoder().Decode(futureEnvelope(t))
	require.NoError(t, err)

	f := decoded.(*annotation.Feature)
	values, ok := f.Attributes.Get("Score")
	require.True(t, ok)
	require.Len(t, values, 1)
	assert.True(t, values[0].IsOpaque())

	// Preserved values survive a re-encode byte for byte.
	reencoded, err := Encode(f)
	require.NoError(t, err)
	redecoded, err := Decode(reencoded)
	require.NoError(t, err)
	assert.True(t, f.Equal(redecoded.(*annotation.Feature)))
}

func TestDecode_UnknownValueKind_DropMode(t *testing.T) {
	decoder := NewDecoder(WithUnknownFieldMode(DropUnknownWithWarning))

	decoded, err := decoder.Decode(futureEnvelope(t))
	require.NoError(t, err)

	f := decoded.(*annotation.Feature)
	_, ok := f.Attributes.Get("Score")
	assert.False(t, ok, "unknown-kind attribute should be dropped")

	// Adjacent known fields are never corrupted.
	values, ok := f.Attributes.Get("Name")
	require.True(t, ok)
	text, _ := values[0].Text()
	assert.Equal(t, "BRCA2", text)
}

func TestDecode_SchemaValidation(t *testing.T) {
	decoder := NewDecoder(WithSchemaValidation())

	data, err := Encode(sampleWiggle())
	require.NoError(t, err)
	_, err = decoder.Decode(data)
	require.NoError(t, err)

	_, err = decoder.Decode([]byte(`{"id":"x","kind":"not-dotted","record":{}}`))
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrDecode))
}

func TestRegistry_DuplicateRejected(t *testing.T) {
	r := NewRegistry()
	reg := &Registration{Kind: KindFeature, Factory: func() Record { return &annotation.Feature{} }}

	require.NoError(t, r.Register(reg))
	err := r.Register(&Registration{Kind: KindFeature, Factory: func() Record { return &annotation.Feature{} }})
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))
}

func TestRegistry_CreateUnknownReturnsNil(t *testing.T) {
	r := NewRegistry()
	assert.Nil(t, r.Create(KindWiggle))
}
