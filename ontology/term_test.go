package ontology

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTerm_Equal_IgnoresLabel(t *testing.T) {
	a := Term{ID: "SO:0000704", Label: "gene"}
	b := Term{ID: "SO:0000704"}
	c := Term{ID: "SO:0000234", Label: "gene"}

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
}

func TestTerm_String(t *testing.T) {
	assert.Equal(t, "gene", Term{ID: "SO:0000704", Label: "gene"}.String())
	assert.Equal(t, "SO:0000704", Term{ID: "SO:0000704"}.String())
}

func TestTerm_IsValid(t *testing.T) {
	assert.True(t, Term{ID: "SO:0000147"}.IsValid())
	assert.False(t, Term{Label: "exon"}.IsValid())
}

func TestTerm_JSONOmitsEmptyLabel(t *testing.T) {
	data, err := json.Marshal(Term{ID: "SO:0000316"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"SO:0000316"}`, string(data))

	var decoded Term
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, Term{ID: "SO:0000316"}, decoded)
}

func TestLookupTerm(t *testing.T) {
	term, ok := LookupTerm("SO:0000147")
	require.True(t, ok)
	assert.Equal(t, SOExon, term)

	_, ok = LookupTerm("SO:9999999")
	assert.False(t, ok)
}
