package coordinates

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStrand_IsValid(t *testing.T) {
	validStrands := []Strand{StrandForward, StrandReverse, StrandNone}
	for _, s := range validStrands {
		t.Run("Valid_"+s.String(), func(t *testing.T) {
			assert.True(t, s.IsValid())
		})
	}

	invalidStrands := []Strand{"", "forward", "*", "+-"}
	for _, s := range invalidStrands {
		t.Run("Invalid_"+string(s), func(t *testing.T) {
			assert.False(t, s.IsValid())
		})
	}
}

func TestStrand_JSONRoundTrip(t *testing.T) {
	data, err := json.Marshal(StrandReverse)
	require.NoError(t, err)
	assert.Equal(t, `"-"`, string(data))

	var s Strand
	require.NoError(t, json.Unmarshal(data, &s))
	assert.Equal(t, StrandReverse, s)
}

func TestPath_Contains(t *testing.T) {
	p := Path{ReferenceName: "chr1", Start: 100, Length: 10, Strand: StrandForward}

	tests := []struct {
		name     string
		pos      int64
		expected bool
	}{
		{"before start", 99, false},
		{"at start", 100, true},
		{"interior", 105, true},
		{"last covered position", 109, true},
		{"exclusive end", 110, false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.expected, p.Contains(test.pos))
		})
	}
}

func TestPath_ZeroLengthContainsNothing(t *testing.T) {
	p := Path{ReferenceName: "chr1", Start: 50, Length: 0, Strand: StrandNone}
	assert.False(t, p.Contains(50))
	assert.Equal(t, int64(50), p.End())
}

func TestPath_IsValid(t *testing.T) {
	valid := Path{ReferenceName: "chrX", Start: 0, Length: 1, Strand: StrandNone}
	assert.True(t, valid.IsValid())

	assert.False(t, Path{Start: 0, Length: 1, Strand: StrandNone}.IsValid())
	assert.False(t, Path{ReferenceName: "chrX", Start: -1, Length: 1, Strand: StrandNone}.IsValid())
	assert.False(t, Path{ReferenceName: "chrX", Start: 0, Length: -1, Strand: StrandNone}.IsValid())
	assert.False(t, Path{ReferenceName: "chrX", Start: 0, Length: 1}.IsValid())
}

func TestPath_Equal(t *testing.T) {
	a := Path{ReferenceName: "chr2", Start: 10, Length: 5, Strand: StrandForward}
	b := a
	assert.True(t, a.Equal(b))

	b.Strand = StrandReverse
	assert.False(t, a.Equal(b))
}
