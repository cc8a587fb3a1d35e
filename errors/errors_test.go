package errors

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorClass_String(t *testing.T) {
	tests := []struct {
		class    ErrorClass
		expected string
	}{
		{ErrorInvalid, "invalid"},
		{ErrorTransient, "transient"},
		{ErrorFatal, "fatal"},
		{ErrorClass(99), "unknown"},
	}

	for _, test := range tests {
		t.Run(test.expected, func(t *testing.T) {
			assert.Equal(t, test.expected, test.class.String())
		})
	}
}

func TestWrapInvalid(t *testing.T) {
	err := WrapInvalid(ErrDuplicateID, "FeatureGraph", "Insert", "id collision check")

	require.Error(t, err)
	assert.True(t, stderrors.Is(err, ErrDuplicateID))
	assert.True(t, IsInvalid(err))
	assert.False(t, IsTransient(err))
	assert.Contains(t, err.Error(), "FeatureGraph.Insert")
}

func TestWrapInvalid_NilPassthrough(t *testing.T) {
	assert.NoError(t, WrapInvalid(nil, "FeatureGraph", "Insert", "noop"))
	assert.NoError(t, WrapTransient(nil, "setstore", "Get", "noop"))
	assert.NoError(t, WrapFatal(nil, "codec", "Encode", "noop"))
}

func TestWrapDecode_MatchesUmbrellaAndSubReason(t *testing.T) {
	err := WrapDecode(ErrBadUnionTag, "codec", "Decode", "attribute value kind 7")

	require.Error(t, err)
	assert.True(t, stderrors.Is(err, ErrDecode))
	assert.True(t, stderrors.Is(err, ErrBadUnionTag))
	assert.True(t, IsInvalid(err))
}

func TestWrapDecode_DefaultsToTruncated(t *testing.T) {
	err := WrapDecode(nil, "codec", "Decode", "unexpected end of input")

	require.Error(t, err)
	assert.True(t, stderrors.Is(err, ErrTruncated))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected ErrorClass
	}{
		{"duplicate id", ErrDuplicateID, ErrorInvalid},
		{"revision conflict", ErrRevisionConflict, ErrorTransient},
		{"wrapped fatal", WrapFatal(stderrors.New("disk gone"), "setstore", "Create", "marshal"), ErrorFatal},
		{"unknown defaults invalid", stderrors.New("anything"), ErrorInvalid},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.expected, Classify(test.err))
		})
	}
}

func TestClassifiedError_Unwrap(t *testing.T) {
	inner := stderrors.New("inner")
	err := WrapTransient(inner, "setstore", "Update", "put to KV")

	var ce *ClassifiedError
	require.True(t, stderrors.As(err, &ce))
	assert.Equal(t, ErrorTransient, ce.Class)
	assert.True(t, stderrors.Is(ce, inner))
}
