package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "casefile/pkg/domain-errors"
	"casefile/pkg/testutil"
)

func TestParseField(t *testing.T) {
	for _, f := range AllFields() {
		got, err := ParseField(string(f))
		require.NoError(t, err)
		assert.Equal(t, f, got)
	}

	_, err := ParseField("shoe_size")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func TestParseFieldText_IntFields(t *testing.T) {
	v, err := ParseFieldText(FieldWeightPounds, " 180 ")
	require.NoError(t, err)
	n, ok := v.Int()
	require.True(t, ok)
	assert.Equal(t, 180, n)

	_, err = ParseFieldText(FieldWeightPounds, "heavy")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))

	v, err = ParseFieldText(FieldHeightInches, "")
	require.NoError(t, err)
	assert.True(t, v.IsAbsent())
}

func TestValue_Equal(t *testing.T) {
	assert.True(t, Text("a").Equal(Text("a")))
	assert.False(t, Text("a").Equal(Text("b")))
	assert.False(t, Text("1").Equal(Int(1)), "kinds never cross-compare")
	assert.False(t, Absent(KindText).Equal(Absent(KindText)), "absent equals nothing, like SQL NULL")
	assert.False(t, Text("").Equal(Absent(KindText)))
}

func TestValue_String(t *testing.T) {
	assert.Equal(t, "05/09/1990", Date(testutil.Date(1990, time.May, 9)).String())
	assert.Equal(t, "72", Int(72).String())
	assert.Equal(t, "", Absent(KindInt).String())
}
