package typegate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rendis/flowgate/pkg/schema"
)

func TestParse_RoundTrip(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"string", "string"},
		{"str", "string"},
		{"int", "integer"},
		{"integer", "integer"},
		{"float", "float"},
		{"number", "float"},
		{"bool", "boolean"},
		{"boolean", "boolean"},
		{"map", "mapping"},
		{"mapping", "mapping"},
		{"any", "any"},
		{"", "any"},
		{"document", "document"},
		{"message", "message"},
		{"answer", "answer"},
		{"list(integer)", "list(integer)"},
		{"list(document)", "list(document)"},
		{"list(list(string))", "list(list(string))"},
		{"LIST( Boolean )", "list(boolean)"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			d, err := Parse(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.Describe())
		})
	}
}

func TestParse_Unknown(t *testing.T) {
	_, err := Parse("blob")
	require.Error(t, err)
	assert.Equal(t, schema.ErrCodeValidation, schema.CodeOf(err))
}

func TestParse_MalformedList(t *testing.T) {
	_, err := Parse("list(integer")
	require.Error(t, err)
	assert.Equal(t, schema.ErrCodeValidation, schema.CodeOf(err))
}

func TestDescriptor_IsRich(t *testing.T) {
	assert.True(t, Rich(schema.RichKindDocument).IsRich())
	assert.True(t, ListOf(Rich(schema.RichKindMessage)).IsRich())
	assert.False(t, String().IsRich())
	assert.False(t, ListOf(Integer()).IsRich())
	assert.False(t, Any().IsRich())
}
