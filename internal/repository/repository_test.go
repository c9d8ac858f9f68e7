package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrefixed(t *testing.T) {
	t.Parallel()

	out := prefixed("m", "id, name,\n\tcreated_at")
	assert.Equal(t, "m.id, m.name, m.created_at", out)
}

func TestMarshalVariables(t *testing.T) {
	t.Parallel()

	data, err := marshalVariables(nil)
	require.NoError(t, err)
	assert.Nil(t, data)

	data, err = marshalVariables(map[string]string{"user_name": "Ada"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"user_name":"Ada"}`, string(data))
}

func TestNewRequiresPool(t *testing.T) {
	t.Parallel()

	_, err := New(nil)
	require.ErrorIs(t, err, ErrPoolNil)
}
