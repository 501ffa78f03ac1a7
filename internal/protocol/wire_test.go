package protocol

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObject_KeepsInsertionOrder(t *testing.T) {
	o := NewObject().Set("z", 1).Set("a", 2).Set("m", 3)

	data, err := json.Marshal(o)
	require.NoError(t, err)
	assert.Equal(t, `{"z":1,"a":2,"m":3}`, string(data))
	assert.Equal(t, []string{"z", "a", "m"}, o.Keys())
}

func TestObject_ReplaceKeepsPosition(t *testing.T) {
	o := NewObject().Set("a", 1).Set("b", 2).Set("a", 3)

	data, err := json.Marshal(o)
	require.NoError(t, err)
	assert.Equal(t, `{"a":3,"b":2}`, string(data))
	assert.Equal(t, 2, o.Len())
}

func TestObject_Empty(t *testing.T) {
	data, err := json.Marshal(NewObject())
	require.NoError(t, err)
	assert.Equal(t, `{}`, string(data))
}
