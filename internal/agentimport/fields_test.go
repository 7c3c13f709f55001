package agentimport

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldStore(t *testing.T) {
	fields := ParseConfigFields(loadDoc(t, multiAgentDoc))
	store := NewFieldStore(fields)

	require.Equal(t, len(fields), store.Len())
	for _, f := range fields {
		v, ok := store.Get(f.Key)
		require.True(t, ok)
		assert.Empty(t, v)
	}
	assert.False(t, store.Complete())
	assert.Len(t, store.Missing(), len(fields))

	err := store.Set("10::nope", "x")
	assert.ErrorIs(t, err, ErrUnknownField)

	for _, f := range fields {
		require.NoError(t, store.Set(f.Key, "value"))
	}
	assert.True(t, store.Complete())

	require.NoError(t, store.Set(fields[0].Key, " \t "))
	assert.False(t, store.Complete())
	assert.Equal(t, []string{fields[0].Key}, store.Missing())

	values := store.Values()
	values[fields[1].Key] = "changed"
	v, _ := store.Get(fields[1].Key)
	assert.Equal(t, "value", v)
}

func TestFieldStoreEmptyIsComplete(t *testing.T) {
	assert.True(t, NewFieldStore(nil).Complete())
}

func TestGroupByAgent(t *testing.T) {
	fields := ParseConfigFields(loadDoc(t, multiAgentDoc))
	groups := GroupByAgent(fields)
	require.Len(t, groups, 2)
	assert.Equal(t, "10", groups[0].AgentKey)
	assert.Len(t, groups[0].Fields, 4)
	assert.Equal(t, "11", groups[1].AgentKey)
	assert.Len(t, groups[1].Fields, 1)
}
