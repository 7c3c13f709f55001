package agentimport

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentregistry-dev/agentconsole/pkg/models"
)

func TestModelAssignmentUnified(t *testing.T) {
	a := NewModelAssignment([]string{"1", "2"})
	assert.Equal(t, ModeUnified, a.Mode())
	assert.False(t, a.CanProceed())

	require.NoError(t, a.SetUnified(ModelSlot{ModelID: intPtr(7)}))
	assert.False(t, a.CanProceed(), "name is required")

	require.NoError(t, a.SetUnified(ModelSlot{ModelID: intPtr(7), ModelName: "   "}))
	assert.False(t, a.CanProceed(), "blank name is not a name")

	require.NoError(t, a.SetUnified(ModelSlot{ModelID: intPtr(7), ModelName: "gpt-x"}))
	assert.True(t, a.CanProceed())
	assert.Empty(t, a.Missing())

	for _, key := range []string{"1", "2"} {
		slot, ok := a.Resolve(key)
		require.True(t, ok)
		assert.Equal(t, 7, *slot.ModelID)
		assert.Equal(t, "gpt-x", slot.ModelName)
	}

	assert.Error(t, a.SetAgent("1", ModelSlot{ModelID: intPtr(1), ModelName: "m"}))
}

func TestModelAssignmentIndividual(t *testing.T) {
	a := NewModelAssignment([]string{"1", "2"})
	require.NoError(t, a.SetMode(ModeIndividual))
	assert.False(t, a.CanProceed())
	assert.Equal(t, []string{"1", "2"}, a.Missing())

	require.NoError(t, a.SetAgent("1", ModelSlot{ModelID: intPtr(1), ModelName: "small"}))
	assert.False(t, a.CanProceed())
	assert.Equal(t, []string{"2"}, a.Missing())

	require.NoError(t, a.SetAgent("2", ModelSlot{ModelID: intPtr(2), ModelName: "large"}))
	assert.True(t, a.CanProceed())

	slot, ok := a.Resolve("2")
	require.True(t, ok)
	assert.Equal(t, "large", slot.ModelName)

	assert.Error(t, a.SetAgent("missing", ModelSlot{ModelID: intPtr(1), ModelName: "m"}))
	assert.Error(t, a.SetUnified(ModelSlot{ModelID: intPtr(1), ModelName: "m"}))
}

func TestModelAssignmentModeSwitchDiscardsSelections(t *testing.T) {
	a := NewModelAssignment([]string{"1", "2"})
	require.NoError(t, a.SetUnified(ModelSlot{ModelID: intPtr(7), ModelName: "gpt-x"}))

	require.NoError(t, a.SetMode(ModeIndividual))
	assert.Equal(t, ModelSlot{}, a.Unified())
	require.NoError(t, a.SetAgent("1", ModelSlot{ModelID: intPtr(1), ModelName: "small"}))
	require.NoError(t, a.SetAgent("2", ModelSlot{ModelID: intPtr(2), ModelName: "large"}))
	require.True(t, a.CanProceed())

	require.NoError(t, a.SetMode(ModeUnified))
	assert.False(t, a.CanProceed(), "shared slot must start empty")

	require.NoError(t, a.SetMode(ModeIndividual))
	assert.Equal(t, ModelSlot{}, a.Agent("1"))
	assert.Equal(t, ModelSlot{}, a.Agent("2"))
	assert.False(t, a.CanProceed())

	// setting the active mode again keeps selections
	require.NoError(t, a.SetAgent("1", ModelSlot{ModelID: intPtr(1), ModelName: "small"}))
	require.NoError(t, a.SetMode(ModeIndividual))
	assert.Equal(t, "small", a.Agent("1").ModelName)

	assert.Error(t, a.SetMode(Mode("other")))
}

func TestModelAssignmentSlotsAreCopied(t *testing.T) {
	a := NewModelAssignment([]string{"1"})
	id := 3
	require.NoError(t, a.SetUnified(ModelSlot{ModelID: &id, ModelName: "m"}))
	id = 99
	assert.Equal(t, 3, *a.Unified().ModelID)
}

func TestModelAssignmentNoAgents(t *testing.T) {
	a := NewModelAssignment(nil)
	assert.False(t, a.CanProceed())
	require.NoError(t, a.SetUnified(ModelSlot{ModelID: intPtr(1), ModelName: "m"}))
	assert.True(t, a.CanProceed())
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode(" Individual ")
	require.NoError(t, err)
	assert.Equal(t, ModeIndividual, m)

	_, err = ParseMode("both")
	assert.Error(t, err)
}

func TestSelectableModels(t *testing.T) {
	options := []models.ModelOption{
		{ID: 1, DisplayName: "up", ConnectStatus: "available"},
		{ID: 2, DisplayName: "down", ConnectStatus: "unavailable"},
		{ID: 3, DisplayName: "checking", ConnectStatus: "detecting"},
		{ID: 4, DisplayName: "also up", ConnectStatus: "available"},
	}
	got := SelectableModels(options)
	require.Len(t, got, 2)
	assert.Equal(t, 1, got[0].ID)
	assert.Equal(t, 4, got[1].ID)
}

func TestSlotFor(t *testing.T) {
	slot := SlotFor(models.ModelOption{ID: 5, ModelName: "raw", DisplayName: "Pretty"})
	assert.Equal(t, 5, *slot.ModelID)
	assert.Equal(t, "Pretty", slot.ModelName)

	slot = SlotFor(models.ModelOption{ID: 6, ModelName: "raw"})
	assert.Equal(t, "raw", slot.ModelName)
}
