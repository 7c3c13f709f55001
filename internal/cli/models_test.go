package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	servicetesting "github.com/agentregistry-dev/agentconsole/internal/console/service/testing"
	"github.com/agentregistry-dev/agentconsole/pkg/models"
)

func runModels(t *testing.T, fake *servicetesting.FakePlatform, args ...string) (string, error) {
	t.Helper()
	prev := platform
	SetPlatform(fake)
	t.Cleanup(func() {
		SetPlatform(prev)
		modelsListAll = false
		modelsListOutput = "table"
	})

	var out bytes.Buffer
	ModelsCmd.SetOut(&out)
	ModelsCmd.SetErr(&out)
	ModelsCmd.SetArgs(append([]string{"list"}, args...))
	err := ModelsCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func catalogPlatform() *servicetesting.FakePlatform {
	fake := servicetesting.NewFakePlatform()
	fake.Models = []models.ModelOption{
		{ID: 1, ModelName: "gpt-4o", DisplayName: "GPT-4o", ConnectStatus: models.ConnectStatusAvailable},
		{ID: 2, ModelName: "qwen", ConnectStatus: "unavailable"},
	}
	return fake
}

func TestModelsListSelectableOnly(t *testing.T) {
	out, err := runModels(t, catalogPlatform())
	require.NoError(t, err)
	assert.Contains(t, out, "GPT-4o")
	assert.NotContains(t, out, "qwen")
}

func TestModelsListAllJSON(t *testing.T) {
	out, err := runModels(t, catalogPlatform(), "--all", "-o", "json")
	require.NoError(t, err)

	var got []models.ModelOption
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Len(t, got, 2)
}

func TestModelsListError(t *testing.T) {
	fake := servicetesting.NewFakePlatform()
	fake.ListModelsFn = func(context.Context) ([]models.ModelOption, error) {
		return nil, errors.New("connection refused")
	}
	_, err := runModels(t, fake)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}
