package operations_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parisdash/internal/operations"
	"parisdash/internal/operations/testutil"
)

func stepIDs(steps []operations.Step) []string {
	ids := make([]string, 0, len(steps))
	for _, s := range steps {
		ids = append(ids, s.ID())
	}
	return ids
}

func TestRegistryRegister(t *testing.T) {
	registry := operations.NewRegistry()

	require.NoError(t, registry.Register(testutil.CreateSuccessfulStage("a", "A")))
	assert.True(t, registry.Has("a"))
	assert.Equal(t, 1, registry.Count())

	err := registry.Register(testutil.CreateSuccessfulStage("a", "A again"))
	assert.ErrorContains(t, err, "already registered")

	assert.Error(t, registry.Register(nil))
	assert.Error(t, registry.Register(testutil.CreateSuccessfulStage("", "Empty")))

	_, err = registry.Get("missing")
	testutil.AssertErrorType(t, err, operations.ErrorTypeNotFound)

	require.NoError(t, registry.Unregister("a"))
	assert.False(t, registry.Has("a"))
	assert.Error(t, registry.Unregister("a"))
}

func TestRegistryLevels(t *testing.T) {
	registry, err := testutil.RegisterStages(testutil.CreateMedallionStages()...)
	require.NoError(t, err)

	levels, err := registry.Levels()
	require.NoError(t, err)
	require.Len(t, levels, 2)
	assert.Equal(t, []string{"silver_a", "silver_b"}, stepIDs(levels[0]))
	assert.Equal(t, []string{"gold"}, stepIDs(levels[1]))

	ordered, err := registry.GetDependencyOrder()
	require.NoError(t, err)
	assert.Equal(t, []string{"silver_a", "silver_b", "gold"}, stepIDs(ordered))

	assert.Equal(t, []string{"gold"}, stepIDs(registry.GetDependents("silver_a")))
	assert.Empty(t, registry.GetDependents("gold"))
}

func TestRegistryLevelsKeepRegistrationOrder(t *testing.T) {
	// gold is registered first but must run last
	registry, err := testutil.RegisterStages(
		testutil.CreateSuccessfulStage("gold", "Gold", "silver_b", "silver_a"),
		testutil.CreateSuccessfulStage("silver_b", "Silver B"),
		testutil.CreateSuccessfulStage("silver_a", "Silver A"),
		testutil.CreateSuccessfulStage("publish", "Publish", "gold"),
	)
	require.NoError(t, err)

	ordered, err := registry.GetDependencyOrder()
	require.NoError(t, err)
	assert.Equal(t, []string{"silver_b", "silver_a", "gold", "publish"}, stepIDs(ordered))
}

func TestRegistryInvalidGraphs(t *testing.T) {
	tests := []struct {
		name     string
		stages   []*testutil.MockStage
		expected operations.ErrorType
	}{
		{
			name: "missing dependency",
			stages: []*testutil.MockStage{
				testutil.CreateSuccessfulStage("gold", "Gold", "silver"),
			},
			expected: operations.ErrorTypeDependency,
		},
		{
			name: "cycle",
			stages: []*testutil.MockStage{
				testutil.CreateSuccessfulStage("a", "A", "c"),
				testutil.CreateSuccessfulStage("b", "B", "a"),
				testutil.CreateSuccessfulStage("c", "C", "b"),
			},
			expected: operations.ErrorTypeFatal,
		},
		{
			name: "self dependency",
			stages: []*testutil.MockStage{
				testutil.CreateSuccessfulStage("a", "A", "a"),
			},
			expected: operations.ErrorTypeFatal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			registry, err := testutil.RegisterStages(tt.stages...)
			require.NoError(t, err)

			err = registry.ValidateDependencies()
			testutil.AssertErrorType(t, err, tt.expected)
		})
	}
}
