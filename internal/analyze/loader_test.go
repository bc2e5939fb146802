package analyze

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixture = "bindgen/internal/analyze/testdata/tasks"

func load(t *testing.T) *Surface {
	t.Helper()

	surface, err := NewAnalyzer("bindgen/bindrt").Load(".", "./testdata/tasks")
	require.NoError(t, err)
	require.NotNil(t, surface)

	return surface
}

func TestAnalyzer_Load(t *testing.T) {
	surface := load(t)

	require.Contains(t, surface.Packages, fixture)

	pkg := surface.Packages[fixture]
	assert.Equal(t, "tasks", pkg.Name)
	assert.ElementsMatch(t, []TypeID{
		{PkgPath: fixture, Name: "Priority"},
		{PkgPath: fixture, Name: "Task"},
	}, pkg.Types)

	require.Len(t, pkg.Funcs, 1)
	assert.Equal(t, "NewTask", pkg.Funcs[0].Name)
	assert.True(t, pkg.Funcs[0].Context)
	assert.Equal(t, "(ctx context.Context, rt *bindrt.Runtime, title string) (*Task, error)", pkg.Funcs[0].Signature)

	assert.Equal(t, 1, surface.Count(TypeKindWrapper))
	assert.Equal(t, 1, surface.Count(TypeKindEnum))
}

func TestAnalyzer_Wrapper(t *testing.T) {
	surface := load(t)

	task := surface.GetType(TypeID{PkgPath: fixture, Name: "Task"})
	require.NotNil(t, task)
	assert.Equal(t, TypeKindWrapper, task.Kind)

	var names []string
	for _, m := range task.Methods {
		names = append(names, m.Name)
	}

	assert.Equal(t, []string{"Detached", "Len", "WeightView"}, names, "promoted Object methods are left out")

	length := task.Method("Len")
	require.NotNil(t, length)
	assert.True(t, length.Context)
	assert.Equal(t, "(ctx context.Context) (int, error)", length.Signature)

	assert.Nil(t, task.Method("Runtime"))
	assert.Equal(t, []string{"Detached"}, task.WithoutContext())
}

func TestAnalyzer_Enum(t *testing.T) {
	surface := load(t)

	priority := surface.GetType(TypeID{PkgPath: fixture, Name: "Priority"})
	require.NotNil(t, priority)
	assert.Equal(t, TypeKindEnum, priority.Kind)
	assert.NotNil(t, priority.Method("String"))
	assert.Empty(t, priority.WithoutContext())

	assert.Nil(t, surface.GetType(TypeID{PkgPath: fixture, Name: "Level"}))
	assert.Nil(t, surface.GetType(TypeID{PkgPath: fixture, Name: "Options"}))
}

func TestAnalyzer_LoadErrors(t *testing.T) {
	_, err := NewAnalyzer("bindgen/bindrt").Load(".", "./testdata/missing")
	require.Error(t, err)
}
