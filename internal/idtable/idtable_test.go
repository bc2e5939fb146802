package idtable

import (
	"path/filepath"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bindgen/internal/enums"
)

func sampleTable() *Table {
	return &Table{
		Module:  "EnumProvider",
		Package: "example.com/bindings/enumprovider",
		Enums: []*enums.Identity{
			{
				Scope:   []string{"Foo"},
				Name:    "MyEnum",
				Unit:    "EnumProvider",
				Package: "example.com/bindings/enumprovider",
				Symbol:  "FooMyEnum",
				Owner:   "Foo",
				Items: []enums.Item{
					{Name: "A", Value: 0, Symbol: "FooMyEnumA"},
					{Name: "B", Value: 5, Symbol: "FooMyEnumB"},
				},
				Attached: true,
			},
		},
		Classes: []Class{
			{Name: "Foo", Native: "Foo", Unit: "EnumProvider", Package: "example.com/bindings/enumprovider", Symbol: "Foo", Ordered: true},
		},
	}
}

func TestWriteRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "enumprovider"+Ext)

	require.NoError(t, Write(path, sampleTable()))

	got, err := Read(path)
	require.NoError(t, err)

	assert.Equal(t, Version, got.Version)
	require.Len(t, got.Enums, 1)
	assert.Equal(t, "Foo::MyEnum", got.Enums[0].QualifiedName())
	assert.Equal(t, []enums.Item{
		{Name: "A", Value: 0, Symbol: "FooMyEnumA"},
		{Name: "B", Value: 5, Symbol: "FooMyEnumB"},
	}, got.Enums[0].Items)
	assert.False(t, got.Enums[0].Imported, "import state is not serialized")
	assert.Equal(t, sampleTable().Classes, got.Classes)
}

func TestMarshalCanonical(t *testing.T) {
	a, err := Marshal(sampleTable())
	require.NoError(t, err)

	b, err := Marshal(sampleTable())
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestUnmarshalVersion(t *testing.T) {
	data, err := cbor.Marshal(&Table{Version: 99, Module: "X"})
	require.NoError(t, err)

	_, err = Unmarshal(data)
	require.ErrorIs(t, err, ErrVersion)

	_, err = Unmarshal([]byte{0xff})
	require.Error(t, err)
}

func TestReadMissing(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "missing"+Ext))
	require.Error(t, err)
}
