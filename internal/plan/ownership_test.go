package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bindgen/internal/decl"
)

func TestClassify(t *testing.T) {
	view := decl.Directives{View: true}
	transfer := decl.Directives{TransferOwnership: true}

	tests := []struct {
		typ  string
		dir  Direction
		d    decl.Directives
		want Strategy
	}{
		{"int", FromNative, decl.Directives{}, StrategyValueCopy},
		{"std::vector<int>", ToNative, decl.Directives{}, StrategyValueCopy},
		{"std::unique_ptr<Task>", FromNative, decl.Directives{}, StrategyMovedOwnership},
		{"const Task&", FromNative, decl.Directives{}, StrategyValueCopy},
		{"const Task&", FromNative, view, StrategyReadOnlyView},
		{"const Task&", ToNative, view, StrategyValueCopy},
		{"Task&", ToNative, decl.Directives{}, StrategyMutableView},
		{"std::vector<int>&", FromNative, decl.Directives{}, StrategyMutableView},
		{"Task*", FromNative, decl.Directives{}, StrategyPointerBorrowed},
		{"Task*", FromNative, transfer, StrategyPointerOwned},
		{"Task*", ToNative, transfer, StrategyPointerBorrowed},
		{"std::shared_ptr<Task>", FromNative, decl.Directives{}, StrategyShared},
		{"const std::shared_ptr<Task>&", ToNative, decl.Directives{}, StrategyShared},
	}

	for _, tt := range tests {
		t.Run(tt.typ, func(t *testing.T) {
			got, err := Classify(Shape{Type: decl.MustParseTypeRef(tt.typ), Directives: tt.d, Direction: tt.dir})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got, "%s: want %s, got %s", tt.typ, tt.want, got)
		})
	}
}

func TestClassify_Errors(t *testing.T) {
	tests := []struct {
		typ string
		d   decl.Directives
	}{
		{"Task", decl.Directives{TransferOwnership: true}},
		{"std::unique_ptr<Task>&", decl.Directives{}},
		{"std::vector<int>*", decl.Directives{}},
	}

	for _, tt := range tests {
		_, err := Classify(Shape{Type: decl.MustParseTypeRef(tt.typ), Directives: tt.d, Direction: FromNative})
		assert.Error(t, err, tt.typ)
	}
}

func TestTopoSortClasses(t *testing.T) {
	order, cyclic := topoSortClasses(4, func(i int) []int {
		switch i {
		case 0:
			return []int{2}
		case 1:
			return []int{0, 2}
		default:
			return nil
		}
	})

	assert.Equal(t, []int{2, 0, 1, 3}, order)
	assert.Empty(t, cyclic)

	_, cyclic = topoSortClasses(3, func(i int) []int {
		if i == 2 {
			return nil
		}

		return []int{1 - i}
	})
	assert.Equal(t, []int{0, 1}, cyclic)
}
