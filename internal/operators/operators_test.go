package operators

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bindgen/internal/decl"
	"bindgen/internal/diagnostic"
)

func parseClass(t *testing.T, src string) *decl.ClassDecl {
	t.Helper()

	u, err := decl.Parse([]byte("module: M\nclasses:\n"+src), "ops.yaml")
	require.NoError(t, err)
	require.Len(t, u.Classes, 1)

	return u.Classes[0]
}

func TestMapOperators(t *testing.T) {
	c := parseClass(t, `
  - name: Vec
    directives: {hash: hashCode}
    methods:
      - {name: "operator+", returns: Vec, params: [const Vec&]}
      - {name: "operator+", returns: Vec, params: [double]}
      - {name: "operator-", returns: Vec}
      - {name: "operator*=", returns: Vec&, params: [double]}
      - {name: "operator<<=", returns: Vec&, params: [int]}
      - {name: "operator==", returns: bool, params: [const Vec&]}
      - {name: "operator<", returns: bool, params: [const Vec&]}
      - {name: "operator bool", returns: bool}
      - {name: "operator double", returns: double}
      - {name: "operator std::string", returns: "std::string"}
      - {name: "operator Other", returns: Other}
      - {name: "operator[]", returns: double, params: [int]}
      - {name: "operator!=", returns: bool, params: [const Vec&]}
      - {name: "operator()", returns: void}
      - {name: "operator=", returns: Vec&, params: [const Vec&]}
      - {name: "operator%", returns: Vec, params: [int], directives: [ignore]}
      - {name: hashCode, returns: size_t, const: true}
      - {name: operatorCount, returns: int}
`)

	b, diags := MapOperators(c)

	assert.Equal(t, "Vec", b.Class)
	assert.True(t, b.Ordered)
	assert.True(t, b.Equatable)
	assert.True(t, b.Hashable())
	assert.Equal(t, "hashCode", b.Hash)

	assert.Equal(t,
		[]string{"Add", "Neg", "MulAssign", "ShlAssign", "Equal", "Less", "Bool", "Float64", "String", "ToOther"},
		b.GoNames())
	assert.Len(t, b.Named("Add"), 2)
	assert.Equal(t, KindUnary, b.Named("Neg")[0].Kind)
	assert.Equal(t, KindCompound, b.Named("MulAssign")[0].Kind)
	assert.Equal(t, KindConversion, b.Named("Float64")[0].Kind)
	assert.Equal(t, "double", b.Named("Float64")[0].Target.String())

	var skipped, ignored int

	for _, d := range diags {
		switch d.Code {
		case diagnostic.CodeSkippedOperator:
			skipped++

			assert.Equal(t, diagnostic.DiagnosticWarning, d.Severity)
			assert.Equal(t, "ops.yaml", d.Location.File)
		case diagnostic.CodeIgnoredDecl:
			ignored++
		default:
			t.Errorf("unexpected diagnostic %s", d)
		}
	}

	// [], !=, () and = are outside the eligible set.
	assert.Equal(t, 4, skipped)
	assert.Equal(t, 1, ignored)
}

func TestMapOperators_KeyCapabilities(t *testing.T) {
	tests := []struct {
		name      string
		src       string
		ordered   bool
		hashable  bool
		errorDiag bool
	}{
		{
			name: "plain",
			src:  "  - name: P\n",
		},
		{
			name:    "ordered only",
			src:     "  - name: P\n    methods:\n      - {name: \"operator<\", returns: bool, params: [const P&]}\n",
			ordered: true,
		},
		{
			name: "equality without hash",
			src:  "  - name: P\n    methods:\n      - {name: \"operator==\", returns: bool, params: [const P&]}\n",
		},
		{
			name:     "address hash",
			src:      "  - name: P\n    directives: {hash: address}\n    methods:\n      - {name: \"operator==\", returns: bool, params: [const P&]}\n",
			hashable: true,
		},
		{
			name:      "missing hash method",
			src:       "  - name: P\n    directives: {hash: nope}\n    methods:\n      - {name: \"operator==\", returns: bool, params: [const P&]}\n",
			errorDiag: true,
		},
		{
			name:      "non-integer hash",
			src:       "  - name: P\n    directives: {hash: h}\n    methods:\n      - {name: h, returns: double}\n      - {name: \"operator==\", returns: bool, params: [const P&]}\n",
			errorDiag: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, diags := MapOperators(parseClass(t, tt.src))

			assert.Equal(t, tt.ordered, b.Ordered)
			assert.Equal(t, tt.hashable, b.Hashable())

			hasErr := false

			for _, d := range diags {
				if d.Severity == diagnostic.DiagnosticError {
					hasErr = true

					var invalid *diagnostic.InvalidDeclError
					assert.ErrorAs(t, d.Err, &invalid)
				}
			}

			assert.Equal(t, tt.errorDiag, hasErr)
		})
	}
}

func TestIsOperator(t *testing.T) {
	assert.True(t, IsOperator("operator+"))
	assert.True(t, IsOperator("operator bool"))
	assert.True(t, IsOperator("operator[]"))
	assert.False(t, IsOperator("operator"))
	assert.False(t, IsOperator("operatorCount"))
	assert.False(t, IsOperator("getValue"))
	assert.Equal(t, "conversion", KindConversion.String())
}
