package gen

import (
	"fmt"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bindgen/internal/decl"
	"bindgen/internal/idtable"
	"bindgen/internal/plan"
)

const taskYAML = `
module: Tasks
package: example.com/bindings/tasks
doc: [Tasks schedules work items.]
enums:
  - name: Priority
    items: [LOW, MEDIUM, HIGH]
  - name: Color
    scope: paint
    items: [RED, GREEN, BLUE]
classes:
  - name: Task
    copyable: true
    enums:
      - name: TaskStatus
        items: [PENDING, RUNNING, DONE]
    constructors:
      - params: [{name: title, type: "std::string"}]
    fields:
      - {name: weight, type: double}
      - {name: id, type: const int}
    methods:
      - {name: getStatus, returns: TaskStatus, const: true}
      - {name: setPriority, params: [Priority]}
      - {name: setPriority, params: ["paint::Color"]}
      - {name: tags, returns: "std::vector<std::string>&"}
      - {name: title, returns: "const std::string&", const: true}
      - {name: label, returns: "const std::string&", const: true, directives: {view: true}}
      - {name: scores, returns: "std::vector<double>&", directives: {buffer: true}}
      - {name: parent, returns: "Task*"}
      - {name: detach, returns: "Task*", directives: {transfer-ownership: true}}
      - {name: share, returns: "std::shared_ptr<const Task>"}
      - {name: take, params: ["std::unique_ptr<Task>"]}
      - {name: count, returns: size_t, directives: {designate-length: true}}
      - {name: close}
`

func resolve(t *testing.T, srcs ...string) *plan.ResolvedModel {
	t.Helper()

	m := &decl.Model{}

	for i, src := range srcs {
		u, err := decl.Parse([]byte(src), fmt.Sprintf("unit%d.yaml", i))
		require.NoError(t, err)

		m.Units = append(m.Units, u)
	}

	rm, err := plan.NewResolver(m, plan.DefaultConfig()).Resolve()
	require.NoError(t, err)

	return rm
}

func generate(t *testing.T, srcs ...string) map[string]string {
	t.Helper()

	rm := resolve(t, srcs...)
	require.False(t, rm.Diagnostics.HasErrors(), rm.Diagnostics.Error())

	cfg := DefaultGeneratorConfig()
	cfg.OutputDir = t.TempDir()

	files, err := NewGenerator(cfg).Generate(rm)
	require.NoError(t, err)

	out := map[string]string{}

	for _, f := range files {
		name := f.Dir + "/" + f.Filename
		out[name] = string(f.Content)

		if strings.HasSuffix(f.Filename, ".go") {
			_, err := parser.ParseFile(token.NewFileSet(), name, f.Content, parser.ParseComments)
			require.NoError(t, err, "%s:\n%s", name, f.Content)
			assert.True(t, strings.HasPrefix(out[name], Header), name)
		}
	}

	return out
}

func TestGenerate_Files(t *testing.T) {
	out := generate(t, taskYAML)

	var names []string
	for name := range out {
		names = append(names, name)
	}

	assert.ElementsMatch(t, []string{
		"tasks/doc.go",
		"tasks/enums.go",
		"tasks/task.go",
		"tasks/bindings.go",
		"tasks/tasks.bindid",
	}, names)

	doc := out["tasks/doc.go"]
	assert.Contains(t, doc, "// Package tasks binds the native module Tasks.")
	assert.Contains(t, doc, "// Tasks schedules work items.")
	assert.Contains(t, doc, "package tasks")
}

func TestGenerate_Enums(t *testing.T) {
	src := generate(t, taskYAML)["tasks/enums.go"]

	assert.Contains(t, src, "type Priority int64")
	assert.Regexp(t, `PriorityLow\s+Priority = 0`, src)
	assert.Regexp(t, `PriorityHigh\s+Priority = 2`, src)
	assert.Contains(t, src, `var PriorityEnum = bindrt.NewEnumType("Priority",`)
	assert.Contains(t, src, `bindrt.EnumItem{Name: "MEDIUM", Value: 1},`)
	assert.Contains(t, src, "var PriorityConverter = bindrt.EnumOf[Priority](PriorityEnum)")
	assert.Contains(t, src, "func (v Priority) String() string {")

	assert.Contains(t, src, "type Color int64")
	assert.Contains(t, src, `bindrt.NewEnumType("paint::Color",`)

	assert.Contains(t, src, "type TaskTaskStatus int64")
	assert.Contains(t, src, "// It is bound under Task.")
	assert.Contains(t, src, `"bindgen/bindrt"`)
}

func TestGenerate_Class(t *testing.T) {
	src := generate(t, taskYAML)["tasks/task.go"]

	for _, want := range []string{
		"type Task struct {\n\t*bindrt.Object\n}",
		`var TaskConverter = bindrt.NewClassConv("Task", func(o *bindrt.Object) *Task { return &Task{Object: o} })`,
		"func NewTask(ctx context.Context, rt *bindrt.Runtime, title string) (*Task, error) {",
		"o, err := rt.Construct(ctx, ovTask_New[0], title)",
		"func (t *Task) Clone(ctx context.Context) (*Task, error) {",
		"func (t *Task) GetStatus(ctx context.Context) (TaskTaskStatus, error) {",
		"return bindrt.As[TaskTaskStatus](t.Runtime().Invoke(ctx, t.Object, ovTask_GetStatus[0]))",
		"func (t *Task) SetPriority(ctx context.Context, args ...any) error {",
		"_, err := t.Runtime().Dispatch(ctx, t.Object, ovTask_SetPriority, args...)",
		"func (t *Task) SetPriority0(ctx context.Context, arg0 Priority) error {",
		"func (t *Task) SetPriority1(ctx context.Context, arg0 Color) error {",
		"//\tSetPriority1: Task::setPriority(paint::Color)",
		"func (t *Task) Tags(ctx context.Context) (*bindrt.View, error) {",
		"func (t *Task) Title(ctx context.Context) (string, error) {",
		"func (t *Task) Label(ctx context.Context) (*bindrt.View, error) {",
		"func (t *Task) Scores(ctx context.Context) (*bindrt.NumericView, error) {",
		"func (t *Task) Parent(ctx context.Context) (*Task, error) {",
		"// The caller owns the result and must Close it.",
		"func (t *Task) Share(ctx context.Context) (*bindrt.Shared, error) {",
		"func (t *Task) Take(ctx context.Context, arg0 *Task) error {",
		"func (t *Task) CloseNative(ctx context.Context) error {",
		"func (t *Task) Len(ctx context.Context) (int, error) {",
		"n, err := bindrt.As[uint64](t.Runtime().Invoke(ctx, t.Object, ovTask_Len[0]))",
		"return bindrt.Length(n)",
	} {
		assert.Contains(t, src, want)
	}

	assert.Contains(t, src, "func (t *Task) Count(ctx context.Context) (uint64, error) {", "the length method stays callable")
}

func TestGenerate_Fields(t *testing.T) {
	src := generate(t, taskYAML)["tasks/task.go"]

	assert.Contains(t, src, "func (t *Task) Weight(ctx context.Context) (float64, error) {")
	assert.Contains(t, src, "return bindrt.As[float64](t.WeightView().Get(ctx))")
	assert.Contains(t, src, "func (t *Task) SetWeight(ctx context.Context, v float64) error {")
	assert.Contains(t, src, `return t.Field("weight", bindrt.Float64)`)

	assert.Contains(t, src, "func (t *Task) Id(ctx context.Context) (int64, error) {")
	assert.Contains(t, src, `return t.Field("id", bindrt.Int64).AsReadOnly()`)
	assert.NotContains(t, src, "SetId(", "const fields have no setter")
}

func TestGenerate_Bindings(t *testing.T) {
	src := generate(t, taskYAML)["tasks/bindings.go"]

	assert.Regexp(t, `seqOfString\s+bindrt\.Converter`, src)
	assert.Regexp(t, `ovTask_SetPriority\s+\[\]\*bindrt\.Overload`, src)
	assert.Contains(t, src, "func init() {")
	assert.Contains(t, src, "seqOfString = bindrt.SeqOf(bindrt.String)")

	for _, want := range []string{
		`{Symbol: "Task", Params: []bindrt.Converter{bindrt.String}},`,
		`{Symbol: "Task::getStatus", Result: TaskTaskStatusConverter, Const: true},`,
		`{Symbol: "Task::setPriority", Params: []bindrt.Converter{PriorityConverter}},`,
		`{Symbol: "Task::setPriority", Index: 1, Params: []bindrt.Converter{ColorConverter}},`,
		`{Symbol: "Task::tags", Result: bindrt.ViewOf(seqOfString, false)},`,
		`{Symbol: "Task::title", Result: bindrt.String, Const: true},`,
		`{Symbol: "Task::label", Result: bindrt.ViewOf(bindrt.String, true), Const: true},`,
		`{Symbol: "Task::scores", Result: bindrt.NumericViewOf(bindrt.Float64, false)},`,
		`{Symbol: "Task::parent", Result: bindrt.PointerOf(TaskConverter, false)},`,
		`{Symbol: "Task::detach", Result: bindrt.PointerOf(TaskConverter, true)},`,
		`{Symbol: "Task::share", Result: bindrt.SharedOf(TaskConverter, true)},`,
		`{Symbol: "Task::take", Params: []bindrt.Converter{bindrt.OwnedOf(TaskConverter)}},`,
		`{Symbol: "Task::count", Result: bindrt.Uint64},`,
	} {
		assert.Contains(t, src, want)
	}

	assert.Less(t, strings.Index(src, "seqOfString = "), strings.Index(src, "ovTask_Tags = "),
		"container converters exist before the tables using them")
}

func TestGenerate_IdentityTable(t *testing.T) {
	data := generate(t, taskYAML)["tasks/tasks.bindid"]
	require.NotEmpty(t, data)

	table, err := idtable.Unmarshal([]byte(data))
	require.NoError(t, err)

	assert.Equal(t, "Tasks", table.Module)
	assert.Equal(t, "example.com/bindings/tasks", table.Package)
	assert.Len(t, table.Enums, 3)
	require.Len(t, table.Classes, 1)
	assert.Equal(t, "Task", table.Classes[0].Symbol)
}

func TestGenerate_Functions(t *testing.T) {
	out := generate(t, taskYAML, `
module: Funcs
functions:
  - {name: make, returns: Task, params: ["std::string"]}
  - {name: make, returns: Task, params: [int, int]}
  - {name: reset, params: ["Task&"], directives: {attach-to-owner: Task}}
  - {name: level, returns: Priority, params: [{name: type, type: int}]}
`)

	src := out["funcs/functions.go"]
	require.NotEmpty(t, src)

	for _, want := range []string{
		`"example.com/bindings/tasks"`,
		"func Make(ctx context.Context, rt *bindrt.Runtime, args ...any) (*tasks.Task, error) {",
		"return bindrt.As[*tasks.Task](rt.Dispatch(ctx, nil, ovMake, args...))",
		"func Make0(ctx context.Context, rt *bindrt.Runtime, arg0 string) (*tasks.Task, error) {",
		"func Make1(ctx context.Context, rt *bindrt.Runtime, arg0 int64, arg1 int64) (*tasks.Task, error) {",
		"func TaskReset(ctx context.Context, rt *bindrt.Runtime, arg0 *tasks.Task) error {",
		"func Level(ctx context.Context, rt *bindrt.Runtime, typeArg int64) (tasks.Priority, error) {",
	} {
		assert.Contains(t, src, want)
	}

	bindings := out["funcs/bindings.go"]
	assert.Contains(t, bindings, `{Symbol: "reset", Params: []bindrt.Converter{bindrt.Borrow(tasks.TaskConverter, false)}},`)
	assert.Contains(t, bindings, `{Symbol: "level", Params: []bindrt.Converter{bindrt.Int64}, Result: tasks.PriorityConverter},`)
}

func TestGenerate_KeyCapabilities(t *testing.T) {
	src := generate(t, `
module: K
classes:
  - name: Ord
    methods:
      - {name: "operator<", returns: bool, params: ["const Ord&"]}
  - name: Hashy
    directives: {hash: address}
    methods:
      - {name: "operator==", returns: bool, params: ["const Hashy&"]}
  - name: User
    methods:
      - {name: ords, returns: "std::set<Ord>"}
      - {name: hashes, returns: "std::unordered_set<Hashy>"}
`)["k/bindings.go"]

	ordered := "OrdConverter.OrderedBy(func(a, b *Ord) (bool, error) {"
	assert.Contains(t, src, ordered)
	assert.Contains(t, src, "return bindrt.As[bool](a.Runtime().Dispatch(context.Background(), a.Object, ovOrd_Less, b))")
	assert.Contains(t, src, "HashyConverter.HashedBy(bindrt.AddressHash[*Hashy], func(a, b *Hashy) (bool, error) {")
	assert.Contains(t, src, "setOfOrd = bindrt.OrderedSetOf(OrdConverter)")
	assert.Contains(t, src, "hashSetOfHashy = bindrt.HashSetOf(HashyConverter)")

	assert.Less(t, strings.Index(src, ordered), strings.Index(src, "setOfOrd = "),
		"keys are ordered before containers are built")
}

func TestGenerate_ReceiverAvoidsLocals(t *testing.T) {
	src := generate(t, `
module: R
classes:
  - name: Node
    methods:
      - {name: next, returns: "Node*"}
`)["r/node.go"]

	assert.Contains(t, src, "func (x *Node) Next(ctx context.Context) (*Node, error) {")
}

func TestGenerate_FailedUnit(t *testing.T) {
	rm := resolve(t, taskYAML, `
module: Broken
functions:
  - {name: f, returns: Nope}
`)
	require.True(t, rm.Failed("Broken"))

	files, err := NewGenerator(DefaultGeneratorConfig()).Generate(rm)
	require.NoError(t, err)

	for _, f := range files {
		assert.NotEqual(t, "Broken", f.Unit)
	}

	assert.NotEmpty(t, files, "other units still generate")
}

func TestGenerate_Unformatted(t *testing.T) {
	rm := resolve(t, taskYAML)

	cfg := DefaultGeneratorConfig()
	cfg.Unformatted = true
	cfg.IdentityTables = false

	files, err := NewGenerator(cfg).Generate(rm)
	require.NoError(t, err)

	for _, f := range files {
		assert.True(t, strings.HasSuffix(f.Filename, ".go"), f.Filename)
	}
}

func TestWriteFiles(t *testing.T) {
	rm := resolve(t, taskYAML)

	files, err := NewGenerator(DefaultGeneratorConfig()).Generate(rm)
	require.NoError(t, err)

	dir := t.TempDir()
	require.NoError(t, WriteFiles(files, dir))

	for _, f := range files {
		got, err := os.ReadFile(filepath.Join(dir, f.Dir, f.Filename))
		require.NoError(t, err)
		assert.Equal(t, f.Content, got)
	}
}

func TestClassFilename(t *testing.T) {
	tests := []struct {
		symbol string
		want   string
	}{
		{"Task", "task.go"},
		{"Int_Holder", "intholder.go"},
		{"Doc", "docclass.go"},
		{"Bindings", "bindingsclass.go"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, classFilename(tt.symbol))
	}
}

func TestPackageName(t *testing.T) {
	tests := []struct {
		unit decl.Unit
		want string
	}{
		{decl.Unit{Package: "example.com/bindings/tasks"}, "tasks"},
		{decl.Unit{Package: "example.com/x", PackageName: "geo_2d"}, "geo_2d"},
		{decl.Unit{Package: "example.com/go-lib"}, "golib"},
		{decl.Unit{Package: "example.com/3d"}, "bindings3d"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, PackageName(&tt.unit))
	}
}

var importLine = regexp.MustCompile(`(?m)^\s+(\w+ )?"([^"]+)"$`)

func TestGenerate_ImportsUsed(t *testing.T) {
	out := generate(t, taskYAML)

	for name, src := range out {
		if !strings.HasSuffix(name, ".go") {
			continue
		}

		for _, m := range importLine.FindAllStringSubmatch(src, -1) {
			alias := strings.TrimSpace(m[1])
			if alias == "" {
				alias = filepath.Base(m[2])
			}

			assert.Contains(t, src, alias+".", "%s imports %s without using it", name, m[2])
		}
	}
}

func TestGenerate_ImportGroups(t *testing.T) {
	out := generate(t, taskYAML, `
module: Funcs
functions:
  - {name: reset, params: ["Task&"], directives: {attach-to-owner: Task}}
`)

	assert.Contains(t, out["funcs/functions.go"], `import (
	"context"

	"example.com/bindings/tasks"

	"bindgen/bindrt"
)`)

	s := newFileScope("example.com/app/gen/scene", "bindgen/bindrt", nil)
	s.use("context")
	s.use("bindgen/bindrt")
	s.use("example.com/app/gen/geometry")
	s.use("example.com/other/units")

	groups := s.grouped("example.com/app")
	require.Len(t, groups, 3)
	assert.Equal(t, []importSpec{{Path: "context"}}, groups[0])
	assert.Equal(t, []importSpec{{Path: "bindgen/bindrt"}, {Path: "example.com/other/units"}}, groups[1])
	assert.Equal(t, []importSpec{{Path: "example.com/app/gen/geometry"}}, groups[2])
}

func TestGenerate_Examples(t *testing.T) {
	units, err := filepath.Glob("../../examples/*/*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, units)

	m, err := decl.LoadModel(units...)
	require.NoError(t, err)

	rm, err := plan.NewResolver(m, plan.DefaultConfig()).Resolve()
	require.NoError(t, err)
	require.False(t, rm.Diagnostics.HasErrors(), rm.Diagnostics.Error())

	cfg := DefaultGeneratorConfig()
	cfg.OutputDir = t.TempDir()

	files, err := NewGenerator(cfg).Generate(rm)
	require.NoError(t, err)

	byName := map[string]string{}

	for _, f := range files {
		byName[f.Dir+"/"+f.Filename] = string(f.Content)

		if !strings.HasSuffix(f.Filename, ".go") {
			continue
		}

		_, err := parser.ParseFile(token.NewFileSet(), f.Filename, f.Content, parser.AllErrors)
		assert.NoError(t, err, "%s/%s", f.Dir, f.Filename)
	}

	point := byName["geometry/point.go"]
	assert.Contains(t, point, "func NewPoint(ctx context.Context, rt *bindrt.Runtime, args ...any) (*Point, error) {")
	assert.Contains(t, point, "func NewPoint1(ctx context.Context, rt *bindrt.Runtime, x float64, y float64) (*Point, error) {")
	assert.Contains(t, point, "func (p *Point) Add(ctx context.Context, arg0 *Point) (*Point, error) {")
	assert.Contains(t, point, "func (p *Point) Hash(ctx context.Context) (uint64, error) {")
	assert.Contains(t, point, "// Expected values: [0, +inf]; not enforced.")

	polygon := byName["geometry/polygon.go"]
	assert.Contains(t, polygon, "func (p *Polygon) Iter() *bindrt.IndexIter {")
	assert.Contains(t, polygon, "// The native call runs without the exclusivity lock.")

	bindings := byName["geometry/bindings.go"]
	assert.Contains(t, bindings, "PointConverter.OrderedBy(")
	assert.Contains(t, bindings, "return v.Hash(context.Background())")
	assert.Contains(t, bindings, `{Symbol: "geo::Polygon::area", Result: bindrt.Float64, Const: true, ReleaseLock: true},`)

	scene := byName["scene/bindings.go"]
	assert.Contains(t, scene, "bindrt.OrderedMapOf(geometry.PointConverter, seqOfInt64)")
	assert.Contains(t, scene, "bindrt.HashSetOf(geometry.PointConverter)")
	assert.Contains(t, scene, "bindrt.SeqOf(bindrt.OwnedOf(geometry.PolygonConverter))")
}
