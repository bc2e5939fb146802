package bindrt_test

import (
	"context"
	"errors"
	"testing"

	"bindgen/bindrt"
	"bindgen/bindrt/bindrttest"
)

type Priority int64

const (
	PriorityLow  Priority = 0
	PriorityHigh Priority = 2
)

var PriorityEnum = bindrt.NewEnumType("Priority",
	bindrt.EnumItem{Name: "Low", Value: 0},
	bindrt.EnumItem{Name: "High", Value: 2},
)

var PriorityConverter = bindrt.EnumOf[Priority](PriorityEnum)

func (p Priority) String() string { return PriorityEnum.Format(int64(p)) }

// Color shares every value with Priority.
type Color int64

const (
	ColorRed  Color = 0
	ColorBlue Color = 2
)

var ColorEnum = bindrt.NewEnumType("paint::Color",
	bindrt.EnumItem{Name: "Red", Value: 0},
	bindrt.EnumItem{Name: "Blue", Value: 2},
)

var ColorConverter = bindrt.EnumOf[Color](ColorEnum)

func (c Color) String() string { return ColorEnum.Format(int64(c)) }

type Task struct{ *bindrt.Object }

var TaskConverter = bindrt.NewClassConv("Task", func(o *bindrt.Object) *Task { return &Task{Object: o} })

var grid = bindrt.OrderedMapOf(bindrt.String, bindrt.SeqOf(bindrt.OrderedMapOf(bindrt.Int64, bindrt.SeqOf(bindrt.Int64))))

var (
	taskNew   = &bindrt.Overload{Symbol: "Task", Params: []bindrt.Converter{bindrt.String}}
	taskTitle = &bindrt.Overload{Symbol: "Task::title", Result: bindrt.String, Const: true}
	taskTags  = &bindrt.Overload{Symbol: "Task::tags", Result: bindrt.ViewOf(bindrt.SeqOf(bindrt.String), false)}
	taskCopy  = &bindrt.Overload{Symbol: "Task::tagsCopy", Result: bindrt.SeqOf(bindrt.String), Const: true}
	taskScore = &bindrt.Overload{Symbol: "Task::scores", Result: bindrt.NumericViewOf(bindrt.Float64, false)}
	taskFail  = &bindrt.Overload{Symbol: "Task::fail", Const: true}
	taskSelf  = &bindrt.Overload{Symbol: "Task::self", Result: bindrt.Borrow(TaskConverter, true), Const: true}
	taskSlow  = &bindrt.Overload{Symbol: "Task::slow", Result: bindrt.Bool, Const: true, ReleaseLock: true}
	taskFast  = &bindrt.Overload{Symbol: "Task::fast", Result: bindrt.Bool, Const: true}

	taskSetPriority = []*bindrt.Overload{
		{Symbol: "Task::setPriority", Index: 0, Params: []bindrt.Converter{PriorityConverter}},
		{Symbol: "Task::setPriority", Index: 1, Params: []bindrt.Converter{ColorConverter}},
	}

	consume = &bindrt.Overload{Symbol: "consume", Params: []bindrt.Converter{bindrt.OwnedOf(TaskConverter)}}
	find    = &bindrt.Overload{Symbol: "find", Params: []bindrt.Converter{bindrt.String}, Result: bindrt.PointerOf(TaskConverter, false)}
	share   = &bindrt.Overload{Symbol: "share", Result: bindrt.SharedOf(TaskConverter, false)}
)

func echo(c bindrt.Converter) *bindrt.Overload {
	return &bindrt.Overload{Symbol: "echo", Params: []bindrt.Converter{c}, Result: c}
}

// world returns a fake native library with a Task class and a runtime
// bound to it.
func world(t *testing.T) (*bindrttest.Fake, *bindrt.Runtime) {
	t.Helper()

	f := bindrttest.New()
	rt := bindrt.New(f)

	held := func(ctx context.Context, _ *bindrttest.Fake, _ *bindrttest.Instance, _ []any) (any, error) {
		return rt.Lock.Held(ctx), nil
	}

	setBy := func(field string) bindrttest.Method {
		return func(_ context.Context, _ *bindrttest.Fake, self *bindrttest.Instance, args []any) (any, error) {
			self.Fields[field] = args[0]
			self.Fields["setBy"] = field

			return nil, nil
		}
	}

	f.Define(&bindrttest.Class{
		Name: "Task",
		Ctors: []bindrttest.Ctor{
			func(_ *bindrttest.Fake, self *bindrttest.Instance, args []any) error {
				title, _ := args[0].(string)
				if title == "" {
					return errors.New("Task: empty title")
				}

				self.Fields["title"] = title
				self.Fields["priority"] = int64(0)
				self.Fields["tags"] = []any{"a", "b"}
				self.Fields["scores"] = []any{1.5, 2.5, 3.5}
				self.Fields["grid"] = []bindrt.WireEntry{
					{Key: "a", Value: []any{
						[]bindrt.WireEntry{{Key: int64(1), Value: []any{int64(10), int64(20)}}},
					}},
				}

				return nil
			},
		},
		Methods: map[string][]bindrttest.Method{
			"Task::title":       {bindrttest.Field("title")},
			"Task::tags":        {bindrttest.FieldRef("tags")},
			"Task::tagsCopy":    {bindrttest.Field("tags")},
			"Task::scores":      {bindrttest.FieldRef("scores")},
			"Task::fail":        {bindrttest.Fail("boom: bad input")},
			"Task::setPriority": {setBy("priority"), setBy("color")},
			"Task::slow":        {held},
			"Task::fast":        {held},
			"Task::self": {func(_ context.Context, _ *bindrttest.Fake, self *bindrttest.Instance, _ []any) (any, error) {
				return bindrt.Ref{Owner: self.Handle}, nil
			}},
		},
	})

	f.DefineFunc("echo", func(_ context.Context, _ *bindrttest.Fake, _ *bindrttest.Instance, args []any) (any, error) {
		return bindrttest.Clone(args[0]), nil
	})

	f.DefineFunc("consume", func(_ context.Context, f *bindrttest.Fake, _ *bindrttest.Instance, args []any) (any, error) {
		f.Object(args[0].(bindrt.Handle)).Fields["consumed"] = true
		return nil, nil
	})

	f.DefineFunc("find", func(_ context.Context, f *bindrttest.Fake, _ *bindrttest.Instance, args []any) (any, error) {
		if args[0] == "missing" {
			return nil, nil
		}

		return f.Alloc("Task", map[string]any{"title": args[0]}).Handle, nil
	})

	f.DefineFunc("share", func(_ context.Context, f *bindrttest.Fake, _ *bindrttest.Instance, _ []any) (any, error) {
		return f.Alloc("Task", map[string]any{"title": "shared"}).Handle, nil
	})

	return f, rt
}

func newTask(t *testing.T, rt *bindrt.Runtime, title string) *Task {
	t.Helper()

	o, err := rt.Construct(context.Background(), taskNew, title)
	if err != nil {
		t.Fatalf("construct: %v", err)
	}

	return &Task{Object: o}
}
