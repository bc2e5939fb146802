// Package tasks is a hand-trimmed generated package.
package tasks

import (
	"context"

	"bindgen/bindrt"
)

// Task wraps the native class Task.
type Task struct {
	*bindrt.Object
}

// NewTask constructs a Task.
func NewTask(ctx context.Context, rt *bindrt.Runtime, title string) (*Task, error) {
	return nil, nil
}

// Len returns the length.
func (t *Task) Len(ctx context.Context) (int, error) {
	return 0, nil
}

// WeightView returns a view of the weight field.
func (t *Task) WeightView() *bindrt.View {
	return nil
}

// Detached returns nothing natively.
func (t *Task) Detached() bool {
	return t.Object == nil
}

// Priority mirrors the native enum Priority.
type Priority int64

// PriorityEnum describes the native enum Priority.
var PriorityEnum = bindrt.NewEnumType("Priority", bindrt.EnumItem{Name: "LOW", Value: 0})

// String returns the enumerator name.
func (v Priority) String() string {
	return PriorityEnum.Format(int64(v))
}

// Options is neither a wrapper nor an enum.
type Options struct {
	Verbose bool
}

// Level has no descriptor, so it is not an enum.
type Level int64
