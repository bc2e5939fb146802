package primitive_test

import (
	"fmt"
	"reflect"

	"bindgen/primitive"
)

func Example() {
	type Code int32

	fmt.Println(primitive.FromReflectType(reflect.TypeOf(int(0))))
	fmt.Println(primitive.FromReflectType(reflect.TypeOf("")))
	fmt.Println(primitive.FromReflectType(reflect.TypeOf(Code(0))))
	fmt.Println(primitive.FromReflectType(reflect.TypeOf(struct{}{})))

	k, _ := primitive.Lookup("std::string")
	fmt.Println(k)

	k, _ = primitive.Lookup("unsigned   long")
	fmt.Println(k, k.Managed())
	// Output:
	// KindInt64
	// KindString
	// KindInt32
	// KindEnum(0)
	// KindString
	// KindUint64 uint64
}
