// Package primitive describes the native scalar types understood by the
// type resolver and the managed Go types they convert to.
package primitive

import (
	"reflect"
	"strings"
)

//go:generate go tool stringer -type=KindEnum -output=kind_string.go

type KindEnum int

const (
	_ KindEnum = iota // skip zero value, use it as a default (invalid) value for KindEnum

	KindBool
	KindInt8
	KindInt16
	KindInt32
	KindInt64
	KindUint8
	KindUint16
	KindUint32
	KindUint64
	KindFloat32
	KindFloat64
	KindString
	KindVoid

	// KindTotal is a constant that represents the total number of kinds defined
	KindTotal = int(iota)
)

// nativeNames maps every accepted native spelling to its kind.
// Spellings are normalized (single spaces, no std:: prefix) before lookup.
var nativeNames = map[string]KindEnum{
	"bool":               KindBool,
	"char":               KindInt8,
	"signed char":        KindInt8,
	"int8_t":             KindInt8,
	"short":              KindInt16,
	"short int":          KindInt16,
	"int16_t":            KindInt16,
	"int":                KindInt32,
	"signed int":         KindInt32,
	"int32_t":            KindInt32,
	"long":               KindInt64,
	"long int":           KindInt64,
	"long long":          KindInt64,
	"int64_t":            KindInt64,
	"ptrdiff_t":          KindInt64,
	"ssize_t":            KindInt64,
	"unsigned char":      KindUint8,
	"uint8_t":            KindUint8,
	"unsigned short":     KindUint16,
	"uint16_t":           KindUint16,
	"unsigned":           KindUint32,
	"unsigned int":       KindUint32,
	"uint32_t":           KindUint32,
	"unsigned long":      KindUint64,
	"unsigned long long": KindUint64,
	"uint64_t":           KindUint64,
	"size_t":             KindUint64,
	"float":              KindFloat32,
	"double":             KindFloat64,
	"string":             KindString,
	"libcpp_string":      KindString,
	"libcpp_utf8_string": KindString,
	"void":               KindVoid,
}

// Lookup returns the kind for a native type spelling such as "unsigned int"
// or "std::string".
func Lookup(name string) (KindEnum, bool) {
	k, ok := nativeNames[Normalize(name)]
	return k, ok
}

// Normalize collapses whitespace and strips the std:: qualifier.
func Normalize(name string) string {
	name = strings.Join(strings.Fields(name), " ")
	return strings.TrimPrefix(name, "std::")
}

func (k KindEnum) IsValid() bool {
	return k > 0 && int(k) < KindTotal
}

func (k KindEnum) IsNumber() bool {
	return k.IsInteger() || k.IsFloat()
}

func (k KindEnum) IsInteger() bool {
	return k.IsSigned() || k.IsUnsigned()
}

func (k KindEnum) IsFloat() bool {
	switch k {
	default:
		return false
	case KindFloat32, KindFloat64:
		return true
	}
}

func (k KindEnum) IsSigned() bool {
	switch k {
	default:
		return false
	case KindInt8, KindInt16, KindInt32, KindInt64:
		return true
	}
}

func (k KindEnum) IsUnsigned() bool {
	switch k {
	default:
		return false
	case KindUint8, KindUint16, KindUint32, KindUint64:
		return true
	}
}

func (k KindEnum) Bits() int {
	switch k {
	default:
		panic("only numeric kinds has meaningful bits amount, but requested for: " + k.String())
	case KindInt8, KindUint8:
		return 8
	case KindInt16, KindUint16:
		return 16
	case KindInt32, KindUint32, KindFloat32:
		return 32
	case KindInt64, KindUint64, KindFloat64:
		return 64
	}
}

// Managed returns the Go type a value of this kind has on the managed side.
// Integer kinds widen to 64 bits, so int and long share a managed type.
func (k KindEnum) Managed() string {
	switch {
	case k.IsSigned():
		return "int64"
	case k.IsUnsigned():
		return "uint64"
	case k.IsFloat():
		return "float64"
	case k == KindBool:
		return "bool"
	case k == KindString:
		return "string"
	default:
		return ""
	}
}

// Converter returns the name of the bindrt converter for this kind.
func (k KindEnum) Converter() string {
	switch {
	case k.IsSigned():
		return "Int64"
	case k.IsUnsigned():
		return "Uint64"
	case k.IsFloat():
		return "Float64"
	case k == KindBool:
		return "Bool"
	case k == KindString:
		return "String"
	default:
		return "Void"
	}
}

// FromReflectType classifies a Go type by the kind it would be marshalled as.
// Named types are classified by their underlying kind.
func FromReflectType(rtype reflect.Type) KindEnum {
	if rtype == nil {
		return 0
	}

	switch rtype.Kind() {
	default:
		return 0
	case reflect.Bool:
		return KindBool
	case reflect.Int8:
		return KindInt8
	case reflect.Int16:
		return KindInt16
	case reflect.Int32:
		return KindInt32
	case reflect.Int, reflect.Int64:
		return KindInt64
	case reflect.Uint8:
		return KindUint8
	case reflect.Uint16:
		return KindUint16
	case reflect.Uint32:
		return KindUint32
	case reflect.Uint, reflect.Uint64, reflect.Uintptr:
		return KindUint64
	case reflect.Float32:
		return KindFloat32
	case reflect.Float64:
		return KindFloat64
	case reflect.String:
		return KindString
	}
}
