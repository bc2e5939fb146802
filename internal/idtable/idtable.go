// Package idtable reads and writes identity tables: the enum and class
// identities a generation unit exports, so a later run can refer to them
// with identity preserved.
//
// Tables are canonical CBOR, so regenerating an unchanged unit produces a
// byte-identical file.
package idtable

import (
	"errors"
	"fmt"
	"os"

	"github.com/fxamacker/cbor/v2"

	"bindgen/internal/enums"
)

// Version is the table format version written by this package.
const Version = 1

// Ext is the identity table file extension.
const Ext = ".bindid"

// ErrVersion is returned for tables written by an incompatible version.
var ErrVersion = errors.New("idtable: unsupported table version")

// Class is the identity of a wrapped class.
type Class struct {
	// Name is the qualified native name, or the instance name for
	// template instances.
	Name string `cbor:"name"`
	// Native is the class name the bridge knows.
	Native  string `cbor:"native"`
	Unit    string `cbor:"unit"`
	Package string `cbor:"package"`
	// Symbol is the Go wrapper type name.
	Symbol  string `cbor:"symbol"`
	Ordered bool   `cbor:"ordered,omitempty"`
	Hashed  bool   `cbor:"hashed,omitempty"`
}

// Table is the identity table of one unit.
type Table struct {
	Version int               `cbor:"version"`
	Module  string            `cbor:"module"`
	Package string            `cbor:"package"`
	Enums   []*enums.Identity `cbor:"enums"`
	Classes []Class           `cbor:"classes"`
}

var encMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("idtable: failed to create CBOR enc mode: %v", err))
	}

	encMode = em
}

// Marshal serializes a table to canonical CBOR.
func Marshal(t *Table) ([]byte, error) {
	if t.Version == 0 {
		t.Version = Version
	}

	return encMode.Marshal(t)
}

// Unmarshal deserializes a table.
func Unmarshal(data []byte) (*Table, error) {
	var t Table
	if err := cbor.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("idtable: unmarshal: %w", err)
	}

	if t.Version != Version {
		return nil, fmt.Errorf("%w: %d", ErrVersion, t.Version)
	}

	for _, id := range t.Enums {
		if id == nil || id.Name == "" {
			return nil, errors.New("idtable: enum identity without a name")
		}
	}

	return &t, nil
}

// Write stores a table at path.
func Write(path string, t *Table) error {
	data, err := Marshal(t)
	if err != nil {
		return fmt.Errorf("idtable: marshal %s: %w", t.Module, err)
	}

	return os.WriteFile(path, data, 0o644)
}

// Read loads the table at path.
func Read(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	t, err := Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return t, nil
}
