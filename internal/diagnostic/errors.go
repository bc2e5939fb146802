package diagnostic

import (
	"errors"
	"fmt"
	"strings"
)

// Diagnostic codes for the fatal generation errors.
const (
	CodeUnresolvedType     = "unresolved_type"
	CodeUnresolvedEnum     = "unresolved_enum"
	CodeAmbiguousOverload  = "ambiguous_overload"
	CodeUnsupportedNesting = "unsupported_container_nesting"
	CodeInvalidDecl        = "invalid_declaration"
)

// Diagnostic codes for non-fatal findings.
const (
	CodeSkippedOperator = "skipped_operator"
	CodeIgnoredDecl     = "ignored_declaration"
	CodeUnusedHint      = "unused_bound_hint"
	CodeLifetimeHazard  = "lifetime_hazard"
	CodeImportedBase    = "imported_base"
)

// UnresolvedTypeError reports a type expression whose base name, or one of
// whose nested arguments, is not in any registry.
type UnresolvedTypeError struct {
	Type        string
	Name        string
	Reason      string
	Decl        string
	Location    Location
	Suggestions []string
}

func (e *UnresolvedTypeError) Error() string {
	msg := fmt.Sprintf("unresolved type %q", e.Name)
	if e.Type != "" && e.Type != e.Name {
		msg += " in " + e.Type
	}

	if e.Reason != "" {
		msg += ": " + e.Reason
	}

	return withWhere(msg, e.Decl, e.Location)
}

// Where returns the declaration and location of the failure.
func (e *UnresolvedTypeError) Where() (string, Location) { return e.Decl, e.Location }

// UnresolvedEnumError reports an enum reference with no matching identity.
type UnresolvedEnumError struct {
	Scope    []string
	Name     string
	Decl     string
	Location Location
}

func (e *UnresolvedEnumError) Error() string {
	name := e.Name
	if len(e.Scope) > 0 {
		name = strings.Join(e.Scope, "::") + "::" + e.Name
	}

	return withWhere(fmt.Sprintf("unresolved enum %q", name), e.Decl, e.Location)
}

// Where returns the declaration and location of the failure.
func (e *UnresolvedEnumError) Where() (string, Location) { return e.Decl, e.Location }

// AmbiguousOverloadError reports two callables that cannot be told apart
// after conversion, or a name reaching a class from more than one place.
type AmbiguousOverloadError struct {
	Class     string
	Name      string
	Signature string
	Reason    string
	Decl      string
	Location  Location
}

func (e *AmbiguousOverloadError) Error() string {
	msg := fmt.Sprintf("ambiguous overload %s", qualify(e.Class, e.Name))
	if e.Signature != "" {
		msg += "(" + e.Signature + ")"
	}

	if e.Reason != "" {
		msg += ": " + e.Reason
	}

	return withWhere(msg, e.Decl, e.Location)
}

// Where returns the declaration and location of the failure.
func (e *AmbiguousOverloadError) Where() (string, Location) { return e.Decl, e.Location }

// UnsupportedContainerNestingError reports an element plan that cannot be
// composed into its container.
type UnsupportedContainerNestingError struct {
	Container string
	Element   string
	Reason    string
	Decl      string
	Location  Location
}

func (e *UnsupportedContainerNestingError) Error() string {
	msg := fmt.Sprintf("unsupported element %s in %s", e.Element, e.Container)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}

	return withWhere(msg, e.Decl, e.Location)
}

// Where returns the declaration and location of the failure.
func (e *UnsupportedContainerNestingError) Where() (string, Location) { return e.Decl, e.Location }

// InvalidDeclError reports a malformed declaration or directive.
type InvalidDeclError struct {
	Decl     string
	Message  string
	Location Location
}

func (e *InvalidDeclError) Error() string {
	return withWhere(e.Message, e.Decl, e.Location)
}

// Where returns the declaration and location of the failure.
func (e *InvalidDeclError) Where() (string, Location) { return e.Decl, e.Location }

// CodeOf returns the diagnostic code for an error.
func CodeOf(err error) string {
	var (
		unresolvedType *UnresolvedTypeError
		unresolvedEnum *UnresolvedEnumError
		ambiguous      *AmbiguousOverloadError
		nesting        *UnsupportedContainerNestingError
		invalid        *InvalidDeclError
	)

	switch {
	case errors.As(err, &unresolvedEnum):
		return CodeUnresolvedEnum
	case errors.As(err, &unresolvedType):
		return CodeUnresolvedType
	case errors.As(err, &ambiguous):
		return CodeAmbiguousOverload
	case errors.As(err, &nesting):
		return CodeUnsupportedNesting
	case errors.As(err, &invalid):
		return CodeInvalidDecl
	default:
		return "error"
	}
}

func qualify(scope, name string) string {
	if scope == "" {
		return name
	}

	return scope + "::" + name
}

func withWhere(msg, decl string, loc Location) string {
	if decl != "" {
		msg = decl + ": " + msg
	}

	if !loc.IsZero() {
		msg = loc.String() + ": " + msg
	}

	return msg
}
