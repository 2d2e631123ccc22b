// internal/variant/variant.go
package variant

import "fmt"

// Kind is the type tag of a wire value.
// The tag set is protocol-locked and MUST NOT grow silently:
// decoding fails explicitly on anything outside it.
type Kind uint8

const (
	// KindInvalid is the zero value. It is never valid on the wire.
	KindInvalid Kind = iota

	// ---- BASIC TAGS ----

	KindString
	KindBool
	KindInt

	// ---- CONTAINER TAGS ----

	// KindArray holds zero or more elements in wire order.
	KindArray

	// KindStruct holds positional fields in declaration order.
	KindStruct

	// KindVariant wraps exactly one inner value and is transparent to decoding.
	KindVariant
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindArray:
		return "array"
	case KindStruct:
		return "struct"
	case KindVariant:
		return "variant"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Value is one tagged wire value.
// Exactly one payload field is meaningful depending on Kind.
// Values carry no identity and no memory of where they came from.
type Value struct {
	Kind Kind

	Str   string
	Bool  bool
	Int   int64
	Elems []Value // KindArray, KindStruct
	Inner *Value  // KindVariant
}

// ---- CONSTRUCTORS ----

func String(s string) Value { return Value{Kind: KindString, Str: s} }
func Bool(b bool) Value     { return Value{Kind: KindBool, Bool: b} }
func Int(i int64) Value     { return Value{Kind: KindInt, Int: i} }

func Array(elems ...Value) Value {
	return Value{Kind: KindArray, Elems: elems}
}

func Struct(fields ...Value) Value {
	return Value{Kind: KindStruct, Elems: fields}
}

// Wrap boxes a value in a variant tag.
func Wrap(v Value) Value {
	inner := v
	return Value{Kind: KindVariant, Inner: &inner}
}

// DecodeError reports a value that cannot be decoded: an unrecognized tag
// or a payload whose shape does not match its tag.
type DecodeError struct {
	Kind   Kind
	Reason string
}

func (e *DecodeError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("variant: unrecognized tag %s", e.Kind)
	}
	return fmt.Sprintf("variant: %s (tag %s)", e.Reason, e.Kind)
}

// Decode converts a tagged value into a plain Go value.
// Total over the declared tag set, recursive for containers, transparent
// for variant wrappers. Pure: no IO, no side effects, identical input
// always yields identical output. It never coerces or defaults.
//
// Plain forms: string, bool, int64, []any (arrays and structs).
func Decode(v Value) (any, error) {
	switch v.Kind {
	case KindString:
		return v.Str, nil
	case KindBool:
		return v.Bool, nil
	case KindInt:
		return v.Int, nil
	case KindArray, KindStruct:
		out := make([]any, len(v.Elems))
		for i, e := range v.Elems {
			d, err := Decode(e)
			if err != nil {
				return nil, err
			}
			out[i] = d
		}
		return out, nil
	case KindVariant:
		if v.Inner == nil {
			return nil, &DecodeError{Kind: KindVariant, Reason: "empty variant wrapper"}
		}
		return Decode(*v.Inner)
	default:
		return nil, &DecodeError{Kind: v.Kind}
	}
}
