// internal/variant/access.go
package variant

// Typed accessors for decoded reads. Each accessor unwraps variant tags
// first, then requires the exact target tag. A mismatch is a DecodeError,
// never a zero-value default.

// unwrap strips variant wrappers. Empty wrappers surface at the accessor.
func unwrap(v Value) Value {
	for v.Kind == KindVariant && v.Inner != nil {
		v = *v.Inner
	}
	return v
}

func AsString(v Value) (string, error) {
	v = unwrap(v)
	if v.Kind != KindString {
		return "", &DecodeError{Kind: v.Kind, Reason: "expected string"}
	}
	return v.Str, nil
}

func AsBool(v Value) (bool, error) {
	v = unwrap(v)
	if v.Kind != KindBool {
		return false, &DecodeError{Kind: v.Kind, Reason: "expected bool"}
	}
	return v.Bool, nil
}

func AsInt(v Value) (int64, error) {
	v = unwrap(v)
	if v.Kind != KindInt {
		return 0, &DecodeError{Kind: v.Kind, Reason: "expected int"}
	}
	return v.Int, nil
}

// AsArray returns the elements of an array value.
func AsArray(v Value) ([]Value, error) {
	v = unwrap(v)
	if v.Kind != KindArray {
		return nil, &DecodeError{Kind: v.Kind, Reason: "expected array"}
	}
	return v.Elems, nil
}

// AsStruct returns the fields of a struct value and requires at least
// min fields. Callers decode positionally, so a short struct is a shape
// error, not a missing-optional.
func AsStruct(v Value, min int) ([]Value, error) {
	v = unwrap(v)
	if v.Kind != KindStruct {
		return nil, &DecodeError{Kind: v.Kind, Reason: "expected struct"}
	}
	if len(v.Elems) < min {
		return nil, &DecodeError{Kind: KindStruct, Reason: "struct has too few fields"}
	}
	return v.Elems, nil
}

// AsStrings decodes an array whose elements must all be strings.
func AsStrings(v Value) ([]string, error) {
	elems, err := AsArray(v)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(elems))
	for i, e := range elems {
		s, err := AsString(e)
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}
