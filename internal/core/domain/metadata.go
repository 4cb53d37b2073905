package domain

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
)

// FlattenMetadata coerces metadata values into the primitive forms the
// vector index stores and filters on. Strings, booleans and numbers
// pass through unchanged, lists become comma-joined strings, and maps
// and structs become JSON-encoded strings. Anything else is rejected
// with ErrInvalidInput.
func FlattenMetadata(metadata map[string]any) (map[string]any, error) {
	flat := make(map[string]any, len(metadata))
	for key, value := range metadata {
		flattened, err := flattenMetadataValue(value)
		if err != nil {
			return nil, fmt.Errorf("%w: metadata key %q: %w", ErrInvalidInput, key, err)
		}
		flat[key] = flattened
	}
	return flat, nil
}

func flattenMetadataValue(value any) (any, error) {
	switch value.(type) {
	case nil, string, bool,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return value, nil
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		parts := make([]string, rv.Len())
		for i := range parts {
			parts[i] = fmt.Sprint(rv.Index(i).Interface())
		}
		return strings.Join(parts, ","), nil
	case reflect.Map, reflect.Struct:
		encoded, err := json.Marshal(value)
		if err != nil {
			return nil, err
		}
		return string(encoded), nil
	default:
		return nil, fmt.Errorf("unsupported value type %T", value)
	}
}
