package envelope

import (
	"fmt"
	"reflect"

	"github.com/griffithind/frog/internal/ferrors"
)

// BuildResult walks an arbitrary Go value and converts it into the plain
// map[string]interface{}/[]interface{}/scalar tree that Ok() expects,
// rejecting anything that cannot cross the wire (channels, funcs,
// unexported struct fields are skipped).
//
// The original serializer walked its input in place, mutating the
// caller's dict/list/set as it went. That made partially-serialized
// values observable on error and made path tracking an afterthought. This
// version never mutates its input: every container is rebuilt fresh, and
// the path to the first unserializable leaf is threaded through the
// recursion rather than reconstructed after the fact.
func BuildResult(v interface{}) (map[string]interface{}, error) {
	built, err := build(v, "$")
	if err != nil {
		return nil, err
	}
	m, ok := built.(map[string]interface{})
	if !ok {
		return map[string]interface{}{"value": built}, nil
	}
	return m, nil
}

func build(v interface{}, path string) (interface{}, error) {
	if v == nil {
		return nil, nil
	}

	switch val := v.(type) {
	case string, bool, int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64, float32, float64:
		return val, nil
	case map[string]interface{}:
		return buildMap(val, path)
	case []interface{}:
		return buildSlice(val, path)
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map:
		return buildReflectMap(rv, path)
	case reflect.Slice, reflect.Array:
		return buildReflectSlice(rv, path)
	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			return nil, nil
		}
		return build(rv.Elem().Interface(), path)
	case reflect.Struct:
		return buildStruct(rv, path)
	default:
		return nil, ferrors.Serialization(path, v)
	}
}

func buildMap(m map[string]interface{}, path string) (map[string]interface{}, error) {
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		child, err := build(v, fmt.Sprintf("%s.%s", path, k))
		if err != nil {
			return nil, err
		}
		out[k] = child
	}
	return out, nil
}

func buildSlice(s []interface{}, path string) ([]interface{}, error) {
	out := make([]interface{}, len(s))
	for i, v := range s {
		child, err := build(v, fmt.Sprintf("%s[%d]", path, i))
		if err != nil {
			return nil, err
		}
		out[i] = child
	}
	return out, nil
}

func buildReflectMap(rv reflect.Value, path string) (map[string]interface{}, error) {
	out := make(map[string]interface{}, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		key := fmt.Sprint(iter.Key().Interface())
		child, err := build(iter.Value().Interface(), fmt.Sprintf("%s.%s", path, key))
		if err != nil {
			return nil, err
		}
		out[key] = child
	}
	return out, nil
}

func buildReflectSlice(rv reflect.Value, path string) ([]interface{}, error) {
	out := make([]interface{}, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		child, err := build(rv.Index(i).Interface(), fmt.Sprintf("%s[%d]", path, i))
		if err != nil {
			return nil, err
		}
		out[i] = child
	}
	return out, nil
}

func buildStruct(rv reflect.Value, path string) (map[string]interface{}, error) {
	t := rv.Type()
	out := make(map[string]interface{}, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if field.PkgPath != "" {
			continue // unexported
		}
		name := field.Tag.Get("json")
		if name == "" || name == "-" {
			name = field.Name
		}
		child, err := build(rv.Field(i).Interface(), fmt.Sprintf("%s.%s", path, name))
		if err != nil {
			return nil, err
		}
		out[name] = child
	}
	return out, nil
}
