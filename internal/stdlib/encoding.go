package stdlib

import (
	"fmt"

	"github.com/quill-lang/quill/internal/box"
)

// boxToGo converts a BoxedValue tree into plain Go values suitable for
// json.Marshal/yaml.Marshal: Vector becomes []interface{}, Map becomes
// map[string]interface{}, everything else passes through as its own
// Interface() value. Mirrors funvibe-funxy/internal/evaluator's
// objectToGo used ahead of its own yamlEncode.
func boxToGo(v *box.Value) interface{} {
	switch c := v.Interface().(type) {
	case []*box.Value:
		out := make([]interface{}, len(c))
		for i, elem := range c {
			out[i] = boxToGo(elem)
		}
		return out
	case map[string]*box.Value:
		out := make(map[string]interface{}, len(c))
		for k, elem := range c {
			out[k] = boxToGo(elem)
		}
		return out
	default:
		return c
	}
}

// goToBox is the inverse of boxToGo, run over whatever json.Unmarshal or
// yaml.Unmarshal produced: []interface{} becomes a Vector, map[string]
// interface{} (json) or map[interface{}]interface{} (yaml) becomes a Map,
// scalars are boxed directly. Mirrors funvibe-funxy/internal/evaluator's
// inferFromJson/inferFromYaml pair, collapsed into one function since
// Quill's Map keys are always coerced to strings.
func goToBox(v interface{}) *box.Value {
	switch c := v.(type) {
	case []interface{}:
		out := make([]*box.Value, len(c))
		for i, elem := range c {
			out[i] = goToBox(elem)
		}
		return box.FromValue(out).AsReturnValue()
	case map[string]interface{}:
		out := make(map[string]*box.Value, len(c))
		for k, elem := range c {
			out[k] = goToBox(elem)
		}
		return box.FromValue(out).AsReturnValue()
	case map[interface{}]interface{}:
		out := make(map[string]*box.Value, len(c))
		for k, elem := range c {
			out[stringifyKey(k)] = goToBox(elem)
		}
		return box.FromValue(out).AsReturnValue()
	case nil:
		return box.NewEmpty()
	default:
		return box.FromValue(c).AsReturnValue()
	}
}

func stringifyKey(k interface{}) string {
	if s, ok := k.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", k)
}
