package stdlib

import (
	"encoding/json"
	"fmt"

	"github.com/quill-lang/quill/internal/box"
	"github.com/quill-lang/quill/internal/dispatch"
)

// registerJSON wires to_json/from_json, the JSON sibling to yaml_encode/
// yaml_decode named in the original ChaiScript utility/json.hpp collaborator
// and grounded on funvibe-funxy/internal/evaluator/builtins_yaml.go's own
// inferFromJson/objectToGo pattern. encoding/json is standard library here
// because it is the only encoder that round-trips Go's native int64/float64/
// string/bool/slice/map shapes without a third-party dependency standing in
// for exactly that; nothing in the pack brings an alternate JSON library.
func registerJSON(e *dispatch.Engine) error {
	return addAll(e,
		builtin("to_json", 1, func(args []*box.Value) (*box.Value, error) {
			data, err := json.Marshal(boxToGo(args[0]))
			if err != nil {
				return nil, fmt.Errorf("to_json: %w", err)
			}
			return box.FromValue(string(data)).AsReturnValue(), nil
		}),
		builtin("from_json", 1, func(args []*box.Value) (*box.Value, error) {
			s, err := asString(args[0])
			if err != nil {
				return nil, fmt.Errorf("from_json: %w", err)
			}
			var data interface{}
			if err := json.Unmarshal([]byte(s), &data); err != nil {
				return nil, fmt.Errorf("from_json: %w", err)
			}
			return goToBox(data), nil
		}),
	)
}
