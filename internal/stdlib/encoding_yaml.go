package stdlib

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/quill-lang/quill/internal/box"
	"github.com/quill-lang/quill/internal/dispatch"
)

// registerYAML wires yaml_encode/yaml_decode, grounded directly on
// funvibe-funxy/internal/evaluator/builtins_yaml.go's yamlEncode/yamlDecode
// pair (gopkg.in/yaml.v3, already the engine-state serializer in
// internal/config/state.go, reused here for the script-visible surface).
func registerYAML(e *dispatch.Engine) error {
	return addAll(e,
		builtin("yaml_encode", 1, func(args []*box.Value) (*box.Value, error) {
			data, err := yaml.Marshal(boxToGo(args[0]))
			if err != nil {
				return nil, fmt.Errorf("yaml_encode: %w", err)
			}
			return box.FromValue(string(data)).AsReturnValue(), nil
		}),
		builtin("yaml_decode", 1, func(args []*box.Value) (*box.Value, error) {
			s, err := asString(args[0])
			if err != nil {
				return nil, fmt.Errorf("yaml_decode: %w", err)
			}
			var data interface{}
			if err := yaml.Unmarshal([]byte(s), &data); err != nil {
				return nil, fmt.Errorf("yaml_decode: %w", err)
			}
			return goToBox(data), nil
		}),
	)
}
