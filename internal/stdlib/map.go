package stdlib

import (
	"fmt"

	"github.com/quill-lang/quill/internal/box"
	"github.com/quill-lang/quill/internal/config"
	"github.com/quill-lang/quill/internal/dispatch"
	"github.com/quill-lang/quill/internal/types"
)

var mapTag = types.Of(map[string]*box.Value{})

func asMap(v *box.Value) (map[string]*box.Value, bool) {
	m, ok := v.Interface().(map[string]*box.Value)
	return m, ok
}

// registerMap installs the Map container (spec §6): string-keyed lookup
// that auto-vivifies a missing slot (mirroring box.Value.GetAttr), plus
// insert/erase/count/keys.
func registerMap(e *dispatch.Engine) error {
	if err := e.AddType(config.MapTypeName, mapTag); err != nil {
		return err
	}
	return addAll(e,
		&dispatch.Builtin{Name: "[]", NumArgs: 2, ParamTags: []types.Tag{mapTag}, Fn: func(args []*box.Value) (*box.Value, error) {
			m, _ := asMap(args[0])
			key, err := asString(args[1])
			if err != nil {
				return nil, err
			}
			if v, ok := m[key]; ok {
				return v, nil
			}
			ptr, ok := args[0].GetPtrMut()
			if !ok {
				return box.NewEmpty(), nil
			}
			mm := ptr.(*map[string]*box.Value)
			if *mm == nil {
				*mm = make(map[string]*box.Value)
			}
			slot := box.NewEmpty()
			(*mm)[key] = slot
			return slot, nil
		}},
		&dispatch.Builtin{Name: "insert", NumArgs: 3, ParamTags: []types.Tag{mapTag}, Fn: func(args []*box.Value) (*box.Value, error) {
			key, err := asString(args[1])
			if err != nil {
				return nil, err
			}
			ptr, ok := args[0].GetPtrMut()
			if !ok {
				return nil, fmt.Errorf("insert: map is const")
			}
			mm := ptr.(*map[string]*box.Value)
			if *mm == nil {
				*mm = make(map[string]*box.Value)
			}
			(*mm)[key] = args[2].Clone()
			return args[0], nil
		}},
		&dispatch.Builtin{Name: "erase", NumArgs: 2, ParamTags: []types.Tag{mapTag}, Fn: func(args []*box.Value) (*box.Value, error) {
			key, err := asString(args[1])
			if err != nil {
				return nil, err
			}
			ptr, ok := args[0].GetPtrMut()
			if !ok {
				return nil, fmt.Errorf("erase: map is const")
			}
			mm := ptr.(*map[string]*box.Value)
			_, existed := (*mm)[key]
			delete(*mm, key)
			return box.FromValue(existed).AsReturnValue(), nil
		}},
		&dispatch.Builtin{Name: "count", NumArgs: 2, ParamTags: []types.Tag{mapTag}, Fn: func(args []*box.Value) (*box.Value, error) {
			m, _ := asMap(args[0])
			key, err := asString(args[1])
			if err != nil {
				return nil, err
			}
			_, ok := m[key]
			n := 0
			if ok {
				n = 1
			}
			return box.FromValue(int64(n)).AsReturnValue(), nil
		}},
		&dispatch.Builtin{Name: "keys", NumArgs: 1, ParamTags: []types.Tag{mapTag}, Fn: func(args []*box.Value) (*box.Value, error) {
			m, _ := asMap(args[0])
			out := make([]*box.Value, 0, len(m))
			for k := range m {
				out = append(out, box.FromValue(k))
			}
			return box.FromValue(out).AsReturnValue(), nil
		}},
	)
}

func asString(v *box.Value) (string, error) {
	s, ok := v.Interface().(string)
	if !ok {
		return "", fmt.Errorf("expected a string, got %s", v.GetType().Name())
	}
	return s, nil
}
