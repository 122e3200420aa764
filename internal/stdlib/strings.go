package stdlib

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/quill-lang/quill/internal/box"
	"github.com/quill-lang/quill/internal/dispatch"
)

// registerStrings wires github.com/dustin/go-humanize (carried indirectly
// in the teacher's go.mod for one of its own transitive dependencies) into
// a handful of direct to_string-adjacent formatting helpers scripts can
// call without reaching for a full printf-style helper.
func registerStrings(e *dispatch.Engine) error {
	return addAll(e,
		builtin("human_size", 1, func(args []*box.Value) (*box.Value, error) {
			n, err := asInt(args[0])
			if err != nil {
				return nil, err
			}
			return box.FromValue(humanize.Bytes(uint64(n))).AsReturnValue(), nil
		}),
		builtin("human_number", 1, func(args []*box.Value) (*box.Value, error) {
			n, err := asInt(args[0])
			if err != nil {
				return nil, err
			}
			return box.FromValue(humanize.Comma(n)).AsReturnValue(), nil
		}),
		builtin("human_ordinal", 1, func(args []*box.Value) (*box.Value, error) {
			n, err := asInt(args[0])
			if err != nil {
				return nil, err
			}
			return box.FromValue(humanize.Ordinal(int(n))).AsReturnValue(), nil
		}),
		builtin("human_duration", 1, func(args []*box.Value) (*box.Value, error) {
			seconds, err := asInt(args[0])
			if err != nil {
				return nil, err
			}
			past := time.Now().Add(-time.Duration(seconds) * time.Second)
			return box.FromValue(humanize.Time(past)).AsReturnValue(), nil
		}),
		builtin("to_upper", 1, func(args []*box.Value) (*box.Value, error) {
			s, err := asString(args[0])
			if err != nil {
				return nil, fmt.Errorf("to_upper: %w", err)
			}
			return box.FromValue(strings.ToUpper(s)).AsReturnValue(), nil
		}),
	)
}
