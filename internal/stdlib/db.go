package stdlib

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/quill-lang/quill/internal/box"
	"github.com/quill-lang/quill/internal/config"
	"github.com/quill-lang/quill/internal/dispatch"
	"github.com/quill-lang/quill/internal/types"
)

// db wraps a *sql.DB behind a BoxedValue, the same way future.go wraps a
// goroutine result: a plain Go struct, tagged, passed around as an opaque
// receiver. Grounded on funvibe-funxy/internal/evaluator/builtins_grpc.go's
// GrpcConnObject, which wraps *grpc.ClientConn the identical way for a
// different host resource.
type db struct {
	handle *sql.DB
}

var dbTag = types.Of(&db{})

func asDB(v *box.Value) (*db, bool) {
	d, ok := v.Interface().(*db)
	return d, ok
}

// registerDB wires modernc.org/sqlite (+ database/sql) into db_open/
// db_exec/db_query, letting scripts persist and query state against a local
// SQLite file, per SPEC_FULL.md's domain-stack table.
func registerDB(e *dispatch.Engine) error {
	if err := e.AddType(config.DBTypeName, dbTag); err != nil {
		return err
	}

	return addAll(e,
		builtin("db_open", 1, func(args []*box.Value) (*box.Value, error) {
			path, err := asString(args[0])
			if err != nil {
				return nil, fmt.Errorf("db_open: %w", err)
			}
			handle, err := sql.Open("sqlite", path)
			if err != nil {
				return nil, fmt.Errorf("db_open: %w", err)
			}
			if err := handle.Ping(); err != nil {
				return nil, fmt.Errorf("db_open: %w", err)
			}
			return box.FromValue(&db{handle: handle}).AsReturnValue(), nil
		}),
		&dispatch.Builtin{
			Name: "db_exec", NumArgs: -1, ParamTags: []types.Tag{dbTag},
			Fn: func(args []*box.Value) (*box.Value, error) {
				d, ok := asDB(args[0])
				if !ok {
					return nil, fmt.Errorf("db_exec: receiver is not a DB")
				}
				stmt, err := asString(args[1])
				if err != nil {
					return nil, fmt.Errorf("db_exec: %w", err)
				}
				res, err := d.handle.Exec(stmt, dbArgs(args[2:])...)
				if err != nil {
					return nil, fmt.Errorf("db_exec: %w", err)
				}
				n, _ := res.RowsAffected()
				return box.FromValue(n).AsReturnValue(), nil
			},
		},
		&dispatch.Builtin{
			Name: "db_query", NumArgs: -1, ParamTags: []types.Tag{dbTag},
			Fn: func(args []*box.Value) (*box.Value, error) {
				d, ok := asDB(args[0])
				if !ok {
					return nil, fmt.Errorf("db_query: receiver is not a DB")
				}
				stmt, err := asString(args[1])
				if err != nil {
					return nil, fmt.Errorf("db_query: %w", err)
				}
				rows, err := d.handle.Query(stmt, dbArgs(args[2:])...)
				if err != nil {
					return nil, fmt.Errorf("db_query: %w", err)
				}
				defer rows.Close()

				cols, err := rows.Columns()
				if err != nil {
					return nil, fmt.Errorf("db_query: %w", err)
				}

				result := make([]*box.Value, 0)
				for rows.Next() {
					scanTargets := make([]interface{}, len(cols))
					scanBuf := make([]interface{}, len(cols))
					for i := range scanTargets {
						scanTargets[i] = &scanBuf[i]
					}
					if err := rows.Scan(scanTargets...); err != nil {
						return nil, fmt.Errorf("db_query: %w", err)
					}
					row := make(map[string]*box.Value, len(cols))
					for i, col := range cols {
						row[col] = box.FromValue(scanBuf[i]).AsReturnValue()
					}
					result = append(result, box.FromValue(row).AsReturnValue())
				}
				if err := rows.Err(); err != nil {
					return nil, fmt.Errorf("db_query: %w", err)
				}
				return box.FromValue(result).AsReturnValue(), nil
			},
		},
		&dispatch.Builtin{
			Name: "db_close", NumArgs: 1, ParamTags: []types.Tag{dbTag},
			Fn: func(args []*box.Value) (*box.Value, error) {
				d, ok := asDB(args[0])
				if !ok {
					return nil, fmt.Errorf("db_close: receiver is not a DB")
				}
				if err := d.handle.Close(); err != nil {
					return nil, fmt.Errorf("db_close: %w", err)
				}
				return box.NewEmpty(), nil
			},
		},
	)
}

// dbArgs unboxes script arguments into the interface{} slice database/sql
// expects for query placeholders.
func dbArgs(boxed []*box.Value) []interface{} {
	out := make([]interface{}, len(boxed))
	for i, v := range boxed {
		out[i] = v.Interface()
	}
	return out
}
