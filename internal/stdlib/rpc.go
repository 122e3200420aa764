package stdlib

import (
	"context"
	"fmt"
	"sync"

	"github.com/jhump/protoreflect/desc"
	"github.com/jhump/protoreflect/desc/protoparse"
	"github.com/jhump/protoreflect/dynamic"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/quill-lang/quill/internal/box"
	"github.com/quill-lang/quill/internal/config"
	"github.com/quill-lang/quill/internal/dispatch"
	"github.com/quill-lang/quill/internal/types"
)

// protoRegistry holds every file descriptor loaded via rpc_load_proto,
// searched by rpc_call to resolve a "package.Service/Method" path. Grounded
// on funvibe-funxy/internal/evaluator/builtins_grpc.go's protoRegistry.
var (
	protoRegistry      = make(map[string]*desc.FileDescriptor)
	protoRegistryMutex sync.RWMutex
)

// rpcConn wraps a *grpc.ClientConn behind a BoxedValue the same way db.go
// wraps *sql.DB.
type rpcConn struct {
	conn *grpc.ClientConn
}

var rpcConnTag = types.Of(&rpcConn{})

func asRPCConn(v *box.Value) (*rpcConn, bool) {
	c, ok := v.Interface().(*rpcConn)
	return c, ok
}

// registerRPC wires github.com/jhump/protoreflect + google.golang.org/grpc
// into rpc_load_proto/rpc_dial/rpc_call, exposing dynamic, reflection-driven
// gRPC invocation without requiring scripts (or this repository) to compile
// any .proto file ahead of time. Grounded on
// funvibe-funxy/internal/evaluator/builtins_grpc.go's dynamic-message
// marshalling, trimmed to the unary client path (no server registration,
// which is out of scope for an embeddable scripting engine's stdlib).
func registerRPC(e *dispatch.Engine) error {
	if err := e.AddType(config.RPCConnTypeName, rpcConnTag); err != nil {
		return err
	}

	return addAll(e,
		builtin("rpc_load_proto", 1, func(args []*box.Value) (*box.Value, error) {
			path, err := asString(args[0])
			if err != nil {
				return nil, fmt.Errorf("rpc_load_proto: %w", err)
			}
			parser := protoparse.Parser{ImportPaths: []string{"."}}
			fds, err := parser.ParseFiles(path)
			if err != nil {
				return nil, fmt.Errorf("rpc_load_proto: %w", err)
			}
			protoRegistryMutex.Lock()
			defer protoRegistryMutex.Unlock()
			for _, fd := range fds {
				protoRegistry[fd.GetName()] = fd
			}
			return box.NewEmpty(), nil
		}),
		builtin("rpc_dial", 1, func(args []*box.Value) (*box.Value, error) {
			target, err := asString(args[0])
			if err != nil {
				return nil, fmt.Errorf("rpc_dial: %w", err)
			}
			conn, err := grpc.NewClient(target, grpc.WithTransportCredentials(insecure.NewCredentials()))
			if err != nil {
				return nil, fmt.Errorf("rpc_dial: %w", err)
			}
			return box.FromValue(&rpcConn{conn: conn}).AsReturnValue(), nil
		}),
		&dispatch.Builtin{
			Name: "rpc_call", NumArgs: 3, ParamTags: []types.Tag{rpcConnTag},
			Fn: func(args []*box.Value) (*box.Value, error) {
				c, ok := asRPCConn(args[0])
				if !ok {
					return nil, fmt.Errorf("rpc_call: receiver is not an RPCConn")
				}
				methodPath, err := asString(args[1])
				if err != nil {
					return nil, fmt.Errorf("rpc_call: %w", err)
				}
				fields, ok := asMap(args[2])
				if !ok {
					return nil, fmt.Errorf("rpc_call: request must be a Map")
				}

				md, err := findMethodDescriptor(methodPath)
				if err != nil {
					return nil, fmt.Errorf("rpc_call: %w", err)
				}

				reqMsg := dynamic.NewMessage(md.GetInputType())
				for name, v := range fields {
					fd := reqMsg.GetMessageDescriptor().FindFieldByName(name)
					if fd == nil {
						continue
					}
					if err := reqMsg.TrySetField(fd, v.Interface()); err != nil {
						return nil, fmt.Errorf("rpc_call: field %s: %w", name, err)
					}
				}

				respMsg := dynamic.NewMessage(md.GetOutputType())
				full := methodPath
				if len(full) == 0 || full[0] != '/' {
					full = "/" + full
				}
				if err := c.conn.Invoke(context.Background(), full, reqMsg, respMsg); err != nil {
					return nil, fmt.Errorf("rpc_call: %w", err)
				}

				result := make(map[string]*box.Value)
				for _, fd := range respMsg.GetMessageDescriptor().GetFields() {
					result[fd.GetName()] = box.FromValue(respMsg.GetField(fd)).AsReturnValue()
				}
				return box.FromValue(result).AsReturnValue(), nil
			},
		},
		&dispatch.Builtin{
			Name: "rpc_close", NumArgs: 1, ParamTags: []types.Tag{rpcConnTag},
			Fn: func(args []*box.Value) (*box.Value, error) {
				c, ok := asRPCConn(args[0])
				if !ok {
					return nil, fmt.Errorf("rpc_close: receiver is not an RPCConn")
				}
				if err := c.conn.Close(); err != nil {
					return nil, fmt.Errorf("rpc_close: %w", err)
				}
				return box.NewEmpty(), nil
			},
		},
	)
}

// findMethodDescriptor resolves "package.Service/Method" against every
// loaded proto file.
func findMethodDescriptor(path string) (*desc.MethodDescriptor, error) {
	slash := -1
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			slash = i
			break
		}
	}
	if slash < 0 {
		return nil, fmt.Errorf("invalid method path %q, expected \"package.Service/Method\"", path)
	}
	serviceName, methodName := path[:slash], path[slash+1:]

	protoRegistryMutex.RLock()
	defer protoRegistryMutex.RUnlock()
	for _, fd := range protoRegistry {
		svc := fd.FindService(serviceName)
		if svc == nil {
			continue
		}
		if m := svc.FindMethodByName(methodName); m != nil {
			return m, nil
		}
	}
	return nil, fmt.Errorf("method %q not found (call rpc_load_proto first)", path)
}
