// Package config holds version, file-extension, and reserved-word constants
// shared across the lexer, parser, dispatch engine, and CLI.
package config

// Version is the current Quill engine version.
var Version = "0.1.0"

const SourceFileExt = ".ql"

// SourceFileExtensions are all recognized script file extensions.
var SourceFileExtensions = []string{".ql", ".quill"}

// HasSourceExt returns true if path ends with any recognized script extension.
func HasSourceExt(path string) bool {
	for _, ext := range SourceFileExtensions {
		if len(path) >= len(ext) && path[len(path)-len(ext):] == ext {
			return true
		}
	}
	return false
}

// TrimSourceExt removes a recognized script extension from name, if present.
func TrimSourceExt(name string) string {
	for _, ext := range SourceFileExtensions {
		if len(name) >= len(ext) && name[len(name)-len(ext):] == ext {
			return name[:len(name)-len(ext)]
		}
	}
	return name
}

// ReservedWords is the set of identifiers a script may not bind, per spec §4.5.
var ReservedWords = map[string]bool{
	"def": true, "fun": true, "while": true, "for": true,
	"if": true, "else": true, "&&": true, "||": true, ",": true,
	"auto": true, "return": true, "break": true, "continue": true,
	"true": true, "false": true, "class": true, "attr": true,
	"var": true, "global": true, "GLOBAL": true, "_": true,
	"__LINE__": true, "__FILE__": true, "__FUNC__": true, "__CLASS__": true,
}

// IsReservedWord reports whether name is reserved and also rejects any name
// containing the "::" namespace separator, per spec §4.5.
func IsReservedWord(name string) bool {
	if ReservedWords[name] {
		return true
	}
	for i := 0; i+1 < len(name); i++ {
		if name[i] == ':' && name[i+1] == ':' {
			return true
		}
	}
	return false
}

// Built-in function names the standard library is expected to register (§6).
const (
	PrintFuncName        = "print"
	PrintStringFuncName  = "print_string"
	PrintlnStringFunc    = "println_string"
	ToStringFuncName     = "to_string"
	CloneFuncName        = "clone"
	EvalFuncName         = "eval"
	EvalFileFuncName     = "eval_file"
	UseFuncName          = "use"
	BindFuncName         = "bind"
	SizeFuncName         = "size"
	EmptyFuncName        = "empty"
	GenerateRangeFunc    = "generate_range"
	RangeFuncName        = "range"
	GetTypeNameFuncName  = "get_type_name"
	GetAttrsFuncName     = "get_attrs"
	GetAttrFuncName      = "get_attr"
	MethodMissingName    = "method_missing"
)

// InstanceIDAttrName is the reserved attribute slot holding a dynamic-object
// instance's identity (internal/classobj), hidden from user-visible get_attrs.
const InstanceIDAttrName = "__instance_id__"

// Built-in type names.
const (
	VectorTypeName    = "Vector"
	StringTypeName    = "String"
	MapTypeName       = "Map"
	PairTypeName      = "Pair"
	FutureTypeName    = "Future"
	ExceptionTypeName = "exception"
	DBTypeName        = "DB"
	RPCConnTypeName   = "RPCConn"
)
