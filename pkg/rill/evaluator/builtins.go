package evaluator

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/araddon/dateparse"
	"github.com/klauspost/compress/gzip"

	"github.com/rill-lang/rill/pkg/rill/lexer"
	"github.com/rill-lang/rill/pkg/rill/xlsx"
)

var builtins map[string]*Builtin

func getBuiltins() map[string]*Builtin {
	if builtins == nil {
		builtins = map[string]*Builtin{
			"update":   {Fn: builtinUpdate},
			"sortBy":   {Fn: builtinSortBy},
			"fromXlsx": {Fn: builtinFromXlsx},
			"get":      {Fn: builtinGet},
			"len":      {Fn: builtinLen},
			"type":     {Fn: builtinType},
			"first":    {Fn: builtinFirst},
			"last":     {Fn: builtinLast},
			"keys":     {Fn: builtinKeys},
			"values":   {Fn: builtinValues},
			"reverse":  {Fn: builtinReverse},
			"gzip":     {Fn: builtinGzip},
			"gunzip":   {Fn: builtinGunzip},
			"date":     {Fn: builtinDate},
			"readFile": {Fn: builtinReadFile},
			"getEnv":   {Fn: builtinGetEnv},
			"setEnv":   {Fn: builtinSetEnv},
			"print":    {Fn: builtinPrint},
			"sql":      {Fn: builtinSQL},
		}
	}
	return builtins
}

// builtinUpdate rewrites the value at a cell path. For arrays the update
// streams over the elements; for records it applies once to the record
// itself. The replacement may be a literal value or a closure receiving the
// current sub-value.
func builtinUpdate(args []Object, env *Environment) Object {
	if len(args) != 3 {
		return newArityError("update", len(args), 3)
	}

	pathStr, ok := baseObject(args[1]).(*String)
	if !ok {
		return newSecondArgError("update", "a cell path string", args[1])
	}
	path, perr := ParseCellPath(pathStr.Value, lexer.Token{})
	if perr != nil {
		return perr
	}

	switch target := baseObject(args[0]).(type) {
	case *Array:
		stream, err := UpdateStream(PipelineFromSlice(target.Elements, nil), path, args[2], env)
		if err != nil {
			return err
		}
		return &Array{Elements: stream.Collect()}
	case *Record:
		out, err := UpdateValue(target, path, args[2], env)
		if err != nil {
			return err
		}
		return out
	default:
		return newFirstArgError("update", "an array or record", args[0])
	}
}

// builtinSortBy sorts an array. Columns may be a string, an array of
// strings, or omitted for value sorting. An options record may follow with
// boolean entries "ascending", "insensitive", and "natural".
func builtinSortBy(args []Object, env *Environment) Object {
	if len(args) < 1 || len(args) > 3 {
		return newArityRangeError("sortBy", len(args), 1, 3)
	}

	arr, ok := baseObject(args[0]).(*Array)
	if !ok {
		return newFirstArgError("sortBy", "an array", args[0])
	}

	columns := []string{}
	ascending, insensitive, natural := true, false, false

	for _, arg := range args[1:] {
		switch arg := baseObject(arg).(type) {
		case *String:
			columns = append(columns, arg.Value)
		case *Array:
			for _, elem := range arg.Elements {
				col, ok := baseObject(elem).(*String)
				if !ok {
					return newTypeError("sortBy", "column names to be strings", elem)
				}
				columns = append(columns, col.Value)
			}
		case *Record:
			if val, found := arg.Get("ascending"); found {
				ascending = isTruthy(val)
			}
			if val, found := arg.Get("insensitive"); found {
				insensitive = isTruthy(val)
			}
			if val, found := arg.Get("natural"); found {
				natural = isTruthy(val)
			}
		default:
			return newTypeError("sortBy", "column names or an options record", arg)
		}
	}

	sorted, err := SortValue(arr, columns, ascending, insensitive, natural)
	if err != nil {
		return err
	}
	return sorted
}

// builtinFromXlsx decodes spreadsheet bytes into a record mapping sheet
// names to tables. Cells become column0..columnN entries. An optional second
// argument restricts the output to the named sheets.
func builtinFromXlsx(args []Object, env *Environment) Object {
	if len(args) < 1 || len(args) > 2 {
		return newArityRangeError("fromXlsx", len(args), 1, 2)
	}

	bin, ok := baseObject(args[0]).(*Binary)
	if !ok {
		return newFirstArgError("fromXlsx", "binary data", args[0])
	}

	var wanted []string
	if len(args) == 2 {
		switch arg := baseObject(args[1]).(type) {
		case *String:
			wanted = []string{arg.Value}
		case *Array:
			for _, elem := range arg.Elements {
				name, ok := baseObject(elem).(*String)
				if !ok {
					return newSecondArgError("fromXlsx", "sheet names to be strings", elem)
				}
				wanted = append(wanted, name.Value)
			}
		default:
			return newSecondArgError("fromXlsx", "a sheet name or array of sheet names", args[1])
		}
	}

	sheets, err := xlsx.Decode(bin.Value, wanted)
	if err != nil {
		if missing, ok := err.(*xlsx.MissingSheetError); ok {
			return newError("FMT-0003", map[string]any{"Sheet": missing.Name})
		}
		return newError("FMT-0002", map[string]any{"GoError": err.Error()})
	}

	out := NewRecord()
	for _, sheet := range sheets {
		rows := make([]Object, len(sheet.Rows))
		for r, row := range sheet.Rows {
			rec := NewRecord()
			for c, cell := range row {
				rec.Set("column"+strconv.Itoa(c), cellToObject(cell))
			}
			rows[r] = rec
		}
		out.Set(sheet.Name, &Array{Elements: rows})
	}
	return out
}

func cellToObject(cell xlsx.Cell) Object {
	switch cell.Kind {
	case xlsx.CellString:
		return &String{Value: cell.Str}
	case xlsx.CellInt:
		return &Integer{Value: cell.Int}
	case xlsx.CellFloat:
		return &Float{Value: cell.Float}
	case xlsx.CellBool:
		return nativeBoolToBoolean(cell.Bool)
	default:
		return NULL
	}
}

// builtinGet resolves a cell path against a value and returns the sub-value
func builtinGet(args []Object, env *Environment) Object {
	if len(args) != 2 {
		return newArityError("get", len(args), 2)
	}

	pathStr, ok := baseObject(args[1]).(*String)
	if !ok {
		return newSecondArgError("get", "a cell path string", args[1])
	}
	path, perr := ParseCellPath(pathStr.Value, lexer.Token{})
	if perr != nil {
		return perr
	}

	val, err := FollowCellPath(args[0], path.Members)
	if err != nil {
		return err
	}
	return val
}

func builtinLen(args []Object, env *Environment) Object {
	if len(args) != 1 {
		return newArityError("len", len(args), 1)
	}

	switch arg := baseObject(args[0]).(type) {
	case *String:
		return &Integer{Value: int64(len(arg.Value))}
	case *Array:
		return &Integer{Value: int64(len(arg.Elements))}
	case *Record:
		return &Integer{Value: int64(arg.Len())}
	case *Binary:
		return &Integer{Value: int64(len(arg.Value))}
	default:
		return newFirstArgError("len", "a string, array, record, or binary", args[0])
	}
}

func builtinType(args []Object, env *Environment) Object {
	if len(args) != 1 {
		return newArityError("type", len(args), 1)
	}
	switch baseObject(args[0]).(type) {
	case *Null:
		return &String{Value: "null"}
	case *Boolean:
		return &String{Value: "boolean"}
	case *Integer:
		return &String{Value: "integer"}
	case *Float:
		return &String{Value: "float"}
	case *String:
		return &String{Value: "string"}
	case *Binary:
		return &String{Value: "binary"}
	case *Array:
		return &String{Value: "array"}
	case *Record:
		return &String{Value: "record"}
	case *Function, *Builtin:
		return &String{Value: "function"}
	default:
		return &String{Value: "unknown"}
	}
}

func builtinFirst(args []Object, env *Environment) Object {
	if len(args) != 1 {
		return newArityError("first", len(args), 1)
	}
	arr, ok := baseObject(args[0]).(*Array)
	if !ok {
		return newFirstArgError("first", "an array", args[0])
	}
	if len(arr.Elements) == 0 {
		return NULL
	}
	return arr.Elements[0]
}

func builtinLast(args []Object, env *Environment) Object {
	if len(args) != 1 {
		return newArityError("last", len(args), 1)
	}
	arr, ok := baseObject(args[0]).(*Array)
	if !ok {
		return newFirstArgError("last", "an array", args[0])
	}
	if len(arr.Elements) == 0 {
		return NULL
	}
	return arr.Elements[len(arr.Elements)-1]
}

func builtinKeys(args []Object, env *Environment) Object {
	if len(args) != 1 {
		return newArityError("keys", len(args), 1)
	}
	rec, ok := baseObject(args[0]).(*Record)
	if !ok {
		return newFirstArgError("keys", "a record", args[0])
	}
	keys := make([]Object, rec.Len())
	for i, key := range rec.Keys() {
		keys[i] = &String{Value: key}
	}
	return &Array{Elements: keys}
}

func builtinValues(args []Object, env *Environment) Object {
	if len(args) != 1 {
		return newArityError("values", len(args), 1)
	}
	rec, ok := baseObject(args[0]).(*Record)
	if !ok {
		return newFirstArgError("values", "a record", args[0])
	}
	vals := make([]Object, 0, rec.Len())
	for _, key := range rec.Keys() {
		val, _ := rec.Get(key)
		vals = append(vals, val)
	}
	return &Array{Elements: vals}
}

func builtinReverse(args []Object, env *Environment) Object {
	if len(args) != 1 {
		return newArityError("reverse", len(args), 1)
	}
	arr, ok := baseObject(args[0]).(*Array)
	if !ok {
		return newFirstArgError("reverse", "an array", args[0])
	}
	out := make([]Object, len(arr.Elements))
	for i, elem := range arr.Elements {
		out[len(arr.Elements)-1-i] = elem
	}
	return &Array{Elements: out}
}

// builtinGzip compresses binary or string data
func builtinGzip(args []Object, env *Environment) Object {
	if len(args) != 1 {
		return newArityError("gzip", len(args), 1)
	}

	var data []byte
	switch arg := baseObject(args[0]).(type) {
	case *Binary:
		data = arg.Value
	case *String:
		data = []byte(arg.Value)
	default:
		return newFirstArgError("gzip", "binary or string data", args[0])
	}

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		return newError("FMT-0001", map[string]any{"Format": "gzip data", "GoError": err.Error()})
	}
	if err := zw.Close(); err != nil {
		return newError("FMT-0001", map[string]any{"Format": "gzip data", "GoError": err.Error()})
	}
	return &Binary{Value: buf.Bytes()}
}

// builtinGunzip decompresses gzip data
func builtinGunzip(args []Object, env *Environment) Object {
	if len(args) != 1 {
		return newArityError("gunzip", len(args), 1)
	}

	bin, ok := baseObject(args[0]).(*Binary)
	if !ok {
		return newFirstArgError("gunzip", "binary data", args[0])
	}

	zr, err := gzip.NewReader(bytes.NewReader(bin.Value))
	if err != nil {
		return newError("FMT-0001", map[string]any{"Format": "gzip data", "GoError": err.Error()})
	}
	defer zr.Close()

	out, err := io.ReadAll(zr)
	if err != nil {
		return newError("FMT-0001", map[string]any{"Format": "gzip data", "GoError": err.Error()})
	}
	return &Binary{Value: out}
}

// builtinDate parses a date string in any common format into a datetime
// record with unix seconds and RFC 3339 text.
func builtinDate(args []Object, env *Environment) Object {
	if len(args) != 1 {
		return newArityError("date", len(args), 1)
	}

	str, ok := baseObject(args[0]).(*String)
	if !ok {
		return newFirstArgError("date", "a string", args[0])
	}

	t, err := dateparse.ParseAny(str.Value)
	if err != nil {
		return newError("FMT-0004", map[string]any{"Value": str.Value, "GoError": err.Error()})
	}

	rec := NewRecord()
	rec.Set("__type", &String{Value: "datetime"})
	rec.Set("unix", &Integer{Value: t.Unix()})
	rec.Set("text", &String{Value: t.Format(time.RFC3339)})
	return rec
}

// builtinReadFile reads a file's raw bytes
func builtinReadFile(args []Object, env *Environment) Object {
	if len(args) != 1 {
		return newArityError("readFile", len(args), 1)
	}

	path, ok := baseObject(args[0]).(*String)
	if !ok {
		return newFirstArgError("readFile", "a file path string", args[0])
	}

	data, err := os.ReadFile(path.Value)
	if err != nil {
		return newError("IO-0001", map[string]any{"Path": path.Value, "GoError": err.Error()})
	}
	return &Binary{Value: data}
}

// builtinGetEnv reads an interpreter environment variable
func builtinGetEnv(args []Object, env *Environment) Object {
	if len(args) != 1 {
		return newArityError("getEnv", len(args), 1)
	}
	name, ok := baseObject(args[0]).(*String)
	if !ok {
		return newFirstArgError("getEnv", "a string", args[0])
	}
	if val, found := env.GetEnvVar(name.Value); found {
		return val
	}
	return NULL
}

// builtinSetEnv sets an interpreter environment variable
func builtinSetEnv(args []Object, env *Environment) Object {
	if len(args) != 2 {
		return newArityError("setEnv", len(args), 2)
	}
	name, ok := baseObject(args[0]).(*String)
	if !ok {
		return newFirstArgError("setEnv", "a string", args[0])
	}
	env.SetEnvVar(name.Value, args[1])
	return args[1]
}

func builtinPrint(args []Object, env *Environment) Object {
	parts := make([]any, len(args))
	for i, arg := range args {
		parts[i] = arg.Inspect()
	}
	fmt.Println(parts...)
	return NULL
}
