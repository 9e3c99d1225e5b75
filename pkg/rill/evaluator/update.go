package evaluator

import (
	"github.com/rill-lang/rill/pkg/rill/lexer"
)

// UpdateStream rewrites the value at path in each element of the input
// stream. The processing mode is chosen once, before any element is pulled:
//
//   - closure replacement: the closure runs per element with the resolved
//     sub-value piped in; a failure for one element becomes an Error value in
//     that element's place and the stream continues.
//   - literal replacement with a leading index member: the stream is spliced
//     at that position. The prefix is buffered eagerly, so index errors here
//     are fatal rather than inline.
//   - literal replacement otherwise: each element's leaf is rewritten lazily,
//     with per-element failures inlined as Error values.
//
// The returned pipeline shares the input's interrupt flag.
func UpdateStream(input *Pipeline, path CellPath, replacement Object, env *Environment) (*Pipeline, *Error) {
	if len(path.Members) == 0 {
		return nil, newPathError("PATH-0005", lexer.Token{}, nil)
	}

	if closure, ok := replacement.(*Function); ok {
		return updateWithClosure(input, path, closure, env), nil
	}

	if idx, ok := path.Members[0].(IndexMember); ok {
		return updateAtIndex(input, idx, replacement)
	}

	return input.Map(func(elem Object) Object {
		elem = copyObject(elem)
		if err := UpdateCellPath(elem, path.Members, copyObject(replacement)); err != nil {
			return err
		}
		return elem
	}), nil
}

// updateWithClosure maps the closure over the stream. Environment variables
// are snapshotted once and restored before each element, so changes a
// closure invocation makes never leak into later elements.
func updateWithClosure(input *Pipeline, path CellPath, closure *Function, env *Environment) *Pipeline {
	snapshot := env.SnapshotEnvVars()

	return input.Map(func(elem Object) Object {
		env.RestoreEnvVars(snapshot)

		elem = copyObject(elem)

		resolved, err := FollowCellPath(elem, path.Members)
		if err != nil {
			return err
		}

		result := applyFunctionWithInput(closure, resolved, elem)
		if isError(result) {
			return result
		}

		if err := UpdateCellPath(elem, path.Members, result); err != nil {
			return err
		}
		return elem
	})
}

// updateAtIndex splices a literal replacement into stream position n. The
// first n elements are buffered; running out before reaching n is fatal. The
// element at n is consumed and dropped. When the stream holds exactly n
// elements the replacement is appended instead.
func updateAtIndex(input *Pipeline, idx IndexMember, replacement Object) (*Pipeline, *Error) {
	n := idx.Index

	prefix := make([]Object, 0, n)
	for i := int64(0); i < n; i++ {
		elem, ok := input.Next()
		if !ok {
			if i == 0 {
				return nil, newPathError("PATH-0004", idx.Token, nil)
			}
			return nil, newPathError("PATH-0002", idx.Token, map[string]any{
				"Index":    n,
				"MaxIndex": i - 1,
			})
		}
		prefix = append(prefix, elem)
	}

	// Drop the element being replaced. Exhaustion here is fine: the
	// replacement extends the stream by one.
	input.Next()

	pos := 0
	return NewPipeline(func() (Object, bool) {
		if pos < len(prefix) {
			elem := prefix[pos]
			pos++
			return elem, true
		}
		if pos == len(prefix) {
			pos++
			return replacement, true
		}
		return input.Next()
	}, input.interrupt), nil
}

// UpdateValue applies an update to a single record or array value rather
// than a stream. Closure replacements run with the value itself as the
// pipeline element. Errors here are fatal.
func UpdateValue(val Object, path CellPath, replacement Object, env *Environment) (Object, *Error) {
	if len(path.Members) == 0 {
		return nil, newPathError("PATH-0005", lexer.Token{}, nil)
	}

	out := copyObject(val)

	if closure, ok := replacement.(*Function); ok {
		snapshot := env.SnapshotEnvVars()
		defer env.RestoreEnvVars(snapshot)

		resolved, err := FollowCellPath(out, path.Members)
		if err != nil {
			return nil, err
		}

		result := applyFunctionWithInput(closure, resolved, out)
		if errObj, ok := result.(*Error); ok {
			return nil, errObj
		}
		replacement = result
	}

	if err := UpdateCellPath(out, path.Members, replacement); err != nil {
		return nil, err
	}
	return out, nil
}
