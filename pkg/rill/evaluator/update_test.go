package evaluator

import (
	"testing"

	"github.com/rill-lang/rill/pkg/rill/lexer"
	"github.com/rill-lang/rill/pkg/rill/parser"
)

// evalClosure parses and evaluates a function literal in env
func evalClosure(t *testing.T, env *Environment, src string) *Function {
	t.Helper()
	l := lexer.New(src)
	p := parser.New(l)
	program := p.ParseProgram()
	if errs := p.Errors(); len(errs) != 0 {
		t.Fatalf("parser errors for %q: %v", src, errs)
	}

	result := Eval(program, env)
	fn, ok := result.(*Function)
	if !ok {
		t.Fatalf("expected Function, got %T (%v)", result, result)
	}
	return fn
}

func intStream(vals ...int64) *Pipeline {
	elements := make([]Object, len(vals))
	for i, v := range vals {
		elements[i] = &Integer{Value: v}
	}
	return PipelineFromSlice(elements, nil)
}

func rowStream(counts ...int64) *Pipeline {
	elements := make([]Object, len(counts))
	for i, c := range counts {
		elements[i] = row("count", &Integer{Value: c})
	}
	return PipelineFromSlice(elements, nil)
}

func collectInts(t *testing.T, elems []Object) []int64 {
	t.Helper()
	out := make([]int64, len(elems))
	for i, elem := range elems {
		n, ok := elem.(*Integer)
		if !ok {
			t.Fatalf("element %d is %T (%v), not Integer", i, elem, elem)
		}
		out[i] = n.Value
	}
	return out
}

func TestUpdateLiteralField(t *testing.T) {
	env := NewEnvironment()
	path := mustParsePath(t, "count")

	stream, err := UpdateStream(rowStream(1, 2, 3), path, &Integer{Value: 0}, env)
	if err != nil {
		t.Fatalf("unexpected error: %s", err.Message)
	}

	for i, elem := range stream.Collect() {
		rec := elem.(*Record)
		testIntegerObject(t, mustGet(t, rec, "count"), 0)
		_ = i
	}
}

func TestUpdateLiteralDoesNotAliasReplacement(t *testing.T) {
	env := NewEnvironment()
	path := mustParsePath(t, "tags")
	replacement := &Array{Elements: []Object{&String{Value: "new"}}}

	input := PipelineFromSlice([]Object{
		row("tags", &Array{Elements: []Object{}}),
		row("tags", &Array{Elements: []Object{}}),
	}, nil)

	stream, err := UpdateStream(input, path, replacement, env)
	if err != nil {
		t.Fatalf("unexpected error: %s", err.Message)
	}
	out := stream.Collect()

	first, _ := out[0].(*Record).Get("tags")
	second, _ := out[1].(*Record).Get("tags")
	if first == second {
		t.Error("rows share the replacement value")
	}
	first.(*Array).Elements[0] = &String{Value: "mutated"}
	if s := second.(*Array).Elements[0].(*String); s.Value != "new" {
		t.Error("mutating one row's value leaked into another")
	}
}

func TestUpdateLiteralMissingFieldIsInline(t *testing.T) {
	env := NewEnvironment()
	path := mustParsePath(t, "missing")

	input := PipelineFromSlice([]Object{
		row("count", &Integer{Value: 1}),
		row("missing", &Integer{Value: 2}),
	}, nil)

	stream, err := UpdateStream(input, path, &Integer{Value: 0}, env)
	if err != nil {
		t.Fatalf("mode (c) errors must be inline, got fatal: %s", err.Message)
	}

	out := stream.Collect()
	if len(out) != 2 {
		t.Fatalf("stream should continue past the failed element, got %d", len(out))
	}
	errObj, ok := out[0].(*Error)
	if !ok {
		t.Fatalf("element 0 should be an inline error, got %T", out[0])
	}
	if errObj.Code != "PATH-0001" {
		t.Errorf("wrong code: %s", errObj.Code)
	}
	testIntegerObject(t, mustGet(t, out[1].(*Record), "missing"), 0)
}

func TestUpdateClosure(t *testing.T) {
	env := NewEnvironment()
	closure := evalClosure(t, env, "fn(row) { in * 2 }")
	path := mustParsePath(t, "count")

	stream, err := UpdateStream(rowStream(1, 2, 3), path, closure, env)
	if err != nil {
		t.Fatalf("unexpected error: %s", err.Message)
	}

	want := []int64{2, 4, 6}
	for i, elem := range stream.Collect() {
		testIntegerObject(t, mustGet(t, elem.(*Record), "count"), want[i])
	}
}

func TestUpdateClosureSeesWholeElement(t *testing.T) {
	env := NewEnvironment()
	closure := evalClosure(t, env, "fn(row) { row.base + in }")
	path := mustParsePath(t, "count")

	input := PipelineFromSlice([]Object{
		row("base", &Integer{Value: 100}, "count", &Integer{Value: 7}),
	}, nil)

	stream, err := UpdateStream(input, path, closure, env)
	if err != nil {
		t.Fatalf("unexpected error: %s", err.Message)
	}
	out := stream.Collect()
	testIntegerObject(t, mustGet(t, out[0].(*Record), "count"), 107)
}

func TestUpdateClosureErrorIsInline(t *testing.T) {
	env := NewEnvironment()
	closure := evalClosure(t, env, `fn(row) { in + "boom" }`)
	path := mustParsePath(t, "count")

	stream, err := UpdateStream(rowStream(1, 2), path, closure, env)
	if err != nil {
		t.Fatalf("closure errors must be inline, got fatal: %s", err.Message)
	}

	out := stream.Collect()
	if len(out) != 2 {
		t.Fatalf("stream should continue, got %d elements", len(out))
	}
	for i, elem := range out {
		if _, ok := elem.(*Error); !ok {
			t.Errorf("element %d should be an inline error, got %T", i, elem)
		}
	}
}

func TestUpdateClosureEnvIsolation(t *testing.T) {
	env := NewEnvironment()
	env.SetEnvVar("seen", &Integer{Value: 0})

	// Each invocation checks it sees the snapshot value, then mutates it.
	// The mutation must never be visible to the next element.
	closure := evalClosure(t, env, `fn(row) {
		let before = getEnv("seen");
		setEnv("seen", in);
		before
	}`)
	path := mustParsePath(t, "count")

	stream, err := UpdateStream(rowStream(10, 20, 30), path, closure, env)
	if err != nil {
		t.Fatalf("unexpected error: %s", err.Message)
	}

	for i, elem := range stream.Collect() {
		// every element observed the pre-stream snapshot, not a leak
		testIntegerObject(t, mustGet(t, elem.(*Record), "count"), 0)
		_ = i
	}
}

func TestUpdateClosureDoesNotMutateInput(t *testing.T) {
	env := NewEnvironment()
	closure := evalClosure(t, env, "fn(row) { in + 1 }")
	path := mustParsePath(t, "count")

	original := row("count", &Integer{Value: 5})
	stream, err := UpdateStream(PipelineFromSlice([]Object{original}, nil), path, closure, env)
	if err != nil {
		t.Fatalf("unexpected error: %s", err.Message)
	}
	out := stream.Collect()

	testIntegerObject(t, mustGet(t, out[0].(*Record), "count"), 6)
	testIntegerObject(t, mustGet(t, original, "count"), 5)
}

func TestUpdateAtIndexReplaces(t *testing.T) {
	env := NewEnvironment()
	path := mustParsePath(t, "1")

	stream, err := UpdateStream(intStream(10, 20, 30), path, &Integer{Value: 99}, env)
	if err != nil {
		t.Fatalf("unexpected error: %s", err.Message)
	}

	got := collectInts(t, stream.Collect())
	want := []int64{10, 99, 30}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("element %d: got %d, want %d", i, got[i], want[i])
		}
	}
}

func TestUpdateAtIndexAppendsAtEnd(t *testing.T) {
	// Index equal to the stream length extends the stream by one
	env := NewEnvironment()
	path := mustParsePath(t, "2")

	stream, err := UpdateStream(intStream(10, 20), path, &Integer{Value: 99}, env)
	if err != nil {
		t.Fatalf("unexpected error: %s", err.Message)
	}

	got := collectInts(t, stream.Collect())
	if len(got) != 3 || got[2] != 99 {
		t.Errorf("got %v, want [10 20 99]", got)
	}
}

func TestUpdateAtIndexZeroOnEmptyAppends(t *testing.T) {
	env := NewEnvironment()
	path := mustParsePath(t, "0")

	stream, err := UpdateStream(intStream(), path, &Integer{Value: 99}, env)
	if err != nil {
		t.Fatalf("unexpected error: %s", err.Message)
	}

	got := collectInts(t, stream.Collect())
	if len(got) != 1 || got[0] != 99 {
		t.Errorf("got %v, want [99]", got)
	}
}

func TestUpdateAtIndexEmptyStreamIsFatal(t *testing.T) {
	env := NewEnvironment()
	path := mustParsePath(t, "1")

	_, err := UpdateStream(intStream(), path, &Integer{Value: 99}, env)
	if err == nil {
		t.Fatal("expected fatal error")
	}
	if err.Code != "PATH-0004" {
		t.Errorf("wrong code: %s", err.Code)
	}
}

func TestUpdateAtIndexBeyondEndIsFatal(t *testing.T) {
	env := NewEnvironment()
	path := mustParsePath(t, "5")

	_, err := UpdateStream(intStream(10, 20), path, &Integer{Value: 99}, env)
	if err == nil {
		t.Fatal("expected fatal error")
	}
	if err.Code != "PATH-0002" {
		t.Errorf("wrong code: %s", err.Code)
	}
	if err.Data["MaxIndex"] != int64(1) {
		t.Errorf("wrong max index: %v", err.Data["MaxIndex"])
	}
}

func TestUpdateAtIndexWithClosureIsPerElement(t *testing.T) {
	// A closure replacement never splices, even with a leading index:
	// the path resolves against each element instead
	env := NewEnvironment()
	closure := evalClosure(t, env, "fn(row) { in + 1 }")
	path := mustParsePath(t, "0")

	input := PipelineFromSlice([]Object{
		&Array{Elements: []Object{&Integer{Value: 1}}},
		&Array{Elements: []Object{&Integer{Value: 2}}},
	}, nil)

	stream, err := UpdateStream(input, path, closure, env)
	if err != nil {
		t.Fatalf("unexpected error: %s", err.Message)
	}
	out := stream.Collect()
	if len(out) != 2 {
		t.Fatalf("got %d elements", len(out))
	}
	testIntegerObject(t, out[0].(*Array).Elements[0], 2)
	testIntegerObject(t, out[1].(*Array).Elements[0], 3)
}

func TestUpdateEmptyPathIsFatal(t *testing.T) {
	env := NewEnvironment()
	_, err := UpdateStream(intStream(1), CellPath{}, &Integer{Value: 0}, env)
	if err == nil || err.Code != "PATH-0005" {
		t.Errorf("empty path: %v", err)
	}
}

func TestUpdateValueOnRecord(t *testing.T) {
	env := NewEnvironment()
	original := row("count", &Integer{Value: 1})

	out, err := UpdateValue(original, mustParsePath(t, "count"), &Integer{Value: 9}, env)
	if err != nil {
		t.Fatalf("unexpected error: %s", err.Message)
	}
	testIntegerObject(t, mustGet(t, out.(*Record), "count"), 9)
	testIntegerObject(t, mustGet(t, original, "count"), 1)
}

func TestUpdateBuiltin(t *testing.T) {
	evaluated := testEval(t, `update([{n: 1}, {n: 2}], "n", 0)`)
	arr, ok := evaluated.(*Array)
	if !ok {
		t.Fatalf("expected Array, got %T (%v)", evaluated, evaluated)
	}
	testIntegerObject(t, mustGet(t, arr.Elements[0].(*Record), "n"), 0)
	testIntegerObject(t, mustGet(t, arr.Elements[1].(*Record), "n"), 0)

	evaluated = testEval(t, `update([{n: 1}, {n: 2}], "n", fn(row) { in * 10 })`)
	arr = evaluated.(*Array)
	testIntegerObject(t, mustGet(t, arr.Elements[0].(*Record), "n"), 10)
	testIntegerObject(t, mustGet(t, arr.Elements[1].(*Record), "n"), 20)

	evaluated = testEval(t, `update({n: 1}, "n", 5)`)
	rec, ok := evaluated.(*Record)
	if !ok {
		t.Fatalf("expected Record, got %T (%v)", evaluated, evaluated)
	}
	testIntegerObject(t, mustGet(t, rec, "n"), 5)

	evaluated = testEval(t, `update([10, 20, 30], "1", 99)`)
	arr, ok = evaluated.(*Array)
	if !ok {
		t.Fatalf("expected Array, got %T (%v)", evaluated, evaluated)
	}
	got := collectInts(t, arr.Elements)
	if got[1] != 99 {
		t.Errorf("splice through builtin: %v", got)
	}
}
