package runtime

import (
	"errors"
	"strings"
	"testing"

	"github.com/alexchoi0/blueprint-engine/internal/config"
	"github.com/alexchoi0/blueprint-engine/internal/value"
)

func testRuntime(t *testing.T) *Runtime {
	t.Helper()
	cfg := config.Default()
	r := NewRuntime(cfg)
	t.Cleanup(r.Close)
	return r
}

func runSource(t *testing.T, src string) value.Value {
	t.Helper()
	r := testRuntime(t)
	v, err := r.RunSource(src, "test.bp")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return v
}

// runFail executes src expecting a language error and returns it.
func runFail(t *testing.T, src string) *value.Error {
	t.Helper()
	r := testRuntime(t)
	_, err := r.RunSource(src, "test.bp")
	if err == nil {
		t.Fatalf("expected an error, got none")
	}
	var errv *value.Error
	if !errors.As(err, &errv) {
		t.Fatalf("expected a language error, got %T: %v", err, err)
	}
	return errv
}

func TestExpressions(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"1 + 2 * 3", "7"},
		{"(1 + 2) * 3", "9"},
		{"7 // 2", "3"},
		{"-7 // 2", "-4"},
		{"7 % 3", "1"},
		{"-7 % 3", "2"},
		{"1 / 2", "0.5"},
		{"1 + 1.0", "2.0"},
		{"2.5 * 2", "5.0"},
		{"1 + 1.0 == 2.0", "True"},
		{`"a" + "b"`, `"ab"`},
		{`"ab" * 3`, `"ababab"`},
		{"[1] + [2, 3]", "[1, 2, 3]"},
		{"[0] * 3", "[0, 0, 0]"},
		{"(1, 2) + (3,)", "(1, 2, 3)"},
		{"not True", "False"},
		{"not 0", "True"},
		{"1 < 2 and 2 < 3", "True"},
		{"1 if False else 2", "2"},
		{`"b" in "abc"`, "True"},
		{"4 not in [1, 2, 3]", "True"},
		{`"k" in {"k": 1}`, "True"},
		{"2 in {1, 2, 3}", "True"},
		{"[1, 2] < [1, 3]", "True"},
		{`"hello"[1]`, `"e"`},
		{`"hello"[-1]`, `"o"`},
		{`"hello"[1:4]`, `"ell"`},
		{"[1, 2, 3, 4][::2]", "[1, 3]"},
		{"[1, 2, 3][::-1]", "[3, 2, 1]"},
		{`{"a": 1}["a"]`, "1"},
		{`f"two is {1 + 1}"`, `"two is 2"`},
		{`"%s=%d" % ("x", 7)`, `"x=7"`},
	}

	for _, tt := range tests {
		got := runSource(t, tt.input+"\n")
		if got.Inspect() != tt.want {
			t.Errorf("%q: got %s, want %s", tt.input, got.Inspect(), tt.want)
		}
	}
}

func TestShortCircuitReturnsDecidingOperand(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{`0 or "fallback"`, `"fallback"`},
		{`"first" or fail("never evaluated")`, `"first"`},
		{`0 and fail("never evaluated")`, "0"},
		{`1 and "second"`, `"second"`},
	}
	for _, tt := range tests {
		got := runSource(t, tt.input+"\n")
		if got.Inspect() != tt.want {
			t.Errorf("%q: got %s, want %s", tt.input, got.Inspect(), tt.want)
		}
	}
}

func TestErrorTaxonomy(t *testing.T) {
	tests := []struct {
		input string
		want  value.ErrKind
	}{
		{"missing", value.NameError},
		{"missing += 1", value.NameError},
		{`1 + "a"`, value.TypeError},
		{`1 < "a"`, value.TypeError},
		{"len(1)", value.TypeError},
		{"1 // 0", value.ValueError},
		{"1 % 0", value.ValueError},
		{"[1, 2][5]", value.ValueError},
		{"len()", value.ArgumentError},
		{`fail("boom")`, value.UserFail},
		{`assert(False, "nope")`, value.UserFail},
		{`{[1]: "a"}`, value.TypeError},
		{`{(1, [2]): "a"}`, value.TypeError},
		{`d = {}` + "\n" + `d[(1, [2])] = "a"`, value.TypeError},
		{`{1, (2, {})}`, value.TypeError},
	}

	for _, tt := range tests {
		errv := runFail(t, tt.input+"\n")
		if errv.ErrKind != tt.want {
			t.Errorf("%q: kind = %s, want %s (message: %s)", tt.input, errv.ErrKind, tt.want, errv.Message)
		}
	}
}

func TestAssignmentRebindsNearestBinding(t *testing.T) {
	src := `count = 0
def bump():
    count = count + 1
bump()
bump()
bump()
count
`
	got := runSource(t, src)
	if got.Inspect() != "3" {
		t.Fatalf("got %s, want 3", got.Inspect())
	}
}

func TestFirstAssignmentDefinesLocally(t *testing.T) {
	src := `def f():
    local = 10
    return local
f()
local
`
	errv := runFail(t, src)
	if errv.ErrKind != value.NameError {
		t.Fatalf("expected NameError for function-local name, got %s", errv.ErrKind)
	}
}

func TestDefaultsEvaluatedOnceAtDefinition(t *testing.T) {
	src := `def f(acc=[]):
    acc.append(1)
    return len(acc)
f()
f()
f()
`
	got := runSource(t, src)
	if got.Inspect() != "3" {
		t.Fatalf("shared default should accumulate: got %s, want 3", got.Inspect())
	}
}

func TestFunctions(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{`def fib(n):
    if n < 2:
        return n
    return fib(n - 1) + fib(n - 2)
fib(10)
`, "55"},
		{`def greet(name, punct="!"):
    return "hi " + name + punct
greet("ana")
`, `"hi ana!"`},
		{`def greet(name, punct="!"):
    return "hi " + name + punct
greet("ana", punct="?")
`, `"hi ana?"`},
		{`def spread(first, *rest):
    return [first, rest]
spread(1, 2, 3)
`, "[1, (2, 3)]"},
		{`double = lambda x: x * 2
double(21)
`, "42"},
		{`def make_adder(n):
    return lambda x: x + n
add5 = make_adder(5)
add5(3)
`, "8"},
		{`def nothing():
    pass
nothing()
`, "None"},
	}

	for _, tt := range tests {
		got := runSource(t, tt.input)
		if got.Inspect() != tt.want {
			t.Errorf("got %s, want %s for:\n%s", got.Inspect(), tt.want, tt.input)
		}
	}
}

func TestArgumentBindingErrors(t *testing.T) {
	tests := []struct {
		input   string
		wantMsg string
	}{
		{`def f(a):
    return a
f()
`, "missing"},
		{`def f(a):
    return a
f(1, 2)
`, "takes"},
		{`def f(a):
    return a
f(1, a=2)
`, "multiple values"},
		{`def f(a):
    return a
f(1, b=2)
`, "unexpected keyword"},
	}

	for _, tt := range tests {
		errv := runFail(t, tt.input)
		if errv.ErrKind != value.ArgumentError {
			t.Errorf("kind = %s, want ArgumentError for:\n%s", errv.ErrKind, tt.input)
		}
		if !strings.Contains(errv.Message, tt.wantMsg) {
			t.Errorf("message %q missing %q", errv.Message, tt.wantMsg)
		}
	}
}

func TestControlFlow(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{`total = 0
for x in [1, 2, 3, 4]:
    if x == 3:
        continue
    total += x
total
`, "7"},
		{`n = 0
while True:
    n += 1
    if n == 5:
        break
n
`, "5"},
		{`parts = []
for k, v in {"a": 1, "b": 2}.items():
    parts.append(k + str(v))
parts
`, `["a1", "b2"]`},
		{`out = []
for ch in "abc":
    out.append(ch)
out
`, `["a", "b", "c"]`},
		{`grade = "pass" if 70 >= 60 else "fail"
grade
`, `"pass"`},
	}

	for _, tt := range tests {
		got := runSource(t, tt.input)
		if got.Inspect() != tt.want {
			t.Errorf("got %s, want %s for:\n%s", got.Inspect(), tt.want, tt.input)
		}
	}
}

func TestComprehensions(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"[x * x for x in range(5)]", "[0, 1, 4, 9, 16]"},
		{"[x for x in range(10) if x % 3 == 0]", "[0, 3, 6, 9]"},
		{"[x + y for x in [10, 20] for y in [1, 2]]", "[11, 12, 21, 22]"},
		{`{k: len(k) for k in ["a", "bb"]}`, `{"a": 1, "bb": 2}`},
		{"len({x % 3 for x in range(9)})", "3"},
	}

	for _, tt := range tests {
		got := runSource(t, tt.input+"\n")
		if got.Inspect() != tt.want {
			t.Errorf("%q: got %s, want %s", tt.input, got.Inspect(), tt.want)
		}
	}
}

func TestComprehensionScopeDoesNotLeak(t *testing.T) {
	src := `xs = [x for x in range(3)]
x
`
	errv := runFail(t, src)
	if errv.ErrKind != value.NameError {
		t.Fatalf("comprehension variable leaked: %s", errv.ErrKind)
	}
}

func TestBuiltins(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"len([1, 2, 3])", "3"},
		{`len("héllo")`, "5"},
		{`type("x")`, `"string"`},
		{"type(None)", `"NoneType"`},
		{"str(1.5)", `"1.5"`},
		{`int("42")`, "42"},
		{"int(3.9)", "3"},
		{`float("2.5")`, "2.5"},
		{"bool([])", "False"},
		{"range(3)", "[0, 1, 2]"},
		{"range(2, 8, 3)", "[2, 5]"},
		{"range(3, 0, -1)", "[3, 2, 1]"},
		{"sorted([3, 1, 2])", "[1, 2, 3]"},
		{"sorted([3, 1, 2], reverse=True)", "[3, 2, 1]"},
		{`sorted(["bb", "a"], key=len)`, `["a", "bb"]`},
		{"reversed([1, 2, 3])", "[3, 2, 1]"},
		{"enumerate([\"a\", \"b\"])", `[(0, "a"), (1, "b")]`},
		{"zip([1, 2, 3], [\"a\", \"b\"])", `[(1, "a"), (2, "b")]`},
		{"min([4, 2, 9])", "2"},
		{"max(1, 5, 3)", "5"},
		{"sum([1, 2, 3.5])", "6.5"},
		{"any([0, False, 2])", "True"},
		{"all([1, True, \"x\"])", "True"},
		{"all([1, 0])", "False"},
		{`keys({"a": 1, "b": 2})`, `["a", "b"]`},
		{`values({"a": 1, "b": 2})`, "[1, 2]"},
		{"list((1, 2))", "[1, 2]"},
		{"tuple([1, 2])", "(1, 2)"},
		{`dict([("a", 1), ("b", 2)])`, `{"a": 1, "b": 2}`},
	}

	for _, tt := range tests {
		got := runSource(t, tt.input+"\n")
		if got.Inspect() != tt.want {
			t.Errorf("%q: got %s, want %s", tt.input, got.Inspect(), tt.want)
		}
	}
}

func TestMethods(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{`"a,b,c".split(",")`, `["a", "b", "c"]`},
		{`"-".join(["x", "y"])`, `"x-y"`},
		{`"  pad  ".strip()`, `"pad"`},
		{`"abc".upper()`, `"ABC"`},
		{`"ABC".lower()`, `"abc"`},
		{`"hello".replace("l", "L")`, `"heLLo"`},
		{`"hello".startswith("he")`, "True"},
		{`"hello".endswith("lo")`, "True"},
		{`"hello".find("ll")`, "2"},
		{`"hello".find("zz")`, "-1"},
		{`xs = [1]
xs.append(2)
xs
`, "[1, 2]"},
		{`xs = [1, 2, 3]
xs.pop()
xs
`, "[1, 2]"},
		{`xs = [1, 3]
xs.insert(1, 2)
xs
`, "[1, 2, 3]"},
		{`xs = [1, 2, 3]
xs.remove(2)
xs
`, "[1, 3]"},
		{`[10, 20, 30].index(20)`, "1"},
		{`{"a": 1}.get("a")`, "1"},
		{`{"a": 1}.get("z", 0)`, "0"},
		{`{"a": 1, "b": 2}.keys()`, `["a", "b"]`},
		{`{"a": 1, "b": 2}.items()`, `[("a", 1), ("b", 2)]`},
		{`d = {"a": 1}
d.update({"b": 2})
d
`, `{"a": 1, "b": 2}`},
		{`s = {1, 2}
s.add(3)
len(s)
`, "3"},
		{`s = {1, 2, 3}
s.remove(2)
2 in s
`, "False"},
	}

	for _, tt := range tests {
		got := runSource(t, tt.input+"\n")
		if got.Inspect() != tt.want {
			t.Errorf("%q: got %s, want %s", tt.input, got.Inspect(), tt.want)
		}
	}
}

func TestUnknownMethodIsTypeError(t *testing.T) {
	errv := runFail(t, `"abc".shout()`+"\n")
	if errv.ErrKind != value.TypeError {
		t.Fatalf("kind = %s, want TypeError", errv.ErrKind)
	}
}

func TestTupleUnpacking(t *testing.T) {
	got := runSource(t, "a, b = 1, 2\na + b\n")
	if got.Inspect() != "3" {
		t.Fatalf("unpack: got %s", got.Inspect())
	}

	got = runSource(t, "a, b = [10, 20]\nb\n")
	if got.Inspect() != "20" {
		t.Fatalf("unpack from list: got %s", got.Inspect())
	}

	got = runSource(t, "a, b = 1, 2\na, b = b, a\n[a, b]\n")
	if got.Inspect() != "[2, 1]" {
		t.Fatalf("swap: got %s", got.Inspect())
	}

	errv := runFail(t, "a, b = [1, 2, 3]\n")
	if errv.ErrKind != value.ValueError {
		t.Fatalf("size mismatch: kind = %s, want ValueError", errv.ErrKind)
	}
}

func TestErrorsCarryStackFrames(t *testing.T) {
	src := `def inner():
    return 1 // 0
def outer():
    return inner()
outer()
`
	errv := runFail(t, src)
	if errv.ErrKind != value.ValueError {
		t.Fatalf("kind = %s", errv.ErrKind)
	}
	out := errv.Inspect()
	if !strings.Contains(out, "inner") || !strings.Contains(out, "outer") {
		t.Errorf("stack missing frames:\n%s", out)
	}
}

func TestErrorsPropagateWithoutCatching(t *testing.T) {
	// no try/catch in the language; the first error aborts the program
	src := `def boom():
    fail("early")
    return "unreachable"
x = boom()
x
`
	errv := runFail(t, src)
	if errv.ErrKind != value.UserFail || !strings.Contains(errv.Message, "early") {
		t.Fatalf("got %s: %s", errv.ErrKind, errv.Message)
	}
}

func TestRecursionDepthGuard(t *testing.T) {
	src := `def loop():
    return loop()
loop()
`
	errv := runFail(t, src)
	if !strings.Contains(errv.Message, "depth") && !strings.Contains(errv.Message, "recursion") {
		t.Fatalf("unexpected message: %s", errv.Message)
	}
}

func TestIndexAssignment(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{`xs = [1, 2, 3]
xs[1] = 20
xs
`, "[1, 20, 3]"},
		{`xs = [1, 2, 3]
xs[-1] = 30
xs
`, "[1, 2, 30]"},
		{`d = {}
d["k"] = 1
d["k"] += 1
d
`, `{"k": 2}`},
		{`calls = 0
def idx():
    calls = calls + 1
    return 1
xs = [10, 20, 30]
xs[idx()] += 1
[xs, calls]
`, "[[10, 21, 30], 1]"},
	}

	for _, tt := range tests {
		got := runSource(t, tt.input)
		if got.Inspect() != tt.want {
			t.Errorf("got %s, want %s for:\n%s", got.Inspect(), tt.want, tt.input)
		}
	}
}

func TestAssigningToBuiltinNameFails(t *testing.T) {
	errv := runFail(t, "len = 5\n")
	if errv.ErrKind != value.ValueError {
		t.Fatalf("kind = %s, want %s", errv.ErrKind, value.ValueError)
	}

	// a parameter with the same name defines locally instead
	src := `def first(len):
    return len
first(7)
`
	got := runSource(t, src)
	if got.Inspect() != "7" {
		t.Fatalf("got %s, want 7", got.Inspect())
	}
}

func TestDictKeyKinds(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{`{1.5: "x"}[1.5]
`, `"x"`},
		{`len({1.5: "x", 2.5: "y"})
`, "2"},
		{`{(1, "a"): 7}[(1, "a")]
`, "7"},
		{`d = {}
d[(1, 2)] = "a"
d[(9, 99)] = "b"
len(d)
`, "2"},
		{`(1.5, "a") in {(1.5, "a")}
`, "True"},
	}

	for _, tt := range tests {
		got := runSource(t, tt.input)
		if got.Inspect() != tt.want {
			t.Errorf("got %s, want %s for:\n%s", got.Inspect(), tt.want, tt.input)
		}
	}
}

func TestParseErrorSurfacesFromRunSource(t *testing.T) {
	r := testRuntime(t)
	_, err := r.RunSource("def broken(:\n", "bad.bp")
	if err == nil {
		t.Fatalf("expected parse error")
	}
	if !strings.Contains(err.Error(), "bad.bp") {
		t.Errorf("parse error missing file name: %v", err)
	}
}
