package runtime

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/alexchoi0/blueprint-engine/internal/config"
	"github.com/alexchoi0/blueprint-engine/internal/value"
)

// moduleRuntime builds a runtime rooted at a temp dir and writes the given
// modules into it.
func moduleRuntime(t *testing.T, files map[string]string) (*Runtime, string) {
	t.Helper()
	dir := t.TempDir()
	for name, src := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	cfg := config.Default()
	cfg.Root = dir
	r := NewRuntime(cfg)
	t.Cleanup(r.Close)
	return r, dir
}

func TestLoadSelectedSymbols(t *testing.T) {
	r, _ := moduleRuntime(t, map[string]string{
		"lib.bp": `def double(x):
    return x * 2
answer = 42
`,
	})

	src := `load("lib", "double", "answer")
double(answer)
`
	v, err := r.RunSource(src, "main.bp")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Inspect() != "84" {
		t.Fatalf("got %s", v.Inspect())
	}
}

func TestLoadWithAlias(t *testing.T) {
	r, _ := moduleRuntime(t, map[string]string{
		"lib.bp": "answer = 42\n",
	})

	src := `load("lib", a="answer")
a
`
	v, err := r.RunSource(src, "main.bp")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Inspect() != "42" {
		t.Fatalf("got %s", v.Inspect())
	}
}

func TestLoadWildcard(t *testing.T) {
	r, _ := moduleRuntime(t, map[string]string{
		"lib.bp": `x = 1
y = 2
_hidden = 3
`,
	})

	src := `load("lib", "*")
x + y
`
	v, err := r.RunSource(src, "main.bp")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Inspect() != "3" {
		t.Fatalf("got %s", v.Inspect())
	}

	// underscore names stay private even under a wildcard
	_, err = r.RunSource("load(\"lib\", \"*\")\n_hidden\n", "main2.bp")
	if err == nil {
		t.Fatalf("expected NameError for private symbol")
	}
}

func TestLoadMissingExport(t *testing.T) {
	r, _ := moduleRuntime(t, map[string]string{
		"lib.bp": "x = 1\n_secret = 2\n",
	})

	for _, sym := range []string{"ghost", "_secret"} {
		_, err := r.RunSource(`load("lib", "`+sym+`")`+"\n", "main.bp")
		if err == nil {
			t.Fatalf("expected error loading %q", sym)
		}
		var errv *value.Error
		if !asLangError(err, &errv) || errv.ErrKind != value.NameError {
			t.Fatalf("loading %q: got %v", sym, err)
		}
	}
}

func asLangError(err error, out **value.Error) bool {
	if errv, ok := err.(*value.Error); ok {
		*out = errv
		return true
	}
	return false
}

func TestLoadedModuleIsFrozen(t *testing.T) {
	r, _ := moduleRuntime(t, map[string]string{
		"lib.bp": "xs = [1, 2]\n",
	})

	src := `load("lib", "xs")
xs.append(3)
`
	_, err := r.RunSource(src, "main.bp")
	if err == nil {
		t.Fatalf("expected an error mutating a frozen module export")
	}
	var errv *value.Error
	if !asLangError(err, &errv) || errv.ErrKind != value.ValueError {
		t.Fatalf("got %v", err)
	}
	if !strings.Contains(errv.Message, "frozen") {
		t.Errorf("message: %s", errv.Message)
	}
}

func TestModuleBodyRunsOnce(t *testing.T) {
	marker := filepath.Join(t.TempDir(), "marker")
	r, _ := moduleRuntime(t, map[string]string{
		"side.bp": `file.append("` + marker + `", "x")
tag = 1
`,
	})

	src := `load("side", "tag")
load("side", t2="tag")
tag + t2
`
	v, err := r.RunSource(src, "main.bp")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Inspect() != "2" {
		t.Fatalf("got %s", v.Inspect())
	}

	data, err := os.ReadFile(marker)
	if err != nil {
		t.Fatalf("marker not written: %v", err)
	}
	if string(data) != "x" {
		t.Fatalf("module body ran %d times", len(data))
	}
}

func TestConcurrentLoadsExecuteOnce(t *testing.T) {
	marker := filepath.Join(t.TempDir(), "marker")
	r, dir := moduleRuntime(t, map[string]string{
		"side.bp": `file.append("` + marker + `", "x")
tag = 1
`,
	})
	modPath := filepath.Join(dir, "side.bp")

	const loaders = 8
	var wg sync.WaitGroup
	errs := make([]*value.Error, loaders)
	for i := 0; i < loaders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			task := r.newTask("main.bp")
			r.Sched.Acquire()
			defer r.Sched.Release()
			_, errs[i] = r.LoadModule(task, modPath)
		}(i)
	}
	wg.Wait()

	for i, errv := range errs {
		if errv != nil {
			t.Fatalf("loader %d failed: %s", i, errv.Message)
		}
	}
	data, err := os.ReadFile(marker)
	if err != nil {
		t.Fatalf("marker not written: %v", err)
	}
	if string(data) != "x" {
		t.Fatalf("module body ran %d times under concurrent load", len(data))
	}
}

func TestLoadCycleDetected(t *testing.T) {
	r, _ := moduleRuntime(t, map[string]string{
		"a.bp": `load("b", "bee")
aye = 1
`,
		"b.bp": `load("a", "aye")
bee = 2
`,
	})

	_, err := r.RunSource(`load("a", "aye")`+"\n", "main.bp")
	if err == nil {
		t.Fatalf("expected a cycle error")
	}
	var errv *value.Error
	if !asLangError(err, &errv) {
		t.Fatalf("got %v", err)
	}
	if !strings.Contains(errv.Message, "cycle") {
		t.Errorf("message: %s", errv.Message)
	}
}

func TestFailedLoadIsReplayed(t *testing.T) {
	r, _ := moduleRuntime(t, map[string]string{
		"broken.bp": `fail("module init failed")
x = 1
`,
	})

	var first, second *value.Error
	_, err := r.RunSource(`load("broken", "x")`+"\n", "main.bp")
	if err == nil || !asLangError(err, &first) {
		t.Fatalf("first load: got %v", err)
	}
	_, err = r.RunSource(`load("broken", "x")`+"\n", "main2.bp")
	if err == nil || !asLangError(err, &second) {
		t.Fatalf("second load: got %v", err)
	}

	if first.ErrKind != value.UserFail || second.ErrKind != value.UserFail {
		t.Fatalf("kinds: %s, %s", first.ErrKind, second.ErrKind)
	}
	if first.Message != second.Message {
		t.Errorf("replayed failure differs: %q vs %q", first.Message, second.Message)
	}
}

func TestStdPrefixResolvesUnderHome(t *testing.T) {
	home := t.TempDir()
	if err := os.MkdirAll(filepath.Join(home, "std"), 0o755); err != nil {
		t.Fatal(err)
	}
	src := "def trim_all(xs):\n    return [x.strip() for x in xs]\n"
	if err := os.WriteFile(filepath.Join(home, "std", "strings.bp"), []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := config.Default()
	cfg.Home = home
	cfg.Root = t.TempDir()
	r := NewRuntime(cfg)
	t.Cleanup(r.Close)

	v, err := r.RunSource(`load("std:strings", "trim_all")
trim_all([" a ", "b "])
`, "main.bp")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Inspect() != `["a", "b"]` {
		t.Fatalf("got %s", v.Inspect())
	}
}

func TestStdPrefixWithoutHomeFails(t *testing.T) {
	cfg := config.Default()
	cfg.Home = ""
	cfg.Root = t.TempDir()
	r := NewRuntime(cfg)
	t.Cleanup(r.Close)

	_, err := r.RunSource(`load("std:strings", "trim_all")`+"\n", "main.bp")
	if err == nil {
		t.Fatalf("expected an error without BLUEPRINT_HOME")
	}
}

func TestModuleLocalHelpersStayPrivate(t *testing.T) {
	r, _ := moduleRuntime(t, map[string]string{
		"lib.bp": `def _helper(x):
    return x + 1
def bump(x):
    return _helper(x)
`,
	})

	v, err := r.RunSource(`load("lib", "bump")
bump(41)
`, "main.bp")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Inspect() != "42" {
		t.Fatalf("got %s", v.Inspect())
	}
}
