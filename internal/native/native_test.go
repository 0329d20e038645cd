package native

import (
	"testing"

	"github.com/alexchoi0/blueprint-engine/internal/config"
	"github.com/alexchoi0/blueprint-engine/internal/value"
)

func TestRegistryGroupsAndQualifiedNames(t *testing.T) {
	r := NewRegistry(config.Default())
	defer r.Close()

	modules := r.Modules()
	for _, group := range []string{"file", "http", "json", "crypto", "process", "time", "console", "db", "store"} {
		mod, ok := modules[group]
		if !ok {
			t.Errorf("missing native group %q", group)
			continue
		}
		if !mod.Exports.Frozen() {
			t.Errorf("group %q is not frozen", group)
		}
	}

	jsonMod := modules["json"]
	enc, ok := jsonMod.Exports.GetLocal("encode")
	if !ok {
		t.Fatalf("json.encode not registered")
	}
	fn := enc.(*Fn)
	if fn.Name != "json.encode" {
		t.Errorf("qualified name = %q", fn.Name)
	}
}

func TestJSONRoundTrip(t *testing.T) {
	in := value.NewDict()
	in.Set(&value.String{Value: "n"}, &value.Int{Value: 3})
	in.Set(&value.String{Value: "f"}, &value.Float{Value: 1.5})
	in.Set(&value.String{Value: "ok"}, value.True)
	in.Set(&value.String{Value: "xs"}, &value.List{Elements: []value.Value{
		&value.String{Value: "a"}, value.None,
	}})

	encoded := jsonEncode(nil, []value.Value{in}, nil)
	s, ok := encoded.(*value.String)
	if !ok {
		t.Fatalf("encode returned %s", encoded.Inspect())
	}

	decoded := jsonDecode(nil, []value.Value{s}, nil)
	if !value.Equal(in, decoded) {
		t.Fatalf("round trip changed value:\n in: %s\nout: %s", in.Inspect(), decoded.Inspect())
	}
}

func TestJSONDecodeKeepsIntegersIntegral(t *testing.T) {
	decoded := jsonDecode(nil, []value.Value{&value.String{Value: `[1, 2.5]`}}, nil)
	list, ok := decoded.(*value.List)
	if !ok {
		t.Fatalf("got %s", decoded.Inspect())
	}
	if _, ok := list.Elements[0].(*value.Int); !ok {
		t.Errorf("whole number decoded as %s", value.TypeName(list.Elements[0]))
	}
	if _, ok := list.Elements[1].(*value.Float); !ok {
		t.Errorf("fraction decoded as %s", value.TypeName(list.Elements[1]))
	}
}

func TestJSONEncodeRejectsNonStringKeys(t *testing.T) {
	d := value.NewDict()
	d.Set(&value.Int{Value: 1}, &value.Int{Value: 2})

	out := jsonEncode(nil, []value.Value{d}, nil)
	errv, ok := out.(*value.Error)
	if !ok || errv.ErrKind != value.TypeError {
		t.Fatalf("got %s", out.Inspect())
	}
}

func TestDigests(t *testing.T) {
	tests := []struct {
		fn   func(*Context, []value.Value, map[string]value.Value) value.Value
		in   string
		want string
	}{
		{
			fn:   cryptoHexEncode,
			in:   "abc",
			want: "616263",
		},
		{
			fn:   cryptoBase64Encode,
			in:   "abc",
			want: "YWJj",
		},
	}
	for _, tt := range tests {
		got := tt.fn(nil, []value.Value{&value.String{Value: tt.in}}, nil)
		s, ok := got.(*value.String)
		if !ok || s.Value != tt.want {
			t.Errorf("got %s, want %q", got.Inspect(), tt.want)
		}
	}

	sha := cryptoFns()[0]
	digest := sha.Call(nil, []value.Value{&value.String{Value: "abc"}}, nil)
	s, ok := digest.(*value.String)
	if !ok || len(s.Value) != 64 {
		t.Fatalf("sha256 digest = %s", digest.Inspect())
	}
	if s.Value != "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad" {
		t.Errorf("sha256(\"abc\") = %s", s.Value)
	}
}

func TestHexAndBase64Decode(t *testing.T) {
	out := cryptoHexDecode(nil, []value.Value{&value.String{Value: "616263"}}, nil)
	b, ok := out.(*value.Bytes)
	if !ok || string(b.Value) != "abc" {
		t.Fatalf("hex_decode = %s", out.Inspect())
	}

	out = cryptoHexDecode(nil, []value.Value{&value.String{Value: "zz"}}, nil)
	errv, ok := out.(*value.Error)
	if !ok || errv.ErrKind != value.ValueError {
		t.Fatalf("bad hex: got %s", out.Inspect())
	}

	out = cryptoBase64Decode(nil, []value.Value{&value.String{Value: "YWJj"}}, nil)
	b, ok = out.(*value.Bytes)
	if !ok || string(b.Value) != "abc" {
		t.Fatalf("base64_decode = %s", out.Inspect())
	}
}

func TestRandomBytesBounds(t *testing.T) {
	out := cryptoRandomBytes(nil, []value.Value{&value.Int{Value: 16}}, nil)
	b, ok := out.(*value.Bytes)
	if !ok || len(b.Value) != 16 {
		t.Fatalf("got %s", out.Inspect())
	}

	out = cryptoRandomBytes(nil, []value.Value{&value.Int{Value: -1}}, nil)
	if _, ok := out.(*value.Error); !ok {
		t.Fatalf("negative size accepted: %s", out.Inspect())
	}
}

func TestUUIDShape(t *testing.T) {
	out := cryptoUUID(nil, nil, nil)
	s, ok := out.(*value.String)
	if !ok {
		t.Fatalf("got %s", out.Inspect())
	}
	if len(s.Value) != 36 || s.Value[14] != '4' {
		t.Errorf("not a v4 uuid: %q", s.Value)
	}
	other := cryptoUUID(nil, nil, nil).(*value.String)
	if other.Value == s.Value {
		t.Errorf("two uuids collided: %q", s.Value)
	}
}

func TestRedactMasksSecrets(t *testing.T) {
	args := []value.Value{
		&value.String{Value: "token=hunter2 user=pat pass=hunter2"},
		&value.String{Value: "hunter2"},
		&value.String{Value: "pat"},
	}
	out := consoleRedact(nil, args, nil)
	s, ok := out.(*value.String)
	if !ok {
		t.Fatalf("got %s", out.Inspect())
	}
	if s.Value != "token=*** user=*** pass=***" {
		t.Errorf("redacted = %q", s.Value)
	}

	out = consoleRedact(nil, []value.Value{
		&value.String{Value: "x"}, &value.Int{Value: 1},
	}, nil)
	errv, ok := out.(*value.Error)
	if !ok || errv.ErrKind != value.TypeError {
		t.Fatalf("non-string secret: got %s", out.Inspect())
	}
}
