package native

import (
	"crypto/hmac"
	"crypto/md5"
	"crypto/rand"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"hash"

	"github.com/alexchoi0/blueprint-engine/internal/value"
)

func cryptoFns() []*Fn {
	return []*Fn{
		{Name: "sha256", Call: digestFn("crypto.sha256", sha256.New)},
		{Name: "sha512", Call: digestFn("crypto.sha512", sha512.New)},
		{Name: "sha1", Call: digestFn("crypto.sha1", sha1.New)},
		{Name: "md5", Call: digestFn("crypto.md5", md5.New)},
		{Name: "hmac_sha256", Call: cryptoHmac},
		{Name: "random_bytes", Call: cryptoRandomBytes},
		{Name: "uuid", Call: cryptoUUID},
		{Name: "hex_encode", Call: cryptoHexEncode},
		{Name: "hex_decode", Call: cryptoHexDecode},
		{Name: "base64_encode", Call: cryptoBase64Encode},
		{Name: "base64_decode", Call: cryptoBase64Decode},
	}
}

func byteArg(name string, args []value.Value, i int) ([]byte, *value.Error) {
	if i >= len(args) {
		return nil, value.NewArgumentError("%s() missing argument %d", name, i+1)
	}
	switch v := args[i].(type) {
	case *value.String:
		return []byte(v.Value), nil
	case *value.Bytes:
		return v.Value, nil
	}
	return nil, value.NewTypeError("%s() argument %d must be a string or bytes, got %s",
		name, i+1, value.TypeName(args[i]))
}

func digestFn(name string, newHash func() hash.Hash) func(*Context, []value.Value, map[string]value.Value) value.Value {
	return func(ctx *Context, args []value.Value, kwargs map[string]value.Value) value.Value {
		data, errv := byteArg(name, args, 0)
		if errv != nil {
			return errv
		}
		h := newHash()
		h.Write(data)
		return &value.String{Value: hex.EncodeToString(h.Sum(nil))}
	}
}

func cryptoHmac(ctx *Context, args []value.Value, kwargs map[string]value.Value) value.Value {
	key, errv := byteArg("crypto.hmac_sha256", args, 0)
	if errv != nil {
		return errv
	}
	data, errv := byteArg("crypto.hmac_sha256", args, 1)
	if errv != nil {
		return errv
	}
	mac := hmac.New(sha256.New, key)
	mac.Write(data)
	return &value.String{Value: hex.EncodeToString(mac.Sum(nil))}
}

func cryptoRandomBytes(ctx *Context, args []value.Value, kwargs map[string]value.Value) value.Value {
	n, errv := argInt("crypto.random_bytes", args, 0)
	if errv != nil {
		return errv
	}
	if n < 0 || n > 1<<20 {
		return value.NewValueError("crypto.random_bytes: size out of range: %d", n)
	}
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return value.NewNativeError("crypto.random_bytes: %v", err)
	}
	return &value.Bytes{Value: buf}
}

// cryptoUUID returns a random version 4 UUID string.
func cryptoUUID(ctx *Context, args []value.Value, kwargs map[string]value.Value) value.Value {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		return value.NewNativeError("crypto.uuid: %v", err)
	}
	b[6] = (b[6] & 0x0f) | 0x40
	b[8] = (b[8] & 0x3f) | 0x80
	s := fmt.Sprintf("%x-%x-%x-%x-%x", b[0:4], b[4:6], b[6:8], b[8:10], b[10:16])
	return &value.String{Value: s}
}

func cryptoHexEncode(ctx *Context, args []value.Value, kwargs map[string]value.Value) value.Value {
	data, errv := byteArg("crypto.hex_encode", args, 0)
	if errv != nil {
		return errv
	}
	return &value.String{Value: hex.EncodeToString(data)}
}

func cryptoHexDecode(ctx *Context, args []value.Value, kwargs map[string]value.Value) value.Value {
	src, errv := argString("crypto.hex_decode", args, 0)
	if errv != nil {
		return errv
	}
	data, err := hex.DecodeString(src)
	if err != nil {
		return value.NewValueError("crypto.hex_decode: %v", err)
	}
	return &value.Bytes{Value: data}
}

func cryptoBase64Encode(ctx *Context, args []value.Value, kwargs map[string]value.Value) value.Value {
	data, errv := byteArg("crypto.base64_encode", args, 0)
	if errv != nil {
		return errv
	}
	return &value.String{Value: base64.StdEncoding.EncodeToString(data)}
}

func cryptoBase64Decode(ctx *Context, args []value.Value, kwargs map[string]value.Value) value.Value {
	src, errv := argString("crypto.base64_decode", args, 0)
	if errv != nil {
		return errv
	}
	data, err := base64.StdEncoding.DecodeString(src)
	if err != nil {
		return value.NewValueError("crypto.base64_decode: %v", err)
	}
	return &value.Bytes{Value: data}
}
